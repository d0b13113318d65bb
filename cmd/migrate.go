package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"smart-notes/db"
)

const defaultMigrateSource = "sqlite://notes.db"

func newMigrateCommand(a *app) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy every note from one database to another",
		Long: `Copy every note from --from into --to in one transaction on the target.
Title, content, tags, event date and time, and the last update time are kept.
Ids are reassigned by the target.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if to == "" {
				to = a.cfg.DatabaseURL
			}
			if to == "" {
				return errors.New("--to or DATABASE_URL is required")
			}
			if from == to {
				return errors.New("source and target are the same database")
			}

			src, err := db.Open(from, a.log)
			if err != nil {
				return err
			}
			defer src.Close()

			dst, err := db.Open(to, a.log)
			if err != nil {
				return err
			}
			defer dst.Close()

			n, err := db.CopyNotes(cmd.Context(), src, dst)
			if err != nil {
				return err
			}
			a.log.Info().Int("notes", n).Str("from", src.Kind()).Str("to", dst.Kind()).Msg("migration complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", defaultMigrateSource, "Source database URL")
	cmd.Flags().StringVar(&to, "to", "", "Target database URL (defaults to DATABASE_URL)")
	return cmd
}
