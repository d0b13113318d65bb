package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"smart-notes/db"
)

func newInitDBCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "initdb",
		Short: "Create the notes table on DATABASE_URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is required")
			}

			store, err := db.Open(a.cfg.DatabaseURL, a.log)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Ping(cmd.Context()); err != nil {
				return err
			}
			a.log.Info().Str("store", store.Kind()).Msg("notes table ready")
			return nil
		},
	}
}
