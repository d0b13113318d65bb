// Package cmd wires the smart-notes command line.
package cmd

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"smart-notes/config"
	"smart-notes/logging"
)

// app carries the state shared by the subcommands once the root
// pre-run has resolved it.
type app struct {
	v   *viper.Viper
	cfg config.Config
	log zerolog.Logger
}

// NewRootCommand builds the command tree. Running it without a subcommand
// starts the server.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "smart-notes",
		Short:         "Notes API with LLM translation and note generation",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initialize(cmd)
		},
	}

	if err := setupFlags(rootCmd, a.v); err != nil {
		panic(err)
	}

	serveCmd := newServeCommand(a)
	rootCmd.RunE = serveCmd.RunE
	rootCmd.AddCommand(serveCmd, newInitDBCommand(a), newMigrateCommand(a))

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

func setupFlags(rootCmd *cobra.Command, v *viper.Viper) error {
	flags := rootCmd.PersistentFlags()
	flags.String("port", "", "Port to listen on (env PORT)")
	flags.String("database-url", "", "Database URL; empty keeps notes in memory (env DATABASE_URL)")
	flags.String("log-level", "", "Log level: trace, debug, info, warn, error (env LOG_LEVEL)")
	flags.String("log-format", "", "Log format: console or json (env LOG_FORMAT)")

	for key, name := range map[string]string{
		"port":         "port",
		"database_url": "database-url",
		"log_level":    "log-level",
		"log_format":   "log-format",
	} {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}
	return nil
}

func (a *app) initialize(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.log, err = logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	return err
}
