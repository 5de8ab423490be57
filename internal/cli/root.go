// Package cli implements the roster command line.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mmynk/roster/internal/config"
	"github.com/mmynk/roster/pkg/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Backend    string
	DBPath     string
	Locale     string
	LogLevel   string

	// Config is resolved in PersistentPreRunE from file, env and flags.
	Config config.Config
}

// NewRootCommand creates the root command for the roster CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "roster",
		Short:         "Keep a list of people and their families",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", config.BackendSQLite, "storage backend (sqlite|memory)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "SQLite database path")
	cmd.PersistentFlags().StringVar(&opts.Locale, "locale", "", "collation locale for the memory backend")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")

	// Add subcommands
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewEditCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewFamilyDemoCommand(opts))
	cmd.AddCommand(NewFamiliesCommand(opts))
	cmd.AddCommand(NewShellCommand(opts))

	return cmd
}

// resolve layers flags over the file and environment settings and points
// the default logger at the command's stderr.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = o.Backend
	}
	if flags.Changed("db") {
		cfg.DBPath = o.DBPath
	}
	if flags.Changed("locale") {
		cfg.Locale = o.Locale
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	slog.SetDefault(logging.New(cmd.ErrOrStderr(), logging.ParseLevel(cfg.LogLevel)))
	o.Config = cfg
	return nil
}
