package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/casewise/checkpoint/internal/checkpoint"
	"github.com/casewise/checkpoint/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Database   string
	ConfigPath string
	Verbose    bool
	Format     string // "json" | "text"

	// Config is populated from ConfigPath during PersistentPreRunE.
	Config Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the checkpoints CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "checkpoints",
		Short: "Inspect and revert casewise checkpoints",
		Long: `Operator tooling for the casewise checkpoint/undo-log subsystem.

Lists active and historical checkpoints, rolls back in-flight ones,
restores the data store to the state before any past checkpoint, and
purges history without touching data.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}

			if opts.ConfigPath != "" {
				cfg, err := LoadConfig(opts.ConfigPath)
				if err != nil {
					return err
				}
				opts.Config = cfg
				if opts.Database == "" {
					opts.Database = cfg.Database
				}
			}

			// Manager logs go to stderr so they never corrupt JSON output.
			logrus.SetOutput(cmd.ErrOrStderr())
			if opts.Verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.WarnLevel)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to checkpoint SQLite database")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	// Add subcommands
	cmd.AddCommand(NewActiveCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewRollbackCommand(opts))
	cmd.AddCommand(NewRestoreCommand(opts))
	cmd.AddCommand(NewPurgeCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// openManager opens the store named by the global flags and builds a
// manager on top of it. The caller closes the returned store.
func openManager(opts *RootOptions) (*store.Store, *checkpoint.Manager, error) {
	if opts.Database == "" {
		return nil, nil, NewExitError(ExitCommandError, "no database: pass --db or set database in --config")
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	return st, checkpoint.New(st), nil
}

// scopeFilter translates the shared --object/--app flags into a manager
// filter. Cobra cannot distinguish "zero" from "unset", so presence is
// checked through Changed.
func scopeFilter(cmd *cobra.Command, objectID, applicationID int64, limit int) checkpoint.Filter {
	var f checkpoint.Filter
	if cmd.Flags().Changed("object") {
		f.ObjectID = &objectID
	}
	if cmd.Flags().Changed("app") {
		f.ApplicationID = &applicationID
	}
	f.Limit = limit
	return f
}
