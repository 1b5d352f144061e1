package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// ActiveOptions holds flags for the active command.
type ActiveOptions struct {
	*RootOptions
	ObjectID      int64
	ApplicationID int64
	Limit         int
}

// NewActiveCommand creates the active command.
func NewActiveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ActiveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "active",
		Short: "List active (in-flight) checkpoints",
		Long: `List checkpoints that are still collecting operations.

An active checkpoint that never received its terminal commit or rollback
is an orphaned transaction; this listing is how those surface.

Examples:
  checkpoints active --db ./checkpoints.db
  checkpoints active --db ./checkpoints.db --object 5
  checkpoints active --db ./checkpoints.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runActive(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.ObjectID, "object", 0, "filter to one object scope")
	cmd.Flags().Int64Var(&opts.ApplicationID, "app", 0, "filter to one application scope")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "cap the listing (default 100)")

	return cmd
}

func runActive(opts *ActiveOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, mgr, err := openManager(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	limit := opts.Limit
	if limit <= 0 {
		limit = opts.Config.ActiveLimit
	}

	checkpoints, err := mgr.ActiveCheckpoints(ctx, scopeFilter(cmd, opts.ObjectID, opts.ApplicationID, limit))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list active checkpoints", err)
	}

	if opts.Format == "json" {
		f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return f.Success(checkpoints)
	}

	renderCheckpoints(cmd.OutOrStdout(), checkpoints)
	return nil
}
