package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	ObjectID      int64
	ApplicationID int64
	Limit         int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List committed and rolled-back checkpoints",
		Long: `List non-active checkpoints, newest first.

Historical checkpoints keep their undo log and remain restorable; a
rolled_back checkpoint has been consumed and exists for audit only.

Examples:
  checkpoints history --db ./checkpoints.db
  checkpoints history --db ./checkpoints.db --object 5 --limit 20
  checkpoints history --db ./checkpoints.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.ObjectID, "object", 0, "filter to one object scope")
	cmd.Flags().Int64Var(&opts.ApplicationID, "app", 0, "filter to one application scope")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "cap the listing (default 50)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, mgr, err := openManager(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	limit := opts.Limit
	if limit <= 0 {
		limit = opts.Config.HistoryLimit
	}

	checkpoints, err := mgr.History(ctx, scopeFilter(cmd, opts.ObjectID, opts.ApplicationID, limit))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list checkpoint history", err)
	}

	if opts.Format == "json" {
		f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return f.Success(checkpoints)
	}

	renderCheckpoints(cmd.OutOrStdout(), checkpoints)
	return nil
}
