package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// PurgeOptions holds flags for the purge command.
type PurgeOptions struct {
	*RootOptions
	ObjectID      int64
	ApplicationID int64
	All           bool
}

// NewPurgeCommand creates the purge command.
func NewPurgeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PurgeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "purge [checkpoint-id]",
		Short: "Discard checkpoint history without applying any undo",
		Long: `Delete checkpoints and their undo logs. No undo is applied: data
rows keep their current values, the history simply disappears.

Pass a checkpoint ID to purge one checkpoint, or scope flags to purge in
bulk. --all with no scope removes everything.

Examples:
  checkpoints purge 01890a5d-ac96-774b-bcce-b302099a8057 --db ./checkpoints.db
  checkpoints purge --object 5 --db ./checkpoints.db
  checkpoints purge --all --db ./checkpoints.db`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPurge(opts, cmd, args)
		},
	}

	cmd.Flags().Int64Var(&opts.ObjectID, "object", 0, "purge every checkpoint for one object scope")
	cmd.Flags().Int64Var(&opts.ApplicationID, "app", 0, "purge every checkpoint for one application scope")
	cmd.Flags().BoolVar(&opts.All, "all", false, "purge every checkpoint")

	return cmd
}

func runPurge(opts *PurgeOptions, cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	scoped := cmd.Flags().Changed("object") || cmd.Flags().Changed("app")
	switch {
	case len(args) == 1 && (scoped || opts.All):
		return NewExitError(ExitCommandError, "pass either a checkpoint id or scope flags, not both")
	case len(args) == 0 && !scoped && !opts.All:
		return NewExitError(ExitCommandError, "nothing to purge: pass a checkpoint id, scope flags, or --all")
	}

	st, mgr, err := openManager(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	if len(args) == 1 {
		id := args[0]
		if err := mgr.Delete(ctx, id); err != nil {
			return failOp(opts.RootOptions, cmd, "purge failed", err)
		}
		if opts.Format == "json" {
			return f.Success(map[string]string{"checkpoint_id": id, "result": "purged"})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "purged checkpoint %s\n", id)
		return nil
	}

	filter := scopeFilter(cmd, opts.ObjectID, opts.ApplicationID, 0)
	n, err := mgr.DeleteAll(ctx, filter)
	if err != nil {
		return failOp(opts.RootOptions, cmd, "purge failed", err)
	}

	if opts.Format == "json" {
		return f.Success(map[string]int64{"purged": n})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "purged %d checkpoints\n", n)
	return nil
}
