package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewRestoreCommand creates the restore command.
func NewRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <checkpoint-id>",
		Short: "Restore the store to the state before a past checkpoint",
		Long: `Reverse a historical checkpoint and every historical checkpoint
created after it in the same object scope, newest first, in a single
transaction. The data store returns to the state immediately before the
target checkpoint began.

Every reversed checkpoint is marked rolled_back and its undo log is
consumed; restored rows that were reinserted may carry new surrogate
identities.

Examples:
  checkpoints restore 01890a5d-ac96-774b-bcce-b302099a8057 --db ./checkpoints.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestore(rootOpts, cmd, args[0])
		},
	}

	return cmd
}

func runRestore(opts *RootOptions, cmd *cobra.Command, id string) error {
	ctx := context.Background()

	st, mgr, err := openManager(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := mgr.RestoreTo(ctx, id); err != nil {
		return failOp(opts, cmd, "restore failed", err)
	}

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format == "json" {
		return f.Success(map[string]string{"checkpoint_id": id, "result": "restored"})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "restored to state before checkpoint %s\n", id)
	return nil
}
