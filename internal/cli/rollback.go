package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/casewise/checkpoint/internal/checkpoint"
)

// NewRollbackCommand creates the rollback command.
func NewRollbackCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollback <checkpoint-id>",
		Short: "Reverse an active checkpoint",
		Long: `Reverse every operation logged under an active checkpoint, newest
first, in a single transaction. On success the checkpoint is marked
rolled_back and its undo log is consumed.

Rolling back a checkpoint that is not active fails without touching data.

Examples:
  checkpoints rollback 01890a5d-ac96-774b-bcce-b302099a8057 --db ./checkpoints.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRollback(rootOpts, cmd, args[0])
		},
	}

	return cmd
}

func runRollback(opts *RootOptions, cmd *cobra.Command, id string) error {
	ctx := context.Background()

	st, mgr, err := openManager(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := mgr.Rollback(ctx, id); err != nil {
		return failOp(opts, cmd, "rollback failed", err)
	}

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format == "json" {
		return f.Success(map[string]string{"checkpoint_id": id, "result": "rolled_back"})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "rolled back checkpoint %s\n", id)
	return nil
}

// stateErrorCode maps a manager error onto a CLI error code for JSON output.
func stateErrorCode(err error) string {
	switch {
	case checkpoint.IsNotFound(err):
		return string(checkpoint.ErrCodeNotFound)
	case checkpoint.IsInvalidState(err):
		return string(checkpoint.ErrCodeInvalidState)
	case checkpoint.IsUndoFailure(err):
		return string(checkpoint.ErrCodeUndoFailed)
	default:
		return "INTERNAL"
	}
}

// failOp emits a JSON error envelope when requested, then returns the
// exit-coded error for main to report.
func failOp(opts *RootOptions, cmd *cobra.Command, msg string, err error) error {
	if opts.Format == "json" {
		f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		_ = f.Error(stateErrorCode(err), err.Error())
	}
	return WrapExitError(ExitFailure, msg, err)
}
