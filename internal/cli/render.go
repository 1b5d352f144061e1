package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/casewise/checkpoint/internal/record"
)

// checkpointRowFormat lays out one listing line. Fixed-width columns keep
// the output stable for golden comparison: IDs are always 36 characters,
// the longest status is rolled_back (11), and the timestamp renders to 19.
const (
	checkpointHeaderFormat = "%-36s  %-11s  %8s  %7s  %-19s  %s\n"
	checkpointRowFormat    = "%-36s  %-11s  %8d  %7d  %-19s  %s\n"
	checkpointTimeLayout   = "2006-01-02 15:04:05"
)

// renderCheckpoints writes a text listing, newest-first as given.
func renderCheckpoints(w io.Writer, checkpoints []record.Checkpoint) {
	if len(checkpoints) == 0 {
		fmt.Fprintln(w, "no checkpoints")
		return
	}

	fmt.Fprintf(w, checkpointHeaderFormat, "ID", "STATUS", "OBJECT", "CHANGES", "CREATED", "DESCRIPTION")
	for _, cp := range checkpoints {
		fmt.Fprintf(w, checkpointRowFormat,
			cp.ID,
			cp.Status,
			cp.ObjectID,
			cp.ChangesCount,
			cp.CreatedAt.UTC().Format(checkpointTimeLayout),
			cp.Description,
		)
	}
}

// renderCheckpointDetail writes one checkpoint with its audit fields.
func renderCheckpointDetail(w io.Writer, cp record.Checkpoint) {
	fmt.Fprintf(w, "ID:           %s\n", cp.ID)
	fmt.Fprintf(w, "Status:       %s\n", cp.Status)
	fmt.Fprintf(w, "Object:       %d\n", cp.ObjectID)
	if cp.ApplicationID != nil {
		fmt.Fprintf(w, "Application:  %d\n", *cp.ApplicationID)
	}
	fmt.Fprintf(w, "Source:       %s\n", cp.Source)
	fmt.Fprintf(w, "Description:  %s\n", cp.Description)
	fmt.Fprintf(w, "Command:      %s\n", cp.UserCommand)
	fmt.Fprintf(w, "Changes:      %d\n", cp.ChangesCount)
	fmt.Fprintf(w, "Created:      %s\n", cp.CreatedAt.UTC().Format(checkpointTimeLayout))
	if cp.FinishedAt != nil {
		fmt.Fprintf(w, "Finished:     %s\n", cp.FinishedAt.UTC().Format(checkpointTimeLayout))
	}
	if len(cp.ToolsExecuted) > 0 {
		fmt.Fprintf(w, "Tools:        %s\n", strings.Join(cp.ToolsExecuted, ", "))
	}
}
