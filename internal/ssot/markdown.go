package ssot

import (
	"fmt"
	"os"
	"strings"

	"github.com/bagakit/bagakit-feat-task-harness/internal/core/types"
)

// SyncTasksMarkdown renders a feat's tasks as a checklist at path. It is a
// rendering only, never read back as a source of truth - tasks.json remains
// authoritative.
func SyncTasksMarkdown(path string, doc types.TaskDocument) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Tasks for %s\n\n", doc.FeatID)
	for _, t := range doc.Tasks {
		mark := " "
		if t.Status == types.TaskDone {
			mark = "x"
		}
		fmt.Fprintf(&b, "- [%s] %s %s (%s)\n", mark, t.ID, t.Title, t.Status)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
