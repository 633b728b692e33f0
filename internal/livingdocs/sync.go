// Package livingdocs implements the best-effort living-docs inbox sync
// performed during archive-feat (spec.md §4.7 sub-step 6). It never
// returns a hard failure to the caller - a write failure is reported as a
// warning string, consistent with the archive finalizer treating this
// collaborator as non-blocking.
package livingdocs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bagakit/bagakit-feat-task-harness/internal/core/types"
)

const decisionTemplate = `# Decision: %s

Feat: %s
Status at archive: %s

(summary pending manual edit)
`

const howtoTemplate = `# How-to result: %s

Feat: %s completed with %d task(s).
`

const gotchaTemplate = `# Gotcha: %s

Feat %s hit %d consecutive gate failures before archiving.
`

// Sync writes decision/howto/gotcha notes for an archived feat into inbox.
// It returns a warning string (empty if everything succeeded) instead of
// an error, since this is a best-effort collaborator.
func Sync(inbox string, f types.Feat, taskCount int) string {
	if err := os.MkdirAll(inbox, 0o755); err != nil {
		return fmt.Sprintf("living-docs sync skipped: %v", err)
	}

	var warnings []string

	decisionPath := filepath.Join(inbox, "decision-"+f.ID+".md")
	if err := os.WriteFile(decisionPath, []byte(fmt.Sprintf(decisionTemplate, f.Title, f.ID, f.Status)), 0o644); err != nil {
		warnings = append(warnings, err.Error())
	}

	howtoPath := filepath.Join(inbox, "howto-"+f.ID+"-result.md")
	if err := os.WriteFile(howtoPath, []byte(fmt.Sprintf(howtoTemplate, f.Title, f.ID, taskCount)), 0o644); err != nil {
		warnings = append(warnings, err.Error())
	}

	if f.Counters.GateFailStreak > 0 {
		gotchaPath := filepath.Join(inbox, "gotcha-"+f.ID+".md")
		if err := os.WriteFile(gotchaPath, []byte(fmt.Sprintf(gotchaTemplate, f.Title, f.ID, f.Counters.GateFailStreak)), 0o644); err != nil {
			warnings = append(warnings, err.Error())
		}
	}

	if len(warnings) == 0 {
		return ""
	}
	return "living-docs sync: " + strings.Join(warnings, "; ")
}
