package livingdocs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bagakit/bagakit-feat-task-harness/internal/core/types"
)

func TestSyncWritesDecisionAndHowtoNotes(t *testing.T) {
	inbox := filepath.Join(t.TempDir(), "inbox")
	feat := types.Feat{ID: "F-demo-001", Title: "Demo feat", Status: types.FeatArchived}

	if warning := Sync(inbox, feat, 3); warning != "" {
		t.Fatalf("Sync() warning = %q, want none", warning)
	}

	if _, err := os.Stat(filepath.Join(inbox, "decision-F-demo-001.md")); err != nil {
		t.Errorf("decision note missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(inbox, "howto-F-demo-001-result.md")); err != nil {
		t.Errorf("howto note missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(inbox, "gotcha-F-demo-001.md")); !os.IsNotExist(err) {
		t.Errorf("gotcha note exists with no gate failures recorded, want none")
	}
}

func TestSyncWritesGotchaNoteWhenGateFailStreakRecorded(t *testing.T) {
	inbox := filepath.Join(t.TempDir(), "inbox")
	feat := types.Feat{ID: "F-demo-001", Title: "Demo feat", Status: types.FeatArchived}
	feat.Counters.GateFailStreak = 4

	if warning := Sync(inbox, feat, 1); warning != "" {
		t.Fatalf("Sync() warning = %q, want none", warning)
	}

	data, err := os.ReadFile(filepath.Join(inbox, "gotcha-F-demo-001.md"))
	if err != nil {
		t.Fatalf("gotcha note missing: %v", err)
	}
	if len(data) == 0 {
		t.Errorf("gotcha note is empty")
	}
}

func TestSyncReportsWarningOnWriteFailure(t *testing.T) {
	// Make the inbox path a file rather than a directory so MkdirAll fails.
	root := t.TempDir()
	inbox := filepath.Join(root, "inbox")
	if err := os.WriteFile(inbox, []byte("not a directory"), 0o644); err != nil {
		t.Fatal(err)
	}

	feat := types.Feat{ID: "F-demo-001", Title: "Demo feat"}
	warning := Sync(inbox, feat, 0)
	if warning == "" {
		t.Errorf("Sync() warning is empty, want a failure reported when the inbox path is unusable")
	}
}
