package app

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/bagakit/bagakit-feat-task-harness/internal/config"
	"github.com/bagakit/bagakit-feat-task-harness/internal/core/types"
)

// requireGit skips the test when git is not on PATH, matching the
// teacher's own note that adapters shelling out to an external binary
// need the binary present to exercise for real.
func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found on PATH")
	}
}

// initGitRepo creates a fresh repo with one commit on main, returning its
// root path.
func initGitRepo(t *testing.T) string {
	t.Helper()
	requireGit(t)

	root := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = root
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	run("init", "-q")
	run("config", "user.email", "harness-test@example.com")
	run("config", "user.name", "Harness Test")
	run("checkout", "-q", "-B", "main")

	readme := filepath.Join(root, "README.md")
	if err := os.WriteFile(readme, []byte("# test repo\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	run("add", "-A")
	run("commit", "-q", "-m", "initial commit")

	return root
}

// testServices bundles every app service against one Paths root, grounded
// on the teacher's newTestGroveService helper pattern but wiring real
// adapters (git CLI, filesystem) instead of mock repositories, since this
// domain's persistence is plain JSON files rather than repository
// interfaces.
type testServices struct {
	paths   types.Paths
	feats   *FeatService
	tasks   *TaskService
	archive *ArchiveService
	doctor  *DoctorService
}

func newTestServices(root string) *testServices {
	paths := types.NewPaths(root)
	feats := NewFeatService(paths)
	tasks := NewTaskService(paths, feats)
	archive := NewArchiveService(paths, feats)
	doctor := NewDoctorService(paths)
	return &testServices{paths: paths, feats: feats, tasks: tasks, archive: archive, doctor: doctor}
}

func saveDefaultConfig(t *testing.T, paths types.Paths) {
	t.Helper()
	cfg := types.DefaultConfig()
	cfg.Archive.RequireMerged = false
	cfg.Archive.RequireClean = false
	if err := config.Save(paths.ConfigFile(), &cfg); err != nil {
		t.Fatalf("config.Save() error = %v", err)
	}
}
