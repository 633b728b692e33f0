package app

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bagakit/bagakit-feat-task-harness/internal/core/types"
	"github.com/bagakit/bagakit-feat-task-harness/internal/ssot"
)

// TestScenario_S1_HappyPath drives one task through every stage of the
// lifecycle in order: create-feat, add-task, start-task, run-task-gate
// (passing), prepare-task-commit, finish-task done, archive-feat.
func TestScenario_S1_HappyPath(t *testing.T) {
	root := initGitRepo(t)
	svc := newTestServices(root)
	if err := saveGateConfig(t, svc.paths, gateConfig("any", "true")); err != nil {
		t.Fatal(err)
	}

	feat, err := svc.feats.CreateFeat(CreateFeatInput{Slug: "happy-path", Title: "Happy path"})
	if err != nil {
		t.Fatalf("CreateFeat() error = %v", err)
	}
	task, err := svc.tasks.AddTask(feat.ID, "ship the thing")
	if err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	if _, err := svc.tasks.StartTask(feat.ID, task.ID); err != nil {
		t.Fatalf("StartTask() error = %v", err)
	}
	report, err := svc.tasks.RunGate(context.Background(), feat.ID, task.ID)
	if err != nil {
		t.Fatalf("RunGate() error = %v", err)
	}
	if report.Result != types.GatePass {
		t.Fatalf("RunGate() result = %v, want %v", report.Result, types.GatePass)
	}
	if err := os.WriteFile(filepath.Join(feat.Worktree, "output.txt"), []byte("shipped\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	_, msgText, err := svc.tasks.PrepareCommit(feat.ID, task.ID, "ship the thing", "plan", "check", "learn", types.TaskDone, false)
	if err != nil {
		t.Fatalf("PrepareCommit() error = %v", err)
	}
	finished, err := svc.tasks.FinishTask(feat.ID, task.ID, types.TaskDone, msgText, "")
	if err != nil {
		t.Fatalf("FinishTask() error = %v", err)
	}
	if finished.Status != types.TaskDone {
		t.Fatalf("finished task status = %v, want %v", finished.Status, types.TaskDone)
	}
	if finished.CommitSHA == "" {
		t.Errorf("finished task CommitSHA is empty, want a recorded HEAD sha")
	}

	// Merge the feat branch back into main so RequireMerged is satisfied,
	// matching how an operator would land the work before archiving.
	mergeFeatBranch(t, root, feat.Branch)

	archiveCfg := types.ArchiveConfig{RequireMerged: true, RequireClean: true}
	report2, err := svc.archive.Archive(feat.ID, archiveCfg)
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	if len(report2.Warnings) != 0 {
		t.Errorf("Archive() warnings = %v, want none on the happy path", report2.Warnings)
	}

	if _, err := ssot.Load[types.Feat](svc.paths.ArchivedFeatDir(feat.ID) + "/state.json"); err != nil {
		t.Errorf("archived feat state not found, Load() error = %v", err)
	}
}

// TestScenario_S2_BlockedTask drives a task through a failing gate and a
// finish-task --status blocked, confirming the task can be restarted later.
func TestScenario_S2_BlockedTask(t *testing.T) {
	root := initGitRepo(t)
	svc := newTestServices(root)
	if err := saveGateConfig(t, svc.paths, gateConfig("any", "false")); err != nil {
		t.Fatal(err)
	}

	feat, err := svc.feats.CreateFeat(CreateFeatInput{Slug: "blocked-task", Title: "Blocked task"})
	if err != nil {
		t.Fatalf("CreateFeat() error = %v", err)
	}
	task, err := svc.tasks.AddTask(feat.ID, "tricky thing")
	if err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	if _, err := svc.tasks.StartTask(feat.ID, task.ID); err != nil {
		t.Fatalf("StartTask() error = %v", err)
	}
	report, err := svc.tasks.RunGate(context.Background(), feat.ID, task.ID)
	if err != nil {
		t.Fatalf("RunGate() error = %v", err)
	}
	if report.Result != types.GateFail {
		t.Fatalf("RunGate() result = %v, want %v", report.Result, types.GateFail)
	}

	blocked, err := svc.tasks.FinishTask(feat.ID, task.ID, types.TaskBlocked, "", "gate keeps failing, needs a design change")
	if err != nil {
		t.Fatalf("FinishTask(blocked) error = %v", err)
	}
	if blocked.Status != types.TaskBlocked {
		t.Fatalf("task status = %v, want %v", blocked.Status, types.TaskBlocked)
	}
	if blocked.BlockedNote == "" {
		t.Errorf("BlockedNote is empty, want the recorded blocking reason")
	}

	restarted, err := svc.tasks.StartTask(feat.ID, task.ID)
	if err != nil {
		t.Fatalf("StartTask() restart error = %v", err)
	}
	if restarted.Status != types.TaskInProgress {
		t.Errorf("restarted task status = %v, want %v", restarted.Status, types.TaskInProgress)
	}
}

// TestScenario_S3_MalformedCommit exercises finish-task done against a HEAD
// commit whose message does not follow the commit protocol at all (a
// free-form line with no sections or trailers), confirming finish-task
// refuses it and the task is not advanced.
func TestScenario_S3_MalformedCommit(t *testing.T) {
	root := initGitRepo(t)
	svc := newTestServices(root)
	if err := saveGateConfig(t, svc.paths, gateConfig("any", "true")); err != nil {
		t.Fatal(err)
	}

	feat, err := svc.feats.CreateFeat(CreateFeatInput{Slug: "malformed-commit", Title: "Malformed commit"})
	if err != nil {
		t.Fatalf("CreateFeat() error = %v", err)
	}
	task, err := svc.tasks.AddTask(feat.ID, "do the thing")
	if err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	if _, err := svc.tasks.StartTask(feat.ID, task.ID); err != nil {
		t.Fatalf("StartTask() error = %v", err)
	}
	if _, err := svc.tasks.RunGate(context.Background(), feat.ID, task.ID); err != nil {
		t.Fatalf("RunGate() error = %v", err)
	}

	if err := os.WriteFile(filepath.Join(feat.Worktree, "change.txt"), []byte("x\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	_, err = svc.tasks.FinishTask(feat.ID, task.ID, types.TaskDone, "totally free-form commit message", "")
	if err == nil {
		t.Fatalf("FinishTask() error = nil, want the malformed commit to be refused")
	}

	doc, err := ssot.Load[types.TaskDocument](svc.paths.FeatTasks(feat.ID))
	if err != nil {
		t.Fatalf("Load(tasks) error = %v", err)
	}
	for _, tk := range doc.Tasks {
		if tk.ID == task.ID && tk.Status == types.TaskDone {
			t.Errorf("task advanced to done despite a malformed commit message")
		}
	}
}

// TestScenario_S4_ConcurrentMint fires add-task concurrently against the
// same feat and checks the resulting task ids are dense and unique,
// exercising internal/ssot's per-path lock.
func TestScenario_S4_ConcurrentMint(t *testing.T) {
	root := initGitRepo(t)
	svc := newTestServices(root)
	saveDefaultConfig(t, svc.paths)

	feat, err := svc.feats.CreateFeat(CreateFeatInput{Slug: "concurrent-mint", Title: "Concurrent mint"})
	if err != nil {
		t.Fatalf("CreateFeat() error = %v", err)
	}

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.tasks.AddTask(feat.ID, "concurrent task")
			errs[i] = err
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("AddTask() goroutine %d error = %v", i, err)
		}
	}

	doc, err := ssot.Load[types.TaskDocument](svc.paths.FeatTasks(feat.ID))
	if err != nil {
		t.Fatalf("Load(tasks) error = %v", err)
	}
	if len(doc.Tasks) != n {
		t.Fatalf("len(Tasks) = %d, want %d", len(doc.Tasks), n)
	}
	seen := map[string]bool{}
	for _, tk := range doc.Tasks {
		if seen[tk.ID] {
			t.Fatalf("duplicate task id %s minted under concurrent AddTask calls", tk.ID)
		}
		seen[tk.ID] = true
	}
}

// TestScenario_S5_StaleWorktree removes a feat's worktree directory out of
// band (simulating an operator's `rm -rf`) and checks the worktree manager's
// reconciliation pass reports the drift rather than crashing or staying
// silent.
func TestScenario_S5_StaleWorktree(t *testing.T) {
	root := initGitRepo(t)
	svc := newTestServices(root)
	saveDefaultConfig(t, svc.paths)

	feat, err := svc.feats.CreateFeat(CreateFeatInput{Slug: "stale-worktree", Title: "Stale worktree"})
	if err != nil {
		t.Fatalf("CreateFeat() error = %v", err)
	}

	if err := os.RemoveAll(feat.Worktree); err != nil {
		t.Fatalf("RemoveAll(worktree) error = %v", err)
	}

	drifts, err := svc.feats.WT.Reconcile([]types.Feat{*feat})
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if len(drifts) != 1 {
		t.Fatalf("Reconcile() drifts = %v, want exactly one", drifts)
	}
	if drifts[0].FeatID != feat.ID {
		t.Errorf("drift FeatID = %q, want %q", drifts[0].FeatID, feat.ID)
	}
}

// TestScenario_S6_DoctorDrift pushes a feat's gate-fail-streak counter past
// the configured threshold and checks diagnose-harness surfaces a warning
// rather than only a pass/fail structural result.
func TestScenario_S6_DoctorDrift(t *testing.T) {
	root := initGitRepo(t)
	svc := newTestServices(root)
	if err := saveGateConfig(t, svc.paths, gateConfig("any", "false")); err != nil {
		t.Fatal(err)
	}

	feat, err := svc.feats.CreateFeat(CreateFeatInput{Slug: "doctor-drift", Title: "Doctor drift"})
	if err != nil {
		t.Fatalf("CreateFeat() error = %v", err)
	}
	task, err := svc.tasks.AddTask(feat.ID, "flaky")
	if err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	if _, err := svc.tasks.StartTask(feat.ID, task.ID); err != nil {
		t.Fatalf("StartTask() error = %v", err)
	}

	thresholds := types.DoctorThresholds{GateFailStreak: 2, NoProgressRounds: 100, MaxRoundCount: 100}
	for i := 0; i < 2; i++ {
		if _, err := svc.tasks.RunGate(context.Background(), feat.ID, task.ID); err != nil {
			t.Fatalf("RunGate() error = %v", err)
		}
	}

	results, err := svc.doctor.Diagnose(thresholds)
	if err != nil {
		t.Fatalf("Diagnose() error = %v", err)
	}
	found := false
	for _, r := range results {
		if r.Status == "warn" {
			found = true
		}
	}
	if !found {
		t.Errorf("Diagnose() results = %v, want a gate_fail_streak warning", results)
	}
}

func mergeFeatBranch(t *testing.T, root, branch string) {
	t.Helper()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = root
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	run("checkout", "-q", "main")
	run("merge", "-q", "--no-ff", "--no-edit", branch)
}
