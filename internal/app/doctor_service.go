package app

import (
	"fmt"

	"github.com/bagakit/bagakit-feat-task-harness/internal/commitproto"
	"github.com/bagakit/bagakit-feat-task-harness/internal/core/types"
	"github.com/bagakit/bagakit-feat-task-harness/internal/ssot"
	"github.com/bagakit/bagakit-feat-task-harness/internal/validate"
	"github.com/bagakit/bagakit-feat-task-harness/internal/vcs"
	"github.com/bagakit/bagakit-feat-task-harness/internal/worktree"
)

// CheckResult is one named check's outcome, grounded on the teacher's
// internal/cli/doctor.go CheckResult{Name,Status,Details} table pattern.
type CheckResult struct {
	Name    string
	Status  string // "ok" | "warn" | "fail"
	Details string
}

// DoctorService implements diagnose-harness (C8's second tier): structural
// validation plus threshold-based warnings and worktree/VCS drift,
// read-only throughout.
type DoctorService struct {
	Paths types.Paths
	Git   *vcs.Git
	WT    *worktree.Manager
}

func NewDoctorService(paths types.Paths) *DoctorService {
	git := vcs.New()
	return &DoctorService{Paths: paths, Git: git, WT: worktree.New(git, paths)}
}

// checkCommitMessages cross-checks every done task carrying a commit_sha
// against the actual commit message at that sha, backing diagnose-harness's
// and validate-harness's commit-message cross-check.
func (s *DoctorService) checkCommitMessages(featID string, doc types.TaskDocument) []CheckResult {
	var out []CheckResult
	for _, t := range doc.Tasks {
		if t.Status != types.TaskDone || t.CommitSHA == "" {
			continue
		}
		text, err := s.Git.CommitMessage(s.Paths.Root, t.CommitSHA)
		if err != nil {
			out = append(out, CheckResult{
				Name:    "feat " + featID + " task " + t.ID + " commit",
				Status:  "fail",
				Details: fmt.Sprintf("commit %s not found: %v", t.CommitSHA, err),
			})
			continue
		}
		msg, err := commitproto.Parse(text)
		if err != nil || !commitproto.MatchesTrailers(msg, featID, t.ID) {
			out = append(out, CheckResult{
				Name:    "feat " + featID + " task " + t.ID + " commit",
				Status:  "fail",
				Details: fmt.Sprintf("commit %s trailers do not match feat/task", t.CommitSHA),
			})
		}
	}
	return out
}

// Diagnose runs every check and returns the full set of results.
func (s *DoctorService) Diagnose(thresholds types.DoctorThresholds) ([]CheckResult, error) {
	var results []CheckResult

	index, err := ssot.Load[types.Index](s.Paths.IndexFile())
	if err != nil {
		results = append(results, CheckResult{Name: "index readable", Status: "fail", Details: err.Error()})
		return results, nil
	}
	results = append(results, CheckResult{Name: "index readable", Status: "ok"})

	for _, issue := range validate.ValidateIndexConsistency(*index) {
		results = append(results, CheckResult{Name: "index consistency", Status: "fail", Details: issue.Message})
	}

	var activeFeats []types.Feat
	for _, entry := range index.Feats {
		feat, err := ssot.Load[types.Feat](s.Paths.FeatState(entry.ID))
		if err != nil {
			results = append(results, CheckResult{Name: "feat " + entry.ID, Status: "fail", Details: err.Error()})
			continue
		}
		if feat.Status != types.FeatArchived {
			activeFeats = append(activeFeats, *feat)
		}

		tasksDoc, err := ssot.Load[types.TaskDocument](s.Paths.FeatTasks(entry.ID))
		if err == nil {
			for _, issue := range validate.ValidateFeatTasks(entry.ID, *tasksDoc) {
				results = append(results, CheckResult{Name: "feat " + entry.ID + " tasks", Status: "fail", Details: issue.Message})
			}
			results = append(results, s.checkCommitMessages(entry.ID, *tasksDoc)...)
		}

		results = append(results, s.thresholdChecks(*feat, thresholds)...)
	}

	drifts, err := s.WT.Reconcile(activeFeats)
	if err != nil {
		results = append(results, CheckResult{Name: "worktree reconciliation", Status: "fail", Details: err.Error()})
	} else if len(drifts) == 0 {
		results = append(results, CheckResult{Name: "worktree reconciliation", Status: "ok"})
	} else {
		for _, d := range drifts {
			results = append(results, CheckResult{Name: "worktree " + d.FeatID, Status: "fail", Details: d.Description})
		}
	}

	return results, nil
}

func (s *DoctorService) thresholdChecks(f types.Feat, thresholds types.DoctorThresholds) []CheckResult {
	var out []CheckResult
	if thresholds.GateFailStreak > 0 && f.Counters.GateFailStreak >= thresholds.GateFailStreak {
		out = append(out, CheckResult{
			Name:    "feat " + f.ID + " gate_fail_streak",
			Status:  "warn",
			Details: fmt.Sprintf("%d consecutive gate failures (threshold %d)", f.Counters.GateFailStreak, thresholds.GateFailStreak),
		})
	}
	if thresholds.NoProgressRounds > 0 && f.Counters.NoProgressRounds >= thresholds.NoProgressRounds {
		out = append(out, CheckResult{
			Name:    "feat " + f.ID + " no_progress_rounds",
			Status:  "warn",
			Details: fmt.Sprintf("%d rounds without progress (threshold %d)", f.Counters.NoProgressRounds, thresholds.NoProgressRounds),
		})
	}
	if thresholds.MaxRoundCount > 0 && f.Counters.RoundCount >= thresholds.MaxRoundCount {
		out = append(out, CheckResult{
			Name:    "feat " + f.ID + " round_count",
			Status:  "warn",
			Details: fmt.Sprintf("%d rounds total (threshold %d)", f.Counters.RoundCount, thresholds.MaxRoundCount),
		})
	}
	return out
}

// AnyFailed reports whether results contains a "fail" status, used by the
// CLI layer to choose the right exit code.
func AnyFailed(results []CheckResult) bool {
	for _, r := range results {
		if r.Status == "fail" {
			return true
		}
	}
	return false
}

// Validate runs only the structural checks (no thresholds, no drift),
// backing validate-harness as distinct from diagnose-harness.
func (s *DoctorService) Validate() ([]CheckResult, error) {
	var results []CheckResult
	index, err := ssot.Load[types.Index](s.Paths.IndexFile())
	if err != nil {
		return nil, err
	}
	for _, issue := range validate.ValidateIndexConsistency(*index) {
		results = append(results, CheckResult{Name: "index consistency", Status: "fail", Details: issue.Message})
	}
	for _, entry := range index.Feats {
		tasksDoc, err := ssot.Load[types.TaskDocument](s.Paths.FeatTasks(entry.ID))
		if err != nil {
			continue
		}
		for _, issue := range validate.ValidateFeatTasks(entry.ID, *tasksDoc) {
			results = append(results, CheckResult{Name: "feat " + entry.ID + " tasks", Status: "fail", Details: issue.Message})
		}
		results = append(results, s.checkCommitMessages(entry.ID, *tasksDoc)...)
	}
	if len(results) == 0 {
		results = append(results, CheckResult{Name: "structural invariants", Status: "ok"})
	}
	return results, nil
}
