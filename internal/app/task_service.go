package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/bagakit/bagakit-feat-task-harness/internal/config"
	coretask "github.com/bagakit/bagakit-feat-task-harness/internal/core/task"
	"github.com/bagakit/bagakit-feat-task-harness/internal/core/types"
	"github.com/bagakit/bagakit-feat-task-harness/internal/commitproto"
	"github.com/bagakit/bagakit-feat-task-harness/internal/gaterunner"
	"github.com/bagakit/bagakit-feat-task-harness/internal/harnesserr"
	"github.com/bagakit/bagakit-feat-task-harness/internal/ssot"
	"github.com/bagakit/bagakit-feat-task-harness/internal/vcs"
)

// TaskService sequences guard checks and effects for task-level operations,
// grounded on the teacher's internal/app/task_service.go.
type TaskService struct {
	Paths types.Paths
	Git   *vcs.Git
	Gate  *gaterunner.Runner
	Feats *FeatService
}

func NewTaskService(paths types.Paths, feats *FeatService) *TaskService {
	return &TaskService{Paths: paths, Git: vcs.New(), Gate: gaterunner.New(), Feats: feats}
}

// AddTask appends a new planned task to a feat.
func (s *TaskService) AddTask(featID, title string) (*types.Task, error) {
	var created types.Task
	updated, err := ssot.Mutate(s.Paths.FeatTasks(featID), true, func(doc *types.TaskDocument) error {
		doc.FeatID = featID
		ids := make([]string, 0, len(doc.Tasks))
		for _, t := range doc.Tasks {
			ids = append(ids, t.ID)
		}
		now := time.Now().UTC()
		created = types.Task{
			ID:         coretask.NextID(ids),
			FeatID:     featID,
			Title:      title,
			Status:     coretask.InitialStatus(),
			GateResult: types.GateUnknown,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		doc.Tasks = append(doc.Tasks, created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	_ = ssot.SyncTasksMarkdown(s.Paths.FeatTasksMarkdown(featID), *updated)
	return &created, s.refreshFeatStatus(featID)
}

func (s *TaskService) refreshFeatStatus(featID string) error {
	doc, err := ssot.Load[types.TaskDocument](s.Paths.FeatTasks(featID))
	if err != nil {
		return err
	}
	summaries := make([]types.TaskSummary, 0, len(doc.Tasks))
	for _, t := range doc.Tasks {
		summaries = append(summaries, types.TaskSummary{ID: t.ID, Status: t.Status})
	}
	_, err = s.Feats.RefreshDerivedStatus(featID, summaries)
	return err
}

func withTask(doc *types.TaskDocument, taskID string, fn func(*types.Task) error) error {
	for i := range doc.Tasks {
		if doc.Tasks[i].ID == taskID {
			return fn(&doc.Tasks[i])
		}
	}
	return fmt.Errorf("%w: task %s", harnesserr.ErrNotFound, taskID)
}

// StartTask transitions a task to in_progress.
func (s *TaskService) StartTask(featID, taskID string) (*types.Task, error) {
	var result types.Task
	_, err := ssot.Mutate(s.Paths.FeatTasks(featID), false, func(doc *types.TaskDocument) error {
		otherInProgress := ""
		for _, t := range doc.Tasks {
			if t.Status == types.TaskInProgress && t.ID != taskID {
				otherInProgress = t.ID
			}
		}
		return withTask(doc, taskID, func(t *types.Task) error {
			guard := coretask.CanStartTask(coretask.StartContext{
				TaskID:              taskID,
				Status:              t.Status,
				OtherTaskInProgress: otherInProgress,
			})
			if err := guard.Error(); err != nil {
				return fmt.Errorf("%w: %s", harnesserr.ErrInvalidTransition, err.Error())
			}
			applied := coretask.ApplyStartTransition(time.Now().UTC())
			t.Status = applied.NewStatus
			t.StartedAt = &applied.StartedAt
			t.FinishedAt = nil
			t.UpdatedAt = time.Now().UTC()
			result = *t
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &result, s.refreshFeatStatus(featID)
}

// RunGate executes the configured quality gate for a task against the
// feat's worktree and records the evidence.
func (s *TaskService) RunGate(ctx context.Context, featID, taskID string) (*gaterunner.Report, error) {
	feat, err := s.Feats.LoadFeat(featID)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(s.Paths.ConfigFile())
	if err != nil {
		return nil, err
	}

	var status types.TaskStatus
	_, err = ssot.Mutate(s.Paths.FeatTasks(featID), false, func(doc *types.TaskDocument) error {
		return withTask(doc, taskID, func(t *types.Task) error {
			status = t.Status
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	guard := coretask.CanRunGate(coretask.GateContext{TaskID: taskID, Status: status})
	if err := guard.Error(); err != nil {
		return nil, fmt.Errorf("%w: %s", harnesserr.ErrInvalidTransition, err.Error())
	}

	report, err := s.Gate.Run(ctx, feat.Worktree, cfg.Gate, s.Paths.FeatGateDir(featID, taskID))
	if err != nil {
		return nil, err
	}

	_, err = ssot.Mutate(s.Paths.FeatTasks(featID), false, func(doc *types.TaskDocument) error {
		return withTask(doc, taskID, func(t *types.Task) error {
			t.GateResult = report.Result
			t.GateEvidence = append(t.GateEvidence, report.Evidence...)
			t.UpdatedAt = time.Now().UTC()
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.updateCounters(featID, report.Result)
	return report, nil
}

func (s *TaskService) updateCounters(featID string, result types.GateResult) {
	_, _ = ssot.Mutate(s.Paths.FeatState(featID), false, func(f *types.Feat) error {
		f.Counters.RoundCount++
		if result == types.GateFail {
			f.Counters.GateFailStreak++
		} else {
			f.Counters.GateFailStreak = 0
		}
		f.UpdatedAt = time.Now().UTC()
		return nil
	})
}

// PrepareCommit generates the commit message text for a task, validates
// it, and writes it to the ephemeral message file named in spec.md §6
// (feats/<feat-id>/commits/<task-id>.msg). Generate is a pure function of
// its arguments, so calling PrepareCommit twice with unchanged inputs
// writes byte-identical content - the idempotence invariant of spec.md §8
// property 6. When execute is true, the commit is also created
// immediately in the feat's worktree using the generated message.
func (s *TaskService) PrepareCommit(featID, taskID, summary, plan, check, learn string, desiredStatus types.TaskStatus, execute bool) (messageFile, text string, err error) {
	var gateResult types.GateResult
	var status types.TaskStatus
	_, err = ssot.Mutate(s.Paths.FeatTasks(featID), false, func(doc *types.TaskDocument) error {
		return withTask(doc, taskID, func(t *types.Task) error {
			gateResult = t.GateResult
			status = t.Status
			return nil
		})
	})
	if err != nil {
		return "", "", err
	}

	feat, err := s.Feats.LoadFeat(featID)
	if err != nil {
		return "", "", err
	}
	worktreeClean, err := s.Git.WorktreeIsClean(feat.Worktree)
	if err != nil {
		return "", "", err
	}

	guard := coretask.CanPrepareCommit(coretask.PrepareCommitContext{
		TaskID:          taskID,
		Status:          status,
		GateResult:      gateResult,
		HasWorktreeDiff: !worktreeClean,
	})
	if err := guard.Error(); err != nil {
		return "", "", fmt.Errorf("%w: %s", harnesserr.ErrInvalidTransition, err.Error())
	}

	msgText := commitproto.Generate(featID, taskID, summary, plan, check, learn, gateResult, desiredStatus)
	parsed, err := commitproto.Parse(msgText)
	if err != nil {
		return "", "", err
	}
	if err := commitproto.Validate(parsed); err != nil {
		return "", "", err
	}

	path := s.Paths.FeatCommitMessage(featID, taskID)
	if err := os.MkdirAll(s.Paths.FeatCommitsDir(featID), 0o755); err != nil {
		return "", "", fmt.Errorf("%w: %v", harnesserr.ErrIOError, err)
	}
	if err := os.WriteFile(path, []byte(msgText), 0o644); err != nil {
		return "", "", fmt.Errorf("%w: %v", harnesserr.ErrIOError, err)
	}

	if execute {
		if err := s.Git.Commit(feat.Worktree, msgText); err != nil {
			return "", "", err
		}
	}

	return path, msgText, nil
}

// FinishTask creates the commit (if not already committed) and moves the
// task to its desired terminal status for this round: done or blocked.
func (s *TaskService) FinishTask(featID, taskID string, desiredStatus types.TaskStatus, commitMessage, blockedNote string) (*types.Task, error) {
	feat, err := s.Feats.LoadFeat(featID)
	if err != nil {
		return nil, err
	}

	trailersMatch := true
	commitSHA := ""
	if desiredStatus == types.TaskDone {
		if commitMessage != "" {
			if err := s.Git.Commit(feat.Worktree, commitMessage); err != nil {
				return nil, err
			}
		}
		headText, err := s.Git.HeadCommitMessage(feat.Worktree)
		if err != nil {
			return nil, err
		}
		parsed, err := commitproto.Parse(headText)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", harnesserr.ErrTrailerMismatch, err.Error())
		}
		trailersMatch = commitproto.MatchesTrailers(parsed, featID, taskID)
		if trailersMatch {
			if err := commitproto.Validate(parsed); err != nil {
				return nil, err
			}
			sha, err := s.Git.HeadCommitSHA(feat.Worktree)
			if err != nil {
				return nil, err
			}
			commitSHA = sha
		}
	}

	var result types.Task
	var gateResult types.GateResult
	_, err = ssot.Mutate(s.Paths.FeatTasks(featID), false, func(doc *types.TaskDocument) error {
		return withTask(doc, taskID, func(t *types.Task) error {
			gateResult = t.GateResult
			guard := coretask.CanFinishTask(coretask.FinishContext{
				TaskID:        taskID,
				Status:        t.Status,
				DesiredStatus: desiredStatus,
				GateResult:    t.GateResult,
				TrailersMatch: trailersMatch,
			})
			if err := guard.Error(); err != nil {
				if !trailersMatch {
					return fmt.Errorf("%w: %s", harnesserr.ErrTrailerMismatch, err.Error())
				}
				return fmt.Errorf("%w: %s", harnesserr.ErrInvalidTransition, err.Error())
			}
			applied := coretask.ApplyFinishTransition(desiredStatus, time.Now().UTC())
			t.Status = applied.NewStatus
			finishedAt := time.Now().UTC()
			t.FinishedAt = &finishedAt
			t.UpdatedAt = time.Now().UTC()
			if desiredStatus == types.TaskBlocked {
				t.BlockedNote = blockedNote
			}
			if commitSHA != "" {
				t.CommitSHA = commitSHA
			}
			result = *t
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.updateNoProgress(featID, desiredStatus, gateResult)
	return &result, s.refreshFeatStatus(featID)
}

func (s *TaskService) updateNoProgress(featID string, desiredStatus types.TaskStatus, gateResult types.GateResult) {
	_, _ = ssot.Mutate(s.Paths.FeatState(featID), false, func(f *types.Feat) error {
		if desiredStatus == types.TaskBlocked || gateResult == types.GateFail {
			f.Counters.NoProgressRounds++
		} else {
			f.Counters.NoProgressRounds = 0
		}
		f.UpdatedAt = time.Now().UTC()
		f.History = append(f.History, types.HistoryEntry{At: f.UpdatedAt, Action: "finish-task", Detail: string(desiredStatus)})
		return nil
	})
}
