// Package task contains the pure business logic for task-level lifecycle
// operations: preconditions for start, gate, commit, and finish.
package task

import (
	"fmt"

	"github.com/bagakit/bagakit-feat-task-harness/internal/core/types"
)

// GuardResult is the outcome of evaluating a precondition.
type GuardResult struct {
	Allowed bool
	Reason  string
}

func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// StartContext provides context for start-task guards.
type StartContext struct {
	TaskID               string
	Status               types.TaskStatus
	OtherTaskInProgress  string // id of another in_progress task in the same feat, if any
}

// CanStartTask evaluates whether a task may move to in_progress.
// Rules:
//   - task must be planned or blocked (reopening)
//   - at most one task per feat may be in_progress at a time
func CanStartTask(ctx StartContext) GuardResult {
	if ctx.Status != types.TaskPlanned && ctx.Status != types.TaskBlocked {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("task %s is %s; start-task requires planned or blocked", ctx.TaskID, ctx.Status),
		}
	}
	if ctx.OtherTaskInProgress != "" {
		return GuardResult{
			Allowed: false,
			Reason: fmt.Sprintf(
				"task %s is already in_progress; finish or block it before starting %s",
				ctx.OtherTaskInProgress, ctx.TaskID,
			),
		}
	}
	return GuardResult{Allowed: true}
}

// GateContext provides context for run-task-gate guards.
type GateContext struct {
	TaskID string
	Status types.TaskStatus
}

// CanRunGate evaluates whether the quality gate may be run for a task.
// Rule: task must be in_progress.
func CanRunGate(ctx GateContext) GuardResult {
	if ctx.Status != types.TaskInProgress {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("task %s is %s; run-task-gate requires in_progress", ctx.TaskID, ctx.Status),
		}
	}
	return GuardResult{Allowed: true}
}

// PrepareCommitContext provides context for prepare-task-commit guards.
type PrepareCommitContext struct {
	TaskID          string
	Status          types.TaskStatus
	GateResult      types.GateResult
	HasWorktreeDiff bool
}

// CanPrepareCommit evaluates whether a commit message may be generated.
// Rules:
//   - task must be in_progress
//   - the most recent gate run must have passed
//   - the worktree must have a staged or unstaged diff to commit
func CanPrepareCommit(ctx PrepareCommitContext) GuardResult {
	if ctx.Status != types.TaskInProgress {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("task %s is %s; prepare-task-commit requires in_progress", ctx.TaskID, ctx.Status),
		}
	}
	if ctx.GateResult != types.GatePass {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("task %s does not have a passing gate result; run run-task-gate first", ctx.TaskID),
		}
	}
	if !ctx.HasWorktreeDiff {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("task %s worktree has no staged or unstaged changes to commit", ctx.TaskID),
		}
	}
	return GuardResult{Allowed: true}
}

// FinishContext provides context for finish-task guards.
type FinishContext struct {
	TaskID         string
	Status         types.TaskStatus
	DesiredStatus  types.TaskStatus // done or blocked
	GateResult     types.GateResult
	TrailersMatch  bool
}

// CanFinishTask evaluates whether a task may be finished.
// Rules:
//   - task must be in_progress
//   - finishing as done requires a passing gate result
//   - finishing as done requires the HEAD commit's trailers to match
//     this feat/task (TrailerMismatch otherwise)
func CanFinishTask(ctx FinishContext) GuardResult {
	if ctx.Status != types.TaskInProgress {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("task %s is %s; finish-task requires in_progress", ctx.TaskID, ctx.Status),
		}
	}
	if ctx.DesiredStatus == types.TaskDone {
		if ctx.GateResult != types.GatePass {
			return GuardResult{
				Allowed: false,
				Reason:  fmt.Sprintf("task %s cannot finish as done without a passing gate result", ctx.TaskID),
			}
		}
		if !ctx.TrailersMatch {
			return GuardResult{
				Allowed: false,
				Reason:  fmt.Sprintf("HEAD commit trailers do not match feat/task %s", ctx.TaskID),
			}
		}
	}
	return GuardResult{Allowed: true}
}
