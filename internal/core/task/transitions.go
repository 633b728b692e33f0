package task

import (
	"time"

	"github.com/bagakit/bagakit-feat-task-harness/internal/core/types"
)

// InitialStatus returns the status assigned to a newly created task.
func InitialStatus() types.TaskStatus {
	return types.TaskPlanned
}

// FinishResult is the pure outcome of finishing a task.
type FinishResult struct {
	NewStatus types.TaskStatus
	DoneAt    *time.Time
}

// ApplyFinishTransition computes the new task status produced by
// finish-task. desiredStatus must already have passed CanFinishTask.
func ApplyFinishTransition(desiredStatus types.TaskStatus, now time.Time) FinishResult {
	result := FinishResult{NewStatus: desiredStatus}
	if desiredStatus == types.TaskDone {
		result.DoneAt = &now
	}
	return result
}

// StartResult is the pure outcome of starting (or restarting) a task.
type StartResult struct {
	NewStatus types.TaskStatus
	StartedAt time.Time
}

// ApplyStartTransition returns the status and started_at stamp produced by
// start-task. Restarting a blocked task through this same path is what
// resets finished_at back to nil in the caller, since reopening a task
// means it is no longer in its prior terminal state.
func ApplyStartTransition(now time.Time) StartResult {
	return StartResult{NewStatus: types.TaskInProgress, StartedAt: now}
}
