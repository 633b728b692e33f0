package feat

import (
	"time"

	"github.com/bagakit/bagakit-feat-task-harness/internal/core/types"
)

// InitialStatus returns the status assigned to a newly created feat.
func InitialStatus() types.FeatStatus {
	return types.FeatDraft
}

// DeriveStatus computes a feat's status as a pure function of its current
// status and its tasks' statuses, per spec.md's feat-state table: a feat is
// active once any task exists, done once every task is done, and archived
// and abandoned are sticky once set regardless of task state.
func DeriveStatus(current types.FeatStatus, tasks []types.TaskSummary) types.FeatStatus {
	if current == types.FeatArchived || current == types.FeatAbandoned {
		return current
	}
	if len(tasks) == 0 {
		if current == "" {
			return types.FeatDraft
		}
		return current
	}
	allDone := true
	for _, t := range tasks {
		if t.Status != types.TaskDone {
			allDone = false
			break
		}
	}
	if allDone {
		return types.FeatDone
	}
	return types.FeatActive
}

// ApplyArchiveTransition returns the new status and archived-at timestamp
// produced by archiving a feat.
func ApplyArchiveTransition(now time.Time) (types.FeatStatus, time.Time) {
	return types.FeatArchived, now
}

// ApplyAbandonTransition returns the new status produced by abandoning a feat.
func ApplyAbandonTransition() types.FeatStatus {
	return types.FeatAbandoned
}
