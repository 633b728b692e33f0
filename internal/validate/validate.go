// Package validate implements the structural invariant checks behind
// validate-harness (C8's first tier): dense task ids, at most one
// in_progress task per feat, done-implies-gate-pass-and-committed, and
// agreement between each index entry's archived flag and its status. The
// filesystem is not inspected here. Ported from the original Python
// harness's cmd_validate.
package validate

import (
	"fmt"

	"github.com/bagakit/bagakit-feat-task-harness/internal/core/task"
	"github.com/bagakit/bagakit-feat-task-harness/internal/core/types"
)

// Issue is one structural problem found during validation.
type Issue struct {
	FeatID  string
	TaskID  string
	Message string
}

// ValidateFeatTasks checks one feat's task document for the invariants
// spec.md §3 names: dense, unique ids (T-001..T-NNN with none missing), at
// most one in_progress task, and done tasks always carrying a passing gate
// result and a commit sha. The order of the tasks within the document is
// not checked.
func ValidateFeatTasks(featID string, doc types.TaskDocument) []Issue {
	var issues []Issue

	inProgressCount := 0
	seen := map[string]bool{}
	ids := make([]string, 0, len(doc.Tasks))
	for _, t := range doc.Tasks {
		ids = append(ids, t.ID)
		if seen[t.ID] {
			issues = append(issues, Issue{FeatID: featID, TaskID: t.ID, Message: "duplicate task id"})
		}
		seen[t.ID] = true

		if t.Status == types.TaskInProgress {
			inProgressCount++
		}
		if t.Status == types.TaskDone {
			if t.GateResult != types.GatePass {
				issues = append(issues, Issue{FeatID: featID, TaskID: t.ID, Message: "done task does not have gate_result=pass"})
			}
			if t.CommitSHA == "" {
				issues = append(issues, Issue{FeatID: featID, TaskID: t.ID, Message: "done task has no commit_sha"})
			}
		}
	}
	if inProgressCount > 1 {
		issues = append(issues, Issue{FeatID: featID, Message: fmt.Sprintf("%d tasks are in_progress, at most one is allowed", inProgressCount)})
	}
	if next := task.NextID(ids); !isDense(ids, next) {
		issues = append(issues, Issue{FeatID: featID, Message: "task ids are not dense (gap detected)"})
	}
	return issues
}

// isDense reports whether ids form a contiguous T-001..T-NNN run, where
// next is one past the observed maximum.
func isDense(ids []string, next string) bool {
	max := 0
	fmt.Sscanf(next, "T-%d", &max)
	max--
	if max != len(ids) {
		return false
	}
	seen := make([]bool, max+1)
	for _, id := range ids {
		var n int
		if _, err := fmt.Sscanf(id, "T-%d", &n); err != nil || n < 1 || n > max {
			return false
		}
		seen[n] = true
	}
	for i := 1; i <= max; i++ {
		if !seen[i] {
			return false
		}
	}
	return true
}

// ValidateIndexConsistency checks that every index entry's archived flag
// agrees with its status, backing the cross-reference audit in C8.
func ValidateIndexConsistency(index types.Index) []Issue {
	var issues []Issue
	for _, e := range index.Feats {
		archived := e.Status == types.FeatArchived
		if archived != e.Archived {
			issues = append(issues, Issue{FeatID: e.ID, Message: "index archived flag disagrees with status"})
		}
	}
	return issues
}
