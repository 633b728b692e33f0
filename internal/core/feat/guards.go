// Package feat contains the pure business logic for feat-level lifecycle
// operations. This is the Functional Core: no I/O, only pure functions
// evaluating preconditions and deriving state.
package feat

import (
	"fmt"

	"github.com/bagakit/bagakit-feat-task-harness/internal/core/types"
)

// GuardResult is the outcome of evaluating a precondition.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed, nil otherwise.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// CreateContext provides context for create-feat guards.
type CreateContext struct {
	Slug          string
	SlugCollision bool
	Strict        bool
	ReferenceOK   bool
	ReferenceErr  string
}

// CanCreateFeat evaluates whether a new feat may be created.
// Rules:
//   - slug must not already be in use by an active (non-archived) feat
//   - in strict mode, the reference-readiness gate must have passed
func CanCreateFeat(ctx CreateContext) GuardResult {
	if ctx.SlugCollision {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("a feat with slug %q already exists", ctx.Slug),
		}
	}
	if ctx.Strict && !ctx.ReferenceOK {
		reason := "reference readiness check failed"
		if ctx.ReferenceErr != "" {
			reason = fmt.Sprintf("%s: %s", reason, ctx.ReferenceErr)
		}
		return GuardResult{Allowed: false, Reason: reason}
	}
	return GuardResult{Allowed: true}
}

// ArchiveContext provides context for archive-feat guards.
type ArchiveContext struct {
	FeatID        string
	Status        types.FeatStatus
	RequireMerged bool
	IsMerged      bool
	RequireClean  bool
	IsClean       bool
}

// CanArchiveFeat evaluates whether a feat may be archived.
// Rules:
//   - feat must be done or abandoned
//   - when configured, the feat branch must be merged into base
//   - when configured, the worktree must have no uncommitted changes
func CanArchiveFeat(ctx ArchiveContext) GuardResult {
	if ctx.Status != types.FeatDone && ctx.Status != types.FeatAbandoned {
		return GuardResult{
			Allowed: false,
			Reason: fmt.Sprintf(
				"feat %s is %s; archive requires status done or abandoned",
				ctx.FeatID, ctx.Status,
			),
		}
	}
	if ctx.RequireMerged && !ctx.IsMerged {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("feat %s branch is not merged into base branch", ctx.FeatID),
		}
	}
	if ctx.RequireClean && !ctx.IsClean {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("feat %s worktree has uncommitted changes", ctx.FeatID),
		}
	}
	return GuardResult{Allowed: true}
}

// AbandonContext provides context for abandon-feat guards.
type AbandonContext struct {
	FeatID            string
	Status            types.FeatStatus
	HasInProgressTask bool
}

// CanAbandonFeat evaluates whether a feat may be marked abandoned.
// Rules:
//   - archived feats cannot be abandoned
//   - no task on the feat may be in_progress
func CanAbandonFeat(ctx AbandonContext) GuardResult {
	if ctx.Status == types.FeatArchived {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("feat %s is already archived", ctx.FeatID),
		}
	}
	if ctx.HasInProgressTask {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("feat %s has a task in_progress; finish or block it before abandoning", ctx.FeatID),
		}
	}
	return GuardResult{Allowed: true}
}
