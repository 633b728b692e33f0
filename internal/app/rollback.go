package app

import (
	"fmt"
	"os"

	"github.com/bagakit/bagakit-feat-task-harness/internal/vcs"
)

// rollbackCreate undoes a branch/worktree pair created by CreateFeat when a
// subsequent SSOT write fails, grounded on the teacher's StashDance
// restore-on-failure pattern in internal/app/git_service.go: best effort,
// errors are reported to stderr rather than propagated, since the caller
// is already returning the original failure.
func rollbackCreate(git *vcs.Git, repoPath, worktreePath, branch string) {
	if worktreePath != "" {
		if err := git.RemoveWorktree(repoPath, worktreePath, true); err != nil {
			fmt.Fprintf(os.Stderr, "rollback: failed to remove worktree %s: %v\n", worktreePath, err)
		}
	}
	if branch != "" {
		if err := git.DeleteBranch(repoPath, branch, true); err != nil {
			fmt.Fprintf(os.Stderr, "rollback: failed to delete branch %s: %v\n", branch, err)
		}
	}
}
