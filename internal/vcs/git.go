// Package vcs implements the version-control adapter (C2): a thin wrapper
// around the git CLI, shelled out via os/exec the way
// internal/app.GitService does, but scoped to the operations the feat/task
// harness needs (branches and worktrees) rather than branch-naming
// heuristics for a different domain.
package vcs

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bagakit/bagakit-feat-task-harness/internal/harnesserr"
)

// Git provides the version-control operations spec.md §4.2 requires.
type Git struct{}

func New() *Git { return &Git{} }

// CurrentBaseBranch returns the repo's configured default branch, falling
// back through origin/HEAD, then main, then master.
func (g *Git) CurrentBaseBranch(repoPath string) (string, error) {
	if out, err := g.output(repoPath, "symbolic-ref", "refs/remotes/origin/HEAD"); err == nil {
		parts := strings.Split(strings.TrimSpace(out), "/")
		if len(parts) > 0 {
			return parts[len(parts)-1], nil
		}
	}
	if ok, _ := g.BranchExists(repoPath, "main"); ok {
		return "main", nil
	}
	if ok, _ := g.BranchExists(repoPath, "master"); ok {
		return "master", nil
	}
	return "main", nil
}

// BranchExists reports whether branchName resolves to a commit.
func (g *Git) BranchExists(repoPath, branchName string) (bool, error) {
	err := g.run(repoPath, "rev-parse", "--verify", branchName)
	return err == nil, nil
}

// CreateFeatBranch creates branchName from baseBranch without checking it out.
func (g *Git) CreateFeatBranch(repoPath, branchName, baseBranch string) error {
	if err := g.run(repoPath, "branch", branchName, baseBranch); err != nil {
		return fmt.Errorf("%w: create branch %s: %v", harnesserr.ErrVCSFailure, branchName, err)
	}
	return nil
}

// AddWorktree creates a worktree at path checked out to branchName.
func (g *Git) AddWorktree(repoPath, path, branchName string) error {
	if err := g.run(repoPath, "worktree", "add", path, branchName); err != nil {
		return fmt.Errorf("%w: add worktree %s: %v", harnesserr.ErrVCSFailure, path, err)
	}
	return nil
}

// RemoveWorktree removes the worktree at path. force mirrors `git worktree
// remove --force`, needed when the worktree has uncommitted changes the
// caller has already accounted for.
func (g *Git) RemoveWorktree(repoPath, path string, force bool) error {
	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, path)
	if err := g.run(repoPath, args...); err != nil {
		return fmt.Errorf("%w: remove worktree %s: %v", harnesserr.ErrVCSFailure, path, err)
	}
	return nil
}

// WorktreeEntry is one row of `git worktree list`.
type WorktreeEntry struct {
	Path   string
	Branch string
	HEAD   string
}

// ListWorktrees returns every worktree git currently has registered.
func (g *Git) ListWorktrees(repoPath string) ([]WorktreeEntry, error) {
	out, err := g.output(repoPath, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("%w: list worktrees: %v", harnesserr.ErrVCSFailure, err)
	}
	var entries []WorktreeEntry
	var cur WorktreeEntry
	flush := func() {
		if cur.Path != "" {
			entries = append(entries, cur)
		}
		cur = WorktreeEntry{}
	}
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.HasPrefix(line, "worktree "):
			flush()
			cur.Path = strings.TrimPrefix(line, "worktree ")
		case strings.HasPrefix(line, "HEAD "):
			cur.HEAD = strings.TrimPrefix(line, "HEAD ")
		case strings.HasPrefix(line, "branch "):
			cur.Branch = strings.TrimPrefix(line, "branch ")
		}
	}
	flush()
	return entries, nil
}

// IsMerged reports whether branchName is fully merged into baseBranch.
func (g *Git) IsMerged(repoPath, branchName, baseBranch string) (bool, error) {
	out, err := g.output(repoPath, "branch", "--merged", baseBranch)
	if err != nil {
		return false, fmt.Errorf("%w: check merged %s: %v", harnesserr.ErrVCSFailure, branchName, err)
	}
	for _, line := range strings.Split(out, "\n") {
		// git marks the current branch with "* " and a branch checked out
		// in another worktree with "+ ".
		name := strings.TrimSpace(line)
		name = strings.TrimPrefix(strings.TrimPrefix(name, "* "), "+ ")
		if strings.TrimSpace(name) == branchName {
			return true, nil
		}
	}
	return false, nil
}

// DeleteBranch deletes branchName. force maps to `git branch -D`.
func (g *Git) DeleteBranch(repoPath, branchName string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	if err := g.run(repoPath, "branch", flag, branchName); err != nil {
		return fmt.Errorf("%w: delete branch %s: %v", harnesserr.ErrVCSFailure, branchName, err)
	}
	return nil
}

// WorktreeIsClean reports whether the worktree at path has no uncommitted
// changes (tracked or untracked).
func (g *Git) WorktreeIsClean(path string) (bool, error) {
	out, err := g.output(path, "status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("%w: status %s: %v", harnesserr.ErrVCSFailure, path, err)
	}
	return strings.TrimSpace(out) == "", nil
}

// HeadCommitMessage returns the full commit message (subject+body+trailers)
// of HEAD at repoPath, used by finish-task's TrailerMismatch check.
func (g *Git) HeadCommitMessage(repoPath string) (string, error) {
	out, err := g.output(repoPath, "log", "-1", "--format=%B")
	if err != nil {
		return "", fmt.Errorf("%w: read HEAD message: %v", harnesserr.ErrVCSFailure, err)
	}
	return out, nil
}

// CommitMessage returns the full commit message (subject+body+trailers) of
// sha at repoPath, used by diagnose-harness's commit-message cross-check.
func (g *Git) CommitMessage(repoPath, sha string) (string, error) {
	out, err := g.output(repoPath, "log", "-1", "--format=%B", sha)
	if err != nil {
		return "", fmt.Errorf("%w: read commit %s: %v", harnesserr.ErrVCSFailure, sha, err)
	}
	return out, nil
}

// HeadCommitSHA returns the full SHA of HEAD at repoPath.
func (g *Git) HeadCommitSHA(repoPath string) (string, error) {
	out, err := g.output(repoPath, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("%w: rev-parse HEAD: %v", harnesserr.ErrVCSFailure, err)
	}
	return strings.TrimSpace(out), nil
}

// Commit creates a commit in repoPath with the given message, staging all
// changes first, tracked and untracked (`git add -A`), matching the
// original harness's commit flow.
func (g *Git) Commit(repoPath, message string) error {
	if err := g.run(repoPath, "add", "-A"); err != nil {
		return fmt.Errorf("%w: stage changes: %v", harnesserr.ErrVCSFailure, err)
	}
	cmd := exec.Command("git", "commit", "-m", message)
	cmd.Dir = repoPath
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: commit: %s", harnesserr.ErrVCSFailure, stderr.String())
	}
	return nil
}

func (g *Git) run(repoPath string, args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = repoPath
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s", err, stderr.String())
	}
	return nil
}

func (g *Git) output(repoPath string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = repoPath
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %s", err, stderr.String())
	}
	return stdout.String(), nil
}
