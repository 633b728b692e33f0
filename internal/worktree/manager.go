// Package worktree implements the worktree manager (C3): one git worktree
// per feat, created from and removed back to the configured base branch,
// with a reconciliation pass that detects drift between the SSOT, the
// filesystem, and git's own worktree registry.
//
// Grounded on the teacher's internal/core/grove planner/guards split: the
// grove package generated a CreateGrovePlan of filesystem+git ops for one
// worktree-per-grove; this package generalizes that to one worktree per
// feat and drops the tmux-session half of grove's responsibilities, which
// has no equivalent in this domain.
package worktree

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bagakit/bagakit-feat-task-harness/internal/core/types"
	"github.com/bagakit/bagakit-feat-task-harness/internal/harnesserr"
	"github.com/bagakit/bagakit-feat-task-harness/internal/vcs"
)

// Manager creates and removes feat worktrees and reports drift.
type Manager struct {
	Git   *vcs.Git
	Paths types.Paths
}

func New(git *vcs.Git, paths types.Paths) *Manager {
	return &Manager{Git: git, Paths: paths}
}

// Create makes a branch off baseBranch and a worktree checked out to it,
// returning the worktree's absolute path.
func (m *Manager) Create(featID, branch, baseBranch, worktreesRoot string) (string, error) {
	if err := m.Git.CreateFeatBranch(m.Paths.Root, branch, baseBranch); err != nil {
		return "", err
	}
	path := m.Paths.FeatWorktree(worktreesRoot, featID)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if err := os.MkdirAll(m.Paths.WorktreesRoot(worktreesRoot), 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", harnesserr.ErrIOError, err)
	}
	if err := m.Git.AddWorktree(m.Paths.Root, path, branch); err != nil {
		return "", err
	}
	if err := m.ensureWorktreesIgnored(worktreesRoot); err != nil {
		return "", fmt.Errorf("%w: %v", harnesserr.ErrIOError, err)
	}
	return path, nil
}

// ensureWorktreesIgnored appends the configured worktrees root to the
// repo's top-level .gitignore the first time a worktree is created,
// idempotently, so per-feat checkouts never show up as untracked content
// in the main working tree.
func (m *Manager) ensureWorktreesIgnored(worktreesRoot string) error {
	if worktreesRoot == "" {
		worktreesRoot = ".worktrees"
	}
	if filepath.IsAbs(worktreesRoot) {
		return nil
	}
	entry := strings.TrimSuffix(worktreesRoot, "/") + "/"

	path := filepath.Join(m.Paths.Root, ".gitignore")
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == entry || strings.TrimSpace(line) == strings.TrimSuffix(entry, "/") {
			return nil
		}
	}

	var buf bytes.Buffer
	buf.Write(data)
	if len(data) > 0 && !bytes.HasSuffix(data, []byte("\n")) {
		buf.WriteByte('\n')
	}
	buf.WriteString(entry)
	buf.WriteByte('\n')
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Remove deletes the worktree at path. force is passed through to the
// underlying `git worktree remove --force`.
func (m *Manager) Remove(path string, force bool) error {
	return m.Git.RemoveWorktree(m.Paths.Root, path, force)
}

// Drift describes a detected mismatch between SSOT state, the filesystem,
// and git's worktree registry for one feat.
type Drift struct {
	FeatID      string
	Description string
}

// Reconcile cross-checks each active feat's recorded worktree path against
// the filesystem, git's worktree registry, and the registry's recorded
// HEAD branch, backing diagnose-harness's three-part drift check
// (spec.md §4.3): (a) the directory exists, (b) the registry contains it,
// and (c) HEAD of that worktree equals feat/<feat-id>.
func (m *Manager) Reconcile(feats []types.Feat) ([]Drift, error) {
	registered, err := m.Git.ListWorktrees(m.Paths.Root)
	if err != nil {
		return nil, err
	}
	byPath := map[string]vcs.WorktreeEntry{}
	for _, w := range registered {
		byPath[w.Path] = w
	}

	var drifts []Drift
	for _, f := range feats {
		if f.Status == types.FeatArchived || f.Worktree == "" {
			continue
		}
		if _, err := os.Stat(f.Worktree); err != nil {
			drifts = append(drifts, Drift{
				FeatID:      f.ID,
				Description: fmt.Sprintf("worktree path %s does not exist on disk", f.Worktree),
			})
			continue
		}
		entry, ok := byPath[f.Worktree]
		if !ok {
			drifts = append(drifts, Drift{
				FeatID:      f.ID,
				Description: fmt.Sprintf("worktree path %s exists but is not registered with git", f.Worktree),
			})
			continue
		}
		if branch := strings.TrimPrefix(entry.Branch, "refs/heads/"); branch != f.Branch {
			drifts = append(drifts, Drift{
				FeatID:      f.ID,
				Description: fmt.Sprintf("worktree %s HEAD is on %q, want %q", f.Worktree, branch, f.Branch),
			})
		}
	}
	return drifts, nil
}
