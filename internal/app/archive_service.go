package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bagakit/bagakit-feat-task-harness/internal/core/effects"
	corefeat "github.com/bagakit/bagakit-feat-task-harness/internal/core/feat"
	"github.com/bagakit/bagakit-feat-task-harness/internal/core/types"
	"github.com/bagakit/bagakit-feat-task-harness/internal/harnesserr"
	"github.com/bagakit/bagakit-feat-task-harness/internal/livingdocs"
	"github.com/bagakit/bagakit-feat-task-harness/internal/ssot"
	"github.com/bagakit/bagakit-feat-task-harness/internal/vcs"
	"github.com/bagakit/bagakit-feat-task-harness/internal/worktree"
)

// ArchivePlan is the ordered, data-only description of archive-feat's
// sub-steps, grounded on the teacher's internal/core/grove.planner.go
// pattern of a pure Generate*Plan function preceding an imperative
// execution pass. The plan holds only the paths and branch the steps act
// on; which step failures abort the archive and which are only recorded as
// warnings (branch deletion, living-docs sync) is decided in Archive.
type ArchivePlan struct {
	FeatID          string
	ArchivedFeatDir string
	FeatDir         string
	WorktreePath    string
	Branch          string
}

// GenerateArchivePlan builds the plan for archiving f, pure and side-effect
// free.
func GenerateArchivePlan(f types.Feat, paths types.Paths) ArchivePlan {
	return ArchivePlan{
		FeatID:          f.ID,
		ArchivedFeatDir: paths.ArchivedFeatDir(f.ID),
		FeatDir:         paths.FeatDir(f.ID),
		WorktreePath:    f.Worktree,
		Branch:          f.Branch,
	}
}

// ArchiveReport carries the outcome of ArchiveService.Archive.
type ArchiveReport struct {
	Warnings []string
}

// ArchiveService implements the archive finalizer (C7).
type ArchiveService struct {
	Paths   types.Paths
	Git     *vcs.Git
	WT      *worktree.Manager
	Feats   *FeatService
	Effects EffectExecutor
}

func NewArchiveService(paths types.Paths, feats *FeatService) *ArchiveService {
	git := vcs.New()
	return &ArchiveService{Paths: paths, Git: git, WT: worktree.New(git, paths), Feats: feats, Effects: NewEffectExecutor()}
}

// Archive runs the seven ordered sub-steps of spec.md §4.7:
//  1. precondition check (feat is done/abandoned, merged/clean per config)
//  2. relocate state dir via atomic rename
//  3. remove the worktree
//  4. best-effort branch delete (warning, not hard failure, on error)
//  5. index update (the feat's row is kept and marked archived, not removed)
//  6. best-effort living-docs sync
//  7. final status set to archived
func (s *ArchiveService) Archive(featID string, cfg types.ArchiveConfig) (*ArchiveReport, error) {
	f, err := s.Feats.LoadFeat(featID)
	if err != nil {
		return nil, err
	}

	isMerged := true
	if cfg.RequireMerged {
		isMerged, err = s.Git.IsMerged(s.Paths.Root, f.Branch, f.BaseBranch)
		if err != nil {
			return nil, err
		}
	}
	isClean := true
	if cfg.RequireClean && f.Worktree != "" {
		isClean, err = s.Git.WorktreeIsClean(f.Worktree)
		if err != nil {
			return nil, err
		}
	}

	guard := corefeat.CanArchiveFeat(corefeat.ArchiveContext{
		FeatID:        featID,
		Status:        f.Status,
		RequireMerged: cfg.RequireMerged,
		IsMerged:      isMerged,
		RequireClean:  cfg.RequireClean,
		IsClean:       isClean,
	})
	if err := guard.Error(); err != nil {
		return nil, fmt.Errorf("%w: %s", harnesserr.ErrInvalidTransition, err.Error())
	}

	plan := GenerateArchivePlan(*f, s.Paths)
	report := &ArchiveReport{}

	// Step 2: relocate state dir.
	mkRoot := effects.FileEffect{Operation: "mkdir", Path: s.Paths.ArchivedFeatsDir(), Mode: 0o755}
	if err := s.Effects.Execute(context.Background(), []effects.Effect{mkRoot}); err != nil {
		return nil, fmt.Errorf("%w: %v", harnesserr.ErrIOError, err)
	}
	if err := s.relocate(plan.FeatDir, plan.ArchivedFeatDir); err != nil {
		return nil, fmt.Errorf("%w: %v", harnesserr.ErrIOError, err)
	}

	// Step 3: remove worktree. A failure here aborts the archive; the
	// state directory relocated in step 2 is restored to its prior
	// location so the feat is left exactly as it was before Archive was
	// called, rather than split between feats/ and feats-archived/.
	if plan.WorktreePath != "" {
		if err := s.WT.Remove(plan.WorktreePath, true); err != nil {
			if rbErr := s.relocate(plan.ArchivedFeatDir, plan.FeatDir); rbErr != nil {
				return nil, fmt.Errorf("%w: worktree removal failed (%v) and state restore failed (%v)", harnesserr.ErrIOError, err, rbErr)
			}
			return nil, fmt.Errorf("worktree removal failed, state directory restored: %w", err)
		}
	}

	// Step 4: best-effort branch delete.
	if plan.Branch != "" {
		if err := s.Git.DeleteBranch(s.Paths.Root, plan.Branch, true); err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("branch delete failed: %v", err))
		}
	}

	// Step 5: index update (mark archived rather than delete the row, so
	// the global index still names every feat that ever existed).
	_, err = ssot.Mutate(s.Paths.IndexFile(), false, func(idx *types.Index) error {
		for i := range idx.Feats {
			if idx.Feats[i].ID == featID {
				idx.Feats[i].Status = types.FeatArchived
				idx.Feats[i].Archived = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Step 6: best-effort living-docs sync.
	taskDoc, _ := ssot.Load[types.TaskDocument](s.Paths.ArchivedFeatDir(featID) + "/tasks.json")
	taskCount := 0
	if taskDoc != nil {
		taskCount = len(taskDoc.Tasks)
	}
	if warning := livingdocs.Sync(s.Paths.LivingDocsInbox(), *f, taskCount); warning != "" {
		report.Warnings = append(report.Warnings, warning)
	}

	// Step 7: final status set.
	now := time.Now().UTC()
	newStatus, archivedAt := corefeat.ApplyArchiveTransition(now)
	archivedStatePath := plan.ArchivedFeatDir + "/state.json"
	if _, err := ssot.Mutate(archivedStatePath, false, func(doc *types.Feat) error {
		doc.Status = newStatus
		doc.ArchivedAt = &archivedAt
		doc.UpdatedAt = now
		doc.History = append(doc.History, types.HistoryEntry{At: now, Action: "archive-feat"})
		return nil
	}); err != nil {
		return nil, err
	}

	if err := s.verifyPostconditions(plan); err != nil {
		return report, err
	}

	return report, nil
}

// verifyPostconditions checks that git's worktree registry no longer lists
// the removed path, per spec.md §4.7's post-condition check. A violation
// here is reported but does not roll back the already-committed
// relocation, per spec.md §9's explicit non-reversibility note.
func (s *ArchiveService) verifyPostconditions(plan ArchivePlan) error {
	if plan.WorktreePath == "" {
		return nil
	}
	entries, err := s.Git.ListWorktrees(s.Paths.Root)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Path == plan.WorktreePath {
			return fmt.Errorf("%w: %s still registered after removal", harnesserr.ErrStaleWorktreeRegistration, plan.WorktreePath)
		}
	}
	return nil
}

// relocate moves src to dst, preferring an atomic same-filesystem rename
// and falling back to a recursive copy-then-remove when the rename fails
// (e.g. EXDEV, a cross-device move), mirroring the original Python
// harness's src_dir.rename(dst_dir) / shutil.move fallback pair. Both paths
// go through EffectExecutor so the actual I/O stays in one place.
func (s *ArchiveService) relocate(src, dst string) error {
	rename := effects.FileEffect{Operation: "rename", Path: src, Target: dst}
	if err := s.Effects.Execute(context.Background(), []effects.Effect{rename}); err == nil {
		return nil
	}
	copyEffs, err := buildCopyEffects(src, dst)
	if err != nil {
		return err
	}
	if err := s.Effects.Execute(context.Background(), copyEffs); err != nil {
		return err
	}
	remove := effects.FileEffect{Operation: "remove", Path: src}
	return s.Effects.Execute(context.Background(), []effects.Effect{remove})
}

// buildCopyEffects walks src and returns the mkdir/write effects needed to
// reproduce it at dst, used as relocate's cross-device fallback.
func buildCopyEffects(src, dst string) ([]effects.Effect, error) {
	effs := []effects.Effect{effects.FileEffect{Operation: "mkdir", Path: dst, Mode: 0o755}}
	entries, err := os.ReadDir(src)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		srcPath := filepath.Join(src, e.Name())
		dstPath := filepath.Join(dst, e.Name())
		if e.IsDir() {
			sub, err := buildCopyEffects(srcPath, dstPath)
			if err != nil {
				return nil, err
			}
			effs = append(effs, sub...)
			continue
		}
		data, err := os.ReadFile(srcPath)
		if err != nil {
			return nil, err
		}
		effs = append(effs, effects.FileEffect{Operation: "write", Path: dstPath, Content: data, Mode: 0o644})
	}
	return effs, nil
}
