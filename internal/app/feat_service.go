package app

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bagakit/bagakit-feat-task-harness/internal/config"
	corefeat "github.com/bagakit/bagakit-feat-task-harness/internal/core/feat"
	"github.com/bagakit/bagakit-feat-task-harness/internal/core/types"
	"github.com/bagakit/bagakit-feat-task-harness/internal/harnesserr"
	"github.com/bagakit/bagakit-feat-task-harness/internal/refready"
	"github.com/bagakit/bagakit-feat-task-harness/internal/ssot"
	"github.com/bagakit/bagakit-feat-task-harness/internal/vcs"
	"github.com/bagakit/bagakit-feat-task-harness/internal/worktree"
)

// FeatService sequences guard checks and effects for feat-level operations,
// grounded on the teacher's internal/app/mission_service.go pattern of
// validating guards before taking any effectful action.
type FeatService struct {
	Paths types.Paths
	Git   *vcs.Git
	WT    *worktree.Manager
}

func NewFeatService(paths types.Paths) *FeatService {
	git := vcs.New()
	return &FeatService{
		Paths: paths,
		Git:   git,
		WT:    worktree.New(git, paths),
	}
}

var slugRe = regexp.MustCompile(`[^a-z0-9-]+`)

// Slugify lowercases and hyphenates title into a slug, matching the
// create-feat CLI's implicit slug derivation from a title when no
// explicit slug is provided.
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = strings.ReplaceAll(s, " ", "-")
	s = slugRe.ReplaceAllString(s, "")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return strings.Trim(s, "-")
}

// CreateFeatInput bundles create-feat's parameters.
type CreateFeatInput struct {
	Slug          string
	Title         string
	Strict        bool
	ReadyManifest *refready.Manifest
}

// CreateFeat creates a new feat: a branch, a worktree, and its state.json,
// registering it in the global index. It fails closed on any step after
// the branch/worktree have been created if the SSOT write fails, by
// removing what was just created (see rollback.go).
func (s *FeatService) CreateFeat(input CreateFeatInput) (*types.Feat, error) {
	index, err := ssot.Load[types.Index](s.Paths.IndexFile())
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	if index == nil {
		index = &types.Index{Version: 1}
	}

	collision := false
	maxCounter := 0
	for _, e := range index.Feats {
		if e.Slug == input.Slug {
			if n := corefeat.ParseIDCounter(e.ID, input.Slug); n > maxCounter {
				maxCounter = n
			}
			if e.Status != types.FeatArchived {
				collision = true
			}
		}
	}

	readyOK, readyDetail := true, ""
	if input.Strict && input.ReadyManifest != nil {
		report := refready.Check(*input.ReadyManifest)
		readyOK = report.AllRequired
		if !readyOK {
			readyDetail = "one or more required reference items failed"
		}
	}

	guard := corefeat.CanCreateFeat(corefeat.CreateContext{
		Slug:          input.Slug,
		SlugCollision: collision,
		Strict:        input.Strict,
		ReferenceOK:   readyOK,
		ReferenceErr:  readyDetail,
	})
	if err := guard.Error(); err != nil {
		return nil, fmt.Errorf("%w: %s", harnesserr.ErrInvalidTransition, err.Error())
	}

	cfg, err := config.Load(s.Paths.ConfigFile())
	if err != nil {
		return nil, err
	}

	featID := corefeat.GenerateID(input.Slug, maxCounter)
	branch := "feat/" + featID

	baseBranch := cfg.BaseBranch
	if baseBranch == "" {
		baseBranch, _ = s.Git.CurrentBaseBranch(s.Paths.Root)
	}

	worktreePath, err := s.WT.Create(featID, branch, baseBranch, cfg.WorktreesRoot)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	f := types.Feat{
		ID:         featID,
		Slug:       input.Slug,
		Title:      input.Title,
		Status:     corefeat.InitialStatus(),
		Branch:     branch,
		Worktree:   worktreePath,
		BaseBranch: baseBranch,
		CreatedAt:  now,
		UpdatedAt:  now,
		History:    []types.HistoryEntry{{At: now, Action: "create-feat"}},
	}

	if _, err := ssot.Mutate(s.Paths.FeatState(featID), true, func(doc *types.Feat) error {
		*doc = f
		return nil
	}); err != nil {
		rollbackCreate(s.Git, s.Paths.Root, worktreePath, branch)
		return nil, err
	}

	if _, err := ssot.Mutate(s.Paths.IndexFile(), true, func(doc *types.Index) error {
		doc.Version = 1
		doc.Feats = append(doc.Feats, types.IndexEntry{ID: featID, Slug: input.Slug, Status: f.Status})
		return nil
	}); err != nil {
		rollbackCreate(s.Git, s.Paths.Root, worktreePath, branch)
		return nil, err
	}

	return &f, nil
}

func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), harnesserr.ErrNotFound.Error())
}

// LoadFeat reads a feat's state.json.
func (s *FeatService) LoadFeat(featID string) (*types.Feat, error) {
	return ssot.Load[types.Feat](s.Paths.FeatState(featID))
}

// AbandonFeat marks a feat abandoned. Refused if any task on the feat is
// in_progress.
func (s *FeatService) AbandonFeat(featID string) (*types.Feat, error) {
	hasInProgress := false
	tasksDoc, err := ssot.Load[types.TaskDocument](s.Paths.FeatTasks(featID))
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	if tasksDoc != nil {
		for _, t := range tasksDoc.Tasks {
			if t.Status == types.TaskInProgress {
				hasInProgress = true
				break
			}
		}
	}

	return ssot.Mutate(s.Paths.FeatState(featID), false, func(f *types.Feat) error {
		guard := corefeat.CanAbandonFeat(corefeat.AbandonContext{
			FeatID:            featID,
			Status:            f.Status,
			HasInProgressTask: hasInProgress,
		})
		if err := guard.Error(); err != nil {
			return fmt.Errorf("%w: %s", harnesserr.ErrInvalidTransition, err.Error())
		}
		f.Status = corefeat.ApplyAbandonTransition()
		f.UpdatedAt = time.Now().UTC()
		f.History = append(f.History, types.HistoryEntry{At: f.UpdatedAt, Action: "abandon-feat"})
		return nil
	})
}

// RefreshDerivedStatus recomputes a feat's status from its tasks and
// persists it, rewriting state.json and updated_at even when the status is
// unchanged. TaskService calls it after add-task, start-task and
// finish-task.
func (s *FeatService) RefreshDerivedStatus(featID string, tasks []types.TaskSummary) (*types.Feat, error) {
	return ssot.Mutate(s.Paths.FeatState(featID), false, func(f *types.Feat) error {
		f.Status = corefeat.DeriveStatus(f.Status, tasks)
		f.UpdatedAt = time.Now().UTC()
		return nil
	})
}
