package types

import "path/filepath"

// Paths derives every on-disk location the harness reads or writes from a
// single repo root, mirroring the original Python harness's HarnessPaths
// dataclass of derived-path methods.
type Paths struct {
	Root string
}

func NewPaths(root string) Paths { return Paths{Root: root} }

func (p Paths) HarnessDir() string { return filepath.Join(p.Root, ".bagakit", "ft-harness") }

func (p Paths) ConfigFile() string { return filepath.Join(p.HarnessDir(), "config.json") }

func (p Paths) IndexFile() string { return filepath.Join(p.HarnessDir(), "index", "feats.json") }

func (p Paths) FeatsDir() string { return filepath.Join(p.HarnessDir(), "feats") }

func (p Paths) FeatDir(featID string) string { return filepath.Join(p.FeatsDir(), featID) }

func (p Paths) FeatState(featID string) string {
	return filepath.Join(p.FeatDir(featID), "state.json")
}

func (p Paths) FeatTasks(featID string) string {
	return filepath.Join(p.FeatDir(featID), "tasks.json")
}

func (p Paths) FeatTasksMarkdown(featID string) string {
	return filepath.Join(p.FeatDir(featID), "tasks.md")
}

func (p Paths) FeatGateDir(featID, taskID string) string {
	return filepath.Join(p.FeatDir(featID), "gate", taskID)
}

func (p Paths) FeatArtifactsDir(featID string) string {
	return filepath.Join(p.FeatDir(featID), "artifacts")
}

func (p Paths) FeatCommitsDir(featID string) string {
	return filepath.Join(p.FeatDir(featID), "commits")
}

// FeatCommitMessage is the ephemeral message file prepare-task-commit
// writes for an operator to commit with, per spec.md §6's filesystem
// layout (commits/<task-id>.msg).
func (p Paths) FeatCommitMessage(featID, taskID string) string {
	return filepath.Join(p.FeatCommitsDir(featID), taskID+".msg")
}

// ArtifactsDir holds harness-level artifacts not scoped to a single feat,
// such as reference-readiness reports.
func (p Paths) ArtifactsDir() string { return filepath.Join(p.HarnessDir(), "artifacts") }

func (p Paths) ReferenceReadinessReport() string {
	return filepath.Join(p.ArtifactsDir(), "reference-readiness-report.json")
}

func (p Paths) ArchivedFeatsDir() string { return filepath.Join(p.HarnessDir(), "feats-archived") }

func (p Paths) ArchivedFeatDir(featID string) string {
	return filepath.Join(p.ArchivedFeatsDir(), featID)
}

func (p Paths) WorktreesRoot(configuredRoot string) string {
	if configuredRoot == "" {
		configuredRoot = ".worktrees"
	}
	if filepath.IsAbs(configuredRoot) {
		return configuredRoot
	}
	return filepath.Join(p.Root, configuredRoot)
}

func (p Paths) FeatWorktree(configuredRoot, featID string) string {
	return filepath.Join(p.WorktreesRoot(configuredRoot), featID)
}

func (p Paths) LivingDocsInbox() string {
	return filepath.Join(p.Root, "docs", ".bagakit", "inbox")
}
