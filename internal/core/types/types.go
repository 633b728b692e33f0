// Package types defines the harness's persisted entities: Feat, Task,
// Config, and the global Index. These are plain data - no behavior lives
// here beyond JSON shape and small derived accessors.
package types

import "time"

// FeatStatus is the lifecycle state of a feat.
type FeatStatus string

const (
	FeatDraft     FeatStatus = "draft"
	FeatActive    FeatStatus = "active"
	FeatDone      FeatStatus = "done"
	FeatAbandoned FeatStatus = "abandoned"
	FeatArchived  FeatStatus = "archived"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskPlanned    TaskStatus = "planned"
	TaskInProgress TaskStatus = "in_progress"
	TaskBlocked    TaskStatus = "blocked"
	TaskDone       TaskStatus = "done"
)

// GateResult is the outcome of the most recent quality-gate run for a task.
type GateResult string

const (
	GateUnknown GateResult = "unknown"
	GatePass    GateResult = "pass"
	GateFail    GateResult = "fail"
)

// GateEvidence records one executed gate command.
type GateEvidence struct {
	ID         string    `json:"id"`
	Command    string    `json:"command"`
	ExitCode   int       `json:"exit_code"`
	Signaled   bool      `json:"signaled,omitempty"`
	StdoutPath string    `json:"stdout_path,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Counters track operator-facing health signals for a feat, read by
// diagnose-harness against DoctorThresholds.
type Counters struct {
	GateFailStreak   int `json:"gate_fail_streak"`
	NoProgressRounds int `json:"no_progress_rounds"`
	RoundCount       int `json:"round_count"`
}

// HistoryEntry is one append-only line in a feat's audit trail.
type HistoryEntry struct {
	At     time.Time `json:"at"`
	Action string    `json:"action"`
	Detail string    `json:"detail,omitempty"`
}

// Feat is the top-level unit of work: one git worktree, one branch, a
// dense ordered list of tasks.
type Feat struct {
	ID         string       `json:"id"`
	Slug       string       `json:"slug"`
	Title      string       `json:"title"`
	Status     FeatStatus   `json:"status"`
	Branch     string       `json:"branch"`
	Worktree   string       `json:"worktree,omitempty"`
	BaseBranch string       `json:"base_branch"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
	ArchivedAt *time.Time   `json:"archived_at,omitempty"`
	Counters   Counters     `json:"counters"`
	History    []HistoryEntry `json:"history,omitempty"`

	// Extra is not serialized and is not filled by Load or Mutate: fields
	// of state.json that this struct does not declare are dropped when the
	// document is rewritten.
	Extra map[string]any `json:"-"`
}

// Task is one unit of gated, committed work inside a feat.
type Task struct {
	ID           string         `json:"id"`
	FeatID       string         `json:"feat_id"`
	Title        string         `json:"title"`
	Status       TaskStatus     `json:"status"`
	GateResult   GateResult     `json:"gate_result"`
	GateEvidence []GateEvidence `json:"gate_evidence,omitempty"`
	CommitSHA    string         `json:"commit_sha,omitempty"`
	BlockedNote  string         `json:"blocked_note,omitempty"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	FinishedAt   *time.Time     `json:"finished_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`

	Extra map[string]any `json:"-"`
}

// TaskSummary is the minimal view used by feat status derivation, so the
// pure core package never needs the full Task type (or vice versa import).
type TaskSummary struct {
	ID     string
	Status TaskStatus
}

// TaskDocument is the on-disk shape of a feat's tasks.json.
type TaskDocument struct {
	FeatID string `json:"feat_id"`
	Tasks  []Task `json:"tasks"`
}

// IndexEntry is one row of the global feat index.
type IndexEntry struct {
	ID       string     `json:"id"`
	Slug     string     `json:"slug"`
	Status   FeatStatus `json:"status"`
	Archived bool       `json:"archived"`
}

// Index is the global registry of all feats, active and archived.
type Index struct {
	Version int          `json:"version"`
	Feats   []IndexEntry `json:"feats"`
}

// ProjectType is the detected or configured nature of the project under a
// feat's worktree, driving which quality-gate semantics apply.
type ProjectType string

const (
	ProjectUI    ProjectType = "ui"
	ProjectNonUI ProjectType = "non_ui"
)

// PathRuleSet lists filesystem predicates used to auto-detect ProjectType.
type PathRuleSet struct {
	AnyPathExists []string `json:"any_path_exists,omitempty"`
	AllPathsExist []string `json:"all_paths_exist,omitempty"`
}

// ProjectTypeRules drives DetectProjectType's rule-based fallback tier.
type ProjectTypeRules struct {
	UI      PathRuleSet `json:"ui"`
	NonUI   PathRuleSet `json:"non_ui"`
	Default ProjectType `json:"default"`
}

// GateConfig configures the quality-gate runner (C4).
type GateConfig struct {
	ProjectType      string           `json:"project_type"` // "ui" | "non_ui" | "auto"
	ProjectTypeRules ProjectTypeRules `json:"project_type_rules"`
	UIEvidencePath   string           `json:"ui_evidence_path"`
	UICommands       []string         `json:"ui_commands"`
	NonUICommands    []string         `json:"non_ui_commands"`
	NonUIMode        string           `json:"non_ui_mode"` // "any" | "all"
	TimeoutSeconds   int              `json:"timeout_seconds,omitempty"`
}

// ArchiveConfig configures the archive finalizer (C7).
type ArchiveConfig struct {
	RequireMerged bool `json:"require_merged"`
	RequireClean  bool `json:"require_clean"`
}

// DoctorThresholds configures diagnose-harness warnings (C8).
type DoctorThresholds struct {
	GateFailStreak   int `json:"gate_fail_streak"`
	NoProgressRounds int `json:"no_progress_rounds"`
	MaxRoundCount    int `json:"max_round_count"`
}

// Config is the global harness configuration, one per repo.
type Config struct {
	Version       int              `json:"version"`
	BaseBranch    string           `json:"base_branch"`
	WorktreesRoot string           `json:"worktrees_root"`
	Gate          GateConfig       `json:"gate"`
	Archive       ArchiveConfig    `json:"archive"`
	Doctor        DoctorThresholds `json:"doctor"`
}

// DefaultConfig returns the harness's built-in defaults, applied when
// config.json is absent or a field is omitted.
func DefaultConfig() Config {
	return Config{
		Version:       1,
		BaseBranch:    "main",
		WorktreesRoot: ".worktrees",
		Gate: GateConfig{
			ProjectType: "auto",
			ProjectTypeRules: ProjectTypeRules{
				UI:      PathRuleSet{AnyPathExists: []string{"package.json", "frontend", "ui"}},
				NonUI:   PathRuleSet{AnyPathExists: []string{"go.mod", "Cargo.toml", "pyproject.toml"}},
				Default: ProjectNonUI,
			},
			UIEvidencePath: "ui-verification.md",
			NonUIMode:      "any",
		},
		Archive: ArchiveConfig{
			RequireMerged: true,
			RequireClean:  true,
		},
		Doctor: DoctorThresholds{
			GateFailStreak:   3,
			NoProgressRounds: 5,
			MaxRoundCount:    20,
		},
	}
}
