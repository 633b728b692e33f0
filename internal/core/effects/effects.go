// Package effects defines effect types as data structures representing I/O
// operations. This is the foundation of the Functional Core / Imperative
// Shell pattern used throughout the harness: guard and planner functions
// build a plan out of these types, and internal/app.EffectExecutor is the
// only place that actually performs them.
package effects

// Effect is the base interface for all effects. Effects represent I/O
// operations as data that can be interpreted by the shell.
type Effect interface {
	// EffectType returns a string identifier for the effect type.
	EffectType() string
}

// LogEffect represents a diagnostic line written to stderr.
type LogEffect struct {
	Level   string
	Message string
	Fields  map[string]any
}

func (e LogEffect) EffectType() string { return "log" }

// PersistEffect represents a write to the JSON SSOT.
type PersistEffect struct {
	Document  string // e.g. "state", "tasks", "index", "config"
	Path      string
	Data      any
}

func (e PersistEffect) EffectType() string { return "persist" }

// FileEffect represents a plain file system operation outside the SSOT,
// e.g. writing a living-docs note or a gate evidence log.
type FileEffect struct {
	Operation string // "mkdir", "write", "rename", "remove"
	Path      string
	Target    string // destination for "rename"
	Content   []byte
	Mode      uint32
}

func (e FileEffect) EffectType() string { return "file" }

// GitEffect represents a version-control operation.
type GitEffect struct {
	Operation string // git subcommand run as `git <Operation> <Args...>`, e.g. "branch", "worktree"
	RepoPath  string
	Args      []string
}

func (e GitEffect) EffectType() string { return "git" }

// GateEffect represents running a configured quality-gate command.
type GateEffect struct {
	Command    string
	WorkingDir string
	EvidenceTo string // path to capture stdout/stderr
}

func (e GateEffect) EffectType() string { return "gate" }

// CommitEffect represents creating a git commit with a fully-formed message.
type CommitEffect struct {
	RepoPath string
	Message  string
}

func (e CommitEffect) EffectType() string { return "commit" }

// CompositeEffect holds multiple effects to be executed in sequence.
type CompositeEffect struct {
	Effects []Effect
}

func (e CompositeEffect) EffectType() string { return "composite" }

// NoEffect represents an operation that produces no side effects.
type NoEffect struct{}

func (e NoEffect) EffectType() string { return "none" }
