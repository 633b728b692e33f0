// Package gaterunner implements the quality-gate runner (C4): project-type
// detection (explicit config, then rule-driven path predicates, then a
// configured default), command execution with a wall-clock deadline, and
// the any/all pass semantics of spec.md §4.4. Ported from the original
// Python harness's detect_project_type / collect_non_ui_commands /
// validate_ui_evidence / cmd_task_gate, restructured around typed project
// kinds instead of string keys.
package gaterunner

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/bagakit/bagakit-feat-task-harness/internal/core/types"
	"github.com/bagakit/bagakit-feat-task-harness/internal/harnesserr"
)

// Runner executes the configured quality gate for a task.
type Runner struct{}

func New() *Runner { return &Runner{} }

// DetectProjectType resolves the project type for root: explicit config
// wins, then rule-driven path predicates, then the configured default.
func (r *Runner) DetectProjectType(root string, cfg types.GateConfig) types.ProjectType {
	switch cfg.ProjectType {
	case "ui":
		return types.ProjectUI
	case "non_ui":
		return types.ProjectNonUI
	}
	if matchesRuleSet(root, cfg.ProjectTypeRules.UI) {
		return types.ProjectUI
	}
	if matchesRuleSet(root, cfg.ProjectTypeRules.NonUI) {
		return types.ProjectNonUI
	}
	if cfg.ProjectTypeRules.Default != "" {
		return cfg.ProjectTypeRules.Default
	}
	return types.ProjectNonUI
}

func matchesRuleSet(root string, rs types.PathRuleSet) bool {
	for _, p := range rs.AnyPathExists {
		if pathExists(filepath.Join(root, p)) {
			return true
		}
	}
	if len(rs.AllPathsExist) > 0 {
		all := true
		for _, p := range rs.AllPathsExist {
			if !pathExists(filepath.Join(root, p)) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

func pathExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// Report is the outcome of one gate run.
type Report struct {
	ProjectType types.ProjectType
	Result      types.GateResult
	Evidence    []types.GateEvidence
	Detail      string
}

// Run executes the configured gate commands for root and returns a Report.
// evidenceDir, if non-empty, receives one captured-output file per command.
func (r *Runner) Run(ctx context.Context, root string, cfg types.GateConfig, evidenceDir string) (*Report, error) {
	pt := r.DetectProjectType(root, cfg)
	if pt == types.ProjectUI {
		return r.runUI(ctx, root, cfg, evidenceDir)
	}
	return r.runNonUI(ctx, root, cfg, evidenceDir)
}

// runUI requires a structured ui-verification.md evidence file rather than
// executing commands as the pass/fail signal, per spec.md §4.4's UI-gate
// semantics. It additionally runs any configured UICommands for their
// captured output alone; their exit codes never affect the gate result.
func (r *Runner) runUI(ctx context.Context, root string, cfg types.GateConfig, evidenceDir string) (*Report, error) {
	path := cfg.UIEvidencePath
	if path == "" {
		path = "ui-verification.md"
	}
	full := filepath.Join(root, path)

	var evidence []types.GateEvidence
	if len(cfg.UICommands) > 0 {
		timeout := gateTimeout(cfg)
		for i, command := range cfg.UICommands {
			evidence = append(evidence, r.runOne(ctx, root, command, timeout, evidenceDir, i))
		}
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return &Report{
			ProjectType: types.ProjectUI,
			Result:      types.GateFail,
			Evidence:    evidence,
			Detail:      fmt.Sprintf("missing UI evidence file %s", path),
		}, nil
	}
	missing := requiredUIHeadings(string(data))
	if len(missing) > 0 {
		return &Report{
			ProjectType: types.ProjectUI,
			Result:      types.GateFail,
			Evidence:    evidence,
			Detail:      fmt.Sprintf("UI evidence file missing required headings: %v", missing),
		}, nil
	}
	return &Report{ProjectType: types.ProjectUI, Result: types.GatePass, Evidence: evidence}, nil
}

var requiredHeadings = []string{"## Golden Path", "## Edge Cases", "## Regressions"}

func requiredUIHeadings(content string) []string {
	var missing []string
	for _, h := range requiredHeadings {
		if !bytes.Contains([]byte(content), []byte(h)) {
			missing = append(missing, h)
		}
	}
	return missing
}

// runNonUI executes the configured non-UI commands and applies the
// any/all pass mode, defaulting to "any" per spec.md §4.4 and §9.
func (r *Runner) runNonUI(ctx context.Context, root string, cfg types.GateConfig, evidenceDir string) (*Report, error) {
	if len(cfg.NonUICommands) == 0 {
		return &Report{
			ProjectType: types.ProjectNonUI,
			Result:      types.GateFail,
			Detail:      "no non_ui_commands configured",
		}, nil
	}
	mode := cfg.NonUIMode
	if mode == "" {
		mode = "any"
	}

	timeout := gateTimeout(cfg)

	var evidence []types.GateEvidence
	anyPassed := false
	allPassed := true
	for i, command := range cfg.NonUICommands {
		ev := r.runOne(ctx, root, command, timeout, evidenceDir, i)
		evidence = append(evidence, ev)
		if ev.ExitCode == 0 {
			anyPassed = true
		} else {
			allPassed = false
		}
	}

	result := types.GateFail
	switch mode {
	case "all":
		if allPassed {
			result = types.GatePass
		}
	default:
		if anyPassed {
			result = types.GatePass
		}
	}

	return &Report{ProjectType: types.ProjectNonUI, Result: result, Evidence: evidence}, nil
}

// gateTimeout resolves the configured wall-clock deadline for gate
// commands. A zero or negative TimeoutSeconds means no deadline, per
// spec.md §5: commands run under the caller's context alone.
func gateTimeout(cfg types.GateConfig) time.Duration {
	if cfg.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(cfg.TimeoutSeconds) * time.Second
}

func (r *Runner) runOne(ctx context.Context, root, command string, timeout time.Duration, evidenceDir string, index int) types.GateEvidence {
	runCtx := ctx
	cancel := func() {}
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	started := time.Now()
	cmd := exec.CommandContext(runCtx, "sh", "-c", command)
	cmd.Dir = root
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	finished := time.Now()

	ev := types.GateEvidence{
		ID:         uuid.NewString(),
		Command:    command,
		StartedAt:  started,
		FinishedAt: finished,
	}
	if runCtx.Err() == context.DeadlineExceeded {
		ev.ExitCode = -1
		ev.Signaled = true
	} else if exitErr, ok := err.(*exec.ExitError); ok {
		ev.ExitCode = exitErr.ExitCode()
	} else if err != nil {
		ev.ExitCode = -1
	}

	if evidenceDir != "" {
		if err := os.MkdirAll(evidenceDir, 0o755); err == nil {
			p := filepath.Join(evidenceDir, fmt.Sprintf("%03d.log", index))
			_ = os.WriteFile(p, out.Bytes(), 0o644)
			ev.StdoutPath = p
		}
	}
	return ev
}

// Err wraps harnesserr.ErrGateFailure for callers that need a sentinel.
func Err(detail string) error {
	return fmt.Errorf("%w: %s", harnesserr.ErrGateFailure, detail)
}
