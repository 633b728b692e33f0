// Package app contains the application layer: service implementations that
// sequence guard checks, pure planning, and effect execution. This is the
// Imperative Shell - the only place I/O happens.
package app

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/bagakit/bagakit-feat-task-harness/internal/core/effects"
)

// EffectExecutor interprets and executes effects built by pure planners.
// Grounded on the teacher's DefaultEffectExecutor switch-on-type dispatch,
// narrowed to the effect kinds this domain's planners emit: no tmux, no
// sqlite persistence. PersistEffect is handled one layer up by the
// service methods themselves via internal/ssot, since its document shape
// varies per call site and doesn't benefit from a second indirection here.
type EffectExecutor interface {
	Execute(ctx context.Context, effs []effects.Effect) error
}

// DefaultEffectExecutor implements EffectExecutor with real I/O.
type DefaultEffectExecutor struct{}

func NewEffectExecutor() *DefaultEffectExecutor { return &DefaultEffectExecutor{} }

func (e *DefaultEffectExecutor) Execute(ctx context.Context, effs []effects.Effect) error {
	for _, eff := range effs {
		if err := e.executeOne(ctx, eff); err != nil {
			return fmt.Errorf("failed to execute %s effect: %w", eff.EffectType(), err)
		}
	}
	return nil
}

func (e *DefaultEffectExecutor) executeOne(ctx context.Context, eff effects.Effect) error {
	switch typed := eff.(type) {
	case effects.FileEffect:
		return e.executeFile(typed)
	case effects.GitEffect:
		return e.executeGit(ctx, typed)
	case effects.CompositeEffect:
		return e.Execute(ctx, typed.Effects)
	case effects.NoEffect:
		return nil
	case effects.LogEffect:
		fmt.Fprintf(os.Stderr, "[%s] %s\n", typed.Level, typed.Message)
		return nil
	default:
		return fmt.Errorf("unknown effect type: %T", eff)
	}
}

func (e *DefaultEffectExecutor) executeFile(eff effects.FileEffect) error {
	switch eff.Operation {
	case "mkdir":
		return os.MkdirAll(eff.Path, os.FileMode(eff.Mode))
	case "write":
		return os.WriteFile(eff.Path, eff.Content, os.FileMode(eff.Mode))
	case "rename":
		return os.Rename(eff.Path, eff.Target)
	case "remove":
		return os.RemoveAll(eff.Path)
	default:
		return fmt.Errorf("unknown file operation: %s", eff.Operation)
	}
}

func (e *DefaultEffectExecutor) executeGit(ctx context.Context, eff effects.GitEffect) error {
	args := append([]string{eff.Operation}, eff.Args...)
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = eff.RepoPath
	return cmd.Run()
}
