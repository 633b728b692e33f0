// Package cli wires one cobra.Command per harness verb, grounded on the
// teacher's internal/cli package: a parent command per noun (where
// needed), flags read via cmd.Flags().GetString/GetBool, stdout carrying
// only the operation's result and stderr carrying diagnostics, with a
// single error return driving the exit-code mapping in internal/clierr.
package cli

import (
	"github.com/bagakit/bagakit-feat-task-harness/internal/app"
	"github.com/bagakit/bagakit-feat-task-harness/internal/core/types"
	"github.com/spf13/cobra"
)

// services bundles every app-layer service the CLI commands need, built
// once per invocation from the resolved --root.
type services struct {
	paths  types.Paths
	feats  *app.FeatService
	tasks  *app.TaskService
	arch   *app.ArchiveService
	doctor *app.DoctorService
}

func newServices(root string) *services {
	paths := types.NewPaths(root)
	feats := app.NewFeatService(paths)
	return &services{
		paths:  paths,
		feats:  feats,
		tasks:  app.NewTaskService(paths, feats),
		arch:   app.NewArchiveService(paths, feats),
		doctor: app.NewDoctorService(paths),
	}
}

func rootFlag(cmd *cobra.Command) string {
	v, _ := cmd.Flags().GetString("root")
	if v == "" {
		v = "."
	}
	return v
}

// addCommonFlags attaches --root and --json to cmd, shared by every verb.
func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String("root", ".", "path to the git repository root")
	cmd.Flags().Bool("json", false, "emit machine-readable JSON on stdout")
}
