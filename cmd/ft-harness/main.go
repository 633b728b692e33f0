// Command ft-harness drives the feat/task lifecycle harness: one subcommand
// per verb, wired the way cmd/orc/main.go wires internal/cli in the teacher
// repo, but mapping errors through internal/clierr's exit-code taxonomy
// instead of a flat os.Exit(1).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bagakit/bagakit-feat-task-harness/internal/cli"
	"github.com/bagakit/bagakit-feat-task-harness/internal/clierr"
	"github.com/bagakit/bagakit-feat-task-harness/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "ft-harness",
		Short:   "Feat/task lifecycle orchestration harness",
		Version: version.String(),
	}

	rootCmd.AddCommand(
		cli.CheckReferenceReadinessCmd(),
		cli.ValidateReferenceReportCmd(),
		cli.InitializeHarnessCmd(),
		cli.CreateFeatCmd(),
		cli.ListFeatsCmd(),
		cli.GetFeatCmd(),
		cli.FilterFeatsCmd(),
		cli.ShowFeatStatusCmd(),
		cli.AbandonFeatCmd(),
		cli.ArchiveFeatCmd(),
		cli.AddTaskCmd(),
		cli.StartTaskCmd(),
		cli.RunTaskGateCmd(),
		cli.PrepareTaskCommitCmd(),
		cli.FinishTaskCmd(),
		cli.ValidateHarnessCmd(),
		cli.DiagnoseHarnessCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(clierr.ExitCode(err))
	}
}
