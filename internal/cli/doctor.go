package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bagakit/bagakit-feat-task-harness/internal/app"
	"github.com/bagakit/bagakit-feat-task-harness/internal/config"
	"github.com/bagakit/bagakit-feat-task-harness/internal/harnesserr"
)

// ValidateHarnessCmd implements validate-harness: the structural-invariant
// tier of C8, read-only, never warns on thresholds.
func ValidateHarnessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate-harness",
		Short: "Check structural invariants across the harness's SSOT",
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			svc := newServices(rootFlag(cmd))
			results, err := svc.doctor.Validate()
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(results)
			}
			printCheckResults(results)
			if app.AnyFailed(results) {
				return fmt.Errorf("%w: structural invariants violated", harnesserr.ErrInvalidTransition)
			}
			return nil
		},
	}
	addCommonFlags(cmd)
	return cmd
}

// DiagnoseHarnessCmd implements diagnose-harness: structural checks plus
// threshold-based health warnings and worktree/VCS drift detection.
func DiagnoseHarnessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diagnose-harness",
		Short: "Run a full health check: invariants, thresholds, and drift",
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			svc := newServices(rootFlag(cmd))
			cfg, err := config.Load(svc.paths.ConfigFile())
			if err != nil {
				return err
			}
			results, err := svc.doctor.Diagnose(cfg.Doctor)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(results)
			}
			printCheckResults(results)
			if app.AnyFailed(results) {
				return fmt.Errorf("%w: diagnose-harness found failing checks", harnesserr.ErrInvalidTransition)
			}
			return nil
		},
	}
	addCommonFlags(cmd)
	return cmd
}

func printCheckResults(results []app.CheckResult) {
	if len(results) == 0 {
		color.Green("all checks passed")
		return
	}
	for _, r := range results {
		switch r.Status {
		case "ok":
			color.Green("✓ %-40s", r.Name)
		case "warn":
			color.Yellow("⚠ %-40s %s", r.Name, r.Details)
		default:
			color.Red("✗ %-40s %s", r.Name, r.Details)
		}
	}
}
