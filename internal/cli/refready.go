package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bagakit/bagakit-feat-task-harness/internal/harnesserr"
	"github.com/bagakit/bagakit-feat-task-harness/internal/refready"
)

// CheckReferenceReadinessCmd implements check-reference-readiness: checks
// every entry in --manifest and writes a JSON+Markdown report under
// artifacts/, independent of any feat.
func CheckReferenceReadinessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check-reference-readiness",
		Short: "Check a reference manifest and write a readiness report",
		RunE: func(cmd *cobra.Command, args []string) error {
			manifestPath, _ := cmd.Flags().GetString("manifest")
			asJSON, _ := cmd.Flags().GetBool("json")
			if manifestPath == "" {
				return fmt.Errorf("--manifest is required")
			}

			svc := newServices(rootFlag(cmd))
			manifest, err := refready.LoadManifest(manifestPath)
			if err != nil {
				return err
			}
			report := refready.Check(manifest)

			if err := os.MkdirAll(svc.paths.ArtifactsDir(), 0o755); err != nil {
				return err
			}
			reportPath := svc.paths.ReferenceReadinessReport()
			if err := refready.WriteReport(reportPath, report); err != nil {
				return err
			}
			_ = refready.WriteReportMarkdown(reportPath[:len(reportPath)-len(".json")]+".md", report)

			if asJSON {
				return printJSON(report)
			}
			fmt.Printf("report: %s\n", reportPath)
			for _, r := range report.Results {
				if r.OK {
					color.Green("  ok   %s", r.ID)
				} else {
					color.Red("  fail %s: %s", r.ID, r.Detail)
				}
			}
			if !report.AllRequired {
				return fmt.Errorf("%w: one or more required reference items failed", harnesserr.ErrInvalidTransition)
			}
			return nil
		},
	}
	addCommonFlags(cmd)
	cmd.Flags().String("manifest", "", "reference manifest path")
	return cmd
}

// ValidateReferenceReportCmd implements validate-reference-report: re-checks
// a previously written report's manifest hash and required-entry coverage
// without re-fetching anything.
func ValidateReferenceReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate-reference-report",
		Short: "Validate a previously written reference readiness report",
		RunE: func(cmd *cobra.Command, args []string) error {
			manifestPath, _ := cmd.Flags().GetString("manifest")
			if manifestPath == "" {
				return fmt.Errorf("--manifest is required")
			}

			svc := newServices(rootFlag(cmd))
			manifest, err := refready.LoadManifest(manifestPath)
			if err != nil {
				return err
			}
			report, err := refready.LoadReport(svc.paths.ReferenceReadinessReport())
			if err != nil {
				return err
			}
			if err := refready.ValidateReport(report, manifest); err != nil {
				return err
			}
			fmt.Println("report: valid")
			return nil
		},
	}
	addCommonFlags(cmd)
	cmd.Flags().String("manifest", "", "reference manifest path")
	return cmd
}
