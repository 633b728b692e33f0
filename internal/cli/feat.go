package cli

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bagakit/bagakit-feat-task-harness/internal/app"
	"github.com/bagakit/bagakit-feat-task-harness/internal/config"
	"github.com/bagakit/bagakit-feat-task-harness/internal/core/types"
	"github.com/bagakit/bagakit-feat-task-harness/internal/refready"
	"github.com/bagakit/bagakit-feat-task-harness/internal/ssot"
)

// CreateFeatCmd implements create-feat: mints a feat, its branch, and its
// worktree, optionally gated by --strict reference-readiness.
func CreateFeatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-feat",
		Short: "Create a new feat with its own branch and worktree",
		RunE: func(cmd *cobra.Command, args []string) error {
			title, _ := cmd.Flags().GetString("title")
			slug, _ := cmd.Flags().GetString("slug")
			strict, _ := cmd.Flags().GetBool("strict")
			manifestPath, _ := cmd.Flags().GetString("manifest")
			asJSON, _ := cmd.Flags().GetBool("json")
			if title == "" {
				return fmt.Errorf("--title is required")
			}
			if slug == "" {
				slug = app.Slugify(title)
			}

			var manifest *refready.Manifest
			if strict {
				if manifestPath == "" {
					return fmt.Errorf("--manifest is required when --strict is set")
				}
				m, err := refready.LoadManifest(manifestPath)
				if err != nil {
					return err
				}
				manifest = &m
			}

			svc := newServices(rootFlag(cmd))
			f, err := svc.feats.CreateFeat(app.CreateFeatInput{Slug: slug, Title: title, Strict: strict, ReadyManifest: manifest})
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(f)
			}
			fmt.Printf("created %s (%s)\n", f.ID, f.Branch)
			fmt.Printf("worktree: %s\n", f.Worktree)
			return nil
		},
	}
	addCommonFlags(cmd)
	cmd.Flags().String("title", "", "human-readable feat title")
	cmd.Flags().String("slug", "", "feat slug, defaults to a slugified title")
	cmd.Flags().Bool("strict", false, "require reference readiness before creating")
	cmd.Flags().String("manifest", "", "reference-readiness manifest path, required with --strict")
	return cmd
}

// ListFeatsCmd implements list-feats.
func ListFeatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list-feats",
		Short: "List every feat in the global index",
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			svc := newServices(rootFlag(cmd))
			index, err := ssot.Load[types.Index](svc.paths.IndexFile())
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(index.Feats)
			}
			for _, e := range index.Feats {
				fmt.Printf("%-24s %-10s %s\n", e.ID, e.Status, e.Slug)
			}
			return nil
		},
	}
	addCommonFlags(cmd)
	return cmd
}

// GetFeatCmd implements get-feat.
func GetFeatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get-feat",
		Short: "Show one feat's full state",
		RunE: func(cmd *cobra.Command, args []string) error {
			featID, _ := cmd.Flags().GetString("feat")
			asJSON, _ := cmd.Flags().GetBool("json")
			if featID == "" {
				return fmt.Errorf("--feat is required")
			}
			svc := newServices(rootFlag(cmd))
			f, err := svc.feats.LoadFeat(featID)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(f)
			}
			printFeat(*f)
			return nil
		},
	}
	addCommonFlags(cmd)
	cmd.Flags().String("feat", "", "feat id")
	return cmd
}

// FilterFeatsCmd implements filter-feats.
func FilterFeatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter-feats",
		Short: "List feats matching a status filter",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			asJSON, _ := cmd.Flags().GetBool("json")
			svc := newServices(rootFlag(cmd))
			index, err := ssot.Load[types.Index](svc.paths.IndexFile())
			if err != nil {
				return err
			}
			var matched []types.IndexEntry
			for _, e := range index.Feats {
				if status == "" || string(e.Status) == status {
					matched = append(matched, e)
				}
			}
			if asJSON {
				return printJSON(matched)
			}
			for _, e := range matched {
				fmt.Printf("%-24s %-10s %s\n", e.ID, e.Status, e.Slug)
			}
			return nil
		},
	}
	addCommonFlags(cmd)
	cmd.Flags().String("status", "", "filter by feat status")
	return cmd
}

// AbandonFeatCmd implements abandon-feat.
func AbandonFeatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "abandon-feat",
		Short: "Mark a feat abandoned",
		RunE: func(cmd *cobra.Command, args []string) error {
			featID, _ := cmd.Flags().GetString("feat")
			if featID == "" {
				return fmt.Errorf("--feat is required")
			}
			svc := newServices(rootFlag(cmd))
			f, err := svc.feats.AbandonFeat(featID)
			if err != nil {
				return err
			}
			fmt.Printf("%s is now %s\n", f.ID, f.Status)
			return nil
		},
	}
	addCommonFlags(cmd)
	cmd.Flags().String("feat", "", "feat id")
	return cmd
}

// ArchiveFeatCmd implements archive-feat.
func ArchiveFeatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive-feat",
		Short: "Archive a done or abandoned feat",
		RunE: func(cmd *cobra.Command, args []string) error {
			featID, _ := cmd.Flags().GetString("feat")
			if featID == "" {
				return fmt.Errorf("--feat is required")
			}
			svc := newServices(rootFlag(cmd))
			cfg, err := config.Load(svc.paths.ConfigFile())
			if err != nil {
				return err
			}
			report, err := svc.arch.Archive(featID, cfg.Archive)
			if err != nil {
				return err
			}
			fmt.Printf("archived %s\n", featID)
			for _, w := range report.Warnings {
				color.Yellow("warning: %s", w)
			}
			return nil
		},
	}
	addCommonFlags(cmd)
	cmd.Flags().String("feat", "", "feat id")
	return cmd
}

// ShowFeatStatusCmd implements show-feat-status.
func ShowFeatStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show-feat-status",
		Short: "Show a feat's status, tasks, and counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			featID, _ := cmd.Flags().GetString("feat")
			asJSON, _ := cmd.Flags().GetBool("json")
			if featID == "" {
				return fmt.Errorf("--feat is required")
			}
			svc := newServices(rootFlag(cmd))
			f, err := svc.feats.LoadFeat(featID)
			if err != nil {
				return err
			}
			tasks, err := ssot.Load[types.TaskDocument](svc.paths.FeatTasks(featID))
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(struct {
					Feat  types.Feat         `json:"feat"`
					Tasks []types.Task       `json:"tasks"`
				}{Feat: *f, Tasks: tasks.Tasks})
			}
			printFeat(*f)
			for _, t := range tasks.Tasks {
				statusColor := color.New(color.FgGreen)
				if t.Status != types.TaskDone {
					statusColor = color.New(color.FgYellow)
				}
				statusColor.Printf("  %-8s %-12s %s\n", t.ID, t.Status, t.Title)
			}
			return nil
		},
	}
	addCommonFlags(cmd)
	cmd.Flags().String("feat", "", "feat id")
	return cmd
}

func printFeat(f types.Feat) {
	fmt.Printf("%s  %s\n", f.ID, f.Title)
	fmt.Printf("  status:   %s\n", f.Status)
	fmt.Printf("  branch:   %s\n", f.Branch)
	fmt.Printf("  worktree: %s\n", f.Worktree)
	fmt.Printf("  counters: gate_fail_streak=%d no_progress_rounds=%d round_count=%d\n",
		f.Counters.GateFailStreak, f.Counters.NoProgressRounds, f.Counters.RoundCount)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
