package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bagakit/bagakit-feat-task-harness/internal/core/types"
)

// AddTaskCmd implements add-task.
func AddTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-task",
		Short: "Add a planned task to a feat",
		RunE: func(cmd *cobra.Command, args []string) error {
			featID, _ := cmd.Flags().GetString("feat")
			title, _ := cmd.Flags().GetString("title")
			if featID == "" || title == "" {
				return fmt.Errorf("--feat and --title are required")
			}
			svc := newServices(rootFlag(cmd))
			t, err := svc.tasks.AddTask(featID, title)
			if err != nil {
				return err
			}
			fmt.Printf("added %s: %s\n", t.ID, t.Title)
			return nil
		},
	}
	addCommonFlags(cmd)
	cmd.Flags().String("feat", "", "feat id")
	cmd.Flags().String("title", "", "task title")
	return cmd
}

// StartTaskCmd implements start-task.
func StartTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start-task",
		Short: "Move a task to in_progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			featID, _ := cmd.Flags().GetString("feat")
			taskID, _ := cmd.Flags().GetString("task")
			if featID == "" || taskID == "" {
				return fmt.Errorf("--feat and --task are required")
			}
			svc := newServices(rootFlag(cmd))
			t, err := svc.tasks.StartTask(featID, taskID)
			if err != nil {
				return err
			}
			fmt.Printf("%s is now %s\n", t.ID, t.Status)
			return nil
		},
	}
	addCommonFlags(cmd)
	cmd.Flags().String("feat", "", "feat id")
	cmd.Flags().String("task", "", "task id")
	return cmd
}

// RunTaskGateCmd implements run-task-gate.
func RunTaskGateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run-task-gate",
		Short: "Run the configured quality gate for a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			featID, _ := cmd.Flags().GetString("feat")
			taskID, _ := cmd.Flags().GetString("task")
			if featID == "" || taskID == "" {
				return fmt.Errorf("--feat and --task are required")
			}
			svc := newServices(rootFlag(cmd))
			report, err := svc.tasks.RunGate(context.Background(), featID, taskID)
			if err != nil {
				return err
			}
			if report.Result == types.GatePass {
				color.Green("gate PASS (%s)", report.ProjectType)
			} else {
				color.Red("gate FAIL (%s): %s", report.ProjectType, report.Detail)
			}
			for _, e := range report.Evidence {
				fmt.Printf("  $ %s -> exit %d\n", e.Command, e.ExitCode)
			}
			return nil
		},
	}
	addCommonFlags(cmd)
	cmd.Flags().String("feat", "", "feat id")
	cmd.Flags().String("task", "", "task id")
	return cmd
}

// PrepareTaskCommitCmd implements prepare-task-commit.
func PrepareTaskCommitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prepare-task-commit",
		Short: "Generate and validate a task's commit message",
		RunE: func(cmd *cobra.Command, args []string) error {
			featID, _ := cmd.Flags().GetString("feat")
			taskID, _ := cmd.Flags().GetString("task")
			summary, _ := cmd.Flags().GetString("summary")
			plan, _ := cmd.Flags().GetString("plan")
			check, _ := cmd.Flags().GetString("check")
			learn, _ := cmd.Flags().GetString("learn")
			status, _ := cmd.Flags().GetString("status")
			execute, _ := cmd.Flags().GetBool("execute")
			if featID == "" || taskID == "" || summary == "" {
				return fmt.Errorf("--feat, --task, and --summary are required")
			}
			if status == "" {
				status = string(types.TaskDone)
			}
			svc := newServices(rootFlag(cmd))
			messageFile, _, err := svc.tasks.PrepareCommit(featID, taskID, summary, plan, check, learn, types.TaskStatus(status), execute)
			if err != nil {
				return err
			}
			fmt.Printf("message_file: %s\n", messageFile)
			if execute {
				fmt.Println("committed: true")
			}
			return nil
		},
	}
	addCommonFlags(cmd)
	cmd.Flags().String("feat", "", "feat id")
	cmd.Flags().String("task", "", "task id")
	cmd.Flags().String("summary", "", "one-line commit subject summary")
	cmd.Flags().String("plan", "", "Plan section body")
	cmd.Flags().String("check", "", "Check section body")
	cmd.Flags().String("learn", "", "Learn section body")
	cmd.Flags().String("status", "", "intended Task-Status trailer (default done)")
	cmd.Flags().Bool("execute", false, "also create the commit immediately using the generated message")
	return cmd
}

// FinishTaskCmd implements finish-task.
func FinishTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "finish-task",
		Short: "Finish a task as done or blocked",
		RunE: func(cmd *cobra.Command, args []string) error {
			featID, _ := cmd.Flags().GetString("feat")
			taskID, _ := cmd.Flags().GetString("task")
			status, _ := cmd.Flags().GetString("status")
			blockedNote, _ := cmd.Flags().GetString("blocked-note")
			commitMessage, _ := cmd.Flags().GetString("commit-message")
			if featID == "" || taskID == "" || status == "" {
				return fmt.Errorf("--feat, --task, and --status are required")
			}
			svc := newServices(rootFlag(cmd))
			t, err := svc.tasks.FinishTask(featID, taskID, types.TaskStatus(status), commitMessage, blockedNote)
			if err != nil {
				return err
			}
			fmt.Printf("%s is now %s\n", t.ID, t.Status)
			return nil
		},
	}
	addCommonFlags(cmd)
	cmd.Flags().String("feat", "", "feat id")
	cmd.Flags().String("task", "", "task id")
	cmd.Flags().String("status", "", "done or blocked")
	cmd.Flags().String("blocked-note", "", "reason recorded when status is blocked")
	cmd.Flags().String("commit-message", "", "full commit message to create, if not already committed")
	return cmd
}
