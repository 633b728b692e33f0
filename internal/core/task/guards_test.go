package task

import (
	"testing"

	"github.com/bagakit/bagakit-feat-task-harness/internal/core/types"
)

func TestCanStartTask(t *testing.T) {
	tests := []struct {
		name        string
		ctx         StartContext
		wantAllowed bool
		wantReason  string
	}{
		{
			name:        "can start a planned task",
			ctx:         StartContext{TaskID: "T-001", Status: types.TaskPlanned},
			wantAllowed: true,
		},
		{
			name:        "can restart a blocked task",
			ctx:         StartContext{TaskID: "T-001", Status: types.TaskBlocked},
			wantAllowed: true,
		},
		{
			name:        "cannot start a task that is already done",
			ctx:         StartContext{TaskID: "T-001", Status: types.TaskDone},
			wantAllowed: false,
			wantReason:  "task T-001 is done; start-task requires planned or blocked",
		},
		{
			name: "cannot start a second task while one is already in progress",
			ctx: StartContext{
				TaskID:              "T-002",
				Status:              types.TaskPlanned,
				OtherTaskInProgress: "T-001",
			},
			wantAllowed: false,
			wantReason:  "task T-001 is already in_progress; finish or block it before starting T-002",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanStartTask(tt.ctx)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && result.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", result.Reason, tt.wantReason)
			}
		})
	}
}

func TestCanRunGate(t *testing.T) {
	tests := []struct {
		name        string
		ctx         GateContext
		wantAllowed bool
		wantReason  string
	}{
		{
			name:        "can run the gate on an in-progress task",
			ctx:         GateContext{TaskID: "T-001", Status: types.TaskInProgress},
			wantAllowed: true,
		},
		{
			name:        "cannot run the gate on a planned task",
			ctx:         GateContext{TaskID: "T-001", Status: types.TaskPlanned},
			wantAllowed: false,
			wantReason:  "task T-001 is planned; run-task-gate requires in_progress",
		},
		{
			name:        "cannot run the gate on a done task",
			ctx:         GateContext{TaskID: "T-001", Status: types.TaskDone},
			wantAllowed: false,
			wantReason:  "task T-001 is done; run-task-gate requires in_progress",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanRunGate(tt.ctx)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && result.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", result.Reason, tt.wantReason)
			}
		})
	}
}

func TestCanPrepareCommit(t *testing.T) {
	tests := []struct {
		name        string
		ctx         PrepareCommitContext
		wantAllowed bool
		wantReason  string
	}{
		{
			name:        "can prepare a commit after a passing gate with a dirty worktree",
			ctx:         PrepareCommitContext{TaskID: "T-001", Status: types.TaskInProgress, GateResult: types.GatePass, HasWorktreeDiff: true},
			wantAllowed: true,
		},
		{
			name:        "cannot prepare a commit after a failing gate",
			ctx:         PrepareCommitContext{TaskID: "T-001", Status: types.TaskInProgress, GateResult: types.GateFail, HasWorktreeDiff: true},
			wantAllowed: false,
			wantReason:  "task T-001 does not have a passing gate result; run run-task-gate first",
		},
		{
			name:        "cannot prepare a commit before the task is started",
			ctx:         PrepareCommitContext{TaskID: "T-001", Status: types.TaskPlanned, GateResult: types.GatePass, HasWorktreeDiff: true},
			wantAllowed: false,
			wantReason:  "task T-001 is planned; prepare-task-commit requires in_progress",
		},
		{
			name:        "cannot prepare a commit before the gate has run",
			ctx:         PrepareCommitContext{TaskID: "T-001", Status: types.TaskInProgress, GateResult: types.GateUnknown, HasWorktreeDiff: true},
			wantAllowed: false,
			wantReason:  "task T-001 does not have a passing gate result; run run-task-gate first",
		},
		{
			name:        "cannot prepare a commit with no worktree diff",
			ctx:         PrepareCommitContext{TaskID: "T-001", Status: types.TaskInProgress, GateResult: types.GatePass, HasWorktreeDiff: false},
			wantAllowed: false,
			wantReason:  "task T-001 worktree has no staged or unstaged changes to commit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanPrepareCommit(tt.ctx)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && result.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", result.Reason, tt.wantReason)
			}
		})
	}
}

func TestCanFinishTask(t *testing.T) {
	tests := []struct {
		name        string
		ctx         FinishContext
		wantAllowed bool
		wantReason  string
	}{
		{
			name: "can finish as done with a passing gate and matching trailers",
			ctx: FinishContext{
				TaskID:        "T-001",
				Status:        types.TaskInProgress,
				DesiredStatus: types.TaskDone,
				GateResult:    types.GatePass,
				TrailersMatch: true,
			},
			wantAllowed: true,
		},
		{
			name: "can finish as blocked regardless of gate result",
			ctx: FinishContext{
				TaskID:        "T-001",
				Status:        types.TaskInProgress,
				DesiredStatus: types.TaskBlocked,
				GateResult:    types.GateFail,
			},
			wantAllowed: true,
		},
		{
			name: "cannot finish a task that is not in progress",
			ctx: FinishContext{
				TaskID:        "T-001",
				Status:        types.TaskPlanned,
				DesiredStatus: types.TaskBlocked,
			},
			wantAllowed: false,
			wantReason:  "task T-001 is planned; finish-task requires in_progress",
		},
		{
			name: "cannot finish as done without a passing gate",
			ctx: FinishContext{
				TaskID:        "T-001",
				Status:        types.TaskInProgress,
				DesiredStatus: types.TaskDone,
				GateResult:    types.GateFail,
				TrailersMatch: true,
			},
			wantAllowed: false,
			wantReason:  "task T-001 cannot finish as done without a passing gate result",
		},
		{
			name: "cannot finish as done when HEAD trailers do not match",
			ctx: FinishContext{
				TaskID:        "T-001",
				Status:        types.TaskInProgress,
				DesiredStatus: types.TaskDone,
				GateResult:    types.GatePass,
				TrailersMatch: false,
			},
			wantAllowed: false,
			wantReason:  "HEAD commit trailers do not match feat/task T-001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanFinishTask(tt.ctx)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && result.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", result.Reason, tt.wantReason)
			}
		})
	}
}
