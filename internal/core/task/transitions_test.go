package task

import (
	"testing"
	"time"

	"github.com/bagakit/bagakit-feat-task-harness/internal/core/types"
)

func TestInitialStatus(t *testing.T) {
	if got := InitialStatus(); got != types.TaskPlanned {
		t.Errorf("InitialStatus() = %v, want %v", got, types.TaskPlanned)
	}
}

func TestApplyStartTransition(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	result := ApplyStartTransition(now)
	if result.NewStatus != types.TaskInProgress {
		t.Errorf("NewStatus = %v, want %v", result.NewStatus, types.TaskInProgress)
	}
	if !result.StartedAt.Equal(now) {
		t.Errorf("StartedAt = %v, want %v", result.StartedAt, now)
	}
}

func TestApplyFinishTransition(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("finishing as done stamps DoneAt", func(t *testing.T) {
		result := ApplyFinishTransition(types.TaskDone, now)
		if result.NewStatus != types.TaskDone {
			t.Errorf("NewStatus = %v, want %v", result.NewStatus, types.TaskDone)
		}
		if result.DoneAt == nil || !result.DoneAt.Equal(now) {
			t.Errorf("DoneAt = %v, want %v", result.DoneAt, now)
		}
	})

	t.Run("finishing as blocked leaves DoneAt nil", func(t *testing.T) {
		result := ApplyFinishTransition(types.TaskBlocked, now)
		if result.NewStatus != types.TaskBlocked {
			t.Errorf("NewStatus = %v, want %v", result.NewStatus, types.TaskBlocked)
		}
		if result.DoneAt != nil {
			t.Errorf("DoneAt = %v, want nil", result.DoneAt)
		}
	})
}

func TestNextID(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		want     string
	}{
		{"no tasks yet", nil, "T-001"},
		{"dense ids", []string{"T-001", "T-002"}, "T-003"},
		{"ignores malformed ids", []string{"T-001", "not-a-task-id"}, "T-002"},
		{"uses the max even if ids are out of order", []string{"T-003", "T-001", "T-002"}, "T-004"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextID(tt.existing); got != tt.want {
				t.Errorf("NextID(%v) = %q, want %q", tt.existing, got, tt.want)
			}
		})
	}
}
