package commitproto

import (
	"errors"
	"strings"
	"testing"

	"github.com/bagakit/bagakit-feat-task-harness/internal/core/types"
	"github.com/bagakit/bagakit-feat-task-harness/internal/harnesserr"
)

func TestGenerateParseValidateRoundTrip(t *testing.T) {
	text := Generate("F-demo-feat-001", "T-001", "add the widget",
		"do the thing", "ran the tests", "nothing surprising",
		types.GatePass, types.TaskDone)

	msg, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if err := Validate(msg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if msg.Plan != "do the thing" {
		t.Errorf("Plan = %q, want %q", msg.Plan, "do the thing")
	}
	if msg.Check != "ran the tests" {
		t.Errorf("Check = %q, want %q", msg.Check, "ran the tests")
	}
	if msg.Learn != "nothing surprising" {
		t.Errorf("Learn = %q, want %q", msg.Learn, "nothing surprising")
	}
	if !MatchesTrailers(msg, "F-demo-feat-001", "T-001") {
		t.Errorf("MatchesTrailers() = false, want true")
	}
	if msg.Trailers["Gate-Result"] != "pass" {
		t.Errorf("Gate-Result = %q, want pass", msg.Trailers["Gate-Result"])
	}
	if msg.Trailers["Task-Status"] != "done" {
		t.Errorf("Task-Status = %q, want done", msg.Trailers["Task-Status"])
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	a := Generate("F-demo-feat-001", "T-001", "add the widget", "plan", "check", "learn", types.GatePass, types.TaskDone)
	b := Generate("F-demo-feat-001", "T-001", "add the widget", "plan", "check", "learn", types.GatePass, types.TaskDone)
	if a != b {
		t.Errorf("Generate() produced different output on repeated calls with identical inputs")
	}
}

func TestParseTrailerOrder(t *testing.T) {
	text := Generate("F-demo-feat-001", "T-001", "subject", "p", "c", "l", types.GatePass, types.TaskDone)
	msg, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := []string{"Feat-ID", "Task-ID", "Gate-Result", "Task-Status"}
	if len(msg.TrailerOrder) != len(want) {
		t.Fatalf("TrailerOrder = %v, want %v", msg.TrailerOrder, want)
	}
	for i, k := range want {
		if msg.TrailerOrder[i] != k {
			t.Errorf("TrailerOrder[%d] = %q, want %q", i, msg.TrailerOrder[i], k)
		}
	}
}

func TestMatchesTrailers(t *testing.T) {
	text := Generate("F-demo-feat-001", "T-001", "subject", "p", "c", "l", types.GatePass, types.TaskDone)
	msg, _ := Parse(text)

	if !MatchesTrailers(msg, "F-demo-feat-001", "T-001") {
		t.Errorf("MatchesTrailers() = false, want true")
	}
	if MatchesTrailers(msg, "F-demo-feat-002", "T-001") {
		t.Errorf("MatchesTrailers() = true for a mismatched Feat-ID, want false")
	}
	if MatchesTrailers(msg, "F-demo-feat-001", "T-002") {
		t.Errorf("MatchesTrailers() = true for a mismatched Task-ID, want false")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Message {
		return &Message{
			Subject:      "feat(F-demo-feat-001): task(T-001) add the widget",
			Plan:         "do the thing",
			Check:        "ran the tests",
			Learn:        "nothing surprising",
			TrailerOrder: []string{"Feat-ID", "Task-ID", "Gate-Result", "Task-Status"},
			Trailers: map[string]string{
				"Feat-ID":     "F-demo-feat-001",
				"Task-ID":     "T-001",
				"Gate-Result": "pass",
				"Task-Status": "done",
			},
		}
	}

	t.Run("valid message passes", func(t *testing.T) {
		if err := Validate(base()); err != nil {
			t.Errorf("Validate() error = %v, want nil", err)
		}
	})

	t.Run("rejects a malformed subject line", func(t *testing.T) {
		msg := base()
		msg.Subject = "add the widget"
		err := Validate(msg)
		if !errors.Is(err, harnesserr.ErrInvalidCommit) {
			t.Errorf("Validate() error = %v, want ErrInvalidCommit", err)
		}
	})

	t.Run("rejects an empty Plan section", func(t *testing.T) {
		msg := base()
		msg.Plan = ""
		err := Validate(msg)
		if !errors.Is(err, harnesserr.ErrInvalidCommit) {
			t.Errorf("Validate() error = %v, want ErrInvalidCommit", err)
		}
	})

	t.Run("rejects missing trailers", func(t *testing.T) {
		msg := base()
		msg.TrailerOrder = []string{"Feat-ID", "Task-ID"}
		err := Validate(msg)
		if !errors.Is(err, harnesserr.ErrInvalidCommit) {
			t.Errorf("Validate() error = %v, want ErrInvalidCommit", err)
		}
	})

	t.Run("rejects trailers out of order", func(t *testing.T) {
		msg := base()
		msg.TrailerOrder = []string{"Task-ID", "Feat-ID", "Gate-Result", "Task-Status"}
		err := Validate(msg)
		if !errors.Is(err, harnesserr.ErrInvalidCommit) {
			t.Errorf("Validate() error = %v, want ErrInvalidCommit", err)
		}
	})

	t.Run("rejects an invalid Gate-Result enum value", func(t *testing.T) {
		msg := base()
		msg.Trailers["Gate-Result"] = "maybe"
		err := Validate(msg)
		if !errors.Is(err, harnesserr.ErrInvalidCommit) {
			t.Errorf("Validate() error = %v, want ErrInvalidCommit", err)
		}
	})

	t.Run("rejects an invalid Task-Status enum value", func(t *testing.T) {
		msg := base()
		msg.Trailers["Task-Status"] = "finished"
		err := Validate(msg)
		if !errors.Is(err, harnesserr.ErrInvalidCommit) {
			t.Errorf("Validate() error = %v, want ErrInvalidCommit", err)
		}
	})

	t.Run("rejects Task-Status done with a non-passing Gate-Result", func(t *testing.T) {
		msg := base()
		msg.Trailers["Gate-Result"] = "fail"
		err := Validate(msg)
		if !errors.Is(err, harnesserr.ErrInvalidCommit) {
			t.Errorf("Validate() error = %v, want ErrInvalidCommit", err)
		}
		if !strings.Contains(err.Error(), "Task-Status: done requires Gate-Result: pass") {
			t.Errorf("error = %v, want the cross-field rule message", err)
		}
	})

	t.Run("accepts Task-Status blocked with a failing Gate-Result", func(t *testing.T) {
		msg := base()
		msg.Trailers["Gate-Result"] = "fail"
		msg.Trailers["Task-Status"] = "blocked"
		if err := Validate(msg); err != nil {
			t.Errorf("Validate() error = %v, want nil", err)
		}
	})
}
