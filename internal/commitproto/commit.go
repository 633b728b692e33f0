// Package commitproto implements the commit message protocol (C6): a fixed
// subject line, ordered Plan/Check/Learn body sections, and a fixed block
// of trailers, generated by Generate and re-parsed by Parse/Validate as a
// single-pass line scan rather than a multi-line regex, per spec.md §9's
// explicit design note. Ported from the original Python harness's
// build_commit_message / parse_trailers / validate_commit_message trio.
package commitproto

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bagakit/bagakit-feat-task-harness/internal/core/types"
	"github.com/bagakit/bagakit-feat-task-harness/internal/harnesserr"
)

var subjectRe = regexp.MustCompile(`^feat\(F-[a-z0-9-]+\): task\(T-\d{3}\) .+$`)

// Message is a parsed commit message.
type Message struct {
	Subject string
	Plan    string
	Check   string
	Learn   string
	Trailers map[string]string
	TrailerOrder []string
}

var trailerOrder = []string{"Feat-ID", "Task-ID", "Gate-Result", "Task-Status"}

var validGateResults = map[string]bool{"pass": true, "fail": true, "unknown": true}
var validTaskStatuses = map[string]bool{"planned": true, "in_progress": true, "blocked": true, "done": true}

// Generate produces the full commit message text for one task.
func Generate(featID, taskID, summary, plan, check, learn string, gateResult types.GateResult, taskStatus types.TaskStatus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "feat(%s): task(%s) %s\n\n", featID, taskID, summary)
	fmt.Fprintf(&b, "Plan:\n%s\n\n", plan)
	fmt.Fprintf(&b, "Check:\n%s\n\n", check)
	fmt.Fprintf(&b, "Learn:\n%s\n\n", learn)
	fmt.Fprintf(&b, "Feat-ID: %s\n", featID)
	fmt.Fprintf(&b, "Task-ID: %s\n", taskID)
	fmt.Fprintf(&b, "Gate-Result: %s\n", gateResult)
	fmt.Fprintf(&b, "Task-Status: %s\n", taskStatus)
	return b.String()
}

// Parse performs a single-pass lexical scan of text, identifying the
// subject line, the three named body sections in order, and the trailing
// block of colon-delimited trailers. A section header that repeats or
// appears out of order is rejected with ErrInvalidCommit. It does not
// validate values; use Validate for that.
func Parse(text string) (*Message, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: empty commit message", harnesserr.ErrInvalidCommit)
	}
	msg := &Message{Subject: lines[0], Trailers: map[string]string{}}

	section := ""
	sectionRank := map[string]int{"Plan:": 1, "Check:": 2, "Learn:": 3}
	lastRank := 0
	var plan, check, learn []string
	for _, line := range lines[1:] {
		trimmed := strings.TrimSpace(line)
		if rank, ok := sectionRank[trimmed]; ok {
			if rank <= lastRank {
				return nil, fmt.Errorf("%w: section %s out of order, want Plan:, Check:, Learn:", harnesserr.ErrInvalidCommit, trimmed)
			}
			lastRank = rank
			section = strings.ToLower(strings.TrimSuffix(trimmed, ":"))
			continue
		}
		if idx := strings.Index(trimmed, ": "); idx > 0 && isTrailerKey(trimmed[:idx]) {
			key := trimmed[:idx]
			msg.Trailers[key] = trimmed[idx+2:]
			msg.TrailerOrder = append(msg.TrailerOrder, key)
			section = "trailers"
			continue
		}
		switch section {
		case "plan":
			plan = append(plan, line)
		case "check":
			check = append(check, line)
		case "learn":
			learn = append(learn, line)
		}
	}
	msg.Plan = strings.TrimSpace(strings.Join(plan, "\n"))
	msg.Check = strings.TrimSpace(strings.Join(check, "\n"))
	msg.Learn = strings.TrimSpace(strings.Join(learn, "\n"))
	return msg, nil
}

func isTrailerKey(k string) bool {
	for _, t := range trailerOrder {
		if k == t {
			return true
		}
	}
	return false
}

// Validate checks a parsed message against the fixed commit protocol:
// subject shape, non-empty sections (their order is enforced by Parse),
// trailer presence/order/enum values, and the cross-field rule that
// Task-Status: done requires Gate-Result: pass.
func Validate(msg *Message) error {
	if !subjectRe.MatchString(msg.Subject) {
		return fmt.Errorf("%w: subject %q does not match feat(F-<slug>): task(T-NNN) <summary>", harnesserr.ErrInvalidCommit, msg.Subject)
	}
	if msg.Plan == "" || msg.Check == "" || msg.Learn == "" {
		return fmt.Errorf("%w: Plan, Check, and Learn sections must all be non-empty", harnesserr.ErrInvalidCommit)
	}
	if len(msg.TrailerOrder) < len(trailerOrder) {
		return fmt.Errorf("%w: missing trailers, expected %v", harnesserr.ErrInvalidCommit, trailerOrder)
	}
	for i, want := range trailerOrder {
		if i >= len(msg.TrailerOrder) || msg.TrailerOrder[i] != want {
			return fmt.Errorf("%w: trailers must appear in order %v", harnesserr.ErrInvalidCommit, trailerOrder)
		}
	}
	gateResult := msg.Trailers["Gate-Result"]
	if !validGateResults[gateResult] {
		return fmt.Errorf("%w: invalid Gate-Result %q", harnesserr.ErrInvalidCommit, gateResult)
	}
	taskStatus := msg.Trailers["Task-Status"]
	if !validTaskStatuses[taskStatus] {
		return fmt.Errorf("%w: invalid Task-Status %q", harnesserr.ErrInvalidCommit, taskStatus)
	}
	if taskStatus == "done" && gateResult != "pass" {
		return fmt.Errorf("%w: Task-Status: done requires Gate-Result: pass", harnesserr.ErrInvalidCommit)
	}
	return nil
}

// MatchesTrailers reports whether msg's Feat-ID and Task-ID trailers match
// the given feat/task ids, backing finish-task's TrailerMismatch check.
func MatchesTrailers(msg *Message, featID, taskID string) bool {
	return msg.Trailers["Feat-ID"] == featID && msg.Trailers["Task-ID"] == taskID
}
