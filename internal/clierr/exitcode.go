// Package clierr maps the harness's sentinel error taxonomy onto the
// process exit codes defined by the spec: 0 success, 2 usage error,
// 3 invariant violation, 4 external/VCS failure, 5 IO/SSOT corruption.
package clierr

import (
	"errors"

	"github.com/bagakit/bagakit-feat-task-harness/internal/harnesserr"
)

// ExitCode inspects err and returns the process exit code the CLI layer
// should use. A nil error returns 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch {
	case errors.Is(err, harnesserr.ErrUsage):
		return 2
	case errors.Is(err, harnesserr.ErrInvalidTransition),
		errors.Is(err, harnesserr.ErrInvalidCommit),
		errors.Is(err, harnesserr.ErrTrailerMismatch),
		errors.Is(err, harnesserr.ErrGateFailure),
		errors.Is(err, harnesserr.ErrStaleWorktreeRegistration):
		return 3
	case errors.Is(err, harnesserr.ErrVCSFailure):
		return 4
	case errors.Is(err, harnesserr.ErrNotFound),
		errors.Is(err, harnesserr.ErrCorrupt),
		errors.Is(err, harnesserr.ErrIOError):
		return 5
	default:
		return 2
	}
}
