// Package harnesserr defines the sentinel errors behind the harness's exit
// code taxonomy. Adapters and services wrap these with fmt.Errorf("%w: ...")
// so internal/clierr can recover the right exit code with errors.Is.
package harnesserr

import "errors"

var (
	// Exit 3: invariant / precondition violations.
	ErrInvalidTransition           = errors.New("invalid transition")
	ErrInvalidCommit               = errors.New("invalid commit message")
	ErrTrailerMismatch             = errors.New("commit trailers do not match feat/task")
	ErrGateFailure                 = errors.New("quality gate failed")
	ErrStaleWorktreeRegistration   = errors.New("stale worktree registration")

	// Exit 4: external/VCS failure.
	ErrVCSFailure = errors.New("version control operation failed")

	// Exit 5: IO / SSOT corruption.
	ErrNotFound = errors.New("not found")
	ErrCorrupt  = errors.New("corrupt state")
	ErrIOError  = errors.New("io error")

	// Exit 2: usage error.
	ErrUsage = errors.New("usage error")
)
