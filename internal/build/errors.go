package build

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies a failed build.
type ErrorKind string

const (
	// KindTimeout means the packager exceeded the build timeout and was killed.
	KindTimeout ErrorKind = "TIMEOUT"

	// KindNonZeroExit means the packager ran and exited with a failure code.
	KindNonZeroExit ErrorKind = "NON_ZERO_EXIT"

	// KindToolInvocationFailed means the packager could not be started or
	// the build environment could not be prepared.
	KindToolInvocationFailed ErrorKind = "TOOL_INVOCATION_FAILED"
)

// Error is returned for every failed build.
type Error struct {
	Kind     ErrorKind
	Program  string
	ExitCode int           // for KindNonZeroExit
	Summary  string        // for KindNonZeroExit: last stderr line or stdout prefix
	Timeout  time.Duration // for KindTimeout
	Err      error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindTimeout:
		return fmt.Sprintf("build %s: packager timed out after %s", e.Program, e.Timeout)
	case KindNonZeroExit:
		if e.Summary == "" {
			return fmt.Sprintf("build %s: packager exited with code %d", e.Program, e.ExitCode)
		}
		return fmt.Sprintf("build %s: packager exited with code %d: %s", e.Program, e.ExitCode, e.Summary)
	default:
		if e.Err != nil {
			return fmt.Sprintf("build %s: %v", e.Program, e.Err)
		}
		return fmt.Sprintf("build %s: packager invocation failed", e.Program)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTimeout returns true if err is a build timeout.
// Uses errors.As to handle wrapped errors.
func IsTimeout(err error) bool {
	var be *Error
	return errors.As(err, &be) && be.Kind == KindTimeout
}

// KindOf returns the build error kind of err, or "" if err is not a build error.
func KindOf(err error) ErrorKind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}
