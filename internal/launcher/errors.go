package launcher

import (
	"errors"
	"fmt"
)

// Setup failures, each with its own exit status.
var (
	ErrDirectory   = errors.New("cannot enter base directory")
	ErrEnvironment = errors.New("runtime environment unavailable")
	ErrLocked      = errors.New("another sync run holds the lock")
	ErrLogFile     = errors.New("cannot open log file")
	ErrProgram     = errors.New("program failed")
)

// Exit statuses for setup failures. Program statuses pass through unchanged.
const (
	ExitOK          = 0
	ExitDirectory   = 1
	ExitEnvironment = 2
	ExitLocked      = 3
	ExitLogFile     = 4
	ExitNotExec     = 126
	ExitNotFound    = 127
)

// ExitError carries the status the launching process should exit with.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%v (exit status %d)", e.Err, e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode implements the exit-coder convention used by cmd/main.
func (e *ExitError) ExitCode() int {
	return e.Code
}

func exitErr(code int, kind error, format string, args ...any) *ExitError {
	return &ExitError{Code: code, Err: fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))}
}

// StatusOf returns the exit status represented by err: 0 for nil, the carried code for an [*ExitError], 1 otherwise.
func StatusOf(err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return 1
}
