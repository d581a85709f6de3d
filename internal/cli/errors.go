package cli

import (
	"errors"
	"fmt"
)

// ExitError is returned by a command that has already reported its failure
// and only needs the process to exit with Code.
//
// Commands never call os.Exit themselves; [Execute] does, after
// [RunWithConfig] has turned the error into an [ExecuteResult]. Tests assert
// on the code instead.
type ExitError struct {
	// Code is the process exit code. 1 is a general failure.
	Code int

	// Err is the underlying failure, if any.
	Err error
}

// Error returns "exit status N", matching os/exec.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("exit status %d: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an [ExitError] with the given exit code.
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

// exitWith creates an [ExitError] with code 1 that keeps err for callers
// using errors.Is.
func exitWith(err error) *ExitError {
	return &ExitError{Code: 1, Err: err}
}

// IsExitError reports whether err is, or wraps, an [ExitError] and returns
// its code.
func IsExitError(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
