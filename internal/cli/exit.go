package cli

import (
	"errors"
	"fmt"
)

const (
	ExitOK            = 0
	ExitNotRoot       = 1
	ExitMissingInput  = 2
	ExitInputNotFound = 3
	// ExitSetup covers failures after preflight but before or around the
	// batch: bad configuration, sinks that cannot be opened, unreadable input.
	ExitSetup = 4
)

// ExitError carries the process exit code for a fatal error.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps err to a process exit code. Errors without an explicit
// code are setup failures.
func GetExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitSetup
}
