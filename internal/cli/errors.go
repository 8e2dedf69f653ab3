package cli

import (
	"errors"
	"fmt"
)

// Exit codes.
const (
	ExitCodeFailure  = 1
	ExitCodeUsage    = 2
	ExitCodeConfig   = 3
	ExitCodeNotFound = 4
	ExitCodeBackend  = 5
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Err     error
	Printed bool
}

func (e *ExitError) Error() string {
	if e == nil || e.Err == nil {
		return "exit"
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Exitf builds an ExitError from a format string.
func Exitf(code int, format string, args ...any) error {
	return &ExitError{Code: code, Err: fmt.Errorf(format, args...)}
}

// PreflightError is a failure the user can fix before retrying.
type PreflightError struct {
	Message  string
	Hint     string
	NextStep string
}

func (e *PreflightError) Error() string {
	msg := e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	if e.NextStep != "" {
		msg += "\n  try: " + e.NextStep
	}
	return msg
}

// ExitCode maps any command error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var preflight *PreflightError
	if errors.As(err, &preflight) {
		return ExitCodeUsage
	}
	return ExitCodeFailure
}
