package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/mikey-austin/raumbridge/pkg/brain"
)

// Process exit codes of bridgectl.
const (
	ExitOK          = 0
	ExitRuntime     = 1
	ExitUsage       = 2
	ExitNotFound    = 4
	ExitUnavailable = 5
)

// replyExits maps bridge reply codes to exit codes. Unlisted codes are
// runtime failures.
var replyExits = map[string]int{
	brain.CodeInvalid:     ExitUsage,
	brain.CodeNotFound:    ExitNotFound,
	brain.CodeUnavailable: ExitUnavailable,
}

// CLIError is an error with the exit code bridgectl should terminate with.
type CLIError struct {
	Code int
	Msg  string
	Err  error
}

func (e *CLIError) Error() string {
	switch {
	case e.Err == nil:
		return e.Msg
	case e.Msg == "":
		return e.Err.Error()
	default:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
}

func (e *CLIError) Unwrap() error { return e.Err }

// WrapError attaches an exit code and context to err.
func WrapError(code int, msg string, err error) *CLIError {
	return &CLIError{Code: code, Msg: msg, Err: err}
}

// ErrorForReplyCode turns a failed bridge reply into a CLIError.
func ErrorForReplyCode(code string, message string) *CLIError {
	exit, ok := replyExits[code]
	if !ok {
		exit = ExitRuntime
	}
	if message == "" {
		message = code
	}
	return &CLIError{Code: exit, Msg: message}
}

// ExitCode picks the exit code for err. A deadline hit while waiting on the
// bridge counts as unavailable.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) && cliErr.Code != ExitRuntime {
		return cliErr.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ExitUnavailable
	}
	if cliErr != nil {
		return cliErr.Code
	}
	return ExitRuntime
}
