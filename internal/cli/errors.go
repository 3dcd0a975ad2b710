package cli

import (
	"errors"
	"fmt"
)

// Exit codes for catalog commands
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // ExitFailure проверка не пройдена: подмена, невалидный файл
	ExitCommandError = 2 // ExitCommandError неверные аргументы, конфигурация или база данных
)

// ExitError carries the process exit code of a failed command
type ExitError struct {
	Err     error
	Message string
	Code    int
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

// NewExitError creates an ExitError without a cause
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps err with an exit code
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the exit code for err, ExitFailure for plain errors
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}
