// Package iocli wraps terminal input and output for the catalog commands.
package iocli

//go:generate moq -out io_mock.go . IO

// IO is the console used by commands
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	ReadInput(prompt string) (string, error)
	Confirm(prompt string) (bool, error)
	Interactive() bool
}
