package iocli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Stdio reads from in and writes to out
type Stdio struct {
	in  *bufio.Reader
	out io.Writer
	fd  int // fd дескриптор ввода для проверки терминала, -1 если ввод не файл
}

// NewStdio returns an IO over os.Stdin and os.Stdout
func NewStdio() IO {
	return NewStream(os.Stdin, os.Stdout)
}

// NewStream returns an IO over arbitrary streams
func NewStream(in io.Reader, out io.Writer) IO {
	fd := -1
	if f, ok := in.(*os.File); ok {
		fd = int(f.Fd())
	}
	return &Stdio{
		in:  bufio.NewReader(in),
		out: out,
		fd:  fd,
	}
}

func (s *Stdio) Println(a ...any) {
	_, _ = fmt.Fprintln(s.out, a...)
}

func (s *Stdio) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(s.out, format, a...)
}

// ReadInput prints prompt and returns the next line without surrounding spaces
func (s *Stdio) ReadInput(prompt string) (string, error) {
	s.Printf("%s", prompt)
	input, err := s.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && input != "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// Confirm asks a yes/no question; anything but y or yes is no
func (s *Stdio) Confirm(prompt string) (bool, error) {
	answer, err := s.ReadInput(prompt + " [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Interactive reports whether input comes from a terminal
func (s *Stdio) Interactive() bool {
	return s.fd >= 0 && term.IsTerminal(s.fd)
}
