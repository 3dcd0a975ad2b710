package iocli

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Проверяем что NewStdio возвращает валидный объект
func TestNewStdio(t *testing.T) {
	assert.NotNil(t, NewStdio())
}

func TestPrintlnAndPrintf(t *testing.T) {
	var out bytes.Buffer
	stdio := NewStream(strings.NewReader(""), &out)

	stdio.Println("hello", "world")
	stdio.Printf("test %d %s", 1, "abc")

	assert.Equal(t, "hello world\ntest 1 abc", out.String())
}

func TestReadInput(t *testing.T) {
	var out bytes.Buffer
	stdio := NewStream(strings.NewReader("  user input  \nsecond\nlast"), &out)

	got, err := stdio.ReadInput("Prompt: ")
	require.NoError(t, err)
	assert.Equal(t, "user input", got)
	assert.Equal(t, "Prompt: ", out.String())

	got, err = stdio.ReadInput("")
	require.NoError(t, err)
	assert.Equal(t, "second", got)

	// последняя строка без перевода строки
	got, err = stdio.ReadInput("")
	require.NoError(t, err)
	assert.Equal(t, "last", got)

	_, err = stdio.ReadInput("")
	assert.ErrorIs(t, err, io.EOF)
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{input: "y\n", expected: true},
		{input: "YES\n", expected: true},
		{input: "n\n", expected: false},
		{input: "\n", expected: false},
		{input: "sure\n", expected: false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			got, err := NewStream(strings.NewReader(tt.input), &out).Confirm("Replace?")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, "Replace? [y/N]: ", out.String())
		})
	}
}

func TestInteractive(t *testing.T) {
	assert.False(t, NewStream(strings.NewReader(""), io.Discard).Interactive())

	// pipe не является терминалом
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer func() { _ = r.Close(); _ = w.Close() }()
	assert.False(t, NewStream(r, io.Discard).Interactive())
}
