package output

import (
	"bytes"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestColorize(t *testing.T) {
	var buf bytes.Buffer
	ansi := NewANSIStyles(&buf)

	tests := []struct {
		name  string
		color string
		want  string
	}{
		{"green", "green", "\x1b[32mtext\x1b[0m"},
		{"red", "red", "\x1b[31mtext\x1b[0m"},
		{"bold", "bold", "\x1b[1mtext\x1b[0m"},
		{"unknown", "mauve", "text"},
		{"empty", "", "text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ansi.Colorize("text", tt.color))
		})
	}
}

func TestPlainStylesEmitNoEscapes(t *testing.T) {
	var buf bytes.Buffer
	plain := NewPlainStyles(&buf)

	for _, name := range ColorNames() {
		assert.Equal(t, "text", plain.Colorize("text", name))
	}
	assert.Equal(t, "oops", plain.Error("oops"))
	assert.Equal(t, "$-5", plain.Amount("$-5", true))
}

func TestAmountColour(t *testing.T) {
	var buf bytes.Buffer
	ansi := NewANSIStyles(&buf)
	assert.Equal(t, "$5", ansi.Amount("$5", false))
	assert.Equal(t, "\x1b[31m$-5\x1b[0m", ansi.Amount("$-5", true))
}
