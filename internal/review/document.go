package review

import (
	"fmt"
	"os"
	"strings"
)

// Document is a line-indexed view of an open file.
type Document interface {
	// LineCount returns the number of lines.
	LineCount() int
	// LineText returns the text of the 0-based line without its terminator,
	// or false when the line does not exist.
	LineText(line int) (string, bool)
}

// TextDocument is an immutable Document backed by a string.
type TextDocument struct {
	lines []string
}

// NewTextDocument splits text into lines. Both "\n" and "\r\n" end a line.
func NewTextDocument(text string) *TextDocument {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return &TextDocument{lines: lines}
}

// ReadDocument loads path from disk.
func ReadDocument(path string) (*TextDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return NewTextDocument(string(data)), nil
}

func (d *TextDocument) LineCount() int {
	return len(d.lines)
}

func (d *TextDocument) LineText(line int) (string, bool) {
	if line < 0 || line >= len(d.lines) {
		return "", false
	}
	return d.lines[line], true
}
