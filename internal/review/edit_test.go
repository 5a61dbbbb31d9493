package review

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceRange(t *testing.T) {
	tests := []struct {
		name    string
		content string
		rng     Range
		text    string
		want    string
		wantErr bool
	}{
		{"single line", "a\n    x = 1\nb\n", LineRange(1, 4, 9), "pass", "a\n    pass\nb\n", false},
		{"insert", "abc", LineRange(0, 1, 1), "X", "aXbc", false},
		{"clamps past end of line", "abc\ndef", LineRange(0, 1, 50), "Z", "aZ\ndef", false},
		{"last line without newline", "abc\ndef", LineRange(1, 0, 3), "xyz", "abc\nxyz", false},
		{"crlf line", "abc\r\ndef\r\n", LineRange(0, 0, 10), "q", "q\r\ndef\r\n", false},
		{"utf16 columns", "s = \"😀\"; x = 1", LineRange(0, 10, 15), "pass", "s = \"😀\"; pass", false},
		{"multi-line range", "one\ntwo\nthree", Range{Start: Position{0, 1}, End: Position{2, 2}}, "-", "o-ree", false},
		{"line past end", "abc", LineRange(3, 0, 1), "x", "", true},
		{"reversed", "abc", LineRange(0, 2, 1), "x", "", true},
		{"negative", "abc", LineRange(0, -1, 1), "x", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReplaceRange(tt.content, tt.rng, tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileEditor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.py")
	require.NoError(t, os.WriteFile(path, []byte("def f():\n    x = 1\n"), 0o600))

	err := FileEditor{}.Replace(context.Background(), path, LineRange(1, 4, 9), "pass")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "def f():\n    pass\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileEditor_MissingFile(t *testing.T) {
	err := FileEditor{}.Replace(context.Background(), filepath.Join(t.TempDir(), "nope.py"), LineRange(0, 0, 1), "x")
	assert.Error(t, err)
}

func TestDocument(t *testing.T) {
	doc := NewTextDocument("one\r\ntwo\n")
	assert.Equal(t, 3, doc.LineCount())
	line, ok := doc.LineText(0)
	assert.True(t, ok)
	assert.Equal(t, "one", line)
	line, ok = doc.LineText(2)
	assert.True(t, ok)
	assert.Equal(t, "", line)
	_, ok = doc.LineText(3)
	assert.False(t, ok)
	_, ok = doc.LineText(-1)
	assert.False(t, ok)
}

func TestReadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.py")
	require.NoError(t, os.WriteFile(path, []byte("x\ny"), 0o644))
	doc, err := ReadDocument(path)
	require.NoError(t, err)
	line, _ := doc.LineText(1)
	assert.Equal(t, "y", line)

	_, err = ReadDocument(filepath.Join(t.TempDir(), "missing.py"))
	assert.Error(t, err)
}
