package review

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrEditFailed reports that the host could not apply a text edit.
var ErrEditFailed = errors.New("edit was not applied")

// Editor performs a text replacement on behalf of the session. A nil error
// means the edit was applied.
type Editor interface {
	Replace(ctx context.Context, path string, rng Range, text string) error
}

// EditorFunc adapts a function to the Editor interface.
type EditorFunc func(ctx context.Context, path string, rng Range, text string) error

func (f EditorFunc) Replace(ctx context.Context, path string, rng Range, text string) error {
	return f(ctx, path, rng, text)
}

// FileEditor applies edits directly to files on disk.
type FileEditor struct{}

// Replace rewrites path with rng replaced by text. The range must lie within
// the file.
func (FileEditor) Replace(_ context.Context, path string, rng Range, text string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	updated, err := ReplaceRange(string(data), rng, text)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(updated), info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ReplaceRange returns content with rng replaced by text.
func ReplaceRange(content string, rng Range, text string) (string, error) {
	if rng.End.Before(rng.Start) {
		return "", fmt.Errorf("invalid range %s", rng)
	}
	start, err := offsetOf(content, rng.Start)
	if err != nil {
		return "", err
	}
	end, err := offsetOf(content, rng.End)
	if err != nil {
		return "", err
	}
	return content[:start] + text + content[end:], nil
}

// offsetOf converts p to a byte offset in content. The character offset is
// clamped to the end of its line; the line must exist.
func offsetOf(content string, p Position) (int, error) {
	if p.Line < 0 || p.Character < 0 {
		return 0, fmt.Errorf("invalid position %s", p)
	}
	lineStart := 0
	for i := 0; i < p.Line; i++ {
		nl := strings.IndexByte(content[lineStart:], '\n')
		if nl < 0 {
			return 0, fmt.Errorf("position %s is past the end of the file", p)
		}
		lineStart += nl + 1
	}
	line := content[lineStart:]
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = line[:nl]
	}
	line = strings.TrimSuffix(line, "\r")
	return lineStart + byteOffset(line, p.Character), nil
}
