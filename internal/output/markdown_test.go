package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestMarkdownWriter_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownWriter{}).Write(&buf, emptyReport()); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "## Lens Code Review") {
		t.Error("Missing heading")
	}
	if !strings.Contains(out, "No issues found") {
		t.Error("Missing 'No issues found' message")
	}
}

func TestMarkdownWriter_WithDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownWriter{}).Write(&buf, sampleReport()); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"| Error | 1 |",
		"| **Total** | **3** |",
		"<summary>:red_circle: ERROR (1)</summary>",
		"### Line 3: unused var",
		"Rule `unused-variable` | unused",
		"> x is assigned but never read",
		"```python\nx = 1  # noqa\n```",
		"analyzer: 120ms",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	if strings.Count(out, "<details>") != 3 {
		t.Errorf("expected one section per tier")
	}
}

func TestInferLang(t *testing.T) {
	tests := map[string]string{
		"a.py":     "python",
		"b.GO":     "go",
		"c.txt":    "",
		"noext":    "",
		"dir/x.ts": "typescript",
	}
	for path, want := range tests {
		if got := inferLang(path); got != want {
			t.Errorf("inferLang(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestGetWriter(t *testing.T) {
	for _, format := range []string{"text", "json", "sarif", "markdown"} {
		if _, err := GetWriter(format); err != nil {
			t.Errorf("GetWriter(%q) error: %v", format, err)
		}
	}
	if _, err := GetWriter("xml"); err == nil {
		t.Error("Expected error for unsupported format")
	}
}
