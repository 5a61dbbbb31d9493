package review

import (
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		snippet string
		want    Range
	}{
		{"snippet match", "    x = 1", "x = 1", LineRange(2, 4, 9)},
		{"snippet trimmed", "    x = 1", "   x = 1   ", LineRange(2, 4, 9)},
		{"multi-line snippet uses first line", "    total = a + b", "total = a + b\nreturn total", LineRange(2, 4, 17)},
		{"snippet not found falls back to identifier", "    value = 2", "other()", LineRange(2, 4, 9)},
		{"empty snippet falls back to identifier", "  foo(bar)", "", LineRange(2, 2, 5)},
		{"blank snippet falls back to identifier", "  foo(bar)", "  \n x", LineRange(2, 2, 5)},
		{"identifier with digits and underscore", "123 + _tmp9 * 2", "", LineRange(2, 6, 11)},
		{"no identifier uses whole line", "  ) ]", "", LineRange(2, 0, 5)},
		{"whole line capped at 80", strings.Repeat("-", 120), "", LineRange(2, 0, 80)},
		{"whitespace-only line", "    ", "", LineRange(2, 0, 4)},
		{"empty line", "", "", LineRange(2, 0, 0)},
		{"empty line with snippet", "", "x = 1", LineRange(2, 0, 0)},
		{"non-ASCII prefix counts UTF-16 units", `s = "😀"; x = 1`, "x = 1", LineRange(2, 10, 15)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.line, 2, tt.snippet)
			if got != tt.want {
				t.Errorf("Resolve(%q, 2, %q) = %v, want %v", tt.line, tt.snippet, got, tt.want)
			}
		})
	}
}

func TestResolve_Deterministic(t *testing.T) {
	inputs := []struct {
		line    string
		snippet string
	}{
		{"    x = 1", "x = 1"},
		{"print(y)", "nope"},
		{"   ", ""},
		{"", ""},
	}
	for _, in := range inputs {
		first := Resolve(in.line, 7, in.snippet)
		for i := 0; i < 5; i++ {
			if got := Resolve(in.line, 7, in.snippet); got != first {
				t.Fatalf("Resolve(%q, %q) changed from %v to %v", in.line, in.snippet, first, got)
			}
		}
		if first.Start.Line != 7 || first.End.Line != 7 {
			t.Errorf("range %v should stay on line 7", first)
		}
	}
}

func TestResolve_FirstOccurrence(t *testing.T) {
	got := Resolve("x = x + 1", 0, "x")
	if got != LineRange(0, 0, 1) {
		t.Errorf("Resolve = %v, want first occurrence", got)
	}
}
