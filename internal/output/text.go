package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/dshills/lens/internal/review"
)

// TextWriter outputs a human-readable text report.
type TextWriter struct {
	// Color enables ANSI colors for tier labels.
	Color bool
}

func (t *TextWriter) Write(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}

	counts := report.Summary.Counts
	total := counts.Total()
	ew.printf("Lens Code Review: %s\n", report.File)
	ew.println(strings.Repeat("─", 60))
	ew.printf("Diagnostics: %d total", total)
	if total > 0 {
		ew.printf(" (%d error, %d warning, %d hint; %d fixable)",
			counts.Error, counts.Warning, counts.Hint, report.Summary.Fixable)
	}
	ew.println("")
	ew.println(strings.Repeat("─", 60))

	if total == 0 {
		ew.println("\nNo issues found. Looks good!")
		return ew.err
	}

	for _, d := range sortedDiagnostics(report.Diagnostics) {
		ew.printf("\n  %s:%d:%d  %s  %s\n",
			report.File, d.Range.Start.Line+1, d.Range.Start.Character+1,
			t.label(d.Tier), d.Message)
		if d.Rule != "" || d.Category != "" {
			ew.printf("  Rule: %s", orDash(d.Rule))
			if d.Category != "" {
				ew.printf(" | Category: %s", d.Category)
			}
			ew.println("")
		}
		if d.AI != nil && d.AI.Explanation != "" {
			for _, line := range wrapText(d.AI.Explanation, 70) {
				ew.printf("    %s\n", line)
			}
		}
		if qf, ok := d.QuickFix(); ok {
			ew.printf("  Fix: %s\n", qf.Text)
		}
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	if report.Cached {
		ew.printf("Completed in %dms (cached)\n", report.Timing.TotalMs)
	} else {
		ew.printf("Completed in %dms (analyzer: %dms)\n",
			report.Timing.TotalMs, report.Timing.AnalyzerMs)
	}

	return ew.err
}

func (t *TextWriter) label(tier review.Tier) string {
	var c *color.Color
	switch tier {
	case review.TierError:
		c = color.New(color.FgRed, color.Bold)
	case review.TierWarning:
		c = color.New(color.FgYellow)
	default:
		c = color.New(color.FgCyan)
	}
	if t.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprintf("%s %s", tierIcon(tier), strings.ToUpper(string(tier)))
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func tierIcon(t review.Tier) string {
	switch t {
	case review.TierError:
		return "[!!]"
	case review.TierWarning:
		return "[!]"
	case review.TierHint:
		return "[-]"
	default:
		return "[?]"
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
