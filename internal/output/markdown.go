package output

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/dshills/lens/internal/review"
)

// MarkdownWriter outputs a markdown report suitable for a PR comment.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}
	counts := report.Summary.Counts
	total := counts.Total()

	ew.printf("## Lens Code Review: `%s`\n\n", report.File)

	ew.printf("| Tier | Count |\n")
	ew.printf("|------|-------|\n")
	ew.printf("| Error | %d |\n", counts.Error)
	ew.printf("| Warning | %d |\n", counts.Warning)
	ew.printf("| Hint | %d |\n", counts.Hint)
	ew.printf("| **Total** | **%d** |\n\n", total)

	if total == 0 {
		ew.println("No issues found. :white_check_mark:")
		return ew.err
	}

	grouped := groupByTier(report.Diagnostics)
	for _, tier := range []review.Tier{review.TierError, review.TierWarning, review.TierHint} {
		diags := grouped[tier]
		if len(diags) == 0 {
			continue
		}
		ew.printf("<details>\n<summary>%s %s (%d)</summary>\n\n",
			mdTierIcon(tier), strings.ToUpper(string(tier)), len(diags))

		for _, d := range diags {
			ew.printf("### Line %d: %s\n\n", d.Range.Start.Line+1, d.Message)
			if d.Rule != "" {
				ew.printf("Rule `%s`", d.Rule)
				if d.Category != "" {
					ew.printf(" | %s", d.Category)
				}
				ew.printf("\n\n")
			}
			if d.AI != nil && d.AI.Explanation != "" {
				ew.printf("> %s\n\n", strings.ReplaceAll(d.AI.Explanation, "\n", "\n> "))
			}
			if qf, ok := d.QuickFix(); ok {
				ew.printf("**Suggested fix:**\n\n```%s\n%s\n```\n\n", inferLang(report.File), qf.Text)
			}
			ew.printf("---\n\n")
		}
		ew.printf("</details>\n\n")
	}

	if report.Cached {
		ew.printf("*Reviewed in %dms (cached)*\n", report.Timing.TotalMs)
	} else {
		ew.printf("*Reviewed in %dms (analyzer: %dms)*\n", report.Timing.TotalMs, report.Timing.AnalyzerMs)
	}
	return ew.err
}

func groupByTier(diags []review.Diagnostic) map[review.Tier][]review.Diagnostic {
	m := make(map[review.Tier][]review.Diagnostic)
	for _, d := range sortedDiagnostics(diags) {
		m[d.Tier] = append(m[d.Tier], d)
	}
	return m
}

func mdTierIcon(t review.Tier) string {
	switch t {
	case review.TierError:
		return ":red_circle:"
	case review.TierWarning:
		return ":orange_circle:"
	case review.TierHint:
		return ":yellow_circle:"
	default:
		return ":white_circle:"
	}
}

var langMap = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".tsx":  "tsx",
	".jsx":  "jsx",
	".rs":   "rust",
	".java": "java",
	".rb":   "ruby",
	".cpp":  "cpp",
	".c":    "c",
	".cs":   "csharp",
	".php":  "php",
	".sh":   "bash",
	".sql":  "sql",
}

func inferLang(path string) string {
	return langMap[strings.ToLower(filepath.Ext(path))]
}
