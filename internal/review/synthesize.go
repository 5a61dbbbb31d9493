package review

import "github.com/dshills/lens/internal/analyzer"

// Synthesize converts findings into diagnostics placed on doc. Findings whose
// line is below 1 or past the end of doc are dropped. Order is preserved.
func Synthesize(findings []analyzer.Finding, doc Document) []Diagnostic {
	diags := make([]Diagnostic, 0, len(findings))
	for _, f := range findings {
		if !f.Usable() {
			continue
		}
		line := f.Line - 1
		text, ok := doc.LineText(line)
		if !ok {
			continue
		}
		diags = append(diags, Diagnostic{
			Range:    Resolve(text, line, f.CodeSnippet),
			Message:  f.Message,
			Tier:     ClassifySeverity(f.Severity),
			Severity: f.Severity,
			Fix:      fixFromFinding(f.Fix),
			Rule:     f.Rule,
			Category: f.Category,
			AI:       f.AI,
		})
	}
	return diags
}
