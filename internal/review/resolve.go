package review

import (
	"regexp"
	"strings"
)

// maxLineSpan caps the whole-line fallback range.
const maxLineSpan = 80

var identifier = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// Resolve picks the span within lineText that a diagnostic should underline.
// line is 0-based and is only copied into the result. In order:
//
//  1. the first line of snippet, trimmed, if it occurs in lineText;
//  2. the first identifier-like token;
//  3. the whole line, capped at 80 characters;
//  4. a zero-width span at column 0 for an empty line.
func Resolve(lineText string, line int, snippet string) Range {
	if hint := snippetHint(snippet); hint != "" {
		if idx := strings.Index(lineText, hint); idx >= 0 {
			start := utf16Len(lineText[:idx])
			return LineRange(line, start, start+utf16Len(hint))
		}
	}
	if loc := identifier.FindStringIndex(lineText); loc != nil {
		start := utf16Len(lineText[:loc[0]])
		return LineRange(line, start, start+loc[1]-loc[0])
	}
	if n := utf16Len(lineText); n > 0 {
		return LineRange(line, 0, min(n, maxLineSpan))
	}
	return LineRange(line, 0, 0)
}

func snippetHint(snippet string) string {
	first, _, _ := strings.Cut(snippet, "\n")
	return strings.TrimSpace(first)
}
