package analyzer

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Finding is one raw issue reported by the analyzer.
type Finding struct {
	Line        int       `json:"line"`
	Severity    int       `json:"severity"`
	Message     string    `json:"message"`
	CodeSnippet string    `json:"code_snippet,omitempty"`
	Fix         *string   `json:"fix,omitempty"`
	Rule        string    `json:"rule,omitempty"`
	Category    string    `json:"category,omitempty"`
	AI          *AIReview `json:"ai,omitempty"`
}

// AIReview is the optional model-generated commentary attached to a finding.
type AIReview struct {
	Explanation string  `json:"explanation"`
	Suggestion  string  `json:"suggestion"`
	Confidence  float64 `json:"confidence"`
}

// Usable reports whether the finding references a real source line.
func (f Finding) Usable() bool {
	return f.Line >= 1
}

// ParseFindings decodes the analyzer's output payload. The payload must be a
// JSON array; a JSON null is rejected along with any other shape.
func ParseFindings(data []byte) ([]Finding, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("expected a JSON array of findings")
	}
	var findings []Finding
	if err := json.Unmarshal(trimmed, &findings); err != nil {
		return nil, fmt.Errorf("invalid JSON array: %w", err)
	}
	if findings == nil {
		findings = []Finding{}
	}
	return findings, nil
}
