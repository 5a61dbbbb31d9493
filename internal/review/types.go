package review

import (
	"encoding/json"
	"time"

	"github.com/dshills/lens/internal/analyzer"
)

// Tier is the severity tier shown by the editor.
type Tier string

const (
	TierHint    Tier = "hint"
	TierWarning Tier = "warning"
	TierError   Tier = "error"
)

// TierRank returns a numeric rank for sorting (higher = more severe).
func TierRank(t Tier) int {
	switch t {
	case TierError:
		return 3
	case TierWarning:
		return 2
	case TierHint:
		return 1
	default:
		return 0
	}
}

// ClassifySeverity maps the analyzer's numeric severity onto a tier:
// 5 and above is an error, 3 and 4 are warnings, anything lower is a hint.
func ClassifySeverity(severity int) Tier {
	switch {
	case severity >= 5:
		return TierError
	case severity >= 3:
		return TierWarning
	default:
		return TierHint
	}
}

// MeetsThreshold returns true if tier is at or above the threshold.
func MeetsThreshold(t Tier, threshold string) bool {
	if threshold == "none" || threshold == "" {
		return false
	}
	return TierRank(t) >= TierRank(Tier(threshold))
}

// ValidThreshold reports whether s names a tier or "none".
func ValidThreshold(s string) bool {
	return s == "none" || TierRank(Tier(s)) > 0
}

// QuickFixLabel is the title of the action offered for a fixable diagnostic.
const QuickFixLabel = "Code Review: Apply Suggested Fix"

// SuggestedFix is an optional replacement text. The zero value carries no fix.
// Its fields are unexported so an attached fix cannot be altered.
type SuggestedFix struct {
	text    string
	present bool
}

// NoFix returns the absent fix.
func NoFix() SuggestedFix {
	return SuggestedFix{}
}

// SomeFix returns a fix carrying text.
func SomeFix(text string) SuggestedFix {
	return SuggestedFix{text: text, present: true}
}

// Get returns the fix text and whether a fix is present.
func (f SuggestedFix) Get() (string, bool) {
	return f.text, f.present
}

// Present reports whether the analyzer supplied a fix.
func (f SuggestedFix) Present() bool {
	return f.present
}

// MarshalJSON encodes the fix as a string, or null when absent.
func (f SuggestedFix) MarshalJSON() ([]byte, error) {
	if !f.present {
		return []byte("null"), nil
	}
	return json.Marshal(f.text)
}

// UnmarshalJSON decodes a string or null.
func (f *SuggestedFix) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil {
		*f = NoFix()
		return nil
	}
	*f = SomeFix(*s)
	return nil
}

func fixFromFinding(fix *string) SuggestedFix {
	if fix == nil {
		return NoFix()
	}
	return SomeFix(*fix)
}

// Diagnostic is a finding placed on an editor range and classified by tier.
type Diagnostic struct {
	Range    Range              `json:"range"`
	Message  string             `json:"message"`
	Tier     Tier               `json:"tier"`
	Severity int                `json:"severity"`
	Fix      SuggestedFix       `json:"fix"`
	Rule     string             `json:"rule,omitempty"`
	Category string             `json:"category,omitempty"`
	AI       *analyzer.AIReview `json:"ai,omitempty"`
}

// QuickFix is what a host needs to offer a diagnostic's fix to the user.
type QuickFix struct {
	Label string `json:"label"`
	Range Range  `json:"range"`
	Text  string `json:"text"`
}

// QuickFix returns the action for d, or false when d has no usable fix.
func (d Diagnostic) QuickFix() (QuickFix, bool) {
	text, ok := d.Fix.Get()
	if !ok || text == "" {
		return QuickFix{}, false
	}
	return QuickFix{Label: QuickFixLabel, Range: d.Range, Text: text}, true
}

// TierCounts holds counts by tier.
type TierCounts struct {
	Hint    int `json:"hint"`
	Warning int `json:"warning"`
	Error   int `json:"error"`
}

// Summary provides an overview of diagnostics.
type Summary struct {
	Counts      TierCounts `json:"counts"`
	HighestTier Tier       `json:"highestTier"`
	Fixable     int        `json:"fixable"`
}

// Timing contains performance metrics.
type Timing struct {
	AnalyzerMs int64 `json:"analyzerMs"`
	TotalMs    int64 `json:"totalMs"`
}

// Report is the top-level output structure for one reviewed file.
type Report struct {
	Tool        string       `json:"tool"`
	Version     string       `json:"version"`
	RunID       string       `json:"runId"`
	File        string       `json:"file"`
	Cached      bool         `json:"cached"`
	Summary     Summary      `json:"summary"`
	Diagnostics []Diagnostic `json:"diagnostics"`
	Timing      Timing       `json:"timing"`
}

// ComputeSummary calculates the summary from diagnostics.
func ComputeSummary(diags []Diagnostic) Summary {
	var s Summary
	for _, d := range diags {
		switch d.Tier {
		case TierHint:
			s.Counts.Hint++
		case TierWarning:
			s.Counts.Warning++
		case TierError:
			s.Counts.Error++
		}
		if TierRank(d.Tier) > TierRank(s.HighestTier) {
			s.HighestTier = d.Tier
		}
		if _, ok := d.QuickFix(); ok {
			s.Fixable++
		}
	}
	return s
}

// Total returns the number of diagnostics counted.
func (c TierCounts) Total() int {
	return c.Hint + c.Warning + c.Error
}

// NewReport builds a report for a finished review.
func NewReport(version, runID string, outcome Outcome, total time.Duration) *Report {
	diags := outcome.Diagnostics
	if diags == nil {
		diags = []Diagnostic{}
	}
	return &Report{
		Tool:        "lens",
		Version:     version,
		RunID:       runID,
		File:        outcome.Path,
		Cached:      outcome.Cached,
		Summary:     ComputeSummary(diags),
		Diagnostics: diags,
		Timing: Timing{
			AnalyzerMs: outcome.AnalyzerTime.Milliseconds(),
			TotalMs:    total.Milliseconds(),
		},
	}
}
