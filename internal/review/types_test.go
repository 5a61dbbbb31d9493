package review

import (
	"encoding/json"
	"testing"
	"time"
)

func TestClassifySeverity(t *testing.T) {
	tests := []struct {
		severity int
		want     Tier
	}{
		{-1, TierHint},
		{0, TierHint},
		{2, TierHint},
		{3, TierWarning},
		{4, TierWarning},
		{5, TierError},
		{6, TierError},
		{10, TierError},
	}
	for _, tt := range tests {
		if got := ClassifySeverity(tt.severity); got != tt.want {
			t.Errorf("ClassifySeverity(%d) = %q, want %q", tt.severity, got, tt.want)
		}
	}
}

func TestMeetsThreshold(t *testing.T) {
	tests := []struct {
		tier      Tier
		threshold string
		want      bool
	}{
		{TierError, "error", true},
		{TierError, "warning", true},
		{TierError, "hint", true},
		{TierWarning, "error", false},
		{TierWarning, "warning", true},
		{TierHint, "warning", false},
		{TierHint, "hint", true},
		{TierError, "none", false},
		{TierError, "", false},
	}
	for _, tt := range tests {
		got := MeetsThreshold(tt.tier, tt.threshold)
		if got != tt.want {
			t.Errorf("MeetsThreshold(%q, %q) = %v, want %v", tt.tier, tt.threshold, got, tt.want)
		}
	}
}

func TestValidThreshold(t *testing.T) {
	for _, s := range []string{"none", "hint", "warning", "error"} {
		if !ValidThreshold(s) {
			t.Errorf("ValidThreshold(%q) = false", s)
		}
	}
	for _, s := range []string{"", "high", "ERROR"} {
		if ValidThreshold(s) {
			t.Errorf("ValidThreshold(%q) = true", s)
		}
	}
}

func TestSuggestedFix(t *testing.T) {
	if NoFix().Present() {
		t.Error("NoFix should not be present")
	}
	var zero SuggestedFix
	if zero.Present() {
		t.Error("zero value should not be present")
	}
	text, ok := SomeFix("pass").Get()
	if !ok || text != "pass" {
		t.Errorf("Get = %q, %v", text, ok)
	}
	if !SomeFix("").Present() {
		t.Error("an empty fix is still present")
	}
}

func TestSuggestedFix_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		A SuggestedFix `json:"a"`
		B SuggestedFix `json:"b"`
	}{A: SomeFix("x = 1"), B: NoFix()})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"a":"x = 1","b":null}` {
		t.Errorf("marshal = %s", data)
	}

	var got struct {
		A SuggestedFix `json:"a"`
		B SuggestedFix `json:"b"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if text, ok := got.A.Get(); !ok || text != "x = 1" {
		t.Errorf("A = %q, %v", text, ok)
	}
	if got.B.Present() {
		t.Error("B should be absent")
	}
}

func TestDiagnostic_QuickFix(t *testing.T) {
	rng := LineRange(2, 4, 9)
	d := Diagnostic{Range: rng, Fix: SomeFix("x = 1  # noqa")}
	qf, ok := d.QuickFix()
	if !ok {
		t.Fatal("expected quick fix")
	}
	if qf.Label != QuickFixLabel || qf.Range != rng || qf.Text != "x = 1  # noqa" {
		t.Errorf("QuickFix = %+v", qf)
	}

	if _, ok := (Diagnostic{Fix: NoFix()}).QuickFix(); ok {
		t.Error("no fix should give no quick fix")
	}
	if _, ok := (Diagnostic{Fix: SomeFix("")}).QuickFix(); ok {
		t.Error("empty fix should give no quick fix")
	}
}

func TestComputeSummary(t *testing.T) {
	diags := []Diagnostic{
		{Tier: TierHint},
		{Tier: TierWarning, Fix: SomeFix("y")},
		{Tier: TierError, Fix: SomeFix("z")},
		{Tier: TierError},
	}
	s := ComputeSummary(diags)
	if s.Counts.Hint != 1 || s.Counts.Warning != 1 || s.Counts.Error != 2 {
		t.Errorf("Counts = %+v", s.Counts)
	}
	if s.Counts.Total() != 4 {
		t.Errorf("Total = %d, want 4", s.Counts.Total())
	}
	if s.HighestTier != TierError {
		t.Errorf("HighestTier = %q", s.HighestTier)
	}
	if s.Fixable != 2 {
		t.Errorf("Fixable = %d, want 2", s.Fixable)
	}

	empty := ComputeSummary(nil)
	if empty.HighestTier != "" || empty.Counts.Total() != 0 {
		t.Errorf("empty summary = %+v", empty)
	}
}

func TestNewReport(t *testing.T) {
	outcome := Outcome{
		Path:         "/src/app.py",
		Cached:       true,
		AnalyzerTime: 40 * time.Millisecond,
	}
	r := NewReport("1.0.0", "run-1", outcome, 55*time.Millisecond)
	if r.Tool != "lens" || r.Version != "1.0.0" || r.RunID != "run-1" {
		t.Errorf("header = %+v", r)
	}
	if r.File != "/src/app.py" || !r.Cached {
		t.Errorf("File/Cached = %q/%v", r.File, r.Cached)
	}
	if r.Diagnostics == nil {
		t.Error("Diagnostics should be an empty slice, not nil")
	}
	if r.Timing.AnalyzerMs != 40 || r.Timing.TotalMs != 55 {
		t.Errorf("Timing = %+v", r.Timing)
	}
}
