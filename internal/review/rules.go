package review

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
)

// Rules represents a rules pack loaded from --rules.
type Rules struct {
	// SeverityOverrides maps a rule ID or category to the tier its
	// diagnostics should be shown with. Rule IDs take precedence.
	SeverityOverrides map[string]Tier `json:"severityOverrides,omitempty"`
	// Disabled lists rule IDs or categories whose diagnostics are hidden.
	Disabled []string `json:"disabled,omitempty"`
}

// LoadRules loads a rules file from disk. Returns nil Rules and nil error if path is empty.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	var rules Rules
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}
	for key, tier := range rules.SeverityOverrides {
		if TierRank(tier) == 0 {
			return nil, fmt.Errorf("rules file: invalid tier %q for %s", tier, key)
		}
	}
	return &rules, nil
}

// Apply filters disabled diagnostics and enforces tier overrides. It returns
// a new slice and leaves diags untouched.
func (r *Rules) Apply(diags []Diagnostic) []Diagnostic {
	if r == nil || (len(r.SeverityOverrides) == 0 && len(r.Disabled) == 0) {
		return diags
	}
	out := make([]Diagnostic, 0, len(diags))
	for _, d := range diags {
		if r.disabled(d) {
			continue
		}
		if tier, ok := r.override(d); ok {
			d.Tier = tier
		}
		out = append(out, d)
	}
	return out
}

func (r *Rules) disabled(d Diagnostic) bool {
	return (d.Rule != "" && slices.Contains(r.Disabled, d.Rule)) ||
		(d.Category != "" && slices.Contains(r.Disabled, d.Category))
}

func (r *Rules) override(d Diagnostic) (Tier, bool) {
	if d.Rule != "" {
		if tier, ok := r.SeverityOverrides[d.Rule]; ok {
			return tier, true
		}
	}
	if d.Category != "" {
		if tier, ok := r.SeverityOverrides[d.Category]; ok {
			return tier, true
		}
	}
	return "", false
}
