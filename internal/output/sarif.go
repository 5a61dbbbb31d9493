package output

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/dshills/lens/internal/review"
)

// SARIFWriter outputs diagnostics in SARIF v2.1.0 format.
type SARIFWriter struct{}

func (s *SARIFWriter) Write(w io.Writer, report *review.Report) error {
	sarif := buildSARIF(report)
	data, err := json.MarshalIndent(sarif, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling SARIF: %w", err)
	}
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("writing SARIF: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}

// SARIF schema types (v2.1.0)

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string             `json:"id"`
	Name             string             `json:"name,omitempty"`
	ShortDescription sarifMessage       `json:"shortDescription"`
	DefaultConfig    sarifDefaultConfig `json:"defaultConfiguration"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
	Fixes     []sarifFix      `json:"fixes,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

// sarifRegion uses SARIF's 1-based lines and columns; EndColumn is exclusive.
type sarifRegion struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn"`
	EndLine     int `json:"endLine"`
	EndColumn   int `json:"endColumn"`
}

type sarifFix struct {
	Description     sarifMessage          `json:"description"`
	ArtifactChanges []sarifArtifactChange `json:"artifactChanges"`
}

type sarifArtifactChange struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Replacements     []sarifReplacement    `json:"replacements"`
}

type sarifReplacement struct {
	DeletedRegion   sarifRegion  `json:"deletedRegion"`
	InsertedContent sarifMessage `json:"insertedContent"`
}

const defaultRuleID = "lens/finding"

func buildSARIF(report *review.Report) sarifLog {
	uri := filepath.ToSlash(report.File)
	rulesMap := make(map[string]sarifRule)
	var ruleOrder []string
	results := []sarifResult{}

	for _, d := range report.Diagnostics {
		ruleID := d.Rule
		if ruleID == "" {
			ruleID = defaultRuleID
		}
		if _, ok := rulesMap[ruleID]; !ok {
			rulesMap[ruleID] = sarifRule{
				ID:               ruleID,
				Name:             d.Category,
				ShortDescription: sarifMessage{Text: d.Message},
				DefaultConfig:    sarifDefaultConfig{Level: tierToLevel(d.Tier)},
			}
			ruleOrder = append(ruleOrder, ruleID)
		}

		region := toRegion(d.Range)
		result := sarifResult{
			RuleID:  ruleID,
			Level:   tierToLevel(d.Tier),
			Message: sarifMessage{Text: d.Message},
			Locations: []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: uri},
					Region:           region,
				},
			}},
		}
		if qf, ok := d.QuickFix(); ok {
			result.Fixes = append(result.Fixes, sarifFix{
				Description: sarifMessage{Text: qf.Label},
				ArtifactChanges: []sarifArtifactChange{{
					ArtifactLocation: sarifArtifactLocation{URI: uri},
					Replacements: []sarifReplacement{{
						DeletedRegion:   region,
						InsertedContent: sarifMessage{Text: qf.Text},
					}},
				}},
			})
		}
		results = append(results, result)
	}

	rules := make([]sarifRule, 0, len(ruleOrder))
	for _, id := range ruleOrder {
		rules = append(rules, rulesMap[id])
	}

	return sarifLog{
		Version: "2.1.0",
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json",
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:           "lens",
						Version:        report.Version,
						InformationURI: "https://github.com/dshills/lens",
						Rules:          rules,
					},
				},
				Results: results,
			},
		},
	}
}

func toRegion(r review.Range) sarifRegion {
	return sarifRegion{
		StartLine:   r.Start.Line + 1,
		StartColumn: r.Start.Character + 1,
		EndLine:     r.End.Line + 1,
		EndColumn:   r.End.Character + 1,
	}
}

// tierToLevel maps a diagnostic tier to a SARIF level.
func tierToLevel(t review.Tier) string {
	switch t {
	case review.TierError:
		return "error"
	case review.TierWarning:
		return "warning"
	default:
		return "note"
	}
}
