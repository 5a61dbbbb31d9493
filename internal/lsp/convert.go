package lsp

import (
	"encoding/json"
	"errors"
	"fmt"

	"fortio.org/safecast"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/dshills/lens/internal/review"
)

const diagnosticSource = "lens"

func toProtocolPosition(p review.Position) (protocol.Position, error) {
	line, err := safecast.Conv[uint32](p.Line)
	if err != nil {
		return protocol.Position{}, fmt.Errorf("line %d: %w", p.Line, err)
	}
	char, err := safecast.Conv[uint32](p.Character)
	if err != nil {
		return protocol.Position{}, fmt.Errorf("character %d: %w", p.Character, err)
	}
	return protocol.Position{Line: line, Character: char}, nil
}

func toProtocolRange(r review.Range) (protocol.Range, error) {
	start, err := toProtocolPosition(r.Start)
	if err != nil {
		return protocol.Range{}, err
	}
	end, err := toProtocolPosition(r.End)
	if err != nil {
		return protocol.Range{}, err
	}
	return protocol.Range{Start: start, End: end}, nil
}

func fromProtocolRange(r protocol.Range) review.Range {
	return review.Range{
		Start: review.Position{Line: int(r.Start.Line), Character: int(r.Start.Character)},
		End:   review.Position{Line: int(r.End.Line), Character: int(r.End.Character)},
	}
}

func toProtocolSeverity(t review.Tier) protocol.DiagnosticSeverity {
	switch t {
	case review.TierError:
		return protocol.DiagnosticSeverityError
	case review.TierWarning:
		return protocol.DiagnosticSeverityWarning
	default:
		return protocol.DiagnosticSeverityHint
	}
}

func toProtocolDiagnostic(d review.Diagnostic) (protocol.Diagnostic, error) {
	rng, err := toProtocolRange(d.Range)
	if err != nil {
		return protocol.Diagnostic{}, err
	}
	diag := protocol.Diagnostic{
		Range:    rng,
		Severity: toProtocolSeverity(d.Tier),
		Source:   diagnosticSource,
		Message:  d.Message,
	}
	if d.Rule != "" {
		diag.Code = d.Rule
	}
	return diag, nil
}

// toProtocolDiagnostics converts diags, skipping any whose range cannot be
// represented. The result is never nil so that publishing it clears the
// client's list.
func toProtocolDiagnostics(diags []review.Diagnostic) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		pd, err := toProtocolDiagnostic(d)
		if err != nil {
			continue
		}
		out = append(out, pd)
	}
	return out
}

func filenameOf(u protocol.DocumentURI) (string, error) {
	if u == "" {
		return "", errors.New("missing document URI")
	}
	return uri.URI(u).Filename(), nil
}

// fixArgs are the arguments of the applyFix command: [uri, range, fix].
type fixArgs struct {
	URI   protocol.DocumentURI
	Range protocol.Range
	Fix   string
}

func parseURIArg(args []interface{}) (protocol.DocumentURI, error) {
	if len(args) < 1 {
		return "", errors.New("expected a document URI argument")
	}
	var u protocol.DocumentURI
	switch v := args[0].(type) {
	case string:
		u = protocol.DocumentURI(v)
	case protocol.DocumentURI:
		u = v
	default:
		return "", fmt.Errorf("document URI must be a string, got %T", args[0])
	}
	if u == "" {
		return "", errors.New("empty document URI")
	}
	return u, nil
}

func parseFixArgs(args []interface{}) (fixArgs, error) {
	if len(args) != 3 {
		return fixArgs{}, fmt.Errorf("expected [uri, range, fix], got %d arguments", len(args))
	}
	u, err := parseURIArg(args)
	if err != nil {
		return fixArgs{}, err
	}
	var rng protocol.Range
	if err := decodeArg(args[1], &rng); err != nil {
		return fixArgs{}, fmt.Errorf("decoding range: %w", err)
	}
	var fix string
	if args[2] != nil {
		s, ok := args[2].(string)
		if !ok {
			return fixArgs{}, fmt.Errorf("fix must be a string, got %T", args[2])
		}
		fix = s
	}
	return fixArgs{URI: u, Range: rng, Fix: fix}, nil
}

// decodeArg re-decodes a command argument that arrived as generic JSON.
func decodeArg(arg interface{}, dst interface{}) error {
	data, err := json.Marshal(arg)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
