package output

import (
	"slices"

	"github.com/dshills/lens/internal/review"
)

// sortedDiagnostics orders diagnostics by tier (most severe first) and then
// by position. The input is not modified.
func sortedDiagnostics(diags []review.Diagnostic) []review.Diagnostic {
	out := slices.Clone(diags)
	slices.SortStableFunc(out, func(a, b review.Diagnostic) int {
		if ra, rb := review.TierRank(a.Tier), review.TierRank(b.Tier); ra != rb {
			return rb - ra
		}
		if a.Range.Start.Before(b.Range.Start) {
			return -1
		}
		if b.Range.Start.Before(a.Range.Start) {
			return 1
		}
		return 0
	})
	return out
}
