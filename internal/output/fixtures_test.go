package output

import (
	"time"

	"github.com/dshills/lens/internal/analyzer"
	"github.com/dshills/lens/internal/review"
)

func sampleReport() *review.Report {
	diags := []review.Diagnostic{
		{
			Range:    review.LineRange(0, 0, 6),
			Message:  "print call left in code",
			Tier:     review.TierHint,
			Severity: 2,
			Fix:      review.NoFix(),
			Rule:     "print-call",
			Category: "style",
		},
		{
			Range:    review.LineRange(2, 4, 9),
			Message:  "unused var",
			Tier:     review.TierError,
			Severity: 6,
			Fix:      review.SomeFix("x = 1  # noqa"),
			Rule:     "unused-variable",
			Category: "unused",
			AI:       &analyzer.AIReview{Explanation: "x is assigned but never read", Confidence: 0.9},
		},
		{
			Range:    review.LineRange(1, 0, 3),
			Message:  "shadowed builtin",
			Tier:     review.TierWarning,
			Severity: 3,
			Fix:      review.NoFix(),
		},
	}
	return review.NewReport("1.0.0", "run-123", review.Outcome{
		Path:         "src/app.py",
		Diagnostics:  diags,
		AnalyzerTime: 120 * time.Millisecond,
	}, 150*time.Millisecond)
}

func emptyReport() *review.Report {
	return review.NewReport("1.0.0", "run-0", review.Outcome{Path: "src/clean.py", Cached: true}, 2*time.Millisecond)
}
