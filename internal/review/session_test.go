package review

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/lens/internal/analyzer"
	"github.com/dshills/lens/internal/cache"
	"github.com/dshills/lens/internal/guard"
)

// fakeAnalyzer answers Invoke from a queue of results and counts calls.
type fakeAnalyzer struct {
	mu      sync.Mutex
	results []analyzer.Result
	calls   int
	gate    chan struct{}
}

func (f *fakeAnalyzer) Invoke(_ context.Context, path string) <-chan analyzer.Result {
	f.mu.Lock()
	f.calls++
	var res analyzer.Result
	if len(f.results) > 0 {
		res = f.results[0]
		if len(f.results) > 1 {
			f.results = f.results[1:]
		}
	}
	gate := f.gate
	f.mu.Unlock()

	res.Path = path
	out := make(chan analyzer.Result, 1)
	go func() {
		if gate != nil {
			<-gate
		}
		out <- res
		close(out)
	}()
	return out
}

func (f *fakeAnalyzer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeStat struct {
	mu       sync.Mutex
	modTimes map[string]time.Time
	calls    int
}

func (f *fakeStat) stat(path string) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	t, ok := f.modTimes[path]
	if !ok {
		return time.Time{}, os.ErrNotExist
	}
	return t, nil
}

func (f *fakeStat) touch(path string, t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modTimes[path] = t
}

const sampleFile = "/src/app.py"

var sampleDoc = NewTextDocument("import os\n\n    x = 1\nprint(os.name)\n")

func scenarioFindings() []analyzer.Finding {
	return []analyzer.Finding{
		{Line: 3, Severity: 6, Message: "unused var", CodeSnippet: "x = 1", Fix: strPtr("x = 1  # noqa")},
		{Line: 4, Severity: 3, Message: "print call", CodeSnippet: "print"},
	}
}

func newTestSession(t *testing.T, an *fakeAnalyzer, opts ...SessionOption) (*Session, *fakeStat) {
	t.Helper()
	stat := &fakeStat{modTimes: map[string]time.Time{sampleFile: time.Unix(1000, 0)}}
	store, err := cache.New("", cache.WithStat(stat.stat))
	require.NoError(t, err)
	return NewSession(store, an, opts...), stat
}

func recv(t *testing.T, ch <-chan Outcome) Outcome {
	t.Helper()
	select {
	case o := <-ch:
		return o
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for review outcome")
		return Outcome{}
	}
}

func TestSession_RunReview(t *testing.T) {
	an := &fakeAnalyzer{results: []analyzer.Result{{Findings: scenarioFindings(), Duration: 30 * time.Millisecond}}}
	s, _ := newTestSession(t, an)

	out := recv(t, s.RunReview(context.Background(), sampleFile, sampleDoc))
	require.NoError(t, out.Err)
	assert.False(t, out.Cached)
	assert.Equal(t, 30*time.Millisecond, out.AnalyzerTime)
	require.Len(t, out.Diagnostics, 2)

	d := out.Diagnostics[0]
	assert.Equal(t, TierError, d.Tier)
	assert.Equal(t, LineRange(2, 4, 9), d.Range)
	fix, ok := d.Fix.Get()
	assert.True(t, ok)
	assert.Equal(t, "x = 1  # noqa", fix)

	registered, ok := s.Diagnostics(sampleFile)
	require.True(t, ok)
	assert.Equal(t, out.Diagnostics, registered)
}

func TestSession_CacheHit(t *testing.T) {
	an := &fakeAnalyzer{results: []analyzer.Result{{Findings: scenarioFindings()}}}
	s, stat := newTestSession(t, an)

	first := recv(t, s.RunReview(context.Background(), sampleFile, sampleDoc))
	require.NoError(t, first.Err)
	second := recv(t, s.RunReview(context.Background(), sampleFile, sampleDoc))
	require.NoError(t, second.Err)

	assert.Equal(t, 1, an.Calls(), "unchanged mod time must not re-run the analyzer")
	assert.True(t, second.Cached)
	if diff := cmp.Diff(first.Diagnostics, second.Diagnostics, cmp.AllowUnexported(SuggestedFix{})); diff != "" {
		t.Errorf("cached diagnostics differ (-first +second):\n%s", diff)
	}
	assert.Equal(t, 2, stat.calls, "every review stats the file")
}

func TestSession_ModTimeChangeForcesRerun(t *testing.T) {
	an := &fakeAnalyzer{results: []analyzer.Result{{Findings: scenarioFindings()}}}
	s, stat := newTestSession(t, an)

	require.NoError(t, recv(t, s.RunReview(context.Background(), sampleFile, sampleDoc)).Err)
	stat.touch(sampleFile, time.Unix(1000, 1))
	out := recv(t, s.RunReview(context.Background(), sampleFile, sampleDoc))
	require.NoError(t, out.Err)

	assert.False(t, out.Cached)
	assert.Equal(t, 2, an.Calls())
}

func TestSession_OnSaveInvalidatesCacheOnly(t *testing.T) {
	an := &fakeAnalyzer{results: []analyzer.Result{{Findings: scenarioFindings()}}}
	s, _ := newTestSession(t, an)

	first := recv(t, s.RunReview(context.Background(), sampleFile, sampleDoc))
	require.NoError(t, first.Err)

	s.OnSave(sampleFile)

	registered, ok := s.Diagnostics(sampleFile)
	require.True(t, ok, "save must not clear diagnostics")
	assert.Len(t, registered, 2)

	out := recv(t, s.RunReview(context.Background(), sampleFile, sampleDoc))
	require.NoError(t, out.Err)
	assert.False(t, out.Cached)
	assert.Equal(t, 2, an.Calls())
}

func TestSession_FailureLeavesStateUntouched(t *testing.T) {
	failures := []error{
		&analyzer.InvocationError{Path: sampleFile, ExitCode: 1},
		&analyzer.MissingOutputError{OutputPath: "/tools/review.json"},
	}
	for _, failure := range failures {
		t.Run(failure.Error(), func(t *testing.T) {
			an := &fakeAnalyzer{results: []analyzer.Result{
				{Findings: scenarioFindings()},
				{Err: failure},
			}}
			s, stat := newTestSession(t, an)

			first := recv(t, s.RunReview(context.Background(), sampleFile, sampleDoc))
			require.NoError(t, first.Err)

			stat.touch(sampleFile, time.Unix(2000, 0))
			out := recv(t, s.RunReview(context.Background(), sampleFile, sampleDoc))
			require.Error(t, out.Err)
			assert.True(t, analyzer.IsAnalyzerError(out.Err))
			assert.Nil(t, out.Diagnostics)

			registered, _ := s.Diagnostics(sampleFile)
			assert.Equal(t, first.Diagnostics, registered)

			// The old entry is stale and the failed run stored nothing.
			out = recv(t, s.RunReview(context.Background(), sampleFile, sampleDoc))
			assert.False(t, out.Cached)
			assert.Equal(t, 3, an.Calls())
		})
	}
}

func TestSession_FirstRunFailureRegistersNothing(t *testing.T) {
	an := &fakeAnalyzer{results: []analyzer.Result{{Err: &analyzer.MissingOutputError{OutputPath: "x"}}}}
	s, _ := newTestSession(t, an)

	out := recv(t, s.RunReview(context.Background(), sampleFile, sampleDoc))
	require.Error(t, out.Err)
	_, ok := s.Diagnostics(sampleFile)
	assert.False(t, ok)
}

func TestSession_StatFailure(t *testing.T) {
	an := &fakeAnalyzer{}
	s, _ := newTestSession(t, an)

	out := recv(t, s.RunReview(context.Background(), "/src/missing.py", sampleDoc))
	require.Error(t, out.Err)
	assert.True(t, errors.Is(out.Err, os.ErrNotExist))
	assert.Zero(t, an.Calls())
}

func TestSession_NoCache(t *testing.T) {
	an := &fakeAnalyzer{results: []analyzer.Result{{Findings: scenarioFindings()}}}
	s := NewSession(nil, an)

	for i := 0; i < 2; i++ {
		out := recv(t, s.RunReview(context.Background(), sampleFile, sampleDoc))
		require.NoError(t, out.Err)
		assert.False(t, out.Cached)
	}
	assert.Equal(t, 2, an.Calls())
	s.OnSave(sampleFile)
}

func TestSession_RunReviewIsAsynchronous(t *testing.T) {
	an := &fakeAnalyzer{
		results: []analyzer.Result{{Findings: scenarioFindings()}},
		gate:    make(chan struct{}),
	}
	s, _ := newTestSession(t, an)

	ch := s.RunReview(context.Background(), sampleFile, sampleDoc)
	select {
	case <-ch:
		t.Fatal("outcome delivered before the analyzer finished")
	case <-time.After(20 * time.Millisecond):
	}
	close(an.gate)
	require.NoError(t, recv(t, ch).Err)
}

func TestSession_SaveDuringReviewKeepsLateResult(t *testing.T) {
	an := &fakeAnalyzer{
		results: []analyzer.Result{{Findings: scenarioFindings()}},
		gate:    make(chan struct{}),
	}
	s, stat := newTestSession(t, an)

	ch := s.RunReview(context.Background(), sampleFile, sampleDoc)
	s.OnSave(sampleFile)
	stat.touch(sampleFile, time.Unix(1000, 5))
	close(an.gate)

	late := recv(t, ch)
	require.NoError(t, late.Err)
	registered, ok := s.Diagnostics(sampleFile)
	require.True(t, ok, "a run in flight at save time must still be shown")
	assert.Equal(t, late.Diagnostics, registered)

	next := recv(t, s.RunReview(context.Background(), sampleFile, sampleDoc))
	require.NoError(t, next.Err)
	assert.False(t, next.Cached, "the late result is keyed to the pre-save mod time")
	assert.Equal(t, 2, an.Calls())
}

func TestSession_Rules(t *testing.T) {
	findings := []analyzer.Finding{
		{Line: 1, Severity: 1, Message: "a", Rule: "unused-import"},
		{Line: 4, Severity: 6, Message: "b", Rule: "print-call"},
	}
	an := &fakeAnalyzer{results: []analyzer.Result{{Findings: findings}}}
	rules := &Rules{
		SeverityOverrides: map[string]Tier{"unused-import": TierError},
		Disabled:          []string{"print-call"},
	}
	s, _ := newTestSession(t, an, WithRules(rules))

	out := s.Review(context.Background(), sampleFile, sampleDoc)
	require.NoError(t, out.Err)
	require.Len(t, out.Diagnostics, 1)
	assert.Equal(t, TierError, out.Diagnostics[0].Tier)
}

// recordingEditor applies edits to an in-memory string.
type recordingEditor struct {
	content string
	edits   int
	err     error
}

func (e *recordingEditor) Replace(_ context.Context, _ string, rng Range, text string) error {
	if e.err != nil {
		return e.err
	}
	updated, err := ReplaceRange(e.content, rng, text)
	if err != nil {
		return err
	}
	e.content = updated
	e.edits++
	return nil
}

func TestSession_ApplyFix(t *testing.T) {
	an := &fakeAnalyzer{results: []analyzer.Result{{Findings: scenarioFindings()}}}
	s, _ := newTestSession(t, an)
	out := s.Review(context.Background(), sampleFile, sampleDoc)
	require.NoError(t, out.Err)

	editor := &recordingEditor{content: "import os\n\n    x = 1\nprint(os.name)\n"}
	target := out.Diagnostics[0].Range
	remaining, err := s.ApplyFix(context.Background(), sampleFile, target, "pass", editor)
	require.NoError(t, err)

	assert.Equal(t, "import os\n\n    pass\nprint(os.name)\n", editor.content)
	require.Len(t, remaining, 1)
	assert.Equal(t, "print call", remaining[0].Message)

	registered, _ := s.Diagnostics(sampleFile)
	assert.Equal(t, remaining, registered)
}

func TestSession_ApplyFixRejected(t *testing.T) {
	an := &fakeAnalyzer{results: []analyzer.Result{{Findings: scenarioFindings()}}}
	s, _ := newTestSession(t, an)
	out := s.Review(context.Background(), sampleFile, sampleDoc)
	require.NoError(t, out.Err)

	tests := []struct {
		fix    string
		reason string
	}{
		{"", guard.ReasonEmpty},
		{"x = 1\ny = 2", guard.ReasonMultiLine},
		{"import sys", guard.ReasonImport},
	}
	for _, tt := range tests {
		editor := &recordingEditor{content: "x"}
		remaining, err := s.ApplyFix(context.Background(), sampleFile, out.Diagnostics[0].Range, tt.fix, editor)
		var rejErr *guard.RejectedError
		require.ErrorAs(t, err, &rejErr)
		assert.Equal(t, tt.reason, rejErr.Reason)
		assert.Nil(t, remaining)
		assert.Zero(t, editor.edits, "a rejected fix must not edit")
	}

	registered, _ := s.Diagnostics(sampleFile)
	assert.Len(t, registered, 2, "a rejected fix must not prune")
}

func TestSession_ApplyFixEditFailure(t *testing.T) {
	an := &fakeAnalyzer{results: []analyzer.Result{{Findings: scenarioFindings()}}}
	s, _ := newTestSession(t, an)
	out := s.Review(context.Background(), sampleFile, sampleDoc)
	require.NoError(t, out.Err)

	editor := &recordingEditor{err: errors.New("document version changed")}
	_, err := s.ApplyFix(context.Background(), sampleFile, out.Diagnostics[0].Range, "pass", editor)
	require.ErrorIs(t, err, ErrEditFailed)

	registered, _ := s.Diagnostics(sampleFile)
	assert.Len(t, registered, 2, "a failed edit must not prune")
}

func TestSession_ApplyFixCustomGate(t *testing.T) {
	an := &fakeAnalyzer{}
	s, _ := newTestSession(t, an, WithGate(guard.Policy{MaxLength: 3}))
	err := s.ValidateFix("pass")
	assert.True(t, guard.IsRejected(err))
	assert.NoError(t, s.ValidateFix("x=1"))
}

func TestSession_PathsAreCleaned(t *testing.T) {
	an := &fakeAnalyzer{results: []analyzer.Result{{Findings: scenarioFindings()}}}
	s, _ := newTestSession(t, an)

	out := s.Review(context.Background(), "/src/./lib/../app.py", sampleDoc)
	require.NoError(t, out.Err)
	assert.Equal(t, sampleFile, out.Path)
	_, ok := s.Diagnostics(filepath.FromSlash(sampleFile))
	assert.True(t, ok)
	assert.Equal(t, []string{sampleFile}, s.Paths())
}

func TestSession_WithRealAnalyzer(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("requires /bin/sh")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "review.sh")
	body := "#!/bin/sh\necho x >> calls.log\n" +
		`echo '[{"line": 3, "severity": 6, "message": "unused var", "code_snippet": "x = 1", "fix": "x = 1  # noqa"}]' > review.json` + "\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))

	src := filepath.Join(t.TempDir(), "app.py")
	require.NoError(t, os.WriteFile(src, []byte("import os\n\n    x = 1\n"), 0o644))

	inv, err := analyzer.New(analyzer.Config{Path: script})
	require.NoError(t, err)
	store, err := cache.New("")
	require.NoError(t, err)
	s := NewSession(store, inv)

	doc, err := ReadDocument(src)
	require.NoError(t, err)
	out := s.Review(context.Background(), src, doc)
	require.NoError(t, out.Err)
	require.Len(t, out.Diagnostics, 1)
	assert.Equal(t, LineRange(2, 4, 9), out.Diagnostics[0].Range)

	out = s.Review(context.Background(), src, doc)
	require.NoError(t, out.Err)
	assert.True(t, out.Cached)
	assert.Equal(t, int64(1), inv.Invocations())

	remaining, err := s.ApplyFix(context.Background(), src, out.Diagnostics[0].Range, "pass", FileEditor{})
	require.NoError(t, err)
	assert.Empty(t, remaining)
	data, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, "import os\n\n    pass\n", string(data))
}
