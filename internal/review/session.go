package review

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/lens/internal/analyzer"
	"github.com/dshills/lens/internal/cache"
	"github.com/dshills/lens/internal/guard"
)

// Analyzer runs the external analysis of one file and delivers exactly one
// result on the returned channel.
type Analyzer interface {
	Invoke(ctx context.Context, path string) <-chan analyzer.Result
}

// Outcome is the result of one RunReview call.
type Outcome struct {
	Path         string
	Diagnostics  []Diagnostic
	Cached       bool
	AnalyzerTime time.Duration
	Err          error
}

// Session owns the state shared by a host's review operations: the findings
// cache, the diagnostics registry, the analyzer and the fix policy.
type Session struct {
	store    *cache.Store
	analyzer Analyzer
	gate     guard.Policy
	rules    *Rules
	registry *Registry
	logger   *zap.Logger

	// mu makes each cache update and registry replacement one step.
	mu sync.Mutex
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithGate sets the fix safety policy.
func WithGate(p guard.Policy) SessionOption {
	return func(s *Session) { s.gate = p }
}

// WithRules applies a rules pack to every synthesized diagnostic set.
func WithRules(r *Rules) SessionOption {
	return func(s *Session) { s.rules = r }
}

// WithLogger sets the session logger.
func WithLogger(logger *zap.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSession creates a Session. A nil store disables caching: every review
// runs the analyzer.
func NewSession(store *cache.Store, a Analyzer, opts ...SessionOption) *Session {
	s := &Session{
		store:    store,
		analyzer: a,
		gate:     guard.Default(),
		registry: NewRegistry(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunReview reviews path, whose open contents are doc, and delivers one
// Outcome on the returned channel. A valid cache entry is used without
// running the analyzer. On success the registry holds the new diagnostics;
// on failure neither the cache nor the registry is touched.
func (s *Session) RunReview(ctx context.Context, path string, doc Document) <-chan Outcome {
	out := make(chan Outcome, 1)
	path = filepath.Clean(path)

	var modTime time.Time
	if s.store != nil {
		lookup, err := s.store.Lookup(path)
		if err != nil {
			out <- Outcome{Path: path, Err: fmt.Errorf("reviewing %s: %w", path, err)}
			close(out)
			return out
		}
		if lookup.Hit {
			s.logger.Debug("review cache hit", zap.String("file", path))
			out <- Outcome{
				Path:        path,
				Diagnostics: s.commit(path, doc, lookup.Findings, time.Time{}, false),
				Cached:      true,
			}
			close(out)
			return out
		}
		modTime = lookup.ModTime
	}

	results := s.analyzer.Invoke(ctx, path)
	go func() {
		defer close(out)
		res := <-results
		if res.Err != nil {
			s.logger.Warn("review failed", zap.String("file", path), zap.Error(res.Err))
			out <- Outcome{Path: path, Err: res.Err}
			return
		}
		out <- Outcome{
			Path:         path,
			Diagnostics:  s.commit(path, doc, res.Findings, modTime, s.store != nil),
			AnalyzerTime: res.Duration,
		}
	}()
	return out
}

// Review is RunReview for callers that want to wait.
func (s *Session) Review(ctx context.Context, path string, doc Document) Outcome {
	return <-s.RunReview(ctx, path, doc)
}

func (s *Session) commit(path string, doc Document, findings []analyzer.Finding, modTime time.Time, store bool) []Diagnostic {
	diags := s.rules.Apply(Synthesize(findings, doc))

	s.mu.Lock()
	defer s.mu.Unlock()
	if store {
		if err := s.store.Put(path, modTime, findings); err != nil {
			s.logger.Warn("persisting cache entry", zap.String("file", path), zap.Error(err))
		}
	}
	s.registry.Set(path, diags)
	s.logger.Debug("diagnostics updated",
		zap.String("file", path),
		zap.Int("findings", len(findings)),
		zap.Int("diagnostics", len(diags)),
	)
	return diags
}

// ValidateFix runs the safety gate alone.
func (s *Session) ValidateFix(fix string) error {
	return s.gate.Validate(fix)
}

// ApplyFix checks fix against the safety gate, has editor replace rng with
// it, and then drops the diagnostics the edit touched. It returns the
// diagnostics that remain for path.
//
// A rejected fix returns a *guard.RejectedError; a failed edit returns an
// error wrapping ErrEditFailed. Neither changes the registry.
func (s *Session) ApplyFix(ctx context.Context, path string, rng Range, fix string, editor Editor) ([]Diagnostic, error) {
	path = filepath.Clean(path)
	if err := s.gate.Validate(fix); err != nil {
		s.logger.Info("fix rejected", zap.String("file", path), zap.Error(err))
		return nil, err
	}
	if err := editor.Replace(ctx, path, rng, fix); err != nil {
		s.logger.Debug("fix edit failed", zap.String("file", path), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrEditFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.ApplyAndPrune(path, rng), nil
}

// OnSave drops the cached findings for path. Shown diagnostics are kept until
// the next review replaces them.
func (s *Session) OnSave(path string) {
	if s.store == nil {
		return
	}
	s.store.Invalidate(filepath.Clean(path))
}

// Diagnostics returns the diagnostics currently shown for path.
func (s *Session) Diagnostics(path string) ([]Diagnostic, bool) {
	return s.registry.Get(filepath.Clean(path))
}

// Paths returns every file with registered diagnostics.
func (s *Session) Paths() []string {
	return s.registry.Paths()
}
