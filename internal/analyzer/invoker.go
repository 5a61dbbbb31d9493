package analyzer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultOutputName is the conventional name of the analyzer's output file.
const DefaultOutputName = "review.json"

// JSONFlag asks the analyzer for structured output.
const JSONFlag = "--json"

const (
	lockRetryDelay = 50 * time.Millisecond
	waitDelay      = 2 * time.Second
)

// Config describes how to launch the analyzer.
type Config struct {
	// Path is the analyzer executable or script. Its directory receives the
	// output file.
	Path string
	// Interpreter, when set, is run with Path as its first argument
	// (for example "python").
	Interpreter string
	// OutputName is the file name the analyzer writes next to Path.
	OutputName string
	// Timeout bounds a single run. Zero means no limit.
	Timeout time.Duration
}

// Result is the outcome of one Invoke call.
type Result struct {
	Path     string
	Findings []Finding
	Duration time.Duration
	// Shared is true when the run was coalesced with another caller's request.
	Shared bool
	Err    error
}

// Invoker launches the analyzer. The zero value is not usable; use New.
type Invoker struct {
	path        string
	interpreter string
	outputPath  string
	timeout     time.Duration
	logger      *zap.Logger

	group       singleflight.Group
	runSem      chan struct{}
	fileLock    *flock.Flock
	invocations *atomic.Int64

	flightsMu sync.Mutex
	flights   map[string]*flight
}

// flight is the context shared by every caller waiting on one coalesced run.
// It is cancelled once the last of them stops waiting.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithLogger sets the logger used for run diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(i *Invoker) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// New creates an Invoker for cfg.
func New(cfg Config, opts ...Option) (*Invoker, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("analyzer path is required")
	}
	path, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("resolving analyzer path: %w", err)
	}
	name := cfg.OutputName
	if name == "" {
		name = DefaultOutputName
	}
	if filepath.Base(name) != name {
		return nil, fmt.Errorf("analyzer output name must be a bare file name: %q", name)
	}
	outputPath := filepath.Join(filepath.Dir(path), name)
	i := &Invoker{
		path:        path,
		interpreter: cfg.Interpreter,
		outputPath:  outputPath,
		timeout:     cfg.Timeout,
		logger:      zap.NewNop(),
		runSem:      make(chan struct{}, 1),
		fileLock:    flock.New(outputPath + ".lock"),
		invocations: atomic.NewInt64(0),
		flights:     make(map[string]*flight),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// OutputPath returns the side-channel file the analyzer writes.
func (i *Invoker) OutputPath() string {
	return i.outputPath
}

// Invocations returns how many analyzer processes have been started.
func (i *Invoker) Invocations() int64 {
	return i.invocations.Load()
}

// Invoke starts an analysis of path and returns a channel that receives
// exactly one Result. A request for a path already being analyzed joins the
// in-flight run instead of starting a new one.
//
// Cancelling ctx only withdraws this caller: it receives ctx's error at once,
// while the shared run continues for any other caller still waiting on it.
// The run is stopped when every waiting caller has withdrawn.
func (i *Invoker) Invoke(ctx context.Context, path string) <-chan Result {
	out := make(chan Result, 1)
	abs, err := filepath.Abs(path)
	if err != nil {
		out <- Result{Path: path, Err: &InvocationError{Path: path, Err: err}}
		close(out)
		return out
	}
	f := i.join(ctx, abs)
	ch := i.group.DoChan(abs, func() (interface{}, error) {
		return i.run(f.ctx, abs)
	})
	go func() {
		defer close(out)
		defer i.leave(abs, f)
		select {
		case r := <-ch:
			res := Result{Path: path, Shared: r.Shared, Err: r.Err}
			if run, ok := r.Val.(*runOutput); ok && run != nil {
				res.Findings = run.findings
				res.Duration = run.duration
			}
			out <- res
		case <-ctx.Done():
			out <- Result{Path: path, Err: &InvocationError{Path: path, Err: ctx.Err()}}
		}
	}()
	return out
}

// join registers a caller for abs and returns the flight its run uses.
func (i *Invoker) join(ctx context.Context, abs string) *flight {
	i.flightsMu.Lock()
	defer i.flightsMu.Unlock()
	f, ok := i.flights[abs]
	if !ok {
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: runCtx, cancel: cancel}
		i.flights[abs] = f
	}
	f.waiters++
	return f
}

// leave drops a caller. The last caller out cancels the flight and makes
// the next request for abs start a fresh run.
func (i *Invoker) leave(abs string, f *flight) {
	i.flightsMu.Lock()
	defer i.flightsMu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if i.flights[abs] == f {
		delete(i.flights, abs)
		i.group.Forget(abs)
	}
}

type runOutput struct {
	findings []Finding
	duration time.Duration
}

func (i *Invoker) run(ctx context.Context, path string) (*runOutput, error) {
	// Runs share one output file, so they go one at a time. Time spent
	// queued here does not count against the timeout.
	select {
	case i.runSem <- struct{}{}:
	case <-ctx.Done():
		return nil, &InvocationError{Path: path, Err: ctx.Err()}
	}
	defer func() { <-i.runSem }()

	locked, err := i.fileLock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		if err == nil {
			err = errors.New("output file is locked by another process")
		}
		return nil, &InvocationError{Path: path, Err: fmt.Errorf("locking analyzer output: %w", err)}
	}
	defer func() {
		if err := i.fileLock.Unlock(); err != nil {
			i.logger.Warn("releasing analyzer output lock", zap.Error(err))
		}
	}()

	// A leftover file from an earlier run must never be mistaken for this
	// run's output.
	if err := os.Remove(i.outputPath); err != nil && !os.IsNotExist(err) {
		return nil, &InvocationError{Path: path, Err: fmt.Errorf("clearing previous output: %w", err)}
	}

	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}
	name, args := i.command(path)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = filepath.Dir(i.path)
	cmd.WaitDelay = waitDelay
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	i.invocations.Inc()
	i.logger.Debug("starting analyzer",
		zap.String("file", path),
		zap.String("command", name),
		zap.Strings("args", args),
	)
	start := time.Now()
	if err := cmd.Run(); err != nil {
		invErr := &InvocationError{
			Path:   path,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			invErr.ExitCode = exitErr.ExitCode()
		}
		i.logger.Error("analyzer failed",
			zap.String("file", path),
			zap.Int("exitCode", invErr.ExitCode),
			zap.String("stderr", invErr.Stderr),
			zap.Error(err),
		)
		return nil, invErr
	}
	elapsed := time.Since(start)

	data, err := os.ReadFile(i.outputPath)
	if err != nil {
		outErr := &MissingOutputError{OutputPath: i.outputPath}
		if !os.IsNotExist(err) {
			outErr.Err = err
		}
		return nil, outErr
	}
	findings, err := ParseFindings(data)
	if err != nil {
		return nil, &MissingOutputError{OutputPath: i.outputPath, Err: err}
	}
	i.logger.Debug("analyzer finished",
		zap.String("file", path),
		zap.Int("findings", len(findings)),
		zap.Duration("elapsed", elapsed),
	)
	return &runOutput{findings: findings, duration: elapsed}, nil
}

func (i *Invoker) command(path string) (string, []string) {
	if i.interpreter != "" {
		return i.interpreter, []string{i.path, path, JSONFlag}
	}
	return i.path, []string{path, JSONFlag}
}
