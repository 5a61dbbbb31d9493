package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dshills/lens/internal/analyzer"
	"github.com/dshills/lens/internal/cache"
	"github.com/dshills/lens/internal/config"
	"github.com/dshills/lens/internal/guard"
	"github.com/dshills/lens/internal/review"
)

// overrideKeys maps flag names to the config keys they override.
var overrideKeys = map[string]string{
	"analyzer":    "analyzer.path",
	"interpreter": "analyzer.interpreter",
	"timeout":     "analyzer.timeoutSeconds",
	"format":      "format",
	"fail-on":     "failOn",
	"log-level":   "log.level",
}

// buildOverrides collects the config overrides from the flags the user set
// explicitly. Flags left at their defaults never override file or env values.
func buildOverrides(flags *pflag.FlagSet) map[string]string {
	m := make(map[string]string)
	for name, key := range overrideKeys {
		f := flags.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		m[key] = f.Value.String()
	}
	if f := flags.Lookup("no-cache"); f != nil && f.Changed {
		if off, err := strconv.ParseBool(f.Value.String()); err == nil && off {
			m["cache.enabled"] = "false"
		}
	}
	return m
}

func addAnalyzerFlags(flags *pflag.FlagSet) {
	flags.String("analyzer", "", "Analyzer script or executable")
	flags.String("interpreter", "", "Interpreter used to run the analyzer (e.g. python)")
	flags.Int("timeout", 0, "Analyzer timeout in seconds (0 = none)")
	flags.Bool("no-cache", false, "Always run the analyzer")
}

// newLogger builds the stderr logger for level.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// env is everything a command needs to run reviews.
type env struct {
	cfg     config.Config
	logger  *zap.Logger
	session *review.Session
	invoker *analyzer.Invoker
}

// setup loads the config with the command's flag overrides and builds a
// review session. rulesPath may be empty.
func setup(flags *pflag.FlagSet, rulesPath string) (*env, error) {
	cfg, err := config.Load(buildOverrides(flags))
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	session, invoker, err := newSession(cfg, logger, rulesPath)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, session: session, invoker: invoker}, nil
}

func newSession(cfg config.Config, logger *zap.Logger, rulesPath string) (*review.Session, *analyzer.Invoker, error) {
	invoker, err := analyzer.New(analyzer.Config{
		Path:        cfg.Analyzer.Path,
		Interpreter: cfg.Analyzer.Interpreter,
		OutputName:  cfg.Analyzer.OutputName,
		Timeout:     cfg.Analyzer.Timeout(),
	}, analyzer.WithLogger(logger.Named("analyzer")))
	if err != nil {
		return nil, nil, err
	}

	var store *cache.Store
	if cfg.Cache.Enabled {
		store, err = openStore(cfg)
		if err != nil {
			return nil, nil, err
		}
	}

	rules, err := review.LoadRules(rulesPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading rules: %w", err)
	}

	session := review.NewSession(store, invoker,
		review.WithGate(guard.Policy{MaxLength: cfg.Fix.MaxLength}),
		review.WithRules(rules),
		review.WithLogger(logger.Named("session")),
	)
	return session, invoker, nil
}

func openStore(cfg config.Config) (*cache.Store, error) {
	dir := cfg.Cache.Dir
	if dir == "" {
		d, err := cache.DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	store, err := cache.New(dir)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	return store, nil
}

// fail reports err on stderr and records the matching exit code.
func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	setErrorExit(err)
}

func setErrorExit(err error) {
	switch {
	case guard.IsRejected(err):
		exitCode = ExitFixRejected
	case analyzer.IsAnalyzerError(err):
		exitCode = ExitAnalyzerError
	default:
		exitCode = ExitRuntimeError
	}
}
