package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the lens configuration.
type Config struct {
	Analyzer AnalyzerConfig `json:"analyzer" yaml:"analyzer"`
	Fix      FixConfig      `json:"fix" yaml:"fix"`
	Format   string         `json:"format" yaml:"format"`
	FailOn   string         `json:"failOn" yaml:"failOn"`
	Cache    CacheConfig    `json:"cache" yaml:"cache"`
	Log      LogConfig      `json:"log" yaml:"log"`
	LSP      LSPConfig      `json:"lsp" yaml:"lsp"`
}

// AnalyzerConfig describes the external analyzer.
type AnalyzerConfig struct {
	Path           string `json:"path" yaml:"path"`
	Interpreter    string `json:"interpreter" yaml:"interpreter"`
	OutputName     string `json:"outputName" yaml:"outputName"`
	TimeoutSeconds int    `json:"timeoutSeconds" yaml:"timeoutSeconds"`
}

// Timeout returns the per-run limit, or zero for none.
func (a AnalyzerConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// FixConfig controls the fix safety gate.
type FixConfig struct {
	MaxLength int `json:"maxLength" yaml:"maxLength"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Dir     string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

// LSPConfig controls the language server host.
type LSPConfig struct {
	ReviewOnOpen bool `json:"reviewOnOpen" yaml:"reviewOnOpen"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Analyzer: AnalyzerConfig{
			Path:        "review.py",
			Interpreter: "python",
			OutputName:  "review.json",
		},
		Fix:    FixConfig{MaxLength: 100},
		Format: "text",
		FailOn: "none",
		Cache:  CacheConfig{Enabled: true},
		Log:    LogConfig{Level: "warn"},
	}
}

// ConfigDir returns the platform-appropriate config directory for lens.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "lens"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "lens"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "lens"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "lens"), nil
	default:
		return filepath.Join(home, ".config", "lens"), nil
	}
}

// ConfigPath returns the full path to the config file. A config.yaml in the
// config directory takes precedence over config.json.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	yamlPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath, nil
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadFile decodes the config file on top of base. A missing file leaves base
// unchanged, so keys absent from the file keep their current values.
func LoadFile(base Config) (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	return loadFrom(path, base)
}

func loadFrom(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	cfg := base
	if isYAML(path) {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes the config to the config file, in YAML when the active file is
// config.yaml.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

// SaveTo writes cfg to path, in YAML when path ends in .yaml or .yml.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// A .env file in the working directory is loaded into the environment first.
// The overrides map comes from CLI flags (only non-zero values should be set).
func Load(overrides map[string]string) (Config, error) {
	_ = godotenv.Load()

	cfg, err := LoadFile(Default())
	if err != nil {
		return Config{}, err
	}
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var envKeys = map[string]string{
	"LENS_ANALYZER":         "analyzer.path",
	"LENS_INTERPRETER":      "analyzer.interpreter",
	"LENS_OUTPUT_NAME":      "analyzer.outputName",
	"LENS_ANALYZER_TIMEOUT": "analyzer.timeoutSeconds",
	"LENS_FIX_MAX_LENGTH":   "fix.maxLength",
	"LENS_FORMAT":           "format",
	"LENS_FAIL_ON":          "failOn",
	"LENS_CACHE_DIR":        "cache.dir",
	"LENS_LOG_LEVEL":        "log.level",
}

func mergeEnv(cfg *Config) error {
	for env, key := range envKeys {
		v, ok := os.LookupEnv(env)
		if !ok || v == "" {
			continue
		}
		if err := SetField(cfg, key, v); err != nil {
			return fmt.Errorf("%s: %w", env, err)
		}
	}
	return nil
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	for key, v := range overrides {
		if v == "" {
			continue
		}
		if err := SetField(cfg, key, v); err != nil {
			return err
		}
	}
	return nil
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "analyzer.path", "analyzer":
		cfg.Analyzer.Path = value
	case "analyzer.interpreter", "interpreter":
		cfg.Analyzer.Interpreter = value
	case "analyzer.outputName":
		if filepath.Base(value) != value {
			return fmt.Errorf("analyzer.outputName must be a bare file name: %q", value)
		}
		cfg.Analyzer.OutputName = value
	case "analyzer.timeoutSeconds":
		n, err := nonNegative(key, value)
		if err != nil {
			return err
		}
		cfg.Analyzer.TimeoutSeconds = n
	case "fix.maxLength":
		n, err := nonNegative(key, value)
		if err != nil {
			return err
		}
		if n == 0 {
			return errors.New("fix.maxLength must be positive")
		}
		cfg.Fix.MaxLength = n
	case "format":
		cfg.Format = value
	case "failOn":
		cfg.FailOn = value
	case "cache.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("cache.enabled must be a boolean: %w", err)
		}
		cfg.Cache.Enabled = b
	case "cache.dir":
		cfg.Cache.Dir = value
	case "log.level":
		switch value {
		case "debug", "info", "warn", "error":
		default:
			return fmt.Errorf("log.level must be debug, info, warn or error: %q", value)
		}
		cfg.Log.Level = value
	case "lsp.reviewOnOpen":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("lsp.reviewOnOpen must be a boolean: %w", err)
		}
		cfg.LSP.ReviewOnOpen = b
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func nonNegative(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return n, nil
}
