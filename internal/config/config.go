// Package config loads codemend configuration with a defined precedence:
// CLI flags > environment variables > repo config > user config > defaults.
//
// Paths:
//   - Repo: .codemend.toml (relative to the scanned root)
//   - User: XDG config dir, e.g. ~/.config/codemend/config.toml (see os.UserConfigDir)
//
// Environment variables (override config files when set):
//   - CODEMEND_OLLAMA_BASE_URL, CODEMEND_MODEL, CODEMEND_MIN_CONFIDENCE,
//   - CODEMEND_MAX_CONCURRENCY, CODEMEND_REGISTRY_TTL (Go duration string),
//   - CODEMEND_SKIP_ANALYZERS (comma-separated analyzer names),
//   - CODEMEND_CATEGORIES (comma-separated enrichment categories).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// RepoConfigName is the per-project config file looked up at the scan root.
const RepoConfigName = ".codemend.toml"

// ValidationCommand is one external check run after fixes are applied.
type ValidationCommand struct {
	Name    string   `toml:"name"`
	Command []string `toml:"command"`
	Dir     string   `toml:"dir"`
	Timeout string   `toml:"timeout"` // Go duration string, empty = package default
}

// Config holds all codemend settings. Zero values mean "use default behavior".
type Config struct {
	OllamaBaseURL  string              `toml:"ollama_base_url"`
	Model          string              `toml:"model"`
	MinConfidence  float64             `toml:"min_confidence"`
	MaxConcurrency int                 `toml:"max_concurrency"`
	RegistryTTL    time.Duration       `toml:"registry_ttl"`
	SkipAnalyzers  []string            `toml:"skip_analyzers"`
	Categories     []string            `toml:"categories"` // enrichment allow-set
	Validate       []ValidationCommand `toml:"validate"`
}

// Overrides represents optional CLI flag overrides. A non-nil pointer means
// "override with this value".
type Overrides struct {
	OllamaBaseURL  *string
	Model          *string
	MinConfidence  *float64
	MaxConcurrency *int
	SkipAnalyzers  *[]string
}

// LoadOptions configures Load. All fields are optional.
type LoadOptions struct {
	// RepoRoot is the scan root; if set, repo config is RepoRoot/.codemend.toml.
	RepoRoot string
	// UserConfigPath overrides the XDG user config path (tests).
	UserConfigPath string
	// Env is the environment key=value slice; if nil, os.Environ() is used.
	Env []string
	// Overrides are applied last.
	Overrides *Overrides
}

const (
	defaultOllamaBaseURL  = "http://localhost:11434"
	defaultModel          = "qwen2.5-coder:7b"
	defaultMinConfidence  = 0.8
	defaultMaxConcurrency = 3
	defaultRegistryTTL    = 15 * time.Minute
)

// Default returns the built-in configuration (no I/O).
func Default() Config {
	return Config{
		OllamaBaseURL:  defaultOllamaBaseURL,
		Model:          defaultModel,
		MinConfidence:  defaultMinConfidence,
		MaxConcurrency: defaultMaxConcurrency,
		RegistryTTL:    defaultRegistryTTL,
		Categories:     []string{"hallucination", "deprecated", "quality"},
	}
}

// Load resolves configuration with precedence:
// defaults < user file < repo file < env < overrides.
// Missing config files are skipped; invalid TOML or env values are errors.
func Load(opts LoadOptions) (*Config, error) {
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	cfg := Default()

	userPath := opts.UserConfigPath
	if userPath == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			userPath = filepath.Join(dir, "codemend", "config.toml")
		}
	}
	if userPath != "" {
		if err := mergeFile(&cfg, userPath); err != nil {
			return nil, err
		}
	}

	if opts.RepoRoot != "" {
		if err := mergeFile(&cfg, filepath.Join(opts.RepoRoot, RepoConfigName)); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(&cfg, opts.Env); err != nil {
		return nil, err
	}

	applyOverrides(&cfg, opts.Overrides)
	return &cfg, nil
}

// mergeFile merges one TOML file into cfg. Only fields present in the file
// overwrite earlier layers. A missing file is not an error.
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var file struct {
		OllamaBaseURL  *string             `toml:"ollama_base_url"`
		Model          *string             `toml:"model"`
		MinConfidence  *float64            `toml:"min_confidence"`
		MaxConcurrency *int64              `toml:"max_concurrency"`
		RegistryTTL    *string             `toml:"registry_ttl"`
		SkipAnalyzers  *[]string           `toml:"skip_analyzers"`
		Categories     *[]string           `toml:"categories"`
		Validate       []ValidationCommand `toml:"validate"`
	}
	if _, err := toml.Decode(string(data), &file); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if file.OllamaBaseURL != nil && *file.OllamaBaseURL != "" {
		cfg.OllamaBaseURL = *file.OllamaBaseURL
	}
	if file.Model != nil && *file.Model != "" {
		cfg.Model = *file.Model
	}
	if file.MinConfidence != nil {
		if *file.MinConfidence < 0 || *file.MinConfidence > 1 {
			return fmt.Errorf("config %s: min_confidence must be between 0 and 1", path)
		}
		cfg.MinConfidence = *file.MinConfidence
	}
	if file.MaxConcurrency != nil && *file.MaxConcurrency > 0 {
		cfg.MaxConcurrency = int(*file.MaxConcurrency)
	}
	if file.RegistryTTL != nil && *file.RegistryTTL != "" {
		d, err := time.ParseDuration(*file.RegistryTTL)
		if err != nil {
			return fmt.Errorf("config %s: invalid registry_ttl: %w", path, err)
		}
		cfg.RegistryTTL = d
	}
	if file.SkipAnalyzers != nil {
		cfg.SkipAnalyzers = *file.SkipAnalyzers
	}
	if file.Categories != nil {
		cfg.Categories = *file.Categories
	}
	if len(file.Validate) > 0 {
		cfg.Validate = file.Validate
	}
	return nil
}

// env key names
const (
	envOllamaBaseURL  = "CODEMEND_OLLAMA_BASE_URL"
	envModel          = "CODEMEND_MODEL"
	envMinConfidence  = "CODEMEND_MIN_CONFIDENCE"
	envMaxConcurrency = "CODEMEND_MAX_CONCURRENCY"
	envRegistryTTL    = "CODEMEND_REGISTRY_TTL"
	envSkipAnalyzers  = "CODEMEND_SKIP_ANALYZERS"
	envCategories     = "CODEMEND_CATEGORIES"
)

func applyEnv(cfg *Config, env []string) error {
	vals := make(map[string]string)
	for _, e := range env {
		idx := strings.Index(e, "=")
		if idx <= 0 {
			continue
		}
		vals[strings.TrimSpace(e[:idx])] = strings.TrimSpace(e[idx+1:])
	}

	if v := vals[envOllamaBaseURL]; v != "" {
		cfg.OllamaBaseURL = v
	}
	if v := vals[envModel]; v != "" {
		cfg.Model = v
	}
	if v := vals[envMinConfidence]; v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			return fmt.Errorf("%s must be a number between 0 and 1", envMinConfidence)
		}
		cfg.MinConfidence = f
	}
	if v := vals[envMaxConcurrency]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s must be a positive integer", envMaxConcurrency)
		}
		cfg.MaxConcurrency = n
	}
	if v := vals[envRegistryTTL]; v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s must be a valid duration: %w", envRegistryTTL, err)
		}
		cfg.RegistryTTL = d
	}
	if v := vals[envSkipAnalyzers]; v != "" {
		cfg.SkipAnalyzers = splitList(v)
	}
	if v := vals[envCategories]; v != "" {
		cfg.Categories = splitList(v)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func applyOverrides(cfg *Config, o *Overrides) {
	if o == nil {
		return
	}
	if o.OllamaBaseURL != nil && *o.OllamaBaseURL != "" {
		cfg.OllamaBaseURL = *o.OllamaBaseURL
	}
	if o.Model != nil && *o.Model != "" {
		cfg.Model = *o.Model
	}
	if o.MinConfidence != nil {
		cfg.MinConfidence = *o.MinConfidence
	}
	if o.MaxConcurrency != nil && *o.MaxConcurrency > 0 {
		cfg.MaxConcurrency = *o.MaxConcurrency
	}
	if o.SkipAnalyzers != nil {
		cfg.SkipAnalyzers = *o.SkipAnalyzers
	}
}

// ValidationTimeout parses a ValidationCommand's timeout, falling back to
// zero (caller default) when unset.
func (v ValidationCommand) ValidationTimeout() (time.Duration, error) {
	if v.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v.Timeout)
	if err != nil {
		return 0, fmt.Errorf("validate %q: invalid timeout: %w", v.Name, err)
	}
	return d, nil
}
