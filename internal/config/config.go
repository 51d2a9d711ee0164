// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/askai-tui/internal/gemini"
	"github.com/jeranaias/askai-tui/internal/session"
	"github.com/jeranaias/askai-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete askai configuration.
type Config struct {
	API        APIConfig        `toml:"api"`
	Generation GenerationConfig `toml:"generation"`
	Retry      RetryConfig      `toml:"retry"`
	Stream     StreamConfig     `toml:"stream"`
	Storage    StorageConfig    `toml:"storage"`
	Log        LogConfig        `toml:"log"`
	UI         UIConfig         `toml:"ui"`
}

// APIConfig holds the Gemini credential and model selection.
type APIConfig struct {
	// Key is the Gemini API key. GEMINI_API_KEY overrides it.
	Key     string `toml:"key"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
	// DictationModel answers dictated prompts and transcribes audio.
	// Empty means Model.
	DictationModel    string `toml:"dictation_model"`
	SystemInstruction string `toml:"system_instruction"`
}

// GenerationConfig mirrors the sampling parameters sent with every request.
type GenerationConfig struct {
	Temperature     float64 `toml:"temperature"`
	TopK            int     `toml:"top_k"`
	TopP            float64 `toml:"top_p"`
	MaxOutputTokens int     `toml:"max_output_tokens"`
}

// RetryConfig controls the backoff executor.
type RetryConfig struct {
	MaxAttempts int `toml:"max_attempts"`
	// RequestsPerMinute paces outbound requests. 0 means unlimited.
	RequestsPerMinute int `toml:"requests_per_minute"`
}

// StreamConfig controls stream supervision.
type StreamConfig struct {
	// IdleTimeoutSecs cancels a stream that delivers nothing for this long.
	// 0 disables the watchdog.
	IdleTimeoutSecs int `toml:"idle_timeout_secs"`
}

// StorageConfig controls the transcript store.
type StorageConfig struct {
	Enabled bool `toml:"enabled"`
	// Path is the SQLite database file (empty = ~/.askai/history.db).
	Path string `toml:"path"`
}

// LogConfig controls the rotating log file.
type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	// Format is "json" or "console".
	Format string `toml:"format"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	// Theme is "auto", "dark" or "light".
	Theme     string `toml:"theme"`
	ShowStats bool   `toml:"show_stats"`
	// Hyperlinks renders Markdown links as OSC-8 terminal hyperlinks.
	Hyperlinks bool `toml:"hyperlinks"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a configuration with default values.
func Default() *Config {
	gen := gemini.DefaultGenerationConfig()
	return &Config{
		API: APIConfig{
			BaseURL:        gemini.DefaultBaseURL,
			Model:          gemini.DefaultModel,
			DictationModel: gemini.DefaultModel,
		},
		Generation: GenerationConfig{
			Temperature:     gen.Temperature,
			TopK:            gen.TopK,
			TopP:            gen.TopP,
			MaxOutputTokens: gen.MaxOutputTokens,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
		},
		Stream: StreamConfig{
			IdleTimeoutSecs: int(session.DefaultIdleTimeout / time.Second),
		},
		Storage: StorageConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Format:     "json",
		},
		UI: UIConfig{
			Theme:      "auto",
			ShowStats:  true,
			Hyperlinks: true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the askai configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".askai"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// StoragePath returns the transcript database path, resolving the default.
func (c *Config) StoragePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// LogPath returns the log file path, resolving the default.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs", "askai.log"), nil
}

// HistoryFile returns the liner input history path used by the chat REPL.
func HistoryFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "repl_history"), nil
}

// ensureSecurePermissions tightens a config file to 0600 since it can hold
// the API key.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads ~/.askai/config.toml if it exists, then applies environment
// overrides and validates. A missing file yields the defaults.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file.
func LoadFromPath(path string) (*Config, error) {
	if err := ensureSecurePermissions(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		fmt.Fprintf(os.Stderr, "Warning: unknown config keys in %s: %s\n", path, strings.Join(keys, ", "))
	}

	fillDefaults(cfg)
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults restores defaults for values a file set to their zero value
// where zero is not meaningful.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = defaults.API.BaseURL
	}
	if cfg.API.Model == "" {
		cfg.API.Model = defaults.API.Model
	}
	if cfg.API.DictationModel == "" {
		cfg.API.DictationModel = cfg.API.Model
	}
	if cfg.Generation.MaxOutputTokens == 0 {
		cfg.Generation.MaxOutputTokens = defaults.Generation.MaxOutputTokens
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = defaults.Retry.MaxAttempts
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaults.Log.Format
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
//   - GEMINI_API_KEY / ASKAI_API_KEY: api.key (ASKAI_API_KEY wins)
//   - ASKAI_MODEL: api.model
//   - ASKAI_DICTATION_MODEL: api.dictation_model
//   - ASKAI_SYSTEM_INSTRUCTION: api.system_instruction
//   - ASKAI_BASE_URL: api.base_url
//   - ASKAI_LOG_LEVEL: log.level
//   - ASKAI_IDLE_TIMEOUT: stream.idle_timeout_secs
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.API.Key = key
	}
	if key := os.Getenv("ASKAI_API_KEY"); key != "" {
		c.API.Key = key
	}
	if model := os.Getenv("ASKAI_MODEL"); model != "" {
		c.API.Model = model
	}
	if model := os.Getenv("ASKAI_DICTATION_MODEL"); model != "" {
		c.API.DictationModel = model
	}
	if instruction := os.Getenv("ASKAI_SYSTEM_INSTRUCTION"); instruction != "" {
		c.API.SystemInstruction = instruction
	}
	if base := os.Getenv("ASKAI_BASE_URL"); base != "" {
		c.API.BaseURL = base
	}
	if level := os.Getenv("ASKAI_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if idle := os.Getenv("ASKAI_IDLE_TIMEOUT"); idle != "" {
		if secs, err := strconv.Atoi(idle); err == nil {
			c.Stream.IdleTimeoutSecs = secs
		}
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration to ~/.askai/config.toml.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to path with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# askai configuration file\n")
	buf.WriteString("# The API key may also come from GEMINI_API_KEY.\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, buf.Bytes(), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks ranges and enumerations. A missing API key is not an
// error here; the session reports it on the first submission.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		errs = append(errs, ValidationError{
			Field:   "api.base_url",
			Message: fmt.Sprintf("invalid URL '%s', must start with http:// or https://", c.API.BaseURL),
		})
	}
	if strings.TrimSpace(c.API.Model) == "" {
		errs = append(errs, ValidationError{Field: "api.model", Message: "model cannot be empty"})
	}

	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		errs = append(errs, ValidationError{
			Field:   "generation.temperature",
			Message: fmt.Sprintf("%.2f out of range [0, 2]", c.Generation.Temperature),
		})
	}
	if c.Generation.TopK < 0 {
		errs = append(errs, ValidationError{Field: "generation.top_k", Message: "cannot be negative"})
	}
	if c.Generation.TopP < 0 || c.Generation.TopP > 1 {
		errs = append(errs, ValidationError{
			Field:   "generation.top_p",
			Message: fmt.Sprintf("%.2f out of range [0, 1]", c.Generation.TopP),
		})
	}
	if c.Generation.MaxOutputTokens < 1 {
		errs = append(errs, ValidationError{Field: "generation.max_output_tokens", Message: "must be at least 1"})
	}

	if c.Retry.MaxAttempts < 1 || c.Retry.MaxAttempts > 10 {
		errs = append(errs, ValidationError{
			Field:   "retry.max_attempts",
			Message: fmt.Sprintf("%d out of range [1, 10]", c.Retry.MaxAttempts),
		})
	}
	if c.Retry.RequestsPerMinute < 0 {
		errs = append(errs, ValidationError{Field: "retry.requests_per_minute", Message: "cannot be negative"})
	}
	if c.Stream.IdleTimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "stream.idle_timeout_secs", Message: "cannot be negative"})
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, ValidationError{
			Field:   "log.format",
			Message: fmt.Sprintf("invalid format '%s', must be one of: json, console", c.Log.Format),
		})
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		errs = append(errs, ValidationError{Field: "log", Message: "rotation limits cannot be negative"})
	}

	switch c.UI.Theme {
	case "auto", "dark", "light":
	default:
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// CONVERSIONS
// =============================================================================

// SessionConfig returns the settings a chat session needs.
func (c *Config) SessionConfig() session.Config {
	return session.Config{
		APIKey:            c.API.Key,
		Model:             c.API.Model,
		DictationModel:    c.API.DictationModel,
		SystemInstruction: c.API.SystemInstruction,
		Generation: gemini.GenerationConfig{
			Temperature:     c.Generation.Temperature,
			TopK:            c.Generation.TopK,
			TopP:            c.Generation.TopP,
			MaxOutputTokens: c.Generation.MaxOutputTokens,
		},
		IdleTimeout: time.Duration(c.Stream.IdleTimeoutSecs) * time.Second,
	}
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String renders the config as TOML with the API key redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.API.Key != "" {
		safe.API.Key = "[REDACTED]"
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(safe); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return buf.String()
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance, loading it on first
// access. Load errors fall back to the defaults.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
			cfg.ApplyEnvOverrides()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
