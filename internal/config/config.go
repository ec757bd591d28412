package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dshills/exline/internal/histstore"
	"github.com/dshills/exline/internal/logging"
)

// Config is the complete exline configuration.
type Config struct {
	Delegation DelegationConfig `toml:"delegation" yaml:"delegation"`
	History    HistoryConfig    `toml:"history" yaml:"history"`
	Cmdline    CmdlineConfig    `toml:"cmdline" yaml:"cmdline"`
	Log        LogConfig        `toml:"log" yaml:"log"`
}

// DelegationConfig controls handing commands to the Lua interpreter.
type DelegationConfig struct {
	Enabled       bool     `toml:"enabled" yaml:"enabled"`
	Script        string   `toml:"script" yaml:"script"`
	Timeout       Duration `toml:"timeout" yaml:"timeout"`
	CallStackSize int      `toml:"call_stack_size" yaml:"call_stack_size"`
}

// HistoryConfig selects where command history is persisted.
type HistoryConfig struct {
	Backend string `toml:"backend" yaml:"backend"`
	Path    string `toml:"path" yaml:"path"`
	Limit   int    `toml:"limit" yaml:"limit"`
}

// CmdlineConfig tunes the command-line engine.
type CmdlineConfig struct {
	// RegisterPrefix exempts command lines starting with it from being
	// recorded in the ':' register. Empty records everything.
	RegisterPrefix string `toml:"register_prefix" yaml:"register_prefix"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level      string `toml:"level" yaml:"level"`
	Format     string `toml:"format" yaml:"format"`
	File       string `toml:"file" yaml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" yaml:"max_backups"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Delegation: DelegationConfig{
			Timeout:       Duration(5 * time.Second),
			CallStackSize: 120,
		},
		History: HistoryConfig{
			Backend: histstore.BackendFile,
		},
		Cmdline: CmdlineConfig{
			RegisterPrefix: "reg",
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	return &out
}

// Validate checks every setting and returns the first problem found.
func (c *Config) Validate() error {
	switch c.History.Backend {
	case histstore.BackendFile, histstore.BackendSQLite, histstore.BackendMemory:
	default:
		return &ValidationError{Path: "history.backend", Message: fmt.Sprintf("unknown backend %q", c.History.Backend)}
	}
	if c.History.Limit < 0 {
		return &ValidationError{Path: "history.limit", Message: "must not be negative"}
	}
	if c.Delegation.Timeout < 0 {
		return &ValidationError{Path: "delegation.timeout", Message: "must not be negative"}
	}
	if c.Delegation.CallStackSize < 0 {
		return &ValidationError{Path: "delegation.call_stack_size", Message: "must not be negative"}
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "log.level", Message: fmt.Sprintf("unknown level %q", c.Log.Level)}
	}
	switch strings.ToLower(c.Log.Format) {
	case string(logging.FormatText), string(logging.FormatJSON):
	default:
		return &ValidationError{Path: "log.format", Message: fmt.Sprintf("unknown format %q", c.Log.Format)}
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 {
		return &ValidationError{Path: "log", Message: "rotation settings must not be negative"}
	}
	return nil
}

// LoggerConfig converts the log section for logging.NewLogger.
func (c *Config) LoggerConfig() logging.LoggerConfig {
	cfg := logging.DefaultLoggerConfig()
	cfg.Level = logging.ParseLogLevel(c.Log.Level)
	cfg.Format = logging.ParseFormat(c.Log.Format)
	cfg.File = c.Log.File
	cfg.MaxSizeMB = c.Log.MaxSizeMB
	cfg.MaxBackups = c.Log.MaxBackups
	return cfg
}

// Duration is a time.Duration written as a string such as "5s" in files.
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText renders the duration as a string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}
