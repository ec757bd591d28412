package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "EXLINE_"

// Load builds a Config from defaults, the file at path (if any) and the
// environment, then validates it. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultPath returns $XDG_CONFIG_HOME/exline/config.toml (or the platform
// equivalent).
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "exline", "config.toml")
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			perr := &ParseError{Path: path, Message: err.Error(), Err: err}
			var derr *toml.DecodeError
			if errors.As(err, &derr) {
				perr.Line, _ = derr.Position()
			}
			return perr
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return &ParseError{Path: path, Message: err.Error(), Err: err}
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return nil
}

// envBinding maps one environment variable onto a setting.
type envBinding struct {
	key string
	set func(cfg *Config, value string) error
}

var envBindings = []envBinding{
	{"DELEGATION_ENABLED", func(c *Config, v string) error { return parseBool(v, &c.Delegation.Enabled) }},
	{"DELEGATION_SCRIPT", func(c *Config, v string) error { c.Delegation.Script = v; return nil }},
	{"DELEGATION_TIMEOUT", func(c *Config, v string) error { return c.Delegation.Timeout.UnmarshalText([]byte(v)) }},
	{"DELEGATION_CALL_STACK_SIZE", func(c *Config, v string) error { return parseInt(v, &c.Delegation.CallStackSize) }},
	{"HISTORY_BACKEND", func(c *Config, v string) error { c.History.Backend = v; return nil }},
	{"HISTORY_PATH", func(c *Config, v string) error { c.History.Path = v; return nil }},
	{"HISTORY_LIMIT", func(c *Config, v string) error { return parseInt(v, &c.History.Limit) }},
	{"CMDLINE_REGISTER_PREFIX", func(c *Config, v string) error { c.Cmdline.RegisterPrefix = v; return nil }},
	{"LOG_LEVEL", func(c *Config, v string) error { c.Log.Level = v; return nil }},
	{"LOG_FORMAT", func(c *Config, v string) error { c.Log.Format = v; return nil }},
	{"LOG_FILE", func(c *Config, v string) error { c.Log.File = v; return nil }},
	{"LOG_MAX_SIZE_MB", func(c *Config, v string) error { return parseInt(v, &c.Log.MaxSizeMB) }},
	{"LOG_MAX_BACKUPS", func(c *Config, v string) error { return parseInt(v, &c.Log.MaxBackups) }},
}

// applyEnv overrides settings from EXLINE_<SECTION>_<KEY> variables.
// Empty values are treated as set.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	for _, b := range envBindings {
		name := EnvPrefix + b.key
		value, ok := lookup(name)
		if !ok {
			continue
		}
		if err := b.set(cfg, value); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func parseBool(s string, out *bool) error {
	switch strings.ToLower(s) {
	case "true", "yes", "on", "1":
		*out = true
	case "false", "no", "off", "0", "":
		*out = false
	default:
		return fmt.Errorf("invalid boolean %q", s)
	}
	return nil
}

func parseInt(s string, out *int) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid integer %q", s)
	}
	*out = n
	return nil
}
