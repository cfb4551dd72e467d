package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file looked up in the working directory.
const FileName = ".kbqueryconfig"

// DefaultSnapshot names the snapshot read from a SQLite schema database.
const DefaultSnapshot = "kb"

// Config holds user-overridable compiler settings.
type Config struct {
	// Schema is a YAML schema document or a SQLite snapshot database (.db).
	Schema string `yaml:"schema"`

	// Snapshot selects the snapshot inside a .db schema. Default: "kb".
	Snapshot string `yaml:"snapshot"`

	// LogLevel is one of debug, info, warn, error. Default: info.
	LogLevel string `yaml:"log_level"`

	// Display adds the parameter-substituted statement to compile output.
	// Default: false.
	Display *bool `yaml:"display"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{}
}

// Load reads .kbqueryconfig from the given directory.
// Returns default config if the file doesn't exist.
func Load(dir string) *Config {
	cfg := DefaultConfig()

	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		slog.Warn("config.invalid", "path", path, "err", err)
		return DefaultConfig()
	}

	if cfg.Schema != "" && !filepath.IsAbs(cfg.Schema) {
		cfg.Schema = filepath.Join(dir, cfg.Schema)
	}
	return cfg
}

// IsSnapshotDB reports whether the schema points at a SQLite snapshot.
func (c *Config) IsSnapshotDB() bool {
	return strings.EqualFold(filepath.Ext(c.Schema), ".db")
}

// EffectiveSnapshot returns the configured snapshot name, or "kb".
func (c *Config) EffectiveSnapshot() string {
	if c.Snapshot != "" {
		return c.Snapshot
	}
	return DefaultSnapshot
}

// EffectiveLogLevel parses the configured level, falling back to info.
func (c *Config) EffectiveLogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// EffectiveDisplay returns the configured display setting, or false.
func (c *Config) EffectiveDisplay() bool {
	if c.Display != nil {
		return *c.Display
	}
	return false
}
