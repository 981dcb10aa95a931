// Package config handles loading and saving qw configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/qw/config.yaml
//   - Data:    ~/.local/share/qw/ (static game data)
//   - State:   ~/.local/state/qw/ (progress store)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment overrides, applied after the file is read.
const (
	EnvDataDir = "QW_DATA_DIR"
	EnvStore   = "QW_STORE" // progress store path; .db/.sqlite selects sqlite
)

// Store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// StoreConfig selects where progress is persisted.
type StoreConfig struct {
	Backend string `yaml:"backend,omitempty"` // file, sqlite
	Path    string `yaml:"path,omitempty"`    // default: StateDir()/progress.json or .db
}

// CapstoneConfig names the capstone tasks. An empty name disables the flag.
type CapstoneConfig struct {
	Kappa       string `yaml:"kappa"`
	Lightkeeper string `yaml:"lightkeeper"`
}

// UIConfig holds output preference settings.
type UIConfig struct {
	Color string `yaml:"color,omitempty"` // auto, always, never
	Width int    `yaml:"width,omitempty"` // 0 = terminal width
}

// WatchConfig tunes `qw watch`.
type WatchConfig struct {
	Debounce     time.Duration `yaml:"debounce,omitempty"`
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`
	ForcePoll    bool          `yaml:"force_poll,omitempty"`
}

// Config is the top-level configuration for qw.
type Config struct {
	DataDir      string         `yaml:"data_dir,omitempty"`
	DefaultLevel int            `yaml:"default_level,omitempty"`
	Store        StoreConfig    `yaml:"store,omitempty"`
	Capstones    CapstoneConfig `yaml:"capstones"`
	UI           UIConfig       `yaml:"ui,omitempty"`
	Watch        WatchConfig    `yaml:"watch,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DefaultLevel: 1,
		Store:        StoreConfig{Backend: BackendFile},
		Capstones: CapstoneConfig{
			Kappa:       "Collector",
			Lightkeeper: "Getting Acquainted",
		},
		UI: UIConfig{Color: ColorAuto},
		Watch: WatchConfig{
			Debounce:     200 * time.Millisecond,
			PollInterval: 500 * time.Millisecond,
		},
	}
}

// ConfigDir returns the XDG config directory for qw.
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DataDir returns the XDG data directory for qw.
func DataDir() string {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// StateDir returns the XDG state directory for qw.
func StateDir() string {
	return xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, "qw")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, fallback, "qw")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory and applies
// environment overrides. Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		cfg := DefaultConfig()
		cfg.ApplyEnv()
		return cfg, nil
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		return cfg, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}

	cfg.DataDir = expandHome(cfg.DataDir)
	cfg.Store.Path = expandHome(cfg.Store.Path)
	return cfg, nil
}

// ApplyEnv applies QW_DATA_DIR and QW_STORE.
func (c *Config) ApplyEnv() {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		c.DataDir = expandHome(dir)
	}
	if path := os.Getenv(EnvStore); path != "" {
		c.Store.Path = expandHome(path)
		c.Store.Backend = BackendForPath(path)
	}
}

// Validate checks the enumerated fields.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case "", BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("store.backend must be %q or %q, got %q", BackendFile, BackendSQLite, c.Store.Backend)
	}
	switch c.UI.Color {
	case "", ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("ui.color must be auto, always or never, got %q", c.UI.Color)
	}
	if c.DefaultLevel < 0 {
		return fmt.Errorf("default_level cannot be negative: %d", c.DefaultLevel)
	}
	return nil
}

// BackendForPath infers the store backend from a file extension.
func BackendForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return BackendSQLite
	}
	return BackendFile
}

// StorePath returns the configured store path, or the default for the
// backend under StateDir.
func (c Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	name := "progress.json"
	if c.Store.Backend == BackendSQLite {
		name = "progress.db"
	}
	return filepath.Join(StateDir(), name)
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
