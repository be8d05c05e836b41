// Package config handles loading and saving otpdeck configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/otpdeck/config.yaml
//   - Data:    ~/.local/share/otpdeck/ (exported images)
//   - State:   ~/.local/state/otpdeck/ (log file)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/otpdeck/pkg/model"
)

const appName = "otpdeck"

// Environment overrides.
const (
	EnvServer  = "OTPDECK_SERVER"
	EnvSession = "OTPDECK_SESSION"
	EnvLogFile = "OTPDECK_LOG_FILE"
)

// CookieConfig is the session cookie sent with every request.
type CookieConfig struct {
	Name  string `yaml:"name,omitempty"`
	Value string `yaml:"value,omitempty"`
}

// ServerConfig locates the TOTP server.
type ServerConfig struct {
	BaseURL       string       `yaml:"base_url,omitempty"`
	SessionCookie CookieConfig `yaml:"session_cookie,omitempty"`
}

// UIConfig holds UI preference settings.
type UIConfig struct {
	DefaultTab      string `yaml:"default_tab,omitempty"`       // own, shared
	FrameIntervalMS int    `yaml:"frame_interval_ms,omitempty"` // countdown redraw interval
}

// DirConfig names a directory used by a flow.
type DirConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// Config is the top-level configuration for otpdeck.
type Config struct {
	Server   ServerConfig `yaml:"server,omitempty"`
	UI       UIConfig     `yaml:"ui,omitempty"`
	Import   DirConfig    `yaml:"import,omitempty"`
	Export   DirConfig    `yaml:"export,omitempty"`
	LogFile  string       `yaml:"log_file,omitempty"`
	LogLevel string       `yaml:"log_level,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			BaseURL:       "http://localhost:8000",
			SessionCookie: CookieConfig{Name: "session"},
		},
		UI: UIConfig{
			DefaultTab:      "own",
			FrameIntervalMS: 100,
		},
		Export:   DirConfig{Dir: DataDir()},
		LogLevel: "info",
	}
}

// ConfigDir returns the XDG config directory for otpdeck.
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DataDir returns the XDG data directory for otpdeck.
func DataDir() string {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// StateDir returns the XDG state directory for otpdeck.
func StateDir() string {
	return xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, fallback, appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
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
		return DefaultConfig(), fmt.Errorf("parsing config: %w", err)
	}

	cfg.Import.Dir = expandHome(cfg.Import.Dir)
	cfg.Export.Dir = expandHome(cfg.Export.Dir)
	cfg.LogFile = expandHome(cfg.LogFile)
	if cfg.Server.SessionCookie.Name == "" {
		cfg.Server.SessionCookie.Name = "session"
	}
	if cfg.UI.FrameIntervalMS <= 0 {
		cfg.UI.FrameIntervalMS = DefaultConfig().UI.FrameIntervalMS
	}

	return cfg, nil
}

// ApplyEnv overlays environment overrides onto cfg.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv(EnvServer)); v != "" {
		c.Server.BaseURL = v
	}
	if v := strings.TrimSpace(getenv(EnvSession)); v != "" {
		c.Server.SessionCookie.Value = v
	}
	if v := strings.TrimSpace(getenv(EnvLogFile)); v != "" {
		c.LogFile = expandHome(v)
	}
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path. The file holds the session
// cookie, so it is only readable by the owner.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// DefaultTable parses UI.DefaultTab, falling back to the own table.
func (c Config) DefaultTable() model.Table {
	t, err := model.ParseTable(c.UI.DefaultTab)
	if err != nil {
		return model.TableOwn
	}
	return t
}

// FrameInterval is the countdown redraw interval.
func (c Config) FrameInterval() time.Duration {
	if c.UI.FrameIntervalMS <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(c.UI.FrameIntervalMS) * time.Millisecond
}

// ImportDir is where the import prompt starts, defaulting to the working
// directory.
func (c Config) ImportDir() string {
	if c.Import.Dir != "" {
		return c.Import.Dir
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// ExportDir is where exported images are saved.
func (c Config) ExportDir() string {
	if c.Export.Dir != "" {
		return c.Export.Dir
	}
	return "."
}

// ResolvePath expands ~ and makes p relative to base when it is not
// absolute.
func ResolvePath(base, p string) string {
	p = expandHome(strings.TrimSpace(p))
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
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
