// Package config provides configuration loading and structs for instasearch.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Content ContentConfig `yaml:"content"`
	Storage StorageConfig `yaml:"storage"`
	Search  SearchConfig  `yaml:"search"`
	TUI     TUIConfig     `yaml:"tui"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ContentConfig says where posts live and whether to follow edits.
type ContentConfig struct {
	Dir        string   `yaml:"dir"`
	Extensions []string `yaml:"extensions"`
	Watch      *bool    `yaml:"watch"`
}

// WatchOrDefault returns whether to reload on content changes; defaults to true when unset.
func (c *ContentConfig) WatchOrDefault() bool {
	if c.Watch != nil {
		return *c.Watch
	}
	return true
}

// StorageConfig holds the item snapshot database settings.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	// UseSnapshot loads items from the database instead of parsing the content directory.
	UseSnapshot bool `yaml:"use_snapshot"`
}

// SearchConfig holds matcher and session settings.
type SearchConfig struct {
	// Strategy is "bitap" (default) or "bleve".
	Strategy       string   `yaml:"strategy"`
	Threshold      *float64 `yaml:"threshold"`
	Distance       int      `yaml:"distance"`
	MinQueryLength int      `yaml:"min_query_length"`
	QueryParam     string   `yaml:"query_param"`
	// CacheSize is the per-index LRU size; 0 disables caching.
	CacheSize    int   `yaml:"cache_size"`
	Suggestions  *bool `yaml:"suggestions"`
	MaxSessions  int   `yaml:"max_sessions"`
	DefaultLimit int   `yaml:"default_limit"`
	MaxLimit     int   `yaml:"max_limit"`
}

// ThresholdOrDefault returns the configured threshold or DefaultThreshold.
func (s *SearchConfig) ThresholdOrDefault() float64 {
	if s.Threshold != nil {
		return *s.Threshold
	}
	return DefaultThreshold
}

// SuggestionsOrDefault returns whether "did you mean" suggestions are on; defaults to true.
func (s *SearchConfig) SuggestionsOrDefault() bool {
	if s.Suggestions != nil {
		return *s.Suggestions
	}
	return true
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	// StatePath is the file holding the terminal's address bar between runs.
	StatePath string `yaml:"state_path"`
	LogPath   string `yaml:"log_path"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.Content.Dir = expandPath(cfg.Content.Dir, configDir)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.TUI.StatePath = expandPath(cfg.TUI.StatePath, configDir)
	cfg.TUI.LogPath = expandPath(cfg.TUI.LogPath, configDir)

	return &cfg, nil
}

// Save writes the config to path. Used by "instasearch init".
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate rejects settings the matcher cannot honor.
func Validate(cfg *Config) error {
	switch cfg.Search.Strategy {
	case StrategyBitap, StrategyBleve:
	default:
		return fmt.Errorf("unknown search strategy %q (want %s or %s)", cfg.Search.Strategy, StrategyBitap, StrategyBleve)
	}
	if t := cfg.Search.ThresholdOrDefault(); t < 0 || t > 1 {
		return fmt.Errorf("search threshold %v out of range [0, 1]", t)
	}
	if cfg.Search.CacheSize < 0 {
		return fmt.Errorf("search cache_size must not be negative")
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
