package config

// Search strategies.
const (
	StrategyBitap = "bitap"
	StrategyBleve = "bleve"
)

// DefaultThreshold is the highest score (0 = perfect) a result may have.
const DefaultThreshold = 0.5

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Content.Dir == "" {
		cfg.Content.Dir = "/usr/local/var/instasearch/content"
	}
	if cfg.Content.Extensions == nil {
		cfg.Content.Extensions = []string{".md", ".mdx"}
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/instasearch/data/items.db"
	}
	if cfg.Search.Strategy == "" {
		cfg.Search.Strategy = StrategyBitap
	}
	if cfg.Search.Distance == 0 {
		cfg.Search.Distance = 100
	}
	if cfg.Search.MinQueryLength == 0 {
		cfg.Search.MinQueryLength = 2
	}
	if cfg.Search.QueryParam == "" {
		cfg.Search.QueryParam = "q"
	}
	if cfg.Search.MaxSessions == 0 {
		cfg.Search.MaxSessions = 1024
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.TUI.StatePath == "" {
		cfg.TUI.StatePath = ".instasearch/tui-location"
	}
	if cfg.TUI.LogPath == "" {
		cfg.TUI.LogPath = ".instasearch/tui.log"
	}
}

// Default returns a config with every default applied and paths resolved,
// for running without a config file.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.TUI.StatePath = expandPath(cfg.TUI.StatePath, ".")
	cfg.TUI.LogPath = expandPath(cfg.TUI.LogPath, ".")
	return cfg
}
