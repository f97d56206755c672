// Package main is the instasearch CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hyperjump/instasearch/internal/cli"
	"github.com/hyperjump/instasearch/internal/config"
	"github.com/hyperjump/instasearch/internal/content"
	"github.com/hyperjump/instasearch/internal/location"
	"github.com/hyperjump/instasearch/internal/models"
	"github.com/hyperjump/instasearch/internal/search"
	"github.com/hyperjump/instasearch/internal/server"
	"github.com/hyperjump/instasearch/internal/storage"
	"github.com/hyperjump/instasearch/internal/tui"
	"github.com/hyperjump/instasearch/internal/watcher"
	"github.com/hyperjump/instasearch/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/instasearch/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// A missing default config file is not an error: built-in defaults apply.
// Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "tui":
		runTUI()
	case "search":
		runSearch()
	case "import":
		runImport()
	case "status":
		runStatus()
	case "init":
		runInit()
	case "version", "--version", "-v":
		fmt.Printf("instasearch version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (content reloads, session updates, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, cfg.Storage.UseSnapshot)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := components.Start(ctx); err != nil {
		logger.Fatal("Failed to load items", zap.Error(err))
	}

	var watchSvc *watcher.Watcher
	if cfg.Content.WatchOrDefault() {
		watchSvc = watcher.NewWatcher(
			cfg.Content.Dir,
			components.Loader.Matches,
			func() {
				if err := components.Refresh(ctx); err != nil {
					logger.Warn("content reload failed", zap.Error(err))
				}
			},
			watcher.WithLogger(logger),
		)
		if err := watchSvc.Start(ctx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	opts := []server.Option{server.WithReloader(components.Refresh)}
	if components.Storage != nil {
		opts = append(opts, server.WithStorage(components.Storage))
	}
	srv, err := server.NewServer(components.Engine, cfg, logger, opts...)
	if err != nil {
		logger.Fatal("Failed to create server", zap.Error(err))
	}
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

func runTUI() {
	fs := flag.NewFlagSet("tui", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	statePath := fs.String("state", "", "address state file (default from config)")
	reset := fs.Bool("reset", false, "forget the last query and start empty")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	// The terminal belongs to the UI, so logs go to a file.
	logger, err := utils.NewFileLogger(cfg.TUI.LogPath, cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	path := cfg.TUI.StatePath
	if *statePath != "" {
		path = *statePath
	}
	if *reset {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Failed to reset state: %v\n", err)
			os.Exit(1)
		}
	}
	bar, err := location.OpenFile(path, "/search")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open address state: %v\n", err)
		os.Exit(1)
	}

	components, err := initializeComponents(cfg, logger, cfg.Storage.UseSnapshot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()
	if err := components.Start(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load items: %v\n", err)
		os.Exit(1)
	}

	model := tui.New(components.Engine.NewSession(bar), bar)
	chosen, err := tui.Run(model, tea.WithAltScreen())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if chosen != nil {
		fmt.Printf("%s\n%s\n", chosen.Title, chosen.Href)
	}
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: instasearch search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Queries shorter than two characters never match. Matching is fuzzy, so small
typos still find results; when nothing matches a "did you mean" suggestion is
printed if one exists.

  • Use --href to open a page URL the way the browser does: the query in its
    "q" parameter is restored and searched, and the resulting URL is printed.

Examples:
  instasearch search astro
  instasearch search "static sites"                 # same as static sites
  instasearch search --output compact typescript
  instasearch search --href "/search?q=pasta"
  instasearch search --server http://localhost:8080 --output json astro
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchConfigPathFromArgs returns the value of -config/--config from args if present, else defaultPath.
func searchConfigPathFromArgs(args []string, defaultPath string) string {
	for i, a := range args {
		if (a == "-config" || a == "--config") && i+1 < len(args) {
			return args[i+1]
		}
	}
	return defaultPath
}

// searchLimitDefaultFromConfig loads config at path and returns its default
// result limit, or 10 when the config cannot be loaded.
func searchLimitDefaultFromConfig(path string) int {
	cfg, _, err := loadConfig(path)
	if err != nil || cfg == nil || cfg.Search.DefaultLimit <= 0 {
		return 10
	}
	return cfg.Search.DefaultLimit
}

// searchArgsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument, so "instasearch search astro -limit 5"
// would otherwise leave -limit unparsed.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runSearch() {
	searchArgs := searchArgsReorder(os.Args[2:])
	configPath := searchConfigPathFromArgs(searchArgs, defaultConfigPath)

	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPathFlag := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = search the content directory directly)")
	limit := fs.Int("limit", searchLimitDefaultFromConfig(configPath), "number of results")
	offset := fs.Int("offset", 0, "number of results to skip")
	href := fs.String("href", "", "page URL to restore a session from, e.g. /search?q=astro")
	outputFormat := fs.String("output", "text", "output format: text (human-readable), compact (one result per line), or json (parseable)")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgs)

	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" && *href == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	if *href != "" {
		var out cli.SessionOutput
		if *serverURL != "" {
			out, err = sessionViaHTTP(*serverURL, *href, queryStr)
		} else {
			out, err = sessionDirect(*configPathFlag, *href, queryStr)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteSessionState(os.Stdout, out, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	searchQuery := &models.SearchQuery{Query: queryStr, Limit: *limit, Offset: *offset}
	var response *models.SearchResponse
	if *serverURL != "" {
		response, err = searchViaHTTP(*serverURL, searchQuery)
	} else {
		response, err = searchDirect(*configPathFlag, searchQuery)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// openEngine loads config and items for a one-shot command.
func openEngine(configPath string) (*Components, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := zap.NewNop()
	if cfg.Debug {
		if logger, err = utils.NewLogger(true); err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}
	components, err := initializeComponents(cfg, logger, cfg.Storage.UseSnapshot)
	if err != nil {
		return nil, err
	}
	if err := components.Start(context.Background()); err != nil {
		components.Close()
		return nil, err
	}
	return components, nil
}

func searchDirect(configPath string, query *models.SearchQuery) (*models.SearchResponse, error) {
	components, err := openEngine(configPath)
	if err != nil {
		return nil, err
	}
	defer components.Close()
	return components.Engine.Search(context.Background(), query)
}

// sessionDirect restores a session from href and, when query is set, types it.
func sessionDirect(configPath, href, query string) (cli.SessionOutput, error) {
	bar, err := location.Parse(href)
	if err != nil {
		return cli.SessionOutput{}, err
	}
	components, err := openEngine(configPath)
	if err != nil {
		return cli.SessionOutput{}, err
	}
	defer components.Close()
	s := components.Engine.NewSession(bar)
	if query != "" {
		s.OnQueryChange(query)
	}
	return cli.NewSessionOutput(s, bar.Href()), nil
}

func searchViaHTTP(serverURL string, query *models.SearchQuery) (*models.SearchResponse, error) {
	var response models.SearchResponse
	if err := doJSON(http.MethodPost, serverURL+"/api/v1/search", query, http.StatusOK, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func sessionViaHTTP(serverURL, href, query string) (cli.SessionOutput, error) {
	var created struct {
		ID string `json:"id"`
		cli.SessionOutput
	}
	if err := doJSON(http.MethodPost, serverURL+"/api/v1/sessions", map[string]string{"href": href}, http.StatusCreated, &created); err != nil {
		return cli.SessionOutput{}, err
	}
	out := created.SessionOutput
	if query != "" {
		if err := doJSON(http.MethodPut, serverURL+"/api/v1/sessions/"+created.ID+"/query", map[string]string{"query": query}, http.StatusOK, &out); err != nil {
			return cli.SessionOutput{}, err
		}
	}
	_ = doJSON(http.MethodDelete, serverURL+"/api/v1/sessions/"+created.ID, nil, http.StatusNoContent, nil)
	return out, nil
}

func doJSON(method, url string, body interface{}, wantStatus int, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if fs.NArg() > 0 {
		cfg.Content.Dir = fs.Arg(0)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, true)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	n, err := components.Import(context.Background())
	if err != nil {
		fmt.Printf("Import failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Imported %d item(s) from %s into %s\n", n, cfg.Content.Dir, cfg.Storage.DatabasePath)
}

// statusConfigResponse holds configuration info printed by status.
type statusConfigResponse struct {
	Strategy     string  `json:"strategy"`
	Threshold    float64 `json:"threshold"`
	ContentDir   string  `json:"content_dir,omitempty"`
	DatabasePath string  `json:"database_path,omitempty"`
	UseSnapshot  bool    `json:"use_snapshot"`
}

// statusResponse is the shape of GET /api/v1/status, plus config for direct mode.
type statusResponse struct {
	Items         int                   `json:"items"`
	Strategy      string                `json:"strategy"`
	LoadedAt      time.Time             `json:"loaded_at"`
	Sessions      int                   `json:"sessions"`
	SnapshotItems *int64                `json:"snapshot_items,omitempty"`
	LastImport    *time.Time            `json:"last_import,omitempty"`
	DiskUsage     *int64                `json:"disk_usage_bytes,omitempty"`
	Config        *statusConfigResponse `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = read content and snapshot directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status *statusResponse
	var err error
	if *serverURL != "" {
		status = &statusResponse{}
		err = doJSON(http.MethodGet, *serverURL+"/api/v1/status", nil, http.StatusOK, status)
	} else {
		status, err = statusDirect(*configPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	if err := writeStatus(os.Stdout, status, *outputFormat); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func statusDirect(configPath string) (*statusResponse, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	components, err := initializeComponents(cfg, zap.NewNop(), fileExists(cfg.Storage.DatabasePath))
	if err != nil {
		return nil, err
	}
	defer components.Close()
	ctx := context.Background()
	if err := components.Start(ctx); err != nil {
		return nil, err
	}
	status := &statusResponse{
		Items:    components.Engine.Len(),
		Strategy: components.Engine.Strategy(),
		LoadedAt: components.Engine.LoadedAt(),
		Config: &statusConfigResponse{
			Strategy:     components.Engine.Strategy(),
			Threshold:    cfg.Search.ThresholdOrDefault(),
			ContentDir:   cfg.Content.Dir,
			DatabasePath: cfg.Storage.DatabasePath,
			UseSnapshot:  cfg.Storage.UseSnapshot,
		},
	}
	if components.Storage != nil {
		if n, err := components.Storage.CountItems(ctx); err == nil {
			status.SnapshotItems = &n
		}
		if t, err := components.Storage.LastImport(ctx); err == nil && !t.IsZero() {
			status.LastImport = &t
		}
		if n, err := storage.DiskUsageBytes(storage.DatabaseFiles(cfg.Storage.DatabasePath)...); err == nil {
			status.DiskUsage = &n
		}
	}
	return status, nil
}

func writeStatus(w io.Writer, status *statusResponse, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	case "text":
		fmt.Fprintf(w, "items:              %d   # items in the search index\n", status.Items)
		fmt.Fprintf(w, "strategy:           %s\n", status.Strategy)
		fmt.Fprintf(w, "loaded_at:          %s\n", status.LoadedAt.Format(time.RFC3339))
		fmt.Fprintf(w, "sessions:           %d   # live browser sessions\n", status.Sessions)
		if status.SnapshotItems != nil {
			fmt.Fprintf(w, "snapshot_items:     %d   # items in the SQLite snapshot\n", *status.SnapshotItems)
		}
		if status.LastImport != nil {
			fmt.Fprintf(w, "last_import:        %s\n", status.LastImport.Format(time.RFC3339))
		}
		if status.DiskUsage != nil {
			fmt.Fprintf(w, "disk_usage_bytes:   %d   # snapshot database on disk\n", *status.DiskUsage)
		}
		if status.Config != nil {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "# configuration")
			fmt.Fprintf(w, "threshold:          %g\n", status.Config.Threshold)
			fmt.Fprintf(w, "use_snapshot:       %t\n", status.Config.UseSnapshot)
			if status.Config.ContentDir != "" {
				fmt.Fprintf(w, "content_dir:        %s\n", status.Config.ContentDir)
			}
			if status.Config.DatabasePath != "" {
				fmt.Fprintf(w, "database_path:      %s\n", status.Config.DatabasePath)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q; use text or json", format)
	}
}

func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "where to write the config file")
	force := fs.Bool("force", false, "overwrite an existing config file")
	_ = fs.Parse(os.Args[2:])

	if err := writeDefaultConfig(*configPath, *force); err != nil {
		fmt.Printf("Init failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", *configPath)
}

// writeDefaultConfig saves the built-in defaults to path, refusing to replace
// an existing file unless force is set.
func writeDefaultConfig(path string, force bool) error {
	if !force && fileExists(path) {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return config.Save(path, cfg)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Components holds initialized services.
type Components struct {
	Config  *config.Config
	Storage storage.Storage
	Loader  *content.Loader
	Engine  *search.Engine
	logger  *zap.Logger
}

func (c *Components) Close() {
	if c.Engine != nil {
		_ = c.Engine.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

// initializeComponents builds the loader and engine, and opens the snapshot
// database when withStorage is set.
func initializeComponents(cfg *config.Config, logger *zap.Logger, withStorage bool) (*Components, error) {
	c := &Components{
		Config: cfg,
		Loader: content.NewLoader(cfg.Content.Dir,
			content.WithExtensions(cfg.Content.Extensions...),
			content.WithLogger(logger),
		),
		Engine: search.NewEngine(&cfg.Search, search.WithLogger(logger)),
		logger: logger,
	}
	if withStorage {
		store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		c.Storage = store
	}
	return c, nil
}

// Start fills the engine: from the snapshot when configured and non-empty,
// otherwise from the content directory.
func (c *Components) Start(ctx context.Context) error {
	if c.Config.Storage.UseSnapshot && c.Storage != nil {
		items, err := c.Storage.ListItems(ctx)
		if err != nil {
			return fmt.Errorf("failed to read snapshot: %w", err)
		}
		if len(items) > 0 {
			c.logger.Info("items loaded from snapshot", zap.Int("items", len(items)))
			return c.Engine.Reload(items)
		}
		c.logger.Info("snapshot is empty, loading content directory")
	}
	return c.Refresh(ctx)
}

// Refresh parses the content directory, updates the snapshot when the engine
// is served from it, and swaps the engine to the new items. A missing content directory
// yields an empty index.
func (c *Components) Refresh(ctx context.Context) error {
	items, err := c.Loader.Load(ctx)
	if errors.Is(err, os.ErrNotExist) {
		c.logger.Warn("content directory does not exist", zap.String("dir", c.Loader.Dir()))
		items, err = []models.Item{}, nil
	}
	if err != nil {
		return err
	}
	if c.Storage != nil && c.Config.Storage.UseSnapshot {
		if err := c.Storage.ReplaceItems(ctx, items); err != nil {
			return err
		}
	}
	return c.Engine.Reload(items)
}

// Import writes the content directory to the snapshot and returns the item count.
func (c *Components) Import(ctx context.Context) (int, error) {
	if c.Storage == nil {
		return 0, errors.New("no snapshot database open")
	}
	items, err := c.Loader.Load(ctx)
	if err != nil {
		return 0, err
	}
	if err := c.Storage.ReplaceItems(ctx, items); err != nil {
		return 0, err
	}
	return len(items), nil
}

func printUsage() {
	fmt.Println(`instasearch - Instant fuzzy search for a static content site

Usage:
  instasearch server [flags]           Start the HTTP server (search page + API)
  instasearch tui [flags]              Search in the terminal
  instasearch search [flags] <query>   Search once and print the results
  instasearch import [flags] [dir]     Save the content directory to the SQLite snapshot
  instasearch status [flags]           Show index/snapshot status
  instasearch init [flags]             Write a default config file
  instasearch version                  Show version
  instasearch help                     Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/instasearch/config.yaml)
  --debug            Enable debug logging

TUI Flags:
  --config string    Config file path
  --state string     Address state file (default from config: tui.state_path)
  --reset            Forget the last query

Search Flags:
  --config string    Config file path
  --server string    Server URL; empty (default) searches the content directly
  --limit int        Number of results (default from config, or 10)
  --offset int       Number of results to skip
  --href string      Restore a session from a page URL such as /search?q=astro
  --output string    Output format: text, compact or json (default: text)

Status Flags:
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct mode.
  --output string    Output format: text or json (default: text)

Examples:
  instasearch init --config ./config.yaml
  instasearch import ./content
  instasearch server
  instasearch search astro
  instasearch search --output json "static sites"
  instasearch search --href "/search?q=pasta"
  instasearch tui
  instasearch status --output json`)
}
