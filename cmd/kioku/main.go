// Package main is the Kioku CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
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

	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/classify"
	"github.com/hyperjump/kioku/internal/cli"
	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/embedding"
	"github.com/hyperjump/kioku/internal/export"
	"github.com/hyperjump/kioku/internal/extract"
	"github.com/hyperjump/kioku/internal/ingest"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/ollama"
	"github.com/hyperjump/kioku/internal/search"
	"github.com/hyperjump/kioku/internal/server"
	"github.com/hyperjump/kioku/internal/store"
	"github.com/hyperjump/kioku/internal/watcher"
	"github.com/hyperjump/kioku/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/kioku/config.yaml"
	defaultServerURL  = "http://localhost:8093"
)

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
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
	case "sync":
		runSync()
	case "search":
		runSearch()
	case "query":
		runQuery()
	case "classify":
		runClassify()
	case "export":
		runExport()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("kioku version %s\n", version)
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
	debug := fs.Bool("debug", false, "enable debug logging")
	noWatch := fs.Bool("no-watch", false, "disable file-watch resync")
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

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()

	var watchSvc *watcher.Watcher
	if cfg.Watch.EnabledOrDefault() && !*noWatch {
		roots := append([]string{cfg.Knowledge.MemoryDir}, cfg.Knowledge.SessionDirs...)
		watchOpts := []watcher.Option{
			watcher.WithDebounce(time.Duration(cfg.Watch.DebounceMS) * time.Millisecond),
		}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		syncer := components.Syncer
		watchSvc = watcher.NewWatcher(roots, cfg.Knowledge.Extensions, func() {
			if _, _, err := syncer.Sync(context.Background()); err != nil {
				logger.Warn("watch-triggered sync failed", zap.Error(err))
			}
		}, watchOpts...)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
	}

	// Initial sync in the background so the server serves immediately.
	go func() {
		if synced, total, err := components.Syncer.Sync(context.Background()); err != nil {
			logger.Warn("startup sync failed", zap.Error(err))
		} else {
			logger.Info("startup sync complete", zap.Int("synced", synced), zap.Int("total", total))
		}
	}()

	srv := server.NewServer(
		components.Retriever,
		components.Syncer,
		components.Classifier,
		components.Store,
		components.Ollama,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if watchSvc != nil {
		watchSvc.Stop()
	}
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runSync() {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = sync directly against the database)")
	_ = fs.Parse(os.Args[2:])

	if *serverURL != "" {
		resp, err := postJSON[models.SyncResponse](*serverURL+"/api/v1/sync", nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Sync failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Synced %d unit(s), %d total\n", resp.Synced, resp.Total)
		return
	}

	_, logger, components := mustInitialize(*configPath)
	defer logger.Sync()
	defer components.Close()

	synced, total, err := components.Syncer.Sync(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Sync failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Synced %d unit(s), %d total\n", synced, total)
}

// buildQuery joins all positional args with spaces so multi-word queries work
// the same with or without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func parseFormat(s string) cli.OutputFormat {
	switch s {
	case "json":
		return cli.OutputJSON
	case "text":
		return cli.OutputText
	default:
		fmt.Printf("Unknown output format %q; use text or json\n", s)
		os.Exit(1)
		return cli.OutputText
	}
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = search directly against the database)")
	topK := fs.Int("top-k", 0, "number of results (default from config)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: kioku search [flags] <query>")
		os.Exit(1)
	}
	query := buildQuery(fs.Args())
	format := parseFormat(*outputFormat)
	req := models.SearchRequest{Query: query, TopK: *topK}

	if *serverURL != "" {
		resp, err := postJSON[models.SearchResponse](*serverURL+"/api/v1/search", req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteSearchResults(os.Stdout, resp, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, logger, components := mustInitialize(*configPath)
	defer logger.Sync()
	defer components.Close()

	if err := req.Validate(cfg.Knowledge.TopK); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid query: %v\n", err)
		os.Exit(1)
	}
	hits, err := components.Retriever.Search(context.Background(), req.Query, req.TopK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	resp := &models.SearchResponse{Results: hits, Count: len(hits)}
	if err := cli.WriteSearchResults(os.Stdout, resp, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runQuery() {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = query directly)")
	topK := fs.Int("top-k", 0, "number of context items (default from config)")
	temperature := fs.Float64("temperature", 0, "generation temperature (default 0.3)")
	systemPrompt := fs.String("system", "", "override the system prompt")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: kioku query [flags] <question>")
		os.Exit(1)
	}
	req := models.QueryRequest{
		Query:        buildQuery(fs.Args()),
		TopK:         *topK,
		SystemPrompt: *systemPrompt,
	}
	// Only an explicitly passed flag sets the temperature; zero is a valid
	// request (greedy decoding), so the unset case must stay distinguishable.
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "temperature" {
			req.Temperature = temperature
		}
	})
	format := parseFormat(*outputFormat)

	if *serverURL != "" {
		resp, err := postJSON[models.QueryResponse](*serverURL+"/api/v1/query", req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteQueryResponse(os.Stdout, resp, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, logger, components := mustInitialize(*configPath)
	defer logger.Sync()
	defer components.Close()

	if err := req.Validate(cfg.Knowledge.TopK); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid query: %v\n", err)
		os.Exit(1)
	}
	resp, err := components.Retriever.Query(context.Background(), req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteQueryResponse(os.Stdout, resp, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runClassify() {
	fs := flag.NewFlagSet("classify", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = classify directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: kioku classify [flags] <message>")
		os.Exit(1)
	}
	message := buildQuery(fs.Args())
	format := parseFormat(*outputFormat)

	if *serverURL != "" {
		resp, err := postJSON[models.ClassifyResponse](*serverURL+"/api/v1/classify", models.ClassifyRequest{Message: message})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Classify failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteClassifyResponse(os.Stdout, resp, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	_, logger, components := mustInitialize(*configPath)
	defer logger.Sync()
	defer components.Close()

	resp, err := components.Classifier.Classify(context.Background(), message)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Classify failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteClassifyResponse(os.Stdout, resp, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runExport() {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	output := fs.String("output", "training_data.jsonl", "output JSONL file")
	filterPreferences := fs.Bool("filter-preferences", false, "only preference-related exchanges")
	includeMemory := fs.Bool("include-memory", false, "include memory files as training context")
	minAssistantLength := fs.Int("min-assistant-length", 10, "minimum assistant response length")
	statsOnly := fs.Bool("stats-only", false, "only print statistics")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	exporter := export.NewExporter(cfg.Knowledge.SessionDirs, cfg.Knowledge.MemoryDir, logger)
	pairs, stats, err := exporter.Run(export.Options{
		Output:             *output,
		FilterPreferences:  *filterPreferences,
		IncludeMemory:      *includeMemory,
		MinAssistantLength: *minAssistantLength,
		StatsOnly:          *statsOnly,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}

	cli.WriteExportStats(os.Stdout, stats)
	if !*statsOnly {
		fmt.Printf("Written %d training samples to %s\n", len(pairs), *output)
		if info, err := os.Stat(*output); err == nil {
			fmt.Printf("File size: %.1f KB\n", float64(info.Size())/1024)
		}
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = read the database directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format := parseFormat(*outputFormat)

	if *serverURL != "" {
		resp, err := getJSON[models.StatsResponse](*serverURL + "/api/v1/stats")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteStats(os.Stdout, resp, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, logger, components := mustInitialize(*configPath)
	defer logger.Sync()
	defer components.Close()

	count, err := components.Store.Count(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	resp := &models.StatsResponse{
		TotalDocuments: count,
		CollectionName: cfg.Storage.CollectionName,
		DatabasePath:   cfg.Storage.DatabasePath,
	}
	if err := cli.WriteStats(os.Stdout, resp, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func postJSON[T any](url string, body interface{}) (*T, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	resp, err := http.Post(url, "application/json", &buf)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

func getJSON[T any](url string) (*T, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// Components holds initialized services.
type Components struct {
	Store      store.Store
	Embedder   embedding.Embedder
	Ollama     *ollama.Client
	Retriever  *search.Retriever
	Syncer     *ingest.Syncer
	Classifier *classify.Classifier
}

func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	st, err := store.NewSQLiteStore(cfg.Storage.DatabasePath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	client := ollama.NewClient(&cfg.Ollama, logger)
	embedder := embedding.NewOllamaEmbedder(client, cfg.Ollama.Dimensions, cfg.Ollama.CacheSize)

	retriever := search.NewRetriever(st, embedder, client, &cfg.Knowledge, logger)
	syncer := ingest.NewSyncer(st, embedder, extract.NewExtractor(), &cfg.Knowledge, logger)
	classifier := classify.NewClassifier(client, logger)

	return &Components{
		Store:      st,
		Embedder:   embedder,
		Ollama:     client,
		Retriever:  retriever,
		Syncer:     syncer,
		Classifier: classifier,
	}, nil
}

func mustInitialize(configPath string) (*config.Config, *zap.Logger, *Components) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	return cfg, logger, components
}

func printUsage() {
	fmt.Println(`kioku - Personal knowledge RAG service

Usage:
  kioku server [flags]             Start the HTTP server
  kioku sync [flags]               Sync the knowledge tree into the store
  kioku search [flags] <query>     Vector search over knowledge units
  kioku query [flags] <question>   Ask a question with retrieved context
  kioku classify [flags] <msg>     Decide local vs. capable-path routing
  kioku export [flags]             Export training data from session logs
  kioku status [flags]             Show collection statistics
  kioku version                    Show version
  kioku help                       Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/kioku/config.yaml)
  --debug            Enable debug logging
  --no-watch         Disable file-watch resync

Search/Query/Classify/Status Flags:
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:8093). Use --server "" for direct database access.
  --output string    Output format: text or json (default: text)

Query Flags:
  --top-k int            Number of context items (default from config)
  --temperature float    Generation temperature (default 0.3)
  --system string        Override the system prompt

Export Flags:
  --output string              Output JSONL file (default: training_data.jsonl)
  --filter-preferences         Only preference-related exchanges
  --include-memory             Include memory files as training context
  --min-assistant-length int   Minimum assistant response length (default: 10)
  --stats-only                 Only print statistics

Examples:
  kioku server
  kioku sync
  kioku search "coffee preferences"
  kioku query "what's my morning routine?"
  kioku classify "good morning"
  kioku export --filter-preferences --include-memory
  kioku status --output json`)
}
