// Package main provides the tracksnag CLI application entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"tracksnag/internal/core"
	httpserver "tracksnag/internal/http"
	"tracksnag/internal/spotify"
	"tracksnag/internal/store"
	"tracksnag/internal/tag"
	"tracksnag/internal/ytdlp"
)

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tracksnag",
	Short: "tracksnag - Spotify link to local audio resolver",
	Long: `tracksnag resolves Spotify track links into local audio files. It looks up
track metadata, probes several media backends for matching uploads, ranks the
candidates by duration proximity, and downloads the best match into a local
library with proper tags.`,
	RunE: runServe,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <track-url>",
	Short: "Resolve a single track link and exit",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("spotify-client-id", "", "Spotify client ID")
	rootCmd.PersistentFlags().String("spotify-client-secret", "", "Spotify client secret")
	rootCmd.PersistentFlags().String("work-dir", "./work", "scratch directory for in-flight downloads")
	rootCmd.PersistentFlags().String("library-dir", "./library", "directory finished tracks are moved into")
	rootCmd.PersistentFlags().String("history-path", "./tracksnag_history.db", "path of the resolution history database")
	rootCmd.PersistentFlags().String("audio-format", "mp3", "audio format passed to yt-dlp")
	rootCmd.PersistentFlags().String("cookies-browser", "", "browser to read yt-dlp cookies from")
	rootCmd.PersistentFlags().Int("search-results", 5, "results requested per search expression")
	rootCmd.PersistentFlags().Int("search-concurrency", 3, "concurrent backend probes")
	rootCmd.PersistentFlags().Int("server-port", 8080, "HTTP server port")

	rootCmd.AddCommand(resolveCmd)

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(".env")
		viper.SetConfigType("env")
	}

	viper.SetEnvPrefix("TRACKSNAG")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}

	config = buildConfig()
	logger = buildLogger(config.Log.Level)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	cfg.Spotify.ClientID = viper.GetString("spotify-client-id")
	cfg.Spotify.ClientSecret = viper.GetString("spotify-client-secret")
	if size := viper.GetInt("spotify-cache-size"); size > 0 {
		cfg.Spotify.CacheSize = size
	}

	if results := viper.GetInt("search-results"); results > 0 {
		cfg.Search.ResultsPerQuery = results
	}
	if concurrency := viper.GetInt("search-concurrency"); concurrency > 0 {
		cfg.Search.Concurrency = concurrency
	}
	if timeout := viper.GetDuration("probe-timeout"); timeout > 0 {
		cfg.Search.ProbeTimeout = timeout
	}

	if format := viper.GetString("audio-format"); format != "" {
		cfg.Fetch.AudioFormat = format
	}
	cfg.Fetch.CookiesBrowser = viper.GetString("cookies-browser")
	if timeout := viper.GetDuration("fetch-timeout"); timeout > 0 {
		cfg.Fetch.FetchTimeout = timeout
	}

	if host := viper.GetString("server-host"); host != "" {
		cfg.Server.Host = host
	}
	if port := viper.GetInt("server-port"); port > 0 {
		cfg.Server.Port = port
	}

	if path := viper.GetString("history-path"); path != "" {
		cfg.Store.HistoryPath = path
	}

	cfg.Log.Level = viper.GetString("log-level")

	if dir := viper.GetString("work-dir"); dir != "" {
		cfg.App.WorkDir = dir
	}
	if dir := viper.GetString("library-dir"); dir != "" {
		cfg.App.LibraryDir = dir
	}

	return cfg
}

func buildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

func validateConfig() error {
	if config.Spotify.ClientID == "" {
		return fmt.Errorf("spotify client ID is required")
	}

	if config.Spotify.ClientSecret == "" {
		return fmt.Errorf("spotify client secret is required")
	}

	return nil
}

// buildResolver wires the full pipeline and returns the resolver plus the
// history store, which the caller must close.
func buildResolver() (*core.Resolver, *store.History, error) {
	if err := os.MkdirAll(config.App.WorkDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating work directory: %w", err)
	}
	if err := os.MkdirAll(config.App.LibraryDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating library directory: %w", err)
	}

	spotifyClient, err := spotify.NewClient(&config.Spotify, logger.Named("spotify"))
	if err != nil {
		return nil, nil, fmt.Errorf("creating spotify client: %w", err)
	}

	provider, err := store.NewCachedProvider(spotifyClient, config.Spotify.CacheSize, logger.Named("cache"))
	if err != nil {
		return nil, nil, fmt.Errorf("creating metadata cache: %w", err)
	}

	history, err := store.OpenHistory(config.Store.HistoryPath, logger.Named("history"))
	if err != nil {
		return nil, nil, fmt.Errorf("opening history ledger: %w", err)
	}

	backend := ytdlp.New(config.Fetch, logger.Named("ytdlp"))
	tagger := tag.NewWriter(logger.Named("tag"))

	resolver := core.NewResolver(
		config,
		provider,
		backend,
		tagger,
		history,
		logger.Named("resolver"),
	)

	return resolver, history, nil
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting tracksnag",
		zap.String("library_dir", config.App.LibraryDir),
		zap.String("history_path", config.Store.HistoryPath))

	if err := validateConfig(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	resolver, history, err := buildResolver()
	if err != nil {
		return err
	}
	defer history.Close()

	httpServer := httpserver.NewServer(&config.Server, resolver, history, logger.Named("http"))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return httpServer.Start(gCtx)
	})

	logger.Info("tracksnag started successfully",
		zap.String("http_addr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)))

	if err := g.Wait(); err != nil {
		logger.Error("tracksnag stopped with error", zap.Error(err))
		return err
	}

	logger.Info("tracksnag stopped gracefully")
	return nil
}

func runResolve(_ *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := validateConfig(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	resolver, history, err := buildResolver()
	if err != nil {
		return err
	}
	defer history.Close()

	start := time.Now()
	result, err := resolver.ResolveLink(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Resolved in %s after %d attempt(s)\n", time.Since(start).Round(time.Millisecond), result.Attempts)
	fmt.Println(result.Artifact.Path)
	return nil
}
