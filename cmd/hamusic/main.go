// Package main provides the hamusic service entry point.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"hamusic/internal/catalog"
	"hamusic/internal/core"
	httpserver "hamusic/internal/http"
	"hamusic/internal/importer"
	"hamusic/internal/player"
	"hamusic/internal/store"
	"hamusic/internal/youtube"
)

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "hamusic",
	Short: "hamusic - artist catalog with TV playback",
	Long: `hamusic is a small catalog service that stores artist records with one
YouTube video each, resolves YouTube links into video metadata, and plays an
artist's video on a media-player device via Home Assistant.`,
	RunE: runServe,
}

var seedCmd = &cobra.Command{
	Use:   "seed <file>",
	Short: "Bulk-import artists from a JSON file of {name, url} entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeed,
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
	rootCmd.PersistentFlags().String("store-path", "./hamusic.db", "path to the key-value store database")
	rootCmd.PersistentFlags().String("youtube-api-key", "", "YouTube Data API key")
	rootCmd.PersistentFlags().Float64("youtube-requests-per-sec", 5, "YouTube API rate limit")
	rootCmd.PersistentFlags().Int("youtube-cache-size", 1024, "Resolved video cache capacity")
	rootCmd.PersistentFlags().String("player-url", "", "Media-player service base URL (Home Assistant API)")
	rootCmd.PersistentFlags().String("player-token", "", "Media-player service bearer token")
	rootCmd.PersistentFlags().String("player-entity-id", "media_player.apple_tv", "Media-player device entity id")
	rootCmd.PersistentFlags().String("server-host", "0.0.0.0", "HTTP server host")
	rootCmd.PersistentFlags().Int("server-port", 8080, "HTTP server port")
	rootCmd.PersistentFlags().String("server-base-path", "/api", "Base path the API is mounted under")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}

	rootCmd.AddCommand(seedCmd)
}

func initConfig() {
	envFile := ".env"
	if cfgFile != "" {
		envFile = cfgFile
	}

	if err := gotenv.Load(envFile); err != nil {
		// A missing .env is fine; anything else is worth a warning.
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		}
	}

	viper.SetEnvPrefix("HAMUSIC")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	config = buildConfig()
	logger = buildLogger(config.Log.Level)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	cfg.Store.Path = viper.GetString("store-path")
	if cfg.Store.Path == "" {
		cfg.Store.Path = "./hamusic.db"
	}

	cfg.YouTube.APIKey = viper.GetString("youtube-api-key")
	if rps := viper.GetFloat64("youtube-requests-per-sec"); rps > 0 {
		cfg.YouTube.RequestsPerSec = rps
	}
	if size := viper.GetInt("youtube-cache-size"); size > 0 {
		cfg.YouTube.CacheSize = size
	}

	cfg.Player.BaseURL = viper.GetString("player-url")
	cfg.Player.Token = viper.GetString("player-token")
	if entity := viper.GetString("player-entity-id"); entity != "" {
		cfg.Player.EntityID = entity
	}

	if host := viper.GetString("server-host"); host != "" {
		cfg.Server.Host = host
	}
	if port := viper.GetInt("server-port"); port != 0 {
		cfg.Server.Port = port
	}
	if basePath := viper.GetString("server-base-path"); basePath != "" {
		cfg.Server.BasePath = basePath
	}

	cfg.Log.Level = viper.GetString("log-level")
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

type services struct {
	kv         store.KeyValueStore
	repo       *catalog.Repository
	youtube    *youtube.Client
	dispatcher *player.Dispatcher
	importer   *importer.Importer
	httpServer *httpserver.Server
}

func initializeServices() (*services, error) {
	kv, err := store.OpenSQLite(config.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	repo := catalog.NewRepository(kv, logger.Named("catalog"))
	cache := store.NewVideoCache(config.YouTube.CacheSize, 0.001)
	yt := youtube.NewClient(&config.YouTube, cache, logger.Named("youtube"))
	dispatcher := player.NewDispatcher(&config.Player, logger.Named("player"))
	imp := importer.NewImporter(repo, yt, logger.Named("importer"))
	httpServer := httpserver.NewServer(&config.Server, repo, yt, dispatcher, imp,
		logger.Named("http"))

	return &services{
		kv:         kv,
		repo:       repo,
		youtube:    yt,
		dispatcher: dispatcher,
		importer:   imp,
		httpServer: httpServer,
	}, nil
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting hamusic",
		zap.String("store_path", config.Store.Path),
		zap.String("player_entity", config.Player.EntityID),
		zap.Bool("youtube_key_set", config.YouTube.APIKey != ""))

	svcs, err := initializeServices()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := svcs.kv.Close(); closeErr != nil {
			logger.Warn("Failed to close store", zap.Error(closeErr))
		}
	}()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return svcs.httpServer.Start(gCtx)
	})

	logger.Info("hamusic started successfully",
		zap.String("http_addr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)))

	if err := g.Wait(); err != nil {
		logger.Error("hamusic stopped with error", zap.Error(err))
		return err
	}

	logger.Info("hamusic stopped gracefully")
	return nil
}

func runSeed(_ *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var entries []importer.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	svcs, err := initializeServices()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := svcs.kv.Close(); closeErr != nil {
			logger.Warn("Failed to close store", zap.Error(closeErr))
		}
	}()

	report, err := svcs.importer.Run(ctx, entries)
	if err != nil {
		return fmt.Errorf("seed import failed: %w", err)
	}

	logger.Info("Seed import finished",
		zap.Int("added", len(report.Added)),
		zap.Int("skipped", report.Skipped))
	return nil
}
