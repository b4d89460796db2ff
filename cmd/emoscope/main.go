package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/openmood/emoscope/internal/classifier"
	"github.com/openmood/emoscope/internal/cli"
	"github.com/openmood/emoscope/internal/config"
	"github.com/openmood/emoscope/internal/db"
	"github.com/openmood/emoscope/internal/httpserver"
	"github.com/openmood/emoscope/internal/imagestore"
	"github.com/openmood/emoscope/internal/repository"
	"github.com/openmood/emoscope/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("EMOSCOPE_CONFIG"))
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var images *imagestore.Store
	if cfg.Images.Enabled {
		images, err = imagestore.New(cfg.Images.Dir)
		if err != nil {
			return err
		}
	}

	cls := newClassifier(cfg.Classifier)

	observer := service.NewSlogObserver(logger)
	sessionSvc := service.NewSessionService(store, cls, images, observer, logger)
	resultsSvc := service.NewResultsService(store, observer)
	systemSvc := service.NewSystemService(store, cls)

	server := httpserver.New(httpserver.Config{
		Addr:           cfg.HTTP.Addr,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		MaxUploadBytes: cfg.HTTP.MaxUploadMB << 20,
	}, sessionSvc, resultsSvc, systemSvc, logger)

	app := &cli.App{
		Sessions: sessionSvc,
		Results:  resultsSvc,
		System:   systemSvc,
		Server:   server,
		Logger:   logger,
	}

	return cli.NewRootCmd(app).Execute()
}

func openStore(cfg *config.Config) (repository.Store, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		store, err := repository.ConnectPostgres(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		return store, store.Close, nil
	default:
		database, err := db.OpenDB(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		return repository.NewSQLiteStore(database), func() { _ = database.Close() }, nil
	}
}

func newClassifier(cfg config.ClassifierConfig) classifier.Classifier {
	if cfg.Endpoint == "" {
		return classifier.NewStaticClassifier()
	}
	return classifier.NewHTTPClassifier(classifier.Config{
		Endpoint:   cfg.Endpoint,
		Timeout:    time.Duration(cfg.TimeoutMs) * time.Millisecond,
		MaxRetries: cfg.MaxRetries,
	})
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	// Text output for terminals, JSON for everything else.
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
