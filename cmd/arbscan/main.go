package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rewired-gh/arbscan/internal/config"
	"github.com/rewired-gh/arbscan/internal/logger"
	"github.com/rewired-gh/arbscan/internal/platform"
	"github.com/rewired-gh/arbscan/internal/scanner"
	"github.com/rewired-gh/arbscan/internal/stats"
	"github.com/rewired-gh/arbscan/internal/telegram"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	store, err := newStore(cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to initialize stats storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close stats storage: %v", err)
		}
	}()

	sourceA, err := platform.New(cfg.SourceA.Kind, providerOptions(cfg.SourceA))
	if err != nil {
		logger.Fatal("Failed to initialize source A: %v", err)
	}
	sourceB, err := platform.New(cfg.SourceB.Kind, providerOptions(cfg.SourceB))
	if err != nil {
		logger.Fatal("Failed to initialize source B: %v", err)
	}
	logger.Info("Scanning %s against %s", sourceA.Name(), sourceB.Name())

	var telegramClient *telegram.Client
	if cfg.Telegram.Enabled {
		telegramClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	if telegramClient != nil {
		telegramClient.ListenForCommands(ctx)
	}

	scanCfg := scanner.Config{
		ScanInterval:          cfg.Scanner.ScanInterval,
		RecoveryInterval:      cfg.Scanner.RecoveryInterval,
		MinProfitPct:          cfg.Scanner.MinProfitPct,
		AlertCooldown:         cfg.Scanner.AlertCooldown,
		SimilarityThreshold:   cfg.Scanner.SimilarityThreshold,
		DateToleranceDays:     cfg.Scanner.DateToleranceDays,
		ResolutionHorizonDays: cfg.Scanner.ResolutionHorizonDays,
		EventLimit:            cfg.Scanner.EventLimit,
	}

	// A nil interface carrying a nil *telegram.Client would defeat the
	// scanner's sink check, so only assign when the client exists.
	var sink scanner.AlertSink
	if telegramClient != nil {
		sink = telegramClient
	}

	s := scanner.New(scanCfg, sourceA, sourceB, sink, store)
	s.Run(ctx)
	logger.Info("Service stopped")
}

func newStore(cfg config.StorageConfig) (stats.Store, error) {
	if cfg.Backend == "sqlite" {
		return stats.NewSQLiteStore(cfg.Path)
	}
	return stats.NewFileStore(cfg.Path)
}

func providerOptions(cfg config.SourceConfig) platform.Options {
	return platform.Options{
		BaseURL:        cfg.BaseURL,
		Timeout:        cfg.Timeout,
		MaxRetries:     cfg.MaxRetries,
		RetryDelayBase: cfg.RetryDelayBase,
		APIKey:         cfg.APIKey,
	}
}
