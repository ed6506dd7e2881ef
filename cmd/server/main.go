package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"moodwatch/internal/config"
	"moodwatch/internal/crypto"
	"moodwatch/internal/logging"
	"moodwatch/internal/metrics"
	"moodwatch/internal/notifier"
	"moodwatch/internal/recommendation"
	"moodwatch/internal/repository"
	"moodwatch/internal/server"
	"moodwatch/internal/service"
	"moodwatch/internal/sweeper"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yml", "path to the YAML config file")
	flag.Parse()

	// .env is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	cfg, err := config.LoadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	entryRepo, db, err := openEntryStore(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open entry store", zap.String("type", cfg.Database.Type), zap.Error(err))
	}
	if db != nil {
		defer db.Close()
	}

	var sealer service.CommentSealer
	if cfg.Crypto.MasterKey != "" {
		keyManager, err := crypto.NewKeyManager(cfg.Crypto.MasterKey)
		if err != nil {
			logger.Fatal("Failed to initialize KeyManager", zap.Error(err))
		}
		sealer = keyManager
		logger.Info("Comment encryption enabled")
	}

	collector := metrics.NewCollector()
	entryService := service.NewEntryService(entryRepo, sealer, logger)
	insightsService := service.NewInsightsService(
		entryService,
		newRecommendationSource(cfg, db, logger),
		collector,
		service.InsightsConfig{
			MoodThreshold: cfg.Analysis.MoodThreshold,
			LookbackDays:  cfg.Analysis.LookbackDays,
			TrendWindow:   cfg.Analysis.TrendWindow,
			FetchTimeout:  cfg.FetchTimeout(),
		},
		logger,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Sweeper.Enabled {
		var n notifier.Notifier = notifier.NewLogNotifier(logger)
		if cfg.Notifier.Enabled {
			bot, err := notifier.NewTelegramNotifier(cfg.Notifier.TelegramBotToken, cfg.Notifier.ChatID, logger)
			if err != nil {
				logger.Warn("Failed to initialize Telegram bot, notifications go to the log", zap.Error(err))
			} else {
				n = bot
				go bot.Start(ctx)
			}
		}
		go sweeper.NewSweeper(insightsService, n, collector, cfg.SweepInterval(), logger).Run(ctx)
	}

	srv := server.NewServer(cfg, server.Deps{
		Entries:  entryService,
		Insights: insightsService,
		Metrics:  collector,
	}, logging.NewAccessLogger(cfg.Log.Level, cfg.Log.Format), logger)

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
	logger.Info("Application stopped.")
}

// openEntryStore returns the configured entry store and, for SQL stores, the database handle.
func openEntryStore(cfg *config.Config, logger *zap.Logger) (repository.EntryRepository, *sqlx.DB, error) {
	switch cfg.Database.Type {
	case config.DatabasePostgres:
		db, err := repository.NewPostgresDB(cfg.Database.URL, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := repository.MigrateDB(db, logger); err != nil {
			db.Close()
			return nil, nil, err
		}
		return repository.NewEntryRepository(db, logger), db, nil
	case config.DatabaseSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		db, err := repository.NewSQLiteDB(cfg.Database.Path, logger)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewEntryRepository(db, logger), db, nil
	case config.DatabaseCSV:
		return repository.NewCSVEntryRepository(cfg.Database.Path, logger), nil, nil
	case config.DatabaseMemory:
		return repository.NewMemoryEntryRepository(), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown database type %q", cfg.Database.Type)
}

// newRecommendationSource picks the table source when a SQL store is available.
func newRecommendationSource(cfg *config.Config, db *sqlx.DB, logger *zap.Logger) recommendation.Source {
	if cfg.Recommendations.Source == config.RecommendationsTable {
		if db != nil {
			return recommendation.NewTableSource(repository.NewRecommendationRepository(db, logger), cfg.CacheTTL(), logger)
		}
		logger.Warn("Recommendation table needs a SQL store, using built-in recommendations",
			zap.String("database_type", cfg.Database.Type))
	}
	return recommendation.NewStaticSource()
}
