package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Raj-Vaghela/AI-Architect/config"
	"github.com/Raj-Vaghela/AI-Architect/database"
	"github.com/Raj-Vaghela/AI-Architect/index"
	"github.com/Raj-Vaghela/AI-Architect/llmclient"
	"github.com/Raj-Vaghela/AI-Architect/search"
	"github.com/Raj-Vaghela/AI-Architect/tokenizer"
	"github.com/Raj-Vaghela/AI-Architect/web"
)

func main() {
	mode := flag.String("mode", "serve", "run mode: index (build the RAG index) or serve (start the search API)")
	flag.Parse()

	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	// Initialize logger with default level to load config
	tempLogger, err := config.InitLogger("info")
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Load(tempLogger)

	// Re-initialize logger with configured level
	logger, err := config.InitLogger(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Failed to re-initialize logger with configured level: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := cfg.Validate(*mode == "index"); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := database.NewPostgresStore(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to ensure database schema", zap.Error(err))
	}

	tok := tokenizer.New(logger)
	embedder := llmclient.New(cfg, logger)

	switch *mode {
	case "index":
		runIndex(ctx, cfg, store, embedder, tok, logger)
	case "serve":
		runServe(ctx, cfg, store, embedder, logger)
	default:
		logger.Fatal("Unknown mode", zap.String("mode", *mode))
	}
}

func runIndex(ctx context.Context, cfg *config.Config, store *database.PostgresStore, embedder index.Embedder, tok *tokenizer.Adapter, logger *zap.Logger) {
	builder := index.NewBuilder(cfg, store, embedder, tok, logger)
	report, err := builder.Run(ctx)
	if err != nil {
		logger.Fatal("Index build failed", zap.Error(err))
	}
	logger.Info("Index build complete",
		zap.String("run_id", report.RunID),
		zap.Int("cards_derived", report.CardsDerived),
		zap.Int64("chunks_inserted", report.ChunksInserted),
		zap.Int("chunks_embedded", report.ChunksEmbedded),
		zap.Int("failures", len(report.Failures)))
}

func runServe(ctx context.Context, cfg *config.Config, store *database.PostgresStore, embedder index.Embedder, logger *zap.Logger) {
	service, err := search.New(cfg, store, embedder, logger)
	if err != nil {
		logger.Fatal("Failed to initialize search service", zap.Error(err))
	}

	server := web.NewServer(service, logger, cfg)
	if err := server.Start(ctx); err != nil {
		logger.Error("Web server error", zap.Error(err))
		os.Exit(1)
	}
}
