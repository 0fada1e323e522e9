package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver for migrations
	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/agent"
	"github.com/askdb-io/askdb-engine/pkg/config"
	"github.com/askdb-io/askdb-engine/pkg/crypto"
	"github.com/askdb-io/askdb-engine/pkg/database"
	"github.com/askdb-io/askdb-engine/pkg/dialect"
	"github.com/askdb-io/askdb-engine/pkg/handlers"
	"github.com/askdb-io/askdb-engine/pkg/llm"
	"github.com/askdb-io/askdb-engine/pkg/logging"
	"github.com/askdb-io/askdb-engine/pkg/schema"
	"github.com/askdb-io/askdb-engine/pkg/stores"
	"github.com/sashabaranov/go-openai"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", cfg.Database.Host),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model))

	ctx := context.Background()

	// Engine store and migrations.
	migrationDB, err := sql.Open("pgx", cfg.Database.URL())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = migrationDB.Close()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.URL(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to engine store", zap.Error(err))
	}
	defer db.Close()

	encryptor, err := crypto.NewCredentialEncryptor(cfg.CredentialsKey)
	if err != nil {
		logger.Fatal("Failed to create credential encryptor", zap.Error(err))
	}

	connectionStore := stores.NewConnectionStore(db.Pool, encryptor)
	schemaStore := stores.NewSchemaStore(db.Pool)
	chatStore := stores.NewChatStore(db.Pool)
	schemaProvider := schema.NewProvider(schemaStore, logger)

	llmConfig := &llm.Config{
		Endpoint: cfg.LLM.Endpoint,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
	}
	client, err := llm.NewFromProvider(cfg.LLM.Provider, llmConfig, logger)
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}
	var rawOpenAI *openai.Client
	if oc, ok := client.(*llm.OpenAIClient); ok {
		rawOpenAI = oc.Raw()
	}

	orchestrator := agent.New(&agent.Config{
		Connections: connectionStore,
		Snapshots:   schemaStore,
		Chats:       chatStore,
		Schemas:     schemaProvider,
		Client:      client,
		OpenAI:      rawOpenAI,
		Model:       cfg.LLM.Model,
		Pool: dialect.PoolConfig{
			MaxConns:       cfg.Datasource.PoolMaxConns,
			IdleTimeout:    time.Duration(cfg.Datasource.IdleTimeoutMinutes) * time.Minute,
			ConnectTimeout: time.Duration(cfg.Datasource.ConnectTimeoutSecs) * time.Second,
		},
		Local:  cfg.IsLocal(),
		Logger: logger,
	})

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewQuestionHandler(orchestrator, logger).RegisterRoutes(mux)

	server := &http.Server{
		Addr:         cfg.BindAddr + ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}

	go func() {
		logger.Info("Starting askdb-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Graceful shutdown failed", zap.Error(err))
	}
}
