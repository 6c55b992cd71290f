package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/pulse-labs/pulse-assistant/pkg/audit"
	"github.com/pulse-labs/pulse-assistant/pkg/auth"
	"github.com/pulse-labs/pulse-assistant/pkg/catalog"
	"github.com/pulse-labs/pulse-assistant/pkg/config"
	"github.com/pulse-labs/pulse-assistant/pkg/crypto"
	"github.com/pulse-labs/pulse-assistant/pkg/database"
	"github.com/pulse-labs/pulse-assistant/pkg/handlers"
	"github.com/pulse-labs/pulse-assistant/pkg/llm"
	"github.com/pulse-labs/pulse-assistant/pkg/mcp"
	"github.com/pulse-labs/pulse-assistant/pkg/mcp/tools"
	"github.com/pulse-labs/pulse-assistant/pkg/middleware"
	"github.com/pulse-labs/pulse-assistant/pkg/repositories"
	"github.com/pulse-labs/pulse-assistant/pkg/services"
	"github.com/pulse-labs/pulse-assistant/pkg/warehouse"

	// BigQuery is always compiled in; the SQL adapters register behind
	// build tags (see adapters_postgres.go, adapters_mssql.go).
	_ "github.com/pulse-labs/pulse-assistant/pkg/warehouse/bigquery"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.Auth.SessionSecret == "" {
		logger.Fatal("SESSION_SECRET must be set")
	}

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.String("warehouse_adapter", cfg.Warehouse.Adapter),
		zap.String("assistant_model", cfg.Assistant.Model),
		zap.Bool("database_enabled", cfg.Database.Enabled),
		zap.Bool("mcp_enabled", cfg.MCP.Enabled))

	ctx := context.Background()

	cat, err := catalog.New(logger)
	if err != nil {
		logger.Fatal("Failed to load schema catalog", zap.Error(err))
	}

	// Chat history persistence is optional; the assistant runs fully
	// in-memory without it.
	var chatRepo repositories.ChatRepository
	if cfg.Database.Enabled {
		if err := runMigrations(&cfg.Database, logger); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}

		db, err := database.NewConnection(ctx, &cfg.Database)
		if err != nil {
			logger.Fatal("Failed to connect to history database", zap.Error(err))
		}
		defer db.Close()
		chatRepo = repositories.NewChatRepository(db)

		logger.Info("Chat history persistence enabled",
			zap.String("host", cfg.Database.Host),
			zap.String("database", cfg.Database.Database))
	}

	executor, err := warehouse.NewQueryExecutor(ctx, cfg.Warehouse.Adapter, warehouse.Settings{
		Project:          cfg.Warehouse.Project,
		Dataset:          cfg.Warehouse.Dataset,
		CredentialsFile:  cfg.Warehouse.CredentialsFile,
		CredentialsJSON:  cfg.Warehouse.CredentialsJSON,
		ConnectionString: cfg.Warehouse.ConnectionString,
	})
	if err != nil {
		logger.Fatal("Failed to create warehouse executor", zap.Error(err))
	}
	defer executor.Close() //nolint:errcheck

	sessionTTL := time.Duration(cfg.Auth.SessionTTLMinutes) * time.Minute
	issuer := auth.NewTokenIssuer(cfg.Auth.SessionSecret, sessionTTL)
	auth.InitSessionStore(cfg.Auth.SessionSecret, int(sessionTTL.Seconds()),
		auth.DeriveCookieSettings(cfg.BaseURL))
	authMiddleware := auth.NewMiddleware(auth.NewAuthService(issuer, logger), logger)

	auditor := audit.NewSecurityAuditor(logger)

	toolsetConfig := services.ToolsetConfig{
		MaxRows:      cfg.Warehouse.MaxRows,
		QueryTimeout: time.Duration(cfg.Warehouse.QueryTimeoutSeconds) * time.Second,
	}
	assistantDeps := services.AssistantDeps{
		RunnerFactory: llm.NewRunnerFactory(cfg.Assistant.Endpoint, cfg.Assistant.Model, logger),
		Catalog:       cat,
		Executor:      executor,
		Auditor:       auditor,
		ChatRepo:      chatRepo,
		Model:         cfg.Assistant.Model,
		Dialect:       warehouse.Dialect(cfg.Warehouse.Adapter),
		Toolset:       toolsetConfig,
		Logger:        logger,
	}

	// With Redis configured, sessions survive restarts: the registry
	// mirrors identity plus the encrypted credential and rebuilds the
	// runner on demand.
	var assistant services.AssistantService
	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	if redisClient != nil {
		encryptor, err := crypto.NewCredentialEncryptor(cfg.Auth.SessionSecret)
		if err != nil {
			logger.Fatal("Failed to create credential encryptor", zap.Error(err))
		}
		assistant = services.NewRedisBackedAssistantService(assistantDeps, cfg.Warehouse.Project,
			redisClient, encryptor, sessionTTL)

		logger.Info("Session registry mirrored to Redis",
			zap.String("host", cfg.Redis.Host),
			zap.Duration("ttl", sessionTTL))
	} else {
		assistant = services.NewAssistantService(assistantDeps, cfg.Warehouse.Project)
	}

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewAuthHandler(assistant, issuer, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewChatHandler(assistant, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewCatalogHandler(cat, logger).RegisterRoutes(mux)

	if cfg.MCP.Enabled {
		mcpServer := mcp.NewServer("pulse-assistant", cfg.Version, logger)
		tools.RegisterAssistantTools(mcpServer.MCP(), &tools.AssistantToolDeps{
			Catalog: cat,
			Toolset: services.NewToolset(uuid.Nil, cat, executor, auditor, toolsetConfig, logger),
			Logger:  logger,
		})
		mux.Handle("/mcp", middleware.MCPRequestLogger(logger)(mcpServer.NewStreamableHTTPServer()))
		logger.Info("MCP endpoint mounted", zap.String("path", "/mcp"))
	}

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting pulse-assistant",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))

	if cfg.TLSCertPath != "" && cfg.TLSKeyPath != "" {
		err = http.ListenAndServeTLS(addr, cfg.TLSCertPath, cfg.TLSKeyPath, handler)
	} else {
		err = http.ListenAndServe(addr, handler)
	}
	if err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// newLogger builds the process logger: human-readable in local
// development, JSON in deployed environments.
func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// runMigrations brings the chat history schema up to date over a
// short-lived database/sql connection; the pgx pool is opened after.
func runMigrations(cfg *config.DatabaseConfig, logger *zap.Logger) error {
	sqlDB, err := sql.Open("pgx", cfg.ConnectionString())
	if err != nil {
		return err
	}
	defer sqlDB.Close() //nolint:errcheck

	return database.RunMigrations(sqlDB, logger)
}
