package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"playdrive/internal/auth"
	"playdrive/internal/config"
	"playdrive/internal/events"
	"playdrive/internal/handler"
	"playdrive/internal/middleware"
	"playdrive/internal/repository/postgres"
	"playdrive/internal/service/drive"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logOutput := os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, cfg.LogMaxFiles)
		if err != nil {
			log.Fatalf("Failed to setup log file: %v", err)
		}
		defer logFile.Close()
		logOutput = logFile
	}

	logger := slog.New(slog.NewJSONHandler(logOutput, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create JWT verifier
	if cfg.JWKSURL == "" {
		log.Fatal("AUTH_URL must be set so tokens can be verified against the identity provider's JWKS")
	}
	jwtVerifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected")

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	// Create repositories
	nodeStore := postgres.NewNodeStore(&postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	})

	// Create the notification bus and the drive service
	bus := events.NewBus(logger)
	driveService := drive.NewDriveService(nodeStore, bus, logger)

	// Session cache for verified tokens and provisioned roots
	sessions := auth.NewSessionCache()
	defer sessions.Flush()

	logger.Info("services initialized")

	// Create handlers
	nodeHandler := handler.NewNodeHandler(driveService, logger)
	folderHandler := handler.NewFolderHandler(driveService, logger)
	wsHandler := handler.NewWSHandler(bus, strings.Split(cfg.CORSOrigins, ","), logger)

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", nodeHandler.HealthCheck)

	// Node routes
	mux.HandleFunc("GET /api/nodes", nodeHandler.FindNodes)
	mux.HandleFunc("DELETE /api/nodes", nodeHandler.DeleteNodes)
	mux.HandleFunc("PATCH /api/nodes/{id}", nodeHandler.UpdateNode)

	// Folder routes
	mux.HandleFunc("POST /api/folders", folderHandler.CreateFolder)
	mux.HandleFunc("GET /api/folders/{id}", folderHandler.GetFolderFamily)
	mux.HandleFunc("PUT /api/folders/move", nodeHandler.MoveNodes)

	// Leaf routes
	mux.HandleFunc("POST /api/leaves", nodeHandler.CreateLeaf)

	// Real-time notifications
	mux.HandleFunc("GET /ws", wsHandler.Serve)

	// Build middleware chain
	// Order: CORS → Recovery → Auth → Routes
	var root http.Handler = mux
	root = middleware.Auth(jwtVerifier, sessions, driveService, logger)(root)
	root = middleware.Recovery(logger)(root)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     root,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout stays disabled for long-lived websocket connections
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-shutdown
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
