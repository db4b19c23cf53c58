package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"docvault/internal/auth"
	"docvault/internal/capabilities"
	"docvault/internal/cleanup"
	"docvault/internal/config"
	"docvault/internal/database"
	"docvault/internal/events"
	"docvault/internal/handler"
	"docvault/internal/middleware"
	"docvault/internal/repository/postgres"
	postgresAccess "docvault/internal/repository/postgres/access"
	postgresDocsys "docvault/internal/repository/postgres/docsystem"
	serviceAccess "docvault/internal/service/access"
	"docvault/internal/service/audit"
	serviceAuth "docvault/internal/service/auth"
	serviceDocsys "docvault/internal/service/docsystem"
	serviceEditor "docvault/internal/service/editor"
	"docvault/internal/storage"
	"docvault/internal/throttle"
	"docvault/internal/worker"
)

const (
	// maxLogFiles is how many rotated log files LOG_DIR keeps
	maxLogFiles = 10

	// cleanupQueueSize bounds pending blob deletes before callers fall back
	// to the Redis retry set
	cleanupQueueSize = 256

	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	var logOutput io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.OpenLogFile(cfg.LogDir, maxLogFiles)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer logFile.Close()
		logOutput = io.MultiWriter(os.Stdout, logFile)
	}

	logger := cfg.NewLogger(logOutput)
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Bearer token verification
	jwtVerifier, err := auth.NewJWTVerifier(auth.VerifierConfig{
		Secret:  cfg.JWTSecret,
		JWKSURL: cfg.JWTJWKSURL,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// PostgreSQL
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()
	logger.Info("database connected", "max_conns", 25, "min_conns", 5)

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.ApplySchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	// Redis: share password lockout and the blob cleanup retry set
	redisClient, err := database.ConnectRedis(ctx, database.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	// Object storage
	blobStore, err := storage.NewMinioStorage(ctx, storage.Config{
		Endpoint:       cfg.MinioEndpoint,
		PublicEndpoint: cfg.MinioPublicEndpoint,
		AccessKey:      cfg.MinioAccessKey,
		SecretKey:      cfg.MinioSecretKey,
		Bucket:         cfg.MinioBucket,
		Region:         cfg.MinioRegion,
		UseSSL:         cfg.MinioUseSSL,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}

	// Domain events (no-op without AMQP_URL)
	publisher, err := events.NewAMQPPublisher(cfg.AMQPURL, logger)
	if err != nil {
		log.Fatalf("Failed to connect to rabbitmq: %v", err)
	}
	defer publisher.Close()

	// Background blob cleanup
	workerPool := worker.NewPool(cfg.CleanupWorkers, cleanupQueueSize, logger)
	cleaner := cleanup.NewCleaner(workerPool, blobStore, redisClient, logger)
	go cleaner.Run(ctx, cfg.CleanupInterval)

	// Editor format table
	formats, err := capabilities.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to initialize format registry: %v", err)
	}
	logger.Info("format registry initialized", "extensions", len(formats.Extensions()))

	// Repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	docRepo := postgresDocsys.NewDocumentRepository(repoConfig)
	versionRepo := postgresDocsys.NewVersionRepository(repoConfig)
	logRepo := postgresDocsys.NewAccessLogRepository(repoConfig)
	searchIndex := postgresDocsys.NewSearchIndex(repoConfig)
	permRepo := postgresAccess.NewPermissionRepository(repoConfig)
	linkRepo := postgresAccess.NewShareLinkRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	// Authorization
	resolver := serviceAuth.NewPermissionResolver(permRepo, logger)
	gateway := serviceAuth.NewGateway(docRepo, resolver, logger)

	// Services
	recorder := audit.NewRecorder(logRepo, publisher, logger)
	limiter := throttle.NewRedisLimiter(redisClient, "docvault:share:pw", cfg.SharePasswordMaxAttempts, cfg.SharePasswordLockout)

	docService := serviceDocsys.NewDocumentService(docRepo, versionRepo, logRepo, searchIndex, txManager, gateway, blobStore, recorder, logger)
	lifecycleService := serviceDocsys.NewLifecycleService(docRepo, versionRepo, searchIndex, txManager, gateway, blobStore, cleaner, recorder, logger)
	permService := serviceAccess.NewPermissionService(permRepo, docRepo, resolver, gateway, recorder, logger)
	shareService := serviceAccess.NewShareService(linkRepo, docRepo, gateway, blobStore, limiter, recorder, logger)
	editorService := serviceEditor.NewEditorService(docRepo, gateway, resolver, blobStore, lifecycleService, formats, nil, serviceEditor.Config{
		AppURL:            cfg.AppURL,
		JWTSecret:         cfg.OnlyOfficeJWTSecret,
		DocumentServerURL: cfg.OnlyOfficeServer,
	}, logger)
	if cfg.OnlyOfficeJWTSecret == "" {
		logger.Warn("ONLYOFFICE_JWT_SECRET is empty, editor callbacks are not authenticated")
	}

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, &handler.Handlers{
		Documents:   handler.NewDocumentHandler(docService, lifecycleService, logger),
		Folders:     handler.NewFolderHandler(docService, logger),
		Permissions: handler.NewPermissionHandler(permService, logger),
		Shares:      handler.NewShareHandler(shareService, logger),
		Search:      handler.NewSearchHandler(docService, logger),
		Editor:      handler.NewEditorHandler(editorService, logger),
		Health: handler.NewHealthHandler(map[string]handler.HealthCheck{
			"postgres": pool.Ping,
			"redis":    func(ctx context.Context) error { return redisPing(ctx, redisClient) },
			"storage":  blobStore.Ping,
		}),
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Metrics → Auth → Routes
	h = middleware.AuthMiddleware(jwtVerifier, logger)(h)
	h = middleware.Metrics(mux, logger)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", handler.SharePasswordHeader},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  5 * time.Minute, // uploads up to 100MB
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	// Drain queued blob deletes before the storage and redis clients close
	workerPool.Shutdown(shutdownCtx)
	logger.Info("server stopped")
}

func redisPing(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}
