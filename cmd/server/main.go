// Package main is the entry point for the audit service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	aiapp "github.com/chiragkoyande/audit-project/internal/application/ai"
	auditlogapp "github.com/chiragkoyande/audit-project/internal/application/auditlog"
	"github.com/chiragkoyande/audit-project/internal/application/auth"
	complianceapp "github.com/chiragkoyande/audit-project/internal/application/compliance"
	notificationapp "github.com/chiragkoyande/audit-project/internal/application/notification"
	syslogapp "github.com/chiragkoyande/audit-project/internal/application/syslog"
	"github.com/chiragkoyande/audit-project/internal/delivery/httpdelivery"
	"github.com/chiragkoyande/audit-project/internal/domain/compliance"
	"github.com/chiragkoyande/audit-project/internal/domain/notification"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/config"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/jwt"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/memcache"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/memqueue"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/notifier"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/openai"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/postgres"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/rabbitmq"
	redisinfra "github.com/chiragkoyande/audit-project/internal/infrastructure/redis"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/storage"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/supabase"
	"github.com/chiragkoyande/audit-project/internal/infrastructure/tracing"
	"github.com/chiragkoyande/audit-project/pkg/logger"
)

const (
	memoryCacheSize     = 1000
	memoryBlacklistSize = 10000
	defaultQueueSize    = 1000
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Service failed")
	}
}

// run contains the main application logic, separated for cleaner error handling.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Setup(cfg.Logger.Level, cfg.Logger.Format, cfg.Logger.PrettyJSON)

	log.Info().
		Str("service", cfg.App.Name).
		Str("version", cfg.App.Version).
		Str("environment", cfg.App.Env).
		Msg("Starting audit service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup tracing (optional)
	cleanupTracing := setupTracing(ctx, cfg)
	defer cleanupTracing()

	// Setup database
	db, err := setupDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	// Setup Redis (optional - graceful degradation)
	redisClient := setupRedis(cfg)
	if redisClient != nil {
		defer closeRedis(redisClient)
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	auditRepo := postgres.NewAuditLogRepository(db)
	syslogRepo := postgres.NewSystemLogRepository(db)
	reportRepo := postgres.NewReportRepository(db)
	historyRepo := postgres.NewComplianceHistoryRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	inboxRepo := postgres.NewInboxRepository(db)

	store := setupStorage(ctx, cfg)

	// Notifications
	queue := setupQueue(cfg)
	if queue != nil {
		defer closeQueue(queue)
	}
	notificationSvc := setupNotifications(cfg, notificationRepo, inboxRepo, queue)

	// Audit trail
	mirror := supabase.NewMirror(&cfg.Supabase)
	recorder := auditlogapp.NewRecordHandler(auditRepo, mirror, notificationSvc, cfg.Audit)

	// Auth
	jwtService := jwt.NewService(&cfg.JWT)
	authSvc := auth.NewService(userRepo, jwtService, setupBlacklist(redisClient), recorder)

	// Compliance
	complianceSvc, err := setupCompliance(cfg, redisClient, historyRepo, store)
	if err != nil {
		return err
	}

	// AI
	var analyzer *openai.Analyzer
	if cfg.AI.Enabled && cfg.AI.APIKey != "" {
		analyzer = openai.NewAnalyzer(&cfg.AI)
	}
	aiSvc := newAIService(analyzer, cfg.AI)

	router := httpdelivery.NewRouter(authSvc).Register(
		httpdelivery.NewAuthHandler(authSvc),
		httpdelivery.NewUserHandler(userRepo, recorder),
		httpdelivery.NewAuditLogHandler(auditRepo, recorder, exportStore(store)),
		httpdelivery.NewSystemLogHandler(syslogRepo),
		httpdelivery.NewReportHandler(reportRepo, recorder),
		httpdelivery.NewComplianceHandler(complianceSvc),
		httpdelivery.NewNotificationHandler(notificationSvc),
		httpdelivery.NewAIHandler(aiSvc),
	)

	opts := []httpdelivery.Option{
		httpdelivery.WithCORS(cfg.Server.AllowedOrigins, 0),
		httpdelivery.WithReadinessCheck("postgres", db.Health),
	}
	if redisClient != nil {
		opts = append(opts, httpdelivery.WithReadinessCheck("redis", redisClient.Ping))
	}
	if cfg.RateLimit.Enabled {
		opts = append(opts, httpdelivery.WithRateLimiter(
			httpdelivery.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.BurstSize),
		))
	}

	httpServer, err := httpdelivery.NewServer(cfg.Server, router, opts...)
	if err != nil {
		return err
	}

	events := syslogapp.NewWriter(syslogRepo)
	return startServers(ctx, cfg, httpServer, notificationSvc, events)
}

// setupTracing initializes tracing and returns a cleanup function.
func setupTracing(ctx context.Context, cfg *config.Config) func() {
	tracingProvider, err := tracing.NewProvider(ctx, &cfg.Tracing, &cfg.App)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to setup tracing, continuing without it")
		return func() {}
	}

	return func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := tracingProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Failed to shutdown tracing provider")
		}
	}
}

// setupDatabase creates a database connection and applies pending migrations.
func setupDatabase(cfg *config.Config) (*postgres.DB, error) {
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("host", cfg.Database.Host).
		Int("port", cfg.Database.Port).
		Str("database", cfg.Database.Name).
		Msg("Database connection established")

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(cfg.Database.ConnectionString()); err != nil {
			closeDatabase(db)
			return nil, err
		}
		log.Info().Msg("Database migrations applied")
	}
	return db, nil
}

// closeDatabase closes the database connection.
func closeDatabase(db *postgres.DB) {
	if err := db.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close database connection")
	}
}

// setupRedis creates a Redis connection (optional - graceful degradation).
func setupRedis(cfg *config.Config) *redisinfra.Client {
	if !cfg.Redis.Enabled {
		log.Info().Msg("Redis disabled, using in-memory cache and token blacklist")
		return nil
	}
	redisClient, err := redisinfra.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to connect to Redis, using in-memory cache and token blacklist")
		return nil
	}

	log.Info().
		Str("host", cfg.Redis.Host).
		Int("port", cfg.Redis.Port).
		Msg("Redis connection established")
	return redisClient
}

// closeRedis closes the Redis connection.
func closeRedis(client *redisinfra.Client) {
	if err := client.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close Redis connection")
	}
}

func setupBlacklist(client *redisinfra.Client) auth.TokenBlacklist {
	if client == nil {
		return memcache.NewTokenBlacklist(memoryBlacklistSize, 24*time.Hour)
	}
	return redisinfra.NewTokenBlacklist(client)
}

// setupStorage connects to object storage. A nil store makes exports and
// binary reports return the file inline.
func setupStorage(ctx context.Context, cfg *config.Config) *storage.MinIOService {
	if !cfg.Storage.Enabled {
		return nil
	}
	store, err := storage.NewMinIOService(ctx, cfg.Storage)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to connect to object storage, artifacts will be returned inline")
		return nil
	}
	log.Info().Str("endpoint", cfg.Storage.Endpoint).Str("bucket", cfg.Storage.Bucket).Msg("Object storage connected")
	return store
}

func exportStore(store *storage.MinIOService) auditlogapp.ArtifactStore {
	if store == nil {
		return nil
	}
	return store
}

func reportStore(store *storage.MinIOService) complianceapp.ArtifactStore {
	if store == nil {
		return nil
	}
	return store
}

func setupQueue(cfg *config.Config) *rabbitmq.Queue {
	if !cfg.RabbitMQ.Enabled {
		return nil
	}
	queue, err := rabbitmq.NewQueue(&cfg.RabbitMQ)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to connect to RabbitMQ, using in-memory queue")
		return nil
	}
	return queue
}

func closeQueue(queue *rabbitmq.Queue) {
	if err := queue.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close RabbitMQ connection")
	}
}

// setupNotifications builds the notification service with a sender per
// enabled channel. The in-memory queue is always present as the fallback.
func setupNotifications(
	cfg *config.Config,
	repo notification.Repository,
	inbox notification.InboxRepository,
	queue *rabbitmq.Queue,
) *notificationapp.Service {
	nc := cfg.Notification

	var senders []notification.Sender
	if nc.Email.Enabled {
		senders = append(senders, notifier.NewEmailSender(&nc.Email))
	}
	if nc.SMS.Enabled {
		senders = append(senders, notifier.NewSMSSender(&nc.SMS))
	}
	if nc.Slack.Enabled {
		senders = append(senders, notifier.NewSlackSender(&nc.Slack))
	}
	if nc.InApp.Enabled {
		senders = append(senders, notifier.NewInAppSender(inbox))
	}
	if nc.Webhook.Enabled {
		senders = append(senders, notifier.NewWebhookSender(&nc.Webhook))
	}

	size := cfg.RabbitMQ.FallbackQueue
	if size <= 0 {
		size = defaultQueueSize
	}

	opts := []notificationapp.Option{
		notificationapp.WithSenders(senders...),
		notificationapp.WithInbox(inbox),
		notificationapp.WithFallbackQueue(memqueue.New(size)),
	}
	if queue != nil {
		opts = append(opts, notificationapp.WithQueue(queue))
	}

	svc := notificationapp.NewService(repo, nc, opts...)
	log.Info().Interface("channels", svc.EnabledChannels()).Msg("Notification service configured")
	return svc
}

func setupCompliance(
	cfg *config.Config,
	redisClient *redisinfra.Client,
	history compliance.HistoryRepository,
	store *storage.MinIOService,
) (*complianceapp.Service, error) {
	sets, err := compliance.DefaultRuleSets()
	if err != nil {
		return nil, err
	}

	var cache compliance.Cache
	switch {
	case !cfg.Compliance.CacheResults:
	case redisClient != nil:
		cache = redisinfra.NewComplianceCache(redisClient)
	default:
		cache = memcache.NewComplianceCache(cacheSize(cfg.Compliance.CacheSize), cfg.Compliance.CacheTTL)
	}

	return complianceapp.NewService(compliance.NewEngine(sets), cache, history, reportStore(store), cfg.Compliance), nil
}

func cacheSize(n int) int {
	if n <= 0 {
		return memoryCacheSize
	}
	return n
}

func newAIService(analyzer *openai.Analyzer, cfg config.AIConfig) *aiapp.Service {
	if analyzer == nil {
		return aiapp.NewService(nil, cfg)
	}
	return aiapp.NewService(analyzer, cfg)
}

// startServers starts the HTTP server and the notification worker and
// handles graceful shutdown.
func startServers(
	ctx context.Context,
	cfg *config.Config,
	httpServer *httpdelivery.Server,
	notificationSvc *notificationapp.Service,
	events *syslogapp.Writer,
) error {
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()

	go notificationSvc.Run(workerCtx)

	go func() {
		if err := httpServer.Start(ctx); err != nil {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	if _, err := events.Info(ctx, "server", "Audit service started",
		syslogapp.WithData(map[string]interface{}{"version": cfg.App.Version, "port": cfg.Server.HTTPPort})); err != nil {
		log.Warn().Err(err).Msg("Failed to write startup system log")
	}

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down servers...")

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	stopWorker()

	if _, err := events.Info(shutdownCtx, "server", "Audit service stopped"); err != nil {
		log.Warn().Err(err).Msg("Failed to write shutdown system log")
	}

	log.Info().Msg("Server shutdown complete")
	return nil
}
