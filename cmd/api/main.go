package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/cache"
	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/handler"
	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/publisher"
	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/repository/postgres"
	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/storage"
	"github.com/marcos-nsantos/focusdeck-sync/internal/infrastructure/auth"
	cacheImpl "github.com/marcos-nsantos/focusdeck-sync/internal/infrastructure/cache"
	"github.com/marcos-nsantos/focusdeck-sync/internal/infrastructure/config"
	"github.com/marcos-nsantos/focusdeck-sync/internal/infrastructure/database"
	"github.com/marcos-nsantos/focusdeck-sync/internal/infrastructure/events"
	"github.com/marcos-nsantos/focusdeck-sync/internal/infrastructure/middleware"
	"github.com/marcos-nsantos/focusdeck-sync/internal/infrastructure/observability"
	"github.com/marcos-nsantos/focusdeck-sync/internal/infrastructure/server"
	s3Archive "github.com/marcos-nsantos/focusdeck-sync/internal/infrastructure/storage"
	"github.com/marcos-nsantos/focusdeck-sync/internal/usecase/conflict"
	"github.com/marcos-nsantos/focusdeck-sync/internal/usecase/device"
	"github.com/marcos-nsantos/focusdeck-sync/internal/usecase/pairing"
	"github.com/marcos-nsantos/focusdeck-sync/internal/usecase/pake"
	"github.com/marcos-nsantos/focusdeck-sync/internal/usecase/prune"
	"github.com/marcos-nsantos/focusdeck-sync/internal/usecase/session"
	"github.com/marcos-nsantos/focusdeck-sync/internal/usecase/sync"
)

//	@title						FocusDeck Sync API
//	@version					1.0
//	@description				Device sync backend with SRP login, device pairing and conflict resolution.
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPostgresPool(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(ctx, pool); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Redis is optional. Without it handshakes live in process memory and
	// events reach only sockets held by this instance.
	var (
		redisClient *redis.Client
		handshakes  cache.HandshakeStore = cacheImpl.NewMemoryHandshakeStore()
	)
	if cfg.Redis.Enabled {
		redisClient, err = cacheImpl.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		handshakes = cacheImpl.NewRedisHandshakeStore(redisClient, "pake:")
	}

	hub := events.NewHub(logger)
	var pub publisher.EventPublisher = hub
	if redisClient != nil {
		broker := events.NewRedisBroker(redisClient, cfg.Redis.EventsChannel, hub, logger)
		go func() {
			if err := broker.Run(ctx, nil); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("event broker stopped", zap.Error(err))
			}
		}()
		pub = broker
	}

	var archive storage.ConflictArchive = storage.NopArchive{}
	if cfg.S3.ArchiveEnabled {
		archive, err = s3Archive.NewS3ConflictArchive(ctx, cfg.S3)
		if err != nil {
			logger.Fatal("failed to create conflict archive", zap.Error(err))
		}
	}

	// Repositories
	credentialRepo := postgres.NewCredentialRepo(pool)
	deviceRepo := postgres.NewDeviceRepo(pool)
	refreshTokenRepo := postgres.NewRefreshTokenRepo(pool)
	pairingRepo := postgres.NewPairingRepo(pool)
	changeRepo := postgres.NewChangeRepo(pool)
	conflictRepo := postgres.NewConflictRepo(pool)
	limiter := postgres.NewAttemptLimiter(pool, cfg.AuthLimit.Window, cfg.AuthLimit.MaxFailures, cfg.AuthLimit.BlockFor)

	// Infrastructure services
	jwtSvc := auth.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL, cfg.JWT.Issuer)

	// Use cases
	deviceSvc := device.NewService(deviceRepo, refreshTokenRepo, pub, cfg.Device.TTL, logger)
	sessionSvc := session.NewService(deviceRepo, refreshTokenRepo, deviceSvc, jwtSvc, cfg.JWT.RefreshTokenTTL, logger)
	pakeSvc := pake.NewService(credentialRepo, handshakes, limiter, pake.Config{
		ServerSecret:   []byte(cfg.Pake.ServerSecret),
		SessionTTL:     cfg.Pake.SessionTTL,
		KDFTime:        cfg.Pake.KDFTime,
		KDFMemoryKiB:   cfg.Pake.KDFMemoryKiB,
		KDFParallelism: cfg.Pake.KDFParallelism,
	}, logger)
	pairingSvc := pairing.NewService(pairingRepo, sessionSvc, deviceSvc, pairing.Config{
		CodeTTL:        cfg.Pairing.CodeTTL,
		CodeLength:     cfg.Pairing.CodeLength,
		MaxAttempts:    cfg.Pairing.MaxAttempts,
		DeepLinkScheme: cfg.Pairing.DeepLinkScheme,
		DeviceTTL:      cfg.Device.TTL,
	}, logger)
	syncSvc := sync.NewService(changeRepo, conflictRepo, pub, sync.Config{
		PullDefaultLimit: cfg.Sync.PullDefaultLimit,
		PullMaxLimit:     cfg.Sync.PullMaxLimit,
		MaxPushBatch:     cfg.Sync.MaxPushBatch,
	}, logger)
	conflictSvc := conflict.NewService(conflictRepo, archive, logger)

	go prune.NewWorker(pairingRepo, refreshTokenRepo, limiter, cfg.Prune.Interval, cfg.Prune.Retention, logger).Run(ctx)

	// Handlers
	authHandler := handler.NewAuthHandler(pakeSvc, deviceSvc, sessionSvc)
	pairingHandler := handler.NewPairingHandler(pairingSvc)
	syncHandler := handler.NewSyncHandler(syncSvc, conflictSvc)
	eventsHandler := handler.NewEventsHandler(hub, logger)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtSvc, deviceSvc)
	var rateLimiter *middleware.RateLimiter
	if redisClient != nil && cfg.RateLimit.Enabled {
		rateLimiter = middleware.NewRateLimiter(redisClient, cfg.RateLimit, logger)
	}

	// Router
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:    authHandler,
		PairingHandler: pairingHandler,
		SyncHandler:    syncHandler,
		EventsHandler:  eventsHandler,
		AuthMiddleware: authMiddleware,
		RateLimiter:    rateLimiter,
		Health:         pool.Ping,
		Logger:         logger,
		Environment:    cfg.Server.Environment,
	})

	// Server
	srv := server.NewServer(server.ServerConfig{
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Handler:         router.Engine(),
		Logger:          logger,
	})

	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return
	}
	logger.Info("server stopped")
}
