package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/marcos-nsantos/focusdeck-sync/internal/adapter/handler"
	"github.com/marcos-nsantos/focusdeck-sync/internal/infrastructure/middleware"
)

// handshakeRequestsPerMin caps the unauthenticated PAKE and pairing endpoints
// per client IP, on top of the per-account attempt limiter.
const handshakeRequestsPerMin = 20

// HealthCheck reports whether a backing service is reachable.
type HealthCheck func(ctx context.Context) error

type Router struct {
	engine         *gin.Engine
	authHandler    *handler.AuthHandler
	pairingHandler *handler.PairingHandler
	syncHandler    *handler.SyncHandler
	eventsHandler  *handler.EventsHandler
	authMiddleware *middleware.AuthMiddleware
	rateLimiter    *middleware.RateLimiter
	health         HealthCheck
	logger         *zap.Logger
}

type RouterConfig struct {
	AuthHandler    *handler.AuthHandler
	PairingHandler *handler.PairingHandler
	SyncHandler    *handler.SyncHandler
	EventsHandler  *handler.EventsHandler
	AuthMiddleware *middleware.AuthMiddleware

	// RateLimiter is optional; nil disables request rate limiting.
	RateLimiter *middleware.RateLimiter
	Health      HealthCheck
	Logger      *zap.Logger
	Environment string
}

func NewRouter(cfg RouterConfig) *Router {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	r := &Router{
		engine:         engine,
		authHandler:    cfg.AuthHandler,
		pairingHandler: cfg.PairingHandler,
		syncHandler:    cfg.SyncHandler,
		eventsHandler:  cfg.EventsHandler,
		authMiddleware: cfg.AuthMiddleware,
		rateLimiter:    cfg.RateLimiter,
		health:         cfg.Health,
		logger:         cfg.Logger,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery(r.logger))
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.Logger(r.logger))
	r.engine.Use(middleware.CORS())
	if r.rateLimiter != nil {
		r.engine.Use(r.rateLimiter.Limit())
	}
}

func (r *Router) setupRoutes() {
	r.engine.GET("/health", r.healthz)

	// Swagger documentation
	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	requireAuth := r.authMiddleware.RequireAuth()

	api := r.engine.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			pake := auth.Group("/pake", r.handshakeLimit())
			{
				pake.POST("/register/start", r.authHandler.RegisterStart)
				pake.POST("/register/finish", r.authHandler.RegisterFinish)
				pake.POST("/login/start", r.authHandler.LoginStart)
				pake.POST("/login/finish", r.authHandler.LoginFinish)
			}
			auth.POST("/refresh", r.authHandler.Refresh)
			auth.POST("/logout", requireAuth, r.authHandler.Logout)

			devices := auth.Group("/devices", requireAuth)
			{
				devices.GET("", r.authHandler.ListDevices)
				devices.POST("/revoke-all", r.authHandler.RevokeAllDevices)
				devices.POST("/:id/revoke", r.authHandler.RevokeDevice)
			}
		}

		pairing := api.Group("/pairing")
		{
			pairing.POST("/start", requireAuth, r.pairingHandler.Start)
			pairing.POST("/complete", r.handshakeLimit(), r.pairingHandler.Complete)
		}

		sync := api.Group("/sync", requireAuth)
		{
			sync.POST("/push", r.syncHandler.Push)
			sync.GET("/pull", r.syncHandler.Pull)
			sync.GET("/conflicts", r.syncHandler.ListConflicts)
			sync.GET("/conflicts/:id", r.syncHandler.GetConflict)
			sync.POST("/conflicts/:id/resolve", r.syncHandler.ResolveConflict)
		}

		api.GET("/ws", r.authMiddleware.RequireAuthQuery(), r.eventsHandler.Serve)
	}
}

func (r *Router) handshakeLimit() gin.HandlerFunc {
	if r.rateLimiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return r.rateLimiter.LimitScope("handshake", handshakeRequestsPerMin)
}

func (r *Router) healthz(c *gin.Context) {
	if r.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := r.health(ctx); err != nil {
			r.logger.Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
