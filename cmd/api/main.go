package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eduhub/eduhub-backend/internal/api"
	"github.com/eduhub/eduhub-backend/internal/cache"
	"github.com/eduhub/eduhub-backend/internal/config"
	"github.com/eduhub/eduhub-backend/internal/crypto"
	"github.com/eduhub/eduhub-backend/internal/jobs"
	"github.com/eduhub/eduhub-backend/internal/log"
	"github.com/eduhub/eduhub-backend/internal/metrics"
	"github.com/eduhub/eduhub-backend/internal/session"
	"github.com/eduhub/eduhub-backend/internal/store"
	"github.com/eduhub/eduhub-backend/internal/ws"
)

const demoPassword = "demo123"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := log.NewSugar(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Infow("Starting EduHub API server",
		"env", cfg.Env,
		"addr", cfg.HTTPAddr,
		"version", "v1.0.0",
	)

	// Setup metrics
	metricsObj, metricsHandler, err := metrics.Setup("eduhub-api")
	if err != nil {
		logger.Fatalw("Failed to setup metrics", "error", err)
	}

	// Authoritative in-memory store
	memStore := store.NewMemStore()

	demoHash, err := crypto.HashPassword(demoPassword, cfg.Session.BcryptCost)
	if err != nil {
		logger.Fatalw("Failed to hash demo password", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if cfg.IsDev() {
		if err := store.Seed(ctx, memStore, demoHash); err != nil {
			logger.Fatalw("Failed to seed store", "error", err)
		}
		logger.Infow("Development fixtures seeded")
	}

	// Setup session cache (Redis with in-memory fallback)
	sessionCache, err := cache.New(cfg.Cache.RedisAddr, logger, metricsObj)
	if err != nil {
		logger.Fatalw("Failed to setup cache", "error", err)
	}
	defer sessionCache.Close()

	if err := sessionCache.Ping(ctx); err != nil {
		logger.Fatalw("Cache ping failed", "error", err)
	}
	logger.Infow("Cache connection established", "in_memory", sessionCache.IsInMemoryMode())

	// Session manager
	sessions := session.NewManager(memStore, sessionCache, logger, metricsObj, session.Options{
		TTL:              cfg.Session.TTL,
		DemoTTL:          cfg.Session.DemoTTL,
		DemoWarning:      cfg.Session.DemoWarning,
		DemoPasswordHash: demoHash,
		Clock:            session.SystemClock(),
	})

	// Setup WebSocket hub
	wsHub := ws.NewHub(logger, metricsObj, cfg.Security.CORSAllowedOrigins)

	// Expired demo sessions push session.expired to open sockets
	sessions.OnExpire(func(token string, userID int) {
		wsHub.NotifySessionExpired(userID)
	})

	// Create context for background services
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()

	go wsHub.Run(hubCtx)

	// Demo session reaper ticks every second
	reaper := jobs.NewDemoReaper(sessions, logger, time.Second)
	go func() {
		if err := reaper.Start(hubCtx); err != nil && err != context.Canceled {
			logger.Errorw("Demo reaper error", "error", err)
		}
	}()

	// Setup API handler and middleware
	handler := api.NewHandler(memStore, sessions, sessionCache, wsHub, cfg, logger, metricsObj)
	middleware := api.NewMiddleware(sessions, logger, metricsObj)

	// Create router with middleware and routes - pass security config to Routes
	router := handler.Routes(middleware, cfg.Security.CORSAllowedOrigins, cfg.Security.RateLimitRPM)

	logger.Infow("CORS configured", "allowed_origins", cfg.Security.CORSAllowedOrigins)

	// Add metrics endpoint
	router.Handle("/metrics", metricsHandler)

	// Setup HTTP server. WriteTimeout stays zero so the SSE countdown
	// stream can outlive a fixed deadline; handlers carry their own
	// timeout middleware.
	server := &http.Server{
		Addr:        cfg.HTTPAddr,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in background
	serverErrors := make(chan error, 1)
	go func() {
		logger.Infow("API server starting", "addr", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Fatalw("Server startup failed", "error", err)
	case sig := <-shutdown:
		logger.Infow("Shutdown signal received", "signal", sig.String())

		reaper.Stop()

		// Give outstanding requests 30 seconds to complete
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Errorw("Graceful shutdown failed", "error", err)
			server.Close()
		}

		logger.Infow("Server stopped")
	}
}
