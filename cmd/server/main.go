package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/storefront/config"
	"github.com/ikkim/storefront/internal/app/controller"
	"github.com/ikkim/storefront/internal/app/service"
	"github.com/ikkim/storefront/internal/catalog"
	"github.com/ikkim/storefront/internal/middleware"
	"github.com/ikkim/storefront/internal/router"
	"github.com/ikkim/storefront/internal/scheduler"
	"github.com/ikkim/storefront/internal/storage"
	ws "github.com/ikkim/storefront/internal/websocket"
	"github.com/ikkim/storefront/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := cfg.Log.Level
	if logLevel == "" {
		logLevel = "info"
		if cfg.Server.Environment == "development" {
			logLevel = "debug"
		}
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      cfg.Log.Format,
		EnableColor: cfg.Server.Environment == "development",
	})

	logger.Info("Starting storefront server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
		"storage":     cfg.Storage.Driver,
		"catalog":     cfg.Catalog.BaseURL,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Cart storage
	kv, closeStorage, err := storage.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to open cart storage", err, map[string]interface{}{
			"driver": cfg.Storage.Driver,
		})
	}
	defer func() {
		if err := closeStorage(); err != nil {
			logger.Error("Failed to close cart storage", err)
		}
	}()

	// Catalog
	catalogClient := catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.Timeout)
	catalogService := service.NewCatalogService(catalogClient)
	if err := catalogService.Refresh(ctx); err != nil {
		// the catalog recovers on the next scheduled or on-demand refresh
		logger.Warn("Initial catalog fetch failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	catalogScheduler := scheduler.NewCatalogScheduler(catalogService, cfg.Catalog.RefreshSpec, cfg.Catalog.Timeout)
	if err := catalogScheduler.Start(); err != nil {
		logger.Fatal("Failed to start catalog scheduler", err)
	}
	defer catalogScheduler.Stop()

	// Carts and change feed
	hub := ws.NewHub()
	go hub.Run()
	defer hub.Stop()

	sessions := service.NewCartSessions(
		kv,
		cfg.Cart.KeyPrefix,
		service.ParseTaxRate(cfg.Cart.TaxRate),
		service.NewUUIDGenerator(),
		service.WithMaxSessions(cfg.Cart.MaxSessions),
		service.WithIdleTimeout(cfg.Cart.SessionIdleTimeout),
	)
	sessions.OnCreate(ws.PublishCartEvents(hub))
	cartService := service.NewCartService(sessions, catalogService)
	hub.SetSnapshotProvider(func(sessionID string) interface{} {
		return ws.NewSnapshotEvent(cartService.GetCart(context.Background(), sessionID))
	})

	// Controllers and middleware
	productController := controller.NewProductController(catalogService)
	cartController := controller.NewCartController(cartService)
	cartFeedController := controller.NewCartFeedController(cartService, hub, cfg.CORS.AllowedOrigins)
	sessionMiddleware := middleware.NewSessionMiddleware(
		cfg.Session.Secret,
		cfg.Session.Expiry,
		cfg.Session.CookieName,
		cfg.Server.Environment == "production",
	)

	r := router.NewRouter(
		productController,
		cartController,
		cartFeedController,
		sessionMiddleware,
		catalogService,
		cfg,
	)
	engine := r.Setup()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	<-ctx.Done()

	logger.Info("Shutting down server gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown did not complete", err)
	}
	logger.Info("Server stopped successfully", map[string]interface{}{
		"open_sessions": sessions.Len(),
	})
}
