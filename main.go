package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/venuehub/venue-booking/internal/config"
	"github.com/venuehub/venue-booking/internal/database"
	"github.com/venuehub/venue-booking/internal/di"
	"github.com/venuehub/venue-booking/internal/logger"
	pkgredis "github.com/venuehub/venue-booking/internal/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLog, err := logger.Init(cfg.App.Environment, cfg.App.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog.Info("Starting venue booking service",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	ctx := context.Background()

	// Initialize database connection
	db, err := database.NewPostgres(ctx, &cfg.Database)
	if err != nil {
		appLog.Fatal("Database connection failed", zap.Error(err))
	}
	defer db.Close()
	appLog.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.Int32("max_conns", cfg.Database.MaxConns),
	)

	// Redis is only needed when a component is configured to use it
	var redisClient *pkgredis.Client
	if cfg.Inventory.Backend == "redis" {
		redisClient, err = pkgredis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			appLog.Fatal("Redis connection failed", zap.Error(err))
		}
		defer redisClient.Close()
		appLog.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	// Build dependency injection container
	container, err := di.NewContainer(ctx, cfg, db, redisClient)
	if err != nil {
		appLog.Fatal("Failed to build container", zap.Error(err))
	}

	// Start reconciliation sweeper
	sweeperCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	if err := container.Sweeper.Start(sweeperCtx); err != nil {
		appLog.Fatal("Failed to start sweeper", zap.Error(err))
	}

	// Setup Gin
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	// Health check endpoints
	router.GET("/health", container.HealthHandler.Health)
	router.GET("/ready", container.HealthHandler.Ready)

	// API routes
	v1 := router.Group("/api/v1")
	{
		bookings := v1.Group("/bookings")
		bookings.Use(userIDMiddleware())
		{
			bookings.POST("", container.BookingHandler.Purchase)
			bookings.GET("/:id", container.BookingHandler.GetBooking)
		}

		// Payment gateway webhook, no user context
		v1.POST("/webhooks/payment", container.BookingHandler.Webhook)

		venues := v1.Group("/venues")
		{
			venues.POST("", container.CatalogHandler.CreateVenue)
			venues.GET("", container.CatalogHandler.ListVenues)
			venues.GET("/:id", container.CatalogHandler.GetVenue)
			venues.PUT("/:id", container.CatalogHandler.UpdateVenue)
			venues.DELETE("/:id", container.CatalogHandler.DeleteVenue)
		}

		events := v1.Group("/events")
		{
			events.POST("", container.CatalogHandler.CreateEvent)
			events.GET("", container.CatalogHandler.ListEvents)
			events.GET("/:id", container.CatalogHandler.GetEvent)
			events.PUT("/:id", container.CatalogHandler.UpdateEvent)
			events.DELETE("/:id", container.CatalogHandler.DeleteEvent)
		}

		admin := v1.Group("/admin")
		{
			admin.GET("/sweeper/stats", container.HealthHandler.SweeperStats)

			refs := admin.Group("/references/:kind")
			{
				refs.POST("", container.AdminHandler.CreateReference)
				refs.GET("", container.AdminHandler.ListReferences)
				refs.GET("/:id", container.AdminHandler.GetReference)
				refs.PUT("/:id", container.AdminHandler.UpdateReference)
				refs.DELETE("/:id", container.AdminHandler.DeleteReference)
			}

			packages := admin.Group("/packages")
			{
				packages.POST("", container.AdminHandler.CreatePackage)
				packages.GET("/:id", container.AdminHandler.GetPackage)
				packages.PUT("/:id/total", container.AdminHandler.UpdatePackageTotal)
			}
		}
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		appLog.Info("HTTP server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down...")

	// Stop the sweeper first so in-flight reconciliation finishes cleanly
	container.Sweeper.Stop()
	stopSweeper()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Fatal("Server forced to shutdown", zap.Error(err))
	}

	appLog.Info("Server exited gracefully")
}

// userIDMiddleware extracts the caller identity from the X-User-ID header.
// Auth proper terminates at the edge proxy; by the time requests arrive
// here the header is trusted.
func userIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := c.GetHeader("X-User-ID"); userID != "" {
			c.Set("user_id", userID)
		}
		c.Next()
	}
}
