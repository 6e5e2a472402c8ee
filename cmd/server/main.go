package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"attendhub/internal/config"
	"attendhub/internal/docstore"
	"attendhub/internal/httpapi"
	"attendhub/internal/httpmiddleware"
	"attendhub/internal/qrlink"
	"attendhub/internal/records"
)

func main() {
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := docstore.New(cfg.StoreBaseURL, cfg.StoreProject, cfg.StoreAPIKey)
	redisClient := docstore.NewRedis(cfg.RedisAddr)
	facade := records.New(store)

	deriver := qrlink.NewDeriver(nil)
	deriver.SetReloadLocation(facade.CurrentLocation)
	seedDeriver(ctx, facade, deriver)

	// Change-notification subscription feeding the QR deriver. When the
	// bus is unreachable the deriver still refreshes timestamps on its
	// tick; payload state goes stale until restart.
	subscriber := docstore.NewSubscriber(redisClient.Client, cfg.EventPrefix)
	events, err := subscriber.Subscribe(ctx, records.CollCourses, records.CollLocations)
	if err != nil {
		log.Printf("warning: change subscription unavailable: %v", err)
	}
	go deriver.Run(ctx, events, cfg.QRRefresh)

	r := gin.New()

	// Recovery middleware
	r.Use(gin.Recovery())

	// Custom logger
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))

	// CORS middleware
	r.Use(corsMiddleware())

	// Security headers
	r.Use(securityHeaders())

	// Rate limiting
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := httpapi.New(facade, deriver, store, redisClient)
	api.Register(r)

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Release the subscription and deriver ticker together.
	cancel()

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// seedDeriver installs the initial course list and current location. A
// failed seed is not fatal: the server starts and the check-in surface
// reports unknown courses until the store becomes reachable.
func seedDeriver(ctx context.Context, facade *records.Facade, deriver *qrlink.Deriver) {
	seedCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	courses, err := facade.ListCourses(seedCtx)
	if err != nil {
		log.Printf("warning: store not reachable, deriver unseeded: %v", err)
		return
	}
	location, err := facade.CurrentLocation(seedCtx)
	if err != nil {
		log.Printf("warning: location fetch failed: %v", err)
	}
	deriver.Seed(courses, location)
	log.Printf("deriver seeded with %d courses", len(courses))
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
