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
	"github.com/lipaykripto/webhook/internal/config"
	"github.com/lipaykripto/webhook/internal/handlers"
	"github.com/lipaykripto/webhook/internal/middleware"
	"github.com/lipaykripto/webhook/internal/queue"
	"github.com/lipaykripto/webhook/internal/routes"
	"github.com/lipaykripto/webhook/internal/services/lipay"
)

func main() {
	// Initialize configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	keyOrder, err := lipay.ParseKeyOrder(cfg.Lipay.KeyOrder)
	if err != nil {
		log.Fatalf("Invalid LIPAY_KEY_ORDER: %v", err)
	}
	verifier := lipay.NewVerifier(cfg.Lipay.SecretKey, lipay.WithKeyOrder(keyOrder))

	// Outcome publishing is optional; without Redis the webhook is only acknowledged
	var outcomeHandlers lipay.Handlers
	if cfg.Redis.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err := queue.NewRedisClient(ctx, cfg.Redis)
		cancel()
		if err != nil {
			log.Fatalf("Failed to initialize Redis: %v", err)
		}
		defer redisClient.Close()

		outcomeHandlers = queue.NewOutcomePublisher(redisClient).Handlers()
	} else {
		log.Println("REDIS_URL not set, webhook outcomes will not be published")
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, 5*time.Minute)
	defer rateLimiter.Stop()

	webhookHandler := handlers.NewWebhookHandler(verifier, outcomeHandlers, cfg.Lipay.MaxBodyBytes)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.SecureHeadersMiddleware(middleware.DefaultSecureHeadersConfig()))

	routes.SetupWebhookRoutes(router, webhookHandler, rateLimiter)

	srv := startServer(router, cfg.Server)

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}

// startServer starts the HTTP server
func startServer(router *gin.Engine, cfg config.ServerConfig) *http.Server {
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("LiPay webhook receiver started on port %s", cfg.Port)
	return srv
}
