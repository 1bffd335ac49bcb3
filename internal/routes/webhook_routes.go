package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/lipaykripto/webhook/internal/handlers"
	"github.com/lipaykripto/webhook/internal/middleware"
)

// SetupWebhookRoutes configures routes for webhook endpoints
func SetupWebhookRoutes(router *gin.Engine, webhookHandler *handlers.WebhookHandler, rateLimiter *middleware.RateLimiter) {
	router.GET("/health", webhookHandler.Health)

	// Called by LiPayKripto; authenticated by the payload signature
	webhookGroup := router.Group("/api/v1/webhooks")
	if rateLimiter != nil {
		webhookGroup.Use(rateLimiter.IPRateLimiterMiddleware())
	}
	{
		webhookGroup.POST("/lipay", webhookHandler.PaymentStatusWebhook)
	}
}
