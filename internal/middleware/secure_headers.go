package middleware

import (
	"github.com/gin-gonic/gin"
)

// SecureHeadersConfig contains configuration for secure headers
type SecureHeadersConfig struct {
	UseNoSniff       bool
	UseNoStore       bool
	UseXFrameOptions bool
	XFrameOptions    string
	ReferrerPolicy   string
}

// DefaultSecureHeadersConfig returns the headers used for webhook responses
func DefaultSecureHeadersConfig() SecureHeadersConfig {
	return SecureHeadersConfig{
		UseNoSniff:       true,
		UseNoStore:       true,
		UseXFrameOptions: true,
		XFrameOptions:    "DENY",
		ReferrerPolicy:   "no-referrer",
	}
}

// SecureHeadersMiddleware adds security headers to responses
func SecureHeadersMiddleware(config SecureHeadersConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		// X-Content-Type-Options to prevent MIME type sniffing
		if config.UseNoSniff {
			c.Header("X-Content-Type-Options", "nosniff")
		}

		// Webhook acknowledgements must never be served from a cache
		if config.UseNoStore {
			c.Header("Cache-Control", "no-store")
			c.Header("Pragma", "no-cache")
		}

		if config.UseXFrameOptions {
			c.Header("X-Frame-Options", config.XFrameOptions)
		}

		if config.ReferrerPolicy != "" {
			c.Header("Referrer-Policy", config.ReferrerPolicy)
		}

		c.Next()
	}
}
