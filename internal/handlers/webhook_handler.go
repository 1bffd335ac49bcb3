package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lipaykripto/webhook/internal/services/lipay"
)

// DefaultMaxBodyBytes caps webhook bodies when no limit is configured
const DefaultMaxBodyBytes int64 = 1 << 20

// WebhookHandler receives LiPayKripto payment-status webhooks
type WebhookHandler struct {
	verifier     *lipay.Verifier
	handlers     lipay.Handlers
	maxBodyBytes int64
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(verifier *lipay.Verifier, handlers lipay.Handlers, maxBodyBytes int64) *WebhookHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &WebhookHandler{
		verifier:     verifier,
		handlers:     handlers,
		maxBodyBytes: maxBodyBytes,
	}
}

// PaymentStatusWebhook reads the raw body, verifies it and dispatches the outcome
func (h *WebhookHandler) PaymentStatusWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			log.Printf("Rejected LiPay webhook from %s: body exceeds %d bytes", c.ClientIP(), maxErr.Limit)
			c.JSON(http.StatusRequestEntityTooLarge, lipay.Response{Success: false, Message: lipay.MessageInvalidFormat})
			return
		}
		log.Printf("Failed to read LiPay webhook body from %s: %v", c.ClientIP(), err)
		c.JSON(http.StatusBadRequest, lipay.Response{Success: false, Message: lipay.MessageInvalidFormat})
		return
	}

	result := h.verifier.ProcessWebhook(c.Request.Context(), body, h.handlers)

	paymentID := ""
	if result.Payload != nil {
		paymentID = result.Payload.PaymentID()
	}
	log.Printf("Received LiPay webhook from %s, payment: %q, outcome: %s", c.ClientIP(), paymentID, result.Outcome)

	c.JSON(StatusCode(result.Outcome), result.Response)
}

// StatusCode maps a dispatch outcome to the HTTP status sent back to the processor
func StatusCode(outcome lipay.Outcome) int {
	switch outcome {
	case lipay.OutcomeConfirmed, lipay.OutcomeFailed:
		return http.StatusOK
	case lipay.OutcomeBadSignature:
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}

// Health reports that the receiver is up
func (h *WebhookHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
