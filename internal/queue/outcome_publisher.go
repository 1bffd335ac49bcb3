package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/lipaykripto/webhook/internal/services/lipay"
)

const queuePrefix = "queue:"

// Queue names, one per dispatched outcome
const (
	QueueLipayConfirmed        = "lipay_confirmed"
	QueueLipayFailed           = "lipay_failed"
	QueueLipayInvalidSignature = "lipay_invalid_signature"
)

// ListPusher is the part of the Redis client the publisher needs
type ListPusher interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// OutcomeEvent is the message pushed for every dispatched webhook
type OutcomeEvent struct {
	ID         uuid.UUID                  `json:"id"`
	Outcome    string                     `json:"outcome"`
	PaymentID  string                     `json:"payment_id"`
	ClientID   string                     `json:"client_id"`
	Status     string                     `json:"status"`
	TryAmount  string                     `json:"try_amount"`
	Extra      map[string]json.RawMessage `json:"extra,omitempty"`
	Payload    json.RawMessage            `json:"payload"`
	ReceivedAt time.Time                  `json:"received_at"`
}

// OutcomePublisher forwards webhook outcomes to Redis lists for downstream workers
type OutcomePublisher struct {
	client ListPusher
	now    func() time.Time
}

// NewOutcomePublisher creates a new outcome publisher
func NewOutcomePublisher(client ListPusher) *OutcomePublisher {
	return &OutcomePublisher{
		client: client,
		now:    time.Now,
	}
}

// QueueName returns the list key for an outcome
func QueueName(outcome lipay.Outcome) (string, error) {
	switch outcome {
	case lipay.OutcomeConfirmed:
		return queuePrefix + QueueLipayConfirmed, nil
	case lipay.OutcomeFailed:
		return queuePrefix + QueueLipayFailed, nil
	case lipay.OutcomeBadSignature:
		return queuePrefix + QueueLipayInvalidSignature, nil
	default:
		return "", fmt.Errorf("no queue for outcome %s", outcome)
	}
}

// Publish pushes an event for the payload and returns its ID
func (p *OutcomePublisher) Publish(ctx context.Context, outcome lipay.Outcome, payload *lipay.Payload) (string, error) {
	queueName, err := QueueName(outcome)
	if err != nil {
		return "", err
	}

	event := OutcomeEvent{
		ID:         uuid.New(),
		Outcome:    outcome.String(),
		PaymentID:  payload.PaymentID(),
		ClientID:   payload.ClientID(),
		Status:     string(payload.Status()),
		TryAmount:  payload.TryAmount(),
		Extra:      extraMembers(payload),
		Payload:    payload.JSON(),
		ReceivedAt: p.now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("failed to marshal outcome event: %w", err)
	}

	if err := p.client.LPush(ctx, queueName, data).Err(); err != nil {
		return "", fmt.Errorf("failed to push outcome event to %s: %w", queueName, err)
	}

	return event.ID.String(), nil
}

// extraMembers carries fields the processor added beyond the documented schema
func extraMembers(payload *lipay.Payload) map[string]json.RawMessage {
	extra := payload.Extra()
	if len(extra) == 0 {
		return nil
	}
	members := make(map[string]json.RawMessage, len(extra))
	for key, raw := range extra {
		members[key] = json.RawMessage(raw)
	}
	return members
}

// Handlers returns webhook handlers that publish each outcome. Failures are logged and
// do not change the response sent to the processor.
func (p *OutcomePublisher) Handlers() lipay.Handlers {
	return lipay.Handlers{
		OnConfirmed:        p.handler(lipay.OutcomeConfirmed),
		OnFailed:           p.handler(lipay.OutcomeFailed),
		OnInvalidSignature: p.handler(lipay.OutcomeBadSignature),
	}
}

func (p *OutcomePublisher) handler(outcome lipay.Outcome) lipay.HandlerFunc {
	return func(ctx context.Context, payload *lipay.Payload) {
		id, err := p.Publish(ctx, outcome, payload)
		if err != nil {
			log.Printf("Failed to publish %s outcome for payment %q: %v", outcome, payload.PaymentID(), err)
			return
		}
		log.Printf("Published %s outcome for payment %q as event %s", outcome, payload.PaymentID(), id)
	}
}
