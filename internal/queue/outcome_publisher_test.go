package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/lipaykripto/webhook/internal/config"
	"github.com/lipaykripto/webhook/internal/services/lipay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "queue-test-secret"

// MockListPusher is a mock implementation of ListPusher
type MockListPusher struct {
	mock.Mock
}

func (m *MockListPusher) LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	args := m.Called(key, values)
	return args.Get(0).(*redis.IntCmd)
}

func signedPayload(t *testing.T, body string) *lipay.Payload {
	t.Helper()
	signed, err := lipay.NewVerifier(testSecret).Sign([]byte(body))
	require.NoError(t, err)
	p, err := lipay.Decode(signed)
	require.NoError(t, err)
	return p
}

func pushedEvent(t *testing.T, call mock.Call) OutcomeEvent {
	t.Helper()
	values := call.Arguments.Get(1).([]interface{})
	require.Len(t, values, 1)

	var event OutcomeEvent
	require.NoError(t, json.Unmarshal(values[0].([]byte), &event))
	return event
}

func TestPublish(t *testing.T) {
	pusher := new(MockListPusher)
	pusher.On("LPush", "queue:lipay_confirmed", mock.Anything).Return(redis.NewIntResult(1, nil)).Once()

	publisher := NewOutcomePublisher(pusher)
	receivedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	publisher.now = func() time.Time { return receivedAt }

	payload := signedPayload(t, `{"success":true,"clientId":"c1","status":"confirmed","tryAmount":12.5,"paymentId":"p1"}`)
	id, err := publisher.Publish(context.Background(), lipay.OutcomeConfirmed, payload)
	require.NoError(t, err)
	pusher.AssertExpectations(t)

	event := pushedEvent(t, pusher.Calls[0])
	assert.Equal(t, id, event.ID.String())
	assert.Equal(t, "confirmed", event.Outcome)
	assert.Equal(t, "p1", event.PaymentID)
	assert.Equal(t, "c1", event.ClientID)
	assert.Equal(t, "confirmed", event.Status)
	assert.Equal(t, "12.5", event.TryAmount)
	assert.JSONEq(t, string(payload.JSON()), string(event.Payload))
	assert.True(t, receivedAt.Equal(event.ReceivedAt))
	assert.Nil(t, event.Extra)
}

func TestPublishCarriesExtraMembers(t *testing.T) {
	pusher := new(MockListPusher)
	pusher.On("LPush", "queue:lipay_confirmed", mock.Anything).Return(redis.NewIntResult(1, nil)).Once()

	payload := signedPayload(t, `{"success":true,"clientId":"c1","status":"confirmed","tryAmount":"5","paymentId":"p1","network":"TRC20","fees":{"fixed":1}}`)
	_, err := NewOutcomePublisher(pusher).Publish(context.Background(), lipay.OutcomeConfirmed, payload)
	require.NoError(t, err)

	event := pushedEvent(t, pusher.Calls[0])
	require.Len(t, event.Extra, 2)
	assert.JSONEq(t, `"TRC20"`, string(event.Extra["network"]))
	assert.JSONEq(t, `{"fixed":1}`, string(event.Extra["fees"]))
}

func TestPublishRedisError(t *testing.T) {
	pusher := new(MockListPusher)
	pusher.On("LPush", "queue:lipay_failed", mock.Anything).Return(redis.NewIntResult(0, errors.New("connection refused")))

	payload := signedPayload(t, `{"success":false,"clientId":"c1","status":"failed","tryAmount":"1","paymentId":"p9"}`)
	_, err := NewOutcomePublisher(pusher).Publish(context.Background(), lipay.OutcomeFailed, payload)

	assert.ErrorContains(t, err, "connection refused")
}

func TestPublishUnsupportedOutcome(t *testing.T) {
	pusher := new(MockListPusher)

	payload := signedPayload(t, `{"success":false,"clientId":"c1","status":"failed","tryAmount":"1","paymentId":"p9"}`)
	_, err := NewOutcomePublisher(pusher).Publish(context.Background(), lipay.OutcomeBadFormat, payload)

	assert.Error(t, err)
	pusher.AssertNotCalled(t, "LPush", mock.Anything, mock.Anything)
}

func TestQueueName(t *testing.T) {
	tests := map[lipay.Outcome]string{
		lipay.OutcomeConfirmed:    "queue:lipay_confirmed",
		lipay.OutcomeFailed:       "queue:lipay_failed",
		lipay.OutcomeBadSignature: "queue:lipay_invalid_signature",
	}
	for outcome, want := range tests {
		got, err := QueueName(outcome)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := QueueName(lipay.OutcomeUnknownStatus)
	assert.Error(t, err)
}

func TestHandlersPublishThroughDispatcher(t *testing.T) {
	pusher := new(MockListPusher)
	pusher.On("LPush", "queue:lipay_invalid_signature", mock.Anything).Return(redis.NewIntResult(1, nil)).Once()

	body := []byte(`{"success":true,"clientId":"c1","status":"confirmed","tryAmount":"10.00","paymentId":"p1","signature":"forged"}`)
	result := lipay.NewVerifier(testSecret).ProcessWebhook(context.Background(), body, NewOutcomePublisher(pusher).Handlers())

	assert.Equal(t, lipay.OutcomeBadSignature, result.Outcome)
	pusher.AssertExpectations(t)
	assert.Equal(t, "bad_signature", pushedEvent(t, pusher.Calls[0]).Outcome)
}

func TestHandlersSwallowPublishErrors(t *testing.T) {
	pusher := new(MockListPusher)
	pusher.On("LPush", "queue:lipay_confirmed", mock.Anything).Return(redis.NewIntResult(0, errors.New("timeout")))

	signed, err := lipay.NewVerifier(testSecret).Sign([]byte(`{"success":true,"clientId":"c1","status":"confirmed","tryAmount":"10.00","paymentId":"p1"}`))
	require.NoError(t, err)

	result := lipay.NewVerifier(testSecret).ProcessWebhook(context.Background(), signed, NewOutcomePublisher(pusher).Handlers())

	assert.True(t, result.Processed)
	assert.Equal(t, lipay.OutcomeConfirmed, result.Outcome)
}

func TestRedisOptions(t *testing.T) {
	opts, err := redisOptions(config.RedisConfig{URL: "redis://:urlpass@localhost:6380/2"})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", opts.Addr)
	assert.Equal(t, "urlpass", opts.Password)
	assert.Equal(t, 2, opts.DB)

	opts, err = redisOptions(config.RedisConfig{URL: "redis://localhost:6379", Password: "secret", DB: 3})
	require.NoError(t, err)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 3, opts.DB)

	_, err = redisOptions(config.RedisConfig{URL: "localhost:6379"})
	assert.Error(t, err)
}
