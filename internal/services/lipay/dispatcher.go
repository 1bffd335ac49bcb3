package lipay

import (
	"context"
	"fmt"
)

// Outcome is the terminal state reached by one webhook
type Outcome int

const (
	OutcomeBadFormat Outcome = iota + 1
	OutcomeBadSignature
	OutcomeConfirmed
	OutcomeFailed
	OutcomeUnknownStatus
)

// Response messages
const (
	MessageInvalidFormat    = "Invalid payload format"
	MessageInvalidSignature = "Invalid signature"
	MessageProcessed        = "Webhook processed successfully"
	MessageUnknownStatus    = "Unknown status"
)

func (o Outcome) String() string {
	switch o {
	case OutcomeBadFormat:
		return "bad_format"
	case OutcomeBadSignature:
		return "bad_signature"
	case OutcomeConfirmed:
		return "confirmed"
	case OutcomeFailed:
		return "failed"
	case OutcomeUnknownStatus:
		return "unknown_status"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Processed reports whether the outcome counts as successfully handled
func (o Outcome) Processed() bool {
	return o == OutcomeConfirmed || o == OutcomeFailed
}

// Message returns the fixed response message for the outcome
func (o Outcome) Message() string {
	switch o {
	case OutcomeBadSignature:
		return MessageInvalidSignature
	case OutcomeConfirmed, OutcomeFailed:
		return MessageProcessed
	case OutcomeUnknownStatus:
		return MessageUnknownStatus
	default:
		return MessageInvalidFormat
	}
}

// Response is the JSON body returned to the processor
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HandlerFunc receives a notification that reached a given outcome
type HandlerFunc func(ctx context.Context, p *Payload)

// Handlers holds the optional callbacks for each outcome. Nil callbacks are skipped.
type Handlers struct {
	OnConfirmed        HandlerFunc
	OnFailed           HandlerFunc
	OnInvalidSignature HandlerFunc
}

// Result describes how a webhook was dispatched
type Result struct {
	Processed bool
	Outcome   Outcome
	Response  Response
	Payload   *Payload
}

func newResult(outcome Outcome, p *Payload) Result {
	return Result{
		Processed: outcome.Processed(),
		Outcome:   outcome,
		Response: Response{
			Success: outcome.Processed(),
			Message: outcome.Message(),
		},
		Payload: p,
	}
}

// ProcessWebhook decodes a raw body and dispatches it. Bodies that fail to decode
// end as OutcomeBadFormat.
func (v *Verifier) ProcessWebhook(ctx context.Context, raw []byte, h Handlers) Result {
	p, err := Decode(raw)
	if err != nil {
		return newResult(OutcomeBadFormat, nil)
	}
	return v.ProcessPayload(ctx, p, h)
}

// ProcessPayload validates, verifies and routes a decoded notification. Handlers run
// inline before the result is returned.
func (v *Verifier) ProcessPayload(ctx context.Context, p *Payload, h Handlers) Result {
	if !Validate(p) {
		return newResult(OutcomeBadFormat, p)
	}

	if !v.Verify(p) {
		invoke(ctx, h.OnInvalidSignature, p)
		return newResult(OutcomeBadSignature, p)
	}

	switch p.Status() {
	case StatusConfirmed:
		invoke(ctx, h.OnConfirmed, p)
		return newResult(OutcomeConfirmed, p)
	case StatusFailed:
		invoke(ctx, h.OnFailed, p)
		return newResult(OutcomeFailed, p)
	}

	return newResult(OutcomeUnknownStatus, p)
}

func invoke(ctx context.Context, fn HandlerFunc, p *Payload) {
	if fn != nil {
		fn(ctx, p)
	}
}
