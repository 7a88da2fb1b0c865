package stripe

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	paymentdomain "github.com/vyoniqlabs/backoffice/internal/payment/domain"
)

type stripeEvent struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Created int64           `json:"created"`
	Data    stripeEventData `json:"data"`
}

type stripeEventData struct {
	Object json.RawMessage `json:"object"`
}

type stripeCheckoutSession struct {
	ID            string `json:"id"`
	PaymentIntent string `json:"payment_intent"`
	AmountTotal   int64  `json:"amount_total"`
	Currency      string `json:"currency"`
	Created       int64  `json:"created"`
}

type stripePaymentIntent struct {
	ID             string `json:"id"`
	Amount         int64  `json:"amount"`
	AmountReceived int64  `json:"amount_received"`
	Currency       string `json:"currency"`
	Created        int64  `json:"created"`
	LastError      struct {
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

// ParseEvent converts a verified webhook payload into the canonical
// gateway event. Event types the reconciler intentionally ignores
// surface as ErrEventIgnored so callers can acknowledge them.
func ParseEvent(payload []byte) (*paymentdomain.GatewayEvent, error) {
	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	if strings.TrimSpace(event.ID) == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}

	switch strings.TrimSpace(event.Type) {
	case "checkout.session.completed":
		return parseCheckoutSession(event, payload)
	case "payment_intent.succeeded":
		return parsePaymentIntent(event, payload, paymentdomain.EventTypePaymentSucceeded)
	case "payment_intent.payment_failed":
		return parsePaymentIntent(event, payload, paymentdomain.EventTypePaymentFailed)
	default:
		return nil, fmt.Errorf("%s: %w", event.Type, paymentdomain.ErrEventIgnored)
	}
}

func parseCheckoutSession(event stripeEvent, payload []byte) (*paymentdomain.GatewayEvent, error) {
	var session stripeCheckoutSession
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	if strings.TrimSpace(session.ID) == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}

	return &paymentdomain.GatewayEvent{
		Provider:   "stripe",
		EventID:    event.ID,
		Type:       paymentdomain.EventTypeCheckoutCompleted,
		SessionID:  session.ID,
		PaymentID:  strings.TrimSpace(session.PaymentIntent),
		Amount:     session.AmountTotal,
		Currency:   strings.ToUpper(strings.TrimSpace(session.Currency)),
		OccurredAt: timestamp(session.Created, event.Created),
		RawPayload: payload,
	}, nil
}

func parsePaymentIntent(event stripeEvent, payload []byte, eventType string) (*paymentdomain.GatewayEvent, error) {
	var intent stripePaymentIntent
	if err := json.Unmarshal(event.Data.Object, &intent); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	if strings.TrimSpace(intent.ID) == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}

	amount := intent.AmountReceived
	if amount <= 0 {
		amount = intent.Amount
	}

	return &paymentdomain.GatewayEvent{
		Provider:      "stripe",
		EventID:       event.ID,
		Type:          eventType,
		PaymentID:     intent.ID,
		Amount:        amount,
		Currency:      strings.ToUpper(strings.TrimSpace(intent.Currency)),
		FailureReason: strings.TrimSpace(intent.LastError.Message),
		OccurredAt:    timestamp(intent.Created, event.Created),
		RawPayload:    payload,
	}, nil
}

func timestamp(primary int64, fallback int64) time.Time {
	value := primary
	if value == 0 {
		value = fallback
	}
	if value == 0 {
		return time.Now().UTC()
	}
	return time.Unix(value, 0).UTC()
}
