package domain

import "time"

// Gateway event types after boundary normalization. Raw payloads never
// travel past the adapter except into the audit metadata column.
const (
	EventTypeCheckoutCompleted = "checkout.session.completed"
	EventTypePaymentSucceeded  = "payment_intent.succeeded"
	EventTypePaymentFailed     = "payment_intent.payment_failed"
)

// GatewayEvent is the strongly-typed record a gateway adapter produces
// from a verified webhook payload.
type GatewayEvent struct {
	Provider      string
	EventID       string
	Type          string
	SessionID     string
	PaymentID     string
	Amount        int64
	Currency      string
	FailureReason string
	OccurredAt    time.Time
	RawPayload    []byte
}
