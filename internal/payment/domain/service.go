package domain

import "context"

// Service is the reconciliation state machine fed by webhook deliveries.
// HandleWebhookEvent verifies the signature against the raw body, then
// applies the per-event-type transition. Sentinel returns let the HTTP
// boundary distinguish acknowledge-with-200 no-ops from retryable
// processing failures.
type Service interface {
	HandleWebhookEvent(ctx context.Context, payload []byte, sigHeader string) error
}
