package stripe

import (
	"errors"
	"strconv"
	"testing"
	"time"

	paymentdomain "github.com/vyoniqlabs/backoffice/internal/payment/domain"
)

const testSecret = "whsec_unit_test"

func TestSignVerifyRoundTrip(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	ts := strconv.FormatInt(time.Now().Unix(), 10)

	header := Sign(payload, ts, testSecret)
	if err := VerifySignature(payload, header, testSecret); err != nil {
		t.Fatalf("verify signed payload: %v", err)
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	payload := []byte(`{"id":"evt_1","amount":100}`)
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	header := Sign(payload, ts, testSecret)

	tampered := []byte(`{"id":"evt_1","amount":999}`)
	if err := VerifySignature(tampered, header, testSecret); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("tampered payload: error = %v, want ErrInvalidSignature", err)
	}

	if err := VerifySignature(payload, header, "whsec_other"); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("wrong secret: error = %v, want ErrInvalidSignature", err)
	}
}

func TestVerifyRejectsMalformedHeaders(t *testing.T) {
	payload := []byte(`{}`)
	headers := []string{
		"",
		"   ",
		"v1=abc",
		"t=12345",
		"garbage",
		"t=,v1=",
	}
	for _, header := range headers {
		if err := VerifySignature(payload, header, testSecret); !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("header %q: error = %v, want ErrInvalidSignature", header, err)
		}
	}
}

func TestVerifyAcceptsAnyMatchingV1(t *testing.T) {
	payload := []byte(`{"id":"evt_2"}`)
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	good := Sign(payload, ts, testSecret)

	// Stripe sends multiple v1 entries during secret rotation; one
	// match is enough.
	header := good + ",v1=deadbeef"
	if err := VerifySignature(payload, header, testSecret); err != nil {
		t.Fatalf("rotated header: %v", err)
	}
}

func TestParseEventCheckoutCompleted(t *testing.T) {
	payload := []byte(`{
		"id": "evt_chk",
		"type": "checkout.session.completed",
		"created": 1700000000,
		"data": {"object": {
			"id": "cs_123",
			"payment_intent": "pi_123",
			"amount_total": 250000,
			"currency": "usd",
			"created": 1700000100
		}}
	}`)

	event, err := ParseEvent(payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.Type != paymentdomain.EventTypeCheckoutCompleted {
		t.Fatalf("type = %s", event.Type)
	}
	if event.SessionID != "cs_123" || event.PaymentID != "pi_123" {
		t.Fatalf("ids = %s / %s", event.SessionID, event.PaymentID)
	}
	if event.Currency != "USD" {
		t.Fatalf("currency = %s, want normalized USD", event.Currency)
	}
	if event.OccurredAt.Unix() != 1700000100 {
		t.Fatalf("occurredAt = %v, want object timestamp", event.OccurredAt)
	}
}

func TestParseEventPaymentFailed(t *testing.T) {
	payload := []byte(`{
		"id": "evt_fail",
		"type": "payment_intent.payment_failed",
		"created": 1700000000,
		"data": {"object": {
			"id": "pi_9",
			"amount": 5000,
			"currency": "cad",
			"last_payment_error": {"message": "card_declined"}
		}}
	}`)

	event, err := ParseEvent(payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.Type != paymentdomain.EventTypePaymentFailed {
		t.Fatalf("type = %s", event.Type)
	}
	if event.FailureReason != "card_declined" {
		t.Fatalf("failure reason = %q", event.FailureReason)
	}
	if event.OccurredAt.Unix() != 1700000000 {
		t.Fatalf("occurredAt = %v, want event timestamp fallback", event.OccurredAt)
	}
}

func TestParseEventRejections(t *testing.T) {
	if _, err := ParseEvent([]byte(`not json`)); !errors.Is(err, paymentdomain.ErrInvalidPayload) {
		t.Fatalf("bad json: %v", err)
	}
	if _, err := ParseEvent([]byte(`{"type":"checkout.session.completed"}`)); !errors.Is(err, paymentdomain.ErrInvalidEvent) {
		t.Fatalf("missing event id: %v", err)
	}
	if _, err := ParseEvent([]byte(`{"id":"evt_x","type":"customer.created"}`)); !errors.Is(err, paymentdomain.ErrEventIgnored) {
		t.Fatalf("ignored type: %v", err)
	}
	if _, err := ParseEvent([]byte(`{"id":"evt_y","type":"checkout.session.completed","data":{"object":{}}}`)); !errors.Is(err, paymentdomain.ErrInvalidEvent) {
		t.Fatalf("missing session id: %v", err)
	}
}
