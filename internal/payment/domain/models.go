// Package domain holds payment records and the canonical gateway event
// shape consumed by the reconciliation state machine.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSucceeded PaymentStatus = "SUCCEEDED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// ParentKind discriminates which quote aggregate a payment belongs to.
type ParentKind string

const (
	ParentKindBudget       ParentKind = "budget"
	ParentKindSubscription ParentKind = "subscription"
)

var (
	ErrInvalidPayload        = errors.New("invalid_payload")
	ErrInvalidEvent          = errors.New("invalid_event")
	ErrEventIgnored          = errors.New("event_ignored")
	ErrEventAlreadyProcessed = errors.New("event_already_processed")
	ErrPaymentNotFound       = errors.New("payment_not_found")
)

// Payment tracks one checkout attempt against a budget or subscription.
// Created PENDING when the checkout session is opened; the terminal
// transition is written once per gateway event. Metadata stores the raw
// event payload verbatim for audit.
type Payment struct {
	ID              snowflake.ID   `gorm:"primaryKey"`
	Kind            ParentKind     `gorm:"type:text;not null;index:idx_payments_parent,priority:1"`
	ParentID        snowflake.ID   `gorm:"column:parent_id;not null;index:idx_payments_parent,priority:2"`
	StripeSessionID string         `gorm:"column:stripe_session_id;type:text;not null;uniqueIndex"`
	StripePaymentID *string        `gorm:"column:stripe_payment_id;type:text;index"`
	Amount          int64          `gorm:"not null"`
	Currency        string         `gorm:"type:text;not null"`
	Status          PaymentStatus  `gorm:"type:text;not null;index"`
	PaidAt          *time.Time     `gorm:"column:paid_at"`
	FailedAt        *time.Time     `gorm:"column:failed_at"`
	FailureReason   string         `gorm:"column:failure_reason;type:text"`
	Metadata        datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt       time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Payment) TableName() string { return "payments" }

// WebhookEvent records each gateway delivery once. The unique event id
// makes replays detectable before any state is touched.
type WebhookEvent struct {
	ID          snowflake.ID   `gorm:"primaryKey"`
	Provider    string         `gorm:"type:text;not null;uniqueIndex:ux_webhook_events_provider_event,priority:1"`
	EventID     string         `gorm:"column:event_id;type:text;not null;uniqueIndex:ux_webhook_events_provider_event,priority:2"`
	EventType   string         `gorm:"column:event_type;type:text;not null"`
	Payload     datatypes.JSON `gorm:"type:jsonb"`
	ProcessedAt *time.Time     `gorm:"column:processed_at"`
	CreatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (WebhookEvent) TableName() string { return "webhook_events" }
