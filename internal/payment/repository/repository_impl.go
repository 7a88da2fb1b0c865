package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	paymentdomain "github.com/vyoniqlabs/backoffice/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() paymentdomain.Repository {
	return &repo{}
}

const paymentColumns = `id, kind, parent_id, stripe_session_id, stripe_payment_id, amount, currency, status, paid_at, failed_at, failure_reason, metadata, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payment *paymentdomain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (id, kind, parent_id, stripe_session_id, stripe_payment_id, amount, currency, status, paid_at, failed_at, failure_reason, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.Kind,
		payment.ParentID,
		payment.StripeSessionID,
		payment.StripePaymentID,
		payment.Amount,
		payment.Currency,
		payment.Status,
		payment.PaidAt,
		payment.FailedAt,
		payment.FailureReason,
		payment.Metadata,
		payment.CreatedAt,
		payment.UpdatedAt,
	).Error
}

func (r *repo) FindBySessionID(ctx context.Context, db *gorm.DB, sessionID string) (*paymentdomain.Payment, error) {
	var payment paymentdomain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT `+paymentColumns+` FROM payments WHERE stripe_session_id = ?`,
		sessionID,
	).Scan(&payment).Error
	if err != nil {
		return nil, err
	}
	if payment.ID == 0 {
		return nil, nil
	}
	return &payment, nil
}

func (r *repo) ListByPaymentID(ctx context.Context, db *gorm.DB, paymentID string) ([]paymentdomain.Payment, error) {
	var payments []paymentdomain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT `+paymentColumns+` FROM payments WHERE stripe_payment_id = ?`,
		paymentID,
	).Scan(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) ListByParent(ctx context.Context, db *gorm.DB, kind paymentdomain.ParentKind, parentID snowflake.ID) ([]paymentdomain.Payment, error) {
	var payments []paymentdomain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT `+paymentColumns+` FROM payments WHERE kind = ? AND parent_id = ? ORDER BY created_at DESC`,
		kind,
		parentID,
	).Scan(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) HasSucceededForParent(ctx context.Context, db *gorm.DB, kind paymentdomain.ParentKind, parentID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM payments WHERE kind = ? AND parent_id = ? AND status = ?`,
		kind,
		parentID,
		paymentdomain.PaymentStatusSucceeded,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) MarkSucceeded(ctx context.Context, db *gorm.DB, id snowflake.ID, paymentID string, paidAt time.Time, metadata []byte) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payments SET status = ?, stripe_payment_id = COALESCE(NULLIF(?, ''), stripe_payment_id), paid_at = ?, metadata = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		paymentdomain.PaymentStatusSucceeded,
		paymentID,
		paidAt,
		metadata,
		time.Now().UTC(),
		id,
		paymentdomain.PaymentStatusPending,
	).Error
}

func (r *repo) MarkFailed(ctx context.Context, db *gorm.DB, id snowflake.ID, reason string, failedAt time.Time, metadata []byte) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payments SET status = ?, failure_reason = ?, failed_at = ?, metadata = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		paymentdomain.PaymentStatusFailed,
		reason,
		failedAt,
		metadata,
		time.Now().UTC(),
		id,
		paymentdomain.PaymentStatusPending,
	).Error
}

func (r *repo) InsertEvent(ctx context.Context, db *gorm.DB, event *paymentdomain.WebhookEvent) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO webhook_events (id, provider, event_id, event_type, payload, processed_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (provider, event_id) DO NOTHING`,
		event.ID,
		event.Provider,
		event.EventID,
		event.EventType,
		event.Payload,
		event.ProcessedAt,
		event.CreatedAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindEvent(ctx context.Context, db *gorm.DB, provider, eventID string) (*paymentdomain.WebhookEvent, error) {
	var event paymentdomain.WebhookEvent
	err := db.WithContext(ctx).Raw(
		`SELECT id, provider, event_id, event_type, payload, processed_at, created_at
		 FROM webhook_events
		 WHERE provider = ? AND event_id = ?
		 LIMIT 1`,
		provider,
		eventID,
	).Scan(&event).Error
	if err != nil {
		return nil, err
	}
	if event.ID == 0 {
		return nil, nil
	}
	return &event, nil
}

func (r *repo) MarkEventProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE webhook_events SET processed_at = ? WHERE id = ?`,
		time.Now().UTC(),
		id,
	).Error
}
