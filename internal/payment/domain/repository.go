package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindBySessionID(ctx context.Context, db *gorm.DB, sessionID string) (*Payment, error)
	ListByPaymentID(ctx context.Context, db *gorm.DB, paymentID string) ([]Payment, error)
	ListByParent(ctx context.Context, db *gorm.DB, kind ParentKind, parentID snowflake.ID) ([]Payment, error)
	HasSucceededForParent(ctx context.Context, db *gorm.DB, kind ParentKind, parentID snowflake.ID) (bool, error)
	MarkSucceeded(ctx context.Context, db *gorm.DB, id snowflake.ID, paymentID string, paidAt time.Time, metadata []byte) error
	MarkFailed(ctx context.Context, db *gorm.DB, id snowflake.ID, reason string, failedAt time.Time, metadata []byte) error

	InsertEvent(ctx context.Context, db *gorm.DB, event *WebhookEvent) (bool, error)
	FindEvent(ctx context.Context, db *gorm.DB, provider, eventID string) (*WebhookEvent, error)
	MarkEventProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
