package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertBudget(ctx context.Context, db *gorm.DB, budget *Budget) error
	InsertBudgetItems(ctx context.Context, db *gorm.DB, items []BudgetItem) error
	FindBudgetByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Budget, error)
	ListBudgets(ctx context.Context, db *gorm.DB) ([]Budget, error)
	ListBudgetItems(ctx context.Context, db *gorm.DB, budgetID snowflake.ID) ([]BudgetItem, error)
	UpdateBudgetStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status Status) error
	ApproveBudget(ctx context.Context, db *gorm.DB, id snowflake.ID, validUntil time.Time) error

	InsertSubscription(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	InsertSubscriptionItems(ctx context.Context, db *gorm.DB, items []SubscriptionItem) error
	FindSubscriptionByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	ListSubscriptions(ctx context.Context, db *gorm.DB) ([]Subscription, error)
	ListSubscriptionItems(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) ([]SubscriptionItem, error)
	UpdateSubscriptionStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status Status) error
	ApproveSubscription(ctx context.Context, db *gorm.DB, id snowflake.ID, validUntil time.Time) error
	UpdateSubscriptionStripeRefs(ctx context.Context, db *gorm.DB, id snowflake.ID, customerID, productID, priceID *string) error
}
