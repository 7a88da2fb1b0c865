// Package domain contains the budget and subscription quote aggregates.
// Monetary amounts are minor units; parent totals are always derived
// from the item rows, never taken from client input.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Kind discriminates the two quote aggregates.
type Kind string

const (
	KindBudget       Kind = "budget"
	KindSubscription Kind = "subscription"
)

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusApproved  Status = "APPROVED"
	StatusPaid      Status = "PAID"   // terminal for budgets
	StatusActive    Status = "ACTIVE" // terminal-success for subscriptions
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
)

type BillingInterval string

const (
	IntervalMonth BillingInterval = "month"
	IntervalYear  BillingInterval = "year"
)

// SupportedCurrencies are the only currencies quotes accept.
var SupportedCurrencies = []string{"USD", "CAD"}

// Budget is a one-time project quote attached to an inquiry.
type Budget struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	InquiryID   snowflake.ID `gorm:"column:inquiry_id;not null;index"`
	Title       string       `gorm:"type:text;not null"`
	Description string       `gorm:"type:text"`
	Currency    string       `gorm:"type:text;not null"`
	TotalAmount int64        `gorm:"column:total_amount;not null"`
	Status      Status       `gorm:"type:text;not null;index"`
	ValidUntil  *time.Time   `gorm:"column:valid_until"`
	AdminNotes  string       `gorm:"column:admin_notes;type:text"`
	CreatedByID snowflake.ID `gorm:"column:created_by_id;not null"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Budget) TableName() string { return "budgets" }

type BudgetItem struct {
	ID                snowflake.ID  `gorm:"primaryKey"`
	BudgetID          snowflake.ID  `gorm:"column:budget_id;not null;index"`
	Name              string        `gorm:"type:text;not null"`
	Description       string        `gorm:"type:text"`
	Quantity          int64         `gorm:"not null"`
	UnitPrice         int64         `gorm:"column:unit_price;not null"`
	TotalPrice        int64         `gorm:"column:total_price;not null"`
	Category          string        `gorm:"type:text"`
	PricingTemplateID *snowflake.ID `gorm:"column:pricing_template_id"`
	IsCustom          bool          `gorm:"column:is_custom;not null;default:false"`
	CreatedAt         time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (BudgetItem) TableName() string { return "budget_items" }

// Subscription is a recurring quote. MonthlyAmount holds the derived
// per-interval total. The stripe_* columns cache external ids so repeat
// checkouts reuse the same customer, product, and price.
type Subscription struct {
	ID               snowflake.ID    `gorm:"primaryKey"`
	InquiryID        snowflake.ID    `gorm:"column:inquiry_id;not null;index"`
	Title            string          `gorm:"type:text;not null"`
	Description      string          `gorm:"type:text"`
	Currency         string          `gorm:"type:text;not null"`
	MonthlyAmount    int64           `gorm:"column:monthly_amount;not null"`
	BillingInterval  BillingInterval `gorm:"column:billing_interval;type:text;not null"`
	TrialPeriodDays  int             `gorm:"column:trial_period_days;not null;default:0"`
	Status           Status          `gorm:"type:text;not null;index"`
	ValidUntil       *time.Time      `gorm:"column:valid_until"`
	AdminNotes       string          `gorm:"column:admin_notes;type:text"`
	CreatedByID      snowflake.ID    `gorm:"column:created_by_id;not null"`
	StripeCustomerID *string         `gorm:"column:stripe_customer_id;type:text"`
	StripeProductID  *string         `gorm:"column:stripe_product_id;type:text"`
	StripePriceID    *string         `gorm:"column:stripe_price_id;type:text"`
	CreatedAt        time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Subscription) TableName() string { return "subscriptions" }

type SubscriptionItem struct {
	ID                snowflake.ID  `gorm:"primaryKey"`
	SubscriptionID    snowflake.ID  `gorm:"column:subscription_id;not null;index"`
	Name              string        `gorm:"type:text;not null"`
	Description       string        `gorm:"type:text"`
	Quantity          int64         `gorm:"not null"`
	UnitPrice         int64         `gorm:"column:unit_price;not null"`
	TotalPrice        int64         `gorm:"column:total_price;not null"`
	Category          string        `gorm:"type:text"`
	PricingTemplateID *snowflake.ID `gorm:"column:pricing_template_id"`
	IsCustom          bool          `gorm:"column:is_custom;not null;default:false"`
	CreatedAt         time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (SubscriptionItem) TableName() string { return "subscription_items" }
