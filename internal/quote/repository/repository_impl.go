package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	quotedomain "github.com/vyoniqlabs/backoffice/internal/quote/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() quotedomain.Repository {
	return &repo{}
}

const budgetColumns = `id, inquiry_id, title, description, currency, total_amount, status, valid_until, admin_notes, created_by_id, created_at, updated_at`

func (r *repo) InsertBudget(ctx context.Context, db *gorm.DB, budget *quotedomain.Budget) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO budgets (id, inquiry_id, title, description, currency, total_amount, status, valid_until, admin_notes, created_by_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		budget.ID,
		budget.InquiryID,
		budget.Title,
		budget.Description,
		budget.Currency,
		budget.TotalAmount,
		budget.Status,
		budget.ValidUntil,
		budget.AdminNotes,
		budget.CreatedByID,
		budget.CreatedAt,
		budget.UpdatedAt,
	).Error
}

func (r *repo) InsertBudgetItems(ctx context.Context, db *gorm.DB, items []quotedomain.BudgetItem) error {
	for i := range items {
		item := &items[i]
		err := db.WithContext(ctx).Exec(
			`INSERT INTO budget_items (id, budget_id, name, description, quantity, unit_price, total_price, category, pricing_template_id, is_custom, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID,
			item.BudgetID,
			item.Name,
			item.Description,
			item.Quantity,
			item.UnitPrice,
			item.TotalPrice,
			item.Category,
			item.PricingTemplateID,
			item.IsCustom,
			item.CreatedAt,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) FindBudgetByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*quotedomain.Budget, error) {
	var budget quotedomain.Budget
	err := db.WithContext(ctx).Raw(
		`SELECT `+budgetColumns+` FROM budgets WHERE id = ?`,
		id,
	).Scan(&budget).Error
	if err != nil {
		return nil, err
	}
	if budget.ID == 0 {
		return nil, nil
	}
	return &budget, nil
}

func (r *repo) ListBudgets(ctx context.Context, db *gorm.DB) ([]quotedomain.Budget, error) {
	var budgets []quotedomain.Budget
	err := db.WithContext(ctx).Raw(
		`SELECT ` + budgetColumns + ` FROM budgets ORDER BY created_at DESC`,
	).Scan(&budgets).Error
	if err != nil {
		return nil, err
	}
	return budgets, nil
}

func (r *repo) ListBudgetItems(ctx context.Context, db *gorm.DB, budgetID snowflake.ID) ([]quotedomain.BudgetItem, error) {
	var items []quotedomain.BudgetItem
	err := db.WithContext(ctx).Raw(
		`SELECT id, budget_id, name, description, quantity, unit_price, total_price, category, pricing_template_id, is_custom, created_at
		 FROM budget_items WHERE budget_id = ? ORDER BY created_at ASC, id ASC`,
		budgetID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateBudgetStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status quotedomain.Status) error {
	return db.WithContext(ctx).Exec(
		`UPDATE budgets SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		time.Now().UTC(),
		id,
	).Error
}

func (r *repo) ApproveBudget(ctx context.Context, db *gorm.DB, id snowflake.ID, validUntil time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE budgets SET status = ?, valid_until = COALESCE(valid_until, ?), updated_at = ? WHERE id = ?`,
		quotedomain.StatusApproved,
		validUntil,
		time.Now().UTC(),
		id,
	).Error
}

const subscriptionColumns = `id, inquiry_id, title, description, currency, monthly_amount, billing_interval, trial_period_days, status, valid_until, admin_notes, created_by_id, stripe_customer_id, stripe_product_id, stripe_price_id, created_at, updated_at`

func (r *repo) InsertSubscription(ctx context.Context, db *gorm.DB, subscription *quotedomain.Subscription) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO subscriptions (id, inquiry_id, title, description, currency, monthly_amount, billing_interval, trial_period_days, status, valid_until, admin_notes, created_by_id, stripe_customer_id, stripe_product_id, stripe_price_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		subscription.ID,
		subscription.InquiryID,
		subscription.Title,
		subscription.Description,
		subscription.Currency,
		subscription.MonthlyAmount,
		subscription.BillingInterval,
		subscription.TrialPeriodDays,
		subscription.Status,
		subscription.ValidUntil,
		subscription.AdminNotes,
		subscription.CreatedByID,
		subscription.StripeCustomerID,
		subscription.StripeProductID,
		subscription.StripePriceID,
		subscription.CreatedAt,
		subscription.UpdatedAt,
	).Error
}

func (r *repo) InsertSubscriptionItems(ctx context.Context, db *gorm.DB, items []quotedomain.SubscriptionItem) error {
	for i := range items {
		item := &items[i]
		err := db.WithContext(ctx).Exec(
			`INSERT INTO subscription_items (id, subscription_id, name, description, quantity, unit_price, total_price, category, pricing_template_id, is_custom, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID,
			item.SubscriptionID,
			item.Name,
			item.Description,
			item.Quantity,
			item.UnitPrice,
			item.TotalPrice,
			item.Category,
			item.PricingTemplateID,
			item.IsCustom,
			item.CreatedAt,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) FindSubscriptionByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*quotedomain.Subscription, error) {
	var subscription quotedomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ?`,
		id,
	).Scan(&subscription).Error
	if err != nil {
		return nil, err
	}
	if subscription.ID == 0 {
		return nil, nil
	}
	return &subscription, nil
}

func (r *repo) ListSubscriptions(ctx context.Context, db *gorm.DB) ([]quotedomain.Subscription, error) {
	var subscriptions []quotedomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT ` + subscriptionColumns + ` FROM subscriptions ORDER BY created_at DESC`,
	).Scan(&subscriptions).Error
	if err != nil {
		return nil, err
	}
	return subscriptions, nil
}

func (r *repo) ListSubscriptionItems(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) ([]quotedomain.SubscriptionItem, error) {
	var items []quotedomain.SubscriptionItem
	err := db.WithContext(ctx).Raw(
		`SELECT id, subscription_id, name, description, quantity, unit_price, total_price, category, pricing_template_id, is_custom, created_at
		 FROM subscription_items WHERE subscription_id = ? ORDER BY created_at ASC, id ASC`,
		subscriptionID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateSubscriptionStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status quotedomain.Status) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		time.Now().UTC(),
		id,
	).Error
}

func (r *repo) ApproveSubscription(ctx context.Context, db *gorm.DB, id snowflake.ID, validUntil time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions SET status = ?, valid_until = COALESCE(valid_until, ?), updated_at = ? WHERE id = ?`,
		quotedomain.StatusApproved,
		validUntil,
		time.Now().UTC(),
		id,
	).Error
}

func (r *repo) UpdateSubscriptionStripeRefs(ctx context.Context, db *gorm.DB, id snowflake.ID, customerID, productID, priceID *string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions SET
			stripe_customer_id = COALESCE(?, stripe_customer_id),
			stripe_product_id = COALESCE(?, stripe_product_id),
			stripe_price_id = COALESCE(?, stripe_price_id),
			updated_at = ?
		 WHERE id = ?`,
		customerID,
		productID,
		priceID,
		time.Now().UTC(),
		id,
	).Error
}
