package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	pricingdomain "github.com/vyoniqlabs/backoffice/internal/pricing/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() pricingdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, pricing *pricingdomain.ServicePricing) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO service_pricing (
			id, service_type, name, description, base_price, currency, billing_type,
			features, is_active, customizable, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pricing.ID,
		pricing.ServiceType,
		pricing.Name,
		pricing.Description,
		pricing.BasePrice,
		pricing.Currency,
		pricing.BillingType,
		pricing.Features,
		pricing.IsActive,
		pricing.Customizable,
		pricing.CreatedAt,
		pricing.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*pricingdomain.ServicePricing, error) {
	var pricing pricingdomain.ServicePricing
	err := db.WithContext(ctx).Raw(
		`SELECT id, service_type, name, description, base_price, currency, billing_type,
		 features, is_active, customizable, created_at, updated_at
		 FROM service_pricing WHERE id = ?`,
		id,
	).Scan(&pricing).Error
	if err != nil {
		return nil, err
	}
	if pricing.ID == 0 {
		return nil, nil
	}
	return &pricing, nil
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]pricingdomain.ServicePricing, error) {
	var pricings []pricingdomain.ServicePricing
	err := db.WithContext(ctx).Raw(
		`SELECT id, service_type, name, description, base_price, currency, billing_type,
		 features, is_active, customizable, created_at, updated_at
		 FROM service_pricing WHERE is_active = true ORDER BY service_type ASC, base_price ASC`,
	).Scan(&pricings).Error
	if err != nil {
		return nil, err
	}
	return pricings, nil
}
