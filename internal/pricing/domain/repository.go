package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, pricing *ServicePricing) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ServicePricing, error)
	ListActive(ctx context.Context, db *gorm.DB) ([]ServicePricing, error)
}
