// Package domain contains the admin-managed service pricing catalog.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ServiceType identifies a Vyoniq service line.
type ServiceType string

const (
	ServiceTypeWebMobile  ServiceType = "web-mobile"
	ServiceTypeHosting    ServiceType = "hosting"
	ServiceTypeAI         ServiceType = "ai"
	ServiceTypeVyoniqApps ServiceType = "vyoniq-apps"
)

// BillingType distinguishes one-time from recurring catalog entries.
type BillingType string

const (
	BillingTypeOneTime BillingType = "one-time"
	BillingTypeMonthly BillingType = "monthly"
	BillingTypeYearly  BillingType = "yearly"
)

var ErrNotFound = errors.New("service_pricing_not_found")

// ServicePricing is a read-only catalog template consumed when building
// quote items. Amounts are minor units (cents).
type ServicePricing struct {
	ID           snowflake.ID   `gorm:"primaryKey"`
	ServiceType  ServiceType    `gorm:"type:text;not null;index"`
	Name         string         `gorm:"type:text;not null"`
	Description  string         `gorm:"type:text;not null"`
	BasePrice    int64          `gorm:"not null"`
	Currency     string         `gorm:"type:text;not null"`
	BillingType  BillingType    `gorm:"type:text;not null"`
	Features     datatypes.JSON `gorm:"type:jsonb"`
	IsActive     bool           `gorm:"not null;default:true"`
	Customizable bool           `gorm:"not null;default:false"`
	CreatedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ServicePricing) TableName() string { return "service_pricing" }
