// Package seed bootstraps the data a fresh deployment needs before the
// first admin logs in: the admin account itself and the default
// service pricing catalog.
package seed

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	identitydomain "github.com/vyoniqlabs/backoffice/internal/identity/domain"
	pricingdomain "github.com/vyoniqlabs/backoffice/internal/pricing/domain"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultAdminEmail = "admin@vyoniq.com"
	defaultAdminName  = "Vyoniq Admin"
)

// EnsureAdmin creates the bootstrap admin account when no admin exists.
// The password comes from BOOTSTRAP_ADMIN_PASSWORD; without it no
// account is created, which keeps production deployments from shipping
// a well-known credential.
func EnsureAdmin(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	password := strings.TrimSpace(os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"))
	if password == "" {
		return nil
	}
	email := strings.TrimSpace(os.Getenv("BOOTSTRAP_ADMIN_EMAIL"))
	if email == "" {
		email = defaultAdminEmail
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&identitydomain.User{}).Where("is_admin = ?", true).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		return tx.Create(&identitydomain.User{
			ID:           node.Generate(),
			Email:        strings.ToLower(email),
			Name:         defaultAdminName,
			IsAdmin:      true,
			PasswordHash: string(hash),
			CreatedAt:    now,
			UpdatedAt:    now,
		}).Error
	})
}

// EnsurePricingCatalog seeds the public service catalog on an empty
// table. Existing rows are left alone so admin edits survive restarts.
func EnsurePricingCatalog(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&pricingdomain.ServicePricing{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		for _, entry := range defaultCatalog {
			entry.ID = node.Generate()
			entry.IsActive = true
			entry.CreatedAt = now
			entry.UpdatedAt = now
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

var defaultCatalog = []pricingdomain.ServicePricing{
	{
		ServiceType:  pricingdomain.ServiceTypeWebMobile,
		Name:         "Starter Web App",
		Description:  "Single-page marketing site or small web application.",
		BasePrice:    250000,
		Currency:     "USD",
		BillingType:  pricingdomain.BillingTypeOneTime,
		Features:     datatypes.JSON([]byte(`["Responsive design","CMS integration","Basic SEO"]`)),
		Customizable: true,
	},
	{
		ServiceType:  pricingdomain.ServiceTypeWebMobile,
		Name:         "Custom Mobile App",
		Description:  "Cross-platform mobile application with backend.",
		BasePrice:    1200000,
		Currency:     "USD",
		BillingType:  pricingdomain.BillingTypeOneTime,
		Features:     datatypes.JSON([]byte(`["iOS and Android","API backend","App store submission"]`)),
		Customizable: true,
	},
	{
		ServiceType:  pricingdomain.ServiceTypeHosting,
		Name:         "Managed Hosting",
		Description:  "Monitoring, backups, and updates for one application.",
		BasePrice:    15000,
		Currency:     "USD",
		BillingType:  pricingdomain.BillingTypeMonthly,
		Features:     datatypes.JSON([]byte(`["Uptime monitoring","Daily backups","Security patches"]`)),
		Customizable: false,
	},
	{
		ServiceType:  pricingdomain.ServiceTypeAI,
		Name:         "AI Integration",
		Description:  "LLM-backed feature built into an existing product.",
		BasePrice:    600000,
		Currency:     "USD",
		BillingType:  pricingdomain.BillingTypeOneTime,
		Features:     datatypes.JSON([]byte(`["Model selection","Prompt engineering","Evaluation suite"]`)),
		Customizable: true,
	},
	{
		ServiceType:  pricingdomain.ServiceTypeVyoniqApps,
		Name:         "Vyoniq Apps Subscription",
		Description:  "Access to the hosted Vyoniq application suite.",
		BasePrice:    9900,
		Currency:     "USD",
		BillingType:  pricingdomain.BillingTypeMonthly,
		Features:     datatypes.JSON([]byte(`["All current apps","Priority support","Early access releases"]`)),
		Customizable: false,
	},
}
