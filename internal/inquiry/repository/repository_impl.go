package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	inquirydomain "github.com/vyoniqlabs/backoffice/internal/inquiry/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() inquirydomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, inquiry *inquirydomain.Inquiry) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO inquiries (id, name, email, service_type, message, status, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inquiry.ID,
		inquiry.Name,
		inquiry.Email,
		inquiry.ServiceType,
		inquiry.Message,
		inquiry.Status,
		inquiry.UserID,
		inquiry.CreatedAt,
		inquiry.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*inquirydomain.Inquiry, error) {
	var inquiry inquirydomain.Inquiry
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, email, service_type, message, status, user_id, created_at, updated_at
		 FROM inquiries WHERE id = ?`,
		id,
	).Scan(&inquiry).Error
	if err != nil {
		return nil, err
	}
	if inquiry.ID == 0 {
		return nil, nil
	}
	return &inquiry, nil
}

func (r *repo) FindFirstByEmail(ctx context.Context, db *gorm.DB, email string) (*inquirydomain.Inquiry, error) {
	var inquiry inquirydomain.Inquiry
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, email, service_type, message, status, user_id, created_at, updated_at
		 FROM inquiries WHERE LOWER(email) = LOWER(?) ORDER BY created_at ASC LIMIT 1`,
		email,
	).Scan(&inquiry).Error
	if err != nil {
		return nil, err
	}
	if inquiry.ID == 0 {
		return nil, nil
	}
	return &inquiry, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]inquirydomain.Inquiry, error) {
	var inquiries []inquirydomain.Inquiry
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, email, service_type, message, status, user_id, created_at, updated_at
		 FROM inquiries ORDER BY created_at DESC`,
	).Scan(&inquiries).Error
	if err != nil {
		return nil, err
	}
	return inquiries, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status inquirydomain.InquiryStatus) error {
	return db.WithContext(ctx).Exec(
		`UPDATE inquiries SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		time.Now().UTC(),
		id,
	).Error
}
