package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	identitydomain "github.com/vyoniqlabs/backoffice/internal/identity/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() identitydomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, user *identitydomain.User) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO users (id, email, name, is_admin, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Name,
		user.IsAdmin,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	).Error
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*identitydomain.User, error) {
	var user identitydomain.User
	err := db.WithContext(ctx).Raw(
		`SELECT id, email, name, is_admin, password_hash, created_at, updated_at
		 FROM users WHERE LOWER(email) = ?`,
		strings.ToLower(strings.TrimSpace(email)),
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*identitydomain.User, error) {
	var user identitydomain.User
	err := db.WithContext(ctx).Raw(
		`SELECT id, email, name, is_admin, password_hash, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *repo) FindSession(ctx context.Context, db *gorm.DB, token string) (*identitydomain.Session, error) {
	var session identitydomain.Session
	err := db.WithContext(ctx).Raw(
		`SELECT token, user_id, expires_at, created_at
		 FROM sessions WHERE token = ?`,
		token,
	).Scan(&session).Error
	if err != nil {
		return nil, err
	}
	if session.Token == "" {
		return nil, nil
	}
	return &session, nil
}

func (r *repo) InsertSession(ctx context.Context, db *gorm.DB, session *identitydomain.Session) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO sessions (token, user_id, expires_at, created_at)
		 VALUES (?, ?, ?, ?)`,
		session.Token,
		session.UserID,
		session.ExpiresAt,
		session.CreatedAt,
	).Error
}
