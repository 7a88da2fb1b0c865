// Package domain contains identity models consumed by the back office.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// User is an account known to the back office. Accounts are either
// provisioned by an admin (standalone quotes) or created through the
// public site signup, which is outside this service.
type User struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	Email        string       `gorm:"type:text;not null;uniqueIndex"`
	Name         string       `gorm:"type:text;not null"`
	IsAdmin      bool         `gorm:"not null;default:false"`
	PasswordHash string       `gorm:"type:text;not null"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (User) TableName() string { return "users" }

// Session is a browser session resolved from the auth cookie.
type Session struct {
	Token     string       `gorm:"primaryKey;type:text"`
	UserID    snowflake.ID `gorm:"not null;index"`
	ExpiresAt time.Time    `gorm:"not null"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Session) TableName() string { return "sessions" }

// Identity is the resolved caller of a request.
type Identity struct {
	UserID  snowflake.ID
	Email   string
	Name    string
	IsAdmin bool
}
