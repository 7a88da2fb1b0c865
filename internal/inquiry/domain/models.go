// Package domain contains persistence models for client inquiries.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// InquiryStatus represents lifecycle states for an inquiry.
type InquiryStatus string

const (
	InquiryStatusPending    InquiryStatus = "PENDING"
	InquiryStatusInProgress InquiryStatus = "IN_PROGRESS"
	InquiryStatusResolved   InquiryStatus = "RESOLVED"
	InquiryStatusClosed     InquiryStatus = "CLOSED"
)

var (
	ErrNotFound       = errors.New("inquiry_not_found")
	ErrInvalidRequest = errors.New("invalid_inquiry")
)

// Inquiry is a service inquiry submitted through the public site or
// created by an admin alongside a standalone quote. Ownership is by
// linked user id, or by email match for pre-account submissions.
type Inquiry struct {
	ID          snowflake.ID  `gorm:"primaryKey"`
	Name        string        `gorm:"type:text;not null"`
	Email       string        `gorm:"type:text;not null;index"`
	ServiceType string        `gorm:"type:text;not null"`
	Message     string        `gorm:"type:text;not null"`
	Status      InquiryStatus `gorm:"type:text;not null"`
	UserID      *snowflake.ID `gorm:"index"`
	CreatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Inquiry) TableName() string { return "inquiries" }
