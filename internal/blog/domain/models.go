// Package domain contains blog posts and categories managed through the
// admin dashboard and the MCP tool surface.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrPostNotFound     = errors.New("blog_post_not_found")
	ErrCategoryNotFound = errors.New("blog_category_not_found")
	ErrSlugTaken        = errors.New("blog_slug_taken")
	ErrInvalidRequest   = errors.New("blog_invalid_request")
)

type BlogCategory struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Name      string       `gorm:"type:text;not null;uniqueIndex"`
	Slug      string       `gorm:"type:text;not null;uniqueIndex"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (BlogCategory) TableName() string { return "blog_categories" }

type BlogPost struct {
	ID          snowflake.ID  `gorm:"primaryKey"`
	Title       string        `gorm:"type:text;not null"`
	Slug        string        `gorm:"type:text;not null;uniqueIndex"`
	Excerpt     string        `gorm:"type:text"`
	Content     string        `gorm:"type:text;not null"`
	CategoryID  *snowflake.ID `gorm:"index"`
	AuthorID    snowflake.ID  `gorm:"not null;index"`
	Published   bool          `gorm:"not null;default:false"`
	PublishedAt *time.Time
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (BlogPost) TableName() string { return "blog_posts" }
