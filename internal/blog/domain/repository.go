package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ListPostsFilter narrows ListPosts. Zero values mean "no filter".
type ListPostsFilter struct {
	PublishedOnly bool
	CategoryID    *snowflake.ID
	Limit         int
}

type Repository interface {
	InsertPost(ctx context.Context, db *gorm.DB, post *BlogPost) error
	UpdatePost(ctx context.Context, db *gorm.DB, post *BlogPost) error
	FindPostByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*BlogPost, error)
	FindPostBySlug(ctx context.Context, db *gorm.DB, slug string) (*BlogPost, error)
	ListPosts(ctx context.Context, db *gorm.DB, filter ListPostsFilter) ([]BlogPost, error)

	InsertCategory(ctx context.Context, db *gorm.DB, category *BlogCategory) error
	FindCategoryByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*BlogCategory, error)
	FindCategoryBySlug(ctx context.Context, db *gorm.DB, slug string) (*BlogCategory, error)
	ListCategories(ctx context.Context, db *gorm.DB) ([]BlogCategory, error)
}
