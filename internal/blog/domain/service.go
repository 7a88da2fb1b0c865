package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type CreatePostRequest struct {
	Title      string
	Excerpt    string
	Content    string
	CategoryID *snowflake.ID
	AuthorID   snowflake.ID
	Publish    bool
}

type Service interface {
	CreatePost(ctx context.Context, req CreatePostRequest) (*BlogPost, error)
	PublishPost(ctx context.Context, id snowflake.ID) (*BlogPost, error)
	GetPost(ctx context.Context, slugOrID string) (*BlogPost, error)
	ListPosts(ctx context.Context, filter ListPostsFilter) ([]BlogPost, error)

	CreateCategory(ctx context.Context, name string) (*BlogCategory, error)
	ListCategories(ctx context.Context) ([]BlogCategory, error)
}
