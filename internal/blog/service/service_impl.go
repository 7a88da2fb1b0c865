package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	blogdomain "github.com/vyoniqlabs/backoffice/internal/blog/domain"
	pkgdb "github.com/vyoniqlabs/backoffice/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  blogdomain.Repository
}

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  blogdomain.Repository
}

func NewService(p Params) blogdomain.Service {
	return &service{
		db:    p.DB,
		log:   p.Log.Named("blog.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *service) CreatePost(ctx context.Context, req blogdomain.CreatePostRequest) (*blogdomain.BlogPost, error) {
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if title == "" || content == "" {
		return nil, blogdomain.ErrInvalidRequest
	}

	if req.CategoryID != nil {
		category, err := s.repo.FindCategoryByID(ctx, s.db, *req.CategoryID)
		if err != nil {
			return nil, err
		}
		if category == nil {
			return nil, blogdomain.ErrCategoryNotFound
		}
	}

	now := time.Now().UTC()
	post := &blogdomain.BlogPost{
		ID:         s.genID.Generate(),
		Title:      title,
		Slug:       slug.Make(title),
		Excerpt:    strings.TrimSpace(req.Excerpt),
		Content:    content,
		CategoryID: req.CategoryID,
		AuthorID:   req.AuthorID,
		Published:  req.Publish,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if req.Publish {
		post.PublishedAt = &now
	}

	if err := s.repo.InsertPost(ctx, s.db, post); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, blogdomain.ErrSlugTaken
		}
		return nil, err
	}

	s.log.Info("blog post created",
		zap.String("post_id", post.ID.String()),
		zap.String("slug", post.Slug),
		zap.Bool("published", post.Published),
	)
	return post, nil
}

func (s *service) PublishPost(ctx context.Context, id snowflake.ID) (*blogdomain.BlogPost, error) {
	post, err := s.repo.FindPostByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, blogdomain.ErrPostNotFound
	}
	if post.Published {
		return post, nil
	}

	now := time.Now().UTC()
	post.Published = true
	post.PublishedAt = &now
	post.UpdatedAt = now
	if err := s.repo.UpdatePost(ctx, s.db, post); err != nil {
		return nil, err
	}

	s.log.Info("blog post published", zap.String("post_id", post.ID.String()))
	return post, nil
}

// GetPost resolves by slug first, falling back to a numeric ID so MCP
// callers can pass either form.
func (s *service) GetPost(ctx context.Context, slugOrID string) (*blogdomain.BlogPost, error) {
	post, err := s.repo.FindPostBySlug(ctx, s.db, slugOrID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		if id, parseErr := snowflake.ParseString(strings.TrimSpace(slugOrID)); parseErr == nil {
			post, err = s.repo.FindPostByID(ctx, s.db, id)
			if err != nil {
				return nil, err
			}
		}
	}
	if post == nil {
		return nil, blogdomain.ErrPostNotFound
	}
	return post, nil
}

func (s *service) ListPosts(ctx context.Context, filter blogdomain.ListPostsFilter) ([]blogdomain.BlogPost, error) {
	return s.repo.ListPosts(ctx, s.db, filter)
}

func (s *service) CreateCategory(ctx context.Context, name string) (*blogdomain.BlogCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, blogdomain.ErrInvalidRequest
	}

	category := &blogdomain.BlogCategory{
		ID:        s.genID.Generate(),
		Name:      name,
		Slug:      slug.Make(name),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.InsertCategory(ctx, s.db, category); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			existing, findErr := s.repo.FindCategoryBySlug(ctx, s.db, category.Slug)
			if findErr == nil && existing != nil {
				return existing, nil
			}
			return nil, blogdomain.ErrSlugTaken
		}
		return nil, err
	}
	return category, nil
}

func (s *service) ListCategories(ctx context.Context) ([]blogdomain.BlogCategory, error) {
	return s.repo.ListCategories(ctx, s.db)
}
