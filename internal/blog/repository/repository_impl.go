package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	blogdomain "github.com/vyoniqlabs/backoffice/internal/blog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() blogdomain.Repository {
	return &repo{}
}

func (r *repo) InsertPost(ctx context.Context, db *gorm.DB, post *blogdomain.BlogPost) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO blog_posts (
			id, title, slug, excerpt, content, category_id, author_id,
			published, published_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		post.ID,
		post.Title,
		post.Slug,
		post.Excerpt,
		post.Content,
		post.CategoryID,
		post.AuthorID,
		post.Published,
		post.PublishedAt,
		post.CreatedAt,
		post.UpdatedAt,
	).Error
}

func (r *repo) UpdatePost(ctx context.Context, db *gorm.DB, post *blogdomain.BlogPost) error {
	return db.WithContext(ctx).Exec(
		`UPDATE blog_posts SET
			title = ?, slug = ?, excerpt = ?, content = ?, category_id = ?,
			published = ?, published_at = ?, updated_at = ?
		 WHERE id = ?`,
		post.Title,
		post.Slug,
		post.Excerpt,
		post.Content,
		post.CategoryID,
		post.Published,
		post.PublishedAt,
		post.UpdatedAt,
		post.ID,
	).Error
}

func (r *repo) FindPostByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*blogdomain.BlogPost, error) {
	var post blogdomain.BlogPost
	err := db.WithContext(ctx).Raw(
		`SELECT id, title, slug, excerpt, content, category_id, author_id,
		 published, published_at, created_at, updated_at
		 FROM blog_posts WHERE id = ?`,
		id,
	).Scan(&post).Error
	if err != nil {
		return nil, err
	}
	if post.ID == 0 {
		return nil, nil
	}
	return &post, nil
}

func (r *repo) FindPostBySlug(ctx context.Context, db *gorm.DB, slug string) (*blogdomain.BlogPost, error) {
	var post blogdomain.BlogPost
	err := db.WithContext(ctx).Raw(
		`SELECT id, title, slug, excerpt, content, category_id, author_id,
		 published, published_at, created_at, updated_at
		 FROM blog_posts WHERE slug = ?`,
		strings.TrimSpace(slug),
	).Scan(&post).Error
	if err != nil {
		return nil, err
	}
	if post.ID == 0 {
		return nil, nil
	}
	return &post, nil
}

func (r *repo) ListPosts(ctx context.Context, db *gorm.DB, filter blogdomain.ListPostsFilter) ([]blogdomain.BlogPost, error) {
	query := `SELECT id, title, slug, excerpt, content, category_id, author_id,
	 published, published_at, created_at, updated_at
	 FROM blog_posts`

	var (
		clauses []string
		args    []interface{}
	)
	if filter.PublishedOnly {
		clauses = append(clauses, "published = true")
	}
	if filter.CategoryID != nil {
		clauses = append(clauses, "category_id = ?")
		args = append(args, *filter.CategoryID)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	var posts []blogdomain.BlogPost
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *repo) InsertCategory(ctx context.Context, db *gorm.DB, category *blogdomain.BlogCategory) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO blog_categories (id, name, slug, created_at) VALUES (?, ?, ?, ?)`,
		category.ID,
		category.Name,
		category.Slug,
		category.CreatedAt,
	).Error
}

func (r *repo) FindCategoryByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*blogdomain.BlogCategory, error) {
	var category blogdomain.BlogCategory
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, slug, created_at FROM blog_categories WHERE id = ?`,
		id,
	).Scan(&category).Error
	if err != nil {
		return nil, err
	}
	if category.ID == 0 {
		return nil, nil
	}
	return &category, nil
}

func (r *repo) FindCategoryBySlug(ctx context.Context, db *gorm.DB, slug string) (*blogdomain.BlogCategory, error) {
	var category blogdomain.BlogCategory
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, slug, created_at FROM blog_categories WHERE slug = ?`,
		strings.TrimSpace(slug),
	).Scan(&category).Error
	if err != nil {
		return nil, err
	}
	if category.ID == 0 {
		return nil, nil
	}
	return &category, nil
}

func (r *repo) ListCategories(ctx context.Context, db *gorm.DB) ([]blogdomain.BlogCategory, error) {
	var categories []blogdomain.BlogCategory
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, slug, created_at FROM blog_categories ORDER BY name ASC`,
	).Scan(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}
