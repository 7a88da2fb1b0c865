package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/getkin/kin-openapi/openapi3"
	blogdomain "github.com/vyoniqlabs/backoffice/internal/blog/domain"
	inquirydomain "github.com/vyoniqlabs/backoffice/internal/inquiry/domain"
	"gorm.io/gorm"
)

// Deps are the collaborators the default toolset closes over. Each tool
// performs exactly one service/repository operation set.
type Deps struct {
	DB          *gorm.DB
	Blog        blogdomain.Service
	InquiryRepo inquirydomain.Repository
}

// RegisterDefaultTools populates the registry with the back-office
// tool and resource surface. Called once at startup, before Freeze.
func RegisterDefaultTools(registry *Registry, deps Deps) error {
	tools := []Tool{
		{
			Name:          "list_blog_posts",
			Description:   "List blog posts, optionally restricted to published posts.",
			RequiredScope: "blog:read",
			InputSchema: openapi3.NewObjectSchema().
				WithProperty("publishedOnly", openapi3.NewBoolSchema()).
				WithProperty("limit", openapi3.NewIntegerSchema().WithMin(1).WithMax(100)),
			Handler: func(ctx context.Context, _ *Caller, args map[string]any) (string, error) {
				filter := blogdomain.ListPostsFilter{
					PublishedOnly: boolArg(args, "publishedOnly"),
					Limit:         intArg(args, "limit"),
				}
				posts, err := deps.Blog.ListPosts(ctx, filter)
				if err != nil {
					return "", err
				}
				return marshal(posts)
			},
		},
		{
			Name:          "get_blog_post",
			Description:   "Fetch a single blog post by slug or id.",
			RequiredScope: "blog:read",
			InputSchema: requireFields(openapi3.NewObjectSchema().
				WithProperty("slug", openapi3.NewStringSchema().WithMinLength(1)), "slug"),
			Handler: func(ctx context.Context, _ *Caller, args map[string]any) (string, error) {
				post, err := deps.Blog.GetPost(ctx, stringArg(args, "slug"))
				if err != nil {
					return "", err
				}
				return marshal(post)
			},
		},
		{
			Name:          "create_blog_post",
			Description:   "Create a blog post, optionally publishing it immediately.",
			RequiredScope: "blog:write",
			InputSchema: requireFields(openapi3.NewObjectSchema().
				WithProperty("title", openapi3.NewStringSchema().WithMinLength(1)).
				WithProperty("content", openapi3.NewStringSchema().WithMinLength(1)).
				WithProperty("excerpt", openapi3.NewStringSchema()).
				WithProperty("categoryId", openapi3.NewStringSchema()).
				WithProperty("publish", openapi3.NewBoolSchema()), "title", "content"),
			Handler: func(ctx context.Context, caller *Caller, args map[string]any) (string, error) {
				req := blogdomain.CreatePostRequest{
					Title:    stringArg(args, "title"),
					Content:  stringArg(args, "content"),
					Excerpt:  stringArg(args, "excerpt"),
					Publish:  boolArg(args, "publish"),
					AuthorID: callerID(caller),
				}
				if raw := stringArg(args, "categoryId"); raw != "" {
					id, err := snowflake.ParseString(raw)
					if err != nil {
						return "", blogdomain.ErrCategoryNotFound
					}
					req.CategoryID = &id
				}
				post, err := deps.Blog.CreatePost(ctx, req)
				if err != nil {
					return "", err
				}
				return marshal(post)
			},
		},
		{
			Name:          "publish_blog_post",
			Description:   "Publish an existing draft blog post.",
			RequiredScope: "blog:write",
			InputSchema: requireFields(openapi3.NewObjectSchema().
				WithProperty("id", openapi3.NewStringSchema().WithMinLength(1)), "id"),
			Handler: func(ctx context.Context, _ *Caller, args map[string]any) (string, error) {
				id, err := snowflake.ParseString(stringArg(args, "id"))
				if err != nil {
					return "", blogdomain.ErrPostNotFound
				}
				post, err := deps.Blog.PublishPost(ctx, id)
				if err != nil {
					return "", err
				}
				return marshal(post)
			},
		},
		{
			Name:          "list_categories",
			Description:   "List blog categories.",
			RequiredScope: "blog:read",
			InputSchema:   openapi3.NewObjectSchema(),
			Handler: func(ctx context.Context, _ *Caller, _ map[string]any) (string, error) {
				categories, err := deps.Blog.ListCategories(ctx)
				if err != nil {
					return "", err
				}
				return marshal(categories)
			},
		},
		{
			Name:          "create_category",
			Description:   "Create a blog category.",
			RequiredScope: "blog:write",
			InputSchema: requireFields(openapi3.NewObjectSchema().
				WithProperty("name", openapi3.NewStringSchema().WithMinLength(1)), "name"),
			Handler: func(ctx context.Context, _ *Caller, args map[string]any) (string, error) {
				category, err := deps.Blog.CreateCategory(ctx, stringArg(args, "name"))
				if err != nil {
					return "", err
				}
				return marshal(category)
			},
		},
		{
			Name:          "list_inquiries",
			Description:   "List client inquiries with their current status.",
			RequiredScope: "inquiries:read",
			InputSchema: openapi3.NewObjectSchema().
				WithProperty("status", openapi3.NewStringSchema().
					WithEnum("PENDING", "IN_PROGRESS", "RESOLVED", "CLOSED")),
			Handler: func(ctx context.Context, _ *Caller, args map[string]any) (string, error) {
				inquiries, err := deps.InquiryRepo.List(ctx, deps.DB)
				if err != nil {
					return "", err
				}
				if status := stringArg(args, "status"); status != "" {
					filtered := inquiries[:0]
					for _, inquiry := range inquiries {
						if string(inquiry.Status) == status {
							filtered = append(filtered, inquiry)
						}
					}
					inquiries = filtered
				}
				return marshal(inquiries)
			},
		},
	}

	for _, tool := range tools {
		if err := registry.RegisterTool(tool); err != nil {
			return err
		}
	}

	resources := []Resource{
		{
			URITemplate:   "blog://posts/{slug}",
			Name:          "Blog post",
			Description:   "A single blog post addressed by slug.",
			MimeType:      "application/json",
			RequiredScope: "blog:read",
			Handler: func(ctx context.Context, _ *Caller, uri string) (string, error) {
				slug := strings.TrimPrefix(uri, "blog://posts/")
				post, err := deps.Blog.GetPost(ctx, slug)
				if err != nil {
					return "", err
				}
				return marshal(post)
			},
		},
		{
			URITemplate:   "blog://categories",
			Name:          "Blog categories",
			Description:   "All blog categories.",
			MimeType:      "application/json",
			RequiredScope: "blog:read",
			Handler: func(ctx context.Context, _ *Caller, _ string) (string, error) {
				categories, err := deps.Blog.ListCategories(ctx)
				if err != nil {
					return "", err
				}
				return marshal(categories)
			},
		},
	}

	for _, resource := range resources {
		if err := registry.RegisterResource(resource); err != nil {
			return err
		}
	}

	return nil
}

func requireFields(schema *openapi3.Schema, fields ...string) *openapi3.Schema {
	schema.Required = append(schema.Required, fields...)
	return schema
}

func marshal(value any) (string, error) {
	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func stringArg(args map[string]any, key string) string {
	if value, ok := args[key].(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

func boolArg(args map[string]any, key string) bool {
	value, _ := args[key].(bool)
	return value
}

func intArg(args map[string]any, key string) int {
	switch value := args[key].(type) {
	case float64:
		return int(value)
	case int:
		return value
	case json.Number:
		parsed, err := value.Int64()
		if err == nil {
			return int(parsed)
		}
	}
	return 0
}

func callerID(caller *Caller) snowflake.ID {
	if caller == nil {
		return 0
	}
	id, err := snowflake.ParseString(caller.Subject)
	if err != nil {
		return 0
	}
	return id
}
