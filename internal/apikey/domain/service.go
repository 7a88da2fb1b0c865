package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	ScopeBlogRead     = "blog:read"
	ScopeBlogWrite    = "blog:write"
	ScopeInquiryRead  = "inquiries:read"
	ScopeInquiryWrite = "inquiries:write"
	ScopeMCPFull      = "mcp:full"
)

// ValidScopes lists every scope Create accepts.
var ValidScopes = []string{
	ScopeBlogRead,
	ScopeBlogWrite,
	ScopeInquiryRead,
	ScopeInquiryWrite,
	ScopeMCPFull,
}

type Service interface {
	List(ctx context.Context) ([]Response, error)
	Create(ctx context.Context, req CreateRequest) (*SecretResponse, error)
	Rotate(ctx context.Context, keyID string) (*SecretResponse, error)
	Revoke(ctx context.Context, keyID string) error

	// Authenticate resolves a raw bearer key to its active record,
	// touching last_used_at on success.
	Authenticate(ctx context.Context, rawKey string) (*APIKey, error)
}

type CreateRequest struct {
	Name      string       `json:"name"`
	Scopes    []string     `json:"scopes"`
	CreatedBy snowflake.ID `json:"-"`
}

type Response struct {
	KeyID            string     `json:"key_id"`
	Name             string     `json:"name"`
	Scopes           []string   `json:"scopes"`
	IsActive         bool       `json:"is_active"`
	CreatedAt        time.Time  `json:"created_at"`
	LastUsedAt       *time.Time `json:"last_used_at"`
	ExpiresAt        *time.Time `json:"expires_at"`
	RotatedFromKeyID *string    `json:"rotated_from_key_id"`
}

// SecretResponse carries the plain key. It is returned exactly once, at
// creation or rotation time.
type SecretResponse struct {
	KeyID  string `json:"key_id"`
	APIKey string `json:"api_key"`
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidScope = errors.New("invalid_scope")
	ErrInvalidKeyID = errors.New("invalid_key_id")
	ErrNotFound     = errors.New("api_key_not_found")
	ErrInvalidKey   = errors.New("invalid_api_key")
)
