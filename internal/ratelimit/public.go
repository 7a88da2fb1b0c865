package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/vyoniqlabs/backoffice/internal/config"
)

const (
	keyCheckout = "public:checkout:%s"
	keyInquiry  = "public:inquiry:%s"
)

// PublicLimiter throttles the abuse-prone public endpoints (checkout
// session creation, inquiry intake) per client address. It is disabled
// when no Redis address is configured, in which case every request is
// allowed.
type PublicLimiter struct {
	enabled bool
	bucket  *TokenBucket
}

func NewPublicLimiter(cfg config.Config) *PublicLimiter {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return &PublicLimiter{}
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	return &PublicLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
	}
}

func (l *PublicLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *PublicLimiter) AllowCheckout(ctx context.Context, clientIP string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyCheckout, clientIP), 0.2, 5)
}

func (l *PublicLimiter) AllowInquiry(ctx context.Context, clientIP string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyInquiry, clientIP), 0.1, 3)
}
