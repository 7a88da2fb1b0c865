package domain

import (
	"context"
	"errors"
)

var (
	ErrInvalidSession = errors.New("invalid_session")
	ErrSessionExpired = errors.New("session_expired")
	ErrUserNotFound   = errors.New("user_not_found")
)

// Decision is the outcome of a capability check.
type Decision int

const (
	DecisionAuthorized Decision = iota
	DecisionUnauthorized
	DecisionForbidden
)

// AuthorizeAdmin is the single admin capability check used by every
// admin-gated operation.
func AuthorizeAdmin(identity *Identity) Decision {
	if identity == nil {
		return DecisionUnauthorized
	}
	if !identity.IsAdmin {
		return DecisionForbidden
	}
	return DecisionAuthorized
}

type Service interface {
	// Authenticate resolves a session token to the caller's identity.
	Authenticate(ctx context.Context, token string) (*Identity, error)

	// FindByEmail returns the user with the given email, or ErrUserNotFound.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Provision ensures a user exists for email. Re-invocation for an
	// existing email returns the stored user and created=false; a new user
	// receives a one-time credential delivered out-of-band.
	Provision(ctx context.Context, email, name string) (*User, bool, error)
}
