package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	identitydomain "github.com/vyoniqlabs/backoffice/internal/identity/domain"
)

const (
	sessionCookieName  = "vyoniq_session"
	contextIdentityKey = "identity"
)

// resolveIdentity reads the session cookie if present and attaches the
// caller's identity to the gin context. A missing or bad cookie is not
// an error here; the route-level gates decide whether anonymous access
// is acceptable.
func (s *Server) resolveIdentity(c *gin.Context) *identitydomain.Identity {
	if v, ok := c.Get(contextIdentityKey); ok {
		if identity, ok := v.(*identitydomain.Identity); ok {
			return identity
		}
	}

	token, err := c.Cookie(sessionCookieName)
	if err != nil || strings.TrimSpace(token) == "" {
		return nil
	}

	identity, err := s.identitySvc.Authenticate(c.Request.Context(), token)
	if err != nil {
		return nil
	}

	c.Set(contextIdentityKey, identity)
	return identity
}

func (s *Server) WebAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.resolveIdentity(c) == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}

// AdminRequired distinguishes an anonymous caller (401) from an
// authenticated non-admin (403).
func (s *Server) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := s.resolveIdentity(c)
		switch identitydomain.AuthorizeAdmin(identity) {
		case identitydomain.DecisionAuthorized:
			c.Next()
		case identitydomain.DecisionForbidden:
			AbortWithError(c, ErrForbidden)
		default:
			AbortWithError(c, ErrUnauthorized)
		}
	}
}
