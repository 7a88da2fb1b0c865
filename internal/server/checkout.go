package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	quotedomain "github.com/vyoniqlabs/backoffice/internal/quote/domain"
	"go.uber.org/zap"
)

type createCheckoutRequest struct {
	BudgetID       *snowflake.ID `json:"budgetId,string,omitempty"`
	SubscriptionID *snowflake.ID `json:"subscriptionId,string,omitempty"`
}

// CreateCheckoutSession starts a Stripe checkout for an approved quote.
// The caller must be signed in and own the quote (or be an admin); the
// quote service enforces the full precondition chain.
func (s *Server) CreateCheckoutSession(c *gin.Context) {
	actor := s.resolveIdentity(c)
	if actor == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	allowed, err := s.publicLimiter.AllowCheckout(c.Request.Context(), c.ClientIP())
	if err != nil {
		s.log.Warn("checkout rate limit check failed", zap.Error(err))
	} else if !allowed {
		AbortWithError(c, ErrTooManyRequests)
		return
	}

	var req createCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var (
		kind quotedomain.Kind
		id   snowflake.ID
	)
	switch {
	case req.BudgetID != nil && req.SubscriptionID == nil:
		kind, id = quotedomain.KindBudget, *req.BudgetID
	case req.SubscriptionID != nil && req.BudgetID == nil:
		kind, id = quotedomain.KindSubscription, *req.SubscriptionID
	default:
		AbortWithError(c, newValidationError("request", "invalid_target", "exactly one of budgetId or subscriptionId is required"))
		return
	}

	result, err := s.quoteSvc.CreateCheckoutSession(c.Request.Context(), kind, id, actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
