package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/vyoniqlabs/backoffice/internal/payment/domain"
	"github.com/vyoniqlabs/backoffice/internal/payment/stripe"
)

// HandleStripeWebhook ingests one Stripe delivery. The raw body must
// reach signature verification untouched, so it is read before any
// JSON decoding. Replays and event types outside the state machine are
// acknowledged with 200 so Stripe stops retrying them.
func (s *Server) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	err = s.paymentSvc.HandleWebhookEvent(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		switch {
		case errors.Is(err, paymentdomain.ErrEventIgnored),
			errors.Is(err, paymentdomain.ErrEventAlreadyProcessed):
			c.JSON(http.StatusOK, gin.H{"received": true})
		case errors.Is(err, stripe.ErrInvalidSignature),
			errors.Is(err, paymentdomain.ErrInvalidPayload),
			errors.Is(err, paymentdomain.ErrInvalidEvent):
			AbortWithError(c, invalidRequestError())
		default:
			AbortWithError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
