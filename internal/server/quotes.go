package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	identitydomain "github.com/vyoniqlabs/backoffice/internal/identity/domain"
	quotedomain "github.com/vyoniqlabs/backoffice/internal/quote/domain"
)

type createQuoteRequest struct {
	InquiryID       snowflake.ID            `json:"inquiryId,string"`
	Kind            quotedomain.Kind        `json:"kind"`
	Title           string                  `json:"title"`
	Description     string                  `json:"description"`
	Currency        string                  `json:"currency"`
	Items           []quotedomain.ItemInput `json:"items"`
	AdminNotes      string                  `json:"adminNotes"`
	BillingInterval string                  `json:"billingInterval"`
	TrialPeriodDays int                     `json:"trialPeriodDays"`
}

func (s *Server) CreateQuote(c *gin.Context) {
	actor := s.resolveIdentity(c)

	var req createQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	quote, err := s.quoteSvc.CreateQuote(c.Request.Context(), quotedomain.CreateQuoteRequest{
		InquiryID:       req.InquiryID,
		Kind:            req.Kind,
		Title:           req.Title,
		Description:     req.Description,
		Currency:        req.Currency,
		Items:           req.Items,
		AdminNotes:      req.AdminNotes,
		BillingInterval: quotedomain.BillingInterval(req.BillingInterval),
		TrialPeriodDays: req.TrialPeriodDays,
		CreatedByID:     actorID(actor),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, quote)
}

type createStandaloneQuoteRequest struct {
	ClientName      string                  `json:"clientName"`
	ClientEmail     string                  `json:"clientEmail"`
	ServiceType     string                  `json:"serviceType"`
	Kind            quotedomain.Kind        `json:"kind"`
	Title           string                  `json:"title"`
	Description     string                  `json:"description"`
	Currency        string                  `json:"currency"`
	Items           []quotedomain.ItemInput `json:"items"`
	AdminNotes      string                  `json:"adminNotes"`
	BillingInterval string                  `json:"billingInterval"`
	TrialPeriodDays int                     `json:"trialPeriodDays"`
}

// CreateStandaloneQuote provisions the client account and backing
// inquiry in the same request, for quotes prepared before the client
// ever contacts the site.
func (s *Server) CreateStandaloneQuote(c *gin.Context) {
	actor := s.resolveIdentity(c)

	var req createStandaloneQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	quote, err := s.quoteSvc.CreateStandaloneQuote(c.Request.Context(), quotedomain.StandaloneQuoteRequest{
		ClientName:      req.ClientName,
		ClientEmail:     req.ClientEmail,
		ServiceType:     req.ServiceType,
		Kind:            req.Kind,
		Title:           req.Title,
		Description:     req.Description,
		Currency:        req.Currency,
		Items:           req.Items,
		AdminNotes:      req.AdminNotes,
		BillingInterval: quotedomain.BillingInterval(req.BillingInterval),
		TrialPeriodDays: req.TrialPeriodDays,
		CreatedByID:     actorID(actor),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, quote)
}

func (s *Server) ListQuotes(c *gin.Context) {
	kind := quotedomain.Kind(strings.TrimSpace(c.Query("kind")))
	if kind != "" && !quotedomain.ValidKind(kind) {
		AbortWithError(c, quotedomain.ErrInvalidKind)
		return
	}

	quotes, err := s.quoteSvc.ListQuotes(c.Request.Context(), kind)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"quotes": quotes})
}

func (s *Server) GetQuote(c *gin.Context) {
	kind, id, err := quotePathParams(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	quote, err := s.quoteSvc.GetQuote(c.Request.Context(), kind, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

func (s *Server) ApproveQuote(c *gin.Context) {
	kind, id, err := quotePathParams(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	quote, err := s.quoteSvc.ApproveQuote(c.Request.Context(), kind, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

func quotePathParams(c *gin.Context) (quotedomain.Kind, snowflake.ID, error) {
	kind := quotedomain.Kind(c.Param("kind"))
	if !quotedomain.ValidKind(kind) {
		return "", 0, quotedomain.ErrInvalidKind
	}
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		return "", 0, quotedomain.ErrQuoteNotFound
	}
	return kind, id, nil
}

func actorID(identity *identitydomain.Identity) snowflake.ID {
	if identity == nil {
		return 0
	}
	return identity.UserID
}
