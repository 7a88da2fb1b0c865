package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	identitydomain "github.com/vyoniqlabs/backoffice/internal/identity/domain"
)

var (
	ErrQuoteNotFound    = errors.New("quote_not_found")
	ErrForbidden        = errors.New("quote_forbidden")
	ErrNotApproved      = errors.New("quote_not_approved")
	ErrAlreadyPaid      = errors.New("quote_already_paid")
	ErrQuoteExpired     = errors.New("quote_expired")
	ErrInvalidKind      = errors.New("invalid_kind")
	ErrInvalidCurrency  = errors.New("invalid_currency")
	ErrInvalidInterval  = errors.New("invalid_billing_interval")
	ErrNoItems          = errors.New("no_items")
	ErrInvalidQuantity  = errors.New("invalid_quantity")
	ErrInvalidUnitPrice = errors.New("invalid_unit_price")
	ErrInvalidRequest   = errors.New("invalid_quote_request")
)

// ItemInput is one line of a quote authoring request. Quantity must be
// a positive integer and UnitPrice non-negative minor units.
type ItemInput struct {
	Name              string        `json:"name"`
	Description       string        `json:"description"`
	Quantity          int64         `json:"quantity"`
	UnitPrice         int64         `json:"unitPrice"`
	Category          string        `json:"category"`
	PricingTemplateID *snowflake.ID `json:"pricingTemplateId,string,omitempty"`
	IsCustom          bool          `json:"isCustom"`
}

type CreateQuoteRequest struct {
	InquiryID       snowflake.ID
	Kind            Kind
	Title           string
	Description     string
	Currency        string
	Items           []ItemInput
	AdminNotes      string
	BillingInterval BillingInterval
	TrialPeriodDays int
	CreatedByID     snowflake.ID
}

type StandaloneQuoteRequest struct {
	ClientName      string
	ClientEmail     string
	ServiceType     string
	Kind            Kind
	Title           string
	Description     string
	Currency        string
	Items           []ItemInput
	AdminNotes      string
	BillingInterval BillingInterval
	TrialPeriodDays int
	CreatedByID     snowflake.ID
}

// Item is the read-side view of a persisted quote line.
type Item struct {
	ID                snowflake.ID  `json:"id,string"`
	Name              string        `json:"name"`
	Description       string        `json:"description"`
	Quantity          int64         `json:"quantity"`
	UnitPrice         int64         `json:"unitPrice"`
	TotalPrice        int64         `json:"totalPrice"`
	Category          string        `json:"category"`
	PricingTemplateID *snowflake.ID `json:"pricingTemplateId,string,omitempty"`
	IsCustom          bool          `json:"isCustom"`
}

// Quote is the unified read-side view over both aggregates. Amount is
// the budget total or the subscription per-interval total.
type Quote struct {
	Kind            Kind            `json:"kind"`
	ID              snowflake.ID    `json:"id,string"`
	InquiryID       snowflake.ID    `json:"inquiryId,string"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Currency        string          `json:"currency"`
	Amount          int64           `json:"amount"`
	Status          Status          `json:"status"`
	ValidUntil      *time.Time      `json:"validUntil,omitempty"`
	AdminNotes      string          `json:"adminNotes,omitempty"`
	CreatedByID     snowflake.ID    `json:"createdById,string"`
	BillingInterval BillingInterval `json:"billingInterval,omitempty"`
	TrialPeriodDays int             `json:"trialPeriodDays,omitempty"`
	Items           []Item          `json:"items"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

type CheckoutResult struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

type Service interface {
	CreateQuote(ctx context.Context, req CreateQuoteRequest) (*Quote, error)
	CreateStandaloneQuote(ctx context.Context, req StandaloneQuoteRequest) (*Quote, error)
	ApproveQuote(ctx context.Context, kind Kind, id snowflake.ID) (*Quote, error)
	GetQuote(ctx context.Context, kind Kind, id snowflake.ID) (*Quote, error)
	ListQuotes(ctx context.Context, kind Kind) ([]Quote, error)
	CreateCheckoutSession(ctx context.Context, kind Kind, id snowflake.ID, actor *identitydomain.Identity) (*CheckoutResult, error)
}

// ValidKind reports whether k names a known aggregate.
func ValidKind(k Kind) bool {
	return k == KindBudget || k == KindSubscription
}

// ValidCurrency checks against the supported currency set.
func ValidCurrency(currency string) bool {
	for _, c := range SupportedCurrencies {
		if c == currency {
			return true
		}
	}
	return false
}
