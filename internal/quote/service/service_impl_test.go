package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/vyoniqlabs/backoffice/internal/config"
	identitydomain "github.com/vyoniqlabs/backoffice/internal/identity/domain"
	identityrepo "github.com/vyoniqlabs/backoffice/internal/identity/repository"
	identityservice "github.com/vyoniqlabs/backoffice/internal/identity/service"
	inquirydomain "github.com/vyoniqlabs/backoffice/internal/inquiry/domain"
	inquiryrepo "github.com/vyoniqlabs/backoffice/internal/inquiry/repository"
	paymentdomain "github.com/vyoniqlabs/backoffice/internal/payment/domain"
	paymentrepo "github.com/vyoniqlabs/backoffice/internal/payment/repository"
	"github.com/vyoniqlabs/backoffice/internal/payment/stripe"
	"github.com/vyoniqlabs/backoffice/internal/providers/email"
	quotedomain "github.com/vyoniqlabs/backoffice/internal/quote/domain"
	quoterepo "github.com/vyoniqlabs/backoffice/internal/quote/repository"
	quoteservice "github.com/vyoniqlabs/backoffice/internal/quote/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	svc      quotedomain.Service
	repo     quotedomain.Repository
	payments paymentdomain.Repository
	inquiry  inquirydomain.Repository
	identity identitydomain.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&identitydomain.User{},
		&identitydomain.Session{},
		&inquirydomain.Inquiry{},
		&quotedomain.Budget{},
		&quotedomain.BudgetItem{},
		&quotedomain.Subscription{},
		&quotedomain.SubscriptionItem{},
		&paymentdomain.Payment{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(2)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	identitySvc := identityservice.NewService(identityservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  identityrepo.Provide(),
		Email: &email.NoOpProvider{},
	})

	f := &fixture{
		db:       db,
		node:     node,
		repo:     quoterepo.Provide(),
		payments: paymentrepo.Provide(),
		inquiry:  inquiryrepo.Provide(),
		identity: identitySvc,
	}
	f.svc = quoteservice.NewService(quoteservice.Params{
		Config: config.Config{PublicBaseURL: "http://localhost:8080"},
		Quotes: config.NewStaticQuoteConfigHolder(config.QuoteConfig{
			ValidityDays:    30,
			Currencies:      []string{"USD", "CAD"},
			TrialPeriodDays: 14,
		}),
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Repo:        f.repo,
		InquiryRepo: f.inquiry,
		PaymentRepo: f.payments,
		Identity:    identitySvc,
		Stripe:      stripe.NewClient(""),
	})
	return f
}

func (f *fixture) seedInquiry(t *testing.T, ownerID *snowflake.ID) *inquirydomain.Inquiry {
	t.Helper()
	now := time.Now().UTC()
	inquiry := &inquirydomain.Inquiry{
		ID:          f.node.Generate(),
		Name:        "Riley Client",
		Email:       "riley@example.com",
		ServiceType: "web-mobile",
		Message:     "Build us a dashboard.",
		Status:      inquirydomain.InquiryStatusPending,
		UserID:      ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := f.inquiry.Insert(context.Background(), f.db, inquiry); err != nil {
		t.Fatalf("seed inquiry: %v", err)
	}
	return inquiry
}

func budgetRequest(inquiryID snowflake.ID) quotedomain.CreateQuoteRequest {
	return quotedomain.CreateQuoteRequest{
		InquiryID: inquiryID,
		Kind:      quotedomain.KindBudget,
		Title:     "Dashboard build",
		Currency:  "usd",
		Items: []quotedomain.ItemInput{
			{Name: "Design", Quantity: 2, UnitPrice: 100},
			{Name: "Implementation", Quantity: 1, UnitPrice: 50},
		},
	}
}

func TestCreateQuoteDerivesTotals(t *testing.T) {
	f := newFixture(t)
	inquiry := f.seedInquiry(t, nil)

	quote, err := f.svc.CreateQuote(context.Background(), budgetRequest(inquiry.ID))
	if err != nil {
		t.Fatalf("create quote: %v", err)
	}

	if quote.Amount != 250 {
		t.Fatalf("amount = %d, want 250", quote.Amount)
	}
	if quote.Status != quotedomain.StatusDraft {
		t.Fatalf("status = %s, want DRAFT", quote.Status)
	}
	if quote.Currency != "USD" {
		t.Fatalf("currency = %s, want USD", quote.Currency)
	}
	if len(quote.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(quote.Items))
	}
	if quote.Items[0].TotalPrice != 200 {
		t.Fatalf("line total = %d, want 200", quote.Items[0].TotalPrice)
	}
}

func TestCreateQuoteValidation(t *testing.T) {
	f := newFixture(t)
	inquiry := f.seedInquiry(t, nil)

	cases := []struct {
		name    string
		mutate  func(*quotedomain.CreateQuoteRequest)
		wantErr error
	}{
		{"no items", func(r *quotedomain.CreateQuoteRequest) { r.Items = nil }, quotedomain.ErrNoItems},
		{"bad currency", func(r *quotedomain.CreateQuoteRequest) { r.Currency = "EUR" }, quotedomain.ErrInvalidCurrency},
		{"zero quantity", func(r *quotedomain.CreateQuoteRequest) { r.Items[0].Quantity = 0 }, quotedomain.ErrInvalidQuantity},
		{"negative price", func(r *quotedomain.CreateQuoteRequest) { r.Items[0].UnitPrice = -1 }, quotedomain.ErrInvalidUnitPrice},
		{"empty title", func(r *quotedomain.CreateQuoteRequest) { r.Title = "  " }, quotedomain.ErrInvalidRequest},
		{"bad kind", func(r *quotedomain.CreateQuoteRequest) { r.Kind = "retainer" }, quotedomain.ErrInvalidKind},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := budgetRequest(inquiry.ID)
			tc.mutate(&req)
			_, err := f.svc.CreateQuote(context.Background(), req)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestSubscriptionDefaultsFromConfig(t *testing.T) {
	f := newFixture(t)
	inquiry := f.seedInquiry(t, nil)

	req := budgetRequest(inquiry.ID)
	req.Kind = quotedomain.KindSubscription

	quote, err := f.svc.CreateQuote(context.Background(), req)
	if err != nil {
		t.Fatalf("create subscription quote: %v", err)
	}
	if quote.BillingInterval != quotedomain.IntervalMonth {
		t.Fatalf("interval = %s, want month", quote.BillingInterval)
	}
	if quote.TrialPeriodDays != 14 {
		t.Fatalf("trial days = %d, want config default 14", quote.TrialPeriodDays)
	}
}

func TestApproveQuote(t *testing.T) {
	f := newFixture(t)
	inquiry := f.seedInquiry(t, nil)

	quote, err := f.svc.CreateQuote(context.Background(), budgetRequest(inquiry.ID))
	if err != nil {
		t.Fatalf("create quote: %v", err)
	}

	approved, err := f.svc.ApproveQuote(context.Background(), quotedomain.KindBudget, quote.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != quotedomain.StatusApproved {
		t.Fatalf("status = %s, want APPROVED", approved.Status)
	}
	if approved.ValidUntil == nil {
		t.Fatalf("valid_until not set")
	}
	firstValidUntil := *approved.ValidUntil

	// Approving again must not move the validity window.
	again, err := f.svc.ApproveQuote(context.Background(), quotedomain.KindBudget, quote.ID)
	if err != nil {
		t.Fatalf("re-approve: %v", err)
	}
	if !again.ValidUntil.Equal(firstValidUntil) {
		t.Fatalf("valid_until moved on re-approval")
	}

	if err := f.repo.UpdateBudgetStatus(context.Background(), f.db, quote.ID, quotedomain.StatusPaid); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	_, err = f.svc.ApproveQuote(context.Background(), quotedomain.KindBudget, quote.ID)
	if !errors.Is(err, quotedomain.ErrInvalidRequest) {
		t.Fatalf("approving paid quote: error = %v, want ErrInvalidRequest", err)
	}
}

func TestStandaloneQuoteIsIdempotentPerEmail(t *testing.T) {
	f := newFixture(t)

	req := quotedomain.StandaloneQuoteRequest{
		ClientName:  "Jordan New",
		ClientEmail: "Jordan@Example.com",
		ServiceType: "ai",
		Kind:        quotedomain.KindBudget,
		Title:       "AI integration",
		Currency:    "USD",
		Items:       []quotedomain.ItemInput{{Name: "Discovery", Quantity: 1, UnitPrice: 5000}},
	}

	first, err := f.svc.CreateStandaloneQuote(context.Background(), req)
	if err != nil {
		t.Fatalf("first standalone quote: %v", err)
	}
	second, err := f.svc.CreateStandaloneQuote(context.Background(), req)
	if err != nil {
		t.Fatalf("second standalone quote: %v", err)
	}

	if first.ID == second.ID {
		t.Fatalf("expected two distinct quotes")
	}
	if first.InquiryID != second.InquiryID {
		t.Fatalf("standalone quotes for one email must share the inquiry")
	}

	var users int64
	if err := f.db.Model(&identitydomain.User{}).Where("email = ?", "jordan@example.com").Count(&users).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if users != 1 {
		t.Fatalf("users = %d, want 1", users)
	}

	var inquiries int64
	if err := f.db.Model(&inquirydomain.Inquiry{}).Where("email = ?", "jordan@example.com").Count(&inquiries).Error; err != nil {
		t.Fatalf("count inquiries: %v", err)
	}
	if inquiries != 1 {
		t.Fatalf("inquiries = %d, want 1", inquiries)
	}
}

func TestCheckoutPreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ownerID := f.node.Generate()
	inquiry := f.seedInquiry(t, &ownerID)
	owner := &identitydomain.Identity{UserID: ownerID, Email: inquiry.Email}
	stranger := &identitydomain.Identity{UserID: f.node.Generate(), Email: "other@example.com"}

	quote, err := f.svc.CreateQuote(ctx, budgetRequest(inquiry.ID))
	if err != nil {
		t.Fatalf("create quote: %v", err)
	}

	_, err = f.svc.CreateCheckoutSession(ctx, quotedomain.KindBudget, f.node.Generate(), owner)
	if !errors.Is(err, quotedomain.ErrQuoteNotFound) {
		t.Fatalf("unknown quote: error = %v, want ErrQuoteNotFound", err)
	}

	// Ownership is checked before status: a stranger probing a draft
	// quote learns nothing about its state.
	_, err = f.svc.CreateCheckoutSession(ctx, quotedomain.KindBudget, quote.ID, stranger)
	if !errors.Is(err, quotedomain.ErrForbidden) {
		t.Fatalf("stranger: error = %v, want ErrForbidden", err)
	}

	_, err = f.svc.CreateCheckoutSession(ctx, quotedomain.KindBudget, quote.ID, owner)
	if !errors.Is(err, quotedomain.ErrNotApproved) {
		t.Fatalf("draft: error = %v, want ErrNotApproved", err)
	}

	if _, err := f.svc.ApproveQuote(ctx, quotedomain.KindBudget, quote.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	// With every business precondition satisfied the unconfigured
	// gateway is the last gate.
	_, err = f.svc.CreateCheckoutSession(ctx, quotedomain.KindBudget, quote.ID, owner)
	if !errors.Is(err, stripe.ErrGatewayUnavailable) {
		t.Fatalf("no gateway: error = %v, want ErrGatewayUnavailable", err)
	}
}

func TestCheckoutRejectsPaidAndExpiredQuotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := &identitydomain.Identity{UserID: f.node.Generate(), IsAdmin: true}

	inquiry := f.seedInquiry(t, nil)
	quote, err := f.svc.CreateQuote(ctx, budgetRequest(inquiry.ID))
	if err != nil {
		t.Fatalf("create quote: %v", err)
	}
	if _, err := f.svc.ApproveQuote(ctx, quotedomain.KindBudget, quote.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	now := time.Now().UTC()
	paid := &paymentdomain.Payment{
		ID:              f.node.Generate(),
		Kind:            paymentdomain.ParentKindBudget,
		ParentID:        quote.ID,
		StripeSessionID: "cs_prior",
		Amount:          quote.Amount,
		Currency:        quote.Currency,
		Status:          paymentdomain.PaymentStatusSucceeded,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := f.payments.Insert(ctx, f.db, paid); err != nil {
		t.Fatalf("seed payment: %v", err)
	}

	_, err = f.svc.CreateCheckoutSession(ctx, quotedomain.KindBudget, quote.ID, admin)
	if !errors.Is(err, quotedomain.ErrAlreadyPaid) {
		t.Fatalf("paid quote: error = %v, want ErrAlreadyPaid", err)
	}

	// A second, unpaid quote past its validity window.
	expired, err := f.svc.CreateQuote(ctx, budgetRequest(inquiry.ID))
	if err != nil {
		t.Fatalf("create quote: %v", err)
	}
	past := now.AddDate(0, 0, -1)
	err = f.db.Exec(`UPDATE budgets SET status = ?, valid_until = ? WHERE id = ?`,
		quotedomain.StatusApproved, past, expired.ID).Error
	if err != nil {
		t.Fatalf("age quote: %v", err)
	}

	_, err = f.svc.CreateCheckoutSession(ctx, quotedomain.KindBudget, expired.ID, admin)
	if !errors.Is(err, quotedomain.ErrQuoteExpired) {
		t.Fatalf("expired quote: error = %v, want ErrQuoteExpired", err)
	}
}
