package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/vyoniqlabs/backoffice/internal/config"
	inquirydomain "github.com/vyoniqlabs/backoffice/internal/inquiry/domain"
	inquiryrepo "github.com/vyoniqlabs/backoffice/internal/inquiry/repository"
	paymentdomain "github.com/vyoniqlabs/backoffice/internal/payment/domain"
	paymentrepo "github.com/vyoniqlabs/backoffice/internal/payment/repository"
	paymentservice "github.com/vyoniqlabs/backoffice/internal/payment/service"
	"github.com/vyoniqlabs/backoffice/internal/payment/stripe"
	quotedomain "github.com/vyoniqlabs/backoffice/internal/quote/domain"
	quoterepo "github.com/vyoniqlabs/backoffice/internal/quote/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testWebhookSecret = "whsec_test_secret"

type sentMail struct {
	To      []string
	Subject string
}

type captureEmail struct {
	sent []sentMail
}

func (c *captureEmail) Send(_ context.Context, to []string, subject string, _ string) error {
	c.sent = append(c.sent, sentMail{To: to, Subject: subject})
	return nil
}

type fixture struct {
	db      *gorm.DB
	node    *snowflake.Node
	svc     paymentdomain.Service
	repo    paymentdomain.Repository
	quotes  quotedomain.Repository
	inquiry inquirydomain.Repository
	email   *captureEmail
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&inquirydomain.Inquiry{},
		&quotedomain.Budget{},
		&quotedomain.Subscription{},
		&paymentdomain.Payment{},
		&paymentdomain.WebhookEvent{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	capture := &captureEmail{}
	f := &fixture{
		db:      db,
		node:    node,
		repo:    paymentrepo.Provide(),
		quotes:  quoterepo.Provide(),
		inquiry: inquiryrepo.Provide(),
		email:   capture,
	}
	f.svc = paymentservice.NewService(paymentservice.Params{
		Config:      config.Config{StripeWebhookSecret: testWebhookSecret},
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Repo:        f.repo,
		QuoteRepo:   f.quotes,
		InquiryRepo: f.inquiry,
		Email:       capture,
	})
	return f
}

func (f *fixture) seedInquiry(t *testing.T) *inquirydomain.Inquiry {
	t.Helper()
	now := time.Now().UTC()
	inquiry := &inquirydomain.Inquiry{
		ID:          f.node.Generate(),
		Name:        "Dana Client",
		Email:       "dana@example.com",
		ServiceType: "web-mobile",
		Message:     "We need a storefront.",
		Status:      inquirydomain.InquiryStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := f.inquiry.Insert(context.Background(), f.db, inquiry); err != nil {
		t.Fatalf("seed inquiry: %v", err)
	}
	return inquiry
}

func (f *fixture) seedBudget(t *testing.T, inquiryID snowflake.ID) *quotedomain.Budget {
	t.Helper()
	now := time.Now().UTC()
	budget := &quotedomain.Budget{
		ID:          f.node.Generate(),
		InquiryID:   inquiryID,
		Title:       "Storefront build",
		Currency:    "USD",
		TotalAmount: 250000,
		Status:      quotedomain.StatusApproved,
		CreatedByID: f.node.Generate(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := f.quotes.InsertBudget(context.Background(), f.db, budget); err != nil {
		t.Fatalf("seed budget: %v", err)
	}
	return budget
}

func (f *fixture) seedPayment(t *testing.T, kind paymentdomain.ParentKind, parentID snowflake.ID, sessionID string, paymentID string) *paymentdomain.Payment {
	t.Helper()
	now := time.Now().UTC()
	payment := &paymentdomain.Payment{
		ID:              f.node.Generate(),
		Kind:            kind,
		ParentID:        parentID,
		StripeSessionID: sessionID,
		Amount:          250000,
		Currency:        "USD",
		Status:          paymentdomain.PaymentStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if paymentID != "" {
		payment.StripePaymentID = &paymentID
	}
	if err := f.repo.Insert(context.Background(), f.db, payment); err != nil {
		t.Fatalf("seed payment: %v", err)
	}
	return payment
}

func checkoutCompletedPayload(eventID, sessionID, paymentIntent string) []byte {
	payload, _ := json.Marshal(map[string]any{
		"id":      eventID,
		"type":    "checkout.session.completed",
		"created": time.Now().Unix(),
		"data": map[string]any{
			"object": map[string]any{
				"id":             sessionID,
				"payment_intent": paymentIntent,
				"amount_total":   250000,
				"currency":       "usd",
			},
		},
	})
	return payload
}

func paymentIntentPayload(eventID, eventType, intentID, failureMessage string) []byte {
	object := map[string]any{
		"id":       intentID,
		"amount":   250000,
		"currency": "usd",
	}
	if failureMessage != "" {
		object["last_payment_error"] = map[string]any{"message": failureMessage}
	}
	payload, _ := json.Marshal(map[string]any{
		"id":      eventID,
		"type":    eventType,
		"created": time.Now().Unix(),
		"data":    map[string]any{"object": object},
	})
	return payload
}

func deliver(t *testing.T, f *fixture, payload []byte) error {
	t.Helper()
	sig := stripe.Sign(payload, fmt.Sprint(time.Now().Unix()), testWebhookSecret)
	return f.svc.HandleWebhookEvent(context.Background(), payload, sig)
}

func TestCheckoutCompletedSettlesBudget(t *testing.T) {
	f := newFixture(t)
	inquiry := f.seedInquiry(t)
	budget := f.seedBudget(t, inquiry.ID)
	payment := f.seedPayment(t, paymentdomain.ParentKindBudget, budget.ID, "cs_test_1", "")

	err := deliver(t, f, checkoutCompletedPayload("evt_1", "cs_test_1", "pi_test_1"))
	if err != nil {
		t.Fatalf("handle webhook: %v", err)
	}

	got, err := f.repo.FindBySessionID(context.Background(), f.db, "cs_test_1")
	if err != nil {
		t.Fatalf("find payment: %v", err)
	}
	if got.Status != paymentdomain.PaymentStatusSucceeded {
		t.Fatalf("payment status = %s, want SUCCEEDED", got.Status)
	}
	if got.StripePaymentID == nil || *got.StripePaymentID != "pi_test_1" {
		t.Fatalf("stripe payment id not recorded: %v", got.StripePaymentID)
	}
	if got.PaidAt == nil {
		t.Fatalf("paid_at not set")
	}
	if got.ID != payment.ID {
		t.Fatalf("settled a different payment row")
	}

	gotBudget, err := f.quotes.FindBudgetByID(context.Background(), f.db, budget.ID)
	if err != nil {
		t.Fatalf("find budget: %v", err)
	}
	if gotBudget.Status != quotedomain.StatusPaid {
		t.Fatalf("budget status = %s, want PAID", gotBudget.Status)
	}

	gotInquiry, err := f.inquiry.FindByID(context.Background(), f.db, inquiry.ID)
	if err != nil {
		t.Fatalf("find inquiry: %v", err)
	}
	if gotInquiry.Status != inquirydomain.InquiryStatusInProgress {
		t.Fatalf("inquiry status = %s, want IN_PROGRESS", gotInquiry.Status)
	}

	if len(f.email.sent) != 1 {
		t.Fatalf("confirmation emails sent = %d, want 1", len(f.email.sent))
	}
	if f.email.sent[0].To[0] != inquiry.Email {
		t.Fatalf("confirmation sent to %v, want %s", f.email.sent[0].To, inquiry.Email)
	}
}

func TestCheckoutCompletedSettlesSubscription(t *testing.T) {
	f := newFixture(t)
	inquiry := f.seedInquiry(t)

	now := time.Now().UTC()
	subscription := &quotedomain.Subscription{
		ID:              f.node.Generate(),
		InquiryID:       inquiry.ID,
		Title:           "Managed hosting",
		Currency:        "USD",
		MonthlyAmount:   15000,
		BillingInterval: quotedomain.IntervalMonth,
		Status:          quotedomain.StatusApproved,
		CreatedByID:     f.node.Generate(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := f.quotes.InsertSubscription(context.Background(), f.db, subscription); err != nil {
		t.Fatalf("seed subscription: %v", err)
	}
	f.seedPayment(t, paymentdomain.ParentKindSubscription, subscription.ID, "cs_test_sub", "")

	if err := deliver(t, f, checkoutCompletedPayload("evt_sub", "cs_test_sub", "pi_sub")); err != nil {
		t.Fatalf("handle webhook: %v", err)
	}

	got, err := f.quotes.FindSubscriptionByID(context.Background(), f.db, subscription.ID)
	if err != nil {
		t.Fatalf("find subscription: %v", err)
	}
	if got.Status != quotedomain.StatusActive {
		t.Fatalf("subscription status = %s, want ACTIVE", got.Status)
	}
}

func TestWebhookReplayIsIdempotent(t *testing.T) {
	f := newFixture(t)
	inquiry := f.seedInquiry(t)
	budget := f.seedBudget(t, inquiry.ID)
	f.seedPayment(t, paymentdomain.ParentKindBudget, budget.ID, "cs_replay", "")

	payload := checkoutCompletedPayload("evt_replay", "cs_replay", "pi_replay")
	if err := deliver(t, f, payload); err != nil {
		t.Fatalf("first delivery: %v", err)
	}

	err := deliver(t, f, payload)
	if !errors.Is(err, paymentdomain.ErrEventAlreadyProcessed) {
		t.Fatalf("replay error = %v, want ErrEventAlreadyProcessed", err)
	}

	if len(f.email.sent) != 1 {
		t.Fatalf("replay re-sent confirmation: %d emails", len(f.email.sent))
	}

	got, err := f.repo.FindBySessionID(context.Background(), f.db, "cs_replay")
	if err != nil {
		t.Fatalf("find payment: %v", err)
	}
	if got.Status != paymentdomain.PaymentStatusSucceeded {
		t.Fatalf("payment status changed on replay: %s", got.Status)
	}
}

func TestRetryAfterProcessingFailureCompletesSettlement(t *testing.T) {
	f := newFixture(t)
	inquiry := f.seedInquiry(t)

	// Payment references a budget row that does not exist yet, so the
	// first delivery records the event but fails inside the settlement
	// transaction.
	budgetID := f.node.Generate()
	f.seedPayment(t, paymentdomain.ParentKindBudget, budgetID, "cs_retry", "")

	payload := checkoutCompletedPayload("evt_retry", "cs_retry", "pi_retry")
	if err := deliver(t, f, payload); err == nil {
		t.Fatalf("delivery with missing budget should fail")
	}

	got, err := f.repo.FindBySessionID(context.Background(), f.db, "cs_retry")
	if err != nil {
		t.Fatalf("find payment: %v", err)
	}
	if got.Status != paymentdomain.PaymentStatusPending {
		t.Fatalf("payment status after failed delivery = %s, want PENDING", got.Status)
	}

	now := time.Now().UTC()
	budget := &quotedomain.Budget{
		ID:          budgetID,
		InquiryID:   inquiry.ID,
		Title:       "Storefront build",
		Currency:    "USD",
		TotalAmount: 250000,
		Status:      quotedomain.StatusApproved,
		CreatedByID: f.node.Generate(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := f.quotes.InsertBudget(context.Background(), f.db, budget); err != nil {
		t.Fatalf("insert budget: %v", err)
	}

	// The gateway redelivers the same event id; the recorded but
	// unprocessed event must run again instead of being acknowledged.
	if err := deliver(t, f, payload); err != nil {
		t.Fatalf("retry delivery: %v", err)
	}

	got, err = f.repo.FindBySessionID(context.Background(), f.db, "cs_retry")
	if err != nil {
		t.Fatalf("find payment: %v", err)
	}
	if got.Status != paymentdomain.PaymentStatusSucceeded {
		t.Fatalf("payment status after retry = %s, want SUCCEEDED", got.Status)
	}

	gotBudget, err := f.quotes.FindBudgetByID(context.Background(), f.db, budgetID)
	if err != nil {
		t.Fatalf("find budget: %v", err)
	}
	if gotBudget.Status != quotedomain.StatusPaid {
		t.Fatalf("budget status after retry = %s, want PAID", gotBudget.Status)
	}

	if len(f.email.sent) != 1 {
		t.Fatalf("confirmation emails sent = %d, want 1", len(f.email.sent))
	}

	err = deliver(t, f, payload)
	if !errors.Is(err, paymentdomain.ErrEventAlreadyProcessed) {
		t.Fatalf("third delivery error = %v, want ErrEventAlreadyProcessed", err)
	}
}

func TestInvalidSignatureChangesNothing(t *testing.T) {
	f := newFixture(t)
	inquiry := f.seedInquiry(t)
	budget := f.seedBudget(t, inquiry.ID)
	f.seedPayment(t, paymentdomain.ParentKindBudget, budget.ID, "cs_bad_sig", "")

	payload := checkoutCompletedPayload("evt_bad", "cs_bad_sig", "pi_bad")
	sig := stripe.Sign(payload, fmt.Sprint(time.Now().Unix()), "whsec_wrong_secret")

	err := f.svc.HandleWebhookEvent(context.Background(), payload, sig)
	if !errors.Is(err, stripe.ErrInvalidSignature) {
		t.Fatalf("error = %v, want ErrInvalidSignature", err)
	}

	got, err := f.repo.FindBySessionID(context.Background(), f.db, "cs_bad_sig")
	if err != nil {
		t.Fatalf("find payment: %v", err)
	}
	if got.Status != paymentdomain.PaymentStatusPending {
		t.Fatalf("payment status = %s, want PENDING", got.Status)
	}

	var events int64
	if err := f.db.Model(&paymentdomain.WebhookEvent{}).Count(&events).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if events != 0 {
		t.Fatalf("unsigned delivery recorded %d events", events)
	}
}

func TestIgnoredEventType(t *testing.T) {
	f := newFixture(t)

	payload, _ := json.Marshal(map[string]any{
		"id":      "evt_ignored",
		"type":    "customer.created",
		"created": time.Now().Unix(),
		"data":    map[string]any{"object": map[string]any{"id": "cus_1"}},
	})

	err := deliver(t, f, payload)
	if !errors.Is(err, paymentdomain.ErrEventIgnored) {
		t.Fatalf("error = %v, want ErrEventIgnored", err)
	}
	if !strings.Contains(err.Error(), "customer.created") {
		t.Fatalf("ignored event error does not carry the type: %v", err)
	}
}

func TestPaymentFailedMarksPayment(t *testing.T) {
	f := newFixture(t)
	inquiry := f.seedInquiry(t)
	budget := f.seedBudget(t, inquiry.ID)
	f.seedPayment(t, paymentdomain.ParentKindBudget, budget.ID, "cs_fail", "pi_fail")

	payload := paymentIntentPayload("evt_fail", "payment_intent.payment_failed", "pi_fail", "card_declined")
	if err := deliver(t, f, payload); err != nil {
		t.Fatalf("handle webhook: %v", err)
	}

	got, err := f.repo.FindBySessionID(context.Background(), f.db, "cs_fail")
	if err != nil {
		t.Fatalf("find payment: %v", err)
	}
	if got.Status != paymentdomain.PaymentStatusFailed {
		t.Fatalf("payment status = %s, want FAILED", got.Status)
	}
	if got.FailureReason != "card_declined" {
		t.Fatalf("failure reason = %q, want card_declined", got.FailureReason)
	}

	gotBudget, err := f.quotes.FindBudgetByID(context.Background(), f.db, budget.ID)
	if err != nil {
		t.Fatalf("find budget: %v", err)
	}
	if gotBudget.Status != quotedomain.StatusApproved {
		t.Fatalf("budget status = %s, failure must not touch the quote", gotBudget.Status)
	}
}

func TestFailureAfterSuccessIsNoOp(t *testing.T) {
	f := newFixture(t)
	inquiry := f.seedInquiry(t)
	budget := f.seedBudget(t, inquiry.ID)
	f.seedPayment(t, paymentdomain.ParentKindBudget, budget.ID, "cs_late_fail", "")

	if err := deliver(t, f, checkoutCompletedPayload("evt_ok", "cs_late_fail", "pi_late")); err != nil {
		t.Fatalf("settle: %v", err)
	}

	payload := paymentIntentPayload("evt_late", "payment_intent.payment_failed", "pi_late", "card_declined")
	if err := deliver(t, f, payload); err != nil {
		t.Fatalf("late failure: %v", err)
	}

	got, err := f.repo.FindBySessionID(context.Background(), f.db, "cs_late_fail")
	if err != nil {
		t.Fatalf("find payment: %v", err)
	}
	if got.Status != paymentdomain.PaymentStatusSucceeded {
		t.Fatalf("terminal status overwritten: %s", got.Status)
	}
}
