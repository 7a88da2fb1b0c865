package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/vyoniqlabs/backoffice/internal/config"
	inquirydomain "github.com/vyoniqlabs/backoffice/internal/inquiry/domain"
	paymentdomain "github.com/vyoniqlabs/backoffice/internal/payment/domain"
	"github.com/vyoniqlabs/backoffice/internal/payment/stripe"
	"github.com/vyoniqlabs/backoffice/internal/providers/email"
	quotedomain "github.com/vyoniqlabs/backoffice/internal/quote/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Config      config.Config
	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        paymentdomain.Repository
	QuoteRepo   quotedomain.Repository
	InquiryRepo inquirydomain.Repository
	Email       email.Provider
}

type Service struct {
	webhookSecret string
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	repo          paymentdomain.Repository
	quoteRepo     quotedomain.Repository
	inquiryRepo   inquirydomain.Repository
	email         email.Provider
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		webhookSecret: p.Config.StripeWebhookSecret,
		db:            p.DB,
		log:           p.Log.Named("payment.service"),
		genID:         p.GenID,
		repo:          p.Repo,
		quoteRepo:     p.QuoteRepo,
		inquiryRepo:   p.InquiryRepo,
		email:         p.Email,
	}
}

// HandleWebhookEvent runs one delivery through the state machine.
// Signature verification is the only authentication; everything in the
// payload is untrusted until it resolves to a stored payment row.
func (s *Service) HandleWebhookEvent(ctx context.Context, payload []byte, sigHeader string) error {
	if s.webhookSecret == "" {
		return stripe.ErrInvalidSignature
	}
	if err := stripe.VerifySignature(payload, sigHeader, s.webhookSecret); err != nil {
		return err
	}

	event, err := stripe.ParseEvent(payload)
	if err != nil {
		if errors.Is(err, paymentdomain.ErrEventIgnored) {
			s.log.Info("ignoring gateway event type", zap.Error(err))
		}
		return err
	}

	record := &paymentdomain.WebhookEvent{
		ID:        s.genID.Generate(),
		Provider:  event.Provider,
		EventID:   event.EventID,
		EventType: event.Type,
		Payload:   datatypes.JSON(payload),
		CreatedAt: time.Now().UTC(),
	}
	inserted, err := s.repo.InsertEvent(ctx, s.db, record)
	if err != nil {
		return err
	}
	stored := record
	if !inserted {
		stored, err = s.repo.FindEvent(ctx, s.db, event.Provider, event.EventID)
		if err != nil {
			return err
		}
		if stored == nil {
			return paymentdomain.ErrInvalidEvent
		}
		// A stored but unprocessed event is a retry of a delivery whose
		// processing failed; it must run again, not be acknowledged.
		if stored.ProcessedAt != nil {
			return paymentdomain.ErrEventAlreadyProcessed
		}
	}

	var notify *confirmation
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch event.Type {
		case paymentdomain.EventTypeCheckoutCompleted:
			var dispatchErr error
			notify, dispatchErr = s.settleCheckout(ctx, tx, event)
			return dispatchErr
		case paymentdomain.EventTypePaymentSucceeded:
			return s.settleByPaymentID(ctx, tx, event)
		case paymentdomain.EventTypePaymentFailed:
			return s.failByPaymentID(ctx, tx, event)
		default:
			return paymentdomain.ErrInvalidEvent
		}
	})
	if err != nil {
		return err
	}

	if err := s.repo.MarkEventProcessed(ctx, s.db, stored.ID); err != nil {
		return err
	}

	if notify != nil {
		s.sendConfirmation(ctx, notify)
	}
	return nil
}

type confirmation struct {
	To       string
	Name     string
	Title    string
	Amount   int64
	Currency string
}

// settleCheckout applies the ordered writes for a completed checkout:
// payment, then parent quote, then inquiry. The confirmation email is
// deferred to after commit.
func (s *Service) settleCheckout(ctx context.Context, tx *gorm.DB, event *paymentdomain.GatewayEvent) (*confirmation, error) {
	payment, err := s.repo.FindBySessionID(ctx, tx, event.SessionID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		s.log.Warn("checkout completed for unknown session",
			zap.String("session_id", event.SessionID),
			zap.String("event_id", event.EventID),
		)
		return nil, nil
	}
	if payment.Status != paymentdomain.PaymentStatusPending {
		s.log.Info("payment already settled",
			zap.String("session_id", event.SessionID),
			zap.String("status", string(payment.Status)),
		)
		return nil, nil
	}

	paidAt := event.OccurredAt
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}
	if err := s.repo.MarkSucceeded(ctx, tx, payment.ID, event.PaymentID, paidAt, event.RawPayload); err != nil {
		return nil, err
	}

	var (
		inquiryID snowflake.ID
		title     string
	)
	switch payment.Kind {
	case paymentdomain.ParentKindBudget:
		budget, err := s.quoteRepo.FindBudgetByID(ctx, tx, payment.ParentID)
		if err != nil {
			return nil, err
		}
		if budget == nil {
			return nil, fmt.Errorf("budget %s missing for payment %s", payment.ParentID, payment.ID)
		}
		if err := s.quoteRepo.UpdateBudgetStatus(ctx, tx, budget.ID, quotedomain.StatusPaid); err != nil {
			return nil, err
		}
		inquiryID = budget.InquiryID
		title = budget.Title
	case paymentdomain.ParentKindSubscription:
		subscription, err := s.quoteRepo.FindSubscriptionByID(ctx, tx, payment.ParentID)
		if err != nil {
			return nil, err
		}
		if subscription == nil {
			return nil, fmt.Errorf("subscription %s missing for payment %s", payment.ParentID, payment.ID)
		}
		if err := s.quoteRepo.UpdateSubscriptionStatus(ctx, tx, subscription.ID, quotedomain.StatusActive); err != nil {
			return nil, err
		}
		inquiryID = subscription.InquiryID
		title = subscription.Title
	default:
		return nil, fmt.Errorf("unknown payment kind %q", payment.Kind)
	}

	inquiry, err := s.inquiryRepo.FindByID(ctx, tx, inquiryID)
	if err != nil {
		return nil, err
	}
	if inquiry == nil {
		return nil, fmt.Errorf("inquiry %s missing for payment %s", inquiryID, payment.ID)
	}
	if err := s.inquiryRepo.UpdateStatus(ctx, tx, inquiry.ID, inquirydomain.InquiryStatusInProgress); err != nil {
		return nil, err
	}

	s.log.Info("payment settled",
		zap.String("payment_id", payment.ID.String()),
		zap.String("kind", string(payment.Kind)),
		zap.String("parent_id", payment.ParentID.String()),
		zap.String("event_id", event.EventID),
	)

	return &confirmation{
		To:       inquiry.Email,
		Name:     inquiry.Name,
		Title:    title,
		Amount:   payment.Amount,
		Currency: payment.Currency,
	}, nil
}

// settleByPaymentID is the secondary path keyed by payment intent; it
// touches only payment rows and matching zero rows is a valid no-op.
func (s *Service) settleByPaymentID(ctx context.Context, tx *gorm.DB, event *paymentdomain.GatewayEvent) error {
	payments, err := s.repo.ListByPaymentID(ctx, tx, event.PaymentID)
	if err != nil {
		return err
	}
	if len(payments) == 0 {
		s.log.Info("payment_intent.succeeded matched no payments", zap.String("payment_id", event.PaymentID))
		return nil
	}

	paidAt := event.OccurredAt
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}
	for i := range payments {
		if payments[i].Status != paymentdomain.PaymentStatusPending {
			continue
		}
		if err := s.repo.MarkSucceeded(ctx, tx, payments[i].ID, event.PaymentID, paidAt, event.RawPayload); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) failByPaymentID(ctx context.Context, tx *gorm.DB, event *paymentdomain.GatewayEvent) error {
	payments, err := s.repo.ListByPaymentID(ctx, tx, event.PaymentID)
	if err != nil {
		return err
	}
	if len(payments) == 0 {
		s.log.Info("payment_intent.payment_failed matched no payments", zap.String("payment_id", event.PaymentID))
		return nil
	}

	failedAt := event.OccurredAt
	if failedAt.IsZero() {
		failedAt = time.Now().UTC()
	}
	reason := event.FailureReason
	if reason == "" {
		reason = "payment_failed"
	}
	for i := range payments {
		if payments[i].Status != paymentdomain.PaymentStatusPending {
			continue
		}
		if err := s.repo.MarkFailed(ctx, tx, payments[i].ID, reason, failedAt, event.RawPayload); err != nil {
			return err
		}
	}
	return nil
}

// sendConfirmation is best effort. A notification failure never turns a
// committed transition into a webhook error.
func (s *Service) sendConfirmation(ctx context.Context, c *confirmation) {
	if c.To == "" {
		return
	}
	subject := "Payment received: " + c.Title
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>We received your payment of %d.%02d %s for <strong>%s</strong>. Our team will be in touch shortly to kick things off.</p><p>The Vyoniq team</p>",
		c.Name,
		c.Amount/100,
		c.Amount%100,
		c.Currency,
		c.Title,
	)
	if err := s.email.Send(ctx, []string{c.To}, subject, body); err != nil {
		s.log.Warn("payment confirmation email failed", zap.String("to", c.To), zap.Error(err))
	}
}
