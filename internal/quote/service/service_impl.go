package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/vyoniqlabs/backoffice/internal/config"
	identitydomain "github.com/vyoniqlabs/backoffice/internal/identity/domain"
	inquirydomain "github.com/vyoniqlabs/backoffice/internal/inquiry/domain"
	paymentdomain "github.com/vyoniqlabs/backoffice/internal/payment/domain"
	"github.com/vyoniqlabs/backoffice/internal/payment/stripe"
	quotedomain "github.com/vyoniqlabs/backoffice/internal/quote/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Config      config.Config
	Quotes      *config.QuoteConfigHolder
	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        quotedomain.Repository
	InquiryRepo inquirydomain.Repository
	PaymentRepo paymentdomain.Repository
	Identity    identitydomain.Service
	Stripe      *stripe.Client
}

type service struct {
	cfg         config.Config
	quotes      *config.QuoteConfigHolder
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        quotedomain.Repository
	inquiryRepo inquirydomain.Repository
	paymentRepo paymentdomain.Repository
	identity    identitydomain.Service
	stripe      *stripe.Client
}

func NewService(p Params) quotedomain.Service {
	return &service{
		cfg:         p.Config,
		quotes:      p.Quotes,
		db:          p.DB,
		log:         p.Log.Named("quote.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		inquiryRepo: p.InquiryRepo,
		paymentRepo: p.PaymentRepo,
		identity:    p.Identity,
		stripe:      p.Stripe,
	}
}

func (s *service) CreateQuote(ctx context.Context, req quotedomain.CreateQuoteRequest) (*quotedomain.Quote, error) {
	if err := s.validateRequest(&req); err != nil {
		return nil, err
	}

	inquiry, err := s.inquiryRepo.FindByID(ctx, s.db, req.InquiryID)
	if err != nil {
		return nil, err
	}
	if inquiry == nil {
		return nil, inquirydomain.ErrNotFound
	}

	return s.insertQuote(ctx, req)
}

// CreateStandaloneQuote provisions an identity and an inquiry for the
// client email before authoring the quote. Re-invocation for a known
// email reuses the stored identity and inquiry; only the quote is new.
func (s *service) CreateStandaloneQuote(ctx context.Context, req quotedomain.StandaloneQuoteRequest) (*quotedomain.Quote, error) {
	email := strings.TrimSpace(strings.ToLower(req.ClientEmail))
	name := strings.TrimSpace(req.ClientName)
	if email == "" || name == "" {
		return nil, quotedomain.ErrInvalidRequest
	}

	createReq := quotedomain.CreateQuoteRequest{
		Kind:            req.Kind,
		Title:           req.Title,
		Description:     req.Description,
		Currency:        req.Currency,
		Items:           req.Items,
		AdminNotes:      req.AdminNotes,
		BillingInterval: req.BillingInterval,
		TrialPeriodDays: req.TrialPeriodDays,
		CreatedByID:     req.CreatedByID,
	}
	if err := s.validateRequest(&createReq); err != nil {
		return nil, err
	}

	user, _, err := s.identity.Provision(ctx, email, name)
	if err != nil {
		return nil, err
	}

	inquiry, err := s.inquiryRepo.FindFirstByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if inquiry == nil {
		now := time.Now().UTC()
		userID := user.ID
		inquiry = &inquirydomain.Inquiry{
			ID:          s.genID.Generate(),
			Name:        name,
			Email:       email,
			ServiceType: strings.TrimSpace(req.ServiceType),
			Message:     "Quote prepared by Vyoniq: " + createReq.Title,
			Status:      inquirydomain.InquiryStatusPending,
			UserID:      &userID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.inquiryRepo.Insert(ctx, s.db, inquiry); err != nil {
			return nil, err
		}
	}

	createReq.InquiryID = inquiry.ID
	return s.insertQuote(ctx, createReq)
}

func (s *service) validateRequest(req *quotedomain.CreateQuoteRequest) error {
	if !quotedomain.ValidKind(req.Kind) {
		return quotedomain.ErrInvalidKind
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return quotedomain.ErrInvalidRequest
	}
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if !s.currencySupported(req.Currency) {
		return quotedomain.ErrInvalidCurrency
	}
	if len(req.Items) == 0 {
		return quotedomain.ErrNoItems
	}
	for i := range req.Items {
		if req.Items[i].Quantity < 1 {
			return quotedomain.ErrInvalidQuantity
		}
		if req.Items[i].UnitPrice < 0 {
			return quotedomain.ErrInvalidUnitPrice
		}
		if strings.TrimSpace(req.Items[i].Name) == "" {
			return quotedomain.ErrInvalidRequest
		}
	}
	if req.Kind == quotedomain.KindSubscription {
		if req.BillingInterval == "" {
			req.BillingInterval = quotedomain.IntervalMonth
		}
		if req.BillingInterval != quotedomain.IntervalMonth && req.BillingInterval != quotedomain.IntervalYear {
			return quotedomain.ErrInvalidInterval
		}
		if req.TrialPeriodDays < 0 {
			return quotedomain.ErrInvalidRequest
		}
		if req.TrialPeriodDays == 0 {
			req.TrialPeriodDays = s.quotes.Get().TrialPeriodDays
		}
	}
	return nil
}

func (s *service) currencySupported(currency string) bool {
	for _, c := range s.quotes.Get().Currencies {
		if strings.EqualFold(c, currency) {
			return true
		}
	}
	return false
}

// insertQuote persists parent and items in one transaction. Totals are
// recomputed here; anything the client sent is discarded.
func (s *service) insertQuote(ctx context.Context, req quotedomain.CreateQuoteRequest) (*quotedomain.Quote, error) {
	now := time.Now().UTC()
	var total int64
	for i := range req.Items {
		total += req.Items[i].UnitPrice * req.Items[i].Quantity
	}

	switch req.Kind {
	case quotedomain.KindBudget:
		budget := &quotedomain.Budget{
			ID:          s.genID.Generate(),
			InquiryID:   req.InquiryID,
			Title:       req.Title,
			Description: strings.TrimSpace(req.Description),
			Currency:    req.Currency,
			TotalAmount: total,
			Status:      quotedomain.StatusDraft,
			AdminNotes:  strings.TrimSpace(req.AdminNotes),
			CreatedByID: req.CreatedByID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		items := make([]quotedomain.BudgetItem, 0, len(req.Items))
		for i := range req.Items {
			input := &req.Items[i]
			items = append(items, quotedomain.BudgetItem{
				ID:                s.genID.Generate(),
				BudgetID:          budget.ID,
				Name:              strings.TrimSpace(input.Name),
				Description:       strings.TrimSpace(input.Description),
				Quantity:          input.Quantity,
				UnitPrice:         input.UnitPrice,
				TotalPrice:        input.UnitPrice * input.Quantity,
				Category:          strings.TrimSpace(input.Category),
				PricingTemplateID: input.PricingTemplateID,
				IsCustom:          input.IsCustom,
				CreatedAt:         now,
			})
		}
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.repo.InsertBudget(ctx, tx, budget); err != nil {
				return err
			}
			return s.repo.InsertBudgetItems(ctx, tx, items)
		})
		if err != nil {
			return nil, err
		}
		return budgetView(budget, items), nil

	case quotedomain.KindSubscription:
		subscription := &quotedomain.Subscription{
			ID:              s.genID.Generate(),
			InquiryID:       req.InquiryID,
			Title:           req.Title,
			Description:     strings.TrimSpace(req.Description),
			Currency:        req.Currency,
			MonthlyAmount:   total,
			BillingInterval: req.BillingInterval,
			TrialPeriodDays: req.TrialPeriodDays,
			Status:          quotedomain.StatusDraft,
			AdminNotes:      strings.TrimSpace(req.AdminNotes),
			CreatedByID:     req.CreatedByID,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		items := make([]quotedomain.SubscriptionItem, 0, len(req.Items))
		for i := range req.Items {
			input := &req.Items[i]
			items = append(items, quotedomain.SubscriptionItem{
				ID:                s.genID.Generate(),
				SubscriptionID:    subscription.ID,
				Name:              strings.TrimSpace(input.Name),
				Description:       strings.TrimSpace(input.Description),
				Quantity:          input.Quantity,
				UnitPrice:         input.UnitPrice,
				TotalPrice:        input.UnitPrice * input.Quantity,
				Category:          strings.TrimSpace(input.Category),
				PricingTemplateID: input.PricingTemplateID,
				IsCustom:          input.IsCustom,
				CreatedAt:         now,
			})
		}
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.repo.InsertSubscription(ctx, tx, subscription); err != nil {
				return err
			}
			return s.repo.InsertSubscriptionItems(ctx, tx, items)
		})
		if err != nil {
			return nil, err
		}
		return subscriptionView(subscription, items), nil
	}

	return nil, quotedomain.ErrInvalidKind
}

func (s *service) ApproveQuote(ctx context.Context, kind quotedomain.Kind, id snowflake.ID) (*quotedomain.Quote, error) {
	quote, err := s.GetQuote(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if quote.Status == quotedomain.StatusApproved {
		return quote, nil
	}
	if quote.Status != quotedomain.StatusDraft {
		return nil, quotedomain.ErrInvalidRequest
	}

	validUntil := time.Now().UTC().AddDate(0, 0, s.quotes.Get().ValidityDays)
	switch kind {
	case quotedomain.KindBudget:
		err = s.repo.ApproveBudget(ctx, s.db, id, validUntil)
	case quotedomain.KindSubscription:
		err = s.repo.ApproveSubscription(ctx, s.db, id, validUntil)
	}
	if err != nil {
		return nil, err
	}
	return s.GetQuote(ctx, kind, id)
}

func (s *service) GetQuote(ctx context.Context, kind quotedomain.Kind, id snowflake.ID) (*quotedomain.Quote, error) {
	switch kind {
	case quotedomain.KindBudget:
		budget, err := s.repo.FindBudgetByID(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		if budget == nil {
			return nil, quotedomain.ErrQuoteNotFound
		}
		items, err := s.repo.ListBudgetItems(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		return budgetView(budget, items), nil
	case quotedomain.KindSubscription:
		subscription, err := s.repo.FindSubscriptionByID(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		if subscription == nil {
			return nil, quotedomain.ErrQuoteNotFound
		}
		items, err := s.repo.ListSubscriptionItems(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		return subscriptionView(subscription, items), nil
	}
	return nil, quotedomain.ErrInvalidKind
}

func (s *service) ListQuotes(ctx context.Context, kind quotedomain.Kind) ([]quotedomain.Quote, error) {
	switch kind {
	case quotedomain.KindBudget:
		budgets, err := s.repo.ListBudgets(ctx, s.db)
		if err != nil {
			return nil, err
		}
		quotes := make([]quotedomain.Quote, 0, len(budgets))
		for i := range budgets {
			items, err := s.repo.ListBudgetItems(ctx, s.db, budgets[i].ID)
			if err != nil {
				return nil, err
			}
			quotes = append(quotes, *budgetView(&budgets[i], items))
		}
		return quotes, nil
	case quotedomain.KindSubscription:
		subscriptions, err := s.repo.ListSubscriptions(ctx, s.db)
		if err != nil {
			return nil, err
		}
		quotes := make([]quotedomain.Quote, 0, len(subscriptions))
		for i := range subscriptions {
			items, err := s.repo.ListSubscriptionItems(ctx, s.db, subscriptions[i].ID)
			if err != nil {
				return nil, err
			}
			quotes = append(quotes, *subscriptionView(&subscriptions[i], items))
		}
		return quotes, nil
	}
	return nil, quotedomain.ErrInvalidKind
}

// CreateCheckoutSession walks the ordered preconditions, then opens the
// gateway session and records a PENDING payment keyed by the session id
// before the URL is returned.
func (s *service) CreateCheckoutSession(ctx context.Context, kind quotedomain.Kind, id snowflake.ID, actor *identitydomain.Identity) (*quotedomain.CheckoutResult, error) {
	if !quotedomain.ValidKind(kind) {
		return nil, quotedomain.ErrInvalidKind
	}

	quote, err := s.GetQuote(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	inquiry, err := s.inquiryRepo.FindByID(ctx, s.db, quote.InquiryID)
	if err != nil {
		return nil, err
	}
	if !ownsQuote(actor, inquiry) {
		return nil, quotedomain.ErrForbidden
	}

	if quote.Status != quotedomain.StatusApproved {
		return nil, quotedomain.ErrNotApproved
	}

	paid, err := s.paymentRepo.HasSucceededForParent(ctx, s.db, parentKind(kind), id)
	if err != nil {
		return nil, err
	}
	if paid {
		return nil, quotedomain.ErrAlreadyPaid
	}

	if quote.ValidUntil != nil && quote.ValidUntil.Before(time.Now().UTC()) {
		return nil, quotedomain.ErrQuoteExpired
	}

	if !s.stripe.Configured() {
		return nil, stripe.ErrGatewayUnavailable
	}

	params := stripe.CheckoutSessionParams{
		SuccessURL: s.cfg.PublicBaseURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.cfg.PublicBaseURL + "/checkout/cancelled",
		Metadata: map[string]string{
			"kind":       string(kind),
			"quote_id":   quote.ID.String(),
			"inquiry_id": quote.InquiryID.String(),
		},
		IdempotencyKey: uuid.NewString(),
	}

	switch kind {
	case quotedomain.KindBudget:
		params.Mode = stripe.ModePayment
		if inquiry != nil {
			params.CustomerEmail = inquiry.Email
		}
		for i := range quote.Items {
			item := &quote.Items[i]
			description := item.Description
			if item.Category != "" {
				description = strings.TrimSpace(description + " [" + item.Category + "]")
			}
			params.LineItems = append(params.LineItems, stripe.LineItem{
				Name:        item.Name,
				Description: description,
				Amount:      item.UnitPrice,
				Currency:    quote.Currency,
				Quantity:    item.Quantity,
			})
		}
	case quotedomain.KindSubscription:
		priceID, customerID, err := s.ensureSubscriptionRefs(ctx, id, quote, inquiry)
		if err != nil {
			return nil, err
		}
		params.Mode = stripe.ModeSubscription
		params.CustomerID = customerID
		params.TrialPeriodDays = quote.TrialPeriodDays
		params.LineItems = []stripe.LineItem{{PriceID: priceID, Quantity: 1}}
	}

	session, err := s.stripe.CreateCheckoutSession(ctx, params)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	payment := &paymentdomain.Payment{
		ID:              s.genID.Generate(),
		Kind:            parentKind(kind),
		ParentID:        id,
		StripeSessionID: session.ID,
		Amount:          quote.Amount,
		Currency:        quote.Currency,
		Status:          paymentdomain.PaymentStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.paymentRepo.Insert(ctx, s.db, payment); err != nil {
		return nil, err
	}

	s.log.Info("checkout session created",
		zap.String("kind", string(kind)),
		zap.String("quote_id", id.String()),
		zap.String("session_id", session.ID),
	)
	return &quotedomain.CheckoutResult{SessionID: session.ID, URL: session.URL}, nil
}

// ensureSubscriptionRefs reuses stored Stripe customer/product/price ids
// when they are still valid, falling back to creating fresh ones on a
// stale lookup instead of failing the checkout.
func (s *service) ensureSubscriptionRefs(ctx context.Context, id snowflake.ID, quote *quotedomain.Quote, inquiry *inquirydomain.Inquiry) (string, string, error) {
	subscription, err := s.repo.FindSubscriptionByID(ctx, s.db, id)
	if err != nil {
		return "", "", err
	}
	if subscription == nil {
		return "", "", quotedomain.ErrQuoteNotFound
	}

	customerID := ""
	if subscription.StripeCustomerID != nil {
		customerID = *subscription.StripeCustomerID
	}
	if customerID == "" && inquiry != nil {
		customer, err := s.stripe.FindCustomerByEmail(ctx, inquiry.Email)
		if err != nil {
			return "", "", err
		}
		if customer == nil {
			customer, err = s.stripe.CreateCustomer(ctx, inquiry.Email, inquiry.Name)
			if err != nil {
				return "", "", err
			}
		}
		customerID = customer.ID
	}

	priceID := ""
	if subscription.StripePriceID != nil && *subscription.StripePriceID != "" {
		price, err := s.stripe.GetPrice(ctx, *subscription.StripePriceID)
		if err != nil {
			return "", "", err
		}
		if price != nil {
			priceID = price.ID
		}
	}
	productID := ""
	if priceID == "" {
		product, err := s.stripe.CreateProduct(ctx, quote.Title, quote.Description)
		if err != nil {
			return "", "", err
		}
		productID = product.ID
		price, err := s.stripe.CreateRecurringPrice(ctx, product.ID, quote.Amount, quote.Currency, string(quote.BillingInterval))
		if err != nil {
			return "", "", err
		}
		priceID = price.ID
	}

	var customerRef, productRef, priceRef *string
	if customerID != "" {
		customerRef = &customerID
	}
	if productID != "" {
		productRef = &productID
	}
	priceRef = &priceID
	if err := s.repo.UpdateSubscriptionStripeRefs(ctx, s.db, id, customerRef, productRef, priceRef); err != nil {
		return "", "", err
	}

	return priceID, customerID, nil
}

func ownsQuote(actor *identitydomain.Identity, inquiry *inquirydomain.Inquiry) bool {
	if actor == nil {
		return false
	}
	if actor.IsAdmin {
		return true
	}
	if inquiry == nil {
		return false
	}
	if inquiry.UserID != nil && *inquiry.UserID == actor.UserID {
		return true
	}
	return strings.EqualFold(inquiry.Email, actor.Email)
}

func parentKind(kind quotedomain.Kind) paymentdomain.ParentKind {
	if kind == quotedomain.KindSubscription {
		return paymentdomain.ParentKindSubscription
	}
	return paymentdomain.ParentKindBudget
}

func budgetView(budget *quotedomain.Budget, items []quotedomain.BudgetItem) *quotedomain.Quote {
	view := &quotedomain.Quote{
		Kind:        quotedomain.KindBudget,
		ID:          budget.ID,
		InquiryID:   budget.InquiryID,
		Title:       budget.Title,
		Description: budget.Description,
		Currency:    budget.Currency,
		Amount:      budget.TotalAmount,
		Status:      budget.Status,
		ValidUntil:  budget.ValidUntil,
		AdminNotes:  budget.AdminNotes,
		CreatedByID: budget.CreatedByID,
		Items:       make([]quotedomain.Item, 0, len(items)),
		CreatedAt:   budget.CreatedAt,
		UpdatedAt:   budget.UpdatedAt,
	}
	for i := range items {
		item := &items[i]
		view.Items = append(view.Items, quotedomain.Item{
			ID:                item.ID,
			Name:              item.Name,
			Description:       item.Description,
			Quantity:          item.Quantity,
			UnitPrice:         item.UnitPrice,
			TotalPrice:        item.TotalPrice,
			Category:          item.Category,
			PricingTemplateID: item.PricingTemplateID,
			IsCustom:          item.IsCustom,
		})
	}
	return view
}

func subscriptionView(subscription *quotedomain.Subscription, items []quotedomain.SubscriptionItem) *quotedomain.Quote {
	view := &quotedomain.Quote{
		Kind:            quotedomain.KindSubscription,
		ID:              subscription.ID,
		InquiryID:       subscription.InquiryID,
		Title:           subscription.Title,
		Description:     subscription.Description,
		Currency:        subscription.Currency,
		Amount:          subscription.MonthlyAmount,
		Status:          subscription.Status,
		ValidUntil:      subscription.ValidUntil,
		AdminNotes:      subscription.AdminNotes,
		CreatedByID:     subscription.CreatedByID,
		BillingInterval: subscription.BillingInterval,
		TrialPeriodDays: subscription.TrialPeriodDays,
		Items:           make([]quotedomain.Item, 0, len(items)),
		CreatedAt:       subscription.CreatedAt,
		UpdatedAt:       subscription.UpdatedAt,
	}
	for i := range items {
		item := &items[i]
		view.Items = append(view.Items, quotedomain.Item{
			ID:                item.ID,
			Name:              item.Name,
			Description:       item.Description,
			Quantity:          item.Quantity,
			UnitPrice:         item.UnitPrice,
			TotalPrice:        item.TotalPrice,
			Category:          item.Category,
			PricingTemplateID: item.PricingTemplateID,
			IsCustom:          item.IsCustom,
		})
	}
	return view
}
