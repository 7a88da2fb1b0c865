// Package stripe is a thin form-encoded client for the subset of the
// Stripe API the checkout flow needs, plus webhook signature and event
// primitives. It deliberately avoids the full SDK surface.
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrGatewayUnavailable signals that no API key is configured. Callers
// map it to a 503.
var ErrGatewayUnavailable = errors.New("payment_gateway_unavailable")

const (
	ModePayment      = "payment"
	ModeSubscription = "subscription"

	IntervalMonth = "month"
	IntervalYear  = "year"
)

type Client struct {
	apiKey string
	client *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey: strings.TrimSpace(apiKey),
		client: &http.Client{Timeout: 12 * time.Second},
	}
}

// Configured reports whether the client holds an API key.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type Product struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type Price struct {
	ID         string `json:"id"`
	ProductID  string `json:"product"`
	UnitAmount int64  `json:"unit_amount"`
	Currency   string `json:"currency"`
	Active     bool   `json:"active"`
}

type CheckoutSession struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentIntent string `json:"payment_intent"`
	Status        string `json:"status"`
}

// LineItem is one checkout line. For payment mode the price is built
// inline from Name/Amount; for subscription mode PriceID references a
// pre-created recurring price.
type LineItem struct {
	Name        string
	Description string
	Amount      int64
	Currency    string
	Quantity    int64
	PriceID     string
}

type CheckoutSessionParams struct {
	Mode            string
	SuccessURL      string
	CancelURL       string
	CustomerID      string
	CustomerEmail   string
	LineItems       []LineItem
	Metadata        map[string]string
	TrialPeriodDays int
	IdempotencyKey  string
}

func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error) {
	values := url.Values{}
	values.Set("mode", params.Mode)
	values.Set("success_url", params.SuccessURL)
	values.Set("cancel_url", params.CancelURL)
	if params.CustomerID != "" {
		values.Set("customer", params.CustomerID)
	} else if params.CustomerEmail != "" {
		values.Set("customer_email", params.CustomerEmail)
	}
	for i, item := range params.LineItems {
		prefix := "line_items[" + strconv.Itoa(i) + "]"
		values.Set(prefix+"[quantity]", strconv.FormatInt(item.Quantity, 10))
		if item.PriceID != "" {
			values.Set(prefix+"[price]", item.PriceID)
			continue
		}
		values.Set(prefix+"[price_data][currency]", strings.ToLower(item.Currency))
		values.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.Amount, 10))
		values.Set(prefix+"[price_data][product_data][name]", item.Name)
		if item.Description != "" {
			values.Set(prefix+"[price_data][product_data][description]", item.Description)
		}
	}
	for key, value := range params.Metadata {
		values.Set("metadata["+key+"]", value)
	}
	if params.Mode == ModeSubscription && params.TrialPeriodDays > 0 {
		values.Set("subscription_data[trial_period_days]", strconv.Itoa(params.TrialPeriodDays))
	}

	var session CheckoutSession
	if err := c.doRequest(ctx, http.MethodPost, "/v1/checkout/sessions", values, params.IdempotencyKey, &session); err != nil {
		return nil, err
	}
	if session.ID == "" {
		return nil, errors.New("stripe_response_invalid")
	}
	return &session, nil
}

// FindCustomerByEmail returns the first customer with the email, or nil
// when none exists.
func (c *Client) FindCustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	query := url.Values{}
	query.Set("email", strings.ToLower(strings.TrimSpace(email)))
	query.Set("limit", "1")

	var list struct {
		Data []Customer `json:"data"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/v1/customers?"+query.Encode(), nil, "", &list); err != nil {
		return nil, err
	}
	if len(list.Data) == 0 {
		return nil, nil
	}
	return &list.Data[0], nil
}

func (c *Client) CreateCustomer(ctx context.Context, email string, name string) (*Customer, error) {
	values := url.Values{}
	values.Set("email", strings.ToLower(strings.TrimSpace(email)))
	if name != "" {
		values.Set("name", name)
	}

	var customer Customer
	if err := c.doRequest(ctx, http.MethodPost, "/v1/customers", values, "", &customer); err != nil {
		return nil, err
	}
	if customer.ID == "" {
		return nil, errors.New("stripe_response_invalid")
	}
	return &customer, nil
}

// GetPrice retrieves a price by id. A missing or inactive price returns
// nil so callers can fall back to creating a fresh one.
func (c *Client) GetPrice(ctx context.Context, priceID string) (*Price, error) {
	var price Price
	err := c.doRequest(ctx, http.MethodGet, "/v1/prices/"+url.PathEscape(priceID), nil, "", &price)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if price.ID == "" || !price.Active {
		return nil, nil
	}
	return &price, nil
}

func (c *Client) CreateProduct(ctx context.Context, name string, description string) (*Product, error) {
	values := url.Values{}
	values.Set("name", name)
	if description != "" {
		values.Set("description", description)
	}

	var product Product
	if err := c.doRequest(ctx, http.MethodPost, "/v1/products", values, "", &product); err != nil {
		return nil, err
	}
	if product.ID == "" {
		return nil, errors.New("stripe_response_invalid")
	}
	return &product, nil
}

func (c *Client) CreateRecurringPrice(ctx context.Context, productID string, amount int64, currency string, interval string) (*Price, error) {
	values := url.Values{}
	values.Set("product", productID)
	values.Set("unit_amount", strconv.FormatInt(amount, 10))
	values.Set("currency", strings.ToLower(currency))
	values.Set("recurring[interval]", interval)

	var price Price
	if err := c.doRequest(ctx, http.MethodPost, "/v1/prices", values, "", &price); err != nil {
		return nil, err
	}
	if price.ID == "" {
		return nil, errors.New("stripe_response_invalid")
	}
	return &price, nil
}

var errNotFound = errors.New("stripe_resource_missing")

type stripeErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) doRequest(
	ctx context.Context,
	method string,
	path string,
	values url.Values,
	idempotencyKey string,
	target any,
) error {
	if c.apiKey == "" {
		return ErrGatewayUnavailable
	}
	var bodyReader *strings.Reader
	if values != nil {
		bodyReader = strings.NewReader(values.Encode())
	} else {
		bodyReader = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, "https://api.stripe.com"+path, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if values != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var stripeErr stripeErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&stripeErr); err != nil {
			return errors.New("stripe_request_failed")
		}
		message := strings.TrimSpace(stripeErr.Error.Message)
		if message == "" {
			message = "stripe_request_failed"
		}
		return errors.New(message)
	}

	return json.NewDecoder(resp.Body).Decode(target)
}
