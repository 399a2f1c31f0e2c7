package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"civiclens-api/lifecycle"

	"github.com/google/uuid"
)

// Client is a thin client for the payment processor's
// payment-intents API. The processor owns confirmation; this side
// opens intents and retrieves them again to verify what the SPA
// posts back.
type Client struct {
	SecretKey string
	BaseURL   string
	Currency  string

	httpClient *http.Client
}

// NewClient builds a client from the environment-style inputs. An
// empty currency defaults to usd.
func NewClient(secretKey, currency string) *Client {
	if currency == "" {
		currency = "usd"
	}
	return &Client{
		SecretKey: secretKey,
		BaseURL:   "https://api.stripe.com",
		Currency:  currency,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type intentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// CreateIntent opens a payment intent for the given amount (major
// currency units) and returns the client secret the card form needs.
// The request carries a fresh Idempotency-Key so an ambiguous
// network failure can be retried by the caller without opening a
// second intent on the processor side.
func (p *Client) CreateIntent(ctx context.Context, amount int64) (string, error) {
	if p.SecretKey == "" {
		return "", fmt.Errorf("payment secret key is not configured")
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount*100, 10))
	form.Set("currency", p.Currency)
	form.Set("payment_method_types[]", "card")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.BaseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+p.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", lifecycle.ErrUpstreamUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", lifecycle.ErrUpstreamUnavailable
	}

	var intent intentResponse
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return "", lifecycle.ErrUpstreamUnavailable
	}
	if intent.ClientSecret == "" {
		return "", lifecycle.ErrUpstreamUnavailable
	}

	return intent.ClientSecret, nil
}
