package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"civiclens-api/lifecycle"
)

// StatusPaid is the canonical status of a confirmed payment. The
// processor reports "succeeded"; everything stored and checked on
// this side uses "paid".
const StatusPaid = "paid"

// Confirmation is what the processor actually knows about a
// transaction: its id, the amount charged in major currency units,
// and whether the charge went through.
type Confirmation struct {
	TransactionID string
	Amount        int64
	Status        string
}

// Verifier resolves a transaction id to the processor's view of it.
// Handlers never trust amounts or statuses posted by the client; the
// confirmation is fetched here before any payment takes effect.
type Verifier interface {
	VerifyTransaction(ctx context.Context, transactionID string) (*Confirmation, error)
}

var _ Verifier = (*Client)(nil)

type retrievedIntent struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
	Status string `json:"status"`
}

// VerifyTransaction retrieves the payment intent behind a transaction
// id. An id the processor does not know maps to ErrPaymentUnconfirmed;
// processor outages map to ErrUpstreamUnavailable. A succeeded intent
// comes back with StatusPaid and its amount converted from minor to
// major units.
func (p *Client) VerifyTransaction(ctx context.Context, transactionID string) (*Confirmation, error) {
	if p.SecretKey == "" {
		return nil, fmt.Errorf("payment secret key is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.BaseURL+"/v1/payment_intents/"+url.PathEscape(transactionID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.SecretKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, lifecycle.ErrUpstreamUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, lifecycle.ErrPaymentUnconfirmed
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, lifecycle.ErrUpstreamUnavailable
	}

	var intent retrievedIntent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return nil, lifecycle.ErrUpstreamUnavailable
	}
	if intent.ID == "" {
		return nil, lifecycle.ErrUpstreamUnavailable
	}

	status := intent.Status
	if status == "succeeded" {
		status = StatusPaid
	}

	return &Confirmation{
		TransactionID: intent.ID,
		Amount:        intent.Amount / 100,
		Status:        status,
	}, nil
}
