package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"civiclens-api/lifecycle"

	"github.com/stretchr/testify/require"
)

func TestVerifyTransaction(t *testing.T) {
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/payment_intents/pi_123", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_123","amount":10000,"status":"succeeded"}`))
	}))
	defer srv.Close()

	client := NewClient("sk_test_key", "usd")
	client.BaseURL = srv.URL

	conf, err := client.VerifyTransaction(context.Background(), "pi_123")
	require.NoError(t, err)

	require.Equal(t, "Bearer sk_test_key", gotAuth)
	require.Equal(t, "pi_123", conf.TransactionID)
	require.Equal(t, int64(100), conf.Amount)
	require.Equal(t, StatusPaid, conf.Status)
}

func TestVerifyTransactionUnpaidIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_456","amount":10000,"status":"requires_payment_method"}`))
	}))
	defer srv.Close()

	client := NewClient("sk_test_key", "usd")
	client.BaseURL = srv.URL

	conf, err := client.VerifyTransaction(context.Background(), "pi_456")
	require.NoError(t, err)
	require.NotEqual(t, StatusPaid, conf.Status)
}

func TestVerifyTransactionUnknownID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient("sk_test_key", "usd")
	client.BaseURL = srv.URL

	_, err := client.VerifyTransaction(context.Background(), "pi_missing")
	require.ErrorIs(t, err, lifecycle.ErrPaymentUnconfirmed)
}

func TestVerifyTransactionUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient("sk_test_key", "usd")
	client.BaseURL = srv.URL

	_, err := client.VerifyTransaction(context.Background(), "pi_123")
	require.ErrorIs(t, err, lifecycle.ErrUpstreamUnavailable)
}
