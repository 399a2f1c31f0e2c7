package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"civiclens-api/lifecycle"

	"github.com/stretchr/testify/require"
)

func TestCreateIntent(t *testing.T) {
	var gotAuth, gotIdemKey, gotAmount string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/payment_intents", r.URL.Path)

		require.NoError(t, r.ParseForm())
		gotAuth = r.Header.Get("Authorization")
		gotIdemKey = r.Header.Get("Idempotency-Key")
		gotAmount = r.PostFormValue("amount")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_123","client_secret":"pi_123_secret_abc"}`))
	}))
	defer srv.Close()

	client := NewClient("sk_test_key", "usd")
	client.BaseURL = srv.URL

	secret, err := client.CreateIntent(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, "pi_123_secret_abc", secret)

	require.Equal(t, "Bearer sk_test_key", gotAuth)
	require.NotEmpty(t, gotIdemKey)
	require.Equal(t, "10000", gotAmount)
}

func TestCreateIntentUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient("sk_test_key", "")
	client.BaseURL = srv.URL

	_, err := client.CreateIntent(context.Background(), 100)
	require.ErrorIs(t, err, lifecycle.ErrUpstreamUnavailable)
}

func TestCreateIntentMissingKey(t *testing.T) {
	client := NewClient("", "")
	_, err := client.CreateIntent(context.Background(), 100)
	require.Error(t, err)
}
