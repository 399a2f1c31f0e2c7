package controllers

import (
	"context"
	"testing"

	"civiclens-api/lifecycle"
	"civiclens-api/models"
	"civiclens-api/payments"

	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	conf *payments.Confirmation
	err  error
}

func (s stubVerifier) VerifyTransaction(ctx context.Context, transactionID string) (*payments.Confirmation, error) {
	return s.conf, s.err
}

func TestPaymentVerifierInjection(t *testing.T) {
	want := &payments.Confirmation{TransactionID: "pi_123", Amount: 1000, Status: payments.StatusPaid}

	activeVerifier = stubVerifier{conf: want}
	defer func() { activeVerifier = nil }()

	conf, err := paymentVerifier().VerifyTransaction(context.Background(), "pi_123")
	require.NoError(t, err)
	require.Equal(t, want, conf)
}

// The posted body never decides whether a payment counts: only the
// processor's confirmation does. An unpaid intent, or a paid one
// whose charged amount does not match the subscription price, buys
// nothing regardless of what the client claimed.
func TestCheckConfirmation(t *testing.T) {
	paid := func(amount int64) *payments.Confirmation {
		return &payments.Confirmation{TransactionID: "pi_123", Amount: amount, Status: payments.StatusPaid}
	}

	t.Run("paid subscription at full price accepted", func(t *testing.T) {
		require.NoError(t, checkConfirmation(paid(SubscriptionPrice), models.PaymentSubscription))
	})

	t.Run("paid boost accepted", func(t *testing.T) {
		require.NoError(t, checkConfirmation(paid(lifecycle.BoostPrice), models.PaymentBoost))
	})

	t.Run("unpaid intent rejected", func(t *testing.T) {
		conf := &payments.Confirmation{TransactionID: "pi_123", Amount: SubscriptionPrice, Status: "requires_payment_method"}
		err := checkConfirmation(conf, models.PaymentSubscription)
		require.ErrorIs(t, err, lifecycle.ErrPaymentUnconfirmed)
	})

	t.Run("underpaid subscription rejected", func(t *testing.T) {
		err := checkConfirmation(paid(lifecycle.BoostPrice), models.PaymentSubscription)
		require.ErrorIs(t, err, lifecycle.ErrPaymentUnconfirmed)
	})
}
