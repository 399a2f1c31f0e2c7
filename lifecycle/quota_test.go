package lifecycle

import (
	"testing"

	"civiclens-api/models"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCanCreateIssue(t *testing.T) {
	require.True(t, CanCreateIssue(false, 0))
	require.True(t, CanCreateIssue(false, 2))
	require.False(t, CanCreateIssue(false, 3))
	require.False(t, CanCreateIssue(false, 10))

	// Verified citizens are exempt regardless of count.
	require.True(t, CanCreateIssue(true, 3))
	require.True(t, CanCreateIssue(true, 100))
}

func TestCheckCreateQuota(t *testing.T) {
	c := citizen("c2@mail.com")

	require.NoError(t, CheckCreate(c, 2))
	require.ErrorIs(t, CheckCreate(c, 3), ErrQuotaExceeded)

	// Subscription flips the flag; the count itself never changes.
	c.IsVerified = true
	require.NoError(t, CheckCreate(c, 3))
}

func TestCheckCreateBlocked(t *testing.T) {
	c := citizen("c2@mail.com")
	c.IsBlocked = true
	require.ErrorIs(t, CheckCreate(c, 0), ErrAccountBlocked)

	require.ErrorIs(t, CheckCreate(nil, 0), ErrUnauthenticated)
}

func boostPayment(issueID primitive.ObjectID) *models.Payment {
	return &models.Payment{
		UserEmail:     "payer@mail.com",
		TransactionID: "pi_123",
		Amount:        BoostPrice,
		Type:          models.PaymentBoost,
		IssueID:       &issueID,
		Status:        "paid",
	}
}

func TestCheckBoost(t *testing.T) {
	c2 := citizen("c2@mail.com")
	issue := pendingIssue("c1@mail.com")

	// Boosting someone else's issue is allowed on purpose.
	require.NoError(t, CheckBoost(c2, issue, boostPayment(issue.ID)))
}

func TestCheckBoostAlreadyHigh(t *testing.T) {
	c2 := citizen("c2@mail.com")
	issue := pendingIssue("c1@mail.com")
	issue.Priority = models.PriorityHigh

	require.ErrorIs(t, CheckBoost(c2, issue, boostPayment(issue.ID)), ErrAlreadyBoosted)
}

func TestCheckBoostPaymentUnconfirmed(t *testing.T) {
	c2 := citizen("c2@mail.com")
	issue := pendingIssue("c1@mail.com")

	require.ErrorIs(t, CheckBoost(c2, issue, nil), ErrPaymentUnconfirmed)

	p := boostPayment(issue.ID)
	p.Status = "pending"
	require.ErrorIs(t, CheckBoost(c2, issue, p), ErrPaymentUnconfirmed)

	p = boostPayment(issue.ID)
	p.Type = models.PaymentSubscription
	require.ErrorIs(t, CheckBoost(c2, issue, p), ErrPaymentUnconfirmed)

	p = boostPayment(issue.ID)
	p.Amount = 50
	require.ErrorIs(t, CheckBoost(c2, issue, p), ErrPaymentUnconfirmed)

	// Payment for a different issue never boosts this one.
	other := primitive.NewObjectID()
	p = boostPayment(other)
	require.ErrorIs(t, CheckBoost(c2, issue, p), ErrPaymentUnconfirmed)

	p = boostPayment(issue.ID)
	p.IssueID = nil
	require.ErrorIs(t, CheckBoost(c2, issue, p), ErrPaymentUnconfirmed)
}

func TestCheckBoostBlocked(t *testing.T) {
	issue := pendingIssue("c1@mail.com")
	c := citizen("c2@mail.com")
	c.IsBlocked = true

	require.ErrorIs(t, CheckBoost(c, issue, boostPayment(issue.ID)), ErrAccountBlocked)
	require.ErrorIs(t, CheckBoost(nil, issue, boostPayment(issue.ID)), ErrUnauthenticated)
}

func TestCheckBoostMissingIssue(t *testing.T) {
	c := citizen("c2@mail.com")
	require.ErrorIs(t, CheckBoost(c, nil, nil), ErrNotFound)
}
