package lifecycle

import (
	"civiclens-api/models"
)

// FreeReportLimit is the free-tier ceiling on open reports. Verified
// (premium) citizens are exempt.
const FreeReportLimit = 3

// BoostPrice is the fixed price of a priority boost.
const BoostPrice = 100

// CanCreateIssue reports whether a citizen with the given verified
// flag and existing report count may create another issue.
func CanCreateIssue(isVerified bool, existingCount int64) bool {
	if isVerified {
		return true
	}
	return existingCount < FreeReportLimit
}

// CheckCreate validates an issue creation request. The quota
// rejection keeps its own code so the client can offer the upgrade
// path instead of a generic validation error.
func CheckCreate(requester *models.User, existingCount int64) error {
	if requester == nil {
		return ErrUnauthenticated
	}
	if requester.IsBlocked {
		return ErrAccountBlocked
	}
	if !CanCreateIssue(requester.IsVerified, existingCount) {
		return ErrQuotaExceeded
	}
	return nil
}

// CheckBoost validates boosting an issue to High priority against a
// recorded payment. Boosting is deliberately open to any
// authenticated, unblocked principal, not just the reporter. The
// payment must be a confirmed boost at the fixed price referencing
// this exact issue. Replay safety for duplicate confirmations lives
// in the payment record's unique transaction id, not here.
func CheckBoost(requester *models.User, issue *models.Issue, payment *models.Payment) error {
	if requester == nil {
		return ErrUnauthenticated
	}
	if requester.IsBlocked {
		return ErrAccountBlocked
	}
	if issue == nil {
		return ErrNotFound
	}
	if issue.Priority == models.PriorityHigh {
		return ErrAlreadyBoosted
	}
	if payment == nil || payment.Type != models.PaymentBoost || payment.Status != "paid" {
		return ErrPaymentUnconfirmed
	}
	if payment.Amount != BoostPrice {
		return ErrPaymentUnconfirmed
	}
	if payment.IssueID == nil || *payment.IssueID != issue.ID {
		return ErrPaymentUnconfirmed
	}
	return nil
}
