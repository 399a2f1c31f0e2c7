package lifecycle

import "errors"

// Every rejection the decision layer can produce. Controllers map
// these to HTTP statuses; business rejections keep their specific
// code all the way to the client.
var (
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrForbidden           = errors.New("forbidden")
	ErrAccountBlocked      = errors.New("account_blocked")
	ErrInvalidTransition   = errors.New("invalid_transition")
	ErrAlreadyTerminal     = errors.New("already_terminal")
	ErrQuotaExceeded       = errors.New("quota_exceeded")
	ErrAlreadyVoted        = errors.New("already_voted")
	ErrSelfVote            = errors.New("self_vote")
	ErrAlreadyBoosted      = errors.New("already_boosted")
	ErrPaymentUnconfirmed  = errors.New("payment_unconfirmed")
	ErrNotFound            = errors.New("not_found")
	ErrConflict            = errors.New("conflict")
	ErrUpstreamUnavailable = errors.New("upstream_unavailable")
)
