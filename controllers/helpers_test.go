package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"civiclens-api/lifecycle"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// These tests run without a database. They also pin down that
// importing this package never dials the store: collection handles
// resolve lazily, so a process without MONGODB_URI set can still
// load the package (and main can read .env before the first call).

func TestRespondErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{lifecycle.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{lifecycle.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{lifecycle.ErrAccountBlocked, http.StatusForbidden, "ACCOUNT_BLOCKED"},
		{lifecycle.ErrInvalidTransition, http.StatusUnprocessableEntity, "INVALID_TRANSITION"},
		{lifecycle.ErrAlreadyTerminal, http.StatusConflict, "ALREADY_TERMINAL"},
		{lifecycle.ErrQuotaExceeded, http.StatusPaymentRequired, "QUOTA_EXCEEDED"},
		{lifecycle.ErrAlreadyVoted, http.StatusConflict, "ALREADY_VOTED"},
		{lifecycle.ErrSelfVote, http.StatusBadRequest, "SELF_VOTE"},
		{lifecycle.ErrAlreadyBoosted, http.StatusConflict, "ALREADY_BOOSTED"},
		{lifecycle.ErrPaymentUnconfirmed, http.StatusPaymentRequired, "PAYMENT_UNCONFIRMED"},
		{lifecycle.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{lifecycle.ErrConflict, http.StatusConflict, "CONFLICT"},
		{lifecycle.ErrUpstreamUnavailable, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE"},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		respondError(c, tc.err)

		require.Equal(t, tc.status, w.Code, "status for %v", tc.err)
		require.Contains(t, w.Body.String(), tc.code)
	}
}

func TestCurrentPrincipalMissingSession(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, err := currentPrincipal(c)
	require.ErrorIs(t, err, lifecycle.ErrUnauthenticated)
}

func TestCurrentPrincipalMalformedID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set("user_id", "not-a-hex-object-id")

	_, err := currentPrincipal(c)
	require.ErrorIs(t, err, lifecycle.ErrUnauthenticated)
}
