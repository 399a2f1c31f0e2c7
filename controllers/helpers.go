package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"civiclens-api/config"
	"civiclens-api/lifecycle"
	"civiclens-api/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collections are resolved per call, not at package init, so the
// connection is only dialed after main has loaded the environment.
func issueCollection() *mongo.Collection   { return config.GetCollection("issues") }
func userCollection() *mongo.Collection    { return config.GetCollection("users") }
func paymentCollection() *mongo.Collection { return config.GetCollection("payments") }

// dbCtx returns a bounded context for a single store call.
func dbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

// currentPrincipal resolves the authenticated user to a fresh User
// document. The token only proves identity; role, isBlocked and
// isVerified are read from the store on every call so a revoked or
// demoted account loses its authority immediately.
func currentPrincipal(c *gin.Context) (*models.User, error) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		return nil, lifecycle.ErrUnauthenticated
	}
	userID, ok := userIDVal.(string)
	if !ok || userID == "" {
		return nil, lifecycle.ErrUnauthenticated
	}

	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, lifecycle.ErrUnauthenticated
	}

	ctx, cancel := dbCtx()
	defer cancel()

	var user models.User
	err = userCollection().FindOne(ctx, bson.M{"_id": objectID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, lifecycle.ErrUnauthenticated
		}
		return nil, lifecycle.ErrUpstreamUnavailable
	}

	return &user, nil
}

// respondError maps a lifecycle rejection to its HTTP status and a
// stable code the client can branch on. Business rejections keep
// their specific code; only genuinely unexpected errors become 500s.
func respondError(c *gin.Context, err error) {
	type mapping struct {
		status int
		code   string
	}

	table := []struct {
		err error
		m   mapping
	}{
		{lifecycle.ErrUnauthenticated, mapping{http.StatusUnauthorized, "UNAUTHENTICATED"}},
		{lifecycle.ErrForbidden, mapping{http.StatusForbidden, "FORBIDDEN"}},
		{lifecycle.ErrAccountBlocked, mapping{http.StatusForbidden, "ACCOUNT_BLOCKED"}},
		{lifecycle.ErrInvalidTransition, mapping{http.StatusUnprocessableEntity, "INVALID_TRANSITION"}},
		{lifecycle.ErrAlreadyTerminal, mapping{http.StatusConflict, "ALREADY_TERMINAL"}},
		{lifecycle.ErrQuotaExceeded, mapping{http.StatusPaymentRequired, "QUOTA_EXCEEDED"}},
		{lifecycle.ErrAlreadyVoted, mapping{http.StatusConflict, "ALREADY_VOTED"}},
		{lifecycle.ErrSelfVote, mapping{http.StatusBadRequest, "SELF_VOTE"}},
		{lifecycle.ErrAlreadyBoosted, mapping{http.StatusConflict, "ALREADY_BOOSTED"}},
		{lifecycle.ErrPaymentUnconfirmed, mapping{http.StatusPaymentRequired, "PAYMENT_UNCONFIRMED"}},
		{lifecycle.ErrNotFound, mapping{http.StatusNotFound, "NOT_FOUND"}},
		{lifecycle.ErrConflict, mapping{http.StatusConflict, "CONFLICT"}},
		{lifecycle.ErrUpstreamUnavailable, mapping{http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE"}},
	}

	for _, entry := range table {
		if errors.Is(err, entry.err) {
			c.JSON(entry.m.status, gin.H{"error": entry.err.Error(), "code": entry.m.code})
			return
		}
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
}

// findIssue loads one issue by hex id.
func findIssue(ctx context.Context, issueID primitive.ObjectID) (*models.Issue, error) {
	var issue models.Issue
	err := issueCollection().FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, lifecycle.ErrNotFound
		}
		return nil, lifecycle.ErrUpstreamUnavailable
	}
	return &issue, nil
}
