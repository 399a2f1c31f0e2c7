package controllers

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"civiclens-api/lifecycle"
	"civiclens-api/models"
	"civiclens-api/payments"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SubscriptionPrice is the fixed price of the premium upgrade.
const SubscriptionPrice = 1000

// paymentClient builds the processor client from the environment.
// Separated so the construction stays in one place.
func paymentClient() *payments.Client {
	return payments.NewClient(os.Getenv("STRIPE_SECRET_KEY"), os.Getenv("PAYMENT_CURRENCY"))
}

// activeVerifier, when set, replaces the live processor lookup.
// Tests install a fake here; production leaves it nil.
var activeVerifier payments.Verifier

func paymentVerifier() payments.Verifier {
	if activeVerifier != nil {
		return activeVerifier
	}
	return paymentClient()
}

// checkConfirmation decides whether the processor's view of a
// transaction can back a payment of the given type. Boost amounts are
// validated downstream against the issue being boosted.
func checkConfirmation(conf *payments.Confirmation, paymentType models.PaymentType) error {
	if conf.Status != payments.StatusPaid {
		return lifecycle.ErrPaymentUnconfirmed
	}
	if paymentType == models.PaymentSubscription && conf.Amount != SubscriptionPrice {
		return lifecycle.ErrPaymentUnconfirmed
	}
	return nil
}

// CreatePaymentIntent opens a payment intent with the processor and
// hands the client secret back to the card form. Only the two fixed
// price points are accepted.
func CreatePaymentIntent(c *gin.Context) {
	requester, err := currentPrincipal(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if requester.IsBlocked {
		respondError(c, lifecycle.ErrAccountBlocked)
		return
	}

	var input struct {
		Price int64 `json:"price" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Price != lifecycle.BoostPrice && input.Price != SubscriptionPrice {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown price point"})
		return
	}

	clientSecret, err := paymentClient().CreateIntent(c.Request.Context(), input.Price)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"clientSecret": clientSecret})
}

// RecordPayment stores a confirmed payment and applies its effect:
// subscription payments verify the payer, boost payments raise the
// referenced issue to High priority. The client only names the
// transaction; amount and status come from the processor, so a forged
// body cannot buy anything. Confirmations arrive at-least-once; a
// transaction id that is already recorded returns success without
// applying anything a second time.
func RecordPayment(c *gin.Context) {
	requester, err := currentPrincipal(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if requester.IsBlocked {
		respondError(c, lifecycle.ErrAccountBlocked)
		return
	}

	var input struct {
		TransactionID string `json:"transactionId" binding:"required"`
		Type          string `json:"type" binding:"required,oneof=subscription boost"`
		IssueID       string `json:"issueId,omitempty"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := dbCtx()
	defer cancel()

	// Replay short-circuit: a known transaction id is a no-op success.
	var existing models.Payment
	err = paymentCollection().FindOne(ctx, bson.M{"transactionId": input.TransactionID}).Decode(&existing)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"message": "Payment already recorded", "transactionId": existing.TransactionID})
		return
	}
	if err != mongo.ErrNoDocuments {
		respondError(c, lifecycle.ErrUpstreamUnavailable)
		return
	}

	conf, err := paymentVerifier().VerifyTransaction(c.Request.Context(), input.TransactionID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := checkConfirmation(conf, models.PaymentType(input.Type)); err != nil {
		respondError(c, err)
		return
	}

	payment := models.Payment{
		ID:            primitive.NewObjectID(),
		UserEmail:     requester.Email,
		UserName:      requester.Name,
		TransactionID: input.TransactionID,
		Amount:        conf.Amount,
		Type:          models.PaymentType(input.Type),
		Status:        conf.Status,
		Date:          time.Now(),
	}

	switch payment.Type {
	case models.PaymentBoost:
		if input.IssueID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "issueId is required for boost payments"})
			return
		}
		issueID, err := primitive.ObjectIDFromHex(input.IssueID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
			return
		}
		payment.IssueID = &issueID

		if err := recordBoost(ctx, requester, &payment); err != nil {
			respondError(c, err)
			return
		}

	case models.PaymentSubscription:
		if _, err := paymentCollection().InsertOne(ctx, payment); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				c.JSON(http.StatusOK, gin.H{"message": "Payment already recorded", "transactionId": payment.TransactionID})
				return
			}
			respondError(c, lifecycle.ErrUpstreamUnavailable)
			return
		}
		// Idempotent: verifying an already-verified payer changes
		// nothing.
		_, err = userCollection().UpdateOne(ctx,
			bson.M{"email": requester.Email},
			bson.M{"$set": bson.M{"isVerified": true, "updatedAt": time.Now()}})
		if err != nil {
			respondError(c, lifecycle.ErrUpstreamUnavailable)
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":       "Payment recorded successfully",
		"insertedId":    payment.ID,
		"transactionId": payment.TransactionID,
	})
}

// recordBoost validates and applies a boost payment. The priority
// flip is committed first, with a filter pinning Normal priority, so
// two boosts racing on the same issue cannot both apply and a lost
// race never leaves a payment record behind for an issue that was
// boosted by someone else. The record lands after the flip; a replay
// of the same transaction is caught by the lookup in RecordPayment or
// by the unique index here.
func recordBoost(ctx context.Context, requester *models.User, payment *models.Payment) error {
	issue, err := findIssue(ctx, *payment.IssueID)
	if err != nil {
		return err
	}

	if err := lifecycle.CheckBoost(requester, issue, payment); err != nil {
		return err
	}

	now := time.Now()
	entry := models.TimelineEntry{
		Status: "Boosted",
		Text:   "Priority boosted to High",
		Date:   now,
		User:   requester.Name,
	}

	result, err := issueCollection().UpdateOne(ctx,
		bson.M{"_id": issue.ID, "priority": models.PriorityNormal},
		bson.M{
			"$set":  bson.M{"priority": models.PriorityHigh, "updatedAt": now},
			"$push": bson.M{"timeline": entry},
		})
	if err != nil {
		return lifecycle.ErrUpstreamUnavailable
	}
	if result.MatchedCount == 0 {
		// A concurrent boost won the race after our read; nothing was
		// recorded for this transaction.
		return lifecycle.ErrAlreadyBoosted
	}

	if _, err := paymentCollection().InsertOne(ctx, payment); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Replay that slipped past the lookup; already recorded.
			return nil
		}
		// The boost is already committed and accepted mutations are
		// not rolled back; the caller sees the store failure and the
		// retried confirmation will find the issue boosted.
		log.Println("Error recording boost payment:", err)
		return lifecycle.ErrUpstreamUnavailable
	}

	return nil
}

// GetPaymentsByEmail lists a user's payment history, newest first.
// Users see their own; admins see anyone's.
func GetPaymentsByEmail(c *gin.Context) {
	requester, err := currentPrincipal(c)
	if err != nil {
		respondError(c, err)
		return
	}

	email := c.Param("email")
	if requester.Email != email && requester.Role != models.RoleAdmin {
		respondError(c, lifecycle.ErrForbidden)
		return
	}

	ctx, cancel := dbCtx()
	defer cancel()

	cursor, err := paymentCollection().Find(ctx, bson.M{"userEmail": email},
		options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
	if err != nil {
		respondError(c, lifecycle.ErrUpstreamUnavailable)
		return
	}
	defer cursor.Close(ctx)

	results := make([]models.Payment, 0)
	if err := cursor.All(ctx, &results); err != nil {
		respondError(c, lifecycle.ErrUpstreamUnavailable)
		return
	}

	c.JSON(http.StatusOK, results)
}

// ListPayments returns every payment record. Admin only; backs the
// payments dashboard.
func ListPayments(c *gin.Context) {
	requester, err := currentPrincipal(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if requester.Role != models.RoleAdmin {
		respondError(c, lifecycle.ErrForbidden)
		return
	}

	ctx, cancel := dbCtx()
	defer cancel()

	cursor, err := paymentCollection().Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
	if err != nil {
		respondError(c, lifecycle.ErrUpstreamUnavailable)
		return
	}
	defer cursor.Close(ctx)

	results := make([]models.Payment, 0)
	if err := cursor.All(ctx, &results); err != nil {
		respondError(c, lifecycle.ErrUpstreamUnavailable)
		return
	}

	c.JSON(http.StatusOK, results)
}
