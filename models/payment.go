package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PaymentType enum
type PaymentType string

const (
	PaymentSubscription PaymentType = "subscription"
	PaymentBoost        PaymentType = "boost"
)

// Payment records one completed transaction from the payment
// processor. Records are immutable and never deleted.
type Payment struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserEmail     string              `bson:"userEmail" json:"userEmail"`
	UserName      string              `bson:"userName" json:"userName"`
	TransactionID string              `bson:"transactionId" json:"transactionId"`
	Amount        int64               `bson:"amount" json:"amount"`
	Type          PaymentType         `bson:"type" json:"type"`
	IssueID       *primitive.ObjectID `bson:"issueId,omitempty" json:"issueId,omitempty"`
	Status        string              `bson:"status" json:"status"`
	Date          time.Time           `bson:"date" json:"date"`
}

// EnsurePaymentIndex creates a unique index on transactionId. The
// processor delivers confirmations at-least-once; the index is what
// makes a replayed confirmation a no-op instead of a double-apply.
func EnsurePaymentIndex(collection *mongo.Collection) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "transactionId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}

	_, err := collection.Indexes().CreateOne(ctx, indexModel)
	return err
}
