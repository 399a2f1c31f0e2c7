package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueCategory enum
type IssueCategory string

const (
	Roads          IssueCategory = "Roads"
	Lighting       IssueCategory = "Lighting"
	Water          IssueCategory = "Water"
	Waste          IssueCategory = "Waste"
	Electricity    IssueCategory = "Electricity"
	Safety         IssueCategory = "Safety"
	Infrastructure IssueCategory = "Infrastructure"
	Environment    IssueCategory = "Environment"
)

// ValidCategory reports whether s names a known category.
func ValidCategory(s string) bool {
	switch IssueCategory(s) {
	case Roads, Lighting, Water, Waste, Electricity, Safety, Infrastructure, Environment:
		return true
	}
	return false
}

// IssuePriority enum
type IssuePriority string

const (
	PriorityNormal IssuePriority = "Normal"
	PriorityHigh   IssuePriority = "High"
)

// AssignedStaff is the staff member embedded on an issue once an
// admin assigns it. Nil until then.
type AssignedStaff struct {
	ID    primitive.ObjectID `bson:"id" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email" json:"email"`
	Photo string             `bson:"photo,omitempty" json:"photo,omitempty"`
}

// TimelineEntry is one immutable line in an issue's history: who did
// what, when. Status carries the resulting status, or the "Boosted"
// tag for priority boosts.
type TimelineEntry struct {
	Status string    `bson:"status" json:"status"`
	Text   string    `bson:"text" json:"text"`
	Date   time.Time `bson:"date" json:"date"`
	User   string    `bson:"user" json:"user"`
}

// Issue represents a civic issue reported by a citizen. Reporter
// fields are fixed at creation. Upvotes are derived from the
// UpvotedBy set, never stored as an independent counter.
type Issue struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title" json:"title"`
	Description   string             `bson:"description" json:"description"`
	Category      IssueCategory      `bson:"category" json:"category"`
	Location      string             `bson:"location" json:"location"`
	Image         string             `bson:"image,omitempty" json:"image,omitempty"`
	Status        string             `bson:"status" json:"status"`
	Priority      IssuePriority      `bson:"priority" json:"priority"`
	ReporterName  string             `bson:"reporterName" json:"reporterName"`
	ReporterEmail string             `bson:"reporterEmail" json:"reporterEmail"`
	ReporterPhoto string             `bson:"reporterPhoto,omitempty" json:"reporterPhoto,omitempty"`
	AssignedStaff *AssignedStaff     `bson:"assignedStaff,omitempty" json:"assignedStaff,omitempty"`
	UpvotedBy     []string           `bson:"upvotedBy" json:"upvotedBy"`
	Timeline      []TimelineEntry    `bson:"timeline" json:"timeline"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Upvotes returns the vote count. Deriving it from the set keeps the
// count and the set from drifting apart under retries.
func (i *Issue) Upvotes() int {
	return len(i.UpvotedBy)
}

// HasUpvoted reports whether email already appears in UpvotedBy.
func (i *Issue) HasUpvoted(email string) bool {
	for _, e := range i.UpvotedBy {
		if e == email {
			return true
		}
	}
	return false
}
