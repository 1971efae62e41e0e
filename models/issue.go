package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueCategory enum
type IssueCategory string

const (
	Potholes        IssueCategory = "potholes"
	BrokenLights    IssueCategory = "broken_street_lights"
	Garbage         IssueCategory = "garbage"
	WaterLogging    IssueCategory = "water_logging"
	DamagedRoads    IssueCategory = "damaged_roads"
	BrokenSidewalks IssueCategory = "broken_sidewalks"
	Vandalism       IssueCategory = "vandalism"
	OtherCategory   IssueCategory = "other"
)

// ValidCategories lists every accepted issue category.
var ValidCategories = []IssueCategory{
	Potholes, BrokenLights, Garbage, WaterLogging,
	DamagedRoads, BrokenSidewalks, Vandalism, OtherCategory,
}

// IsValidCategory reports whether s is one of the accepted categories.
func IsValidCategory(s string) bool {
	for _, c := range ValidCategories {
		if string(c) == s {
			return true
		}
	}
	return false
}

// IssueSeverity enum
type IssueSeverity string

const (
	SeverityLow    IssueSeverity = "low"
	SeverityMedium IssueSeverity = "medium"
	SeverityHigh   IssueSeverity = "high"
)

// IsValidSeverity reports whether s is one of the accepted severities.
func IsValidSeverity(s string) bool {
	switch IssueSeverity(s) {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// IssueStatus enum
type IssueStatus string

const (
	StatusReported   IssueStatus = "reported"
	StatusVerified   IssueStatus = "verified"
	StatusNotified   IssueStatus = "notified"
	StatusInProgress IssueStatus = "in_progress"
	StatusResolved   IssueStatus = "resolved"
	StatusRejected   IssueStatus = "rejected"
)

// IsValidStatus reports whether s is one of the accepted statuses.
func IsValidStatus(s string) bool {
	switch IssueStatus(s) {
	case StatusReported, StatusVerified, StatusNotified,
		StatusInProgress, StatusResolved, StatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (s IssueStatus) IsTerminal() bool {
	return s == StatusResolved || s == StatusRejected
}

// Location is the geotagged place an issue was reported at
type Location struct {
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
	Address   string  `bson:"address,omitempty" json:"address,omitempty"`
	Area      string  `bson:"area,omitempty" json:"area,omitempty"`
	City      string  `bson:"city" json:"city"`
	State     string  `bson:"state" json:"state"`
	Country   string  `bson:"country,omitempty" json:"country,omitempty"`
}

// Issue represents a civic issue reported by a user.
// The upvotes/downvotes/shares counters are denormalized aggregates of the
// corresponding identity sets and must only be written in the same
// transaction as the set they mirror.
type Issue struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title" json:"title"`
	Description   string             `bson:"description" json:"description"`
	Category      IssueCategory      `bson:"category" json:"category"`
	Severity      IssueSeverity      `bson:"severity" json:"severity"`
	Images        []string           `bson:"images,omitempty" json:"images,omitempty"`
	Location      Location           `bson:"location" json:"location"`
	Status        IssueStatus        `bson:"status" json:"status"`
	ReportedBy    primitive.ObjectID `bson:"reportedBy" json:"reportedBy"`
	Upvotes       int                `bson:"upvotes" json:"upvotes"`
	Downvotes     int                `bson:"downvotes" json:"downvotes"`
	Shares        int                `bson:"shares" json:"shares"`
	CommentsCount int                `bson:"commentsCount" json:"commentsCount"`
	UpvotedBy     []string           `bson:"upvotedBy,omitempty" json:"-"`
	DownvotedBy   []string           `bson:"downvotedBy,omitempty" json:"-"`
	SharedBy      []string           `bson:"sharedBy,omitempty" json:"-"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
	NotifiedAt    *time.Time         `bson:"notifiedAt,omitempty" json:"notifiedAt,omitempty"`
	ResolvedAt    *time.Time         `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
}

// HasUpvoted reports whether the given user id is in the upvote set.
func (i *Issue) HasUpvoted(userID string) bool {
	return containsID(i.UpvotedBy, userID)
}

// HasDownvoted reports whether the given user id is in the downvote set.
func (i *Issue) HasDownvoted(userID string) bool {
	return containsID(i.DownvotedBy, userID)
}

// HasShared reports whether the given user id is in the share set.
func (i *Issue) HasShared(userID string) bool {
	return containsID(i.SharedBy, userID)
}

func containsID(set []string, id string) bool {
	for _, s := range set {
		if s == id {
			return true
		}
	}
	return false
}

// RemoveID returns the set with the given id removed.
func RemoveID(set []string, id string) []string {
	out := make([]string, 0, len(set))
	for _, s := range set {
		if s != id {
			out = append(out, s)
		}
	}
	return out
}
