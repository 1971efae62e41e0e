package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Authority is a government/utility organization eligible to receive
// escalation notifications. Read-only from the escalation workflow; records
// are maintained through the authority admin endpoints.
type Authority struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name              string             `bson:"name" json:"name"`
	DepartmentType    string             `bson:"departmentType" json:"departmentType"`
	City              string             `bson:"city" json:"city"`
	State             string             `bson:"state" json:"state"`
	HandledCategories []string           `bson:"handledCategories" json:"handledCategories"`
	ContactEmail      string             `bson:"contactEmail" json:"contactEmail"`
	NotifyByEmail     bool               `bson:"notifyByEmail" json:"notifyByEmail"`
	Active            bool               `bson:"active" json:"active"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// EnsureAuthorityIndex creates the jurisdiction index the resolver queries by
func EnsureAuthorityIndex(collection *mongo.Collection) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "city", Value: 1}, {Key: "state", Value: 1}},
	}

	_, err := collection.Indexes().CreateOne(ctx, indexModel)
	return err
}

// Jurisdiction department types used by the category fallback mapping.
const (
	DeptRoad        = "road_department"
	DeptUtilities   = "utilities"
	DeptSanitation  = "sanitation"
	DeptPublicWorks = "public_works"
)

// IsValidDepartment reports whether s is a known department type.
func IsValidDepartment(s string) bool {
	switch s {
	case DeptRoad, DeptUtilities, DeptSanitation, DeptPublicWorks:
		return true
	}
	return false
}
