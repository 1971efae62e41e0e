package escalation

import (
	"context"
	"time"

	"civicvoice-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoAuthorityFinder queries the authorities collection.
type MongoAuthorityFinder struct {
	collection *mongo.Collection
}

// NewMongoAuthorityFinder wraps the given authorities collection.
func NewMongoAuthorityFinder(collection *mongo.Collection) *MongoAuthorityFinder {
	return &MongoAuthorityFinder{collection: collection}
}

// notifiableFilter narrows any authority query to records the dispatcher
// can actually reach.
func notifiableFilter(city, state string) bson.M {
	return bson.M{
		"city":          city,
		"state":         state,
		"active":        true,
		"notifyByEmail": true,
		"contactEmail":  bson.M{"$ne": ""},
	}
}

// ByJurisdictionAndCategory returns jurisdiction authorities whose handled
// categories match the issue category. Synonym matching cannot be expressed
// as a Mongo filter, so candidates are fetched by jurisdiction and matched
// here.
func (f *MongoAuthorityFinder) ByJurisdictionAndCategory(ctx context.Context, city, state, category string) ([]models.Authority, error) {
	candidates, err := f.fetch(ctx, notifiableFilter(city, state))
	if err != nil {
		return nil, err
	}

	matched := make([]models.Authority, 0, len(candidates))
	for _, a := range candidates {
		for _, handled := range a.HandledCategories {
			if Match(handled, category) {
				matched = append(matched, a)
				break
			}
		}
	}
	return matched, nil
}

// ByJurisdictionAndDepartment returns jurisdiction authorities of the given
// department type.
func (f *MongoAuthorityFinder) ByJurisdictionAndDepartment(ctx context.Context, city, state, department string) ([]models.Authority, error) {
	filter := notifiableFilter(city, state)
	filter["departmentType"] = department
	return f.fetch(ctx, filter)
}

// ByJurisdiction returns every notifiable authority in the jurisdiction.
func (f *MongoAuthorityFinder) ByJurisdiction(ctx context.Context, city, state string) ([]models.Authority, error) {
	return f.fetch(ctx, notifiableFilter(city, state))
}

func (f *MongoAuthorityFinder) fetch(ctx context.Context, filter bson.M) ([]models.Authority, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := f.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var authorities []models.Authority
	if err := cursor.All(ctx, &authorities); err != nil {
		return nil, err
	}
	return authorities, nil
}
