package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Email         string             `bson:"email" json:"email"`
	Password      string             `bson:"password,omitempty" json:"-"`
	Points        int                `bson:"points" json:"points"`
	ReportsCount  int                `bson:"reportsCount" json:"reportsCount"`
	ResolvedCount int                `bson:"resolvedCount" json:"resolvedCount"`
	Reputation    int                `bson:"reputation" json:"reputation"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) HashPassword() error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

func (u *User) ComparePassword(candidate string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(candidate))
	return err == nil
}

// DefaultUser synthesizes a zero-point user record for the given id.
// Vote transactions fall back to this when the referenced user document is
// missing, rather than failing the vote.
func DefaultUser(id primitive.ObjectID) User {
	now := time.Now()
	return User{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
