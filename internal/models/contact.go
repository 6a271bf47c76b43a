package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Contact is an entry in a user's address book. LinkedUser is resolved by
// matching email/phone against registered users at creation time; it stays
// empty for contacts that are not on the platform yet.
type Contact struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Owner       string             `bson:"owner" json:"owner"`
	DisplayName string             `bson:"display_name,omitempty" json:"display_name,omitempty"`
	LinkedUser  string             `bson:"linked_user,omitempty" json:"linked_user,omitempty"`
	Email       string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone       string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Registered  bool               `bson:"registered" json:"registered"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
