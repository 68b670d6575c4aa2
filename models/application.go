package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ApplicationPending  = "pending"
	ApplicationApproved = "approved"
)

// DecoratorApplication is a user's request to become a service provider.
// At most one application exists per email.
type DecoratorApplication struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name       string             `json:"name" bson:"name"`
	Email      string             `json:"email" bson:"email"`
	Phone      string             `json:"phone" bson:"phone"`
	NID        string             `json:"nid" bson:"nid"`
	Experience string             `json:"experience" bson:"experience"`
	Status     string             `json:"status" bson:"status"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
}
