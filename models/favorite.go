package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Favorite links a customer to a saved car. (userId, carId) is unique.
type Favorite struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"userId" bson:"userId"`
	CarID     primitive.ObjectID `json:"carId" bson:"carId"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

type FavoriteRequest struct {
	CarID string `json:"carId" validate:"required"`
}
