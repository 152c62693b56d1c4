package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Car is a rentable vehicle. Archived cars stay in the store for booking
// history but are hidden from the catalogue.
type Car struct {
	ID           primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Make         string             `json:"make" bson:"make"`
	Model        string             `json:"model" bson:"model"`
	Year         int                `json:"year" bson:"year"`
	CategoryID   primitive.ObjectID `json:"categoryId" bson:"categoryId"`
	PricePerDay  float64            `json:"pricePerDay" bson:"pricePerDay"`
	Seats        int                `json:"seats" bson:"seats"`
	Transmission string             `json:"transmission" bson:"transmission"`
	Fuel         string             `json:"fuel" bson:"fuel"`
	ImageURL     string             `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	Description  string             `json:"description,omitempty" bson:"description,omitempty"`
	Available    bool               `json:"available" bson:"available"`
	Archived     bool               `json:"-" bson:"archived"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Rentable reports whether new bookings may be placed on the car.
func (c *Car) Rentable() bool {
	return c.Available && !c.Archived
}

// CarRequest is the body for creating or replacing a car.
type CarRequest struct {
	Make         string  `json:"make" validate:"required,max=60"`
	Model        string  `json:"model" validate:"required,max=60"`
	Year         int     `json:"year" validate:"required,min=1990"`
	CategoryID   string  `json:"categoryId" validate:"required"`
	PricePerDay  float64 `json:"pricePerDay" validate:"required,gt=0"`
	Seats        int     `json:"seats" validate:"required,min=1,max=9"`
	Transmission string  `json:"transmission" validate:"required,oneof=manual automatic"`
	Fuel         string  `json:"fuel" validate:"required,oneof=petrol diesel hybrid electric"`
	ImageURL     string  `json:"imageUrl" validate:"omitempty,url"`
	Description  string  `json:"description" validate:"max=2000"`
	Available    *bool   `json:"available"`
}

// Car sort orders accepted by the catalogue.
const (
	CarSortPriceAsc  = "price_asc"
	CarSortPriceDesc = "price_desc"
	CarSortNewest    = "newest"
)

// CarFilter narrows the public catalogue.
type CarFilter struct {
	CategoryID      *primitive.ObjectID
	AvailableOnly   bool
	Query           string
	Sort            string
	IncludeArchived bool
}
