package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookingStatus is the lifecycle state of a rental.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// bookingTransitions lists the statuses reachable from each state.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCompleted, BookingCancelled},
}

// CanTransition reports whether a booking may move from one status to another.
func (s BookingStatus) CanTransition(to BookingStatus) bool {
	for _, next := range bookingTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Blocking reports whether a booking in this status reserves the car.
func (s BookingStatus) Blocking() bool {
	return s == BookingPending || s == BookingConfirmed
}

// Booking model. Dates are UTC midnights; EndDate is exclusive.
type Booking struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID     primitive.ObjectID `json:"userId" bson:"userId"`
	CarID      primitive.ObjectID `json:"carId" bson:"carId"`
	StartDate  time.Time          `json:"startDate" bson:"startDate"`
	EndDate    time.Time          `json:"endDate" bson:"endDate"`
	Days       int                `json:"days" bson:"days"`
	TotalPrice float64            `json:"totalPrice" bson:"totalPrice"`
	Status     BookingStatus      `json:"status" bson:"status"`
	Notes      string             `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// BookingRequest model
type BookingRequest struct {
	CarID     string `json:"carId" validate:"required"`
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
	Notes     string `json:"notes" validate:"max=1000"`
}

// BookingStatusUpdateRequest model for updating booking status
type BookingStatusUpdateRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed cancelled completed"`
}
