package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types raised by internal actions.
const (
	NotificationBookingCreated  = "booking_created"
	NotificationPasswordChanged = "password_changed"
	NotificationPasswordReset   = "password_reset"
	NotificationAccountStatus   = "account_status"
	NotificationAdminBroadcast  = "broadcast"
	notificationBookingPrefix   = "booking_"
)

// BookingNotificationType returns the notification type for a booking status
// change, e.g. "booking_confirmed".
func BookingNotificationType(status BookingStatus) string {
	return notificationBookingPrefix + string(status)
}

// Delivery records which channels a notification reached. None is guaranteed.
type Delivery struct {
	Realtime bool `json:"realtime" bson:"realtime"`
	Email    bool `json:"email" bson:"email"`
	SMS      bool `json:"sms" bson:"sms"`
}

// Notification model. A record is targeted at a user, a role, or both.
type Notification struct {
	ID        primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    *primitive.ObjectID `json:"userId,omitempty" bson:"userId,omitempty"`
	Role      Role                `json:"role,omitempty" bson:"role,omitempty"`
	BookingID *primitive.ObjectID `json:"bookingId,omitempty" bson:"bookingId,omitempty"`
	Type      string              `json:"type" bson:"type"`
	Title     string              `json:"title" bson:"title"`
	Message   string              `json:"message" bson:"message"`
	ActionURL string              `json:"actionUrl,omitempty" bson:"actionUrl,omitempty"`
	Read      bool                `json:"read" bson:"read"`
	ReadAt    *time.Time          `json:"readAt" bson:"readAt"`
	Delivery  Delivery            `json:"delivery" bson:"delivery"`
	CreatedAt time.Time           `json:"createdAt" bson:"createdAt"`
}

// VisibleTo reports whether the notification targets the given identity,
// either by user id or by role.
func (n *Notification) VisibleTo(id Identity) bool {
	if n.UserID != nil && n.UserID.Hex() == id.ID() {
		return true
	}
	return n.Role != "" && NormalizeRole(string(n.Role)) == id.Role()
}

// Delivery channel names used by the store.
const (
	ChannelRealtime = "realtime"
	ChannelEmail    = "email"
	ChannelSMS      = "sms"
)
