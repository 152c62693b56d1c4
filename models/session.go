package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session is a server-side login session. Only the SHA-256 digest of the
// bearer token is stored.
type Session struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"userId" bson:"userId"`
	TokenHash string             `json:"-" bson:"tokenHash"`
	IPAddress string             `json:"ipAddress,omitempty" bson:"ipAddress,omitempty"`
	UserAgent string             `json:"userAgent,omitempty" bson:"userAgent,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	ExpiresAt time.Time          `json:"expiresAt" bson:"expiresAt"`
}

// Valid reports whether the session is still within its absolute expiry.
func (s *Session) Valid(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// ClientMeta is the optional request metadata recorded with a session.
type ClientMeta struct {
	IPAddress string
	UserAgent string
}

// SessionInfo is the session listing shape for the account area.
type SessionInfo struct {
	ID        string    `json:"id"`
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	Current   bool      `json:"current"`
}
