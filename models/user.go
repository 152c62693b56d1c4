// models/user.go
package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the authorization tier of an account.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// Status is the lifecycle flag of an account. Only active accounts authenticate.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusInvited   Status = "invited"
)

// StaffRoles is the default allow-list for internal dashboard routes.
var StaffRoles = []Role{RoleAdmin, RoleManager, RoleEmployee}

// AllRoles lists every known role.
var AllRoles = []Role{RoleCustomer, RoleEmployee, RoleManager, RoleAdmin}

// NormalizeRole lowercases and trims a stored or requested role. Legacy records
// carry mixed case ("Admin"), so every comparison goes through here.
func NormalizeRole(s string) Role {
	return Role(strings.ToLower(strings.TrimSpace(s)))
}

// NormalizeStatus is the Status counterpart of NormalizeRole.
func NormalizeStatus(s string) Status {
	return Status(strings.ToLower(strings.TrimSpace(s)))
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := NormalizeRole(s)
	for _, known := range AllRoles {
		if r == known {
			return r, true
		}
	}
	return r, false
}

// ParseStatus normalizes s and reports whether it names a known status.
func ParseStatus(s string) (Status, bool) {
	st := NormalizeStatus(s)
	switch st {
	case StatusActive, StatusSuspended, StatusInvited:
		return st, true
	}
	return st, false
}

// User model
type User struct {
	ID           primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Email        string             `json:"email" bson:"email"`
	PasswordHash string             `json:"-" bson:"passwordHash"`
	FirstName    string             `json:"firstName" bson:"firstName"`
	LastName     string             `json:"lastName" bson:"lastName"`
	Phone        string             `json:"phone,omitempty" bson:"phone,omitempty"`
	AvatarURL    string             `json:"avatarUrl,omitempty" bson:"avatarUrl,omitempty"`
	Role         Role               `json:"role" bson:"role"`
	Status       Status             `json:"status" bson:"status"`
	LastLoginAt  *time.Time         `json:"lastLoginAt,omitempty" bson:"lastLoginAt,omitempty"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Normalize brings email, role and status to their canonical form before the
// record is persisted.
func (u *User) Normalize() {
	u.Email = NormalizeEmail(u.Email)
	u.Role = NormalizeRole(string(u.Role))
	u.Status = NormalizeStatus(string(u.Status))
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Identity returns the normalized identity for this record.
func (u *User) Identity() Identity {
	return NewIdentity(u.ID.Hex(), u.Email, string(u.Role), string(u.Status), u.FirstName, u.LastName)
}

// PublicUser is the user shape returned by auth endpoints.
type PublicUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	Status    Status `json:"status"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// ProfileUpdate carries the mutable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Phone     *string
	AvatarURL *string
}

// UserFilter narrows admin client listings.
type UserFilter struct {
	Role   Role
	Status Status
	Query  string
	Limit  int64
}
