package models

import "encoding/json"

// Identity is the verified caller attached to a request. Fields are unexported
// so the only way to build one is NewIdentity, which normalizes email, role and
// status.
type Identity struct {
	id        string
	email     string
	role      Role
	status    Status
	firstName string
	lastName  string
}

// NewIdentity builds a normalized identity.
func NewIdentity(id, email, role, status, firstName, lastName string) Identity {
	return Identity{
		id:        id,
		email:     NormalizeEmail(email),
		role:      NormalizeRole(role),
		status:    NormalizeStatus(status),
		firstName: firstName,
		lastName:  lastName,
	}
}

func (i Identity) ID() string        { return i.id }
func (i Identity) Email() string     { return i.email }
func (i Identity) Role() Role        { return i.role }
func (i Identity) Status() Status    { return i.status }
func (i Identity) FirstName() string { return i.firstName }
func (i Identity) LastName() string  { return i.lastName }

// IsActive reports whether the account may use authenticated routes.
func (i Identity) IsActive() bool { return i.status == StatusActive }

// HasRole reports whether the identity's role is one of allowed. Both sides are
// normalized so callers may pass raw strings converted to Role.
func (i Identity) HasRole(allowed ...Role) bool {
	for _, r := range allowed {
		if NormalizeRole(string(r)) == i.role {
			return true
		}
	}
	return false
}

// Public returns the JSON shape used by auth endpoints.
func (i Identity) Public() PublicUser {
	return PublicUser{
		ID:        i.id,
		Email:     i.email,
		Role:      i.role,
		Status:    i.status,
		FirstName: i.firstName,
		LastName:  i.lastName,
	}
}

// MarshalJSON renders the identity as its public shape.
func (i Identity) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.Public())
}
