package models

// Response model
type Response struct {
	OK      bool        `json:"ok"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// CreatedResponse acknowledges a created record by id.
type CreatedResponse struct {
	OK bool   `json:"ok"`
	ID string `json:"id"`
}

// AuthResponse is returned by login, registration and password change.
type AuthResponse struct {
	OK   bool       `json:"ok"`
	User PublicUser `json:"user"`
}

// SessionCheckResponse is returned by GET /api/auth/session.
type SessionCheckResponse struct {
	Authenticated bool        `json:"authenticated"`
	User          *PublicUser `json:"user,omitempty"`
}

// LoginRequest model
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=128"`
}

// RegisterRequest model
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,password"`
	FirstName string `json:"firstName" validate:"max=60"`
	LastName  string `json:"lastName" validate:"max=60"`
	Phone     string `json:"phone" validate:"omitempty,max=20"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,password"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,max=60"`
	LastName  *string `json:"lastName" validate:"omitempty,max=60"`
	Phone     *string `json:"phone" validate:"omitempty,max=20"`
	AvatarURL *string `json:"avatarUrl" validate:"omitempty,url"`
}

// ProvisionUserRequest is the admin body for inviting staff or clients.
type ProvisionUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"firstName" validate:"max=60"`
	LastName  string `json:"lastName" validate:"max=60"`
	Role      string `json:"role" validate:"required,role"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,status"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,role"`
}

// CreateNotificationRequest is the body of POST /api/notifications.
type CreateNotificationRequest struct {
	Type      string `json:"type" validate:"required,max=64"`
	Title     string `json:"title" validate:"required,max=200"`
	Message   string `json:"message" validate:"required,max=2000"`
	UserID    string `json:"userId"`
	Role      string `json:"role" validate:"omitempty,role"`
	BookingID string `json:"bookingId"`
	ActionURL string `json:"actionUrl" validate:"max=500"`
	Email     bool   `json:"email"`
	SMS       bool   `json:"sms"`
}
