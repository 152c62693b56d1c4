package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/HSouheill/carrental_backend/apperrors"
	"github.com/HSouheill/carrental_backend/models"
	"github.com/HSouheill/carrental_backend/repositories"
	"github.com/HSouheill/carrental_backend/utils"
)

const adminUserListLimit = 500

// UserService covers the account area and admin client management.
type UserService struct {
	users         UserStore
	sessions      *SessionService
	passwords     *PasswordService
	notifications *NotificationService
	now           func() time.Time
	logger        *zap.Logger
}

func NewUserService(users UserStore, sessions *SessionService, passwords *PasswordService, notifications *NotificationService, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		users:         users,
		sessions:      sessions,
		passwords:     passwords,
		notifications: notifications,
		now:           time.Now,
		logger:        logger,
	}
}

func (s *UserService) Me(ctx context.Context, identity models.Identity) (*models.User, error) {
	userID, err := userObjectID(identity)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "User not found")
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, identity models.Identity, req models.UpdateProfileRequest) (*models.User, error) {
	userID, err := userObjectID(identity)
	if err != nil {
		return nil, err
	}

	update := models.ProfileUpdate{AvatarURL: req.AvatarURL}
	if req.FirstName != nil {
		v := utils.SanitizeInput(*req.FirstName)
		update.FirstName = &v
	}
	if req.LastName != nil {
		v := utils.SanitizeInput(*req.LastName)
		update.LastName = &v
	}
	if req.Phone != nil {
		phone, err := utils.SanitizePhone(*req.Phone)
		if err != nil {
			return nil, apperrors.Validation(err.Error())
		}
		update.Phone = &phone
	}

	user, err := s.users.UpdateProfile(ctx, userID, update)
	if err != nil {
		return nil, storeErr(err, "User not found")
	}
	return user, nil
}

// Sessions lists the caller's live sessions.
func (s *UserService) Sessions(ctx context.Context, identity models.Identity, currentToken string) ([]models.SessionInfo, error) {
	userID, err := userObjectID(identity)
	if err != nil {
		return nil, err
	}
	return s.sessions.List(ctx, userID, currentToken)
}

// List returns clients and staff for the admin dashboard.
func (s *UserService) List(ctx context.Context, role, status, query string) ([]models.User, error) {
	filter := models.UserFilter{Query: strings.TrimSpace(query), Limit: adminUserListLimit}
	if role != "" {
		r, ok := models.ParseRole(role)
		if !ok {
			return nil, apperrors.Validation("role is invalid")
		}
		filter.Role = r
	}
	if status != "" {
		st, ok := models.ParseStatus(status)
		if !ok {
			return nil, apperrors.Validation("status is invalid")
		}
		filter.Status = st
	}
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return users, nil
}

// Provision creates an invited account and emails a link to set a password.
// The account cannot sign in until that link is used.
func (s *UserService) Provision(ctx context.Context, req models.ProvisionUserRequest) (*models.User, error) {
	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return nil, apperrors.Validation("email is invalid")
	}
	role, ok := models.ParseRole(req.Role)
	if !ok {
		return nil, apperrors.Validation("role is invalid")
	}

	now := s.now().UTC()
	user := &models.User{
		Email:     email,
		FirstName: utils.SanitizeInput(req.FirstName),
		LastName:  utils.SanitizeInput(req.LastName),
		Role:      role,
		Status:    models.StatusInvited,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.ErrEmailTaken
		}
		return nil, apperrors.Internal(err)
	}

	if err := s.passwords.Invite(ctx, user); err != nil {
		s.logger.Error("Failed to send invitation", zap.String("user_id", user.ID.Hex()), zap.Error(err))
	}
	return user, nil
}

// UpdateStatus changes an account's status. Leaving active revokes every
// session of the account. Managers cannot change admins and nobody can change
// their own status.
func (s *UserService) UpdateStatus(ctx context.Context, actor models.Identity, id, status string) (*models.User, error) {
	target, err := s.loadTarget(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	st, ok := models.ParseStatus(status)
	if !ok {
		return nil, apperrors.Validation("status is invalid")
	}

	if err := s.users.UpdateStatus(ctx, target.ID, st); err != nil {
		return nil, storeErr(err, "User not found")
	}
	if st != models.StatusActive {
		n, err := s.sessions.RevokeAll(ctx, target.ID)
		if err != nil {
			return nil, err
		}
		s.logger.Info("Account deactivated",
			zap.String("user_id", target.ID.Hex()),
			zap.String("status", string(st)),
			zap.Int64("sessions_revoked", n),
			zap.String("by", actor.ID()),
		)
	}

	s.notifications.Notify(ctx, NotificationInput{
		UserID:  &target.ID,
		Type:    models.NotificationAccountStatus,
		Title:   "Account status changed",
		Message: "Your account is now " + string(st) + ".",
	})

	target.Status = st
	return target, nil
}

// UpdateRole changes an account's role. Admins cannot demote themselves.
func (s *UserService) UpdateRole(ctx context.Context, actor models.Identity, id, role string) (*models.User, error) {
	r, ok := models.ParseRole(role)
	if !ok {
		return nil, apperrors.Validation("role is invalid")
	}
	userID, err := parseID(id, "User not found")
	if err != nil {
		return nil, err
	}
	if userID.Hex() == actor.ID() && r != actor.Role() {
		return nil, apperrors.Conflict("You cannot change your own role")
	}

	target, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "User not found")
	}
	if err := s.users.UpdateRole(ctx, target.ID, r); err != nil {
		return nil, storeErr(err, "User not found")
	}
	target.Role = r
	return target, nil
}

func (s *UserService) loadTarget(ctx context.Context, actor models.Identity, id string) (*models.User, error) {
	userID, err := parseID(id, "User not found")
	if err != nil {
		return nil, err
	}
	if userID.Hex() == actor.ID() {
		return nil, apperrors.Conflict("You cannot change your own status")
	}
	target, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "User not found")
	}
	if target.Role == models.RoleAdmin && !actor.HasRole(models.RoleAdmin) {
		return nil, apperrors.ErrForbiddenRole
	}
	return target, nil
}
