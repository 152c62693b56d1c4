package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/HSouheill/carrental_backend/apperrors"
	"github.com/HSouheill/carrental_backend/models"
	"github.com/HSouheill/carrental_backend/repositories"
	"github.com/HSouheill/carrental_backend/utils"
)

// AuthService handles registration, login and password changes.
type AuthService struct {
	users         UserStore
	sessions      *SessionService
	notifications *NotificationService
	hasher        *utils.PasswordHasher
	// dummyHash is compared against when the email is unknown so both
	// failure paths cost one bcrypt comparison.
	dummyHash string
	now       func() time.Time
	logger    *zap.Logger
}

func NewAuthService(users UserStore, sessions *SessionService, notifications *NotificationService, hasher *utils.PasswordHasher, logger *zap.Logger) (*AuthService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dummy, err := hasher.Hash("not-a-real-password-1A")
	if err != nil {
		return nil, err
	}
	return &AuthService{
		users:         users,
		sessions:      sessions,
		notifications: notifications,
		hasher:        hasher,
		dummyHash:     dummy,
		now:           time.Now,
		logger:        logger,
	}, nil
}

// Register creates an active customer account and signs it in.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest, meta models.ClientMeta) (*models.User, *IssuedSession, error) {
	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return nil, nil, apperrors.Validation("email is invalid")
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return nil, nil, apperrors.Validation(err.Error())
	}
	phone, err := utils.SanitizePhone(req.Phone)
	if err != nil {
		return nil, nil, apperrors.Validation(err.Error())
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, nil, apperrors.Internal(err)
	}

	now := s.now().UTC()
	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    utils.SanitizeInput(req.FirstName),
		LastName:     utils.SanitizeInput(req.LastName),
		Phone:        phone,
		Role:         models.RoleCustomer,
		Status:       models.StatusActive,
		LastLoginAt:  &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, nil, apperrors.ErrEmailTaken
		}
		return nil, nil, apperrors.Internal(err)
	}

	session, err := s.sessions.Issue(ctx, user, meta)
	if err != nil {
		// Drop the account so the registration can be retried.
		if delErr := s.users.Delete(context.WithoutCancel(ctx), user.ID); delErr != nil {
			s.logger.Error("Failed to roll back registration",
				zap.String("user_id", user.ID.Hex()),
				zap.Error(delErr),
			)
		}
		return nil, nil, err
	}
	s.logger.Info("User registered", zap.String("user_id", user.ID.Hex()))
	return user, session, nil
}

// Login checks credentials and issues a session. Unknown emails and wrong
// passwords share one error. The password is checked before the status so an
// inactive account is only revealed to someone who knows its password.
func (s *AuthService) Login(ctx context.Context, email, password string, meta models.ClientMeta) (*models.User, *IssuedSession, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			_ = s.hasher.Check(password, s.dummyHash)
			return nil, nil, apperrors.ErrInvalidCredentials
		}
		return nil, nil, apperrors.Internal(err)
	}

	if user.PasswordHash == "" || s.hasher.Check(password, user.PasswordHash) != nil {
		return nil, nil, apperrors.ErrInvalidCredentials
	}
	if user.Status != models.StatusActive {
		s.logger.Info("Login refused for inactive account",
			zap.String("user_id", user.ID.Hex()),
			zap.String("status", string(user.Status)),
		)
		return nil, nil, apperrors.ErrAccountInactive
	}

	session, err := s.sessions.Issue(ctx, user, meta)
	if err != nil {
		return nil, nil, err
	}
	if err := s.users.TouchLogin(ctx, user.ID, s.now().UTC()); err != nil {
		s.logger.Warn("Failed to record login time", zap.String("user_id", user.ID.Hex()), zap.Error(err))
	}
	return user, session, nil
}

// Logout ends the session behind token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}

// LogoutAll ends every session of the identity.
func (s *AuthService) LogoutAll(ctx context.Context, identity models.Identity) (int64, error) {
	userID, err := userObjectID(identity)
	if err != nil {
		return 0, err
	}
	return s.sessions.RevokeAll(ctx, userID)
}

// ChangePassword verifies the current password, stores the new one, revokes
// every session and signs the caller back in with a fresh one.
func (s *AuthService) ChangePassword(ctx context.Context, identity models.Identity, current, next string, meta models.ClientMeta) (*models.User, *IssuedSession, error) {
	userID, err := userObjectID(identity)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, nil, storeErr(err, "User not found")
	}
	if s.hasher.Check(current, user.PasswordHash) != nil {
		return nil, nil, apperrors.ErrInvalidCredentials
	}
	if err := utils.ValidatePassword(next); err != nil {
		return nil, nil, apperrors.Validation(err.Error())
	}
	if current == next {
		return nil, nil, apperrors.Validation("new password must differ from the current one")
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return nil, nil, apperrors.Internal(err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return nil, nil, storeErr(err, "User not found")
	}
	if _, err := s.sessions.RevokeAll(ctx, user.ID); err != nil {
		return nil, nil, err
	}

	session, err := s.sessions.Issue(ctx, user, meta)
	if err != nil {
		return nil, nil, err
	}

	if s.notifications != nil {
		s.notifications.Notify(ctx, NotificationInput{
			UserID:  &user.ID,
			Type:    models.NotificationPasswordChanged,
			Title:   "Password changed",
			Message: "Your password was changed and other sessions were signed out.",
		})
	}
	return user, session, nil
}
