package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/HSouheill/carrental_backend/apperrors"
	"github.com/HSouheill/carrental_backend/models"
	"github.com/HSouheill/carrental_backend/repositories"
	"github.com/HSouheill/carrental_backend/utils"
)

// ForgotPasswordMessage is returned for every forgot-password request.
const ForgotPasswordMessage = "If an account exists for this email, a reset link has been sent"

// PasswordService handles password reset links and staff invitations. A reset
// token is a signed JWT whose id must still be present in the token store, so
// each link works once.
type PasswordService struct {
	users         UserStore
	sessions      *SessionService
	tokens        ResetTokenStore
	mailer        Mailer
	notifications *NotificationService
	hasher        *utils.PasswordHasher
	secret        []byte
	ttl           time.Duration
	baseURL       string
	now           func() time.Time
	async         func(func())
	logger        *zap.Logger
}

type PasswordServiceConfig struct {
	Secret  string
	TTL     time.Duration
	BaseURL string
}

func NewPasswordService(users UserStore, sessions *SessionService, tokens ResetTokenStore, mailer Mailer, notifications *NotificationService, hasher *utils.PasswordHasher, cfg PasswordServiceConfig, logger *zap.Logger) *PasswordService {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PasswordService{
		users:         users,
		sessions:      sessions,
		tokens:        tokens,
		mailer:        mailer,
		notifications: notifications,
		hasher:        hasher,
		secret:        []byte(cfg.Secret),
		ttl:           cfg.TTL,
		baseURL:       cfg.BaseURL,
		now:           time.Now,
		async:         runAsync,
		logger:        logger,
	}
}

// SetDispatcher replaces how emails are scheduled.
func (s *PasswordService) SetDispatcher(async func(func())) { s.async = async }

// IssueToken signs a single-use reset token for the user.
func (s *PasswordService) IssueToken(ctx context.Context, user *models.User) (string, error) {
	now := s.now()
	claims := jwt.StandardClaims{
		Subject:   user.ID.Hex(),
		Id:        uuid.NewString(),
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign reset token: %w", err)
	}
	if err := s.tokens.Save(ctx, claims.Id, claims.Subject, s.ttl); err != nil {
		return "", err
	}
	return token, nil
}

func (s *PasswordService) resetLink(token string) string {
	return s.baseURL + "/reset-password?token=" + token
}

// Forgot sends a reset link to active and invited accounts. It never reports
// whether the email is registered; failures are only logged.
func (s *PasswordService) Forgot(ctx context.Context, email string) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			s.logger.Error("Forgot password lookup failed", zap.Error(err))
		}
		return
	}
	if user.Status == models.StatusSuspended {
		s.logger.Info("Reset requested for suspended account", zap.String("user_id", user.ID.Hex()))
		return
	}

	token, err := s.IssueToken(ctx, user)
	if err != nil {
		s.logger.Error("Failed to issue reset token", zap.String("user_id", user.ID.Hex()), zap.Error(err))
		return
	}

	to := user.Email
	body := fmt.Sprintf("Hello %s,\n\nUse the link below to choose a new password. It expires in %s.\n\n%s\n\nIf you did not ask for this, you can ignore this email.",
		displayName(user), s.ttl, s.resetLink(token))
	s.async(func() {
		if err := s.mailer.Send(to, "Reset your password", body); err != nil {
			s.logger.Warn("Reset email failed", zap.Error(err))
		}
	})
}

// Invite emails a newly provisioned user a link to set their first password.
func (s *PasswordService) Invite(ctx context.Context, user *models.User) error {
	token, err := s.IssueToken(ctx, user)
	if err != nil {
		return apperrors.Internal(err)
	}

	to := user.Email
	body := fmt.Sprintf("Hello %s,\n\nAn account has been created for you. Set your password here (the link expires in %s):\n\n%s",
		displayName(user), s.ttl, s.resetLink(token))
	s.async(func() {
		if err := s.mailer.Send(to, "You're invited", body); err != nil {
			s.logger.Warn("Invitation email failed", zap.Error(err))
		}
	})
	return nil
}

// Reset sets a new password from a reset token. All sessions of the user are
// revoked and invited accounts become active.
func (s *PasswordService) Reset(ctx context.Context, token, password string) error {
	claims := &jwt.StandardClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid || claims.Id == "" || claims.Subject == "" {
		return apperrors.ErrInvalidResetToken
	}

	if err := utils.ValidatePassword(password); err != nil {
		return apperrors.Validation(err.Error())
	}

	userHex, err := s.tokens.Consume(ctx, claims.Id)
	if err != nil {
		if errors.Is(err, ErrResetTokenUnknown) {
			return apperrors.ErrInvalidResetToken
		}
		return apperrors.Internal(err)
	}
	if userHex != claims.Subject {
		return apperrors.ErrInvalidResetToken
	}

	userID, err := primitive.ObjectIDFromHex(userHex)
	if err != nil {
		return apperrors.ErrInvalidResetToken
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.ErrInvalidResetToken
		}
		return apperrors.Internal(err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return apperrors.Internal(err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return storeErr(err, "User not found")
	}
	if _, err := s.sessions.RevokeAll(ctx, user.ID); err != nil {
		return err
	}
	if user.Status == models.StatusInvited {
		if err := s.users.UpdateStatus(ctx, user.ID, models.StatusActive); err != nil {
			return storeErr(err, "User not found")
		}
	}

	if s.notifications != nil {
		s.notifications.Notify(ctx, NotificationInput{
			UserID:  &user.ID,
			Type:    models.NotificationPasswordReset,
			Title:   "Password reset",
			Message: "Your password was reset. All other sessions have been signed out.",
		})
	}
	return nil
}

func displayName(u *models.User) string {
	if name := u.FullName(); name != "" {
		return name
	}
	return u.Email
}
