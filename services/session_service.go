package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/HSouheill/carrental_backend/apperrors"
	"github.com/HSouheill/carrental_backend/models"
	"github.com/HSouheill/carrental_backend/repositories"
	"github.com/HSouheill/carrental_backend/security"
)

// IssuedSession is a freshly created session token, to be set as a cookie.
type IssuedSession struct {
	Token     string
	ExpiresAt time.Time
}

// SessionService issues and verifies opaque session tokens.
type SessionService struct {
	sessions SessionStore
	users    UserStore
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

func NewSessionService(sessions SessionStore, users UserStore, ttl time.Duration, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		sessions: sessions,
		users:    users,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// SetClock replaces the time source.
func (s *SessionService) SetClock(now func() time.Time) { s.now = now }

func (s *SessionService) TTL() time.Duration { return s.ttl }

// Issue creates a session for an active user. Store failures are returned
// and no token is handed out.
func (s *SessionService) Issue(ctx context.Context, user *models.User, meta models.ClientMeta) (*IssuedSession, error) {
	if user == nil || user.ID.IsZero() {
		return nil, apperrors.Internalf("issue session: missing user")
	}
	if models.NormalizeStatus(string(user.Status)) != models.StatusActive {
		return nil, apperrors.ErrAccountInactive
	}

	token, err := security.GenerateSessionToken()
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	now := s.now().UTC()
	session := &models.Session{
		UserID:    user.ID,
		TokenHash: security.HashToken(token),
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("create session: %w", err))
	}
	return &IssuedSession{Token: token, ExpiresAt: session.ExpiresAt}, nil
}

// Verify resolves a raw token to the owner's current identity. It never
// returns an error: unknown, expired and unreadable sessions all report false.
func (s *SessionService) Verify(ctx context.Context, token string) (models.Identity, bool) {
	if token == "" {
		return models.Identity{}, false
	}

	session, err := s.sessions.FindByTokenHash(ctx, security.HashToken(token))
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			s.logger.Warn("Session lookup failed", zap.Error(err))
		}
		return models.Identity{}, false
	}
	if !session.Valid(s.now()) {
		return models.Identity{}, false
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			s.logger.Warn("Session user lookup failed", zap.String("user_id", session.UserID.Hex()), zap.Error(err))
		}
		return models.Identity{}, false
	}
	return user.Identity(), true
}

// Revoke deletes the session for a token. Unknown tokens are ignored.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.DeleteByTokenHash(ctx, security.HashToken(token)); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return apperrors.Internal(fmt.Errorf("revoke session: %w", err))
	}
	return nil
}

// RevokeAll deletes every session of a user.
func (s *SessionService) RevokeAll(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	n, err := s.sessions.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, apperrors.Internal(err)
	}
	return n, nil
}

// List returns the user's live sessions, flagging the one behind currentToken.
func (s *SessionService) List(ctx context.Context, userID primitive.ObjectID, currentToken string) ([]models.SessionInfo, error) {
	sessions, err := s.sessions.ListByUser(ctx, userID, s.now())
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	infos := make([]models.SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		infos = append(infos, models.SessionInfo{
			ID:        sess.ID.Hex(),
			IPAddress: sess.IPAddress,
			UserAgent: sess.UserAgent,
			CreatedAt: sess.CreatedAt,
			ExpiresAt: sess.ExpiresAt,
			Current:   currentToken != "" && security.TokenMatches(currentToken, sess.TokenHash),
		})
	}
	return infos, nil
}
