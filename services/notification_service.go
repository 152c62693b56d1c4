package services

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/HSouheill/carrental_backend/apperrors"
	"github.com/HSouheill/carrental_backend/models"
	"github.com/HSouheill/carrental_backend/realtime"
)

const defaultNotificationLimit = 30

// externalTimeout bounds one email or SMS attempt.
const externalTimeout = 30 * time.Second

// Publisher pushes events to live streams.
type Publisher interface {
	Publish(ctx context.Context, target realtime.Target, event realtime.Event) realtime.DeliveryResult
}

// NotificationInput describes a notification to create. At least one of
// UserID and Role must be set.
type NotificationInput struct {
	UserID    *primitive.ObjectID
	Role      models.Role
	BookingID *primitive.ObjectID
	Type      string
	Title     string
	Message   string
	ActionURL string
	Email     bool
	SMS       bool
}

type NotificationService struct {
	store  NotificationStore
	users  UserStore
	hub    Publisher
	mailer Mailer
	sms    SMSSender
	limit  int64
	now    func() time.Time
	async  func(func())
	logger *zap.Logger
}

func NewNotificationService(store NotificationStore, users UserStore, hub Publisher, mailer Mailer, sms SMSSender, limit int64, logger *zap.Logger) *NotificationService {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		store:  store,
		users:  users,
		hub:    hub,
		mailer: mailer,
		sms:    sms,
		limit:  limit,
		now:    time.Now,
		async:  runAsync,
		logger: logger,
	}
}

// SetClock replaces the time source.
func (s *NotificationService) SetClock(now func() time.Time) { s.now = now }

// SetDispatcher replaces how email and SMS deliveries are scheduled. Tests
// pass a synchronous dispatcher.
func (s *NotificationService) SetDispatcher(async func(func())) { s.async = async }

// Create persists a notification and pushes it to matching live streams. A
// failed push never undoes the write.
func (s *NotificationService) Create(ctx context.Context, in NotificationInput) (*models.Notification, realtime.DeliveryResult, error) {
	if in.UserID == nil && strings.TrimSpace(string(in.Role)) == "" {
		return nil, realtime.DeliveryResult{}, apperrors.Validation("userId or role is required")
	}
	var role models.Role
	if in.Role != "" {
		r, ok := models.ParseRole(string(in.Role))
		if !ok {
			return nil, realtime.DeliveryResult{}, apperrors.Validation("role is invalid")
		}
		role = r
	}
	if strings.TrimSpace(in.Type) == "" || strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Message) == "" {
		return nil, realtime.DeliveryResult{}, apperrors.Validation("type, title and message are required")
	}

	n := &models.Notification{
		UserID:    in.UserID,
		Role:      role,
		BookingID: in.BookingID,
		Type:      strings.TrimSpace(in.Type),
		Title:     strings.TrimSpace(in.Title),
		Message:   strings.TrimSpace(in.Message),
		ActionURL: strings.TrimSpace(in.ActionURL),
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Create(ctx, n); err != nil {
		return nil, realtime.DeliveryResult{}, apperrors.Internal(err)
	}

	target := realtime.Target{Role: role}
	if in.UserID != nil {
		target.UserID = in.UserID.Hex()
	}
	res := s.hub.Publish(ctx, target, realtime.Event{Type: realtime.EventNotificationNew, Notification: n})
	if res.Delivered > 0 {
		n.Delivery.Realtime = true
		if err := s.store.SetDelivered(ctx, n.ID, models.ChannelRealtime); err != nil {
			s.logger.Warn("Failed to flag realtime delivery", zap.String("notification_id", n.ID.Hex()), zap.Error(err))
		}
	}

	if in.UserID != nil && (in.Email || in.SMS) {
		snapshot := *n
		userID := *in.UserID
		wantEmail, wantSMS := in.Email, in.SMS
		s.async(func() { s.deliverExternal(snapshot, userID, wantEmail, wantSMS) })
	}

	return n, res, nil
}

// Notify creates a notification on behalf of an internal action. Failures are
// logged and never reach the caller.
func (s *NotificationService) Notify(ctx context.Context, in NotificationInput) {
	if _, _, err := s.Create(ctx, in); err != nil {
		s.logger.Error("Failed to create notification", zap.String("type", in.Type), zap.Error(err))
	}
}

func (s *NotificationService) deliverExternal(n models.Notification, userID primitive.ObjectID, wantEmail, wantSMS bool) {
	ctx, cancel := context.WithTimeout(context.Background(), externalTimeout)
	defer cancel()

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		s.logger.Warn("Notification recipient lookup failed", zap.String("user_id", userID.Hex()), zap.Error(err))
		return
	}

	if wantEmail && s.mailer != nil && user.Email != "" {
		if err := s.mailer.Send(user.Email, n.Title, n.Message); err != nil {
			s.logger.Warn("Notification email failed", zap.String("notification_id", n.ID.Hex()), zap.Error(err))
		} else if err := s.store.SetDelivered(ctx, n.ID, models.ChannelEmail); err != nil {
			s.logger.Warn("Failed to flag email delivery", zap.Error(err))
		}
	}

	if wantSMS && s.sms != nil && user.Phone != "" {
		if err := s.sms.SendSMS(ctx, user.Phone, n.Title+": "+n.Message); err != nil {
			s.logger.Warn("Notification SMS failed", zap.String("notification_id", n.ID.Hex()), zap.Error(err))
		} else if err := s.store.SetDelivered(ctx, n.ID, models.ChannelSMS); err != nil {
			s.logger.Warn("Failed to flag SMS delivery", zap.Error(err))
		}
	}
}

// List returns the caller's newest notifications, addressed to them or to
// their role.
func (s *NotificationService) List(ctx context.Context, identity models.Identity) ([]models.Notification, error) {
	userID, err := primitive.ObjectIDFromHex(identity.ID())
	if err != nil {
		return []models.Notification{}, nil
	}
	items, err := s.store.ListFor(ctx, userID, identity.Role(), s.limit)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return items, nil
}

// MarkRead marks one notification read. It is idempotent and reports
// NotFound both for unknown ids and for notifications addressed elsewhere.
func (s *NotificationService) MarkRead(ctx context.Context, identity models.Identity, id string) (*models.Notification, error) {
	nid, err := parseID(id, "Notification not found")
	if err != nil {
		return nil, err
	}
	userID, err := parseID(identity.ID(), "Notification not found")
	if err != nil {
		return nil, err
	}
	n, err := s.store.MarkRead(ctx, nid, userID, identity.Role(), s.now().UTC())
	if err != nil {
		return nil, storeErr(err, "Notification not found")
	}
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, identity models.Identity) (int64, error) {
	userID, err := primitive.ObjectIDFromHex(identity.ID())
	if err != nil {
		return 0, nil
	}
	n, err := s.store.MarkAllRead(ctx, userID, identity.Role(), s.now().UTC())
	if err != nil {
		return 0, apperrors.Internal(err)
	}
	return n, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, identity models.Identity) (int64, error) {
	userID, err := primitive.ObjectIDFromHex(identity.ID())
	if err != nil {
		return 0, nil
	}
	n, err := s.store.CountUnread(ctx, userID, identity.Role())
	if err != nil {
		return 0, apperrors.Internal(err)
	}
	return n, nil
}
