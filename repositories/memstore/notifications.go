package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/carrental_backend/models"
	"github.com/HSouheill/carrental_backend/repositories"
)

// Notifications is an in-memory notification store.
type Notifications struct {
	mu    sync.RWMutex
	items []*models.Notification
}

func NewNotifications() *Notifications {
	return &Notifications{}
}

func (s *Notifications) Create(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	n.Role = models.NormalizeRole(string(n.Role))
	cp := *n
	s.items = append(s.items, &cp)
	return nil
}

func visible(n *models.Notification, userID primitive.ObjectID, role models.Role) bool {
	if n.UserID != nil && *n.UserID == userID {
		return true
	}
	return role != "" && n.Role != "" && models.NormalizeRole(string(n.Role)) == models.NormalizeRole(string(role))
}

func (s *Notifications) ListFor(_ context.Context, userID primitive.ObjectID, role models.Role, limit int64) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Notification{}
	// Walk newest insertion first so equal timestamps keep insertion order.
	for i := len(s.items) - 1; i >= 0; i-- {
		if visible(s.items[i], userID, role) {
			out = append(out, *s.items[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Notifications) MarkRead(_ context.Context, id, userID primitive.ObjectID, role models.Role, at time.Time) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.items {
		if n.ID != id {
			continue
		}
		if !visible(n, userID, role) {
			return nil, repositories.ErrNotFound
		}
		if !n.Read {
			n.Read = true
			readAt := at
			n.ReadAt = &readAt
		}
		cp := *n
		return &cp, nil
	}
	return nil, repositories.ErrNotFound
}

func (s *Notifications) MarkAllRead(_ context.Context, userID primitive.ObjectID, role models.Role, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, item := range s.items {
		if !item.Read && visible(item, userID, role) {
			item.Read = true
			readAt := at
			item.ReadAt = &readAt
			n++
		}
	}
	return n, nil
}

func (s *Notifications) CountUnread(_ context.Context, userID primitive.ObjectID, role models.Role) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, item := range s.items {
		if !item.Read && visible(item, userID, role) {
			n++
		}
	}
	return n, nil
}

func (s *Notifications) SetDelivered(_ context.Context, id primitive.ObjectID, channel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.items {
		if n.ID != id {
			continue
		}
		switch channel {
		case models.ChannelRealtime:
			n.Delivery.Realtime = true
		case models.ChannelEmail:
			n.Delivery.Email = true
		case models.ChannelSMS:
			n.Delivery.SMS = true
		}
		return nil
	}
	return repositories.ErrNotFound
}

// Get returns a copy of a stored notification.
func (s *Notifications) Get(id primitive.ObjectID) (models.Notification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.items {
		if n.ID == id {
			return *n, true
		}
	}
	return models.Notification{}, false
}

// All returns copies of every stored notification in insertion order.
func (s *Notifications) All() []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Notification, 0, len(s.items))
	for _, n := range s.items {
		out = append(out, *n)
	}
	return out
}
