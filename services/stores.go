package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/carrental_backend/models"
)

// UserStore is the credential store. Implementations return
// repositories.ErrNotFound and repositories.ErrDuplicate.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.Status) error
	UpdateRole(ctx context.Context, id primitive.ObjectID, role models.Role) error
	TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
	UpdateProfile(ctx context.Context, id primitive.ObjectID, update models.ProfileUpdate) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type SessionStore interface {
	Create(ctx context.Context, s *models.Session) error
	FindByTokenHash(ctx context.Context, hash string) (*models.Session, error)
	DeleteByTokenHash(ctx context.Context, hash string) error
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, now time.Time) ([]models.Session, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListFor(ctx context.Context, userID primitive.ObjectID, role models.Role, limit int64) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID primitive.ObjectID, role models.Role, at time.Time) (*models.Notification, error)
	MarkAllRead(ctx context.Context, userID primitive.ObjectID, role models.Role, at time.Time) (int64, error)
	CountUnread(ctx context.Context, userID primitive.ObjectID, role models.Role) (int64, error)
	SetDelivered(ctx context.Context, id primitive.ObjectID, channel string) error
}

type CategoryStore interface {
	Create(ctx context.Context, c *models.Category) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Update(ctx context.Context, id primitive.ObjectID, name, description string) (*models.Category, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type CarStore interface {
	Create(ctx context.Context, car *models.Car) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Car, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Car, error)
	Replace(ctx context.Context, car *models.Car) error
	Archive(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, filter models.CarFilter) ([]models.Car, error)
	CountByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error)
}

type BookingStore interface {
	Create(ctx context.Context, b *models.Booking) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	HasOverlap(ctx context.Context, carID primitive.ObjectID, start, end time.Time) (bool, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Booking, error)
	List(ctx context.Context, status models.BookingStatus) ([]models.Booking, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.BookingStatus) (*models.Booking, error)
}

type FavoriteStore interface {
	Add(ctx context.Context, userID, carID primitive.ObjectID) error
	Remove(ctx context.Context, userID, carID primitive.ObjectID) error
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Favorite, error)
}
