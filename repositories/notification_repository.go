package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/HSouheill/carrental_backend/config"
	"github.com/HSouheill/carrental_backend/models"
)

type NotificationRepository struct {
	collection *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{collection: db.Collection(config.NotificationsCollection)}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	n.Role = models.NormalizeRole(string(n.Role))
	_, err := r.collection.InsertOne(ctx, n)
	return translate(err)
}

// ListFor returns the newest notifications addressed to the user or the role.
func (r *NotificationRepository) ListFor(ctx context.Context, userID primitive.ObjectID, role models.Role, limit int64) ([]models.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, visibleTo(userID, role), opts)
	if err != nil {
		return nil, fmt.Errorf("find notifications: %w", err)
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead sets read/readAt on a notification visible to the caller. A record
// that is already read keeps its original readAt. Records that do not exist
// or are addressed to someone else both yield ErrNotFound.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID primitive.ObjectID, role models.Role, at time.Time) (*models.Notification, error) {
	unread, visible := markReadFilters(id, userID, role)
	update := bson.M{"$set": bson.M{"read": true, "readAt": at}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var n models.Notification
	err := r.collection.FindOneAndUpdate(ctx, unread, update, opts).Decode(&n)
	if err == nil {
		return &n, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("mark notification read: %w", err)
	}

	// Either already read or not visible.
	if err := r.collection.FindOne(ctx, visible).Decode(&n); err != nil {
		return nil, translate(err)
	}
	return &n, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID primitive.ObjectID, role models.Role, at time.Time) (int64, error) {
	filter := visibleTo(userID, role)
	filter["read"] = bson.M{"$ne": true}

	res, err := r.collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"read": true, "readAt": at}})
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID primitive.ObjectID, role models.Role) (int64, error) {
	filter := visibleTo(userID, role)
	filter["read"] = bson.M{"$ne": true}
	return r.collection.CountDocuments(ctx, filter)
}

// SetDelivered flags a delivery channel as reached.
func (r *NotificationRepository) SetDelivered(ctx context.Context, id primitive.ObjectID, channel string) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"delivery." + channel: true}})
	return translate(err)
}

func visibleTo(userID primitive.ObjectID, role models.Role) bson.M {
	or := bson.A{bson.M{"userId": userID}}
	if role != "" {
		or = append(or, bson.M{"role": caseInsensitive(string(role))})
	}
	return bson.M{"$or": or}
}

// markReadFilters returns the filter for the unread update and the fallback
// lookup used when that update matches nothing.
func markReadFilters(id, userID primitive.ObjectID, role models.Role) (unread, visible bson.M) {
	visible = visibleTo(userID, role)
	visible["_id"] = id
	unread = visibleTo(userID, role)
	unread["_id"] = id
	unread["read"] = bson.M{"$ne": true}
	return unread, visible
}
