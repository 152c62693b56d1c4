package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/HSouheill/carrental_backend/config"
	"github.com/HSouheill/carrental_backend/models"
)

// SessionRepository persists login sessions. Expired documents are removed by
// the TTL index on expiresAt; reads still check expiry because the TTL monitor
// only runs about once a minute.
type SessionRepository struct {
	collection *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{collection: db.Collection(config.SessionsCollection)}
}

func (r *SessionRepository) Create(ctx context.Context, s *models.Session) error {
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, s)
	return translate(err)
}

func (r *SessionRepository) FindByTokenHash(ctx context.Context, hash string) (*models.Session, error) {
	var s models.Session
	if err := r.collection.FindOne(ctx, bson.M{"tokenHash": hash}).Decode(&s); err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *SessionRepository) DeleteByTokenHash(ctx context.Context, hash string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"tokenHash": hash})
	return translate(err)
}

func (r *SessionRepository) DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, now time.Time) ([]models.Session, error) {
	filter := bson.M{"userId": userID, "expiresAt": bson.M{"$gt": now}}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find sessions: %w", err)
	}
	defer cursor.Close(ctx)

	sessions := []models.Session{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	return sessions, nil
}
