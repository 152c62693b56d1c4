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

type BookingRepository struct {
	collection *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{collection: db.Collection(config.BookingsCollection)}
}

func (r *BookingRepository) Create(ctx context.Context, b *models.Booking) error {
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, b)
	return translate(err)
}

func (r *BookingRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	var b models.Booking
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

// HasOverlap reports whether a pending or confirmed booking on the car
// intersects [start, end). End dates are exclusive.
func (r *BookingRepository) HasOverlap(ctx context.Context, carID primitive.ObjectID, start, end time.Time) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, overlapFilter(carID, start, end), options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count overlapping bookings: %w", err)
	}
	return n > 0, nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Booking, error) {
	return r.find(ctx, bson.M{"userId": userID})
}

func (r *BookingRepository) List(ctx context.Context, status models.BookingStatus) ([]models.Booking, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return r.find(ctx, filter)
}

// UpdateStatus moves a booking from one status to another. The write only
// applies if the booking is still in the expected status, so two concurrent
// transitions cannot both succeed; the loser gets ErrNotFound.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.BookingStatus) (*models.Booking, error) {
	filter := bson.M{"_id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var b models.Booking
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&b); err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M) ([]models.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []models.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("decode bookings: %w", err)
	}
	return bookings, nil
}

func overlapFilter(carID primitive.ObjectID, start, end time.Time) bson.M {
	return bson.M{
		"carId":     carID,
		"status":    bson.M{"$in": bson.A{models.BookingPending, models.BookingConfirmed}},
		"startDate": bson.M{"$lt": end},
		"endDate":   bson.M{"$gt": start},
	}
}
