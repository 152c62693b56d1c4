package repositories

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/HSouheill/carrental_backend/config"
	"github.com/HSouheill/carrental_backend/models"
)

type CarRepository struct {
	collection *mongo.Collection
}

func NewCarRepository(db *mongo.Database) *CarRepository {
	return &CarRepository{collection: db.Collection(config.CarsCollection)}
}

func (r *CarRepository) Create(ctx context.Context, car *models.Car) error {
	if car.ID.IsZero() {
		car.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, car)
	return translate(err)
}

func (r *CarRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Car, error) {
	var car models.Car
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&car); err != nil {
		return nil, translate(err)
	}
	return &car, nil
}

func (r *CarRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Car, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find cars: %w", err)
	}
	defer cursor.Close(ctx)

	cars := []models.Car{}
	if err := cursor.All(ctx, &cars); err != nil {
		return nil, fmt.Errorf("decode cars: %w", err)
	}
	return cars, nil
}

// Replace overwrites the editable fields of a car, keeping createdAt.
func (r *CarRepository) Replace(ctx context.Context, car *models.Car) error {
	car.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"make":         car.Make,
		"model":        car.Model,
		"year":         car.Year,
		"categoryId":   car.CategoryID,
		"pricePerDay":  car.PricePerDay,
		"seats":        car.Seats,
		"transmission": car.Transmission,
		"fuel":         car.Fuel,
		"imageUrl":     car.ImageURL,
		"description":  car.Description,
		"available":    car.Available,
		"updatedAt":    car.UpdatedAt,
	}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": car.ID, "archived": bson.M{"$ne": true}}, update)
	if err != nil {
		return fmt.Errorf("update car: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Archive hides a car from the catalogue and blocks new bookings.
func (r *CarRepository) Archive(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"archived": true, "available": false, "updatedAt": time.Now()}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("archive car: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CarRepository) List(ctx context.Context, f models.CarFilter) ([]models.Car, error) {
	filter := bson.M{}
	if !f.IncludeArchived {
		filter["archived"] = bson.M{"$ne": true}
	}
	if f.CategoryID != nil {
		filter["categoryId"] = *f.CategoryID
	}
	if f.AvailableOnly {
		filter["available"] = true
	}
	if f.Query != "" {
		q := primitive.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}
		filter["$or"] = bson.A{bson.M{"make": q}, bson.M{"model": q}}
	}

	var sort bson.D
	switch f.Sort {
	case models.CarSortPriceAsc:
		sort = bson.D{{Key: "pricePerDay", Value: 1}}
	case models.CarSortPriceDesc:
		sort = bson.D{{Key: "pricePerDay", Value: -1}}
	default:
		sort = bson.D{{Key: "createdAt", Value: -1}}
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("find cars: %w", err)
	}
	defer cursor.Close(ctx)

	cars := []models.Car{}
	if err := cursor.All(ctx, &cars); err != nil {
		return nil, fmt.Errorf("decode cars: %w", err)
	}
	return cars, nil
}

// CountByCategory counts cars, archived included, that reference a category.
func (r *CarRepository) CountByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"categoryId": categoryID})
}
