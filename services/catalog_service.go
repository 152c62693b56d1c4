package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/carrental_backend/apperrors"
	"github.com/HSouheill/carrental_backend/models"
	"github.com/HSouheill/carrental_backend/repositories"
	"github.com/HSouheill/carrental_backend/utils"
)

// CatalogService manages categories, cars and customer favorites.
type CatalogService struct {
	categories CategoryStore
	cars       CarStore
	favorites  FavoriteStore
	now        func() time.Time
}

func NewCatalogService(categories CategoryStore, cars CarStore, favorites FavoriteStore) *CatalogService {
	return &CatalogService{
		categories: categories,
		cars:       cars,
		favorites:  favorites,
		now:        time.Now,
	}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return categories, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, req models.CategoryRequest) (*models.Category, error) {
	now := s.now().UTC()
	c := &models.Category{
		Name:        utils.SanitizeInput(req.Name),
		Description: utils.SanitizeInput(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.categories.Create(ctx, c); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.Conflict("Category already exists")
		}
		return nil, apperrors.Internal(err)
	}
	return c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id string, req models.CategoryRequest) (*models.Category, error) {
	categoryID, err := parseID(id, "Category not found")
	if err != nil {
		return nil, err
	}
	c, err := s.categories.Update(ctx, categoryID, utils.SanitizeInput(req.Name), utils.SanitizeInput(req.Description))
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.Conflict("Category already exists")
		}
		return nil, storeErr(err, "Category not found")
	}
	return c, nil
}

// DeleteCategory removes a category no car refers to.
func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	categoryID, err := parseID(id, "Category not found")
	if err != nil {
		return err
	}
	n, err := s.cars.CountByCategory(ctx, categoryID)
	if err != nil {
		return apperrors.Internal(err)
	}
	if n > 0 {
		return apperrors.Conflict("Category is used by existing cars")
	}
	if err := s.categories.Delete(ctx, categoryID); err != nil {
		return storeErr(err, "Category not found")
	}
	return nil
}

// CarQuery is the raw catalogue query string.
type CarQuery struct {
	Category  string
	Available string
	Sort      string
	Query     string
}

func (s *CatalogService) ListCars(ctx context.Context, q CarQuery) ([]models.Car, error) {
	filter := models.CarFilter{
		Query: strings.TrimSpace(q.Query),
		Sort:  q.Sort,
	}
	switch q.Sort {
	case "", models.CarSortNewest, models.CarSortPriceAsc, models.CarSortPriceDesc:
	default:
		return nil, apperrors.Validation("sort must be one of price_asc, price_desc, newest")
	}
	if q.Category != "" {
		id, err := primitive.ObjectIDFromHex(q.Category)
		if err != nil {
			return nil, apperrors.Validation("category is invalid")
		}
		filter.CategoryID = &id
	}
	if q.Available == "true" || q.Available == "1" {
		filter.AvailableOnly = true
	}

	cars, err := s.cars.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return cars, nil
}

// GetCar returns a catalogue car. Archived cars are not found.
func (s *CatalogService) GetCar(ctx context.Context, id string) (*models.Car, error) {
	carID, err := parseID(id, "Car not found")
	if err != nil {
		return nil, err
	}
	car, err := s.cars.FindByID(ctx, carID)
	if err != nil {
		return nil, storeErr(err, "Car not found")
	}
	if car.Archived {
		return nil, apperrors.NotFound("Car not found")
	}
	return car, nil
}

func (s *CatalogService) carFromRequest(ctx context.Context, req models.CarRequest) (*models.Car, error) {
	if maxYear := s.now().Year() + 1; req.Year > maxYear {
		return nil, apperrors.Validation("year is too far in the future")
	}
	categoryID, err := primitive.ObjectIDFromHex(req.CategoryID)
	if err != nil {
		return nil, apperrors.Validation("categoryId is invalid")
	}
	if _, err := s.categories.FindByID(ctx, categoryID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.Validation("categoryId does not exist")
		}
		return nil, apperrors.Internal(err)
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}
	return &models.Car{
		Make:         utils.SanitizeInput(req.Make),
		Model:        utils.SanitizeInput(req.Model),
		Year:         req.Year,
		CategoryID:   categoryID,
		PricePerDay:  req.PricePerDay,
		Seats:        req.Seats,
		Transmission: req.Transmission,
		Fuel:         req.Fuel,
		ImageURL:     strings.TrimSpace(req.ImageURL),
		Description:  utils.SanitizeInput(req.Description),
		Available:    available,
	}, nil
}

func (s *CatalogService) CreateCar(ctx context.Context, req models.CarRequest) (*models.Car, error) {
	car, err := s.carFromRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	car.CreatedAt = now
	car.UpdatedAt = now
	if err := s.cars.Create(ctx, car); err != nil {
		return nil, apperrors.Internal(err)
	}
	return car, nil
}

func (s *CatalogService) UpdateCar(ctx context.Context, id string, req models.CarRequest) (*models.Car, error) {
	carID, err := parseID(id, "Car not found")
	if err != nil {
		return nil, err
	}
	car, err := s.carFromRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	car.ID = carID
	if err := s.cars.Replace(ctx, car); err != nil {
		return nil, storeErr(err, "Car not found")
	}
	return s.GetCar(ctx, id)
}

// ArchiveCar removes a car from the catalogue. Booking history keeps it.
func (s *CatalogService) ArchiveCar(ctx context.Context, id string) error {
	carID, err := parseID(id, "Car not found")
	if err != nil {
		return err
	}
	if err := s.cars.Archive(ctx, carID); err != nil {
		return storeErr(err, "Car not found")
	}
	return nil
}

// FavoriteCar is a favorite with its car attached.
type FavoriteCar struct {
	models.Favorite
	Car *models.Car `json:"car,omitempty"`
}

func (s *CatalogService) ListFavorites(ctx context.Context, identity models.Identity) ([]FavoriteCar, error) {
	userID, err := userObjectID(identity)
	if err != nil {
		return nil, err
	}
	favorites, err := s.favorites.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	ids := make([]primitive.ObjectID, 0, len(favorites))
	for _, f := range favorites {
		ids = append(ids, f.CarID)
	}
	cars := map[primitive.ObjectID]*models.Car{}
	if len(ids) > 0 {
		found, err := s.cars.FindByIDs(ctx, ids)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		for i := range found {
			cars[found[i].ID] = &found[i]
		}
	}

	out := make([]FavoriteCar, 0, len(favorites))
	for _, f := range favorites {
		out = append(out, FavoriteCar{Favorite: f, Car: cars[f.CarID]})
	}
	return out, nil
}

func (s *CatalogService) AddFavorite(ctx context.Context, identity models.Identity, carID string) error {
	userID, err := userObjectID(identity)
	if err != nil {
		return err
	}
	car, err := s.GetCar(ctx, carID)
	if err != nil {
		return err
	}
	if err := s.favorites.Add(ctx, userID, car.ID); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

// RemoveFavorite is idempotent; unknown cars are ignored.
func (s *CatalogService) RemoveFavorite(ctx context.Context, identity models.Identity, carID string) error {
	userID, err := userObjectID(identity)
	if err != nil {
		return err
	}
	id, err := primitive.ObjectIDFromHex(carID)
	if err != nil {
		return nil
	}
	if err := s.favorites.Remove(ctx, userID, id); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}
