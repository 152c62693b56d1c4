package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/carrental_backend/models"
	"github.com/HSouheill/carrental_backend/repositories"
)

type Categories struct {
	mu    sync.RWMutex
	items map[primitive.ObjectID]models.Category
}

func NewCategories() *Categories {
	return &Categories{items: map[primitive.ObjectID]models.Category{}}
}

func (s *Categories) Create(_ context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.items {
		if existing.Name == c.Name {
			return repositories.ErrDuplicate
		}
	}
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	s.items[c.ID] = *c
	return nil
}

func (s *Categories) FindByID(_ context.Context, id primitive.ObjectID) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.items[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &c, nil
}

func (s *Categories) List(_ context.Context) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Category{}
	for _, c := range s.items {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Categories) Update(_ context.Context, id primitive.ObjectID, name, description string) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.items[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	for otherID, other := range s.items {
		if otherID != id && other.Name == name {
			return nil, repositories.ErrDuplicate
		}
	}
	c.Name = name
	c.Description = description
	c.UpdatedAt = time.Now()
	s.items[id] = c
	return &c, nil
}

func (s *Categories) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

type Cars struct {
	mu    sync.RWMutex
	items map[primitive.ObjectID]models.Car
}

func NewCars() *Cars {
	return &Cars{items: map[primitive.ObjectID]models.Car{}}
}

func (s *Cars) Create(_ context.Context, car *models.Car) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if car.ID.IsZero() {
		car.ID = primitive.NewObjectID()
	}
	s.items[car.ID] = *car
	return nil
}

func (s *Cars) FindByID(_ context.Context, id primitive.ObjectID) (*models.Car, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	car, ok := s.items[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &car, nil
}

func (s *Cars) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Car, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Car{}
	for _, id := range ids {
		if car, ok := s.items[id]; ok {
			out = append(out, car)
		}
	}
	return out, nil
}

func (s *Cars) Replace(_ context.Context, car *models.Car) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.items[car.ID]
	if !ok || existing.Archived {
		return repositories.ErrNotFound
	}
	car.CreatedAt = existing.CreatedAt
	car.UpdatedAt = time.Now()
	s.items[car.ID] = *car
	return nil
}

func (s *Cars) Archive(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	car, ok := s.items[id]
	if !ok {
		return repositories.ErrNotFound
	}
	car.Archived = true
	car.Available = false
	s.items[id] = car
	return nil
}

func (s *Cars) List(_ context.Context, f models.CarFilter) ([]models.Car, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := strings.ToLower(f.Query)
	out := []models.Car{}
	for _, car := range s.items {
		if car.Archived && !f.IncludeArchived {
			continue
		}
		if f.CategoryID != nil && car.CategoryID != *f.CategoryID {
			continue
		}
		if f.AvailableOnly && !car.Available {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(car.Make+" "+car.Model), q) {
			continue
		}
		out = append(out, car)
	}
	switch f.Sort {
	case models.CarSortPriceAsc:
		sort.Slice(out, func(i, j int) bool { return out[i].PricePerDay < out[j].PricePerDay })
	case models.CarSortPriceDesc:
		sort.Slice(out, func(i, j int) bool { return out[i].PricePerDay > out[j].PricePerDay })
	default:
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	return out, nil
}

func (s *Cars) CountByCategory(_ context.Context, categoryID primitive.ObjectID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, car := range s.items {
		if car.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

type Bookings struct {
	mu    sync.RWMutex
	items []*models.Booking
}

func NewBookings() *Bookings {
	return &Bookings{}
}

func (s *Bookings) Create(_ context.Context, b *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	cp := *b
	s.items = append(s.items, &cp)
	return nil
}

func (s *Bookings) FindByID(_ context.Context, id primitive.ObjectID) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.items {
		if b.ID == id {
			cp := *b
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *Bookings) HasOverlap(_ context.Context, carID primitive.ObjectID, start, end time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.items {
		if b.CarID == carID && b.Status.Blocking() && b.StartDate.Before(end) && b.EndDate.After(start) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Bookings) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Booking, error) {
	return s.filter(func(b *models.Booking) bool { return b.UserID == userID }), nil
}

func (s *Bookings) List(_ context.Context, status models.BookingStatus) ([]models.Booking, error) {
	return s.filter(func(b *models.Booking) bool { return status == "" || b.Status == status }), nil
}

func (s *Bookings) UpdateStatus(_ context.Context, id primitive.ObjectID, from, to models.BookingStatus) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.items {
		if b.ID == id && b.Status == from {
			b.Status = to
			b.UpdatedAt = time.Now()
			cp := *b
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *Bookings) filter(keep func(b *models.Booking) bool) []models.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Booking{}
	for i := len(s.items) - 1; i >= 0; i-- {
		if keep(s.items[i]) {
			out = append(out, *s.items[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

type Favorites struct {
	mu    sync.RWMutex
	items []models.Favorite
}

func NewFavorites() *Favorites {
	return &Favorites{}
}

func (s *Favorites) Add(_ context.Context, userID, carID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.items {
		if f.UserID == userID && f.CarID == carID {
			return nil
		}
	}
	s.items = append(s.items, models.Favorite{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		CarID:     carID,
		CreatedAt: time.Now(),
	})
	return nil
}

func (s *Favorites) Remove(_ context.Context, userID, carID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range s.items {
		if f.UserID == userID && f.CarID == carID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *Favorites) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Favorite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Favorite{}
	for i := len(s.items) - 1; i >= 0; i-- {
		if s.items[i].UserID == userID {
			out = append(out, s.items[i])
		}
	}
	return out, nil
}
