package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HSouheill/carrental_backend/apperrors"
	"github.com/HSouheill/carrental_backend/models"
)

func carRequest(categoryID string, price float64) models.CarRequest {
	return models.CarRequest{
		Make:         "Kia",
		Model:        "Picanto",
		Year:         2023,
		CategoryID:   categoryID,
		PricePerDay:  price,
		Seats:        4,
		Transmission: "manual",
		Fuel:         "petrol",
	}
}

func TestCategoryLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	suv, err := f.catalog.CreateCategory(ctx, models.CategoryRequest{Name: "SUV"})
	require.NoError(t, err)
	_, err = f.catalog.CreateCategory(ctx, models.CategoryRequest{Name: "SUV"})
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	car, err := f.catalog.CreateCar(ctx, carRequest(suv.ID.Hex(), 50))
	require.NoError(t, err)

	err = f.catalog.DeleteCategory(ctx, suv.ID.Hex())
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict), "category in use")

	require.NoError(t, f.catalog.ArchiveCar(ctx, car.ID.Hex()))
	err = f.catalog.DeleteCategory(ctx, suv.ID.Hex())
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict), "archived cars still reference it")

	compact, err := f.catalog.CreateCategory(ctx, models.CategoryRequest{Name: "Compact"})
	require.NoError(t, err)
	require.NoError(t, f.catalog.DeleteCategory(ctx, compact.ID.Hex()))
	err = f.catalog.DeleteCategory(ctx, compact.ID.Hex())
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestCreateCarValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat, err := f.catalog.CreateCategory(ctx, models.CategoryRequest{Name: "SUV"})
	require.NoError(t, err)

	req := carRequest(cat.ID.Hex(), 40)
	req.Year = f.clock.Now().Year() + 2
	_, err = f.catalog.CreateCar(ctx, req)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, err = f.catalog.CreateCar(ctx, carRequest("5f1b2c3d4e5f6a7b8c9d0e1f", 40))
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	car, err := f.catalog.CreateCar(ctx, carRequest(cat.ID.Hex(), 40))
	require.NoError(t, err)
	assert.True(t, car.Available, "cars default to available")
}

func TestListCarsFiltersAndSorts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat, err := f.catalog.CreateCategory(ctx, models.CategoryRequest{Name: "SUV"})
	require.NoError(t, err)

	off := false
	cheap, err := f.catalog.CreateCar(ctx, carRequest(cat.ID.Hex(), 20))
	require.NoError(t, err)
	pricey, err := f.catalog.CreateCar(ctx, carRequest(cat.ID.Hex(), 90))
	require.NoError(t, err)
	hidden := carRequest(cat.ID.Hex(), 50)
	hidden.Available = &off
	_, err = f.catalog.CreateCar(ctx, hidden)
	require.NoError(t, err)

	cars, err := f.catalog.ListCars(ctx, CarQuery{Sort: models.CarSortPriceDesc, Available: "true"})
	require.NoError(t, err)
	require.Len(t, cars, 2)
	assert.Equal(t, pricey.ID, cars[0].ID)
	assert.Equal(t, cheap.ID, cars[1].ID)

	require.NoError(t, f.catalog.ArchiveCar(ctx, cheap.ID.Hex()))
	cars, err = f.catalog.ListCars(ctx, CarQuery{Category: cat.ID.Hex()})
	require.NoError(t, err)
	assert.Len(t, cars, 2)

	_, err = f.catalog.GetCar(ctx, cheap.ID.Hex())
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	_, err = f.catalog.ListCars(ctx, CarQuery{Sort: "random"})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestFavorites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "jane@example.com", "customer", "active").Identity()
	car := f.seedCar(t, 30, true)

	require.NoError(t, f.catalog.AddFavorite(ctx, user, car.ID.Hex()))
	require.NoError(t, f.catalog.AddFavorite(ctx, user, car.ID.Hex()))

	favs, err := f.catalog.ListFavorites(ctx, user)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	require.NotNil(t, favs[0].Car)
	assert.Equal(t, car.ID, favs[0].Car.ID)

	err = f.catalog.AddFavorite(ctx, user, "5f1b2c3d4e5f6a7b8c9d0e1f")
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	require.NoError(t, f.catalog.RemoveFavorite(ctx, user, car.ID.Hex()))
	require.NoError(t, f.catalog.RemoveFavorite(ctx, user, car.ID.Hex()))
	favs, err = f.catalog.ListFavorites(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, favs)
}
