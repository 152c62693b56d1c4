package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/carrental_backend/models"
	"github.com/HSouheill/carrental_backend/services"
)

type CarController struct {
	catalog *services.CatalogService
}

func NewCarController(catalog *services.CatalogService) *CarController {
	return &CarController{catalog: catalog}
}

// ListCars returns the public catalogue. Query parameters: category,
// available, sort (price_asc, price_desc, newest) and q.
func (cc *CarController) ListCars(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	cars, err := cc.catalog.ListCars(ctx, services.CarQuery{
		Category:  c.QueryParam("category"),
		Available: c.QueryParam("available"),
		Sort:      c.QueryParam("sort"),
		Query:     c.QueryParam("q"),
	})
	if err != nil {
		return err
	}
	return respondOK(c, cars)
}

func (cc *CarController) GetCar(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	car, err := cc.catalog.GetCar(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return respondOK(c, car)
}

func (cc *CarController) CreateCar(c echo.Context) error {
	var req models.CarRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	car, err := cc.catalog.CreateCar(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, models.Response{
		OK:      true,
		Message: "Car created successfully",
		Data:    car,
	})
}

func (cc *CarController) UpdateCar(c echo.Context) error {
	var req models.CarRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	car, err := cc.catalog.UpdateCar(ctx, c.Param("id"), req)
	if err != nil {
		return err
	}
	return respondOK(c, car)
}

// ArchiveCar hides a car from the catalogue. Bookings keep referring to it.
func (cc *CarController) ArchiveCar(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := cc.catalog.ArchiveCar(ctx, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.Response{OK: true, Message: "Car archived"})
}
