package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/carrental_backend/models"
	"github.com/HSouheill/carrental_backend/services"
)

type FavoriteController struct {
	catalog *services.CatalogService
}

func NewFavoriteController(catalog *services.CatalogService) *FavoriteController {
	return &FavoriteController{catalog: catalog}
}

func (fc *FavoriteController) List(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	favorites, err := fc.catalog.ListFavorites(ctx, identity)
	if err != nil {
		return err
	}
	return respondOK(c, favorites)
}

// Add is idempotent.
func (fc *FavoriteController) Add(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	var req models.FavoriteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := fc.catalog.AddFavorite(ctx, identity, req.CarID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.Response{OK: true})
}

// Remove is idempotent.
func (fc *FavoriteController) Remove(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := fc.catalog.RemoveFavorite(ctx, identity, c.Param("carId")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.Response{OK: true})
}
