package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/carrental_backend/models"
	"github.com/HSouheill/carrental_backend/services"
)

type CategoryController struct {
	catalog *services.CatalogService
}

func NewCategoryController(catalog *services.CatalogService) *CategoryController {
	return &CategoryController{catalog: catalog}
}

// GetAllCategories retrieves all categories sorted by name
func (cc *CategoryController) GetAllCategories(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	categories, err := cc.catalog.ListCategories(ctx)
	if err != nil {
		return err
	}
	return respondOK(c, categories)
}

// CreateCategory creates a new category. Names are unique.
func (cc *CategoryController) CreateCategory(c echo.Context) error {
	var req models.CategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	category, err := cc.catalog.CreateCategory(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, models.Response{
		OK:      true,
		Message: "Category created successfully",
		Data:    category,
	})
}

func (cc *CategoryController) UpdateCategory(c echo.Context) error {
	var req models.CategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	category, err := cc.catalog.UpdateCategory(ctx, c.Param("id"), req)
	if err != nil {
		return err
	}
	return respondOK(c, category)
}

// DeleteCategory removes a category no car refers to.
func (cc *CategoryController) DeleteCategory(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := cc.catalog.DeleteCategory(ctx, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.Response{OK: true, Message: "Category deleted successfully"})
}
