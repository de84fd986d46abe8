package rest

import (
	"context"
	"net/http"

	"shopsense/domain"
	"shopsense/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	CatalogAdminHandler struct {
		validate *validator.Validate
		catalog  CatalogWriter
	}

	CatalogWriter interface {
		Upsert(ctx context.Context, product *domain.Product) error
	}

	UpsertProductRequest struct {
		ProductID string    `json:"product_id" validate:"required"`
		Name      string    `json:"name" validate:"required"`
		Category  string    `json:"category"`
		Price     float64   `json:"price" validate:"gte=0"`
		ImageURL  string    `json:"image_url"`
		URL       string    `json:"url"`
		InStock   bool      `json:"in_stock"`
		Features  []float64 `json:"features"`
	}
)

func NewCatalogAdminHandler(catalog CatalogWriter) *CatalogAdminHandler {
	return &CatalogAdminHandler{
		validate: validator.New(),
		catalog:  catalog,
	}
}

// PUT /api/v1/admin/products inserts or refreshes one catalog row.
func (h *CatalogAdminHandler) Upsert(c echo.Context) error {
	var req UpsertProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	product := domain.Product{
		ProductID: req.ProductID,
		Name:      req.Name,
		Category:  req.Category,
		Price:     req.Price,
		ImageURL:  req.ImageURL,
		URL:       req.URL,
		InStock:   req.InStock,
		Features:  req.Features,
	}
	if err := h.catalog.Upsert(c.Request().Context(), &product); err != nil {
		logger.Error("Failed to upsert product", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(product))
}
