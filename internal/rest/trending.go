package rest

import (
	"context"
	"net/http"
	"strconv"

	"shopsense/domain"
	"shopsense/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type (
	TrendingHandler struct {
		trender Trender
	}

	Trender interface {
		Trending(ctx context.Context, n int, category string) ([]domain.ScoredCandidate, error)
	}

	TrendingItem struct {
		ProductID     string  `json:"product_id"`
		Name          string  `json:"name"`
		Price         float64 `json:"price"`
		ImageURL      string  `json:"image_url"`
		Category      string  `json:"category"`
		URL           string  `json:"url"`
		TrendingScore float64 `json:"trending_score"`
	}
)

func NewTrendingHandler(trender Trender) *TrendingHandler {
	return &TrendingHandler{trender: trender}
}

// Trending handles GET /api/v1/trending?n=10&category=garden
func (h *TrendingHandler) Trending(c echo.Context) error {
	n := 10
	if raw := c.QueryParam("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid n"})
		}
		n = parsed
	}
	if n < domain.MinRecommendations || n > domain.MaxRecommendations {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "n out of range"})
	}

	recs, err := h.trender.Trending(c.Request().Context(), n, c.QueryParam("category"))
	if err != nil {
		logger.Error("Failed to load trending products", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	items := make([]TrendingItem, 0, len(recs))
	for _, rec := range recs {
		items = append(items, TrendingItem{
			ProductID:     rec.Product.ProductID,
			Name:          rec.Product.Name,
			Price:         rec.Product.Price,
			ImageURL:      rec.Product.ImageURL,
			Category:      rec.Product.Category,
			URL:           rec.Product.URL,
			TrendingScore: rec.Signals.Trending,
		})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(items))
}
