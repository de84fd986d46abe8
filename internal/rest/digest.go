package rest

import (
	"context"
	"net/http"

	"shopsense/business/digest"
	"shopsense/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	DigestHandler struct {
		validate *validator.Validate
		digests  DigestService
	}

	DigestService interface {
		SendDigest(ctx context.Context, recipient digest.Recipient, n int) error
	}

	DigestRequest struct {
		UserID string `json:"user_id" validate:"required"`
		Email  string `json:"email" validate:"required,email"`
		Name   string `json:"name"`
		N      int    `json:"n" validate:"omitempty,min=1,max=50"`
	}
)

func NewDigestHandler(digests DigestService) *DigestHandler {
	return &DigestHandler{
		validate: validator.New(),
		digests:  digests,
	}
}

// POST /api/v1/admin/digest
func (h *DigestHandler) Send(c echo.Context) error {
	var req DigestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	err := h.digests.SendDigest(c.Request().Context(), digest.Recipient{
		UserID: req.UserID,
		Email:  req.Email,
		Name:   req.Name,
	}, req.N)
	if err != nil {
		logger.Error("Failed to send digest", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK("digest sent"))
}
