package middleware

import (
	"net/http"

	"shopsense/pkg/logger"

	jsonres "shopsense/pkg/response"

	"github.com/labstack/echo/v4"
)

// ErrorHandler is the echo fallback for errors no handler mapped itself.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "Internal server error"

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			message = msg
		}
	}

	if code >= http.StatusInternalServerError {
		logger.Error("Unhandled request error", "error", err, "path", c.Path())
	}

	if err := c.JSON(code, jsonres.Error(http.StatusText(code), message, nil)); err != nil {
		logger.Error("Failed to write error response", err)
	}
}
