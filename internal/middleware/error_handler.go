package middleware

import (
	"clanManager/domain"
	"clanManager/pkg/logger"
	"errors"
	"net/http"
	"strings"

	jsonres "clanManager/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// ErrorHandler renders errors returned by handlers with the status matching
// their domain sentinel.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, code := http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"
	message := "Internal server error"

	var httpErr *echo.HTTPError
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &httpErr):
		status = httpErr.Code
		code = strings.ToUpper(strings.ReplaceAll(http.StatusText(httpErr.Code), " ", "_"))
		if m, ok := httpErr.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(httpErr.Code)
		}
	case errors.As(err, &validationErrs), errors.Is(err, domain.ErrInvalidTag):
		status, code, message = http.StatusBadRequest, "BAD_REQUEST", err.Error()
	case errors.Is(err, domain.ErrNotFound):
		status, code, message = http.StatusNotFound, "NOT_FOUND", err.Error()
	case errors.Is(err, domain.ErrAlreadyRegistered):
		status, code, message = http.StatusConflict, "CONFLICT", err.Error()
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		status, code, message = http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Game API unavailable"
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, jsonres.Error(code, message, nil))
}
