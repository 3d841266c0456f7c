package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/citizen-services/internal/middleware"
	"github.com/iliyamo/citizen-services/internal/service"
)

// requestTimeout bounds the store calls of one request.
const requestTimeout = 5 * time.Second

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// actorFrom builds the service actor from the identity JWTAuth stored.
func actorFrom(c echo.Context) service.Actor {
	id := middleware.IdentityFrom(c)
	return service.Actor{
		UserID:     id.UserID,
		Name:       id.Name,
		UserType:   id.Role,
		Department: id.Department,
	}
}

// statusOf maps a service failure kind to an HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInactiveAccount):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrAlreadyExists),
		errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrNotApproved):
		return http.StatusConflict
	case errors.Is(err, service.ErrUnknownTemplate):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// fail writes {"error": ...}.  Internal errors are logged and their text is
// not sent to the client.
func fail(c echo.Context, logger *slog.Logger, err error) error {
	status := statusOf(err)
	msg := err.Error()
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		msg = "invalid credentials"
	case status >= http.StatusInternalServerError:
		logger.ErrorContext(c.Request().Context(), "request failed",
			"method", c.Request().Method, "path", c.Path(), "error", err)
		msg = http.StatusText(status)
	}
	return c.JSON(status, echo.Map{"error": msg})
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
}

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
