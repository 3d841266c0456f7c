package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/citizen-services/internal/service"
)

func TestStatusOf(t *testing.T) {
	cases := map[error]int{
		service.ErrValidation:         http.StatusBadRequest,
		service.ErrInvalidCredentials: http.StatusUnauthorized,
		service.ErrInactiveAccount:    http.StatusUnauthorized,
		service.ErrForbidden:          http.StatusForbidden,
		service.ErrNotFound:           http.StatusNotFound,
		service.ErrInvalidTransition:  http.StatusConflict,
		service.ErrAlreadyExists:      http.StatusConflict,
		service.ErrConflict:           http.StatusConflict,
		service.ErrNotApproved:        http.StatusConflict,
		service.ErrUnknownTemplate:    http.StatusUnprocessableEntity,
		context.DeadlineExceeded:      http.StatusGatewayTimeout,
		errors.New("disk on fire"):    http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, statusOf(fmt.Errorf("wrapped: %w", err)), err.Error())
	}
}

func TestFailHidesInternalErrors(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	_ = fail(c, orDefault(nil), errors.New("dial tcp 10.0.0.1:3306: refused"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	e := echo.New()
	h := NewHealthHandler(map[string]Check{
		"db":    func(context.Context) error { return nil },
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})

	rec := httptest.NewRecorder()
	_ = h.Health(e.NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rec))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"degraded","db":"ok","redis":"connection refused"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	_ = NewHealthHandler(nil).Health(e.NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rec))
	assert.Equal(t, http.StatusOK, rec.Code)
}
