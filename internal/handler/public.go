package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/citizen-services/internal/service"
)

// PublicHandler serves unauthenticated certificate verification.
type PublicHandler struct {
	Apps   *service.ApplicationService
	Logger *slog.Logger
}

func NewPublicHandler(apps *service.ApplicationService, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{Apps: apps, Logger: orDefault(logger)}
}

// VerifyCertificate looks up ?number= and returns the public fields of the
// certificate.
func (h *PublicHandler) VerifyCertificate(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	v, err := h.Apps.VerifyCertificate(ctx, c.QueryParam("number"))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, v)
}
