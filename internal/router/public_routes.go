package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/citizen-services/internal/handler"
)

// RegisterPublic registers unauthenticated lookups.  cache wraps
// verification, whose answer never changes once a certificate exists.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/certificates/verify", p.VerifyCertificate, cache)
}
