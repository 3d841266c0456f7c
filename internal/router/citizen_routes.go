package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/citizen-services/internal/handler"
	"github.com/iliyamo/citizen-services/internal/middleware"
	"github.com/iliyamo/citizen-services/internal/model"
)

// RegisterCitizen registers citizen endpoints under /v1/citizen.  Every
// route needs a valid token with the citizen role; mw runs after the role
// check.
func RegisterCitizen(e *echo.Echo, h *handler.CitizenHandler, auth echo.MiddlewareFunc, mw ...echo.MiddlewareFunc) {
	g := e.Group("/v1/citizen", append([]echo.MiddlewareFunc{auth, middleware.RequireRole(model.UserTypeCitizen)}, mw...)...)
	g.POST("/applications", h.SubmitApplication)
	g.GET("/applications", h.ListApplications)
	g.GET("/applications/:id", h.GetApplication)
	g.GET("/certificates", h.ListCertificates)
	g.GET("/certificates/:id/download", h.DownloadCertificate)
}
