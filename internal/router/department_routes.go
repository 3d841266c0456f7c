package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/citizen-services/internal/handler"
	"github.com/iliyamo/citizen-services/internal/middleware"
	"github.com/iliyamo/citizen-services/internal/model"
)

// RegisterDepartment registers the review endpoints under /v1/department.
// The caller's department comes from the token, never from the request.
func RegisterDepartment(e *echo.Echo, h *handler.DepartmentHandler, auth echo.MiddlewareFunc, mw ...echo.MiddlewareFunc) {
	g := e.Group("/v1/department", append([]echo.MiddlewareFunc{auth, middleware.RequireRole(model.UserTypeDepartment)}, mw...)...)
	g.GET("/applications", h.ListApplications)
	g.GET("/applications/:id", h.GetApplication)
	g.POST("/applications/:id/transition", h.Transition)
	g.POST("/applications/:id/certificate", h.GenerateCertificate)
	g.GET("/certificates/:id/download", h.DownloadCertificate)
}
