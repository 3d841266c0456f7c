package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/citizen-services/internal/lifecycle"
	"github.com/iliyamo/citizen-services/internal/model"
	"github.com/iliyamo/citizen-services/internal/service"
)

// DepartmentHandler serves the review queue of the caller's department.
// Routes are mounted behind RequireRole(department).
type DepartmentHandler struct {
	Apps   *service.ApplicationService
	Logger *slog.Logger
}

func NewDepartmentHandler(apps *service.ApplicationService, logger *slog.Logger) *DepartmentHandler {
	return &DepartmentHandler{Apps: apps, Logger: orDefault(logger)}
}

type transitionReq struct {
	Action  string `json:"action"`
	Remarks string `json:"remarks"`
}

type departmentApplication struct {
	model.Application
	AllowedActions []lifecycle.Action `json:"allowedActions"`
}

func withActions(app model.Application) departmentApplication {
	return departmentApplication{Application: app, AllowedActions: lifecycle.Allowed(app.Status)}
}

// ListApplications returns the department's applications, optionally
// filtered by ?status=.
func (h *DepartmentHandler) ListApplications(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	apps, err := h.Apps.GetApplicationsByDepartment(ctx, actorFrom(c).Department, c.QueryParam("status"))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	out := make([]departmentApplication, len(apps))
	for i, a := range apps {
		out[i] = withActions(a)
	}
	return c.JSON(http.StatusOK, echo.Map{"applications": out})
}

func (h *DepartmentHandler) GetApplication(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	app, err := h.Apps.GetApplication(ctx, actorFrom(c), c.Param("id"))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, withActions(app))
}

func (h *DepartmentHandler) Transition(c echo.Context) error {
	var req transitionReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	app, err := h.Apps.TransitionApplication(ctx, c.Param("id"), req.Action, req.Remarks, actorFrom(c))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, withActions(app))
}

func (h *DepartmentHandler) GenerateCertificate(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	cert, err := h.Apps.GenerateCertificate(ctx, c.Param("id"), actorFrom(c))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusCreated, cert)
}

func (h *DepartmentHandler) DownloadCertificate(c echo.Context) error {
	return download(c, h.Apps, h.Logger)
}
