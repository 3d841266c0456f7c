package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/citizen-services/internal/model"
	"github.com/iliyamo/citizen-services/internal/service"
)

// CitizenHandler serves a citizen's own applications and certificates.
// Routes are mounted behind RequireRole(citizen).
type CitizenHandler struct {
	Apps   *service.ApplicationService
	Logger *slog.Logger
}

func NewCitizenHandler(apps *service.ApplicationService, logger *slog.Logger) *CitizenHandler {
	return &CitizenHandler{Apps: apps, Logger: orDefault(logger)}
}

type submitReq struct {
	ServiceType string              `json:"serviceType"`
	ServiceName string              `json:"serviceName"`
	Priority    string              `json:"priority"`
	FormData    json.RawMessage     `json:"formData"`
	Documents   []model.DocumentRef `json:"documents"`
}

func (h *CitizenHandler) SubmitApplication(c echo.Context) error {
	var req submitReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	app, err := h.Apps.CreateApplication(ctx, actorFrom(c).UserID, service.NewApplication{
		ServiceType: req.ServiceType,
		ServiceName: req.ServiceName,
		Priority:    req.Priority,
		FormData:    req.FormData,
		Documents:   req.Documents,
	})
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusCreated, app)
}

func (h *CitizenHandler) ListApplications(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	apps, err := h.Apps.GetApplicationsByUser(ctx, actorFrom(c).UserID)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"applications": apps})
}

func (h *CitizenHandler) GetApplication(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	app, err := h.Apps.GetApplication(ctx, actorFrom(c), c.Param("id"))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, app)
}

func (h *CitizenHandler) ListCertificates(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	certs, err := h.Apps.GetCertificatesByUser(ctx, actorFrom(c).UserID)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"certificates": certs})
}

func (h *CitizenHandler) DownloadCertificate(c echo.Context) error {
	return download(c, h.Apps, h.Logger)
}

// download renders the certificate in :id as an HTML attachment.  Access is
// checked by the service against the caller.
func download(c echo.Context, apps *service.ApplicationService, logger *slog.Logger) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	doc, err := apps.RenderCertificateDocument(ctx, actorFrom(c), c.Param("id"))
	if err != nil {
		return fail(c, logger, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.Filename))
	return c.Blob(http.StatusOK, doc.ContentType, []byte(doc.Body))
}
