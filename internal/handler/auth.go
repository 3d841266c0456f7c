package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/citizen-services/internal/middleware"
	"github.com/iliyamo/citizen-services/internal/service"
	"github.com/iliyamo/citizen-services/internal/utils"
)

// AuthHandler serves registration, login and session endpoints.
type AuthHandler struct {
	Auth      *service.AuthService
	JWTSecret string
	Logger    *slog.Logger
}

func NewAuthHandler(auth *service.AuthService, jwtSecret string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{Auth: auth, JWTSecret: jwtSecret, Logger: orDefault(logger)}
}

type loginReq struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	UserType   string `json:"userType"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

// Register creates the account and logs it in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req service.Registration
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Auth.Register(ctx, req)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	tokens, err := h.Auth.Login(ctx, u.Identifier, req.Password, u.UserType)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusCreated, tokens)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if strings.TrimSpace(req.Identifier) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "identifier/password required"})
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	tokens, err := h.Auth.Login(ctx, strings.TrimSpace(req.Identifier), req.Password, req.UserType)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, tokens)
}

// Refresh rotates the refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	tokens, err := h.Auth.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, tokens)
}

// Logout revokes the refresh token in the body.  Without one, a valid
// bearer token revokes every session of its user.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	raw := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := requestContext(c)
	defer cancel()

	if raw != "" {
		if err := h.Auth.Logout(ctx, raw); err != nil {
			return fail(c, h.Logger, err)
		}
		return c.NoContent(http.StatusNoContent)
	}

	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(auth, "Bearer ") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token or bearer token required"})
	}
	claims, err := utils.ParseAccessToken(h.JWTSecret, strings.TrimPrefix(auth, "Bearer "))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	if err := h.Auth.LogoutAll(ctx, claims.UserID); err != nil {
		return fail(c, h.Logger, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Auth.Me(ctx, middleware.IdentityFrom(c).UserID)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, u)
}
