package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/citizen-services/internal/model"
)

// RequireRole rejects callers whose role claim is not one of roles with 403.
// It must run after JWTAuth.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !allowed[str(c, ctxRole)] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			// Department users without a department cannot act on anything.
			if str(c, ctxRole) == model.UserTypeDepartment && str(c, ctxDepartment) == "" {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "no department assigned"})
			}
			return next(c)
		}
	}
}
