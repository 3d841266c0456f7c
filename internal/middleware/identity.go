package middleware

import "github.com/labstack/echo/v4"

// Context keys set by JWTAuth.
const (
	ctxUserID     = "user_id"
	ctxRole       = "role"
	ctxDepartment = "department"
	ctxName       = "name"
)

// Identity is the authenticated caller as carried by the access token.
type Identity struct {
	UserID     string
	Role       string
	Department string
	Name       string
}

// IdentityFrom returns the identity JWTAuth stored on c.  The zero value
// means no token was presented.
func IdentityFrom(c echo.Context) Identity {
	return Identity{
		UserID:     str(c, ctxUserID),
		Role:       str(c, ctxRole),
		Department: str(c, ctxDepartment),
		Name:       str(c, ctxName),
	}
}

func str(c echo.Context, key string) string {
	s, _ := c.Get(key).(string)
	return s
}

// currentUserID is the rate limiter's view of the caller.
func currentUserID(c echo.Context) string {
	if id := str(c, ctxUserID); id != "" {
		return id
	}
	return "anon"
}
