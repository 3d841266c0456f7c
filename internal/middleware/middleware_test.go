package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/citizen-services/internal/config"
	"github.com/iliyamo/citizen-services/internal/utils"
)

const secret = "test-secret"

func bearer(t *testing.T, claims utils.AccessClaims) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, claims, 5)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func protected(roles ...string) *echo.Echo {
	e := echo.New()
	e.GET("/who", func(c echo.Context) error {
		return c.JSON(http.StatusOK, IdentityFrom(c))
	}, JWTAuth(secret), RequireRole(roles...))
	return e
}

func serve(e *echo.Echo, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	e := protected("citizen", "department")

	rec := serve(e, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, bearer(t, utils.AccessClaims{UserID: "u-1", Role: "department", Department: "revenue", Name: "Rajesh Kumar"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"UserID":"u-1","Role":"department","Department":"revenue","Name":"Rajesh Kumar"}`, rec.Body.String())
}

func TestRequireRole(t *testing.T) {
	e := protected("department")

	rec := serve(e, bearer(t, utils.AccessClaims{UserID: "u-1", Role: "citizen"}))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(e, bearer(t, utils.AccessClaims{UserID: "u-2", Role: "department"}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "no department")

	rec = serve(e, bearer(t, utils.AccessClaims{UserID: "u-3", Role: "department", Department: "education"}))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/citizen/applications", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.7")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/citizen/applications")
	c.Set(ctxUserID, "u-9")

	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_user_route"}
	assert.Equal(t, "rl:ip:10.0.0.7:user:u-9:route:GET /v1/citizen/applications", buildRateKey(cfg, c))

	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:u-9", buildRateKey(cfg, c))
}

func TestDisabledMiddlewarePassesThrough(t *testing.T) {
	e := echo.New()
	e.GET("/ok", func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
		NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, nil),
		NewRedisCache(config.CacheConfig{Enabled: true}, nil, nil))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"ok":true}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, hdr, got)
	assert.Equal(t, `{"ok":true}`, string(body))

	_, _, _, ok = decodePayload(bs[:5])
	assert.False(t, ok)
}
