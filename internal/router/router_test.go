package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/citizen-services/internal/config"
	"github.com/iliyamo/citizen-services/internal/handler"
	"github.com/iliyamo/citizen-services/internal/metrics"
	"github.com/iliyamo/citizen-services/internal/middleware"
	"github.com/iliyamo/citizen-services/internal/repository/memory"
	"github.com/iliyamo/citizen-services/internal/service"
)

const secret = "router-secret"

type PortalSuite struct {
	suite.Suite
	e *echo.Echo
}

func TestPortalSuite(t *testing.T) {
	suite.Run(t, new(PortalSuite))
}

func (s *PortalSuite) SetupTest() {
	reg := prometheus.NewRegistry()
	auth := service.NewAuthService(memory.NewUserStore(), memory.NewTokenStore(), service.AuthConfig{
		JWTSecret: secret, AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: bcrypt.MinCost,
	}, nil)
	_, err := auth.SeedDemoUsers(context.Background())
	s.Require().NoError(err)
	apps := service.NewApplicationService(memory.NewApplicationStore(), memory.NewCertificateStore(),
		service.WithMetrics(metrics.New(reg)))

	s.e = echo.New()
	jwt := middleware.JWTAuth(secret)
	cache := middleware.NewRedisCache(config.CacheConfig{}, nil, nil)
	RegisterRoutes(s.e, handler.NewHealthHandler(nil), reg)
	RegisterAuth(s.e, handler.NewAuthHandler(auth, secret, nil), jwt)
	RegisterCitizen(s.e, handler.NewCitizenHandler(apps, nil), jwt)
	RegisterDepartment(s.e, handler.NewDepartmentHandler(apps, nil), jwt)
	RegisterPublic(s.e, handler.NewPublicHandler(apps, nil), cache)
}

func (s *PortalSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *PortalSuite) decode(rec *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func (s *PortalSuite) login(identifier, password, userType string) string {
	rec := s.do(http.MethodPost, "/v1/auth/login", "", echo.Map{
		"identifier": identifier, "password": password, "userType": userType,
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		AccessToken string `json:"access_token"`
	}
	s.decode(rec, &out)
	return out.AccessToken
}

func (s *PortalSuite) TestCitizenToCertificateFlow() {
	citizen := s.login("1234-5678-9012", service.DemoCitizenPassword, "citizen")
	officer := s.login("REV001", service.DemoOfficerPassword, "department")
	eduOfficer := s.login("EDU001", service.DemoOfficerPassword, "department")

	rec := s.do(http.MethodPost, "/v1/citizen/applications", citizen, echo.Map{
		"serviceType": "revenue",
		"serviceName": "Income Certificate",
		"formData":    echo.Map{"fullName": "Suresh Babu", "fatherName": "Babu", "address": "12 Gandhi Street, Madurai, Tamil Nadu", "annualIncome": "120000"},
		"documents":   []string{"aadhaar.pdf"},
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var app struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	s.decode(rec, &app)
	s.Equal("pending", app.Status)

	rec = s.do(http.MethodGet, "/v1/department/applications/"+app.ID, officer, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"allowedActions":["start-review","approve","reject"]`)

	rec = s.do(http.MethodGet, "/v1/department/applications/"+app.ID, eduOfficer, nil)
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/v1/department/applications/"+app.ID+"/certificate", officer, nil)
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/v1/department/applications/"+app.ID+"/transition", officer, echo.Map{"action": "approve", "remarks": "income verified"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Contains(rec.Body.String(), `"approvedBy":"Rajesh Kumar"`)
	s.Contains(rec.Body.String(), `"allowedActions":[]`)

	rec = s.do(http.MethodPost, "/v1/department/applications/"+app.ID+"/transition", officer, echo.Map{"action": "reject"})
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/v1/department/applications/"+app.ID+"/certificate", officer, nil)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var cert struct {
		ID                string `json:"id"`
		CertificateNumber string `json:"certificateNumber"`
	}
	s.decode(rec, &cert)

	rec = s.do(http.MethodPost, "/v1/department/applications/"+app.ID+"/certificate", officer, nil)
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodGet, "/v1/citizen/certificates", citizen, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), cert.CertificateNumber)

	rec = s.do(http.MethodGet, "/v1/citizen/certificates/"+cert.ID+"/download", citizen, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Header().Get(echo.HeaderContentType), "text/html")
	s.Equal(`attachment; filename="`+strings.ReplaceAll(cert.CertificateNumber, "/", "-")+`.html"`, rec.Header().Get(echo.HeaderContentDisposition))
	s.Contains(rec.Body.String(), "One Lakh Twenty Thousand Only")
	s.NotContains(rec.Body.String(), "{income}")

	rec = s.do(http.MethodGet, "/v1/certificates/verify?number="+url.QueryEscape(cert.CertificateNumber), "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"citizenName":"Suresh Babu"`)

	rec = s.do(http.MethodGet, "/v1/certificates/verify?number=RE%2F1999%2F01%2FAAAAAA", "", nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *PortalSuite) TestRoleSeparation() {
	citizen := s.login("1234-5678-9012", service.DemoCitizenPassword, "")
	officer := s.login("NM001", service.DemoOfficerPassword, "")

	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/v1/citizen/applications", "", nil).Code)
	s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/v1/department/applications", citizen, nil).Code)
	s.Equal(http.StatusForbidden, s.do(http.MethodPost, "/v1/citizen/applications", officer, echo.Map{"serviceType": "revenue"}).Code)

	rec := s.do(http.MethodGet, "/v1/department/applications?status=bogus", officer, nil)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/v1/me", officer, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"department":"naan-mudhalvan"`)
	s.NotContains(rec.Body.String(), "password")
}

func (s *PortalSuite) TestRegisterRefreshLogout() {
	rec := s.do(http.MethodPost, "/v1/auth/register", "", echo.Map{
		"identifier": "5555-6666-7777", "password": "secret1", "fullName": "Lakshmi",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	s.decode(rec, &tokens)

	s.Equal(http.StatusConflict, s.do(http.MethodPost, "/v1/auth/register", "", echo.Map{
		"identifier": "5555-6666-7777", "password": "secret1",
	}).Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodPost, "/v1/auth/login", "", echo.Map{
		"identifier": "5555-6666-7777", "password": "nope-nope",
	}).Code)

	rec = s.do(http.MethodPost, "/v1/auth/refresh", "", echo.Map{"refresh_token": tokens.RefreshToken})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &tokens)

	s.Equal(http.StatusNoContent, s.do(http.MethodPost, "/v1/auth/logout", tokens.AccessToken, nil).Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodPost, "/v1/auth/refresh", "", echo.Map{"refresh_token": tokens.RefreshToken}).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/v1/auth/logout", "", nil).Code)
}

func (s *PortalSuite) TestOperationalEndpoints() {
	rec := s.do(http.MethodGet, "/healthz", "", nil)
	s.Equal(http.StatusOK, rec.Code)

	citizen := s.login("1234-5678-9012", service.DemoCitizenPassword, "citizen")
	s.Equal(http.StatusCreated, s.do(http.MethodPost, "/v1/citizen/applications", citizen, echo.Map{"serviceType": "education"}).Code)

	rec = s.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(s.T(), http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `citizen_applications_submitted_total{service_type="education"} 1`)
}
