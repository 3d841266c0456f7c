package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/citizen-services/internal/model"
	"github.com/iliyamo/citizen-services/internal/utils"
)

// AuthConfig carries the token and hashing settings.
type AuthConfig struct {
	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int
}

// Registration is a sign-up request.
type Registration struct {
	UserType     string `json:"userType"`
	Identifier   string `json:"identifier"`
	Password     string `json:"password"`
	FullName     string `json:"fullName"`
	MobileNumber string `json:"mobileNumber"`
	Email        string `json:"email"`
	Department   string `json:"department"`
}

// Tokens is the result of a login or refresh.
type Tokens struct {
	AccessToken      string     `json:"access_token"`
	AccessExpiresAt  time.Time  `json:"access_expires_at"`
	RefreshToken     string     `json:"refresh_token"`
	RefreshExpiresAt time.Time  `json:"refresh_expires_at"`
	User             model.User `json:"user"`
}

// AuthService registers users and issues access and refresh tokens.
type AuthService struct {
	users  UserRepository
	tokens TokenStore
	cfg    AuthConfig
	logger *slog.Logger
	now    func() time.Time
}

func NewAuthService(users UserRepository, tokens TokenStore, cfg AuthConfig, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{users: users, tokens: tokens, cfg: cfg, logger: logger, now: time.Now}
}

// Register creates an active user.  Department users must name a known
// department; citizens never carry one.
func (s *AuthService) Register(ctx context.Context, r Registration) (model.User, error) {
	u := model.User{
		ID:           uuid.NewString(),
		UserType:     strings.ToLower(strings.TrimSpace(r.UserType)),
		Identifier:   strings.TrimSpace(r.Identifier),
		FullName:     strings.TrimSpace(r.FullName),
		MobileNumber: strings.TrimSpace(r.MobileNumber),
		Email:        strings.ToLower(strings.TrimSpace(r.Email)),
		IsActive:     true,
		CreatedAt:    s.now().UTC().Truncate(time.Millisecond),
	}
	if u.UserType == "" {
		u.UserType = model.UserTypeCitizen
	}
	switch u.UserType {
	case model.UserTypeCitizen:
	case model.UserTypeDepartment:
		u.Department = strings.ToLower(strings.TrimSpace(r.Department))
		if !model.IsKnownServiceType(u.Department) {
			return model.User{}, validation("unknown department %q", r.Department)
		}
	default:
		return model.User{}, validation("unknown user type %q", r.UserType)
	}
	if u.Identifier == "" {
		return model.User{}, validation("identifier is required")
	}
	if len(u.Identifier) > 64 {
		return model.User{}, validation("identifier is too long")
	}
	if err := utils.CheckPasswordPolicy(r.Password); err != nil {
		return model.User{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	hash, err := utils.HashPassword(r.Password, s.cfg.BcryptCost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash

	if err := s.users.Create(ctx, u); err != nil {
		return model.User{}, storeErr("identifier "+u.Identifier, err)
	}
	s.logger.InfoContext(ctx, "user registered", "user_id", u.ID, "user_type", u.UserType, "department", u.Department)
	return u, nil
}

// Login checks the identifier, password, user type and active flag.  An
// empty userType matches any type.
func (s *AuthService) Login(ctx context.Context, identifier, password, userType string) (Tokens, error) {
	u, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(storeErr("", err), ErrNotFound) {
			return Tokens{}, ErrInvalidCredentials
		}
		return Tokens{}, storeErr("load user", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return Tokens{}, ErrInvalidCredentials
	}
	if userType = strings.ToLower(strings.TrimSpace(userType)); userType != "" && userType != u.UserType {
		return Tokens{}, ErrInvalidCredentials
	}
	if !u.IsActive {
		return Tokens{}, ErrInactiveAccount
	}
	return s.issue(ctx, u)
}

// Refresh rotates a refresh token: the old one is revoked and a new pair
// is issued.
func (s *AuthService) Refresh(ctx context.Context, rawRefresh string) (Tokens, error) {
	hash := utils.HashRefreshRaw(rawRefresh)
	userID, err := s.tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		if errors.Is(storeErr("", err), ErrNotFound) {
			return Tokens{}, ErrInvalidCredentials
		}
		return Tokens{}, storeErr("validate refresh token", err)
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return Tokens{}, ErrInvalidCredentials
	}
	if !u.IsActive {
		return Tokens{}, ErrInactiveAccount
	}
	if err := s.tokens.RevokeByHash(ctx, hash); err != nil {
		return Tokens{}, fmt.Errorf("revoke refresh token: %w", err)
	}
	return s.issue(ctx, u)
}

// Logout revokes a refresh token.  Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, rawRefresh string) error {
	if err := s.tokens.RevokeByHash(ctx, utils.HashRefreshRaw(rawRefresh)); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// LogoutAll revokes every refresh token of userID.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	s.logger.InfoContext(ctx, "all sessions revoked", "user_id", userID)
	return nil
}

// Me returns the user behind an access token.
func (s *AuthService) Me(ctx context.Context, userID string) (model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.User{}, storeErr("user "+userID, err)
	}
	return u, nil
}

func (s *AuthService) issue(ctx context.Context, u model.User) (Tokens, error) {
	at, err := utils.NewAccessToken(s.cfg.JWTSecret, utils.AccessClaims{
		UserID:     u.ID,
		Role:       u.UserType,
		Department: u.Department,
		Name:       u.DisplayName(),
	}, s.cfg.AccessTTLMin)
	if err != nil {
		return Tokens{}, fmt.Errorf("sign access token: %w", err)
	}
	rt, err := utils.NewRefreshToken(s.cfg.RefreshTTLDays)
	if err != nil {
		return Tokens{}, fmt.Errorf("generate refresh token: %w", err)
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(rt.Raw), rt.Exp); err != nil {
		return Tokens{}, fmt.Errorf("store refresh token: %w", err)
	}
	return Tokens{
		AccessToken:      at.Token,
		AccessExpiresAt:  at.Exp,
		RefreshToken:     rt.Raw,
		RefreshExpiresAt: rt.Exp,
		User:             u,
	}, nil
}

// Demo account passwords.
const (
	DemoCitizenPassword = "password123"
	DemoOfficerPassword = "admin123"
)

// demoUsers mirrors the accounts the portal ships with: one citizen and
// one officer per department.
var demoUsers = []Registration{
	{UserType: model.UserTypeCitizen, Identifier: "1234-5678-9012", Password: DemoCitizenPassword, FullName: "Suresh Babu", MobileNumber: "9876543210", Email: "suresh@example.com"},
	{UserType: model.UserTypeDepartment, Identifier: "REV001", Password: DemoOfficerPassword, FullName: "Rajesh Kumar", MobileNumber: "9876543211", Email: "rajesh@tn.gov.in", Department: model.ServiceRevenue},
	{UserType: model.UserTypeDepartment, Identifier: "EDU001", Password: DemoOfficerPassword, FullName: "Priya Sharma", MobileNumber: "9876543212", Email: "priya@tn.gov.in", Department: model.ServiceEducation},
	{UserType: model.UserTypeDepartment, Identifier: "NM001", Password: DemoOfficerPassword, FullName: "Arjun Patel", MobileNumber: "9876543213", Email: "arjun@tn.gov.in", Department: model.ServiceNaanMudhalvan},
}

// SeedDemoUsers registers the demo accounts that do not exist yet and
// returns how many were created.
func (s *AuthService) SeedDemoUsers(ctx context.Context) (int, error) {
	created := 0
	for _, r := range demoUsers {
		if _, err := s.Register(ctx, r); err != nil {
			if errors.Is(err, ErrAlreadyExists) {
				continue
			}
			return created, fmt.Errorf("seed %s: %w", r.Identifier, err)
		}
		created++
	}
	return created, nil
}
