package model

import "time"

// User types accepted at registration.  A citizen submits applications;
// a department user reviews applications of one service type.
const (
	UserTypeCitizen    = "citizen"
	UserTypeDepartment = "department"
)

// User represents an account as stored in the `users` table.  The
// identifier is the login key (Aadhaar-style number for citizens,
// employee code for officers) and is unique across all users.  Users
// are never hard-deleted; IsActive switches an account off.
//
// Fields:
//  ID           – primary key identifier (UUID).
//  UserType     – citizen or department.
//  Identifier   – unique login key.
//  PasswordHash – bcrypt hashed password.
//  FullName     – display name, used as the issuing officer's name.
//  MobileNumber – optional contact number.
//  Email        – optional contact address.
//  Department   – service type handled by the officer (department users only).
//  IsActive     – whether the account may log in.
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           string    `json:"id"`                   // users.id
	UserType     string    `json:"userType"`             // users.user_type
	Identifier   string    `json:"identifier"`           // users.identifier
	PasswordHash string    `json:"-"`                    // users.password_hash
	FullName     string    `json:"fullName"`             // users.full_name
	MobileNumber string    `json:"mobileNumber"`         // users.mobile_number
	Email        string    `json:"email"`                // users.email
	Department   string    `json:"department,omitempty"` // users.department (nullable)
	IsActive     bool      `json:"isActive"`             // users.is_active
	CreatedAt    time.Time `json:"createdAt"`            // users.created_at
}

// DisplayName returns the name printed as signatory, falling back to the
// identifier when no full name was registered.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Identifier
}

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is never stored; only its SHA‑256 hash.
type RefreshToken struct {
	UserID    string     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
}
