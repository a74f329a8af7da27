package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credentials holds the stored password fields of a pool record, from the
// current field to the oldest legacy one.
type Credentials struct {
	Password       *string `db:"password" json:"-"`
	LegacyPassword *string `db:"legacy_password" json:"-"`
	TempPassword   *string `db:"temp_password" json:"-"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// Identity is the normalized result of resolving a login against the pools.
type Identity struct {
	Role        UserRole `json:"role"`
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name"`
	Department  *string  `json:"department,omitempty"`
	Subjects    []string `json:"subjects,omitempty"`
	ClassName   *string  `json:"class_name,omitempty"`
	Section     *string  `json:"section,omitempty"`
	RollNumber  *string  `json:"roll_number,omitempty"`
}

// LoginResponse returns the resolved identity and an access token.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
	User        Identity  `json:"user"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID      string   `json:"user_id"`
	Role        UserRole `json:"role"`
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name"`
	jwt.RegisteredClaims
}
