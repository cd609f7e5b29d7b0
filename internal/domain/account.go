package domain

import (
	"time"
)

// Account represents a registered account on the marketplace.
type Account struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	FullName      string    `json:"full_name"`
	Phone         string    `json:"phone,omitempty"`
	Role          string    `json:"role"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	IsActive      bool      `json:"is_active"`
	EmailVerified bool      `json:"email_verified"`
	OAuthProvider string    `json:"oauth_provider,omitempty"`
	OAuthID       string    `json:"oauth_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Address is an account's delivery address. Vietnamese addresses are
// structured as street / ward / district / city.
type Address struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	Street    string    `json:"street"`
	Ward      string    `json:"ward"`
	District  string    `json:"district"`
	City      string    `json:"city"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Verification purposes for account tokens.
const (
	VerifyPurposeRegister      = "register"
	VerifyPurposeResetPassword = "reset-password"
)

// VerifyToken is a single-use token mailed to an account for registration
// confirmation or password reset.
type VerifyToken struct {
	ID        string     `json:"id"`
	AccountID string     `json:"account_id"`
	Token     string     `json:"-"`
	Purpose   string     `json:"purpose"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Expired reports whether the token is past its expiry at the given instant.
func (t *VerifyToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Used reports whether the token has already been consumed.
func (t *VerifyToken) Used() bool {
	return t.UsedAt != nil
}

// RefreshToken is a stored refresh token for an account session.
type RefreshToken struct {
	ID        string     `json:"id"`
	AccountID string     `json:"account_id"`
	TokenHash string     `json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// TokenPair holds an access and refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
