package types

import "time"

// MinPasswordLength is the floor below which Register fails with
// weak_password.
const MinPasswordLength = 8

// User is an authenticated platform identity. Identity is platform-wide, not
// per-entity; the composite router always sends auth calls to its default
// backend.
type User struct {
	UserID           string    `json:"user_id"`
	Email            string    `json:"email"`
	DisplayName      string    `json:"display_name,omitempty"`
	EmailVerified    bool      `json:"email_verified"`
	TwoFactorEnabled bool      `json:"two_factor_enabled"`
	CreatedAt        time.Time `json:"created_at"`
}

// Session is an authenticated session. Token is an opaque bearer credential;
// RefreshToken may be exchanged once for a replacement session.
type Session struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	UserID       string    `json:"user_id"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// Expired reports whether the session is past its expiry at time now.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
