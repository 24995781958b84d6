package memstore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mesh-intelligence/ontic/pkg/types"
)

// Session lifetimes and login throttling.
const (
	sessionTTL         = 24 * time.Hour
	maxFailedAttempts  = 5
	pendingTokenPrefix = "2fa-"
)

// user is the stored identity record. The credential hash never leaves the
// adapter.
type user struct {
	types.User
	passwordHash  []byte
	twoFactorCode string
}

type session struct {
	types.Session
	revoked bool
}

// RequireVerifiedEmail makes Login fail with email_not_verified for users
// who have not confirmed their address.
func (s *Store) RequireVerifiedEmail(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireVerified = on
}

// EnableTwoFactor stores a verification code for the user; subsequent logins
// return two_factor_required until VerifyTwoFactor is called.
func (s *Store) EnableTwoFactor(userID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return types.NewAuthError(types.CodeUserNotFound, "no such user")
	}
	u.TwoFactorEnabled = true
	u.twoFactorCode = code
	return nil
}

// MarkEmailVerified flips the verification flag for the user.
func (s *Store) MarkEmailVerified(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return types.NewAuthError(types.CodeUserNotFound, "no such user")
	}
	u.EmailVerified = true
	return nil
}

// Register creates a new identity. Passwords below MinPasswordLength fail
// with weak_password; duplicate emails with email_already_exists.
func (s *Store) Register(_ context.Context, email, password string) (*types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, types.NewAuthError(types.CodeInvalidCredentials, "malformed email address")
	}
	if len(password) < types.MinPasswordLength {
		return nil, types.NewAuthError(types.CodeWeakPassword, "password is too short")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, &types.AuthError{Code: types.CodeNetworkError, Message: "hashing password", Cause: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByEmail[email]; exists {
		return nil, types.NewAuthError(types.CodeEmailAlreadyExists, "email already registered")
	}

	u := &user{
		User: types.User{
			UserID:    s.newID(),
			Email:     email,
			CreatedAt: s.now().UTC(),
		},
		passwordHash: hash,
	}
	s.users[u.UserID] = u
	s.usersByEmail[email] = u

	out := u.User
	return &out, nil
}

// Login verifies credentials and opens a session. Users with two-factor
// enabled receive two_factor_required carrying a pending token instead.
func (s *Store) Login(_ context.Context, email, password string) (*types.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failedAttempts[email] >= maxFailedAttempts {
		return nil, types.NewAuthError(types.CodeRateLimitExceeded, "too many failed attempts; wait and retry")
	}

	u, ok := s.usersByEmail[email]
	if !ok {
		return nil, types.NewAuthError(types.CodeUserNotFound, "no account for this email")
	}
	if err := bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)); err != nil {
		s.failedAttempts[email]++
		return nil, types.NewAuthError(types.CodeInvalidCredentials, "wrong email or password")
	}
	delete(s.failedAttempts, email)

	if s.requireVerified && !u.EmailVerified {
		return nil, types.NewAuthError(types.CodeEmailNotVerified, "confirm your email before logging in")
	}

	if u.TwoFactorEnabled {
		pending := pendingTokenPrefix + randomHex(16)
		s.pendingLogins[pending] = u.UserID
		e := types.NewAuthError(types.CodeTwoFactorRequired, "two-factor code required")
		e.UserID = pending
		return nil, e
	}

	sess := s.openSessionLocked(u.UserID)
	out := sess.Session
	return &out, nil
}

// Logout revokes the session for the given token. Unknown tokens fail with
// invalid_token.
func (s *Store) Logout(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return types.NewAuthError(types.CodeInvalidToken, "unknown session token")
	}
	sess.revoked = true
	delete(s.sessions, token)
	delete(s.refreshTokens, sess.RefreshToken)
	return nil
}

// ValidateToken resolves a session token to its user.
func (s *Store) ValidateToken(_ context.Context, token string) (*types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[token]
	if !ok || sess.revoked {
		return nil, types.NewAuthError(types.CodeInvalidToken, "unknown session token")
	}
	if sess.Expired(s.now()) {
		return nil, types.NewAuthError(types.CodeTokenExpired, "session has expired")
	}
	u, ok := s.users[sess.UserID]
	if !ok {
		return nil, types.NewAuthError(types.CodeUserNotFound, "session user no longer exists")
	}
	out := u.User
	return &out, nil
}

// RefreshSession rotates a refresh token for a new session. The old session
// is revoked; a refresh token is single-use.
func (s *Store) RefreshSession(_ context.Context, refreshToken string) (*types.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.refreshTokens[refreshToken]
	if !ok {
		return nil, types.NewAuthError(types.CodeInvalidToken, "unknown refresh token")
	}
	delete(s.refreshTokens, refreshToken)
	delete(s.sessions, old.Token)

	sess := s.openSessionLocked(old.UserID)
	out := sess.Session
	return &out, nil
}

// VerifyTwoFactor completes a pending two-factor login.
func (s *Store) VerifyTwoFactor(_ context.Context, pendingToken, code string) (*types.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID, ok := s.pendingLogins[pendingToken]
	if !ok {
		return nil, types.NewAuthError(types.CodeInvalidToken, "unknown pending login")
	}
	u, ok := s.users[userID]
	if !ok {
		return nil, types.NewAuthError(types.CodeUserNotFound, "pending login user no longer exists")
	}
	if u.twoFactorCode != code {
		return nil, types.NewAuthError(types.CodeInvalid2FACode, "wrong verification code")
	}
	delete(s.pendingLogins, pendingToken)

	sess := s.openSessionLocked(userID)
	out := sess.Session
	return &out, nil
}

// openSessionLocked mints a session pair. Caller holds s.mu.
func (s *Store) openSessionLocked(userID string) *session {
	now := s.now().UTC()
	sess := &session{
		Session: types.Session{
			Token:        randomHex(32),
			RefreshToken: randomHex(32),
			UserID:       userID,
			ExpiresAt:    now.Add(sessionTTL),
			CreatedAt:    now,
		},
	}
	s.sessions[sess.Token] = sess
	s.refreshTokens[sess.RefreshToken] = sess
	return sess
}

// randomHex returns n random bytes hex-encoded.
func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic("entropy source unavailable: " + err.Error())
	}
	return hex.EncodeToString(buf)
}
