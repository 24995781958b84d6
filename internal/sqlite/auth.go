package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
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

const userColumns = "user_id, email, password_hash, display_name, email_verified, two_factor_code, failed_attempts, created_at"

// userRow is the stored identity record. The credential hash never leaves
// the adapter.
type userRow struct {
	types.User
	passwordHash   []byte
	twoFactorCode  string
	failedAttempts int
}

func hydrateUser(row rowScanner) (*userRow, error) {
	var u userRow
	var hash, createdAt string
	var verified int
	err := row.Scan(&u.UserID, &u.Email, &hash, &u.DisplayName, &verified,
		&u.twoFactorCode, &u.failedAttempts, &createdAt)
	if err != nil {
		return nil, err
	}
	u.passwordHash = []byte(hash)
	u.EmailVerified = verified != 0
	u.TwoFactorEnabled = u.twoFactorCode != ""
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

func (s *Store) userByEmail(ctx context.Context, email string) (*userRow, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ?", email)
	return hydrateUser(row)
}

func (s *Store) userByID(ctx context.Context, id string) (*userRow, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE user_id = ?", id)
	return hydrateUser(row)
}

// EnableTwoFactor stores a verification code for the user; subsequent logins
// return two_factor_required until VerifyTwoFactor is called.
func (s *Store) EnableTwoFactor(userID, code string) error {
	res, err := s.db.Exec(
		"UPDATE users SET two_factor_code = ? WHERE user_id = ?", code, userID)
	if err != nil {
		return types.NewQueryFailed("enabling two-factor", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.NewAuthError(types.CodeUserNotFound, "no such user")
	}
	return nil
}

// MarkEmailVerified flips the verification flag for the user.
func (s *Store) MarkEmailVerified(userID string) error {
	res, err := s.db.Exec(
		"UPDATE users SET email_verified = 1 WHERE user_id = ?", userID)
	if err != nil {
		return types.NewQueryFailed("marking email verified", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.NewAuthError(types.CodeUserNotFound, "no such user")
	}
	return nil
}

// Register creates a new identity. Passwords below MinPasswordLength fail
// with weak_password; duplicate emails with email_already_exists.
func (s *Store) Register(ctx context.Context, email, password string) (*types.User, error) {
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

	u := types.User{
		UserID:    s.newID(),
		Email:     email,
		CreatedAt: s.now().UTC(),
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users (user_id, email, password_hash, created_at) VALUES (?, ?, ?, ?)",
		u.UserID, u.Email, string(hash), formatTime(u.CreatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, types.NewAuthError(types.CodeEmailAlreadyExists, "email already registered")
		}
		return nil, types.NewQueryFailed("persisting user", err)
	}
	return &u, nil
}

// Login verifies credentials and opens a session. Users with two-factor
// enabled receive two_factor_required carrying a pending token instead.
func (s *Store) Login(ctx context.Context, email, password string) (*types.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.userByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NewAuthError(types.CodeUserNotFound, "no account for this email")
		}
		return nil, types.NewQueryFailed("reading user", err)
	}
	if u.failedAttempts >= maxFailedAttempts {
		return nil, types.NewAuthError(types.CodeRateLimitExceeded, "too many failed attempts; wait and retry")
	}

	if err := bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)); err != nil {
		_, _ = s.db.ExecContext(ctx,
			"UPDATE users SET failed_attempts = failed_attempts + 1 WHERE user_id = ?", u.UserID)
		return nil, types.NewAuthError(types.CodeInvalidCredentials, "wrong email or password")
	}
	if u.failedAttempts > 0 {
		_, _ = s.db.ExecContext(ctx,
			"UPDATE users SET failed_attempts = 0 WHERE user_id = ?", u.UserID)
	}

	if s.requireVerified && !u.EmailVerified {
		return nil, types.NewAuthError(types.CodeEmailNotVerified, "confirm your email before logging in")
	}

	if u.TwoFactorEnabled {
		pending := pendingTokenPrefix + randomHex(16)
		_, err := s.db.ExecContext(ctx,
			"INSERT INTO pending_logins (pending_token, user_id, created_at) VALUES (?, ?, ?)",
			pending, u.UserID, formatTime(s.now().UTC()))
		if err != nil {
			return nil, types.NewQueryFailed("persisting pending login", err)
		}
		e := types.NewAuthError(types.CodeTwoFactorRequired, "two-factor code required")
		e.UserID = pending
		return nil, e
	}

	return s.openSession(ctx, u.UserID)
}

// Logout revokes the session for the given token. Unknown tokens fail with
// invalid_token.
func (s *Store) Logout(ctx context.Context, token string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
	if err != nil {
		return types.NewQueryFailed("revoking session", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.NewAuthError(types.CodeInvalidToken, "unknown session token")
	}
	return nil
}

// ValidateToken resolves a session token to its user.
func (s *Store) ValidateToken(ctx context.Context, token string) (*types.User, error) {
	var userID, expiresAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT user_id, expires_at FROM sessions WHERE token = ?", token).
		Scan(&userID, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.NewAuthError(types.CodeInvalidToken, "unknown session token")
	} else if err != nil {
		return nil, types.NewQueryFailed("reading session", err)
	}
	if s.now().After(parseTime(expiresAt)) {
		return nil, types.NewAuthError(types.CodeTokenExpired, "session has expired")
	}

	u, err := s.userByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NewAuthError(types.CodeUserNotFound, "session user no longer exists")
		}
		return nil, types.NewQueryFailed("reading session user", err)
	}
	out := u.User
	return &out, nil
}

// RefreshSession rotates a refresh token for a new session. The old session
// is revoked; a refresh token is single-use.
func (s *Store) RefreshSession(ctx context.Context, refreshToken string) (*types.Session, error) {
	var userID string
	err := s.db.QueryRowContext(ctx,
		"SELECT user_id FROM sessions WHERE refresh_token = ?", refreshToken).
		Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.NewAuthError(types.CodeInvalidToken, "unknown refresh token")
	} else if err != nil {
		return nil, types.NewQueryFailed("reading session", err)
	}

	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE refresh_token = ?", refreshToken); err != nil {
		return nil, types.NewQueryFailed("revoking refreshed session", err)
	}
	return s.openSession(ctx, userID)
}

// VerifyTwoFactor completes a pending two-factor login.
func (s *Store) VerifyTwoFactor(ctx context.Context, pendingToken, code string) (*types.Session, error) {
	var userID string
	err := s.db.QueryRowContext(ctx,
		"SELECT user_id FROM pending_logins WHERE pending_token = ?", pendingToken).
		Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.NewAuthError(types.CodeInvalidToken, "unknown pending login")
	} else if err != nil {
		return nil, types.NewQueryFailed("reading pending login", err)
	}

	u, err := s.userByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.NewAuthError(types.CodeUserNotFound, "pending login user no longer exists")
		}
		return nil, types.NewQueryFailed("reading pending login user", err)
	}
	if u.twoFactorCode != code {
		return nil, types.NewAuthError(types.CodeInvalid2FACode, "wrong verification code")
	}
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM pending_logins WHERE pending_token = ?", pendingToken); err != nil {
		return nil, types.NewQueryFailed("clearing pending login", err)
	}
	return s.openSession(ctx, userID)
}

// openSession mints a session pair and persists it.
func (s *Store) openSession(ctx context.Context, userID string) (*types.Session, error) {
	now := s.now().UTC()
	sess := &types.Session{
		Token:        randomHex(32),
		RefreshToken: randomHex(32),
		UserID:       userID,
		ExpiresAt:    now.Add(sessionTTL),
		CreatedAt:    now,
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (token, refresh_token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?, ?)",
		sess.Token, sess.RefreshToken, sess.UserID,
		formatTime(sess.ExpiresAt), formatTime(sess.CreatedAt))
	if err != nil {
		return nil, types.NewQueryFailed("persisting session", err)
	}
	return sess, nil
}

// randomHex returns n random bytes hex-encoded.
func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic("entropy source unavailable: " + err.Error())
	}
	return hex.EncodeToString(buf)
}
