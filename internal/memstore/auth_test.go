package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/ontic/pkg/types"
)

func TestRegisterAndLogin(t *testing.T) {
	s := New("")
	ctx := context.Background()

	u, err := s.Register(ctx, "ada@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)

	sess, err := s.Login(ctx, "ada@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, u.UserID, sess.UserID)
	assert.NotEmpty(t, sess.Token)

	back, err := s.ValidateToken(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, u.UserID, back.UserID)
}

func TestRegisterFailures(t *testing.T) {
	s := New("")
	ctx := context.Background()

	_, err := s.Register(ctx, "ada@example.com", "short")
	assert.Equal(t, types.CodeWeakPassword, types.CodeOf(err))

	_, err = s.Register(ctx, "not-an-email", "long enough password")
	assert.Equal(t, types.CodeInvalidCredentials, types.CodeOf(err))

	_, err = s.Register(ctx, "ada@example.com", "long enough password")
	require.NoError(t, err)
	_, err = s.Register(ctx, "ADA@example.com", "long enough password")
	assert.Equal(t, types.CodeEmailAlreadyExists, types.CodeOf(err))
}

func TestLoginFailures(t *testing.T) {
	s := New("")
	ctx := context.Background()

	_, err := s.Login(ctx, "ghost@example.com", "whatever password")
	assert.Equal(t, types.CodeUserNotFound, types.CodeOf(err))

	_, err = s.Register(ctx, "ada@example.com", "long enough password")
	require.NoError(t, err)

	_, err = s.Login(ctx, "ada@example.com", "wrong password here")
	assert.Equal(t, types.CodeInvalidCredentials, types.CodeOf(err))

	// Repeated failures trip the rate limiter.
	for i := 0; i < maxFailedAttempts; i++ {
		_, _ = s.Login(ctx, "ada@example.com", "wrong password here")
	}
	_, err = s.Login(ctx, "ada@example.com", "long enough password")
	assert.Equal(t, types.CodeRateLimitExceeded, types.CodeOf(err))
}

func TestTokenExpiry(t *testing.T) {
	s := New("")
	ctx := context.Background()

	_, err := s.Register(ctx, "ada@example.com", "long enough password")
	require.NoError(t, err)
	sess, err := s.Login(ctx, "ada@example.com", "long enough password")
	require.NoError(t, err)

	s.now = func() time.Time { return sess.ExpiresAt.Add(time.Second) }
	_, err = s.ValidateToken(ctx, sess.Token)
	assert.Equal(t, types.CodeTokenExpired, types.CodeOf(err))
}

func TestRefreshRotatesSession(t *testing.T) {
	s := New("")
	ctx := context.Background()

	_, err := s.Register(ctx, "ada@example.com", "long enough password")
	require.NoError(t, err)
	sess, err := s.Login(ctx, "ada@example.com", "long enough password")
	require.NoError(t, err)

	next, err := s.RefreshSession(ctx, sess.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, sess.Token, next.Token)

	// Old tokens are dead after rotation.
	_, err = s.ValidateToken(ctx, sess.Token)
	assert.Equal(t, types.CodeInvalidToken, types.CodeOf(err))
	_, err = s.RefreshSession(ctx, sess.RefreshToken)
	assert.Equal(t, types.CodeInvalidToken, types.CodeOf(err))
}

func TestTwoFactorFlow(t *testing.T) {
	s := New("")
	ctx := context.Background()

	u, err := s.Register(ctx, "ada@example.com", "long enough password")
	require.NoError(t, err)
	require.NoError(t, s.EnableTwoFactor(u.UserID, "123456"))

	_, err = s.Login(ctx, "ada@example.com", "long enough password")
	var ae *types.AuthError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, types.CodeTwoFactorRequired, ae.Code)
	pending := ae.UserID

	_, err = s.VerifyTwoFactor(ctx, pending, "999999")
	assert.Equal(t, types.CodeInvalid2FACode, types.CodeOf(err))

	sess, err := s.VerifyTwoFactor(ctx, pending, "123456")
	require.NoError(t, err)
	assert.Equal(t, u.UserID, sess.UserID)
}

func TestEmailVerificationGate(t *testing.T) {
	s := New("")
	s.RequireVerifiedEmail(true)
	ctx := context.Background()

	u, err := s.Register(ctx, "ada@example.com", "long enough password")
	require.NoError(t, err)

	_, err = s.Login(ctx, "ada@example.com", "long enough password")
	assert.Equal(t, types.CodeEmailNotVerified, types.CodeOf(err))

	require.NoError(t, s.MarkEmailVerified(u.UserID))
	_, err = s.Login(ctx, "ada@example.com", "long enough password")
	assert.NoError(t, err)
}
