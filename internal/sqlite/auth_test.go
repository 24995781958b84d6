package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/ontic/pkg/types"
)

func TestRegisterAndLogin(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.Register(ctx, "Ada@Example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email, "emails are stored lowercase")

	sess, err := s.Login(ctx, "ada@example.com", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.NotEmpty(t, sess.RefreshToken)
	assert.Equal(t, u.UserID, sess.UserID)

	got, err := s.ValidateToken(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, u.UserID, got.UserID)
}

func TestRegisterRejections(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Register(ctx, "not-an-email", "correct-horse")
	assert.Equal(t, types.CodeInvalidCredentials, types.CodeOf(err))

	_, err = s.Register(ctx, "ada@example.com", "short")
	assert.Equal(t, types.CodeWeakPassword, types.CodeOf(err))

	_, err = s.Register(ctx, "ada@example.com", "correct-horse")
	require.NoError(t, err)
	_, err = s.Register(ctx, "ada@example.com", "another-pass")
	assert.Equal(t, types.CodeEmailAlreadyExists, types.CodeOf(err))
}

func TestLoginFailuresAndRateLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Login(ctx, "ghost@example.com", "whatever")
	assert.Equal(t, types.CodeUserNotFound, types.CodeOf(err))

	_, err = s.Register(ctx, "ada@example.com", "correct-horse")
	require.NoError(t, err)

	for i := 0; i < maxFailedAttempts; i++ {
		_, err = s.Login(ctx, "ada@example.com", "wrong")
		assert.Equal(t, types.CodeInvalidCredentials, types.CodeOf(err))
	}
	_, err = s.Login(ctx, "ada@example.com", "correct-horse")
	assert.Equal(t, types.CodeRateLimitExceeded, types.CodeOf(err),
		"even the right password is throttled after repeated failures")
}

func TestTokenExpiry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Register(ctx, "ada@example.com", "correct-horse")
	require.NoError(t, err)
	sess, err := s.Login(ctx, "ada@example.com", "correct-horse")
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(sessionTTL + time.Minute) }
	_, err = s.ValidateToken(ctx, sess.Token)
	assert.Equal(t, types.CodeTokenExpired, types.CodeOf(err))
}

func TestLogoutRevokesSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Register(ctx, "ada@example.com", "correct-horse")
	require.NoError(t, err)
	sess, err := s.Login(ctx, "ada@example.com", "correct-horse")
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx, sess.Token))
	_, err = s.ValidateToken(ctx, sess.Token)
	assert.Equal(t, types.CodeInvalidToken, types.CodeOf(err))

	err = s.Logout(ctx, sess.Token)
	assert.Equal(t, types.CodeInvalidToken, types.CodeOf(err))
}

func TestRefreshRotation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Register(ctx, "ada@example.com", "correct-horse")
	require.NoError(t, err)
	first, err := s.Login(ctx, "ada@example.com", "correct-horse")
	require.NoError(t, err)

	second, err := s.RefreshSession(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)

	// The old pair is dead: both its token and its refresh token.
	_, err = s.ValidateToken(ctx, first.Token)
	assert.Equal(t, types.CodeInvalidToken, types.CodeOf(err))
	_, err = s.RefreshSession(ctx, first.RefreshToken)
	assert.Equal(t, types.CodeInvalidToken, types.CodeOf(err))

	_, err = s.ValidateToken(ctx, second.Token)
	assert.NoError(t, err)
}

func TestTwoFactorFlow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.Register(ctx, "ada@example.com", "correct-horse")
	require.NoError(t, err)
	require.NoError(t, s.EnableTwoFactor(u.UserID, "424242"))

	_, err = s.Login(ctx, "ada@example.com", "correct-horse")
	require.Error(t, err)
	assert.Equal(t, types.CodeTwoFactorRequired, types.CodeOf(err))
	var ae *types.AuthError
	require.ErrorAs(t, err, &ae)
	pending := ae.UserID
	require.NotEmpty(t, pending)

	_, err = s.VerifyTwoFactor(ctx, pending, "000000")
	assert.Equal(t, types.CodeInvalid2FACode, types.CodeOf(err))

	sess, err := s.VerifyTwoFactor(ctx, pending, "424242")
	require.NoError(t, err)
	assert.Equal(t, u.UserID, sess.UserID)

	// The pending token is single-use.
	_, err = s.VerifyTwoFactor(ctx, pending, "424242")
	assert.Equal(t, types.CodeInvalidToken, types.CodeOf(err))
}

func TestEmailVerificationGate(t *testing.T) {
	s := newTestStore(t)
	s.RequireVerifiedEmail(true)
	ctx := context.Background()

	u, err := s.Register(ctx, "ada@example.com", "correct-horse")
	require.NoError(t, err)

	_, err = s.Login(ctx, "ada@example.com", "correct-horse")
	assert.Equal(t, types.CodeEmailNotVerified, types.CodeOf(err))

	require.NoError(t, s.MarkEmailVerified(u.UserID))
	_, err = s.Login(ctx, "ada@example.com", "correct-horse")
	assert.NoError(t, err)
}
