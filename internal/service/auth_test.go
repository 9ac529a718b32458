package service

import (
	"context"
	"crypto/rand"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellapp/inkwell-server/internal/auth"
	domainerrors "github.com/inkwellapp/inkwell-server/internal/errors"
)

func newTestAuthService(t *testing.T, env *testEnv) *AuthService {
	t.Helper()

	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	tokenService, err := auth.NewTokenService(key, 15*time.Minute, 720*time.Hour)
	require.NoError(t, err)

	return NewAuthService(env.store, tokenService, slog.New(slog.DiscardHandler))
}

func TestAuthService_Login(t *testing.T) {
	env := newTestEnv(t)
	svc := newTestAuthService(t, env)
	ctx := context.Background()

	user := seedTestUser(t, env.store, "Jane Doe", "jane@example.com")

	resp, err := svc.Login(ctx, LoginRequest{
		Email:    "jane@example.com",
		Password: "correct horse battery staple",
	})
	require.NoError(t, err)

	assert.Equal(t, user.ID, resp.User.ID)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.NotEmpty(t, resp.SessionID)

	verified, claims, err := svc.VerifyAccessToken(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, verified.ID)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "jane@example.com", claims.Email)
}

func TestAuthService_Login_BadCredentials(t *testing.T) {
	env := newTestEnv(t)
	svc := newTestAuthService(t, env)
	ctx := context.Background()

	seedTestUser(t, env.store, "Jane Doe", "jane@example.com")

	_, err := svc.Login(ctx, LoginRequest{
		Email:    "jane@example.com",
		Password: "wrong password",
	})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidCredentials))

	// Unknown email fails the same way, so the response doesn't reveal
	// which emails have accounts.
	_, err = svc.Login(ctx, LoginRequest{
		Email:    "nobody@example.com",
		Password: "wrong password",
	})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidCredentials))
}

func TestAuthService_Login_RateLimited(t *testing.T) {
	env := newTestEnv(t)
	svc := newTestAuthService(t, env)
	ctx := context.Background()

	seedTestUser(t, env.store, "Jane Doe", "jane@example.com")

	req := LoginRequest{
		Email:     "jane@example.com",
		Password:  "wrong password",
		IPAddress: "203.0.113.7",
	}

	// Burn through the burst allowance.
	var rateLimited bool
	for range loginRateBurst + 2 {
		if _, err := svc.Login(ctx, req); domainerrors.Is(err, domainerrors.ErrRateLimited) {
			rateLimited = true
			break
		}
	}
	assert.True(t, rateLimited)

	// A different client IP is unaffected.
	req.IPAddress = "198.51.100.2"
	req.Password = "correct horse battery staple"
	_, err := svc.Login(ctx, req)
	require.NoError(t, err)
}

func TestAuthService_RefreshTokens_Rotation(t *testing.T) {
	env := newTestEnv(t)
	svc := newTestAuthService(t, env)
	ctx := context.Background()

	seedTestUser(t, env.store, "Jane Doe", "jane@example.com")

	login, err := svc.Login(ctx, LoginRequest{
		Email:    "jane@example.com",
		Password: "correct horse battery staple",
	})
	require.NoError(t, err)

	refreshed, err := svc.RefreshTokens(ctx, RefreshRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.Equal(t, login.SessionID, refreshed.SessionID)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The rotated-out token no longer works.
	_, err = svc.RefreshTokens(ctx, RefreshRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrUnauthorized))
}

func TestAuthService_Logout(t *testing.T) {
	env := newTestEnv(t)
	svc := newTestAuthService(t, env)
	ctx := context.Background()

	seedTestUser(t, env.store, "Jane Doe", "jane@example.com")

	login, err := svc.Login(ctx, LoginRequest{
		Email:    "jane@example.com",
		Password: "correct horse battery staple",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, login.SessionID))

	_, err = svc.RefreshTokens(ctx, RefreshRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)

	// Logout is idempotent.
	require.NoError(t, svc.Logout(ctx, login.SessionID))
}
