package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/websignapp/websign-server/internal/auth"
	domainerrors "github.com/websignapp/websign-server/internal/errors"
)

// assertErrorCode checks that err is a domain error with the given code.
func assertErrorCode(t *testing.T, err error, code domainerrors.Code) {
	t.Helper()

	require.Error(t, err)
	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, code, domainErr.Code)
}

func TestAuthService_Register_FirstUserIsRoot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, RegisterRequest{
		Email:    "owner@example.com",
		Password: "SecurePassword123!",
		Name:     "Owner",
	})
	require.NoError(t, err)

	assert.Equal(t, "owner@example.com", resp.User.Email)
	assert.Equal(t, "Owner", resp.User.DisplayName)
	assert.True(t, resp.User.IsRoot)
	assert.True(t, resp.User.IsAdmin())
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.NotEmpty(t, resp.SessionID)
	assert.Greater(t, resp.ExpiresIn, 0)
}

func TestAuthService_Register_SecondUserIsMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterRequest{
		Email:    "first@example.com",
		Password: "SecurePassword123!",
		Name:     "First",
	})
	require.NoError(t, err)

	resp, err := env.auth.Register(ctx, RegisterRequest{
		Email:    "second@example.com",
		Password: "SecurePassword123!",
		Name:     "Second",
	})
	require.NoError(t, err)

	assert.False(t, resp.User.IsRoot)
	assert.False(t, resp.User.IsAdmin())
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := RegisterRequest{
		Email:    "taken@example.com",
		Password: "SecurePassword123!",
		Name:     "User",
	}

	_, err := env.auth.Register(ctx, req)
	require.NoError(t, err)

	_, err = env.auth.Register(ctx, req)
	assertErrorCode(t, err, domainerrors.CodeAlreadyExists)
	assert.Contains(t, err.Error(), "email already in use")
}

func TestAuthService_Register_ValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{
			name: "invalid email",
			req:  RegisterRequest{Email: "not-an-email", Password: "SecurePassword123!", Name: "User"},
		},
		{
			name: "missing email",
			req:  RegisterRequest{Password: "SecurePassword123!", Name: "User"},
		},
		{
			name: "short password",
			req:  RegisterRequest{Email: "user@example.com", Password: "short", Name: "User"},
		},
		{
			name: "missing name",
			req:  RegisterRequest{Email: "user@example.com", Password: "SecurePassword123!"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(ctx, tt.req)
			assertErrorCode(t, err, domainerrors.CodeValidation)
		})
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	password := "SecurePassword123!"
	passwordHash, err := auth.HashPassword(password)
	require.NoError(t, err)

	user := createTestUser(t, env.store, "test@example.com", passwordHash)

	resp, err := env.auth.Login(ctx, LoginRequest{
		Email:    "test@example.com",
		Password: password,
		DeviceInfo: auth.DeviceInfo{
			DeviceType: "display",
			Platform:   "Web",
		},
		IPAddress: "192.168.1.1",
	})
	require.NoError(t, err)

	assert.Equal(t, user.ID, resp.User.ID)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.NotEmpty(t, resp.SessionID)
	assert.False(t, resp.User.LastLoginAt.IsZero())
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	passwordHash, err := auth.HashPassword("CorrectPassword123!")
	require.NoError(t, err)
	createTestUser(t, env.store, "test@example.com", passwordHash)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "wrong email", email: "wrong@example.com", password: "CorrectPassword123!"},
		{name: "wrong password", email: "test@example.com", password: "WrongPassword123!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Login(ctx, LoginRequest{
				Email:    tt.email,
				Password: tt.password,
			})
			assertErrorCode(t, err, domainerrors.CodeInvalidCredentials)
			assert.Contains(t, err.Error(), "invalid email or password")
		})
	}
}

func TestAuthService_Login_CaseInsensitiveEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	passwordHash, err := auth.HashPassword("SecurePassword123!")
	require.NoError(t, err)
	createTestUser(t, env.store, "mixed@example.com", passwordHash)

	resp, err := env.auth.Login(ctx, LoginRequest{
		Email:    "Mixed@Example.COM",
		Password: "SecurePassword123!",
	})
	require.NoError(t, err)
	assert.Equal(t, "mixed@example.com", resp.User.Email)
}

func TestAuthService_RefreshTokens_RotatesRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	loginResp, err := env.auth.Register(ctx, RegisterRequest{
		Email:    "rotate@example.com",
		Password: "SecurePassword123!",
		Name:     "Rotate",
	})
	require.NoError(t, err)

	refreshResp, err := env.auth.RefreshTokens(ctx, RefreshRequest{
		RefreshToken: loginResp.RefreshToken,
	})
	require.NoError(t, err)

	assert.NotEqual(t, loginResp.RefreshToken, refreshResp.RefreshToken)
	assert.Equal(t, loginResp.SessionID, refreshResp.SessionID)
	assert.Equal(t, loginResp.User.ID, refreshResp.User.ID)

	// Old refresh token is invalidated by rotation.
	_, err = env.auth.RefreshTokens(ctx, RefreshRequest{
		RefreshToken: loginResp.RefreshToken,
	})
	assertErrorCode(t, err, domainerrors.CodeTokenExpired)
}

func TestAuthService_RefreshTokens_InvalidToken(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.RefreshTokens(context.Background(), RefreshRequest{
		RefreshToken: "invalid-token-12345",
	})
	assertErrorCode(t, err, domainerrors.CodeTokenExpired)
}

func TestAuthService_RefreshTokens_ExpiredSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, RegisterRequest{
		Email:    "expired@example.com",
		Password: "SecurePassword123!",
		Name:     "Expired",
	})
	require.NoError(t, err)

	// Force the session past its expiry.
	session, err := env.store.GetSession(ctx, resp.SessionID)
	require.NoError(t, err)
	session.ExpiresAt = time.Now().Add(-time.Hour)
	require.NoError(t, env.store.UpdateSession(ctx, session))

	_, err = env.auth.RefreshTokens(ctx, RefreshRequest{
		RefreshToken: resp.RefreshToken,
	})
	assertErrorCode(t, err, domainerrors.CodeTokenExpired)
	assert.Contains(t, err.Error(), "session expired")
}

func TestAuthService_Logout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, RegisterRequest{
		Email:    "logout@example.com",
		Password: "SecurePassword123!",
		Name:     "Logout",
	})
	require.NoError(t, err)

	require.NoError(t, env.auth.Logout(ctx, resp.SessionID))

	// The refresh token no longer works.
	_, err = env.auth.RefreshTokens(ctx, RefreshRequest{
		RefreshToken: resp.RefreshToken,
	})
	assert.Error(t, err)

	// Logout is idempotent.
	assert.NoError(t, env.auth.Logout(ctx, resp.SessionID))
}

func TestAuthService_VerifyAccessToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, RegisterRequest{
		Email:    "verify@example.com",
		Password: "SecurePassword123!",
		Name:     "Verify",
	})
	require.NoError(t, err)

	user, claims, err := env.auth.VerifyAccessToken(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, "verify@example.com", claims.Email)
}

func TestAuthService_VerifyAccessToken_Invalid(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.auth.VerifyAccessToken(context.Background(), "garbage-token")
	assertErrorCode(t, err, domainerrors.CodeUnauthorized)
}

func TestAuthService_VerifyAccessToken_DeletedUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, RegisterRequest{
		Email:    "gone@example.com",
		Password: "SecurePassword123!",
		Name:     "Gone",
	})
	require.NoError(t, err)

	require.NoError(t, env.store.Users.Delete(ctx, resp.User.ID))

	_, _, err = env.auth.VerifyAccessToken(ctx, resp.AccessToken)
	assertErrorCode(t, err, domainerrors.CodeUnauthorized)
	assert.Contains(t, err.Error(), "user not found")
}

func TestAuthService_GetUser_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.GetUser(context.Background(), "user_missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.NotFound("user not found")))
}
