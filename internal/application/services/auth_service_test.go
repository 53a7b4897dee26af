package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notehive/core/internal/domain/entities"
	"github.com/notehive/core/internal/infrastructure/logger"
	"github.com/notehive/core/internal/ports"
)

func newAuthService() (*AuthService, *fakeUserRepo, *fakeAuthRepo) {
	userRepo := newFakeUserRepo()
	authRepo := newFakeAuthRepo()
	svc := NewAuthService(userRepo, authRepo, testConfig(), logger.NewNop())
	return svc, userRepo, authRepo
}

func registerTestUser(t *testing.T, svc *AuthService) *ports.AuthResponse {
	t.Helper()
	resp, err := svc.Register(context.Background(), &ports.RegisterRequest{
		Email:    "ada@example.com",
		Password: "password1",
		Name:     "Ada Lovelace",
	})
	require.NoError(t, err)
	return resp
}

func TestAuthService_RegisterIssuesValidTokens(t *testing.T) {
	svc, _, _ := newAuthService()
	resp := registerTestUser(t, svc)

	require.NotEmpty(t, resp.Token)
	require.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "Ada Lovelace", claims.Name)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthService()
	registerTestUser(t, svc)

	_, err := svc.Register(context.Background(), &ports.RegisterRequest{
		Email:    "ada@example.com",
		Password: "password2",
		Name:     "Imposter",
	})
	assert.ErrorIs(t, err, entities.ErrUserAlreadyExists)
}

func TestAuthService_Login(t *testing.T) {
	svc, _, _ := newAuthService()
	registerTestUser(t, svc)
	ctx := context.Background()

	resp, err := svc.Login(ctx, &ports.LoginRequest{Email: "ada@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.NotNil(t, resp.User.LastLoginAt)

	_, err = svc.Login(ctx, &ports.LoginRequest{Email: "ada@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, entities.ErrInvalidCredentials)

	// Unknown accounts answer exactly like a wrong password.
	_, err = svc.Login(ctx, &ports.LoginRequest{Email: "nobody@example.com", Password: "password1"})
	assert.ErrorIs(t, err, entities.ErrInvalidCredentials)
}

func TestAuthService_RefreshRotation(t *testing.T) {
	svc, _, _ := newAuthService()
	first := registerTestUser(t, svc)
	ctx := context.Background()

	second, err := svc.RefreshToken(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The consumed token is revoked and cannot be replayed.
	_, err = svc.RefreshToken(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, entities.ErrInvalidToken)

	_, err = svc.RefreshToken(ctx, second.RefreshToken)
	assert.NoError(t, err)
}

func TestAuthService_LogoutRevokesAllSessions(t *testing.T) {
	svc, _, _ := newAuthService()
	resp := registerTestUser(t, svc)
	ctx := context.Background()

	second, err := svc.Login(ctx, &ports.LoginRequest{Email: "ada@example.com", Password: "password1"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, resp.User.ID))

	_, err = svc.RefreshToken(ctx, resp.RefreshToken)
	assert.ErrorIs(t, err, entities.ErrInvalidToken)
	_, err = svc.RefreshToken(ctx, second.RefreshToken)
	assert.ErrorIs(t, err, entities.ErrInvalidToken)
}

func TestAuthService_EmailCaseInsensitive(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()

	resp, err := svc.Register(ctx, &ports.RegisterRequest{
		Email:    "Ada@Example.COM",
		Password: "password1",
		Name:     "Ada Lovelace",
	})
	require.NoError(t, err)

	// The address is stored in canonical form.
	assert.Equal(t, "ada@example.com", resp.User.Email)

	// Either spelling signs in.
	_, err = svc.Login(ctx, &ports.LoginRequest{Email: "ada@example.com", Password: "password1"})
	assert.NoError(t, err)
	_, err = svc.Login(ctx, &ports.LoginRequest{Email: "ADA@example.com", Password: "password1"})
	assert.NoError(t, err)

	// And re-registering under different casing is still a duplicate.
	_, err = svc.Register(ctx, &ports.RegisterRequest{
		Email:    "aDa@eXample.com",
		Password: "password2",
		Name:     "Imposter",
	})
	assert.ErrorIs(t, err, entities.ErrUserAlreadyExists)
}

func TestAuthService_ValidateToken_Garbage(t *testing.T) {
	svc, _, _ := newAuthService()

	_, err := svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, entities.ErrInvalidToken)
}

func TestAuthService_InvitationTokenRoundTrip(t *testing.T) {
	svc, _, _ := newAuthService()

	token, err := svc.GenerateInvitationToken()
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.NoError(t, svc.VerifyInvitationToken(token))

	// Tokens are single-purpose: an access token is not an invitation token.
	resp := registerTestUser(t, svc)
	assert.ErrorIs(t, svc.VerifyInvitationToken(resp.Token), entities.ErrInvalidToken)

	assert.ErrorIs(t, svc.VerifyInvitationToken(token+"tampered"), entities.ErrInvalidToken)
}
