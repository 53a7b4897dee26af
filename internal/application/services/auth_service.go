package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/notehive/core/internal/domain/entities"
	"github.com/notehive/core/internal/infrastructure/config"
	"github.com/notehive/core/internal/infrastructure/logger"
	"github.com/notehive/core/internal/ports"
)

// AuthService handles registration, login and token lifecycle.
type AuthService struct {
	userRepo ports.UserRepository
	authRepo ports.AuthRepository
	cfg      *config.Config
	logger   *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo ports.UserRepository, authRepo ports.AuthRepository, cfg *config.Config, log *logger.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		authRepo: authRepo,
		cfg:      cfg,
		logger:   log,
	}
}

type accessClaims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

type invitationClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

const invitationTokenType = "invitation"

// Register creates an account and signs the user in.
func (s *AuthService) Register(ctx context.Context, req *ports.RegisterRequest) (*ports.AuthResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entities.User{
		ID:           uuid.New(),
		Email:        normalizeEmail(req.Email),
		Name:         req.Name,
		PasswordHash: string(hash),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.WithUserID(user.ID.String()).Infow("User registered", "email", user.Email)

	return s.issueTokens(ctx, user)
}

// Login verifies credentials and issues a token pair. A missing account and a
// wrong password are reported identically.
func (s *AuthService) Login(ctx context.Context, req *ports.LoginRequest) (*ports.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			return nil, entities.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, entities.ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.WithError(err).WithUserID(user.ID.String()).Warnw("Failed to update last login")
	} else {
		user.LastLoginAt = &now
	}

	return s.issueTokens(ctx, user)
}

// RefreshToken rotates a refresh token and issues a fresh access token.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*ports.AuthResponse, error) {
	stored, err := s.authRepo.GetRefreshToken(ctx, hashToken(refreshToken))
	if err != nil {
		return nil, err
	}

	if stored.IsRevoked() {
		return nil, entities.ErrInvalidToken
	}
	if stored.IsExpired() {
		return nil, entities.ErrTokenExpired
	}

	user, err := s.userRepo.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.authRepo.RevokeRefreshToken(ctx, stored.TokenHash); err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

// Logout revokes every refresh token the user holds, ending all sessions.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.authRepo.RevokeAllUserTokens(ctx, userID)
}

// GetUser loads the account behind a validated token.
func (s *AuthService) GetUser(ctx context.Context, userID uuid.UUID) (*entities.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// ValidateToken parses and verifies an access token.
func (s *AuthService) ValidateToken(tokenString string) (*ports.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &accessClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWT.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, entities.ErrTokenExpired
		}
		return nil, entities.ErrInvalidToken
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return nil, entities.ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, entities.ErrInvalidToken
	}

	return &ports.Claims{
		UserID: userID,
		Email:  claims.Email,
		Name:   claims.Name,
	}, nil
}

// GenerateInvitationToken mints the opaque token stored on an invitation row.
// Signing ties the token to this deployment; the row's expires_at stays the
// source of truth for expiry.
func (s *AuthService) GenerateInvitationToken() (string, error) {
	now := time.Now()
	claims := invitationClaims{
		Type: invitationTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.cfg.JWT.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWT.InvitationExpiresIn)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return "", fmt.Errorf("sign invitation token: %w", err)
	}

	return signed, nil
}

// VerifyInvitationToken checks signature and shape before the token is looked
// up in the database.
func (s *AuthService) VerifyInvitationToken(tokenString string) error {
	token, err := jwt.ParseWithClaims(tokenString, &invitationClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWT.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return entities.ErrInvitationExpired
		}
		return entities.ErrInvalidToken
	}

	claims, ok := token.Claims.(*invitationClaims)
	if !ok || !token.Valid || claims.Type != invitationTokenType {
		return entities.ErrInvalidToken
	}

	return nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *entities.User) (*ports.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := generateRefreshToken()
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(s.cfg.JWT.RefreshExpiresIn)
	if err := s.authRepo.CreateRefreshToken(ctx, user.ID, hashToken(refreshToken), expiresAt); err != nil {
		return nil, err
	}

	return &ports.AuthResponse{
		User:         user,
		Token:        accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.cfg.JWT.ExpiresIn.Seconds()),
	}, nil
}

func (s *AuthService) generateAccessToken(user *entities.User) (string, error) {
	now := time.Now()
	claims := accessClaims{
		UserID: user.ID.String(),
		Email:  user.Email,
		Name:   user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    s.cfg.JWT.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWT.ExpiresIn)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}

	return signed, nil
}

// generateRefreshToken returns a random opaque token. Only its SHA-256 hex
// digest is persisted.
func generateRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// normalizeEmail is the canonical form emails are stored and compared in.
// Lookups against the exact-match email column rely on it.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
