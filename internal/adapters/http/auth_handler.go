package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/notehive/core/internal/application/services"
	"github.com/notehive/core/internal/ports"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	auth *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register godoc
// @Summary Register a new user
// @Description Creates an account and returns a token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.RegisterRequest true "Registration data"
// @Success 201 {object} Response
// @Failure 400 {object} Response
// @Failure 409 {object} Response
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req ports.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	resp, err := h.auth.Register(c.Request().Context(), &req)
	if err != nil {
		return respondDomainError(c, err)
	}

	return respondData(c, http.StatusCreated, resp)
}

// Login godoc
// @Summary Log in
// @Description Verifies credentials and returns a token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.LoginRequest true "Credentials"
// @Success 200 {object} Response
// @Failure 401 {object} Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req ports.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	resp, err := h.auth.Login(c.Request().Context(), &req)
	if err != nil {
		return respondDomainError(c, err)
	}

	return respondData(c, http.StatusOK, resp)
}

// Refresh rotates a refresh token and returns a fresh pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req ports.RefreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	resp, err := h.auth.RefreshToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return respondDomainError(c, err)
	}

	return respondData(c, http.StatusOK, resp)
}

// Logout revokes all of the authenticated user's refresh tokens. No body is
// needed, so clients that lost their token can still log out cleanly.
func (h *AuthHandler) Logout(c echo.Context) error {
	claims := currentClaims(c)

	if err := h.auth.Logout(c.Request().Context(), claims.UserID); err != nil {
		return respondDomainError(c, err)
	}

	return respondData(c, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	claims := currentClaims(c)

	user, err := h.auth.GetUser(c.Request().Context(), claims.UserID)
	if err != nil {
		return respondDomainError(c, err)
	}

	return respondData(c, http.StatusOK, map[string]interface{}{"user": user})
}
