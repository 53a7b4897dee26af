package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/notehive/core/internal/application/services"
	"github.com/notehive/core/internal/domain/entities"
	"github.com/notehive/core/internal/infrastructure/logger"
	"github.com/notehive/core/internal/ports"
)

const claimsContextKey = "auth.claims"

// AuthMiddleware extracts and validates the bearer token, storing the claims
// in the request context for handlers. Rejected tokens are recorded as
// security events.
func AuthMiddleware(auth *services.AuthService, log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return respondError(c, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Authorization header is required", nil)
			}

			secLog := log.WithRequestID(c.Response().Header().Get(echo.HeaderXRequestID))

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				secLog.LogSecurityEvent("malformed_authorization_header", "", c.RealIP(), nil)
				return respondError(c, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Authorization header must be a bearer token", nil)
			}

			claims, err := auth.ValidateToken(parts[1])
			if err != nil {
				if errors.Is(err, entities.ErrTokenExpired) {
					secLog.LogSecurityEvent("expired_token", "", c.RealIP(), nil)
					return respondError(c, http.StatusUnauthorized, "TOKEN_EXPIRED", "Token has expired", nil)
				}
				secLog.LogSecurityEvent("invalid_token", "", c.RealIP(), nil)
				return respondError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid token", nil)
			}

			c.Set(claimsContextKey, claims)
			return next(c)
		}
	}
}

// currentClaims returns the authenticated identity. Routes behind
// AuthMiddleware always have one.
func currentClaims(c echo.Context) *ports.Claims {
	claims, _ := c.Get(claimsContextKey).(*ports.Claims)
	return claims
}
