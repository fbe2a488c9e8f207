package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskboard/authd/internal/core/domain"
)

// ClaimsKey is the echo context key holding *domain.Claims for an
// authenticated request.
const ClaimsKey = "claims"

// TokenValidator verifies a bearer token and returns its claims.
type TokenValidator interface {
	ValidateToken(token string) (*domain.Claims, error)
}

// Auth validates the bearer token and injects its claims into context. Every
// rejection carries the same 401 body; the cause is kept as the internal error.
func Auth(validator TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return unauthorized(nil)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return unauthorized(nil)
			}

			claims, err := validator.ValidateToken(strings.TrimSpace(parts[1]))
			if err != nil {
				return unauthorized(err)
			}

			c.Set(ClaimsKey, claims)
			return next(c)
		}
	}
}

func unauthorized(cause error) *echo.HTTPError {
	he := echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	if cause != nil {
		he = he.SetInternal(cause)
	}
	return he
}
