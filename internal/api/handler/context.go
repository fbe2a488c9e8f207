package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskboard/authd/internal/api/middleware"
	"github.com/taskboard/authd/internal/core/domain"
)

// ctxClaims extracts the claims injected by the Auth middleware. Their
// absence means the route was mounted without the middleware.
func ctxClaims(c echo.Context) (*domain.Claims, error) {
	claims, _ := c.Get(middleware.ClaimsKey).(*domain.Claims)
	if claims == nil || claims.AccountID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return claims, nil
}
