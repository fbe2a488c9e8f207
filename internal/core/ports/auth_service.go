package ports

import (
	"context"

	"github.com/taskboard/authd/internal/core/domain"
)

// RegisterInput is the validated request shape for registration.
type RegisterInput struct {
	Identifier string
	Secret     string
}

// LoginInput is the validated request shape for login.
type LoginInput struct {
	Identifier string
	Secret     string
}

// AuthService is the transport-facing contract of the authentication core.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (domain.PublicAccountView, error)
	Login(ctx context.Context, in LoginInput) (*domain.SessionToken, error)
	ValidateToken(token string) (*domain.Claims, error)
}
