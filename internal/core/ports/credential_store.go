package ports

import (
	"context"

	"github.com/taskboard/authd/internal/core/domain"
)

// CredentialStore owns the durable identifier -> secret hash mapping.
//
// Create must detect duplicates at the storage constraint level so that
// concurrent registrations of the same identifier yield exactly one success.
type CredentialStore interface {
	Create(ctx context.Context, identifier, secretHash string) (*domain.Account, error)
	FindByIdentifier(ctx context.Context, identifier string) (*domain.Account, error)
	Ping(ctx context.Context) error
}
