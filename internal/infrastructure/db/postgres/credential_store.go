package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taskboard/authd/internal/core/domain"
)

const (
	insertAccountSQL = `INSERT INTO accounts (identifier, secret_hash) VALUES ($1, $2) RETURNING id, created_at`
	findAccountSQL   = `SELECT id, identifier, secret_hash, created_at FROM accounts WHERE identifier = $1`
)

// poolIface is the subset of *pgxpool.Pool used by the store; pgxmock
// satisfies it in tests.
type poolIface interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// CredentialStore persists accounts in PostgreSQL. Identifier uniqueness is
// enforced by the accounts_identifier_key constraint.
type CredentialStore struct {
	pool poolIface
}

func NewCredentialStore(pool poolIface) *CredentialStore {
	return &CredentialStore{pool: pool}
}

func (s *CredentialStore) Create(ctx context.Context, identifier, secretHash string) (*domain.Account, error) {
	if identifier == "" {
		return nil, domain.ErrInvalidIdentifier
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var (
		id        int64
		createdAt time.Time
	)
	err := s.pool.QueryRow(ctx, insertAccountSQL, identifier, secretHash).Scan(&id, &createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, domain.ErrDuplicateIdentifier
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}

	return &domain.Account{
		ID:         strconv.FormatInt(id, 10),
		Identifier: identifier,
		SecretHash: secretHash,
		CreatedAt:  createdAt.UTC(),
	}, nil
}

func (s *CredentialStore) FindByIdentifier(ctx context.Context, identifier string) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var (
		id  int64
		acc domain.Account
	)
	err := s.pool.QueryRow(ctx, findAccountSQL, identifier).Scan(&id, &acc.Identifier, &acc.SecretHash, &acc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}

	acc.ID = strconv.FormatInt(id, 10)
	acc.CreatedAt = acc.CreatedAt.UTC()
	return &acc, nil
}

func (s *CredentialStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
