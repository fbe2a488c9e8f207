// Package memory provides an in-process CredentialStore used for local
// development and tests.
package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/taskboard/authd/internal/core/domain"
)

// CredentialStore keeps accounts in a map guarded by a mutex. The lock makes
// the duplicate check and the insert a single atomic step.
type CredentialStore struct {
	mu           sync.RWMutex
	byIdentifier map[string]*domain.Account
	nextID       int64
	now          func() time.Time
}

// NewCredentialStore returns an empty store. Account ids are assigned
// sequentially starting at "1".
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{
		byIdentifier: make(map[string]*domain.Account),
		now:          time.Now,
	}
}

func (s *CredentialStore) Create(_ context.Context, identifier, secretHash string) (*domain.Account, error) {
	if identifier == "" {
		return nil, domain.ErrInvalidIdentifier
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byIdentifier[identifier]; exists {
		return nil, domain.ErrDuplicateIdentifier
	}

	s.nextID++
	account := &domain.Account{
		ID:         strconv.FormatInt(s.nextID, 10),
		Identifier: identifier,
		SecretHash: secretHash,
		CreatedAt:  s.now().UTC(),
	}
	s.byIdentifier[identifier] = account
	return cloneAccount(account), nil
}

func (s *CredentialStore) FindByIdentifier(_ context.Context, identifier string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.byIdentifier[identifier]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(account), nil
}

// Ping always succeeds.
func (s *CredentialStore) Ping(context.Context) error {
	return nil
}

// Len returns the number of stored accounts.
func (s *CredentialStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byIdentifier)
}

func cloneAccount(a *domain.Account) *domain.Account {
	clone := *a
	return &clone
}
