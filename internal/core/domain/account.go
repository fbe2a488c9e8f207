package domain

import (
	"strings"
	"time"
)

// Account is a stored credential record. SecretHash never leaves the
// service boundary.
type Account struct {
	ID         string    `json:"id"`
	Identifier string    `json:"identifier"`
	SecretHash string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// PublicAccountView is the caller-visible projection of an Account.
type PublicAccountView struct {
	ID         string `json:"id"`
	Identifier string `json:"identifier"`
}

// Public returns the view of the account that is safe to hand to callers.
func (a *Account) Public() PublicAccountView {
	return PublicAccountView{ID: a.ID, Identifier: a.Identifier}
}

// NormalizeIdentifier applies the fixed identifier policy: surrounding
// whitespace is dropped and matching is case-insensitive.
func NormalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}
