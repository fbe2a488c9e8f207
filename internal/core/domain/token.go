package domain

import "time"

// SessionToken is a freshly minted, signed bearer token.
type SessionToken struct {
	Token     string    `json:"token"`
	AccountID string    `json:"-"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Claims is the data recovered from a token that passed validation.
type Claims struct {
	AccountID string    `json:"account_id"`
	TokenID   string    `json:"token_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
