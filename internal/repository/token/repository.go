package token

import (
	"context"
	"time"
)

// Token is an opaque bearer credential issued at login.
type Token struct {
	Token      string
	CustomerID string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// Expired reports whether the token is no longer valid at now.
func (t Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

type Repository interface {
	Create(ctx context.Context, token Token) error
	Get(ctx context.Context, token string) (*Token, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
