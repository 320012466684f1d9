package repository

import (
	"context"
	"time"
)

// SessionStore tracks access tokens that were signed out before expiring
type SessionStore interface {
	// Revoke marks tokenID as signed out until expiresAt
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
