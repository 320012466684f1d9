package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/maglo-api/internal/domain/entity"
)

// ErrIdempotencyKeyInUse is returned by Create when an unexpired row already
// holds the key for that user.
var ErrIdempotencyKeyInUse = errors.New("idempotency key already in use")

// IdempotencyRepository defines the interface for idempotency key operations
type IdempotencyRepository interface {
	// GetByKey retrieves an idempotency key by its key string and user ID
	GetByKey(ctx context.Context, key string, userID uuid.UUID) (*entity.IdempotencyKey, error)
	// Create reserves the key. An expired row is replaced, a live one yields
	// ErrIdempotencyKeyInUse.
	Create(ctx context.Context, ikey *entity.IdempotencyKey) error
	// Complete stores the response for a reserved key
	Complete(ctx context.Context, key string, userID uuid.UUID, code int, body string) error
	// Release drops a reservation that never completed
	Release(ctx context.Context, key string, userID uuid.UUID) error
	// DeleteExpired removes keys that expired before now and reports how many
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
