package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/maglo-api/internal/domain/entity"
	domainRepo "github.com/sangkips/maglo-api/internal/domain/repository"
)

type idempotencyRepository struct {
	store *Store
}

// NewIdempotencyRepository returns an IdempotencyRepository backed by store
func NewIdempotencyRepository(store *Store) domainRepo.IdempotencyRepository {
	return &idempotencyRepository{store: store}
}

func idempotencyID(userID uuid.UUID, key string) string {
	return userID.String() + "/" + key
}

func (r *idempotencyRepository) GetByKey(ctx context.Context, key string, userID uuid.UUID) (*entity.IdempotencyKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	ikey, ok := r.store.idempotency[idempotencyID(userID, key)]
	if !ok {
		return nil, nil
	}
	return &ikey, nil
}

func (r *idempotencyRepository) Create(ctx context.Context, ikey *entity.IdempotencyKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if ikey.CreatedAt.IsZero() {
		ikey.CreatedAt = time.Now().UTC()
	}
	id := idempotencyID(ikey.UserID, ikey.Key)
	if existing, exists := r.store.idempotency[id]; exists && !existing.IsExpiredAt(ikey.CreatedAt) {
		return domainRepo.ErrIdempotencyKeyInUse
	}
	if ikey.ID == uuid.Nil {
		ikey.ID = uuid.New()
	}
	r.store.idempotency[id] = *ikey
	return nil
}

func (r *idempotencyRepository) Complete(ctx context.Context, key string, userID uuid.UUID, code int, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	id := idempotencyID(userID, key)
	if ikey, ok := r.store.idempotency[id]; ok {
		ikey.ResponseCode = code
		ikey.ResponseBody = body
		r.store.idempotency[id] = ikey
	}
	return nil
}

func (r *idempotencyRepository) Release(ctx context.Context, key string, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	id := idempotencyID(userID, key)
	if ikey, ok := r.store.idempotency[id]; ok && ikey.InProgress() {
		delete(r.store.idempotency, id)
	}
	return nil
}

func (r *idempotencyRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var removed int64
	for id, ikey := range r.store.idempotency {
		if ikey.ExpiresAt.Before(now) {
			delete(r.store.idempotency, id)
			removed++
		}
	}
	return removed, nil
}
