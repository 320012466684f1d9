package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/maglo-api/internal/domain/entity"
	domainRepo "github.com/sangkips/maglo-api/internal/domain/repository"
)

type userRepository struct {
	store *Store
}

// NewUserRepository returns a UserRepository backed by store
func NewUserRepository(store *Store) domainRepo.UserRepository {
	return &userRepository{store: store}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, u := range r.store.users {
		if strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("duplicate email %q", user.Email)
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Provider == "" {
		user.Provider = entity.ProviderLocal
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	r.store.users[user.ID] = *user
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.find(ctx, func(u entity.User) bool { return u.ID == id })
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.find(ctx, func(u entity.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *userRepository) GetByProvider(ctx context.Context, provider, providerID string) (*entity.User, error) {
	return r.find(ctx, func(u entity.User) bool {
		return u.Provider == provider && u.ProviderID != nil && *u.ProviderID == providerID
	})
}

func (r *userRepository) Update(ctx context.Context, user *entity.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	user.UpdatedAt = time.Now().UTC()
	r.store.users[user.ID] = *user
	return nil
}

func (r *userRepository) find(ctx context.Context, match func(entity.User) bool) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, u := range r.store.users {
		if match(u) {
			out := u
			return &out, nil
		}
	}
	return nil, nil
}
