package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/maglo-api/internal/domain/entity"
	domainRepo "github.com/sangkips/maglo-api/internal/domain/repository"
)

type settingsRepository struct {
	store *Store
}

// NewSettingsRepository returns a SettingsRepository backed by store
func NewSettingsRepository(store *Store) domainRepo.SettingsRepository {
	return &settingsRepository{store: store}
}

func (r *settingsRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*entity.UserSettings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	s, ok := r.store.settings[userID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *settingsRepository) Create(ctx context.Context, settings *entity.UserSettings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if settings.ID == uuid.Nil {
		settings.ID = uuid.New()
	}
	now := time.Now().UTC()
	settings.CreatedAt, settings.UpdatedAt = now, now
	r.store.settings[settings.UserID] = *settings
	return nil
}

func (r *settingsRepository) Update(ctx context.Context, settings *entity.UserSettings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	settings.UpdatedAt = time.Now().UTC()
	r.store.settings[settings.UserID] = *settings
	return nil
}
