package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/maglo-api/internal/domain/billing"
	"github.com/sangkips/maglo-api/internal/domain/entity"
	"github.com/sangkips/maglo-api/internal/domain/repository"
)

// SettingsService handles settings-related business logic
type SettingsService struct {
	settingsRepo repository.SettingsRepository
}

// NewSettingsService creates a new settings service
func NewSettingsService(settingsRepo repository.SettingsRepository) *SettingsService {
	return &SettingsService{
		settingsRepo: settingsRepo,
	}
}

// GetSettings retrieves the caller's settings, creating defaults on first use
func (s *SettingsService) GetSettings(ctx context.Context, principal Principal) (*entity.UserSettings, error) {
	if err := requireAuth(principal); err != nil {
		return nil, err
	}
	return s.forUser(ctx, principal.UserID)
}

func (s *SettingsService) forUser(ctx context.Context, userID uuid.UUID) (*entity.UserSettings, error) {
	settings, err := s.settingsRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, storeError("load settings", err)
	}
	if settings != nil {
		return settings, nil
	}

	settings = entity.NewUserSettings(userID)
	if err := s.settingsRepo.Create(ctx, settings); err != nil {
		// a concurrent request may have created the row first
		existing, getErr := s.settingsRepo.GetByUserID(ctx, userID)
		if getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, storeError("create settings", err)
	}
	return settings, nil
}

// UpdateSettingsInput represents the input for updating settings. Nil fields
// are left unchanged.
type UpdateSettingsInput struct {
	Currency             *string
	DefaultVATPercentage *string
	BusinessName         *string
	BusinessEmail        *string
	BusinessAddress      *string
}

// UpdateSettings applies a partial update to the caller's settings
func (s *SettingsService) UpdateSettings(ctx context.Context, principal Principal, input *UpdateSettingsInput) (*entity.UserSettings, error) {
	if err := requireAuth(principal); err != nil {
		return nil, err
	}

	settings, err := s.forUser(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}

	var errs fieldErrors

	if input.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*input.Currency))
		if isCurrencyCode(currency) {
			settings.Currency = currency
		} else {
			errs.add("currency", "must be a three letter currency code")
		}
	}

	if input.DefaultVATPercentage != nil {
		vat, err := billing.ParseAmount("default_vat_percentage", *input.DefaultVATPercentage)
		if err != nil {
			errs.addInput(err)
		} else {
			settings.DefaultVATPercentage = vat
		}
	}

	if input.BusinessName != nil {
		settings.BusinessName = strings.TrimSpace(*input.BusinessName)
	}

	if input.BusinessEmail != nil {
		addr := normalizeEmail(*input.BusinessEmail)
		if addr == "" || isEmail(addr) {
			settings.BusinessEmail = addr
		} else {
			errs.add("business_email", "must be a valid email address")
		}
	}

	if input.BusinessAddress != nil {
		settings.BusinessAddress = strings.TrimSpace(*input.BusinessAddress)
	}

	if err := errs.err(); err != nil {
		return nil, err
	}

	if err := s.settingsRepo.Update(ctx, settings); err != nil {
		return nil, storeError("update settings", err)
	}
	return settings, nil
}
