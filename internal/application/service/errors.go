package service

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sangkips/maglo-api/internal/domain/billing"
	"github.com/sangkips/maglo-api/pkg/apperror"
)

// storeError wraps a repository failure as a 503 and logs it once.
// AppErrors pass through untouched.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}
	log.Error().Err(err).Str("op", op).Msg("persistence failure")
	return apperror.NewRemoteServiceError("", fmt.Errorf("%s: %w", op, err))
}

// fieldErrors accumulates validation failures across an input
type fieldErrors []apperror.FieldError

func (f *fieldErrors) add(field, message string) {
	*f = append(*f, apperror.FieldError{Field: field, Message: message})
}

// addInput records a billing InputError, returning false for any other error
func (f *fieldErrors) addInput(err error) bool {
	var ie *billing.InputError
	if !errors.As(err, &ie) {
		return false
	}
	f.add(ie.Field, ie.Message)
	return true
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return apperror.NewValidationError(f)
}
