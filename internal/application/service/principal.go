package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/maglo-api/pkg/apperror"
)

// Principal is the authenticated caller of a service operation. The HTTP
// layer builds it from a validated access token and passes it explicitly.
type Principal struct {
	UserID    uuid.UUID
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

// Authenticated reports whether the principal carries a user identity
func (p Principal) Authenticated() bool {
	return p.UserID != uuid.Nil
}

func requireAuth(p Principal) error {
	if !p.Authenticated() {
		return apperror.ErrUnauthorized
	}
	return nil
}
