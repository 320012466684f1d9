// Package memory provides process-local implementations of the repository
// interfaces. Data lives only as long as the process.
package memory

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sangkips/maglo-api/internal/domain/entity"
)

// Store holds every table guarded by a single lock
type Store struct {
	mu          sync.RWMutex
	users       map[uuid.UUID]entity.User
	settings    map[uuid.UUID]entity.UserSettings // keyed by user ID
	invoices    map[uuid.UUID]entity.Invoice
	idempotency map[string]entity.IdempotencyKey // keyed by user ID + key
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		users:       make(map[uuid.UUID]entity.User),
		settings:    make(map[uuid.UUID]entity.UserSettings),
		invoices:    make(map[uuid.UUID]entity.Invoice),
		idempotency: make(map[string]entity.IdempotencyKey),
	}
}

func cloneInvoice(inv entity.Invoice) entity.Invoice {
	if inv.Items != nil {
		items := make([]entity.InvoiceItem, len(inv.Items))
		copy(items, inv.Items)
		inv.Items = items
	}
	return inv
}
