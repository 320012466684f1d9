package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/maglo-api/internal/domain/entity"
	"github.com/sangkips/maglo-api/internal/domain/enum"
	"github.com/sangkips/maglo-api/pkg/pagination"
)

// Sortable invoice columns
const (
	InvoiceSortCreatedAt   = "created_at"
	InvoiceSortDueDate     = "due_date"
	InvoiceSortTotalAmount = "total_amount"
)

// InvoiceRepository defines the interface for invoice data operations.
// Create and Update write the invoice and its items atomically.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	// GetByID returns the invoice with its items, or nil when it does not exist
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	// Update replaces the editable fields and the full item list
	Update(ctx context.Context, invoice *entity.Invoice) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enum.InvoiceStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns one page of the owner's invoices and the total match count.
	// A nil Pagination returns every match.
	List(ctx context.Context, userID uuid.UUID, params *InvoiceFilterParams) ([]entity.Invoice, int64, error)
}

// InvoiceFilterParams contains filtering parameters for invoice queries
type InvoiceFilterParams struct {
	Pagination *pagination.PaginationParams
	Search     string
	Status     *enum.InvoiceStatus
	// OverdueThrough restricts results to unpaid invoices due on or before this date
	OverdueThrough *time.Time
	SortBy         string
	SortOrder      string
	// Limit caps the rows loaded when Pagination is nil. Total still counts every match.
	Limit int
}

// SortColumn returns a whitelisted sort column, defaulting to created_at
func (p *InvoiceFilterParams) SortColumn() string {
	switch p.SortBy {
	case InvoiceSortDueDate, InvoiceSortTotalAmount:
		return p.SortBy
	default:
		return InvoiceSortCreatedAt
	}
}

// Descending reports whether results sort newest/largest first (the default)
func (p *InvoiceFilterParams) Descending() bool {
	return p.SortOrder != "asc"
}
