package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/maglo-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// StatusSummary aggregates one owner's invoices sharing a status
type StatusSummary struct {
	Status      enum.InvoiceStatus
	Count       int64
	TotalAmount decimal.Decimal
	VATAmount   decimal.Decimal
}

// InvoiceSummaryRepository defines aggregation queries backing the dashboard
type InvoiceSummaryRepository interface {
	// SummarizeByStatus returns one row per status present for the owner
	SummarizeByStatus(ctx context.Context, userID uuid.UUID) ([]StatusSummary, error)

	// CountOverdue counts unpaid invoices due on or before through
	CountOverdue(ctx context.Context, userID uuid.UUID, through time.Time) (int64, error)
}
