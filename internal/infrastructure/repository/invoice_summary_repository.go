package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/maglo-api/internal/domain/entity"
	"github.com/sangkips/maglo-api/internal/domain/enum"
	domainRepo "github.com/sangkips/maglo-api/internal/domain/repository"
	"gorm.io/gorm"
)

type invoiceSummaryRepository struct {
	db *gorm.DB
}

// NewInvoiceSummaryRepository creates a new invoice aggregation repository
func NewInvoiceSummaryRepository(db *gorm.DB) domainRepo.InvoiceSummaryRepository {
	return &invoiceSummaryRepository{db: db}
}

func (r *invoiceSummaryRepository) SummarizeByStatus(ctx context.Context, userID uuid.UUID) ([]domainRepo.StatusSummary, error) {
	var results []domainRepo.StatusSummary

	err := r.db.WithContext(ctx).Model(&entity.Invoice{}).
		Select(`
			status,
			COUNT(*) AS count,
			COALESCE(SUM(total_amount), 0) AS total_amount,
			COALESCE(SUM(vat_amount), 0) AS vat_amount
		`).
		Scopes(OwnedBy(userID)).
		Group("status").
		Scan(&results).Error

	return results, err
}

func (r *invoiceSummaryRepository) CountOverdue(ctx context.Context, userID uuid.UUID, through time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Invoice{}).
		Scopes(OwnedBy(userID)).
		Where("status = ? AND due_date <= ?", enum.InvoiceStatusUnpaid, through).
		Count(&count).Error
	return count, err
}
