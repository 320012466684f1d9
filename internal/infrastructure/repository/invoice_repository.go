package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/maglo-api/internal/domain/entity"
	"github.com/sangkips/maglo-api/internal/domain/enum"
	domainRepo "github.com/sangkips/maglo-api/internal/domain/repository"
	"gorm.io/gorm"
)

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *gorm.DB) domainRepo.InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Create(invoice).Error; err != nil {
			return err
		}
		return createItems(tx, invoice)
	})
}

func (r *invoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	var invoice entity.Invoice
	err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		First(&invoice, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &invoice, err
}

func (r *invoiceRepository) Update(ctx context.Context, invoice *entity.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// status, user_id and created_at are deliberately absent
		err := tx.Model(&entity.Invoice{}).
			Where("id = ?", invoice.ID).
			Updates(map[string]interface{}{
				"client_name":    invoice.ClientName,
				"client_email":   invoice.ClientEmail,
				"amount":         invoice.Amount,
				"vat_percentage": invoice.VATPercentage,
				"vat_amount":     invoice.VATAmount,
				"total_amount":   invoice.TotalAmount,
				"due_date":       invoice.DueDate,
			}).Error
		if err != nil {
			return err
		}

		if err := tx.Delete(&entity.InvoiceItem{}, "invoice_id = ?", invoice.ID).Error; err != nil {
			return err
		}
		return createItems(tx, invoice)
	})
}

func (r *invoiceRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status enum.InvoiceStatus) error {
	return r.db.WithContext(ctx).Model(&entity.Invoice{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *invoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&entity.InvoiceItem{}, "invoice_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Invoice{}, "id = ?", id).Error
	})
}

func (r *invoiceRepository) List(ctx context.Context, userID uuid.UUID, params *domainRepo.InvoiceFilterParams) ([]entity.Invoice, int64, error) {
	var invoices []entity.Invoice
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Invoice{}).
		Scopes(OwnedBy(userID), MatchingClient(params.Search))

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	if params.OverdueThrough != nil {
		query = query.Where("status = ? AND due_date <= ?", enum.InvoiceStatusUnpaid, *params.OverdueThrough)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortOrder := "ASC"
	if params.Descending() {
		sortOrder = "DESC"
	}
	query = query.Order(params.SortColumn() + " " + sortOrder).Order("id")

	if params.Pagination != nil {
		params.Pagination.Validate()
		query = query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage)
	} else if params.Limit > 0 {
		query = query.Limit(params.Limit)
	}

	err := query.Preload("Items", orderedItems).Find(&invoices).Error
	return invoices, total, err
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func createItems(tx *gorm.DB, invoice *entity.Invoice) error {
	if len(invoice.Items) == 0 {
		return nil
	}
	for i := range invoice.Items {
		invoice.Items[i].ID = uuid.Nil
		invoice.Items[i].InvoiceID = invoice.ID
		invoice.Items[i].Position = i
	}
	return tx.Create(&invoice.Items).Error
}
