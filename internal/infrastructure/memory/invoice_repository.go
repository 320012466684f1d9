package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/maglo-api/internal/domain/entity"
	"github.com/sangkips/maglo-api/internal/domain/enum"
	domainRepo "github.com/sangkips/maglo-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

type invoiceRepository struct {
	store *Store
}

// NewInvoiceRepository returns an InvoiceRepository backed by store
func NewInvoiceRepository(store *Store) domainRepo.InvoiceRepository {
	return &invoiceRepository{store: store}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	if _, exists := r.store.invoices[invoice.ID]; exists {
		return fmt.Errorf("invoice %s already exists", invoice.ID)
	}
	now := time.Now().UTC()
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = now
	}
	invoice.UpdatedAt = now
	stampItems(invoice)

	r.store.invoices[invoice.ID] = cloneInvoice(*invoice)
	return nil
}

func (r *invoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	inv, ok := r.store.invoices[id]
	if !ok {
		return nil, nil
	}
	out := cloneInvoice(inv)
	return &out, nil
}

func (r *invoiceRepository) Update(ctx context.Context, invoice *entity.Invoice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.invoices[invoice.ID]
	if !ok {
		return nil
	}
	existing.ClientName = invoice.ClientName
	existing.ClientEmail = invoice.ClientEmail
	existing.ApplyTotals(invoice.Totals())
	existing.DueDate = invoice.DueDate
	existing.UpdatedAt = time.Now().UTC()

	stampItems(invoice)
	existing.Items = invoice.Items

	r.store.invoices[invoice.ID] = cloneInvoice(existing)
	return nil
}

func (r *invoiceRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status enum.InvoiceStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if inv, ok := r.store.invoices[id]; ok {
		inv.Status = status
		inv.UpdatedAt = time.Now().UTC()
		r.store.invoices[id] = inv
	}
	return nil
}

func (r *invoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.invoices, id)
	return nil
}

func (r *invoiceRepository) List(ctx context.Context, userID uuid.UUID, params *domainRepo.InvoiceFilterParams) ([]entity.Invoice, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.store.mu.RLock()
	matches := make([]entity.Invoice, 0)
	for _, inv := range r.store.invoices {
		if matchesFilter(inv, userID, params) {
			matches = append(matches, cloneInvoice(inv))
		}
	}
	r.store.mu.RUnlock()

	sortInvoices(matches, params)

	total := int64(len(matches))
	if params.Pagination != nil {
		params.Pagination.Validate()
		start, end := params.Pagination.Window(len(matches))
		matches = matches[start:end]
	} else if params.Limit > 0 && len(matches) > params.Limit {
		matches = matches[:params.Limit]
	}
	return matches, total, nil
}

func matchesFilter(inv entity.Invoice, userID uuid.UUID, params *domainRepo.InvoiceFilterParams) bool {
	if userID == uuid.Nil || inv.UserID != userID {
		return false
	}
	if params.Status != nil && inv.Status != *params.Status {
		return false
	}
	if params.OverdueThrough != nil {
		if inv.Status != enum.InvoiceStatusUnpaid || inv.DueDate.After(*params.OverdueThrough) {
			return false
		}
	}
	if term := strings.ToLower(strings.TrimSpace(params.Search)); term != "" {
		if !strings.Contains(strings.ToLower(inv.ClientName), term) &&
			!strings.Contains(strings.ToLower(inv.ClientEmail), term) {
			return false
		}
	}
	return true
}

func sortInvoices(invoices []entity.Invoice, params *domainRepo.InvoiceFilterParams) {
	column := params.SortColumn()
	desc := params.Descending()

	sort.SliceStable(invoices, func(i, j int) bool {
		a, b := invoices[i], invoices[j]
		var cmp int
		switch column {
		case domainRepo.InvoiceSortDueDate:
			cmp = a.DueDate.Compare(b.DueDate)
		case domainRepo.InvoiceSortTotalAmount:
			cmp = a.TotalAmount.Cmp(b.TotalAmount)
		default:
			cmp = a.CreatedAt.Compare(b.CreatedAt)
		}
		if cmp == 0 {
			return a.ID.String() < b.ID.String()
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

func stampItems(invoice *entity.Invoice) {
	for i := range invoice.Items {
		invoice.Items[i].ID = uuid.New()
		invoice.Items[i].InvoiceID = invoice.ID
		invoice.Items[i].Position = i
	}
}

type invoiceSummaryRepository struct {
	store *Store
}

// NewInvoiceSummaryRepository returns an InvoiceSummaryRepository backed by store
func NewInvoiceSummaryRepository(store *Store) domainRepo.InvoiceSummaryRepository {
	return &invoiceSummaryRepository{store: store}
}

func (r *invoiceSummaryRepository) SummarizeByStatus(ctx context.Context, userID uuid.UUID) ([]domainRepo.StatusSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	byStatus := make(map[enum.InvoiceStatus]*domainRepo.StatusSummary)
	for _, inv := range r.store.invoices {
		if inv.UserID != userID {
			continue
		}
		s, ok := byStatus[inv.Status]
		if !ok {
			s = &domainRepo.StatusSummary{Status: inv.Status, TotalAmount: decimal.Zero, VATAmount: decimal.Zero}
			byStatus[inv.Status] = s
		}
		s.Count++
		s.TotalAmount = s.TotalAmount.Add(inv.TotalAmount)
		s.VATAmount = s.VATAmount.Add(inv.VATAmount)
	}

	results := make([]domainRepo.StatusSummary, 0, len(byStatus))
	for _, status := range enum.InvoiceStatuses {
		if s, ok := byStatus[status]; ok {
			results = append(results, *s)
		}
	}
	return results, nil
}

func (r *invoiceSummaryRepository) CountOverdue(ctx context.Context, userID uuid.UUID, through time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var count int64
	for _, inv := range r.store.invoices {
		if inv.UserID == userID && inv.Status == enum.InvoiceStatusUnpaid && !inv.DueDate.After(through) {
			count++
		}
	}
	return count, nil
}
