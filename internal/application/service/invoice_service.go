package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sangkips/maglo-api/internal/domain/billing"
	"github.com/sangkips/maglo-api/internal/domain/entity"
	"github.com/sangkips/maglo-api/internal/domain/enum"
	"github.com/sangkips/maglo-api/internal/domain/repository"
	"github.com/sangkips/maglo-api/pkg/apperror"
	"github.com/sangkips/maglo-api/pkg/email"
	"github.com/sangkips/maglo-api/pkg/export"
	"github.com/sangkips/maglo-api/pkg/logger"
	"github.com/sangkips/maglo-api/pkg/pagination"
	"github.com/shopspring/decimal"
)

// InvoiceMailer delivers invoices to clients
type InvoiceMailer interface {
	IsConfigured() bool
	SendInvoiceEmail(data email.InvoiceEmail) error
}

// InvoiceService handles invoice-related operations
type InvoiceService struct {
	invoiceRepo   repository.InvoiceRepository
	settings      *SettingsService
	mailer        InvoiceMailer
	exportMaxRows int
	now           func() time.Time
	log           zerolog.Logger
}

// NewInvoiceService creates a new invoice service. mailer may be nil.
func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	settings *SettingsService,
	mailer InvoiceMailer,
	exportMaxRows int,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo:   invoiceRepo,
		settings:      settings,
		mailer:        mailer,
		exportMaxRows: exportMaxRows,
		now:           time.Now,
		log:           logger.WithComponent("invoices"),
	}
}

// InvoiceInput carries the editable fields of an invoice as the user typed
// them. Numbers arrive as text and are parsed here so every write path shares
// the same validation.
type InvoiceInput struct {
	ClientName    string
	ClientEmail   string
	Amount        string
	VATPercentage *string // nil uses the owner's default
	DueDate       string
	Items         []InvoiceItemInput
}

// InvoiceItemInput is one line item. Amount is stored as given.
type InvoiceItemInput struct {
	Name     string
	Quantity string
	Rate     string
	Amount   string
}

type parsedInvoice struct {
	clientName  string
	clientEmail string
	totals      billing.Totals
	dueDate     time.Time
	items       []entity.InvoiceItem
}

func (s *InvoiceService) parseInput(input *InvoiceInput, defaultVAT decimal.Decimal) (*parsedInvoice, error) {
	var errs fieldErrors
	out := &parsedInvoice{
		clientName:  strings.TrimSpace(input.ClientName),
		clientEmail: normalizeEmail(input.ClientEmail),
	}

	if out.clientName == "" {
		errs.add("client_name", "is required")
	}
	if !isEmail(out.clientEmail) {
		errs.add("client_email", "must be a valid email address")
	}

	amount, amountErr := billing.ParseAmount("amount", input.Amount)
	if amountErr != nil {
		errs.addInput(amountErr)
	}

	vat := defaultVAT
	if input.VATPercentage != nil && strings.TrimSpace(*input.VATPercentage) != "" {
		parsed, err := billing.ParseAmount("vat_percentage", *input.VATPercentage)
		if err != nil {
			errs.addInput(err)
		} else {
			vat = parsed
		}
	}

	due, err := time.Parse(entity.DateLayout, strings.TrimSpace(input.DueDate))
	if err != nil {
		errs.add("due_date", "must be a date in YYYY-MM-DD format")
	}
	out.dueDate = due

	out.items = make([]entity.InvoiceItem, 0, len(input.Items))
	for i, item := range input.Items {
		line := entity.InvoiceItem{Name: strings.TrimSpace(item.Name)}
		line.Quantity = parseLineNumber(&errs, fmt.Sprintf("items[%d].quantity", i), item.Quantity)
		line.Rate = parseLineNumber(&errs, fmt.Sprintf("items[%d].rate", i), item.Rate)
		line.Amount = parseLineNumber(&errs, fmt.Sprintf("items[%d].amount", i), item.Amount)
		out.items = append(out.items, line)
	}

	if err := errs.err(); err != nil {
		return nil, err
	}

	totals, err := billing.CalculateTotals(amount, vat)
	if err != nil {
		errs.addInput(err)
		return nil, errs.err()
	}
	out.totals = totals
	return out, nil
}

// parseLineNumber accepts any number, including an empty field as zero.
// Line values are informational and never feed the invoice totals.
func parseLineNumber(errs *fieldErrors, field, raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	d, err := billing.ParseNumber(field, raw)
	if err != nil {
		errs.addInput(err)
		return decimal.Zero
	}
	return d
}

// CreateInvoice validates input and stores a new unpaid invoice owned by the caller
func (s *InvoiceService) CreateInvoice(ctx context.Context, principal Principal, input *InvoiceInput) (*entity.Invoice, error) {
	if err := requireAuth(principal); err != nil {
		return nil, err
	}

	defaultVAT := entity.DefaultVATPercentage
	if input.VATPercentage == nil || strings.TrimSpace(*input.VATPercentage) == "" {
		settings, err := s.settings.forUser(ctx, principal.UserID)
		if err != nil {
			return nil, err
		}
		defaultVAT = settings.DefaultVATPercentage
	}

	parsed, err := s.parseInput(input, defaultVAT)
	if err != nil {
		return nil, err
	}

	invoice := &entity.Invoice{
		UserID:      principal.UserID,
		ClientName:  parsed.clientName,
		ClientEmail: parsed.clientEmail,
		DueDate:     parsed.dueDate,
		Status:      enum.InvoiceStatusUnpaid,
		CreatedAt:   s.now().UTC(),
		Items:       parsed.items,
	}
	invoice.ApplyTotals(parsed.totals)

	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		return nil, storeError("create invoice", err)
	}

	s.log.Info().
		Str("invoice_id", invoice.ID.String()).
		Str("user_id", principal.UserID.String()).
		Msg("invoice created")
	return invoice, nil
}

// GetInvoice returns one of the caller's invoices
func (s *InvoiceService) GetInvoice(ctx context.Context, principal Principal, id uuid.UUID) (*entity.Invoice, error) {
	if err := requireAuth(principal); err != nil {
		return nil, err
	}

	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("load invoice", err)
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	if invoice.UserID != principal.UserID {
		return nil, apperror.ErrForbidden
	}
	return invoice, nil
}

// ListInvoicesInput holds list filters as received from the client
type ListInvoicesInput struct {
	Status    string // all, paid, unpaid, pending
	Overdue   bool
	Search    string
	SortBy    string
	SortOrder string
	Page      int
	PerPage   int
}

func (s *InvoiceService) buildFilter(input *ListInvoicesInput) (*repository.InvoiceFilterParams, error) {
	var errs fieldErrors
	params := &repository.InvoiceFilterParams{
		Search:    strings.TrimSpace(input.Search),
		SortBy:    input.SortBy,
		SortOrder: strings.ToLower(input.SortOrder),
	}

	if st := strings.TrimSpace(input.Status); st != "" && !strings.EqualFold(st, "all") {
		status, err := enum.ParseInvoiceStatus(st)
		if err != nil {
			errs.add("status", "must be one of all, paid, unpaid, pending")
		} else {
			params.Status = &status
		}
	}

	switch input.SortBy {
	case "", repository.InvoiceSortCreatedAt, repository.InvoiceSortDueDate, repository.InvoiceSortTotalAmount:
	default:
		errs.add("sort_by", "must be one of created_at, due_date, total_amount")
	}

	switch params.SortOrder {
	case "", "asc", "desc":
	default:
		errs.add("sort_order", "must be asc or desc")
	}

	if input.Overdue {
		through := billing.OverdueThrough(s.now())
		params.OverdueThrough = &through
	}

	return params, errs.err()
}

// ListInvoices returns one page of the caller's invoices
func (s *InvoiceService) ListInvoices(ctx context.Context, principal Principal, input *ListInvoicesInput) (*pagination.PaginatedResult[entity.Invoice], error) {
	if err := requireAuth(principal); err != nil {
		return nil, err
	}

	params, err := s.buildFilter(input)
	if err != nil {
		return nil, err
	}
	params.Pagination = pagination.DefaultPagination()
	if input.Page > 0 {
		params.Pagination.Page = input.Page
	}
	if input.PerPage > 0 {
		params.Pagination.PerPage = input.PerPage
	}
	params.Pagination.Validate()

	invoices, total, err := s.invoiceRepo.List(ctx, principal.UserID, params)
	if err != nil {
		return nil, storeError("list invoices", err)
	}

	return pagination.NewPaginatedResult(invoices,
		pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)), nil
}

// UpdateInvoice replaces the editable fields of an invoice and recomputes its
// totals. Status and ownership never change through an edit.
func (s *InvoiceService) UpdateInvoice(ctx context.Context, principal Principal, id uuid.UUID, input *InvoiceInput) (*entity.Invoice, error) {
	invoice, err := s.GetInvoice(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	parsed, err := s.parseInput(input, invoice.VATPercentage)
	if err != nil {
		return nil, err
	}

	invoice.ClientName = parsed.clientName
	invoice.ClientEmail = parsed.clientEmail
	invoice.DueDate = parsed.dueDate
	invoice.Items = parsed.items
	invoice.ApplyTotals(parsed.totals)
	invoice.UpdatedAt = s.now().UTC()

	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, storeError("update invoice", err)
	}
	return invoice, nil
}

// MarkInvoicePaid moves an unpaid invoice to paid. Paid invoices are returned
// unchanged and nothing is written.
func (s *InvoiceService) MarkInvoicePaid(ctx context.Context, principal Principal, id uuid.UUID) (*entity.Invoice, error) {
	invoice, err := s.GetInvoice(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	changed, err := invoice.MarkAsPaid()
	if err != nil {
		return nil, apperror.ErrInvalidTransition
	}
	if !changed {
		return invoice, nil
	}

	if err := s.invoiceRepo.UpdateStatus(ctx, invoice.ID, invoice.Status); err != nil {
		return nil, storeError("mark invoice paid", err)
	}

	s.log.Info().Str("invoice_id", invoice.ID.String()).Msg("invoice marked paid")
	return invoice, nil
}

// DeleteInvoice permanently removes an invoice and its items
func (s *InvoiceService) DeleteInvoice(ctx context.Context, principal Principal, id uuid.UUID) error {
	invoice, err := s.GetInvoice(ctx, principal, id)
	if err != nil {
		return err
	}

	if err := s.invoiceRepo.Delete(ctx, invoice.ID); err != nil {
		return storeError("delete invoice", err)
	}

	s.log.Info().Str("invoice_id", invoice.ID.String()).Msg("invoice deleted")
	return nil
}

// PreviewTotals computes totals for the live form preview without storing anything
func (s *InvoiceService) PreviewTotals(rawAmount, rawVATPercentage string) (*billing.Totals, error) {
	totals, err := billing.ParseTotals(rawAmount, rawVATPercentage)
	if err != nil {
		var errs fieldErrors
		if errs.addInput(err) {
			return nil, errs.err()
		}
		return nil, err
	}
	return &totals, nil
}

// SendInvoice emails the invoice summary to the client address on the invoice
func (s *InvoiceService) SendInvoice(ctx context.Context, principal Principal, id uuid.UUID) (*entity.Invoice, error) {
	if s.mailer == nil || !s.mailer.IsConfigured() {
		return nil, apperror.ErrEmailNotConfigured
	}

	invoice, err := s.GetInvoice(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	settings, err := s.settings.forUser(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.mailer.SendInvoiceEmail(invoiceEmail(invoice, settings)); err != nil {
		s.log.Error().Err(err).Str("invoice_id", invoice.ID.String()).Msg("invoice email failed")
		return nil, apperror.NewRemoteServiceError("Email delivery failed", err)
	}

	s.log.Info().Str("invoice_id", invoice.ID.String()).Msg("invoice sent")
	return invoice, nil
}

func invoiceEmail(invoice *entity.Invoice, settings *entity.UserSettings) email.InvoiceEmail {
	items := make([]email.InvoiceEmailItem, 0, len(invoice.Items))
	for _, it := range invoice.Items {
		items = append(items, email.InvoiceEmailItem{
			Name:     it.Name,
			Quantity: it.Quantity.String(),
			Rate:     it.Rate.StringFixed(2),
			Amount:   it.Amount.StringFixed(2),
		})
	}

	return email.InvoiceEmail{
		To:              invoice.ClientEmail,
		ClientName:      invoice.ClientName,
		Number:          invoice.Number(),
		BusinessName:    settings.BusinessName,
		BusinessEmail:   settings.BusinessEmail,
		BusinessAddress: settings.BusinessAddress,
		Currency:        settings.Currency,
		DueDate:         invoice.DueDate.UTC().Format(entity.DateLayout),
		Items:           items,
		Amount:          invoice.Amount.StringFixed(2),
		VATPercentage:   invoice.VATPercentage.String(),
		VATAmount:       invoice.VATAmount.StringFixed(2),
		TotalAmount:     invoice.TotalAmount.StringFixed(2),
	}
}

var exportHeaders = []string{
	"Number", "Client Name", "Client Email", "Amount", "VAT %", "VAT Amount",
	"Total Amount", "Due Date", "Status", "Overdue", "Created At",
}

// ExportInvoices writes every invoice matching the filter as an xlsx workbook
func (s *InvoiceService) ExportInvoices(ctx context.Context, principal Principal, input *ListInvoicesInput, w io.Writer) error {
	if err := requireAuth(principal); err != nil {
		return err
	}

	params, err := s.buildFilter(input)
	if err != nil {
		return err
	}

	if s.exportMaxRows > 0 {
		params.Limit = s.exportMaxRows + 1
	}

	invoices, total, err := s.invoiceRepo.List(ctx, principal.UserID, params)
	if err != nil {
		return storeError("export invoices", err)
	}
	if s.exportMaxRows > 0 && (total > int64(s.exportMaxRows) || len(invoices) > s.exportMaxRows) {
		return apperror.NewBadRequestError(
			fmt.Sprintf("Export is limited to %d invoices, narrow the filter", s.exportMaxRows))
	}

	now := s.now()
	rows := make([][]interface{}, 0, len(invoices))
	for i := range invoices {
		inv := &invoices[i]
		rows = append(rows, []interface{}{
			inv.Number(),
			inv.ClientName,
			inv.ClientEmail,
			inv.Amount.InexactFloat64(),
			inv.VATPercentage.InexactFloat64(),
			inv.VATAmount.InexactFloat64(),
			inv.TotalAmount.InexactFloat64(),
			inv.DueDate.UTC().Format(entity.DateLayout),
			inv.Status.String(),
			inv.IsOverdue(now),
			inv.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return export.WriteWorkbook(w, export.Sheet{
		Name:    "Invoices",
		Headers: exportHeaders,
		Rows:    rows,
	})
}
