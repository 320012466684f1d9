package service

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/maglo-api/internal/domain/entity"
	"github.com/sangkips/maglo-api/internal/domain/enum"
	"github.com/sangkips/maglo-api/internal/domain/repository"
	"github.com/sangkips/maglo-api/internal/infrastructure/memory"
	"github.com/sangkips/maglo-api/pkg/apperror"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestCreateInvoice(t *testing.T) {
	f := newFixture(t)
	p := newPrincipal()

	inv, err := f.invoices.CreateInvoice(context.Background(), p, validInput())
	require.NoError(t, err)

	assert.Equal(t, p.UserID, inv.UserID)
	assert.Equal(t, enum.InvoiceStatusUnpaid, inv.Status)
	assert.Equal(t, "billing@acme.com", inv.ClientEmail)
	assert.True(t, inv.VATAmount.Equal(decimal.NewFromInt(75)))
	assert.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(1075)))
	assert.Equal(t, fixedNow, inv.CreatedAt)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, "Design", inv.Items[0].Name)
}

func TestCreateInvoice_DefaultVATFromSettings(t *testing.T) {
	f := newFixture(t)
	p := newPrincipal()
	ctx := context.Background()

	input := validInput()
	input.VATPercentage = nil
	inv, err := f.invoices.CreateInvoice(ctx, p, input)
	require.NoError(t, err)
	assert.True(t, inv.VATPercentage.Equal(decimal.RequireFromString("7.5")))

	_, err = f.settings.UpdateSettings(ctx, p, &UpdateSettingsInput{DefaultVATPercentage: strPtr("10")})
	require.NoError(t, err)

	inv, err = f.invoices.CreateInvoice(ctx, p, input)
	require.NoError(t, err)
	assert.True(t, inv.VATAmount.Equal(decimal.NewFromInt(100)))
}

func TestCreateInvoice_Validation(t *testing.T) {
	f := newFixture(t)
	p := newPrincipal()

	cases := []struct {
		name   string
		mutate func(*InvoiceInput)
		field  string
	}{
		{"missing client", func(in *InvoiceInput) { in.ClientName = "  " }, "client_name"},
		{"bad email", func(in *InvoiceInput) { in.ClientEmail = "not-an-email" }, "client_email"},
		{"non numeric amount", func(in *InvoiceInput) { in.Amount = "abc" }, "amount"},
		{"negative amount", func(in *InvoiceInput) { in.Amount = "-1" }, "amount"},
		{"non numeric vat", func(in *InvoiceInput) { in.VATPercentage = strPtr("x") }, "vat_percentage"},
		{"bad date", func(in *InvoiceInput) { in.DueDate = "01/11/2026" }, "due_date"},
		{"bad line rate", func(in *InvoiceInput) { in.Items[0].Rate = "five" }, "items[0].rate"},
		{"huge amount", func(in *InvoiceInput) { in.Amount = "1e50000000" }, "amount"},
		{"huge vat", func(in *InvoiceInput) { in.VATPercentage = strPtr("9e999999") }, "vat_percentage"},
		{"huge line amount", func(in *InvoiceInput) { in.Items[0].Amount = "1e50000000" }, "items[0].amount"},
		{"too many decimals", func(in *InvoiceInput) { in.Amount = "10.1234567" }, "amount"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.mutate(input)
			_, err := f.invoices.CreateInvoice(context.Background(), p, input)
			assertFieldError(t, err, tc.field)
		})
	}
}

func TestCreateInvoice_AcceptsPastDueDateAndMismatchedLineAmount(t *testing.T) {
	f := newFixture(t)
	input := validInput()
	input.DueDate = "2020-01-01"
	input.Items[0].Amount = "12345"

	inv, err := f.invoices.CreateInvoice(context.Background(), newPrincipal(), input)
	require.NoError(t, err)
	assert.True(t, inv.IsOverdue(fixedNow))
	assert.True(t, inv.Items[0].Amount.Equal(decimal.NewFromInt(12345)))
}

func TestCreateInvoice_RequiresPrincipal(t *testing.T) {
	f := newFixture(t)
	_, err := f.invoices.CreateInvoice(context.Background(), Principal{}, validInput())
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestGetInvoice_Ownership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, stranger := newPrincipal(), newPrincipal()

	inv, err := f.invoices.CreateInvoice(ctx, owner, validInput())
	require.NoError(t, err)

	_, err = f.invoices.GetInvoice(ctx, stranger, inv.ID)
	assertStatus(t, err, http.StatusForbidden)

	_, err = f.invoices.GetInvoice(ctx, owner, uuid.New())
	assertStatus(t, err, http.StatusNotFound)

	got, err := f.invoices.GetInvoice(ctx, owner, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, got.ID)
}

func TestListInvoices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := newPrincipal()

	f.seedInvoice(t, p.UserID, enum.InvoiceStatusUnpaid, "2026-10-18") // overdue
	f.seedInvoice(t, p.UserID, enum.InvoiceStatusUnpaid, "2026-10-19") // due today, overdue
	f.seedInvoice(t, p.UserID, enum.InvoiceStatusUnpaid, "2026-10-20")
	f.seedInvoice(t, p.UserID, enum.InvoiceStatusPaid, "2026-01-01")
	f.seedInvoice(t, p.UserID, enum.InvoiceStatusPending, "2026-01-01")
	f.seedInvoice(t, uuid.New(), enum.InvoiceStatusUnpaid, "2026-01-01")

	all, err := f.invoices.ListInvoices(ctx, p, &ListInvoicesInput{Status: "all"})
	require.NoError(t, err)
	assert.EqualValues(t, 5, all.Pagination.Total)

	unpaid, err := f.invoices.ListInvoices(ctx, p, &ListInvoicesInput{Status: "Unpaid"})
	require.NoError(t, err)
	assert.Len(t, unpaid.Items, 3)

	overdue, err := f.invoices.ListInvoices(ctx, p, &ListInvoicesInput{Overdue: true, SortBy: "due_date", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, overdue.Items, 2)
	assert.Equal(t, "2026-10-18", overdue.Items[0].DueDate.Format("2006-01-02"))
	assert.Equal(t, "2026-10-19", overdue.Items[1].DueDate.Format("2006-01-02"))

	page, err := f.invoices.ListInvoices(ctx, p, &ListInvoicesInput{Page: 2, PerPage: 3})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.Pagination.TotalPages)

	_, err = f.invoices.ListInvoices(ctx, p, &ListInvoicesInput{Status: "void"})
	assertFieldError(t, err, "status")

	_, err = f.invoices.ListInvoices(ctx, p, &ListInvoicesInput{SortBy: "client_name; DROP TABLE"})
	assertFieldError(t, err, "sort_by")
}

func TestUpdateInvoice_RecomputesAndKeepsStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := newPrincipal()

	inv, err := f.invoices.CreateInvoice(ctx, p, validInput())
	require.NoError(t, err)
	_, err = f.invoices.MarkInvoicePaid(ctx, p, inv.ID)
	require.NoError(t, err)

	input := validInput()
	input.Amount = "2000"
	input.VATPercentage = nil
	input.Items = nil
	updated, err := f.invoices.UpdateInvoice(ctx, p, inv.ID, input)
	require.NoError(t, err)

	assert.Equal(t, enum.InvoiceStatusPaid, updated.Status)
	assert.True(t, updated.VATAmount.Equal(decimal.NewFromInt(150)))
	assert.True(t, updated.TotalAmount.Equal(decimal.NewFromInt(2150)))

	stored, err := f.invoices.GetInvoice(ctx, p, inv.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalAmount.Equal(decimal.NewFromInt(2150)))
	assert.Empty(t, stored.Items)
	assert.Equal(t, inv.CreatedAt, stored.CreatedAt)
}

func TestUpdateInvoice_OtherOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.invoices.CreateInvoice(ctx, newPrincipal(), validInput())
	require.NoError(t, err)

	_, err = f.invoices.UpdateInvoice(ctx, newPrincipal(), inv.ID, validInput())
	assertStatus(t, err, http.StatusForbidden)
}

func TestMarkInvoicePaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := newPrincipal()

	inv, err := f.invoices.CreateInvoice(ctx, p, validInput())
	require.NoError(t, err)

	paid, err := f.invoices.MarkInvoicePaid(ctx, p, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusPaid, paid.Status)

	again, err := f.invoices.MarkInvoicePaid(ctx, p, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusPaid, again.Status)

	pending := f.seedInvoice(t, p.UserID, enum.InvoiceStatusPending, "2026-12-01")
	_, err = f.invoices.MarkInvoicePaid(ctx, p, pending.ID)
	assertStatus(t, err, http.StatusConflict)
}

func TestDeleteInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := newPrincipal()

	inv, err := f.invoices.CreateInvoice(ctx, p, validInput())
	require.NoError(t, err)

	assertStatus(t, f.invoices.DeleteInvoice(ctx, newPrincipal(), inv.ID), http.StatusForbidden)
	require.NoError(t, f.invoices.DeleteInvoice(ctx, p, inv.ID))

	list, err := f.invoices.ListInvoices(ctx, p, &ListInvoicesInput{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)

	assertStatus(t, f.invoices.DeleteInvoice(ctx, p, inv.ID), http.StatusNotFound)
}

func TestPreviewTotalsMatchesCreate(t *testing.T) {
	f := newFixture(t)

	preview, err := f.invoices.PreviewTotals("10.01", "7.5")
	require.NoError(t, err)

	input := validInput()
	input.Amount = "10.01"
	inv, err := f.invoices.CreateInvoice(context.Background(), newPrincipal(), input)
	require.NoError(t, err)

	assert.True(t, preview.VATAmount.Equal(inv.VATAmount))
	assert.True(t, preview.TotalAmount.Equal(inv.TotalAmount))

	_, err = f.invoices.PreviewTotals("", "7.5")
	assertFieldError(t, err, "amount")
}

func TestSendInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := newPrincipal()

	_, err := f.settings.UpdateSettings(ctx, p, &UpdateSettingsInput{BusinessName: strPtr("Maglo Studio")})
	require.NoError(t, err)

	inv, err := f.invoices.CreateInvoice(ctx, p, validInput())
	require.NoError(t, err)

	_, err = f.invoices.SendInvoice(ctx, p, inv.ID)
	require.NoError(t, err)
	require.Len(t, f.mailer.sent, 1)
	sent := f.mailer.sent[0]
	assert.Equal(t, "billing@acme.com", sent.To)
	assert.Equal(t, inv.Number(), sent.Number)
	assert.Equal(t, "1075.00", sent.TotalAmount)
	assert.Equal(t, "NGN", sent.Currency)
	assert.Equal(t, "Maglo Studio", sent.BusinessName)

	f.mailer.err = errors.New("550 mailbox unavailable")
	_, err = f.invoices.SendInvoice(ctx, p, inv.ID)
	assertStatus(t, err, http.StatusServiceUnavailable)

	f.mailer.configured = false
	_, err = f.invoices.SendInvoice(ctx, p, inv.ID)
	assert.ErrorIs(t, err, apperror.ErrEmailNotConfigured)
}

func TestExportInvoices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := newPrincipal()

	_, err := f.invoices.CreateInvoice(ctx, p, validInput())
	require.NoError(t, err)
	f.seedInvoice(t, p.UserID, enum.InvoiceStatusPaid, "2026-01-01")

	var buf bytes.Buffer
	require.NoError(t, f.invoices.ExportInvoices(ctx, p, &ListInvoicesInput{Status: "unpaid"}, &buf))

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows("Invoices")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Acme Ltd", rows[1][1])
	assert.Equal(t, "1075", rows[1][6])

	f.invoices.exportMaxRows = 1
	err = f.invoices.ExportInvoices(ctx, p, &ListInvoicesInput{}, &bytes.Buffer{})
	assertStatus(t, err, http.StatusBadRequest)
}

// loadCountingRepo records how many invoices each List call returned
type loadCountingRepo struct {
	repository.InvoiceRepository
	limits []int
	loaded []int
}

func (r *loadCountingRepo) List(ctx context.Context, userID uuid.UUID, params *repository.InvoiceFilterParams) ([]entity.Invoice, int64, error) {
	invoices, total, err := r.InvoiceRepository.List(ctx, userID, params)
	r.limits = append(r.limits, params.Limit)
	r.loaded = append(r.loaded, len(invoices))
	return invoices, total, err
}

func TestExportInvoices_CapBoundsTheQuery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := newPrincipal()

	for i := 0; i < 10; i++ {
		f.seedInvoice(t, p.UserID, enum.InvoiceStatusUnpaid, "2026-11-01")
	}
	repo := &loadCountingRepo{InvoiceRepository: memory.NewInvoiceRepository(f.store)}
	f.invoices.invoiceRepo = repo
	f.invoices.exportMaxRows = 3

	err := f.invoices.ExportInvoices(ctx, p, &ListInvoicesInput{}, &bytes.Buffer{})
	assertStatus(t, err, http.StatusBadRequest)

	require.Len(t, repo.loaded, 1)
	assert.Equal(t, 4, repo.limits[0])
	assert.LessOrEqual(t, repo.loaded[0], 4)

	f.invoices.exportMaxRows = 10
	var buf bytes.Buffer
	require.NoError(t, f.invoices.ExportInvoices(ctx, p, &ListInvoicesInput{}, &buf))
	assert.Equal(t, 10, repo.loaded[1])
}

func TestStoreFailureIsRemoteServiceError(t *testing.T) {
	f := newFixture(t)
	f.invoices.invoiceRepo = brokenInvoiceRepo{}
	ctx := context.Background()
	p := newPrincipal()

	_, err := f.invoices.CreateInvoice(ctx, p, validInput())
	assertStatus(t, err, http.StatusServiceUnavailable)
	assert.ErrorIs(t, err, errDown)
	assert.Equal(t, "Persistence service unavailable", apperror.GetAppError(err).Message)

	_, err = f.invoices.GetInvoice(ctx, p, uuid.New())
	assertStatus(t, err, http.StatusServiceUnavailable)

	_, err = f.invoices.ListInvoices(ctx, p, &ListInvoicesInput{})
	assertStatus(t, err, http.StatusServiceUnavailable)
}
