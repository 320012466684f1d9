package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/maglo-api/internal/domain/entity"
	"github.com/sangkips/maglo-api/internal/domain/enum"
	domainRepo "github.com/sangkips/maglo-api/internal/domain/repository"
	"github.com/sangkips/maglo-api/pkg/pagination"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, _ := time.Parse(entity.DateLayout, s)
	return t
}

func newInvoice(owner uuid.UUID, client string, total string, status enum.InvoiceStatus, due string) *entity.Invoice {
	return &entity.Invoice{
		UserID:      owner,
		ClientName:  client,
		ClientEmail: client + "@example.com",
		TotalAmount: decimal.RequireFromString(total),
		VATAmount:   decimal.Zero,
		Status:      status,
		DueDate:     date(due),
	}
}

func TestInvoiceRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewInvoiceRepository(NewStore())
	owner := uuid.New()

	inv := newInvoice(owner, "acme", "100", enum.InvoiceStatusUnpaid, "2026-01-10")
	inv.Items = []entity.InvoiceItem{{Name: "Design"}, {Name: "Build"}}
	require.NoError(t, repo.Create(ctx, inv))
	assert.NotEqual(t, uuid.Nil, inv.ID)

	got, err := repo.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Items, 2)
	assert.Equal(t, 1, got.Items[1].Position)
	assert.Equal(t, inv.ID, got.Items[0].InvoiceID)

	got.Items[0].Name = "mutated"
	again, _ := repo.GetByID(ctx, inv.ID)
	assert.Equal(t, "Design", again.Items[0].Name)

	missing, err := repo.GetByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestInvoiceRepository_UpdateKeepsImmutableFields(t *testing.T) {
	ctx := context.Background()
	repo := NewInvoiceRepository(NewStore())
	owner := uuid.New()

	inv := newInvoice(owner, "acme", "100", enum.InvoiceStatusPaid, "2026-01-10")
	require.NoError(t, repo.Create(ctx, inv))
	created := inv.CreatedAt

	edit := *inv
	edit.ClientName = "Acme Ltd"
	edit.Status = enum.InvoiceStatusUnpaid
	edit.UserID = uuid.New()
	edit.CreatedAt = time.Time{}
	require.NoError(t, repo.Update(ctx, &edit))

	got, _ := repo.GetByID(ctx, inv.ID)
	assert.Equal(t, "Acme Ltd", got.ClientName)
	assert.Equal(t, enum.InvoiceStatusPaid, got.Status)
	assert.Equal(t, owner, got.UserID)
	assert.Equal(t, created, got.CreatedAt)
}

func TestInvoiceRepository_ListFiltersAndPaginates(t *testing.T) {
	ctx := context.Background()
	repo := NewInvoiceRepository(NewStore())
	owner, other := uuid.New(), uuid.New()

	require.NoError(t, repo.Create(ctx, newInvoice(owner, "alpha", "300", enum.InvoiceStatusUnpaid, "2026-01-01")))
	require.NoError(t, repo.Create(ctx, newInvoice(owner, "beta", "100", enum.InvoiceStatusPaid, "2026-01-01")))
	require.NoError(t, repo.Create(ctx, newInvoice(owner, "gamma", "200", enum.InvoiceStatusUnpaid, "2026-12-01")))
	require.NoError(t, repo.Create(ctx, newInvoice(other, "alpha", "999", enum.InvoiceStatusUnpaid, "2026-01-01")))

	all, total, err := repo.List(ctx, owner, &domainRepo.InvoiceFilterParams{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 3)

	paid := enum.InvoiceStatusPaid
	res, total, _ := repo.List(ctx, owner, &domainRepo.InvoiceFilterParams{Status: &paid})
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "beta", res[0].ClientName)

	through := date("2026-06-01")
	res, _, _ = repo.List(ctx, owner, &domainRepo.InvoiceFilterParams{OverdueThrough: &through})
	require.Len(t, res, 1)
	assert.Equal(t, "alpha", res[0].ClientName)

	through = date("2026-12-01")
	res, _, _ = repo.List(ctx, owner, &domainRepo.InvoiceFilterParams{OverdueThrough: &through})
	assert.Len(t, res, 2)

	res, _, _ = repo.List(ctx, owner, &domainRepo.InvoiceFilterParams{Search: "GAM"})
	require.Len(t, res, 1)
	assert.Equal(t, "gamma", res[0].ClientName)

	res, total, _ = repo.List(ctx, owner, &domainRepo.InvoiceFilterParams{
		SortBy:     domainRepo.InvoiceSortTotalAmount,
		SortOrder:  "asc",
		Pagination: &pagination.PaginationParams{Page: 2, PerPage: 2},
	})
	assert.EqualValues(t, 3, total)
	require.Len(t, res, 1)
	assert.Equal(t, "alpha", res[0].ClientName)
}

func TestInvoiceRepository_ListLimit(t *testing.T) {
	ctx := context.Background()
	repo := NewInvoiceRepository(NewStore())
	owner := uuid.New()

	for _, name := range []string{"a", "b", "c", "d"} {
		require.NoError(t, repo.Create(ctx, newInvoice(owner, name, "10", enum.InvoiceStatusUnpaid, "2026-01-01")))
	}

	res, total, err := repo.List(ctx, owner, &domainRepo.InvoiceFilterParams{Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Len(t, res, 2)

	// pagination wins over the limit
	res, _, err = repo.List(ctx, owner, &domainRepo.InvoiceFilterParams{
		Limit:      1,
		Pagination: &pagination.PaginationParams{Page: 1, PerPage: 3},
	})
	require.NoError(t, err)
	assert.Len(t, res, 3)
}

func TestInvoiceRepository_DeleteRemovesFromList(t *testing.T) {
	ctx := context.Background()
	repo := NewInvoiceRepository(NewStore())
	owner := uuid.New()

	inv := newInvoice(owner, "acme", "100", enum.InvoiceStatusUnpaid, "2026-01-10")
	require.NoError(t, repo.Create(ctx, inv))
	require.NoError(t, repo.Delete(ctx, inv.ID))

	list, total, err := repo.List(ctx, owner, &domainRepo.InvoiceFilterParams{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)
}

func TestInvoiceSummaryRepository(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	invoices := NewInvoiceRepository(store)
	summary := NewInvoiceSummaryRepository(store)
	owner := uuid.New()

	a := newInvoice(owner, "a", "1075", enum.InvoiceStatusPaid, "2026-01-01")
	a.VATAmount = decimal.NewFromInt(75)
	require.NoError(t, invoices.Create(ctx, a))
	require.NoError(t, invoices.Create(ctx, newInvoice(owner, "b", "50", enum.InvoiceStatusUnpaid, "2026-01-01")))
	require.NoError(t, invoices.Create(ctx, newInvoice(owner, "c", "25", enum.InvoiceStatusUnpaid, "2027-01-01")))

	rows, err := summary.SummarizeByStatus(ctx, owner)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, enum.InvoiceStatusUnpaid, rows[0].Status)
	assert.EqualValues(t, 2, rows[0].Count)
	assert.True(t, rows[0].TotalAmount.Equal(decimal.NewFromInt(75)))
	assert.True(t, rows[1].VATAmount.Equal(decimal.NewFromInt(75)))

	overdue, err := summary.CountOverdue(ctx, owner, date("2026-06-01"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, overdue)

	// due on the cutoff date counts
	overdue, err = summary.CountOverdue(ctx, owner, date("2026-01-01"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, overdue)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewInvoiceRepository(NewStore()).GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, context.Canceled)
}
