package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/maglo-api/internal/domain/entity"
	"github.com/sangkips/maglo-api/internal/domain/enum"
	"github.com/sangkips/maglo-api/internal/domain/repository"
	"github.com/sangkips/maglo-api/internal/infrastructure/memory"
	"github.com/sangkips/maglo-api/pkg/apperror"
	"github.com/sangkips/maglo-api/pkg/email"
	"github.com/sangkips/maglo-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.Discard()
}

var fixedNow = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

type fixture struct {
	store     *memory.Store
	invoices  *InvoiceService
	settings  *SettingsService
	dashboard *DashboardService
	mailer    *fakeMailer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	settings := NewSettingsService(memory.NewSettingsRepository(store))
	mailer := &fakeMailer{configured: true}

	invoices := NewInvoiceService(memory.NewInvoiceRepository(store), settings, mailer, 100)
	invoices.now = func() time.Time { return fixedNow }

	dashboard := NewDashboardService(memory.NewInvoiceSummaryRepository(store), settings)
	dashboard.now = func() time.Time { return fixedNow }

	return &fixture{store: store, invoices: invoices, settings: settings, dashboard: dashboard, mailer: mailer}
}

func newPrincipal() Principal {
	return Principal{UserID: uuid.New(), Email: "owner@example.com", TokenID: uuid.NewString(), ExpiresAt: fixedNow.Add(time.Hour)}
}

func strPtr(s string) *string { return &s }

func validInput() *InvoiceInput {
	return &InvoiceInput{
		ClientName:    "Acme Ltd",
		ClientEmail:   "Billing@Acme.com",
		Amount:        "1000",
		VATPercentage: strPtr("7.5"),
		DueDate:       "2026-11-01",
		Items: []InvoiceItemInput{
			{Name: "Design", Quantity: "2", Rate: "500", Amount: "1000"},
		},
	}
}

// seedInvoice stores an invoice directly, bypassing the service rules
func (f *fixture) seedInvoice(t *testing.T, owner uuid.UUID, status enum.InvoiceStatus, due string) *entity.Invoice {
	t.Helper()
	d, err := time.Parse(entity.DateLayout, due)
	require.NoError(t, err)
	inv := &entity.Invoice{UserID: owner, ClientName: "Seed", ClientEmail: "seed@example.com", Status: status, DueDate: d}
	require.NoError(t, memory.NewInvoiceRepository(f.store).Create(context.Background(), inv))
	return inv
}

func assertStatus(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, apperror.GetAppError(err).Code, err.Error())
}

func assertFieldError(t *testing.T, err error, field string) {
	t.Helper()
	assertStatus(t, err, http.StatusUnprocessableEntity)
	fields := make([]string, 0)
	for _, fe := range apperror.GetAppError(err).Errors {
		fields = append(fields, fe.Field)
	}
	assert.Contains(t, fields, field)
}

type fakeMailer struct {
	configured bool
	err        error
	sent       []email.InvoiceEmail
}

func (m *fakeMailer) IsConfigured() bool { return m.configured }

func (m *fakeMailer) SendInvoiceEmail(data email.InvoiceEmail) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, data)
	return nil
}

// brokenInvoiceRepo fails every call the way an unreachable database would
type brokenInvoiceRepo struct {
	repository.InvoiceRepository
}

var errDown = errors.New("dial tcp 10.0.0.1:5432: connect: connection refused")

func (brokenInvoiceRepo) Create(context.Context, *entity.Invoice) error { return errDown }

func (brokenInvoiceRepo) GetByID(context.Context, uuid.UUID) (*entity.Invoice, error) {
	return nil, errDown
}

func (brokenInvoiceRepo) List(context.Context, uuid.UUID, *repository.InvoiceFilterParams) ([]entity.Invoice, int64, error) {
	return nil, 0, errDown
}
