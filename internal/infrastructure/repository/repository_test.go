package repository

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/maglo-api/internal/domain/entity"
	domainRepo "github.com/sangkips/maglo-api/internal/domain/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// sqlRecorder keeps every statement gorm renders, with arguments inlined
type sqlRecorder struct {
	gormlogger.Interface
	mu         sync.Mutex
	statements []string
}

func (r *sqlRecorder) LogMode(gormlogger.LogLevel) gormlogger.Interface { return r }

func (r *sqlRecorder) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	sql, _ := fc()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statements = append(r.statements, sql)
}

func (r *sqlRecorder) last(t *testing.T) string {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.statements)
	return r.statements[len(r.statements)-1]
}

// newDryRunDB renders PostgreSQL statements without a server
func newDryRunDB(t *testing.T) (*gorm.DB, *sqlRecorder) {
	t.Helper()
	rec := &sqlRecorder{Interface: gormlogger.Discard}
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=maglo dbname=maglo sslmode=disable",
	}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
		Logger:                 rec,
	})
	require.NoError(t, err)
	return db, rec
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off`, escapeLike("50%_off"))
	assert.Equal(t, `a\\b`, escapeLike(`a\b`))
	assert.Equal(t, "acme", escapeLike("acme"))
}

func TestInvoiceList_FilterSQL(t *testing.T) {
	db, rec := newDryRunDB(t)
	repo := NewInvoiceRepository(db)
	owner := uuid.New()
	through := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	_, _, err := repo.List(context.Background(), owner, &domainRepo.InvoiceFilterParams{
		Search:         " 50%_off ",
		OverdueThrough: &through,
	})
	require.NoError(t, err)

	sql := rec.last(t)
	assert.Contains(t, sql, "user_id = '"+owner.String()+"'")
	assert.Contains(t, sql, `client_name ILIKE '%50\%\_off%' OR client_email ILIKE '%50\%\_off%'`)
	assert.Contains(t, sql, "status = 'unpaid' AND due_date <= '2026-10-19 00:00:00'")
}

func TestInvoiceList_NoOwnerMatchesNothing(t *testing.T) {
	db, rec := newDryRunDB(t)

	_, _, err := NewInvoiceRepository(db).List(context.Background(), uuid.Nil, &domainRepo.InvoiceFilterParams{})
	require.NoError(t, err)

	sql := rec.last(t)
	assert.Contains(t, sql, "1 = 0")
	assert.NotContains(t, sql, "user_id")
}

func TestInvoiceSummarySQL(t *testing.T) {
	db, rec := newDryRunDB(t)
	repo := NewInvoiceSummaryRepository(db)
	owner := uuid.New()

	// Scan cannot complete in dry run mode, the rendered statement is what matters
	_, _ = repo.SummarizeByStatus(context.Background(), owner)
	sql := rec.last(t)
	assert.Contains(t, sql, "COALESCE(SUM(total_amount), 0) AS total_amount")
	assert.Contains(t, sql, "user_id = '"+owner.String()+"'")
	assert.Contains(t, sql, `GROUP BY "status"`)

	_, err := repo.CountOverdue(context.Background(), owner, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	sql = rec.last(t)
	assert.True(t, strings.HasPrefix(sql, "SELECT count(*)"), sql)
	assert.Contains(t, sql, "status = 'unpaid' AND due_date <= '2026-10-19 00:00:00'")
}

func TestIdempotencySQL(t *testing.T) {
	db, rec := newDryRunDB(t)
	repo := NewIdempotencyRepository(db)
	ctx := context.Background()
	user := uuid.New()
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	// Nothing is written in dry run mode, which reads as a conflict
	err := repo.Create(ctx, &entity.IdempotencyKey{
		Key: "k1", UserID: user, Endpoint: "POST /api/v1/invoices",
		CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	})
	assert.ErrorIs(t, err, domainRepo.ErrIdempotencyKeyInUse)
	sql := rec.last(t)
	assert.Contains(t, sql, `ON CONFLICT ("key","user_id") DO UPDATE SET`)
	assert.Contains(t, sql, "WHERE idempotency_keys.expires_at <= '2026-10-19 09:00:00'")

	require.NoError(t, repo.Release(ctx, "k1", user))
	sql = rec.last(t)
	assert.True(t, strings.HasPrefix(sql, `DELETE FROM "idempotency_keys"`), sql)
	assert.Contains(t, sql, "response_code = 0")

	require.NoError(t, repo.Complete(ctx, "k1", user, 201, `{}`))
	assert.Contains(t, rec.last(t), `"response_code"=201`)
}
