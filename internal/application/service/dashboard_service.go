package service

import (
	"context"
	"time"

	"github.com/sangkips/maglo-api/internal/domain/billing"
	"github.com/sangkips/maglo-api/internal/domain/enum"
	"github.com/sangkips/maglo-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// DashboardService provides invoice statistics for the dashboard
type DashboardService struct {
	summaryRepo repository.InvoiceSummaryRepository
	settings    *SettingsService
	now         func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(summaryRepo repository.InvoiceSummaryRepository, settings *SettingsService) *DashboardService {
	return &DashboardService{
		summaryRepo: summaryRepo,
		settings:    settings,
		now:         time.Now,
	}
}

// DashboardStats represents dashboard statistics
type DashboardStats struct {
	Currency          string          `json:"currency"`
	TotalInvoices     int64           `json:"total_invoices"`
	PaidInvoices      int64           `json:"paid_invoices"`
	UnpaidInvoices    int64           `json:"unpaid_invoices"`
	PendingInvoices   int64           `json:"pending_invoices"`
	OverdueInvoices   int64           `json:"overdue_invoices"`
	TotalPaid         decimal.Decimal `json:"total_paid"`
	TotalOutstanding  decimal.Decimal `json:"total_outstanding"`
	TotalVATCollected decimal.Decimal `json:"total_vat_collected"`
	ChartData         []ChartPoint    `json:"chart_data"`
}

// ChartPoint is one slice of the paid/unpaid chart
type ChartPoint struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

// GetDashboardStats aggregates the caller's invoices
func (s *DashboardService) GetDashboardStats(ctx context.Context, principal Principal) (*DashboardStats, error) {
	if err := requireAuth(principal); err != nil {
		return nil, err
	}

	settings, err := s.settings.forUser(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}

	rows, err := s.summaryRepo.SummarizeByStatus(ctx, principal.UserID)
	if err != nil {
		return nil, storeError("summarize invoices", err)
	}

	overdue, err := s.summaryRepo.CountOverdue(ctx, principal.UserID, billing.OverdueThrough(s.now()))
	if err != nil {
		return nil, storeError("count overdue invoices", err)
	}

	stats := &DashboardStats{
		Currency:          settings.Currency,
		OverdueInvoices:   overdue,
		TotalPaid:         decimal.Zero,
		TotalOutstanding:  decimal.Zero,
		TotalVATCollected: decimal.Zero,
	}

	for _, row := range rows {
		stats.TotalInvoices += row.Count
		switch row.Status {
		case enum.InvoiceStatusPaid:
			stats.PaidInvoices = row.Count
			stats.TotalPaid = row.TotalAmount
			stats.TotalVATCollected = row.VATAmount
		case enum.InvoiceStatusUnpaid:
			stats.UnpaidInvoices = row.Count
			stats.TotalOutstanding = row.TotalAmount
		case enum.InvoiceStatusPending:
			stats.PendingInvoices = row.Count
		}
	}

	stats.ChartData = []ChartPoint{
		{Name: "Paid", Value: stats.TotalPaid},
		{Name: "Unpaid", Value: stats.TotalOutstanding},
	}

	return stats, nil
}
