package billing

import (
	"errors"
	"time"

	"github.com/sangkips/maglo-api/internal/domain/enum"
)

// ErrTransitionNotAllowed is returned when a status change has no edge in the lifecycle.
var ErrTransitionNotAllowed = errors.New("status transition not allowed")

// MarkAsPaid returns the status after a mark-paid action and whether it changed.
// Paid invoices stay paid without error. Only unpaid invoices move to paid.
func MarkAsPaid(current enum.InvoiceStatus) (next enum.InvoiceStatus, changed bool, err error) {
	switch current {
	case enum.InvoiceStatusUnpaid:
		return enum.InvoiceStatusPaid, true, nil
	case enum.InvoiceStatusPaid:
		return enum.InvoiceStatusPaid, false, nil
	default:
		return current, false, ErrTransitionNotAllowed
	}
}

// IsOverdue reports whether an invoice is past due. A due date is the UTC
// midnight that starts that day, so an unpaid invoice due today is overdue
// for the whole day.
func IsOverdue(status enum.InvoiceStatus, dueDate, now time.Time) bool {
	if status != enum.InvoiceStatusUnpaid {
		return false
	}
	return DateOf(dueDate).Before(now)
}

// OverdueThrough returns the latest due date that is overdue at now. Storage
// filters select unpaid invoices with due_date <= OverdueThrough(now).
func OverdueThrough(now time.Time) time.Time {
	today := DateOf(now)
	if today.Before(now) {
		return today
	}
	return today.AddDate(0, 0, -1)
}

// DateOf keeps only the calendar date of a due date. Dates are stored without
// a zone and read back as UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
