package billing

import (
	"testing"
	"time"

	"github.com/sangkips/maglo-api/internal/domain/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkAsPaid(t *testing.T) {
	next, changed, err := MarkAsPaid(enum.InvoiceStatusUnpaid)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, enum.InvoiceStatusPaid, next)

	// idempotent
	next, changed, err = MarkAsPaid(next)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, enum.InvoiceStatusPaid, next)

	next, changed, err = MarkAsPaid(enum.InvoiceStatusPending)
	assert.ErrorIs(t, err, ErrTransitionNotAllowed)
	assert.False(t, changed)
	assert.Equal(t, enum.InvoiceStatusPending, next)
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)
	yesterday := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	today := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	tomorrow := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)

	assert.True(t, IsOverdue(enum.InvoiceStatusUnpaid, yesterday, now))
	assert.True(t, IsOverdue(enum.InvoiceStatusUnpaid, today, now))
	assert.False(t, IsOverdue(enum.InvoiceStatusUnpaid, tomorrow, now))

	// exactly at the start of the due date
	assert.False(t, IsOverdue(enum.InvoiceStatusUnpaid, today, today))

	assert.False(t, IsOverdue(enum.InvoiceStatusPaid, yesterday, now))
	assert.False(t, IsOverdue(enum.InvoiceStatusPaid, today, now))
	assert.False(t, IsOverdue(enum.InvoiceStatusPending, yesterday, now))
}

func TestIsOverdue_ZoneOfNow(t *testing.T) {
	// 20:00 on Oct 19 in New York is 00:00 on Oct 20 in UTC.
	ny := time.FixedZone("EDT", -4*60*60)
	now := time.Date(2026, 10, 19, 20, 0, 0, 0, ny)

	assert.True(t, IsOverdue(enum.InvoiceStatusUnpaid, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), now))
	assert.False(t, IsOverdue(enum.InvoiceStatusUnpaid, time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC), now))

	// 08:00 on Oct 19 in Lagos is 07:00 UTC, the same day.
	lagos := time.FixedZone("WAT", 60*60)
	early := time.Date(2026, 10, 19, 8, 0, 0, 0, lagos)
	assert.True(t, IsOverdue(enum.InvoiceStatusUnpaid, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), early))
}

func TestOverdueThrough(t *testing.T) {
	midday := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	midnight := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, midnight, OverdueThrough(midday))
	assert.Equal(t, time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), OverdueThrough(midnight))

	// The storage filter agrees with IsOverdue on either side of the boundary.
	for _, now := range []time.Time{midday, midnight, midnight.Add(time.Nanosecond)} {
		through := OverdueThrough(now)
		for _, due := range []time.Time{midnight.AddDate(0, 0, -1), midnight, midnight.AddDate(0, 0, 1)} {
			assert.Equal(t, !due.After(through), IsOverdue(enum.InvoiceStatusUnpaid, due, now),
				"due=%s now=%s", due, now)
		}
	}
}
