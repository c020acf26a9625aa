package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone/finance-engine/ledger"
	"github.com/keystone/finance-engine/ledger/store"
)

func newCalendar() *ledger.Calendar {
	return ledger.NewCalendar(store.NewMemory())
}

func TestGenerateFiscalYear_TwelveContiguousPeriods(t *testing.T) {
	// GIVEN: An empty calendar
	// WHEN: Generating 2024
	// THEN: 12 open monthly periods, contiguous, correctly quartered

	ctx := context.Background()
	calendar := newCalendar()

	periods, err := calendar.GenerateFiscalYear(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, periods, 12)

	assert.Equal(t, "January 2024", periods[0].Name)
	assert.True(t, periods[0].StartDate.Equal(ledger.NewDate(2024, time.January, 1)))
	assert.True(t, periods[0].EndDate.Equal(ledger.NewDate(2024, time.January, 31)))
	assert.Equal(t, 1, periods[0].FiscalQuarter)
	assert.Equal(t, 4, periods[11].FiscalQuarter)
	// Leap year February
	assert.True(t, periods[1].EndDate.Equal(ledger.NewDate(2024, time.February, 29)))

	for i, p := range periods {
		assert.Equal(t, ledger.PeriodOpen, p.Status)
		assert.Equal(t, i+1, p.FiscalMonth)
		if i > 0 {
			assert.True(t, p.StartDate.Equal(periods[i-1].EndDate.AddDays(1)),
				"period %s does not start the day after %s ends", p.Name, periods[i-1].Name)
		}
	}
}

func TestGenerateFiscalYear_DuplicateYearRejected(t *testing.T) {
	ctx := context.Background()
	calendar := newCalendar()

	_, err := calendar.GenerateFiscalYear(ctx, 2024)
	require.NoError(t, err)

	_, err = calendar.GenerateFiscalYear(ctx, 2024)
	assert.True(t, errors.Is(err, ledger.ErrPeriodOverlap))
}

func TestGenerateFiscalYear_YearOutOfRange(t *testing.T) {
	_, err := newCalendar().GenerateFiscalYear(context.Background(), 1492)
	assert.True(t, errors.Is(err, ledger.ErrValidation))
}

func TestPeriodLifecycle_CloseReopenLock(t *testing.T) {
	// GIVEN: An open period
	// WHEN: Closing, reopening, closing again, locking
	// THEN: Each transition succeeds; close stamps who and when

	ctx := context.Background()
	calendar := newCalendar()
	periods, err := calendar.GenerateFiscalYear(ctx, 2024)
	require.NoError(t, err)
	id := periods[0].ID

	closed, err := calendar.Close(ctx, id, "controller")
	require.NoError(t, err)
	assert.Equal(t, ledger.PeriodClosed, closed.Status)
	assert.Equal(t, "controller", closed.ClosedBy)
	require.NotNil(t, closed.ClosedAt)
	assert.False(t, closed.AcceptsPostings())

	reopened, err := calendar.Reopen(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, ledger.PeriodOpen, reopened.Status)
	assert.Nil(t, reopened.ClosedAt)
	assert.True(t, reopened.AcceptsPostings())

	_, err = calendar.Close(ctx, id, "controller")
	require.NoError(t, err)
	locked, err := calendar.Lock(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, ledger.PeriodLocked, locked.Status)
}

func TestPeriodLifecycle_InvalidTransitions(t *testing.T) {
	ctx := context.Background()
	calendar := newCalendar()
	periods, err := calendar.GenerateFiscalYear(ctx, 2024)
	require.NoError(t, err)
	id := periods[0].ID

	// Reopen an open period
	_, err = calendar.Reopen(ctx, id)
	assert.True(t, errors.Is(err, ledger.ErrInvalidTransition))

	// Lock an open period
	_, err = calendar.Lock(ctx, id)
	assert.True(t, errors.Is(err, ledger.ErrInvalidTransition))

	// Close twice
	_, err = calendar.Close(ctx, id, "c")
	require.NoError(t, err)
	_, err = calendar.Close(ctx, id, "c")
	assert.True(t, errors.Is(err, ledger.ErrInvalidTransition))

	// Locked is terminal
	_, err = calendar.Lock(ctx, id)
	require.NoError(t, err)
	_, err = calendar.Reopen(ctx, id)
	assert.True(t, errors.Is(err, ledger.ErrInvalidTransition))
}

func TestPeriodFor_ResolvesByDate(t *testing.T) {
	ctx := context.Background()
	calendar := newCalendar()
	_, err := calendar.GenerateFiscalYear(ctx, 2024)
	require.NoError(t, err)

	p, err := calendar.PeriodFor(ctx, ledger.NewDate(2024, time.March, 31))
	require.NoError(t, err)
	assert.Equal(t, "March 2024", p.Name)

	_, err = calendar.PeriodFor(ctx, ledger.NewDate(2023, time.December, 31))
	assert.True(t, errors.Is(err, ledger.ErrPeriodNotFound))
}
