/*
period.go - Accounting period calendar

PURPOSE:
  Owns AccountingPeriod records: fiscal-year generation and the
  open/closed/locked lifecycle. The journal engine consults the calendar
  on every posting; closed and locked periods reject new entries.

LIFECYCLE:
  open   -> closed   (Close; blocks postings, reversible)
  closed -> open     (Reopen)
  closed -> locked   (Lock; terminal, for externally audited periods)

  Reopen from locked fails: locked exists precisely so audited statements
  cannot drift.

SEE ALSO:
  - journal.go: Period guard on posting (re-checked inside the store tx)
  - types.go: AccountingPeriod, PeriodStatus
*/
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// CALENDAR
// =============================================================================

// Calendar is the accounting-period service.
type Calendar struct {
	store PeriodStore
}

func NewCalendar(store PeriodStore) *Calendar {
	return &Calendar{store: store}
}

// GenerateFiscalYear creates the 12 contiguous monthly periods for a fiscal
// year. Fails with ErrPeriodOverlap if any period for that year already
// exists; partial years are never generated.
func (c *Calendar) GenerateFiscalYear(ctx context.Context, year int) ([]AccountingPeriod, error) {
	if year < 1900 || year > 2200 {
		return nil, Validationf("fiscal_year", "%d is out of range", year)
	}

	exists, err := c.store.HasPeriodsForYear(ctx, year)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("fiscal year %d: %w", year, ErrPeriodOverlap)
	}

	periods := make([]AccountingPeriod, 0, 12)
	for month := time.January; month <= time.December; month++ {
		periods = append(periods, AccountingPeriod{
			ID:            uuid.NewString(),
			Name:          fmt.Sprintf("%s %d", month, year),
			StartDate:     StartOfMonth(year, month),
			EndDate:       EndOfMonth(year, month),
			FiscalYear:    year,
			FiscalQuarter: (int(month)-1)/3 + 1,
			FiscalMonth:   int(month),
			Status:        PeriodOpen,
		})
	}

	if err := c.store.SavePeriods(ctx, periods); err != nil {
		return nil, err
	}
	return periods, nil
}

// Close transitions an open period to closed, blocking further postings.
// No completeness audit of the period's entries is performed before close;
// a closed period can be reopened if late postings are needed.
func (c *Calendar) Close(ctx context.Context, periodID, closedBy string) (*AccountingPeriod, error) {
	p, err := c.get(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if p.Status != PeriodOpen {
		return nil, &TransitionError{Entity: "period", ID: periodID, From: string(p.Status), To: string(PeriodClosed)}
	}

	now := time.Now().UTC()
	p.Status = PeriodClosed
	p.ClosedAt = &now
	p.ClosedBy = closedBy
	if err := c.store.UpdatePeriod(ctx, *p); err != nil {
		return nil, err
	}
	return p, nil
}

// Reopen transitions a closed period back to open. Locked periods are
// terminal and cannot be reopened.
func (c *Calendar) Reopen(ctx context.Context, periodID string) (*AccountingPeriod, error) {
	p, err := c.get(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if p.Status != PeriodClosed {
		return nil, &TransitionError{Entity: "period", ID: periodID, From: string(p.Status), To: string(PeriodOpen)}
	}

	p.Status = PeriodOpen
	p.ClosedAt = nil
	p.ClosedBy = ""
	if err := c.store.UpdatePeriod(ctx, *p); err != nil {
		return nil, err
	}
	return p, nil
}

// Lock transitions a closed period to locked. Locked is terminal: it marks a
// period whose statements have been externally audited, so neither reopening
// nor posting is ever possible again.
func (c *Calendar) Lock(ctx context.Context, periodID string) (*AccountingPeriod, error) {
	p, err := c.get(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if p.Status != PeriodClosed {
		return nil, &TransitionError{Entity: "period", ID: periodID, From: string(p.Status), To: string(PeriodLocked)}
	}

	p.Status = PeriodLocked
	if err := c.store.UpdatePeriod(ctx, *p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns a period by id or ErrNotFound.
func (c *Calendar) Get(ctx context.Context, periodID string) (*AccountingPeriod, error) {
	return c.get(ctx, periodID)
}

// List returns all periods ordered by start date.
func (c *Calendar) List(ctx context.Context) ([]AccountingPeriod, error) {
	return c.store.ListPeriods(ctx)
}

// PeriodFor returns the period covering a date, or ErrPeriodNotFound.
func (c *Calendar) PeriodFor(ctx context.Context, d Date) (*AccountingPeriod, error) {
	p, err := c.store.PeriodForDate(ctx, d)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("date %s: %w", d, ErrPeriodNotFound)
	}
	return p, nil
}

func (c *Calendar) get(ctx context.Context, periodID string) (*AccountingPeriod, error) {
	p, err := c.store.GetPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}
