package autopost_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone/finance-engine/autopost"
	"github.com/keystone/finance-engine/ledger"
	"github.com/keystone/finance-engine/ledger/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type fixture struct {
	store    *store.Memory
	registry *ledger.Registry
	journal  *ledger.Journal
	poster   *autopost.Poster
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	m := store.NewMemory()
	f := &fixture{
		store:    m,
		registry: ledger.NewRegistry(m),
		journal:  ledger.NewJournal(m),
	}
	f.poster = autopost.New(f.journal, f.registry, m)

	_, err := f.registry.SeedDefaultChart(ctx)
	require.NoError(t, err)
	_, err = ledger.NewCalendar(m).GenerateFiscalYear(ctx, 2024)
	require.NoError(t, err)
	return f
}

func (f *fixture) entryFor(t *testing.T, sourceType ledger.SourceType, sourceID string) *ledger.JournalEntry {
	t.Helper()
	entry, err := f.journal.EntryBySource(context.Background(), sourceType, sourceID)
	require.NoError(t, err)
	require.NotNil(t, entry, "no entry posted for %s %s", sourceType, sourceID)
	return entry
}

func (f *fixture) accountID(t *testing.T, number string) string {
	t.Helper()
	a, err := f.registry.ResolveNumber(context.Background(), number)
	require.NoError(t, err)
	return a.ID
}

func amt(s string) decimal.Decimal { return ledger.MustParseDecimal(s) }

// =============================================================================
// INVOICES
// =============================================================================

func TestPostInvoices_DebitsReceivableCreditsRevenue(t *testing.T) {
	// GIVEN: One unposted invoice
	// WHEN: Running the invoice batch
	// THEN: One entry debits AR and credits service revenue for the total

	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.SaveInvoice(ctx, autopost.Invoice{
		ID:           "inv-1",
		Number:       "INV-1001",
		CustomerName: "Acme Corp",
		Date:         ledger.NewDate(2024, time.March, 5),
		Total:        amt("2500.00"),
	}))

	result, err := f.poster.PostInvoices(ctx)
	require.NoError(t, err)
	assert.Equal(t, autopost.Result{Posted: 1, Skipped: 0}, result)

	entry := f.entryFor(t, ledger.SourceInvoice, "inv-1")
	assert.Equal(t, ledger.StatusPosted, entry.Status)
	assert.Equal(t, "autopost", entry.CreatedBy)
	require.Len(t, entry.Lines, 2)
	assert.Equal(t, f.accountID(t, "1100"), entry.Lines[0].AccountID)
	assert.True(t, entry.Lines[0].Debit.Equal(amt("2500.00")))
	assert.Equal(t, f.accountID(t, "4000"), entry.Lines[1].AccountID)
	assert.True(t, entry.Lines[1].Credit.Equal(amt("2500.00")))
}

func TestPostInvoices_SecondRunPostsNothing(t *testing.T) {
	// GIVEN: An invoice already posted by a previous batch
	// WHEN: Running the batch again
	// THEN: Posted=0 and no duplicate entry exists

	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.SaveInvoice(ctx, autopost.Invoice{
		ID:    "inv-1",
		Date:  ledger.NewDate(2024, time.March, 5),
		Total: amt("100"),
	}))

	first, err := f.poster.PostInvoices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Posted)

	second, err := f.poster.PostInvoices(ctx)
	require.NoError(t, err)
	assert.Equal(t, autopost.Result{Posted: 0, Skipped: 0}, second)

	entries, err := f.journal.ListEntries(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPostInvoices_BadRecordSkippedBatchContinues(t *testing.T) {
	// GIVEN: One invoice dated outside any period and one valid invoice
	// WHEN: Running the batch
	// THEN: The bad record is skipped, the good one posts

	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.SaveInvoice(ctx, autopost.Invoice{
		ID:    "inv-bad",
		Date:  ledger.NewDate(2019, time.March, 5),
		Total: amt("100"),
	}))
	require.NoError(t, f.store.SaveInvoice(ctx, autopost.Invoice{
		ID:    "inv-good",
		Date:  ledger.NewDate(2024, time.March, 5),
		Total: amt("100"),
	}))

	result, err := f.poster.PostInvoices(ctx)
	require.NoError(t, err)
	assert.Equal(t, autopost.Result{Posted: 1, Skipped: 1}, result)

	f.entryFor(t, ledger.SourceInvoice, "inv-good")
	missing, err := f.journal.EntryBySource(ctx, ledger.SourceInvoice, "inv-bad")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPostInvoices_MissingMappedAccountSkips(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.poster.WithAccountMap(autopost.AccountMap{
		AccountsReceivable: "9999", // not in the chart
		ServiceRevenue:     "4000",
	})

	require.NoError(t, f.store.SaveInvoice(ctx, autopost.Invoice{
		ID:    "inv-1",
		Date:  ledger.NewDate(2024, time.March, 5),
		Total: amt("100"),
	}))

	result, err := f.poster.PostInvoices(ctx)
	require.NoError(t, err)
	assert.Equal(t, autopost.Result{Posted: 0, Skipped: 1}, result)
}

// =============================================================================
// PAYMENTS
// =============================================================================

func TestPostPayments_MovesReceivableToCash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.SavePayment(ctx, autopost.Payment{
		ID:        "pay-1",
		InvoiceID: "inv-1",
		Method:    "wire",
		Date:      ledger.NewDate(2024, time.April, 2),
		Amount:    amt("1200.00"),
	}))

	result, err := f.poster.PostPayments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Posted)

	entry := f.entryFor(t, ledger.SourcePayment, "pay-1")
	require.Len(t, entry.Lines, 2)
	assert.Equal(t, f.accountID(t, "1000"), entry.Lines[0].AccountID)
	assert.True(t, entry.Lines[0].Debit.Equal(amt("1200.00")))
	assert.Equal(t, f.accountID(t, "1100"), entry.Lines[1].AccountID)
	assert.True(t, entry.Lines[1].Credit.Equal(amt("1200.00")))
	assert.Contains(t, entry.Description, "wire")
}

// =============================================================================
// TIME ENTRIES
// =============================================================================

func TestPostTimeEntries_AccruesBillableHoursOnly(t *testing.T) {
	// GIVEN: A billable and a non-billable time entry
	// WHEN: Posting at 150/h
	// THEN: Only the billable entry posts, WIP against accrued payroll

	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.SaveTimeEntry(ctx, autopost.TimeEntry{
		ID:       "te-1",
		Date:     ledger.NewDate(2024, time.May, 6),
		Hours:    amt("7.5"),
		Billable: true,
	}))
	require.NoError(t, f.store.SaveTimeEntry(ctx, autopost.TimeEntry{
		ID:       "te-2",
		Date:     ledger.NewDate(2024, time.May, 6),
		Hours:    amt("3"),
		Billable: false,
	}))

	result, err := f.poster.PostTimeEntries(ctx, amt("150"))
	require.NoError(t, err)
	assert.Equal(t, autopost.Result{Posted: 1, Skipped: 0}, result)

	entry := f.entryFor(t, ledger.SourceTimeEntry, "te-1")
	require.Len(t, entry.Lines, 2)
	assert.Equal(t, f.accountID(t, "1400"), entry.Lines[0].AccountID)
	assert.True(t, entry.Lines[0].Debit.Equal(amt("1125.00")), "7.5h * 150 = 1125, got %s", entry.Lines[0].Debit)
	assert.Equal(t, f.accountID(t, "2100"), entry.Lines[1].AccountID)

	nonBillable, err := f.journal.EntryBySource(ctx, ledger.SourceTimeEntry, "te-2")
	require.NoError(t, err)
	assert.Nil(t, nonBillable)
}

func TestPostTimeEntries_RateMustBePositive(t *testing.T) {
	f := newFixture(t)

	_, err := f.poster.PostTimeEntries(context.Background(), decimal.Zero)
	assert.True(t, errors.Is(err, ledger.ErrValidation))

	_, err = f.poster.PostTimeEntries(context.Background(), amt("-5"))
	assert.True(t, errors.Is(err, ledger.ErrValidation))
}

// =============================================================================
// RENEWALS
// =============================================================================

func TestPostRenewals_BooksRecurringRevenue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.SaveRenewal(ctx, autopost.Renewal{
		ID:              "ren-1",
		PlanName:        "Pro Annual",
		Date:            ledger.NewDate(2024, time.June, 1),
		RecurringAmount: amt("499.00"),
	}))

	result, err := f.poster.PostRenewals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Posted)

	entry := f.entryFor(t, ledger.SourceRenewal, "ren-1")
	require.Len(t, entry.Lines, 2)
	assert.Equal(t, f.accountID(t, "1100"), entry.Lines[0].AccountID)
	assert.Equal(t, f.accountID(t, "4200"), entry.Lines[1].AccountID)
	assert.True(t, entry.Lines[1].Credit.Equal(amt("499.00")))
	assert.Contains(t, entry.Description, "Pro Annual")
}
