package expense_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone/finance-engine/expense"
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
	service  *expense.Service
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
	f.service = expense.NewService(m, f.journal, f.registry)

	_, err := f.registry.SeedDefaultChart(ctx)
	require.NoError(t, err)

	calendar := ledger.NewCalendar(m)
	_, err = calendar.GenerateFiscalYear(ctx, 2024)
	require.NoError(t, err)
	// Payments and void reversals are dated today, which needs an open period.
	if year := ledger.Today().Year(); year != 2024 {
		_, err = calendar.GenerateFiscalYear(ctx, year)
		require.NoError(t, err)
	}
	return f
}

func (f *fixture) accountID(t *testing.T, number string) string {
	t.Helper()
	a, err := f.registry.ResolveNumber(context.Background(), number)
	require.NoError(t, err)
	return a.ID
}

func amt(s string) decimal.Decimal { return ledger.MustParseDecimal(s) }

// createInput is a valid two-line rent+software bill: 1000 + 200 + 30 tax.
func (f *fixture) createInput(t *testing.T) expense.CreateInput {
	t.Helper()
	return expense.CreateInput{
		VendorID:    "vend-1",
		VendorName:  "Downtown Properties",
		Date:        ledger.NewDate(2024, time.July, 1),
		DueDate:     ledger.NewDate(2024, time.July, 31),
		Description: "July office costs",
		Category:    "rent",
		Lines: []expense.Line{
			{AccountID: f.accountID(t, "6100"), Amount: amt("1000.00"), Description: "Office rent"},
			{AccountID: f.accountID(t, "6300"), Amount: amt("200.00"), Description: "Licenses"},
		},
		Tax: amt("30.00"),
	}
}

func (f *fixture) createDraft(t *testing.T) *expense.Expense {
	t.Helper()
	e, err := f.service.Create(context.Background(), f.createInput(t))
	require.NoError(t, err)
	return e
}

func (f *fixture) createApproved(t *testing.T) *expense.Expense {
	t.Helper()
	e := f.createDraft(t)
	e, err := f.service.Approve(context.Background(), e.ID)
	require.NoError(t, err)
	return e
}

// =============================================================================
// CREATE
// =============================================================================

func TestCreate_DraftWithDerivedTotals(t *testing.T) {
	// GIVEN: A two-line bill with tax
	// WHEN: Creating
	// THEN: Draft status, sequenced number, subtotal from lines, total
	//       including tax, and no journal entry yet

	f := newFixture(t)
	e := f.createDraft(t)

	assert.Equal(t, expense.StatusDraft, e.Status)
	assert.Equal(t, "EXP-00001", e.ExpenseNumber)
	assert.True(t, e.Subtotal.Equal(amt("1200.00")))
	assert.True(t, e.Total.Equal(amt("1230.00")))
	assert.Empty(t, e.JournalEntryID)

	second := f.createDraft(t)
	assert.Equal(t, "EXP-00002", second.ExpenseNumber)
}

func TestCreate_ValidationFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// No lines
	in := f.createInput(t)
	in.Lines = nil
	_, err := f.service.Create(ctx, in)
	assert.True(t, errors.Is(err, ledger.ErrValidation))

	// Negative tax
	in = f.createInput(t)
	in.Tax = amt("-1")
	_, err = f.service.Create(ctx, in)
	assert.True(t, errors.Is(err, ledger.ErrValidation))

	// Zero-amount line
	in = f.createInput(t)
	in.Lines[0].Amount = decimal.Zero
	_, err = f.service.Create(ctx, in)
	assert.True(t, errors.Is(err, ledger.ErrValidation))

	// Missing vendor
	in = f.createInput(t)
	in.VendorName = ""
	_, err = f.service.Create(ctx, in)
	assert.True(t, errors.Is(err, ledger.ErrValidation))

	// Unknown category
	in = f.createInput(t)
	in.Category = "yachts"
	_, err = f.service.Create(ctx, in)
	assert.True(t, errors.Is(err, ledger.ErrValidation))
}

func TestCreate_LinesMustPostToExpenseOrAssetAccounts(t *testing.T) {
	// Revenue and liability accounts cannot carry a vendor bill line.
	f := newFixture(t)

	in := f.createInput(t)
	in.Lines = []expense.Line{{AccountID: f.accountID(t, "4000"), Amount: amt("100")}}
	_, err := f.service.Create(context.Background(), in)
	assert.True(t, errors.Is(err, ledger.ErrValidation))

	// Prepaid (asset) is fine: paying ahead capitalizes.
	in.Lines = []expense.Line{{AccountID: f.accountID(t, "1300"), Amount: amt("100")}}
	_, err = f.service.Create(context.Background(), in)
	assert.NoError(t, err)
}

// =============================================================================
// SUBMIT / APPROVE
// =============================================================================

func TestSubmit_MovesDraftToPendingApproval(t *testing.T) {
	f := newFixture(t)
	e := f.createDraft(t)

	submitted, err := f.service.Submit(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, expense.StatusPendingApproval, submitted.Status)

	// Submitting twice is an invalid transition.
	_, err = f.service.Submit(context.Background(), e.ID)
	assert.True(t, errors.Is(err, ledger.ErrInvalidTransition))
}

func TestApprove_PostsLiabilityEntry(t *testing.T) {
	// GIVEN: A submitted expense (1000 + 200 + 30 tax)
	// WHEN: Approving
	// THEN: One balanced entry debits the line accounts (tax folded into the
	//       first) and credits AP for the total

	f := newFixture(t)
	ctx := context.Background()
	e := f.createDraft(t)
	_, err := f.service.Submit(ctx, e.ID)
	require.NoError(t, err)

	approved, err := f.service.Approve(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, expense.StatusApproved, approved.Status)
	require.NotEmpty(t, approved.JournalEntryID)

	entry, err := f.journal.GetEntry(ctx, approved.JournalEntryID)
	require.NoError(t, err)
	assert.Equal(t, ledger.SourceExpense, entry.SourceType)
	assert.Equal(t, e.ID, entry.SourceID)
	assert.True(t, entry.Date.Equal(e.Date))

	require.Len(t, entry.Lines, 3)
	assert.Equal(t, f.accountID(t, "6100"), entry.Lines[0].AccountID)
	assert.True(t, entry.Lines[0].Debit.Equal(amt("1030.00")), "tax lands on the first line; got %s", entry.Lines[0].Debit)
	assert.Equal(t, f.accountID(t, "6300"), entry.Lines[1].AccountID)
	assert.True(t, entry.Lines[1].Debit.Equal(amt("200.00")))
	assert.Equal(t, f.accountID(t, "2000"), entry.Lines[2].AccountID)
	assert.True(t, entry.Lines[2].Credit.Equal(amt("1230.00")))
}

func TestApprove_DirectlyFromDraft(t *testing.T) {
	f := newFixture(t)
	e := f.createDraft(t)

	approved, err := f.service.Approve(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, expense.StatusApproved, approved.Status)
}

func TestApprove_TwiceIsTransitionError(t *testing.T) {
	f := newFixture(t)
	e := f.createApproved(t)

	_, err := f.service.Approve(context.Background(), e.ID)
	assert.True(t, errors.Is(err, ledger.ErrInvalidTransition))

	// Exactly one liability entry exists.
	entries, err := f.journal.ListEntries(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// =============================================================================
// PAY
// =============================================================================

func TestPay_SettlesAgainstCash(t *testing.T) {
	// GIVEN: An approved expense totaling 1230
	// WHEN: Paying by ACH
	// THEN: A payment entry dated today debits AP and credits cash, keyed
	//       under "<id>/payment"

	f := newFixture(t)
	ctx := context.Background()
	e := f.createApproved(t)

	paid, err := f.service.Pay(ctx, e.ID, "ach")
	require.NoError(t, err)
	assert.Equal(t, expense.StatusPaid, paid.Status)
	assert.Equal(t, "ach", paid.PaymentMethod)
	require.NotEmpty(t, paid.PaymentJournalEntryID)
	assert.NotEqual(t, paid.JournalEntryID, paid.PaymentJournalEntryID)

	entry, err := f.journal.GetEntry(ctx, paid.PaymentJournalEntryID)
	require.NoError(t, err)
	assert.Equal(t, e.ID+"/payment", entry.SourceID)
	assert.True(t, entry.Date.Equal(ledger.Today()))
	require.Len(t, entry.Lines, 2)
	assert.Equal(t, f.accountID(t, "2000"), entry.Lines[0].AccountID)
	assert.True(t, entry.Lines[0].Debit.Equal(amt("1230.00")))
	assert.Equal(t, f.accountID(t, "1000"), entry.Lines[1].AccountID)
	assert.True(t, entry.Lines[1].Credit.Equal(amt("1230.00")))
}

func TestPay_RequiresApprovedStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft := f.createDraft(t)
	_, err := f.service.Pay(ctx, draft.ID, "ach")
	assert.True(t, errors.Is(err, ledger.ErrInvalidTransition))

	paid := f.createApproved(t)
	_, err = f.service.Pay(ctx, paid.ID, "ach")
	require.NoError(t, err)
	_, err = f.service.Pay(ctx, paid.ID, "ach")
	assert.True(t, errors.Is(err, ledger.ErrInvalidTransition))
}

// =============================================================================
// VOID
// =============================================================================

func TestVoid_DraftNeedsNoReversal(t *testing.T) {
	f := newFixture(t)
	e := f.createDraft(t)

	voided, err := f.service.Void(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, expense.StatusVoid, voided.Status)

	entries, err := f.journal.ListEntries(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestVoid_ApprovedReversesLiability(t *testing.T) {
	// GIVEN: An approved expense with a posted liability
	// WHEN: Voiding
	// THEN: The liability entry is reversed and the ledger nets to zero

	f := newFixture(t)
	ctx := context.Background()
	e := f.createApproved(t)

	voided, err := f.service.Void(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, expense.StatusVoid, voided.Status)

	original, err := f.journal.GetEntry(ctx, e.JournalEntryID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusReversed, original.Status)

	entries, err := f.journal.ListEntries(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	reversal := entries[0] // newest first
	assert.Equal(t, ledger.SourceReversal, reversal.SourceType)
	assert.Equal(t, original.ID, reversal.SourceID)
	// Reversal credits what the original debited.
	assert.True(t, reversal.Lines[0].Credit.Equal(amt("1030.00")))
}

func TestVoid_PaidAndVoidRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	paid := f.createApproved(t)
	_, err := f.service.Pay(ctx, paid.ID, "")
	require.NoError(t, err)
	_, err = f.service.Void(ctx, paid.ID)
	assert.True(t, errors.Is(err, ledger.ErrInvalidTransition))

	voided := f.createDraft(t)
	_, err = f.service.Void(ctx, voided.ID)
	require.NoError(t, err)
	_, err = f.service.Void(ctx, voided.ID)
	assert.True(t, errors.Is(err, ledger.ErrInvalidTransition))
}

// =============================================================================
// RETRY AFTER PARTIAL FAILURE
// =============================================================================

// flakySaveStore delegates to Memory but fails UpdateExpense a set number of
// times, simulating a crash after the journal posts but before the expense
// record saves.
type flakySaveStore struct {
	*store.Memory
	failures int
}

func (s *flakySaveStore) UpdateExpense(ctx context.Context, e expense.Expense) error {
	if s.failures > 0 {
		s.failures--
		return errors.New("storage unavailable")
	}
	return s.Memory.UpdateExpense(ctx, e)
}

func (f *fixture) flakyService(failures int) (*expense.Service, *flakySaveStore) {
	flaky := &flakySaveStore{Memory: f.store, failures: failures}
	return expense.NewService(flaky, f.journal, f.registry), flaky
}

func TestApprove_RetryAfterSaveFailureAdoptsPostedEntry(t *testing.T) {
	// GIVEN: Approval posts the liability but the expense save fails
	// WHEN: Approving again
	// THEN: The retry adopts the already-posted entry instead of failing on
	//       the duplicate-source guard, and exactly one entry exists

	f := newFixture(t)
	ctx := context.Background()
	svc, _ := f.flakyService(1)

	e, err := svc.Create(ctx, f.createInput(t))
	require.NoError(t, err)

	_, err = svc.Approve(ctx, e.ID)
	require.Error(t, err)

	approved, err := svc.Approve(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, expense.StatusApproved, approved.Status)
	require.NotEmpty(t, approved.JournalEntryID)

	posted, err := f.journal.EntryBySource(ctx, ledger.SourceExpense, e.ID)
	require.NoError(t, err)
	require.NotNil(t, posted)
	assert.Equal(t, posted.ID, approved.JournalEntryID)

	entries, err := f.journal.ListEntries(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPay_RetryAfterSaveFailureAdoptsPostedEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc, flaky := f.flakyService(0)

	e, err := svc.Create(ctx, f.createInput(t))
	require.NoError(t, err)
	_, err = svc.Approve(ctx, e.ID)
	require.NoError(t, err)

	flaky.failures = 1
	_, err = svc.Pay(ctx, e.ID, "ach")
	require.Error(t, err)

	paid, err := svc.Pay(ctx, e.ID, "ach")
	require.NoError(t, err)
	assert.Equal(t, expense.StatusPaid, paid.Status)
	require.NotEmpty(t, paid.PaymentJournalEntryID)

	posted, err := f.journal.EntryBySource(ctx, ledger.SourceExpense, e.ID+"/payment")
	require.NoError(t, err)
	require.NotNil(t, posted)
	assert.Equal(t, posted.ID, paid.PaymentJournalEntryID)

	// One liability entry plus one payment entry, nothing doubled.
	entries, err := f.journal.ListEntries(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestVoid_RetryAfterSaveFailureSkipsSecondReversal(t *testing.T) {
	// GIVEN: Void reverses the liability but the expense save fails
	// WHEN: Voiding again
	// THEN: The retry completes without posting a second reversal

	f := newFixture(t)
	ctx := context.Background()
	svc, flaky := f.flakyService(0)

	e, err := svc.Create(ctx, f.createInput(t))
	require.NoError(t, err)
	approved, err := svc.Approve(ctx, e.ID)
	require.NoError(t, err)

	flaky.failures = 1
	_, err = svc.Void(ctx, e.ID)
	require.Error(t, err)

	voided, err := svc.Void(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, expense.StatusVoid, voided.Status)

	original, err := f.journal.GetEntry(ctx, approved.JournalEntryID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusReversed, original.Status)

	entries, err := f.journal.ListEntries(ctx, 0, 0)
	require.NoError(t, err)
	reversals := 0
	for _, entry := range entries {
		if entry.SourceType == ledger.SourceReversal {
			reversals++
		}
	}
	assert.Equal(t, 1, reversals)
}

// =============================================================================
// GET / LIST
// =============================================================================

func TestGet_UnknownExpense(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Get(context.Background(), "nope")
	assert.True(t, errors.Is(err, ledger.ErrNotFound))
}

func TestList_FiltersByStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createDraft(t)
	f.createApproved(t)

	all, err := f.service.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	drafts, err := f.service.List(ctx, expense.StatusDraft)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, expense.StatusDraft, drafts[0].Status)
}
