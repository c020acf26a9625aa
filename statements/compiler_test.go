package statements_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone/finance-engine/ledger"
	"github.com/keystone/finance-engine/ledger/store"
	"github.com/keystone/finance-engine/statements"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type books struct {
	store    *store.Memory
	registry *ledger.Registry
	calendar *ledger.Calendar
	journal  *ledger.Journal
	compiler *statements.Compiler
}

func newBooks(t *testing.T) *books {
	t.Helper()
	ctx := context.Background()

	m := store.NewMemory()
	b := &books{
		store:    m,
		registry: ledger.NewRegistry(m),
		calendar: ledger.NewCalendar(m),
		journal:  ledger.NewJournal(m),
		compiler: statements.NewCompiler(m),
	}

	_, err := b.registry.SeedDefaultChart(ctx)
	require.NoError(t, err)
	_, err = b.calendar.GenerateFiscalYear(ctx, 2024)
	require.NoError(t, err)
	if year := ledger.Today().Year(); year != 2024 {
		_, err = b.calendar.GenerateFiscalYear(ctx, year)
		require.NoError(t, err)
	}
	return b
}

// post debits one chart number and credits another for the given amount.
func (b *books) post(t *testing.T, date ledger.Date, debitNum, creditNum, amt, desc string) *ledger.JournalEntry {
	t.Helper()
	ctx := context.Background()

	debit, err := b.registry.ResolveNumber(ctx, debitNum)
	require.NoError(t, err)
	credit, err := b.registry.ResolveNumber(ctx, creditNum)
	require.NoError(t, err)

	entry, err := b.journal.PostEntry(ctx, ledger.PostEntryInput{
		Date:        date,
		Description: desc,
		Lines: []ledger.JournalEntryLine{
			{AccountID: debit.ID, Debit: ledger.MustParseDecimal(amt)},
			{AccountID: credit.ID, Credit: ledger.MustParseDecimal(amt)},
		},
	})
	require.NoError(t, err)
	return entry
}

func (b *books) periodFor(t *testing.T, d ledger.Date) *ledger.AccountingPeriod {
	t.Helper()
	p, err := b.calendar.PeriodFor(context.Background(), d)
	require.NoError(t, err)
	return p
}

func equalAmt(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(ledger.MustParseDecimal(want)), "want %s, got %s", want, got)
}

func findRow(rows []statements.TrialBalanceRow, number string) *statements.TrialBalanceRow {
	for i := range rows {
		if rows[i].AccountNumber == number {
			return &rows[i]
		}
	}
	return nil
}

// =============================================================================
// TRIAL BALANCE
// =============================================================================

func TestTrialBalance_AggregatesPerAccount(t *testing.T) {
	// GIVEN: One cash sale of 1000 posted 2024-01-15
	// WHEN: Compiling the trial balance as of 2024-01-31
	// THEN: Cash shows a 1000 debit balance, revenue a 1000 credit balance,
	//       and the ledger balances

	b := newBooks(t)
	b.post(t, ledger.NewDate(2024, time.January, 15), "1000", "4000", "1000.00", "Consulting fee")

	tb, err := b.compiler.TrialBalance(context.Background(), ledger.NewDate(2024, time.January, 31))
	require.NoError(t, err)

	assert.True(t, tb.IsBalanced)
	equalAmt(t, "1000.00", tb.TotalDebits)
	equalAmt(t, "1000.00", tb.TotalCredits)
	// Only touched accounts appear; the other 22 seeded accounts do not.
	require.Len(t, tb.Rows, 2)

	cash := findRow(tb.Rows, "1000")
	require.NotNil(t, cash)
	assert.Equal(t, ledger.NormalDebit, cash.NormalBalance)
	equalAmt(t, "1000.00", cash.Balance)

	revenue := findRow(tb.Rows, "4000")
	require.NotNil(t, revenue)
	assert.Equal(t, ledger.NormalCredit, revenue.NormalBalance)
	equalAmt(t, "1000.00", revenue.Balance)
}

func TestTrialBalance_AsOfExcludesLaterPostings(t *testing.T) {
	b := newBooks(t)
	b.post(t, ledger.NewDate(2024, time.January, 15), "1000", "4000", "1000", "Jan sale")
	b.post(t, ledger.NewDate(2024, time.February, 10), "1000", "4000", "500", "Feb sale")

	tb, err := b.compiler.TrialBalance(context.Background(), ledger.NewDate(2024, time.January, 31))
	require.NoError(t, err)
	equalAmt(t, "1000", tb.TotalDebits)
}

func TestTrialBalance_ReversalNetsToZero(t *testing.T) {
	// GIVEN: A posted entry and its reversal
	// WHEN: Compiling the trial balance as of today
	// THEN: Both sides carry the activity and every balance nets to zero

	b := newBooks(t)
	ctx := context.Background()

	entry := b.post(t, ledger.NewDate(2024, time.March, 10), "1000", "4000", "750", "Mistake")
	_, err := b.journal.ReverseEntry(ctx, entry.ID, "auditor")
	require.NoError(t, err)

	tb, err := b.compiler.TrialBalance(ctx, ledger.Today())
	require.NoError(t, err)

	assert.True(t, tb.IsBalanced)
	cash := findRow(tb.Rows, "1000")
	require.NotNil(t, cash)
	equalAmt(t, "750", cash.TotalDebits)
	equalAmt(t, "750", cash.TotalCredits)
	assert.True(t, cash.Balance.IsZero())
}

// =============================================================================
// INCOME STATEMENT
// =============================================================================

func TestIncomeStatement_Buckets(t *testing.T) {
	// GIVEN: January activity across revenue, COGS, opex, and other revenue
	// WHEN: Compiling the income statement for January 2024
	// THEN: grossProfit = revenue - COGS, operatingIncome = grossProfit - opex,
	//       netIncome adds other revenue below the operating line

	b := newBooks(t)
	jan := ledger.NewDate(2024, time.January, 15)

	b.post(t, jan, "1000", "4000", "1000", "Service revenue")   // revenue
	b.post(t, jan, "5000", "1000", "200", "Materials")          // COGS
	b.post(t, jan, "6100", "1000", "300", "Office rent")        // operating expense
	b.post(t, jan, "1000", "4900", "50", "Interest income")     // other revenue

	is, err := b.compiler.IncomeStatement(context.Background(), b.periodFor(t, jan).ID)
	require.NoError(t, err)

	equalAmt(t, "1000", is.Revenue.Total)
	equalAmt(t, "200", is.CostOfGoodsSold.Total)
	equalAmt(t, "800", is.GrossProfit)
	equalAmt(t, "300", is.OperatingExpenses.Total)
	equalAmt(t, "500", is.OperatingIncome)
	equalAmt(t, "50", is.OtherRevenue.Total)
	equalAmt(t, "550", is.NetIncome)
	assert.Equal(t, "January 2024", is.PeriodName)
}

func TestIncomeStatement_ScopedToPeriod(t *testing.T) {
	b := newBooks(t)
	b.post(t, ledger.NewDate(2024, time.January, 15), "1000", "4000", "1000", "Jan")
	b.post(t, ledger.NewDate(2024, time.February, 15), "1000", "4000", "600", "Feb")

	is, err := b.compiler.IncomeStatement(context.Background(),
		b.periodFor(t, ledger.NewDate(2024, time.February, 1)).ID)
	require.NoError(t, err)
	equalAmt(t, "600", is.Revenue.Total)
	equalAmt(t, "600", is.NetIncome)
}

func TestIncomeStatement_UnknownPeriod(t *testing.T) {
	b := newBooks(t)
	_, err := b.compiler.IncomeStatement(context.Background(), "nope")
	assert.True(t, errors.Is(err, ledger.ErrNotFound))
}

// =============================================================================
// BALANCE SHEET
// =============================================================================

func TestBalanceSheet_BalancesViaCurrentPeriodEarnings(t *testing.T) {
	// GIVEN: Mixed activity with no closing entries ever posted
	// WHEN: Compiling the balance sheet
	// THEN: Accumulated net income appears as the current-period-earnings
	//       equity line and assets == liabilities + equity

	b := newBooks(t)
	jan := ledger.NewDate(2024, time.January, 15)

	b.post(t, jan, "1000", "4000", "1000", "Revenue")
	b.post(t, jan, "6100", "1000", "300", "Rent")
	b.post(t, jan, "1000", "2500", "5000", "Loan received")
	b.post(t, jan, "1000", "3100", "2000", "Capital contribution")

	bs, err := b.compiler.BalanceSheet(context.Background(), ledger.NewDate(2024, time.January, 31))
	require.NoError(t, err)

	// Cash: 1000 - 300 + 5000 + 2000 = 7700
	equalAmt(t, "7700", bs.CurrentAssets.Total)
	equalAmt(t, "7700", bs.TotalAssets)
	equalAmt(t, "5000", bs.LongTermLiabilities.Total)
	equalAmt(t, "2000", bs.Equity.Total)
	equalAmt(t, "700", bs.CurrentPeriodEarnings) // 1000 revenue - 300 rent
	equalAmt(t, "2700", bs.TotalEquity)
	assert.True(t, bs.IsBalanced)
}

func TestBalanceSheet_PartitionsSubTypes(t *testing.T) {
	b := newBooks(t)
	jan := ledger.NewDate(2024, time.January, 15)

	b.post(t, jan, "1500", "1000", "800", "Equipment purchase") // fixed asset from cash
	b.post(t, jan, "1000", "4000", "800", "Fund it first")

	bs, err := b.compiler.BalanceSheet(context.Background(), ledger.NewDate(2024, time.January, 31))
	require.NoError(t, err)

	equalAmt(t, "800", bs.FixedAssets.Total)
	// Cash: +800 - 800 = 0 balance, but the account was touched so it lists.
	equalAmt(t, "0", bs.CurrentAssets.Total)
	assert.True(t, bs.IsBalanced)
}

// =============================================================================
// CASH FLOW
// =============================================================================

func TestCashFlow_IndirectMethod(t *testing.T) {
	// GIVEN: February revenue booked on account and partially collected
	// WHEN: Compiling February's cash flow
	// THEN: Operating cash = net income minus the AR growth, matching the
	//       actual cash movement

	b := newBooks(t)
	feb := ledger.NewDate(2024, time.February, 5)

	// January opening activity so the period deltas start from a real base.
	b.post(t, ledger.NewDate(2024, time.January, 20), "1000", "4000", "500", "Jan cash sale")

	b.post(t, feb, "1100", "4000", "1000", "Invoice on account")
	b.post(t, ledger.NewDate(2024, time.February, 20), "1000", "1100", "400", "Partial collection")

	cf, err := b.compiler.CashFlow(context.Background(), b.periodFor(t, feb).ID)
	require.NoError(t, err)

	equalAmt(t, "1000", cf.NetIncome)
	equalAmt(t, "600", cf.AccountsReceivableChange) // 1000 invoiced - 400 collected
	equalAmt(t, "400", cf.OperatingCashFlow)
	equalAmt(t, "0", cf.InvestingCashFlow)
	equalAmt(t, "0", cf.FinancingCashFlow)
	equalAmt(t, "400", cf.NetCashChange)
}

func TestCashFlow_InvestingAndFinancing(t *testing.T) {
	b := newBooks(t)
	mar := ledger.NewDate(2024, time.March, 10)

	b.post(t, mar, "1000", "2500", "10000", "Term loan")
	b.post(t, mar, "1000", "3100", "5000", "Capital contribution")
	b.post(t, mar, "1500", "1000", "3000", "Buy equipment")

	cf, err := b.compiler.CashFlow(context.Background(), b.periodFor(t, mar).ID)
	require.NoError(t, err)

	equalAmt(t, "3000", cf.CapitalExpenditures)
	equalAmt(t, "-3000", cf.InvestingCashFlow)
	equalAmt(t, "10000", cf.DebtChange)
	equalAmt(t, "5000", cf.EquityChange)
	equalAmt(t, "15000", cf.FinancingCashFlow)
	equalAmt(t, "12000", cf.NetCashChange) // 0 operating - 3000 + 15000
}

// =============================================================================
// DRILL-DOWN
// =============================================================================

func TestDrillDown_RunningBalance(t *testing.T) {
	// GIVEN: Two entries touching cash in date order
	// WHEN: Drilling into the cash account
	// THEN: Lines appear chronologically with a debit-normal running balance

	b := newBooks(t)
	ctx := context.Background()

	b.post(t, ledger.NewDate(2024, time.January, 10), "1000", "4000", "1000", "Sale")
	b.post(t, ledger.NewDate(2024, time.January, 20), "6100", "1000", "300", "Rent")

	cash, err := b.registry.ResolveNumber(ctx, "1000")
	require.NoError(t, err)

	dd, err := b.compiler.DrillDown(ctx, cash.ID)
	require.NoError(t, err)

	require.Len(t, dd.Lines, 2)
	equalAmt(t, "1000", dd.Lines[0].RunningBalance)
	equalAmt(t, "700", dd.Lines[1].RunningBalance)
	equalAmt(t, "700", dd.EndingBalance)
	assert.Equal(t, ledger.NormalDebit, dd.NormalBalance)
}

func TestDrillDown_CreditNormalAccount(t *testing.T) {
	b := newBooks(t)
	ctx := context.Background()

	b.post(t, ledger.NewDate(2024, time.January, 10), "1000", "4000", "1000", "Sale")

	revenue, err := b.registry.ResolveNumber(ctx, "4000")
	require.NoError(t, err)

	dd, err := b.compiler.DrillDown(ctx, revenue.ID)
	require.NoError(t, err)
	require.Len(t, dd.Lines, 1)
	equalAmt(t, "1000", dd.EndingBalance) // credits increase a revenue account
}

func TestDrillDown_UnknownAccount(t *testing.T) {
	b := newBooks(t)
	_, err := b.compiler.DrillDown(context.Background(), "nope")
	assert.True(t, errors.Is(err, ledger.ErrNotFound))
}
