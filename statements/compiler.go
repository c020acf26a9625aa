/*
Package statements derives financial statements from posted journal lines.

PURPOSE:
  Pure read side of the accounting core. Every statement is recomputed on
  request from the posted lines within scope; nothing here mutates state
  and nothing is cached, so a statement can never disagree with the
  journal it was derived from.

STATEMENTS:
  - Trial balance: per-account debit/credit totals and the ledger-wide
    balance check (compiler.go)
  - Income statement: revenue / COGS / operating buckets (income.go)
  - Balance sheet: asset/liability/equity partitions with the explicit
    current-period-earnings equity line (balancesheet.go)
  - Cash flow: indirect method from net income (cashflow.go)
  - Drill-down: chronological per-account history with running balance
    (compiler.go)

CONSISTENCY:
  Statements read a snapshot of posted lines and may run concurrently with
  postings; a statement computed mid-batch reflects whatever was posted at
  read time.

SEE ALSO:
  - ledger/store.go: The LinesInRange / LinesForAccount read model
*/
package statements

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/keystone/finance-engine/ledger"
)

// LedgerReader is the read surface the compiler needs. ledger.Store
// satisfies it.
type LedgerReader interface {
	ListAccounts(ctx context.Context, includeInactive bool) ([]ledger.Account, error)
	GetAccount(ctx context.Context, id string) (*ledger.Account, error)
	GetPeriod(ctx context.Context, id string) (*ledger.AccountingPeriod, error)
	LinesInRange(ctx context.Context, from, to ledger.Date) ([]ledger.PostedLine, error)
	LinesForAccount(ctx context.Context, accountID string) ([]ledger.PostedLine, error)
}

// Compiler derives statements on demand.
type Compiler struct {
	store LedgerReader
}

func NewCompiler(store LedgerReader) *Compiler {
	return &Compiler{store: store}
}

// =============================================================================
// SHARED AGGREGATION
// =============================================================================

// activity is the per-account debit/credit sum over a line scope.
type activity struct {
	Debits  decimal.Decimal
	Credits decimal.Decimal
}

// net returns the account balance on its normal side: debit-normal accounts
// carry debits minus credits, credit-normal accounts the opposite.
func (a activity) net(normal ledger.NormalBalance) decimal.Decimal {
	if normal == ledger.NormalDebit {
		return a.Debits.Sub(a.Credits)
	}
	return a.Credits.Sub(a.Debits)
}

func sumByAccount(lines []ledger.PostedLine) map[string]activity {
	byAccount := make(map[string]activity)
	for _, l := range lines {
		a := byAccount[l.AccountID]
		a.Debits = a.Debits.Add(l.Debit)
		a.Credits = a.Credits.Add(l.Credit)
		byAccount[l.AccountID] = a
	}
	return byAccount
}

// linesUpTo loads every posted line dated on or before asOf (all time when
// asOf is zero).
func (c *Compiler) linesUpTo(ctx context.Context, asOf ledger.Date) ([]ledger.PostedLine, error) {
	return c.store.LinesInRange(ctx, ledger.Date{}, asOf)
}

// accountsByID loads the full chart, inactive accounts included: historical
// lines may reference accounts deactivated since.
func (c *Compiler) accountsByID(ctx context.Context) (map[string]ledger.Account, []ledger.Account, error) {
	accounts, err := c.store.ListAccounts(ctx, true)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[string]ledger.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	return byID, accounts, nil
}

func (c *Compiler) period(ctx context.Context, periodID string) (*ledger.AccountingPeriod, error) {
	p, err := c.store.GetPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("period %s: %w", periodID, ledger.ErrNotFound)
	}
	return p, nil
}

// =============================================================================
// TRIAL BALANCE
// =============================================================================

// TrialBalanceRow is one account's cumulative activity as of the statement
// date. Statement structs serialize straight onto the wire, so they carry
// the same snake_case keys the request DTOs use; amounts emit as decimal
// strings and dates as YYYY-MM-DD.
type TrialBalanceRow struct {
	AccountID     string               `json:"account_id"`
	AccountNumber string               `json:"account_number"`
	AccountName   string               `json:"account_name"`
	Type          ledger.AccountType   `json:"type"`
	NormalBalance ledger.NormalBalance `json:"normal_balance"`
	TotalDebits   decimal.Decimal      `json:"total_debits"`
	TotalCredits  decimal.Decimal      `json:"total_credits"`
	Balance       decimal.Decimal      `json:"balance"` // on the account's normal side
}

// TrialBalance lists every account with activity and the ledger-wide
// integrity check: total debits must equal total credits to the cent.
type TrialBalance struct {
	AsOf         ledger.Date       `json:"as_of"`
	Rows         []TrialBalanceRow `json:"rows"`
	TotalDebits  decimal.Decimal   `json:"total_debits"`
	TotalCredits decimal.Decimal   `json:"total_credits"`
	IsBalanced   bool              `json:"is_balanced"`
}

// TrialBalance aggregates all posted lines up to asOf per account.
func (c *Compiler) TrialBalance(ctx context.Context, asOf ledger.Date) (*TrialBalance, error) {
	lines, err := c.linesUpTo(ctx, asOf)
	if err != nil {
		return nil, err
	}
	_, accounts, err := c.accountsByID(ctx)
	if err != nil {
		return nil, err
	}

	byAccount := sumByAccount(lines)
	tb := &TrialBalance{AsOf: asOf, TotalDebits: decimal.Zero, TotalCredits: decimal.Zero}

	for _, a := range accounts {
		act, touched := byAccount[a.ID]
		if !touched {
			continue
		}
		tb.Rows = append(tb.Rows, TrialBalanceRow{
			AccountID:     a.ID,
			AccountNumber: a.AccountNumber,
			AccountName:   a.Name,
			Type:          a.Type,
			NormalBalance: a.NormalBalance,
			TotalDebits:   act.Debits,
			TotalCredits:  act.Credits,
			Balance:       act.net(a.NormalBalance),
		})
		tb.TotalDebits = tb.TotalDebits.Add(act.Debits)
		tb.TotalCredits = tb.TotalCredits.Add(act.Credits)
	}

	tb.IsBalanced = ledger.WithinTolerance(tb.TotalDebits, tb.TotalCredits)
	return tb, nil
}

// =============================================================================
// ACCOUNT DRILL-DOWN
// =============================================================================

// DrillDownLine is one posted line with the running balance after it.
type DrillDownLine struct {
	EntryID        string            `json:"entry_id"`
	EntryNumber    int64             `json:"entry_number"`
	Date           ledger.Date       `json:"date"`
	Description    string            `json:"description"`
	SourceType     ledger.SourceType `json:"source_type"`
	Debit          decimal.Decimal   `json:"debit"`
	Credit         decimal.Decimal   `json:"credit"`
	RunningBalance decimal.Decimal   `json:"running_balance"`
}

// AccountDrillDown is the chronological transaction history of one account.
type AccountDrillDown struct {
	AccountID     string               `json:"account_id"`
	AccountNumber string               `json:"account_number"`
	AccountName   string               `json:"account_name"`
	Type          ledger.AccountType   `json:"type"`
	NormalBalance ledger.NormalBalance `json:"normal_balance"`
	Lines         []DrillDownLine      `json:"lines"`
	EndingBalance decimal.Decimal      `json:"ending_balance"`
}

// DrillDown returns every posted line touching the account with a running
// balance. The sign of each line's effect follows the account's normal
// balance.
func (c *Compiler) DrillDown(ctx context.Context, accountID string) (*AccountDrillDown, error) {
	account, err := c.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("account %s: %w", accountID, ledger.ErrNotFound)
	}

	lines, err := c.store.LinesForAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	dd := &AccountDrillDown{
		AccountID:     account.ID,
		AccountNumber: account.AccountNumber,
		AccountName:   account.Name,
		Type:          account.Type,
		NormalBalance: account.NormalBalance,
		EndingBalance: decimal.Zero,
	}

	running := decimal.Zero
	for _, l := range lines {
		effect := l.Debit.Sub(l.Credit)
		if account.NormalBalance == ledger.NormalCredit {
			effect = l.Credit.Sub(l.Debit)
		}
		running = running.Add(effect)
		dd.Lines = append(dd.Lines, DrillDownLine{
			EntryID:        l.EntryID,
			EntryNumber:    l.EntryNumber,
			Date:           l.Date,
			Description:    l.Description,
			SourceType:     l.SourceType,
			Debit:          l.Debit,
			Credit:         l.Credit,
			RunningBalance: running,
		})
	}
	dd.EndingBalance = running
	return dd, nil
}
