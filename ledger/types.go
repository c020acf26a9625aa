/*
Package ledger provides the double-entry accounting core.

PURPOSE:
  This package contains the domain types and engines for the financial
  ledger: the chart of accounts, accounting periods, and the journal of
  posted entries. Everything downstream (statements, auto-posting, the
  expense sub-ledger) is built on top of these primitives.

KEY CONCEPTS IN THIS FILE (types.go):
  - Account: A node in the chart of accounts with a derived normal balance
  - AccountingPeriod: A fiscal month with an open/closed/locked lifecycle
  - JournalEntry / JournalEntryLine: An immutable balanced posting
  - PostedLine: The flattened read-model row used by statement derivation

DESIGN PRINCIPLES:
  1. Immutability: Posted entries are never edited, only reversed
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Derived balances: Account balances are always recomputed from posted
     lines, never cached on the Account record
  4. Closed classification: Sub-types are a closed set per account type,
     validated at the boundary

SEE ALSO:
  - coa.go: Chart-of-accounts registry
  - period.go: Accounting period calendar
  - journal.go: Posting and reversal engine
  - errors.go: Error taxonomy
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Two-decimal monetary amounts
// =============================================================================

// BalanceTolerance is the maximum debit/credit discrepancy tolerated in a
// balanced entry or statement check. Amounts are two-decimal currency; any
// difference at or above one cent is an error.
var BalanceTolerance = decimal.NewFromFloat(0.01)

// WithinTolerance reports whether a and b differ by less than one cent.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(BalanceTolerance)
}

// MustParseDecimal parses a decimal string, returning zero on failure.
// Only for trusted literals (seed data, tests).
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// ACCOUNT CLASSIFICATION
// =============================================================================

type AccountType string

const (
	TypeAsset     AccountType = "asset"
	TypeLiability AccountType = "liability"
	TypeEquity    AccountType = "equity"
	TypeRevenue   AccountType = "revenue"
	TypeExpense   AccountType = "expense"
)

// NormalBalance is the side on which an account type naturally increases.
type NormalBalance string

const (
	NormalDebit  NormalBalance = "debit"
	NormalCredit NormalBalance = "credit"
)

// NormalBalanceFor derives the normal balance from the account type. It is
// never independently settable: Asset/Expense accounts increase on the debit
// side, Liability/Equity/Revenue accounts on the credit side.
func NormalBalanceFor(t AccountType) NormalBalance {
	switch t {
	case TypeAsset, TypeExpense:
		return NormalDebit
	default:
		return NormalCredit
	}
}

// ValidAccountType reports whether t is one of the five account types.
func ValidAccountType(t AccountType) bool {
	switch t {
	case TypeAsset, TypeLiability, TypeEquity, TypeRevenue, TypeExpense:
		return true
	}
	return false
}

// AccountSubType refines an account's statement classification. The set of
// valid sub-types is closed per account type; free-form strings are rejected
// at creation so statements never see an unclassifiable account.
type AccountSubType string

const (
	// Asset sub-types
	SubTypeCash               AccountSubType = "cash"
	SubTypeAccountsReceivable AccountSubType = "accounts_receivable"
	SubTypeInventory          AccountSubType = "inventory"
	SubTypeWorkInProcess      AccountSubType = "work_in_process"
	SubTypePrepaidExpenses    AccountSubType = "prepaid_expenses"
	SubTypeOtherCurrentAsset  AccountSubType = "other_current_asset"
	SubTypeFixedAsset         AccountSubType = "fixed_asset"
	SubTypeOtherAsset         AccountSubType = "other_asset"

	// Liability sub-types
	SubTypeAccountsPayable       AccountSubType = "accounts_payable"
	SubTypeAccruedLiabilities    AccountSubType = "accrued_liabilities"
	SubTypeCreditCard            AccountSubType = "credit_card"
	SubTypeDeferredRevenue       AccountSubType = "deferred_revenue"
	SubTypeOtherCurrentLiability AccountSubType = "other_current_liability"
	SubTypeLongTermDebt          AccountSubType = "long_term_debt"
	SubTypeOtherLiability        AccountSubType = "other_liability"

	// Equity sub-types
	SubTypeOwnersEquity       AccountSubType = "owners_equity"
	SubTypeContributedCapital AccountSubType = "contributed_capital"
	SubTypeRetainedEarnings   AccountSubType = "retained_earnings"

	// Revenue sub-types
	SubTypeServiceRevenue   AccountSubType = "service_revenue"
	SubTypeProductRevenue   AccountSubType = "product_revenue"
	SubTypeRecurringRevenue AccountSubType = "recurring_revenue"
	SubTypeOtherRevenue     AccountSubType = "other_revenue"

	// Expense sub-types
	SubTypeCOGS                  AccountSubType = "cogs"
	SubTypePayrollExpense        AccountSubType = "payroll_expense"
	SubTypeRentExpense           AccountSubType = "rent_expense"
	SubTypeMarketingExpense      AccountSubType = "marketing_expense"
	SubTypeSoftwareExpense       AccountSubType = "software_expense"
	SubTypeDepreciationExpense   AccountSubType = "depreciation_expense"
	SubTypeOtherOperatingExpense AccountSubType = "other_operating_expense"
	SubTypeOtherExpense          AccountSubType = "other_expense"
)

var subTypesByType = map[AccountType][]AccountSubType{
	TypeAsset: {
		SubTypeCash, SubTypeAccountsReceivable, SubTypeInventory,
		SubTypeWorkInProcess, SubTypePrepaidExpenses, SubTypeOtherCurrentAsset,
		SubTypeFixedAsset, SubTypeOtherAsset,
	},
	TypeLiability: {
		SubTypeAccountsPayable, SubTypeAccruedLiabilities, SubTypeCreditCard,
		SubTypeDeferredRevenue, SubTypeOtherCurrentLiability,
		SubTypeLongTermDebt, SubTypeOtherLiability,
	},
	TypeEquity: {
		SubTypeOwnersEquity, SubTypeContributedCapital, SubTypeRetainedEarnings,
	},
	TypeRevenue: {
		SubTypeServiceRevenue, SubTypeProductRevenue, SubTypeRecurringRevenue,
		SubTypeOtherRevenue,
	},
	TypeExpense: {
		SubTypeCOGS, SubTypePayrollExpense, SubTypeRentExpense,
		SubTypeMarketingExpense, SubTypeSoftwareExpense,
		SubTypeDepreciationExpense, SubTypeOtherOperatingExpense,
		SubTypeOtherExpense,
	},
}

// SubTypesFor returns the allowed sub-types for an account type.
func SubTypesFor(t AccountType) []AccountSubType {
	return subTypesByType[t]
}

// ValidSubType reports whether s is an allowed sub-type for account type t.
func ValidSubType(t AccountType, s AccountSubType) bool {
	for _, allowed := range subTypesByType[t] {
		if allowed == s {
			return true
		}
	}
	return false
}

// =============================================================================
// ACCOUNT - A node in the chart of accounts
// =============================================================================

// Account is a chart-of-accounts record. Accounts are never physically
// deleted (historical entries reference them); they are deactivated instead.
type Account struct {
	ID              string
	AccountNumber   string // unique within the chart
	Name            string
	Type            AccountType
	SubType         AccountSubType
	NormalBalance   NormalBalance // derived from Type, never set directly
	ParentAccountID string        // optional self-reference, no ownership semantics
	IsActive        bool
	Description     string
	TaxCode         string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// =============================================================================
// ACCOUNTING PERIOD - A fiscal month
// =============================================================================

type PeriodStatus string

const (
	PeriodOpen   PeriodStatus = "open"
	PeriodClosed PeriodStatus = "closed"
	PeriodLocked PeriodStatus = "locked" // terminal; statements externally audited
)

// AccountingPeriod is one fiscal month. Periods for a fiscal year are
// generated in a contiguous batch of 12; at most one period covers any
// calendar date.
type AccountingPeriod struct {
	ID            string
	Name          string // e.g. "January 2024"
	StartDate     Date
	EndDate       Date
	FiscalYear    int
	FiscalQuarter int // 1-4
	FiscalMonth   int // 1-12
	Status        PeriodStatus
	ClosedAt      *time.Time
	ClosedBy      string
}

// Contains reports whether the date falls within [StartDate, EndDate].
func (p AccountingPeriod) Contains(d Date) bool {
	return d.AfterOrEqual(p.StartDate) && d.BeforeOrEqual(p.EndDate)
}

// AcceptsPostings reports whether new entries may be posted into the period.
func (p AccountingPeriod) AcceptsPostings() bool {
	return p.Status == PeriodOpen
}

// =============================================================================
// JOURNAL ENTRY - An immutable balanced posting
// =============================================================================

// SourceType identifies where a journal entry originated. Auto-posted entries
// carry the business record they were derived from; manual and reversal
// entries have no external source uniqueness.
type SourceType string

const (
	SourceManual    SourceType = "manual"
	SourceInvoice   SourceType = "invoice"
	SourcePayment   SourceType = "payment"
	SourceTimeEntry SourceType = "time_entry"
	SourceRenewal   SourceType = "renewal"
	SourceExpense   SourceType = "expense"
	SourceReversal  SourceType = "reversal"
)

// HasSourceKey reports whether entries of this source type are covered by the
// at-most-one-entry-per-source idempotency guarantee.
func (s SourceType) HasSourceKey() bool {
	return s != SourceManual && s != SourceReversal
}

type EntryStatus string

const (
	StatusDraft    EntryStatus = "draft"
	StatusPosted   EntryStatus = "posted"
	StatusReversed EntryStatus = "reversed" // entry stands, a reversal offsets it
)

// JournalEntryLine is a single debit or credit against an account. Exactly
// one side is expected to be non-zero; a line carrying both represents a net
// adjustment and still sums correctly downstream.
type JournalEntryLine struct {
	AccountID    string
	Debit        decimal.Decimal
	Credit       decimal.Decimal
	Description  string
	DepartmentID string
	ProjectID    string
}

// IsZero reports whether the line moves no money at all.
func (l JournalEntryLine) IsZero() bool {
	return l.Debit.IsZero() && l.Credit.IsZero()
}

// JournalEntry is an immutable posting. The only mutation ever applied after
// creation is the Status flip to "reversed" when a reversal entry is posted
// against it; amounts, lines, and dates are never edited.
type JournalEntry struct {
	ID           string
	EntryNumber  int64 // globally unique, monotonically increasing, gap-free
	Date         Date  // transaction date; resolves the accounting period
	PostingDate  Date  // date the entry was recorded
	PeriodID     string
	Description  string
	SourceType   SourceType
	SourceID     string // originating record; empty for manual entries
	Lines        []JournalEntryLine
	Status       EntryStatus
	TotalDebits  decimal.Decimal
	TotalCredits decimal.Decimal
	CreatedAt    time.Time
	CreatedBy    string
}

// =============================================================================
// POSTED LINE - Read-model row for statement derivation
// =============================================================================

// PostedLine is a journal entry line flattened with its entry's metadata.
// Statement derivation aggregates these; it never touches entries directly.
// Lines of reversed entries are included: the original and its reversal both
// stand in the ledger and net to zero.
type PostedLine struct {
	EntryID     string
	EntryNumber int64
	Date        Date
	AccountID   string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
	SourceType  SourceType
}
