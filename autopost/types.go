/*
Package autopost derives journal entries from business-event records.

PURPOSE:
  The rest of the suite (billing, CRM, time tracking, subscriptions) writes
  invoices, payments, time entries, and renewals into the shared document
  store. This package scans those records and posts the corresponding
  double-entry journal entries through the ledger's single write path.

IDEMPOTENCY:
  At most one journal entry exists per (source type, source id). The scan
  skips records that already have a linked entry, and the store's unique
  source index catches the remaining race when two batch runs overlap.

BATCH SEMANTICS:
  Partial failure, not all-or-nothing: a record that cannot be posted
  (missing mapped account, closed period, zero amount) increments the
  skipped count and the batch continues.

SEE ALSO:
  - poster.go: The per-source-type batch runners
  - ledger/journal.go: Validation applied to every derived entry
*/
package autopost

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/keystone/finance-engine/ledger"
)

// =============================================================================
// SOURCE RECORDS - Business events written by the rest of the suite
// =============================================================================

// Invoice is an issued customer invoice. Issuance books revenue against
// accounts receivable.
type Invoice struct {
	ID           string
	Number       string
	CustomerName string
	Date         ledger.Date
	Total        decimal.Decimal
}

// Payment is a received customer payment. Receipt moves the amount from
// accounts receivable into cash.
type Payment struct {
	ID        string
	InvoiceID string
	Method    string
	Date      ledger.Date
	Amount    decimal.Decimal
}

// TimeEntry is logged billable work. Billable hours accrue work-in-process
// against accrued payroll at a caller-supplied hourly rate.
type TimeEntry struct {
	ID        string
	ProjectID string
	Date      ledger.Date
	Hours     decimal.Decimal
	Billable  bool
}

// Renewal is a subscription renewal. Renewal books the recurring amount as
// receivable recurring revenue.
type Renewal struct {
	ID              string
	PlanName        string
	Date            ledger.Date
	RecurringAmount decimal.Decimal
}

// SourceStore reads the business-event records to scan. Implemented by both
// the SQLite and in-memory stores.
type SourceStore interface {
	ListInvoices(ctx context.Context) ([]Invoice, error)
	ListPayments(ctx context.Context) ([]Payment, error)
	ListTimeEntries(ctx context.Context) ([]TimeEntry, error)
	ListRenewals(ctx context.Context) ([]Renewal, error)
}

// =============================================================================
// ACCOUNT MAPPING
// =============================================================================

// AccountMap names the chart accounts each business event posts against.
// Accounts are addressed by chart number so the mapping survives reseeding.
type AccountMap struct {
	Cash               string
	AccountsReceivable string
	ServiceRevenue     string
	RecurringRevenue   string
	WorkInProcess      string
	AccruedPayroll     string
}

// DefaultAccountMap matches the numbers installed by SeedDefaultChart.
func DefaultAccountMap() AccountMap {
	return AccountMap{
		Cash:               "1000",
		AccountsReceivable: "1100",
		ServiceRevenue:     "4000",
		RecurringRevenue:   "4200",
		WorkInProcess:      "1400",
		AccruedPayroll:     "2100",
	}
}

// Result reports the outcome of one batch run.
type Result struct {
	Posted  int
	Skipped int
}
