/*
Package expense is the accounts-payable sub-ledger.

PURPOSE:
  Expenses are vendor bills with their own approval workflow. The workflow
  is the only thing this package owns; every financial effect goes through
  the ledger's journal engine:
    - approval posts the liability (debit expense accounts, credit AP)
    - payment settles it (debit AP, credit cash)
    - void reverses an already-posted liability

STATE MACHINE:
  draft -> pending_approval -> approved -> paid
  void is reachable from every state except paid.

IDEMPOTENCY:
  Approval and payment each post at most one journal entry, guarded by the
  expense's recorded entry ids plus the store's unique source index
  (source ids "<id>" and "<id>/payment").

SEE ALSO:
  - ledger/journal.go: Posting and reversal
  - autopost: The same skip-on-failure posting conventions
*/
package expense

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/keystone/finance-engine/ledger"
)

// =============================================================================
// EXPENSE - Accounts payable document
// =============================================================================

type Status string

const (
	StatusDraft           Status = "draft"
	StatusPendingApproval Status = "pending_approval"
	StatusApproved        Status = "approved"
	StatusPaid            Status = "paid"
	StatusVoid            Status = "void"
)

// Line allocates part of an expense to an expense account.
type Line struct {
	AccountID   string
	Amount      decimal.Decimal
	Description string
}

// Expense is a vendor bill. JournalEntryID is set when approval posts the
// liability; PaymentJournalEntryID when payment settles it.
type Expense struct {
	ID                    string
	ExpenseNumber         string // EXP-00001 style, store-sequenced
	VendorID              string
	VendorName            string
	Date                  ledger.Date
	DueDate               ledger.Date
	Description           string
	Category              string
	Lines                 []Line
	Subtotal              decimal.Decimal
	Tax                   decimal.Decimal
	Total                 decimal.Decimal
	Status                Status
	PaymentMethod         string
	JournalEntryID        string
	PaymentJournalEntryID string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Categories is the closed set of reporting categories offered by the UI.
var Categories = []string{
	"advertising",
	"contractors",
	"insurance",
	"meals",
	"office_supplies",
	"professional_services",
	"rent",
	"software",
	"travel",
	"utilities",
	"other",
}

// ValidCategory reports whether c is a known category.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}

// =============================================================================
// STORE
// =============================================================================

// Store persists expenses. Implemented by both the SQLite and in-memory
// stores.
type Store interface {
	SaveExpense(ctx context.Context, e Expense) error
	UpdateExpense(ctx context.Context, e Expense) error
	GetExpense(ctx context.Context, id string) (*Expense, error)
	ListExpenses(ctx context.Context, status Status) ([]Expense, error)

	// NextExpenseNumber returns the next value of the expense sequence.
	NextExpenseNumber(ctx context.Context) (int64, error)
}
