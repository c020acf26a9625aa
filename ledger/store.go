/*
store.go - Persistence interfaces for the accounting core

PURPOSE:
  Defines the interface between the domain engines and the database.
  Different implementations can use SQLite or in-memory storage.

APPEND-ONLY CONTRACT:
  Journal entries are append-only. The single exception is the status flip
  to reversed, which AppendEntry applies to the original entry in the same
  transaction that persists its reversal; amounts, lines, and dates are
  never updated and entries are never deleted.

ATOMICITY CONTRACT (the important part):
  AppendEntry must perform, inside ONE storage transaction:
    1. Re-check that the target period still accepts postings
       (a concurrent close must not race a posting into the period)
    2. Enforce at-most-one entry per (source type, source id)
    3. For reversal entries, re-check that the original entry exists and
       is not already reversed, then flip it to reversed
       (two concurrent reversals must not both post)
    4. Assign the next entry number (monotonic, gap-free on success)
    5. Persist the entry and its lines
  A failed attempt must consume no entry number.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite (unique indexes + transactions)
  - ledger/store: In-memory (single mutex) for tests and dev

SEE ALSO:
  - journal.go: Validation layer calling AppendEntry
  - statements: Read-only consumer of the Lines* queries
*/
package ledger

import "context"

// =============================================================================
// ACCOUNT STORE
// =============================================================================

// AccountStore persists the chart of accounts.
type AccountStore interface {
	// SaveAccount inserts a new account. Fails with
	// ErrDuplicateAccountNumber if the number is taken.
	SaveAccount(ctx context.Context, a Account) error

	// UpdateAccount overwrites an existing account record.
	UpdateAccount(ctx context.Context, a Account) error

	// GetAccount returns an account by id, or nil if absent.
	GetAccount(ctx context.Context, id string) (*Account, error)

	// GetAccountByNumber returns an account by its chart number, or nil.
	GetAccountByNumber(ctx context.Context, number string) (*Account, error)

	// ListAccounts returns the chart ordered by account number.
	ListAccounts(ctx context.Context, includeInactive bool) ([]Account, error)

	// AccountHasPostings reports whether any journal line references the
	// account. Guards the immutable-field rule.
	AccountHasPostings(ctx context.Context, accountID string) (bool, error)
}

// =============================================================================
// PERIOD STORE
// =============================================================================

// PeriodStore persists the accounting calendar.
type PeriodStore interface {
	// SavePeriods inserts a batch of periods atomically (a fiscal year).
	SavePeriods(ctx context.Context, periods []AccountingPeriod) error

	// UpdatePeriod overwrites a period record (status transitions).
	UpdatePeriod(ctx context.Context, p AccountingPeriod) error

	// GetPeriod returns a period by id, or nil.
	GetPeriod(ctx context.Context, id string) (*AccountingPeriod, error)

	// PeriodForDate returns the period covering the date, or nil.
	PeriodForDate(ctx context.Context, d Date) (*AccountingPeriod, error)

	// ListPeriods returns all periods ordered by start date.
	ListPeriods(ctx context.Context) ([]AccountingPeriod, error)

	// HasPeriodsForYear reports whether any period exists for the fiscal year.
	HasPeriodsForYear(ctx context.Context, year int) (bool, error)
}

// =============================================================================
// ENTRY STORE - Append-only journal persistence
// =============================================================================

// EntryStore persists journal entries.
type EntryStore interface {
	// AppendEntry atomically re-checks the entry's period status, enforces
	// source idempotency, assigns e.EntryNumber, and persists the entry.
	// When e carries SourceReversal, the original entry named by e.SourceID
	// is flipped to reversed in the same transaction; a missing original
	// fails with ErrNotFound and an already-reversed one with
	// ErrAlreadyReversed. Returns PeriodClosedError, ErrPeriodNotFound, or
	// ErrDuplicateSourcePosting on the other guard failures; on any failure
	// no entry number is consumed and nothing is written.
	AppendEntry(ctx context.Context, e *JournalEntry) error

	// GetEntry returns an entry with its lines, or nil.
	GetEntry(ctx context.Context, id string) (*JournalEntry, error)

	// EntryBySource returns the entry posted for (sourceType, sourceID),
	// or nil. Drives auto-posting idempotency scans.
	EntryBySource(ctx context.Context, sourceType SourceType, sourceID string) (*JournalEntry, error)

	// ListEntries returns entries ordered by entry number descending.
	ListEntries(ctx context.Context, limit, offset int) ([]JournalEntry, error)

	// LinesInRange returns posted lines with dates in [from, to],
	// chronological. A zero from (or to) leaves that bound open.
	LinesInRange(ctx context.Context, from, to Date) ([]PostedLine, error)

	// LinesForAccount returns every posted line touching the account,
	// chronological then by entry number.
	LinesForAccount(ctx context.Context, accountID string) ([]PostedLine, error)
}

// Store is the full persistence surface required by the accounting core.
type Store interface {
	AccountStore
	PeriodStore
	EntryStore
}
