/*
journal.go - Journal engine: posting and reversal

PURPOSE:
  The Journal is the single write path into the ledger. Manual entries,
  auto-posted business events, and the expense sub-ledger all post through
  here, so balance validation and period guards apply uniformly.

CRITICAL INVARIANTS:
  1. BALANCED: sum(debits) == sum(credits) to the cent before posting
  2. APPEND-ONLY: Entries are never edited or deleted; corrections are
     reversal entries with every line's debit/credit swapped
  3. NUMBERED: Entry numbers are globally unique, monotonic, and gap-free
     on success (assigned inside the store transaction)
  4. PERIOD-GUARDED: Postings into closed/locked periods fail; the store
     re-checks period status atomically with the insert

WHY DERIVED BALANCES?
  Accounts carry no running balance. Every statement recomputes from posted
  lines within scope, so concurrent postings cannot drift a cached total.

REVERSALS:
  Reversal entries are dated at reversal time, not backdated to the
  original entry's date. Backdating would rewrite a period that may already
  be closed; dating at reversal time keeps every period's history final.

SEE ALSO:
  - store.go: AppendEntry atomicity contract
  - statements: Read-side aggregation over posted lines
*/
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// JOURNAL
// =============================================================================

// Journal is the posting engine.
type Journal struct {
	store    Store
	calendar *Calendar
}

func NewJournal(store Store) *Journal {
	return &Journal{store: store, calendar: NewCalendar(store)}
}

// PostEntryInput carries a new entry. SourceType defaults to manual.
type PostEntryInput struct {
	Date        Date
	Description string
	Lines       []JournalEntryLine
	SourceType  SourceType
	SourceID    string
	CreatedBy   string
}

// PostEntry validates and persists a balanced journal entry.
//
// Validation order matters for error reporting: period resolution first
// (a posting into a missing or closed period is wrong regardless of its
// lines), then line-level checks, then the balance check across totals.
func (j *Journal) PostEntry(ctx context.Context, in PostEntryInput) (*JournalEntry, error) {
	if in.Date.IsZero() {
		return nil, Validationf("date", "is required")
	}
	sourceType := in.SourceType
	if sourceType == "" {
		sourceType = SourceManual
	}
	if sourceType.HasSourceKey() && in.SourceID == "" {
		return nil, Validationf("source_id", "is required for %s entries", sourceType)
	}

	period, err := j.calendar.PeriodFor(ctx, in.Date)
	if err != nil {
		return nil, err
	}
	if !period.AcceptsPostings() {
		return nil, &PeriodClosedError{
			PeriodID:   period.ID,
			PeriodName: period.Name,
			Status:     period.Status,
			Date:       in.Date,
		}
	}

	// Zero lines carry no information; drop them before validation so a
	// form submitting empty rows does not fail spuriously.
	lines := make([]JournalEntryLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		if !l.IsZero() {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return nil, Validationf("lines", "entry has no non-zero lines")
	}

	totalDebits := decimal.Zero
	totalCredits := decimal.Zero
	for i, l := range lines {
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return nil, Validationf("lines", "line %d: debit and credit must be non-negative", i)
		}
		account, err := j.store.GetAccount(ctx, l.AccountID)
		if err != nil {
			return nil, err
		}
		if account == nil {
			return nil, Validationf("lines", "line %d: unknown account %s", i, l.AccountID)
		}
		if !account.IsActive {
			return nil, Validationf("lines", "line %d: account %s (%s) is inactive", i, account.AccountNumber, account.Name)
		}
		totalDebits = totalDebits.Add(l.Debit)
		totalCredits = totalCredits.Add(l.Credit)
	}

	if !WithinTolerance(totalDebits, totalCredits) {
		return nil, &UnbalancedEntryError{TotalDebits: totalDebits, TotalCredits: totalCredits}
	}

	entry := &JournalEntry{
		ID:           uuid.NewString(),
		Date:         in.Date,
		PostingDate:  Today(),
		PeriodID:     period.ID,
		Description:  in.Description,
		SourceType:   sourceType,
		SourceID:     in.SourceID,
		Lines:        lines,
		Status:       StatusPosted,
		TotalDebits:  totalDebits,
		TotalCredits: totalCredits,
		CreatedAt:    time.Now().UTC(),
		CreatedBy:    in.CreatedBy,
	}

	// The store assigns the entry number and re-checks the period status
	// inside its own transaction; the check above only exists to fail fast.
	if err := j.store.AppendEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// ReverseEntry posts a new entry that offsets every line of the original
// (debits and credits swapped) and flips the original to reversed. The
// reversal is dated today so it lands in the current open period; the
// original entry's lines and period remain untouched. The status flip
// happens inside the store's AppendEntry transaction, so racing reversals
// of the same entry resolve to exactly one winner; the losers fail with
// ErrAlreadyReversed.
func (j *Journal) ReverseEntry(ctx context.Context, entryID, reversedBy string) (*JournalEntry, error) {
	original, err := j.store.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if original == nil {
		return nil, fmt.Errorf("entry %s: %w", entryID, ErrNotFound)
	}
	// Fail-fast only; the store re-checks atomically with the insert.
	if original.Status == StatusReversed {
		return nil, fmt.Errorf("entry #%d: %w", original.EntryNumber, ErrAlreadyReversed)
	}

	swapped := make([]JournalEntryLine, len(original.Lines))
	for i, l := range original.Lines {
		swapped[i] = JournalEntryLine{
			AccountID:    l.AccountID,
			Debit:        l.Credit,
			Credit:       l.Debit,
			Description:  l.Description,
			DepartmentID: l.DepartmentID,
			ProjectID:    l.ProjectID,
		}
	}

	return j.PostEntry(ctx, PostEntryInput{
		Date:        Today(),
		Description: fmt.Sprintf("Reversal of entry #%d: %s", original.EntryNumber, original.Description),
		Lines:       swapped,
		SourceType:  SourceReversal,
		SourceID:    original.ID,
		CreatedBy:   reversedBy,
	})
}

// GetEntry returns an entry with its lines or ErrNotFound.
func (j *Journal) GetEntry(ctx context.Context, id string) (*JournalEntry, error) {
	e, err := j.store.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrNotFound
	}
	return e, nil
}

// EntryBySource returns the entry posted for a source record, or nil if the
// record has not been posted.
func (j *Journal) EntryBySource(ctx context.Context, sourceType SourceType, sourceID string) (*JournalEntry, error) {
	return j.store.EntryBySource(ctx, sourceType, sourceID)
}

// ListEntries returns entries newest-first. Limit defaults to 50 and is
// capped at 500.
func (j *Journal) ListEntries(ctx context.Context, limit, offset int) ([]JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	return j.store.ListEntries(ctx, limit, offset)
}
