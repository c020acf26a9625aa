// Package store provides an in-memory Store implementation for tests and dev.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/keystone/finance-engine/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements ledger.Store (plus the auto-post source and expense
// stores, see memory_sources.go / memory_expenses.go) behind a single mutex.
// Holding the lock across AppendEntry gives the same atomicity the SQLite
// store gets from transactions: period re-check, source uniqueness, and
// entry-number assignment cannot interleave.
type Memory struct {
	mu sync.RWMutex

	accounts        map[string]ledger.Account
	accountNumbers  map[string]string // account number -> id
	periods         map[string]ledger.AccountingPeriod
	entries         map[string]ledger.JournalEntry
	sourceIndex     map[sourceKey]string // (source type, source id) -> entry id
	nextEntryNumber int64

	invoices    map[string]invoiceRec
	payments    map[string]paymentRec
	timeEntries map[string]timeEntryRec
	renewals    map[string]renewalRec

	expenses          map[string]expenseRec
	nextExpenseNumber int64
}

type sourceKey struct {
	Type ledger.SourceType
	ID   string
}

func NewMemory() *Memory {
	return &Memory{
		accounts:          make(map[string]ledger.Account),
		accountNumbers:    make(map[string]string),
		periods:           make(map[string]ledger.AccountingPeriod),
		entries:           make(map[string]ledger.JournalEntry),
		sourceIndex:       make(map[sourceKey]string),
		nextEntryNumber:   1,
		invoices:          make(map[string]invoiceRec),
		payments:          make(map[string]paymentRec),
		timeEntries:       make(map[string]timeEntryRec),
		renewals:          make(map[string]renewalRec),
		expenses:          make(map[string]expenseRec),
		nextExpenseNumber: 1,
	}
}

// =============================================================================
// ACCOUNT STORE
// =============================================================================

func (m *Memory) SaveAccount(_ context.Context, a ledger.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.accountNumbers[a.AccountNumber]; taken {
		return ledger.ErrDuplicateAccountNumber
	}
	m.accounts[a.ID] = a
	m.accountNumbers[a.AccountNumber] = a.ID
	return nil
}

func (m *Memory) UpdateAccount(_ context.Context, a ledger.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, ok := m.accounts[a.ID]
	if !ok {
		return ledger.ErrNotFound
	}
	if prev.AccountNumber != a.AccountNumber {
		if owner, taken := m.accountNumbers[a.AccountNumber]; taken && owner != a.ID {
			return ledger.ErrDuplicateAccountNumber
		}
		delete(m.accountNumbers, prev.AccountNumber)
		m.accountNumbers[a.AccountNumber] = a.ID
	}
	m.accounts[a.ID] = a
	return nil
}

func (m *Memory) GetAccount(_ context.Context, id string) (*ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.accounts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *Memory) GetAccountByNumber(_ context.Context, number string) (*ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.accountNumbers[number]
	if !ok {
		return nil, nil
	}
	a := m.accounts[id]
	return &a, nil
}

func (m *Memory) ListAccounts(_ context.Context, includeInactive bool) ([]ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]ledger.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		if !includeInactive && !a.IsActive {
			continue
		}
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].AccountNumber < result[j].AccountNumber
	})
	return result, nil
}

func (m *Memory) AccountHasPostings(_ context.Context, accountID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.entries {
		for _, l := range e.Lines {
			if l.AccountID == accountID {
				return true, nil
			}
		}
	}
	return false, nil
}

// =============================================================================
// PERIOD STORE
// =============================================================================

func (m *Memory) SavePeriods(_ context.Context, periods []ledger.AccountingPeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range periods {
		m.periods[p.ID] = p
	}
	return nil
}

func (m *Memory) UpdatePeriod(_ context.Context, p ledger.AccountingPeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.periods[p.ID]; !ok {
		return ledger.ErrNotFound
	}
	m.periods[p.ID] = p
	return nil
}

func (m *Memory) GetPeriod(_ context.Context, id string) (*ledger.AccountingPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.periods[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) PeriodForDate(_ context.Context, d ledger.Date) (*ledger.AccountingPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.periodForDateLocked(d), nil
}

func (m *Memory) periodForDateLocked(d ledger.Date) *ledger.AccountingPeriod {
	for _, p := range m.periods {
		if p.Contains(d) {
			found := p
			return &found
		}
	}
	return nil
}

func (m *Memory) ListPeriods(_ context.Context) ([]ledger.AccountingPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]ledger.AccountingPeriod, 0, len(m.periods))
	for _, p := range m.periods {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartDate.Before(result[j].StartDate)
	})
	return result, nil
}

func (m *Memory) HasPeriodsForYear(_ context.Context, year int) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.periods {
		if p.FiscalYear == year {
			return true, nil
		}
	}
	return false, nil
}

// =============================================================================
// ENTRY STORE
// =============================================================================

func (m *Memory) AppendEntry(_ context.Context, e *ledger.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Period guard, re-checked under the same lock as the insert so a
	// concurrent Close cannot slip between validation and write.
	p, ok := m.periods[e.PeriodID]
	if !ok {
		return ledger.ErrPeriodNotFound
	}
	if !p.AcceptsPostings() {
		return &ledger.PeriodClosedError{PeriodID: p.ID, PeriodName: p.Name, Status: p.Status, Date: e.Date}
	}

	if e.SourceType.HasSourceKey() {
		k := sourceKey{Type: e.SourceType, ID: e.SourceID}
		if _, dup := m.sourceIndex[k]; dup {
			return ledger.ErrDuplicateSourcePosting
		}
		m.sourceIndex[k] = e.ID
	}

	// Reversal guard under the same lock: the original's status flip and
	// the reversal insert are one atomic step, so two concurrent reversals
	// of the same entry cannot both land.
	if e.SourceType == ledger.SourceReversal {
		original, ok := m.entries[e.SourceID]
		if !ok {
			return ledger.ErrNotFound
		}
		if original.Status == ledger.StatusReversed {
			return ledger.ErrAlreadyReversed
		}
		original.Status = ledger.StatusReversed
		m.entries[e.SourceID] = original
	}

	e.EntryNumber = m.nextEntryNumber
	m.nextEntryNumber++
	m.entries[e.ID] = copyEntry(*e)
	return nil
}

func (m *Memory) GetEntry(_ context.Context, id string) (*ledger.JournalEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, nil
	}
	found := copyEntry(e)
	return &found, nil
}

func (m *Memory) EntryBySource(_ context.Context, sourceType ledger.SourceType, sourceID string) (*ledger.JournalEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.sourceIndex[sourceKey{Type: sourceType, ID: sourceID}]
	if !ok {
		return nil, nil
	}
	e := copyEntry(m.entries[id])
	return &e, nil
}

func (m *Memory) ListEntries(_ context.Context, limit, offset int) ([]ledger.JournalEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]ledger.JournalEntry, 0, len(m.entries))
	for _, e := range m.entries {
		all = append(all, copyEntry(e))
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].EntryNumber > all[j].EntryNumber
	})

	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *Memory) LinesInRange(_ context.Context, from, to ledger.Date) ([]ledger.PostedLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []ledger.PostedLine
	for _, e := range m.entries {
		if e.Status == ledger.StatusDraft {
			continue
		}
		if !from.IsZero() && e.Date.Before(from) {
			continue
		}
		if !to.IsZero() && e.Date.After(to) {
			continue
		}
		result = append(result, flattenLines(e)...)
	}
	sortLines(result)
	return result, nil
}

func (m *Memory) LinesForAccount(_ context.Context, accountID string) ([]ledger.PostedLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []ledger.PostedLine
	for _, e := range m.entries {
		if e.Status == ledger.StatusDraft {
			continue
		}
		for _, l := range flattenLines(e) {
			if l.AccountID == accountID {
				result = append(result, l)
			}
		}
	}
	sortLines(result)
	return result, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func copyEntry(e ledger.JournalEntry) ledger.JournalEntry {
	lines := make([]ledger.JournalEntryLine, len(e.Lines))
	copy(lines, e.Lines)
	e.Lines = lines
	return e
}

func flattenLines(e ledger.JournalEntry) []ledger.PostedLine {
	lines := make([]ledger.PostedLine, 0, len(e.Lines))
	for _, l := range e.Lines {
		lines = append(lines, ledger.PostedLine{
			EntryID:     e.ID,
			EntryNumber: e.EntryNumber,
			Date:        e.Date,
			AccountID:   l.AccountID,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Description: l.Description,
			SourceType:  e.SourceType,
		})
	}
	return lines
}

func sortLines(lines []ledger.PostedLine) {
	sort.SliceStable(lines, func(i, j int) bool {
		if !lines[i].Date.Equal(lines[j].Date) {
			return lines[i].Date.Before(lines[j].Date)
		}
		return lines[i].EntryNumber < lines[j].EntryNumber
	})
}
