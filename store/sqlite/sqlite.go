/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements ledger.Store, autopost.SourceStore, and expense.Store using
  SQLite. In production, the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

APPEND-ONLY ENFORCEMENT:
  - journal_entries / journal_lines are never UPDATEd or DELETEd, with one
    exception: AppendEntry flips the original entry's status to 'reversed'
    in the same transaction that inserts its reversal
  - corrections happen via reversal entries only

INVARIANTS ENFORCED AT THE STORAGE LAYER:
  - UNIQUE(account_number): one chart slot per number
  - partial UNIQUE(source_type, source_id): the at-most-one journal entry
    per business record guarantee survives concurrent auto-post runs
  - entry numbers assigned by MAX+1 inside the insert transaction: unique,
    monotonic, and gap-free because a failed insert rolls the number back
  - period status re-read inside the same transaction as the insert, so a
    concurrent period close cannot race a posting

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/finance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  journal := ledger.NewJournal(store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - ledger/store.go: Interface contracts, AppendEntry atomicity in particular
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/keystone/finance-engine/autopost"
	"github.com/keystone/finance-engine/expense"
	"github.com/keystone/finance-engine/ledger"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single writer connection sidesteps SQLITE_BUSY under concurrent posts.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Chart of accounts
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		account_number TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		sub_type TEXT NOT NULL,
		normal_balance TEXT NOT NULL,
		parent_account_id TEXT,
		is_active INTEGER NOT NULL DEFAULT 1,
		description TEXT,
		tax_code TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Accounting periods
	CREATE TABLE IF NOT EXISTS periods (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		fiscal_year INTEGER NOT NULL,
		fiscal_quarter INTEGER NOT NULL,
		fiscal_month INTEGER NOT NULL,
		status TEXT NOT NULL,
		closed_at TEXT,
		closed_by TEXT,
		UNIQUE(fiscal_year, fiscal_month)
	);

	CREATE INDEX IF NOT EXISTS idx_periods_dates ON periods(start_date, end_date);

	-- Journal entries. Append-only: the status flip to 'reversed' is the
	-- only update ever issued.
	CREATE TABLE IF NOT EXISTS journal_entries (
		id TEXT PRIMARY KEY,
		entry_number INTEGER NOT NULL UNIQUE,
		date TEXT NOT NULL,
		posting_date TEXT NOT NULL,
		period_id TEXT NOT NULL REFERENCES periods(id),
		description TEXT,
		source_type TEXT NOT NULL,
		source_id TEXT,
		status TEXT NOT NULL,
		total_debits TEXT NOT NULL,
		total_credits TEXT NOT NULL,
		created_at TEXT NOT NULL,
		created_by TEXT
	);

	-- CRITICAL: at most one journal entry per business-event record.
	-- Manual and reversal entries carry no external source key.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_source
		ON journal_entries(source_type, source_id)
		WHERE source_type NOT IN ('manual', 'reversal');

	CREATE INDEX IF NOT EXISTS idx_entries_date ON journal_entries(date);
	CREATE INDEX IF NOT EXISTS idx_entries_period ON journal_entries(period_id);

	CREATE TABLE IF NOT EXISTS journal_lines (
		entry_id TEXT NOT NULL REFERENCES journal_entries(id),
		line_no INTEGER NOT NULL,
		account_id TEXT NOT NULL REFERENCES accounts(id),
		debit TEXT NOT NULL,
		credit TEXT NOT NULL,
		description TEXT,
		department_id TEXT,
		project_id TEXT,
		PRIMARY KEY (entry_id, line_no)
	);

	CREATE INDEX IF NOT EXISTS idx_lines_account ON journal_lines(account_id);

	-- Business-event source records consumed by the auto-poster
	CREATE TABLE IF NOT EXISTS invoices (
		id TEXT PRIMARY KEY,
		number TEXT NOT NULL,
		customer_name TEXT,
		date TEXT NOT NULL,
		total TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		invoice_id TEXT,
		method TEXT,
		date TEXT NOT NULL,
		amount TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS time_entries (
		id TEXT PRIMARY KEY,
		project_id TEXT,
		date TEXT NOT NULL,
		hours TEXT NOT NULL,
		billable INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS renewals (
		id TEXT PRIMARY KEY,
		plan_name TEXT,
		date TEXT NOT NULL,
		recurring_amount TEXT NOT NULL
	);

	-- Expense sub-ledger
	CREATE TABLE IF NOT EXISTS expenses (
		id TEXT PRIMARY KEY,
		expense_number TEXT NOT NULL UNIQUE,
		vendor_id TEXT,
		vendor_name TEXT NOT NULL,
		date TEXT NOT NULL,
		due_date TEXT,
		description TEXT,
		category TEXT,
		subtotal TEXT NOT NULL,
		tax TEXT NOT NULL,
		total TEXT NOT NULL,
		status TEXT NOT NULL,
		payment_method TEXT,
		journal_entry_id TEXT,
		payment_journal_entry_id TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS expense_lines (
		expense_id TEXT NOT NULL REFERENCES expenses(id),
		line_no INTEGER NOT NULL,
		account_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		description TEXT,
		PRIMARY KEY (expense_id, line_no)
	);

	-- Named counters (expense numbering)
	CREATE TABLE IF NOT EXISTS sequences (
		name TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

func fmtDate(d ledger.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func parseDate(s string) ledger.Date {
	if s == "" {
		return ledger.Date{}
	}
	d, err := ledger.ParseDate(s)
	if err != nil {
		return ledger.Date{}
	}
	return d
}

func parseDec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// uniqueViolation reports whether err is a UNIQUE constraint failure
// involving the given column (SQLite names the columns in the message).
func uniqueViolation(err error, column string) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	if sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique {
		return false
	}
	return strings.Contains(err.Error(), column)
}

type scanner interface {
	Scan(dest ...any) error
}

// =============================================================================
// ACCOUNT STORE
// =============================================================================

func (s *Store) SaveAccount(ctx context.Context, a ledger.Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, account_number, name, type, sub_type, normal_balance,
			parent_account_id, is_active, description, tax_code, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.AccountNumber, a.Name, string(a.Type), string(a.SubType), string(a.NormalBalance),
		a.ParentAccountID, a.IsActive, a.Description, a.TaxCode, fmtTime(a.CreatedAt), fmtTime(a.UpdatedAt))
	if uniqueViolation(err, "accounts.account_number") {
		return ledger.ErrDuplicateAccountNumber
	}
	return err
}

func (s *Store) UpdateAccount(ctx context.Context, a ledger.Account) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET account_number = ?, name = ?, type = ?, sub_type = ?,
			normal_balance = ?, parent_account_id = ?, is_active = ?, description = ?,
			tax_code = ?, updated_at = ?
		WHERE id = ?`,
		a.AccountNumber, a.Name, string(a.Type), string(a.SubType), string(a.NormalBalance),
		a.ParentAccountID, a.IsActive, a.Description, a.TaxCode, fmtTime(a.UpdatedAt), a.ID)
	if uniqueViolation(err, "accounts.account_number") {
		return ledger.ErrDuplicateAccountNumber
	}
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

const accountColumns = `id, account_number, name, type, sub_type, normal_balance,
	parent_account_id, is_active, description, tax_code, created_at, updated_at`

func scanAccount(row scanner) (*ledger.Account, error) {
	var a ledger.Account
	var typ, subType, normal, createdAt, updatedAt string
	var parentID, description, taxCode sql.NullString
	err := row.Scan(&a.ID, &a.AccountNumber, &a.Name, &typ, &subType, &normal,
		&parentID, &a.IsActive, &description, &taxCode, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	a.Type = ledger.AccountType(typ)
	a.SubType = ledger.AccountSubType(subType)
	a.NormalBalance = ledger.NormalBalance(normal)
	a.ParentAccountID = parentID.String
	a.Description = description.String
	a.TaxCode = taxCode.String
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return &a, nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (*ledger.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (s *Store) GetAccountByNumber(ctx context.Context, number string) (*ledger.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_number = ?`, number)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (s *Store) ListAccounts(ctx context.Context, includeInactive bool) ([]ledger.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts`
	if !includeInactive {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY account_number`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ledger.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (s *Store) AccountHasPostings(ctx context.Context, accountID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM journal_lines WHERE account_id = ?)`, accountID).Scan(&exists)
	return exists, err
}

// =============================================================================
// PERIOD STORE
// =============================================================================

func (s *Store) SavePeriods(ctx context.Context, periods []ledger.AccountingPeriod) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, p := range periods {
		var closedAt any
		if p.ClosedAt != nil {
			closedAt = fmtTime(*p.ClosedAt)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO periods (id, name, start_date, end_date, fiscal_year,
				fiscal_quarter, fiscal_month, status, closed_at, closed_by)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, fmtDate(p.StartDate), fmtDate(p.EndDate), p.FiscalYear,
			p.FiscalQuarter, p.FiscalMonth, string(p.Status), closedAt, p.ClosedBy)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) UpdatePeriod(ctx context.Context, p ledger.AccountingPeriod) error {
	var closedAt any
	if p.ClosedAt != nil {
		closedAt = fmtTime(*p.ClosedAt)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE periods SET name = ?, start_date = ?, end_date = ?, fiscal_year = ?,
			fiscal_quarter = ?, fiscal_month = ?, status = ?, closed_at = ?, closed_by = ?
		WHERE id = ?`,
		p.Name, fmtDate(p.StartDate), fmtDate(p.EndDate), p.FiscalYear,
		p.FiscalQuarter, p.FiscalMonth, string(p.Status), closedAt, p.ClosedBy, p.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

const periodColumns = `id, name, start_date, end_date, fiscal_year, fiscal_quarter,
	fiscal_month, status, closed_at, closed_by`

func scanPeriod(row scanner) (*ledger.AccountingPeriod, error) {
	var p ledger.AccountingPeriod
	var start, end, status string
	var closedAt, closedBy sql.NullString
	err := row.Scan(&p.ID, &p.Name, &start, &end, &p.FiscalYear, &p.FiscalQuarter,
		&p.FiscalMonth, &status, &closedAt, &closedBy)
	if err != nil {
		return nil, err
	}
	p.StartDate = parseDate(start)
	p.EndDate = parseDate(end)
	p.Status = ledger.PeriodStatus(status)
	if closedAt.Valid {
		t := parseTime(closedAt.String)
		p.ClosedAt = &t
	}
	p.ClosedBy = closedBy.String
	return &p, nil
}

func (s *Store) GetPeriod(ctx context.Context, id string) (*ledger.AccountingPeriod, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+periodColumns+` FROM periods WHERE id = ?`, id)
	p, err := scanPeriod(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (s *Store) PeriodForDate(ctx context.Context, d ledger.Date) (*ledger.AccountingPeriod, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+periodColumns+` FROM periods WHERE start_date <= ? AND end_date >= ?`,
		fmtDate(d), fmtDate(d))
	p, err := scanPeriod(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (s *Store) ListPeriods(ctx context.Context) ([]ledger.AccountingPeriod, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+periodColumns+` FROM periods ORDER BY start_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ledger.AccountingPeriod
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (s *Store) HasPeriodsForYear(ctx context.Context, year int) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM periods WHERE fiscal_year = ?)`, year).Scan(&exists)
	return exists, err
}

// =============================================================================
// ENTRY STORE
// =============================================================================

// AppendEntry performs the period re-check, source-uniqueness enforcement,
// entry-number assignment, and insert inside a single transaction. See the
// contract on ledger.EntryStore.
func (s *Store) AppendEntry(ctx context.Context, e *ledger.JournalEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Period guard inside the transaction: a Close committed after the
	// engine's pre-check but before this insert still rejects the posting.
	var pName, pStatus string
	err = tx.QueryRowContext(ctx,
		`SELECT name, status FROM periods WHERE id = ?`, e.PeriodID).Scan(&pName, &pStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.ErrPeriodNotFound
	}
	if err != nil {
		return err
	}
	if ledger.PeriodStatus(pStatus) != ledger.PeriodOpen {
		return &ledger.PeriodClosedError{
			PeriodID:   e.PeriodID,
			PeriodName: pName,
			Status:     ledger.PeriodStatus(pStatus),
			Date:       e.Date,
		}
	}

	// Reversal guard inside the same transaction: the original's status
	// flip and the reversal insert commit together, so two concurrent
	// reversals of the same entry cannot both land.
	if e.SourceType == ledger.SourceReversal {
		var origStatus string
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM journal_entries WHERE id = ?`, e.SourceID).Scan(&origStatus)
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.ErrNotFound
		}
		if err != nil {
			return err
		}
		if ledger.EntryStatus(origStatus) == ledger.StatusReversed {
			return ledger.ErrAlreadyReversed
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE journal_entries SET status = ? WHERE id = ?`,
			string(ledger.StatusReversed), e.SourceID); err != nil {
			return err
		}
	}

	var next int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(entry_number), 0) + 1 FROM journal_entries`).Scan(&next); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO journal_entries (id, entry_number, date, posting_date, period_id,
			description, source_type, source_id, status, total_debits, total_credits,
			created_at, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, next, fmtDate(e.Date), fmtDate(e.PostingDate), e.PeriodID,
		e.Description, string(e.SourceType), e.SourceID, string(e.Status),
		e.TotalDebits.String(), e.TotalCredits.String(), fmtTime(e.CreatedAt), e.CreatedBy)
	if uniqueViolation(err, "journal_entries.source_type") {
		return ledger.ErrDuplicateSourcePosting
	}
	if err != nil {
		return err
	}

	for i, l := range e.Lines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO journal_lines (entry_id, line_no, account_id, debit, credit,
				description, department_id, project_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, i, l.AccountID, l.Debit.String(), l.Credit.String(),
			l.Description, l.DepartmentID, l.ProjectID)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	e.EntryNumber = next
	return nil
}

const entryColumns = `id, entry_number, date, posting_date, period_id, description,
	source_type, source_id, status, total_debits, total_credits, created_at, created_by`

func scanEntry(row scanner) (*ledger.JournalEntry, error) {
	var e ledger.JournalEntry
	var date, postingDate, sourceType, status, totalDebits, totalCredits, createdAt string
	var description, sourceID, createdBy sql.NullString
	err := row.Scan(&e.ID, &e.EntryNumber, &date, &postingDate, &e.PeriodID, &description,
		&sourceType, &sourceID, &status, &totalDebits, &totalCredits, &createdAt, &createdBy)
	if err != nil {
		return nil, err
	}
	e.Date = parseDate(date)
	e.PostingDate = parseDate(postingDate)
	e.Description = description.String
	e.SourceType = ledger.SourceType(sourceType)
	e.SourceID = sourceID.String
	e.Status = ledger.EntryStatus(status)
	e.TotalDebits = parseDec(totalDebits)
	e.TotalCredits = parseDec(totalCredits)
	e.CreatedAt = parseTime(createdAt)
	e.CreatedBy = createdBy.String
	return &e, nil
}

func (s *Store) loadLines(ctx context.Context, entryIDs []string) (map[string][]ledger.JournalEntryLine, error) {
	if len(entryIDs) == 0 {
		return map[string][]ledger.JournalEntryLine{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(entryIDs)), ",")
	args := make([]any, len(entryIDs))
	for i, id := range entryIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT entry_id, account_id, debit, credit, description, department_id, project_id
		FROM journal_lines WHERE entry_id IN (`+placeholders+`) ORDER BY entry_id, line_no`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]ledger.JournalEntryLine)
	for rows.Next() {
		var entryID, debit, credit string
		var description, departmentID, projectID sql.NullString
		var l ledger.JournalEntryLine
		if err := rows.Scan(&entryID, &l.AccountID, &debit, &credit, &description, &departmentID, &projectID); err != nil {
			return nil, err
		}
		l.Debit = parseDec(debit)
		l.Credit = parseDec(credit)
		l.Description = description.String
		l.DepartmentID = departmentID.String
		l.ProjectID = projectID.String
		result[entryID] = append(result[entryID], l)
	}
	return result, rows.Err()
}

func (s *Store) GetEntry(ctx context.Context, id string) (*ledger.JournalEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id = ?`, id)
	return s.entryWithLines(ctx, row)
}

func (s *Store) EntryBySource(ctx context.Context, sourceType ledger.SourceType, sourceID string) (*ledger.JournalEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM journal_entries WHERE source_type = ? AND source_id = ?`,
		string(sourceType), sourceID)
	return s.entryWithLines(ctx, row)
}

func (s *Store) entryWithLines(ctx context.Context, row scanner) (*ledger.JournalEntry, error) {
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	lines, err := s.loadLines(ctx, []string{e.ID})
	if err != nil {
		return nil, err
	}
	e.Lines = lines[e.ID]
	return e, nil
}

func (s *Store) ListEntries(ctx context.Context, limit, offset int) ([]ledger.JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM journal_entries ORDER BY entry_number DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ledger.JournalEntry
	var ids []string
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
		ids = append(ids, e.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lines, err := s.loadLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Lines = lines[entries[i].ID]
	}
	return entries, nil
}

func (s *Store) LinesInRange(ctx context.Context, from, to ledger.Date) ([]ledger.PostedLine, error) {
	query := `
		SELECT e.id, e.entry_number, e.date, l.account_id, l.debit, l.credit,
			l.description, e.source_type
		FROM journal_lines l
		JOIN journal_entries e ON e.id = l.entry_id
		WHERE e.status != 'draft'`
	var args []any
	if !from.IsZero() {
		query += ` AND e.date >= ?`
		args = append(args, fmtDate(from))
	}
	if !to.IsZero() {
		query += ` AND e.date <= ?`
		args = append(args, fmtDate(to))
	}
	query += ` ORDER BY e.date, e.entry_number, l.line_no`

	return s.queryPostedLines(ctx, query, args...)
}

func (s *Store) LinesForAccount(ctx context.Context, accountID string) ([]ledger.PostedLine, error) {
	query := `
		SELECT e.id, e.entry_number, e.date, l.account_id, l.debit, l.credit,
			l.description, e.source_type
		FROM journal_lines l
		JOIN journal_entries e ON e.id = l.entry_id
		WHERE e.status != 'draft' AND l.account_id = ?
		ORDER BY e.date, e.entry_number, l.line_no`
	return s.queryPostedLines(ctx, query, accountID)
}

func (s *Store) queryPostedLines(ctx context.Context, query string, args ...any) ([]ledger.PostedLine, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ledger.PostedLine
	for rows.Next() {
		var l ledger.PostedLine
		var date, debit, credit, sourceType string
		var description sql.NullString
		if err := rows.Scan(&l.EntryID, &l.EntryNumber, &date, &l.AccountID,
			&debit, &credit, &description, &sourceType); err != nil {
			return nil, err
		}
		l.Date = parseDate(date)
		l.Debit = parseDec(debit)
		l.Credit = parseDec(credit)
		l.Description = description.String
		l.SourceType = ledger.SourceType(sourceType)
		result = append(result, l)
	}
	return result, rows.Err()
}

// =============================================================================
// SOURCE RECORDS
// =============================================================================

func (s *Store) SaveInvoice(ctx context.Context, inv autopost.Invoice) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO invoices (id, number, customer_name, date, total)
		VALUES (?, ?, ?, ?, ?)`,
		inv.ID, inv.Number, inv.CustomerName, fmtDate(inv.Date), inv.Total.String())
	return err
}

func (s *Store) ListInvoices(ctx context.Context) ([]autopost.Invoice, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, number, customer_name, date, total FROM invoices ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []autopost.Invoice
	for rows.Next() {
		var inv autopost.Invoice
		var date, total string
		var customer sql.NullString
		if err := rows.Scan(&inv.ID, &inv.Number, &customer, &date, &total); err != nil {
			return nil, err
		}
		inv.CustomerName = customer.String
		inv.Date = parseDate(date)
		inv.Total = parseDec(total)
		result = append(result, inv)
	}
	return result, rows.Err()
}

func (s *Store) SavePayment(ctx context.Context, p autopost.Payment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO payments (id, invoice_id, method, date, amount)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.InvoiceID, p.Method, fmtDate(p.Date), p.Amount.String())
	return err
}

func (s *Store) ListPayments(ctx context.Context) ([]autopost.Payment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, invoice_id, method, date, amount FROM payments ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []autopost.Payment
	for rows.Next() {
		var p autopost.Payment
		var date, amount string
		var invoiceID, method sql.NullString
		if err := rows.Scan(&p.ID, &invoiceID, &method, &date, &amount); err != nil {
			return nil, err
		}
		p.InvoiceID = invoiceID.String
		p.Method = method.String
		p.Date = parseDate(date)
		p.Amount = parseDec(amount)
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Store) SaveTimeEntry(ctx context.Context, te autopost.TimeEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO time_entries (id, project_id, date, hours, billable)
		VALUES (?, ?, ?, ?, ?)`,
		te.ID, te.ProjectID, fmtDate(te.Date), te.Hours.String(), te.Billable)
	return err
}

func (s *Store) ListTimeEntries(ctx context.Context) ([]autopost.TimeEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, date, hours, billable FROM time_entries ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []autopost.TimeEntry
	for rows.Next() {
		var te autopost.TimeEntry
		var date, hours string
		var projectID sql.NullString
		if err := rows.Scan(&te.ID, &projectID, &date, &hours, &te.Billable); err != nil {
			return nil, err
		}
		te.ProjectID = projectID.String
		te.Date = parseDate(date)
		te.Hours = parseDec(hours)
		result = append(result, te)
	}
	return result, rows.Err()
}

func (s *Store) SaveRenewal(ctx context.Context, r autopost.Renewal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO renewals (id, plan_name, date, recurring_amount)
		VALUES (?, ?, ?, ?)`,
		r.ID, r.PlanName, fmtDate(r.Date), r.RecurringAmount.String())
	return err
}

func (s *Store) ListRenewals(ctx context.Context) ([]autopost.Renewal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, plan_name, date, recurring_amount FROM renewals ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []autopost.Renewal
	for rows.Next() {
		var r autopost.Renewal
		var date, amount string
		var plan sql.NullString
		if err := rows.Scan(&r.ID, &plan, &date, &amount); err != nil {
			return nil, err
		}
		r.PlanName = plan.String
		r.Date = parseDate(date)
		r.RecurringAmount = parseDec(amount)
		result = append(result, r)
	}
	return result, rows.Err()
}

// =============================================================================
// EXPENSE STORE
// =============================================================================

func (s *Store) SaveExpense(ctx context.Context, e expense.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO expenses (id, expense_number, vendor_id, vendor_name, date, due_date,
			description, category, subtotal, tax, total, status, payment_method,
			journal_entry_id, payment_journal_entry_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ExpenseNumber, e.VendorID, e.VendorName, fmtDate(e.Date), fmtDate(e.DueDate),
		e.Description, e.Category, e.Subtotal.String(), e.Tax.String(), e.Total.String(),
		string(e.Status), e.PaymentMethod, e.JournalEntryID, e.PaymentJournalEntryID,
		fmtTime(e.CreatedAt), fmtTime(e.UpdatedAt))
	if err != nil {
		return err
	}

	if err := insertExpenseLines(ctx, tx, e); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) UpdateExpense(ctx context.Context, e expense.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE expenses SET vendor_id = ?, vendor_name = ?, date = ?, due_date = ?,
			description = ?, category = ?, subtotal = ?, tax = ?, total = ?, status = ?,
			payment_method = ?, journal_entry_id = ?, payment_journal_entry_id = ?, updated_at = ?
		WHERE id = ?`,
		e.VendorID, e.VendorName, fmtDate(e.Date), fmtDate(e.DueDate),
		e.Description, e.Category, e.Subtotal.String(), e.Tax.String(), e.Total.String(),
		string(e.Status), e.PaymentMethod, e.JournalEntryID, e.PaymentJournalEntryID,
		fmtTime(e.UpdatedAt), e.ID)
	if err != nil {
		return err
	}
	if err := requireRow(res); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM expense_lines WHERE expense_id = ?`, e.ID); err != nil {
		return err
	}
	if err := insertExpenseLines(ctx, tx, e); err != nil {
		return err
	}
	return tx.Commit()
}

func insertExpenseLines(ctx context.Context, tx *sql.Tx, e expense.Expense) error {
	for i, l := range e.Lines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO expense_lines (expense_id, line_no, account_id, amount, description)
			VALUES (?, ?, ?, ?, ?)`,
			e.ID, i, l.AccountID, l.Amount.String(), l.Description)
		if err != nil {
			return err
		}
	}
	return nil
}

const expenseColumns = `id, expense_number, vendor_id, vendor_name, date, due_date,
	description, category, subtotal, tax, total, status, payment_method,
	journal_entry_id, payment_journal_entry_id, created_at, updated_at`

func scanExpense(row scanner) (*expense.Expense, error) {
	var e expense.Expense
	var date, subtotal, tax, total, status, createdAt, updatedAt string
	var vendorID, dueDate, description, category, method, journalID, paymentJournalID sql.NullString
	err := row.Scan(&e.ID, &e.ExpenseNumber, &vendorID, &e.VendorName, &date, &dueDate,
		&description, &category, &subtotal, &tax, &total, &status, &method,
		&journalID, &paymentJournalID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	e.VendorID = vendorID.String
	e.Date = parseDate(date)
	e.DueDate = parseDate(dueDate.String)
	e.Description = description.String
	e.Category = category.String
	e.Subtotal = parseDec(subtotal)
	e.Tax = parseDec(tax)
	e.Total = parseDec(total)
	e.Status = expense.Status(status)
	e.PaymentMethod = method.String
	e.JournalEntryID = journalID.String
	e.PaymentJournalEntryID = paymentJournalID.String
	e.CreatedAt = parseTime(createdAt)
	e.UpdatedAt = parseTime(updatedAt)
	return &e, nil
}

func (s *Store) loadExpenseLines(ctx context.Context, expenseID string) ([]expense.Line, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT account_id, amount, description FROM expense_lines
		WHERE expense_id = ? ORDER BY line_no`, expenseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []expense.Line
	for rows.Next() {
		var l expense.Line
		var amount string
		var description sql.NullString
		if err := rows.Scan(&l.AccountID, &amount, &description); err != nil {
			return nil, err
		}
		l.Amount = parseDec(amount)
		l.Description = description.String
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (s *Store) GetExpense(ctx context.Context, id string) (*expense.Expense, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	e.Lines, err = s.loadExpenseLines(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Store) ListExpenses(ctx context.Context, status expense.Status) ([]expense.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY expense_number`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []expense.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		result[i].Lines, err = s.loadExpenseLines(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *Store) NextExpenseNumber(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO sequences (name, value) VALUES ('expense', 0)`); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE sequences SET value = value + 1 WHERE name = 'expense'`); err != nil {
		return 0, err
	}
	var next int64
	if err := tx.QueryRowContext(ctx,
		`SELECT value FROM sequences WHERE name = 'expense'`).Scan(&next); err != nil {
		return 0, err
	}
	return next, tx.Commit()
}
