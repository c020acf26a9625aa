/*
errors.go - Centralized error types for the accounting core

PURPOSE:
  All error types in one place for consistency and discoverability.
  Downstream packages (statements, autopost, expense, api) wrap or
  classify these rather than defining their own taxonomy.

ERROR CATEGORIES:
  1. Validation errors - malformed input (unbalanced entry, bad sub-type)
  2. Period errors - posting into closed/locked/missing periods
  3. Lifecycle errors - immutable fields, bad state transitions
  4. Conflict errors - duplicate numbers, duplicate source postings

USAGE:
  Callers classify with errors.Is():

    if errors.Is(err, ledger.ErrPeriodClosed) {
        // 409 to the client
    }

SEE ALSO:
  - journal.go, coa.go, period.go: Producers of these errors
  - api/handlers.go: Maps them to HTTP status codes
*/
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of all malformed-input failures.
	ErrValidation = errors.New("validation failed")

	// ErrUnbalancedEntry is returned when an entry's debits and credits
	// differ by a cent or more.
	ErrUnbalancedEntry = errors.New("entry debits and credits do not balance")

	// ErrPeriodClosed is returned when a posting targets a closed or locked
	// accounting period.
	ErrPeriodClosed = errors.New("accounting period is closed")

	// ErrPeriodNotFound is returned when no accounting period covers the
	// posting date.
	ErrPeriodNotFound = errors.New("no accounting period covers date")

	// ErrPeriodOverlap is returned when generating a fiscal year that
	// already has periods.
	ErrPeriodOverlap = errors.New("periods already exist for fiscal year")

	// ErrImmutableField is returned on attempts to change an account's type
	// or number once postings reference it.
	ErrImmutableField = errors.New("field is immutable after posting")

	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyReversed is returned when reversing an entry twice.
	ErrAlreadyReversed = errors.New("entry already reversed")

	// ErrInvalidTransition is returned on out-of-order lifecycle moves
	// (period reopen from locked, expense pay from draft, ...).
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrDuplicateAccountNumber is returned when registering an account
	// number that already exists in the chart.
	ErrDuplicateAccountNumber = errors.New("account number already exists")

	// ErrDuplicateSourcePosting is returned when a second journal entry is
	// posted for the same (source type, source id). This is the
	// storage-level idempotency guarantee for auto-posting.
	ErrDuplicateSourcePosting = errors.New("source record already posted")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports a single malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Validationf builds a ValidationError with a formatted message.
func Validationf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// UnbalancedEntryError reports the totals of a rejected entry.
type UnbalancedEntryError struct {
	TotalDebits  decimal.Decimal
	TotalCredits decimal.Decimal
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("unbalanced entry: debits %s != credits %s",
		e.TotalDebits.StringFixed(2), e.TotalCredits.StringFixed(2))
}

func (e *UnbalancedEntryError) Unwrap() error { return ErrUnbalancedEntry }

// PeriodClosedError reports which period rejected a posting and why.
type PeriodClosedError struct {
	PeriodID   string
	PeriodName string
	Status     PeriodStatus
	Date       Date
}

func (e *PeriodClosedError) Error() string {
	return fmt.Sprintf("period %q is %s: cannot post entry dated %s",
		e.PeriodName, e.Status, e.Date)
}

func (e *PeriodClosedError) Unwrap() error { return ErrPeriodClosed }

// ImmutableFieldError reports an attempt to rewrite history.
type ImmutableFieldError struct {
	AccountID string
	Field     string
}

func (e *ImmutableFieldError) Error() string {
	return fmt.Sprintf("account %s: %s cannot change once postings exist", e.AccountID, e.Field)
}

func (e *ImmutableFieldError) Unwrap() error { return ErrImmutableField }

// TransitionError reports an out-of-order lifecycle move.
type TransitionError struct {
	Entity string // "period", "expense"
	ID     string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s %s: cannot transition %s -> %s", e.Entity, e.ID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrUnbalancedEntry) ||
		errors.Is(err, ErrPeriodNotFound)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict returns true if the error indicates the request collided with
// the current state of the books rather than being malformed.
func IsConflict(err error) bool {
	return errors.Is(err, ErrPeriodClosed) ||
		errors.Is(err, ErrPeriodOverlap) ||
		errors.Is(err, ErrImmutableField) ||
		errors.Is(err, ErrAlreadyReversed) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrDuplicateAccountNumber) ||
		errors.Is(err, ErrDuplicateSourcePosting)
}
