/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

WIRE FORMATS:
  - Dates: "2006-01-02" strings
  - Amounts: decimal strings ("1234.50"), never floats

VALIDATION:
  Validation is done in handlers and the domain layer, not in DTOs. DTOs
  are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - statements: Statement responses serialize the domain types directly
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/keystone/finance-engine/expense"
	"github.com/keystone/finance-engine/ledger"
)

// =============================================================================
// ACCOUNT TYPES
// =============================================================================

// AccountDTO represents a chart-of-accounts record in API responses.
type AccountDTO struct {
	ID              string `json:"id"`
	AccountNumber   string `json:"account_number"`
	Name            string `json:"name"`
	Type            string `json:"type"`
	SubType         string `json:"sub_type"`
	NormalBalance   string `json:"normal_balance"`
	ParentAccountID string `json:"parent_account_id,omitempty"`
	IsActive        bool   `json:"is_active"`
	Description     string `json:"description,omitempty"`
	TaxCode         string `json:"tax_code,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

func toAccountDTO(a ledger.Account) AccountDTO {
	return AccountDTO{
		ID:              a.ID,
		AccountNumber:   a.AccountNumber,
		Name:            a.Name,
		Type:            string(a.Type),
		SubType:         string(a.SubType),
		NormalBalance:   string(a.NormalBalance),
		ParentAccountID: a.ParentAccountID,
		IsActive:        a.IsActive,
		Description:     a.Description,
		TaxCode:         a.TaxCode,
		CreatedAt:       a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       a.UpdatedAt.Format(time.RFC3339),
	}
}

// CreateAccountRequest registers a new account. normal_balance is absent on
// purpose: it is derived from type.
type CreateAccountRequest struct {
	AccountNumber   string `json:"account_number"`
	Name            string `json:"name"`
	Type            string `json:"type"`
	SubType         string `json:"sub_type"`
	ParentAccountID string `json:"parent_account_id"`
	Description     string `json:"description"`
	TaxCode         string `json:"tax_code"`
}

// UpdateAccountRequest carries a partial update; absent fields are unchanged.
type UpdateAccountRequest struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	TaxCode       *string `json:"tax_code"`
	IsActive      *bool   `json:"is_active"`
	Type          *string `json:"type"`
	SubType       *string `json:"sub_type"`
	AccountNumber *string `json:"account_number"`
}

// =============================================================================
// PERIOD TYPES
// =============================================================================

// PeriodDTO represents an accounting period in API responses.
type PeriodDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	FiscalYear    int    `json:"fiscal_year"`
	FiscalQuarter int    `json:"fiscal_quarter"`
	FiscalMonth   int    `json:"fiscal_month"`
	Status        string `json:"status"`
	ClosedAt      string `json:"closed_at,omitempty"`
	ClosedBy      string `json:"closed_by,omitempty"`
}

func toPeriodDTO(p ledger.AccountingPeriod) PeriodDTO {
	dto := PeriodDTO{
		ID:            p.ID,
		Name:          p.Name,
		StartDate:     p.StartDate.String(),
		EndDate:       p.EndDate.String(),
		FiscalYear:    p.FiscalYear,
		FiscalQuarter: p.FiscalQuarter,
		FiscalMonth:   p.FiscalMonth,
		Status:        string(p.Status),
		ClosedBy:      p.ClosedBy,
	}
	if p.ClosedAt != nil {
		dto.ClosedAt = p.ClosedAt.Format(time.RFC3339)
	}
	return dto
}

// GenerateFiscalYearRequest creates the 12 monthly periods of a fiscal year.
type GenerateFiscalYearRequest struct {
	FiscalYear int `json:"fiscal_year"`
}

// ClosePeriodRequest identifies who closed the books.
type ClosePeriodRequest struct {
	ClosedBy string `json:"closed_by"`
}

// =============================================================================
// JOURNAL TYPES
// =============================================================================

// EntryLineDTO is one debit or credit in an entry.
type EntryLineDTO struct {
	AccountID    string `json:"account_id"`
	Debit        string `json:"debit"`
	Credit       string `json:"credit"`
	Description  string `json:"description,omitempty"`
	DepartmentID string `json:"department_id,omitempty"`
	ProjectID    string `json:"project_id,omitempty"`
}

// EntryDTO represents a journal entry in API responses.
type EntryDTO struct {
	ID           string         `json:"id"`
	EntryNumber  int64          `json:"entry_number"`
	Date         string         `json:"date"`
	PostingDate  string         `json:"posting_date"`
	PeriodID     string         `json:"period_id"`
	Description  string         `json:"description,omitempty"`
	SourceType   string         `json:"source_type"`
	SourceID     string         `json:"source_id,omitempty"`
	Status       string         `json:"status"`
	Lines        []EntryLineDTO `json:"lines"`
	TotalDebits  string         `json:"total_debits"`
	TotalCredits string         `json:"total_credits"`
	CreatedAt    string         `json:"created_at"`
	CreatedBy    string         `json:"created_by,omitempty"`
}

func toEntryDTO(e ledger.JournalEntry) EntryDTO {
	lines := make([]EntryLineDTO, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = EntryLineDTO{
			AccountID:    l.AccountID,
			Debit:        l.Debit.StringFixed(2),
			Credit:       l.Credit.StringFixed(2),
			Description:  l.Description,
			DepartmentID: l.DepartmentID,
			ProjectID:    l.ProjectID,
		}
	}
	return EntryDTO{
		ID:           e.ID,
		EntryNumber:  e.EntryNumber,
		Date:         e.Date.String(),
		PostingDate:  e.PostingDate.String(),
		PeriodID:     e.PeriodID,
		Description:  e.Description,
		SourceType:   string(e.SourceType),
		SourceID:     e.SourceID,
		Status:       string(e.Status),
		Lines:        lines,
		TotalDebits:  e.TotalDebits.StringFixed(2),
		TotalCredits: e.TotalCredits.StringFixed(2),
		CreatedAt:    e.CreatedAt.Format(time.RFC3339),
		CreatedBy:    e.CreatedBy,
	}
}

// PostEntryRequest posts a manual journal entry.
type PostEntryRequest struct {
	Date        string         `json:"date"`
	Description string         `json:"description"`
	Lines       []EntryLineDTO `json:"lines"`
	CreatedBy   string         `json:"created_by"`
}

// ReverseEntryRequest identifies who reversed the entry.
type ReverseEntryRequest struct {
	ReversedBy string `json:"reversed_by"`
}

// =============================================================================
// AUTOPOST TYPES
// =============================================================================

// AutopostResultDTO summarizes one batch run.
type AutopostResultDTO struct {
	Posted  int `json:"posted"`
	Skipped int `json:"skipped"`
}

// PostTimeEntriesRequest carries the rate billable hours accrue at.
type PostTimeEntriesRequest struct {
	HourlyRate string `json:"hourly_rate"`
}

// =============================================================================
// EXPENSE TYPES
// =============================================================================

// ExpenseLineDTO allocates part of an expense to an account.
type ExpenseLineDTO struct {
	AccountID   string `json:"account_id"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
}

// ExpenseDTO represents a vendor bill in API responses.
type ExpenseDTO struct {
	ID                    string           `json:"id"`
	ExpenseNumber         string           `json:"expense_number"`
	VendorID              string           `json:"vendor_id,omitempty"`
	VendorName            string           `json:"vendor_name"`
	Date                  string           `json:"date"`
	DueDate               string           `json:"due_date,omitempty"`
	Description           string           `json:"description,omitempty"`
	Category              string           `json:"category,omitempty"`
	Lines                 []ExpenseLineDTO `json:"lines"`
	Subtotal              string           `json:"subtotal"`
	Tax                   string           `json:"tax"`
	Total                 string           `json:"total"`
	Status                string           `json:"status"`
	PaymentMethod         string           `json:"payment_method,omitempty"`
	JournalEntryID        string           `json:"journal_entry_id,omitempty"`
	PaymentJournalEntryID string           `json:"payment_journal_entry_id,omitempty"`
	CreatedAt             string           `json:"created_at"`
	UpdatedAt             string           `json:"updated_at"`
}

func toExpenseDTO(e expense.Expense) ExpenseDTO {
	lines := make([]ExpenseLineDTO, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = ExpenseLineDTO{
			AccountID:   l.AccountID,
			Amount:      l.Amount.StringFixed(2),
			Description: l.Description,
		}
	}
	dto := ExpenseDTO{
		ID:                    e.ID,
		ExpenseNumber:         e.ExpenseNumber,
		VendorID:              e.VendorID,
		VendorName:            e.VendorName,
		Date:                  e.Date.String(),
		Description:           e.Description,
		Category:              e.Category,
		Lines:                 lines,
		Subtotal:              e.Subtotal.StringFixed(2),
		Tax:                   e.Tax.StringFixed(2),
		Total:                 e.Total.StringFixed(2),
		Status:                string(e.Status),
		PaymentMethod:         e.PaymentMethod,
		JournalEntryID:        e.JournalEntryID,
		PaymentJournalEntryID: e.PaymentJournalEntryID,
		CreatedAt:             e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:             e.UpdatedAt.Format(time.RFC3339),
	}
	if !e.DueDate.IsZero() {
		dto.DueDate = e.DueDate.String()
	}
	return dto
}

// CreateExpenseRequest records a new vendor bill in draft.
type CreateExpenseRequest struct {
	VendorID    string           `json:"vendor_id"`
	VendorName  string           `json:"vendor_name"`
	Date        string           `json:"date"`
	DueDate     string           `json:"due_date"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Lines       []ExpenseLineDTO `json:"lines"`
	Tax         string           `json:"tax"`
}

// PayExpenseRequest settles an approved expense.
type PayExpenseRequest struct {
	PaymentMethod string `json:"payment_method"`
}

// =============================================================================
// PARSE HELPERS
// =============================================================================

// parseAmount parses a decimal wire string; empty means zero.
func parseAmount(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ledger.Validationf(field, "invalid amount %q", s)
	}
	return d, nil
}

// parseWireDate parses a "2006-01-02" wire string; empty means zero date.
func parseWireDate(field, s string) (ledger.Date, error) {
	if s == "" {
		return ledger.Date{}, nil
	}
	d, err := ledger.ParseDate(s)
	if err != nil {
		return ledger.Date{}, ledger.Validationf(field, "invalid date %q, want YYYY-MM-DD", s)
	}
	return d, nil
}

func toJournalLines(dtos []EntryLineDTO) ([]ledger.JournalEntryLine, error) {
	lines := make([]ledger.JournalEntryLine, len(dtos))
	for i, l := range dtos {
		debit, err := parseAmount("lines", l.Debit)
		if err != nil {
			return nil, err
		}
		credit, err := parseAmount("lines", l.Credit)
		if err != nil {
			return nil, err
		}
		lines[i] = ledger.JournalEntryLine{
			AccountID:    l.AccountID,
			Debit:        debit,
			Credit:       credit,
			Description:  l.Description,
			DepartmentID: l.DepartmentID,
			ProjectID:    l.ProjectID,
		}
	}
	return lines, nil
}
