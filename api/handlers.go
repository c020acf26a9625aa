/*
handlers.go - HTTP API handlers for the accounting engine

PURPOSE:
  Exposes the ledger, statement compiler, auto-poster, and expense
  sub-ledger via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to domain logic.

ENDPOINTS:
  Accounts:
    GET    /api/accounts                    List chart of accounts
    POST   /api/accounts                    Create account
    POST   /api/accounts/seed               Install default chart
    GET    /api/accounts/{id}               Get account
    PATCH  /api/accounts/{id}               Update account (restricted)
    GET    /api/accounts/{id}/drilldown     Transaction history with running balance

  Periods:
    GET    /api/periods                     List periods
    POST   /api/periods/generate            Generate fiscal year
    GET    /api/periods/{id}                Get period
    POST   /api/periods/{id}/close          Close period
    POST   /api/periods/{id}/reopen         Reopen closed period
    POST   /api/periods/{id}/lock           Lock closed period (terminal)

  Journal:
    GET    /api/journal/entries             List entries (paged, newest first)
    POST   /api/journal/entries             Post manual entry
    GET    /api/journal/entries/{id}        Get entry with lines
    POST   /api/journal/entries/{id}/reverse Reverse entry

  Statements:
    GET    /api/statements/trial-balance    ?as_of=YYYY-MM-DD
    GET    /api/statements/income           ?period_id=...
    GET    /api/statements/balance-sheet    ?as_of=YYYY-MM-DD
    GET    /api/statements/cash-flow        ?period_id=...

  Autopost:
    POST   /api/autopost/invoices
    POST   /api/autopost/payments
    POST   /api/autopost/time-entries       {hourly_rate}
    POST   /api/autopost/renewals

  Expenses:
    GET    /api/expenses                    ?status=...
    POST   /api/expenses
    GET    /api/expenses/categories
    GET    /api/expenses/{id}
    POST   /api/expenses/{id}/submit
    POST   /api/expenses/{id}/approve
    POST   /api/expenses/{id}/pay
    POST   /api/expenses/{id}/void

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (closed period, duplicate, bad transition)
  - 500: Internal errors
  The ledger error taxonomy drives the mapping; see respondError.

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/keystone/finance-engine/autopost"
	"github.com/keystone/finance-engine/expense"
	"github.com/keystone/finance-engine/ledger"
	"github.com/keystone/finance-engine/observability"
	"github.com/keystone/finance-engine/statements"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Registry *ledger.Registry
	Calendar *ledger.Calendar
	Journal  *ledger.Journal
	Compiler *statements.Compiler
	Poster   *autopost.Poster
	Expenses *expense.Service

	log zerolog.Logger
}

// NewHandler wires the handler onto a single store implementing every
// storage interface (the SQLite store or the in-memory store in tests).
func NewHandler(registry *ledger.Registry, calendar *ledger.Calendar, journal *ledger.Journal,
	compiler *statements.Compiler, poster *autopost.Poster, expenses *expense.Service) *Handler {
	return &Handler{
		Registry: registry,
		Calendar: calendar,
		Journal:  journal,
		Compiler: compiler,
		Poster:   poster,
		Expenses: expenses,
		log:      observability.NewLogger("api"),
	}
}

// =============================================================================
// ACCOUNT ENDPOINTS
// =============================================================================

// ListAccounts returns the chart of accounts ordered by account number.
// GET /api/accounts?include_inactive=true
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") == "true"

	accounts, err := h.Registry.ListAccounts(r.Context(), includeInactive)
	if err != nil {
		h.respondError(w, "Failed to list accounts", err)
		return
	}

	dtos := make([]AccountDTO, len(accounts))
	for i, a := range accounts {
		dtos[i] = toAccountDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAccount registers a new account.
// POST /api/accounts
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	account, err := h.Registry.CreateAccount(r.Context(), ledger.CreateAccountInput{
		AccountNumber:   req.AccountNumber,
		Name:            req.Name,
		Type:            ledger.AccountType(req.Type),
		SubType:         ledger.AccountSubType(req.SubType),
		ParentAccountID: req.ParentAccountID,
		Description:     req.Description,
		TaxCode:         req.TaxCode,
	})
	if err != nil {
		h.respondError(w, "Failed to create account", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountDTO(*account))
}

// SeedDefaultChart installs the default chart template into an empty chart.
// POST /api/accounts/seed
func (h *Handler) SeedDefaultChart(w http.ResponseWriter, r *http.Request) {
	created, err := h.Registry.SeedDefaultChart(r.Context())
	if err != nil {
		h.respondError(w, "Failed to seed chart", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"created": created})
}

// GetAccount returns a single account.
// GET /api/accounts/{id}
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.Registry.GetAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "Failed to get account", err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(*account))
}

// UpdateAccount applies a partial update. Type and account number are
// rejected once the account has postings.
// PATCH /api/accounts/{id}
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in := ledger.UpdateAccountInput{
		Name:        req.Name,
		Description: req.Description,
		TaxCode:     req.TaxCode,
		IsActive:    req.IsActive,
	}
	if req.Type != nil {
		t := ledger.AccountType(*req.Type)
		in.Type = &t
	}
	if req.SubType != nil {
		st := ledger.AccountSubType(*req.SubType)
		in.SubType = &st
	}
	if req.AccountNumber != nil {
		in.AccountNumber = req.AccountNumber
	}

	account, err := h.Registry.UpdateAccount(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.respondError(w, "Failed to update account", err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(*account))
}

// DrillDown returns an account's chronological history with running balance.
// GET /api/accounts/{id}/drilldown
func (h *Handler) DrillDown(w http.ResponseWriter, r *http.Request) {
	dd, err := h.Compiler.DrillDown(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "Failed to compile drill-down", err)
		return
	}
	writeJSON(w, http.StatusOK, dd)
}

// =============================================================================
// PERIOD ENDPOINTS
// =============================================================================

// ListPeriods returns all accounting periods ordered by start date.
// GET /api/periods
func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.Calendar.List(r.Context())
	if err != nil {
		h.respondError(w, "Failed to list periods", err)
		return
	}

	dtos := make([]PeriodDTO, len(periods))
	for i, p := range periods {
		dtos[i] = toPeriodDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GenerateFiscalYear creates the 12 monthly periods of a fiscal year.
// POST /api/periods/generate
func (h *Handler) GenerateFiscalYear(w http.ResponseWriter, r *http.Request) {
	var req GenerateFiscalYearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	periods, err := h.Calendar.GenerateFiscalYear(r.Context(), req.FiscalYear)
	if err != nil {
		h.respondError(w, "Failed to generate fiscal year", err)
		return
	}

	dtos := make([]PeriodDTO, len(periods))
	for i, p := range periods {
		dtos[i] = toPeriodDTO(p)
	}
	writeJSON(w, http.StatusCreated, dtos)
}

// GetPeriod returns a single period.
// GET /api/periods/{id}
func (h *Handler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	p, err := h.Calendar.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "Failed to get period", err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTO(*p))
}

// ClosePeriod transitions an open period to closed.
// POST /api/periods/{id}/close
func (h *Handler) ClosePeriod(w http.ResponseWriter, r *http.Request) {
	var req ClosePeriodRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	p, err := h.Calendar.Close(r.Context(), chi.URLParam(r, "id"), req.ClosedBy)
	if err != nil {
		h.respondError(w, "Failed to close period", err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTO(*p))
}

// ReopenPeriod transitions a closed period back to open.
// POST /api/periods/{id}/reopen
func (h *Handler) ReopenPeriod(w http.ResponseWriter, r *http.Request) {
	p, err := h.Calendar.Reopen(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "Failed to reopen period", err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTO(*p))
}

// LockPeriod transitions a closed period to locked (terminal).
// POST /api/periods/{id}/lock
func (h *Handler) LockPeriod(w http.ResponseWriter, r *http.Request) {
	p, err := h.Calendar.Lock(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "Failed to lock period", err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTO(*p))
}

// =============================================================================
// JOURNAL ENDPOINTS
// =============================================================================

// ListEntries returns journal entries newest-first.
// GET /api/journal/entries?limit=50&offset=0
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := h.Journal.ListEntries(r.Context(), limit, offset)
	if err != nil {
		h.respondError(w, "Failed to list entries", err)
		return
	}

	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// PostEntry posts a manual journal entry.
// POST /api/journal/entries
func (h *Handler) PostEntry(w http.ResponseWriter, r *http.Request) {
	var req PostEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := parseWireDate("date", req.Date)
	if err != nil {
		h.respondError(w, "Failed to post entry", err)
		return
	}
	lines, err := toJournalLines(req.Lines)
	if err != nil {
		h.respondError(w, "Failed to post entry", err)
		return
	}

	entry, err := h.Journal.PostEntry(r.Context(), ledger.PostEntryInput{
		Date:        date,
		Description: req.Description,
		Lines:       lines,
		CreatedBy:   req.CreatedBy,
	})
	if err != nil {
		h.respondError(w, "Failed to post entry", err)
		return
	}

	h.log.Info().Int64("entry", entry.EntryNumber).Str("date", entry.Date.String()).Msg("manual entry posted")
	writeJSON(w, http.StatusCreated, toEntryDTO(*entry))
}

// GetEntry returns a journal entry with its lines.
// GET /api/journal/entries/{id}
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.Journal.GetEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "Failed to get entry", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(*entry))
}

// ReverseEntry posts an offsetting entry and marks the original reversed.
// POST /api/journal/entries/{id}/reverse
func (h *Handler) ReverseEntry(w http.ResponseWriter, r *http.Request) {
	var req ReverseEntryRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	reversal, err := h.Journal.ReverseEntry(r.Context(), chi.URLParam(r, "id"), req.ReversedBy)
	if err != nil {
		h.respondError(w, "Failed to reverse entry", err)
		return
	}

	h.log.Info().Int64("reversal", reversal.EntryNumber).Str("original", chi.URLParam(r, "id")).Msg("entry reversed")
	writeJSON(w, http.StatusCreated, toEntryDTO(*reversal))
}

// =============================================================================
// STATEMENT ENDPOINTS
// =============================================================================

// TrialBalance returns per-account totals and the balance check.
// GET /api/statements/trial-balance?as_of=YYYY-MM-DD
func (h *Handler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseWireDate("as_of", r.URL.Query().Get("as_of"))
	if err != nil {
		h.respondError(w, "Failed to compile trial balance", err)
		return
	}
	if asOf.IsZero() {
		asOf = ledger.Today()
	}

	tb, err := h.Compiler.TrialBalance(r.Context(), asOf)
	if err != nil {
		h.respondError(w, "Failed to compile trial balance", err)
		return
	}
	writeJSON(w, http.StatusOK, tb)
}

// IncomeStatement returns the P&L for one period.
// GET /api/statements/income?period_id=...
func (h *Handler) IncomeStatement(w http.ResponseWriter, r *http.Request) {
	periodID := r.URL.Query().Get("period_id")
	if periodID == "" {
		writeError(w, http.StatusBadRequest, "period_id is required", nil)
		return
	}

	is, err := h.Compiler.IncomeStatement(r.Context(), periodID)
	if err != nil {
		h.respondError(w, "Failed to compile income statement", err)
		return
	}
	writeJSON(w, http.StatusOK, is)
}

// BalanceSheet returns the financial position as of a date.
// GET /api/statements/balance-sheet?as_of=YYYY-MM-DD
func (h *Handler) BalanceSheet(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseWireDate("as_of", r.URL.Query().Get("as_of"))
	if err != nil {
		h.respondError(w, "Failed to compile balance sheet", err)
		return
	}
	if asOf.IsZero() {
		asOf = ledger.Today()
	}

	bs, err := h.Compiler.BalanceSheet(r.Context(), asOf)
	if err != nil {
		h.respondError(w, "Failed to compile balance sheet", err)
		return
	}
	writeJSON(w, http.StatusOK, bs)
}

// CashFlow returns the indirect-method cash flow statement for one period.
// GET /api/statements/cash-flow?period_id=...
func (h *Handler) CashFlow(w http.ResponseWriter, r *http.Request) {
	periodID := r.URL.Query().Get("period_id")
	if periodID == "" {
		writeError(w, http.StatusBadRequest, "period_id is required", nil)
		return
	}

	cf, err := h.Compiler.CashFlow(r.Context(), periodID)
	if err != nil {
		h.respondError(w, "Failed to compile cash flow statement", err)
		return
	}
	writeJSON(w, http.StatusOK, cf)
}

// =============================================================================
// AUTOPOST ENDPOINTS
// =============================================================================

// PostInvoices runs the invoice auto-posting batch.
// POST /api/autopost/invoices
func (h *Handler) PostInvoices(w http.ResponseWriter, r *http.Request) {
	result, err := h.Poster.PostInvoices(r.Context())
	if err != nil {
		h.respondError(w, "Invoice batch failed", err)
		return
	}
	writeJSON(w, http.StatusOK, AutopostResultDTO{Posted: result.Posted, Skipped: result.Skipped})
}

// PostPayments runs the payment auto-posting batch.
// POST /api/autopost/payments
func (h *Handler) PostPayments(w http.ResponseWriter, r *http.Request) {
	result, err := h.Poster.PostPayments(r.Context())
	if err != nil {
		h.respondError(w, "Payment batch failed", err)
		return
	}
	writeJSON(w, http.StatusOK, AutopostResultDTO{Posted: result.Posted, Skipped: result.Skipped})
}

// PostTimeEntries accrues billable time at the supplied hourly rate.
// POST /api/autopost/time-entries
func (h *Handler) PostTimeEntries(w http.ResponseWriter, r *http.Request) {
	var req PostTimeEntriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rate, err := parseAmount("hourly_rate", req.HourlyRate)
	if err != nil {
		h.respondError(w, "Time entry batch failed", err)
		return
	}

	result, err := h.Poster.PostTimeEntries(r.Context(), rate)
	if err != nil {
		h.respondError(w, "Time entry batch failed", err)
		return
	}
	writeJSON(w, http.StatusOK, AutopostResultDTO{Posted: result.Posted, Skipped: result.Skipped})
}

// PostRenewals runs the subscription renewal auto-posting batch.
// POST /api/autopost/renewals
func (h *Handler) PostRenewals(w http.ResponseWriter, r *http.Request) {
	result, err := h.Poster.PostRenewals(r.Context())
	if err != nil {
		h.respondError(w, "Renewal batch failed", err)
		return
	}
	writeJSON(w, http.StatusOK, AutopostResultDTO{Posted: result.Posted, Skipped: result.Skipped})
}

// =============================================================================
// EXPENSE ENDPOINTS
// =============================================================================

// ListExpenses returns expenses, optionally filtered by status.
// GET /api/expenses?status=approved
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	status := expense.Status(r.URL.Query().Get("status"))

	expenses, err := h.Expenses.List(r.Context(), status)
	if err != nil {
		h.respondError(w, "Failed to list expenses", err)
		return
	}

	dtos := make([]ExpenseDTO, len(expenses))
	for i, e := range expenses {
		dtos[i] = toExpenseDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateExpense records a new draft expense.
// POST /api/expenses
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req CreateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in, err := toCreateExpenseInput(req)
	if err != nil {
		h.respondError(w, "Failed to create expense", err)
		return
	}

	e, err := h.Expenses.Create(r.Context(), in)
	if err != nil {
		h.respondError(w, "Failed to create expense", err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseDTO(*e))
}

func toCreateExpenseInput(req CreateExpenseRequest) (expense.CreateInput, error) {
	date, err := parseWireDate("date", req.Date)
	if err != nil {
		return expense.CreateInput{}, err
	}
	dueDate, err := parseWireDate("due_date", req.DueDate)
	if err != nil {
		return expense.CreateInput{}, err
	}
	tax, err := parseAmount("tax", req.Tax)
	if err != nil {
		return expense.CreateInput{}, err
	}

	lines := make([]expense.Line, len(req.Lines))
	for i, l := range req.Lines {
		amount, err := parseAmount("lines", l.Amount)
		if err != nil {
			return expense.CreateInput{}, err
		}
		lines[i] = expense.Line{AccountID: l.AccountID, Amount: amount, Description: l.Description}
	}

	return expense.CreateInput{
		VendorID:    req.VendorID,
		VendorName:  req.VendorName,
		Date:        date,
		DueDate:     dueDate,
		Description: req.Description,
		Category:    req.Category,
		Lines:       lines,
		Tax:         tax,
	}, nil
}

// ListCategories returns the closed set of expense categories.
// GET /api/expenses/categories
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, expense.Categories)
}

// GetExpense returns a single expense.
// GET /api/expenses/{id}
func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	e, err := h.Expenses.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "Failed to get expense", err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseDTO(*e))
}

// SubmitExpense moves a draft expense into the approval queue.
// POST /api/expenses/{id}/submit
func (h *Handler) SubmitExpense(w http.ResponseWriter, r *http.Request) {
	e, err := h.Expenses.Submit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "Failed to submit expense", err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseDTO(*e))
}

// ApproveExpense accepts the expense and posts the AP liability.
// POST /api/expenses/{id}/approve
func (h *Handler) ApproveExpense(w http.ResponseWriter, r *http.Request) {
	e, err := h.Expenses.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "Failed to approve expense", err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseDTO(*e))
}

// PayExpense settles an approved expense.
// POST /api/expenses/{id}/pay
func (h *Handler) PayExpense(w http.ResponseWriter, r *http.Request) {
	var req PayExpenseRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	e, err := h.Expenses.Pay(r.Context(), chi.URLParam(r, "id"), req.PaymentMethod)
	if err != nil {
		h.respondError(w, "Failed to pay expense", err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseDTO(*e))
}

// VoidExpense cancels an expense, reversing any posted liability.
// POST /api/expenses/{id}/void
func (h *Handler) VoidExpense(w http.ResponseWriter, r *http.Request) {
	e, err := h.Expenses.Void(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "Failed to void expense", err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseDTO(*e))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// respondError maps domain errors onto HTTP status codes using the ledger
// error taxonomy.
func (h *Handler) respondError(w http.ResponseWriter, message string, err error) {
	switch {
	case ledger.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case ledger.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	default:
		h.log.Error().Err(err).Msg(message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
