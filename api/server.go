/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/accounts/*     Chart of accounts + drill-down
  /api/periods/*      Accounting period calendar
  /api/journal/*      Journal entries (post, reverse, list)
  /api/statements/*   Derived financial statements
  /api/autopost/*     Business-event batch posting
  /api/expenses/*     Accounts-payable sub-ledger

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Chart of accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Post("/", h.CreateAccount)
			r.Post("/seed", h.SeedDefaultChart)
			r.Get("/{id}", h.GetAccount)
			r.Patch("/{id}", h.UpdateAccount)
			r.Get("/{id}/drilldown", h.DrillDown)
		})

		// Accounting periods
		r.Route("/periods", func(r chi.Router) {
			r.Get("/", h.ListPeriods)
			r.Post("/generate", h.GenerateFiscalYear)
			r.Get("/{id}", h.GetPeriod)
			r.Post("/{id}/close", h.ClosePeriod)
			r.Post("/{id}/reopen", h.ReopenPeriod)
			r.Post("/{id}/lock", h.LockPeriod)
		})

		// Journal
		r.Route("/journal/entries", func(r chi.Router) {
			r.Get("/", h.ListEntries)
			r.Post("/", h.PostEntry)
			r.Get("/{id}", h.GetEntry)
			r.Post("/{id}/reverse", h.ReverseEntry)
		})

		// Statements
		r.Route("/statements", func(r chi.Router) {
			r.Get("/trial-balance", h.TrialBalance)
			r.Get("/income", h.IncomeStatement)
			r.Get("/balance-sheet", h.BalanceSheet)
			r.Get("/cash-flow", h.CashFlow)
		})

		// Auto-posting batches
		r.Route("/autopost", func(r chi.Router) {
			r.Post("/invoices", h.PostInvoices)
			r.Post("/payments", h.PostPayments)
			r.Post("/time-entries", h.PostTimeEntries)
			r.Post("/renewals", h.PostRenewals)
		})

		// Expense sub-ledger
		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", h.ListExpenses)
			r.Post("/", h.CreateExpense)
			r.Get("/categories", h.ListCategories)
			r.Get("/{id}", h.GetExpense)
			r.Post("/{id}/submit", h.SubmitExpense)
			r.Post("/{id}/approve", h.ApproveExpense)
			r.Post("/{id}/pay", h.PayExpense)
			r.Post("/{id}/void", h.VoidExpense)
		})
	})

	return r
}
