package expense

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/keystone/finance-engine/ledger"
	"github.com/keystone/finance-engine/observability"
)

// =============================================================================
// SERVICE
// =============================================================================

// Service runs the expense workflow.
type Service struct {
	store    Store
	journal  *ledger.Journal
	registry *ledger.Registry

	// Chart numbers used for the AP and cash legs.
	accountsPayable string
	cash            string

	log zerolog.Logger
}

func NewService(store Store, journal *ledger.Journal, registry *ledger.Registry) *Service {
	return &Service{
		store:           store,
		journal:         journal,
		registry:        registry,
		accountsPayable: "2000",
		cash:            "1000",
		log:             observability.NewLogger("expense"),
	}
}

// CreateInput carries a new expense.
type CreateInput struct {
	VendorID    string
	VendorName  string
	Date        ledger.Date
	DueDate     ledger.Date
	Description string
	Category    string
	Lines       []Line
	Tax         decimal.Decimal
}

// Create records a new draft expense. Subtotal is derived from the lines;
// total from subtotal plus tax. Nothing is posted until approval.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Expense, error) {
	if in.VendorName == "" {
		return nil, ledger.Validationf("vendor_name", "is required")
	}
	if in.Date.IsZero() {
		return nil, ledger.Validationf("date", "is required")
	}
	if in.Category != "" && !ValidCategory(in.Category) {
		return nil, ledger.Validationf("category", "unknown category %q", in.Category)
	}
	if len(in.Lines) == 0 {
		return nil, ledger.Validationf("lines", "at least one line is required")
	}
	if in.Tax.IsNegative() {
		return nil, ledger.Validationf("tax", "must be non-negative")
	}

	subtotal := decimal.Zero
	for i, l := range in.Lines {
		if !l.Amount.IsPositive() {
			return nil, ledger.Validationf("lines", "line %d: amount must be positive", i)
		}
		account, err := s.registry.GetAccount(ctx, l.AccountID)
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, ledger.Validationf("lines", "line %d: unknown account %s", i, l.AccountID)
		}
		if err != nil {
			return nil, err
		}
		if account.Type != ledger.TypeExpense && account.Type != ledger.TypeAsset {
			return nil, ledger.Validationf("lines", "line %d: account %s is a %s account; expense lines post to expense or asset accounts", i, account.AccountNumber, account.Type)
		}
		subtotal = subtotal.Add(l.Amount)
	}

	seq, err := s.store.NextExpenseNumber(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	e := Expense{
		ID:            uuid.NewString(),
		ExpenseNumber: fmt.Sprintf("EXP-%05d", seq),
		VendorID:      in.VendorID,
		VendorName:    in.VendorName,
		Date:          in.Date,
		DueDate:       in.DueDate,
		Description:   in.Description,
		Category:      in.Category,
		Lines:         in.Lines,
		Subtotal:      subtotal,
		Tax:           in.Tax,
		Total:         subtotal.Add(in.Tax),
		Status:        StatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.SaveExpense(ctx, e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Submit moves a draft expense into the approval queue.
func (s *Service) Submit(ctx context.Context, id string) (*Expense, error) {
	e, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status != StatusDraft {
		return nil, s.transitionErr(e, StatusPendingApproval)
	}
	e.Status = StatusPendingApproval
	return s.save(ctx, e)
}

// Approve accepts the expense and posts the accounts-payable liability:
// debit each line's account, credit AP for the total (tax on the first
// line). Accepts both draft and pending_approval. Posting happens at most
// once; re-approval of an already-posted expense is a transition error.
func (s *Service) Approve(ctx context.Context, id string) (*Expense, error) {
	e, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status != StatusDraft && e.Status != StatusPendingApproval {
		return nil, s.transitionErr(e, StatusApproved)
	}

	if e.JournalEntryID == "" {
		// A prior attempt may have posted the entry and then failed to save
		// the expense. The journal's source key is the system of record:
		// adopt the existing entry instead of tripping the duplicate guard.
		if posted, err := s.journal.EntryBySource(ctx, ledger.SourceExpense, e.ID); err != nil {
			return nil, err
		} else if posted != nil {
			e.JournalEntryID = posted.ID
			s.log.Info().Str("expense", e.ExpenseNumber).Int64("entry", posted.EntryNumber).Msg("adopted previously posted liability")
		}
	}

	if e.JournalEntryID == "" {
		ap, err := s.registry.ResolveNumber(ctx, s.accountsPayable)
		if err != nil {
			return nil, fmt.Errorf("accounts payable account %s: %w", s.accountsPayable, err)
		}

		lines := make([]ledger.JournalEntryLine, 0, len(e.Lines)+1)
		for i, l := range e.Lines {
			debit := l.Amount
			if i == 0 {
				debit = debit.Add(e.Tax)
			}
			lines = append(lines, ledger.JournalEntryLine{
				AccountID:   l.AccountID,
				Debit:       debit,
				Description: l.Description,
			})
		}
		lines = append(lines, ledger.JournalEntryLine{
			AccountID:   ap.ID,
			Credit:      e.Total,
			Description: fmt.Sprintf("%s - %s", e.ExpenseNumber, e.VendorName),
		})

		entry, err := s.journal.PostEntry(ctx, ledger.PostEntryInput{
			Date:        e.Date,
			Description: fmt.Sprintf("Expense %s: %s", e.ExpenseNumber, e.VendorName),
			SourceType:  ledger.SourceExpense,
			SourceID:    e.ID,
			CreatedBy:   "expense",
			Lines:       lines,
		})
		if err != nil {
			return nil, err
		}
		e.JournalEntryID = entry.ID
		s.log.Info().Str("expense", e.ExpenseNumber).Int64("entry", entry.EntryNumber).Msg("liability posted")
	}

	e.Status = StatusApproved
	return s.save(ctx, e)
}

// Pay settles an approved expense: debit AP, credit cash for the total.
// Idempotent against double invocation: the approved->paid transition fires
// once and the payment entry id is recorded before any retry could repost.
func (s *Service) Pay(ctx context.Context, id, method string) (*Expense, error) {
	e, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status != StatusApproved {
		return nil, s.transitionErr(e, StatusPaid)
	}

	if e.PaymentJournalEntryID == "" {
		// Same recovery as Approve: a payment entry may exist from an
		// attempt whose expense save failed.
		if posted, err := s.journal.EntryBySource(ctx, ledger.SourceExpense, e.ID+"/payment"); err != nil {
			return nil, err
		} else if posted != nil {
			e.PaymentJournalEntryID = posted.ID
			s.log.Info().Str("expense", e.ExpenseNumber).Int64("entry", posted.EntryNumber).Msg("adopted previously posted payment")
		}
	}

	if e.PaymentJournalEntryID == "" {
		ap, err := s.registry.ResolveNumber(ctx, s.accountsPayable)
		if err != nil {
			return nil, fmt.Errorf("accounts payable account %s: %w", s.accountsPayable, err)
		}
		cash, err := s.registry.ResolveNumber(ctx, s.cash)
		if err != nil {
			return nil, fmt.Errorf("cash account %s: %w", s.cash, err)
		}

		entry, err := s.journal.PostEntry(ctx, ledger.PostEntryInput{
			Date:        ledger.Today(),
			Description: fmt.Sprintf("Payment of expense %s: %s", e.ExpenseNumber, e.VendorName),
			SourceType:  ledger.SourceExpense,
			SourceID:    e.ID + "/payment",
			CreatedBy:   "expense",
			Lines: []ledger.JournalEntryLine{
				{AccountID: ap.ID, Debit: e.Total, Description: e.ExpenseNumber},
				{AccountID: cash.ID, Credit: e.Total, Description: e.ExpenseNumber},
			},
		})
		if err != nil {
			return nil, err
		}
		e.PaymentJournalEntryID = entry.ID
		s.log.Info().Str("expense", e.ExpenseNumber).Int64("entry", entry.EntryNumber).Msg("payment posted")
	}

	e.Status = StatusPaid
	if method != "" {
		e.PaymentMethod = method
	}
	return s.save(ctx, e)
}

// Void cancels an expense from any state except paid. If approval already
// posted a liability entry, the entry is reversed so the general ledger and
// the sub-ledger cannot disagree.
func (s *Service) Void(ctx context.Context, id string) (*Expense, error) {
	e, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status == StatusPaid || e.Status == StatusVoid {
		return nil, s.transitionErr(e, StatusVoid)
	}

	if e.JournalEntryID != "" {
		reversal, err := s.journal.ReverseEntry(ctx, e.JournalEntryID, "expense-void")
		switch {
		case errors.Is(err, ledger.ErrAlreadyReversed):
			// A prior void reversed the entry but failed to save the
			// expense; the retry only needs the status flip.
			s.log.Info().Str("expense", e.ExpenseNumber).Msg("liability already reversed")
		case err != nil:
			return nil, err
		default:
			s.log.Info().Str("expense", e.ExpenseNumber).Int64("reversal", reversal.EntryNumber).Msg("liability reversed on void")
		}
	}

	e.Status = StatusVoid
	return s.save(ctx, e)
}

// Get returns an expense by id or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Expense, error) {
	return s.get(ctx, id)
}

// List returns expenses, optionally filtered by status (empty = all).
func (s *Service) List(ctx context.Context, status Status) ([]Expense, error) {
	return s.store.ListExpenses(ctx, status)
}

// =============================================================================
// INTERNALS
// =============================================================================

func (s *Service) get(ctx context.Context, id string) (*Expense, error) {
	e, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("expense %s: %w", id, ledger.ErrNotFound)
	}
	return e, nil
}

func (s *Service) save(ctx context.Context, e *Expense) (*Expense, error) {
	e.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateExpense(ctx, *e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) transitionErr(e *Expense, to Status) error {
	return &ledger.TransitionError{Entity: "expense", ID: e.ExpenseNumber, From: string(e.Status), To: string(to)}
}
