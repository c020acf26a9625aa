package autopost

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/keystone/finance-engine/ledger"
	"github.com/keystone/finance-engine/observability"
)

// =============================================================================
// POSTER
// =============================================================================

// Poster runs the auto-posting batches.
type Poster struct {
	journal  *ledger.Journal
	registry *ledger.Registry
	sources  SourceStore
	accounts AccountMap
	log      zerolog.Logger
}

func New(journal *ledger.Journal, registry *ledger.Registry, sources SourceStore) *Poster {
	return &Poster{
		journal:  journal,
		registry: registry,
		sources:  sources,
		accounts: DefaultAccountMap(),
		log:      observability.NewLogger("autopost"),
	}
}

// WithAccountMap overrides the default chart-number mapping.
func (p *Poster) WithAccountMap(m AccountMap) *Poster {
	p.accounts = m
	return p
}

// =============================================================================
// BATCH RUNNERS - one per source domain
// =============================================================================

// PostInvoices posts one AR/revenue entry per unposted invoice.
func (p *Poster) PostInvoices(ctx context.Context) (Result, error) {
	invoices, err := p.sources.ListInvoices(ctx)
	if err != nil {
		return Result{}, err
	}

	var result Result
	for _, inv := range invoices {
		posted, err := p.alreadyPosted(ctx, ledger.SourceInvoice, inv.ID)
		if err != nil {
			return result, err
		}
		if posted {
			continue
		}

		err = p.postPair(ctx, postingSpec{
			sourceType:    ledger.SourceInvoice,
			sourceID:      inv.ID,
			date:          inv.Date,
			description:   fmt.Sprintf("Invoice %s - %s", inv.Number, inv.CustomerName),
			debitAccount:  p.accounts.AccountsReceivable,
			creditAccount: p.accounts.ServiceRevenue,
			amount:        inv.Total,
		})
		result.tally(&p.log, "invoice", inv.ID, err)
	}
	return result, nil
}

// PostPayments posts one cash/AR entry per unposted payment.
func (p *Poster) PostPayments(ctx context.Context) (Result, error) {
	payments, err := p.sources.ListPayments(ctx)
	if err != nil {
		return Result{}, err
	}

	var result Result
	for _, pay := range payments {
		posted, err := p.alreadyPosted(ctx, ledger.SourcePayment, pay.ID)
		if err != nil {
			return result, err
		}
		if posted {
			continue
		}

		err = p.postPair(ctx, postingSpec{
			sourceType:    ledger.SourcePayment,
			sourceID:      pay.ID,
			date:          pay.Date,
			description:   fmt.Sprintf("Payment received (%s)", pay.Method),
			debitAccount:  p.accounts.Cash,
			creditAccount: p.accounts.AccountsReceivable,
			amount:        pay.Amount,
		})
		result.tally(&p.log, "payment", pay.ID, err)
	}
	return result, nil
}

// PostTimeEntries accrues unposted billable time at the given hourly rate:
// debit work-in-process, credit accrued payroll.
func (p *Poster) PostTimeEntries(ctx context.Context, hourlyRate decimal.Decimal) (Result, error) {
	if !hourlyRate.IsPositive() {
		return Result{}, ledger.Validationf("hourly_rate", "must be positive")
	}

	timeEntries, err := p.sources.ListTimeEntries(ctx)
	if err != nil {
		return Result{}, err
	}

	var result Result
	for _, te := range timeEntries {
		if !te.Billable {
			continue
		}
		posted, err := p.alreadyPosted(ctx, ledger.SourceTimeEntry, te.ID)
		if err != nil {
			return result, err
		}
		if posted {
			continue
		}

		amount := te.Hours.Mul(hourlyRate).Round(2)
		err = p.postPair(ctx, postingSpec{
			sourceType:    ledger.SourceTimeEntry,
			sourceID:      te.ID,
			date:          te.Date,
			description:   fmt.Sprintf("Billable time: %s hours @ %s/h", te.Hours, hourlyRate.StringFixed(2)),
			debitAccount:  p.accounts.WorkInProcess,
			creditAccount: p.accounts.AccruedPayroll,
			amount:        amount,
		})
		result.tally(&p.log, "time_entry", te.ID, err)
	}
	return result, nil
}

// PostRenewals posts one AR/recurring-revenue entry per unposted renewal.
func (p *Poster) PostRenewals(ctx context.Context) (Result, error) {
	renewals, err := p.sources.ListRenewals(ctx)
	if err != nil {
		return Result{}, err
	}

	var result Result
	for _, r := range renewals {
		posted, err := p.alreadyPosted(ctx, ledger.SourceRenewal, r.ID)
		if err != nil {
			return result, err
		}
		if posted {
			continue
		}

		err = p.postPair(ctx, postingSpec{
			sourceType:    ledger.SourceRenewal,
			sourceID:      r.ID,
			date:          r.Date,
			description:   fmt.Sprintf("Subscription renewal: %s", r.PlanName),
			debitAccount:  p.accounts.AccountsReceivable,
			creditAccount: p.accounts.RecurringRevenue,
			amount:        r.RecurringAmount,
		})
		result.tally(&p.log, "renewal", r.ID, err)
	}
	return result, nil
}

// =============================================================================
// INTERNALS
// =============================================================================

type postingSpec struct {
	sourceType    ledger.SourceType
	sourceID      string
	date          ledger.Date
	description   string
	debitAccount  string // chart number
	creditAccount string // chart number
	amount        decimal.Decimal
}

func (p *Poster) alreadyPosted(ctx context.Context, sourceType ledger.SourceType, sourceID string) (bool, error) {
	existing, err := p.journal.EntryBySource(ctx, sourceType, sourceID)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}

func (p *Poster) postPair(ctx context.Context, spec postingSpec) error {
	debit, err := p.registry.ResolveNumber(ctx, spec.debitAccount)
	if err != nil {
		return fmt.Errorf("mapped account %s: %w", spec.debitAccount, err)
	}
	credit, err := p.registry.ResolveNumber(ctx, spec.creditAccount)
	if err != nil {
		return fmt.Errorf("mapped account %s: %w", spec.creditAccount, err)
	}

	_, err = p.journal.PostEntry(ctx, ledger.PostEntryInput{
		Date:        spec.date,
		Description: spec.description,
		SourceType:  spec.sourceType,
		SourceID:    spec.sourceID,
		CreatedBy:   "autopost",
		Lines: []ledger.JournalEntryLine{
			{AccountID: debit.ID, Debit: spec.amount, Description: spec.description},
			{AccountID: credit.ID, Credit: spec.amount, Description: spec.description},
		},
	})
	return err
}

// tally folds one record outcome into the batch result. Failures skip the
// record and keep the batch going.
func (r *Result) tally(log *zerolog.Logger, kind, id string, err error) {
	if err != nil {
		r.Skipped++
		log.Warn().Str("source", kind).Str("id", id).Err(err).Msg("record skipped")
		return
	}
	r.Posted++
}
