package store

import (
	"context"
	"sort"

	"github.com/keystone/finance-engine/autopost"
)

// =============================================================================
// SOURCE RECORDS - business events scanned by the auto-poster
// =============================================================================

type (
	invoiceRec   = autopost.Invoice
	paymentRec   = autopost.Payment
	timeEntryRec = autopost.TimeEntry
	renewalRec   = autopost.Renewal
)

func (m *Memory) SaveInvoice(_ context.Context, inv autopost.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invoices[inv.ID] = inv
	return nil
}

func (m *Memory) ListInvoices(_ context.Context) ([]autopost.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]autopost.Invoice, 0, len(m.invoices))
	for _, inv := range m.invoices {
		result = append(result, inv)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) SavePayment(_ context.Context, p autopost.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.ID] = p
	return nil
}

func (m *Memory) ListPayments(_ context.Context) ([]autopost.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]autopost.Payment, 0, len(m.payments))
	for _, p := range m.payments {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) SaveTimeEntry(_ context.Context, te autopost.TimeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeEntries[te.ID] = te
	return nil
}

func (m *Memory) ListTimeEntries(_ context.Context) ([]autopost.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]autopost.TimeEntry, 0, len(m.timeEntries))
	for _, te := range m.timeEntries {
		result = append(result, te)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) SaveRenewal(_ context.Context, r autopost.Renewal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renewals[r.ID] = r
	return nil
}

func (m *Memory) ListRenewals(_ context.Context) ([]autopost.Renewal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]autopost.Renewal, 0, len(m.renewals))
	for _, r := range m.renewals {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
