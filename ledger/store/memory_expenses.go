package store

import (
	"context"
	"sort"

	"github.com/keystone/finance-engine/expense"
	"github.com/keystone/finance-engine/ledger"
)

// =============================================================================
// EXPENSE STORE
// =============================================================================

type expenseRec = expense.Expense

func (m *Memory) SaveExpense(_ context.Context, e expense.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expenses[e.ID] = copyExpense(e)
	return nil
}

func (m *Memory) UpdateExpense(_ context.Context, e expense.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.expenses[e.ID]; !ok {
		return ledger.ErrNotFound
	}
	m.expenses[e.ID] = copyExpense(e)
	return nil
}

func (m *Memory) GetExpense(_ context.Context, id string) (*expense.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.expenses[id]
	if !ok {
		return nil, nil
	}
	found := copyExpense(e)
	return &found, nil
}

func (m *Memory) ListExpenses(_ context.Context, status expense.Status) ([]expense.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]expense.Expense, 0, len(m.expenses))
	for _, e := range m.expenses {
		if status != "" && e.Status != status {
			continue
		}
		result = append(result, copyExpense(e))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ExpenseNumber < result[j].ExpenseNumber
	})
	return result, nil
}

func (m *Memory) NextExpenseNumber(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.nextExpenseNumber
	m.nextExpenseNumber++
	return n, nil
}

func copyExpense(e expense.Expense) expense.Expense {
	lines := make([]expense.Line, len(e.Lines))
	copy(lines, e.Lines)
	e.Lines = lines
	return e
}
