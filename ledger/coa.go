/*
coa.go - Chart of accounts registry

PURPOSE:
  Owns Account records: registration with uniqueness and classification
  checks, restricted updates, and the default chart template.

INVARIANTS:
  - Account numbers are unique across the chart
  - NormalBalance is always derived from Type
  - SubType must belong to the Type's closed set
  - Type and AccountNumber are frozen once any posting references the account
  - Accounts are deactivated, never deleted

SEE ALSO:
  - types.go: Account, AccountType, AccountSubType
  - journal.go: Rejects postings to unknown/inactive accounts
*/
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// REGISTRY
// =============================================================================

// Registry is the chart-of-accounts service.
type Registry struct {
	store AccountStore
}

func NewRegistry(store AccountStore) *Registry {
	return &Registry{store: store}
}

// CreateAccountInput carries the caller-settable fields of a new account.
// NormalBalance is absent on purpose: it is derived from Type.
type CreateAccountInput struct {
	AccountNumber   string
	Name            string
	Type            AccountType
	SubType         AccountSubType
	ParentAccountID string
	Description     string
	TaxCode         string
}

// CreateAccount registers a new account in the chart.
func (r *Registry) CreateAccount(ctx context.Context, in CreateAccountInput) (*Account, error) {
	if in.AccountNumber == "" {
		return nil, Validationf("account_number", "is required")
	}
	if in.Name == "" {
		return nil, Validationf("name", "is required")
	}
	if !ValidAccountType(in.Type) {
		return nil, Validationf("type", "unknown account type %q", in.Type)
	}
	if !ValidSubType(in.Type, in.SubType) {
		return nil, Validationf("sub_type", "%q is not a valid sub-type for %s accounts", in.SubType, in.Type)
	}
	if in.ParentAccountID != "" {
		parent, err := r.store.GetAccount(ctx, in.ParentAccountID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, Validationf("parent_account_id", "parent account %s does not exist", in.ParentAccountID)
		}
		if parent.Type != in.Type {
			return nil, Validationf("parent_account_id", "parent account must share type %s", in.Type)
		}
	}

	existing, err := r.store.GetAccountByNumber(ctx, in.AccountNumber)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateAccountNumber
	}

	now := time.Now().UTC()
	a := Account{
		ID:              uuid.NewString(),
		AccountNumber:   in.AccountNumber,
		Name:            in.Name,
		Type:            in.Type,
		SubType:         in.SubType,
		NormalBalance:   NormalBalanceFor(in.Type),
		ParentAccountID: in.ParentAccountID,
		IsActive:        true,
		Description:     in.Description,
		TaxCode:         in.TaxCode,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := r.store.SaveAccount(ctx, a); err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateAccountInput carries a partial update. Nil pointers leave fields
// unchanged. Type and AccountNumber changes are only honored while the
// account has no postings; afterwards they would retroactively reclassify
// historical statements and fail with ImmutableFieldError.
type UpdateAccountInput struct {
	Name          *string
	Description   *string
	TaxCode       *string
	IsActive      *bool
	Type          *AccountType
	SubType       *AccountSubType
	AccountNumber *string
}

// UpdateAccount applies a partial update to an account.
func (r *Registry) UpdateAccount(ctx context.Context, id string, in UpdateAccountInput) (*Account, error) {
	a, err := r.store.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}

	if in.Type != nil || in.AccountNumber != nil {
		posted, err := r.store.AccountHasPostings(ctx, id)
		if err != nil {
			return nil, err
		}
		if posted {
			field := "type"
			if in.AccountNumber != nil {
				field = "account_number"
			}
			return nil, &ImmutableFieldError{AccountID: id, Field: field}
		}
	}

	if in.Type != nil {
		if !ValidAccountType(*in.Type) {
			return nil, Validationf("type", "unknown account type %q", *in.Type)
		}
		a.Type = *in.Type
		a.NormalBalance = NormalBalanceFor(a.Type)
	}
	if in.SubType != nil {
		a.SubType = *in.SubType
	}
	if !ValidSubType(a.Type, a.SubType) {
		return nil, Validationf("sub_type", "%q is not a valid sub-type for %s accounts", a.SubType, a.Type)
	}
	if in.AccountNumber != nil {
		if *in.AccountNumber == "" {
			return nil, Validationf("account_number", "is required")
		}
		if *in.AccountNumber != a.AccountNumber {
			existing, err := r.store.GetAccountByNumber(ctx, *in.AccountNumber)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return nil, ErrDuplicateAccountNumber
			}
			a.AccountNumber = *in.AccountNumber
		}
	}
	if in.Name != nil {
		if *in.Name == "" {
			return nil, Validationf("name", "is required")
		}
		a.Name = *in.Name
	}
	if in.Description != nil {
		a.Description = *in.Description
	}
	if in.TaxCode != nil {
		a.TaxCode = *in.TaxCode
	}
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}
	a.UpdatedAt = time.Now().UTC()

	if err := r.store.UpdateAccount(ctx, *a); err != nil {
		return nil, err
	}
	return a, nil
}

// GetAccount returns an account by id or ErrNotFound.
func (r *Registry) GetAccount(ctx context.Context, id string) (*Account, error) {
	a, err := r.store.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}
	return a, nil
}

// ResolveNumber returns the account carrying the given chart number, or
// ErrNotFound. The auto-poster and expense sub-ledger map business events to
// accounts through chart numbers.
func (r *Registry) ResolveNumber(ctx context.Context, number string) (*Account, error) {
	a, err := r.store.GetAccountByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}
	return a, nil
}

// ListAccounts returns the chart ordered by account number.
func (r *Registry) ListAccounts(ctx context.Context, includeInactive bool) ([]Account, error) {
	return r.store.ListAccounts(ctx, includeInactive)
}

// =============================================================================
// DEFAULT CHART
// =============================================================================

type defaultAccount struct {
	Number      string
	Name        string
	Type        AccountType
	SubType     AccountSubType
	Description string
}

// defaultChart is the standard skeleton installed by SeedDefaultChart.
// Numbering follows the usual 1xxx assets / 2xxx liabilities / 3xxx equity /
// 4xxx revenue / 5xxx-7xxx expense convention.
func defaultChart() []defaultAccount {
	return []defaultAccount{
		{Number: "1000", Name: "Cash", Type: TypeAsset, SubType: SubTypeCash, Description: "Operating bank accounts"},
		{Number: "1100", Name: "Accounts Receivable", Type: TypeAsset, SubType: SubTypeAccountsReceivable, Description: "Amounts owed by customers"},
		{Number: "1200", Name: "Inventory", Type: TypeAsset, SubType: SubTypeInventory},
		{Number: "1300", Name: "Prepaid Expenses", Type: TypeAsset, SubType: SubTypePrepaidExpenses},
		{Number: "1400", Name: "Work in Process", Type: TypeAsset, SubType: SubTypeWorkInProcess, Description: "Unbilled billable work"},
		{Number: "1500", Name: "Equipment", Type: TypeAsset, SubType: SubTypeFixedAsset},
		{Number: "2000", Name: "Accounts Payable", Type: TypeLiability, SubType: SubTypeAccountsPayable, Description: "Amounts owed to vendors"},
		{Number: "2100", Name: "Accrued Payroll", Type: TypeLiability, SubType: SubTypeAccruedLiabilities, Description: "Earned but unpaid labor"},
		{Number: "2200", Name: "Deferred Revenue", Type: TypeLiability, SubType: SubTypeDeferredRevenue},
		{Number: "2500", Name: "Long-Term Debt", Type: TypeLiability, SubType: SubTypeLongTermDebt},
		{Number: "3000", Name: "Owner's Equity", Type: TypeEquity, SubType: SubTypeOwnersEquity},
		{Number: "3100", Name: "Contributed Capital", Type: TypeEquity, SubType: SubTypeContributedCapital},
		{Number: "3900", Name: "Retained Earnings", Type: TypeEquity, SubType: SubTypeRetainedEarnings},
		{Number: "4000", Name: "Service Revenue", Type: TypeRevenue, SubType: SubTypeServiceRevenue},
		{Number: "4100", Name: "Product Revenue", Type: TypeRevenue, SubType: SubTypeProductRevenue},
		{Number: "4200", Name: "Recurring Revenue", Type: TypeRevenue, SubType: SubTypeRecurringRevenue, Description: "Subscription renewals"},
		{Number: "4900", Name: "Other Revenue", Type: TypeRevenue, SubType: SubTypeOtherRevenue},
		{Number: "5000", Name: "Cost of Goods Sold", Type: TypeExpense, SubType: SubTypeCOGS},
		{Number: "6000", Name: "Salaries & Wages", Type: TypeExpense, SubType: SubTypePayrollExpense},
		{Number: "6100", Name: "Rent", Type: TypeExpense, SubType: SubTypeRentExpense},
		{Number: "6200", Name: "Marketing & Advertising", Type: TypeExpense, SubType: SubTypeMarketingExpense},
		{Number: "6300", Name: "Software & Subscriptions", Type: TypeExpense, SubType: SubTypeSoftwareExpense},
		{Number: "6800", Name: "Other Operating Expense", Type: TypeExpense, SubType: SubTypeOtherOperatingExpense},
		{Number: "7000", Name: "Other Expense", Type: TypeExpense, SubType: SubTypeOtherExpense},
	}
}

// SeedDefaultChart installs the default chart template if and only if the
// registry is empty. Idempotent: a non-empty chart is left untouched and the
// call reports zero accounts created.
func (r *Registry) SeedDefaultChart(ctx context.Context) (int, error) {
	existing, err := r.store.ListAccounts(ctx, true)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	created := 0
	for _, d := range defaultChart() {
		_, err := r.CreateAccount(ctx, CreateAccountInput{
			AccountNumber: d.Number,
			Name:          d.Name,
			Type:          d.Type,
			SubType:       d.SubType,
			Description:   d.Description,
		})
		if err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
