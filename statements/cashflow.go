package statements

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/keystone/finance-engine/ledger"
)

// =============================================================================
// CASH FLOW STATEMENT (indirect method)
// =============================================================================

// CashFlowStatement derives the period's cash movement from net income and
// balance deltas rather than from cash lines directly.
//
// Operating: net income adjusted for working-capital changes. Growing
// receivables consume cash; growing payables, accruals, and deferred
// revenue release it.
// Investing: fixed-asset purchases (negated balance growth).
// Financing: long-term debt and contributed equity movement.
type CashFlowStatement struct {
	PeriodID   string      `json:"period_id"`
	PeriodName string      `json:"period_name"`
	From       ledger.Date `json:"from"`
	To         ledger.Date `json:"to"`

	NetIncome                decimal.Decimal `json:"net_income"`
	AccountsReceivableChange decimal.Decimal `json:"accounts_receivable_change"`
	AccountsPayableChange    decimal.Decimal `json:"accounts_payable_change"`
	AccruedLiabilitiesChange decimal.Decimal `json:"accrued_liabilities_change"`
	DeferredRevenueChange    decimal.Decimal `json:"deferred_revenue_change"`
	OperatingCashFlow        decimal.Decimal `json:"operating_cash_flow"`

	CapitalExpenditures decimal.Decimal `json:"capital_expenditures"`
	InvestingCashFlow   decimal.Decimal `json:"investing_cash_flow"`

	DebtChange        decimal.Decimal `json:"debt_change"`
	EquityChange      decimal.Decimal `json:"equity_change"`
	FinancingCashFlow decimal.Decimal `json:"financing_cash_flow"`

	NetCashChange decimal.Decimal `json:"net_cash_change"`
}

// CashFlow computes the indirect-method statement for one period. Each
// working-capital delta is the change in the relevant accounts' balances
// between the day before the period starts and the period end.
func (c *Compiler) CashFlow(ctx context.Context, periodID string) (*CashFlowStatement, error) {
	period, err := c.period(ctx, periodID)
	if err != nil {
		return nil, err
	}

	byID, _, err := c.accountsByID(ctx)
	if err != nil {
		return nil, err
	}

	opening, err := c.linesUpTo(ctx, period.StartDate.AddDays(-1))
	if err != nil {
		return nil, err
	}
	closing, err := c.linesUpTo(ctx, period.EndDate)
	if err != nil {
		return nil, err
	}
	inPeriod, err := c.store.LinesInRange(ctx, period.StartDate, period.EndDate)
	if err != nil {
		return nil, err
	}

	openBySub := sumBySubType(opening, byID)
	closeBySub := sumBySubType(closing, byID)
	delta := func(sub ledger.AccountSubType, normal ledger.NormalBalance) decimal.Decimal {
		return closeBySub[sub].net(normal).Sub(openBySub[sub].net(normal))
	}

	cf := &CashFlowStatement{
		PeriodID:   period.ID,
		PeriodName: period.Name,
		From:       period.StartDate,
		To:         period.EndDate,
	}

	cf.NetIncome = netIncomeOver(inPeriod, byID)
	cf.AccountsReceivableChange = delta(ledger.SubTypeAccountsReceivable, ledger.NormalDebit)
	cf.AccountsPayableChange = delta(ledger.SubTypeAccountsPayable, ledger.NormalCredit)
	cf.AccruedLiabilitiesChange = delta(ledger.SubTypeAccruedLiabilities, ledger.NormalCredit)
	cf.DeferredRevenueChange = delta(ledger.SubTypeDeferredRevenue, ledger.NormalCredit)
	cf.OperatingCashFlow = cf.NetIncome.
		Sub(cf.AccountsReceivableChange).
		Add(cf.AccountsPayableChange).
		Add(cf.AccruedLiabilitiesChange).
		Add(cf.DeferredRevenueChange)

	cf.CapitalExpenditures = delta(ledger.SubTypeFixedAsset, ledger.NormalDebit)
	cf.InvestingCashFlow = cf.CapitalExpenditures.Neg()

	cf.DebtChange = delta(ledger.SubTypeLongTermDebt, ledger.NormalCredit)
	cf.EquityChange = equityDelta(openBySub, closeBySub)
	cf.FinancingCashFlow = cf.DebtChange.Add(cf.EquityChange)

	cf.NetCashChange = cf.OperatingCashFlow.Add(cf.InvestingCashFlow).Add(cf.FinancingCashFlow)
	return cf, nil
}

func sumBySubType(lines []ledger.PostedLine, byID map[string]ledger.Account) map[ledger.AccountSubType]activity {
	bySub := make(map[ledger.AccountSubType]activity)
	for id, act := range sumByAccount(lines) {
		a, ok := byID[id]
		if !ok {
			continue
		}
		sum := bySub[a.SubType]
		sum.Debits = sum.Debits.Add(act.Debits)
		sum.Credits = sum.Credits.Add(act.Credits)
		bySub[a.SubType] = sum
	}
	return bySub
}

// equityDelta sums balance movement across all equity sub-types. Net income
// is never posted to equity accounts, so this captures only contributions
// and draws - genuine financing activity.
func equityDelta(opening, closing map[ledger.AccountSubType]activity) decimal.Decimal {
	subTypes := []ledger.AccountSubType{
		ledger.SubTypeOwnersEquity,
		ledger.SubTypeContributedCapital,
		ledger.SubTypeRetainedEarnings,
	}
	total := decimal.Zero
	for _, sub := range subTypes {
		total = total.Add(closing[sub].net(ledger.NormalCredit).Sub(opening[sub].net(ledger.NormalCredit)))
	}
	return total
}
