package statements

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/keystone/finance-engine/ledger"
)

// =============================================================================
// INCOME STATEMENT
// =============================================================================

// LineItem is one account's contribution to a statement section.
type LineItem struct {
	AccountID     string          `json:"account_id"`
	AccountNumber string          `json:"account_number"`
	AccountName   string          `json:"account_name"`
	Amount        decimal.Decimal `json:"amount"`
}

// Section groups line items with their total.
type Section struct {
	Items []LineItem      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

func (s *Section) add(a ledger.Account, amount decimal.Decimal) {
	s.Items = append(s.Items, LineItem{
		AccountID:     a.ID,
		AccountNumber: a.AccountNumber,
		AccountName:   a.Name,
		Amount:        amount,
	})
	s.Total = s.Total.Add(amount)
}

// IncomeStatement is the profit-and-loss view of one accounting period.
//
//	grossProfit     = revenue - COGS
//	operatingIncome = grossProfit - operating expenses
//	netIncome       = operatingIncome + other revenue - other expenses
type IncomeStatement struct {
	PeriodID   string      `json:"period_id"`
	PeriodName string      `json:"period_name"`
	From       ledger.Date `json:"from"`
	To         ledger.Date `json:"to"`

	Revenue           Section         `json:"revenue"`
	CostOfGoodsSold   Section         `json:"cost_of_goods_sold"`
	GrossProfit       decimal.Decimal `json:"gross_profit"`
	OperatingExpenses Section         `json:"operating_expenses"`
	OperatingIncome   decimal.Decimal `json:"operating_income"`
	OtherRevenue      Section         `json:"other_revenue"`
	OtherExpenses     Section         `json:"other_expenses"`
	NetIncome         decimal.Decimal `json:"net_income"`
}

// IncomeStatement aggregates the period's posted lines into P&L buckets.
// Revenue accounts contribute credits minus debits; expense accounts debits
// minus credits. COGS sub-typed expenses form their own section above the
// gross-profit line; other_revenue / other_expense sub-types land below
// operating income.
func (c *Compiler) IncomeStatement(ctx context.Context, periodID string) (*IncomeStatement, error) {
	period, err := c.period(ctx, periodID)
	if err != nil {
		return nil, err
	}

	lines, err := c.store.LinesInRange(ctx, period.StartDate, period.EndDate)
	if err != nil {
		return nil, err
	}
	_, accounts, err := c.accountsByID(ctx)
	if err != nil {
		return nil, err
	}

	byAccount := sumByAccount(lines)
	is := &IncomeStatement{
		PeriodID:   period.ID,
		PeriodName: period.Name,
		From:       period.StartDate,
		To:         period.EndDate,
	}

	for _, a := range accounts {
		act, touched := byAccount[a.ID]
		if !touched {
			continue
		}
		switch a.Type {
		case ledger.TypeRevenue:
			amount := act.net(ledger.NormalCredit)
			if a.SubType == ledger.SubTypeOtherRevenue {
				is.OtherRevenue.add(a, amount)
			} else {
				is.Revenue.add(a, amount)
			}
		case ledger.TypeExpense:
			amount := act.net(ledger.NormalDebit)
			switch a.SubType {
			case ledger.SubTypeCOGS:
				is.CostOfGoodsSold.add(a, amount)
			case ledger.SubTypeOtherExpense:
				is.OtherExpenses.add(a, amount)
			default:
				is.OperatingExpenses.add(a, amount)
			}
		}
	}

	is.GrossProfit = is.Revenue.Total.Sub(is.CostOfGoodsSold.Total)
	is.OperatingIncome = is.GrossProfit.Sub(is.OperatingExpenses.Total)
	is.NetIncome = is.OperatingIncome.Add(is.OtherRevenue.Total).Sub(is.OtherExpenses.Total)
	return is, nil
}

// netIncomeOver computes net income across an arbitrary line scope: all
// revenue activity minus all expense activity. Used by the balance sheet's
// current-period-earnings line and the cash flow statement.
func netIncomeOver(lines []ledger.PostedLine, byID map[string]ledger.Account) decimal.Decimal {
	net := decimal.Zero
	for id, act := range sumByAccount(lines) {
		a, ok := byID[id]
		if !ok {
			continue
		}
		switch a.Type {
		case ledger.TypeRevenue:
			net = net.Add(act.net(ledger.NormalCredit))
		case ledger.TypeExpense:
			net = net.Sub(act.net(ledger.NormalDebit))
		}
	}
	return net
}
