package statements

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/keystone/finance-engine/ledger"
)

// =============================================================================
// BALANCE SHEET
// =============================================================================

// BalanceSheet is the financial position as of a date.
//
// No closing entries are ever posted, so accumulated net income lives in
// revenue and expense accounts rather than retained earnings. The sheet
// makes that linkage explicit: CurrentPeriodEarnings is a virtual equity
// line carrying all net income up to the statement date, and the equation
// totalAssets == totalLiabilities + totalEquity holds because of it.
type BalanceSheet struct {
	AsOf ledger.Date `json:"as_of"`

	CurrentAssets Section         `json:"current_assets"`
	FixedAssets   Section         `json:"fixed_assets"`
	OtherAssets   Section         `json:"other_assets"`
	TotalAssets   decimal.Decimal `json:"total_assets"`

	CurrentLiabilities  Section         `json:"current_liabilities"`
	LongTermLiabilities Section         `json:"long_term_liabilities"`
	TotalLiabilities    decimal.Decimal `json:"total_liabilities"`

	Equity                Section         `json:"equity"`
	CurrentPeriodEarnings decimal.Decimal `json:"current_period_earnings"`
	TotalEquity           decimal.Decimal `json:"total_equity"`

	IsBalanced bool `json:"is_balanced"`
}

var currentAssetSubTypes = map[ledger.AccountSubType]bool{
	ledger.SubTypeCash:               true,
	ledger.SubTypeAccountsReceivable: true,
	ledger.SubTypeInventory:          true,
	ledger.SubTypeWorkInProcess:      true,
	ledger.SubTypePrepaidExpenses:    true,
	ledger.SubTypeOtherCurrentAsset:  true,
}

var currentLiabilitySubTypes = map[ledger.AccountSubType]bool{
	ledger.SubTypeAccountsPayable:       true,
	ledger.SubTypeAccruedLiabilities:    true,
	ledger.SubTypeCreditCard:            true,
	ledger.SubTypeDeferredRevenue:       true,
	ledger.SubTypeOtherCurrentLiability: true,
}

// BalanceSheet partitions cumulative account balances as of a date.
func (c *Compiler) BalanceSheet(ctx context.Context, asOf ledger.Date) (*BalanceSheet, error) {
	lines, err := c.linesUpTo(ctx, asOf)
	if err != nil {
		return nil, err
	}
	byID, accounts, err := c.accountsByID(ctx)
	if err != nil {
		return nil, err
	}

	byAccount := sumByAccount(lines)
	bs := &BalanceSheet{AsOf: asOf}

	for _, a := range accounts {
		act, touched := byAccount[a.ID]
		if !touched {
			continue
		}
		switch a.Type {
		case ledger.TypeAsset:
			balance := act.net(ledger.NormalDebit)
			switch {
			case currentAssetSubTypes[a.SubType]:
				bs.CurrentAssets.add(a, balance)
			case a.SubType == ledger.SubTypeFixedAsset:
				bs.FixedAssets.add(a, balance)
			default:
				bs.OtherAssets.add(a, balance)
			}
		case ledger.TypeLiability:
			balance := act.net(ledger.NormalCredit)
			if currentLiabilitySubTypes[a.SubType] {
				bs.CurrentLiabilities.add(a, balance)
			} else {
				bs.LongTermLiabilities.add(a, balance)
			}
		case ledger.TypeEquity:
			bs.Equity.add(a, act.net(ledger.NormalCredit))
		}
	}

	// Fold accumulated net income into equity; see the type doc.
	bs.CurrentPeriodEarnings = netIncomeOver(lines, byID)

	bs.TotalAssets = bs.CurrentAssets.Total.Add(bs.FixedAssets.Total).Add(bs.OtherAssets.Total)
	bs.TotalLiabilities = bs.CurrentLiabilities.Total.Add(bs.LongTermLiabilities.Total)
	bs.TotalEquity = bs.Equity.Total.Add(bs.CurrentPeriodEarnings)
	bs.IsBalanced = ledger.WithinTolerance(bs.TotalAssets, bs.TotalLiabilities.Add(bs.TotalEquity))
	return bs, nil
}
