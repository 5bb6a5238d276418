package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/forecourt-hq/forecourt/internal/ledger/accounts"
)

// BalanceSheetAccount summarises one account inside a section.
type BalanceSheetAccount struct {
	Code    string
	Name    string
	Balance decimal.Decimal
}

// BalanceSheetSection contains the accounts and total for a classification.
type BalanceSheetSection struct {
	Label    string
	Accounts []BalanceSheetAccount
	Total    decimal.Decimal
}

// BalanceSheet is the structured response for the balance sheet report.
// IsBalanced verifies the accounting equation:
// Assets == Liabilities + Equity + NetProfit.
type BalanceSheet struct {
	Assets      BalanceSheetSection
	Liabilities BalanceSheetSection
	Equity      BalanceSheetSection
	NetProfit   decimal.Decimal
	IsBalanced  bool
}

// BuildBalanceSheet aggregates account activity into the balance sheet.
// Income and expense activity folds into NetProfit.
func BuildBalanceSheet(activity []AccountActivity) BalanceSheet {
	assets := BalanceSheetSection{Label: "Assets", Total: decimal.Zero}
	liabilities := BalanceSheetSection{Label: "Liabilities", Total: decimal.Zero}
	equity := BalanceSheetSection{Label: "Equity", Total: decimal.Zero}
	income := decimal.Zero
	expenses := decimal.Zero

	for _, acc := range activity {
		balance := acc.Balance()
		row := BalanceSheetAccount{Code: acc.Code, Name: acc.Name, Balance: balance}
		switch acc.Type {
		case accounts.AccountTypeAsset:
			assets.Accounts = append(assets.Accounts, row)
			assets.Total = assets.Total.Add(balance)
		case accounts.AccountTypeLiability:
			liabilities.Accounts = append(liabilities.Accounts, row)
			liabilities.Total = liabilities.Total.Add(balance)
		case accounts.AccountTypeEquity:
			equity.Accounts = append(equity.Accounts, row)
			equity.Total = equity.Total.Add(balance)
		case accounts.AccountTypeIncome:
			income = income.Add(balance)
		case accounts.AccountTypeExpense:
			expenses = expenses.Add(balance)
		}
	}

	for _, section := range []*BalanceSheetSection{&assets, &liabilities, &equity} {
		accountsCopy := section.Accounts
		sort.Slice(accountsCopy, func(i, j int) bool { return accountsCopy[i].Code < accountsCopy[j].Code })
	}

	netProfit := income.Sub(expenses)
	return BalanceSheet{
		Assets:      assets,
		Liabilities: liabilities,
		Equity:      equity,
		NetProfit:   netProfit,
		IsBalanced:  assets.Total.Equal(liabilities.Total.Add(equity.Total).Add(netProfit)),
	}
}
