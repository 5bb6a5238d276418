package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/forecourt-hq/forecourt/internal/ledger/accounts"
)

// ProfitAndLossAccount represents an income or expense account summary.
type ProfitAndLossAccount struct {
	Code   string
	Name   string
	Amount decimal.Decimal
}

// ProfitAndLossSection groups accounts by nature.
type ProfitAndLossSection struct {
	Label    string
	Accounts []ProfitAndLossAccount
	Total    decimal.Decimal
}

// ProfitAndLoss contains the structured output for the report.
type ProfitAndLoss struct {
	Income    ProfitAndLossSection
	Expenses  ProfitAndLossSection
	NetProfit decimal.Decimal
}

// BuildProfitAndLoss aggregates activity into income and expense sections.
// Callers scope the activity to a date range before building.
func BuildProfitAndLoss(activity []AccountActivity) ProfitAndLoss {
	income := ProfitAndLossSection{Label: "Income", Total: decimal.Zero}
	expenses := ProfitAndLossSection{Label: "Expenses", Total: decimal.Zero}

	for _, acc := range activity {
		amount := acc.Balance()
		row := ProfitAndLossAccount{Code: acc.Code, Name: acc.Name, Amount: amount}
		switch acc.Type {
		case accounts.AccountTypeIncome:
			income.Accounts = append(income.Accounts, row)
			income.Total = income.Total.Add(amount)
		case accounts.AccountTypeExpense:
			expenses.Accounts = append(expenses.Accounts, row)
			expenses.Total = expenses.Total.Add(amount)
		}
	}

	sort.Slice(income.Accounts, func(i, j int) bool { return income.Accounts[i].Code < income.Accounts[j].Code })
	sort.Slice(expenses.Accounts, func(i, j int) bool { return expenses.Accounts[i].Code < expenses.Accounts[j].Code })

	return ProfitAndLoss{
		Income:    income,
		Expenses:  expenses,
		NetProfit: income.Total.Sub(expenses.Total),
	}
}
