package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/forecourt-hq/forecourt/internal/ledger/accounts"
	"github.com/forecourt-hq/forecourt/internal/ledger/rules"
)

// AccountActivity models one account with totals aggregated from the
// transaction log. Cached carries the live balance column for cross-checking
// against the recomputed value; reports never trust it.
type AccountActivity struct {
	ID     int64
	Code   string
	Name   string
	Type   accounts.AccountType
	Cached decimal.Decimal
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// Balance recomputes the signed balance from the aggregated totals.
func (a AccountActivity) Balance() decimal.Decimal {
	return rules.Balance(a.Type, a.Debit, a.Credit)
}

// TrialBalanceRow is one account line in the trial balance. Cached is the
// live balance column; Balance is recomputed from the transaction log.
type TrialBalanceRow struct {
	Code    string
	Name    string
	Debit   decimal.Decimal
	Credit  decimal.Decimal
	Balance decimal.Decimal
	Cached  decimal.Decimal
}

// TrialBalance lists every account's debit/credit totals over the raw
// transaction log. IsBalanced is the primary consistency check: every
// posting contributes the same amount to both sides.
type TrialBalance struct {
	Accounts    []TrialBalanceRow
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	IsBalanced  bool
}

// BuildTrialBalance converts per-account activity into the trial balance.
func BuildTrialBalance(activity []AccountActivity) TrialBalance {
	tb := TrialBalance{
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
	for _, acc := range activity {
		row := TrialBalanceRow{
			Code:    acc.Code,
			Name:    acc.Name,
			Debit:   acc.Debit,
			Credit:  acc.Credit,
			Balance: acc.Balance(),
			Cached:  acc.Cached,
		}
		tb.Accounts = append(tb.Accounts, row)
		tb.TotalDebit = tb.TotalDebit.Add(row.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(row.Credit)
	}
	sort.Slice(tb.Accounts, func(i, j int) bool { return tb.Accounts[i].Code < tb.Accounts[j].Code })
	tb.IsBalanced = tb.TotalDebit.Equal(tb.TotalCredit)
	return tb
}
