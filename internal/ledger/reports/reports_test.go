package reports

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/forecourt-hq/forecourt/internal/ledger/accounts"
	"github.com/forecourt-hq/forecourt/internal/ledger/postings"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// sampleActivity mirrors three postings: a 350 fuel sale into cash, a 500
// stock purchase on credit, and a 250 supplier payment from cash.
func sampleActivity() []AccountActivity {
	return []AccountActivity{
		{ID: 1, Code: "10101", Name: "Cash", Type: accounts.AccountTypeAsset,
			Cached: dec("100"), Debit: dec("350"), Credit: dec("250")},
		{ID: 2, Code: "10401", Name: "Fuel Inventory", Type: accounts.AccountTypeAsset,
			Cached: dec("500"), Debit: dec("500"), Credit: dec("0")},
		{ID: 3, Code: "20101", Name: "Accounts Payable", Type: accounts.AccountTypeLiability,
			Cached: dec("250"), Debit: dec("250"), Credit: dec("500")},
		{ID: 4, Code: "40101", Name: "Fuel Sales", Type: accounts.AccountTypeIncome,
			Cached: dec("350"), Debit: dec("0"), Credit: dec("350")},
	}
}

func TestBuildTrialBalance(t *testing.T) {
	tb := BuildTrialBalance(sampleActivity())

	require.True(t, tb.IsBalanced)
	require.True(t, tb.TotalDebit.Equal(dec("1100")))
	require.True(t, tb.TotalCredit.Equal(dec("1100")))
	require.Len(t, tb.Accounts, 4)

	// Sorted by code; the recomputed balance must match the cached column
	// when nothing has drifted.
	require.Equal(t, "10101", tb.Accounts[0].Code)
	require.True(t, tb.Accounts[0].Balance.Equal(dec("100")))
	require.True(t, tb.Accounts[0].Cached.Equal(tb.Accounts[0].Balance))
	require.True(t, tb.Accounts[2].Balance.Equal(dec("250")))
}

func TestBuildTrialBalanceDetectsImbalance(t *testing.T) {
	activity := sampleActivity()
	activity[0].Debit = activity[0].Debit.Add(dec("0.01"))
	tb := BuildTrialBalance(activity)
	require.False(t, tb.IsBalanced)
}

func TestBuildBalanceSheetEquation(t *testing.T) {
	bs := BuildBalanceSheet(sampleActivity())

	require.True(t, bs.Assets.Total.Equal(dec("600")))
	require.True(t, bs.Liabilities.Total.Equal(dec("250")))
	require.True(t, bs.Equity.Total.IsZero())
	require.True(t, bs.NetProfit.Equal(dec("350")))
	require.True(t, bs.IsBalanced)

	require.Len(t, bs.Assets.Accounts, 2)
	require.Equal(t, "10101", bs.Assets.Accounts[0].Code)
}

func TestBuildProfitAndLoss(t *testing.T) {
	activity := append(sampleActivity(), AccountActivity{
		ID: 5, Code: "50101", Name: "General Expenses", Type: accounts.AccountTypeExpense,
		Debit: dec("120"), Credit: dec("0"),
	})
	pl := BuildProfitAndLoss(activity)

	require.True(t, pl.Income.Total.Equal(dec("350")))
	require.True(t, pl.Expenses.Total.Equal(dec("120")))
	require.True(t, pl.NetProfit.Equal(dec("230")))
	require.Len(t, pl.Income.Accounts, 1)
	require.Len(t, pl.Expenses.Accounts, 1)
}

func TestBuildAccountLedgerRunningBalance(t *testing.T) {
	cash := accounts.Account{ID: 1, Code: "10101", Name: "Cash", Type: accounts.AccountTypeAsset}
	txs := []postings.Transaction{
		{ID: 1, DebitAccountID: 1, CreditAccountID: 4, Amount: dec("350"),
			Description: "Shift fuel sales", CreatedAt: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)},
		{ID: 3, DebitAccountID: 3, CreditAccountID: 1, Amount: dec("250"),
			Description: "Supplier payment", CreatedAt: time.Date(2026, 8, 2, 14, 0, 0, 0, time.UTC)},
	}

	ledger := BuildAccountLedger(cash, dec("40"), txs)

	require.True(t, ledger.Opening.Equal(dec("40")))
	require.Len(t, ledger.Entries, 2)
	require.True(t, ledger.Entries[0].Debit.Equal(dec("350")))
	require.True(t, ledger.Entries[0].Running.Equal(dec("390")))
	require.True(t, ledger.Entries[1].Credit.Equal(dec("250")))
	require.True(t, ledger.Entries[1].Running.Equal(dec("140")))
	require.True(t, ledger.Closing.Equal(dec("140")))
}

func TestBuildAccountLedgerCreditNormalAccount(t *testing.T) {
	payable := accounts.Account{ID: 3, Code: "20101", Name: "Accounts Payable", Type: accounts.AccountTypeLiability}
	txs := []postings.Transaction{
		{ID: 2, DebitAccountID: 2, CreditAccountID: 3, Amount: dec("500")},
		{ID: 3, DebitAccountID: 3, CreditAccountID: 1, Amount: dec("250")},
	}

	ledger := BuildAccountLedger(payable, decimal.Zero, txs)
	require.True(t, ledger.Entries[0].Running.Equal(dec("500")))
	require.True(t, ledger.Closing.Equal(dec("250")))
}
