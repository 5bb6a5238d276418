package rules

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/forecourt-hq/forecourt/internal/ledger/accounts"
)

func TestNormalSides(t *testing.T) {
	require.Equal(t, DebitNormal, Normal(accounts.AccountTypeAsset))
	require.Equal(t, DebitNormal, Normal(accounts.AccountTypeExpense))
	require.Equal(t, CreditNormal, Normal(accounts.AccountTypeLiability))
	require.Equal(t, CreditNormal, Normal(accounts.AccountTypeEquity))
	require.Equal(t, CreditNormal, Normal(accounts.AccountTypeIncome))
}

func TestBalanceSign(t *testing.T) {
	debits := decimal.RequireFromString("150.00")
	credits := decimal.RequireFromString("40.00")

	require.True(t, Balance(accounts.AccountTypeAsset, debits, credits).Equal(decimal.RequireFromString("110.00")))
	require.True(t, Balance(accounts.AccountTypeLiability, debits, credits).Equal(decimal.RequireFromString("-110.00")))
	require.True(t, Balance(accounts.AccountTypeIncome, credits, debits).Equal(decimal.RequireFromString("110.00")))
}

func TestDeltasAreInverses(t *testing.T) {
	amount := decimal.RequireFromString("75.25")
	for _, accountType := range []accounts.AccountType{
		accounts.AccountTypeAsset,
		accounts.AccountTypeLiability,
		accounts.AccountTypeEquity,
		accounts.AccountTypeIncome,
		accounts.AccountTypeExpense,
	} {
		sum := DebitDelta(accountType, amount).Add(CreditDelta(accountType, amount))
		require.True(t, sum.IsZero(), "type %s: debit and credit deltas must cancel", accountType)
	}
}

func TestDebitDeltaMatchesNormalSide(t *testing.T) {
	amount := decimal.NewFromInt(10)
	require.True(t, DebitDelta(accounts.AccountTypeExpense, amount).Equal(amount))
	require.True(t, DebitDelta(accounts.AccountTypeIncome, amount).Equal(amount.Neg()))
	require.True(t, CreditDelta(accounts.AccountTypeLiability, amount).Equal(amount))
	require.True(t, CreditDelta(accounts.AccountTypeAsset, amount).Equal(amount.Neg()))
}
