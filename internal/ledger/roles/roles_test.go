package roles

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultsCoverEveryRole(t *testing.T) {
	table := Defaults()
	for _, role := range []Role{
		Cash, Bank, AccountsReceivable, FuelInventory, AccountsPayable,
		OwnerEquity, FuelSales, StockGain, GeneralExpenses, COGS, StockLoss,
	} {
		code, err := table.Code(role)
		require.NoError(t, err)
		require.Len(t, code, 5)
	}
}

func TestWithOverridesDoesNotMutateBase(t *testing.T) {
	base := Defaults()
	overridden := base.WithOverrides(map[Role]string{Cash: "19999"})

	code, err := overridden.Code(Cash)
	require.NoError(t, err)
	require.Equal(t, "19999", code)

	code, err = base.Code(Cash)
	require.NoError(t, err)
	require.Equal(t, "10101", code)
}

func TestCodeUnknownRole(t *testing.T) {
	_, err := Defaults().Code(Role("PETTY_CASH"))
	require.Error(t, err)
}

func TestForPaymentMethod(t *testing.T) {
	cases := map[string]Role{
		"CASH":     Cash,
		"cash":     Cash,
		" Bank ":   Bank,
		"TRANSFER": Bank,
		"CARD":     Bank,
		"CHEQUE":   Bank,
	}
	for method, want := range cases {
		role, err := ForPaymentMethod(method)
		require.NoError(t, err, method)
		require.Equal(t, want, role)
	}

	_, err := ForPaymentMethod("BARTER")
	require.Error(t, err)
}
