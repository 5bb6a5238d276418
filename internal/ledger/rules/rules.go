// Package rules holds the balance-sign conventions for the chart of accounts.
// The same mapping is applied by the posting engine (incremental updates) and
// by reporting (full recomputation from the transaction log); the two must
// always agree.
package rules

import (
	"github.com/shopspring/decimal"

	"github.com/forecourt-hq/forecourt/internal/ledger/accounts"
)

// Side indicates which posting side increases an account's balance.
type Side string

const (
	DebitNormal  Side = "DEBIT"
	CreditNormal Side = "CREDIT"
)

// Normal returns the balance-increasing side for an account type.
// Assets and expenses grow with debits; liabilities, equity, and income
// grow with credits.
func Normal(t accounts.AccountType) Side {
	switch t {
	case accounts.AccountTypeAsset, accounts.AccountTypeExpense:
		return DebitNormal
	default:
		return CreditNormal
	}
}

// Balance computes the signed balance for an account type from its
// aggregated debit and credit totals.
func Balance(t accounts.AccountType, debits, credits decimal.Decimal) decimal.Decimal {
	if Normal(t) == DebitNormal {
		return debits.Sub(credits)
	}
	return credits.Sub(debits)
}

// DebitDelta returns the balance delta caused by debiting an account.
func DebitDelta(t accounts.AccountType, amount decimal.Decimal) decimal.Decimal {
	if Normal(t) == DebitNormal {
		return amount
	}
	return amount.Neg()
}

// CreditDelta returns the balance delta caused by crediting an account.
func CreditDelta(t accounts.AccountType, amount decimal.Decimal) decimal.Decimal {
	if Normal(t) == CreditNormal {
		return amount
	}
	return amount.Neg()
}
