package accounts

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/forecourt-hq/forecourt/internal/ledger/shared"
)

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeIncome    AccountType = "INCOME"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Account models a chart of accounts node. Balance is a materialized view of
// the transaction log; only the posting engine mutates it.
type Account struct {
	ID        int64
	Code      string
	Name      string
	Type      AccountType
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Account codes are five digits; the first digit carries the type.
var typeDigits = map[byte]AccountType{
	'1': AccountTypeAsset,
	'2': AccountTypeLiability,
	'3': AccountTypeEquity,
	'4': AccountTypeIncome,
	'5': AccountTypeExpense,
}

var digitForType = map[AccountType]byte{
	AccountTypeAsset:     '1',
	AccountTypeLiability: '2',
	AccountTypeEquity:    '3',
	AccountTypeIncome:    '4',
	AccountTypeExpense:   '5',
}

// TypeForCode derives the account type encoded in a code's first digit.
func TypeForCode(code string) (AccountType, error) {
	if len(code) != 5 {
		return "", shared.ErrInvalidCode
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return "", shared.ErrInvalidCode
		}
	}
	t, ok := typeDigits[code[0]]
	if !ok {
		return "", shared.ErrInvalidCode
	}
	return t, nil
}

// ValidateCode checks the code format and its agreement with the given type.
func ValidateCode(code string, t AccountType) error {
	derived, err := TypeForCode(code)
	if err != nil {
		return err
	}
	if derived != t {
		return shared.ErrInvalidCode
	}
	return nil
}
