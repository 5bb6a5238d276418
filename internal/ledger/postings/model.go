package postings

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is one balanced journal entry: it raises exactly one account's
// debit total and one account's credit total by the same amount. Rows are
// immutable once committed; the only destructive operation is a full
// reversal, which re-applies the inverse balance deltas before deleting.
type Transaction struct {
	ID               int64
	Ref              uuid.UUID
	DebitAccountID   int64
	CreditAccountID  int64
	Amount           decimal.Decimal
	Description      string
	ShiftID          *int64
	SupplierID       *int64
	PaymentAccountID *int64
	CreatedAt        time.Time
}
