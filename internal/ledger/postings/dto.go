package postings

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/forecourt-hq/forecourt/internal/ledger/shared"
)

// PostingInput groups the fields required to post one journal entry.
// Metadata pointers are carried onto the transaction row for reconciliation.
type PostingInput struct {
	DebitCode        string
	CreditCode       string
	Amount           decimal.Decimal
	Description      string
	ShiftID          *int64
	SupplierID       *int64
	PaymentAccountID *int64
	Ref              uuid.UUID
	IdempotencyKey   string
}

// Validate ensures the input meets posting preconditions. Account existence
// is checked later, inside the unit of work.
func (in PostingInput) Validate() error {
	if strings.TrimSpace(in.DebitCode) == "" || strings.TrimSpace(in.CreditCode) == "" {
		return errors.New("ledger: debit and credit codes required")
	}
	if in.DebitCode == in.CreditCode {
		return shared.ErrSameAccount
	}
	if !in.Amount.IsPositive() {
		return shared.ErrInvalidAmount
	}
	return nil
}

// ReverseInput wraps parameters for reversing a posting.
type ReverseInput struct {
	TransactionID int64
	Reason        string
}
