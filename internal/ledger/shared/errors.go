package shared

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownAccount indicates a referenced account code or id does not exist.
	ErrUnknownAccount = errors.New("ledger: unknown account")
	// ErrInvalidAmount indicates a non-positive posting amount.
	ErrInvalidAmount = errors.New("ledger: amount must be positive")
	// ErrSameAccount indicates debit and credit reference the same account.
	ErrSameAccount = errors.New("ledger: debit and credit accounts must differ")
	// ErrDuplicateCode indicates an account code collision on create.
	ErrDuplicateCode = errors.New("ledger: account code already exists")
	// ErrAccountInUse indicates deletion blocked by referencing transactions.
	ErrAccountInUse = errors.New("ledger: account referenced by transactions")
	// ErrTransactionNotFound indicates a missing or already-reversed transaction.
	ErrTransactionNotFound = errors.New("ledger: transaction not found")
	// ErrInvalidCode indicates a malformed account code.
	ErrInvalidCode = errors.New("ledger: account code must be five digits with a valid type prefix")
	// ErrDuplicatePosting indicates an idempotency key was already consumed.
	ErrDuplicatePosting = errors.New("ledger: posting already recorded for idempotency key")
	// ErrSupplierNotFound indicates a referenced supplier does not exist.
	ErrSupplierNotFound = errors.New("ap: supplier not found")
	// ErrPurchaseNotFound indicates a referenced purchase does not exist.
	ErrPurchaseNotFound = errors.New("ap: purchase not found")
)

// UnknownAccountError wraps ErrUnknownAccount with the offending reference.
type UnknownAccountError struct {
	Code string
	ID   int64
}

func (e *UnknownAccountError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("ledger: unknown account code %s", e.Code)
	}
	return fmt.Sprintf("ledger: unknown account id %d", e.ID)
}

func (e *UnknownAccountError) Unwrap() error { return ErrUnknownAccount }

// ErrExceedsOutstandingBalance is the sentinel for over-payments.
var ErrExceedsOutstandingBalance = errors.New("ledger: payment exceeds outstanding balance")

// ExceedsOutstandingBalanceError carries the balance callers need to render
// a precise correction message.
type ExceedsOutstandingBalanceError struct {
	SupplierID  int64
	Outstanding decimal.Decimal
	Requested   decimal.Decimal
}

func (e *ExceedsOutstandingBalanceError) Error() string {
	return fmt.Sprintf("ledger: payment %s exceeds outstanding balance %s for supplier %d",
		e.Requested.StringFixed(2), e.Outstanding.StringFixed(2), e.SupplierID)
}

func (e *ExceedsOutstandingBalanceError) Unwrap() error { return ErrExceedsOutstandingBalance }
