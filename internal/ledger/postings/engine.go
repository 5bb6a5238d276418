package postings

import (
	"context"

	"github.com/google/uuid"

	"github.com/forecourt-hq/forecourt/internal/ledger/rules"
	"github.com/forecourt-hq/forecourt/internal/ledger/shared"
)

// ApplyWithin executes one posting against an already-open unit of work:
// insert the transaction row, then adjust both account balances under the
// type's sign rule. Callers that need the posting atomically combined with
// other mutations (the settlement allocator) pass their own TxRepository.
func ApplyWithin(ctx context.Context, tx TxRepository, in PostingInput) (Transaction, error) {
	if err := in.Validate(); err != nil {
		return Transaction{}, err
	}
	if in.Ref == uuid.Nil {
		in.Ref = uuid.New()
	}
	debit, err := tx.GetAccountByCode(ctx, in.DebitCode)
	if err != nil {
		return Transaction{}, err
	}
	credit, err := tx.GetAccountByCode(ctx, in.CreditCode)
	if err != nil {
		return Transaction{}, err
	}
	if debit.ID == credit.ID {
		return Transaction{}, shared.ErrSameAccount
	}
	inserted, err := tx.InsertTransaction(ctx, in, debit.ID, credit.ID)
	if err != nil {
		return Transaction{}, err
	}
	if err := tx.AdjustAccountBalance(ctx, debit.ID, rules.DebitDelta(debit.Type, in.Amount)); err != nil {
		return Transaction{}, err
	}
	if err := tx.AdjustAccountBalance(ctx, credit.ID, rules.CreditDelta(credit.Type, in.Amount)); err != nil {
		return Transaction{}, err
	}
	return inserted, nil
}

// ReverseWithin undoes a posting inside an open unit of work: both balance
// deltas are inverted, then the row is removed. A missing row surfaces as
// ErrTransactionNotFound so a second reversal can never double-adjust.
func ReverseWithin(ctx context.Context, tx TxRepository, transactionID int64) (Transaction, error) {
	t, err := tx.GetTransactionForUpdate(ctx, transactionID)
	if err != nil {
		return Transaction{}, err
	}
	debit, err := tx.GetAccountByID(ctx, t.DebitAccountID)
	if err != nil {
		return Transaction{}, err
	}
	credit, err := tx.GetAccountByID(ctx, t.CreditAccountID)
	if err != nil {
		return Transaction{}, err
	}
	if err := tx.AdjustAccountBalance(ctx, debit.ID, rules.DebitDelta(debit.Type, t.Amount).Neg()); err != nil {
		return Transaction{}, err
	}
	if err := tx.AdjustAccountBalance(ctx, credit.ID, rules.CreditDelta(credit.Type, t.Amount).Neg()); err != nil {
		return Transaction{}, err
	}
	if err := tx.DeleteTransaction(ctx, t.ID); err != nil {
		return Transaction{}, err
	}
	return t, nil
}
