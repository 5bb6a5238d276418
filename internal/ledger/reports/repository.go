package reports

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/forecourt-hq/forecourt/internal/ledger/accounts"
	"github.com/forecourt-hq/forecourt/internal/ledger/postings"
	"github.com/forecourt-hq/forecourt/internal/ledger/shared"
)

// Repository aggregates read-only report data from the transaction log.
// Totals are always recomputed from transactions, independent of the live
// balance column.
type Repository interface {
	AccountActivity(ctx context.Context, from, to *time.Time) ([]AccountActivity, error)
	GetAccount(ctx context.Context, accountID int64) (accounts.Account, error)
	AccountTransactions(ctx context.Context, accountID int64, from, to *time.Time) ([]postings.Transaction, error)
	AccountOpening(ctx context.Context, accountID int64, before *time.Time) (debit, credit decimal.Decimal, err error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) AccountActivity(ctx context.Context, from, to *time.Time) ([]AccountActivity, error) {
	query := `SELECT a.id, a.code, a.name, a.type, a.balance::text,
  COALESCE(SUM(t.amount) FILTER (WHERE t.debit_account_id = a.id), 0)::text,
  COALESCE(SUM(t.amount) FILTER (WHERE t.credit_account_id = a.id), 0)::text
FROM accounts a
LEFT JOIN transactions t
  ON (t.debit_account_id = a.id OR t.credit_account_id = a.id)`
	args := []any{}
	idx := 1
	if from != nil {
		query += ` AND t.created_at >= $` + strconv.Itoa(idx)
		args = append(args, *from)
		idx++
	}
	if to != nil {
		query += ` AND t.created_at <= $` + strconv.Itoa(idx)
		args = append(args, *to)
	}
	query += ` GROUP BY a.id ORDER BY a.code`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountActivity
	for rows.Next() {
		var acc AccountActivity
		var cached, debit, credit string
		if err := rows.Scan(&acc.ID, &acc.Code, &acc.Name, &acc.Type, &cached, &debit, &credit); err != nil {
			return nil, err
		}
		if acc.Cached, err = decimal.NewFromString(cached); err != nil {
			return nil, err
		}
		if acc.Debit, err = decimal.NewFromString(debit); err != nil {
			return nil, err
		}
		if acc.Credit, err = decimal.NewFromString(credit); err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, rows.Err()
}

func (r *repository) GetAccount(ctx context.Context, accountID int64) (accounts.Account, error) {
	var a accounts.Account
	var balance string
	err := r.db.QueryRow(ctx,
		`SELECT id, code, name, type, balance::text, created_at, updated_at FROM accounts WHERE id=$1`, accountID).
		Scan(&a.ID, &a.Code, &a.Name, &a.Type, &balance, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accounts.Account{}, &shared.UnknownAccountError{ID: accountID}
		}
		return accounts.Account{}, err
	}
	a.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return accounts.Account{}, err
	}
	return a, nil
}

func (r *repository) AccountTransactions(ctx context.Context, accountID int64, from, to *time.Time) ([]postings.Transaction, error) {
	query := `SELECT id, ref, debit_account_id, credit_account_id, amount::text, description, shift_id, supplier_id, payment_account_id, created_at
FROM transactions WHERE (debit_account_id=$1 OR credit_account_id=$1)`
	args := []any{accountID}
	idx := 2
	if from != nil {
		query += ` AND created_at >= $` + strconv.Itoa(idx)
		args = append(args, *from)
		idx++
	}
	if to != nil {
		query += ` AND created_at <= $` + strconv.Itoa(idx)
		args = append(args, *to)
	}
	query += ` ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []postings.Transaction
	for rows.Next() {
		var t postings.Transaction
		var amount string
		if err := rows.Scan(&t.ID, &t.Ref, &t.DebitAccountID, &t.CreditAccountID, &amount, &t.Description,
			&t.ShiftID, &t.SupplierID, &t.PaymentAccountID, &t.CreatedAt); err != nil {
			return nil, err
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// AccountOpening sums the account's debit and credit totals strictly before
// the given instant, so the ledger view can carry a balance into its range.
func (r *repository) AccountOpening(ctx context.Context, accountID int64, before *time.Time) (decimal.Decimal, decimal.Decimal, error) {
	if before == nil {
		return decimal.Zero, decimal.Zero, nil
	}
	var debit, credit string
	err := r.db.QueryRow(ctx, `SELECT
  COALESCE(SUM(amount) FILTER (WHERE debit_account_id=$1), 0)::text,
  COALESCE(SUM(amount) FILTER (WHERE credit_account_id=$1), 0)::text
FROM transactions WHERE (debit_account_id=$1 OR credit_account_id=$1) AND created_at < $2`, accountID, *before).
		Scan(&debit, &credit)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	d, err := decimal.NewFromString(debit)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	c, err := decimal.NewFromString(credit)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return d, c, nil
}
