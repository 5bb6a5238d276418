package postings

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/forecourt-hq/forecourt/internal/ledger/accounts"
	"github.com/forecourt-hq/forecourt/internal/ledger/shared"
	"github.com/forecourt-hq/forecourt/internal/platform/db"
)

// Filter narrows transaction listings.
type Filter struct {
	AccountID int64
	From      *time.Time
	To        *time.Time
	Limit     int
}

// Repository encapsulates DB operations for the posting engine.
type Repository interface {
	GetByID(ctx context.Context, id int64) (Transaction, error)
	List(ctx context.Context, filter Filter) ([]Transaction, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the mutations available inside one unit of work.
// The transaction insert and both balance adjustments commit together or
// not at all.
type TxRepository interface {
	GetAccountByCode(ctx context.Context, code string) (accounts.Account, error)
	GetAccountByID(ctx context.Context, id int64) (accounts.Account, error)
	InsertTransaction(ctx context.Context, in PostingInput, debitID, creditID int64) (Transaction, error)
	AdjustAccountBalance(ctx context.Context, accountID int64, delta decimal.Decimal) error
	GetTransactionForUpdate(ctx context.Context, id int64) (Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const txColumns = `id, ref, debit_account_id, credit_account_id, amount::text, description, shift_id, supplier_id, payment_account_id, created_at`

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	var amount string
	if err := row.Scan(&t.ID, &t.Ref, &t.DebitAccountID, &t.CreditAccountID, &amount, &t.Description,
		&t.ShiftID, &t.SupplierID, &t.PaymentAccountID, &t.CreatedAt); err != nil {
		return Transaction{}, err
	}
	var err error
	t.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return Transaction{}, err
	}
	return t, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (Transaction, error) {
	t, err := scanTransaction(r.db.QueryRow(ctx, `SELECT `+txColumns+` FROM transactions WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, shared.ErrTransactionNotFound
		}
		return Transaction{}, err
	}
	return t, nil
}

func (r *repository) List(ctx context.Context, filter Filter) ([]Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE 1=1`
	args := []any{}
	idx := 1
	if filter.AccountID != 0 {
		query += ` AND (debit_account_id=$1 OR credit_account_id=$1)`
		args = append(args, filter.AccountID)
		idx++
	}
	if filter.From != nil {
		query += ` AND created_at >= $` + itoa(idx)
		args = append(args, *filter.From)
		idx++
	}
	if filter.To != nil {
		query += ` AND created_at <= $` + itoa(idx)
		args = append(args, *filter.To)
		idx++
	}
	query += ` ORDER BY created_at ASC, id ASC`
	if filter.Limit > 0 {
		query += ` LIMIT $` + itoa(idx)
		args = append(args, filter.Limit)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// txRepository runs every statement on one pgx.Tx so a partial posting can
// never be observed.
type txRepository struct {
	tx pgx.Tx
}

// NewTxRepository adapts an open pgx transaction to the posting TxRepository.
// The settlement allocator uses this to post inside its own unit of work.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

const accountColumns = `id, code, name, type, balance::text, created_at, updated_at`

func scanAccount(row pgx.Row) (accounts.Account, error) {
	var a accounts.Account
	var balance string
	if err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &balance, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return accounts.Account{}, err
	}
	var err error
	a.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return accounts.Account{}, err
	}
	return a, nil
}

func (r *txRepository) GetAccountByCode(ctx context.Context, code string) (accounts.Account, error) {
	a, err := scanAccount(r.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE code=$1`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accounts.Account{}, &shared.UnknownAccountError{Code: code}
		}
		return accounts.Account{}, err
	}
	return a, nil
}

func (r *txRepository) GetAccountByID(ctx context.Context, id int64) (accounts.Account, error) {
	a, err := scanAccount(r.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accounts.Account{}, &shared.UnknownAccountError{ID: id}
		}
		return accounts.Account{}, err
	}
	return a, nil
}

func (r *txRepository) InsertTransaction(ctx context.Context, in PostingInput, debitID, creditID int64) (Transaction, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO transactions (ref, debit_account_id, credit_account_id, amount, description, shift_id, supplier_id, payment_account_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id, created_at`,
		in.Ref, debitID, creditID, in.Amount.StringFixed(2), in.Description, in.ShiftID, in.SupplierID, in.PaymentAccountID)
	t := Transaction{
		Ref:              in.Ref,
		DebitAccountID:   debitID,
		CreditAccountID:  creditID,
		Amount:           in.Amount,
		Description:      in.Description,
		ShiftID:          in.ShiftID,
		SupplierID:       in.SupplierID,
		PaymentAccountID: in.PaymentAccountID,
	}
	if err := row.Scan(&t.ID, &t.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Transaction{}, shared.ErrDuplicatePosting
		}
		return Transaction{}, err
	}
	return t, nil
}

// AdjustAccountBalance applies a signed delta with an atomic in-place update,
// so concurrent postings touching the same account serialize through the
// store's row lock instead of losing updates.
func (r *txRepository) AdjustAccountBalance(ctx context.Context, accountID int64, delta decimal.Decimal) error {
	cmd, err := r.tx.Exec(ctx,
		`UPDATE accounts SET balance = balance + $2, updated_at = NOW() WHERE id=$1`,
		accountID, delta.StringFixed(2))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return &shared.UnknownAccountError{ID: accountID}
	}
	return nil
}

func (r *txRepository) GetTransactionForUpdate(ctx context.Context, id int64) (Transaction, error) {
	t, err := scanTransaction(r.tx.QueryRow(ctx, `SELECT `+txColumns+` FROM transactions WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, shared.ErrTransactionNotFound
		}
		return Transaction{}, err
	}
	return t, nil
}

func (r *txRepository) DeleteTransaction(ctx context.Context, id int64) error {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM transactions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrTransactionNotFound
	}
	return nil
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
