package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/forecourt-hq/forecourt/internal/ledger/shared"
	"github.com/forecourt-hq/forecourt/internal/platform/db"
)

type Repository interface {
	GetByCode(ctx context.Context, code string) (Account, error)
	GetByID(ctx context.Context, id int64) (Account, error)
	GetByName(ctx context.Context, accountType AccountType, name string) (Account, error)
	List(ctx context.Context) ([]Account, error)
	Create(ctx context.Context, code, name string, accountType AccountType, opening decimal.Decimal) (Account, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const accountColumns = `id, code, name, type, balance::text, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	var balance string
	if err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &balance, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return Account{}, err
	}
	var err error
	a.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return Account{}, err
	}
	return a, nil
}

func (r *repository) GetByCode(ctx context.Context, code string) (Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE code=$1`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, &shared.UnknownAccountError{Code: code}
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, &shared.UnknownAccountError{ID: id}
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) GetByName(ctx context.Context, accountType AccountType, name string) (Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE type=$1 AND name=$2 ORDER BY code LIMIT 1`, accountType, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrUnknownAccount
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) List(ctx context.Context) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *repository) Create(ctx context.Context, code, name string, accountType AccountType, opening decimal.Decimal) (Account, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO accounts (code, name, type, balance)
VALUES ($1,$2,$3,$4) RETURNING `+accountColumns, code, name, accountType, opening.StringFixed(2))
	a, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Account{}, shared.ErrDuplicateCode
		}
		return Account{}, err
	}
	return a, nil
}

// Delete refuses to remove an account that any transaction still references.
func (r *repository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var refs int64
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM transactions WHERE debit_account_id=$1 OR credit_account_id=$1`, id).Scan(&refs); err != nil {
			return err
		}
		if refs > 0 {
			return shared.ErrAccountInUse
		}
		cmd, err := tx.Exec(ctx, `DELETE FROM accounts WHERE id=$1`, id)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return &shared.UnknownAccountError{ID: id}
		}
		return nil
	})
}
