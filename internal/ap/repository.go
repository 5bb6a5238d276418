package ap

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/forecourt-hq/forecourt/internal/ledger/postings"
	"github.com/forecourt-hq/forecourt/internal/ledger/shared"
	"github.com/forecourt-hq/forecourt/internal/platform/db"
)

var (
	ErrSupplierNotFound = shared.ErrSupplierNotFound
	ErrPurchaseNotFound = shared.ErrPurchaseNotFound
)

// Repository encapsulates DB operations for suppliers and purchases.
type Repository interface {
	GetSupplier(ctx context.Context, id int64) (Supplier, error)
	ListSuppliers(ctx context.Context) ([]Supplier, error)
	CreateSupplier(ctx context.Context, name, phone string) (Supplier, error)
	GetPurchase(ctx context.Context, id int64) (Purchase, error)
	ListPurchases(ctx context.Context, supplierID int64) ([]Purchase, error)
	ListOpenPurchases(ctx context.Context) ([]Purchase, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository combines purchase/supplier mutations with the posting engine's
// transactional surface, so a settlement's accounting entry, supplier balance
// decrement, and purchase allocations commit as one unit of work.
type TxRepository interface {
	postings.TxRepository
	GetSupplierForUpdate(ctx context.Context, id int64) (Supplier, error)
	AdjustSupplierBalance(ctx context.Context, id int64, delta decimal.Decimal) error
	InsertPurchase(ctx context.Context, in RecordPurchaseInput) (Purchase, error)
	ListOutstandingPurchases(ctx context.Context, supplierID int64) ([]Purchase, error)
	UpdatePurchasePayment(ctx context.Context, id int64, paid decimal.Decimal, status PurchaseStatus) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const supplierColumns = `id, name, phone, balance::text, created_at, updated_at`
const purchaseColumns = `id, supplier_id, total_cost::text, paid_amount::text, status, date, note, created_at, updated_at`

func scanSupplier(row pgx.Row) (Supplier, error) {
	var s Supplier
	var balance string
	if err := row.Scan(&s.ID, &s.Name, &s.Phone, &balance, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return Supplier{}, err
	}
	var err error
	s.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return Supplier{}, err
	}
	return s, nil
}

func scanPurchase(row pgx.Row) (Purchase, error) {
	var p Purchase
	var total, paid string
	if err := row.Scan(&p.ID, &p.SupplierID, &total, &paid, &p.Status, &p.Date, &p.Note, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Purchase{}, err
	}
	var err error
	if p.TotalCost, err = decimal.NewFromString(total); err != nil {
		return Purchase{}, err
	}
	if p.PaidAmount, err = decimal.NewFromString(paid); err != nil {
		return Purchase{}, err
	}
	return p, nil
}

func (r *repository) GetSupplier(ctx context.Context, id int64) (Supplier, error) {
	s, err := scanSupplier(r.db.QueryRow(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Supplier{}, ErrSupplierNotFound
		}
		return Supplier{}, err
	}
	return s, nil
}

func (r *repository) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	rows, err := r.db.Query(ctx, `SELECT `+supplierColumns+` FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repository) CreateSupplier(ctx context.Context, name, phone string) (Supplier, error) {
	return scanSupplier(r.db.QueryRow(ctx,
		`INSERT INTO suppliers (name, phone, balance) VALUES ($1,$2,0) RETURNING `+supplierColumns, name, phone))
}

func (r *repository) GetPurchase(ctx context.Context, id int64) (Purchase, error) {
	p, err := scanPurchase(r.db.QueryRow(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Purchase{}, ErrPurchaseNotFound
		}
		return Purchase{}, err
	}
	return p, nil
}

func (r *repository) ListPurchases(ctx context.Context, supplierID int64) ([]Purchase, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+purchaseColumns+` FROM purchases WHERE supplier_id=$1 ORDER BY date ASC, id ASC`, supplierID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListOpenPurchases returns every purchase still awaiting settlement, used
// for the aging summary.
func (r *repository) ListOpenPurchases(ctx context.Context) ([]Purchase, error) {
	rows, err := r.db.Query(ctx, `SELECT `+purchaseColumns+` FROM purchases
WHERE status IN ($1,$2) ORDER BY date ASC, id ASC`, PurchaseStatusUnpaid, PurchaseStatusPartial)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{TxRepository: postings.NewTxRepository(tx), tx: tx})
	})
}

type txRepository struct {
	postings.TxRepository
	tx pgx.Tx
}

func (r *txRepository) GetSupplierForUpdate(ctx context.Context, id int64) (Supplier, error) {
	s, err := scanSupplier(r.tx.QueryRow(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Supplier{}, ErrSupplierNotFound
		}
		return Supplier{}, err
	}
	return s, nil
}

func (r *txRepository) AdjustSupplierBalance(ctx context.Context, id int64, delta decimal.Decimal) error {
	cmd, err := r.tx.Exec(ctx,
		`UPDATE suppliers SET balance = balance + $2, updated_at = NOW() WHERE id=$1`, id, delta.StringFixed(2))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrSupplierNotFound
	}
	return nil
}

func (r *txRepository) InsertPurchase(ctx context.Context, in RecordPurchaseInput) (Purchase, error) {
	date := in.Date
	if date.IsZero() {
		date = time.Now()
	}
	return scanPurchase(r.tx.QueryRow(ctx,
		`INSERT INTO purchases (supplier_id, total_cost, paid_amount, status, date, note)
VALUES ($1,$2,0,$3,$4,$5) RETURNING `+purchaseColumns,
		in.SupplierID, in.TotalCost.StringFixed(2), PurchaseStatusUnpaid, date, in.Note))
}

// ListOutstandingPurchases locks the supplier's unpaid and partial purchases
// oldest-date-first for FIFO allocation.
func (r *txRepository) ListOutstandingPurchases(ctx context.Context, supplierID int64) ([]Purchase, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+purchaseColumns+` FROM purchases
WHERE supplier_id=$1 AND status IN ($2,$3) ORDER BY date ASC, id ASC FOR UPDATE`,
		supplierID, PurchaseStatusUnpaid, PurchaseStatusPartial)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *txRepository) UpdatePurchasePayment(ctx context.Context, id int64, paid decimal.Decimal, status PurchaseStatus) error {
	cmd, err := r.tx.Exec(ctx,
		`UPDATE purchases SET paid_amount=$2, status=$3, updated_at=NOW() WHERE id=$1`,
		id, paid.StringFixed(2), status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPurchaseNotFound
	}
	return nil
}
