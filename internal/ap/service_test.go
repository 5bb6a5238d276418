package ap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/forecourt-hq/forecourt/internal/ledger/accounts"
	"github.com/forecourt-hq/forecourt/internal/ledger/postings"
	"github.com/forecourt-hq/forecourt/internal/ledger/roles"
	"github.com/forecourt-hq/forecourt/internal/ledger/shared"
	"github.com/forecourt-hq/forecourt/internal/notify"
)

type apStore struct {
	accounts     map[int64]accounts.Account
	codes        map[string]int64
	txs          map[int64]postings.Transaction
	suppliers    map[int64]Supplier
	purchases    map[int64]Purchase
	nextAccount  int64
	nextTx       int64
	nextSupplier int64
	nextPurchase int64
}

func (s *apStore) clone() *apStore {
	out := &apStore{
		accounts:     make(map[int64]accounts.Account, len(s.accounts)),
		codes:        make(map[string]int64, len(s.codes)),
		txs:          make(map[int64]postings.Transaction, len(s.txs)),
		suppliers:    make(map[int64]Supplier, len(s.suppliers)),
		purchases:    make(map[int64]Purchase, len(s.purchases)),
		nextAccount:  s.nextAccount,
		nextTx:       s.nextTx,
		nextSupplier: s.nextSupplier,
		nextPurchase: s.nextPurchase,
	}
	for k, v := range s.accounts {
		out.accounts[k] = v
	}
	for k, v := range s.codes {
		out.codes[k] = v
	}
	for k, v := range s.txs {
		out.txs[k] = v
	}
	for k, v := range s.suppliers {
		out.suppliers[k] = v
	}
	for k, v := range s.purchases {
		out.purchases[k] = v
	}
	return out
}

type apRepo struct {
	mu    sync.Mutex
	store *apStore
}

func newAPRepo() *apRepo {
	return &apRepo{store: &apStore{
		accounts:  map[int64]accounts.Account{},
		codes:     map[string]int64{},
		txs:       map[int64]postings.Transaction{},
		suppliers: map[int64]Supplier{},
		purchases: map[int64]Purchase{},
	}}
}

func (r *apRepo) addAccount(code, name string, t accounts.AccountType) accounts.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store.nextAccount++
	a := accounts.Account{ID: r.store.nextAccount, Code: code, Name: name, Type: t, Balance: decimal.Zero}
	r.store.accounts[a.ID] = a
	r.store.codes[code] = a.ID
	return a
}

func (r *apRepo) balance(code string) decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.accounts[r.store.codes[code]].Balance
}

func (r *apRepo) GetSupplier(ctx context.Context, id int64) (Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.store.suppliers[id]
	if !ok {
		return Supplier{}, ErrSupplierNotFound
	}
	return s, nil
}

func (r *apRepo) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Supplier, 0, len(r.store.suppliers))
	for _, s := range r.store.suppliers {
		out = append(out, s)
	}
	return out, nil
}

func (r *apRepo) CreateSupplier(ctx context.Context, name, phone string) (Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store.nextSupplier++
	s := Supplier{ID: r.store.nextSupplier, Name: name, Phone: phone, Balance: decimal.Zero}
	r.store.suppliers[s.ID] = s
	return s, nil
}

func (r *apRepo) GetPurchase(ctx context.Context, id int64) (Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.store.purchases[id]
	if !ok {
		return Purchase{}, ErrPurchaseNotFound
	}
	return p, nil
}

func (r *apRepo) ListPurchases(ctx context.Context, supplierID int64) ([]Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Purchase
	for _, p := range r.store.purchases {
		if p.SupplierID == supplierID {
			out = append(out, p)
		}
	}
	sortPurchases(out)
	return out, nil
}

func (r *apRepo) ListOpenPurchases(ctx context.Context) ([]Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Purchase
	for _, p := range r.store.purchases {
		if p.Status != PurchaseStatusPaid {
			out = append(out, p)
		}
	}
	sortPurchases(out)
	return out, nil
}

func (r *apRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	work := r.store.clone()
	if err := fn(ctx, &apTx{store: work}); err != nil {
		return err
	}
	r.store = work
	return nil
}

func sortPurchases(ps []Purchase) {
	sort.Slice(ps, func(i, j int) bool {
		if !ps[i].Date.Equal(ps[j].Date) {
			return ps[i].Date.Before(ps[j].Date)
		}
		return ps[i].ID < ps[j].ID
	})
}

type apTx struct {
	store *apStore
}

func (t *apTx) GetAccountByCode(ctx context.Context, code string) (accounts.Account, error) {
	id, ok := t.store.codes[code]
	if !ok {
		return accounts.Account{}, &shared.UnknownAccountError{Code: code}
	}
	return t.store.accounts[id], nil
}

func (t *apTx) GetAccountByID(ctx context.Context, id int64) (accounts.Account, error) {
	a, ok := t.store.accounts[id]
	if !ok {
		return accounts.Account{}, &shared.UnknownAccountError{ID: id}
	}
	return a, nil
}

func (t *apTx) InsertTransaction(ctx context.Context, in postings.PostingInput, debitID, creditID int64) (postings.Transaction, error) {
	t.store.nextTx++
	entry := postings.Transaction{
		ID:               t.store.nextTx,
		Ref:              in.Ref,
		DebitAccountID:   debitID,
		CreditAccountID:  creditID,
		Amount:           in.Amount,
		Description:      in.Description,
		SupplierID:       in.SupplierID,
		PaymentAccountID: in.PaymentAccountID,
		CreatedAt:        time.Now(),
	}
	t.store.txs[entry.ID] = entry
	return entry, nil
}

func (t *apTx) AdjustAccountBalance(ctx context.Context, accountID int64, delta decimal.Decimal) error {
	a, ok := t.store.accounts[accountID]
	if !ok {
		return &shared.UnknownAccountError{ID: accountID}
	}
	a.Balance = a.Balance.Add(delta)
	t.store.accounts[accountID] = a
	return nil
}

func (t *apTx) GetTransactionForUpdate(ctx context.Context, id int64) (postings.Transaction, error) {
	entry, ok := t.store.txs[id]
	if !ok {
		return postings.Transaction{}, shared.ErrTransactionNotFound
	}
	return entry, nil
}

func (t *apTx) DeleteTransaction(ctx context.Context, id int64) error {
	if _, ok := t.store.txs[id]; !ok {
		return shared.ErrTransactionNotFound
	}
	delete(t.store.txs, id)
	return nil
}

func (t *apTx) GetSupplierForUpdate(ctx context.Context, id int64) (Supplier, error) {
	s, ok := t.store.suppliers[id]
	if !ok {
		return Supplier{}, ErrSupplierNotFound
	}
	return s, nil
}

func (t *apTx) AdjustSupplierBalance(ctx context.Context, id int64, delta decimal.Decimal) error {
	s, ok := t.store.suppliers[id]
	if !ok {
		return ErrSupplierNotFound
	}
	s.Balance = s.Balance.Add(delta)
	t.store.suppliers[id] = s
	return nil
}

func (t *apTx) InsertPurchase(ctx context.Context, in RecordPurchaseInput) (Purchase, error) {
	t.store.nextPurchase++
	p := Purchase{
		ID:         t.store.nextPurchase,
		SupplierID: in.SupplierID,
		TotalCost:  in.TotalCost,
		PaidAmount: decimal.Zero,
		Status:     PurchaseStatusUnpaid,
		Date:       in.Date,
		Note:       in.Note,
	}
	t.store.purchases[p.ID] = p
	return p, nil
}

func (t *apTx) ListOutstandingPurchases(ctx context.Context, supplierID int64) ([]Purchase, error) {
	var out []Purchase
	for _, p := range t.store.purchases {
		if p.SupplierID == supplierID && p.Status != PurchaseStatusPaid {
			out = append(out, p)
		}
	}
	sortPurchases(out)
	return out, nil
}

func (t *apTx) UpdatePurchasePayment(ctx context.Context, id int64, paid decimal.Decimal, status PurchaseStatus) error {
	p, ok := t.store.purchases[id]
	if !ok {
		return ErrPurchaseNotFound
	}
	p.PaidAmount = paid
	p.Status = status
	t.store.purchases[id] = p
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.PaymentEvent
	err    error
}

func (n *recordingNotifier) PaymentRecorded(ctx context.Context, evt notify.PaymentEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.events = append(n.events, evt)
	return nil
}

func newAPService(t *testing.T, repo *apRepo, notifier notify.Notifier) *Service {
	t.Helper()
	repo.addAccount("10101", "Cash", accounts.AccountTypeAsset)
	repo.addAccount("10201", "Bank", accounts.AccountTypeAsset)
	repo.addAccount("10401", "Fuel Inventory", accounts.AccountTypeAsset)
	repo.addAccount("20101", "Accounts Payable", accounts.AccountTypeLiability)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, roles.Defaults(), notifier, nil, nil, nil, nil, logger)
}

func day(s string) time.Time {
	parsed, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return parsed
}

func TestRecordPurchase(t *testing.T) {
	repo := newAPRepo()
	svc := newAPService(t, repo, nil)
	ctx := context.Background()

	supplier, err := svc.CreateSupplier(ctx, "Pertamina Depot", "+6281100")
	require.NoError(t, err)

	purchase, err := svc.RecordPurchase(ctx, RecordPurchaseInput{
		SupplierID: supplier.ID,
		TotalCost:  decimal.RequireFromString("500.00"),
		Date:       day("2026-08-01"),
	})
	require.NoError(t, err)
	require.Equal(t, PurchaseStatusUnpaid, purchase.Status)

	got, err := svc.GetSupplier(ctx, supplier.ID)
	require.NoError(t, err)
	require.True(t, got.Balance.Equal(decimal.RequireFromString("500.00")))

	// Inventory debited, payable credited.
	require.True(t, repo.balance("10401").Equal(decimal.RequireFromString("500.00")))
	require.True(t, repo.balance("20101").Equal(decimal.RequireFromString("500.00")))

	_, err = svc.RecordPurchase(ctx, RecordPurchaseInput{SupplierID: supplier.ID, TotalCost: decimal.Zero})
	require.ErrorIs(t, err, shared.ErrInvalidAmount)

	_, err = svc.RecordPurchase(ctx, RecordPurchaseInput{SupplierID: 999, TotalCost: decimal.NewFromInt(10)})
	require.ErrorIs(t, err, ErrSupplierNotFound)
}

func TestPaySupplierAllocatesFIFO(t *testing.T) {
	repo := newAPRepo()
	notifier := &recordingNotifier{}
	svc := newAPService(t, repo, notifier)
	ctx := context.Background()

	supplier, err := svc.CreateSupplier(ctx, "Depot", "+6281100")
	require.NoError(t, err)
	for _, p := range []struct {
		total string
		date  string
	}{
		{"100.00", "2026-01-10"},
		{"200.00", "2026-02-10"},
		{"150.00", "2026-03-10"},
	} {
		_, err := svc.RecordPurchase(ctx, RecordPurchaseInput{
			SupplierID: supplier.ID,
			TotalCost:  decimal.RequireFromString(p.total),
			Date:       day(p.date),
		})
		require.NoError(t, err)
	}

	result, err := svc.PaySupplier(ctx, PaySupplierInput{
		SupplierID: supplier.ID,
		Amount:     decimal.RequireFromString("250.00"),
		Method:     "CASH",
	})
	require.NoError(t, err)
	require.True(t, result.Unallocated.IsZero())
	require.Len(t, result.Allocations, 2)

	// Conservation: every cent of the payment lands on a purchase or the
	// unallocated remainder.
	allocated := decimal.Zero
	for _, a := range result.Allocations {
		allocated = allocated.Add(a.Amount)
	}
	require.True(t, allocated.Add(result.Unallocated).Equal(result.Amount))

	// Oldest purchase absorbed fully, second partially.
	require.True(t, result.Allocations[0].Amount.Equal(decimal.RequireFromString("100.00")))
	require.Equal(t, PurchaseStatusPaid, result.Allocations[0].Status)
	require.True(t, result.Allocations[1].Amount.Equal(decimal.RequireFromString("150.00")))
	require.Equal(t, PurchaseStatusPartial, result.Allocations[1].Status)

	got, err := svc.GetSupplier(ctx, supplier.ID)
	require.NoError(t, err)
	require.True(t, got.Balance.Equal(decimal.RequireFromString("200.00")))

	// Payable debited back down, cash credited away.
	require.True(t, repo.balance("20101").Equal(decimal.RequireFromString("200.00")))
	require.True(t, repo.balance("10101").Equal(decimal.RequireFromString("-250.00")))

	require.Len(t, notifier.events, 1)
	require.Equal(t, "250.00", notifier.events[0].Amount)

	purchases, err := svc.ListPurchases(ctx, supplier.ID)
	require.NoError(t, err)
	require.Equal(t, PurchaseStatusPaid, purchases[0].Status)
	require.Equal(t, PurchaseStatusPartial, purchases[1].Status)
	require.Equal(t, PurchaseStatusUnpaid, purchases[2].Status)
}

func TestPaySupplierRejectsOverpayment(t *testing.T) {
	repo := newAPRepo()
	svc := newAPService(t, repo, nil)
	ctx := context.Background()

	supplier, err := svc.CreateSupplier(ctx, "Depot", "")
	require.NoError(t, err)
	_, err = svc.RecordPurchase(ctx, RecordPurchaseInput{
		SupplierID: supplier.ID,
		TotalCost:  decimal.RequireFromString("300.00"),
		Date:       day("2026-05-01"),
	})
	require.NoError(t, err)

	_, err = svc.PaySupplier(ctx, PaySupplierInput{
		SupplierID: supplier.ID,
		Amount:     decimal.RequireFromString("300.01"),
		Method:     "CASH",
	})
	var exceeds *shared.ExceedsOutstandingBalanceError
	require.ErrorAs(t, err, &exceeds)
	require.True(t, exceeds.Outstanding.Equal(decimal.RequireFromString("300.00")))

	// Nothing moved.
	got, err := svc.GetSupplier(ctx, supplier.ID)
	require.NoError(t, err)
	require.True(t, got.Balance.Equal(decimal.RequireFromString("300.00")))
	require.True(t, repo.balance("10101").IsZero())
}

func TestPaySupplierInputValidation(t *testing.T) {
	repo := newAPRepo()
	svc := newAPService(t, repo, nil)
	ctx := context.Background()

	supplier, err := svc.CreateSupplier(ctx, "Depot", "")
	require.NoError(t, err)
	_, err = svc.RecordPurchase(ctx, RecordPurchaseInput{
		SupplierID: supplier.ID,
		TotalCost:  decimal.NewFromInt(100),
		Date:       day("2026-05-01"),
	})
	require.NoError(t, err)

	_, err = svc.PaySupplier(ctx, PaySupplierInput{SupplierID: supplier.ID, Amount: decimal.Zero, Method: "CASH"})
	require.ErrorIs(t, err, shared.ErrInvalidAmount)

	_, err = svc.PaySupplier(ctx, PaySupplierInput{SupplierID: supplier.ID, Amount: decimal.NewFromInt(10), Method: "BARTER"})
	require.Error(t, err)

	_, err = svc.PaySupplier(ctx, PaySupplierInput{SupplierID: 404, Amount: decimal.NewFromInt(10), Method: "CASH"})
	require.ErrorIs(t, err, ErrSupplierNotFound)
}

func TestPaySupplierExplicitPaymentAccount(t *testing.T) {
	repo := newAPRepo()
	svc := newAPService(t, repo, nil)
	ctx := context.Background()

	supplier, err := svc.CreateSupplier(ctx, "Depot", "")
	require.NoError(t, err)
	_, err = svc.RecordPurchase(ctx, RecordPurchaseInput{
		SupplierID: supplier.ID,
		TotalCost:  decimal.NewFromInt(100),
		Date:       day("2026-06-01"),
	})
	require.NoError(t, err)

	bankID := repo.store.codes["10201"]
	_, err = svc.PaySupplier(ctx, PaySupplierInput{
		SupplierID:       supplier.ID,
		Amount:           decimal.NewFromInt(60),
		Method:           "CASH",
		PaymentAccountID: &bankID,
	})
	require.NoError(t, err)

	// The explicit account wins over the method's default role.
	require.True(t, repo.balance("10201").Equal(decimal.NewFromInt(-60)))
	require.True(t, repo.balance("10101").IsZero())
}

func TestPaySupplierNotifierFailureDoesNotUnwind(t *testing.T) {
	repo := newAPRepo()
	notifier := &recordingNotifier{err: errors.New("gateway down")}
	svc := newAPService(t, repo, notifier)
	ctx := context.Background()

	supplier, err := svc.CreateSupplier(ctx, "Depot", "+62811")
	require.NoError(t, err)
	_, err = svc.RecordPurchase(ctx, RecordPurchaseInput{
		SupplierID: supplier.ID,
		TotalCost:  decimal.NewFromInt(100),
		Date:       day("2026-06-01"),
	})
	require.NoError(t, err)

	result, err := svc.PaySupplier(ctx, PaySupplierInput{
		SupplierID: supplier.ID,
		Amount:     decimal.NewFromInt(100),
		Method:     "TRANSFER",
	})
	require.NoError(t, err)
	require.Len(t, result.Allocations, 1)

	got, err := svc.GetSupplier(ctx, supplier.ID)
	require.NoError(t, err)
	require.True(t, got.Balance.IsZero())
}

func TestPaySupplierReportsUnallocatedRemainder(t *testing.T) {
	repo := newAPRepo()
	svc := newAPService(t, repo, nil)
	ctx := context.Background()

	supplier, err := svc.CreateSupplier(ctx, "Depot", "")
	require.NoError(t, err)
	_, err = svc.RecordPurchase(ctx, RecordPurchaseInput{
		SupplierID: supplier.ID,
		TotalCost:  decimal.NewFromInt(100),
		Date:       day("2026-06-01"),
	})
	require.NoError(t, err)

	// Drift the aggregate balance above the purchase remainders, as an
	// untracked legacy debt would.
	require.NoError(t, repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.AdjustSupplierBalance(ctx, supplier.ID, decimal.NewFromInt(40))
	}))

	result, err := svc.PaySupplier(ctx, PaySupplierInput{
		SupplierID: supplier.ID,
		Amount:     decimal.NewFromInt(140),
		Method:     "CASH",
	})
	require.NoError(t, err)
	require.True(t, result.Unallocated.Equal(decimal.NewFromInt(40)))
	require.Len(t, result.Allocations, 1)
	require.True(t, result.Allocations[0].Amount.Add(result.Unallocated).Equal(result.Amount))
}

func TestAgingBuckets(t *testing.T) {
	repo := newAPRepo()
	svc := newAPService(t, repo, nil)
	ctx := context.Background()

	supplier, err := svc.CreateSupplier(ctx, "Depot", "")
	require.NoError(t, err)
	for _, p := range []struct {
		total string
		date  string
	}{
		{"10.00", "2026-08-29"}, // current
		{"20.00", "2026-08-10"}, // 1-30
		{"30.00", "2026-07-10"}, // 31-60
		{"40.00", "2026-06-10"}, // 61-90
		{"50.00", "2026-03-01"}, // over 90
	} {
		_, err := svc.RecordPurchase(ctx, RecordPurchaseInput{
			SupplierID: supplier.ID,
			TotalCost:  decimal.RequireFromString(p.total),
			Date:       day(p.date),
		})
		require.NoError(t, err)
	}

	bucket, err := svc.Aging(ctx, day("2026-08-29"))
	require.NoError(t, err)
	require.True(t, bucket.Current.Equal(decimal.RequireFromString("10.00")))
	require.True(t, bucket.Bucket30.Equal(decimal.RequireFromString("20.00")))
	require.True(t, bucket.Bucket60.Equal(decimal.RequireFromString("30.00")))
	require.True(t, bucket.Bucket90.Equal(decimal.RequireFromString("40.00")))
	require.True(t, bucket.Bucket120.Equal(decimal.RequireFromString("50.00")))
}

func TestStatusFor(t *testing.T) {
	require.Equal(t, PurchaseStatusUnpaid, StatusFor(decimal.Zero, decimal.NewFromInt(10)))
	require.Equal(t, PurchaseStatusPartial, StatusFor(decimal.NewFromInt(4), decimal.NewFromInt(10)))
	require.Equal(t, PurchaseStatusPaid, StatusFor(decimal.NewFromInt(10), decimal.NewFromInt(10)))
}

type recordingMeter struct {
	postings    []string
	settlements int
}

func (m *recordingMeter) RecordPosting(outcome string) { m.postings = append(m.postings, outcome) }
func (m *recordingMeter) RecordSettlement()            { m.settlements++ }

func TestPurchasesAndSettlementsCountMetrics(t *testing.T) {
	repo := newAPRepo()
	repo.addAccount("10101", "Cash", accounts.AccountTypeAsset)
	repo.addAccount("10401", "Fuel Inventory", accounts.AccountTypeAsset)
	repo.addAccount("20101", "Accounts Payable", accounts.AccountTypeLiability)
	meter := &recordingMeter{}
	svc := NewService(repo, roles.Defaults(), nil, nil, nil, nil, meter, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	supplier, err := svc.CreateSupplier(ctx, "Depot", "")
	require.NoError(t, err)

	_, err = svc.RecordPurchase(ctx, RecordPurchaseInput{
		SupplierID: supplier.ID,
		TotalCost:  decimal.NewFromInt(300),
		Date:       day("2026-08-01"),
	})
	require.NoError(t, err)
	require.Equal(t, []string{"ok"}, meter.postings)
	require.Zero(t, meter.settlements)

	_, err = svc.PaySupplier(ctx, PaySupplierInput{
		SupplierID: supplier.ID,
		Amount:     decimal.NewFromInt(200),
		Method:     "CASH",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"ok", "ok"}, meter.postings)
	require.Equal(t, 1, meter.settlements)

	// A rejected overpayment is a failed posting attempt, not a settlement.
	_, err = svc.PaySupplier(ctx, PaySupplierInput{
		SupplierID: supplier.ID,
		Amount:     decimal.NewFromInt(999),
		Method:     "CASH",
	})
	require.Error(t, err)
	require.Equal(t, []string{"ok", "ok", "error"}, meter.postings)
	require.Equal(t, 1, meter.settlements)
}

func TestGetPurchase(t *testing.T) {
	repo := newAPRepo()
	svc := newAPService(t, repo, nil)
	ctx := context.Background()

	supplier, err := svc.CreateSupplier(ctx, "Depot", "")
	require.NoError(t, err)
	created, err := svc.RecordPurchase(ctx, RecordPurchaseInput{
		SupplierID: supplier.ID,
		TotalCost:  decimal.NewFromInt(75),
		Date:       day("2026-08-10"),
	})
	require.NoError(t, err)

	got, err := svc.GetPurchase(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
	require.True(t, got.TotalCost.Equal(decimal.NewFromInt(75)))

	_, err = svc.GetPurchase(ctx, 9999)
	require.ErrorIs(t, err, ErrPurchaseNotFound)
}
