package ap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/forecourt-hq/forecourt/internal/ledger/postings"
	"github.com/forecourt-hq/forecourt/internal/ledger/roles"
	"github.com/forecourt-hq/forecourt/internal/ledger/shared"
	"github.com/forecourt-hq/forecourt/internal/notify"
	internalshared "github.com/forecourt-hq/forecourt/internal/shared"
)

// Service settles supplier debts: one accounting posting, the supplier
// balance decrement, and FIFO allocation across outstanding purchases, all
// inside a single unit of work.
// MeterPort counts the postings and settlements this service produces.
type MeterPort interface {
	postings.MeterPort
	RecordSettlement()
}

type Service struct {
	repo     Repository
	roles    *roles.Table
	notifier notify.Notifier
	audit    postings.AuditPort
	idem     postings.IdempotencyPort
	cache    postings.Invalidator
	meter    MeterPort
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, table *roles.Table, notifier notify.Notifier, audit postings.AuditPort, idem postings.IdempotencyPort, cache postings.Invalidator, meter MeterPort, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		roles:    table,
		notifier: notifier,
		audit:    audit,
		idem:     idem,
		cache:    cache,
		meter:    meter,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) GetSupplier(ctx context.Context, id int64) (Supplier, error) {
	return s.repo.GetSupplier(ctx, id)
}

func (s *Service) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}

func (s *Service) CreateSupplier(ctx context.Context, name, phone string) (Supplier, error) {
	if name == "" {
		return Supplier{}, errors.New("ap: supplier name required")
	}
	return s.repo.CreateSupplier(ctx, name, phone)
}

func (s *Service) GetPurchase(ctx context.Context, id int64) (Purchase, error) {
	return s.repo.GetPurchase(ctx, id)
}

func (s *Service) ListPurchases(ctx context.Context, supplierID int64) ([]Purchase, error) {
	return s.repo.ListPurchases(ctx, supplierID)
}

// RecordPurchase registers a supplier delivery: the purchase row, the
// supplier payable increment, and the inventory/AP posting commit together.
func (s *Service) RecordPurchase(ctx context.Context, input RecordPurchaseInput) (Purchase, error) {
	if !input.TotalCost.IsPositive() {
		return Purchase{}, shared.ErrInvalidAmount
	}
	inventoryCode, err := s.roles.Code(roles.FuelInventory)
	if err != nil {
		return Purchase{}, err
	}
	payableCode, err := s.roles.Code(roles.AccountsPayable)
	if err != nil {
		return Purchase{}, err
	}
	var purchase Purchase
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		supplier, err := tx.GetSupplierForUpdate(ctx, input.SupplierID)
		if err != nil {
			return err
		}
		purchase, err = tx.InsertPurchase(ctx, input)
		if err != nil {
			return err
		}
		if err := tx.AdjustSupplierBalance(ctx, supplier.ID, input.TotalCost); err != nil {
			return err
		}
		_, err = postings.ApplyWithin(ctx, tx, postings.PostingInput{
			DebitCode:   inventoryCode,
			CreditCode:  payableCode,
			Amount:      input.TotalCost,
			Description: fmt.Sprintf("Fuel purchase from %s", supplier.Name),
			SupplierID:  &supplier.ID,
		})
		return err
	})
	if err != nil {
		s.countPosting("error")
		return Purchase{}, err
	}
	s.countPosting("ok")
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalshared.AuditLog{
			Action:   "ap.purchase",
			Entity:   "purchase",
			EntityID: fmt.Sprintf("%d", purchase.ID),
			Meta: map[string]any{
				"supplier_id": input.SupplierID,
				"total_cost":  input.TotalCost.StringFixed(2),
			},
			At: s.now(),
		})
	}
	s.bump(ctx)
	return purchase, nil
}

// PaySupplier settles part of a supplier's payable. The payment must not
// exceed the aggregate balance; the allocation walks outstanding purchases
// oldest-date-first until the amount is spent.
func (s *Service) PaySupplier(ctx context.Context, input PaySupplierInput) (SettlementResult, error) {
	if !input.Amount.IsPositive() {
		return SettlementResult{}, shared.ErrInvalidAmount
	}
	payableCode, err := s.roles.Code(roles.AccountsPayable)
	if err != nil {
		return SettlementResult{}, err
	}
	claimedKey, err := s.claimKey(ctx, input.IdempotencyKey)
	if err != nil {
		return SettlementResult{}, err
	}

	var result SettlementResult
	var supplier Supplier
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		supplier, err = tx.GetSupplierForUpdate(ctx, input.SupplierID)
		if err != nil {
			return err
		}
		if input.Amount.GreaterThan(supplier.Balance) {
			return &shared.ExceedsOutstandingBalanceError{
				SupplierID:  supplier.ID,
				Outstanding: supplier.Balance,
				Requested:   input.Amount,
			}
		}
		settlementCode, err := s.resolveSettlementAccount(ctx, tx, input)
		if err != nil {
			return err
		}
		entry, err := postings.ApplyWithin(ctx, tx, postings.PostingInput{
			DebitCode:        payableCode,
			CreditCode:       settlementCode,
			Amount:           input.Amount,
			Description:      paymentDescription(supplier.Name, input.Note),
			SupplierID:       &supplier.ID,
			PaymentAccountID: input.PaymentAccountID,
		})
		if err != nil {
			return err
		}
		if err := tx.AdjustSupplierBalance(ctx, supplier.ID, input.Amount.Neg()); err != nil {
			return err
		}
		allocations, unallocated, err := allocateFIFO(ctx, tx, supplier.ID, input.Amount)
		if err != nil {
			return err
		}
		result = SettlementResult{
			Transaction: entry,
			SupplierID:  supplier.ID,
			Amount:      input.Amount,
			Allocations: allocations,
			Unallocated: unallocated,
		}
		return nil
	})
	if err != nil {
		s.countPosting("error")
		s.releaseKey(ctx, claimedKey)
		return SettlementResult{}, err
	}
	s.countPosting("ok")
	s.countSettlement()

	if result.Unallocated.IsPositive() && s.logger != nil {
		// Supplier balance and purchase totals disagree; surface the gap
		// for reconciliation rather than inventing an allocation target.
		s.logger.Warn("settlement remainder not allocated to any purchase",
			slog.Int64("supplier_id", result.SupplierID),
			slog.String("unallocated", result.Unallocated.StringFixed(2)))
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalshared.AuditLog{
			Action:   "ap.settle",
			Entity:   "transaction",
			EntityID: fmt.Sprintf("%d", result.Transaction.ID),
			Meta: map[string]any{
				"supplier_id": result.SupplierID,
				"amount":      result.Amount.StringFixed(2),
				"purchases":   len(result.Allocations),
			},
			At: s.now(),
		})
	}
	s.bump(ctx)
	s.notifyPayment(ctx, supplier, input)
	return result, nil
}

// Aging summarises outstanding purchase remainders by days overdue.
func (s *Service) Aging(ctx context.Context, asOf time.Time) (AgingBucket, error) {
	open, err := s.repo.ListOpenPurchases(ctx)
	if err != nil {
		return AgingBucket{}, err
	}
	bucket := AgingBucket{
		Current:   decimal.Zero,
		Bucket30:  decimal.Zero,
		Bucket60:  decimal.Zero,
		Bucket90:  decimal.Zero,
		Bucket120: decimal.Zero,
	}
	for _, p := range open {
		outstanding := p.Outstanding()
		if !outstanding.IsPositive() {
			continue
		}
		days := int(asOf.Sub(p.Date).Hours() / 24)
		switch {
		case days <= 0:
			bucket.Current = bucket.Current.Add(outstanding)
		case days <= 30:
			bucket.Bucket30 = bucket.Bucket30.Add(outstanding)
		case days <= 60:
			bucket.Bucket60 = bucket.Bucket60.Add(outstanding)
		case days <= 90:
			bucket.Bucket90 = bucket.Bucket90.Add(outstanding)
		default:
			bucket.Bucket120 = bucket.Bucket120.Add(outstanding)
		}
	}
	return bucket, nil
}

// allocateFIFO spends the payment across outstanding purchases oldest first.
// Any remainder is returned, not dropped.
func allocateFIFO(ctx context.Context, tx TxRepository, supplierID int64, amount decimal.Decimal) ([]PurchaseAllocation, decimal.Decimal, error) {
	outstanding, err := tx.ListOutstandingPurchases(ctx, supplierID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	remaining := amount
	var allocations []PurchaseAllocation
	for _, p := range outstanding {
		if !remaining.IsPositive() {
			break
		}
		needed := p.Outstanding()
		if !needed.IsPositive() {
			continue
		}
		applied := decimal.Min(remaining, needed)
		paid := p.PaidAmount.Add(applied)
		status := StatusFor(paid, p.TotalCost)
		if err := tx.UpdatePurchasePayment(ctx, p.ID, paid, status); err != nil {
			return nil, decimal.Zero, err
		}
		allocations = append(allocations, PurchaseAllocation{
			PurchaseID: p.ID,
			Amount:     applied,
			Status:     status,
		})
		remaining = remaining.Sub(applied)
	}
	return allocations, remaining, nil
}

func (s *Service) resolveSettlementAccount(ctx context.Context, tx TxRepository, input PaySupplierInput) (string, error) {
	if input.PaymentAccountID != nil {
		account, err := tx.GetAccountByID(ctx, *input.PaymentAccountID)
		if err != nil {
			return "", err
		}
		return account.Code, nil
	}
	role, err := roles.ForPaymentMethod(input.Method)
	if err != nil {
		return "", err
	}
	return s.roles.Code(role)
}

// notifyPayment emits the settlement event best-effort; a delivery failure
// never unwinds the committed settlement.
func (s *Service) notifyPayment(ctx context.Context, supplier Supplier, input PaySupplierInput) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.PaymentRecorded(ctx, notify.PaymentEvent{
		SupplierID:   supplier.ID,
		SupplierName: supplier.Name,
		Phone:        supplier.Phone,
		Amount:       input.Amount.StringFixed(2),
		Method:       input.Method,
		PaidAt:       s.now(),
	})
	if err != nil && s.logger != nil {
		s.logger.Error("payment notification failed",
			slog.Int64("supplier_id", supplier.ID),
			slog.Any("error", err))
	}
}

func (s *Service) claimKey(ctx context.Context, key string) (string, error) {
	if key == "" || s.idem == nil {
		return "", nil
	}
	if err := s.idem.CheckAndInsert(ctx, key, "ap.settle"); err != nil {
		if errors.Is(err, internalshared.ErrIdempotencyConflict) {
			return "", shared.ErrDuplicatePosting
		}
		return "", err
	}
	return key, nil
}

func (s *Service) releaseKey(ctx context.Context, key string) {
	if key == "" || s.idem == nil {
		return
	}
	_ = s.idem.Delete(ctx, key)
}

func (s *Service) bump(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Bump(ctx)
	}
}

func (s *Service) countPosting(outcome string) {
	if s.meter != nil {
		s.meter.RecordPosting(outcome)
	}
}

func (s *Service) countSettlement() {
	if s.meter != nil {
		s.meter.RecordSettlement()
	}
}

func paymentDescription(supplierName, note string) string {
	if note != "" {
		return fmt.Sprintf("Supplier payment - %s (%s)", supplierName, note)
	}
	return fmt.Sprintf("Supplier payment - %s", supplierName)
}
