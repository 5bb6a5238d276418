package ap

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/forecourt-hq/forecourt/internal/ledger/postings"
)

// PurchaseStatus enumerates settlement states of a supplier purchase.
type PurchaseStatus string

const (
	PurchaseStatusUnpaid  PurchaseStatus = "UNPAID"
	PurchaseStatusPartial PurchaseStatus = "PARTIAL"
	PurchaseStatusPaid    PurchaseStatus = "PAID"
)

// StatusFor derives the purchase status from its paid and total amounts.
// Status is never stored independently of this rule.
func StatusFor(paid, total decimal.Decimal) PurchaseStatus {
	switch {
	case paid.GreaterThanOrEqual(total):
		return PurchaseStatusPaid
	case paid.IsPositive():
		return PurchaseStatusPartial
	default:
		return PurchaseStatusUnpaid
	}
}

// Supplier is the counterpart entity for purchases. Balance is the aggregate
// payable, kept in lockstep with purchase remainders.
type Supplier struct {
	ID        int64
	Name      string
	Phone     string
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Purchase is a supplier delivery awaiting settlement.
type Purchase struct {
	ID         int64
	SupplierID int64
	TotalCost  decimal.Decimal
	PaidAmount decimal.Decimal
	Status     PurchaseStatus
	Date       time.Time
	Note       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Outstanding returns the unpaid remainder.
func (p Purchase) Outstanding() decimal.Decimal {
	return p.TotalCost.Sub(p.PaidAmount)
}

// PurchaseAllocation records how much of a payment landed on one purchase.
type PurchaseAllocation struct {
	PurchaseID int64
	Amount     decimal.Decimal
	Status     PurchaseStatus
}

// SettlementResult describes a completed supplier payment.
type SettlementResult struct {
	Transaction postings.Transaction
	SupplierID  int64
	Amount      decimal.Decimal
	Allocations []PurchaseAllocation
	// Unallocated is any remainder left after exhausting outstanding
	// purchases. A non-zero value means supplier balance bookkeeping has
	// drifted from purchase totals; the service logs it for
	// reconciliation instead of swallowing it.
	Unallocated decimal.Decimal
}

// PaySupplierInput wraps parameters for a supplier settlement.
type PaySupplierInput struct {
	SupplierID       int64
	Amount           decimal.Decimal
	PaymentAccountID *int64
	Method           string
	Note             string
	IdempotencyKey   string
}

// RecordPurchaseInput wraps parameters for recording a delivery.
type RecordPurchaseInput struct {
	SupplierID int64
	TotalCost  decimal.Decimal
	Date       time.Time
	Note       string
}

// AgingBucket summarises outstanding purchase remainders by age.
type AgingBucket struct {
	Current   decimal.Decimal
	Bucket30  decimal.Decimal
	Bucket60  decimal.Decimal
	Bucket90  decimal.Decimal
	Bucket120 decimal.Decimal
}
