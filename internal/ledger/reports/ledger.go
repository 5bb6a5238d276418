package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/forecourt-hq/forecourt/internal/ledger/accounts"
	"github.com/forecourt-hq/forecourt/internal/ledger/postings"
	"github.com/forecourt-hq/forecourt/internal/ledger/rules"
)

// LedgerEntry is one transaction viewed from a single account's side, with
// the running balance after applying it.
type LedgerEntry struct {
	TransactionID int64
	Date          time.Time
	Description   string
	Debit         decimal.Decimal
	Credit        decimal.Decimal
	Running       decimal.Decimal
}

// AccountLedger is the per-account statement view.
type AccountLedger struct {
	Account accounts.Account
	Opening decimal.Decimal
	Closing decimal.Decimal
	Entries []LedgerEntry
}

// BuildAccountLedger walks the account's transactions chronologically,
// applying the type's sign rule incrementally. Opening is the balance
// carried into the requested range.
func BuildAccountLedger(account accounts.Account, opening decimal.Decimal, txs []postings.Transaction) AccountLedger {
	ledger := AccountLedger{Account: account, Opening: opening}
	running := opening
	for _, t := range txs {
		entry := LedgerEntry{
			TransactionID: t.ID,
			Date:          t.CreatedAt,
			Description:   t.Description,
			Debit:         decimal.Zero,
			Credit:        decimal.Zero,
		}
		if t.DebitAccountID == account.ID {
			entry.Debit = t.Amount
			running = running.Add(rules.DebitDelta(account.Type, t.Amount))
		} else {
			entry.Credit = t.Amount
			running = running.Add(rules.CreditDelta(account.Type, t.Amount))
		}
		entry.Running = running
		ledger.Entries = append(ledger.Entries, entry)
	}
	ledger.Closing = running
	return ledger
}
