package reports

import (
	"context"
	"time"
)

// Service serves read-only report views. It never mutates ledger state.
type Service struct {
	repo  Repository
	cache *Cache
}

func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Range scopes a report to a posting date window. Nil bounds are open.
type Range struct {
	From *time.Time
	To   *time.Time
}

func (r Range) keyParts() []string {
	parts := make([]string, 0, 2)
	if r.From != nil {
		parts = append(parts, r.From.UTC().Format(time.RFC3339))
	} else {
		parts = append(parts, "open")
	}
	if r.To != nil {
		parts = append(parts, r.To.UTC().Format(time.RFC3339))
	} else {
		parts = append(parts, "open")
	}
	return parts
}

// TrialBalance recomputes per-account debit/credit totals by walking the
// transaction log, independent of the live balance column.
func (s *Service) TrialBalance(ctx context.Context, rng Range) (TrialBalance, error) {
	key, err := s.cache.BuildKey(ctx, append([]string{"reports", "tb"}, rng.keyParts()...)...)
	if err != nil {
		return TrialBalance{}, err
	}
	var tb TrialBalance
	err = s.cache.FetchJSON(ctx, key, &tb, func(ctx context.Context) (interface{}, error) {
		activity, err := s.repo.AccountActivity(ctx, rng.From, rng.To)
		if err != nil {
			return nil, err
		}
		return BuildTrialBalance(activity), nil
	})
	return tb, err
}

// BalanceSheet reports assets, liabilities, equity, and net profit over the
// whole transaction log, verifying the accounting equation.
func (s *Service) BalanceSheet(ctx context.Context) (BalanceSheet, error) {
	key, err := s.cache.BuildKey(ctx, "reports", "bs")
	if err != nil {
		return BalanceSheet{}, err
	}
	var bs BalanceSheet
	err = s.cache.FetchJSON(ctx, key, &bs, func(ctx context.Context) (interface{}, error) {
		activity, err := s.repo.AccountActivity(ctx, nil, nil)
		if err != nil {
			return nil, err
		}
		return BuildBalanceSheet(activity), nil
	})
	return bs, err
}

// ProfitAndLoss reports income and expense totals within the range.
func (s *Service) ProfitAndLoss(ctx context.Context, rng Range) (ProfitAndLoss, error) {
	key, err := s.cache.BuildKey(ctx, append([]string{"reports", "pl"}, rng.keyParts()...)...)
	if err != nil {
		return ProfitAndLoss{}, err
	}
	var pl ProfitAndLoss
	err = s.cache.FetchJSON(ctx, key, &pl, func(ctx context.Context) (interface{}, error) {
		activity, err := s.repo.AccountActivity(ctx, rng.From, rng.To)
		if err != nil {
			return nil, err
		}
		return BuildProfitAndLoss(activity), nil
	})
	return pl, err
}

// Ledger renders the per-account statement with a running balance.
func (s *Service) Ledger(ctx context.Context, accountID int64, rng Range) (AccountLedger, error) {
	account, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return AccountLedger{}, err
	}
	debit, credit, err := s.repo.AccountOpening(ctx, accountID, rng.From)
	if err != nil {
		return AccountLedger{}, err
	}
	txs, err := s.repo.AccountTransactions(ctx, accountID, rng.From, rng.To)
	if err != nil {
		return AccountLedger{}, err
	}
	opening := AccountActivity{Type: account.Type, Debit: debit, Credit: credit}.Balance()
	return BuildAccountLedger(account, opening, txs), nil
}
