package accounts

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/forecourt-hq/forecourt/internal/ledger/shared"
)

// Category accounts live in a reserved x9000-x9999 band so generated codes
// never collide with the seeded chart.
const (
	categoryBand     = 9000
	categoryBandSize = 1000
	categoryProbes   = 32
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByCode(ctx context.Context, code string) (Account, error) {
	return s.repo.GetByCode(ctx, code)
}

func (s *Service) GetByID(ctx context.Context, id int64) (Account, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx)
}

func (s *Service) Create(ctx context.Context, code, name string, accountType AccountType, opening decimal.Decimal) (Account, error) {
	if err := ValidateCode(code, accountType); err != nil {
		return Account{}, err
	}
	if strings.TrimSpace(name) == "" {
		return Account{}, errors.New("ledger: account name required")
	}
	return s.repo.Create(ctx, code, name, accountType, opening)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// GetOrCreateCategoryAccount resolves the account backing an expense or
// income category, creating it on first use. The code is derived from the
// category name, so concurrent first uses race toward the same code and the
// unique constraint, not toward a stale row count.
func (s *Service) GetOrCreateCategoryAccount(ctx context.Context, name string, accountType AccountType) (Account, error) {
	if accountType != AccountTypeExpense && accountType != AccountTypeIncome {
		return Account{}, fmt.Errorf("ledger: category accounts must be income or expense, got %s", accountType)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Account{}, errors.New("ledger: category name required")
	}
	if existing, err := s.repo.GetByName(ctx, accountType, name); err == nil {
		return existing, nil
	} else if !errors.Is(err, shared.ErrUnknownAccount) {
		return Account{}, err
	}

	base := categoryOffset(name)
	for probe := 0; probe < categoryProbes; probe++ {
		code := categoryCode(accountType, (base+probe)%categoryBandSize)
		created, err := s.repo.Create(ctx, code, name, accountType, decimal.Zero)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, shared.ErrDuplicateCode) {
			return Account{}, err
		}
		// Either a hash collision with another category or a concurrent
		// creation of this one. Re-check by name before probing onward.
		if existing, nameErr := s.repo.GetByName(ctx, accountType, name); nameErr == nil {
			return existing, nil
		}
	}
	return Account{}, fmt.Errorf("ledger: category code band exhausted for %q", name)
}

func categoryOffset(name string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(name)))
	return int(h.Sum32() % categoryBandSize)
}

func categoryCode(accountType AccountType, offset int) string {
	return fmt.Sprintf("%c%04d", digitForType[accountType], categoryBand+offset)
}
