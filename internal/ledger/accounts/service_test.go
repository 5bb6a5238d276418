package accounts

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/forecourt-hq/forecourt/internal/ledger/shared"
)

type fakeRepo struct {
	byCode map[string]Account
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byCode: map[string]Account{}}
}

func (f *fakeRepo) GetByCode(ctx context.Context, code string) (Account, error) {
	a, ok := f.byCode[code]
	if !ok {
		return Account{}, &shared.UnknownAccountError{Code: code}
	}
	return a, nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id int64) (Account, error) {
	for _, a := range f.byCode {
		if a.ID == id {
			return a, nil
		}
	}
	return Account{}, &shared.UnknownAccountError{ID: id}
}

func (f *fakeRepo) GetByName(ctx context.Context, accountType AccountType, name string) (Account, error) {
	for _, a := range f.byCode {
		if a.Type == accountType && a.Name == name {
			return a, nil
		}
	}
	return Account{}, shared.ErrUnknownAccount
}

func (f *fakeRepo) List(ctx context.Context) ([]Account, error) {
	out := make([]Account, 0, len(f.byCode))
	for _, a := range f.byCode {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeRepo) Create(ctx context.Context, code, name string, accountType AccountType, opening decimal.Decimal) (Account, error) {
	if _, exists := f.byCode[code]; exists {
		return Account{}, shared.ErrDuplicateCode
	}
	f.nextID++
	a := Account{ID: f.nextID, Code: code, Name: name, Type: accountType, Balance: opening}
	f.byCode[code] = a
	return a, nil
}

func (f *fakeRepo) Delete(ctx context.Context, id int64) error {
	for code, a := range f.byCode {
		if a.ID == id {
			delete(f.byCode, code)
			return nil
		}
	}
	return &shared.UnknownAccountError{ID: id}
}

func TestTypeForCode(t *testing.T) {
	cases := map[string]AccountType{
		"10101": AccountTypeAsset,
		"20101": AccountTypeLiability,
		"30101": AccountTypeEquity,
		"40101": AccountTypeIncome,
		"50301": AccountTypeExpense,
	}
	for code, want := range cases {
		got, err := TypeForCode(code)
		require.NoError(t, err, code)
		require.Equal(t, want, got)
	}

	for _, code := range []string{"", "101", "101010", "60101", "1a101", "90101"} {
		_, err := TypeForCode(code)
		require.ErrorIs(t, err, shared.ErrInvalidCode, code)
	}
}

func TestCreateValidatesCodeAndName(t *testing.T) {
	svc := NewService(newFakeRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, "10101", "Cash", AccountTypeAsset, decimal.Zero)
	require.NoError(t, err)

	_, err = svc.Create(ctx, "10102", "  ", AccountTypeAsset, decimal.Zero)
	require.Error(t, err)

	// Type prefix disagrees with the declared type.
	_, err = svc.Create(ctx, "20101", "Backwards", AccountTypeAsset, decimal.Zero)
	require.ErrorIs(t, err, shared.ErrInvalidCode)

	_, err = svc.Create(ctx, "10101", "Cash Again", AccountTypeAsset, decimal.Zero)
	require.ErrorIs(t, err, shared.ErrDuplicateCode)
}

func TestGetOrCreateCategoryAccount(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	first, err := svc.GetOrCreateCategoryAccount(ctx, "Electricity", AccountTypeExpense)
	require.NoError(t, err)
	require.Equal(t, AccountTypeExpense, first.Type)
	require.True(t, strings.HasPrefix(first.Code, "59"), "expense categories live in the 59xxx band, got %s", first.Code)

	again, err := svc.GetOrCreateCategoryAccount(ctx, "Electricity", AccountTypeExpense)
	require.NoError(t, err)
	require.Equal(t, first.ID, again.ID)
	require.Len(t, repo.byCode, 1)
}

func TestGetOrCreateCategoryAccountProbesOnCollision(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	// Occupy the name's hashed slot with a different category, forcing the
	// probe loop to the next offset.
	base := categoryOffset("Car Wash")
	taken := categoryCode(AccountTypeIncome, base)
	_, err := repo.Create(ctx, taken, "Occupied", AccountTypeIncome, decimal.Zero)
	require.NoError(t, err)

	created, err := svc.GetOrCreateCategoryAccount(ctx, "Car Wash", AccountTypeIncome)
	require.NoError(t, err)
	require.NotEqual(t, taken, created.Code)
	require.Equal(t, "Car Wash", created.Name)
}

func TestGetOrCreateCategoryAccountRejectsBalanceTypes(t *testing.T) {
	svc := NewService(newFakeRepo())
	_, err := svc.GetOrCreateCategoryAccount(context.Background(), "Vault", AccountTypeAsset)
	require.Error(t, err)

	_, err = svc.GetOrCreateCategoryAccount(context.Background(), "  ", AccountTypeExpense)
	require.Error(t, err)
}
