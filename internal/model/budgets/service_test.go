package budgets

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"max.ks1230/finance-tracker/internal/entity/ledger"
	"max.ks1230/finance-tracker/internal/model/budget"
	"max.ks1230/finance-tracker/internal/model/customerr"
	"max.ks1230/finance-tracker/internal/model/storage"
)

func newFixture(t *testing.T) (*storage.InMemStorage, *Service) {
	t.Helper()
	store := storage.NewInMemStorage()
	return store, NewService(store, budget.NewEvaluator(store))
}

func seedCategory(t *testing.T, store *storage.InMemStorage, userID int64, name string, kind ledger.Kind) int64 {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.CreateCategories(ctx, []ledger.Category{{UserID: userID, Name: name, Kind: kind}}))

	categories, err := store.ListCategories(ctx, userID)
	require.NoError(t, err)
	for _, c := range categories {
		if c.Name == name {
			return c.ID
		}
	}
	t.Fatalf("category %s not found after create", name)
	return 0
}

func Test_OnAdd_ShouldPersistValidBudget(t *testing.T) {
	ctx := context.Background()
	store, svc := newFixture(t)
	foodID := seedCategory(t, store, 1, "Food", ledger.KindExpense)

	b, err := svc.Add(ctx, 1, Input{CategoryID: foodID, LimitAmount: "300", Timeframe: "monthly"})

	assert.NoError(t, err)
	assert.NotZero(t, b.ID)
	assert.Equal(t, "Food", b.Category)
	assert.Equal(t, ledger.TimeframeMonthly, b.Timeframe)
	assert.False(t, b.StartDate.IsZero())
}

func Test_OnAdd_SecondBudgetForCategory_ShouldConflict(t *testing.T) {
	ctx := context.Background()
	store, svc := newFixture(t)
	foodID := seedCategory(t, store, 1, "Food", ledger.KindExpense)

	_, err := svc.Add(ctx, 1, Input{CategoryID: foodID, LimitAmount: "300", Timeframe: "monthly"})
	require.NoError(t, err)

	_, err = svc.Add(ctx, 1, Input{CategoryID: foodID, LimitAmount: "500", Timeframe: "weekly"})

	var conflictErr *customerr.ConflictError
	assert.True(t, errors.As(err, &conflictErr))
}

func Test_OnConcurrentAdds_ShouldKeepAtMostOneBudget(t *testing.T) {
	ctx := context.Background()
	store, svc := newFixture(t)
	foodID := seedCategory(t, store, 1, "Food", ledger.KindExpense)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Add(ctx, 1, Input{CategoryID: foodID, LimitAmount: "300", Timeframe: "monthly"})
		}()
	}
	wg.Wait()

	budgets, err := store.ListBudgets(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, budgets, 1)
}

func Test_OnAdd_ForIncomeCategory_ShouldFailValidation(t *testing.T) {
	ctx := context.Background()
	store, svc := newFixture(t)
	salaryID := seedCategory(t, store, 1, "Salary", ledger.KindIncome)

	_, err := svc.Add(ctx, 1, Input{CategoryID: salaryID, LimitAmount: "300", Timeframe: "monthly"})

	var validationErr *customerr.ValidationError
	assert.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "category", validationErr.Field)
}

func Test_OnAdd_WithNonPositiveLimit_ShouldFailValidation(t *testing.T) {
	ctx := context.Background()
	store, svc := newFixture(t)
	foodID := seedCategory(t, store, 1, "Food", ledger.KindExpense)

	_, err := svc.Add(ctx, 1, Input{CategoryID: foodID, LimitAmount: "0", Timeframe: "monthly"})

	var validationErr *customerr.ValidationError
	assert.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "limit_amount", validationErr.Field)
}

func Test_OnAdd_WithUnknownTimeframe_ShouldFailValidation(t *testing.T) {
	ctx := context.Background()
	_, svc := newFixture(t)

	_, err := svc.Add(ctx, 1, Input{CategoryID: 1, LimitAmount: "300", Timeframe: "daily"})

	var validationErr *customerr.ValidationError
	assert.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "timeframe", validationErr.Field)
}

func Test_OnUpdate_OfForeignBudget_ShouldDenyAccess(t *testing.T) {
	ctx := context.Background()
	store, svc := newFixture(t)
	foodID := seedCategory(t, store, 2, "Food", ledger.KindExpense)

	owned, err := svc.Add(ctx, 2, Input{CategoryID: foodID, LimitAmount: "300", Timeframe: "monthly"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, 1, owned.ID, Input{CategoryID: foodID, LimitAmount: "500", Timeframe: "monthly"})

	var authErr *customerr.AuthorizationError
	assert.True(t, errors.As(err, &authErr))
}

func Test_OnList_ShouldDecorateWithCurrentPeriodSpend(t *testing.T) {
	ctx := context.Background()
	store, svc := newFixture(t)
	foodID := seedCategory(t, store, 1, "Food", ledger.KindExpense)

	_, err := svc.Add(ctx, 1, Input{CategoryID: foodID, LimitAmount: "300", Timeframe: "monthly"})
	require.NoError(t, err)

	nowTime := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	_, err = store.CreateTransaction(ctx, ledger.Transaction{
		UserID:     1,
		CategoryID: foodID,
		Amount:     decimal.NewFromInt(120),
		Kind:       ledger.KindExpense,
		OccurredAt: time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	statuses, err := svc.List(ctx, 1, nowTime)
	assert.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.True(t, statuses[0].Spent.Equal(decimal.NewFromInt(120)))
}
