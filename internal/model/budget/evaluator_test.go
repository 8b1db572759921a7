package budget

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"max.ks1230/finance-tracker/internal/entity/ledger"
	"max.ks1230/finance-tracker/internal/model/storage"
)

func Test_OnPeriodStart_Weekly_ShouldReturnMostRecentMonday(t *testing.T) {
	// Wednesday afternoon
	wednesday := time.Date(2024, time.March, 13, 15, 30, 0, 0, time.UTC)

	start := PeriodStart(ledger.TimeframeWeekly, wednesday)

	assert.Equal(t, time.Date(2024, time.March, 11, 15, 30, 0, 0, time.UTC), start)
}

func Test_OnPeriodStart_Weekly_OnSunday_ShouldGoBackSixDays(t *testing.T) {
	sunday := time.Date(2024, time.March, 17, 9, 0, 0, 0, time.UTC)

	start := PeriodStart(ledger.TimeframeWeekly, sunday)

	assert.Equal(t, time.Date(2024, time.March, 11, 9, 0, 0, 0, time.UTC), start)
}

func Test_OnPeriodStart_Monthly_ShouldReturnFirstOfMonth(t *testing.T) {
	start := PeriodStart(ledger.TimeframeMonthly, time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC))

	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), start)
}

func Test_OnPeriodStart_Yearly_ShouldReturnFirstOfJanuary(t *testing.T) {
	start := PeriodStart(ledger.TimeframeYearly, time.Date(2024, time.August, 30, 10, 0, 0, 0, time.UTC))

	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), start)
}

func Test_OnSpent_ShouldCountCurrentPeriodIncludingFutureDates(t *testing.T) {
	ctx := context.Background()
	store := storage.NewInMemStorage()
	evaluator := NewEvaluator(store)

	addExpense := func(day int, amount string) {
		_, err := store.CreateTransaction(ctx, ledger.Transaction{
			UserID:     1,
			CategoryID: 7,
			Amount:     decimal.RequireFromString(amount),
			Kind:       ledger.KindExpense,
			OccurredAt: time.Date(2024, time.March, day, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}

	// last day of the previous month, outside the period
	_, err := store.CreateTransaction(ctx, ledger.Transaction{
		UserID:     1,
		CategoryID: 7,
		Amount:     decimal.RequireFromString("500"),
		Kind:       ledger.KindExpense,
		OccurredAt: time.Date(2024, time.February, 29, 23, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	addExpense(10, "100")
	addExpense(15, "40")
	// future-dated but already recorded, still counts
	addExpense(25, "60")

	b := ledger.Budget{UserID: 1, CategoryID: 7, Timeframe: ledger.TimeframeMonthly}
	spent, err := evaluator.Spent(ctx, b, time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC))

	assert.NoError(t, err)
	assert.True(t, spent.Equal(decimal.NewFromInt(200)))
}
