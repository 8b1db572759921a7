package storage

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"max.ks1230/finance-tracker/internal/entity/ledger"
)

func Test_OnSumAmount_WithRandomTransactions_ShouldMatchExactDecimalTotal(t *testing.T) {
	ctx := context.Background()
	store := NewInMemStorage()
	rnd := rand.New(rand.NewSource(42))

	from := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)

	want := decimal.Zero
	for i := 0; i < 500; i++ {
		// random cent amounts stress decimal accumulation where float64
		// would drift
		amount := decimal.New(rnd.Int63n(100_000_000), -2)
		day := rnd.Intn(31) + 1

		kind := ledger.KindExpense
		if rnd.Intn(2) == 0 {
			kind = ledger.KindIncome
		}

		_, err := store.CreateTransaction(ctx, ledger.Transaction{
			UserID:     1,
			CategoryID: 7,
			Amount:     amount,
			Kind:       kind,
			OccurredAt: time.Date(2024, time.March, day, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)

		if kind == ledger.KindExpense {
			want = want.Add(amount)
		}
	}

	// outside the window on both sides, must not count
	for _, outside := range []time.Time{
		time.Date(2024, time.February, 29, 23, 59, 0, 0, time.UTC),
		to,
	} {
		_, err := store.CreateTransaction(ctx, ledger.Transaction{
			UserID:     1,
			CategoryID: 7,
			Amount:     decimal.NewFromInt(10_000),
			Kind:       ledger.KindExpense,
			OccurredAt: outside,
		})
		require.NoError(t, err)
	}

	sum, err := store.SumAmount(ctx, 1, ledger.KindExpense, from, to)
	assert.NoError(t, err)
	assert.True(t, sum.Equal(want), "want %s, got %s", want, sum)
	assert.True(t, sum.Sign() >= 0)
}
