package budget

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"max.ks1230/finance-tracker/internal/entity/ledger"
)

type expensesStorage interface {
	// SumCategoryExpensesSince sums expense transactions of one category of
	// one owner with occurred_at >= since. The upper bound is deliberately
	// open: a future-dated transaction already on record counts.
	SumCategoryExpensesSince(ctx context.Context, userID, categoryID int64, since time.Time) (decimal.Decimal, error)
}

// Evaluator computes period-to-date spend for a budget's category.
type Evaluator struct {
	storage expensesStorage
}

func NewEvaluator(storage expensesStorage) *Evaluator {
	return &Evaluator{storage: storage}
}

// Spent returns the amount spent against the budget in the current period as
// of now. Zero when nothing matches.
func (e *Evaluator) Spent(ctx context.Context, b ledger.Budget, nowTime time.Time) (decimal.Decimal, error) {
	start := PeriodStart(b.Timeframe, nowTime)
	spent, err := e.storage.SumCategoryExpensesSince(ctx, b.UserID, b.CategoryID, start)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "budget spent")
	}
	return spent, nil
}

// PeriodStart derives the start of the current budget period from its
// timeframe. Weekly periods start at the most recent Monday, keeping now's
// time of day.
func PeriodStart(tf ledger.Timeframe, nowTime time.Time) time.Time {
	switch tf {
	case ledger.TimeframeWeekly:
		return nowTime.AddDate(0, 0, -mondayIndex(nowTime.Weekday()))
	case ledger.TimeframeYearly:
		return time.Date(nowTime.Year(), time.January, 1, 0, 0, 0, 0, nowTime.Location())
	default: // monthly
		return time.Date(nowTime.Year(), nowTime.Month(), 1, 0, 0, 0, 0, nowTime.Location())
	}
}

// mondayIndex maps time.Weekday (Sunday=0) to the Monday=0 convention.
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}
