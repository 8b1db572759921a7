package finance

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"max.ks1230/finance-tracker/internal/entity/ledger"
	"max.ks1230/finance-tracker/internal/logger"
	"max.ks1230/finance-tracker/internal/model/period"
)

const recentTransactionsLimit = 5

type ledgerStorage interface {
	// SumAmount sums amounts of one kind over [from, to). Zero when no rows.
	SumAmount(ctx context.Context, userID int64, kind ledger.Kind, from, to time.Time) (decimal.Decimal, error)
	// SumAmountThrough sums amounts of one kind over [from, through], the
	// inclusive upper bound the dashboard's current period needs.
	SumAmountThrough(ctx context.Context, userID int64, kind ledger.Kind, from, through time.Time) (decimal.Decimal, error)
	// ExpensesByCategory groups expense sums by category name over [from, to).
	// Categories without matching rows are omitted.
	ExpensesByCategory(ctx context.Context, userID int64, from, to time.Time) ([]ledger.CategorySum, error)
	// ExpensesByCategoryThrough is the inclusive-bound variant used by the
	// dashboard breakdown.
	ExpensesByCategoryThrough(ctx context.Context, userID int64, from, through time.Time) ([]ledger.CategorySum, error)
	RecentTransactions(ctx context.Context, userID int64, limit uint64) ([]ledger.Transaction, error)
	ListBudgets(ctx context.Context, userID int64) ([]ledger.Budget, error)
}

type budgetEvaluator interface {
	Spent(ctx context.Context, b ledger.Budget, now time.Time) (decimal.Decimal, error)
}

// Service aggregates ledger sums over period windows and derives the
// dashboard and report metrics. Every route-level need goes through here so
// the window edge cases live in one place.
type Service struct {
	storage   ledgerStorage
	evaluator budgetEvaluator
}

func NewService(storage ledgerStorage, evaluator budgetEvaluator) *Service {
	return &Service{
		storage:   storage,
		evaluator: evaluator,
	}
}

// Dashboard is the data contract handed to the dashboard view.
type Dashboard struct {
	Balance            decimal.Decimal      `json:"balance"`
	BalanceChange      float64              `json:"balance_change"`
	Income             decimal.Decimal      `json:"income"`
	IncomeChange       float64              `json:"income_change"`
	Expenses           decimal.Decimal      `json:"expenses"`
	ExpensesChange     float64              `json:"expenses_change"`
	Savings            decimal.Decimal      `json:"savings"`
	SavingsChange      float64              `json:"savings_change"`
	RecentTransactions []ledger.Transaction `json:"recent_transactions"`
	TrendLabels        []string             `json:"trend_labels"`
	IncomeTrend        []decimal.Decimal    `json:"income_trend"`
	ExpensesTrend      []decimal.Decimal    `json:"expenses_trend"`
	CategoryLabels     []string             `json:"category_labels"`
	CategoryAmounts    []decimal.Decimal    `json:"category_amounts"`
}

// Dashboard builds the overview for the current dashboard window: a partial
// current period (through today, inclusive) compared against the FULL
// previous calendar unit. The asymmetry mirrors DashboardWindows.
func (s *Service) Dashboard(ctx context.Context, userID int64, tf period.Timeframe, today time.Time) (*Dashboard, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "dashboard")
	defer span.Finish()

	logger.Info("Dashboard - start", zap.Int64("userID", userID), zap.String("timeframe", string(tf)))

	cur, prev := period.DashboardWindows(today, tf)

	curIncome, err := s.storage.SumAmountThrough(ctx, userID, ledger.KindIncome, cur.Start, cur.End)
	if err != nil {
		return nil, errors.Wrap(err, "dashboard")
	}
	curExpenses, err := s.storage.SumAmountThrough(ctx, userID, ledger.KindExpense, cur.Start, cur.End)
	if err != nil {
		return nil, errors.Wrap(err, "dashboard")
	}
	prevIncome, err := s.storage.SumAmount(ctx, userID, ledger.KindIncome, prev.Start, prev.End)
	if err != nil {
		return nil, errors.Wrap(err, "dashboard")
	}
	prevExpenses, err := s.storage.SumAmount(ctx, userID, ledger.KindExpense, prev.Start, prev.End)
	if err != nil {
		return nil, errors.Wrap(err, "dashboard")
	}

	savings := curIncome.Sub(curExpenses)
	prevSavings := prevIncome.Sub(prevExpenses)
	savingsChange := PctChange(savings, prevSavings)

	recent, err := s.storage.RecentTransactions(ctx, userID, recentTransactionsLimit)
	if err != nil {
		return nil, errors.Wrap(err, "dashboard")
	}

	labels, incomeTrend, expensesTrend, err := s.trendSeries(ctx, userID, period.DashboardTrendBuckets(today, tf))
	if err != nil {
		return nil, errors.Wrap(err, "dashboard")
	}

	breakdown, err := s.storage.ExpensesByCategoryThrough(ctx, userID, cur.Start, cur.End)
	if err != nil {
		return nil, errors.Wrap(err, "dashboard")
	}
	catLabels, catAmounts := splitBreakdown(breakdown)

	return &Dashboard{
		// balance is savings for the window; there is no running account
		// balance in this model
		Balance:            savings,
		BalanceChange:      savingsChange,
		Income:             curIncome,
		IncomeChange:       PctChange(curIncome, prevIncome),
		Expenses:           curExpenses,
		ExpensesChange:     PctChange(curExpenses, prevExpenses),
		Savings:            savings,
		SavingsChange:      savingsChange,
		RecentTransactions: recent,
		TrendLabels:        labels,
		IncomeTrend:        incomeTrend,
		ExpensesTrend:      expensesTrend,
		CategoryLabels:     catLabels,
		CategoryAmounts:    catAmounts,
	}, nil
}

func (s *Service) trendSeries(ctx context.Context, userID int64, buckets []period.Bucket) (labels []string, income, expenses []decimal.Decimal, err error) {
	labels = make([]string, 0, len(buckets))
	income = make([]decimal.Decimal, 0, len(buckets))
	expenses = make([]decimal.Decimal, 0, len(buckets))

	for _, b := range buckets {
		in, err := s.storage.SumAmount(ctx, userID, ledger.KindIncome, b.Window.Start, b.Window.End)
		if err != nil {
			return nil, nil, nil, errors.Wrap(err, "trend series")
		}
		out, err := s.storage.SumAmount(ctx, userID, ledger.KindExpense, b.Window.Start, b.Window.End)
		if err != nil {
			return nil, nil, nil, errors.Wrap(err, "trend series")
		}
		labels = append(labels, b.Label)
		income = append(income, in)
		expenses = append(expenses, out)
	}
	return labels, income, expenses, nil
}

func splitBreakdown(breakdown []ledger.CategorySum) ([]string, []decimal.Decimal) {
	labels := make([]string, 0, len(breakdown))
	amounts := make([]decimal.Decimal, 0, len(breakdown))
	for _, c := range breakdown {
		labels = append(labels, c.Name)
		amounts = append(amounts, c.Amount)
	}
	return labels, amounts
}
