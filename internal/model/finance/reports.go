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

const savingsHistoryMonths = 6

// Report is the data contract handed to the reports view. Unlike the
// dashboard it covers the FULL current calendar unit, even the part still in
// the future.
type Report struct {
	Income            decimal.Decimal   `json:"income"`
	IncomeChange      float64           `json:"income_change"`
	Expenses          decimal.Decimal   `json:"expenses"`
	ExpensesChange    float64           `json:"expenses_change"`
	Savings           decimal.Decimal   `json:"savings"`
	SavingsChange     float64           `json:"savings_change"`
	SavingsRate       float64           `json:"savings_rate"`
	SavingsRateChange float64           `json:"savings_rate_change"`
	TrendLabels       []string          `json:"trend_labels"`
	IncomeTrend       []decimal.Decimal `json:"income_trend"`
	ExpensesTrend     []decimal.Decimal `json:"expenses_trend"`
	CategoryLabels    []string          `json:"category_labels"`
	CategoryAmounts   []decimal.Decimal `json:"category_amounts"`
	BudgetLabels      []string          `json:"budget_labels"`
	BudgetData        []decimal.Decimal `json:"budget_data"`
	ActualData        []decimal.Decimal `json:"actual_data"`
	SavingsLabels     []string          `json:"savings_labels"`
	SavingsData       []decimal.Decimal `json:"savings_data"`
}

// ChartData is the payload of the chart endpoint.
type ChartData struct {
	TrendLabels   []string          `json:"trend_labels"`
	IncomeTrend   []decimal.Decimal `json:"income_trend"`
	ExpensesTrend []decimal.Decimal `json:"expenses_trend"`
}

// CategoryData is the payload of the category endpoint.
type CategoryData struct {
	CategoryLabels  []string          `json:"category_labels"`
	CategoryAmounts []decimal.Decimal `json:"category_amounts"`
}

// Report builds the full-period report: current vs previous calendar unit,
// both half-open, plus budget-vs-actual and the trailing six-month savings
// series (oldest first).
func (s *Service) Report(ctx context.Context, userID int64, tf period.Timeframe, today time.Time) (*Report, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "report")
	defer span.Finish()

	logger.Info("Report - start", zap.Int64("userID", userID), zap.String("timeframe", string(tf)))

	cur, prev := period.ReportWindows(today, tf)

	curIncome, curExpenses, err := s.windowSums(ctx, userID, cur)
	if err != nil {
		return nil, errors.Wrap(err, "report")
	}
	prevIncome, prevExpenses, err := s.windowSums(ctx, userID, prev)
	if err != nil {
		return nil, errors.Wrap(err, "report")
	}

	savings := curIncome.Sub(curExpenses)
	prevSavings := prevIncome.Sub(prevExpenses)
	rate := SavingsRate(savings, curIncome)
	prevRate := SavingsRate(prevSavings, prevIncome)

	labels, incomeTrend, expensesTrend, err := s.trendSeries(ctx, userID, period.ReportTrendBuckets(today, tf))
	if err != nil {
		return nil, errors.Wrap(err, "report")
	}

	breakdown, err := s.storage.ExpensesByCategory(ctx, userID, cur.Start, cur.End)
	if err != nil {
		return nil, errors.Wrap(err, "report")
	}
	catLabels, catAmounts := splitBreakdown(breakdown)

	budgetLabels, budgetData, actualData, err := s.budgetVsActual(ctx, userID, today)
	if err != nil {
		return nil, errors.Wrap(err, "report")
	}

	savingsLabels, savingsData, err := s.savingsHistory(ctx, userID, today)
	if err != nil {
		return nil, errors.Wrap(err, "report")
	}

	return &Report{
		Income:            curIncome,
		IncomeChange:      PctChange(curIncome, prevIncome),
		Expenses:          curExpenses,
		ExpensesChange:    PctChange(curExpenses, prevExpenses),
		Savings:           savings,
		SavingsChange:     PctChange(savings, prevSavings),
		SavingsRate:       rate,
		SavingsRateChange: SavingsRateChange(rate, prevRate),
		TrendLabels:       labels,
		IncomeTrend:       incomeTrend,
		ExpensesTrend:     expensesTrend,
		CategoryLabels:    catLabels,
		CategoryAmounts:   catAmounts,
		BudgetLabels:      budgetLabels,
		BudgetData:        budgetData,
		ActualData:        actualData,
		SavingsLabels:     savingsLabels,
		SavingsData:       savingsData,
	}, nil
}

// ChartTrend serves the chart endpoint. Its buckets are generated for the
// whole period with no future-day filtering, unlike the dashboard page
// render; callers depend on the fixed bucket count.
func (s *Service) ChartTrend(ctx context.Context, userID int64, tf period.Timeframe, today time.Time) (*ChartData, error) {
	labels, incomeTrend, expensesTrend, err := s.trendSeries(ctx, userID, period.ChartTrendBuckets(today, tf))
	if err != nil {
		return nil, errors.Wrap(err, "chart trend")
	}
	return &ChartData{
		TrendLabels:   labels,
		IncomeTrend:   incomeTrend,
		ExpensesTrend: expensesTrend,
	}, nil
}

// CategorySpending serves the category endpoint over the full current period.
func (s *Service) CategorySpending(ctx context.Context, userID int64, tf period.Timeframe, today time.Time) (*CategoryData, error) {
	cur, _ := period.ReportWindows(today, tf)
	breakdown, err := s.storage.ExpensesByCategory(ctx, userID, cur.Start, cur.End)
	if err != nil {
		return nil, errors.Wrap(err, "category spending")
	}
	labels, amounts := splitBreakdown(breakdown)
	return &CategoryData{
		CategoryLabels:  labels,
		CategoryAmounts: amounts,
	}, nil
}

func (s *Service) windowSums(ctx context.Context, userID int64, w period.Window) (income, expenses decimal.Decimal, err error) {
	income, err = s.storage.SumAmount(ctx, userID, ledger.KindIncome, w.Start, w.End)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	expenses, err = s.storage.SumAmount(ctx, userID, ledger.KindExpense, w.Start, w.End)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return income, expenses, nil
}

func (s *Service) budgetVsActual(ctx context.Context, userID int64, today time.Time) (labels []string, limits, actuals []decimal.Decimal, err error) {
	budgets, err := s.storage.ListBudgets(ctx, userID)
	if err != nil {
		return nil, nil, nil, err
	}

	labels = make([]string, 0, len(budgets))
	limits = make([]decimal.Decimal, 0, len(budgets))
	actuals = make([]decimal.Decimal, 0, len(budgets))
	for _, b := range budgets {
		spent, err := s.evaluator.Spent(ctx, b, today)
		if err != nil {
			return nil, nil, nil, err
		}
		labels = append(labels, b.Category)
		limits = append(limits, b.LimitAmount)
		actuals = append(actuals, spent)
	}
	return labels, limits, actuals, nil
}

func (s *Service) savingsHistory(ctx context.Context, userID int64, today time.Time) ([]string, []decimal.Decimal, error) {
	buckets := period.TrailingMonths(today, savingsHistoryMonths)
	labels := make([]string, 0, len(buckets))
	data := make([]decimal.Decimal, 0, len(buckets))
	for _, b := range buckets {
		income, expenses, err := s.windowSums(ctx, userID, b.Window)
		if err != nil {
			return nil, nil, err
		}
		labels = append(labels, b.Label)
		data = append(data, income.Sub(expenses))
	}
	return labels, data, nil
}
