package budgets

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"max.ks1230/finance-tracker/internal/entity/ledger"
	"max.ks1230/finance-tracker/internal/logger"
	"max.ks1230/finance-tracker/internal/model/customerr"
)

type budgetStorage interface {
	CategoryByID(ctx context.Context, id int64) (ledger.Category, error)
	BudgetByID(ctx context.Context, id int64) (ledger.Budget, error)
	BudgetByCategory(ctx context.Context, userID, categoryID int64) (ledger.Budget, error)
	CreateBudget(ctx context.Context, b ledger.Budget) (int64, error)
	UpdateBudget(ctx context.Context, b ledger.Budget) error
	DeleteBudget(ctx context.Context, id int64) error
	ListBudgets(ctx context.Context, userID int64) ([]ledger.Budget, error)
}

type spendEvaluator interface {
	Spent(ctx context.Context, b ledger.Budget, now time.Time) (decimal.Decimal, error)
}

// Service validates and persists budget changes. The one-budget-per-category
// rule is a read-then-write pre-check: two concurrent creates can both pass
// it. The storage layer carries a unique index as a backstop without
// changing this check's behavior.
type Service struct {
	storage   budgetStorage
	evaluator spendEvaluator
}

func NewService(storage budgetStorage, evaluator spendEvaluator) *Service {
	return &Service{
		storage:   storage,
		evaluator: evaluator,
	}
}

// Input is the typed form of a budget create/edit request.
type Input struct {
	CategoryID  int64  `json:"category_id"`
	LimitAmount string `json:"limit_amount"`
	Timeframe   string `json:"timeframe"`
}

// Status is a budget decorated with its current-period spend.
type Status struct {
	ledger.Budget
	Spent decimal.Decimal `json:"spent"`
}

// Add validates the input, rejects a duplicate category budget and inserts.
func (s *Service) Add(ctx context.Context, userID int64, in Input) (ledger.Budget, error) {
	b, err := s.buildBudget(ctx, userID, in)
	if err != nil {
		return ledger.Budget{}, err
	}

	if _, err = s.storage.BudgetByCategory(ctx, userID, b.CategoryID); err == nil {
		return ledger.Budget{}, &customerr.ConflictError{Err: "a budget already exists for this category"}
	} else if !isNotFound(err) {
		return ledger.Budget{}, errors.Wrap(err, "add budget")
	}

	b.StartDate = time.Now()
	id, err := s.storage.CreateBudget(ctx, b)
	if err != nil {
		return ledger.Budget{}, errors.Wrap(err, "add budget")
	}
	b.ID = id

	logger.Info("budget added", zap.Int64("userID", userID), zap.Int64("id", id))
	return b, nil
}

// Update validates and replaces the budget's fields, ownership-checked.
func (s *Service) Update(ctx context.Context, userID, id int64, in Input) (ledger.Budget, error) {
	existing, err := s.ownedBudget(ctx, userID, id)
	if err != nil {
		return ledger.Budget{}, err
	}

	b, err := s.buildBudget(ctx, userID, in)
	if err != nil {
		return ledger.Budget{}, err
	}
	b.ID = existing.ID
	b.StartDate = existing.StartDate
	b.EndDate = existing.EndDate
	b.CreatedAt = existing.CreatedAt

	if b.CategoryID != existing.CategoryID {
		if _, err = s.storage.BudgetByCategory(ctx, userID, b.CategoryID); err == nil {
			return ledger.Budget{}, &customerr.ConflictError{Err: "a budget already exists for this category"}
		} else if !isNotFound(err) {
			return ledger.Budget{}, errors.Wrap(err, "update budget")
		}
	}

	if err = s.storage.UpdateBudget(ctx, b); err != nil {
		return ledger.Budget{}, errors.Wrap(err, "update budget")
	}
	return b, nil
}

// Delete removes the owner's budget.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.ownedBudget(ctx, userID, id); err != nil {
		return err
	}
	return errors.Wrap(s.storage.DeleteBudget(ctx, id), "delete budget")
}

// List returns the owner's budgets with current-period spend.
func (s *Service) List(ctx context.Context, userID int64, now time.Time) ([]Status, error) {
	items, err := s.storage.ListBudgets(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list budgets")
	}

	statuses := make([]Status, 0, len(items))
	for _, b := range items {
		spent, err := s.evaluator.Spent(ctx, b, now)
		if err != nil {
			return nil, errors.Wrap(err, "list budgets")
		}
		statuses = append(statuses, Status{Budget: b, Spent: spent})
	}
	return statuses, nil
}

func (s *Service) buildBudget(ctx context.Context, userID int64, in Input) (ledger.Budget, error) {
	tf := ledger.Timeframe(in.Timeframe)
	if !tf.Valid() {
		return ledger.Budget{}, &customerr.ValidationError{Field: "timeframe", Reason: "must be weekly, monthly or yearly"}
	}

	limit, err := decimal.NewFromString(strings.TrimSpace(in.LimitAmount))
	if err != nil {
		return ledger.Budget{}, &customerr.ValidationError{Field: "limit_amount", Reason: "not a valid number"}
	}
	if limit.Sign() <= 0 {
		return ledger.Budget{}, &customerr.ValidationError{Field: "limit_amount", Reason: "must be positive"}
	}

	category, err := s.storage.CategoryByID(ctx, in.CategoryID)
	if err != nil {
		return ledger.Budget{}, errors.Wrap(err, "get category")
	}
	if category.UserID != userID {
		return ledger.Budget{}, &customerr.AuthorizationError{}
	}
	// spend only ever sums expenses, so a budget on an income category
	// would never move; the kind-match invariant rules it out
	if category.Kind != ledger.KindExpense {
		return ledger.Budget{}, &customerr.ValidationError{Field: "category", Reason: "budgets apply to expense categories"}
	}

	return ledger.Budget{
		UserID:      userID,
		CategoryID:  category.ID,
		Category:    category.Name,
		LimitAmount: limit,
		Timeframe:   tf,
	}, nil
}

func (s *Service) ownedBudget(ctx context.Context, userID, id int64) (ledger.Budget, error) {
	b, err := s.storage.BudgetByID(ctx, id)
	if err != nil {
		return ledger.Budget{}, errors.Wrap(err, "get budget")
	}
	if b.UserID != userID {
		return ledger.Budget{}, &customerr.AuthorizationError{}
	}
	return b, nil
}

func isNotFound(err error) bool {
	var notFound *customerr.NotFoundError
	return errors.As(err, &notFound)
}
