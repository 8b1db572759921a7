package transactions

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

const (
	dateLayout     = "2006-01-02"
	DefaultPerPage = 10
)

type transactionStorage interface {
	CategoryByID(ctx context.Context, id int64) (ledger.Category, error)
	TransactionByID(ctx context.Context, id int64) (ledger.Transaction, error)
	CreateTransaction(ctx context.Context, t ledger.Transaction) (int64, error)
	UpdateTransaction(ctx context.Context, t ledger.Transaction) error
	DeleteTransaction(ctx context.Context, id int64) error
	ListTransactions(ctx context.Context, userID int64, filter ledger.TransactionFilter) ([]ledger.Transaction, int64, error)
}

// Service validates and persists transaction changes, scoped to the owner.
type Service struct {
	storage transactionStorage
}

func NewService(storage transactionStorage) *Service {
	return &Service{storage: storage}
}

// Input is the typed form of a transaction create/edit request. Amount and
// Date arrive raw and are validated here, before anything reaches storage.
type Input struct {
	CategoryID  int64  `json:"category_id"`
	Amount      string `json:"amount"`
	Kind        string `json:"type"`
	Description string `json:"description"`
	Tags        string `json:"tags"`
	Recurring   bool   `json:"recurring"`
	Date        string `json:"date"`
}

// Page is one page of the transaction listing.
type Page struct {
	Items      []ledger.Transaction `json:"items"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	PerPage    int                  `json:"per_page"`
	TotalPages int64                `json:"total_pages"`
}

// Add validates the input and inserts the transaction for the owner.
func (s *Service) Add(ctx context.Context, userID int64, in Input) (ledger.Transaction, error) {
	t, err := s.buildTransaction(ctx, userID, in)
	if err != nil {
		return ledger.Transaction{}, err
	}

	id, err := s.storage.CreateTransaction(ctx, t)
	if err != nil {
		return ledger.Transaction{}, errors.Wrap(err, "add transaction")
	}
	t.ID = id

	logger.Info("transaction added", zap.Int64("userID", userID), zap.Int64("id", id))
	return t, nil
}

// Update validates the input and replaces the transaction's fields. The
// record must exist and belong to the caller; a foreign record yields an
// authorization failure, not a not-found.
func (s *Service) Update(ctx context.Context, userID, id int64, in Input) (ledger.Transaction, error) {
	existing, err := s.ownedTransaction(ctx, userID, id)
	if err != nil {
		return ledger.Transaction{}, err
	}

	t, err := s.buildTransaction(ctx, userID, in)
	if err != nil {
		return ledger.Transaction{}, err
	}
	t.ID = existing.ID
	t.CreatedAt = existing.CreatedAt

	if err = s.storage.UpdateTransaction(ctx, t); err != nil {
		return ledger.Transaction{}, errors.Wrap(err, "update transaction")
	}
	return t, nil
}

// Delete removes the owner's transaction. No soft-delete.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.ownedTransaction(ctx, userID, id); err != nil {
		return err
	}
	return errors.Wrap(s.storage.DeleteTransaction(ctx, id), "delete transaction")
}

// List returns one page of the owner's transactions, newest first.
func (s *Service) List(ctx context.Context, userID int64, filter ledger.TransactionFilter) (Page, error) {
	if filter.PerPage <= 0 {
		filter.PerPage = DefaultPerPage
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	items, total, err := s.storage.ListTransactions(ctx, userID, filter)
	if err != nil {
		return Page{}, errors.Wrap(err, "list transactions")
	}

	totalPages := total / int64(filter.PerPage)
	if total%int64(filter.PerPage) != 0 {
		totalPages++
	}
	return Page{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		PerPage:    filter.PerPage,
		TotalPages: totalPages,
	}, nil
}

func (s *Service) buildTransaction(ctx context.Context, userID int64, in Input) (ledger.Transaction, error) {
	kind := ledger.Kind(in.Kind)
	if !kind.Valid() {
		return ledger.Transaction{}, &customerr.ValidationError{Field: "type", Reason: "must be income or expense"}
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(in.Amount))
	if err != nil {
		return ledger.Transaction{}, &customerr.ValidationError{Field: "amount", Reason: "not a valid number"}
	}
	if amount.Sign() < 0 {
		return ledger.Transaction{}, &customerr.ValidationError{Field: "amount", Reason: "must not be negative"}
	}

	occurredAt, err := time.Parse(dateLayout, in.Date)
	if err != nil {
		return ledger.Transaction{}, &customerr.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}

	category, err := s.ownedCategory(ctx, userID, in.CategoryID)
	if err != nil {
		return ledger.Transaction{}, err
	}
	// the category's kind must match every transaction referencing it;
	// storage does not enforce this, so it is checked here
	if category.Kind != kind {
		return ledger.Transaction{}, &customerr.ValidationError{Field: "category", Reason: "category kind does not match transaction type"}
	}

	return ledger.Transaction{
		UserID:      userID,
		CategoryID:  category.ID,
		Category:    category.Name,
		Amount:      amount,
		Kind:        kind,
		Description: in.Description,
		Tags:        in.Tags,
		Recurring:   in.Recurring,
		OccurredAt:  occurredAt,
	}, nil
}

func (s *Service) ownedTransaction(ctx context.Context, userID, id int64) (ledger.Transaction, error) {
	t, err := s.storage.TransactionByID(ctx, id)
	if err != nil {
		return ledger.Transaction{}, errors.Wrap(err, "get transaction")
	}
	if t.UserID != userID {
		return ledger.Transaction{}, &customerr.AuthorizationError{}
	}
	return t, nil
}

func (s *Service) ownedCategory(ctx context.Context, userID, id int64) (ledger.Category, error) {
	category, err := s.storage.CategoryByID(ctx, id)
	if err != nil {
		return ledger.Category{}, errors.Wrap(err, "get category")
	}
	if category.UserID != userID {
		return ledger.Category{}, &customerr.AuthorizationError{}
	}
	return category, nil
}
