package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"max.ks1230/finance-tracker/internal/entity/ledger"
	"max.ks1230/finance-tracker/internal/entity/user"
	"max.ks1230/finance-tracker/internal/model/customerr"
)

// InMemStorage mirrors the postgres storage surface for tests and local
// runs, including the unique (user, category) budget backstop.
type InMemStorage struct {
	mu           sync.Mutex
	users        map[int64]user.Record
	categories   map[int64]ledger.Category
	transactions map[int64]ledger.Transaction
	budgets      map[int64]ledger.Budget
	nextID       int64
}

func NewInMemStorage() *InMemStorage {
	return &InMemStorage{
		users:        make(map[int64]user.Record),
		categories:   make(map[int64]ledger.Category),
		transactions: make(map[int64]ledger.Transaction),
		budgets:      make(map[int64]ledger.Budget),
	}
}

func (s *InMemStorage) nextSeq() int64 {
	s.nextID++
	return s.nextID
}

// ---- users ----

func (s *InMemStorage) CreateUser(_ context.Context, rec user.Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = s.nextSeq()
	s.users[rec.ID] = rec
	return rec.ID, nil
}

func (s *InMemStorage) UserByEmail(_ context.Context, email string) (user.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.Record{}, &customerr.NotFoundError{Entity: "user"}
}

func (s *InMemStorage) UserByID(_ context.Context, id int64) (user.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return user.Record{}, &customerr.NotFoundError{Entity: "user"}
	}
	return u, nil
}

func (s *InMemStorage) UpdateUser(_ context.Context, rec user.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[rec.ID]; !ok {
		return &customerr.NotFoundError{Entity: "user"}
	}
	s.users[rec.ID] = rec
	return nil
}

// ---- categories ----

func (s *InMemStorage) CreateCategories(_ context.Context, categories []ledger.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range categories {
		c.ID = s.nextSeq()
		s.categories[c.ID] = c
	}
	return nil
}

func (s *InMemStorage) CategoryByID(_ context.Context, id int64) (ledger.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return ledger.Category{}, &customerr.NotFoundError{Entity: "category"}
	}
	return c, nil
}

func (s *InMemStorage) ListCategories(_ context.Context, userID int64) ([]ledger.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	categories := make([]ledger.Category, 0)
	for _, c := range s.categories {
		if c.UserID == userID {
			categories = append(categories, c)
		}
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Kind != categories[j].Kind {
			return categories[i].Kind < categories[j].Kind
		}
		return categories[i].Name < categories[j].Name
	})
	return categories, nil
}

// ---- transactions ----

func (s *InMemStorage) CreateTransaction(_ context.Context, t ledger.Transaction) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.nextSeq()
	s.transactions[t.ID] = t
	return t.ID, nil
}

func (s *InMemStorage) UpdateTransaction(_ context.Context, t ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[t.ID]; !ok {
		return &customerr.NotFoundError{Entity: "transaction"}
	}
	s.transactions[t.ID] = t
	return nil
}

func (s *InMemStorage) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.transactions, id)
	return nil
}

func (s *InMemStorage) TransactionByID(_ context.Context, id int64) (ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return ledger.Transaction{}, &customerr.NotFoundError{Entity: "transaction"}
	}
	return t, nil
}

func (s *InMemStorage) ListTransactions(_ context.Context, userID int64, filter ledger.TransactionFilter) ([]ledger.Transaction, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := make([]ledger.Transaction, 0)
	for _, t := range s.transactions {
		if t.UserID != userID {
			continue
		}
		if filter.Kind != "" && t.Kind != filter.Kind {
			continue
		}
		if filter.Search != "" &&
			!strings.Contains(strings.ToLower(t.Description), strings.ToLower(filter.Search)) {
			continue
		}
		matched = append(matched, t)
	}
	sortNewestFirst(matched)

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.PerPage
	if start >= len(matched) {
		return []ledger.Transaction{}, total, nil
	}
	end := start + filter.PerPage
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *InMemStorage) RecentTransactions(_ context.Context, userID int64, limit uint64) ([]ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := make([]ledger.Transaction, 0)
	for _, t := range s.transactions {
		if t.UserID == userID {
			matched = append(matched, t)
		}
	}
	sortNewestFirst(matched)
	if uint64(len(matched)) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *InMemStorage) TransactionsInRange(_ context.Context, userID int64, from, to time.Time) ([]ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := make([]ledger.Transaction, 0)
	for _, t := range s.transactions {
		if t.UserID == userID && !t.OccurredAt.Before(from) && t.OccurredAt.Before(to) {
			matched = append(matched, t)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].OccurredAt.Equal(matched[j].OccurredAt) {
			return matched[i].OccurredAt.Before(matched[j].OccurredAt)
		}
		return matched[i].ID < matched[j].ID
	})
	return matched, nil
}

func (s *InMemStorage) SumAmount(_ context.Context, userID int64, kind ledger.Kind, from, to time.Time) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := decimal.Zero
	for _, t := range s.transactions {
		if t.UserID == userID && t.Kind == kind &&
			!t.OccurredAt.Before(from) && t.OccurredAt.Before(to) {
			sum = sum.Add(t.Amount)
		}
	}
	return sum, nil
}

func (s *InMemStorage) SumAmountThrough(_ context.Context, userID int64, kind ledger.Kind, from, through time.Time) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := decimal.Zero
	for _, t := range s.transactions {
		if t.UserID == userID && t.Kind == kind &&
			!t.OccurredAt.Before(from) && !t.OccurredAt.After(through) {
			sum = sum.Add(t.Amount)
		}
	}
	return sum, nil
}

func (s *InMemStorage) SumCategoryExpensesSince(_ context.Context, userID, categoryID int64, since time.Time) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := decimal.Zero
	for _, t := range s.transactions {
		if t.UserID == userID && t.CategoryID == categoryID &&
			t.Kind == ledger.KindExpense && !t.OccurredAt.Before(since) {
			sum = sum.Add(t.Amount)
		}
	}
	return sum, nil
}

func (s *InMemStorage) ExpensesByCategory(_ context.Context, userID int64, from, to time.Time) ([]ledger.CategorySum, error) {
	return s.breakdown(userID, func(t ledger.Transaction) bool {
		return !t.OccurredAt.Before(from) && t.OccurredAt.Before(to)
	})
}

func (s *InMemStorage) ExpensesByCategoryThrough(_ context.Context, userID int64, from, through time.Time) ([]ledger.CategorySum, error) {
	return s.breakdown(userID, func(t ledger.Transaction) bool {
		return !t.OccurredAt.Before(from) && !t.OccurredAt.After(through)
	})
}

func (s *InMemStorage) breakdown(userID int64, inWindow func(ledger.Transaction) bool) ([]ledger.CategorySum, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byName := make(map[string]decimal.Decimal)
	for _, t := range s.transactions {
		if t.UserID == userID && t.Kind == ledger.KindExpense && inWindow(t) {
			name := s.categories[t.CategoryID].Name
			byName[name] = byName[name].Add(t.Amount)
		}
	}
	sums := make([]ledger.CategorySum, 0, len(byName))
	for name, amount := range byName {
		sums = append(sums, ledger.CategorySum{Name: name, Amount: amount})
	}
	sort.Slice(sums, func(i, j int) bool {
		return sums[i].Amount.GreaterThan(sums[j].Amount)
	})
	return sums, nil
}

// ---- budgets ----

func (s *InMemStorage) CreateBudget(_ context.Context, b ledger.Budget) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.budgets {
		if existing.UserID == b.UserID && existing.CategoryID == b.CategoryID {
			return 0, &customerr.ConflictError{Err: "a budget already exists for this category"}
		}
	}
	b.ID = s.nextSeq()
	s.budgets[b.ID] = b
	return b.ID, nil
}

func (s *InMemStorage) UpdateBudget(_ context.Context, b ledger.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[b.ID]; !ok {
		return &customerr.NotFoundError{Entity: "budget"}
	}
	s.budgets[b.ID] = b
	return nil
}

func (s *InMemStorage) DeleteBudget(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.budgets, id)
	return nil
}

func (s *InMemStorage) BudgetByID(_ context.Context, id int64) (ledger.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok {
		return ledger.Budget{}, &customerr.NotFoundError{Entity: "budget"}
	}
	return b, nil
}

func (s *InMemStorage) BudgetByCategory(_ context.Context, userID, categoryID int64) (ledger.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.budgets {
		if b.UserID == userID && b.CategoryID == categoryID {
			return b, nil
		}
	}
	return ledger.Budget{}, &customerr.NotFoundError{Entity: "budget"}
}

func (s *InMemStorage) ListBudgets(_ context.Context, userID int64) ([]ledger.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	budgets := make([]ledger.Budget, 0)
	for _, b := range s.budgets {
		if b.UserID == userID {
			budgets = append(budgets, b)
		}
	}
	sort.Slice(budgets, func(i, j int) bool { return budgets[i].ID < budgets[j].ID })
	return budgets, nil
}

func sortNewestFirst(items []ledger.Transaction) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].OccurredAt.Equal(items[j].OccurredAt) {
			return items[i].OccurredAt.After(items[j].OccurredAt)
		}
		return items[i].ID > items[j].ID
	})
}
