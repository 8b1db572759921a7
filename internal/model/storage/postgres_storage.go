package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"max.ks1230/finance-tracker/internal/entity/ledger"
	"max.ks1230/finance-tracker/internal/entity/user"
	"max.ks1230/finance-tracker/internal/logger"
	"max.ks1230/finance-tracker/internal/model/customerr"
)

const dsnTemplate = "user=%s password=%s host=%s dbname=%s sslmode=disable"

const uniqueViolationCode = pq.ErrorCode("23505")

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type config interface {
	Host() string
	Username() string
	Password() string
	Database() string
}

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(config config) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", fmt.Sprintf(dsnTemplate,
		config.Username(),
		config.Password(),
		config.Host(),
		config.Database()))
	if err != nil {
		return nil, errors.Wrap(err, "cannot connect to database")
	}
	if err = db.Ping(); err != nil {
		return nil, errors.Wrap(err, "cannot connect to database")
	}
	return &PostgresStorage{db}, nil
}

// Migrate applies the embedded schema migrations.
func (s *PostgresStorage) Migrate() error {
	return runMigrations(s.db)
}

// ---- users ----

func (s *PostgresStorage) CreateUser(ctx context.Context, rec user.Record) (int64, error) {
	query := psql.Insert("users").
		Columns("name", "email", "password_hash", "currency", "date_format", "timezone").
		Values(rec.Name, rec.Email, rec.PasswordHash,
			rec.CurrencyOrDefault(), rec.DateFormatOrDefault(), rec.TimezoneOrDefault()).
		Suffix("RETURNING id")

	var id int64
	if err := query.RunWith(s.db).QueryRowContext(ctx).Scan(&id); err != nil {
		return 0, &customerr.StorageError{Err: errors.Wrap(err, "create user")}
	}
	return id, nil
}

func (s *PostgresStorage) UserByEmail(ctx context.Context, email string) (user.Record, error) {
	return s.scanUser(ctx, sq.Eq{"email": email})
}

func (s *PostgresStorage) UserByID(ctx context.Context, id int64) (user.Record, error) {
	return s.scanUser(ctx, sq.Eq{"id": id})
}

func (s *PostgresStorage) scanUser(ctx context.Context, where sq.Eq) (user.Record, error) {
	query := psql.Select("id", "name", "email", "password_hash",
		"currency", "date_format", "timezone", "created_at", "updated_at").
		From("users").
		Where(where)

	var rec user.Record
	err := query.RunWith(s.db).QueryRowContext(ctx).Scan(
		&rec.ID, &rec.Name, &rec.Email, &rec.PasswordHash,
		&rec.Currency, &rec.DateFormat, &rec.Timezone, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return user.Record{}, &customerr.NotFoundError{Entity: "user"}
	}
	if err != nil {
		return user.Record{}, &customerr.StorageError{Err: errors.Wrap(err, "get user")}
	}
	return rec, nil
}

func (s *PostgresStorage) UpdateUser(ctx context.Context, rec user.Record) error {
	query := psql.Update("users").
		Set("name", rec.Name).
		Set("email", rec.Email).
		Set("password_hash", rec.PasswordHash).
		Set("currency", rec.Currency).
		Set("date_format", rec.DateFormat).
		Set("timezone", rec.Timezone).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": rec.ID})

	if _, err := query.RunWith(s.db).ExecContext(ctx); err != nil {
		return &customerr.StorageError{Err: errors.Wrap(err, "update user")}
	}
	return nil
}

// ---- categories ----

func (s *PostgresStorage) CreateCategories(ctx context.Context, categories []ledger.Category) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &customerr.StorageError{Err: errors.Wrap(err, "create categories")}
	}
	defer rollback(tx)

	query := psql.Insert("categories").Columns("user_id", "name", "kind")
	for _, c := range categories {
		query = query.Values(c.UserID, c.Name, c.Kind)
	}
	if _, err = query.RunWith(tx).ExecContext(ctx); err != nil {
		return &customerr.StorageError{Err: errors.Wrap(err, "create categories")}
	}
	if err = tx.Commit(); err != nil {
		return &customerr.StorageError{Err: errors.Wrap(err, "create categories")}
	}
	return nil
}

func (s *PostgresStorage) CategoryByID(ctx context.Context, id int64) (ledger.Category, error) {
	query := psql.Select("id", "user_id", "name", "kind", "created_at", "updated_at").
		From("categories").
		Where(sq.Eq{"id": id})

	var c ledger.Category
	err := query.RunWith(s.db).QueryRowContext(ctx).
		Scan(&c.ID, &c.UserID, &c.Name, &c.Kind, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Category{}, &customerr.NotFoundError{Entity: "category"}
	}
	if err != nil {
		return ledger.Category{}, &customerr.StorageError{Err: errors.Wrap(err, "get category")}
	}
	return c, nil
}

func (s *PostgresStorage) ListCategories(ctx context.Context, userID int64) ([]ledger.Category, error) {
	query := psql.Select("id", "user_id", "name", "kind", "created_at", "updated_at").
		From("categories").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("kind", "name")

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, &customerr.StorageError{Err: errors.Wrap(err, "list categories")}
	}
	defer closeRows(rows)

	categories := make([]ledger.Category, 0)
	for rows.Next() {
		var c ledger.Category
		if err = rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Kind, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, &customerr.StorageError{Err: errors.Wrap(err, "list categories")}
		}
		categories = append(categories, c)
	}
	if err = rows.Err(); err != nil {
		return nil, &customerr.StorageError{Err: errors.Wrap(err, "list categories")}
	}
	return categories, nil
}

// ---- transactions ----

func (s *PostgresStorage) CreateTransaction(ctx context.Context, t ledger.Transaction) (int64, error) {
	query := psql.Insert("transactions").
		Columns("user_id", "category_id", "amount", "kind", "description", "tags", "recurring", "occurred_at").
		Values(t.UserID, t.CategoryID, t.Amount, t.Kind, t.Description, t.Tags, t.Recurring, t.OccurredAt).
		Suffix("RETURNING id")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &customerr.StorageError{Err: errors.Wrap(err, "create transaction")}
	}
	defer rollback(tx)

	var id int64
	if err = query.RunWith(tx).QueryRowContext(ctx).Scan(&id); err != nil {
		return 0, &customerr.StorageError{Err: errors.Wrap(err, "create transaction")}
	}
	if err = tx.Commit(); err != nil {
		return 0, &customerr.StorageError{Err: errors.Wrap(err, "create transaction")}
	}
	return id, nil
}

func (s *PostgresStorage) UpdateTransaction(ctx context.Context, t ledger.Transaction) error {
	query := psql.Update("transactions").
		Set("category_id", t.CategoryID).
		Set("amount", t.Amount).
		Set("kind", t.Kind).
		Set("description", t.Description).
		Set("tags", t.Tags).
		Set("recurring", t.Recurring).
		Set("occurred_at", t.OccurredAt).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": t.ID})

	if _, err := query.RunWith(s.db).ExecContext(ctx); err != nil {
		return &customerr.StorageError{Err: errors.Wrap(err, "update transaction")}
	}
	return nil
}

func (s *PostgresStorage) DeleteTransaction(ctx context.Context, id int64) error {
	query := psql.Delete("transactions").Where(sq.Eq{"id": id})
	if _, err := query.RunWith(s.db).ExecContext(ctx); err != nil {
		return &customerr.StorageError{Err: errors.Wrap(err, "delete transaction")}
	}
	return nil
}

func (s *PostgresStorage) TransactionByID(ctx context.Context, id int64) (ledger.Transaction, error) {
	query := transactionSelect().Where(sq.Eq{"t.id": id})

	var t ledger.Transaction
	err := query.RunWith(s.db).QueryRowContext(ctx).Scan(
		&t.ID, &t.UserID, &t.CategoryID, &t.Category, &t.Amount, &t.Kind,
		&t.Description, &t.Tags, &t.Recurring, &t.OccurredAt, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Transaction{}, &customerr.NotFoundError{Entity: "transaction"}
	}
	if err != nil {
		return ledger.Transaction{}, &customerr.StorageError{Err: errors.Wrap(err, "get transaction")}
	}
	return t, nil
}

func (s *PostgresStorage) ListTransactions(ctx context.Context, userID int64, filter ledger.TransactionFilter) ([]ledger.Transaction, int64, error) {
	where := sq.And{sq.Eq{"t.user_id": userID}}
	if filter.Search != "" {
		where = append(where, sq.ILike{"t.description": "%" + filter.Search + "%"})
	}
	if filter.Kind != "" {
		where = append(where, sq.Eq{"t.kind": filter.Kind})
	}

	countQuery := psql.Select("count(*)").
		From("transactions t").
		Where(where)
	var total int64
	if err := countQuery.RunWith(s.db).QueryRowContext(ctx).Scan(&total); err != nil {
		return nil, 0, &customerr.StorageError{Err: errors.Wrap(err, "count transactions")}
	}

	offset := uint64(filter.Page-1) * uint64(filter.PerPage)
	query := transactionSelect().
		Where(where).
		OrderBy("t.occurred_at DESC", "t.id DESC").
		Limit(uint64(filter.PerPage)).
		Offset(offset)

	items, err := s.queryTransactions(ctx, query, "list transactions")
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *PostgresStorage) RecentTransactions(ctx context.Context, userID int64, limit uint64) ([]ledger.Transaction, error) {
	query := transactionSelect().
		Where(sq.Eq{"t.user_id": userID}).
		OrderBy("t.occurred_at DESC", "t.id DESC").
		Limit(limit)
	return s.queryTransactions(ctx, query, "recent transactions")
}

func (s *PostgresStorage) TransactionsInRange(ctx context.Context, userID int64, from, to time.Time) ([]ledger.Transaction, error) {
	query := transactionSelect().
		Where(sq.Eq{"t.user_id": userID}).
		Where(sq.GtOrEq{"t.occurred_at": from}).
		Where(sq.Lt{"t.occurred_at": to}).
		OrderBy("t.occurred_at ASC", "t.id ASC")
	return s.queryTransactions(ctx, query, "transactions in range")
}

// SumAmount sums over the half-open window [from, to).
func (s *PostgresStorage) SumAmount(ctx context.Context, userID int64, kind ledger.Kind, from, to time.Time) (decimal.Decimal, error) {
	query := psql.Select("COALESCE(SUM(amount), 0)").
		From("transactions").
		Where(sq.Eq{"user_id": userID, "kind": kind}).
		Where(sq.GtOrEq{"occurred_at": from}).
		Where(sq.Lt{"occurred_at": to})
	return s.scanSum(ctx, query, "sum amount")
}

// SumAmountThrough sums over the inclusive window [from, through]. The
// dashboard's current period needs this boundary; it is not interchangeable
// with SumAmount.
func (s *PostgresStorage) SumAmountThrough(ctx context.Context, userID int64, kind ledger.Kind, from, through time.Time) (decimal.Decimal, error) {
	query := psql.Select("COALESCE(SUM(amount), 0)").
		From("transactions").
		Where(sq.Eq{"user_id": userID, "kind": kind}).
		Where(sq.GtOrEq{"occurred_at": from}).
		Where(sq.LtOrEq{"occurred_at": through})
	return s.scanSum(ctx, query, "sum amount through")
}

// SumCategoryExpensesSince sums expenses of one category from since onward
// with no upper bound.
func (s *PostgresStorage) SumCategoryExpensesSince(ctx context.Context, userID, categoryID int64, since time.Time) (decimal.Decimal, error) {
	query := psql.Select("COALESCE(SUM(amount), 0)").
		From("transactions").
		Where(sq.Eq{"user_id": userID, "category_id": categoryID, "kind": ledger.KindExpense}).
		Where(sq.GtOrEq{"occurred_at": since})
	return s.scanSum(ctx, query, "sum category expenses")
}

func (s *PostgresStorage) ExpensesByCategory(ctx context.Context, userID int64, from, to time.Time) ([]ledger.CategorySum, error) {
	query := breakdownQuery(userID, from).Where(sq.Lt{"t.occurred_at": to})
	return s.queryBreakdown(ctx, query)
}

func (s *PostgresStorage) ExpensesByCategoryThrough(ctx context.Context, userID int64, from, through time.Time) ([]ledger.CategorySum, error) {
	query := breakdownQuery(userID, from).Where(sq.LtOrEq{"t.occurred_at": through})
	return s.queryBreakdown(ctx, query)
}

// ---- budgets ----

func (s *PostgresStorage) CreateBudget(ctx context.Context, b ledger.Budget) (int64, error) {
	query := psql.Insert("budgets").
		Columns("user_id", "category_id", "limit_amount", "timeframe", "start_date").
		Values(b.UserID, b.CategoryID, b.LimitAmount, b.Timeframe, b.StartDate).
		Suffix("RETURNING id")

	var id int64
	err := query.RunWith(s.db).QueryRowContext(ctx).Scan(&id)
	if err != nil {
		// the application pre-check is racy; the unique index on
		// (user_id, category_id) is the backstop
		if isUniqueViolation(err) {
			return 0, &customerr.ConflictError{Err: "a budget already exists for this category"}
		}
		return 0, &customerr.StorageError{Err: errors.Wrap(err, "create budget")}
	}
	return id, nil
}

func (s *PostgresStorage) UpdateBudget(ctx context.Context, b ledger.Budget) error {
	query := psql.Update("budgets").
		Set("category_id", b.CategoryID).
		Set("limit_amount", b.LimitAmount).
		Set("timeframe", b.Timeframe).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": b.ID})

	if _, err := query.RunWith(s.db).ExecContext(ctx); err != nil {
		if isUniqueViolation(err) {
			return &customerr.ConflictError{Err: "a budget already exists for this category"}
		}
		return &customerr.StorageError{Err: errors.Wrap(err, "update budget")}
	}
	return nil
}

func (s *PostgresStorage) DeleteBudget(ctx context.Context, id int64) error {
	query := psql.Delete("budgets").Where(sq.Eq{"id": id})
	if _, err := query.RunWith(s.db).ExecContext(ctx); err != nil {
		return &customerr.StorageError{Err: errors.Wrap(err, "delete budget")}
	}
	return nil
}

func (s *PostgresStorage) BudgetByID(ctx context.Context, id int64) (ledger.Budget, error) {
	query := budgetSelect().Where(sq.Eq{"b.id": id})
	return s.scanBudget(ctx, query)
}

func (s *PostgresStorage) BudgetByCategory(ctx context.Context, userID, categoryID int64) (ledger.Budget, error) {
	query := budgetSelect().Where(sq.Eq{"b.user_id": userID, "b.category_id": categoryID})
	return s.scanBudget(ctx, query)
}

func (s *PostgresStorage) ListBudgets(ctx context.Context, userID int64) ([]ledger.Budget, error) {
	query := budgetSelect().
		Where(sq.Eq{"b.user_id": userID}).
		OrderBy("b.id ASC")

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, &customerr.StorageError{Err: errors.Wrap(err, "list budgets")}
	}
	defer closeRows(rows)

	budgets := make([]ledger.Budget, 0)
	for rows.Next() {
		var b ledger.Budget
		if err = rows.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Category, &b.LimitAmount,
			&b.Timeframe, &b.StartDate, &b.EndDate, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, &customerr.StorageError{Err: errors.Wrap(err, "list budgets")}
		}
		budgets = append(budgets, b)
	}
	if err = rows.Err(); err != nil {
		return nil, &customerr.StorageError{Err: errors.Wrap(err, "list budgets")}
	}
	return budgets, nil
}

// ---- helpers ----

func transactionSelect() sq.SelectBuilder {
	return psql.Select("t.id", "t.user_id", "t.category_id", "c.name",
		"t.amount", "t.kind", "t.description", "t.tags", "t.recurring",
		"t.occurred_at", "t.created_at", "t.updated_at").
		From("transactions t").
		Join("categories c ON c.id = t.category_id")
}

func budgetSelect() sq.SelectBuilder {
	return psql.Select("b.id", "b.user_id", "b.category_id", "c.name",
		"b.limit_amount", "b.timeframe", "b.start_date", "b.end_date",
		"b.created_at", "b.updated_at").
		From("budgets b").
		Join("categories c ON c.id = b.category_id")
}

func breakdownQuery(userID int64, from time.Time) sq.SelectBuilder {
	return psql.Select("c.name", "SUM(t.amount)").
		From("transactions t").
		Join("categories c ON c.id = t.category_id").
		Where(sq.Eq{"t.user_id": userID, "t.kind": ledger.KindExpense}).
		Where(sq.GtOrEq{"t.occurred_at": from}).
		GroupBy("c.name").
		OrderBy("SUM(t.amount) DESC")
}

func (s *PostgresStorage) queryBreakdown(ctx context.Context, query sq.SelectBuilder) ([]ledger.CategorySum, error) {
	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, &customerr.StorageError{Err: errors.Wrap(err, "expenses by category")}
	}
	defer closeRows(rows)

	sums := make([]ledger.CategorySum, 0)
	for rows.Next() {
		var c ledger.CategorySum
		if err = rows.Scan(&c.Name, &c.Amount); err != nil {
			return nil, &customerr.StorageError{Err: errors.Wrap(err, "expenses by category")}
		}
		sums = append(sums, c)
	}
	if err = rows.Err(); err != nil {
		return nil, &customerr.StorageError{Err: errors.Wrap(err, "expenses by category")}
	}
	return sums, nil
}

func (s *PostgresStorage) queryTransactions(ctx context.Context, query sq.SelectBuilder, op string) ([]ledger.Transaction, error) {
	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, &customerr.StorageError{Err: errors.Wrap(err, op)}
	}
	defer closeRows(rows)

	items := make([]ledger.Transaction, 0)
	for rows.Next() {
		var t ledger.Transaction
		if err = rows.Scan(&t.ID, &t.UserID, &t.CategoryID, &t.Category, &t.Amount, &t.Kind,
			&t.Description, &t.Tags, &t.Recurring, &t.OccurredAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, &customerr.StorageError{Err: errors.Wrap(err, op)}
		}
		items = append(items, t)
	}
	if err = rows.Err(); err != nil {
		return nil, &customerr.StorageError{Err: errors.Wrap(err, op)}
	}
	return items, nil
}

func (s *PostgresStorage) scanBudget(ctx context.Context, query sq.SelectBuilder) (ledger.Budget, error) {
	var b ledger.Budget
	err := query.RunWith(s.db).QueryRowContext(ctx).Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Category,
		&b.LimitAmount, &b.Timeframe, &b.StartDate, &b.EndDate, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Budget{}, &customerr.NotFoundError{Entity: "budget"}
	}
	if err != nil {
		return ledger.Budget{}, &customerr.StorageError{Err: errors.Wrap(err, "get budget")}
	}
	return b, nil
}

func (s *PostgresStorage) scanSum(ctx context.Context, query sq.SelectBuilder, op string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	if err := query.RunWith(s.db).QueryRowContext(ctx).Scan(&sum); err != nil {
		return decimal.Zero, &customerr.StorageError{Err: errors.Wrap(err, op)}
	}
	return sum, nil
}

func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logger.Error("error when transaction rollback", zap.Error(err))
	}
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		logger.Error("error closing rows", zap.Error(err))
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode
}
