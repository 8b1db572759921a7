package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind tells whether a record moves money in or out.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// Timeframe is a budget period selector.
type Timeframe string

const (
	TimeframeWeekly  Timeframe = "weekly"
	TimeframeMonthly Timeframe = "monthly"
	TimeframeYearly  Timeframe = "yearly"
)

func (t Timeframe) Valid() bool {
	return t == TimeframeWeekly || t == TimeframeMonthly || t == TimeframeYearly
}

// Category groups transactions of a single user. Kind is fixed at creation:
// every transaction and budget referencing the category must carry the same kind.
type Category struct {
	ID        int64
	UserID    int64
	Name      string
	Kind      Kind
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Transaction is a single recorded cash movement. Amount is a non-negative
// magnitude; Kind gives it its sign in aggregation. OccurredAt is a naive
// UTC-equivalent instant, no timezone conversion is applied anywhere.
type Transaction struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"-"`
	CategoryID  int64           `json:"category_id"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        Kind            `json:"type"`
	Description string          `json:"description"`
	Tags        string          `json:"tags,omitempty"`
	Recurring   bool            `json:"recurring"`
	OccurredAt  time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"-"`
	UpdatedAt   time.Time       `json:"-"`
}

// Budget caps spending for one category of one user. StartDate/EndDate are
// recorded but the spend calculation always uses the current period as of now.
type Budget struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"-"`
	CategoryID  int64           `json:"category_id"`
	Category    string          `json:"category"`
	LimitAmount decimal.Decimal `json:"limit_amount"`
	Timeframe   Timeframe       `json:"timeframe"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     *time.Time      `json:"end_date,omitempty"`
	CreatedAt   time.Time       `json:"-"`
	UpdatedAt   time.Time       `json:"-"`
}

// TransactionFilter narrows and pages a transaction listing. An empty Kind
// matches both kinds.
type TransactionFilter struct {
	Search  string
	Kind    Kind
	Page    int
	PerPage int
}

// CategorySum is one row of an expense breakdown.
type CategorySum struct {
	Name   string
	Amount decimal.Decimal
}
