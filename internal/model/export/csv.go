package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"max.ks1230/finance-tracker/internal/entity/ledger"
	"max.ks1230/finance-tracker/internal/model/period"
)

const (
	header         = "Date,Type,Category,Description,Amount"
	dateLayout     = "2006-01-02"
	filenameLayout = "20060102"
)

type transactionStorage interface {
	// TransactionsInRange lists transactions over [from, to) ordered by
	// occurrence ascending.
	TransactionsInRange(ctx context.Context, userID int64, from, to time.Time) ([]ledger.Transaction, error)
}

// Service renders the period export as CSV.
type Service struct {
	storage transactionStorage
}

func NewService(storage transactionStorage) *Service {
	return &Service{storage: storage}
}

// Build returns the CSV body for the user's full current period. Fields are
// NOT quoted or escaped: a description containing a comma shifts the columns
// of its row. Known limitation, kept for compatibility with existing
// consumers of the export.
func (s *Service) Build(ctx context.Context, userID int64, tf period.Timeframe, today time.Time) (string, error) {
	window, _ := period.ReportWindows(today, tf)
	transactions, err := s.storage.TransactionsInRange(ctx, userID, window.Start, window.End)
	if err != nil {
		return "", errors.Wrap(err, "build export")
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteByte('\n')
	for _, t := range transactions {
		fmt.Fprintf(&b, "%s,%s,%s,%s,%s\n",
			t.OccurredAt.Format(dateLayout),
			t.Kind,
			t.Category,
			t.Description,
			t.Amount.String(),
		)
	}
	return b.String(), nil
}

// Filename returns the attachment name for a period export.
func Filename(tf period.Timeframe, today time.Time) string {
	return fmt.Sprintf("finance_report_%s_%s.csv", tf, today.Format(filenameLayout))
}
