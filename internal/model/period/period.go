package period

import (
	"fmt"
	"time"

	"github.com/jinzhu/now"
)

// Timeframe is the reporting granularity selector.
type Timeframe string

const (
	TimeframeMonth   Timeframe = "month"
	TimeframeQuarter Timeframe = "quarter"
	TimeframeYear    Timeframe = "year"
)

const (
	dayLabelLayout   = "02 Jan"
	monthLabelLayout = "Jan 2006"
	isoLabelLayout   = "2006-01-02"
)

// Parse accepts the dashboard/reports vocabulary: month, quarter, year.
func Parse(s string) (Timeframe, error) {
	switch Timeframe(s) {
	case TimeframeMonth, TimeframeQuarter, TimeframeYear:
		return Timeframe(s), nil
	}
	return "", fmt.Errorf("timeframe %q is not supported", s)
}

// chart endpoints use their own vocabulary; external callers depend on it,
// so it is kept separate from Parse and never unified.
var chartOptions = map[string]Timeframe{
	"This Month":   TimeframeMonth,
	"This Quarter": TimeframeQuarter,
	"This Year":    TimeframeYear,
}

// ParseChartOption accepts the chart endpoint vocabulary: "This Month",
// "This Quarter", "This Year".
func ParseChartOption(s string) (Timeframe, error) {
	tf, ok := chartOptions[s]
	if !ok {
		return "", fmt.Errorf("chart option %q is not supported", s)
	}
	return tf, nil
}

// ChartOptions lists the accepted chart vocabulary tokens.
func ChartOptions() []string {
	return []string{"This Month", "This Quarter", "This Year"}
}

// Window is a half-open date range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Bucket is one point of a trend series.
type Bucket struct {
	Label  string
	Window Window
}

// ReportWindows maps today to the full current calendar unit and the full
// previous one, both half-open. The current window may extend past today.
func ReportWindows(today time.Time, tf Timeframe) (cur, prev Window) {
	switch tf {
	case TimeframeQuarter:
		start := now.With(today).BeginningOfQuarter()
		cur = Window{Start: start, End: start.AddDate(0, 3, 0)}
		prev = Window{Start: start.AddDate(0, -3, 0), End: start}
	case TimeframeYear:
		start := now.With(today).BeginningOfYear()
		cur = Window{Start: start, End: start.AddDate(1, 0, 0)}
		prev = Window{Start: start.AddDate(-1, 0, 0), End: start}
	default: // month
		start := now.With(today).BeginningOfMonth()
		cur = Window{Start: start, End: start.AddDate(0, 1, 0)}
		prev = Window{Start: start.AddDate(0, -1, 0), End: start}
	}
	return cur, prev
}

// DashboardWindows maps today to the dashboard's asymmetric pair: the current
// window runs from the beginning of the unit THROUGH today (the caller must
// sum it with an inclusive upper bound), while the previous window is the
// full prior calendar unit. The asymmetry is intentional and load-bearing:
// a partial current period is compared against a complete previous one.
func DashboardWindows(today time.Time, tf Timeframe) (cur, prev Window) {
	switch tf {
	case TimeframeQuarter:
		start := now.With(today).BeginningOfQuarter()
		cur = Window{Start: start, End: today}
		// previous quarter needs an explicit year rollover when the
		// current quarter is Q1
		quarter := (int(today.Month())-1)/3 + 1
		var prevStart time.Time
		if quarter == 1 {
			prevStart = time.Date(start.Year()-1, time.October, 1, 0, 0, 0, 0, today.Location())
		} else {
			prevStart = time.Date(start.Year(), time.Month((quarter-2)*3+1), 1, 0, 0, 0, 0, today.Location())
		}
		prev = Window{Start: prevStart, End: start}
	case TimeframeYear:
		start := now.With(today).BeginningOfYear()
		cur = Window{Start: start, End: today}
		prev = Window{Start: start.AddDate(-1, 0, 0), End: start}
	default: // month
		start := now.With(today).BeginningOfMonth()
		cur = Window{Start: start, End: today}
		prev = Window{Start: start.AddDate(0, -1, 0), End: start}
	}
	return cur, prev
}

// DashboardTrendBuckets produces the page-render trend series: one bucket per
// calendar day of the current month (or per month of the quarter/year),
// skipping buckets that start after today.
func DashboardTrendBuckets(today time.Time, tf Timeframe) []Bucket {
	buckets := make([]Bucket, 0)
	for _, b := range fullPeriodBuckets(today, tf, labelForTrend(tf)) {
		if b.Window.Start.After(today) {
			continue
		}
		buckets = append(buckets, b)
	}
	return buckets
}

// ChartTrendBuckets produces the chart endpoint's trend series: the same
// shapes as DashboardTrendBuckets but with NO future-skipping, so a month
// always yields all 28-31 day buckets.
func ChartTrendBuckets(today time.Time, tf Timeframe) []Bucket {
	return fullPeriodBuckets(today, tf, labelForTrend(tf))
}

// ReportTrendBuckets produces the reports page trend series: full-period
// buckets labelled with ISO dates.
func ReportTrendBuckets(today time.Time, tf Timeframe) []Bucket {
	return fullPeriodBuckets(today, tf, isoLabelLayout)
}

func labelForTrend(tf Timeframe) string {
	if tf == TimeframeMonth {
		return dayLabelLayout
	}
	return monthLabelLayout
}

func fullPeriodBuckets(today time.Time, tf Timeframe, labelLayout string) []Bucket {
	loc := today.Location()
	switch tf {
	case TimeframeQuarter:
		start := now.With(today).BeginningOfQuarter()
		return monthBuckets(start, 3, labelLayout)
	case TimeframeYear:
		start := now.With(today).BeginningOfYear()
		return monthBuckets(start, 12, labelLayout)
	default: // month
		start := now.With(today).BeginningOfMonth()
		days := daysInMonth(today)
		buckets := make([]Bucket, 0, days)
		for day := 0; day < days; day++ {
			dayStart := time.Date(start.Year(), start.Month(), day+1, 0, 0, 0, 0, loc)
			buckets = append(buckets, Bucket{
				Label:  dayStart.Format(labelLayout),
				Window: Window{Start: dayStart, End: dayStart.AddDate(0, 0, 1)},
			})
		}
		return buckets
	}
}

func monthBuckets(start time.Time, months int, labelLayout string) []Bucket {
	buckets := make([]Bucket, 0, months)
	for i := 0; i < months; i++ {
		monthStart := time.Date(start.Year(), start.Month()+time.Month(i), 1, 0, 0, 0, 0, start.Location())
		buckets = append(buckets, Bucket{
			Label:  monthStart.Format(labelLayout),
			Window: Window{Start: monthStart, End: monthStart.AddDate(0, 1, 0)},
		})
	}
	return buckets
}

// TrailingMonths produces n calendar-month buckets ending at today's month,
// oldest first, labelled "Jan 2006". Month arithmetic goes through
// year/month components rather than AddDate so that a day-31 today cannot
// skip short months.
func TrailingMonths(today time.Time, n int) []Bucket {
	buckets := make([]Bucket, 0, n)
	for i := n - 1; i >= 0; i-- {
		monthStart := time.Date(today.Year(), today.Month()-time.Month(i), 1, 0, 0, 0, 0, today.Location())
		buckets = append(buckets, Bucket{
			Label:  monthStart.Format(monthLabelLayout),
			Window: Window{Start: monthStart, End: monthStart.AddDate(0, 1, 0)},
		})
	}
	return buckets
}

func daysInMonth(t time.Time) int {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return first.AddDate(0, 1, -1).Day()
}
