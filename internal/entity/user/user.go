package user

import (
	"time"
)

const (
	defaultCurrency   = "$"
	defaultDateFormat = "DD/MM/YYYY"
	defaultTimezone   = "UTC"
)

// Record is a registered user with display preferences. Preferences only
// affect presentation, never aggregation.
type Record struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Currency     string
	DateFormat   string
	Timezone     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (r *Record) CurrencyOrDefault() string {
	if r.Currency != "" {
		return r.Currency
	}
	return defaultCurrency
}

func (r *Record) DateFormatOrDefault() string {
	if r.DateFormat != "" {
		return r.DateFormat
	}
	return defaultDateFormat
}

func (r *Record) TimezoneOrDefault() string {
	if r.Timezone != "" {
		return r.Timezone
	}
	return defaultTimezone
}
