package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO 8601 calendar date format used for expense dates.
const DateLayout = "2006-01-02"

type (
	User struct {
		ID       int64
		Username string
		Budget   decimal.Decimal
	}

	Expense struct {
		ID          int64
		UserID      int64
		Description string
		Amount      decimal.Decimal
		Category    string
		Date        string // YYYY-MM-DD
	}
)

var (
	ErrNotFound      = errors.New("not found")
	ErrEmptyUsername = errors.New("empty username")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
)

// NormalizeUsername lowercases and trims a username. Two usernames identify
// the same user iff their normalized forms are equal.
func NormalizeUsername(username string) (string, error) {
	u := strings.ToLower(strings.TrimSpace(username))
	if u == "" {
		return "", ErrEmptyUsername
	}
	return u, nil
}

// ParseDate validates a user supplied date. An empty input resolves to the
// local calendar date of now.
func ParseDate(s string, now time.Time) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now.Format(DateLayout), nil
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return "", ErrInvalidDate
	}
	return s, nil
}
