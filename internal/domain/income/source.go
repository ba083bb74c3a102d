package income

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// IncomeTypeSalary is the only income type that counts toward the average.
const IncomeTypeSalary = "SALARY"

// ErrSourceUnavailable marks integration-level failures from the income
// register. The aggregation degrades to an outage result instead of failing.
var ErrSourceUnavailable = errors.New("income source unavailable")

// SourceRecord is one raw per-month income record from the income register.
type SourceRecord struct {
	Month       time.Time // first day of the month
	EmployerOrg string
	IncomeType  string
	Amount      decimal.NullDecimal
}

// Source fetches raw monthly income records for an actor over an inclusive
// month range.
type Source interface {
	FetchMonthlyIncome(ctx context.Context, actorID string, from, to time.Time) ([]SourceRecord, error)
}
