package income

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthStatus tells the caller where a displayed month's amount came from.
type MonthStatus string

const (
	MonthUsedInAverage                MonthStatus = "USED_IN_AVERAGE"
	MonthNotReportedUsedInAverage     MonthStatus = "NOT_REPORTED_BUT_USED_IN_AVERAGE"
	MonthNotReportedDeadlineNotPassed MonthStatus = "NOT_REPORTED_DEADLINE_NOT_PASSED"
	MonthNotReportedNewHire           MonthStatus = "NOT_REPORTED_NEW_HIRE"
	MonthSourceOutage                 MonthStatus = "SOURCE_OUTAGE"
)

// MonthlyEntry is one calendar month shown to the employer, with the
// provenance of its amount. Computed per request, never persisted.
type MonthlyEntry struct {
	Month  time.Time // first day of the month
	Amount decimal.NullDecimal
	Status MonthStatus
}

// Summary is the result of the income computation: the tagged months plus
// the rounded three-month average. Average is null only when the income
// source was down; a computed zero stays a valid zero.
type Summary struct {
	Average   decimal.NullDecimal
	OrgNumber string
	Months    []MonthlyEntry
}
