package income

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ErrTooManyReportedMonths signals an invariant violation: trimming must
// guarantee at most three months with a reported amount.
var ErrTooManyReportedMonths = errors.New("more than three months with reported income after trimming")

const averagedMonths = 3

type monthAmount struct {
	month  time.Time
	amount decimal.NullDecimal
}

// Aggregate merges the raw records for the target employer into per-month
// totals, fills months missing from the window, trims surplus months, tags
// each remaining month with a provenance status and computes the rounded
// average. The negative-total and new-hire denominator policies from the
// statement pre-fill rules apply.
func Aggregate(records []SourceRecord, w Window, today time.Time, orgNumber string, continuouslyEmployed bool) (*Summary, error) {
	merged := mergeByMonth(records, orgNumber)
	all := fillMissingMonths(w, merged)
	kept := trimSurplusMonths(all)
	return summarize(kept, today, orgNumber, continuouslyEmployed)
}

// OutageSummary is the degraded result when the income register is down:
// the three months preceding the basis month, no amounts, no average.
func OutageSummary(basisDate time.Time, orgNumber string) *Summary {
	basisMonth := MonthOf(basisDate)
	months := make([]MonthlyEntry, 0, averagedMonths)
	for i := averagedMonths; i >= 1; i-- {
		months = append(months, MonthlyEntry{
			Month:  basisMonth.AddDate(0, -i, 0),
			Status: MonthSourceOutage,
		})
	}
	return &Summary{OrgNumber: orgNumber, Months: months}
}

// mergeByMonth sums same-month salary amounts for the target employer into
// one total per month. Months without a qualifying record stay absent.
func mergeByMonth(records []SourceRecord, orgNumber string) []monthAmount {
	totals := make(map[time.Time]decimal.Decimal)
	for _, rec := range records {
		if rec.EmployerOrg != orgNumber || rec.IncomeType != IncomeTypeSalary || !rec.Amount.Valid {
			continue
		}
		month := MonthOf(rec.Month)
		totals[month] = totals[month].Add(rec.Amount.Decimal)
	}
	merged := make([]monthAmount, 0, len(totals))
	for month, total := range totals {
		merged = append(merged, monthAmount{month: month, amount: decimal.NewNullDecimal(total)})
	}
	return merged
}

func fillMissingMonths(w Window, merged []monthAmount) []monthAmount {
	all := append([]monthAmount(nil), merged...)
	for month := w.From; !month.After(w.To); month = month.AddDate(0, 1, 0) {
		if !containsMonth(merged, month) {
			all = append(all, monthAmount{month: month})
		}
	}
	return all
}

func containsMonth(months []monthAmount, month time.Time) bool {
	for _, m := range months {
		if m.month.Equal(month) {
			return true
		}
	}
	return false
}

// trimSurplusMonths keeps exactly the three most recent months when all of
// them carry a reported amount. Otherwise, if more than three months carry
// an amount across the window, the oldest surplus months are dropped; sparse
// data legitimately keeps the whole window.
func trimSurplusMonths(all []monthAmount) []monthAmount {
	sort.Slice(all, func(i, j int) bool { return all[i].month.Before(all[j].month) })

	latestThree := all[len(all)-averagedMonths:]
	allReported := true
	for _, m := range latestThree {
		if !m.amount.Valid {
			allReported = false
			break
		}
	}
	if allReported {
		return latestThree
	}

	reported := 0
	for _, m := range all {
		if m.amount.Valid {
			reported++
		}
	}
	if surplus := reported - averagedMonths; surplus > 0 {
		return all[surplus:]
	}
	return all
}

func summarize(months []monthAmount, today time.Time, orgNumber string, continuouslyEmployed bool) (*Summary, error) {
	entries := make([]MonthlyEntry, 0, len(months))
	reported := 0
	total := decimal.Zero
	for _, m := range months {
		entries = append(entries, tagMonth(m, today, continuouslyEmployed))
		if m.amount.Valid {
			reported++
			total = total.Add(m.amount.Decimal)
		}
	}
	if reported > averagedMonths {
		return nil, fmt.Errorf("%w: mapped months were %v", ErrTooManyReportedMonths, entries)
	}

	// A negative total is clamped to zero so the statement never carries a
	// negative average.
	if total.IsNegative() {
		total = decimal.Zero
	}

	denominator := averagedMonths
	if !continuouslyEmployed {
		// Only the months with actual income count for someone who did not
		// work the whole lookback period.
		denominator = reported
	}
	average := decimal.Zero
	if denominator != 0 {
		average = total.Div(decimal.NewFromInt(int64(denominator))).RoundBank(2)
	}
	return &Summary{
		Average:   decimal.NewNullDecimal(average),
		OrgNumber: orgNumber,
		Months:    entries,
	}, nil
}

func tagMonth(m monthAmount, today time.Time, continuouslyEmployed bool) MonthlyEntry {
	entry := MonthlyEntry{Month: m.month, Amount: m.amount}
	switch {
	case m.amount.Valid:
		entry.Status = MonthUsedInAverage
	case !continuouslyEmployed:
		entry.Status = MonthNotReportedNewHire
	case ReportingDeadlinePassed(m.month, today):
		entry.Status = MonthNotReportedUsedInAverage
	default:
		entry.Status = MonthNotReportedDeadlineNotPassed
	}
	return entry
}
