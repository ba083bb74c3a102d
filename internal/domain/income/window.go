package income

import "time"

// Income for a month is expected to be reported by the 5th of the following month.
const reportingDeadlineDay = 5

// Window is the resolved lookback range: how many months of raw income data
// to request, and the inclusive month range [From, To].
type Window struct {
	Months int
	From   time.Time // first month, inclusive
	To     time.Time // last month, inclusive
}

// ResolveWindow computes the lookback window ending the month before the
// income basis date. The base window is three months. When the person was
// continuously employed and the reporting deadline for one or both of the
// two months preceding the basis month has not yet passed, the window widens
// backward by one month each, so three usable months remain available. A
// person not continuously employed always gets exactly three months.
func ResolveWindow(basisDate, today time.Time, continuouslyEmployed bool) Window {
	months := 3
	basisMonth := MonthOf(basisDate)
	if continuouslyEmployed {
		if !ReportingDeadlinePassed(basisMonth.AddDate(0, -1, 0), today) {
			months++
		}
		if !ReportingDeadlinePassed(basisMonth.AddDate(0, -2, 0), today) {
			months++
		}
	}
	return Window{
		Months: months,
		From:   basisMonth.AddDate(0, -months, 0),
		To:     basisMonth.AddDate(0, -1, 0),
	}
}

// ReportingDeadlinePassed reports whether the statutory reporting deadline
// for the given income month is strictly before today. On the deadline day
// itself the month is still not expected to be reported.
func ReportingDeadlinePassed(month, today time.Time) bool {
	next := MonthOf(month).AddDate(0, 1, 0)
	deadline := time.Date(next.Year(), next.Month(), reportingDeadlineDay, 0, 0, 0, 0, time.UTC)
	return dateOf(today).After(deadline)
}

// MonthOf normalizes a date to the first day of its calendar month.
func MonthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
