package income

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

const testOrg = "999888777"

func amount(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func record(month time.Time, amt string) SourceRecord {
	return SourceRecord{Month: month, EmployerOrg: testOrg, IncomeType: IncomeTypeSalary, Amount: amount(amt)}
}

func windowOf(from, to time.Time, months int) Window {
	return Window{Months: months, From: from, To: to}
}

func assertAverage(t *testing.T, s *Summary, want string) {
	t.Helper()
	if !s.Average.Valid {
		t.Fatalf("expected average %s, got null", want)
	}
	if !s.Average.Decimal.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("expected average %s, got %s", want, s.Average.Decimal)
	}
}

func TestAggregate_FullWindow(t *testing.T) {
	jul, aug, sep := date(2024, time.July, 1), date(2024, time.August, 1), date(2024, time.September, 1)
	records := []SourceRecord{record(jul, "25000"), record(aug, "25000"), record(sep, "25000")}

	summary, err := Aggregate(records, windowOf(jul, sep, 3), date(2024, time.October, 25), testOrg, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertAverage(t, summary, "25000")
	if len(summary.Months) != 3 {
		t.Fatalf("expected 3 months, got %d", len(summary.Months))
	}
	for _, m := range summary.Months {
		if m.Status != MonthUsedInAverage {
			t.Fatalf("expected every month tagged %s, got %s for %s", MonthUsedInAverage, m.Status, m.Month)
		}
	}
}

func TestAggregate_MissingMonthPastDeadlineStillDividesByThree(t *testing.T) {
	jul, aug, sep := date(2024, time.July, 1), date(2024, time.August, 1), date(2024, time.September, 1)
	records := []SourceRecord{record(jul, "25000"), record(sep, "25000")}

	summary, err := Aggregate(records, windowOf(jul, sep, 3), date(2024, time.October, 25), testOrg, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 50000 / 3 rounds to 16666.67 with banker's rounding at two decimals.
	assertAverage(t, summary, "16666.67")
	for _, m := range summary.Months {
		if m.Month.Equal(aug) && m.Status != MonthNotReportedUsedInAverage {
			t.Fatalf("expected August tagged %s, got %s", MonthNotReportedUsedInAverage, m.Status)
		}
	}
}

func TestAggregate_NegativeTotalClampedToZero(t *testing.T) {
	jul, aug, sep := date(2024, time.July, 1), date(2024, time.August, 1), date(2024, time.September, 1)
	records := []SourceRecord{record(jul, "3000"), record(aug, "-6000")}

	// September's deadline has not passed on October 5th.
	summary, err := Aggregate(records, windowOf(jul, sep, 3), date(2024, time.October, 5), testOrg, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertAverage(t, summary, "0")
	for _, m := range summary.Months {
		if m.Month.Equal(sep) && m.Status != MonthNotReportedDeadlineNotPassed {
			t.Fatalf("expected September tagged %s, got %s", MonthNotReportedDeadlineNotPassed, m.Status)
		}
	}
}

func TestAggregate_NewHireDividesByReportedMonths(t *testing.T) {
	jul, aug, sep := date(2024, time.July, 1), date(2024, time.August, 1), date(2024, time.September, 1)
	records := []SourceRecord{record(aug, "30000"), record(sep, "20000")}

	summary, err := Aggregate(records, windowOf(jul, sep, 3), date(2024, time.October, 25), testOrg, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Two reported months, so 50000 / 2.
	assertAverage(t, summary, "25000")
	for _, m := range summary.Months {
		if m.Month.Equal(jul) && m.Status != MonthNotReportedNewHire {
			t.Fatalf("expected July tagged %s, got %s", MonthNotReportedNewHire, m.Status)
		}
	}
}

func TestAggregate_NewHireWithNoIncomeAveragesZero(t *testing.T) {
	jul, sep := date(2024, time.July, 1), date(2024, time.September, 1)

	summary, err := Aggregate(nil, windowOf(jul, sep, 3), date(2024, time.October, 25), testOrg, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A computed zero stays a valid zero; only a source outage yields null.
	assertAverage(t, summary, "0")
}

func TestAggregate_WidenedWindowKeepsLatestThreeWhenAllReported(t *testing.T) {
	jun, jul, aug, sep := date(2024, time.June, 1), date(2024, time.July, 1), date(2024, time.August, 1), date(2024, time.September, 1)
	records := []SourceRecord{record(jun, "10000"), record(jul, "20000"), record(aug, "20000"), record(sep, "20000")}

	summary, err := Aggregate(records, windowOf(jun, sep, 4), date(2024, time.October, 5), testOrg, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(summary.Months) != 3 {
		t.Fatalf("expected the latest 3 months kept, got %d", len(summary.Months))
	}
	if !summary.Months[0].Month.Equal(jul) {
		t.Fatalf("expected June dropped, first kept month is %s", summary.Months[0].Month)
	}
	assertAverage(t, summary, "20000")
}

func TestAggregate_SparseWidenedWindowDropsOldestSurplus(t *testing.T) {
	may, jun, jul, aug, sep := date(2024, time.May, 1), date(2024, time.June, 1), date(2024, time.July, 1), date(2024, time.August, 1), date(2024, time.September, 1)
	records := []SourceRecord{record(may, "10000"), record(jun, "15000"), record(jul, "15000"), record(aug, "15000")}

	summary, err := Aggregate(records, windowOf(may, sep, 5), date(2024, time.September, 5), testOrg, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Four reported months in a five-month window: the oldest one goes, the
	// unreported September stays visible.
	if len(summary.Months) != 4 {
		t.Fatalf("expected 4 months after trimming, got %d", len(summary.Months))
	}
	if !summary.Months[0].Month.Equal(jun) {
		t.Fatalf("expected May dropped, first kept month is %s", summary.Months[0].Month)
	}
	assertAverage(t, summary, "15000")
}

func TestAggregate_MergesAndFiltersRecords(t *testing.T) {
	jul, aug, sep := date(2024, time.July, 1), date(2024, time.August, 1), date(2024, time.September, 1)
	records := []SourceRecord{
		// Two same-month rows for the target employer sum up.
		record(jul, "10000"),
		record(jul, "5000"),
		record(aug, "15000"),
		record(sep, "15000"),
		// Other employers and non-salary income are ignored.
		{Month: aug, EmployerOrg: "111222333", IncomeType: IncomeTypeSalary, Amount: amount("99999")},
		{Month: aug, EmployerOrg: testOrg, IncomeType: "PENSION", Amount: amount("99999")},
		// Rows without an amount are ignored.
		{Month: sep, EmployerOrg: testOrg, IncomeType: IncomeTypeSalary},
	}

	summary, err := Aggregate(records, windowOf(jul, sep, 3), date(2024, time.October, 25), testOrg, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertAverage(t, summary, "15000")
	if !summary.Months[0].Amount.Decimal.Equal(decimal.RequireFromString("15000")) {
		t.Fatalf("expected July rows summed to 15000, got %s", summary.Months[0].Amount.Decimal)
	}
}

func TestAggregate_TooManyReportedMonthsIsAnError(t *testing.T) {
	// Four reported months in a three-month window cannot happen through
	// ResolveWindow; summarize still refuses to average it.
	jun, jul, aug, sep := date(2024, time.June, 1), date(2024, time.July, 1), date(2024, time.August, 1), date(2024, time.September, 1)
	months := []monthAmount{
		{month: jun, amount: amount("1")},
		{month: jul, amount: amount("1")},
		{month: aug, amount: amount("1")},
		{month: sep, amount: amount("1")},
	}

	_, err := summarize(months, date(2024, time.October, 25), testOrg, true)
	if !errors.Is(err, ErrTooManyReportedMonths) {
		t.Fatalf("expected ErrTooManyReportedMonths, got %v", err)
	}
}

func TestOutageSummary(t *testing.T) {
	summary := OutageSummary(date(2024, time.October, 15), testOrg)

	if summary.Average.Valid {
		t.Fatalf("expected null average during an outage, got %s", summary.Average.Decimal)
	}
	if len(summary.Months) != 3 {
		t.Fatalf("expected 3 outage months, got %d", len(summary.Months))
	}
	want := []time.Time{date(2024, time.July, 1), date(2024, time.August, 1), date(2024, time.September, 1)}
	for i, m := range summary.Months {
		if !m.Month.Equal(want[i]) {
			t.Fatalf("expected month %s at position %d, got %s", want[i], i, m.Month)
		}
		if m.Status != MonthSourceOutage {
			t.Fatalf("expected every month tagged %s, got %s", MonthSourceOutage, m.Status)
		}
		if m.Amount.Valid {
			t.Fatalf("expected no amount during an outage, got %s", m.Amount.Decimal)
		}
	}
}
