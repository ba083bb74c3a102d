package income

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveWindow_BothDeadlinesPassed(t *testing.T) {
	// October 25th: both September's and August's reporting deadlines have
	// passed, so the base three-month window stands.
	w := ResolveWindow(date(2024, time.October, 15), date(2024, time.October, 25), true)

	if w.Months != 3 {
		t.Fatalf("expected 3 months, got %d", w.Months)
	}
	if !w.From.Equal(date(2024, time.July, 1)) {
		t.Fatalf("expected window to start July 2024, got %s", w.From)
	}
	if !w.To.Equal(date(2024, time.September, 1)) {
		t.Fatalf("expected window to end September 2024, got %s", w.To)
	}
}

func TestResolveWindow_LatestMonthNotYetDue(t *testing.T) {
	// On October 5th September's deadline has not passed yet, so the window
	// widens backward by one month.
	w := ResolveWindow(date(2024, time.October, 15), date(2024, time.October, 5), true)

	if w.Months != 4 {
		t.Fatalf("expected 4 months, got %d", w.Months)
	}
	if !w.From.Equal(date(2024, time.June, 1)) {
		t.Fatalf("expected window to start June 2024, got %s", w.From)
	}
	if !w.To.Equal(date(2024, time.September, 1)) {
		t.Fatalf("expected window to end September 2024, got %s", w.To)
	}
}

func TestResolveWindow_NeitherMonthDue(t *testing.T) {
	// On September 5th neither September's nor August's deadline has passed;
	// the window widens to the five-month maximum.
	w := ResolveWindow(date(2024, time.October, 15), date(2024, time.September, 5), true)

	if w.Months != 5 {
		t.Fatalf("expected 5 months, got %d", w.Months)
	}
	if !w.From.Equal(date(2024, time.May, 1)) {
		t.Fatalf("expected window to start May 2024, got %s", w.From)
	}
	if !w.To.Equal(date(2024, time.September, 1)) {
		t.Fatalf("expected window to end September 2024, got %s", w.To)
	}
}

func TestResolveWindow_NotContinuouslyEmployed(t *testing.T) {
	// A person without a full employment history always gets exactly three
	// months, regardless of reporting deadlines.
	w := ResolveWindow(date(2024, time.October, 15), date(2024, time.September, 5), false)

	if w.Months != 3 {
		t.Fatalf("expected 3 months for a new hire, got %d", w.Months)
	}
	if !w.From.Equal(date(2024, time.July, 1)) {
		t.Fatalf("expected window to start July 2024, got %s", w.From)
	}
}

func TestReportingDeadlinePassed(t *testing.T) {
	september := date(2024, time.September, 1)

	if ReportingDeadlinePassed(september, date(2024, time.October, 5)) {
		t.Fatal("the deadline day itself must not count as passed")
	}
	if !ReportingDeadlinePassed(september, date(2024, time.October, 6)) {
		t.Fatal("the day after the deadline must count as passed")
	}
	if ReportingDeadlinePassed(september, date(2024, time.September, 20)) {
		t.Fatal("a day inside the income month must not count as passed")
	}
}
