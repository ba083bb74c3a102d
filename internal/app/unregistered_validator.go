package app

import (
	"fmt"
	"time"

	"income_statement_service/internal/domain/caselookup"
)

// Business-rule outcomes for the unregistered employer-initiated kind. Both
// are meant to reach the employer as a readable message, never retried.
var (
	ErrNoOpenCase        = fmt.Errorf("no benefit case open for an income statement for this person")
	ErrSubmittedTooEarly = fmt.Errorf("income statement submitted too early")
)

// validateUnregisteredCase checks that the benefit case allows an
// employer-initiated statement for an unregistered employment. Statements
// cannot be submitted earlier than one month before the first absence date.
func validateUnregisteredCase(info *caselookup.CaseInfo, today time.Time) error {
	switch info.Status {
	case caselookup.StatusOpenForSubmission:
		tooEarlyLimit := today.AddDate(0, 1, 0)
		if info.FirstAbsenceDate.After(tooEarlyLimit) {
			return ErrSubmittedTooEarly
		}
		return nil
	case caselookup.StatusSubmittedTooEarly:
		return ErrSubmittedTooEarly
	default:
		return ErrNoOpenCase
	}
}
