// Package caselookup defines the lookup against the benefit-case system used
// when an employer initiates a statement for a person the system has no
// registered employment for.
package caselookup

import (
	"context"
	"database/sql"
	"time"

	"income_statement_service/internal/domain/request"
)

// CaseStatus is the benefit case's readiness for an income statement.
type CaseStatus string

const (
	StatusOpenForSubmission CaseStatus = "OPEN_FOR_SUBMISSION"
	StatusSubmittedTooEarly CaseStatus = "SUBMITTED_TOO_EARLY"
	StatusNoOpenCase        CaseStatus = "NO_OPEN_CASE"
)

// CaseInfo is what the benefit-case system knows about an actor's case.
type CaseInfo struct {
	Status           CaseStatus
	FirstAbsenceDate time.Time
	IncomeBasisDate  sql.NullTime
}

// Client fetches benefit-case info for an actor.
type Client interface {
	FetchCaseInfo(ctx context.Context, actorID string, benefitType request.BenefitType) (*CaseInfo, error)
}
