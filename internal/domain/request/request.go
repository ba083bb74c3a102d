package request

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a statement request.
type Status string

const (
	StatusUnderProcessing Status = "UNDER_PROCESSING"
	StatusDone            Status = "DONE"
	StatusExpired         Status = "EXPIRED"
)

// Kind says who asked for the statement and why.
type Kind string

const (
	KindSystemOrdered                 Kind = "SYSTEM_ORDERED"
	KindEmployerInitiatedNewHire      Kind = "EMPLOYER_INITIATED_NEW_HIRE"
	KindEmployerInitiatedUnregistered Kind = "EMPLOYER_INITIATED_UNREGISTERED"
)

// BenefitType is the benefit the statement supports.
type BenefitType string

const (
	BenefitParental  BenefitType = "PARENTAL_BENEFIT"
	BenefitPregnancy BenefitType = "PREGNANCY_BENEFIT"
)

// Request is one tracked ask for an employer income statement.
// Corresponds to the 'statement_requests' table.
//
// OrgNumber, ActorID, BenefitType, Kind and IncomeBasisDate are immutable
// after creation; the store never updates them.
type Request struct {
	ID               int64
	UUID             uuid.UUID // external reference, set before insert
	OrgNumber        string
	ActorID          string
	BenefitType      BenefitType
	Kind             Kind
	Status           Status
	CaseRef          sql.NullString // ordering-system case reference, system-ordered requests only
	IncomeBasisDate  sql.NullTime   // absent for the new-hire kind
	FirstAbsenceDate time.Time
	PortalCaseID     sql.NullString
	PortalTaskID     sql.NullString // employer-initiated requests have no task
	DialogID         sql.NullString // absent until the dialog integration succeeds
	CreatedAt        time.Time
	UpdatedAt        sql.NullTime
}

// RequiresTask reports whether the request gets a visible to-do item in the
// employer portal. Employer-initiated requests are filled in immediately by
// the employer, so no task is created for them.
func (r *Request) RequiresTask() bool {
	return r.Kind == KindSystemOrdered
}

// IsEmployerInitiated reports whether the employer, not the ordering system,
// started this request.
func (r *Request) IsEmployerInitiated() bool {
	return r.Kind == KindEmployerInitiatedNewHire || r.Kind == KindEmployerInitiatedUnregistered
}
