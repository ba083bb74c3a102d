package request

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OpenFilter narrows lookups of requests still under processing.
// CaseRef is required; the other fields are optional.
type OpenFilter struct {
	CaseRef         string
	OrgNumber       string
	IncomeBasisDate *time.Time
}

// Repository defines the operations for persisting and retrieving statement requests.
type Repository interface {
	Create(ctx context.Context, req *Request) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByUUID(ctx context.Context, id uuid.UUID) (*Request, error)

	// FindExact looks up a request by the full dedup tuple.
	FindExact(ctx context.Context, caseRef, orgNumber string, incomeBasisDate, firstAbsenceDate time.Time) (*Request, error)
	ListByCaseRef(ctx context.Context, caseRef string) ([]*Request, error)
	ListOpen(ctx context.Context, f OpenFilter) ([]*Request, error)
	ListOpenCreatedBefore(ctx context.Context, cutoff time.Time) ([]*Request, error)

	SetPortalCaseID(ctx context.Context, id uuid.UUID, caseID string) error
	SetPortalTaskID(ctx context.Context, id uuid.UUID, taskID string) error
	SetDialogID(ctx context.Context, id uuid.UUID, dialogID string) error
	// SetFirstAbsenceDate moves the first absence date; used only when a
	// new-hire resubmission carries a changed date.
	SetFirstAbsenceDate(ctx context.Context, id uuid.UUID, date time.Time) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
}
