// Package notify defines the interfaces this service needs from the two
// external notification systems: the employer-facing case/task portal and
// the government-wide dialog system. This decouples the lifecycle logic
// from the concrete HTTP clients.
package notify

import (
	"context"
	"time"
)

// CaseInput describes the portal case created for a statement request.
type CaseInput struct {
	GroupingID string // request UUID; groups the case with its task and notices
	OrgNumber  string
	Title      string
	Label      string // benefit-type label shown in the portal
	FormLink   string
}

// TaskInput describes the visible to-do item attached to a case.
type TaskInput struct {
	GroupingID   string
	OrgNumber    string
	Label        string
	Text         string
	AlertText    string // sent as an external alert when the task is created
	ReminderText string
	FormLink     string
}

// NoticeInput describes a free-standing portal notice tied to a request.
type NoticeInput struct {
	GroupingID    string
	OrgNumber     string
	Label         string
	Text          string
	AlertText     string // empty when the notice carries no external alert
	Link          string
	ExternalAlert bool
}

// PortalClient is the employer-facing case/task notification system.
// None of the operations are safe to retry.
type PortalClient interface {
	CreateCase(ctx context.Context, in CaseInput) (string, error)
	CreateTask(ctx context.Context, in TaskInput) (string, error)
	DeleteCase(ctx context.Context, caseID string) error
	MarkTaskDone(ctx context.Context, taskID string, when time.Time) error
	MarkTaskExpired(ctx context.Context, taskID string, when time.Time) error
	// MarkCaseDone closes the case; employer-initiated cases are closed
	// without a receipt step in the portal.
	MarkCaseDone(ctx context.Context, caseID string, employerInitiated bool) error
	UpdateCaseSecondaryText(ctx context.Context, caseID, text string) error
	SendNotice(ctx context.Context, in NoticeInput) error
}

// DialogInput describes the dialog mirroring a request in the dialog system.
type DialogInput struct {
	GroupingID       string // request UUID
	OrgNumber        string
	Title            string
	BenefitType      string
	FirstAbsenceDate time.Time
	FormLink         string
}

// DialogCompletion carries what the dialog system needs to close a dialog.
type DialogCompletion struct {
	DialogID         string
	OrgNumber        string
	Title            string
	BenefitType      string
	FirstAbsenceDate time.Time
	StatementRef     string // empty when the filing is not stored locally
	Reason           string
}

// DialogClient mirrors case status into the dialog system. All operations
// are fire-and-check-status; no return value beyond success is consumed.
type DialogClient interface {
	CreateDialog(ctx context.Context, in DialogInput) (string, error)
	CompleteDialog(ctx context.Context, in DialogCompletion) error
	MarkDialogNotApplicable(ctx context.Context, dialogID, title string) error
	NotifyUpdatedStatement(ctx context.Context, dialogID, orgNumber, statementRef string) error
}
