package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"income_statement_service/internal/domain/caselookup"
	"income_statement_service/internal/domain/notify"
	"income_statement_service/internal/domain/request"
	idb "income_statement_service/internal/infra/database"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CreateResult is the outcome of an incoming creation order.
type CreateResult string

const (
	ResultCreated       CreateResult = "CREATED"
	ResultAlreadyExists CreateResult = "ALREADY_EXISTS"
)

// ReminderResult is the outcome of a caseworker-ordered reminder notice.
type ReminderResult string

const (
	ReminderSent          ReminderResult = "REMINDER_SENT"
	ReminderNoOpenRequest ReminderResult = "NO_OPEN_REQUEST"
)

// ErrInvalidState marks invariant violations: the caller hit a state that
// only an upstream consistency bug can produce. Never retried.
var ErrInvalidState = errors.New("request state invalid")

// EmployerInitiatedInput carries the pre-resolved identity for a request the
// employer starts on its own.
type EmployerInitiatedInput struct {
	Kind             request.Kind
	OrgNumber        string
	ActorID          string
	BenefitType      request.BenefitType
	FirstAbsenceDate time.Time
}

// LifecycleService handles every change to a statement request and keeps the
// local store in step with the employer portal and the dialog system.
type LifecycleService struct {
	requests      request.Repository
	creator       *PortalCoordinator
	portal        notify.PortalClient
	dialogs       notify.DialogClient
	cases         caselookup.Client
	logger        *logrus.Logger
	formLink      string
	production    bool
	dialogEnabled bool
	now           func() time.Time
}

func NewLifecycleService(
	requests request.Repository,
	creator *PortalCoordinator,
	portal notify.PortalClient,
	dialogs notify.DialogClient,
	cases caselookup.Client,
	logger *logrus.Logger,
	formLink string,
	production bool,
	dialogEnabled bool,
) *LifecycleService {
	return &LifecycleService{
		requests:      requests,
		creator:       creator,
		portal:        portal,
		dialogs:       dialogs,
		cases:         cases,
		logger:        logger,
		formLink:      formLink,
		production:    production,
		dialogEnabled: dialogEnabled,
		now:           time.Now,
	}
}

// Get fetches a request by its external reference.
func (s *LifecycleService) Get(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	return s.requests.GetByUUID(ctx, id)
}

// CreateOnDemand handles a creation order from the benefit-case system. An
// identical (case ref, org, income basis date, first absence date) tuple is
// reported as already existing without any external side effect. Done
// requests for the same case and employer with an older income basis date
// are superseded first.
func (s *LifecycleService) CreateOnDemand(ctx context.Context, caseRef, orgNumber string, benefitType request.BenefitType, actorID string, incomeBasisDate, firstAbsenceDate time.Time) (CreateResult, error) {
	existing, err := s.requests.FindExact(ctx, caseRef, orgNumber, incomeBasisDate, firstAbsenceDate)
	if err != nil && !errors.Is(err, idb.ErrRequestNotFound) {
		return "", fmt.Errorf("checking for existing request: %w", err)
	}
	if existing != nil {
		s.logger.Infof("Request already exists for case ref %s, org %s, income basis date %s, first absence date %s",
			caseRef, orgNumber, incomeBasisDate.Format("2006-01-02"), firstAbsenceDate.Format("2006-01-02"))
		return ResultAlreadyExists, nil
	}

	if err := s.expireSupersededRequests(ctx, caseRef, orgNumber, incomeBasisDate); err != nil {
		return "", err
	}

	req := &request.Request{
		UUID:             uuid.New(),
		OrgNumber:        orgNumber,
		ActorID:          actorID,
		BenefitType:      benefitType,
		Kind:             request.KindSystemOrdered,
		Status:           request.StatusUnderProcessing,
		CaseRef:          sql.NullString{String: caseRef, Valid: true},
		IncomeBasisDate:  sql.NullTime{Time: incomeBasisDate, Valid: true},
		FirstAbsenceDate: firstAbsenceDate,
	}
	s.logger.Infof("Creating request, org: %s, income basis date: %s, case ref: %s, benefit: %s",
		orgNumber, incomeBasisDate.Format("2006-01-02"), caseRef, benefitType)
	if err := s.requests.Create(ctx, req); err != nil {
		if errors.Is(err, idb.ErrDuplicateRequest) {
			// A concurrent caller won the store-level uniqueness check.
			return ResultAlreadyExists, nil
		}
		return "", fmt.Errorf("creating request: %w", err)
	}

	if err := s.createPortalPresence(ctx, req); err != nil {
		return "", err
	}
	return ResultCreated, nil
}

// expireSupersededRequests closes done requests for the same case and
// employer whose income basis date differs from the incoming one. Requests
// still under processing are left alone; the benefit-case system has already
// closed those on its side.
func (s *LifecycleService) expireSupersededRequests(ctx context.Context, caseRef, orgNumber string, incomeBasisDate time.Time) error {
	all, err := s.requests.ListByCaseRef(ctx, caseRef)
	if err != nil {
		return fmt.Errorf("listing requests for case ref %s: %w", caseRef, err)
	}
	for _, req := range all {
		if req.OrgNumber != orgNumber || req.Status != request.StatusDone {
			continue
		}
		if req.IncomeBasisDate.Valid && req.IncomeBasisDate.Time.Equal(incomeBasisDate) {
			continue
		}
		if err := s.ExpireSilently(ctx, req); err != nil {
			return fmt.Errorf("superseding request %s: %w", req.UUID, err)
		}
	}
	return nil
}

// CreateEmployerInitiated creates a request the employer started on its own.
// New-hire requests carry no income basis date and no task. Unregistered
// requests are validated against the benefit case, which also resolves the
// income basis date.
func (s *LifecycleService) CreateEmployerInitiated(ctx context.Context, in EmployerInitiatedInput) (*request.Request, error) {
	req := &request.Request{
		UUID:             uuid.New(),
		OrgNumber:        in.OrgNumber,
		ActorID:          in.ActorID,
		BenefitType:      in.BenefitType,
		Kind:             in.Kind,
		Status:           request.StatusUnderProcessing,
		FirstAbsenceDate: in.FirstAbsenceDate,
	}
	switch in.Kind {
	case request.KindEmployerInitiatedNewHire:
		// No income basis date; a new hire has no reportable history yet.
	case request.KindEmployerInitiatedUnregistered:
		info, err := s.cases.FetchCaseInfo(ctx, in.ActorID, in.BenefitType)
		if err != nil {
			return nil, fmt.Errorf("fetching benefit case info: %w", err)
		}
		if err := validateUnregisteredCase(info, s.now()); err != nil {
			return nil, err
		}
		req.IncomeBasisDate = info.IncomeBasisDate
	default:
		return nil, fmt.Errorf("%w: kind %s cannot be created employer-initiated", ErrInvalidState, in.Kind)
	}

	s.logger.Infof("Creating employer-initiated request, org: %s, benefit: %s, kind: %s", in.OrgNumber, in.BenefitType, in.Kind)
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("creating employer-initiated request: %w", err)
	}
	if err := s.createPortalPresence(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// createPortalPresence creates the case (and task, for kinds that get one)
// in the employer portal, persists the returned ids and opens a dialog when
// that integration is enabled. A failed portal creation rolls the local row
// back so no request survives without its external presence.
func (s *LifecycleService) createPortalPresence(ctx context.Context, req *request.Request) error {
	caseIn := notify.CaseInput{
		GroupingID: req.UUID.String(),
		OrgNumber:  req.OrgNumber,
		Title:      caseTitle(req.BenefitType),
		Label:      BenefitTypeLabel(req.BenefitType),
		FormLink:   s.formURL(req.UUID),
	}
	secondary := secondaryText(ClosureOrdinarySubmission, req.FirstAbsenceDate)

	var caseID, taskID string
	var err error
	if req.RequiresTask() {
		taskIn := notify.TaskInput{
			GroupingID:   req.UUID.String(),
			OrgNumber:    req.OrgNumber,
			Label:        BenefitTypeLabel(req.BenefitType),
			Text:         taskText(req.BenefitType),
			AlertText:    alertText(req.BenefitType),
			ReminderText: alertText(req.BenefitType),
			FormLink:     s.formURL(req.UUID),
		}
		caseID, taskID, err = s.creator.CreateCaseWithTask(ctx, caseIn, secondary, taskIn)
	} else {
		caseID, err = s.creator.CreateCase(ctx, caseIn, secondary)
	}
	if err != nil {
		// The local row must not outlive a failed portal creation.
		if delErr := s.requests.Delete(ctx, req.UUID); delErr != nil {
			s.logger.Errorf("Rolling back request %s after portal failure failed: %v", req.UUID, delErr)
		}
		return err
	}

	if err := s.requests.SetPortalCaseID(ctx, req.UUID, caseID); err != nil {
		return fmt.Errorf("storing portal case id for request %s: %w", req.UUID, err)
	}
	req.PortalCaseID = sql.NullString{String: caseID, Valid: true}
	if taskID != "" {
		if err := s.requests.SetPortalTaskID(ctx, req.UUID, taskID); err != nil {
			return fmt.Errorf("storing portal task id for request %s: %w", req.UUID, err)
		}
		req.PortalTaskID = sql.NullString{String: taskID, Valid: true}
	}

	s.openDialog(ctx, req)
	return nil
}

// openDialog mirrors the request into the dialog system. Dialog failures do
// not fail creation; the request simply has no dialog id until one succeeds.
func (s *LifecycleService) openDialog(ctx context.Context, req *request.Request) {
	if !s.dialogEnabled {
		return
	}
	dialogID, err := s.dialogs.CreateDialog(ctx, notify.DialogInput{
		GroupingID:       req.UUID.String(),
		OrgNumber:        req.OrgNumber,
		Title:            caseTitle(req.BenefitType),
		BenefitType:      string(req.BenefitType),
		FirstAbsenceDate: req.FirstAbsenceDate,
		FormLink:         s.formURL(req.UUID),
	})
	if err != nil {
		s.logger.Warnf("Dialog creation failed for request %s, continuing without a dialog: %v", req.UUID, err)
		return
	}
	if err := s.requests.SetDialogID(ctx, req.UUID, dialogID); err != nil {
		s.logger.Errorf("Storing dialog id %s for request %s failed: %v", dialogID, req.UUID, err)
		return
	}
	req.DialogID = sql.NullString{String: dialogID, Valid: true}
}

// Finalize closes a request after an income statement was accepted against
// it. The submitter's identity facts must match the stored request exactly;
// a mismatch means an upstream consistency bug, not a user error.
func (s *LifecycleService) Finalize(ctx context.Context, requestID uuid.UUID, actorID, orgNumber string, firstAbsenceDate time.Time, reason ClosureReason, statementRef string) (*request.Request, error) {
	req, err := s.requests.GetByUUID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("no request found for the statement: %w", err)
	}
	if req.ActorID != actorID {
		return nil, fmt.Errorf("%w: actor id did not match request %s", ErrInvalidState, req.UUID)
	}
	if req.OrgNumber != orgNumber {
		return nil, fmt.Errorf("%w: org number did not match request %s", ErrInvalidState, req.UUID)
	}
	if !req.FirstAbsenceDate.Equal(firstAbsenceDate) {
		return nil, fmt.Errorf("%w: first absence date did not match request %s", ErrInvalidState, req.UUID)
	}

	firstSubmission := req.Status == request.StatusUnderProcessing

	if req.PortalTaskID.Valid {
		if err := s.portal.MarkTaskDone(ctx, req.PortalTaskID.String, s.now()); err != nil {
			return nil, fmt.Errorf("marking portal task done for request %s: %w", req.UUID, err)
		}
	}
	if err := s.portal.MarkCaseDone(ctx, req.PortalCaseID.String, req.IsEmployerInitiated()); err != nil {
		return nil, fmt.Errorf("marking portal case done for request %s: %w", req.UUID, err)
	}
	if err := s.portal.UpdateCaseSecondaryText(ctx, req.PortalCaseID.String, secondaryText(reason, req.FirstAbsenceDate)); err != nil {
		return nil, fmt.Errorf("updating portal case text for request %s: %w", req.UUID, err)
	}
	if err := s.requests.UpdateStatus(ctx, req.UUID, request.StatusDone); err != nil {
		return nil, fmt.Errorf("marking request %s done: %w", req.UUID, err)
	}
	req.Status = request.StatusDone

	if !s.production && statementRef != "" {
		if err := s.sendReceiptNotice(ctx, req, statementRef, firstSubmission); err != nil {
			return nil, err
		}
	}
	if req.DialogID.Valid {
		if err := s.dialogs.CompleteDialog(ctx, notify.DialogCompletion{
			DialogID:         req.DialogID.String,
			OrgNumber:        orgNumber,
			Title:            caseTitle(req.BenefitType),
			BenefitType:      string(req.BenefitType),
			FirstAbsenceDate: req.FirstAbsenceDate,
			StatementRef:     statementRef,
			Reason:           string(reason),
		}); err != nil {
			return nil, fmt.Errorf("completing dialog for request %s: %w", req.UUID, err)
		}
	}
	return req, nil
}

// UpdateAfterResubmission pushes "updated statement" notices for a request
// that is already done; the status stays untouched. A new-hire request whose
// resubmission carries a changed first absence date moves the stored date
// first, so later identity validation and portal texts follow the new date.
func (s *LifecycleService) UpdateAfterResubmission(ctx context.Context, req *request.Request, firstAbsenceDate time.Time, statementRef string) error {
	if req.Kind == request.KindEmployerInitiatedNewHire && !req.FirstAbsenceDate.Equal(firstAbsenceDate) {
		if _, err := s.UpdateFirstAbsenceDate(ctx, req, firstAbsenceDate); err != nil {
			return err
		}
	}
	if !s.production && statementRef != "" {
		if err := s.sendReceiptNotice(ctx, req, statementRef, false); err != nil {
			return err
		}
	}
	if req.DialogID.Valid {
		if err := s.dialogs.NotifyUpdatedStatement(ctx, req.DialogID.String, req.OrgNumber, statementRef); err != nil {
			return fmt.Errorf("notifying dialog of updated statement for request %s: %w", req.UUID, err)
		}
	}
	return nil
}

func (s *LifecycleService) sendReceiptNotice(ctx context.Context, req *request.Request, statementRef string, firstSubmission bool) error {
	notice := notify.NoticeInput{
		GroupingID: req.UUID.String(),
		OrgNumber:  req.OrgNumber,
		Label:      BenefitTypeLabel(req.BenefitType),
		Text:       receiptNoticeText(firstSubmission),
		Link:       s.formLink + "/api/external/submitted/statement/" + statementRef,
	}
	if err := s.portal.SendNotice(ctx, notice); err != nil {
		return fmt.Errorf("sending receipt notice for request %s: %w", req.UUID, err)
	}
	return nil
}

// ExpireAndNotify expires a request and closes out its portal task and case.
func (s *LifecycleService) ExpireAndNotify(ctx context.Context, req *request.Request) error {
	if req.PortalTaskID.Valid {
		if err := s.portal.MarkTaskExpired(ctx, req.PortalTaskID.String, s.now()); err != nil {
			return fmt.Errorf("marking portal task expired for request %s: %w", req.UUID, err)
		}
	}
	if err := s.portal.MarkCaseDone(ctx, req.PortalCaseID.String, false); err != nil {
		return fmt.Errorf("marking portal case done for expired request %s: %w", req.UUID, err)
	}
	return s.expire(ctx, req)
}

// ExpireSilently expires a request whose portal task and case were already
// handled elsewhere, such as supersession by a newer income basis date.
func (s *LifecycleService) ExpireSilently(ctx context.Context, req *request.Request) error {
	return s.expire(ctx, req)
}

func (s *LifecycleService) expire(ctx context.Context, req *request.Request) error {
	if err := s.portal.UpdateCaseSecondaryText(ctx, req.PortalCaseID.String, secondaryText(ClosureExpired, req.FirstAbsenceDate)); err != nil {
		return fmt.Errorf("updating portal case text for request %s: %w", req.UUID, err)
	}
	if err := s.requests.UpdateStatus(ctx, req.UUID, request.StatusExpired); err != nil {
		return fmt.Errorf("marking request %s expired: %w", req.UUID, err)
	}
	req.Status = request.StatusExpired
	if req.DialogID.Valid {
		if err := s.dialogs.MarkDialogNotApplicable(ctx, req.DialogID.String, caseTitle(req.BenefitType)); err != nil {
			return fmt.Errorf("marking dialog not applicable for request %s: %w", req.UUID, err)
		}
	}
	s.logger.Infof("Set request to expired, org: %s, case ref: %s, benefit: %s", req.OrgNumber, req.CaseRef.String, req.BenefitType)
	return nil
}

// ExpireOpenForCase expires every open request matching the filter, closing
// out portal tasks and cases as it goes.
func (s *LifecycleService) ExpireOpenForCase(ctx context.Context, caseRef, orgNumber string, incomeBasisDate *time.Time) error {
	open, err := s.requests.ListOpen(ctx, request.OpenFilter{CaseRef: caseRef, OrgNumber: orgNumber, IncomeBasisDate: incomeBasisDate})
	if err != nil {
		return fmt.Errorf("listing open requests for case ref %s: %w", caseRef, err)
	}
	for _, req := range open {
		if err := s.ExpireAndNotify(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// FinalizeExternallySubmitted closes open requests whose statement arrived
// through an external channel instead of the portal form.
func (s *LifecycleService) FinalizeExternallySubmitted(ctx context.Context, caseRef, orgNumber string, incomeBasisDate *time.Time) error {
	open, err := s.requests.ListOpen(ctx, request.OpenFilter{CaseRef: caseRef, OrgNumber: orgNumber, IncomeBasisDate: incomeBasisDate})
	if err != nil {
		return fmt.Errorf("listing open requests for case ref %s: %w", caseRef, err)
	}
	for _, req := range open {
		if _, err := s.Finalize(ctx, req.UUID, req.ActorID, req.OrgNumber, req.FirstAbsenceDate, ClosureExternalSubmission, ""); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the portal case of exactly one open request and expires it.
// Zero or multiple matches is a consistency break; nothing is touched then.
func (s *LifecycleService) Delete(ctx context.Context, caseRef, orgNumber string, incomeBasisDate *time.Time) error {
	matches, err := s.requests.ListOpen(ctx, request.OpenFilter{CaseRef: caseRef, OrgNumber: orgNumber, IncomeBasisDate: incomeBasisDate})
	if err != nil {
		return fmt.Errorf("listing open requests for case ref %s: %w", caseRef, err)
	}
	if len(matches) != 1 {
		return fmt.Errorf("%w: found %d requests to delete, need exactly 1", ErrInvalidState, len(matches))
	}
	target := matches[0]
	if err := s.portal.DeleteCase(ctx, target.PortalCaseID.String); err != nil {
		return fmt.Errorf("deleting portal case for request %s: %w", target.UUID, err)
	}
	if err := s.requests.UpdateStatus(ctx, target.UUID, request.StatusExpired); err != nil {
		return fmt.Errorf("marking deleted request %s expired: %w", target.UUID, err)
	}
	return nil
}

// SendReminderNotice pushes a caseworker-ordered reminder with an external
// alert to the employer for an open request.
func (s *LifecycleService) SendReminderNotice(ctx context.Context, caseRef, orgNumber string) (ReminderResult, error) {
	open, err := s.requests.ListOpen(ctx, request.OpenFilter{CaseRef: caseRef, OrgNumber: orgNumber})
	if err != nil {
		return "", fmt.Errorf("listing open requests for case ref %s: %w", caseRef, err)
	}
	if len(open) == 0 {
		return ReminderNoOpenRequest, nil
	}
	req := open[0]
	notice := notify.NoticeInput{
		GroupingID:    req.UUID.String(),
		OrgNumber:     req.OrgNumber,
		Label:         BenefitTypeLabel(req.BenefitType),
		Text:          reminderText(req.BenefitType),
		AlertText:     reminderText(req.BenefitType),
		Link:          s.formURL(req.UUID),
		ExternalAlert: true,
	}
	if err := s.portal.SendNotice(ctx, notice); err != nil {
		return "", fmt.Errorf("sending reminder notice for request %s: %w", req.UUID, err)
	}
	return ReminderSent, nil
}

// UpdateFirstAbsenceDate moves the first absence date of a new-hire request
// when a resubmission carries a new one.
func (s *LifecycleService) UpdateFirstAbsenceDate(ctx context.Context, req *request.Request, date time.Time) (*request.Request, error) {
	if req.Kind != request.KindEmployerInitiatedNewHire {
		return nil, fmt.Errorf("%w: first absence date can only move on new-hire requests", ErrInvalidState)
	}
	if err := s.requests.SetFirstAbsenceDate(ctx, req.UUID, date); err != nil {
		return nil, fmt.Errorf("updating first absence date for request %s: %w", req.UUID, err)
	}
	req.FirstAbsenceDate = date
	return req, nil
}

func (s *LifecycleService) formURL(id uuid.UUID) string {
	return s.formLink + "/" + id.String()
}
