// Package httpserver exposes the income query and the request lifecycle
// operations to the other benefit-platform services.
package httpserver

import (
	"errors"
	"strings"
	"time"

	"income_statement_service/internal/app"
	"income_statement_service/internal/domain/income"
	"income_statement_service/internal/domain/request"
	idb "income_statement_service/internal/infra/database"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

const monthLayout = "2006-01"

// Server routes inbound calls to the income and lifecycle services.
type Server struct {
	income    *app.IncomeService
	lifecycle *app.LifecycleService
	logger    *logrus.Logger
	server    *fasthttp.Server
}

func NewServer(incomeService *app.IncomeService, lifecycleService *app.LifecycleService, logger *logrus.Logger) *Server {
	s := &Server{
		income:    incomeService,
		lifecycle: lifecycleService,
		logger:    logger,
	}
	s.server = &fasthttp.Server{
		Handler:     s.route,
		ReadTimeout: 30 * time.Second,
	}
	return s
}

// ListenAndServe blocks until Shutdown is called or the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Infof("HTTP server listening on %s", addr)
	return s.server.ListenAndServe(addr)
}

func (s *Server) Shutdown() error {
	return s.server.Shutdown()
}

func (s *Server) route(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	switch {
	case path == "/api/income/monthly" && ctx.IsPost():
		s.handleMonthlyIncome(ctx)
	case path == "/api/requests" && ctx.IsPost():
		s.handleCreateOnDemand(ctx)
	case path == "/api/requests/employer-initiated" && ctx.IsPost():
		s.handleCreateEmployerInitiated(ctx)
	case strings.HasPrefix(path, "/api/requests/") && ctx.IsGet():
		s.handleGetRequest(ctx, strings.TrimPrefix(path, "/api/requests/"))
	case path == "/api/requests/finalize" && ctx.IsPost():
		s.handleFinalize(ctx)
	case path == "/api/requests/expire" && ctx.IsPost():
		s.handleExpire(ctx)
	case path == "/api/requests/external-submission" && ctx.IsPost():
		s.handleExternalSubmission(ctx)
	case path == "/api/requests/delete" && ctx.IsPost():
		s.handleDelete(ctx)
	case path == "/api/requests/reminder" && ctx.IsPost():
		s.handleReminder(ctx)
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	}
}

type monthlyIncomeRequest struct {
	ActorID              string `json:"actorId"`
	OrgNumber            string `json:"orgNumber"`
	IncomeBasisDate      string `json:"incomeBasisDate"`
	ContinuouslyEmployed bool   `json:"continuouslyEmployed"`
}

type monthlyIncomeResponse struct {
	OrgNumber string               `json:"orgNumber"`
	Average   *decimal.Decimal     `json:"average"`
	Months    []monthlyEntryOutput `json:"months"`
}

type monthlyEntryOutput struct {
	Month  string           `json:"month"`
	Amount *decimal.Decimal `json:"amount"`
	Status string           `json:"status"`
}

func (s *Server) handleMonthlyIncome(ctx *fasthttp.RequestCtx) {
	var in monthlyIncomeRequest
	if !s.decode(ctx, &in) {
		return
	}
	basisDate, ok := s.parseDate(ctx, in.IncomeBasisDate)
	if !ok {
		return
	}
	summary, err := s.income.MonthlyIncome(ctx, in.ActorID, in.OrgNumber, basisDate, time.Now(), in.ContinuouslyEmployed)
	if err != nil {
		s.writeError(ctx, err)
		return
	}
	out := monthlyIncomeResponse{
		OrgNumber: summary.OrgNumber,
		Average:   nullableDecimal(summary.Average),
		Months:    make([]monthlyEntryOutput, 0, len(summary.Months)),
	}
	for _, m := range summary.Months {
		out.Months = append(out.Months, monthlyEntryOutput{
			Month:  m.Month.Format(monthLayout),
			Amount: nullableDecimal(m.Amount),
			Status: string(m.Status),
		})
	}
	s.writeJSON(ctx, fasthttp.StatusOK, out)
}

func nullableDecimal(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	return &d.Decimal
}

type createOnDemandRequest struct {
	CaseRef          string `json:"caseRef"`
	OrgNumber        string `json:"orgNumber"`
	ActorID          string `json:"actorId"`
	BenefitType      string `json:"benefitType"`
	IncomeBasisDate  string `json:"incomeBasisDate"`
	FirstAbsenceDate string `json:"firstAbsenceDate"`
}

type createResultResponse struct {
	Result string `json:"result"`
}

func (s *Server) handleCreateOnDemand(ctx *fasthttp.RequestCtx) {
	var in createOnDemandRequest
	if !s.decode(ctx, &in) {
		return
	}
	basisDate, ok := s.parseDate(ctx, in.IncomeBasisDate)
	if !ok {
		return
	}
	firstAbsence, ok := s.parseDate(ctx, in.FirstAbsenceDate)
	if !ok {
		return
	}
	result, err := s.lifecycle.CreateOnDemand(ctx, in.CaseRef, in.OrgNumber, request.BenefitType(in.BenefitType), in.ActorID, basisDate, firstAbsence)
	if err != nil {
		s.writeError(ctx, err)
		return
	}
	status := fasthttp.StatusCreated
	if result == app.ResultAlreadyExists {
		status = fasthttp.StatusOK
	}
	s.writeJSON(ctx, status, createResultResponse{Result: string(result)})
}

type createEmployerInitiatedRequest struct {
	Kind             string `json:"kind"`
	OrgNumber        string `json:"orgNumber"`
	ActorID          string `json:"actorId"`
	BenefitType      string `json:"benefitType"`
	FirstAbsenceDate string `json:"firstAbsenceDate"`
}

type requestCreatedResponse struct {
	RequestID string `json:"requestId"`
}

func (s *Server) handleCreateEmployerInitiated(ctx *fasthttp.RequestCtx) {
	var in createEmployerInitiatedRequest
	if !s.decode(ctx, &in) {
		return
	}
	firstAbsence, ok := s.parseDate(ctx, in.FirstAbsenceDate)
	if !ok {
		return
	}
	req, err := s.lifecycle.CreateEmployerInitiated(ctx, app.EmployerInitiatedInput{
		Kind:             request.Kind(in.Kind),
		OrgNumber:        in.OrgNumber,
		ActorID:          in.ActorID,
		BenefitType:      request.BenefitType(in.BenefitType),
		FirstAbsenceDate: firstAbsence,
	})
	if err != nil {
		s.writeError(ctx, err)
		return
	}
	s.writeJSON(ctx, fasthttp.StatusCreated, requestCreatedResponse{RequestID: req.UUID.String()})
}

type requestOutput struct {
	RequestID        string `json:"requestId"`
	CaseRef          string `json:"caseRef,omitempty"`
	OrgNumber        string `json:"orgNumber"`
	ActorID          string `json:"actorId"`
	BenefitType      string `json:"benefitType"`
	Kind             string `json:"kind"`
	Status           string `json:"status"`
	IncomeBasisDate  string `json:"incomeBasisDate,omitempty"`
	FirstAbsenceDate string `json:"firstAbsenceDate"`
}

func (s *Server) handleGetRequest(ctx *fasthttp.RequestCtx, rawID string) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		s.writeErrorStatus(ctx, fasthttp.StatusBadRequest, "invalid request id")
		return
	}
	req, err := s.lifecycle.Get(ctx, id)
	if err != nil {
		s.writeError(ctx, err)
		return
	}
	out := requestOutput{
		RequestID:        req.UUID.String(),
		CaseRef:          req.CaseRef.String,
		OrgNumber:        req.OrgNumber,
		ActorID:          req.ActorID,
		BenefitType:      string(req.BenefitType),
		Kind:             string(req.Kind),
		Status:           string(req.Status),
		FirstAbsenceDate: req.FirstAbsenceDate.Format(time.DateOnly),
	}
	if req.IncomeBasisDate.Valid {
		out.IncomeBasisDate = req.IncomeBasisDate.Time.Format(time.DateOnly)
	}
	s.writeJSON(ctx, fasthttp.StatusOK, out)
}

type finalizeRequest struct {
	RequestID        string `json:"requestId"`
	ActorID          string `json:"actorId"`
	OrgNumber        string `json:"orgNumber"`
	FirstAbsenceDate string `json:"firstAbsenceDate"`
	StatementRef     string `json:"statementRef,omitempty"`
}

func (s *Server) handleFinalize(ctx *fasthttp.RequestCtx) {
	var in finalizeRequest
	if !s.decode(ctx, &in) {
		return
	}
	id, err := uuid.Parse(in.RequestID)
	if err != nil {
		s.writeErrorStatus(ctx, fasthttp.StatusBadRequest, "invalid request id")
		return
	}
	firstAbsence, ok := s.parseDate(ctx, in.FirstAbsenceDate)
	if !ok {
		return
	}
	req, err := s.lifecycle.Get(ctx, id)
	if err != nil {
		s.writeError(ctx, err)
		return
	}
	if req.Status == request.StatusDone {
		// Resubmission against an already-closed request only refreshes
		// notices; the lifecycle state stays done.
		if err := s.lifecycle.UpdateAfterResubmission(ctx, req, firstAbsence, in.StatementRef); err != nil {
			s.writeError(ctx, err)
			return
		}
		ctx.SetStatusCode(fasthttp.StatusNoContent)
		return
	}
	if _, err := s.lifecycle.Finalize(ctx, id, in.ActorID, in.OrgNumber, firstAbsence, app.ClosureOrdinarySubmission, in.StatementRef); err != nil {
		s.writeError(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}

type caseScopedRequest struct {
	CaseRef         string `json:"caseRef"`
	OrgNumber       string `json:"orgNumber,omitempty"`
	IncomeBasisDate string `json:"incomeBasisDate,omitempty"`
}

func (s *Server) decodeCaseScoped(ctx *fasthttp.RequestCtx) (caseRef, orgNumber string, incomeBasisDate *time.Time, ok bool) {
	var in caseScopedRequest
	if !s.decode(ctx, &in) {
		return "", "", nil, false
	}
	if in.IncomeBasisDate != "" {
		d, parsed := s.parseDate(ctx, in.IncomeBasisDate)
		if !parsed {
			return "", "", nil, false
		}
		incomeBasisDate = &d
	}
	return in.CaseRef, in.OrgNumber, incomeBasisDate, true
}

func (s *Server) handleExpire(ctx *fasthttp.RequestCtx) {
	caseRef, orgNumber, basisDate, ok := s.decodeCaseScoped(ctx)
	if !ok {
		return
	}
	if err := s.lifecycle.ExpireOpenForCase(ctx, caseRef, orgNumber, basisDate); err != nil {
		s.writeError(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}

func (s *Server) handleExternalSubmission(ctx *fasthttp.RequestCtx) {
	caseRef, orgNumber, basisDate, ok := s.decodeCaseScoped(ctx)
	if !ok {
		return
	}
	if err := s.lifecycle.FinalizeExternallySubmitted(ctx, caseRef, orgNumber, basisDate); err != nil {
		s.writeError(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}

func (s *Server) handleDelete(ctx *fasthttp.RequestCtx) {
	caseRef, orgNumber, basisDate, ok := s.decodeCaseScoped(ctx)
	if !ok {
		return
	}
	if err := s.lifecycle.Delete(ctx, caseRef, orgNumber, basisDate); err != nil {
		s.writeError(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}

type reminderResponse struct {
	Result string `json:"result"`
}

func (s *Server) handleReminder(ctx *fasthttp.RequestCtx) {
	caseRef, orgNumber, _, ok := s.decodeCaseScoped(ctx)
	if !ok {
		return
	}
	result, err := s.lifecycle.SendReminderNotice(ctx, caseRef, orgNumber)
	if err != nil {
		s.writeError(ctx, err)
		return
	}
	s.writeJSON(ctx, fasthttp.StatusOK, reminderResponse{Result: string(result)})
}

func (s *Server) decode(ctx *fasthttp.RequestCtx, out interface{}) bool {
	if err := json.Unmarshal(ctx.PostBody(), out); err != nil {
		s.writeErrorStatus(ctx, fasthttp.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) parseDate(ctx *fasthttp.RequestCtx, raw string) (time.Time, bool) {
	d, err := time.ParseInLocation(time.DateOnly, raw, time.UTC)
	if err != nil {
		s.writeErrorStatus(ctx, fasthttp.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return time.Time{}, false
	}
	return d, true
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps service errors onto status codes. Invariant violations are
// conflicts, missing rows are 404s, unregistered validation failures are
// unprocessable; everything else is a plain 500.
func (s *Server) writeError(ctx *fasthttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, idb.ErrRequestNotFound):
		s.writeErrorStatus(ctx, fasthttp.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrInvalidState):
		s.writeErrorStatus(ctx, fasthttp.StatusConflict, err.Error())
	case errors.Is(err, app.ErrNoOpenCase), errors.Is(err, app.ErrSubmittedTooEarly):
		s.writeErrorStatus(ctx, fasthttp.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, income.ErrTooManyReportedMonths):
		s.writeErrorStatus(ctx, fasthttp.StatusInternalServerError, err.Error())
	default:
		s.logger.Errorf("Unhandled error serving %s: %v", ctx.Path(), err)
		s.writeErrorStatus(ctx, fasthttp.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeErrorStatus(ctx *fasthttp.RequestCtx, status int, msg string) {
	s.writeJSON(ctx, status, errorResponse{Error: msg})
}

func (s *Server) writeJSON(ctx *fasthttp.RequestCtx, status int, body interface{}) {
	payload, err := json.Marshal(body)
	if err != nil {
		s.logger.Errorf("Encoding response for %s failed: %v", ctx.Path(), err)
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(payload)
}
