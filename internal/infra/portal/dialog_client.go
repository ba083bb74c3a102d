package portal

import (
	"context"
	"strings"
	"time"

	"income_statement_service/internal/domain/notify"
)

// DialogClient implements notify.DialogClient against the government-wide
// dialog system.
type DialogClient struct {
	http httpJSON
}

func NewDialogClient(baseURL, apiToken string) *DialogClient {
	return &DialogClient{http: newHTTPJSON(baseURL, apiToken)}
}

type createDialogRequest struct {
	GroupingID       string `json:"groupingId"`
	OrgNumber        string `json:"orgNumber"`
	Title            string `json:"title"`
	BenefitType      string `json:"benefitType"`
	FirstAbsenceDate string `json:"firstAbsenceDate"`
	Link             string `json:"link"`
}

type createDialogResponse struct {
	DialogID string `json:"dialogId"`
}

func (c *DialogClient) CreateDialog(_ context.Context, in notify.DialogInput) (string, error) {
	var out createDialogResponse
	err := c.http.post("/api/dialogs", createDialogRequest{
		GroupingID:       in.GroupingID,
		OrgNumber:        in.OrgNumber,
		Title:            in.Title,
		BenefitType:      in.BenefitType,
		FirstAbsenceDate: in.FirstAbsenceDate.Format(time.DateOnly),
		Link:             in.FormLink,
	}, &out)
	if err != nil {
		return "", err
	}
	// Some responses quote the id; strip before storing.
	return strings.Trim(out.DialogID, `"`), nil
}

type completeDialogRequest struct {
	DialogID         string `json:"dialogId"`
	OrgNumber        string `json:"orgNumber"`
	Title            string `json:"title"`
	BenefitType      string `json:"benefitType"`
	FirstAbsenceDate string `json:"firstAbsenceDate"`
	StatementRef     string `json:"statementRef,omitempty"`
	Reason           string `json:"reason"`
}

func (c *DialogClient) CompleteDialog(_ context.Context, in notify.DialogCompletion) error {
	return c.http.post("/api/dialogs/complete", completeDialogRequest{
		DialogID:         in.DialogID,
		OrgNumber:        in.OrgNumber,
		Title:            in.Title,
		BenefitType:      in.BenefitType,
		FirstAbsenceDate: in.FirstAbsenceDate.Format(time.DateOnly),
		StatementRef:     in.StatementRef,
		Reason:           in.Reason,
	}, nil)
}

type dialogStateRequest struct {
	DialogID string `json:"dialogId"`
	Title    string `json:"title,omitempty"`
}

func (c *DialogClient) MarkDialogNotApplicable(_ context.Context, dialogID, title string) error {
	return c.http.post("/api/dialogs/not-applicable", dialogStateRequest{DialogID: dialogID, Title: title}, nil)
}

type updatedStatementRequest struct {
	DialogID     string `json:"dialogId"`
	OrgNumber    string `json:"orgNumber"`
	StatementRef string `json:"statementRef,omitempty"`
}

func (c *DialogClient) NotifyUpdatedStatement(_ context.Context, dialogID, orgNumber, statementRef string) error {
	return c.http.post("/api/dialogs/updated-statement", updatedStatementRequest{
		DialogID:     dialogID,
		OrgNumber:    orgNumber,
		StatementRef: statementRef,
	}, nil)
}
