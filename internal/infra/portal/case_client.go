package portal

import (
	"context"
	"time"

	"income_statement_service/internal/domain/notify"
)

// CaseClient implements notify.PortalClient against the employer portal's
// notification API.
type CaseClient struct {
	http httpJSON
}

func NewCaseClient(baseURL, apiToken string) *CaseClient {
	return &CaseClient{http: newHTTPJSON(baseURL, apiToken)}
}

type createCaseRequest struct {
	GroupingID string `json:"groupingId"`
	OrgNumber  string `json:"orgNumber"`
	Title      string `json:"title"`
	Label      string `json:"label"`
	Link       string `json:"link"`
}

type createdResponse struct {
	ID string `json:"id"`
}

func (c *CaseClient) CreateCase(_ context.Context, in notify.CaseInput) (string, error) {
	var out createdResponse
	err := c.http.post("/api/cases", createCaseRequest{
		GroupingID: in.GroupingID,
		OrgNumber:  in.OrgNumber,
		Title:      in.Title,
		Label:      in.Label,
		Link:       in.FormLink,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.ID, nil
}

type createTaskRequest struct {
	GroupingID   string `json:"groupingId"`
	OrgNumber    string `json:"orgNumber"`
	Label        string `json:"label"`
	Text         string `json:"text"`
	AlertText    string `json:"alertText"`
	ReminderText string `json:"reminderText"`
	Link         string `json:"link"`
}

func (c *CaseClient) CreateTask(_ context.Context, in notify.TaskInput) (string, error) {
	var out createdResponse
	err := c.http.post("/api/tasks", createTaskRequest{
		GroupingID:   in.GroupingID,
		OrgNumber:    in.OrgNumber,
		Label:        in.Label,
		Text:         in.Text,
		AlertText:    in.AlertText,
		ReminderText: in.ReminderText,
		Link:         in.FormLink,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.ID, nil
}

type caseIDRequest struct {
	CaseID string `json:"caseId"`
}

func (c *CaseClient) DeleteCase(_ context.Context, caseID string) error {
	return c.http.post("/api/cases/delete", caseIDRequest{CaseID: caseID}, nil)
}

type taskStateRequest struct {
	TaskID string    `json:"taskId"`
	When   time.Time `json:"when"`
}

func (c *CaseClient) MarkTaskDone(_ context.Context, taskID string, when time.Time) error {
	return c.http.post("/api/tasks/done", taskStateRequest{TaskID: taskID, When: when}, nil)
}

func (c *CaseClient) MarkTaskExpired(_ context.Context, taskID string, when time.Time) error {
	return c.http.post("/api/tasks/expired", taskStateRequest{TaskID: taskID, When: when}, nil)
}

type markCaseDoneRequest struct {
	CaseID            string `json:"caseId"`
	EmployerInitiated bool   `json:"employerInitiated"`
}

func (c *CaseClient) MarkCaseDone(_ context.Context, caseID string, employerInitiated bool) error {
	return c.http.post("/api/cases/done", markCaseDoneRequest{CaseID: caseID, EmployerInitiated: employerInitiated}, nil)
}

type secondaryTextRequest struct {
	CaseID string `json:"caseId"`
	Text   string `json:"text"`
}

func (c *CaseClient) UpdateCaseSecondaryText(_ context.Context, caseID, text string) error {
	return c.http.post("/api/cases/secondary-text", secondaryTextRequest{CaseID: caseID, Text: text}, nil)
}

type noticeRequest struct {
	GroupingID    string `json:"groupingId"`
	OrgNumber     string `json:"orgNumber"`
	Label         string `json:"label"`
	Text          string `json:"text"`
	AlertText     string `json:"alertText,omitempty"`
	Link          string `json:"link"`
	ExternalAlert bool   `json:"externalAlert"`
}

func (c *CaseClient) SendNotice(_ context.Context, in notify.NoticeInput) error {
	return c.http.post("/api/notices", noticeRequest{
		GroupingID:    in.GroupingID,
		OrgNumber:     in.OrgNumber,
		Label:         in.Label,
		Text:          in.Text,
		AlertText:     in.AlertText,
		Link:          in.Link,
		ExternalAlert: in.ExternalAlert,
	}, nil)
}
