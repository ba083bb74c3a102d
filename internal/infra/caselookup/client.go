// Package caselookup is the HTTP adapter for the benefit-case system.
package caselookup

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	domain "income_statement_service/internal/domain/caselookup"
	"income_statement_service/internal/domain/request"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
)

const requestTimeout = 10 * time.Second

// Client fetches case readiness from the benefit-case system.
type Client struct {
	client   *fasthttp.Client
	baseURL  string
	apiToken string
}

func NewClient(baseURL, apiToken string) *Client {
	return &Client{
		client:   &fasthttp.Client{},
		baseURL:  baseURL,
		apiToken: apiToken,
	}
}

type caseInfoRequest struct {
	ActorID     string `json:"actorId"`
	BenefitType string `json:"benefitType"`
}

type caseInfoResponse struct {
	Status           string `json:"status"`
	FirstAbsenceDate string `json:"firstAbsenceDate"`
	IncomeBasisDate  string `json:"incomeBasisDate,omitempty"`
}

func (c *Client) FetchCaseInfo(_ context.Context, actorID string, benefitType request.BenefitType) (*domain.CaseInfo, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	payload, err := json.Marshal(caseInfoRequest{ActorID: actorID, BenefitType: string(benefitType)})
	if err != nil {
		return nil, fmt.Errorf("encoding case lookup request: %w", err)
	}
	req.SetRequestURI(c.baseURL + "/api/cases/info")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.SetBody(payload)

	if err := c.client.DoTimeout(req, resp, requestTimeout); err != nil {
		return nil, fmt.Errorf("calling benefit-case system: %w", err)
	}
	status := resp.StatusCode()
	if status < fasthttp.StatusOK || status >= fasthttp.StatusMultipleChoices {
		return nil, fmt.Errorf("benefit-case system returned status %d", status)
	}

	var out caseInfoResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("decoding case info response: %w", err)
	}

	info := &domain.CaseInfo{Status: domain.CaseStatus(out.Status)}
	if out.FirstAbsenceDate != "" {
		info.FirstAbsenceDate, err = time.ParseInLocation(time.DateOnly, out.FirstAbsenceDate, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parsing first absence date %q: %w", out.FirstAbsenceDate, err)
		}
	}
	if out.IncomeBasisDate != "" {
		basisDate, err := time.ParseInLocation(time.DateOnly, out.IncomeBasisDate, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parsing income basis date %q: %w", out.IncomeBasisDate, err)
		}
		info.IncomeBasisDate = sql.NullTime{Time: basisDate, Valid: true}
	}
	return info, nil
}
