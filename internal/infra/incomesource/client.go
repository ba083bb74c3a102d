// Package incomesource is the HTTP adapter for the national income register.
package incomesource

import (
	"context"
	"fmt"
	"time"

	"income_statement_service/internal/domain/income"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/valyala/fasthttp"
)

const (
	requestTimeout = 15 * time.Second
	monthLayout    = "2006-01"
)

// Client fetches reported monthly income from the income register.
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

type fetchRequest struct {
	ActorID   string `json:"actorId"`
	FromMonth string `json:"fromMonth"`
	ToMonth   string `json:"toMonth"`
}

type fetchResponse struct {
	Entries []registerEntry `json:"entries"`
}

type registerEntry struct {
	Month       string              `json:"month"`
	EmployerOrg string              `json:"employerOrg"`
	IncomeType  string              `json:"incomeType"`
	Amount      decimal.NullDecimal `json:"amount"`
}

// FetchMonthlyIncome returns every reported income row for the actor in the
// month range, both ends inclusive. Transport failures and non-2xx responses
// wrap income.ErrSourceUnavailable so callers can fall back to an outage
// summary.
func (c *Client) FetchMonthlyIncome(_ context.Context, actorID string, from, to time.Time) ([]income.SourceRecord, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	payload, err := json.Marshal(fetchRequest{
		ActorID:   actorID,
		FromMonth: from.Format(monthLayout),
		ToMonth:   to.Format(monthLayout),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding income register request: %w", err)
	}
	req.SetRequestURI(c.baseURL + "/api/income/monthly")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.SetBody(payload)

	if err := c.client.DoTimeout(req, resp, requestTimeout); err != nil {
		return nil, fmt.Errorf("%w: %v", income.ErrSourceUnavailable, err)
	}
	status := resp.StatusCode()
	if status < fasthttp.StatusOK || status >= fasthttp.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: register returned status %d", income.ErrSourceUnavailable, status)
	}

	var out fetchResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("%w: decoding register response: %v", income.ErrSourceUnavailable, err)
	}

	records := make([]income.SourceRecord, 0, len(out.Entries))
	for _, e := range out.Entries {
		month, err := time.ParseInLocation(monthLayout, e.Month, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parsing register month %q: %w", e.Month, err)
		}
		records = append(records, income.SourceRecord{
			Month:       month,
			EmployerOrg: e.EmployerOrg,
			IncomeType:  e.IncomeType,
			Amount:      e.Amount,
		})
	}
	return records, nil
}
