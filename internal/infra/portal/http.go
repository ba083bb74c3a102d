// Package portal holds the HTTP adapters for the two external notification
// systems: the employer-facing case/task portal and the dialog system.
package portal

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
)

const defaultRequestTimeout = 10 * time.Second

// httpJSON is the shared JSON-over-HTTP plumbing for both portal clients.
type httpJSON struct {
	client   *fasthttp.Client
	baseURL  string
	apiToken string
	timeout  time.Duration
}

func newHTTPJSON(baseURL, apiToken string) httpJSON {
	return httpJSON{
		client:   &fasthttp.Client{},
		baseURL:  baseURL,
		apiToken: apiToken,
		timeout:  defaultRequestTimeout,
	}
}

// post sends a JSON body and decodes the JSON response into out when out is
// non-nil. Any non-2xx status is an error.
func (h *httpJSON) post(path string, body interface{}, out interface{}) error {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request for %s: %w", path, err)
	}
	req.SetRequestURI(h.baseURL + path)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+h.apiToken)
	req.SetBody(payload)

	if err := h.client.DoTimeout(req, resp, h.timeout); err != nil {
		return fmt.Errorf("calling %s: %w", path, err)
	}
	status := resp.StatusCode()
	if status < fasthttp.StatusOK || status >= fasthttp.StatusMultipleChoices {
		return fmt.Errorf("calling %s: unexpected status %d", path, status)
	}
	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("decoding response from %s: %w", path, err)
		}
	}
	return nil
}
