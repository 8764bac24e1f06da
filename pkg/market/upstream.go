package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultHTTPTimeout bounds every upstream call made by the built-in adapters.
const DefaultHTTPTimeout = 10 * time.Second

const maxErrorBody = 512

// Request describes a single upstream JSON GET.
type Request struct {
	URL    string
	Query  url.Values
	Header http.Header
}

// GetJSON performs req and decodes the JSON body into out. Any transport
// failure, non-2xx status or decode error is reported as ErrUpstreamUnavailable.
// No retries are attempted.
func GetJSON(ctx context.Context, hc *http.Client, req Request, out any) error {
	if hc == nil {
		hc = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	target := req.URL
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrUpstreamUnavailable, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := hc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return fmt.Errorf("%w: http status %d: %s", ErrUpstreamUnavailable, resp.StatusCode, string(body))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUpstreamUnavailable, err)
	}
	return nil
}
