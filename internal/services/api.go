// Shared HTTP plumbing for provider adapters
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/mixtape/internal/shared"
	"golang.org/x/time/rate"
)

// APIService performs JSON GET requests against one provider base URL.
//
// All transport, status and decode failures wrap [shared.ErrNetworkFailure].
type APIService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
}

// NewAPIService creates a new API service for the given base URL.
//
// A nil client falls back to [http.DefaultClient].
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		userAgent:  "mixtape/1.0",
	}
}

// WithRateLimit caps outgoing requests at rps per second. Zero or negative disables the limit.
func (a *APIService) WithRateLimit(rps float64) *APIService {
	if rps <= 0 {
		a.limiter = nil
		return a
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	a.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return a
}

// BaseURL returns the base URL requests are resolved against.
func (a *APIService) BaseURL() string { return a.baseURL }

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// OK reports whether the status code is 2xx.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Get performs a GET request to path with the given query and returns the raw response.
//
// Non-2xx responses are returned without error; use [APIService.GetJSON] for checked requests.
func (a *APIService) Get(ctx context.Context, path string, query url.Values) (*APIResponse, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %w", shared.ErrNetworkFailure, err)
		}
	}

	fullURL := a.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", shared.ErrNetworkFailure, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", shared.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", shared.ErrNetworkFailure, err)
	}

	return &APIResponse{StatusCode: resp.StatusCode, Headers: resp.Header, Body: body}, nil
}

// GetJSON performs a GET request and decodes a 2xx JSON body into result.
func (a *APIService) GetJSON(ctx context.Context, path string, query url.Values, result any) error {
	resp, err := a.Get(ctx, path, query)
	if err != nil {
		return err
	}

	if !resp.OK() {
		if msg := errorMessage(resp.Body); msg != "" {
			return fmt.Errorf("%w: status %d: %s", shared.ErrNetworkFailure, resp.StatusCode, msg)
		}
		return fmt.Errorf("%w: status %d", shared.ErrNetworkFailure, resp.StatusCode)
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, result); err != nil {
		return fmt.Errorf("%w: failed to decode response: %w", shared.ErrNetworkFailure, err)
	}
	return nil
}

// errorMessage extracts a message from common error payloads:
// {"detail": "..."}, {"error": "..."}, {"errorMessage": "..."} and {"error": {"message": "..."}}.
func errorMessage(body []byte) string {
	var payload struct {
		Detail       string          `json:"detail"`
		ErrorMessage string          `json:"errorMessage"`
		Error        json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	switch {
	case payload.Detail != "":
		return payload.Detail
	case payload.ErrorMessage != "":
		return payload.ErrorMessage
	case len(payload.Error) == 0:
		return ""
	}

	var s string
	if err := json.Unmarshal(payload.Error, &s); err == nil {
		return s
	}
	var obj struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload.Error, &obj); err == nil {
		if obj.Message != "" {
			return obj.Message
		}
		return obj.Name
	}
	return ""
}
