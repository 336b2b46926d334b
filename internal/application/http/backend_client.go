package apphttp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	httpdomain "prinsight.ai/cli/internal/core/domain/http"
	httpports "prinsight.ai/cli/internal/core/ports/http"
	httpinfra "prinsight.ai/cli/internal/infrastructure/http"
)

// BackendClient issues requests against one endpoint with auth headers
// applied to every request.
type BackendClient struct {
	endpoint     httpdomain.BackendEndpoint
	requester    httpports.HttpRequester
	authProvider httpports.AuthHeaderProvider
}

func NewBackendClient(endpoint httpdomain.BackendEndpoint, requester httpports.HttpRequester, auth httpports.AuthHeaderProvider) *BackendClient {
	return &BackendClient{endpoint: endpoint, requester: requester, authProvider: auth}
}

// BaseURL returns the endpoint base URL
func (c *BackendClient) BaseURL() string { return c.endpoint.BaseURL }

func (c *BackendClient) PostJSON(ctx context.Context, path string, payload interface{}, extraHeaders map[string]string) (httpdomain.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return httpdomain.Response{}, fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, map[string]string{"Content-Type": "application/json"}, body, extraHeaders, nil)
}

func (c *BackendClient) Get(ctx context.Context, path string, extraHeaders map[string]string, query map[string]string) (httpdomain.Response, error) {
	return c.do(ctx, http.MethodGet, path, nil, nil, extraHeaders, query)
}

func (c *BackendClient) do(ctx context.Context, method, path string, baseHeaders map[string]string, body []byte, extraHeaders map[string]string, query map[string]string) (httpdomain.Response, error) {
	headers := baseHeaders
	if c.authProvider != nil {
		h, err := c.authProvider.Headers(ctx)
		if err != nil {
			return httpdomain.Response{}, fmt.Errorf("failed to build auth headers: %w", err)
		}
		headers = httpinfra.MergeHeaders(headers, h)
	}
	headers = httpinfra.MergeHeaders(headers, extraHeaders)

	return c.requester.Do(ctx, c.endpoint, httpdomain.RequestContext{
		Method:  method,
		Path:    path,
		Query:   query,
		Headers: headers,
		Body:    body,
	})
}

// DecodeJSON unmarshals a successful response body into v
func DecodeJSON(resp httpdomain.Response, v interface{}) error {
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// StatusError describes a non-2xx response
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("API error %d: %s", e.Status, body)
}

// CheckStatus returns a StatusError for non-2xx responses
func CheckStatus(resp httpdomain.Response) error {
	if resp.OK() {
		return nil
	}
	return &StatusError{Status: resp.Status, Body: string(resp.Body)}
}
