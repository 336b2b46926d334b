package httpinfra

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	httpdomain "prinsight.ai/cli/internal/core/domain/http"
	httpports "prinsight.ai/cli/internal/core/ports/http"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 8 << 20

type StdHttpRequester struct {
	client *http.Client
	retry  httpports.RetryPolicy
}

func NewStdHttpRequester(timeout time.Duration, retry httpports.RetryPolicy) *StdHttpRequester {
	return &StdHttpRequester{client: &http.Client{Timeout: timeout}, retry: retry}
}

func (r *StdHttpRequester) Do(ctx context.Context, endpoint httpdomain.BackendEndpoint, req httpdomain.RequestContext) (httpdomain.Response, error) {
	fullURL, err := joinURL(endpoint.BaseURL, req.Path, req.Query)
	if err != nil {
		return httpdomain.Response{}, err
	}

	for attempt := 0; ; attempt++ {
		resp, err := r.once(ctx, endpoint, req, fullURL)
		if r.retry == nil || ctx.Err() != nil {
			return resp, err
		}
		retry, backoff := r.retry.ShouldRetry(resp.Status, err, attempt)
		if !retry {
			return resp, err
		}
		select {
		case <-ctx.Done():
			return httpdomain.Response{}, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func (r *StdHttpRequester) once(ctx context.Context, endpoint httpdomain.BackendEndpoint, req httpdomain.RequestContext, fullURL string) (httpdomain.Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return httpdomain.Response{}, err
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if endpoint.UserAgent != "" {
		httpReq.Header.Set("User-Agent", endpoint.UserAgent)
	}

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return httpdomain.Response{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return httpdomain.Response{}, fmt.Errorf("reading response: %w", err)
	}
	return httpdomain.Response{Status: resp.StatusCode, Headers: resp.Header, Body: data}, nil
}

func joinURL(base, p string, q map[string]string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	u.Path = joinPath(u.Path, p)
	if len(q) > 0 {
		vals := u.Query()
		for k, v := range q {
			vals.Set(k, v)
		}
		u.RawQuery = vals.Encode()
	}
	return u.String(), nil
}

func joinPath(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	if a[len(a)-1] == '/' {
		a = a[:len(a)-1]
	}
	if b[0] != '/' {
		b = "/" + b
	}
	return a + b
}

var _ httpports.HttpRequester = (*StdHttpRequester)(nil)
