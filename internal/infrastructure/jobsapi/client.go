// Package jobsapi is the HTTP client of the review-job backend.
package jobsapi

import (
	"context"
	"fmt"
	"strings"
	"time"

	apphttp "prinsight.ai/cli/internal/application/http"
	"prinsight.ai/cli/internal/application/ports"
	httpdomain "prinsight.ai/cli/internal/core/domain/http"
	"prinsight.ai/cli/internal/core/jobs"
	httpports "prinsight.ai/cli/internal/core/ports/http"
	httpinfra "prinsight.ai/cli/internal/infrastructure/http"
)

const jobsPath = "/api/v1/jobs"

type submitResponse struct {
	JobID string `json:"job_id"`
}

type statusResponse struct {
	JobID     string    `json:"job_id"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Result    string    `json:"result,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Client submits review jobs and reads their status
type Client struct {
	backend *apphttp.BackendClient
}

var (
	_ ports.JobsGateway  = (*Client)(nil)
	_ jobs.StatusFetcher = (*Client)(nil)
)

// NewClient creates a jobs API client. requester may be nil.
func NewClient(baseURL, token, userAgent string, timeout time.Duration, requester httpports.HttpRequester) *Client {
	if requester == nil {
		requester = httpinfra.NewStdHttpRequester(timeout, httpinfra.DefaultRetryPolicy())
	}
	return &Client{
		backend: apphttp.NewBackendClient(
			httpdomain.BackendEndpoint{BaseURL: strings.TrimRight(baseURL, "/"), UserAgent: userAgent},
			requester,
			apphttp.NewAuthHeaderService(token, "Bearer", map[string]string{"Accept": "application/json"}),
		),
	}
}

// Submit creates a job and returns its id
func (c *Client) Submit(ctx context.Context, req ports.JobSubmission) (jobs.JobID, error) {
	resp, err := c.backend.PostJSON(ctx, jobsPath, req, nil)
	if err != nil {
		return jobs.JobID{}, fmt.Errorf("failed to submit job: %w", err)
	}
	if err := apphttp.CheckStatus(resp); err != nil {
		return jobs.JobID{}, fmt.Errorf("failed to submit job: %w", err)
	}

	var out submitResponse
	if err := apphttp.DecodeJSON(resp, &out); err != nil {
		return jobs.JobID{}, err
	}
	id, err := jobs.NewJobID(out.JobID)
	if err != nil {
		return jobs.JobID{}, fmt.Errorf("backend returned an invalid job id: %w", err)
	}
	return id, nil
}

// Status returns the current status of a job
func (c *Client) Status(ctx context.Context, id jobs.JobID) (jobs.Status, error) {
	resp, err := c.backend.Get(ctx, jobsPath+"/"+id.Value(), nil, nil)
	if err != nil {
		return jobs.Status{}, fmt.Errorf("failed to fetch job %s: %w", id, err)
	}
	if err := apphttp.CheckStatus(resp); err != nil {
		return jobs.Status{}, fmt.Errorf("failed to fetch job %s: %w", id, err)
	}

	var out statusResponse
	if err := apphttp.DecodeJSON(resp, &out); err != nil {
		return jobs.Status{}, err
	}
	state, err := jobs.ParseState(out.Status)
	if err != nil {
		return jobs.Status{}, fmt.Errorf("job %s: %w", id, err)
	}
	updated := out.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	return jobs.Status{
		ID:        id,
		State:     state,
		Message:   out.Message,
		Result:    out.Result,
		UpdatedAt: updated,
	}, nil
}
