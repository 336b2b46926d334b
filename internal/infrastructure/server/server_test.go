package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prinsight.ai/cli/internal/application/services"
	"prinsight.ai/cli/internal/core/contextblock"
	configdomain "prinsight.ai/cli/internal/core/domain/config"
	"prinsight.ai/cli/internal/core/metadata"
	"prinsight.ai/cli/internal/infrastructure/logging"
	"prinsight.ai/cli/internal/infrastructure/monitoring"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubResolver struct {
	last services.ResolveRequest
	err  error
}

func (r *stubResolver) Resolve(ctx context.Context, req services.ResolveRequest) (*services.Resolution, error) {
	r.last = req
	if r.err != nil {
		return nil, r.err
	}
	defaults := configdomain.Mapping{}
	defaults.Set("config", "model", configdomain.String("gpt-4o"))
	defaults.Set("pr_reviewer", "num_code_suggestions", configdomain.Int(4))
	local := configdomain.Mapping{}
	local.Set("pr_reviewer", "num_code_suggestions", configdomain.Int(2))

	return &services.Resolution{
		Target: req.Target,
		Config: configdomain.Merge(
			configdomain.Layer{Kind: configdomain.SourceDefault, Mapping: defaults},
			configdomain.Layer{Kind: configdomain.SourceLocal, Mapping: local},
		),
		Metadata: metadata.DefaultRepositoryMetadata(),
		Block:    contextblock.Block("## Repository Context\n"),
	}, nil
}

func newTestServer(r Resolver, cfg Config) *Server {
	return New(r, logging.Discard{}, cfg)
}

func do(t *testing.T, s *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_Resolve(t *testing.T) {
	r := &stubResolver{}
	s := newTestServer(r, DefaultConfig())

	rec := do(t, s, http.MethodPost, "/api/v1/context/resolve", `{"repository":"acme/web","organization":"acme"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view services.ResolutionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "acme/web", view.Repository)
	assert.Equal(t, "## Repository Context\n", view.ContextBlock)
	assert.EqualValues(t, 2, view.Config["pr_reviewer"]["num_code_suggestions"])
	assert.Empty(t, view.Relevant)
	assert.NotNil(t, view.Warnings)

	assert.Equal(t, services.FailClosed, r.last.Policy)
	assert.Equal(t, "acme", r.last.Target.Organization)
}

func TestServer_ResolveDebug(t *testing.T) {
	r := &stubResolver{}
	s := newTestServer(r, DefaultConfig())

	rec := do(t, s, http.MethodPost, "/api/v1/context/resolve", `{"repository":"acme/web","policy":"best-effort","tool":"review","debug":true}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view services.ResolutionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Relevant, 2)
	assert.Equal(t, "pr_reviewer.num_code_suggestions", view.Relevant[1].Key)
	assert.Equal(t, "local", view.Relevant[1].Source)
	assert.Equal(t, []string{"default", "local"}, view.Relevant[1].Chain)
	assert.Contains(t, view.RelevantText, "[pr_reviewer]")
	assert.Equal(t, services.FailOpen, r.last.Policy)
}

func TestServer_ResolveBadRequests(t *testing.T) {
	s := newTestServer(&stubResolver{}, DefaultConfig())

	tests := []struct {
		name string
		body string
	}{
		{name: "missing_repository", body: `{"organization":"acme"}`},
		{name: "bad_json", body: `{"repository":`},
		{name: "unknown_policy", body: `{"repository":"acme/web","policy":"sometimes"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/v1/context/resolve", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestServer_ResolveErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantSource string
	}{
		{
			name: "source_failure",
			err: &services.ResolutionError{
				Source: configdomain.SourceLocal,
				Err:    &configdomain.MalformedSourceError{Kind: configdomain.SourceLocal, Err: errors.New("bad toml")},
			},
			wantStatus: http.StatusBadGateway,
			wantSource: "local",
		},
		{name: "deadline", err: context.DeadlineExceeded, wantStatus: http.StatusGatewayTimeout},
		{name: "cancelled", err: context.Canceled, wantStatus: http.StatusServiceUnavailable},
		{name: "other", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&stubResolver{err: tt.err}, DefaultConfig())
			rec := do(t, s, http.MethodPost, "/api/v1/context/resolve", `{"repository":"acme/web"}`, nil)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var body ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantSource, body.Source)
		})
	}
}

func TestServer_Relevant(t *testing.T) {
	s := newTestServer(&stubResolver{}, DefaultConfig())

	rec := do(t, s, http.MethodGet, "/api/v1/context/relevant?repository=acme/web&tool=review", "", map[string]string{"Accept": "text/plain"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "[config]\n"))

	rec = do(t, s, http.MethodGet, "/api/v1/context/relevant?repository=acme/web", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"relevant_configurations"`)

	rec = do(t, s, http.MethodGet, "/api/v1/context/relevant", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_HealthAndTools(t *testing.T) {
	s := newTestServer(&stubResolver{}, DefaultConfig())

	rec := do(t, s, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = do(t, s, http.MethodGet, "/api/v1/tools", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"review"`)
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := monitoring.MustNewMetrics(reg)
	m.ObserveCache(true)

	cfg := DefaultConfig()
	cfg.Gatherer = reg
	s := newTestServer(&stubResolver{}, cfg)

	rec := do(t, s, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pri_cache_lookups_total")

	rec = do(t, newTestServer(&stubResolver{}, DefaultConfig()), http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	s := newTestServer(&stubResolver{}, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()
	assert.NoError(t, <-done)
}
