package github

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	configdomain "prinsight.ai/cli/internal/core/domain/config"
	httpinfra "prinsight.ai/cli/internal/infrastructure/http"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewProvider(Options{
		APIURL:    srv.URL,
		RawURL:    srv.URL + "/raw",
		Token:     "secret",
		UserAgent: "pri-test",
		Retry:     httpinfra.BackoffRetry{MaxAttempts: 1},
		Timeout:   time.Second,
	})
}

func TestProvider_DefaultBranch(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/web", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "pri-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"name":"web","default_branch":"trunk"}`))
	})

	branch, err := p.DefaultBranch(context.Background(), "acme/web")
	require.NoError(t, err)
	assert.Equal(t, "trunk", branch)
}

func TestProvider_FetchFile(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/web/contents/.pr_insight.toml":
			assert.Equal(t, "main", r.URL.Query().Get("ref"))
			assert.Equal(t, "application/vnd.github.raw", r.Header.Get("Accept"))
			_, _ = w.Write([]byte("[config]\nmodel = \"x\"\n"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	data, err := p.FetchFile(context.Background(), "acme/web", "main", ".pr_insight.toml")
	require.NoError(t, err)
	assert.Equal(t, "[config]\nmodel = \"x\"\n", string(data))

	_, err = p.FetchFile(context.Background(), "acme/web", "main", "docs/missing.md")
	assert.True(t, errors.Is(err, configdomain.ErrNotFound))
}

func TestProvider_FetchWikiPage(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/raw/wiki/acme/web/.pr_insight.md" {
			_, _ = w.Write([]byte("```toml\n[config]\n```"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	data, err := p.FetchWikiPage(context.Background(), "acme/web", ".pr_insight")
	require.NoError(t, err)
	assert.Contains(t, string(data), "[config]")

	_, err = p.FetchWikiPage(context.Background(), "acme/other", ".pr_insight")
	assert.True(t, errors.Is(err, configdomain.ErrNotFound))
}

func TestProvider_ListFiles(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/web/git/trees/main", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("recursive"))
		_, _ = w.Write([]byte(`{"tree":[
			{"path":"cmd","type":"tree"},
			{"path":"cmd/main.go","type":"blob"},
			{"path":"go.mod","type":"blob"}
		],"truncated":false}`))
	})

	files, err := p.ListFiles(context.Background(), "acme/web", "main")
	require.NoError(t, err)
	assert.Equal(t, []string{"cmd/main.go", "go.mod"}, files)
}

func TestProvider_Errors(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/private":
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"Resource not accessible"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	_, err := p.DefaultBranch(context.Background(), "acme/private")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authentication failed")
	assert.False(t, errors.Is(err, configdomain.ErrNotFound))

	_, err = p.DefaultBranch(context.Background(), "acme/broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API error 500")

	_, err = p.DefaultBranch(context.Background(), "no-slash")
	assert.ErrorContains(t, err, "want owner/name")
}
