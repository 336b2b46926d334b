// Package github implements the git-provider collaborator over the GitHub
// REST API and the raw wiki host.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	apphttp "prinsight.ai/cli/internal/application/http"
	"prinsight.ai/cli/internal/application/ports"
	configdomain "prinsight.ai/cli/internal/core/domain/config"
	httpdomain "prinsight.ai/cli/internal/core/domain/http"
	httpports "prinsight.ai/cli/internal/core/ports/http"
	httpinfra "prinsight.ai/cli/internal/infrastructure/http"
)

const (
	DefaultAPIURL = "https://api.github.com"
	DefaultRawURL = "https://raw.githubusercontent.com"
)

// Options configures a Provider
type Options struct {
	APIURL    string
	RawURL    string
	Token     string
	UserAgent string
	Timeout   time.Duration
	Retry     httpports.RetryPolicy
	Requester httpports.HttpRequester
}

// Provider reads repository files, trees and wiki pages from GitHub.
type Provider struct {
	api *apphttp.BackendClient
	raw *apphttp.BackendClient
}

var _ ports.GitProvider = (*Provider)(nil)

// NewProvider creates a GitHub provider
func NewProvider(opts Options) *Provider {
	if opts.APIURL == "" {
		opts.APIURL = DefaultAPIURL
	}
	if opts.RawURL == "" {
		opts.RawURL = DefaultRawURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Retry == nil {
		opts.Retry = httpinfra.DefaultRetryPolicy()
	}
	requester := opts.Requester
	if requester == nil {
		requester = httpinfra.NewStdHttpRequester(opts.Timeout, opts.Retry)
	}

	auth := apphttp.NewAuthHeaderService(opts.Token, "Bearer", map[string]string{
		"X-GitHub-Api-Version": "2022-11-28",
	})
	return &Provider{
		api: apphttp.NewBackendClient(httpdomain.BackendEndpoint{
			BaseURL:   strings.TrimRight(opts.APIURL, "/"),
			UserAgent: opts.UserAgent,
		}, requester, auth),
		raw: apphttp.NewBackendClient(httpdomain.BackendEndpoint{
			BaseURL:   strings.TrimRight(opts.RawURL, "/"),
			UserAgent: opts.UserAgent,
		}, requester, auth),
	}
}

func (p *Provider) Name() string { return "github" }

// DefaultBranch returns the repository's default branch
func (p *Provider) DefaultBranch(ctx context.Context, repo string) (string, error) {
	rp, err := repoPath(repo)
	if err != nil {
		return "", err
	}
	resp, err := p.api.Get(ctx, "/repos/"+rp, map[string]string{
		"Accept": "application/vnd.github+json",
	}, nil)
	if err != nil {
		return "", fmt.Errorf("fetching repository %s: %w", repo, err)
	}
	if err := check(resp, "repository "+repo); err != nil {
		return "", err
	}

	var info struct {
		DefaultBranch string `json:"default_branch"`
	}
	if err := apphttp.DecodeJSON(resp, &info); err != nil {
		return "", err
	}
	if info.DefaultBranch == "" {
		return "", fmt.Errorf("repository %s has no default branch", repo)
	}
	return info.DefaultBranch, nil
}

// FetchFile returns the raw content of path at ref
func (p *Provider) FetchFile(ctx context.Context, repo, ref, path string) ([]byte, error) {
	rp, err := repoPath(repo)
	if err != nil {
		return nil, err
	}
	var query map[string]string
	if ref != "" {
		query = map[string]string{"ref": ref}
	}
	resp, err := p.api.Get(ctx, "/repos/"+rp+"/contents/"+cleanPath(path), map[string]string{
		"Accept": "application/vnd.github.raw",
	}, query)
	if err != nil {
		return nil, fmt.Errorf("fetching %s from %s: %w", path, repo, err)
	}
	if err := check(resp, fmt.Sprintf("%s in %s", path, repo)); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// FetchWikiPage returns the markdown source of a wiki page
func (p *Provider) FetchWikiPage(ctx context.Context, repo, page string) ([]byte, error) {
	rp, err := repoPath(repo)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(page, ".md") {
		page += ".md"
	}
	resp, err := p.raw.Get(ctx, "/wiki/"+rp+"/"+cleanPath(page), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching wiki page %s of %s: %w", page, repo, err)
	}
	if err := check(resp, fmt.Sprintf("wiki page %s of %s", page, repo)); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// ListFiles returns every blob path of the tree at ref
func (p *Provider) ListFiles(ctx context.Context, repo, ref string) ([]string, error) {
	rp, err := repoPath(repo)
	if err != nil {
		return nil, err
	}
	resp, err := p.api.Get(ctx, "/repos/"+rp+"/git/trees/"+ref, map[string]string{
		"Accept": "application/vnd.github+json",
	}, map[string]string{"recursive": "1"})
	if err != nil {
		return nil, fmt.Errorf("listing tree of %s@%s: %w", repo, ref, err)
	}
	if err := check(resp, fmt.Sprintf("tree %s of %s", ref, repo)); err != nil {
		return nil, err
	}

	var tree struct {
		Tree []struct {
			Path string `json:"path"`
			Type string `json:"type"`
		} `json:"tree"`
		Truncated bool `json:"truncated"`
	}
	if err := apphttp.DecodeJSON(resp, &tree); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(tree.Tree))
	for _, e := range tree.Tree {
		if e.Type == "blob" {
			paths = append(paths, e.Path)
		}
	}
	return paths, nil
}

func check(resp httpdomain.Response, what string) error {
	if resp.Status == http.StatusNotFound {
		return fmt.Errorf("%s: %w", what, configdomain.ErrNotFound)
	}
	if err := apphttp.CheckStatus(resp); err != nil {
		var statusErr *apphttp.StatusError
		if errors.As(err, &statusErr) && (statusErr.Status == http.StatusUnauthorized || statusErr.Status == http.StatusForbidden) {
			return fmt.Errorf("%s: authentication failed: %w", what, err)
		}
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

// repoPath validates "owner/name". Paths are escaped when the URL is built.
func repoPath(repo string) (string, error) {
	owner, name, ok := strings.Cut(strings.Trim(repo, "/"), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("invalid repository %q, want owner/name", repo)
	}
	return owner + "/" + name, nil
}

func cleanPath(p string) string {
	return strings.TrimPrefix(p, "/")
}
