package services

import (
	"context"
	"fmt"
	"sync"

	"prinsight.ai/cli/internal/application/ports"
	"prinsight.ai/cli/internal/core/discovery"
)

// repositoryView exposes one repository's default branch as a discovery
// repository. The branch is looked up once, on first use.
type repositoryView struct {
	provider ports.GitProvider
	repo     string

	once   sync.Once
	ref    string
	refErr error
}

var _ discovery.Repository = (*repositoryView)(nil)

func (s *ResolutionService) repositoryView(repo string) *repositoryView {
	if s.provider == nil || repo == "" {
		return nil
	}
	return &repositoryView{provider: s.provider, repo: repo}
}

func (v *repositoryView) branch(ctx context.Context) (string, error) {
	v.once.Do(func() {
		v.ref, v.refErr = v.provider.DefaultBranch(ctx, v.repo)
		if v.refErr != nil {
			v.refErr = fmt.Errorf("resolving default branch of %s: %w", v.repo, v.refErr)
		}
	})
	return v.ref, v.refErr
}

func (v *repositoryView) ListFiles(ctx context.Context) ([]string, error) {
	ref, err := v.branch(ctx)
	if err != nil {
		return nil, err
	}
	return v.provider.ListFiles(ctx, v.repo, ref)
}

func (v *repositoryView) ReadFile(ctx context.Context, path string) ([]byte, error) {
	ref, err := v.branch(ctx)
	if err != nil {
		return nil, err
	}
	return v.provider.FetchFile(ctx, v.repo, ref, path)
}

// DiscoverContext runs context discovery against repo's default branch
// without resolving its configuration. maxFiles <= 0 uses the discovery
// default.
func (s *ResolutionService) DiscoverContext(ctx context.Context, repo string, maxFiles int) (discovery.Hints, error) {
	return s.discover(ctx, s.repositoryView(repo), maxFiles)
}
