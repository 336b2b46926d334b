package configinfra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prinsight.ai/cli/internal/application/ports"
	configdomain "prinsight.ai/cli/internal/core/domain/config"
	configports "prinsight.ai/cli/internal/core/ports/config"
)

// Default source locations
const (
	DefaultSettingsFile       = ".pr_insight.toml"
	DefaultGlobalSettingsRepo = "pr-insight-settings"
	DefaultWikiPage           = ".pr_insight"
)

// DefaultLoader serves the compiled-in configuration
type DefaultLoader struct{}

func NewDefaultLoader() *DefaultLoader { return &DefaultLoader{} }

func (l *DefaultLoader) Kind() configdomain.SourceKind { return configdomain.SourceDefault }

func (l *DefaultLoader) Load(ctx context.Context, _ configports.Target) (configdomain.Source, error) {
	return DefaultSource(time.Now()), nil
}

// GlobalLoader reads the settings file from the organization's settings
// repository.
type GlobalLoader struct {
	provider ports.GitProvider
	repoName string
	file     string
}

func NewGlobalLoader(provider ports.GitProvider, repoName, file string) *GlobalLoader {
	if repoName == "" {
		repoName = DefaultGlobalSettingsRepo
	}
	if file == "" {
		file = DefaultSettingsFile
	}
	return &GlobalLoader{provider: provider, repoName: repoName, file: file}
}

func (l *GlobalLoader) Kind() configdomain.SourceKind { return configdomain.SourceGlobal }

func (l *GlobalLoader) Load(ctx context.Context, target configports.Target) (configdomain.Source, error) {
	owner := target.Owner()
	if owner == "" || l.provider == nil {
		return configdomain.AbsentSource(configdomain.SourceGlobal, time.Now()), nil
	}
	return loadFile(ctx, l.provider, configdomain.SourceGlobal, owner+"/"+l.repoName, l.file)
}

// LocalLoader reads the settings file committed to the repository's default
// branch.
type LocalLoader struct {
	provider ports.GitProvider
	file     string
}

func NewLocalLoader(provider ports.GitProvider, file string) *LocalLoader {
	if file == "" {
		file = DefaultSettingsFile
	}
	return &LocalLoader{provider: provider, file: file}
}

func (l *LocalLoader) Kind() configdomain.SourceKind { return configdomain.SourceLocal }

func (l *LocalLoader) Load(ctx context.Context, target configports.Target) (configdomain.Source, error) {
	return loadFile(ctx, l.provider, configdomain.SourceLocal, target.Repository, l.file)
}

// WikiLoader reads the repository's settings wiki page
type WikiLoader struct {
	provider ports.GitProvider
	page     string
}

func NewWikiLoader(provider ports.GitProvider, page string) *WikiLoader {
	if page == "" {
		page = DefaultWikiPage
	}
	return &WikiLoader{provider: provider, page: page}
}

func (l *WikiLoader) Kind() configdomain.SourceKind { return configdomain.SourceWiki }

func (l *WikiLoader) Load(ctx context.Context, target configports.Target) (configdomain.Source, error) {
	data, err := l.provider.FetchWikiPage(ctx, target.Repository, l.page)
	if errors.Is(err, configdomain.ErrNotFound) {
		return configdomain.AbsentSource(configdomain.SourceWiki, time.Now()), nil
	}
	if err != nil {
		return configdomain.Source{}, fmt.Errorf("reading wiki page %s of %s: %w", l.page, target.Repository, err)
	}
	return configdomain.NewSource(configdomain.SourceWiki, string(data), time.Now()), nil
}

func loadFile(ctx context.Context, provider ports.GitProvider, kind configdomain.SourceKind, repo, file string) (configdomain.Source, error) {
	branch, err := provider.DefaultBranch(ctx, repo)
	if errors.Is(err, configdomain.ErrNotFound) {
		return configdomain.AbsentSource(kind, time.Now()), nil
	}
	if err != nil {
		return configdomain.Source{}, fmt.Errorf("resolving default branch of %s: %w", repo, err)
	}

	data, err := provider.FetchFile(ctx, repo, branch, file)
	if errors.Is(err, configdomain.ErrNotFound) {
		return configdomain.AbsentSource(kind, time.Now()), nil
	}
	if err != nil {
		return configdomain.Source{}, fmt.Errorf("reading %s@%s:%s: %w", repo, branch, file, err)
	}
	return configdomain.NewSource(kind, string(data), time.Now()), nil
}

// NewLoaders returns one loader per source kind. repoProvider serves the
// repository itself and its wiki; orgProvider serves the organization's
// settings repository. With a hosted provider both are the same client.
func NewLoaders(repoProvider, orgProvider ports.GitProvider, globalRepo, file, wikiPage string) []configports.Loader {
	return []configports.Loader{
		NewDefaultLoader(),
		NewGlobalLoader(orgProvider, globalRepo, file),
		NewLocalLoader(repoProvider, file),
		NewWikiLoader(repoProvider, wikiPage),
	}
}

var (
	_ configports.Loader = (*DefaultLoader)(nil)
	_ configports.Loader = (*GlobalLoader)(nil)
	_ configports.Loader = (*LocalLoader)(nil)
	_ configports.Loader = (*WikiLoader)(nil)
)
