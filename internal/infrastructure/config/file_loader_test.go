package configinfra

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	configdomain "prinsight.ai/cli/internal/core/domain/config"
	configports "prinsight.ai/cli/internal/core/ports/config"
)

// mapProvider serves files keyed by "repo@ref:path" and wiki pages keyed by
// "repo#page".
type mapProvider struct {
	branches map[string]string
	files    map[string]string
	wiki     map[string]string
	err      error
	calls    []string
}

func (p *mapProvider) Name() string { return "map" }

func (p *mapProvider) DefaultBranch(ctx context.Context, repo string) (string, error) {
	p.calls = append(p.calls, "branch "+repo)
	if p.err != nil {
		return "", p.err
	}
	b, ok := p.branches[repo]
	if !ok {
		return "", configdomain.ErrNotFound
	}
	return b, nil
}

func (p *mapProvider) FetchFile(ctx context.Context, repo, ref, path string) ([]byte, error) {
	p.calls = append(p.calls, "file "+repo+"@"+ref+":"+path)
	content, ok := p.files[repo+"@"+ref+":"+path]
	if !ok {
		return nil, configdomain.ErrNotFound
	}
	return []byte(content), nil
}

func (p *mapProvider) FetchWikiPage(ctx context.Context, repo, page string) ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	content, ok := p.wiki[repo+"#"+page]
	if !ok {
		return nil, configdomain.ErrNotFound
	}
	return []byte(content), nil
}

func (p *mapProvider) ListFiles(ctx context.Context, repo, ref string) ([]string, error) {
	return nil, nil
}

func newMapProvider() *mapProvider {
	return &mapProvider{
		branches: map[string]string{
			"acme/web":                 "main",
			"acme/pr-insight-settings": "trunk",
		},
		files: map[string]string{
			"acme/web@main:.pr_insight.toml":                  "[pr_reviewer]\nnum_code_suggestions = 2\n",
			"acme/pr-insight-settings@trunk:.pr_insight.toml": "[config]\nmodel = \"org\"\n",
			"acme/pr-insight-settings@trunk:custom/pri.toml":  "[config]\nmodel = \"custom\"\n",
		},
		wiki: map[string]string{
			"acme/web#.pr_insight": "```toml\n[config]\nmodel = \"wiki\"\n```",
		},
	}
}

func content(t *testing.T, src configdomain.Source) string {
	t.Helper()
	text, ok := src.Content()
	require.True(t, ok, "%s source should be present", src.Kind())
	return text
}

func TestLoaders_Present(t *testing.T) {
	p := newMapProvider()
	loaders := NewLoaders(p, p, "", "", "")
	require.Len(t, loaders, 4)

	target := configports.Target{Repository: "acme/web"}
	want := map[configdomain.SourceKind]string{
		configdomain.SourceGlobal: "[config]\nmodel = \"org\"\n",
		configdomain.SourceLocal:  "[pr_reviewer]\nnum_code_suggestions = 2\n",
		configdomain.SourceWiki:   "```toml\n[config]\nmodel = \"wiki\"\n```",
	}
	for i, l := range loaders {
		assert.Equal(t, configdomain.Precedence[i], l.Kind())
		src, err := l.Load(context.Background(), target)
		require.NoError(t, err)
		assert.Equal(t, l.Kind(), src.Kind())
		if l.Kind() == configdomain.SourceDefault {
			assert.Contains(t, content(t, src), "[repository_metadata]")
			continue
		}
		assert.Equal(t, want[l.Kind()], content(t, src))
	}
}

func TestGlobalLoader(t *testing.T) {
	p := newMapProvider()

	t.Run("organization overrides owner", func(t *testing.T) {
		src, err := NewGlobalLoader(p, "", "").Load(context.Background(), configports.Target{Repository: "someone/web", Organization: "acme"})
		require.NoError(t, err)
		assert.True(t, src.Present())
	})

	t.Run("custom repository and file", func(t *testing.T) {
		src, err := NewGlobalLoader(p, "pr-insight-settings", "custom/pri.toml").Load(context.Background(), configports.Target{Repository: "acme/web"})
		require.NoError(t, err)
		assert.Equal(t, "[config]\nmodel = \"custom\"\n", content(t, src))
	})

	t.Run("missing settings repository is absent", func(t *testing.T) {
		src, err := NewGlobalLoader(p, "", "").Load(context.Background(), configports.Target{Repository: "other/web"})
		require.NoError(t, err)
		assert.False(t, src.Present())
	})

	t.Run("no owner or provider is absent", func(t *testing.T) {
		src, err := NewGlobalLoader(p, "", "").Load(context.Background(), configports.Target{Repository: "web"})
		require.NoError(t, err)
		assert.False(t, src.Present())

		src, err = NewGlobalLoader(nil, "", "").Load(context.Background(), configports.Target{Repository: "acme/web"})
		require.NoError(t, err)
		assert.False(t, src.Present())
	})
}

func TestLocalLoader_MissingFileIsAbsent(t *testing.T) {
	p := newMapProvider()
	src, err := NewLocalLoader(p, "nope.toml").Load(context.Background(), configports.Target{Repository: "acme/web"})
	require.NoError(t, err)
	assert.False(t, src.Present())
	assert.Equal(t, []string{"branch acme/web", "file acme/web@main:nope.toml"}, p.calls)
}

func TestLoaders_ProviderErrors(t *testing.T) {
	p := newMapProvider()
	p.err = errors.New("connection reset")
	target := configports.Target{Repository: "acme/web"}

	_, err := NewLocalLoader(p, "").Load(context.Background(), target)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolving default branch of acme/web")
	assert.ErrorIs(t, err, p.err)

	_, err = NewWikiLoader(p, "").Load(context.Background(), target)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading wiki page .pr_insight of acme/web")
}
