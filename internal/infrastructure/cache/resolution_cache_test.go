package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prinsight.ai/cli/internal/application/ports"
	configdomain "prinsight.ai/cli/internal/core/domain/config"
	"prinsight.ai/cli/internal/core/metadata"
)

func sampleResolution() ports.CachedResolution {
	m := configdomain.Mapping{}
	m.Set("repository_metadata", "repository_type", configdomain.String("library"))
	return ports.CachedResolution{
		Config:   configdomain.Merge(configdomain.Layer{Kind: configdomain.SourceDefault, Mapping: m}),
		Metadata: metadata.RepositoryMetadata{RepositoryType: metadata.TypeLibrary, TechnologyStack: []string{"Go"}},
		Warnings: []configdomain.Warning{{Code: configdomain.WarnUnknownKey, Message: "unknown"}},
	}
}

func TestResolutionCache_GetAdd(t *testing.T) {
	c := NewResolutionCache(4, time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Add("k", sampleResolution())
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, metadata.TypeLibrary, got.Metadata.RepositoryType)
	assert.Len(t, got.Warnings, 1)
	assert.Equal(t, 1, c.Len())
}

func TestResolutionCache_ReturnsCopies(t *testing.T) {
	c := NewResolutionCache(4, time.Minute)
	c.Add("k", sampleResolution())

	first, _ := c.Get("k")
	first.Metadata.TechnologyStack[0] = "Rust"
	first.Warnings[0].Message = "changed"
	first.Config.Substitute("repository_metadata", "repository_type", configdomain.String("tool"))

	second, _ := c.Get("k")
	assert.Equal(t, []string{"Go"}, second.Metadata.TechnologyStack)
	assert.Equal(t, "unknown", second.Warnings[0].Message)
	v, _ := second.Config.Get("repository_metadata", "repository_type")
	assert.Equal(t, "library", v.Interface())
}

func TestResolutionCache_Expiry(t *testing.T) {
	c := NewResolutionCache(4, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Add("k", sampleResolution())
	now = now.Add(59 * time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestResolutionCache_Eviction(t *testing.T) {
	c := NewResolutionCache(2, time.Minute)
	c.Add("a", sampleResolution())
	c.Add("b", sampleResolution())
	c.Get("a")
	c.Add("c", sampleResolution())

	_, okA := c.Get("a")
	_, okB := c.Get("b")
	assert.True(t, okA)
	assert.False(t, okB, "least recently used entry is evicted")
	assert.Equal(t, 2, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestNewResolutionCache_Defaults(t *testing.T) {
	c := NewResolutionCache(0, 0)
	assert.Equal(t, DefaultTTL, c.ttl)
	assert.Equal(t, 0, c.Len())
}
