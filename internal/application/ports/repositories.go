package ports

import (
	configdomain "prinsight.ai/cli/internal/core/domain/config"
	"prinsight.ai/cli/internal/core/metadata"
)

// CachedResolution is the content-addressed part of a resolution: the merged
// and validated configuration for one exact set of source contents.
type CachedResolution struct {
	Config   *configdomain.EffectiveConfig
	Metadata metadata.RepositoryMetadata
	Warnings []configdomain.Warning
}

// ResolutionCache stores merge results keyed by a digest of every source's
// content, so a change in any source is a different key.
type ResolutionCache interface {
	// Get returns a cached resolution
	Get(key string) (CachedResolution, bool)

	// Add stores a resolution
	Add(key string, value CachedResolution)

	// Len returns the number of cached entries
	Len() int
}
