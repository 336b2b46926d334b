package configports

import (
	"context"

	configdomain "prinsight.ai/cli/internal/core/domain/config"
)

// Target identifies the repository a configuration is resolved for.
type Target struct {
	// Repository is "owner/name"
	Repository   string `json:"repository"`
	Organization string `json:"organization"`
}

// Owner returns the organization, falling back to the repository owner
func (t Target) Owner() string {
	if t.Organization != "" {
		return t.Organization
	}
	for i := 0; i < len(t.Repository); i++ {
		if t.Repository[i] == '/' {
			return t.Repository[:i]
		}
	}
	return ""
}

// Loader fetches the raw content of one configuration source. A source that
// does not exist is returned as absent with a nil error.
type Loader interface {
	Load(ctx context.Context, target Target) (configdomain.Source, error)
	Kind() configdomain.SourceKind
}
