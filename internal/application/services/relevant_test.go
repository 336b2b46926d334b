package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	configdomain "prinsight.ai/cli/internal/core/domain/config"
	"prinsight.ai/cli/internal/core/metadata"
)

func relevantFixture() *configdomain.EffectiveConfig {
	defaults := configdomain.Mapping{}
	defaults.Set("config", "model", configdomain.String("gpt-4o"))
	defaults.Set("pr_reviewer", "num_code_suggestions", configdomain.Int(4))
	defaults.Set("pr_description", "publish_labels", configdomain.Bool(true))
	defaults.Set(metadata.Section, metadata.KeyRepositoryType, configdomain.String("other"))

	local := configdomain.Mapping{}
	local.Set("pr_reviewer", "num_code_suggestions", configdomain.Int(2))

	cfg := configdomain.Merge(
		configdomain.Layer{Kind: configdomain.SourceDefault, Mapping: defaults},
		configdomain.Layer{Kind: configdomain.SourceLocal, Mapping: local},
	)
	cfg = cfg.Clone()
	cfg.Substitute(metadata.Section, metadata.KeyRepositoryType, configdomain.String("other"))
	return cfg
}

func TestRelevantConfigurations_Tool(t *testing.T) {
	entries := RelevantConfigurations(relevantFixture(), "Review")

	var keys []string
	for _, e := range entries {
		keys = append(keys, e.DottedKey())
	}
	assert.Equal(t, []string{
		"config.model",
		"pr_reviewer.num_code_suggestions",
		"repository_metadata.repository_type",
	}, keys)
	assert.Equal(t, configdomain.SourceLocal, entries[1].Provenance.Source)
}

func TestRelevantConfigurations_UnknownToolShowsEverything(t *testing.T) {
	entries := RelevantConfigurations(relevantFixture(), "")
	assert.Len(t, entries, 4)
}

func TestRenderRelevant(t *testing.T) {
	out := RenderRelevant(RelevantConfigurations(relevantFixture(), "review"))
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 8)

	assert.Equal(t, "[config]", lines[0])
	assert.Contains(t, lines[1], `config.model`)
	assert.Contains(t, lines[1], `= "gpt-4o"  (default)`)
	assert.Equal(t, "", lines[2])
	assert.Equal(t, "[pr_reviewer]", lines[3])
	assert.Contains(t, lines[4], "= 2  (local)")
	assert.Equal(t, "[repository_metadata]", lines[6])
	assert.Contains(t, lines[7], "(default, replaced invalid \"other\")")
}

func TestTools(t *testing.T) {
	assert.Equal(t, []string{"ask", "describe", "improve", "review", "test"}, Tools())
}
