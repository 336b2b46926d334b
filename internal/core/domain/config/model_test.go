package configdomain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitDottedKey(t *testing.T) {
	tests := []struct {
		input   string
		section string
		key     string
	}{
		{"CONFIG.LOG_LEVEL", "config", "log_level"},
		{"azure.openai.deployment", "azure.openai", "deployment"},
		{"rootkey", RootSection, "rootkey"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			section, key := SplitDottedKey(tt.input)
			assert.Equal(t, tt.section, section)
			assert.Equal(t, tt.key, key)
			assert.Equal(t, NormalizeName(tt.input), JoinKey(section, key))
		})
	}
}

func TestValue_ListIsImmutable(t *testing.T) {
	items := []string{"go", "docker"}
	v := List(items...)
	items[0] = "rust"

	got, ok := v.AsList()
	require.True(t, ok)
	assert.Equal(t, []string{"go", "docker"}, got)

	got[1] = "changed"
	again, _ := v.AsList()
	assert.Equal(t, "docker", again[1])
}

func TestValue_EmptyListDiffersFromAbsent(t *testing.T) {
	m := Mapping{}
	m.Set("repository_metadata", "technology_stack", List())

	v, ok := m.Get("repository_metadata", "technology_stack")
	require.True(t, ok)
	list, isList := v.AsList()
	assert.True(t, isList)
	assert.Empty(t, list)
	assert.False(t, m.Has("repository_metadata", "context_enhancements"))
}

func TestValue_IntWidensToFloat(t *testing.T) {
	f, ok := Int(3).AsFloat()
	assert.True(t, ok)
	assert.Equal(t, 3.0, f)
	assert.False(t, Int(3).Equal(Float(3)))
}

func TestEffectiveConfig_Substitute(t *testing.T) {
	m := Mapping{}
	m.Set("repository_metadata", "repository_type", String("webapp"))
	eff := Merge(Layer{Kind: SourceLocal, Mapping: m})
	before := eff.Clone()

	fixed := eff.Clone()
	fixed.Substitute("repository_metadata", "repository_type", String("other"))

	v, _ := fixed.Get("repository_metadata", "repository_type")
	assert.True(t, v.Equal(String("other")))
	p, _ := fixed.Provenance("repository_metadata", "repository_type")
	assert.True(t, p.Substituted)
	assert.Equal(t, SourceDefault, p.Source)
	require.NotNil(t, p.Rejected)
	assert.True(t, p.Rejected.Equal(String("webapp")))

	assert.True(t, eff.Equal(before), "original should be untouched")
}

func TestSourceErrors_MatchSentinels(t *testing.T) {
	unavailable := fmt.Errorf("loading: %w", &SourceUnavailableError{Kind: SourceGlobal, Err: errors.New("403")})
	malformed := &MalformedSourceError{Kind: SourceLocal, Line: 3, Err: errors.New("unterminated table")}

	assert.ErrorIs(t, unavailable, ErrSourceUnavailable)
	assert.NotErrorIs(t, unavailable, ErrMalformedSource)
	assert.ErrorIs(t, malformed, ErrMalformedSource)
	assert.Contains(t, malformed.Error(), "line 3")

	kind, ok := FailedSource(unavailable)
	assert.True(t, ok)
	assert.Equal(t, SourceGlobal, kind)

	w := SourceWarning(malformed)
	assert.Equal(t, WarnMalformedSource, w.Code)
	assert.Equal(t, SourceLocal, w.Source)
}

func TestParseSourceKind(t *testing.T) {
	k, err := ParseSourceKind(" Wiki ")
	require.NoError(t, err)
	assert.Equal(t, SourceWiki, k)
	assert.Equal(t, 3, k.Rank())

	_, err = ParseSourceKind("cli")
	assert.Error(t, err)
}
