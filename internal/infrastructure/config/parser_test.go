package configinfra

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	configdomain "prinsight.ai/cli/internal/core/domain/config"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "backtick_fence_with_info_string",
			input:    "```toml\n[pr_reviewer]\nextra_instructions = \"x\"\n```",
			expected: "[pr_reviewer]\nextra_instructions = \"x\"",
		},
		{
			name:     "backtick_fence_surrounded_by_whitespace",
			input:    "\n\n```\n[config]\nlog_level = \"info\"\n```\n  ",
			expected: "[config]\nlog_level = \"info\"",
		},
		{
			name:     "triple_quotes",
			input:    "\"\"\"\n[config]\nmodel = \"m\"\n\"\"\"",
			expected: "[config]\nmodel = \"m\"\n",
		},
		{
			name:     "unwrapped_passthrough",
			input:    "[config]\nmodel = \"m\"\n",
			expected: "[config]\nmodel = \"m\"\n",
		},
		{
			name:     "fence_inside_content_is_kept",
			input:    "[config]\nnote = \"see below\"\n```\ncode\n```\n",
			expected: "[config]\nnote = \"see below\"\n```\ncode\n```\n",
		},
		{
			name:     "two_adjacent_blocks_not_unwrapped",
			input:    "```\na = 1\n```\n```\nb = 2\n```",
			expected: "```\na = 1\n```\n```\nb = 2\n```",
		},
		{
			name:     "single_line_fence_not_unwrapped",
			input:    "```a = 1```",
			expected: "```a = 1```",
		},
		{
			name:     "nested_wrappers_fully_removed",
			input:    "```\n\"\"\"\na = 1\n\"\"\"\n```",
			expected: "a = 1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Sanitize(tt.input))
		})
	}
}

func TestUnwrapOnce_RemovesSingleLayer(t *testing.T) {
	body, ok := UnwrapOnce("```\n```\ninner\n```\n```")
	// the inner fence lines make this ambiguous, so it is left alone
	assert.False(t, ok)
	assert.Empty(t, body)

	body, ok = UnwrapOnce("\"\"\"\n```\ninner\n```\n\"\"\"")
	require.True(t, ok)
	assert.Equal(t, "```\ninner\n```\n", body)
}

func TestParse_TypedValues(t *testing.T) {
	text := `
top = "root value"

[Repository_Metadata]
enabled = true
technology_stack = ["Go", "PostgreSQL", "Docker"]
context_enhancements = []
max_context_files = 25
ratio = 0.5
mixed = [1, true, "x"]
released = 2024-05-01T10:00:00Z

[azure.openai]
deployment = "d1"
`
	m, err := Parse(configdomain.SourceLocal, text)
	require.NoError(t, err)

	root, ok := m.Get(configdomain.RootSection, "top")
	require.True(t, ok)
	assert.True(t, root.Equal(configdomain.String("root value")))

	v, _ := m.Get("repository_metadata", "enabled")
	assert.True(t, v.Equal(configdomain.Bool(true)))

	v, _ = m.Get("repository_metadata", "technology_stack")
	list, _ := v.AsList()
	assert.Equal(t, []string{"Go", "PostgreSQL", "Docker"}, list, "list order must be preserved")

	v, ok = m.Get("repository_metadata", "context_enhancements")
	require.True(t, ok, "explicit empty list must be present")
	list, isList := v.AsList()
	assert.True(t, isList)
	assert.Empty(t, list)

	v, _ = m.Get("repository_metadata", "max_context_files")
	assert.True(t, v.Equal(configdomain.Int(25)))
	v, _ = m.Get("repository_metadata", "ratio")
	assert.True(t, v.Equal(configdomain.Float(0.5)))
	v, _ = m.Get("repository_metadata", "mixed")
	assert.True(t, v.Equal(configdomain.List("1", "true", "x")))
	v, _ = m.Get("repository_metadata", "released")
	assert.True(t, v.Equal(configdomain.String("2024-05-01T10:00:00Z")))

	v, _ = m.Get("azure.openai", "deployment")
	assert.True(t, v.Equal(configdomain.String("d1")))

	assert.False(t, m.Has("repository_metadata", "custom_context"))
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		errMsg string
	}{
		{
			name:   "unterminated_section",
			input:  "[config\nmodel = \"m\"\n",
			errMsg: "local source is malformed",
		},
		{
			name:   "case_collision",
			input:  "[config]\nLog_Level = \"info\"\nlog_level = \"debug\"\n",
			errMsg: "differ only by case",
		},
		{
			name:   "array_of_tables",
			input:  "[[rules]]\nname = \"a\"\n",
			errMsg: "arrays of tables",
		},
		{
			name:   "nested_list",
			input:  "[config]\nmatrix = [[1, 2], [3]]\n",
			errMsg: "lists may only hold scalars",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(configdomain.SourceLocal, tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, configdomain.ErrMalformedSource)
			assert.Contains(t, err.Error(), tt.errMsg)

			var malformed *configdomain.MalformedSourceError
			require.True(t, errors.As(err, &malformed))
			assert.Equal(t, configdomain.SourceLocal, malformed.Kind)
		})
	}
}

func TestParseSource(t *testing.T) {
	now := time.Now()

	layer, err := ParseSource(configdomain.AbsentSource(configdomain.SourceWiki, now))
	require.NoError(t, err)
	assert.Nil(t, layer.Mapping)

	wiki := configdomain.NewSource(configdomain.SourceWiki, "```toml\n[pr_reviewer]\nextra_instructions = \"wiki\"\n```", now)
	layer, err = ParseSource(wiki)
	require.NoError(t, err)
	v, _ := layer.Mapping.Get("pr_reviewer", "extra_instructions")
	assert.True(t, v.Equal(configdomain.String("wiki")))

	// only wiki content is sanitized
	local := configdomain.NewSource(configdomain.SourceLocal, "```toml\n[pr_reviewer]\n```", now)
	_, err = ParseSource(local)
	assert.ErrorIs(t, err, configdomain.ErrMalformedSource)
}

func TestDefaults_RepositoryMetadata(t *testing.T) {
	d := Defaults()

	v, ok := d.Get("repository_metadata", "max_context_files")
	require.True(t, ok)
	assert.True(t, v.Equal(configdomain.Int(50)))
	v, _ = d.Get("repository_metadata", "repository_type")
	assert.True(t, v.Equal(configdomain.String("other")))
	v, _ = d.Get("pr_reviewer", "extra_instructions")
	assert.True(t, v.Equal(configdomain.String("")))

	// callers get a copy
	d.Set("repository_metadata", "max_context_files", configdomain.Int(1))
	again, _ := Defaults().Get("repository_metadata", "max_context_files")
	assert.True(t, again.Equal(configdomain.Int(50)))
}

// Property-based tests using rapid

func TestSanitize_Property_Idempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		body := rapid.StringMatching("[a-z=\"\\[\\]` \n]{0,40}").Draw(t, "body")
		wrappers := rapid.SliceOfN(rapid.SampledFrom([]string{"```", "```toml", `"""`}), 0, 3).Draw(t, "wrappers")
		x := body
		for _, w := range wrappers {
			if w == `"""` {
				x = w + "\n" + x + "\n" + w
			} else {
				x = w + "\n" + x + "\n```"
			}
		}

		once := Sanitize(x)
		twice := Sanitize(once)
		if once != twice {
			t.Fatalf("sanitize not idempotent:\n%q\n%q", once, twice)
		}
	})
}

func TestSanitize_Property_UnwrappedIsUnchanged(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.StringMatching(`[a-z_]{1,8} = "[a-z ]{0,10}"(\n[a-z_]{1,8} = [0-9]{1,3}){0,3}`).Draw(t, "text")
		if got := Sanitize(text); got != text {
			t.Fatalf("unwrapped content changed: %q -> %q", text, got)
		}
	})
}

func TestSanitize_Property_SingleWrapRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		lines := rapid.SliceOfN(rapid.StringMatching(`[a-z_]{1,8} = [0-9]{1,3}`), 1, 5).Draw(t, "lines")
		body := ""
		for i, l := range lines {
			if i > 0 {
				body += "\n"
			}
			body += l
		}
		wrapped := "```toml\n" + body + "\n```"
		if got := Sanitize(wrapped); got != body {
			t.Fatalf("expected %q, got %q", body, got)
		}
	})
}
