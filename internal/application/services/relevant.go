package services

import (
	"fmt"
	"sort"
	"strings"

	configdomain "prinsight.ai/cli/internal/core/domain/config"
	"prinsight.ai/cli/internal/core/metadata"
)

// ToolSections maps each review tool to the configuration section it reads.
var ToolSections = map[string]string{
	"review":   "pr_reviewer",
	"describe": "pr_description",
	"improve":  "pr_code_suggestions",
	"ask":      "pr_questions",
	"test":     "pr_test",
}

// Tools returns the known tool names, sorted
func Tools() []string {
	names := make([]string, 0, len(ToolSections))
	for name := range ToolSections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RelevantSections returns the sections a tool reads: the shared config
// section, the tool's own section and repository_metadata. An unknown or
// empty tool yields every section of cfg.
func RelevantSections(cfg *configdomain.EffectiveConfig, tool string) []string {
	section, ok := ToolSections[strings.ToLower(strings.TrimSpace(tool))]
	if !ok {
		return cfg.Sections()
	}
	return []string{"config", section, metadata.Section}
}

// RelevantConfigurations returns the entries of the sections a tool reads,
// each with its provenance.
func RelevantConfigurations(cfg *configdomain.EffectiveConfig, tool string) []configdomain.Entry {
	var entries []configdomain.Entry
	for _, section := range RelevantSections(cfg, tool) {
		entries = append(entries, cfg.SectionEntries(section)...)
	}
	return entries
}

// RenderRelevant formats entries one per line as "section.key = value",
// followed by the winning source and any substitution.
func RenderRelevant(entries []configdomain.Entry) string {
	width := 0
	for _, e := range entries {
		if n := len(e.DottedKey()); n > width {
			width = n
		}
	}

	var b strings.Builder
	section := "\x00"
	for _, e := range entries {
		if e.Section != section {
			if section != "\x00" {
				b.WriteString("\n")
			}
			section = e.Section
			name := section
			if name == configdomain.RootSection {
				name = "(root)"
			}
			fmt.Fprintf(&b, "[%s]\n", name)
		}
		fmt.Fprintf(&b, "%-*s = %s  (%s", width, e.DottedKey(), e.Value.String(), e.Provenance.Source)
		if e.Provenance.Substituted && e.Provenance.Rejected != nil {
			fmt.Fprintf(&b, ", replaced invalid %s", e.Provenance.Rejected.String())
		}
		b.WriteString(")\n")
	}
	return b.String()
}
