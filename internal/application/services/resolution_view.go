package services

import (
	"prinsight.ai/cli/internal/core/discovery"
	configdomain "prinsight.ai/cli/internal/core/domain/config"
	"prinsight.ai/cli/internal/core/metadata"
)

// SourceView summarizes one fetched source
type SourceView struct {
	Kind    string `json:"kind" yaml:"kind"`
	Present bool   `json:"present" yaml:"present"`
	Bytes   int    `json:"bytes" yaml:"bytes"`
}

// EntryView is one effective key with its provenance
type EntryView struct {
	Key         string      `json:"key" yaml:"key"`
	Value       interface{} `json:"value" yaml:"value"`
	Source      string      `json:"source" yaml:"source"`
	Chain       []string    `json:"chain" yaml:"chain"`
	Substituted bool        `json:"substituted,omitempty" yaml:"substituted,omitempty"`
	Rejected    interface{} `json:"rejected,omitempty" yaml:"rejected,omitempty"`
}

// ResolutionView is the serializable form of a Resolution.
type ResolutionView struct {
	Repository   string                            `json:"repository" yaml:"repository"`
	Organization string                            `json:"organization,omitempty" yaml:"organization,omitempty"`
	Sources      []SourceView                      `json:"sources" yaml:"sources"`
	Config       map[string]map[string]interface{} `json:"config" yaml:"config"`
	Metadata     metadata.RepositoryMetadata       `json:"repository_metadata" yaml:"repository_metadata"`
	Hints        discovery.Hints                   `json:"discovered" yaml:"discovered"`
	ContextBlock string                            `json:"context_block" yaml:"context_block"`
	Warnings     []configdomain.Warning            `json:"warnings" yaml:"warnings"`
	CacheHit     bool                              `json:"cache_hit" yaml:"cache_hit"`
	DurationMS   int64                             `json:"duration_ms" yaml:"duration_ms"`

	// Relevant is only filled for debug requests
	Relevant     []EntryView `json:"relevant_configurations,omitempty" yaml:"relevant_configurations,omitempty"`
	RelevantText string      `json:"relevant_text,omitempty" yaml:"relevant_text,omitempty"`
}

// NewResolutionView converts res. With debug set the entries tool reads are
// attached with their provenance.
func NewResolutionView(res *Resolution, tool string, debug bool) ResolutionView {
	v := ResolutionView{
		Repository:   res.Target.Repository,
		Organization: res.Target.Organization,
		Config:       make(map[string]map[string]interface{}),
		Metadata:     res.Metadata,
		Hints:        res.Hints,
		ContextBlock: res.Block.String(),
		Warnings:     res.Warnings,
		CacheHit:     res.CacheHit,
		DurationMS:   res.Duration.Milliseconds(),
	}
	if v.Warnings == nil {
		v.Warnings = []configdomain.Warning{}
	}

	for _, src := range res.Sources {
		content, ok := src.Content()
		v.Sources = append(v.Sources, SourceView{Kind: src.Kind().String(), Present: ok, Bytes: len(content)})
	}

	if res.Config != nil {
		for _, section := range res.Config.Sections() {
			values := make(map[string]interface{})
			for key, val := range res.Config.Section(section) {
				values[key] = val.Interface()
			}
			v.Config[section] = values
		}
		if debug {
			entries := RelevantConfigurations(res.Config, tool)
			for _, e := range entries {
				v.Relevant = append(v.Relevant, NewEntryView(e))
			}
			v.RelevantText = RenderRelevant(entries)
		}
	}
	return v
}

// NewEntryView converts one entry
func NewEntryView(e configdomain.Entry) EntryView {
	ev := EntryView{
		Key:         e.DottedKey(),
		Value:       e.Value.Interface(),
		Source:      e.Provenance.Source.String(),
		Substituted: e.Provenance.Substituted,
	}
	for _, k := range e.Provenance.Chain {
		ev.Chain = append(ev.Chain, k.String())
	}
	if e.Provenance.Rejected != nil {
		ev.Rejected = e.Provenance.Rejected.Interface()
	}
	return ev
}
