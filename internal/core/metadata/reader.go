package metadata

import (
	configdomain "prinsight.ai/cli/internal/core/domain/config"
)

// ReadMetadata builds the typed metadata view of a validated configuration.
// Keys missing from cfg fall back to defaults, then to the built-in values.
func ReadMetadata(cfg *configdomain.EffectiveConfig, defaults configdomain.Mapping) RepositoryMetadata {
	r := reader{cfg: cfg, defaults: defaults}
	base := DefaultRepositoryMetadata()

	return RepositoryMetadata{
		Enabled:             r.boolean(KeyEnabled, base.Enabled),
		RepositoryType:      RepositoryType(normalizeEnum(r.str(KeyRepositoryType, string(base.RepositoryType)))),
		TechnologyStack:     r.list(KeyTechnologyStack, base.TechnologyStack),
		MaturityLevel:       MaturityLevel(normalizeEnum(r.str(KeyMaturityLevel, string(base.MaturityLevel)))),
		ComplexityLevel:     ComplexityLevel(normalizeEnum(r.str(KeyComplexityLevel, string(base.ComplexityLevel)))),
		CustomContext:       r.str(KeyCustomContext, base.CustomContext),
		BestPracticesFile:   r.str(KeyBestPracticesFile, base.BestPracticesFile),
		GuidelinesFile:      r.str(KeyGuidelinesFile, base.GuidelinesFile),
		ContextEnhancements: r.list(KeyContextEnhancements, base.ContextEnhancements),
		AutoDiscoverContext: r.boolean(KeyAutoDiscover, base.AutoDiscoverContext),
		MaxContextFiles:     int(r.integer(KeyMaxContextFiles, int64(base.MaxContextFiles))),
	}
}

type reader struct {
	cfg      *configdomain.EffectiveConfig
	defaults configdomain.Mapping
}

func (r reader) lookup(key string) []configdomain.Value {
	var out []configdomain.Value
	if v, ok := r.cfg.Get(Section, key); ok {
		out = append(out, v)
	}
	if r.defaults != nil {
		if v, ok := r.defaults.Get(Section, key); ok {
			out = append(out, v)
		}
	}
	return out
}

func (r reader) str(key, fallback string) string {
	for _, v := range r.lookup(key) {
		if s, ok := v.AsString(); ok {
			return s
		}
	}
	return fallback
}

func (r reader) boolean(key string, fallback bool) bool {
	for _, v := range r.lookup(key) {
		if b, ok := v.AsBool(); ok {
			return b
		}
	}
	return fallback
}

func (r reader) integer(key string, fallback int64) int64 {
	for _, v := range r.lookup(key) {
		if n, ok := v.AsInt(); ok && n > 0 {
			return n
		}
	}
	return fallback
}

func (r reader) list(key string, fallback []string) []string {
	for _, v := range r.lookup(key) {
		if l, ok := v.AsList(); ok {
			return l
		}
	}
	return append([]string{}, fallback...)
}
