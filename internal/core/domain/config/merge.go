package configdomain

// Merge builds an effective configuration from parsed layers. Layers are applied
// in Precedence order whatever order they are passed in; for every (section, key)
// present in a layer the value is overwritten and the layer recorded as its
// source. Absent layers (nil Mapping) contribute nothing.
func Merge(layers ...Layer) *EffectiveConfig {
	return MergeInto(NewEffectiveConfig(), layers...)
}

// MergeInto applies layers on top of an existing effective configuration
// without modifying it.
func MergeInto(base *EffectiveConfig, layers ...Layer) *EffectiveConfig {
	out := base.Clone()
	for _, layer := range sortLayers(layers) {
		if layer.Mapping == nil {
			continue
		}
		for _, section := range layer.Mapping.Sections() {
			for _, key := range layer.Mapping.Keys(section) {
				out.set(section, key, layer.Mapping[section][key], layer.Kind)
			}
		}
	}
	return out
}

// Overlay combines two effective configurations where every key of upper wins
// over lower. Provenance chains are concatenated.
func Overlay(lower, upper *EffectiveConfig) *EffectiveConfig {
	out := lower.Clone()
	for _, entry := range upper.Entries() {
		p, _ := out.Provenance(entry.Section, entry.Key)
		p.Source = entry.Provenance.Source
		p.Chain = append(p.Chain, entry.Provenance.Chain...)
		p.Substituted = entry.Provenance.Substituted
		p.Rejected = entry.Provenance.Rejected
		out.values.Set(entry.Section, entry.Key, entry.Value)
		out.setProvenance(entry.Section, entry.Key, p)
	}
	return out
}
