package configdomain

import (
	"sort"
)

// Provenance records where the winning value of one key came from.
type Provenance struct {
	Source SourceKind
	// Chain lists every source that supplied the key, lowest precedence first.
	Chain []SourceKind
	// Substituted is set when validation replaced the merged value with the
	// compiled-in default.
	Substituted bool
	Rejected    *Value
}

// Entry is one (section, key) of an effective configuration together with its
// provenance.
type Entry struct {
	Section    string
	Key        string
	Value      Value
	Provenance Provenance
}

// DottedKey returns the entry name in "section.key" form
func (e Entry) DottedKey() string { return JoinKey(e.Section, e.Key) }

// EffectiveConfig is the merged mapping plus a parallel provenance mapping built
// during the merge.
type EffectiveConfig struct {
	values     Mapping
	provenance map[string]map[string]Provenance
}

// NewEffectiveConfig creates an empty effective configuration
func NewEffectiveConfig() *EffectiveConfig {
	return &EffectiveConfig{
		values:     make(Mapping),
		provenance: make(map[string]map[string]Provenance),
	}
}

// Get returns the effective value at (section, key)
func (e *EffectiveConfig) Get(section, key string) (Value, bool) {
	return e.values.Get(section, key)
}

// Lookup resolves a case-insensitive dotted key such as "CONFIG.LOG_LEVEL"
func (e *EffectiveConfig) Lookup(dotted string) (Value, bool) {
	section, key := SplitDottedKey(dotted)
	return e.Get(section, key)
}

// Provenance returns the provenance of (section, key)
func (e *EffectiveConfig) Provenance(section, key string) (Provenance, bool) {
	sec, ok := e.provenance[NormalizeName(section)]
	if !ok {
		return Provenance{}, false
	}
	p, ok := sec[NormalizeName(key)]
	if !ok {
		return Provenance{}, false
	}
	p.Chain = append([]SourceKind(nil), p.Chain...)
	return p, true
}

// Section returns a copy of one section's values
func (e *EffectiveConfig) Section(section string) map[string]Value {
	sec := e.values[NormalizeName(section)]
	out := make(map[string]Value, len(sec))
	for k, v := range sec {
		out[k] = v
	}
	return out
}

// Sections returns section names in lexical order
func (e *EffectiveConfig) Sections() []string { return e.values.Sections() }

// Keys returns a section's keys in lexical order
func (e *EffectiveConfig) Keys(section string) []string { return e.values.Keys(section) }

// Values returns a copy of the merged mapping
func (e *EffectiveConfig) Values() Mapping { return e.values.Clone() }

// Len returns the number of effective keys
func (e *EffectiveConfig) Len() int { return e.values.Len() }

// Entries returns all entries sorted by section then key
func (e *EffectiveConfig) Entries() []Entry {
	out := make([]Entry, 0, e.values.Len())
	for _, s := range e.values.Sections() {
		out = append(out, e.SectionEntries(s)...)
	}
	return out
}

// SectionEntries returns the entries of one section sorted by key
func (e *EffectiveConfig) SectionEntries(section string) []Entry {
	section = NormalizeName(section)
	keys := e.values.Keys(section)
	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		p, _ := e.Provenance(section, k)
		out = append(out, Entry{Section: section, Key: k, Value: e.values[section][k], Provenance: p})
	}
	return out
}

// Clone returns a deep copy
func (e *EffectiveConfig) Clone() *EffectiveConfig {
	out := &EffectiveConfig{
		values:     e.values.Clone(),
		provenance: make(map[string]map[string]Provenance, len(e.provenance)),
	}
	for s, sec := range e.provenance {
		cp := make(map[string]Provenance, len(sec))
		for k, p := range sec {
			p.Chain = append([]SourceKind(nil), p.Chain...)
			cp[k] = p
		}
		out.provenance[s] = cp
	}
	return out
}

// Substitute replaces the value at (section, key) with a fallback and marks
// the provenance as substituted. Intended for use on a clone.
func (e *EffectiveConfig) Substitute(section, key string, fallback Value) {
	section, key = NormalizeName(section), NormalizeName(key)
	p, _ := e.Provenance(section, key)
	if old, ok := e.values.Get(section, key); ok {
		rejected := old
		p.Rejected = &rejected
	}
	p.Source = SourceDefault
	p.Substituted = true
	e.values.Set(section, key, fallback)
	e.setProvenance(section, key, p)
}

// Replace swaps the value at (section, key) for an equivalent one, keeping
// its provenance. Intended for use on a clone.
func (e *EffectiveConfig) Replace(section, key string, v Value) {
	section, key = NormalizeName(section), NormalizeName(key)
	if _, ok := e.values.Get(section, key); !ok {
		return
	}
	e.values.Set(section, key, v)
}

// Equal compares values and provenance sources and chains
func (e *EffectiveConfig) Equal(o *EffectiveConfig) bool {
	if !e.values.Equal(o.values) {
		return false
	}
	for s, sec := range e.provenance {
		for k, p := range sec {
			op, ok := o.Provenance(s, k)
			if !ok || op.Source != p.Source || op.Substituted != p.Substituted || len(op.Chain) != len(p.Chain) {
				return false
			}
			for i := range p.Chain {
				if p.Chain[i] != op.Chain[i] {
					return false
				}
			}
		}
	}
	return true
}

func (e *EffectiveConfig) set(section, key string, v Value, src SourceKind) {
	p, _ := e.Provenance(section, key)
	p.Source = src
	p.Chain = append(p.Chain, src)
	p.Substituted = false
	p.Rejected = nil
	e.values.Set(section, key, v)
	e.setProvenance(section, key, p)
}

func (e *EffectiveConfig) setProvenance(section, key string, p Provenance) {
	section, key = NormalizeName(section), NormalizeName(key)
	sec, ok := e.provenance[section]
	if !ok {
		sec = make(map[string]Provenance)
		e.provenance[section] = sec
	}
	sec[key] = p
}

// sortLayers orders layers by precedence rank. The sort is stable so repeated
// kinds keep their argument order.
func sortLayers(layers []Layer) []Layer {
	out := append([]Layer(nil), layers...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Kind.Rank() < out[j].Kind.Rank()
	})
	return out
}
