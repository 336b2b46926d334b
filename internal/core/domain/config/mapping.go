package configdomain

import (
	"sort"
	"strings"
)

// RootSection holds keys declared before any table header.
const RootSection = ""

// Mapping is section -> key -> value. Names are case-folded to lower case.
type Mapping map[string]map[string]Value

// NormalizeName folds a section or key name for storage and lookup
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Set stores a value, creating the section when needed
func (m Mapping) Set(section, key string, v Value) {
	section, key = NormalizeName(section), NormalizeName(key)
	sec, ok := m[section]
	if !ok {
		sec = make(map[string]Value)
		m[section] = sec
	}
	sec[key] = v
}

// Get returns the value at (section, key)
func (m Mapping) Get(section, key string) (Value, bool) {
	sec, ok := m[NormalizeName(section)]
	if !ok {
		return Value{}, false
	}
	v, ok := sec[NormalizeName(key)]
	return v, ok
}

// Has reports whether (section, key) is present
func (m Mapping) Has(section, key string) bool {
	_, ok := m.Get(section, key)
	return ok
}

// Sections returns section names in lexical order
func (m Mapping) Sections() []string {
	out := make([]string, 0, len(m))
	for s := range m {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Keys returns the keys of a section in lexical order
func (m Mapping) Keys(section string) []string {
	sec := m[NormalizeName(section)]
	out := make([]string, 0, len(sec))
	for k := range sec {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Len returns the total number of (section, key) pairs
func (m Mapping) Len() int {
	n := 0
	for _, sec := range m {
		n += len(sec)
	}
	return n
}

// Clone returns a deep copy. Values are immutable so only maps are copied.
func (m Mapping) Clone() Mapping {
	out := make(Mapping, len(m))
	for s, sec := range m {
		cp := make(map[string]Value, len(sec))
		for k, v := range sec {
			cp[k] = v
		}
		out[s] = cp
	}
	return out
}

// Equal reports whether both mappings hold the same pairs
func (m Mapping) Equal(o Mapping) bool {
	if m.Len() != o.Len() {
		return false
	}
	for s, sec := range m {
		for k, v := range sec {
			ov, ok := o.Get(s, k)
			if !ok || !v.Equal(ov) {
				return false
			}
		}
	}
	return true
}

// SplitDottedKey splits "section.key" on the last dot. A name without a dot
// refers to the root section.
func SplitDottedKey(dotted string) (section, key string) {
	dotted = NormalizeName(dotted)
	idx := strings.LastIndex(dotted, ".")
	if idx < 0 {
		return RootSection, dotted
	}
	return dotted[:idx], dotted[idx+1:]
}

// JoinKey renders (section, key) in dotted form
func JoinKey(section, key string) string {
	if section == RootSection {
		return key
	}
	return section + "." + key
}
