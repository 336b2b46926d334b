package metadata

import (
	"fmt"
	"strings"

	configdomain "prinsight.ai/cli/internal/core/domain/config"
)

// FieldResult is the outcome of validating one field. A field with warnings
// carries the substituted default as its Value.
type FieldResult[T any] struct {
	Value    T
	Warnings []configdomain.Warning
}

// OK reports whether the field validated without diagnostics
func (r FieldResult[T]) OK() bool { return len(r.Warnings) == 0 }

// Result is the outcome of validating an effective configuration.
type Result struct {
	Config   *configdomain.EffectiveConfig
	Metadata RepositoryMetadata
	Warnings []configdomain.Warning
}

type rule func(v configdomain.Value) error

// rules are checked after the type check against the default value.
var rules = map[string]map[string]rule{
	Section: {
		KeyRepositoryType:  enumRule(RepositoryTypes),
		KeyMaturityLevel:   enumRule(MaturityLevels),
		KeyComplexityLevel: enumRule(ComplexityLevels),
		KeyMaxContextFiles: positiveIntRule,
	},
}

func enumRule(vocab []string) rule {
	return func(v configdomain.Value) error {
		s, _ := v.AsString()
		if !inVocabulary(vocab, s) {
			return fmt.Errorf("must be one of %s", strings.Join(vocab, ", "))
		}
		return nil
	}
}

func positiveIntRule(v configdomain.Value) error {
	if n, _ := v.AsInt(); n <= 0 {
		return fmt.Errorf("must be a positive integer")
	}
	return nil
}

// Validator checks an effective configuration against the compiled-in
// defaults, which define the known keys and their types.
type Validator struct {
	defaults configdomain.Mapping
}

// NewValidator creates a validator over a defaults mapping
func NewValidator(defaults configdomain.Mapping) *Validator {
	return &Validator{defaults: defaults}
}

// Validate returns a validated copy of eff. Invalid known fields are replaced
// with their default and reported; unknown keys are kept and reported. The
// input is never modified and validation never fails as a whole.
func (v *Validator) Validate(eff *configdomain.EffectiveConfig) Result {
	out := eff.Clone()
	var warnings []configdomain.Warning

	for _, entry := range eff.Entries() {
		res := v.ValidateField(entry)
		warnings = append(warnings, res.Warnings...)
		switch {
		case res.Value.Equal(entry.Value):
		case res.OK():
			out.Replace(entry.Section, entry.Key, res.Value)
		default:
			out.Substitute(entry.Section, entry.Key, res.Value)
		}
	}

	md := ReadMetadata(out, v.defaults)
	configdomain.SortWarnings(warnings)
	return Result{Config: out, Metadata: md, Warnings: warnings}
}

// ValidateField checks one entry. Unknown keys keep their value.
func (v *Validator) ValidateField(entry configdomain.Entry) FieldResult[configdomain.Value] {
	def, known := v.defaults.Get(entry.Section, entry.Key)
	if !known {
		return FieldResult[configdomain.Value]{
			Value: entry.Value,
			Warnings: []configdomain.Warning{{
				Code:    configdomain.WarnUnknownKey,
				Source:  entry.Provenance.Source,
				Section: entry.Section,
				Key:     entry.Key,
				Value:   entry.Value.String(),
				Message: "unrecognized key kept as pass-through value",
			}},
		}
	}

	if s, ok := entry.Value.AsString(); ok && def.Kind() == configdomain.KindList {
		return FieldResult[configdomain.Value]{Value: singleton(s)}
	}
	if !compatible(def, entry.Value) {
		return invalid(entry, def, fmt.Sprintf("expected %s, got %s", def.Kind(), entry.Value.Kind()))
	}
	if check, ok := rules[entry.Section][entry.Key]; ok {
		if err := check(entry.Value); err != nil {
			return invalid(entry, def, err.Error())
		}
	}
	return FieldResult[configdomain.Value]{Value: entry.Value}
}

func invalid(entry configdomain.Entry, def configdomain.Value, reason string) FieldResult[configdomain.Value] {
	return FieldResult[configdomain.Value]{
		Value: def,
		Warnings: []configdomain.Warning{{
			Code:    configdomain.WarnValidation,
			Source:  entry.Provenance.Source,
			Section: entry.Section,
			Key:     entry.Key,
			Value:   entry.Value.String(),
			Message: fmt.Sprintf("%s; using default %s", reason, def),
		}},
	}
}

// singleton coerces a scalar string given for a list key. An empty string is
// an empty list.
func singleton(s string) configdomain.Value {
	if s == "" {
		return configdomain.List()
	}
	return configdomain.List(s)
}

// compatible accepts an int where the default is a float.
func compatible(def, v configdomain.Value) bool {
	if def.Kind() == v.Kind() {
		return true
	}
	return def.Kind() == configdomain.KindFloat && v.Kind() == configdomain.KindInt
}

// Validate is a convenience wrapper around NewValidator(defaults).Validate.
func Validate(eff *configdomain.EffectiveConfig, defaults configdomain.Mapping) Result {
	return NewValidator(defaults).Validate(eff)
}
