package configdomain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var (
	testSections = []string{"config", "pr_reviewer", "repository_metadata"}
	testKeys     = []string{"alpha", "beta", "gamma", "delta"}
)

func genValue() *rapid.Generator[Value] {
	return rapid.Custom(func(t *rapid.T) Value {
		switch rapid.IntRange(0, 4).Draw(t, "kind") {
		case 0:
			return String(rapid.StringMatching(`[a-z ]{0,8}`).Draw(t, "s"))
		case 1:
			return Bool(rapid.Bool().Draw(t, "b"))
		case 2:
			return Int(rapid.Int64Range(-100, 100).Draw(t, "i"))
		case 3:
			return Float(rapid.Float64Range(-10, 10).Draw(t, "f"))
		default:
			return List(rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,4}`), 0, 3).Draw(t, "l")...)
		}
	})
}

func genMapping(label string) *rapid.Generator[Mapping] {
	return rapid.Custom(func(t *rapid.T) Mapping {
		m := make(Mapping)
		for _, s := range testSections {
			for _, k := range testKeys {
				if rapid.Bool().Draw(t, label+"-has-"+s+"."+k) {
					m.Set(s, k, genValue().Draw(t, label+"-"+s+"."+k))
				}
			}
		}
		return m
	})
}

func genLayers(t *rapid.T) (d, g, l, w Layer) {
	d = Layer{Kind: SourceDefault, Mapping: genMapping("default").Draw(t, "default")}
	g = Layer{Kind: SourceGlobal, Mapping: genMapping("global").Draw(t, "global")}
	l = Layer{Kind: SourceLocal, Mapping: genMapping("local").Draw(t, "local")}
	w = Layer{Kind: SourceWiki, Mapping: genMapping("wiki").Draw(t, "wiki")}
	for _, layer := range []*Layer{&g, &l, &w} {
		if rapid.Bool().Draw(t, string(layer.Kind)+"-absent") {
			layer.Mapping = nil
		}
	}
	return d, g, l, w
}

// TestMerge_Scenario_LocalOverridesGlobal covers a key overridden twice with the wiki absent
func TestMerge_Scenario_LocalOverridesGlobal(t *testing.T) {
	defaults := Mapping{}
	defaults.Set("pr_reviewer", "extra_instructions", String(""))
	global := Mapping{}
	global.Set("pr_reviewer", "extra_instructions", String("org rule A"))
	local := Mapping{}
	local.Set("pr_reviewer", "extra_instructions", String("repo rule B"))

	eff := Merge(
		Layer{Kind: SourceDefault, Mapping: defaults},
		Layer{Kind: SourceGlobal, Mapping: global},
		Layer{Kind: SourceLocal, Mapping: local},
		Layer{Kind: SourceWiki},
	)

	v, ok := eff.Get("pr_reviewer", "extra_instructions")
	require.True(t, ok)
	s, _ := v.AsString()
	assert.Equal(t, "repo rule B", s)

	p, ok := eff.Provenance("pr_reviewer", "extra_instructions")
	require.True(t, ok)
	assert.Equal(t, SourceLocal, p.Source)
	assert.Equal(t, []SourceKind{SourceDefault, SourceGlobal, SourceLocal}, p.Chain)
}

// TestMerge_ExplicitEmptyValuesWin tests that presence, not value, decides precedence
func TestMerge_ExplicitEmptyValuesWin(t *testing.T) {
	tests := []struct {
		name  string
		lower Value
		upper Value
	}{
		{name: "EmptyString_ShouldWin", lower: String("text"), upper: String("")},
		{name: "False_ShouldWin", lower: Bool(true), upper: Bool(false)},
		{name: "EmptyList_ShouldWin", lower: List("go", "docker"), upper: List()},
		{name: "Zero_ShouldWin", lower: Int(50), upper: Int(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lower := Mapping{}
			lower.Set("repository_metadata", "field", tt.lower)
			upper := Mapping{}
			upper.Set("repository_metadata", "field", tt.upper)

			eff := Merge(Layer{Kind: SourceDefault, Mapping: lower}, Layer{Kind: SourceWiki, Mapping: upper})

			v, ok := eff.Get("repository_metadata", "field")
			require.True(t, ok)
			assert.True(t, v.Equal(tt.upper), "higher source value should win, got %s", v)
		})
	}
}

// TestMerge_IsPerKeyNotPerSection tests that untouched keys survive a partial override
func TestMerge_IsPerKeyNotPerSection(t *testing.T) {
	defaults := Mapping{}
	defaults.Set("pr_reviewer", "num_code_suggestions", Int(4))
	defaults.Set("pr_reviewer", "extra_instructions", String(""))
	wiki := Mapping{}
	wiki.Set("pr_reviewer", "extra_instructions", String("be brief"))

	eff := Merge(Layer{Kind: SourceDefault, Mapping: defaults}, Layer{Kind: SourceWiki, Mapping: wiki})

	n, _ := eff.Get("pr_reviewer", "num_code_suggestions")
	assert.True(t, n.Equal(Int(4)))
	p, _ := eff.Provenance("pr_reviewer", "num_code_suggestions")
	assert.Equal(t, SourceDefault, p.Source)

	p, _ = eff.Provenance("pr_reviewer", "extra_instructions")
	assert.Equal(t, SourceWiki, p.Source)
}

// TestMerge_ArgumentOrderIsIgnored tests that precedence does not depend on call order
func TestMerge_ArgumentOrderIsIgnored(t *testing.T) {
	wiki := Mapping{}
	wiki.Set("config", "log_level", String("debug"))
	global := Mapping{}
	global.Set("config", "log_level", String("info"))

	eff := Merge(Layer{Kind: SourceWiki, Mapping: wiki}, Layer{Kind: SourceGlobal, Mapping: global})

	v, _ := eff.Lookup("CONFIG.LOG_LEVEL")
	assert.True(t, v.Equal(String("debug")))
}

// TestMerge_DoesNotMutateInputs tests that layers and bases are left untouched
func TestMerge_DoesNotMutateInputs(t *testing.T) {
	defaults := Mapping{}
	defaults.Set("config", "model", String("a"))
	local := Mapping{}
	local.Set("config", "model", String("b"))
	snapshot := defaults.Clone()

	base := Merge(Layer{Kind: SourceDefault, Mapping: defaults})
	baseCopy := base.Clone()
	_ = MergeInto(base, Layer{Kind: SourceLocal, Mapping: local})

	assert.True(t, defaults.Equal(snapshot))
	assert.True(t, base.Equal(baseCopy))
}

// Property-based tests using rapid

func TestMerge_Property_WikiOnlyKeyTakesWikiValue(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d, g, l, w := genLayers(t)
		section := rapid.SampledFrom(testSections).Draw(t, "section")
		v := genValue().Draw(t, "wiki-value")
		if w.Mapping == nil {
			w.Mapping = Mapping{}
		}
		w.Mapping.Set(section, "wiki_only", v)

		eff := Merge(d, g, l, w)

		got, ok := eff.Get(section, "wiki_only")
		if !ok || !got.Equal(v) {
			t.Fatalf("expected wiki value %s, got %s (present=%v)", v, got, ok)
		}
		p, _ := eff.Provenance(section, "wiki_only")
		if p.Source != SourceWiki {
			t.Fatalf("expected wiki provenance, got %s", p.Source)
		}
	})
}

func TestMerge_Property_WikiAlwaysWinsOnConflict(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d, g, l, w := genLayers(t)
		eff := Merge(d, g, l, w)
		if w.Mapping == nil {
			return
		}
		for _, s := range w.Mapping.Sections() {
			for _, k := range w.Mapping.Keys(s) {
				got, _ := eff.Get(s, k)
				want, _ := w.Mapping.Get(s, k)
				if !got.Equal(want) {
					t.Fatalf("%s.%s: expected %s, got %s", s, k, want, got)
				}
			}
		}
	})
}

func TestMerge_Property_UntouchedKeyKeepsDefault(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d, g, l, w := genLayers(t)
		eff := Merge(d, g, l, w)
		for _, s := range d.Mapping.Sections() {
			for _, k := range d.Mapping.Keys(s) {
				if (g.Mapping != nil && g.Mapping.Has(s, k)) ||
					(l.Mapping != nil && l.Mapping.Has(s, k)) ||
					(w.Mapping != nil && w.Mapping.Has(s, k)) {
					continue
				}
				got, _ := eff.Get(s, k)
				want, _ := d.Mapping.Get(s, k)
				if !got.Equal(want) {
					t.Fatalf("%s.%s: expected default %s, got %s", s, k, want, got)
				}
				p, _ := eff.Provenance(s, k)
				if p.Source != SourceDefault {
					t.Fatalf("%s.%s: expected default provenance, got %s", s, k, p.Source)
				}
			}
		}
	})
}

func TestMerge_Property_IsAssociative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d, g, l, w := genLayers(t)

		onePass := Merge(d, g, l, w)
		lowerFirst := Merge(d, g)
		continued := MergeInto(lowerFirst, l, w)
		overlaid := Overlay(lowerFirst, Merge(l, w))

		if !onePass.Equal(continued) {
			t.Fatalf("MergeInto differs from single-pass merge")
		}
		if !onePass.Equal(overlaid) {
			t.Fatalf("Overlay differs from single-pass merge")
		}
	})
}

func TestMerge_Property_EveryLayerKeyIsPresent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d, g, l, w := genLayers(t)
		eff := Merge(d, g, l, w)
		for _, layer := range []Layer{d, g, l, w} {
			if layer.Mapping == nil {
				continue
			}
			for _, s := range layer.Mapping.Sections() {
				for _, k := range layer.Mapping.Keys(s) {
					p, ok := eff.Provenance(s, k)
					if !ok {
						t.Fatalf("%s.%s missing provenance", s, k)
					}
					if p.Source.Rank() < layer.Kind.Rank() {
						t.Fatalf("%s.%s: provenance %s ranks below contributing %s", s, k, p.Source, layer.Kind)
					}
				}
			}
		}
	})
}
