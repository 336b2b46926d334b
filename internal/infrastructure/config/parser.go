package configinfra

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	configdomain "prinsight.ai/cli/internal/core/domain/config"
)

// Parse decodes TOML text into a mapping. Tables become sections (nested tables
// use dotted names) and keys before the first table land in the root section.
func Parse(kind configdomain.SourceKind, text string) (configdomain.Mapping, error) {
	var raw map[string]interface{}
	if _, err := toml.Decode(text, &raw); err != nil {
		line := 0
		var perr toml.ParseError
		if errors.As(err, &perr) {
			line = perr.Position.Line
		}
		return nil, &configdomain.MalformedSourceError{Kind: kind, Line: line, Err: err}
	}

	p := &tableWalker{kind: kind, out: make(configdomain.Mapping), seen: make(map[string]string)}
	if err := p.walk(configdomain.RootSection, raw); err != nil {
		return nil, err
	}
	return p.out, nil
}

// ParseSource parses a fetched source. Wiki content is sanitized first; absent
// sources yield a nil mapping.
func ParseSource(src configdomain.Source) (configdomain.Layer, error) {
	content, ok := src.Content()
	if !ok {
		return configdomain.Layer{Kind: src.Kind()}, nil
	}
	if src.Kind() == configdomain.SourceWiki {
		content = Sanitize(content)
	}
	m, err := Parse(src.Kind(), content)
	if err != nil {
		return configdomain.Layer{Kind: src.Kind()}, err
	}
	return configdomain.Layer{Kind: src.Kind(), Mapping: m}, nil
}

type tableWalker struct {
	kind configdomain.SourceKind
	out  configdomain.Mapping
	// normalized dotted name -> name as written, for case-fold collision checks
	seen map[string]string
}

func (p *tableWalker) walk(section string, table map[string]interface{}) error {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		written := configdomain.JoinKey(section, name)
		normalized := configdomain.NormalizeName(written)
		if prev, dup := p.seen[normalized]; dup {
			return p.malformed(fmt.Errorf("keys %q and %q differ only by case", prev, written))
		}
		p.seen[normalized] = written

		switch v := table[name].(type) {
		case map[string]interface{}:
			if err := p.walk(written, v); err != nil {
				return err
			}
			if len(v) == 0 {
				// keep empty tables visible as sections
				if _, ok := p.out[configdomain.NormalizeName(written)]; !ok {
					p.out[configdomain.NormalizeName(written)] = map[string]configdomain.Value{}
				}
			}
		case []map[string]interface{}:
			return p.malformed(fmt.Errorf("%s: arrays of tables are not supported", written))
		default:
			val, err := convertValue(v)
			if err != nil {
				return p.malformed(fmt.Errorf("%s: %w", written, err))
			}
			p.out.Set(section, name, val)
		}
	}
	return nil
}

func (p *tableWalker) malformed(err error) error {
	return &configdomain.MalformedSourceError{Kind: p.kind, Err: err}
}

func convertValue(v interface{}) (configdomain.Value, error) {
	switch t := v.(type) {
	case string:
		return configdomain.String(t), nil
	case bool:
		return configdomain.Bool(t), nil
	case int64:
		return configdomain.Int(t), nil
	case float64:
		return configdomain.Float(t), nil
	case time.Time:
		return configdomain.String(t.Format(time.RFC3339)), nil
	case []interface{}:
		items := make([]string, 0, len(t))
		for i, item := range t {
			s, err := listItem(item)
			if err != nil {
				return configdomain.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			items = append(items, s)
		}
		return configdomain.List(items...), nil
	case fmt.Stringer:
		// toml.LocalDate, LocalTime and LocalDatetime
		return configdomain.String(t.String()), nil
	}
	return configdomain.Value{}, fmt.Errorf("unsupported value type %T", v)
}

func listItem(item interface{}) (string, error) {
	switch t := item.(type) {
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), nil
	case time.Time:
		return t.Format(time.RFC3339), nil
	case fmt.Stringer:
		return t.String(), nil
	}
	return "", fmt.Errorf("lists may only hold scalars, got %T", item)
}
