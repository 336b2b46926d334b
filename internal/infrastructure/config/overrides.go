package configinfra

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	configdomain "prinsight.ai/cli/internal/core/domain/config"
)

// ParseOverrides turns section.key=value assignments into a mapping. A value
// is read as a TOML literal when it parses as one and as plain text otherwise,
// so 3, true and ["a", "b"] keep their types while gpt-4o stays a string.
func ParseOverrides(assignments []string) (configdomain.Mapping, error) {
	if len(assignments) == 0 {
		return nil, nil
	}
	out := make(configdomain.Mapping)
	for _, a := range assignments {
		dotted, raw, ok := strings.Cut(a, "=")
		section, key := configdomain.SplitDottedKey(dotted)
		if !ok || section == configdomain.RootSection || key == "" {
			return nil, fmt.Errorf("invalid override %q: want section.key=value", a)
		}
		out.Set(section, key, overrideValue(raw))
	}
	return out, nil
}

func overrideValue(raw string) configdomain.Value {
	raw = strings.TrimSpace(raw)
	var doc map[string]interface{}
	if _, err := toml.Decode("v = "+raw, &doc); err == nil && len(doc) == 1 {
		if v, err := convertValue(doc["v"]); err == nil {
			return v
		}
	}
	return configdomain.String(raw)
}
