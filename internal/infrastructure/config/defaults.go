package configinfra

import (
	_ "embed"
	"fmt"
	"time"

	configdomain "prinsight.ai/cli/internal/core/domain/config"
)

//go:embed configuration.toml
var defaultConfiguration string

// defaultMapping is parsed once at init and never written afterwards.
var defaultMapping configdomain.Mapping

func init() {
	m, err := Parse(configdomain.SourceDefault, defaultConfiguration)
	if err != nil {
		panic(fmt.Sprintf("embedded configuration.toml is invalid: %v", err))
	}
	defaultMapping = m
}

// Defaults returns a copy of the compiled-in configuration mapping
func Defaults() configdomain.Mapping { return defaultMapping.Clone() }

// DefaultSource wraps the compiled-in configuration as a source
func DefaultSource(at time.Time) configdomain.Source {
	return configdomain.NewSource(configdomain.SourceDefault, defaultConfiguration, at)
}
