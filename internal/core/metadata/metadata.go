package metadata

import (
	"strings"
)

// Section is the configuration section holding repository metadata.
const Section = "repository_metadata"

// Keys of the repository_metadata section
const (
	KeyEnabled             = "enabled"
	KeyRepositoryType      = "repository_type"
	KeyTechnologyStack     = "technology_stack"
	KeyMaturityLevel       = "maturity_level"
	KeyComplexityLevel     = "complexity_level"
	KeyCustomContext       = "custom_context"
	KeyBestPracticesFile   = "best_practices_file"
	KeyGuidelinesFile      = "guidelines_file"
	KeyContextEnhancements = "context_enhancements"
	KeyAutoDiscover        = "auto_discover_context"
	KeyMaxContextFiles     = "max_context_files"
)

// RepositoryType is the declared kind of repository
type RepositoryType string

const (
	TypeApplication   RepositoryType = "application"
	TypeLibrary       RepositoryType = "library"
	TypeFramework     RepositoryType = "framework"
	TypeTool          RepositoryType = "tool"
	TypeDocumentation RepositoryType = "documentation"
	TypeConfig        RepositoryType = "config"
	TypeOther         RepositoryType = "other"
)

// MaturityLevel is the declared maturity of the code base
type MaturityLevel string

const (
	MaturityExperimental MaturityLevel = "experimental"
	MaturityDevelopment  MaturityLevel = "development"
	MaturityStable       MaturityLevel = "stable"
	MaturityMature       MaturityLevel = "mature"
	MaturityLegacy       MaturityLevel = "legacy"
)

// ComplexityLevel is the declared complexity of the code base
type ComplexityLevel string

const (
	ComplexitySimple     ComplexityLevel = "simple"
	ComplexityModerate   ComplexityLevel = "moderate"
	ComplexityComplex    ComplexityLevel = "complex"
	ComplexityEnterprise ComplexityLevel = "enterprise"
)

// Closed vocabularies, in declaration order
var (
	RepositoryTypes = []string{
		string(TypeApplication), string(TypeLibrary), string(TypeFramework), string(TypeTool),
		string(TypeDocumentation), string(TypeConfig), string(TypeOther),
	}
	MaturityLevels = []string{
		string(MaturityExperimental), string(MaturityDevelopment), string(MaturityStable),
		string(MaturityMature), string(MaturityLegacy),
	}
	ComplexityLevels = []string{
		string(ComplexitySimple), string(ComplexityModerate), string(ComplexityComplex),
		string(ComplexityEnterprise),
	}
)

// RepositoryMetadata is the typed view of the repository_metadata section.
type RepositoryMetadata struct {
	Enabled             bool            `json:"enabled" yaml:"enabled"`
	RepositoryType      RepositoryType  `json:"repository_type" yaml:"repository_type"`
	TechnologyStack     []string        `json:"technology_stack" yaml:"technology_stack"`
	MaturityLevel       MaturityLevel   `json:"maturity_level" yaml:"maturity_level"`
	ComplexityLevel     ComplexityLevel `json:"complexity_level" yaml:"complexity_level"`
	CustomContext       string          `json:"custom_context" yaml:"custom_context"`
	BestPracticesFile   string          `json:"best_practices_file,omitempty" yaml:"best_practices_file,omitempty"`
	GuidelinesFile      string          `json:"guidelines_file,omitempty" yaml:"guidelines_file,omitempty"`
	ContextEnhancements []string        `json:"context_enhancements" yaml:"context_enhancements"`
	AutoDiscoverContext bool            `json:"auto_discover_context" yaml:"auto_discover_context"`
	MaxContextFiles     int             `json:"max_context_files" yaml:"max_context_files"`
}

// DefaultRepositoryMetadata returns the built-in field values used when the
// defaults mapping lacks a key.
func DefaultRepositoryMetadata() RepositoryMetadata {
	return RepositoryMetadata{
		RepositoryType:      TypeOther,
		TechnologyStack:     []string{},
		MaturityLevel:       MaturityDevelopment,
		ComplexityLevel:     ComplexityModerate,
		ContextEnhancements: []string{},
		MaxContextFiles:     50,
	}
}

// Clone returns a deep copy
func (m RepositoryMetadata) Clone() RepositoryMetadata {
	m.TechnologyStack = append([]string{}, m.TechnologyStack...)
	m.ContextEnhancements = append([]string{}, m.ContextEnhancements...)
	return m
}

func normalizeEnum(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func inVocabulary(vocab []string, s string) bool {
	s = normalizeEnum(s)
	for _, v := range vocab {
		if v == s {
			return true
		}
	}
	return false
}
