package configdomain

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrSourceUnavailable marks a present source that could not be read.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrMalformedSource marks a present source that failed to parse.
	ErrMalformedSource = errors.New("malformed source")
	// ErrNotFound is returned by fetch collaborators when a path does not exist.
	ErrNotFound = errors.New("not found")
)

// SourceUnavailableError reports a fetch failure other than not-found
type SourceUnavailableError struct {
	Kind SourceKind
	Err  error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("%s source unavailable: %v", e.Kind, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// Is matches ErrSourceUnavailable
func (e *SourceUnavailableError) Is(target error) bool { return target == ErrSourceUnavailable }

// MalformedSourceError reports unparseable content of a present source
type MalformedSourceError struct {
	Kind SourceKind
	Line int
	Err  error
}

func (e *MalformedSourceError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s source is malformed (line %d): %v", e.Kind, e.Line, e.Err)
	}
	return fmt.Sprintf("%s source is malformed: %v", e.Kind, e.Err)
}

func (e *MalformedSourceError) Unwrap() error { return e.Err }

// Is matches ErrMalformedSource
func (e *MalformedSourceError) Is(target error) bool { return target == ErrMalformedSource }

// FailedSource returns the source kind carried by a source-level error
func FailedSource(err error) (SourceKind, bool) {
	var unavailable *SourceUnavailableError
	if errors.As(err, &unavailable) {
		return unavailable.Kind, true
	}
	var malformed *MalformedSourceError
	if errors.As(err, &malformed) {
		return malformed.Kind, true
	}
	return "", false
}

// WarningCode classifies non-fatal diagnostics
type WarningCode string

const (
	WarnValidation                WarningCode = "validation"
	WarnUnknownKey                WarningCode = "unknown_key"
	WarnReferencedFileUnavailable WarningCode = "referenced_file_unavailable"
	WarnSourceUnavailable         WarningCode = "source_unavailable"
	WarnMalformedSource           WarningCode = "malformed_source"
	WarnDiscoveryFailed           WarningCode = "discovery_failed"
)

// Warning is a field- or source-level diagnostic collected alongside a result.
type Warning struct {
	Code    WarningCode `json:"code" yaml:"code"`
	Source  SourceKind  `json:"source,omitempty" yaml:"source,omitempty"`
	Section string      `json:"section,omitempty" yaml:"section,omitempty"`
	Key     string      `json:"key,omitempty" yaml:"key,omitempty"`
	Value   string      `json:"value,omitempty" yaml:"value,omitempty"`
	Message string      `json:"message" yaml:"message"`
}

func (w Warning) String() string {
	if w.Key != "" {
		return fmt.Sprintf("%s: %s: %s", w.Code, JoinKey(w.Section, w.Key), w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

// SourceWarning converts a source-level error into a warning for best-effort
// resolution.
func SourceWarning(err error) Warning {
	kind, _ := FailedSource(err)
	code := WarnSourceUnavailable
	if errors.Is(err, ErrMalformedSource) {
		code = WarnMalformedSource
	}
	return Warning{
		Code:    code,
		Source:  kind,
		Message: fmt.Sprintf("%v; treated as absent", err),
	}
}

// SortWarnings orders warnings by section, key, code and message
func SortWarnings(ws []Warning) {
	sort.SliceStable(ws, func(i, j int) bool {
		a, b := ws[i], ws[j]
		if a.Section != b.Section {
			return a.Section < b.Section
		}
		if a.Key != b.Key {
			return a.Key < b.Key
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.Message < b.Message
	})
}

// CountWarnings returns how many warnings carry the given code
func CountWarnings(ws []Warning, code WarningCode) int {
	n := 0
	for _, w := range ws {
		if w.Code == code {
			n++
		}
	}
	return n
}
