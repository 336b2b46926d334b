package configdomain

import (
	"fmt"
	"strings"
	"time"
)

// SourceKind identifies one origin of configuration text.
type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceGlobal  SourceKind = "global"
	SourceLocal   SourceKind = "local"
	SourceWiki    SourceKind = "wiki"
)

// SourceOverride marks values set for a single invocation. It is never
// fetched and ranks above every kind in Precedence.
const SourceOverride SourceKind = "override"

// Precedence lists the source kinds from lowest to highest. Later entries win.
var Precedence = []SourceKind{SourceDefault, SourceGlobal, SourceLocal, SourceWiki}

// Rank returns the position of the kind in Precedence, or -1 when unknown.
func (k SourceKind) Rank() int {
	for i, p := range Precedence {
		if p == k {
			return i
		}
	}
	return -1
}

// IsValid reports whether the kind is one of the four known origins
func (k SourceKind) IsValid() bool { return k.Rank() >= 0 }

func (k SourceKind) String() string { return string(k) }

// ParseSourceKind parses a source kind name
func ParseSourceKind(s string) (SourceKind, error) {
	k := SourceKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", fmt.Errorf("unknown source kind: %q", s)
	}
	return k, nil
}

// Source is the raw content fetched from one origin. It is not modified after
// construction.
type Source struct {
	kind      SourceKind
	content   string
	present   bool
	fetchedAt time.Time
}

// NewSource creates a populated source
func NewSource(kind SourceKind, content string, fetchedAt time.Time) Source {
	return Source{kind: kind, content: content, present: true, fetchedAt: fetchedAt}
}

// AbsentSource creates a source that was looked up and not found
func AbsentSource(kind SourceKind, fetchedAt time.Time) Source {
	return Source{kind: kind, fetchedAt: fetchedAt}
}

// Kind returns the origin
func (s Source) Kind() SourceKind { return s.kind }

// Content returns the raw text and whether the source is present
func (s Source) Content() (string, bool) { return s.content, s.present }

// Present reports whether any content was fetched
func (s Source) Present() bool { return s.present }

// FetchedAt returns when the fetch completed
func (s Source) FetchedAt() time.Time { return s.fetchedAt }

// Layer is a parsed source ready for merging. A nil Mapping means absent.
type Layer struct {
	Kind    SourceKind
	Mapping Mapping
}
