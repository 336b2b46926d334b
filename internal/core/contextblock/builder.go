// Package contextblock renders repository metadata into the text block that
// prompt templates include verbatim.
package contextblock

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"prinsight.ai/cli/internal/core/discovery"
	"prinsight.ai/cli/internal/core/metadata"
)

// Header opens every non-empty block.
const Header = "## Repository Context"

// DefaultMaxExcerptBytes bounds each referenced file excerpt.
const DefaultMaxExcerptBytes = 4000

const truncatedMarker = "[truncated]"

// Labels for referenced files
const (
	LabelBestPractices = "Best practices"
	LabelGuidelines    = "Guidelines"
)

// Block is a rendered context block
type Block string

// String returns the block text
func (b Block) String() string { return string(b) }

// Empty reports whether nothing was rendered
func (b Block) Empty() bool { return b == "" }

// Reference is the fetched content of a referenced file.
type Reference struct {
	Label   string
	Path    string
	Content string
}

// Input holds everything a block is derived from.
type Input struct {
	Metadata        metadata.RepositoryMetadata
	Hints           discovery.Hints
	References      []Reference
	MaxExcerptBytes int
}

// Build renders the block. It depends only on its input and does not modify
// it. Disabled metadata renders an empty block.
func Build(in Input) Block {
	md := in.Metadata
	if !md.Enabled {
		return ""
	}
	maxBytes := in.MaxExcerptBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxExcerptBytes
	}

	var b strings.Builder
	b.WriteString(Header)
	b.WriteString("\n")
	line(&b, "Repository type", string(md.RepositoryType))
	line(&b, "Technology stack", stackLine(discovery.Enrich(md.TechnologyStack, in.Hints)))
	line(&b, "Maturity level", string(md.MaturityLevel))
	line(&b, "Complexity level", string(md.ComplexityLevel))
	if custom := normalize(md.CustomContext); custom != "" {
		line(&b, "Custom context", custom)
	}
	if len(in.Hints.Conventions) > 0 {
		line(&b, "Detected conventions", strings.Join(in.Hints.Conventions, ", "))
	}

	var enhancements []string
	for _, e := range md.ContextEnhancements {
		if e = normalize(e); e != "" {
			enhancements = append(enhancements, e)
		}
	}
	if len(enhancements) > 0 {
		b.WriteString("Context enhancements:\n")
		for i, e := range enhancements {
			fmt.Fprintf(&b, "%d. %s\n", i+1, e)
		}
	}

	for _, ref := range in.References {
		excerpt := Excerpt(ref.Content, maxBytes)
		if excerpt == "" {
			continue
		}
		fmt.Fprintf(&b, "\n### %s (%s)\n%s\n", ref.Label, ref.Path, excerpt)
	}
	return Block(b.String())
}

func line(b *strings.Builder, label, value string) {
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\n")
}

func stackLine(stack []string) string {
	var items []string
	for _, s := range stack {
		if s = strings.TrimSpace(s); s != "" {
			items = append(items, s)
		}
	}
	if len(items) == 0 {
		return "unspecified"
	}
	return strings.Join(items, ", ")
}

// normalize converts line endings, trims trailing whitespace on every line and
// drops leading and trailing blank lines.
func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}

// Excerpt normalizes content and cuts it to at most maxBytes, preferring a line
// boundary. A cut excerpt ends with a truncation marker line.
func Excerpt(content string, maxBytes int) string {
	text := normalize(content)
	if len(text) <= maxBytes {
		return text
	}

	cut := strings.LastIndex(text[:maxBytes+1], "\n")
	if cut <= 0 {
		// a single long first line; cut on a rune boundary
		cut = maxBytes
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
	}
	kept := strings.TrimRight(text[:cut], " \t\n")
	if kept == "" {
		return truncatedMarker
	}
	return kept + "\n" + truncatedMarker
}
