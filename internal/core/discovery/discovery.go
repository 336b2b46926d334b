package discovery

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultMaxFiles is used when Options.MaxFiles is not positive.
const DefaultMaxFiles = 50

// maxManifestBytes bounds how much of a manifest is inspected.
const maxManifestBytes = 256 * 1024

// FileLister enumerates repository file paths (slash separated, relative to
// the repository root).
type FileLister interface {
	ListFiles(ctx context.Context) ([]string, error)
}

// FileReader returns the content of one repository file.
type FileReader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
}

// Repository is the read-only view discovery needs.
type Repository interface {
	FileLister
	FileReader
}

// Options bounds a discovery pass
type Options struct {
	MaxFiles int
}

// Hints are advisory results of one discovery pass.
type Hints struct {
	Technologies []string `json:"technologies" yaml:"technologies"`
	Conventions  []string `json:"conventions" yaml:"conventions"`
	Manifests    []string `json:"manifests" yaml:"manifests"`
	Inspected    []string `json:"-" yaml:"-"`
}

// Empty reports whether nothing was discovered
func (h Hints) Empty() bool {
	return len(h.Technologies) == 0 && len(h.Conventions) == 0
}

// Discover inspects at most opts.MaxFiles repository files in lexicographic
// path order. Cancellation of ctx aborts the pass and no hints are returned.
func Discover(ctx context.Context, repo Repository, opts Options) (Hints, error) {
	limit := opts.MaxFiles
	if limit <= 0 {
		limit = DefaultMaxFiles
	}

	listed, err := repo.ListFiles(ctx)
	if err != nil {
		return Hints{}, fmt.Errorf("listing repository files: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Hints{}, err
	}

	paths := make([]string, 0, len(listed))
	for _, p := range listed {
		p = strings.TrimPrefix(path.Clean(strings.ReplaceAll(p, "\\", "/")), "./")
		if p != "" && p != "." {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	if len(paths) > limit {
		paths = paths[:limit]
	}

	acc := newAccumulator()
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return Hints{}, err
		}
		acc.inspected = append(acc.inspected, p)
		acc.structure(p)

		for _, m := range manifests {
			if !m.matches(p) {
				continue
			}
			acc.manifest(p)
			acc.add(m.technologies...)
			if m.inspect == nil {
				continue
			}
			data, err := repo.ReadFile(ctx, p)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return Hints{}, ctxErr
				}
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return Hints{}, err
				}
				// unreadable manifests only lose their content hints
				continue
			}
			if len(data) > maxManifestBytes {
				data = data[:maxManifestBytes]
			}
			acc.add(m.inspect(data)...)
		}
	}

	return acc.hints(), nil
}

// Enrich appends discovered technologies that are not already declared. The
// declared entries keep their order and are never removed.
func Enrich(declared []string, hints Hints) []string {
	out := append([]string{}, declared...)
	seen := make(map[string]bool, len(declared)+len(hints.Technologies))
	for _, d := range declared {
		seen[strings.ToLower(strings.TrimSpace(d))] = true
	}
	for _, tech := range hints.Technologies {
		key := strings.ToLower(strings.TrimSpace(tech))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tech)
	}
	return out
}

type accumulator struct {
	technologies []string
	conventions  []string
	manifests    []string
	inspected    []string
	seenTech     map[string]bool
	seenConv     map[string]bool
	manifestDirs map[string]bool
	topDirs      map[string]bool
}

func newAccumulator() *accumulator {
	return &accumulator{
		seenTech:     make(map[string]bool),
		seenConv:     make(map[string]bool),
		manifestDirs: make(map[string]bool),
		topDirs:      make(map[string]bool),
	}
}

func (a *accumulator) add(techs ...string) {
	for _, t := range techs {
		k := strings.ToLower(t)
		if a.seenTech[k] {
			continue
		}
		a.seenTech[k] = true
		a.technologies = append(a.technologies, t)
	}
}

func (a *accumulator) convention(c string) {
	if a.seenConv[c] {
		return
	}
	a.seenConv[c] = true
	a.conventions = append(a.conventions, c)
}

func (a *accumulator) manifest(p string) {
	a.manifests = append(a.manifests, p)
	a.manifestDirs[path.Dir(p)] = true
	if len(a.manifestDirs) > 1 {
		a.convention("multi-module repository")
	}
}

func (a *accumulator) structure(p string) {
	top, _, nested := strings.Cut(p, "/")
	if nested {
		a.topDirs[top] = true
	}
	for _, c := range conventions {
		if c.matches(p, a.topDirs) {
			a.convention(c.name)
		}
	}
}

func (a *accumulator) hints() Hints {
	return Hints{
		Technologies: a.technologies,
		Conventions:  a.conventions,
		Manifests:    a.manifests,
		Inspected:    a.inspected,
	}
}

type convention struct {
	name    string
	matches func(p string, topDirs map[string]bool) bool
}

var conventions = []convention{
	{
		name: "Go standard layout (cmd/, internal/)",
		matches: func(_ string, top map[string]bool) bool {
			return top["cmd"] && top["internal"]
		},
	},
	{
		name:    "documentation directory (docs/)",
		matches: func(p string, _ map[string]bool) bool { return strings.HasPrefix(p, "docs/") },
	},
	{
		name: "GitHub Actions CI",
		matches: func(p string, _ map[string]bool) bool {
			ok, _ := doublestar.Match(".github/workflows/*.{yml,yaml}", p)
			return ok
		},
	},
	{
		name: "dedicated test directory",
		matches: func(p string, _ map[string]bool) bool {
			return strings.HasPrefix(p, "tests/") || strings.HasPrefix(p, "test/")
		},
	},
}
