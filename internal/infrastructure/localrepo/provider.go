// Package localrepo serves a checked-out working tree as a git provider, so
// resolution can run offline against a local directory.
package localrepo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"prinsight.ai/cli/internal/application/ports"
	configdomain "prinsight.ai/cli/internal/core/domain/config"
)

// WikiDir holds wiki pages as <page>.md inside the working tree.
const WikiDir = ".wiki"

// FallbackBranch is reported when the tree has no readable .git/HEAD.
const FallbackBranch = "local"

var skippedDirs = map[string]bool{
	".git":         true,
	WikiDir:        true,
	"node_modules": true,
	"vendor":       true,
}

// Provider reads one directory. Every repository name resolves to it.
type Provider struct {
	root string
}

var _ ports.GitProvider = (*Provider)(nil)

// NewProvider creates a provider rooted at dir
func NewProvider(dir string) (*Provider, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return &Provider{root: abs}, nil
}

func (p *Provider) Name() string { return "local" }

// DefaultBranch reads the checked-out branch from .git/HEAD
func (p *Provider) DefaultBranch(ctx context.Context, repo string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(p.root, ".git", "HEAD"))
	if err != nil {
		return FallbackBranch, nil
	}
	head := strings.TrimSpace(string(data))
	if ref, ok := strings.CutPrefix(head, "ref: refs/heads/"); ok && ref != "" {
		return ref, nil
	}
	return FallbackBranch, nil
}

// FetchFile reads path from the working tree. ref is ignored.
func (p *Provider) FetchFile(ctx context.Context, repo, ref, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := p.resolve(path)
	if err != nil {
		return nil, err
	}
	return readFile(full)
}

// FetchWikiPage reads <root>/.wiki/<page>.md
func (p *Provider) FetchWikiPage(ctx context.Context, repo, page string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !strings.HasSuffix(page, ".md") {
		page += ".md"
	}
	full, err := p.resolve(WikiDir + "/" + page)
	if err != nil {
		return nil, err
	}
	return readFile(full)
}

// ListFiles walks the working tree, skipping VCS and dependency directories
func (p *Provider) ListFiles(ctx context.Context, repo, ref string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(p.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != p.root && skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(p.root, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", p.root, err)
	}
	return paths, nil
}

// resolve maps a slash separated repository path into the root, rejecting
// anything that escapes it.
func (p *Provider) resolve(path string) (string, error) {
	rel := filepath.FromSlash(strings.TrimPrefix(path, "/"))
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("path %q escapes the repository root", path)
	}
	return filepath.Join(p.root, rel), nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, configdomain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}
