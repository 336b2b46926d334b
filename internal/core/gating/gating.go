package gating

import (
	"fmt"
	"regexp"
	"strings"

	configdomain "prinsight.ai/cli/internal/core/domain/config"
)

// Keys of the config section read by the gate
const (
	Section                 = "config"
	KeyAllowedRepos         = "allowed_repos"
	KeyIgnoreAuthors        = "ignore_pr_authors"
	KeyIgnoreTitle          = "ignore_pr_title"
	KeyIgnoreSourceBranches = "ignore_pr_source_branches"
	KeyIgnoreTargetBranches = "ignore_pr_target_branches"
)

// PullRequest holds the fields gating rules look at
type PullRequest struct {
	RepositoryURL string `json:"repository_url"`
	Author        string `json:"author"`
	Title         string `json:"title"`
	SourceBranch  string `json:"source_branch"`
	TargetBranch  string `json:"target_branch"`
}

// Decision is the outcome of evaluating the gate
type Decision struct {
	Allowed  bool                   `json:"allowed"`
	Reason   string                 `json:"reason,omitempty"`
	Warnings []configdomain.Warning `json:"warnings,omitempty"`
}

// Evaluate decides whether a pull request should be processed according to
// the effective configuration.
func Evaluate(cfg *configdomain.EffectiveConfig, pr PullRequest) Decision {
	var warnings []configdomain.Warning

	if !RepoAllowed(stringList(cfg, KeyAllowedRepos), pr.RepositoryURL) {
		return Decision{Reason: fmt.Sprintf("repository %s is not in config.allowed_repos", pr.RepositoryURL)}
	}

	if pr.Author != "" {
		for _, user := range stringList(cfg, KeyIgnoreAuthors) {
			if user == pr.Author {
				return Decision{Reason: fmt.Sprintf("author %q is listed in config.ignore_pr_authors", pr.Author)}
			}
		}
	}

	checks := []struct {
		key   string
		value string
		what  string
	}{
		{KeyIgnoreTitle, pr.Title, "title"},
		{KeyIgnoreSourceBranches, pr.SourceBranch, "source branch"},
		{KeyIgnoreTargetBranches, pr.TargetBranch, "target branch"},
	}
	for _, c := range checks {
		if c.value == "" {
			continue
		}
		for _, pattern := range stringList(cfg, c.key) {
			re, err := regexp.Compile(pattern)
			if err != nil {
				warnings = append(warnings, configdomain.Warning{
					Code:    configdomain.WarnValidation,
					Section: Section,
					Key:     c.key,
					Value:   pattern,
					Message: fmt.Sprintf("invalid regular expression skipped: %v", err),
				})
				continue
			}
			if re.MatchString(c.value) {
				return Decision{
					Reason:   fmt.Sprintf("%s %q matches config.%s pattern %q", c.what, c.value, c.key, pattern),
					Warnings: warnings,
				}
			}
		}
	}

	return Decision{Allowed: true, Warnings: warnings}
}

// RepoAllowed checks a repository URL against an allow-list. An empty list
// allows everything. Entries match the full URL, its trailing path, or its
// last path segment.
func RepoAllowed(allowed []string, repoURL string) bool {
	if len(allowed) == 0 {
		return true
	}
	url := normalizeRepo(repoURL)
	for _, entry := range allowed {
		a := normalizeRepo(entry)
		if a == "" {
			continue
		}
		if url == a || strings.HasSuffix(url, "/"+a) || strings.Contains(url, "/"+a+"/") {
			return true
		}
		if i := strings.LastIndex(a, "/"); i >= 0 && strings.HasSuffix(url, a[i:]) {
			return true
		}
	}
	return false
}

func normalizeRepo(s string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(s), "/"))
}

// stringList reads a list setting, accepting a single string too.
func stringList(cfg *configdomain.EffectiveConfig, key string) []string {
	v, ok := cfg.Get(Section, key)
	if !ok {
		return nil
	}
	if l, ok := v.AsList(); ok {
		return l
	}
	if s, ok := v.AsString(); ok && s != "" {
		return []string{s}
	}
	return nil
}
