package settings

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"prinsight.ai/cli/internal/application/ports"
)

// ValidationError lists every invalid setting
type ValidationError struct {
	Problems map[string]error
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Problems))
	for k := range e.Problems {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, e.Problems[k]))
	}
	return "invalid settings: " + strings.Join(parts, "; ")
}

// SettingsValidator validates individual settings
type SettingsValidator struct{}

// NewSettingsValidator creates a new settings validator
func NewSettingsValidator() *SettingsValidator {
	return &SettingsValidator{}
}

// ValidateEndpoint validates an http(s) base URL
func (v *SettingsValidator) ValidateEndpoint(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("endpoint cannot be empty")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %q (must be http or https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must include host")
	}
	return nil
}

// ValidateToken checks an optional access token for obvious mistakes
func (v *SettingsValidator) ValidateToken(token string) error {
	if token == "" {
		return nil
	}
	if strings.ContainsAny(token, " \t\r\n") {
		return fmt.Errorf("token cannot contain whitespace")
	}
	if len(token) > 512 {
		return fmt.Errorf("token too long (maximum 512 characters)")
	}
	placeholders := []string{"your-token-here", "<token>", "${GITHUB_TOKEN}", "$GITHUB_TOKEN", "replace_me", "change_me"}
	lower := strings.ToLower(token)
	for _, p := range placeholders {
		if strings.Contains(lower, strings.ToLower(p)) {
			return fmt.Errorf("token appears to be a placeholder value")
		}
	}
	return nil
}

// ValidateLogLevel accepts debug, info, warn (or warning) and error
func (v *SettingsValidator) ValidateLogLevel(level string) error {
	if _, ok := ports.ParseLogLevel(level); !ok {
		return fmt.Errorf("invalid log level: %s (valid levels: debug, info, warn, error)", level)
	}
	return nil
}

// ValidatePolicy accepts fail-closed, fail-open and best-effort
func (v *SettingsValidator) ValidatePolicy(policy string) error {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case "fail-closed", "fail-open", "best-effort":
		return nil
	}
	return fmt.Errorf("invalid policy: %s (valid policies: fail-closed, fail-open)", policy)
}

// ValidateProvider accepts the supported git providers
func (v *SettingsValidator) ValidateProvider(provider string) error {
	switch provider {
	case ProviderGitHub, ProviderLocal:
		return nil
	}
	return fmt.Errorf("unsupported git provider: %s (valid providers: %s, %s)", provider, ProviderGitHub, ProviderLocal)
}

// ValidateDuration checks d against an inclusive range
func (v *SettingsValidator) ValidateDuration(d, lo, hi time.Duration) error {
	if d < lo {
		return fmt.Errorf("duration too short (minimum %s)", lo)
	}
	if d > hi {
		return fmt.Errorf("duration too long (maximum %s)", hi)
	}
	return nil
}

// ValidateSize checks n against an inclusive range
func (v *SettingsValidator) ValidateSize(n, lo, hi int) error {
	if n < lo || n > hi {
		return fmt.Errorf("value %d out of range [%d, %d]", n, lo, hi)
	}
	return nil
}

// ValidateDir checks that path is an existing directory
func (v *SettingsValidator) ValidateDir(path string) error {
	info, err := os.Stat(ExpandPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", path)
		}
		return fmt.Errorf("failed to check directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory: %s", path)
	}
	return nil
}

// ValidateAll validates every field. Directories are only checked for the
// local provider, endpoints only for the backends in use.
func (v *SettingsValidator) ValidateAll(s *Settings) map[string]error {
	errs := make(map[string]error)
	check := func(key string, err error) {
		if err != nil {
			errs[key] = err
		}
	}

	check("git_provider", v.ValidateProvider(s.GitProvider))
	check("github_token", v.ValidateToken(s.GitHubToken))
	check("jobs_api_token", v.ValidateToken(s.JobsAPIToken))
	check("log_level", v.ValidateLogLevel(s.LogLevel))
	check("policy", v.ValidatePolicy(s.Policy))
	check("fetch_timeout", v.ValidateDuration(s.FetchTimeout, 100*time.Millisecond, 5*time.Minute))
	check("cache_ttl", v.ValidateDuration(s.CacheTTL, time.Second, 24*time.Hour))
	check("poll_interval", v.ValidateDuration(s.PollInterval, 10*time.Millisecond, 10*time.Minute))
	check("poll_timeout", v.ValidateDuration(s.PollTimeout, time.Second, 24*time.Hour))
	check("cache_size", v.ValidateSize(s.CacheSize, 1, 100000))
	check("max_excerpt_bytes", v.ValidateSize(s.MaxExcerptBytes, 1, 1<<20))
	check("jobs_api_url", v.ValidateEndpoint(s.JobsAPIURL))
	if s.PollInterval > s.PollTimeout {
		check("poll_interval", fmt.Errorf("poll interval %s exceeds poll timeout %s", s.PollInterval, s.PollTimeout))
	}
	if strings.TrimSpace(s.SettingsFile) == "" {
		errs["settings_file"] = fmt.Errorf("settings file name cannot be empty")
	}

	switch s.GitProvider {
	case ProviderGitHub:
		check("github_api_url", v.ValidateEndpoint(s.GitHubAPIURL))
		check("github_raw_url", v.ValidateEndpoint(s.GitHubRawURL))
	case ProviderLocal:
		check("local_dir", v.ValidateDir(s.LocalDir))
		if s.GlobalDir != "" {
			check("global_dir", v.ValidateDir(s.GlobalDir))
		}
	}
	return errs
}

// ExpandPath expands ~ and environment variables in paths
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}
