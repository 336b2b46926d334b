// Package settings loads the runtime settings of the pri binary: where
// configuration sources are fetched from, timeouts, cache sizing and the
// HTTP and job backends. These are distinct from the resolved review
// configuration.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix         = "PRI"
	DefaultConfigName = "config"
	DefaultConfigDir  = "pri"
)

// Provider names
const (
	ProviderGitHub = "github"
	ProviderLocal  = "local"
)

// Settings are the runtime settings of the binary
type Settings struct {
	GitProvider        string        `mapstructure:"git_provider" json:"git_provider" yaml:"git_provider"`
	GitHubToken        string        `mapstructure:"github_token" json:"-" yaml:"-"`
	GitHubAPIURL       string        `mapstructure:"github_api_url" json:"github_api_url" yaml:"github_api_url"`
	GitHubRawURL       string        `mapstructure:"github_raw_url" json:"github_raw_url" yaml:"github_raw_url"`
	GlobalSettingsRepo string        `mapstructure:"global_settings_repo" json:"global_settings_repo" yaml:"global_settings_repo"`
	SettingsFile       string        `mapstructure:"settings_file" json:"settings_file" yaml:"settings_file"`
	WikiPage           string        `mapstructure:"wiki_page" json:"wiki_page" yaml:"wiki_page"`
	LocalDir           string        `mapstructure:"local_dir" json:"local_dir" yaml:"local_dir"`
	GlobalDir          string        `mapstructure:"global_dir" json:"global_dir,omitempty" yaml:"global_dir,omitempty"`
	FetchTimeout       time.Duration `mapstructure:"fetch_timeout" json:"fetch_timeout" yaml:"fetch_timeout"`
	Policy             string        `mapstructure:"policy" json:"policy" yaml:"policy"`
	Debug              bool          `mapstructure:"debug" json:"debug" yaml:"debug"`
	LogLevel           string        `mapstructure:"log_level" json:"log_level" yaml:"log_level"`
	CacheSize          int           `mapstructure:"cache_size" json:"cache_size" yaml:"cache_size"`
	CacheTTL           time.Duration `mapstructure:"cache_ttl" json:"cache_ttl" yaml:"cache_ttl"`
	MaxExcerptBytes    int           `mapstructure:"max_excerpt_bytes" json:"max_excerpt_bytes" yaml:"max_excerpt_bytes"`
	ServerAddr         string        `mapstructure:"server_addr" json:"server_addr" yaml:"server_addr"`
	JobsAPIURL         string        `mapstructure:"jobs_api_url" json:"jobs_api_url" yaml:"jobs_api_url"`
	JobsAPIToken       string        `mapstructure:"jobs_api_token" json:"-" yaml:"-"`
	PollInterval       time.Duration `mapstructure:"poll_interval" json:"poll_interval" yaml:"poll_interval"`
	PollTimeout        time.Duration `mapstructure:"poll_timeout" json:"poll_timeout" yaml:"poll_timeout"`

	// ConfigFileUsed is the settings file that was read, if any
	ConfigFileUsed string `mapstructure:"-" json:"config_file_used,omitempty" yaml:"config_file_used,omitempty"`
}

// Defaults returns the built-in settings
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"git_provider":         ProviderGitHub,
		"github_token":         "",
		"github_api_url":       "https://api.github.com",
		"github_raw_url":       "https://raw.githubusercontent.com",
		"global_settings_repo": "pr-insight-settings",
		"settings_file":        ".pr_insight.toml",
		"wiki_page":            ".pr_insight",
		"local_dir":            ".",
		"global_dir":           "",
		"fetch_timeout":        10 * time.Second,
		"policy":               "fail-closed",
		"debug":                false,
		"log_level":            "warn",
		"cache_size":           256,
		"cache_ttl":            10 * time.Minute,
		"max_excerpt_bytes":    4000,
		"server_addr":          ":8080",
		"jobs_api_url":         "http://localhost:3000",
		"jobs_api_token":       "",
		"poll_interval":        5 * time.Second,
		"poll_timeout":         10 * time.Minute,
	}
}

// LoadOptions selects the inputs of Load
type LoadOptions struct {
	// ConfigFile is an explicit settings file; missing is an error
	ConfigFile string
	// EnvFile is an explicit dotenv file; missing is an error. When empty a
	// .env in the working directory is loaded if present.
	EnvFile string
	// Flags override every other input for flags that were set
	Flags *pflag.FlagSet
}

// Load merges defaults, the settings file, dotenv, PRI_* environment
// variables and flags, in increasing priority, then validates the result.
func Load(opts LoadOptions) (*Settings, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", opts.EnvFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	v := viper.New()
	for k, val := range Defaults() {
		v.SetDefault(k, val)
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", DefaultConfigDir))
		}
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, DefaultConfigDir))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || opts.ConfigFile != "" {
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("github_token", EnvPrefix+"_GITHUB_TOKEN", "GITHUB_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	if opts.Flags != nil {
		if err := bindFlags(v, opts.Flags); err != nil {
			return nil, err
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	s.ConfigFileUsed = v.ConfigFileUsed()

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// bindFlags binds every flag whose name maps to a settings key; "log-level"
// binds log_level.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	known := Defaults()
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if _, ok := known[key]; !ok || bindErr != nil {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			bindErr = fmt.Errorf("failed to bind flag --%s: %w", f.Name, err)
		}
	})
	return bindErr
}

// FailOpen reports whether best-effort resolution is configured
func (s *Settings) FailOpen() bool {
	p := strings.ToLower(strings.TrimSpace(s.Policy))
	return p == "fail-open" || p == "best-effort"
}

// Validate checks every field and reports all problems at once
func (s *Settings) Validate() error {
	problems := NewSettingsValidator().ValidateAll(s)
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}
