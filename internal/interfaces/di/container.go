package di

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	appconfig "prinsight.ai/cli/internal/application/config"
	"prinsight.ai/cli/internal/application/ports"
	"prinsight.ai/cli/internal/application/services"
	"prinsight.ai/cli/internal/infrastructure/cache"
	configinfra "prinsight.ai/cli/internal/infrastructure/config"
	"prinsight.ai/cli/internal/infrastructure/github"
	httpinfra "prinsight.ai/cli/internal/infrastructure/http"
	"prinsight.ai/cli/internal/infrastructure/jobsapi"
	"prinsight.ai/cli/internal/infrastructure/localrepo"
	"prinsight.ai/cli/internal/infrastructure/logging"
	"prinsight.ai/cli/internal/infrastructure/monitoring"
	"prinsight.ai/cli/internal/infrastructure/settings"
	"prinsight.ai/cli/internal/interfaces/cli"
)

// Container holds all application dependencies
type Container struct {
	Settings *settings.Settings
	Logger   *logging.ConsoleLogger

	// Metrics
	Registry *prometheus.Registry
	Metrics  *monitoring.Metrics

	// Repository access
	RepoProvider ports.GitProvider
	OrgProvider  ports.GitProvider

	// Resolution
	Aggregator *appconfig.Aggregator
	Cache      *cache.ResolutionCache
	Resolver   *services.ResolutionService

	// Jobs backend
	Jobs *jobsapi.Client
}

// NewContainer creates and configures the dependency injection container
func NewContainer(s *settings.Settings) (*Container, error) {
	level, ok := ports.ParseLogLevel(s.LogLevel)
	if !ok {
		return nil, fmt.Errorf("invalid log level: %s", s.LogLevel)
	}
	container := &Container{
		Settings: s,
		Logger:   logging.NewConsoleLogger(level),
	}

	if err := container.initializeComponents(); err != nil {
		return nil, fmt.Errorf("failed to initialize components: %w", err)
	}
	return container, nil
}

// initializeComponents initializes all components with proper dependencies
func (c *Container) initializeComponents() error {
	s := c.Settings

	// 1. Metrics
	c.Registry = prometheus.NewRegistry()
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.Metrics = monitoring.MustNewMetrics(c.Registry)

	// 2. Repository providers
	if err := c.initializeProviders(); err != nil {
		return err
	}

	// 3. Source loading
	loaders := configinfra.NewLoaders(c.RepoProvider, c.OrgProvider, s.GlobalSettingsRepo, s.SettingsFile, s.WikiPage)
	c.Aggregator = appconfig.NewAggregator(loaders,
		appconfig.WithFetchTimeout(s.FetchTimeout),
		appconfig.WithMetrics(c.Metrics),
	)

	// 4. Resolution service
	c.Cache = cache.NewResolutionCache(s.CacheSize, s.CacheTTL)
	c.Resolver = services.NewResolutionService(services.ResolutionServiceConfig{
		Aggregator:      c.Aggregator,
		Parse:           configinfra.ParseSource,
		Defaults:        configinfra.Defaults(),
		Provider:        c.RepoProvider,
		Cache:           c.Cache,
		Metrics:         c.Metrics,
		Logger:          c.Logger,
		MaxExcerptBytes: s.MaxExcerptBytes,
	})

	// 5. Jobs backend
	c.Jobs = jobsapi.NewClient(s.JobsAPIURL, s.JobsAPIToken, userAgent(), s.FetchTimeout, nil)

	c.Logger.Log(ports.LogLevelDebug, "Dependency injection container initialized", map[string]interface{}{
		"git_provider":  s.GitProvider,
		"settings_file": s.ConfigFileUsed,
	})
	return nil
}

func (c *Container) initializeProviders() error {
	s := c.Settings
	switch s.GitProvider {
	case settings.ProviderGitHub:
		p := github.NewProvider(github.Options{
			APIURL:    s.GitHubAPIURL,
			RawURL:    s.GitHubRawURL,
			Token:     s.GitHubToken,
			UserAgent: userAgent(),
			Timeout:   s.FetchTimeout,
			Retry:     httpinfra.DefaultRetryPolicy(),
		})
		c.RepoProvider, c.OrgProvider = p, p

	case settings.ProviderLocal:
		repo, err := localrepo.NewProvider(settings.ExpandPath(s.LocalDir))
		if err != nil {
			return fmt.Errorf("failed to open local repository: %w", err)
		}
		c.RepoProvider = repo
		// without a global dir there is no organization-wide source
		if s.GlobalDir != "" {
			org, err := localrepo.NewProvider(settings.ExpandPath(s.GlobalDir))
			if err != nil {
				return fmt.Errorf("failed to open global settings directory: %w", err)
			}
			c.OrgProvider = org
		}

	default:
		return fmt.Errorf("unsupported git provider: %s", s.GitProvider)
	}
	return nil
}

// CLIContainer returns the dependencies the commands use
func (c *Container) CLIContainer() *cli.CLIContainer {
	return &cli.CLIContainer{
		Settings:    c.Settings,
		Resolver:    c.Resolver,
		Jobs:        c.Jobs,
		Logger:      c.Logger,
		Gatherer:    c.Registry,
		HealthCheck: c.HealthCheck,
	}
}

// HealthCheck verifies that the configured repository provider answers
func (c *Container) HealthCheck(ctx context.Context, repo string) error {
	if c.RepoProvider == nil {
		return fmt.Errorf("repository provider not initialized")
	}
	if _, err := c.RepoProvider.DefaultBranch(ctx, repo); err != nil {
		return fmt.Errorf("%s provider health check failed: %w", c.RepoProvider.Name(), err)
	}
	return nil
}

// Build loads settings and wires the container; it is the cli.Builder used
// by the binary.
func Build(opts settings.LoadOptions) (*cli.CLIContainer, error) {
	s, err := settings.Load(opts)
	if err != nil {
		return nil, err
	}
	c, err := NewContainer(s)
	if err != nil {
		return nil, err
	}
	return c.CLIContainer(), nil
}

func userAgent() string {
	return "pri/" + cli.Version
}

var _ cli.Builder = Build
