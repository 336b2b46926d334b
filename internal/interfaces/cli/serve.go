package cli

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"prinsight.ai/cli/internal/application/ports"
	configdomain "prinsight.ai/cli/internal/core/domain/config"
	configinfra "prinsight.ai/cli/internal/infrastructure/config"
	"prinsight.ai/cli/internal/infrastructure/server"
	"prinsight.ai/cli/internal/infrastructure/settings"
)

// NewServeCommand creates the serve command
func NewServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [owner/repo]",
		Short: "Serve configuration resolution over HTTP",
		Long: `Start the HTTP API:

  POST /api/v1/context/resolve   resolve a repository and render its context block
  GET  /api/v1/context/relevant  relevant configurations of one tool
  GET  /api/v1/tools             known review tools
  GET  /metrics                  Prometheus metrics
  GET  /healthz                  liveness

The listen address comes from the server_addr setting (PRI_SERVER_ADDR or
--server-addr).

The API is limited per client IP by config.rate_limit_per_minute and in
flight by config.max_concurrent_webhooks. Both are read from the effective
configuration of the given repository (the local repository for the local
provider) or from the defaults, and --set overrides them. When a repository
is known, /healthz also checks that its provider answers.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := a.policy()
			if err != nil {
				return err
			}
			limits, repo, err := a.serverLimits(cmd, args)
			if err != nil {
				return err
			}
			if !a.container.Settings.Debug {
				gin.SetMode(gin.ReleaseMode)
			}
			cfg := server.DefaultConfig()
			cfg.Addr = a.container.Settings.ServerAddr
			cfg.DefaultPolicy = policy
			cfg.Gatherer = a.container.Gatherer
			cfg.Limits = limits
			if check := a.container.HealthCheck; check != nil && repo != "" {
				cfg.HealthCheck = func(ctx context.Context) error { return check(ctx, repo) }
			}

			a.container.Logger.Log(ports.LogLevelInfo, "Server limits", map[string]interface{}{
				"rate_limit_per_minute":   limits.RequestsPerMinute,
				"max_concurrent_webhooks": limits.MaxConcurrent,
				"repository":              repo,
			})
			srv := server.New(a.container.Resolver, a.container.Logger, cfg)
			return srv.Run(cmd.Context())
		},
	}
	cmd.Flags().String("server-addr", "", "Listen address (default :8080)")
	addTargetFlags(cmd)
	return cmd
}

// serverLimits reads the API limits from the effective configuration of the
// repository named by args, or from the defaults when there is none. It also
// returns that repository.
func (a *app) serverLimits(cmd *cobra.Command, args []string) (server.Limits, string, error) {
	if len(args) > 0 || a.container.Settings.GitProvider == settings.ProviderLocal {
		res, err := a.resolve(cmd, args)
		if err != nil {
			return server.Limits{}, "", fmt.Errorf("failed to resolve server limits: %w", err)
		}
		return server.LimitsFromConfig(res.Config), res.Target.Repository, nil
	}

	overrides, err := setOverrides(cmd)
	if err != nil {
		return server.Limits{}, "", err
	}
	cfg := configdomain.MergeInto(
		configdomain.Merge(configdomain.Layer{Kind: configdomain.SourceDefault, Mapping: configinfra.Defaults()}),
		configdomain.Layer{Kind: configdomain.SourceOverride, Mapping: overrides},
	)
	return server.LimitsFromConfig(cfg), "", nil
}
