package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"prinsight.ai/cli/internal/application/ports"
	"prinsight.ai/cli/internal/application/services"
	"prinsight.ai/cli/internal/core/discovery"
	"prinsight.ai/cli/internal/infrastructure/settings"
)

var (
	Version   = "dev"     // Overridden by ldflags
	BuildTime = "unknown" // Overridden by ldflags
)

// annotation marking commands that run without a container
const skipContainer = "pri/skip-container"

// Resolver is what the commands need from the resolution service
type Resolver interface {
	Resolve(ctx context.Context, req services.ResolveRequest) (*services.Resolution, error)
	DiscoverContext(ctx context.Context, repo string, maxFiles int) (discovery.Hints, error)
}

// CLIContainer holds all the dependencies for CLI commands
type CLIContainer struct {
	Settings *settings.Settings
	Resolver Resolver
	Jobs     ports.JobsGateway
	Logger   ports.LoggingGateway
	// Gatherer backs the /metrics endpoint of serve
	Gatherer prometheus.Gatherer
	// HealthCheck backs /healthz of serve when set
	HealthCheck func(ctx context.Context, repo string) error
}

// Builder creates the container once flags are parsed
type Builder func(opts settings.LoadOptions) (*CLIContainer, error)

// app carries state shared by every command of one invocation
type app struct {
	build     Builder
	container *CLIContainer
}

// NewRootCommand creates the pri command tree
func NewRootCommand(build Builder) *cobra.Command {
	a := &app{build: build}

	rootCmd := &cobra.Command{
		Use:   "pri",
		Short: "pr-insight configuration resolver",
		Long: `pri resolves the effective review configuration of a repository from
its default, organization-wide, repository and wiki sources, validates the
repository metadata and renders the repository context block handed to the
review tools.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipContainer] == "true" {
				return nil
			}
			if _, err := parseFormat(cmd); err != nil {
				return err
			}
			configFile, _ := cmd.Flags().GetString("config")
			envFile, _ := cmd.Flags().GetString("env-file")
			container, err := a.build(settings.LoadOptions{
				ConfigFile: configFile,
				EnvFile:    envFile,
				Flags:      cmd.Flags(),
			})
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			a.container = container
			return nil
		},
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} version {{.Version}}\nBuild time: %s\nGo version: %s\nPlatform: %s/%s\n",
		BuildTime, goVersion(), runtime.GOOS, runtime.GOARCH))

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Settings file (default is $HOME/.config/pri/config.yaml)")
	pf.String("env-file", "", "dotenv file to load (default is ./.env when present)")
	pf.StringP("output", "o", formatText, "Output format: text, json or yaml")
	pf.Bool("debug", false, "Show relevant configurations and their sources")
	pf.String("log-level", "", "Log level: debug, info, warn or error")
	pf.String("policy", "", "Failure policy: fail-closed or fail-open")
	pf.String("git-provider", "", "Repository provider: github or local")
	pf.String("local-dir", "", "Repository root for the local provider")
	pf.String("global-dir", "", "Organization settings repository root for the local provider")
	pf.StringArray("set", nil, "Override a configuration value for this run (section.key=value, repeatable)")

	rootCmd.AddCommand(
		NewResolveCommand(a),
		NewConfigCommand(a),
		NewValidateCommand(a),
		NewDiscoverCommand(a),
		NewGateCommand(a),
		NewJobCommand(a),
		NewServeCommand(a),
		NewVersionCommand(),
	)
	return rootCmd
}

// goVersion returns the Go version used to build the binary
func goVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.GoVersion
	}
	return "unknown"
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Show version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipContainer: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "pri %s (built %s, %s, %s/%s)\n",
				Version, BuildTime, goVersion(), runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}

// Execute runs the root command and exits non-zero on failure
func Execute(ctx context.Context, build Builder) {
	rootCmd := NewRootCommand(build)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("Error:"), err)
		os.Exit(1)
	}
}
