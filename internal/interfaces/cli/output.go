package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"prinsight.ai/cli/internal/application/services"
	configdomain "prinsight.ai/cli/internal/core/domain/config"
	configports "prinsight.ai/cli/internal/core/ports/config"
	configinfra "prinsight.ai/cli/internal/infrastructure/config"
	"prinsight.ai/cli/internal/infrastructure/settings"
)

// Output formats
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

func parseFormat(cmd *cobra.Command) (string, error) {
	f, _ := cmd.Flags().GetString("output")
	switch strings.ToLower(f) {
	case "", formatText:
		return formatText, nil
	case formatJSON:
		return formatJSON, nil
	case formatYAML, "yml":
		return formatYAML, nil
	}
	return "", fmt.Errorf("unsupported output format %q (valid formats: text, json, yaml)", f)
}

// outputFormat returns the validated --output value
func outputFormat(cmd *cobra.Command) string {
	f, err := parseFormat(cmd)
	if err != nil {
		return formatText
	}
	return f
}

// encode writes v as json or yaml
func encode(w io.Writer, format string, v interface{}) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("cannot encode %s output", format)
}

func printWarnings(w io.Writer, warnings []configdomain.Warning) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf("%d warning(s):", len(warnings))))
	for _, warn := range warnings {
		fmt.Fprintf(w, "  %s %s\n", warningStyle.Render("!"), warn.String())
	}
}

// maskToken masks a token for display
func maskToken(token string) string {
	if token == "" {
		return "(not set)"
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// target builds the resolution target. Without an argument the local
// provider names the repository after its directory.
func (a *app) target(cmd *cobra.Command, args []string) (configports.Target, error) {
	org, _ := cmd.Flags().GetString("org")
	if len(args) > 0 && args[0] != "" {
		return configports.Target{Repository: args[0], Organization: org}, nil
	}
	s := a.container.Settings
	if s.GitProvider != settings.ProviderLocal {
		return configports.Target{}, fmt.Errorf("a repository (owner/name) is required for the %s provider", s.GitProvider)
	}
	dir, err := filepath.Abs(settings.ExpandPath(s.LocalDir))
	if err != nil {
		return configports.Target{}, fmt.Errorf("failed to resolve local directory: %w", err)
	}
	if org == "" {
		org = "local"
	}
	return configports.Target{Repository: org + "/" + filepath.Base(dir), Organization: org}, nil
}

func (a *app) policy() (services.Policy, error) {
	return services.ParsePolicy(strings.ToLower(strings.TrimSpace(a.container.Settings.Policy)))
}

// resolve resolves the target named by args with the configured policy
func (a *app) resolve(cmd *cobra.Command, args []string) (*services.Resolution, error) {
	target, err := a.target(cmd, args)
	if err != nil {
		return nil, err
	}
	policy, err := a.policy()
	if err != nil {
		return nil, err
	}
	overrides, err := setOverrides(cmd)
	if err != nil {
		return nil, err
	}
	return a.container.Resolver.Resolve(cmd.Context(), services.ResolveRequest{
		Target:    target,
		Policy:    policy,
		Overrides: overrides,
	})
}

// setOverrides parses the repeated --set flag
func setOverrides(cmd *cobra.Command) (configdomain.Mapping, error) {
	assignments, _ := cmd.Flags().GetStringArray("set")
	return configinfra.ParseOverrides(assignments)
}

func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().String("org", "", "Organization owning the global settings repository (default is the repository owner)")
}
