package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"prinsight.ai/cli/internal/application/services"
	"prinsight.ai/cli/internal/infrastructure/settings"
)

// NewConfigCommand creates the config command
func NewConfigCommand(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect effective configuration",
		Long: `Inspect the effective configuration of a repository: every key with
the source it came from, single keys, the sections one tool reads and the
sources that were fetched.`,
	}

	configCmd.AddCommand(
		NewConfigShowCommand(a),
		NewConfigGetCommand(a),
		NewConfigRelevantCommand(a),
		NewConfigSourcesCommand(a),
		NewConfigSettingsCommand(a),
	)
	return configCmd
}

// NewConfigShowCommand creates the show subcommand
func NewConfigShowCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [owner/repo]",
		Short: "Show every effective key and its source",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.resolve(cmd, args)
			if err != nil {
				return err
			}
			if format := outputFormat(cmd); format != formatText {
				return encode(cmd.OutOrStdout(), format, services.NewResolutionView(res, "", true).Relevant)
			}
			fmt.Fprint(cmd.OutOrStdout(), services.RenderRelevant(res.Config.Entries()))
			printWarnings(cmd.ErrOrStderr(), res.Warnings)
			return nil
		},
	}
	addTargetFlags(cmd)
	return cmd
}

// NewConfigGetCommand creates the get subcommand
func NewConfigGetCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <section.key> [owner/repo]",
		Short: "Print one effective value",
		Long: `Print one effective value. Keys are case-insensitive; a key without a
section is looked up in the root table.

Examples:
  pri config get pr_reviewer.num_code_suggestions acme/web
  pri config get CONFIG.MODEL acme/web -o json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.resolve(cmd, args[1:])
			if err != nil {
				return err
			}
			key := args[0]
			value, ok := res.Config.Lookup(key)
			if !ok {
				return fmt.Errorf("key %s is not set", key)
			}

			if format := outputFormat(cmd); format != formatText {
				for _, e := range res.Config.Entries() {
					if strings.EqualFold(e.DottedKey(), key) {
						return encode(cmd.OutOrStdout(), format, services.NewEntryView(e))
					}
				}
			}
			if s, isString := value.AsString(); isString {
				fmt.Fprintln(cmd.OutOrStdout(), s)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), value.String())
			return nil
		},
	}
	addTargetFlags(cmd)
	return cmd
}

// NewConfigRelevantCommand creates the relevant subcommand
func NewConfigRelevantCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relevant <tool> [owner/repo]",
		Short: "Show the configuration one review tool reads",
		Long: fmt.Sprintf(`Show the shared config section, the tool's own section and the
repository metadata, each key with the source that supplied it.

Tools: %s`, strings.Join(services.Tools(), ", ")),
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tool := args[0]
			if _, ok := services.ToolSections[strings.ToLower(tool)]; !ok {
				return fmt.Errorf("unknown tool %q (valid tools: %s)", tool, strings.Join(services.Tools(), ", "))
			}
			res, err := a.resolve(cmd, args[1:])
			if err != nil {
				return err
			}
			if format := outputFormat(cmd); format != formatText {
				return encode(cmd.OutOrStdout(), format, services.NewResolutionView(res, tool, true).Relevant)
			}
			fmt.Fprintln(cmd.OutOrStdout(), titleStyle.Render("Relevant configurations for "+strings.ToLower(tool)))
			fmt.Fprint(cmd.OutOrStdout(), services.RenderRelevant(services.RelevantConfigurations(res.Config, tool)))
			printWarnings(cmd.ErrOrStderr(), res.Warnings)
			return nil
		},
	}
	addTargetFlags(cmd)
	return cmd
}

// NewConfigSourcesCommand creates the sources subcommand
func NewConfigSourcesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources [owner/repo]",
		Short: "List the configuration sources in precedence order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.resolve(cmd, args)
			if err != nil {
				return err
			}
			view := services.NewResolutionView(res, "", false)
			if format := outputFormat(cmd); format != formatText {
				return encode(cmd.OutOrStdout(), format, view.Sources)
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				BorderStyle(mutedStyle).
				Headers("SOURCE", "STATUS", "BYTES")
			for _, src := range view.Sources {
				status := "absent"
				if src.Present {
					status = "present"
				}
				t.Row(src.Kind, status, strconv.Itoa(src.Bytes))
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			printWarnings(cmd.ErrOrStderr(), res.Warnings)
			return nil
		},
	}
	addTargetFlags(cmd)
	return cmd
}

// NewConfigSettingsCommand creates the settings subcommand
func NewConfigSettingsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "settings",
		Short: "Show the runtime settings of pri",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.container.Settings
			if format := outputFormat(cmd); format != formatText {
				return encode(cmd.OutOrStdout(), format, s)
			}
			printSettings(cmd.OutOrStdout(), s)
			return nil
		},
	}
}

func printSettings(w io.Writer, s *settings.Settings) {
	fmt.Fprintln(w, titleStyle.Render("Current Settings:"))
	file := s.ConfigFileUsed
	if file == "" {
		file = "(none)"
	}
	fmt.Fprintf(w, "Settings File: %s\n", file)
	fmt.Fprintf(w, "Git Provider: %s\n", s.GitProvider)
	switch s.GitProvider {
	case settings.ProviderGitHub:
		fmt.Fprintf(w, "GitHub API: %s\n", s.GitHubAPIURL)
		fmt.Fprintf(w, "GitHub Token: %s\n", maskToken(s.GitHubToken))
	case settings.ProviderLocal:
		fmt.Fprintf(w, "Local Dir: %s\n", s.LocalDir)
		if s.GlobalDir != "" {
			fmt.Fprintf(w, "Global Dir: %s\n", s.GlobalDir)
		}
	}
	fmt.Fprintf(w, "Global Settings Repo: %s\n", s.GlobalSettingsRepo)
	fmt.Fprintf(w, "Settings File Name: %s\n", s.SettingsFile)
	fmt.Fprintf(w, "Wiki Page: %s\n", s.WikiPage)
	fmt.Fprintf(w, "Policy: %s\n", s.Policy)
	fmt.Fprintf(w, "Fetch Timeout: %s\n", s.FetchTimeout)
	fmt.Fprintf(w, "Cache: %d entries, %s TTL\n", s.CacheSize, s.CacheTTL)
	fmt.Fprintf(w, "Jobs API: %s (token %s)\n", s.JobsAPIURL, maskToken(s.JobsAPIToken))
	fmt.Fprintf(w, "Log Level: %s\n", s.LogLevel)
	fmt.Fprintf(w, "Debug: %t\n", s.Debug)
}
