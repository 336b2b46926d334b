package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"prinsight.ai/cli/internal/application/services"
)

// NewResolveCommand creates the resolve command
func NewResolveCommand(a *app) *cobra.Command {
	var tool string

	cmd := &cobra.Command{
		Use:   "resolve [owner/repo]",
		Short: "Resolve configuration and print the repository context block",
		Long: `Resolve the effective configuration of a repository and print the
repository context block the review tools receive.

Examples:
  pri resolve acme/web
  pri resolve acme/web --policy fail-open -o json
  pri resolve acme/web --debug --tool review
  pri resolve --git-provider local --local-dir .`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.resolve(cmd, args)
			if err != nil {
				return err
			}
			return a.printResolution(cmd, res, tool)
		},
	}
	addTargetFlags(cmd)
	cmd.Flags().StringVar(&tool, "tool", "", "Limit --debug output to the sections one tool reads")
	return cmd
}

func (a *app) printResolution(cmd *cobra.Command, res *services.Resolution, tool string) error {
	out := cmd.OutOrStdout()
	debug := a.container.Settings.Debug

	if format := outputFormat(cmd); format != formatText {
		return encode(out, format, services.NewResolutionView(res, tool, debug))
	}

	if res.Block.Empty() {
		fmt.Fprintln(out, mutedStyle.Render("Repository metadata is disabled; no context block."))
	} else {
		fmt.Fprint(out, res.Block.String())
	}

	if debug {
		fmt.Fprintln(out)
		fmt.Fprintln(out, titleStyle.Render("Relevant configurations"))
		fmt.Fprint(out, services.RenderRelevant(services.RelevantConfigurations(res.Config, tool)))
		fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("resolved in %s, cache hit: %t", res.Duration.Round(time.Microsecond), res.CacheHit)))
	}
	printWarnings(cmd.ErrOrStderr(), res.Warnings)
	return nil
}
