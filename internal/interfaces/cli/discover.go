package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewDiscoverCommand creates the discover command
func NewDiscoverCommand(a *app) *cobra.Command {
	var maxFiles int

	cmd := &cobra.Command{
		Use:   "discover [owner/repo]",
		Short: "Detect technologies and conventions from repository files",
		Long: `Run context discovery on the default branch of a repository. At most
--max-files paths are inspected, in lexicographic order.

Discovery runs regardless of repository_metadata.auto_discover_context; the
result is only printed, never merged into the configuration.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := a.target(cmd, args)
			if err != nil {
				return err
			}
			hints, err := a.container.Resolver.DiscoverContext(cmd.Context(), target.Repository, maxFiles)
			if err != nil {
				return fmt.Errorf("discovery failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if format := outputFormat(cmd); format != formatText {
				return encode(out, format, hints)
			}
			fmt.Fprintf(out, "%s %s\n", titleStyle.Render("Technologies:"), orNone(hints.Technologies))
			fmt.Fprintf(out, "%s %s\n", titleStyle.Render("Conventions:"), orNone(hints.Conventions))
			fmt.Fprintf(out, "%s %s\n", titleStyle.Render("Manifests:"), orNone(hints.Manifests))
			fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%d file(s) inspected", len(hints.Inspected))))
			return nil
		},
	}
	addTargetFlags(cmd)
	cmd.Flags().IntVar(&maxFiles, "max-files", 50, "Maximum number of files to inspect")
	return cmd
}

func orNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}
