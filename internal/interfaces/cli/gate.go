package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"prinsight.ai/cli/internal/core/gating"
)

// NewGateCommand creates the gate command
func NewGateCommand(a *app) *cobra.Command {
	var (
		pr     gating.PullRequest
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "gate [owner/repo]",
		Short: "Decide whether a pull request should be reviewed",
		Long: `Evaluate the gating rules of the effective config section
(allowed_repos, ignore_pr_authors, ignore_pr_title, ignore_pr_source_branches,
ignore_pr_target_branches) against one pull request.

Examples:
  pri gate acme/web --author dependabot[bot] --title "Bump x"
  pri gate acme/web --source-branch release/1.2 --strict`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.resolve(cmd, args)
			if err != nil {
				return err
			}
			if pr.RepositoryURL == "" {
				pr.RepositoryURL = "https://github.com/" + res.Target.Repository
			}
			decision := gating.Evaluate(res.Config, pr)

			out := cmd.OutOrStdout()
			if format := outputFormat(cmd); format != formatText {
				if err := encode(out, format, decision); err != nil {
					return err
				}
			} else if decision.Allowed {
				fmt.Fprintf(out, "%s pull request will be reviewed\n", successStyle.Render("✓"))
			} else {
				fmt.Fprintf(out, "%s skipped: %s\n", warningStyle.Render("−"), decision.Reason)
			}
			printWarnings(cmd.ErrOrStderr(), decision.Warnings)

			if strict && !decision.Allowed {
				return fmt.Errorf("pull request gated: %s", decision.Reason)
			}
			return nil
		},
	}
	addTargetFlags(cmd)
	f := cmd.Flags()
	f.StringVar(&pr.RepositoryURL, "url", "", "Repository URL matched against allowed_repos (default https://github.com/<owner/repo>)")
	f.StringVar(&pr.Author, "author", "", "Pull request author")
	f.StringVar(&pr.Title, "title", "", "Pull request title")
	f.StringVar(&pr.SourceBranch, "source-branch", "", "Source branch")
	f.StringVar(&pr.TargetBranch, "target-branch", "", "Target branch")
	f.BoolVar(&strict, "strict", false, "Exit non-zero when the pull request is gated")
	return cmd
}
