package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"prinsight.ai/cli/internal/application/services"
	configdomain "prinsight.ai/cli/internal/core/domain/config"
)

// NewValidateCommand creates the validate command
func NewValidateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [owner/repo]",
		Short: "Validate the configuration sources of a repository",
		Long: `Resolve a repository with the fail-closed policy and report every
problem found: unreachable or malformed sources, values of the wrong type,
out-of-vocabulary repository metadata and unknown keys.

Exits non-zero when any source fails or any warning is reported.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(a, cmd, args)
		},
	}
	addTargetFlags(cmd)
	return cmd
}

type validateReport struct {
	Repository string                 `json:"repository" yaml:"repository"`
	Valid      bool                   `json:"valid" yaml:"valid"`
	Error      string                 `json:"error,omitempty" yaml:"error,omitempty"`
	Warnings   []configdomain.Warning `json:"warnings" yaml:"warnings"`
}

func runValidate(a *app, cmd *cobra.Command, args []string) error {
	target, err := a.target(cmd, args)
	if err != nil {
		return err
	}
	overrides, err := setOverrides(cmd)
	if err != nil {
		return err
	}
	res, resErr := a.container.Resolver.Resolve(cmd.Context(), services.ResolveRequest{
		Target:    target,
		Policy:    services.FailClosed,
		Overrides: overrides,
	})

	report := validateReport{Repository: target.Repository, Warnings: []configdomain.Warning{}}
	if resErr != nil {
		report.Error = resErr.Error()
	} else if len(res.Warnings) > 0 {
		report.Warnings = res.Warnings
	}
	report.Valid = resErr == nil && len(report.Warnings) == 0

	out := cmd.OutOrStdout()
	if format := outputFormat(cmd); format != formatText {
		if err := encode(out, format, report); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "%s %s\n", titleStyle.Render("Validating"), target.Repository)
		switch {
		case resErr != nil:
			fmt.Fprintf(out, "%s %v\n", errorStyle.Render("✗"), resErr)
		case report.Valid:
			fmt.Fprintf(out, "%s configuration is valid\n", successStyle.Render("✓"))
		default:
			printWarnings(out, report.Warnings)
		}
	}

	switch {
	case resErr != nil:
		return resErr
	case !report.Valid:
		return fmt.Errorf("%d configuration problem(s) found", len(report.Warnings))
	}
	return nil
}
