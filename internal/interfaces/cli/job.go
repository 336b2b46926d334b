package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"prinsight.ai/cli/internal/application/ports"
	"prinsight.ai/cli/internal/application/services"
	"prinsight.ai/cli/internal/core/jobs"
)

// JobFlags holds command-line flags shared by the job commands
type JobFlags struct {
	Interval time.Duration
	Timeout  time.Duration
	Plain    bool
}

// NewJobCommand creates the job command
func NewJobCommand(a *app) *cobra.Command {
	jobCmd := &cobra.Command{
		Use:   "job",
		Short: "Submit review jobs and follow their progress",
	}
	jobCmd.AddCommand(NewJobSubmitCommand(a), NewJobWatchCommand(a))
	return jobCmd
}

// NewJobSubmitCommand creates the submit subcommand
func NewJobSubmitCommand(a *app) *cobra.Command {
	flags := &JobFlags{}
	var (
		prURL string
		tool  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "submit [owner/repo]",
		Short: "Resolve the context block and submit a review job",
		Long: `Resolve the repository context block and submit it with a review job
to the jobs API. With --watch the job is followed until it completes or fails.

Examples:
  pri job submit acme/web --pr https://github.com/acme/web/pull/7
  pri job submit acme/web --pr https://github.com/acme/web/pull/7 --tool describe --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := services.ToolSections[tool]; !ok {
				return fmt.Errorf("unknown tool %q", tool)
			}
			res, err := a.resolve(cmd, args)
			if err != nil {
				return err
			}
			printWarnings(cmd.ErrOrStderr(), res.Warnings)

			id, err := a.container.Jobs.Submit(cmd.Context(), ports.JobSubmission{
				Repository:   res.Target.Repository,
				PullRequest:  prURL,
				Tool:         tool,
				ContextBlock: res.Block.String(),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s job %s submitted\n", successStyle.Render("✓"), id)

			if !watch {
				return nil
			}
			return a.watchJob(cmd, jobs.NewJob(id, tool, time.Now()), flags)
		},
	}
	addTargetFlags(cmd)
	addJobFlags(cmd, flags)
	cmd.Flags().StringVar(&prURL, "pr", "", "Pull request URL")
	cmd.Flags().StringVar(&tool, "tool", "review", "Review tool to run")
	cmd.Flags().BoolVar(&watch, "watch", false, "Follow the job until it finishes")
	_ = cmd.MarkFlagRequired("pr")
	return cmd
}

// NewJobWatchCommand creates the watch subcommand
func NewJobWatchCommand(a *app) *cobra.Command {
	flags := &JobFlags{}

	cmd := &cobra.Command{
		Use:   "watch <job-id>",
		Short: "Follow a review job until it completes or fails",
		Long: `Poll a review job until it reaches a terminal state or the polling
timeout elapses. An interactive terminal shows a live view; use --plain for
one line per observed status.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := jobs.NewJobID(args[0])
			if err != nil {
				return err
			}
			return a.watchJob(cmd, jobs.NewJob(id, "", time.Now()), flags)
		},
	}
	addJobFlags(cmd, flags)
	return cmd
}

func addJobFlags(cmd *cobra.Command, flags *JobFlags) {
	cmd.Flags().DurationVar(&flags.Interval, "interval", 0, "Polling interval (default from settings)")
	cmd.Flags().DurationVar(&flags.Timeout, "timeout", 0, "Polling timeout (default from settings)")
	cmd.Flags().BoolVar(&flags.Plain, "plain", false, "Print one line per status instead of the live view")
}

func (a *app) watchJob(cmd *cobra.Command, job *jobs.Job, flags *JobFlags) error {
	interval, timeout := flags.Interval, flags.Timeout
	if interval <= 0 {
		interval = a.container.Settings.PollInterval
	}
	if timeout <= 0 {
		timeout = a.container.Settings.PollTimeout
	}

	out := cmd.OutOrStdout()
	format := outputFormat(cmd)
	if flags.Plain || format != formatText || !isTerminal(out) {
		st, err := watchPlain(cmd.Context(), a.container.Jobs, job, interval, timeout, out, format == formatText)
		if format != formatText {
			if encErr := encode(out, format, statusView(st)); encErr != nil {
				return encErr
			}
		}
		return jobResult(st, err)
	}

	st, err := runWatcher(cmd.Context(), a.container.Jobs, job, interval, timeout, out)
	return jobResult(st, err)
}

func watchPlain(ctx context.Context, fetcher jobs.StatusFetcher, job *jobs.Job, interval, timeout time.Duration, out io.Writer, verbose bool) (jobs.Status, error) {
	var opts []jobs.PollerOption
	if verbose {
		opts = append(opts, jobs.WithStatusCallback(func(st jobs.Status) {
			fmt.Fprintln(out, formatStatusLine(st))
		}))
	}
	return jobs.NewPoller(fetcher, interval, timeout, opts...).Wait(ctx, job)
}

func jobResult(st jobs.Status, err error) error {
	if err != nil {
		return err
	}
	if st.State == jobs.StateFailed {
		return fmt.Errorf("job %s failed: %s", st.ID, st.Message)
	}
	return nil
}

func formatStatusLine(st jobs.Status) string {
	line := fmt.Sprintf("%s  %-10s", st.UpdatedAt.Format("15:04:05"), st.State)
	if st.Message != "" {
		line += "  " + st.Message
	}
	return line
}

type jobStatusView struct {
	ID        string    `json:"job_id" yaml:"job_id"`
	State     string    `json:"status" yaml:"status"`
	Message   string    `json:"message,omitempty" yaml:"message,omitempty"`
	Result    string    `json:"result,omitempty" yaml:"result,omitempty"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

func statusView(st jobs.Status) jobStatusView {
	return jobStatusView{
		ID:        st.ID.Value(),
		State:     string(st.State),
		Message:   st.Message,
		Result:    st.Result,
		UpdatedAt: st.UpdatedAt,
	}
}
