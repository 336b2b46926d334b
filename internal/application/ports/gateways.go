package ports

import (
	"context"
	"strings"
	"time"

	configdomain "prinsight.ai/cli/internal/core/domain/config"
	"prinsight.ai/cli/internal/core/jobs"
)

// GitProvider defines the read-only repository access the resolver needs.
// Missing paths, repositories and wiki pages return configdomain.ErrNotFound.
type GitProvider interface {
	// DefaultBranch returns the default branch of repo ("owner/name")
	DefaultBranch(ctx context.Context, repo string) (string, error)

	// FetchFile returns the content of path at ref
	FetchFile(ctx context.Context, repo, ref, path string) ([]byte, error)

	// FetchWikiPage returns the raw content of a wiki page
	FetchWikiPage(ctx context.Context, repo, page string) ([]byte, error)

	// ListFiles returns every file path at ref, slash separated
	ListFiles(ctx context.Context, repo, ref string) ([]string, error)

	// Name identifies the provider in logs
	Name() string
}

// JobsGateway submits review jobs and reads their status
type JobsGateway interface {
	// Submit creates a review job carrying the resolved context block
	Submit(ctx context.Context, req JobSubmission) (jobs.JobID, error)

	// Status returns the current status of a job
	Status(ctx context.Context, id jobs.JobID) (jobs.Status, error)
}

// JobSubmission is the payload of a new review job
type JobSubmission struct {
	Repository   string `json:"repository"`
	PullRequest  string `json:"pr_url"`
	Tool         string `json:"tool"`
	ContextBlock string `json:"context_block"`
}

// MetricsRecorder records resolution metrics
type MetricsRecorder interface {
	// ObserveFetch records one source fetch and its outcome
	ObserveFetch(kind configdomain.SourceKind, outcome string, d time.Duration)

	// ObserveResolution records a completed resolution
	ObserveResolution(outcome string, d time.Duration)

	// ObserveWarnings counts warnings by code
	ObserveWarnings(ws []configdomain.Warning)

	// ObserveCache records a cache lookup
	ObserveCache(hit bool)
}

// LoggingGateway defines the interface for logging operations
type LoggingGateway interface {
	// Log logs a message with the specified level
	Log(level LogLevel, message string, fields map[string]interface{})

	// LogError logs an error
	LogError(err error, message string, fields map[string]interface{})

	// SetLogLevel sets the logging level
	SetLogLevel(level LogLevel)

	// GetLogLevel returns the current logging level
	GetLogLevel() LogLevel
}

// LogLevel defines the logging level
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Rank orders levels from most to least verbose. Unknown levels rank as info.
func (l LogLevel) Rank() int {
	switch l {
	case LogLevelDebug:
		return 0
	case LogLevelWarn:
		return 2
	case LogLevelError:
		return 3
	default:
		return 1
	}
}

// ParseLogLevel accepts the level names used in configuration files,
// including upper case and "warning".
func ParseLogLevel(s string) (LogLevel, bool) {
	switch LogLevel(strings.ToLower(strings.TrimSpace(s))) {
	case LogLevelDebug:
		return LogLevelDebug, true
	case LogLevelInfo:
		return LogLevelInfo, true
	case LogLevelWarn, "warning":
		return LogLevelWarn, true
	case LogLevelError:
		return LogLevelError, true
	}
	return LogLevelInfo, false
}

// NoopMetrics discards all observations
type NoopMetrics struct{}

func (NoopMetrics) ObserveFetch(configdomain.SourceKind, string, time.Duration) {}
func (NoopMetrics) ObserveResolution(string, time.Duration) {}
func (NoopMetrics) ObserveWarnings([]configdomain.Warning) {}
func (NoopMetrics) ObserveCache(bool) {}

// NoopLogger drops every log entry
type NoopLogger struct{}

func (NoopLogger) Log(LogLevel, string, map[string]interface{}) {}
func (NoopLogger) LogError(error, string, map[string]interface{}) {}
func (NoopLogger) SetLogLevel(LogLevel) {}
func (NoopLogger) GetLogLevel() LogLevel { return LogLevelError }
