package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrPollTimeout is returned when a job does not reach a terminal state within
// the polling timeout.
var ErrPollTimeout = errors.New("job polling timed out")

// Default polling parameters
const (
	DefaultPollInterval = 5 * time.Second
	DefaultPollTimeout  = 10 * time.Minute
)

// StatusFetcher reads the current status of a job
type StatusFetcher interface {
	Status(ctx context.Context, id JobID) (Status, error)
}

// Poller polls a job at a fixed interval until it reaches a terminal state or
// the overall timeout elapses, whichever comes first.
type Poller struct {
	fetcher  StatusFetcher
	interval time.Duration
	timeout  time.Duration
	onStatus func(Status)
}

// PollerOption configures a Poller
type PollerOption func(*Poller)

// WithStatusCallback registers a callback for every observed status
func WithStatusCallback(fn func(Status)) PollerOption {
	return func(p *Poller) { p.onStatus = fn }
}

// NewPoller creates a poller. Non-positive durations fall back to defaults.
func NewPoller(fetcher StatusFetcher, interval, timeout time.Duration, opts ...PollerOption) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}
	p := &Poller{fetcher: fetcher, interval: interval, timeout: timeout}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Wait polls job until it completes or fails. The timeout bounds the status
// calls too. The last observed status is returned together with
// ErrPollTimeout when the timeout is hit first.
func (p *Poller) Wait(ctx context.Context, job *Job) (Status, error) {
	pollCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	last := Status{ID: job.ID(), State: job.State()}
	for {
		st, err := p.fetcher.Status(pollCtx, job.ID())
		if err != nil {
			if pollCtx.Err() != nil {
				return last, p.stopReason(ctx)
			}
			return last, fmt.Errorf("fetching status of job %s: %w", job.ID(), err)
		}
		if err := job.Observe(st); err != nil {
			return last, err
		}
		last = st
		if p.onStatus != nil {
			p.onStatus(st)
		}
		if st.State.IsTerminal() {
			return st, nil
		}

		select {
		case <-pollCtx.Done():
			return last, p.stopReason(ctx)
		case <-ticker.C:
		}
	}
}

// stopReason tells a cancelled caller apart from an expired poll timeout.
func (p *Poller) stopReason(parent context.Context) error {
	if err := parent.Err(); err != nil {
		return err
	}
	return ErrPollTimeout
}
