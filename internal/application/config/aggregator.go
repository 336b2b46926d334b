package appconfig

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"prinsight.ai/cli/internal/application/ports"
	configdomain "prinsight.ai/cli/internal/core/domain/config"
	configports "prinsight.ai/cli/internal/core/ports/config"
)

// DefaultFetchTimeout bounds each source fetch.
const DefaultFetchTimeout = 10 * time.Second

// Fetch outcomes reported to metrics
const (
	OutcomePresent     = "present"
	OutcomeAbsent      = "absent"
	OutcomeUnavailable = "unavailable"
)

// Outcome is the result of fetching one source.
type Outcome struct {
	Source   configdomain.Source
	Err      error
	Duration time.Duration
}

// Aggregator fetches every configuration source concurrently and waits for
// all of them before returning.
type Aggregator struct {
	loaders []configports.Loader
	timeout time.Duration
	metrics ports.MetricsRecorder
	now     func() time.Time
}

// AggregatorOption configures an Aggregator
type AggregatorOption func(*Aggregator)

// WithFetchTimeout sets the per-fetch timeout
func WithFetchTimeout(d time.Duration) AggregatorOption {
	return func(a *Aggregator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(m ports.MetricsRecorder) AggregatorOption {
	return func(a *Aggregator) {
		if m != nil {
			a.metrics = m
		}
	}
}

// WithClock overrides time.Now for fetch timestamps
func WithClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) { a.now = now }
}

// NewAggregator creates an aggregator over one loader per source kind
func NewAggregator(loaders []configports.Loader, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		loaders: loaders,
		timeout: DefaultFetchTimeout,
		metrics: ports.NoopMetrics{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// LoadAll returns exactly one outcome per source kind, in precedence order.
// Kinds without a loader are reported absent. Not-found is absence; any other
// failure, including a timeout, is a SourceUnavailableError on that outcome.
func (a *Aggregator) LoadAll(ctx context.Context, target configports.Target) []Outcome {
	outcomes := make([]Outcome, len(configdomain.Precedence))
	for i, kind := range configdomain.Precedence {
		outcomes[i] = Outcome{Source: configdomain.AbsentSource(kind, a.now())}
	}

	var g errgroup.Group
	for _, loader := range a.loaders {
		idx := loader.Kind().Rank()
		if idx < 0 {
			continue
		}
		g.Go(func() error {
			outcomes[idx] = a.fetch(ctx, loader, target)
			return nil
		})
	}
	// fetch never returns an error; every outcome is recorded in place
	_ = g.Wait()
	return outcomes
}

func (a *Aggregator) fetch(ctx context.Context, loader configports.Loader, target configports.Target) Outcome {
	kind := loader.Kind()
	fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	type loaded struct {
		src configdomain.Source
		err error
	}
	start := time.Now()
	ch := make(chan loaded, 1)
	go func() {
		src, err := loader.Load(fetchCtx, target)
		ch <- loaded{src: src, err: err}
	}()

	var src configdomain.Source
	var err error
	select {
	case r := <-ch:
		src, err = r.src, r.err
	case <-fetchCtx.Done():
		// a late result is dropped
		err = fetchCtx.Err()
	}
	elapsed := time.Since(start)

	switch {
	case err == nil:
		outcome := OutcomeAbsent
		if src.Present() {
			outcome = OutcomePresent
		}
		a.metrics.ObserveFetch(kind, outcome, elapsed)
		return Outcome{Source: src, Duration: elapsed}
	case errors.Is(err, configdomain.ErrNotFound):
		a.metrics.ObserveFetch(kind, OutcomeAbsent, elapsed)
		return Outcome{Source: configdomain.AbsentSource(kind, a.now()), Duration: elapsed}
	default:
		a.metrics.ObserveFetch(kind, OutcomeUnavailable, elapsed)
		var unavailable *configdomain.SourceUnavailableError
		if !errors.As(err, &unavailable) {
			if errors.Is(err, context.DeadlineExceeded) {
				err = fmt.Errorf("fetch timed out after %s: %w", a.timeout, err)
			}
			err = &configdomain.SourceUnavailableError{Kind: kind, Err: err}
		}
		return Outcome{Source: configdomain.AbsentSource(kind, a.now()), Err: err, Duration: elapsed}
	}
}
