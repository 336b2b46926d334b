package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	appconfig "prinsight.ai/cli/internal/application/config"
	"prinsight.ai/cli/internal/application/ports"
	"prinsight.ai/cli/internal/core/contextblock"
	"prinsight.ai/cli/internal/core/discovery"
	configdomain "prinsight.ai/cli/internal/core/domain/config"
	"prinsight.ai/cli/internal/core/metadata"
	configports "prinsight.ai/cli/internal/core/ports/config"
)

// Policy decides what happens when a source cannot be fetched or parsed.
type Policy string

const (
	// FailClosed aborts the resolution
	FailClosed Policy = "fail-closed"
	// FailOpen treats the source as absent and attaches a warning
	FailOpen Policy = "fail-open"
)

// ParsePolicy parses a policy name
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case FailClosed, "":
		return FailClosed, nil
	case FailOpen, "best-effort":
		return FailOpen, nil
	}
	return "", fmt.Errorf("unknown policy %q (want %s or %s)", s, FailClosed, FailOpen)
}

// Resolution outcomes reported to metrics
const (
	ResolutionOK       = "ok"
	ResolutionDegraded = "degraded"
	ResolutionFailed   = "failed"
)

// ParseFunc turns a fetched source into a merge layer
type ParseFunc func(configdomain.Source) (configdomain.Layer, error)

// ResolveRequest identifies what to resolve and how strictly. Overrides are
// merged above every fetched source and validated like them.
type ResolveRequest struct {
	Target    configports.Target
	Policy    Policy
	Overrides configdomain.Mapping
}

// Resolution is everything derived from one request. It is built fresh for
// every request and handed to the caller.
type Resolution struct {
	Target   configports.Target
	Sources  []configdomain.Source
	Config   *configdomain.EffectiveConfig
	Metadata metadata.RepositoryMetadata
	Hints    discovery.Hints
	Block    contextblock.Block
	Warnings []configdomain.Warning
	CacheHit bool
	Duration time.Duration
}

// ResolutionError reports a source-level failure under the fail-closed policy.
type ResolutionError struct {
	Source configdomain.SourceKind
	Err    error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving configuration failed at %s source: %v", e.Source, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// ResolutionService resolves effective configuration and renders the
// repository context block.
type ResolutionService struct {
	aggregator      *appconfig.Aggregator
	parse           ParseFunc
	validator       *metadata.Validator
	provider        ports.GitProvider
	cache           ports.ResolutionCache
	metrics         ports.MetricsRecorder
	logger          ports.LoggingGateway
	maxExcerptBytes int
}

// ResolutionServiceConfig carries the collaborators of a ResolutionService.
// Provider, Cache, Metrics and Logger are optional.
type ResolutionServiceConfig struct {
	Aggregator      *appconfig.Aggregator
	Parse           ParseFunc
	Defaults        configdomain.Mapping
	Provider        ports.GitProvider
	Cache           ports.ResolutionCache
	Metrics         ports.MetricsRecorder
	Logger          ports.LoggingGateway
	MaxExcerptBytes int
}

// NewResolutionService creates a new resolution service
func NewResolutionService(cfg ResolutionServiceConfig) *ResolutionService {
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = ports.NoopLogger{}
	}
	return &ResolutionService{
		aggregator:      cfg.Aggregator,
		parse:           cfg.Parse,
		validator:       metadata.NewValidator(cfg.Defaults),
		provider:        cfg.Provider,
		cache:           cfg.Cache,
		metrics:         metrics,
		logger:          logger,
		maxExcerptBytes: cfg.MaxExcerptBytes,
	}
}

// Resolve runs the whole pipeline for one request.
func (s *ResolutionService) Resolve(ctx context.Context, req ResolveRequest) (*Resolution, error) {
	start := time.Now()
	res, err := s.resolve(ctx, req)
	elapsed := time.Since(start)

	switch {
	case err != nil:
		s.metrics.ObserveResolution(ResolutionFailed, elapsed)
		s.logger.LogError(err, "Configuration resolution failed", map[string]interface{}{
			"repository": req.Target.Repository,
			"policy":     string(req.Policy),
		})
		return nil, err
	case hasSourceWarnings(res.Warnings):
		s.metrics.ObserveResolution(ResolutionDegraded, elapsed)
	default:
		s.metrics.ObserveResolution(ResolutionOK, elapsed)
	}
	s.metrics.ObserveWarnings(res.Warnings)
	res.Duration = elapsed

	s.logger.Log(ports.LogLevelInfo, "Configuration resolved", map[string]interface{}{
		"repository": req.Target.Repository,
		"warnings":   len(res.Warnings),
		"cache_hit":  res.CacheHit,
		"duration":   elapsed.String(),
	})
	return res, nil
}

func (s *ResolutionService) resolve(ctx context.Context, req ResolveRequest) (*Resolution, error) {
	policy := req.Policy
	if policy == "" {
		policy = FailClosed
	}

	// every source outcome is known before anything is merged
	outcomes := s.aggregator.LoadAll(ctx, req.Target)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Resolution{Target: req.Target}
	layers := make([]configdomain.Layer, 0, len(outcomes))
	for _, o := range outcomes {
		res.Sources = append(res.Sources, o.Source)
		layer, err := s.layerFor(o)
		if err != nil {
			kind, _ := configdomain.FailedSource(err)
			if policy == FailClosed {
				return nil, &ResolutionError{Source: kind, Err: err}
			}
			s.logger.Log(ports.LogLevelWarn, "Source treated as absent", map[string]interface{}{
				"source": string(kind),
				"error":  err.Error(),
			})
			res.Warnings = append(res.Warnings, configdomain.SourceWarning(err))
			layer = configdomain.Layer{Kind: o.Source.Kind()}
		}
		layers = append(layers, layer)
	}

	cached := s.mergeAndValidate(layers, res.Sources, req.Overrides)
	res.CacheHit = cached.hit
	res.Config = cached.value.Config
	res.Metadata = cached.value.Metadata
	res.Warnings = append(res.Warnings, cached.value.Warnings...)

	md := res.Metadata
	var refs []contextblock.Reference
	if md.Enabled {
		view := s.repositoryView(req.Target.Repository)

		if md.AutoDiscoverContext {
			hints, err := s.discover(ctx, view, md.MaxContextFiles)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				res.Warnings = append(res.Warnings, configdomain.Warning{
					Code:    configdomain.WarnDiscoveryFailed,
					Section: metadata.Section,
					Key:     metadata.KeyAutoDiscover,
					Message: fmt.Sprintf("context discovery skipped: %v", err),
				})
			} else {
				res.Hints = hints
			}
		}

		var warnings []configdomain.Warning
		refs, warnings = s.fetchReferences(ctx, view, md)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		res.Warnings = append(res.Warnings, warnings...)
	}

	res.Block = contextblock.Build(contextblock.Input{
		Metadata:        md,
		Hints:           res.Hints,
		References:      refs,
		MaxExcerptBytes: s.maxExcerptBytes,
	})
	configdomain.SortWarnings(res.Warnings)
	return res, nil
}

func (s *ResolutionService) layerFor(o appconfig.Outcome) (configdomain.Layer, error) {
	if o.Err != nil {
		return configdomain.Layer{}, o.Err
	}
	return s.parse(o.Source)
}

type cacheResult struct {
	value ports.CachedResolution
	hit   bool
}

func (s *ResolutionService) mergeAndValidate(layers []configdomain.Layer, sources []configdomain.Source, overrides configdomain.Mapping) cacheResult {
	key := ""
	if s.cache != nil {
		key = contentKey(layers, sources, overrides)
		if v, ok := s.cache.Get(key); ok {
			s.metrics.ObserveCache(true)
			return cacheResult{value: v, hit: true}
		}
		s.metrics.ObserveCache(false)
	}

	merged := configdomain.Merge(layers...)
	if overrides.Len() > 0 {
		merged = configdomain.MergeInto(merged, configdomain.Layer{Kind: configdomain.SourceOverride, Mapping: overrides})
	}
	validated := s.validator.Validate(merged)
	value := ports.CachedResolution{
		Config:   validated.Config,
		Metadata: validated.Metadata,
		Warnings: validated.Warnings,
	}
	if s.cache != nil {
		s.cache.Add(key, value)
	}
	return cacheResult{value: value}
}

// contentKey digests the content of every source that contributed a layer,
// followed by the overrides. A source dropped under the fail-open policy
// counts as absent.
func contentKey(layers []configdomain.Layer, sources []configdomain.Source, overrides configdomain.Mapping) string {
	h := sha256.New()
	for i, src := range sources {
		content, present := src.Content()
		if layers[i].Mapping == nil {
			present, content = false, ""
		}
		h.Write([]byte(src.Kind()))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatBool(present)))
		h.Write([]byte{0})
		h.Write([]byte(strconv.Itoa(len(content))))
		h.Write([]byte{0})
		h.Write([]byte(content))
	}
	for _, section := range overrides.Sections() {
		for _, key := range overrides.Keys(section) {
			v, _ := overrides.Get(section, key)
			h.Write([]byte(configdomain.SourceOverride))
			h.Write([]byte{0})
			h.Write([]byte(configdomain.JoinKey(section, key)))
			h.Write([]byte{0})
			h.Write([]byte(v.Kind().String()))
			h.Write([]byte{0})
			h.Write([]byte(v.String()))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (s *ResolutionService) discover(ctx context.Context, view *repositoryView, maxFiles int) (discovery.Hints, error) {
	if view == nil {
		return discovery.Hints{}, errors.New("no repository provider configured")
	}
	return discovery.Discover(ctx, view, discovery.Options{MaxFiles: maxFiles})
}

func (s *ResolutionService) fetchReferences(ctx context.Context, view *repositoryView, md metadata.RepositoryMetadata) ([]contextblock.Reference, []configdomain.Warning) {
	candidates := []struct {
		label string
		key   string
		path  string
	}{
		{contextblock.LabelBestPractices, metadata.KeyBestPracticesFile, md.BestPracticesFile},
		{contextblock.LabelGuidelines, metadata.KeyGuidelinesFile, md.GuidelinesFile},
	}

	var refs []contextblock.Reference
	var warnings []configdomain.Warning
	for _, c := range candidates {
		if c.path == "" {
			continue
		}
		var data []byte
		err := errors.New("no repository provider configured")
		if view != nil {
			data, err = view.ReadFile(ctx, c.path)
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil
			}
			warnings = append(warnings, configdomain.Warning{
				Code:    configdomain.WarnReferencedFileUnavailable,
				Section: metadata.Section,
				Key:     c.key,
				Value:   c.path,
				Message: fmt.Sprintf("referenced file omitted: %v", err),
			})
			continue
		}
		refs = append(refs, contextblock.Reference{Label: c.label, Path: c.path, Content: string(data)})
	}
	return refs, warnings
}

func hasSourceWarnings(ws []configdomain.Warning) bool {
	for _, w := range ws {
		if w.Code == configdomain.WarnSourceUnavailable || w.Code == configdomain.WarnMalformedSource {
			return true
		}
	}
	return false
}
