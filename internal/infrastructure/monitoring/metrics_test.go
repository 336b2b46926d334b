package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	configdomain "prinsight.ai/cli/internal/core/domain/config"
)

func TestMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := MustNewMetrics(reg)

	m.ObserveFetch(configdomain.SourceLocal, "present", 20*time.Millisecond)
	m.ObserveFetch(configdomain.SourceWiki, "absent", time.Millisecond)
	m.ObserveResolution("ok", 50*time.Millisecond)
	m.ObserveWarnings([]configdomain.Warning{
		{Code: configdomain.WarnValidation},
		{Code: configdomain.WarnValidation},
		{Code: configdomain.WarnUnknownKey},
	})
	m.ObserveCache(true)
	m.ObserveCache(false)
	m.ObserveCache(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.warnings.WithLabelValues("validation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.warnings.WithLabelValues("unknown_key")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.fetchDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(m.resolutionDuration))
}

func TestMustNewMetrics_ReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := MustNewMetrics(reg)
	second := MustNewMetrics(reg)

	first.ObserveCache(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(second.cacheLookups.WithLabelValues("hit")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveFetch(configdomain.SourceDefault, "present", time.Second)
		m.ObserveResolution("ok", time.Second)
		m.ObserveWarnings([]configdomain.Warning{{Code: configdomain.WarnValidation}})
		m.ObserveCache(true)
	})
}
