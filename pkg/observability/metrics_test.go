package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_RegistersAndCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.IdentitiesExtractedTotal.WithLabelValues("name-pattern").Inc()
	m.IdentitiesExtractedTotal.WithLabelValues("email-pattern").Add(2)
	m.LookupsTotal.WithLabelValues("search", "ok").Inc()
	m.MatchesTotal.WithLabelValues("high").Inc()
	m.BatchContactsTotal.WithLabelValues("external").Inc()
	m.PresenceCacheHitsTotal.Inc()
	m.PresenceCacheMissesTotal.Inc()
	m.PresenceChunksTotal.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.IdentitiesExtractedTotal.WithLabelValues("name-pattern")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.IdentitiesExtractedTotal.WithLabelValues("email-pattern")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LookupsTotal.WithLabelValues("search", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MatchesTotal.WithLabelValues("high")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PresenceCacheHitsTotal))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewMetrics_SeparateRegistries(t *testing.T) {
	// Two instances on separate registries must not collide.
	a := NewMetrics(prometheus.NewRegistry())
	b := NewMetrics(prometheus.NewRegistry())

	a.PresenceCacheHitsTotal.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.PresenceCacheHitsTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.PresenceCacheHitsTotal))
}
