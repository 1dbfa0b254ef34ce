package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ScopeOpened()
		m.ScopeClosed()
		m.ResetFailed()
		m.ConnDiscarded()
		m.PolicyDecision("role", "allow")
		m.PolicyCacheHit()
		m.PolicyCacheMiss()
		m.BootstrapRun("ok")
		m.HTTPRequest("GET", "/x", 200, time.Millisecond)
		m.PoolConnections(1, 2, 3)
	})
}

// gathered returns the first sample value of each gathered family.
func gathered(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	out := make(map[string]float64, len(families))
	for _, mf := range families {
		if len(mf.GetMetric()) == 0 {
			continue
		}
		sample := mf.GetMetric()[0]
		switch {
		case sample.GetCounter() != nil:
			out[mf.GetName()] = sample.GetCounter().GetValue()
		case sample.GetGauge() != nil:
			out[mf.GetName()] = sample.GetGauge().GetValue()
		}
	}
	return out
}

func TestMetrics_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.ScopeOpened()
	m.ScopeOpened()
	m.ScopeClosed()
	m.PolicyDecision("override", "deny")

	values := gathered(t, reg)
	assert.Equal(t, 2.0, values["branchpos_tenancy_scopes_opened_total"])
	assert.Equal(t, 1.0, values["branchpos_tenancy_scopes_active"])
	assert.Equal(t, 1.0, values["branchpos_policy_decisions_total"])

	_, err = New(reg)
	assert.Error(t, err, "collectors register once per registry")
}
