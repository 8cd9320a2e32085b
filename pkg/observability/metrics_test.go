package observability

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/lathe/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	hooks := m.Hooks()

	hooks.OnNodeStart(domain.NodeEvent{NodeID: "morphology"})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inflight.WithLabelValues("morphology")))

	hooks.OnNodeFinish(domain.NodeEvent{NodeID: "morphology", Duration: 20 * time.Millisecond})
	hooks.OnNodeStart(domain.NodeEvent{NodeID: "morphology"})
	hooks.OnNodeFinish(domain.NodeEvent{NodeID: "morphology", Err: errors.New("boom")})

	assert.Equal(t, 0.0, testutil.ToFloat64(m.inflight.WithLabelValues("morphology")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("morphology", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("morphology", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))

	expected := `
# HELP lathe_node_calls_total Total number of node calls, by node and status
# TYPE lathe_node_calls_total counter
lathe_node_calls_total{node_id="morphology",status="error"} 1
lathe_node_calls_total{node_id="morphology",status="ok"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "lathe_node_calls_total"))
}

func TestNewMetrics_Unregistered(t *testing.T) {
	m := NewMetrics(nil)
	m.Hooks().OnNodeFinish(domain.NodeEvent{NodeID: "x"})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("x", "ok")))
}
