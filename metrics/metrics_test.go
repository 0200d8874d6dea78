package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := New(registry)
	require.NoError(t, err)

	m.TaskSubmitted()
	m.TaskSubmitted()
	m.TaskQueued()
	m.TaskDispatched()
	m.TaskCompleted(10*time.Millisecond, false)
	m.TaskCompleted(time.Millisecond, true)
	m.TaskCancelled()
	m.TasksDropped(3)
	m.TasksDropped(0)
	m.TaskLost()
	m.Observe(Occupancy{Busy: 2, Live: 3, Queued: 4, IdleBuffers: 5})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Submitted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Queued))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Dispatched))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Completed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Failed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Cancelled))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Dropped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Lost))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BusyUnits))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.LiveUnits))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.QueueDepth))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.IdleBuffers))
	assert.Equal(t, 1, testutil.CollectAndCount(m.TaskDuration))

	count, err := testutil.GatherAndCount(registry, "scorepool_tasks_submitted_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_SharedRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	first, err := New(registry)
	require.NoError(t, err)
	second, err := New(registry)
	require.NoError(t, err)

	first.TaskSubmitted()
	second.TaskSubmitted()
	assert.Equal(t, 2.0, testutil.ToFloat64(second.Submitted))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.TaskSubmitted()
		m.TaskCompleted(time.Second, true)
		m.TasksDropped(2)
		m.Observe(Occupancy{})
	})
}

func TestMetrics_Unregistered(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)
	m.TaskLost()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Lost))
}
