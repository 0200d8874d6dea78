// Package metrics exposes dispatcher activity as Prometheus collectors.
//
// All recording methods are nil safe so services can run without metrics.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "scorepool"

// Metrics groups dispatcher collectors.
type Metrics struct {
	Submitted    prometheus.Counter
	Dispatched   prometheus.Counter
	Queued       prometheus.Counter
	Completed    prometheus.Counter
	Failed       prometheus.Counter
	Cancelled    prometheus.Counter
	Dropped      prometheus.Counter
	Lost         prometheus.Counter
	BusyUnits    prometheus.Gauge
	LiveUnits    prometheus.Gauge
	QueueDepth   prometheus.Gauge
	IdleBuffers  prometheus.Gauge
	TaskDuration prometheus.Histogram
}

// New creates collectors and registers them with registerer when it is not
// nil. Collectors already registered under the same name are reused, so
// several dispatchers may share one registry.
func New(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Submitted:   counter("tasks_submitted_total", "Tasks accepted by Submit."),
		Dispatched:  counter("tasks_dispatched_total", "Tasks handed to an execution unit."),
		Queued:      counter("tasks_queued_total", "Tasks that overflowed into the task queue."),
		Completed:   counter("tasks_completed_total", "Tasks whose execution unit reported a result."),
		Failed:      counter("tasks_failed_total", "Completed tasks whose kernel returned an error."),
		Cancelled:   counter("tasks_cancelled_total", "Submissions dropped because their token was cancelled."),
		Dropped:     counter("tasks_dropped_total", "Queued tasks discarded by Cancel or Shutdown."),
		Lost:        counter("tasks_lost_total", "Tasks whose execution unit was lost before reporting."),
		BusyUnits:   gauge("units_busy", "Execution units running a task."),
		LiveUnits:   gauge("units_live", "Execution units created and not retired."),
		QueueDepth:  gauge("queue_depth", "Tasks waiting for an execution unit."),
		IdleBuffers: gauge("buffers_idle", "Scratch buffers waiting for reuse."),
		TaskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Kernel run time per task.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}
	if registerer == nil {
		return m, nil
	}
	var err error
	for _, c := range []*prometheus.Counter{&m.Submitted, &m.Dispatched, &m.Queued, &m.Completed,
		&m.Failed, &m.Cancelled, &m.Dropped, &m.Lost} {
		if *c, err = register(registerer, *c); err != nil {
			return nil, err
		}
	}
	for _, g := range []*prometheus.Gauge{&m.BusyUnits, &m.LiveUnits, &m.QueueDepth, &m.IdleBuffers} {
		if *g, err = register(registerer, *g); err != nil {
			return nil, err
		}
	}
	if m.TaskDuration, err = register(registerer, m.TaskDuration); err != nil {
		return nil, err
	}
	return m, nil
}

func counter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
}

func gauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
}

func register[T prometheus.Collector](registerer prometheus.Registerer, c T) (T, error) {
	err := registerer.Register(c)
	if err == nil {
		return c, nil
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(T); ok {
			return existing, nil
		}
	}
	return c, err
}

// Occupancy is a gauge sample taken by the dispatcher.
type Occupancy struct {
	Busy        int
	Live        int
	Queued      int
	IdleBuffers int
}

// Observe sets every gauge from sample.
func (m *Metrics) Observe(sample Occupancy) {
	if m == nil {
		return
	}
	m.BusyUnits.Set(float64(sample.Busy))
	m.LiveUnits.Set(float64(sample.Live))
	m.QueueDepth.Set(float64(sample.Queued))
	m.IdleBuffers.Set(float64(sample.IdleBuffers))
}

// TaskSubmitted records an accepted submission.
func (m *Metrics) TaskSubmitted() {
	if m != nil {
		m.Submitted.Inc()
	}
}

// TaskDispatched records a task handed to a unit.
func (m *Metrics) TaskDispatched() {
	if m != nil {
		m.Dispatched.Inc()
	}
}

// TaskQueued records an overflow into the task queue.
func (m *Metrics) TaskQueued() {
	if m != nil {
		m.Queued.Inc()
	}
}

// TaskCompleted records a reported result and its kernel run time.
func (m *Metrics) TaskCompleted(d time.Duration, failed bool) {
	if m == nil {
		return
	}
	m.Completed.Inc()
	if failed {
		m.Failed.Inc()
	}
	m.TaskDuration.Observe(d.Seconds())
}

// TaskCancelled records a submission dropped by a disabled token.
func (m *Metrics) TaskCancelled() {
	if m != nil {
		m.Cancelled.Inc()
	}
}

// TasksDropped records queued tasks discarded in bulk.
func (m *Metrics) TasksDropped(n int) {
	if m != nil && n > 0 {
		m.Dropped.Add(float64(n))
	}
}

// TaskLost records a task abandoned by a timed out unit.
func (m *Metrics) TaskLost() {
	if m != nil {
		m.Lost.Inc()
	}
}
