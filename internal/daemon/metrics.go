package daemon

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"class360/internal/queue"
	"class360/internal/scheduler"
)

// metricsSet owns the daemon's prometheus registry so tests never collide on
// the global default registry.
type metricsSet struct {
	registry *prometheus.Registry

	jobsEnqueued  *prometheus.CounterVec
	jobsCompleted prometheus.Counter
	jobsFailed    prometheus.Counter
	jobDuration   prometheus.Histogram
	recordings    prometheus.Gauge
}

func newMetricsSet() *metricsSet {
	registry := prometheus.NewRegistry()
	m := &metricsSet{
		registry: registry,
		jobsEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "class360_jobs_enqueued_total",
			Help: "Jobs accepted into the priority queue.",
		}, []string{"type", "priority"}),
		jobsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "class360_jobs_completed_total",
			Help: "Jobs that finished successfully.",
		}),
		jobsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "class360_jobs_failed_total",
			Help: "Jobs that terminated with an error.",
		}),
		jobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "class360_job_duration_seconds",
			Help:    "Wall-clock job execution time.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
		recordings: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "class360_active_recordings",
			Help: "Live capture sessions currently registered.",
		}),
	}
	registry.MustRegister(
		m.jobsEnqueued,
		m.jobsCompleted,
		m.jobsFailed,
		m.jobDuration,
		m.recordings,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *metricsSet) jobEnqueued(jobType, priority string) {
	m.jobsEnqueued.WithLabelValues(jobType, priority).Inc()
}

func (m *metricsSet) setActiveRecordings(n int) {
	m.recordings.Set(float64(n))
}

// instrument wraps a job runner so every execution feeds the job counters
// and the duration histogram.
func (m *metricsSet) instrument(next scheduler.JobRunner) scheduler.JobRunner {
	return &instrumentedRunner{metrics: m, next: next}
}

type instrumentedRunner struct {
	metrics *metricsSet
	next    scheduler.JobRunner
}

func (r *instrumentedRunner) Execute(ctx context.Context, job *queue.Job) error {
	timer := prometheus.NewTimer(r.metrics.jobDuration)
	err := r.next.Execute(ctx, job)
	timer.ObserveDuration()

	if err != nil {
		r.metrics.jobsFailed.Inc()
		return err
	}
	r.metrics.jobsCompleted.Inc()
	return nil
}
