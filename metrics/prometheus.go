// Package metrics instruments the cluster runner with prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	prometheus.MustRegister(jobsWatched)
	prometheus.MustRegister(jobsSubmitted)
	prometheus.MustRegister(jobTransitions)
	prometheus.MustRegister(pollErrors)
	prometheus.MustRegister(monitorCycle)
}

var jobsWatched = prometheus.NewGauge(prometheus.GaugeOpts{
	Namespace: "gxrunner",
	Subsystem: "jobs",
	Name:      "watched",
	Help:      "Number of jobs the monitor loop is watching.",
})

var jobsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "gxrunner",
	Subsystem: "jobs",
	Name:      "submitted_total",
	Help:      "Number of jobs submitted to the scheduler.",
})

var jobTransitions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "gxrunner",
		Subsystem: "jobs",
		Name:      "transitions_total",
		Help:      "Number of job state transitions observed by the monitor loop.",
	},
	[]string{"state"},
)

var pollErrors = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "gxrunner",
	Subsystem: "monitor",
	Name:      "poll_errors_total",
	Help:      "Number of status queries which failed.",
})

var monitorCycle = prometheus.NewHistogram(prometheus.HistogramOpts{
	Namespace: "gxrunner",
	Subsystem: "monitor",
	Name:      "cycle_seconds",
	Help:      "Time taken to scan every watched job once.",
	Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
})

// Transition states.
const (
	Running  = "running"
	Done     = "done"
	Failed   = "failed"
	Vanished = "vanished"
)

// SetWatched records the size of the watch-list.
func SetWatched(n int) {
	jobsWatched.Set(float64(n))
}

// Submitted counts one submission.
func Submitted() {
	jobsSubmitted.Inc()
}

// Transition counts one transition to the given state.
func Transition(state string) {
	jobTransitions.WithLabelValues(state).Inc()
}

// PollError counts one failed status query.
func PollError() {
	pollErrors.Inc()
}

// ObserveCycle records the duration of one monitor scan.
func ObserveCycle(d time.Duration) {
	monitorCycle.Observe(d.Seconds())
}
