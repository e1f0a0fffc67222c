// Package metrics records pipeline counters and step timings through a
// pluggable backend. The default backend discards everything, so callers
// never need to check whether metrics are configured.
//
// Concrete backends live in subpackages (metrics/datadog) and are installed
// once from main with SetBackend.
package metrics

import (
	"sync"
	"time"
)

// Metric names understood by the backends.
const (
	StepTotal    = "etl_step_total"
	StepDuration = "etl_step_duration_seconds"
	RecordsTotal = "etl_records_total"
	BatchesTotal = "etl_batches_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend receives metric observations.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b. Passing nil keeps the current backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordStep counts one run of step and records how long it took.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": job, "step": step, "status": status}

	b := current()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRows adds delta to the record counter for kind, e.g. "ingested",
// "uploaded" or "failed".
func RecordRows(job, kind string, delta int) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RecordsTotal, float64(delta), Labels{"job": job, "kind": kind})
}

// RecordBatch counts one upload batch with its outcome ("success" or "failure").
func RecordBatch(job, status string) {
	current().IncCounter(BatchesTotal, 1, Labels{"job": job, "status": status})
}
