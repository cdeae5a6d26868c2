// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from the warehouse ETL run.
//
// It exposes a narrow Backend interface focused on counters and duration
// observations, with a global, pluggable backend that defaults to a no-op
// implementation: metric calls are always safe even when no real backend is
// configured. Concrete systems (the Pushgateway backend lives in the
// prompush subpackage) stay isolated behind this interface.
package metrics

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveDuration records a duration-style value in seconds.
	ObserveDuration(name string, seconds float64, labels Labels)
	// Flush pushes buffered metrics, if the backend needs it.
	Flush() error
}

// nopBackend is used by default so metrics stay optional.
type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)      {}
func (nopBackend) ObserveDuration(string, float64, Labels) {}
func (nopBackend) Flush() error                            { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// IncCounter increments a counter on the installed backend.
func IncCounter(name string, delta float64, labels Labels) {
	backend.IncCounter(name, delta, labels)
}

// ObserveDuration records a duration observation on the installed backend.
func ObserveDuration(name string, seconds float64, labels Labels) {
	backend.ObserveDuration(name, seconds, labels)
}

// Flush flushes the installed backend.
func Flush() error { return backend.Flush() }
