// Package diagnostics contains the sink used to trace decoding of raw contract
// values. Tracing is opt in; the default sink drops everything.
package diagnostics // import "github.com/joincivil/content-moderation-adapter/pkg/diagnostics"

import (
	"fmt"
	"sync"

	log "github.com/golang/glog"
)

// Sink receives decode traces and anomalies
type Sink interface {
	// Tracef records an intermediate decode step
	Tracef(format string, args ...interface{})
	// Anomalyf records a value that could not be decoded as expected
	Anomalyf(format string, args ...interface{})
}

// NopSink is a Sink that discards everything
type NopSink struct{}

// Tracef does nothing
func (NopSink) Tracef(format string, args ...interface{}) {}

// Anomalyf does nothing
func (NopSink) Anomalyf(format string, args ...interface{}) {}

// OrNop returns the sink, or a NopSink if it is nil
func OrNop(s Sink) Sink {
	if s == nil {
		return NopSink{}
	}
	return s
}

// GlogSink forwards traces to glog at the given verbosity and anomalies as
// warnings
type GlogSink struct {
	Verbosity log.Level
}

// Tracef logs the trace if glog verbosity allows it
func (g GlogSink) Tracef(format string, args ...interface{}) {
	if log.V(g.Verbosity) {
		log.Infof(format, args...)
	}
}

// Anomalyf logs the anomaly as a warning
func (g GlogSink) Anomalyf(format string, args ...interface{}) {
	log.Warningf(format, args...)
}

// RecordingSink keeps every message in memory. Useful in tests.
type RecordingSink struct {
	mu        sync.Mutex
	traces    []string
	anomalies []string
}

// Tracef records the trace
func (r *RecordingSink) Tracef(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.traces = append(r.traces, fmt.Sprintf(format, args...))
}

// Anomalyf records the anomaly
func (r *RecordingSink) Anomalyf(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.anomalies = append(r.anomalies, fmt.Sprintf(format, args...))
}

// Traces returns a copy of the recorded traces
func (r *RecordingSink) Traces() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.traces...)
}

// Anomalies returns a copy of the recorded anomalies
func (r *RecordingSink) Anomalies() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.anomalies...)
}
