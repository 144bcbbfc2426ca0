// Package tracing records what serialization traversals do.
package tracing

import (
	"sync"
	"time"
)

// TraversalRecord describes one completed or aborted traversal.
type TraversalRecord struct {
	ID          string
	Name        string
	Mode        string
	Bytes       int
	Objects     int
	Polymorphic int
	Nodes       int
	Duration    time.Duration
	Error       string

	// RSS is the resident memory of the process, in bytes, when the record
	// was stored. Recorders that do not sample memory leave it at 0.
	RSS uint64
}

// Failed tells whether the traversal was aborted.
func (r TraversalRecord) Failed() bool {
	return r.Error != ""
}

// A Recorder receives traversal records.
type Recorder interface {
	Record(record TraversalRecord)
	Flush()
}

// RecordFilter decides whether a record should be kept.
type RecordFilter func(record TraversalRecord) bool

// ModeFilter keeps the records of the given modes.
func ModeFilter(modes ...string) RecordFilter {
	return func(record TraversalRecord) bool {
		for _, m := range modes {
			if record.Mode == m {
				return true
			}
		}

		return false
	}
}

// FilteredRecorder forwards the records accepted by a filter.
type FilteredRecorder struct {
	inner  Recorder
	filter RecordFilter
}

// NewFilteredRecorder creates a FilteredRecorder.
func NewFilteredRecorder(inner Recorder, filter RecordFilter) *FilteredRecorder {
	return &FilteredRecorder{inner: inner, filter: filter}
}

// Record forwards record if the filter accepts it.
func (r *FilteredRecorder) Record(record TraversalRecord) {
	if r.filter(record) {
		r.inner.Record(record)
	}
}

// Flush flushes the wrapped recorder.
func (r *FilteredRecorder) Flush() {
	r.inner.Flush()
}

// MultiRecorder forwards records to several recorders.
type MultiRecorder []Recorder

// Record forwards record to every recorder.
func (m MultiRecorder) Record(record TraversalRecord) {
	for _, r := range m {
		r.Record(record)
	}
}

// Flush flushes every recorder.
func (m MultiRecorder) Flush() {
	for _, r := range m {
		r.Flush()
	}
}

// ModeSummary accumulates the records of one mode.
type ModeSummary struct {
	Count         int
	Failures      int
	TotalBytes    int
	TotalDuration time.Duration
}

// AverageDuration returns the mean duration of the recorded traversals.
func (s ModeSummary) AverageDuration() time.Duration {
	if s.Count == 0 {
		return 0
	}

	return s.TotalDuration / time.Duration(s.Count)
}

// SummaryRecorder keeps per-mode totals in memory.
type SummaryRecorder struct {
	lock    sync.Mutex
	summary map[string]ModeSummary
}

// NewSummaryRecorder creates a SummaryRecorder.
func NewSummaryRecorder() *SummaryRecorder {
	return &SummaryRecorder{
		summary: make(map[string]ModeSummary),
	}
}

// Record adds record to the totals of its mode.
func (r *SummaryRecorder) Record(record TraversalRecord) {
	r.lock.Lock()
	defer r.lock.Unlock()

	s := r.summary[record.Mode]
	s.Count++
	s.TotalBytes += record.Bytes
	s.TotalDuration += record.Duration

	if record.Failed() {
		s.Failures++
	}

	r.summary[record.Mode] = s
}

// Flush does nothing.
func (r *SummaryRecorder) Flush() {
	// Do nothing
}

// Summary returns the totals of the given mode.
func (r *SummaryRecorder) Summary(mode string) ModeSummary {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.summary[mode]
}

// Modes lists the modes that have records.
func (r *SummaryRecorder) Modes() []string {
	r.lock.Lock()
	defer r.lock.Unlock()

	modes := make([]string, 0, len(r.summary))
	for m := range r.summary {
		modes = append(modes, m)
	}

	return modes
}
