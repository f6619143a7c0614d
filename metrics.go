package jonoondb

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; package
// metric provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordInsert is called after each Insert or MultiInsert.
	// count is the number of documents in the call.
	RecordInsert(collection string, count int, duration time.Duration, err error)

	// RecordFind is called after each query with the number of matches.
	RecordFind(collection string, matches uint64, duration time.Duration, err error)

	// RecordGet is called after each document read.
	RecordGet(collection string, duration time.Duration, err error)

	// RecordDelete is called after each delete.
	RecordDelete(collection string, duration time.Duration, err error)

	// RecordRotation is called when a collection switches to a new data file.
	RecordRotation(collection string)

	// RecordUnmap is called after the maintenance pass unmapped n data files.
	RecordUnmap(collection string, n int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(string, int, time.Duration, error)    {}
func (NoopMetricsCollector) RecordFind(string, uint64, time.Duration, error)   {}
func (NoopMetricsCollector) RecordGet(string, time.Duration, error)            {}
func (NoopMetricsCollector) RecordDelete(string, time.Duration, error)         {}
func (NoopMetricsCollector) RecordRotation(string)                             {}
func (NoopMetricsCollector) RecordUnmap(string, int)                           {}

// BasicMetricsCollector provides simple in-memory metrics collection across
// all collections.
type BasicMetricsCollector struct {
	InsertCalls      atomic.Int64
	InsertDocuments  atomic.Int64
	InsertErrors     atomic.Int64
	InsertTotalNanos atomic.Int64
	FindCount        atomic.Int64
	FindErrors       atomic.Int64
	FindMatches      atomic.Int64
	FindTotalNanos   atomic.Int64
	GetCount         atomic.Int64
	GetErrors        atomic.Int64
	DeleteCount      atomic.Int64
	DeleteErrors     atomic.Int64
	Rotations        atomic.Int64
	Unmapped         atomic.Int64
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(_ string, count int, duration time.Duration, err error) {
	b.InsertCalls.Add(1)
	b.InsertTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.InsertErrors.Add(1)
		return
	}
	b.InsertDocuments.Add(int64(count))
}

// RecordFind implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFind(_ string, matches uint64, duration time.Duration, err error) {
	b.FindCount.Add(1)
	b.FindTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.FindErrors.Add(1)
		return
	}
	b.FindMatches.Add(int64(matches))
}

// RecordGet implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGet(_ string, _ time.Duration, err error) {
	b.GetCount.Add(1)
	if err != nil {
		b.GetErrors.Add(1)
	}
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(_ string, _ time.Duration, err error) {
	b.DeleteCount.Add(1)
	if err != nil {
		b.DeleteErrors.Add(1)
	}
}

// RecordRotation implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRotation(string) {
	b.Rotations.Add(1)
}

// RecordUnmap implements MetricsCollector.
func (b *BasicMetricsCollector) RecordUnmap(_ string, n int) {
	b.Unmapped.Add(int64(n))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		InsertCalls:     b.InsertCalls.Load(),
		InsertDocuments: b.InsertDocuments.Load(),
		InsertErrors:    b.InsertErrors.Load(),
		InsertAvgNanos:  avg(b.InsertTotalNanos.Load(), b.InsertCalls.Load()),
		FindCount:       b.FindCount.Load(),
		FindErrors:      b.FindErrors.Load(),
		FindMatches:     b.FindMatches.Load(),
		FindAvgNanos:    avg(b.FindTotalNanos.Load(), b.FindCount.Load()),
		GetCount:        b.GetCount.Load(),
		GetErrors:       b.GetErrors.Load(),
		DeleteCount:     b.DeleteCount.Load(),
		DeleteErrors:    b.DeleteErrors.Load(),
		Rotations:       b.Rotations.Load(),
		Unmapped:        b.Unmapped.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	InsertCalls     int64
	InsertDocuments int64
	InsertErrors    int64
	InsertAvgNanos  int64
	FindCount       int64
	FindErrors      int64
	FindMatches     int64
	FindAvgNanos    int64
	GetCount        int64
	GetErrors       int64
	DeleteCount     int64
	DeleteErrors    int64
	Rotations       int64
	Unmapped        int64
}
