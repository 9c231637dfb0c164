package clmem

import (
	"sync/atomic"
	"time"
)

// LatencyBuckets defines the latency histogram buckets in nanoseconds.
// Buckets cover from 1us to 10s with logarithmic spacing.
var LatencyBuckets = []uint64{
	1_000,          // 1us
	10_000,         // 10us
	100_000,        // 100us
	1_000_000,      // 1ms
	10_000_000,     // 10ms
	100_000_000,    // 100ms
	1_000_000_000,  // 1s
	10_000_000_000, // 10s
}

const numLatencyBuckets = 8

// Metrics tracks buffer transfer and resize activity across every Buffer
// sharing the same Observer.
type Metrics struct {
	ReadOps   atomic.Uint64
	WriteOps  atomic.Uint64
	ResizeOps atomic.Uint64
	BindOps   atomic.Uint64

	ReadBytes  atomic.Uint64
	WriteBytes atomic.Uint64

	ReadErrors   atomic.Uint64
	WriteErrors  atomic.Uint64
	ResizeErrors atomic.Uint64
	BindErrors   atomic.Uint64

	TotalLatencyNs atomic.Uint64
	OpCount        atomic.Uint64

	// LatencyHistogram holds cumulative counts: LatencyHistogram[i] counts
	// operations with latency <= LatencyBuckets[i].
	LatencyHistogram [numLatencyBuckets]atomic.Uint64

	StartTime atomic.Int64
	StopTime  atomic.Int64
}

// NewMetrics returns a Metrics instance with its start time set to now.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordRead records one Read/ReadAll/ReadFrom transfer.
func (m *Metrics) RecordRead(bytes uint64, latencyNs uint64, success bool) {
	m.ReadOps.Add(1)
	if success {
		m.ReadBytes.Add(bytes)
	} else {
		m.ReadErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordWrite records one Write/Append transfer.
func (m *Metrics) RecordWrite(bytes uint64, latencyNs uint64, success bool) {
	m.WriteOps.Add(1)
	if success {
		m.WriteBytes.Add(bytes)
	} else {
		m.WriteErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordResize records one Resize/Compact call.
func (m *Metrics) RecordResize(latencyNs uint64, success bool) {
	m.ResizeOps.Add(1)
	if !success {
		m.ResizeErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordBind records one Bind call.
func (m *Metrics) RecordBind(latencyNs uint64, success bool) {
	m.BindOps.Add(1)
	if !success {
		m.BindErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

func (m *Metrics) recordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.OpCount.Add(1)
	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyHistogram[i].Add(1)
		}
	}
}

// Stop records the stop timestamp used by Snapshot's uptime calculation.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time read of Metrics' counters plus derived
// rates and latency percentiles.
type MetricsSnapshot struct {
	ReadOps   uint64
	WriteOps  uint64
	ResizeOps uint64
	BindOps   uint64

	ReadBytes  uint64
	WriteBytes uint64

	ReadErrors   uint64
	WriteErrors  uint64
	ResizeErrors uint64
	BindErrors   uint64

	AvgLatencyNs uint64
	UptimeNs     uint64

	LatencyP50Ns  uint64
	LatencyP99Ns  uint64
	LatencyP999Ns uint64

	LatencyHistogram [numLatencyBuckets]uint64

	ReadThroughput  float64
	WriteThroughput float64
	TotalOps        uint64
	TotalBytes      uint64
	ErrorRate       float64
}

// Snapshot takes a point-in-time copy of the counters and computes derived
// statistics (throughput, error rate, latency percentiles).
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		ReadOps:      m.ReadOps.Load(),
		WriteOps:     m.WriteOps.Load(),
		ResizeOps:    m.ResizeOps.Load(),
		BindOps:      m.BindOps.Load(),
		ReadBytes:    m.ReadBytes.Load(),
		WriteBytes:   m.WriteBytes.Load(),
		ReadErrors:   m.ReadErrors.Load(),
		WriteErrors:  m.WriteErrors.Load(),
		ResizeErrors: m.ResizeErrors.Load(),
		BindErrors:   m.BindErrors.Load(),
	}

	snap.TotalOps = snap.ReadOps + snap.WriteOps + snap.ResizeOps + snap.BindOps
	snap.TotalBytes = snap.ReadBytes + snap.WriteBytes

	totalLatencyNs := m.TotalLatencyNs.Load()
	opCount := m.OpCount.Load()
	if opCount > 0 {
		snap.AvgLatencyNs = totalLatencyNs / opCount
	}

	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}

	if snap.UptimeNs > 0 {
		uptimeSeconds := float64(snap.UptimeNs) / 1e9
		snap.ReadThroughput = float64(snap.ReadBytes) / uptimeSeconds
		snap.WriteThroughput = float64(snap.WriteBytes) / uptimeSeconds
	}

	totalErrors := snap.ReadErrors + snap.WriteErrors + snap.ResizeErrors + snap.BindErrors
	if snap.TotalOps > 0 {
		snap.ErrorRate = float64(totalErrors) / float64(snap.TotalOps) * 100.0
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyHistogram[i].Load()
	}

	if opCount > 0 {
		snap.LatencyP50Ns = m.calculatePercentile(0.50)
		snap.LatencyP99Ns = m.calculatePercentile(0.99)
		snap.LatencyP999Ns = m.calculatePercentile(0.999)
	}

	return snap
}

// calculatePercentile estimates the latency at the given percentile
// (0.0-1.0) via linear interpolation between histogram buckets.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	totalOps := m.OpCount.Load()
	if totalOps == 0 {
		return 0
	}

	targetCount := uint64(float64(totalOps) * percentile)

	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		bucketCount := m.LatencyHistogram[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.LatencyHistogram[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}

	return LatencyBuckets[numLatencyBuckets-1]
}

// Reset zeroes every counter and restarts the uptime clock.
func (m *Metrics) Reset() {
	m.ReadOps.Store(0)
	m.WriteOps.Store(0)
	m.ResizeOps.Store(0)
	m.BindOps.Store(0)
	m.ReadBytes.Store(0)
	m.WriteBytes.Store(0)
	m.ReadErrors.Store(0)
	m.WriteErrors.Store(0)
	m.ResizeErrors.Store(0)
	m.BindErrors.Store(0)
	m.TotalLatencyNs.Store(0)
	m.OpCount.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyHistogram[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}
