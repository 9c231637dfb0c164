package clmem

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsRecordsCountsAndBytes(t *testing.T) {
	m := NewMetrics()

	snap := m.Snapshot()
	assert.Zero(t, snap.TotalOps)

	m.RecordRead(1024, 1_000_000, true)
	m.RecordWrite(2048, 2_000_000, true)
	m.RecordRead(512, 500_000, false)

	snap = m.Snapshot()
	assert.EqualValues(t, 2, snap.ReadOps)
	assert.EqualValues(t, 1, snap.WriteOps)
	assert.EqualValues(t, 1024, snap.ReadBytes)
	assert.EqualValues(t, 2048, snap.WriteBytes)
	assert.EqualValues(t, 1, snap.ReadErrors)
	assert.Zero(t, snap.WriteErrors)

	expectedErrorRate := float64(1) / float64(3) * 100.0
	assert.InDelta(t, expectedErrorRate, snap.ErrorRate, 0.1)
}

func TestMetricsResizeAndBindCounters(t *testing.T) {
	m := NewMetrics()

	m.RecordResize(1_000_000, true)
	m.RecordResize(1_000_000, false)
	m.RecordBind(10_000, true)

	snap := m.Snapshot()
	assert.EqualValues(t, 2, snap.ResizeOps)
	assert.EqualValues(t, 1, snap.ResizeErrors)
	assert.EqualValues(t, 1, snap.BindOps)
	assert.Zero(t, snap.BindErrors)
}

func TestMetricsAverageLatency(t *testing.T) {
	m := NewMetrics()
	m.RecordRead(1024, 1_000_000, true)
	m.RecordWrite(1024, 2_000_000, true)

	snap := m.Snapshot()
	assert.EqualValues(t, 1_500_000, snap.AvgLatencyNs)
}

func TestMetricsUptimeStopsAdvancingAfterStop(t *testing.T) {
	m := NewMetrics()
	time.Sleep(10 * time.Millisecond)

	snap := m.Snapshot()
	assert.GreaterOrEqual(t, snap.UptimeNs, uint64(10*time.Millisecond))

	m.Stop()
	time.Sleep(5 * time.Millisecond)

	snap2 := m.Snapshot()
	assert.LessOrEqual(t, snap2.UptimeNs, snap.UptimeNs+uint64(2*time.Millisecond))
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()
	m.RecordRead(1024, 1_000_000, true)
	m.RecordWrite(2048, 2_000_000, true)
	m.RecordResize(1_000_000, true)

	snap := m.Snapshot()
	assert.NotZero(t, snap.TotalOps)

	m.Reset()

	snap = m.Snapshot()
	assert.Zero(t, snap.TotalOps)
	assert.Zero(t, snap.TotalBytes)
}

func TestNoOpObserverDoesNotPanic(t *testing.T) {
	observer := NoOpObserver{}
	assert.NotPanics(t, func() {
		observer.ObserveRead(1024, 1_000_000, true)
		observer.ObserveWrite(1024, 1_000_000, true)
		observer.ObserveResize(1_000_000, true)
		observer.ObserveBind(1_000, true)
	})
}

func TestMetricsObserverForwardsToMetrics(t *testing.T) {
	m := NewMetrics()
	observer := NewMetricsObserver(m)

	observer.ObserveRead(1024, 1_000_000, true)
	observer.ObserveWrite(2048, 2_000_000, true)
	observer.ObserveResize(1_000_000, true)
	observer.ObserveBind(1_000, true)

	snap := m.Snapshot()
	assert.EqualValues(t, 1, snap.ReadOps)
	assert.EqualValues(t, 1, snap.WriteOps)
	assert.EqualValues(t, 1024, snap.ReadBytes)
	assert.EqualValues(t, 2048, snap.WriteBytes)
	assert.EqualValues(t, 1, snap.ResizeOps)
	assert.EqualValues(t, 1, snap.BindOps)
}

func TestMetricsThroughput(t *testing.T) {
	m := NewMetrics()
	startTime := time.Now()
	m.StartTime.Store(startTime.UnixNano())

	m.RecordRead(1024, 1_000_000, true)
	m.RecordWrite(2048, 2_000_000, true)

	stopTime := startTime.Add(1 * time.Second)
	m.StopTime.Store(stopTime.UnixNano())

	snap := m.Snapshot()
	assert.InDelta(t, 1024, snap.ReadThroughput, 50)
	assert.InDelta(t, 2048, snap.WriteThroughput, 100)
}

func TestMetricsLatencyPercentiles(t *testing.T) {
	m := NewMetrics()

	for i := 0; i < 50; i++ {
		m.RecordRead(1024, 500_000, true)
	}
	for i := 0; i < 49; i++ {
		m.RecordWrite(1024, 5_000_000, true)
	}
	m.RecordWrite(1024, 50_000_000, true)

	snap := m.Snapshot()
	assert.EqualValues(t, 100, snap.TotalOps)
	assert.GreaterOrEqual(t, snap.LatencyP50Ns, uint64(100_000))
	assert.LessOrEqual(t, snap.LatencyP50Ns, uint64(1_000_000))
	assert.GreaterOrEqual(t, snap.LatencyP99Ns, uint64(5_000_000))
	assert.LessOrEqual(t, snap.LatencyP99Ns, uint64(100_000_000))

	var totalInBuckets uint64
	for _, v := range snap.LatencyHistogram {
		totalInBuckets += v
	}
	assert.NotZero(t, totalInBuckets)
}
