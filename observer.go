package clmem

// Observer lets a caller plug metrics collection into Buffer's transfer,
// resize, and bind paths without coupling Buffer to a concrete Metrics
// type. Implementations must be safe for concurrent use.
type Observer interface {
	ObserveRead(bytes uint64, latencyNs uint64, success bool)
	ObserveWrite(bytes uint64, latencyNs uint64, success bool)
	ObserveResize(latencyNs uint64, success bool)
	ObserveBind(latencyNs uint64, success bool)
}

// NoOpObserver discards every observation; it is the default for buffers
// built without WithObserver.
type NoOpObserver struct{}

func (NoOpObserver) ObserveRead(uint64, uint64, bool)  {}
func (NoOpObserver) ObserveWrite(uint64, uint64, bool) {}
func (NoOpObserver) ObserveResize(uint64, bool)        {}
func (NoOpObserver) ObserveBind(uint64, bool)          {}

// MetricsObserver is an Observer backed by a Metrics instance.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver returns an observer that records into m.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveRead(bytes uint64, latencyNs uint64, success bool) {
	o.metrics.RecordRead(bytes, latencyNs, success)
}

func (o *MetricsObserver) ObserveWrite(bytes uint64, latencyNs uint64, success bool) {
	o.metrics.RecordWrite(bytes, latencyNs, success)
}

func (o *MetricsObserver) ObserveResize(latencyNs uint64, success bool) {
	o.metrics.RecordResize(latencyNs, success)
}

func (o *MetricsObserver) ObserveBind(latencyNs uint64, success bool) {
	o.metrics.RecordBind(latencyNs, success)
}

var _ Observer = (*MetricsObserver)(nil)
var _ Observer = (*NoOpObserver)(nil)
