// Package metrics provides Prometheus metrics for the barrace service.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval = 10 * time.Second
)

// Playback state values exported by the playback_state gauge.
const (
	PlaybackIdle    = 0
	PlaybackPlaying = 1
	PlaybackStopped = 2
)

// Manager manages all Prometheus metrics for the barrace service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          atomic.Bool
	refreshInterval  atomic.Int64
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Animation
	ticksTotal     prometheus.Counter
	ticksSkipped   prometheus.Counter
	tickLatency    prometheus.Histogram
	cursor         prometheus.Gauge
	frameCount     prometheus.Gauge
	entityCount    prometheus.Gauge
	playbackState  prometheus.Gauge
	elementOps     *prometheus.CounterVec
	surfaceErrors  prometheus.Counter
	batchOpsLength prometheus.Histogram

	// Data source
	recordsLoaded prometheus.Gauge
	loadLatency   prometheus.Histogram
	loadErrors    *prometheus.CounterVec

	// Viewers
	viewersConnected prometheus.Gauge
	viewerSent       prometheus.Counter
	viewerDropped    prometheus.Counter
	viewerQueueCap   prometheus.Gauge
	viewerWriteLat   prometheus.Histogram

	// Snapshots
	chartRenders       *prometheus.CounterVec
	chartRenderLatency prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "barrace",
		subsystem:        "race",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	m.enabled.Store(true)
	m.refreshInterval.Store(int64(defaultRefreshInterval))

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	if buckets == nil {
		buckets = m.histogramBuckets
	}
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)
	msBuckets := []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}

	m.ticksTotal = auto.NewCounter(m.counterOpts("ticks_total", "Total number of animation ticks rendered"))
	m.ticksSkipped = auto.NewCounter(m.counterOpts("ticks_skipped_total", "Ticks that rendered nothing because there were no frames"))
	m.tickLatency = auto.NewHistogram(m.histogramOpts("tick_latency_milliseconds", "Time spent computing and dispatching one tick", msBuckets))
	m.cursor = auto.NewGauge(m.gaugeOpts("cursor", "Index of the frame rendered by the last tick"))
	m.frameCount = auto.NewGauge(m.gaugeOpts("frames", "Number of frames in the loaded race"))
	m.entityCount = auto.NewGauge(m.gaugeOpts("entities", "Size of the entity universe"))
	m.playbackState = auto.NewGauge(m.gaugeOpts("playback_state", "Playback state: 0 idle, 1 playing, 2 stopped"))
	m.elementOps = auto.NewCounterVec(
		m.counterOpts("element_ops_total", "Reconciliation operations by element family and kind"),
		[]string{"family", "op"},
	)
	m.surfaceErrors = auto.NewCounter(m.counterOpts("surface_errors_total", "Batches the rendering surface failed to accept"))
	m.batchOpsLength = auto.NewHistogram(m.histogramOpts("batch_ops", "Operations per rendered batch", prometheus.ExponentialBuckets(1, 2, 10)))

	m.recordsLoaded = auto.NewGauge(m.gaugeOpts("records_loaded", "Records read from the data source"))
	m.loadLatency = auto.NewHistogram(m.histogramOpts("load_latency_milliseconds", "Data source load latency", msBuckets))
	m.loadErrors = auto.NewCounterVec(
		m.counterOpts("load_errors_total", "Data source failures by kind"),
		[]string{"kind"},
	)

	m.viewersConnected = auto.NewGauge(m.gaugeOpts("viewers_connected", "Connected websocket viewers"))
	m.viewerSent = auto.NewCounter(m.counterOpts("viewer_messages_sent_total", "Messages written to viewers"))
	m.viewerDropped = auto.NewCounter(m.counterOpts("viewer_messages_dropped_total", "Messages dropped because a viewer queue was full"))
	m.viewerQueueCap = auto.NewGauge(m.gaugeOpts("viewer_queue_capacity", "Per-viewer outbound queue capacity"))
	m.viewerWriteLat = auto.NewHistogram(m.histogramOpts("viewer_write_latency_milliseconds", "Websocket write latency", msBuckets))

	m.chartRenders = auto.NewCounterVec(
		m.counterOpts("chart_renders_total", "Static frame charts rendered by format"),
		[]string{"format"},
	)
	m.chartRenderLatency = auto.NewHistogram(m.histogramOpts("chart_render_latency_milliseconds", "Static frame chart render latency", msBuckets))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", nil),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds", "Average GC pause time", msBuckets))
}

// Animation.

// RecordTick counts a rendered tick and its latency.
func RecordTick(latencyMs float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.ticksTotal.Inc()
	globalManager.tickLatency.Observe(latencyMs)
}

// RecordTickSkipped counts a tick that had no frame to render.
func RecordTickSkipped() {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.ticksSkipped.Inc()
}

// UpdateCursor sets the frame index of the last tick.
func UpdateCursor(index int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.cursor.Set(float64(index))
}

// UpdateFrameCount sets the number of frames.
func UpdateFrameCount(count int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.frameCount.Set(float64(count))
}

// UpdateEntityCount sets the entity universe size.
func UpdateEntityCount(count int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.entityCount.Set(float64(count))
}

// UpdatePlaybackState sets the playback state gauge.
func UpdatePlaybackState(state int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.playbackState.Set(float64(state))
}

// RecordElementOps adds n reconciliation operations of kind op on family.
func RecordElementOps(family, op string, n int) {
	if !globalManager.enabled.Load() {
		return
	}
	if n <= 0 {
		return
	}
	globalManager.elementOps.WithLabelValues(family, op).Add(float64(n))
}

// RecordSurfaceError counts a batch rejected by the rendering surface.
func RecordSurfaceError() {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.surfaceErrors.Inc()
}

// RecordBatchSize observes the number of operations in a batch.
func RecordBatchSize(ops int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.batchOpsLength.Observe(float64(ops))
}

// Data source.

// RecordLoad records a successful data load.
func RecordLoad(records int, latencyMs float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.recordsLoaded.Set(float64(records))
	globalManager.loadLatency.Observe(latencyMs)
}

// RecordLoadError counts a data load failure of the given kind.
func RecordLoadError(kind string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.loadErrors.WithLabelValues(kind).Inc()
}

// Viewers.

// UpdateViewersConnected sets the number of connected viewers.
func UpdateViewersConnected(count int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.viewersConnected.Set(float64(count))
}

// RecordViewerMessageSent counts a message written to a viewer.
func RecordViewerMessageSent(latencyMs float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.viewerSent.Inc()
	globalManager.viewerWriteLat.Observe(latencyMs)
}

// RecordViewerMessageDropped counts a message dropped for a slow viewer.
func RecordViewerMessageDropped() {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.viewerDropped.Inc()
}

// UpdateViewerQueueCapacity sets the per-viewer queue capacity.
func UpdateViewerQueueCapacity(capacity int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.viewerQueueCap.Set(float64(capacity))
}

// Snapshots.

// RecordChartRender counts a rendered static chart.
func RecordChartRender(format string, latencyMs float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.chartRenders.WithLabelValues(format).Inc()
	globalManager.chartRenderLatency.Observe(latencyMs)
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// System.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// Enabled reports whether the manager records anything.
func (m *Manager) Enabled() bool { return m.enabled.Load() }

// RefreshInterval returns how often sampled gauges are refreshed.
func (m *Manager) RefreshInterval() time.Duration {
	return time.Duration(m.refreshInterval.Load())
}

// Enabled reports whether the package-level helpers record anything.
func Enabled() bool { return globalManager.Enabled() }

// SetEnabled turns recording by the package-level helpers on or off.
func SetEnabled(enabled bool) { WithMetricsEnabled(enabled)(globalManager) }

// RefreshInterval returns how often sampled gauges are refreshed.
func RefreshInterval() time.Duration { return globalManager.RefreshInterval() }

// SetRefreshInterval changes the refresh interval; non-positive values are
// ignored.
func SetRefreshInterval(interval time.Duration) { WithRefreshInterval(interval)(globalManager) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
