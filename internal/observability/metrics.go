package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// Consumer metrics
	MessagesConsumed   *prometheus.CounterVec
	OffsetCommits      *prometheus.CounterVec
	Rebalances         *prometheus.CounterVec
	RebalanceDuration  *prometheus.HistogramVec
	PartitionsAssigned *prometheus.GaugeVec
	CommitLatency      *prometheus.HistogramVec

	// Ingest metrics
	FramesIngested *prometheus.CounterVec
	FramesDropped  *prometheus.CounterVec
	HitFrames      prometheus.Counter
	BadFrames      prometheus.Counter
	IngestDuration prometheus.Histogram
	RingOccupancy  *prometheus.GaugeVec
	BinsActive     prometheus.Gauge

	// Export metrics
	SnapshotsExported *prometheus.CounterVec
	ExportDuration    *prometheus.HistogramVec
	ExportErrors      *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		// Consumer metrics
		MessagesConsumed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kafka_messages_consumed_total",
				Help: "Total number of messages consumed from Kafka",
			},
			[]string{"topic", "partition"},
		),
		OffsetCommits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kafka_offset_commit_total",
				Help: "Total number of offset commits",
			},
			[]string{"topic", "partition", "status"},
		),
		Rebalances: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kafka_rebalance_total",
				Help: "Total number of consumer group rebalances",
			},
			[]string{"group"},
		),
		RebalanceDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kafka_rebalance_duration_seconds",
				Help:    "Duration of consumer group rebalances",
				Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"group"},
		),
		PartitionsAssigned: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "kafka_partitions_assigned",
				Help: "Number of partitions currently assigned to this consumer",
			},
			[]string{"topic"},
		),
		CommitLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kafka_commit_latency_seconds",
				Help:    "Latency of offset commit operations",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
			},
			[]string{"topic", "partition"},
		),

		// Ingest metrics
		FramesIngested: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "frames_ingested_total",
				Help: "Total number of frames folded into the statistics core",
			},
			[]string{"topic", "outcome"},
		),
		FramesDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "frames_dropped_total",
				Help: "Total number of frames dropped before ingestion",
			},
			[]string{"topic", "reason"},
		),
		HitFrames: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "hit_frames_total",
				Help: "Total number of frames classified as hits",
			},
		),
		BadFrames: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bad_frames_total",
				Help: "Total number of frames flagged bad by the detector backend",
			},
		),
		IngestDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ingest_duration_seconds",
				Help:    "Duration of folding one frame into the statistics core",
				Buckets: []float64{0.000001, 0.00001, 0.0001, 0.001, 0.01, 0.1},
			},
		),
		RingOccupancy: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ring_occupancy",
				Help: "Number of valid entries per rolling series",
			},
			[]string{"series"},
		),
		BinsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "stats_bins_active",
				Help: "Current number of bins in the statistics table",
			},
		),

		// Export metrics
		SnapshotsExported: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snapshots_exported_total",
				Help: "Total number of statistics snapshots exported",
			},
			[]string{"backend", "format", "status"},
		),
		ExportDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "snapshot_export_duration_seconds",
				Help:    "Duration of snapshot export operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend", "format"},
		),
		ExportErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snapshot_export_errors_total",
				Help: "Total number of snapshot export errors",
			},
			[]string{"backend", "operation"},
		),
	}
}

// IncMessagesConsumed increments messages consumed counter.
func (m *Metrics) IncMessagesConsumed(topic string, partition int32) {
	m.MessagesConsumed.WithLabelValues(topic, fmt.Sprintf("%d", partition)).Inc()
}

// IncRebalances increments rebalances counter.
func (m *Metrics) IncRebalances(groupID string) {
	m.Rebalances.WithLabelValues(groupID).Inc()
}

// IncOffsetCommits increments offset commits counter.
func (m *Metrics) IncOffsetCommits(topic string, partition int32, status string) {
	m.OffsetCommits.WithLabelValues(topic, fmt.Sprintf("%d", partition), status).Inc()
}

// ObserveRebalanceDuration observes rebalance duration.
func (m *Metrics) ObserveRebalanceDuration(groupID string, duration float64) {
	m.RebalanceDuration.WithLabelValues(groupID).Observe(duration)
}

// ObserveCommitLatency observes commit latency.
func (m *Metrics) ObserveCommitLatency(topic string, partition int32, duration float64) {
	m.CommitLatency.WithLabelValues(topic, fmt.Sprintf("%d", partition)).Observe(duration)
}

// SetPartitionsAssigned sets partitions assigned gauge.
func (m *Metrics) SetPartitionsAssigned(topic string, count float64) {
	m.PartitionsAssigned.WithLabelValues(topic).Set(count)
}

// IncFramesIngested increments the ingested frames counter.
func (m *Metrics) IncFramesIngested(topic string, outcome string) {
	m.FramesIngested.WithLabelValues(topic, outcome).Inc()
}

// IncFramesDropped increments the dropped frames counter.
func (m *Metrics) IncFramesDropped(topic string, reason string) {
	m.FramesDropped.WithLabelValues(topic, reason).Inc()
}

// ObserveIngestDuration observes one ingest duration.
func (m *Metrics) ObserveIngestDuration(duration float64) {
	m.IngestDuration.Observe(duration)
}

// SetRingOccupancy sets the occupancy gauge of one rolling series.
func (m *Metrics) SetRingOccupancy(series string, count float64) {
	m.RingOccupancy.WithLabelValues(series).Set(count)
}

// IncSnapshotsExported increments the snapshot export counter.
func (m *Metrics) IncSnapshotsExported(backend, format, status string) {
	m.SnapshotsExported.WithLabelValues(backend, format, status).Inc()
}

// ObserveExportDuration observes one snapshot export duration.
func (m *Metrics) ObserveExportDuration(backend, format string, duration float64) {
	m.ExportDuration.WithLabelValues(backend, format).Observe(duration)
}

// IncExportErrors increments the snapshot export error counter.
func (m *Metrics) IncExportErrors(backend, operation string) {
	m.ExportErrors.WithLabelValues(backend, operation).Inc()
}
