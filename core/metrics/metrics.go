package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder publishes data model metrics. A nil *Recorder records nothing,
// so components can take one unconditionally.
type Recorder struct {
	registry prometheus.Gatherer

	reloadsTotal   *prometheus.CounterVec
	reloadDuration *prometheus.HistogramVec
	refreshSkipped *prometheus.CounterVec
	snapshotUsers  *prometheus.GaugeVec
	snapshotItems  *prometheus.GaugeVec
	bulkRecords    prometheus.Counter
}

// New registers the collectors on reg. A nil reg gets a fresh registry.
func New(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Recorder{
		registry: reg,
		reloadsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prefmodel_reloads_total",
				Help: "Snapshot builds by backend and result",
			},
			[]string{"backend", "result"},
		),
		reloadDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "prefmodel_reload_duration_seconds",
				Help:    "Time spent reading and grouping a snapshot",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
			[]string{"backend"},
		),
		refreshSkipped: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prefmodel_refresh_skipped_total",
				Help: "Refresh requests dropped because a reload was already running",
			},
			[]string{"backend"},
		),
		snapshotUsers: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "prefmodel_snapshot_users",
				Help: "Users in the published snapshot",
			},
			[]string{"backend"},
		),
		snapshotItems: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "prefmodel_snapshot_items",
				Help: "Items in the published snapshot",
			},
			[]string{"backend"},
		),
		bulkRecords: f.NewCounter(
			prometheus.CounterOpts{
				Name: "prefmodel_bulk_records_total",
				Help: "Preference records read by the bulk loader",
			},
		),
	}
}

// Gatherer exposes the registry for an HTTP handler.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.registry
}

// ObserveReload records one snapshot build.
func (r *Recorder) ObserveReload(backend string, d time.Duration, err error) {
	if r == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	r.reloadsTotal.WithLabelValues(backend, result).Inc()
	r.reloadDuration.WithLabelValues(backend).Observe(d.Seconds())
}

// RefreshSkipped counts a refresh dropped by the in-progress guard.
func (r *Recorder) RefreshSkipped(backend string) {
	if r == nil {
		return
	}
	r.refreshSkipped.WithLabelValues(backend).Inc()
}

// SetSnapshotSize records the size of the published snapshot.
func (r *Recorder) SetSnapshotSize(backend string, users, items int) {
	if r == nil {
		return
	}
	r.snapshotUsers.WithLabelValues(backend).Set(float64(users))
	r.snapshotItems.WithLabelValues(backend).Set(float64(items))
}

// AddBulkRecords counts preference records read during a bulk import.
func (r *Recorder) AddBulkRecords(n int) {
	if r == nil {
		return
	}
	r.bulkRecords.Add(float64(n))
}
