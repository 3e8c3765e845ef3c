// Package metrics exposes Prometheus collectors for the data model backends.
//
// Metrics:
//   - prefmodel_reloads_total{backend,result}: snapshot builds
//   - prefmodel_reload_duration_seconds{backend}: build latency
//   - prefmodel_refresh_skipped_total{backend}: refreshes dropped while a reload ran
//   - prefmodel_snapshot_users / prefmodel_snapshot_items{backend}: published snapshot size
//   - prefmodel_bulk_records_total: records read by the bulk loader
//
// # Usage
//
//	rec := metrics.New(nil)
//	rec.ObserveReload("file", time.Since(start), err)
package metrics
