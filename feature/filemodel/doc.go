// Package filemodel implements the preference data model over a flat
// comma-delimited file of "<user>,<item>,<value>" lines.
//
// The file is read on first access, grouped into users and published as an
// immutable model.Snapshot. Readers load the snapshot pointer without locking,
// so a reload never disturbs an in-flight read.
//
// # Reloading
//
// A background check, driven by a juju/clock timer, compares the file's
// modification time against the last one observed and reloads when it is
// strictly newer. Refresh forces a reload. Only one refresh runs at a time;
// concurrent callers return immediately. A failed reload is logged and the
// previous snapshot is kept, while a failed first load is returned to the
// caller as a *model.BackendError.
//
// # Lifecycle
//
//	m, err := filemodel.New(cfg, logger, filemodel.WithMetrics(rec))
//	defer m.Close()
package filemodel
