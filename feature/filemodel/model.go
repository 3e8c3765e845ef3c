package filemodel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"prefmodel/core/metrics"
	"prefmodel/core/model"
	"prefmodel/core/rows"

	"github.com/juju/clock"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const backendName = "file"

// Model serves preferences from a comma-delimited file held in memory as an
// immutable snapshot. The file is read on first access and re-read when it
// changes on disk or when Refresh is called.
//
// Two guards coordinate reloads. refreshMu is only ever try-locked: a refresh
// that finds it held is dropped, since the running attempt covers it. buildMu
// is held while a snapshot is being read and grouped, and the first load waits
// on it rather than building twice. Readers never lock; they load the current
// snapshot pointer.
type Model struct {
	cfg     Config
	logger  *zap.Logger
	factory model.Factory
	metrics *metrics.Recorder
	clock   clock.Clock

	snapshot     atomic.Pointer[model.Snapshot]
	lastModified atomic.Int64
	refreshMu    sync.Mutex
	buildMu      sync.Mutex
	firstLoad    singleflight.Group

	open func(name string) (io.ReadCloser, error)
	stat func(name string) (fs.FileInfo, error)

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

var _ model.DataModel = (*Model)(nil)

// Option customizes a Model.
type Option func(*Model)

// WithClock replaces the wall clock driving the background check.
func WithClock(c clock.Clock) Option {
	return func(m *Model) { m.clock = c }
}

// WithMetrics records reloads on r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(m *Model) { m.metrics = r }
}

// WithFactory sets the entity factory.
func WithFactory(f model.Factory) Option {
	return func(m *Model) { m.factory = f }
}

// New validates that the file exists and records its modification time. The
// file itself is read lazily. Unless DisableAutoReload is set, a background
// check runs every ReloadInterval until Close.
func New(cfg Config, logger *zap.Logger, opts ...Option) (*Model, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ReloadInterval <= 0 {
		cfg.ReloadInterval = DefaultReloadInterval
	}
	m := &Model{
		cfg:    cfg,
		logger: logger.With(zap.String("backend", backendName), zap.String("path", cfg.Path)),
		clock:  clock.WallClock,
		open:   func(name string) (io.ReadCloser, error) { return os.Open(name) },
		stat:   os.Stat,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	if cfg.Path == "" {
		return nil, fmt.Errorf("data file path must not be empty: %w", model.ErrInvalidArgument)
	}
	fi, err := m.stat(cfg.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("data file %s: %w", cfg.Path, model.ErrNotFound)
	}
	if err != nil {
		return nil, model.NewBackendError("stat "+cfg.Path, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("data file %s is a directory: %w", cfg.Path, model.ErrInvalidArgument)
	}
	m.lastModified.Store(fi.ModTime().UnixNano())

	if !cfg.DisableAutoReload {
		go m.loop()
	} else {
		close(m.done)
	}
	return m, nil
}

// Close stops the background check and waits for it to exit.
func (m *Model) Close() error {
	m.closeOnce.Do(func() { close(m.stop) })
	<-m.done
	return nil
}

func (m *Model) loop() {
	defer close(m.done)
	timer := m.clock.NewTimer(m.cfg.ReloadInterval)
	defer timer.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-timer.Chan():
			m.checkForUpdate(context.Background())
			timer.Reset(m.cfg.ReloadInterval)
		}
	}
}

// checkForUpdate reloads when the file is strictly newer than the last
// observed modification time. It does nothing before the first load.
func (m *Model) checkForUpdate(ctx context.Context) {
	if !m.refreshMu.TryLock() {
		m.metrics.RefreshSkipped(backendName)
		return
	}
	defer m.refreshMu.Unlock()

	if m.snapshot.Load() == nil {
		return
	}
	fi, err := m.stat(m.cfg.Path)
	if err != nil {
		m.logger.Warn("Failed to stat data file", zap.Error(err))
		return
	}
	modified := fi.ModTime().UnixNano()
	if modified <= m.lastModified.Load() {
		return
	}
	m.lastModified.Store(modified)
	m.logger.Info("Data file changed, reloading", zap.Time("modified", fi.ModTime()))
	_ = m.reload(ctx)
}

// Refresh re-reads the file unless a refresh is already running, in which
// case it returns nil immediately. Before the first load it performs that
// load and reports its failure; afterwards failures are logged and the
// previous snapshot stays in place.
func (m *Model) Refresh(ctx context.Context) error {
	if !m.refreshMu.TryLock() {
		m.metrics.RefreshSkipped(backendName)
		m.logger.Debug("Refresh already in progress, skipping")
		return nil
	}
	defer m.refreshMu.Unlock()

	m.markModified()
	if m.snapshot.Load() == nil {
		_, err := m.ensureLoaded(ctx)
		return err
	}
	_ = m.reload(ctx)
	return nil
}

// markModified records the file's current modification time as observed.
func (m *Model) markModified() {
	if fi, err := m.stat(m.cfg.Path); err == nil {
		m.lastModified.Store(fi.ModTime().UnixNano())
	}
}

func (m *Model) reload(ctx context.Context) error {
	m.buildMu.Lock()
	defer m.buildMu.Unlock()

	s, err := m.build(ctx)
	if err != nil {
		m.logger.Error("Reload failed, keeping previous snapshot", zap.Error(err))
		return err
	}
	m.snapshot.Store(s)
	return nil
}

// ensureLoaded returns the published snapshot, building it on first use.
// Concurrent first callers share one build.
func (m *Model) ensureLoaded(ctx context.Context) (*model.Snapshot, error) {
	if s := m.snapshot.Load(); s != nil {
		return s, nil
	}
	v, err, _ := m.firstLoad.Do("load", func() (any, error) {
		m.buildMu.Lock()
		defer m.buildMu.Unlock()

		// A reload may have published while we waited.
		if s := m.snapshot.Load(); s != nil {
			return s, nil
		}
		// The first build reads whatever is on disk now, so a change made
		// since New must not trigger another build on the next check.
		m.markModified()
		s, err := m.build(ctx)
		if err != nil {
			return nil, err
		}
		m.snapshot.Store(s)
		return s, nil
	})
	if err != nil {
		return nil, &model.BackendError{Op: "load " + m.cfg.Path, Err: err}
	}
	return v.(*model.Snapshot), nil
}

// build reads and groups the whole file. Callers hold buildMu.
func (m *Model) build(ctx context.Context) (*model.Snapshot, error) {
	start := m.clock.Now()
	s, err := m.readSnapshot(ctx)
	m.metrics.ObserveReload(backendName, m.clock.Now().Sub(start), err)
	if err != nil {
		return nil, err
	}
	items, _ := s.NumItems(ctx)
	m.metrics.SetSnapshotSize(backendName, s.Len(), items)
	m.logger.Info("Data file loaded",
		zap.Int("users", s.Len()),
		zap.Duration("took", m.clock.Now().Sub(start)),
	)
	return s, nil
}

func (m *Model) readSnapshot(ctx context.Context) (*model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.logger.Info("Reading data file")
	f, err := m.open(m.cfg.Path)
	if err != nil {
		return nil, err
	}
	users, err := rows.GroupAll(newLineCursor(m.cfg.Path, f), m.factory, m.logger)
	if err != nil {
		return nil, err
	}
	return model.NewSnapshot(users), nil
}

// Loaded reports whether a snapshot has been published.
func (m *Model) Loaded() bool { return m.snapshot.Load() != nil }

// Users enumerates users of the current snapshot.
func (m *Model) Users(ctx context.Context) iter.Seq2[*model.User, error] {
	return func(yield func(*model.User, error) bool) {
		s, err := m.ensureLoaded(ctx)
		if err != nil {
			yield(nil, err)
			return
		}
		for u, err := range s.Users(ctx) {
			if !yield(u, err) {
				return
			}
		}
	}
}

func (m *Model) User(ctx context.Context, id string) (*model.User, error) {
	s, err := m.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	return s.User(ctx, id)
}

func (m *Model) Items(ctx context.Context) iter.Seq2[model.Item, error] {
	return func(yield func(model.Item, error) bool) {
		s, err := m.ensureLoaded(ctx)
		if err != nil {
			yield(model.Item{}, err)
			return
		}
		for it, err := range s.Items(ctx) {
			if !yield(it, err) {
				return
			}
		}
	}
}

func (m *Model) Item(ctx context.Context, id string, assumeExists bool) (model.Item, error) {
	s, err := m.ensureLoaded(ctx)
	if err != nil {
		return model.Item{}, err
	}
	return s.Item(ctx, id, assumeExists)
}

func (m *Model) PreferencesForItem(ctx context.Context, itemID string) ([]model.Preference, error) {
	s, err := m.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	return s.PreferencesForItem(ctx, itemID)
}

func (m *Model) NumUsers(ctx context.Context) (int, error) {
	s, err := m.ensureLoaded(ctx)
	if err != nil {
		return 0, err
	}
	return s.NumUsers(ctx)
}

func (m *Model) NumItems(ctx context.Context) (int, error) {
	s, err := m.ensureLoaded(ctx)
	if err != nil {
		return 0, err
	}
	return s.NumItems(ctx)
}

// SetPreference is not supported; edit the file instead.
func (m *Model) SetPreference(context.Context, string, string, float64) error {
	return fmt.Errorf("file model is read-only: %w", model.ErrUnsupported)
}

// RemovePreference is not supported; edit the file instead.
func (m *Model) RemovePreference(context.Context, string, string) error {
	return fmt.Errorf("file model is read-only: %w", model.ErrUnsupported)
}

// LastModified returns the modification time last observed on the file.
func (m *Model) LastModified() time.Time {
	return time.Unix(0, m.lastModified.Load())
}
