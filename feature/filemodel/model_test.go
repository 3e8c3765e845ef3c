package filemodel

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"prefmodel/core/metrics"
	"prefmodel/core/model"

	"github.com/juju/clock/testclock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

const exampleData = "A,a,1\nA,b,2\r\nB,a,3\n"

func writeData(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "prefs.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newModel(t *testing.T, content string, opts ...Option) *Model {
	t.Helper()
	path := writeData(t, t.TempDir(), content)
	m, err := New(Config{Path: path, DisableAutoReload: true}, zap.NewNop(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestModel_ExampleFile(t *testing.T) {
	m := newModel(t, exampleData)
	ctx := context.Background()
	assert.False(t, m.Loaded(), "file is read lazily")

	a, err := m.User(ctx, "A")
	require.NoError(t, err)
	prefs := a.Preferences()
	require.Len(t, prefs, 2)
	assert.Equal(t, "a", prefs[0].Item.ID)
	assert.Equal(t, 1.0, prefs[0].Value)
	assert.Equal(t, "b", prefs[1].Item.ID)
	assert.Equal(t, 2.0, prefs[1].Value)
	assert.True(t, m.Loaded())

	b, err := m.User(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Len())

	users, err := model.Collect(m.Users(ctx))
	require.NoError(t, err)
	assert.Len(t, users, 2)

	items, err := model.Collect(m.Items(ctx))
	require.NoError(t, err)
	assert.Equal(t, []model.Item{model.NewItem("a"), model.NewItem("b")}, items)

	n, err := m.NumItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = m.NumUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	forA, err := m.PreferencesForItem(ctx, "a")
	require.NoError(t, err)
	require.Len(t, forA, 2)
	assert.Equal(t, "A", forA[0].UserID)
	assert.Equal(t, "B", forA[1].UserID)

	_, err = m.Item(ctx, "z", false)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = m.User(ctx, "Z")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestModel_EmptyLineEndsData(t *testing.T) {
	m := newModel(t, "A,a,1\n\nB,b,2\n")
	n, err := m.NumUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestModel_ReadOnly(t *testing.T) {
	m := newModel(t, exampleData)
	ctx := context.Background()
	assert.ErrorIs(t, m.SetPreference(ctx, "A", "a", 1), model.ErrUnsupported)
	assert.ErrorIs(t, m.RemovePreference(ctx, "A", "a"), model.ErrUnsupported)
}

func TestNew_MissingFile(t *testing.T) {
	_, err := New(Config{Path: filepath.Join(t.TempDir(), "nope.csv")}, nil)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = New(Config{}, nil)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)

	_, err = New(Config{Path: t.TempDir()}, nil)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestModel_FirstLoadFailure(t *testing.T) {
	m := newModel(t, "A,a,1\nA,b,lots\n")
	_, err := m.User(context.Background(), "A")
	assert.ErrorIs(t, err, model.ErrBackend)

	var pe *model.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 2, pe.Line)
	assert.False(t, m.Loaded())

	assert.Error(t, m.Refresh(context.Background()), "refresh performing the first load reports failure")
}

// blockingOpen lets a test hold a build open while other goroutines race it.
type blockingOpen struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingOpen) open(name string) (io.ReadCloser, error) {
	b.calls.Add(1)
	b.once.Do(func() { close(b.started) })
	<-b.release
	return os.Open(name)
}

func TestModel_ConcurrentRefreshBuildsOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)
	m := newModel(t, exampleData, WithMetrics(rec))
	ctx := context.Background()
	_, err := m.NumUsers(ctx)
	require.NoError(t, err)

	b := &blockingOpen{started: make(chan struct{}), release: make(chan struct{})}
	m.open = b.open

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, m.Refresh(ctx))
	}()
	<-b.started

	const callers = 8
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, m.Refresh(ctx))
		}()
	}
	want := `
# HELP prefmodel_refresh_skipped_total Refresh requests dropped because a reload was already running
# TYPE prefmodel_refresh_skipped_total counter
prefmodel_refresh_skipped_total{backend="file"} 8
`
	assert.Eventually(t, func() bool {
		return testutil.GatherAndCompare(reg, strings.NewReader(want), "prefmodel_refresh_skipped_total") == nil
	}, time.Second, 5*time.Millisecond)

	close(b.release)
	wg.Wait()
	assert.Equal(t, int32(1), b.calls.Load())
}

func TestModel_ConcurrentFirstLoadBuildsOnce(t *testing.T) {
	m := newModel(t, exampleData)
	b := &blockingOpen{started: make(chan struct{}), release: make(chan struct{})}
	m.open = b.open

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := m.NumUsers(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, 2, n)
		}()
	}
	<-b.started
	close(b.release)
	wg.Wait()
	assert.Equal(t, int32(1), b.calls.Load())
}

func TestModel_ReloadFailureKeepsSnapshot(t *testing.T) {
	m := newModel(t, exampleData)
	ctx := context.Background()

	before, err := m.User(ctx, "A")
	require.NoError(t, err)

	m.open = func(string) (io.ReadCloser, error) { return nil, errors.New("disk on fire") }
	assert.NoError(t, m.Refresh(ctx), "reload failures are not reported")

	after, err := m.User(ctx, "A")
	require.NoError(t, err)
	assert.Same(t, before, after)
}

func TestModel_OldSnapshotSurvivesSwap(t *testing.T) {
	m := newModel(t, exampleData)
	ctx := context.Background()

	old, err := m.ensureLoaded(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(m.cfg.Path, []byte("C,c,9\n"), 0o644))
	require.NoError(t, m.Refresh(ctx))

	_, err = m.User(ctx, "C")
	require.NoError(t, err)
	_, err = m.User(ctx, "A")
	assert.ErrorIs(t, err, model.ErrNotFound)

	a, err := old.User(ctx, "A")
	require.NoError(t, err, "readers holding the old snapshot still see it")
	assert.Equal(t, 2, a.Len())
}

func TestModel_BackgroundReload(t *testing.T) {
	defer goleak.VerifyNone(t)

	clk := testclock.NewClock(time.Now())
	path := writeData(t, t.TempDir(), exampleData)
	m, err := New(Config{Path: path, ReloadInterval: time.Minute}, zap.NewNop(), WithClock(clk))
	require.NoError(t, err)
	defer m.Close()
	ctx := context.Background()

	_, err = m.User(ctx, "A")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("C,c,9\n"), 0o644))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	require.NoError(t, clk.WaitAdvance(time.Minute, time.Second, 1))
	assert.Eventually(t, func() bool {
		_, err := m.User(ctx, "C")
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, fi.ModTime().Equal(m.LastModified()))

	// Unchanged file: the next tick leaves the snapshot alone.
	s := m.snapshot.Load()
	require.NoError(t, clk.WaitAdvance(time.Minute, time.Second, 1))
	require.NoError(t, clk.WaitAdvance(0, time.Second, 1))
	assert.Same(t, s, m.snapshot.Load())
}

func TestModel_BackgroundCheckWaitsForFirstLoad(t *testing.T) {
	defer goleak.VerifyNone(t)

	clk := testclock.NewClock(time.Now())
	path := writeData(t, t.TempDir(), exampleData)
	m, err := New(Config{Path: path, ReloadInterval: time.Minute}, nil, WithClock(clk))
	require.NoError(t, err)

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))
	require.NoError(t, clk.WaitAdvance(time.Minute, time.Second, 1))
	require.NoError(t, clk.WaitAdvance(0, time.Second, 1))
	assert.False(t, m.Loaded(), "staleness is only checked once loaded")

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}

func TestModel_FirstLoadObservesLatestChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	clk := testclock.NewClock(time.Now())
	path := writeData(t, t.TempDir(), exampleData)
	m, err := New(Config{Path: path, ReloadInterval: time.Minute}, zap.NewNop(), WithClock(clk))
	require.NoError(t, err)
	defer m.Close()

	var opens atomic.Int32
	m.open = func(name string) (io.ReadCloser, error) {
		opens.Add(1)
		return os.Open(name)
	}

	// Touched between New and the first read.
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	_, err = m.User(context.Background(), "A")
	require.NoError(t, err)
	s := m.snapshot.Load()
	assert.True(t, mustModTime(t, path).Equal(m.LastModified()))

	require.NoError(t, clk.WaitAdvance(time.Minute, time.Second, 1))
	require.NoError(t, clk.WaitAdvance(0, time.Second, 1))
	assert.Same(t, s, m.snapshot.Load(), "the change was already read by the first load")
	assert.Equal(t, int32(1), opens.Load())
}

func TestNew_ZeroConfigRunsBackgroundCheck(t *testing.T) {
	path := writeData(t, t.TempDir(), exampleData)
	m, err := New(Config{Path: path}, nil)
	require.NoError(t, err)

	select {
	case <-m.done:
		t.Fatal("background check should be running")
	default:
	}
	require.NoError(t, m.Close())
	<-m.done
}

func mustModTime(t *testing.T, path string) time.Time {
	t.Helper()
	fi, err := os.Stat(path)
	require.NoError(t, err)
	return fi.ModTime()
}
