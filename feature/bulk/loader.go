package bulk

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"prefmodel/core/metrics"
	"prefmodel/core/model"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	backendName   = "bulk"
	progressEvery = 100000
	dateLayout    = "2006-01-02"
)

// Loader builds a static snapshot from a corpus in one pass.
type Loader struct {
	src     Source
	cfg     Config
	logger  *zap.Logger
	factory model.Factory
	metrics *metrics.Recorder

	records atomic.Int64
}

// NewLoader creates a loader reading from src. A nil recorder disables metrics.
func NewLoader(src Source, cfg Config, logger *zap.Logger, factory model.Factory, rec *metrics.Recorder) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		src:     src,
		cfg:     cfg.withDefaults(),
		logger:  logger.With(zap.String("backend", backendName), zap.Stringer("source", src)),
		factory: factory,
		metrics: rec,
	}
}

// Load reads the item metadata, then every preference file, and returns the
// resulting snapshot. Any malformed record fails the whole load with a
// *model.ParseError naming the file and line.
func (l *Loader) Load(ctx context.Context) (*model.Snapshot, error) {
	start := time.Now()
	s, err := l.load(ctx)
	l.metrics.ObserveReload(backendName, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	items, _ := s.NumItems(ctx)
	l.metrics.SetSnapshotSize(backendName, s.Len(), items)
	l.logger.Info("Corpus loaded",
		zap.Int("users", s.Len()),
		zap.Int("items", items),
		zap.Int64("preferences", l.records.Load()),
		zap.Duration("took", time.Since(start)),
	)
	return s, nil
}

func (l *Loader) load(ctx context.Context) (*model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.logger.Info("Reading item metadata", zap.String("file", l.cfg.MetadataFile))
	items, err := l.readItems(ctx)
	if err != nil {
		return nil, err
	}

	files, err := l.src.List(ctx, l.cfg.TrainingDir, l.cfg.FilePrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list preference files: %w", err)
	}
	l.logger.Info("Reading preference data", zap.Int("items", len(items)), zap.Int("files", len(files)))

	// Merged in file order: a later file wins a duplicate pair.
	results := make([]map[string][]model.Preference, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.cfg.Workers)
	for i, name := range files {
		g.Go(func() error {
			local, err := l.readPreferences(gctx, name, items)
			if err != nil {
				return err
			}
			results[i] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	data := make(map[string][]model.Preference)
	for _, local := range results {
		for user, prefs := range local {
			data[user] = append(data[user], prefs...)
		}
	}

	users := make([]*model.User, 0, len(data))
	for id, prefs := range data {
		u, err := l.factory.BuildUser(id, prefs)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return model.NewSnapshot(users), nil
}

// readItems builds the dense item index: the item with id n sits at n-1.
func (l *Loader) readItems(ctx context.Context) ([]model.Item, error) {
	name := l.cfg.MetadataFile
	rc, err := l.src.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to open item metadata: %w", err)
	}
	defer l.closeQuietly(name, rc)

	var items []model.Item
	sc := bufio.NewScanner(rc)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSuffix(sc.Text(), "\r")
		if text == "" {
			continue
		}
		idField, rest, ok := strings.Cut(text, ",")
		if !ok {
			return nil, &model.ParseError{Source: name, Line: line, Err: errors.New("expected <id>,<year>,<title>")}
		}
		_, title, ok := strings.Cut(rest, ",")
		if !ok {
			return nil, &model.ParseError{Source: name, Line: line, Err: errors.New("expected <id>,<year>,<title>")}
		}
		id, err := strconv.Atoi(idField)
		if err != nil || id <= 0 {
			return nil, &model.ParseError{Source: name, Line: line, Err: fmt.Errorf("bad item id %q", idField)}
		}
		if id > l.cfg.MaxItems {
			return nil, &model.ParseError{Source: name, Line: line, Err: fmt.Errorf("item id %d exceeds limit %d", id, l.cfg.MaxItems)}
		}
		for len(items) < id {
			items = append(items, model.Item{})
		}
		item := l.factory.BuildItem(strconv.Itoa(id))
		if item.Title == "" {
			item.Title = title
		}
		items[id-1] = item
	}
	if err := sc.Err(); err != nil {
		return nil, &model.ParseError{Source: name, Err: err}
	}
	return items, nil
}

// readPreferences parses one per-item file: an "<id>:" header followed by
// "<user>,<rating>,<date>" records.
func (l *Loader) readPreferences(ctx context.Context, name string, items []model.Item) (map[string][]model.Preference, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rc, err := l.src.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer l.closeQuietly(name, rc)

	sc := bufio.NewScanner(rc)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, &model.ParseError{Source: name, Err: err}
		}
		return nil, &model.ParseError{Source: name, Line: 1, Err: errors.New("missing item header")}
	}
	header := strings.TrimSuffix(sc.Text(), "\r")
	idField, ok := strings.CutSuffix(header, ":")
	if !ok {
		return nil, &model.ParseError{Source: name, Line: 1, Err: fmt.Errorf("bad item header %q", header)}
	}
	id, err := strconv.Atoi(idField)
	if err != nil || id <= 0 || id > len(items) || items[id-1].ID == "" {
		return nil, &model.ParseError{Source: name, Line: 1, Err: fmt.Errorf("no such item: %s", idField)}
	}
	item := items[id-1]

	local := make(map[string][]model.Preference)
	line, n := 1, 0
	for sc.Scan() {
		line++
		text := strings.TrimSuffix(sc.Text(), "\r")
		if text == "" {
			continue
		}
		p, err := l.parseRecord(text, item)
		if err != nil {
			return nil, &model.ParseError{Source: name, Line: line, Err: err}
		}
		local[p.UserID] = append(local[p.UserID], p)
		n++
	}
	if err := sc.Err(); err != nil {
		return nil, &model.ParseError{Source: name, Err: err}
	}
	l.addProgress(n)
	return local, nil
}

func (l *Loader) parseRecord(text string, item model.Item) (model.Preference, error) {
	userField, rest, ok := strings.Cut(text, ",")
	if !ok {
		return model.Preference{}, errors.New("expected <user>,<rating>,<date>")
	}
	ratingField, dateField, hasDate := strings.Cut(rest, ",")

	user, err := strconv.ParseInt(userField, 10, 64)
	if err != nil {
		return model.Preference{}, fmt.Errorf("bad user id %q", userField)
	}
	rating, err := strconv.ParseFloat(ratingField, 64)
	if err != nil {
		return model.Preference{}, fmt.Errorf("bad rating %q", ratingField)
	}
	p, err := l.factory.BuildPreference(strconv.FormatInt(user, 10), item, rating)
	if err != nil {
		return model.Preference{}, err
	}
	if hasDate && dateField != "" {
		ts, err := time.Parse(dateLayout, dateField)
		if err != nil {
			return model.Preference{}, fmt.Errorf("bad date %q", dateField)
		}
		p.Timestamp = ts
	}
	return p, nil
}

func (l *Loader) addProgress(n int) {
	if n == 0 {
		return
	}
	l.metrics.AddBulkRecords(n)
	total := l.records.Add(int64(n))
	if (total-int64(n))/progressEvery != total/progressEvery {
		l.logger.Info("Processed preferences", zap.Int64("count", total))
	}
}

func (l *Loader) closeQuietly(name string, c io.Closer) {
	if err := c.Close(); err != nil {
		l.logger.Warn("Failed to close corpus file", zap.String("file", name), zap.Error(err))
	}
}
