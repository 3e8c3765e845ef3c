package sqlmodel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"prefmodel/core/database"
	"prefmodel/core/model"
	"prefmodel/core/rows"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Model serves preferences straight from a relational table. Every read is a
// fresh query, so writes are visible immediately and Refresh has nothing to do.
type Model struct {
	db      *gorm.DB
	cfg     Config
	logger  *zap.Logger
	factory model.Factory
}

var _ model.DataModel = (*Model)(nil)

// New creates a model over db. Empty Config fields take their defaults.
func New(db *gorm.DB, cfg Config, logger *zap.Logger, factory model.Factory) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Model{
		db:      db,
		cfg:     cfg.withDefaults(),
		logger:  logger.With(zap.String("backend", "sql")),
		factory: factory,
	}
}

// Config returns the effective table layout.
func (m *Model) Config() Config { return m.cfg }

func (m *Model) conn(ctx context.Context) *gorm.DB {
	return m.db.Session(&gorm.Session{Context: ctx, SkipDefaultTransaction: true}).Table(m.cfg.Table)
}

func (m *Model) quote(name string) string {
	return m.db.Statement.Quote(name)
}

func (m *Model) preferenceColumns() []string {
	return []string{m.cfg.ItemColumn, m.cfg.PreferenceColumn, m.cfg.UserColumn}
}

func (m *Model) orderBy(col string) clause.OrderByColumn {
	return clause.OrderByColumn{Column: clause.Column{Name: col}}
}

// Users streams every user. Rows are ordered by user so each user's rows are
// contiguous; only one user is held in memory at a time.
func (m *Model) Users(ctx context.Context) iter.Seq2[*model.User, error] {
	return func(yield func(*model.User, error) bool) {
		m.logger.Debug("Enumerating users")
		rs, err := m.conn(ctx).
			Select(m.preferenceColumns()).
			Order(m.orderBy(m.cfg.UserColumn)).
			Order(m.orderBy(m.cfg.ItemColumn)).
			Rows()
		if err != nil {
			yield(nil, m.backendError("list users", err))
			return
		}
		it := rows.NewUserIterator(&sqlCursor{rs: rs, scan: scanPreference}, m.factory, m.logger)
		for u, err := range it.All() {
			if err != nil {
				yield(nil, model.NewBackendError("list users", err))
				return
			}
			if !yield(u, nil) {
				return
			}
		}
	}
}

// User loads one user's preferences.
func (m *Model) User(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("user id must not be empty: %w", model.ErrInvalidArgument)
	}
	m.logger.Debug("Retrieving user", zap.String("user_id", id))
	rs, err := m.conn(ctx).
		Select(m.preferenceColumns()).
		Where(map[string]any{m.cfg.UserColumn: id}).
		Order(m.orderBy(m.cfg.ItemColumn)).
		Rows()
	if err != nil {
		return nil, m.backendError("get user", err)
	}
	it := rows.NewUserIterator(&sqlCursor{rs: rs, scan: scanPreference}, m.factory, m.logger)
	defer it.Close()

	if !it.HasNext() {
		if err := it.Err(); err != nil {
			return nil, model.NewBackendError("get user", err)
		}
		return nil, fmt.Errorf("user %q: %w", id, model.ErrNotFound)
	}
	u, err := it.Next()
	if err != nil {
		return nil, model.NewBackendError("get user", err)
	}
	return u, nil
}

// Items streams the distinct items that have at least one preference.
func (m *Model) Items(ctx context.Context) iter.Seq2[model.Item, error] {
	return func(yield func(model.Item, error) bool) {
		m.logger.Debug("Enumerating items")
		rs, err := m.conn(ctx).
			Distinct(m.cfg.ItemColumn).
			Order(m.orderBy(m.cfg.ItemColumn)).
			Rows()
		if err != nil {
			yield(model.Item{}, m.backendError("list items", err))
			return
		}
		it := rows.NewItemIterator(&sqlCursor{rs: rs, scan: scanItem}, m.factory, m.logger)
		for item, err := range it.All() {
			if err != nil {
				yield(model.Item{}, model.NewBackendError("list items", err))
				return
			}
			if !yield(item, nil) {
				return
			}
		}
	}
}

// Item returns id if some user has a preference for it. With assumeExists the
// probe is skipped.
func (m *Model) Item(ctx context.Context, id string, assumeExists bool) (model.Item, error) {
	if id == "" {
		return model.Item{}, fmt.Errorf("item id must not be empty: %w", model.ErrInvalidArgument)
	}
	if assumeExists {
		return m.factory.BuildItem(id), nil
	}
	m.logger.Debug("Retrieving item", zap.String("item_id", id))
	var found []string
	err := m.conn(ctx).
		Where(map[string]any{m.cfg.ItemColumn: id}).
		Limit(1).
		Pluck(m.cfg.ItemColumn, &found).Error
	if err != nil {
		return model.Item{}, m.backendError("get item", err)
	}
	if len(found) == 0 {
		return model.Item{}, fmt.Errorf("item %q: %w", id, model.ErrNotFound)
	}
	return m.factory.BuildItem(id), nil
}

// PreferencesForItem returns the preferences for itemID ordered by user.
// An item exists only while some user rates it, so after its last
// preference is removed this returns ErrNotFound, not an empty list.
func (m *Model) PreferencesForItem(ctx context.Context, itemID string) ([]model.Preference, error) {
	if _, err := m.Item(ctx, itemID, false); err != nil {
		return nil, err
	}
	rs, err := m.conn(ctx).
		Select(m.preferenceColumns()).
		Where(map[string]any{m.cfg.ItemColumn: itemID}).
		Order(m.orderBy(m.cfg.UserColumn)).
		Rows()
	if err != nil {
		return nil, m.backendError("get preferences for item", err)
	}
	cur := &sqlCursor{rs: rs, scan: scanPreference}
	defer func() {
		if err := cur.Close(); err != nil {
			m.logger.Warn("Failed to release item cursor", zap.Error(err))
		}
	}()

	item := m.factory.BuildItem(itemID)
	var prefs []model.Preference
	for {
		r, err := cur.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, m.backendError("get preferences for item", err)
		}
		p, err := m.factory.BuildPreference(r.UserID, item, r.Value)
		if err != nil {
			return nil, err
		}
		prefs = append(prefs, p)
	}
	return prefs, nil
}

// NumUsers counts distinct users.
func (m *Model) NumUsers(ctx context.Context) (int, error) {
	return m.countDistinct(ctx, "count users", m.cfg.UserColumn)
}

// NumItems counts distinct items.
func (m *Model) NumItems(ctx context.Context) (int, error) {
	return m.countDistinct(ctx, "count items", m.cfg.ItemColumn)
}

func (m *Model) countDistinct(ctx context.Context, op, col string) (int, error) {
	var n int64
	if err := m.conn(ctx).Distinct(col).Count(&n).Error; err != nil {
		return 0, m.backendError(op, err)
	}
	return int(n), nil
}

// SetPreference upserts the (userID, itemID) row.
func (m *Model) SetPreference(ctx context.Context, userID, itemID string, value float64) error {
	if err := model.ValidatePreference(userID, itemID, value); err != nil {
		return err
	}
	m.logger.Debug("Setting preference",
		zap.String("user_id", userID),
		zap.String("item_id", itemID),
		zap.Float64("value", value),
	)
	err := m.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: m.cfg.UserColumn}, {Name: m.cfg.ItemColumn}},
		DoUpdates: clause.AssignmentColumns([]string{m.cfg.PreferenceColumn}),
	}).Create(map[string]any{
		m.cfg.UserColumn:       userID,
		m.cfg.ItemColumn:       itemID,
		m.cfg.PreferenceColumn: value,
	}).Error
	return m.backendError("set preference", err)
}

// RemovePreference deletes the (userID, itemID) row. Removing a missing row is not an error.
func (m *Model) RemovePreference(ctx context.Context, userID, itemID string) error {
	if err := model.ValidateKeys(userID, itemID); err != nil {
		return err
	}
	m.logger.Debug("Removing preference", zap.String("user_id", userID), zap.String("item_id", itemID))
	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s = ? AND %s = ?",
		m.quote(m.cfg.Table), m.quote(m.cfg.UserColumn), m.quote(m.cfg.ItemColumn))
	err := m.db.WithContext(ctx).Exec(stmt, userID, itemID).Error
	return m.backendError("remove preference", err)
}

// Refresh is a no-op; the table is always read live.
func (m *Model) Refresh(context.Context) error { return nil }

// EnsureSchema creates the preference table if it does not exist.
func (m *Model) EnsureSchema(ctx context.Context) error {
	stmt := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s VARCHAR(255) NOT NULL, %s VARCHAR(255) NOT NULL, %s DOUBLE NOT NULL, PRIMARY KEY (%s, %s))",
		m.quote(m.cfg.Table),
		m.quote(m.cfg.UserColumn), m.quote(m.cfg.ItemColumn), m.quote(m.cfg.PreferenceColumn),
		m.quote(m.cfg.UserColumn), m.quote(m.cfg.ItemColumn),
	)
	if err := m.db.WithContext(ctx).Exec(stmt).Error; err != nil {
		return m.backendError("ensure schema", err)
	}
	m.logger.Info("Preference table ready", zap.String("table", m.cfg.Table))
	return nil
}

// ValidateSchema checks that the configured columns exist.
func (m *Model) ValidateSchema(ctx context.Context) error {
	missing, err := database.MissingColumns(m.db.WithContext(ctx), m.cfg.Table,
		m.cfg.UserColumn, m.cfg.ItemColumn, m.cfg.PreferenceColumn)
	if err != nil {
		return m.backendError("validate schema", err)
	}
	if len(missing) > 0 {
		return m.backendError("validate schema",
			fmt.Errorf("table %s is missing columns %v", m.cfg.Table, missing))
	}
	return nil
}

func (m *Model) backendError(op string, err error) error {
	if err == nil {
		return nil
	}
	m.logger.Warn("Query failed", zap.String("op", op), zap.Error(err))
	return model.NewBackendError(op, err)
}
