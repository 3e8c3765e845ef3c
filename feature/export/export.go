package export

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"prefmodel/core/model"

	"go.uber.org/zap"
)

// Result reports what an export wrote.
type Result struct {
	Users int `json:"users"`
	Items int `json:"items"`
	Keys  int `json:"keys"`
}

// Exporter copies a model into a key-value store using the layout read by
// collaborative-filtering recall:
//
//	{prefix}:user:{id}  JSON object item id -> value
//	{prefix}:item:{id}  JSON object user id -> value
//	{prefix}:users      JSON array of user ids
//	{prefix}:items      JSON array of item ids
type Exporter struct {
	w      Writer
	cfg    Config
	logger *zap.Logger
}

// NewExporter creates an exporter writing to w.
func NewExporter(w Writer, cfg Config, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "cf"
	}
	return &Exporter{w: w, cfg: cfg, logger: logger}
}

func (e *Exporter) key(kind, id string) string {
	if id == "" {
		return e.cfg.Prefix + ":" + kind
	}
	return e.cfg.Prefix + ":" + kind + ":" + id
}

// Export makes one pass over the users of m, writing user keys as it goes and
// item keys at the end.
func (e *Exporter) Export(ctx context.Context, m model.DataModel) (Result, error) {
	var (
		res     Result
		userIDs []string
		byItem  = make(map[string]map[string]float64)
		batch   = make(map[string][]byte, e.cfg.BatchSize)
	)
	ttl := time.Duration(e.cfg.TTLSeconds) * time.Second

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := e.w.BatchSet(ctx, batch, ttl); err != nil {
			return model.NewBackendError("export batch", err)
		}
		res.Keys += len(batch)
		batch = make(map[string][]byte, e.cfg.BatchSize)
		return nil
	}
	put := func(key string, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		batch[key] = data
		if len(batch) >= e.cfg.BatchSize {
			return flush()
		}
		return nil
	}

	for u, err := range m.Users(ctx) {
		if err != nil {
			return res, err
		}
		prefs := make(map[string]float64, u.Len())
		for p := range u.All() {
			prefs[p.Item.ID] = p.Value
			users, ok := byItem[p.Item.ID]
			if !ok {
				users = make(map[string]float64)
				byItem[p.Item.ID] = users
			}
			users[u.ID()] = p.Value
		}
		if err := put(e.key("user", u.ID()), prefs); err != nil {
			return res, err
		}
		userIDs = append(userIDs, u.ID())
		res.Users++
	}

	itemIDs := make([]string, 0, len(byItem))
	for id := range byItem {
		itemIDs = append(itemIDs, id)
	}
	sort.Strings(itemIDs)
	for _, id := range itemIDs {
		if err := put(e.key("item", id), byItem[id]); err != nil {
			return res, err
		}
		res.Items++
	}

	if err := put(e.key("users", ""), userIDs); err != nil {
		return res, err
	}
	if err := put(e.key("items", ""), itemIDs); err != nil {
		return res, err
	}
	if err := flush(); err != nil {
		return res, err
	}

	e.logger.Info("Export complete",
		zap.Int("users", res.Users),
		zap.Int("items", res.Items),
		zap.Int("keys", res.Keys),
	)
	return res, nil
}
