package rows

import (
	"errors"
	"io"

	"prefmodel/core/model"

	"go.uber.org/zap"
)

// GroupAll reads every row of c and groups them by user in memory. Unlike
// UserIterator it does not need the rows sorted. Users come back in order of
// first appearance. The cursor is always closed; a close failure is logged
// and never replaces the result.
func GroupAll(c Cursor, f model.Factory, logger *zap.Logger) ([]*model.User, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Warn("Failed to release cursor", zap.Error(err))
		}
	}()

	var order []string
	data := make(map[string][]model.Preference)
	for {
		r, err := c.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		p, err := buildPreference(f, r)
		if err != nil {
			return nil, err
		}
		if _, ok := data[r.UserID]; !ok {
			order = append(order, r.UserID)
		}
		data[r.UserID] = append(data[r.UserID], p)
	}

	users := make([]*model.User, 0, len(order))
	for _, id := range order {
		u, err := f.BuildUser(id, data[id])
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}
