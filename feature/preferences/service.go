package preferences

import (
	"context"

	"prefmodel/core/model"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Service exposes a data model to the HTTP layer.
type Service struct {
	model   model.DataModel
	backend string
	logger  *zap.Logger
}

// NewService creates a service over m. backend names the model in responses.
func NewService(m model.DataModel, backend string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{model: m, backend: backend, logger: logger}
}

// Stats summarizes the model.
type Stats struct {
	Backend string `json:"backend"`
	Users   int    `json:"users"`
	Items   int    `json:"items"`
}

// ListUsers returns up to limit users; limit <= 0 means all. Stopping early
// releases the backend cursor.
func (s *Service) ListUsers(ctx context.Context, limit int) ([]*model.User, error) {
	var out []*model.User
	for u, err := range s.model.Users(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, u)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// ListItems returns up to limit items; limit <= 0 means all.
func (s *Service) ListItems(ctx context.Context, limit int) ([]model.Item, error) {
	var out []model.Item
	for it, err := range s.model.Items(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, it)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.model.User(ctx, id)
}

func (s *Service) GetItem(ctx context.Context, id string, assumeExists bool) (model.Item, error) {
	return s.model.Item(ctx, id, assumeExists)
}

func (s *Service) PreferencesForItem(ctx context.Context, itemID string) ([]model.Preference, error) {
	return s.model.PreferencesForItem(ctx, itemID)
}

// Stats counts users and items concurrently.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Backend: s.backend}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.model.NumUsers(gctx)
		st.Users = n
		return err
	})
	g.Go(func() error {
		n, err := s.model.NumItems(gctx)
		st.Items = n
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return st, nil
}

func (s *Service) SetPreference(ctx context.Context, userID, itemID string, value float64) error {
	return s.model.SetPreference(ctx, userID, itemID, value)
}

func (s *Service) RemovePreference(ctx context.Context, userID, itemID string) error {
	return s.model.RemovePreference(ctx, userID, itemID)
}

func (s *Service) Refresh(ctx context.Context) error {
	return s.model.Refresh(ctx)
}
