package preferences

import (
	"prefmodel/core/model"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature exposes a data model over HTTP.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the preferences feature over m.
func NewFeature(m model.DataModel, backend string, logger *zap.Logger) *Feature {
	svc := NewService(m, backend, logger)
	return &Feature{service: svc, handler: NewHandler(svc)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "preferences"
}

// IsEnabled reports whether a model is attached.
func (f *Feature) IsEnabled() bool {
	return f.service.model != nil
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
