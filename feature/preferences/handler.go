package preferences

import (
	"errors"
	"time"

	"prefmodel/core/logger"
	"prefmodel/core/model"
	"prefmodel/core/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const defaultLimit = 100

// Handler handles HTTP requests for the preference model.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the preference routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/stats", h.HandleStats)
	app.Post("/refresh", h.HandleRefresh)

	users := app.Group("/users")
	users.Get("/", h.HandleListUsers)
	users.Get("/:id", h.HandleGetUser)
	users.Put("/:user/preferences/:item", h.HandleSetPreference)
	users.Delete("/:user/preferences/:item", h.HandleRemovePreference)

	items := app.Group("/items")
	items.Get("/", h.HandleListItems)
	items.Get("/:id", h.HandleGetItem)
	items.Get("/:id/preferences", h.HandleItemPreferences)
}

type itemResponse struct {
	ID            string `json:"id"`
	Title         string `json:"title,omitempty"`
	Recommendable bool   `json:"recommendable"`
}

type preferenceResponse struct {
	UserID    string     `json:"user_id,omitempty"`
	ItemID    string     `json:"item_id"`
	Value     float64    `json:"value"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

type userResponse struct {
	ID          string               `json:"id"`
	Preferences []preferenceResponse `json:"preferences"`
}

type setPreferenceRequest struct {
	Value *float64 `json:"value"`
}

func toItem(it model.Item) itemResponse {
	return itemResponse{ID: it.ID, Title: it.Title, Recommendable: it.Recommendable}
}

func toPreference(p model.Preference, withUser bool) preferenceResponse {
	out := preferenceResponse{ItemID: p.Item.ID, Value: p.Value}
	if withUser {
		out.UserID = p.UserID
	}
	if !p.Timestamp.IsZero() {
		ts := p.Timestamp
		out.Timestamp = &ts
	}
	return out
}

func toUser(u *model.User) userResponse {
	out := userResponse{ID: u.ID(), Preferences: make([]preferenceResponse, 0, u.Len())}
	for p := range u.All() {
		out.Preferences = append(out.Preferences, toPreference(p, false))
	}
	return out
}

// statusFor maps model errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, model.ErrInvalidArgument):
		return fiber.StatusBadRequest
	case errors.Is(err, model.ErrUnsupported):
		return fiber.StatusMethodNotAllowed
	case errors.Is(err, model.ErrBackend):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *Handler) fail(c *fiber.Ctx, msg string, err error) error {
	status := statusFor(err)
	l := logger.WithRayID(h.service.logger, c)
	if status >= fiber.StatusInternalServerError {
		l.Error(msg, zap.Error(err))
	} else {
		l.Debug(msg, zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// HandleListUsers lists users with their preferences.
func (h *Handler) HandleListUsers(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.Context(), c.QueryInt("limit", defaultLimit))
	if err != nil {
		return h.fail(c, "Failed to list users", err)
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUser(u))
	}
	return c.JSON(fiber.Map{"users": out, "count": len(out)})
}

// HandleGetUser returns one user.
func (h *Handler) HandleGetUser(c *fiber.Ctx) error {
	u, err := h.service.GetUser(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, "Failed to get user", err)
	}
	return c.JSON(toUser(u))
}

// HandleListItems lists items.
func (h *Handler) HandleListItems(c *fiber.Ctx) error {
	items, err := h.service.ListItems(c.Context(), c.QueryInt("limit", defaultLimit))
	if err != nil {
		return h.fail(c, "Failed to list items", err)
	}
	out := make([]itemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toItem(it))
	}
	return c.JSON(fiber.Map{"items": out, "count": len(out)})
}

// HandleGetItem returns one item. ?assume_exists=true skips the lookup.
func (h *Handler) HandleGetItem(c *fiber.Ctx) error {
	assume := utils.ToBool(c.Query("assume_exists"))
	it, err := h.service.GetItem(c.Context(), c.Params("id"), assume)
	if err != nil {
		return h.fail(c, "Failed to get item", err)
	}
	return c.JSON(toItem(it))
}

// HandleItemPreferences returns every preference for an item, ordered by user.
func (h *Handler) HandleItemPreferences(c *fiber.Ctx) error {
	prefs, err := h.service.PreferencesForItem(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, "Failed to get item preferences", err)
	}
	out := make([]preferenceResponse, 0, len(prefs))
	for _, p := range prefs {
		out = append(out, toPreference(p, true))
	}
	return c.JSON(fiber.Map{"item_id": c.Params("id"), "preferences": out})
}

// HandleStats returns user and item counts.
func (h *Handler) HandleStats(c *fiber.Ctx) error {
	st, err := h.service.Stats(c.Context())
	if err != nil {
		return h.fail(c, "Failed to count", err)
	}
	return c.JSON(st)
}

// HandleSetPreference stores a preference from a {"value": n} body.
func (h *Handler) HandleSetPreference(c *fiber.Ctx) error {
	var req setPreferenceRequest
	if err := c.BodyParser(&req); err != nil || req.Value == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "body must be {\"value\": <number>}"})
	}
	userID, itemID := c.Params("user"), c.Params("item")
	if err := h.service.SetPreference(c.Context(), userID, itemID, *req.Value); err != nil {
		return h.fail(c, "Failed to set preference", err)
	}
	logger.WithRayID(h.service.logger, c).Info("Preference set",
		zap.String("user_id", userID),
		zap.String("item_id", itemID),
		zap.Float64("value", *req.Value),
	)
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleRemovePreference deletes a preference.
func (h *Handler) HandleRemovePreference(c *fiber.Ctx) error {
	userID, itemID := c.Params("user"), c.Params("item")
	if err := h.service.RemovePreference(c.Context(), userID, itemID); err != nil {
		return h.fail(c, "Failed to remove preference", err)
	}
	logger.WithRayID(h.service.logger, c).Info("Preference removed",
		zap.String("user_id", userID),
		zap.String("item_id", itemID),
	)
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleRefresh asks the model to pick up external changes.
func (h *Handler) HandleRefresh(c *fiber.Ctx) error {
	if err := h.service.Refresh(c.Context()); err != nil {
		return h.fail(c, "Refresh failed", err)
	}
	return c.JSON(fiber.Map{"status": "refreshed"})
}
