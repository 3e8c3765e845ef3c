package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"net/http/httptest"
	"strings"
	"testing"

	"prefmodel/core/model"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockModel is a testify mock of model.DataModel.
type mockModel struct {
	mock.Mock
}

func (m *mockModel) Users(ctx context.Context) iter.Seq2[*model.User, error] {
	args := m.Called(ctx)
	return args.Get(0).(iter.Seq2[*model.User, error])
}

func (m *mockModel) User(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockModel) Items(ctx context.Context) iter.Seq2[model.Item, error] {
	args := m.Called(ctx)
	return args.Get(0).(iter.Seq2[model.Item, error])
}

func (m *mockModel) Item(ctx context.Context, id string, assumeExists bool) (model.Item, error) {
	args := m.Called(ctx, id, assumeExists)
	return args.Get(0).(model.Item), args.Error(1)
}

func (m *mockModel) PreferencesForItem(ctx context.Context, itemID string) ([]model.Preference, error) {
	args := m.Called(ctx, itemID)
	p, _ := args.Get(0).([]model.Preference)
	return p, args.Error(1)
}

func (m *mockModel) NumUsers(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockModel) NumItems(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockModel) SetPreference(ctx context.Context, userID, itemID string, value float64) error {
	return m.Called(ctx, userID, itemID, value).Error(0)
}

func (m *mockModel) RemovePreference(ctx context.Context, userID, itemID string) error {
	return m.Called(ctx, userID, itemID).Error(0)
}

func (m *mockModel) Refresh(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func snapshot(t *testing.T) *model.Snapshot {
	t.Helper()
	var users []*model.User
	for _, id := range []string{"u1", "u2", "u3"} {
		p1, err := model.NewPreference("", model.NewItem("i1"), 3)
		require.NoError(t, err)
		p2, err := model.NewPreference("", model.NewItem("i2"), 4)
		require.NoError(t, err)
		u, err := model.NewUser(id, []model.Preference{p1, p2})
		require.NoError(t, err)
		users = append(users, u)
	}
	return model.NewSnapshot(users)
}

func setupTestApp(m model.DataModel) *fiber.App {
	app := fiber.New()
	f := NewFeature(m, "test", zap.NewNop())
	_ = f.Load(app)
	return app
}

func decode(t *testing.T, r io.Reader) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r).Decode(&body))
	return body
}

func TestFeature(t *testing.T) {
	f := NewFeature(snapshot(t), "test", nil)
	assert.Equal(t, "preferences", f.Name())
	assert.True(t, f.IsEnabled())
	assert.False(t, NewFeature(nil, "none", nil).IsEnabled())
}

func TestHandleListUsers(t *testing.T) {
	app := setupTestApp(snapshot(t))

	resp, err := app.Test(httptest.NewRequest("GET", "/users?limit=2", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	body := decode(t, resp.Body)
	assert.Equal(t, 2.0, body["count"])

	users := body["users"].([]any)
	first := users[0].(map[string]any)
	assert.Equal(t, "u1", first["id"])
	assert.Len(t, first["preferences"], 2)

	resp, err = app.Test(httptest.NewRequest("GET", "/users?limit=0", nil))
	require.NoError(t, err)
	assert.Equal(t, 3.0, decode(t, resp.Body)["count"])
}

func TestHandleGetUser(t *testing.T) {
	app := setupTestApp(snapshot(t))

	resp, err := app.Test(httptest.NewRequest("GET", "/users/u2", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "u2", decode(t, resp.Body)["id"])

	resp, err = app.Test(httptest.NewRequest("GET", "/users/ghost", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestHandleItems(t *testing.T) {
	app := setupTestApp(snapshot(t))

	resp, err := app.Test(httptest.NewRequest("GET", "/items", nil))
	require.NoError(t, err)
	assert.Equal(t, 2.0, decode(t, resp.Body)["count"])

	resp, err = app.Test(httptest.NewRequest("GET", "/items/i9", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/items/i9?assume_exists=true", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "i9", decode(t, resp.Body)["id"])

	resp, err = app.Test(httptest.NewRequest("GET", "/items/i1/preferences", nil))
	require.NoError(t, err)
	body := decode(t, resp.Body)
	prefs := body["preferences"].([]any)
	require.Len(t, prefs, 3)
	assert.Equal(t, "u1", prefs[0].(map[string]any)["user_id"])
}

func TestHandleStats(t *testing.T) {
	app := setupTestApp(snapshot(t))

	resp, err := app.Test(httptest.NewRequest("GET", "/stats", nil))
	require.NoError(t, err)
	body := decode(t, resp.Body)
	assert.Equal(t, "test", body["backend"])
	assert.Equal(t, 3.0, body["users"])
	assert.Equal(t, 2.0, body["items"])
}

func TestHandleMutations(t *testing.T) {
	m := new(mockModel)
	app := setupTestApp(m)

	m.On("SetPreference", mock.Anything, "u1", "i1", 4.5).Return(nil)
	m.On("RemovePreference", mock.Anything, "u1", "i1").Return(nil)
	m.On("Refresh", mock.Anything).Return(nil)

	req := httptest.NewRequest("PUT", "/users/u1/preferences/i1", strings.NewReader(`{"value": 4.5}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("DELETE", "/users/u1/preferences/i1", nil))
	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("POST", "/refresh", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	req = httptest.NewRequest("PUT", "/users/u1/preferences/i1", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode, "missing value")

	m.AssertExpectations(t)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"NotFound", model.ErrNotFound, 404},
		{"InvalidArgument", model.ErrInvalidArgument, 400},
		{"Unsupported", model.ErrUnsupported, 405},
		{"Backend", model.NewBackendError("count users", errors.New("timeout")), 502},
		{"Other", errors.New("boom"), 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(mockModel)
			m.On("NumUsers", mock.Anything).Return(0, tt.err)
			m.On("NumItems", mock.Anything).Return(0, nil)
			m.On("Refresh", mock.Anything).Return(tt.err)
			app := setupTestApp(m)

			resp, err := app.Test(httptest.NewRequest("GET", "/stats", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			resp, err = app.Test(httptest.NewRequest("POST", "/refresh", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Contains(t, decode(t, resp.Body)["error"], tt.err.Error())
		})
	}
}

func TestHandleListUsers_IterationError(t *testing.T) {
	m := new(mockModel)
	var seq iter.Seq2[*model.User, error] = func(yield func(*model.User, error) bool) {
		yield(nil, model.NewBackendError("list users", errors.New("connection reset")))
	}
	m.On("Users", mock.Anything).Return(seq)
	app := setupTestApp(m)

	resp, err := app.Test(httptest.NewRequest("GET", "/users", nil))
	require.NoError(t, err)
	assert.Equal(t, 502, resp.StatusCode)
}

func TestHandleReadOnlyModel(t *testing.T) {
	app := setupTestApp(snapshot(t))

	resp, err := app.Test(httptest.NewRequest("DELETE", "/users/u1/preferences/i1", nil))
	require.NoError(t, err)
	assert.Equal(t, 405, resp.StatusCode)
}
