package sqlmodel_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"prefmodel/core/model"
	"prefmodel/feature/sqlmodel"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var errConnReset = errors.New("connection reset by peer")

func setupMockDB(t *testing.T) (*sqlmodel.Model, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})
	gdb, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return sqlmodel.New(gdb, sqlmodel.Config{}, nil, model.Factory{}), mock
}

func preferenceRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"item_id", "preference", "user_id"})
}

func TestModel_UsersQueryOrder(t *testing.T) {
	m, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT `item_id`,`preference`,`user_id` FROM `taste_preferences` ORDER BY `user_id`,`item_id`").
		WillReturnRows(preferenceRows().
			AddRow("i1", 3.0, "u1").
			AddRow("i2", []byte("4.5"), "u1").
			AddRow("i1", int64(5), int64(2))).
		RowsWillBeClosed()

	users, err := model.Collect(m.Users(context.Background()))
	require.NoError(t, err)
	require.Len(t, users, 2)
	p, _ := users[0].PreferenceFor("i2")
	assert.Equal(t, 4.5, p.Value)
	assert.Equal(t, "2", users[1].ID())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModel_UsersFailures(t *testing.T) {
	t.Run("query", func(t *testing.T) {
		m, mock := setupMockDB(t)
		mock.ExpectQuery("SELECT .* FROM `taste_preferences`").WillReturnError(errConnReset)

		_, err := model.Collect(m.Users(context.Background()))
		assert.ErrorIs(t, err, model.ErrBackend)
		assert.ErrorIs(t, err, errConnReset)
	})

	t.Run("mid stream", func(t *testing.T) {
		m, mock := setupMockDB(t)
		mock.ExpectQuery("SELECT .* FROM `taste_preferences`").
			WillReturnRows(preferenceRows().
				AddRow("i1", 3.0, "u1").
				AddRow("i1", 1.0, "u2").
				AddRow("i2", 2.0, "u2").
				AddRow("i1", 2.0, "u3").
				RowError(2, errConnReset)).
			RowsWillBeClosed()

		users, err := model.Collect(m.Users(context.Background()))
		assert.ErrorIs(t, err, model.ErrBackend)
		assert.ErrorIs(t, err, errConnReset)
		assert.Len(t, users, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("bad value", func(t *testing.T) {
		m, mock := setupMockDB(t)
		mock.ExpectQuery("SELECT .* FROM `taste_preferences`").
			WillReturnRows(preferenceRows().AddRow("i1", "lots", "u1"))

		_, err := model.Collect(m.Users(context.Background()))
		assert.ErrorIs(t, err, model.ErrBackend)
	})
}

func TestModel_UserQuery(t *testing.T) {
	m, mock := setupMockDB(t)
	mock.ExpectQuery("SELECT `item_id`,`preference`,`user_id` FROM `taste_preferences` WHERE `user_id` = \\? ORDER BY `item_id`").
		WithArgs("u1").
		WillReturnRows(preferenceRows().AddRow("i1", 3.0, "u1")).
		RowsWillBeClosed()

	u, err := m.User(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, u.Len())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModel_Counts(t *testing.T) {
	m, mock := setupMockDB(t)
	mock.ExpectQuery("SELECT COUNT\\(DISTINCT.*`user_id`.*FROM `taste_preferences`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(17))
	mock.ExpectQuery("SELECT COUNT\\(DISTINCT.*`item_id`.*FROM `taste_preferences`").
		WillReturnError(errConnReset)

	n, err := m.NumUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 17, n)

	_, err = m.NumItems(context.Background())
	assert.ErrorIs(t, err, model.ErrBackend)
	var be *model.BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "count items", be.Op)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModel_ItemProbe(t *testing.T) {
	m, mock := setupMockDB(t)
	mock.ExpectQuery("SELECT `item_id` FROM `taste_preferences` WHERE `item_id` = \\? LIMIT").
		WillReturnRows(sqlmock.NewRows([]string{"item_id"}))

	_, err := m.Item(context.Background(), "i9", false)
	assert.ErrorIs(t, err, model.ErrNotFound)

	// assumeExists never touches the database
	item, err := m.Item(context.Background(), "i9", true)
	require.NoError(t, err)
	assert.Equal(t, "i9", item.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModel_SetPreferenceUpsert(t *testing.T) {
	m, mock := setupMockDB(t)
	mock.ExpectExec("INSERT INTO `taste_preferences` .* ON DUPLICATE KEY UPDATE `preference`=VALUES\\(`preference`\\)").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `taste_preferences`").WillReturnError(errConnReset)

	require.NoError(t, m.SetPreference(context.Background(), "u1", "i1", 3.5))
	err := m.SetPreference(context.Background(), "u1", "i1", 3.5)
	assert.ErrorIs(t, err, model.ErrBackend)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModel_RemovePreference(t *testing.T) {
	m, mock := setupMockDB(t)
	mock.ExpectExec("DELETE FROM `taste_preferences` WHERE `user_id` = \\? AND `item_id` = \\?").
		WithArgs("u1", "i1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, m.RemovePreference(context.Background(), "u1", "i1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModel_NoQueryOnInvalidInput(t *testing.T) {
	m, mock := setupMockDB(t)
	ctx := context.Background()

	assert.ErrorIs(t, m.SetPreference(ctx, "u1", "i1", math.NaN()), model.ErrInvalidArgument)
	assert.ErrorIs(t, m.RemovePreference(ctx, "", "i1"), model.ErrInvalidArgument)
	assert.NoError(t, mock.ExpectationsWereMet())
}
