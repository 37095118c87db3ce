package repo

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-journal-go/internal/connection/entity"
)

var columns = []string{"id", "user_id", "type", "value", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (*ConnectionRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewConnectionRepo(sqlx.NewDb(db, "postgres")), mock
}

func TestEnsureTable(t *testing.T) {
	r, mock := newMockRepo(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS connections").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, r.EnsureTable(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert(t *testing.T) {
	r, mock := newMockRepo(t)
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)

	mock.ExpectQuery(`INSERT INTO connections .* ON CONFLICT \(user_id, type\) DO UPDATE`).
		WithArgs("new-id", "42", "STEAM", "iv:tag:ct").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("existing-id", created, updated))

	c := &entity.Connection{ID: "new-id", UserID: "42", Type: entity.TypeSteam, Value: "iv:tag:ct"}
	require.NoError(t, r.Upsert(context.Background(), c))

	// the conflicting row keeps its original id
	assert.Equal(t, "existing-id", c.ID)
	assert.Equal(t, created, c.CreatedAt)
	assert.Equal(t, updated, c.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFind(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT id, user_id, type, value, created_at, updated_at\\s+FROM connections WHERE user_id=").
		WithArgs("42", "PSN").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("1", "42", "PSN", "iv:tag:ct", now, now))

	c, err := r.Find(context.Background(), "42", entity.TypePSN)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, entity.TypePSN, c.Type)
	assert.Equal(t, "iv:tag:ct", c.Value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFind_Missing(t *testing.T) {
	r, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT .* FROM connections").
		WithArgs("42", "STEAM_FAMILY").
		WillReturnError(sql.ErrNoRows)

	c, err := r.Find(context.Background(), "42", entity.TypeSteamFamily)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestListByUser(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .* FROM connections WHERE user_id=\\$1 ORDER BY type").
		WithArgs("42").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("1", "42", "STEAM", "a:b:c", now, now).
			AddRow("2", "42", "STEAM_FAMILY", "1,2", now, now))

	rows, err := r.ListByUser(context.Background(), "42")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, entity.TypeSteam, rows[0].Type)
	assert.Equal(t, "1,2", rows[1].Value)
}

func TestListByUser_Empty(t *testing.T) {
	r, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT .* FROM connections").
		WithArgs("42").
		WillReturnRows(sqlmock.NewRows(columns))

	rows, err := r.ListByUser(context.Background(), "42")
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestDelete(t *testing.T) {
	r, mock := newMockRepo(t)
	mock.ExpectExec("DELETE FROM connections WHERE user_id=\\$1 AND type=\\$2").
		WithArgs("42", "STEAM").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.Delete(context.Background(), "42", entity.TypeSteam))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_Error(t *testing.T) {
	r, mock := newMockRepo(t)
	boom := errors.New("connection reset")
	mock.ExpectExec("DELETE FROM connections").WillReturnError(boom)

	assert.ErrorIs(t, r.Delete(context.Background(), "42", entity.TypePSN), boom)
}
