package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-journal-go/internal/connection/entity"
)

// ConnectionRepo stores connections in PostgreSQL using sqlx.
type ConnectionRepo struct {
	db *sqlx.DB
}

func NewConnectionRepo(db *sqlx.DB) *ConnectionRepo { return &ConnectionRepo{db: db} }

// EnsureTable creates the connections table if not exists (idempotent).
func (r *ConnectionRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS connections (
  id VARCHAR(32) PRIMARY KEY,
  user_id TEXT NOT NULL,
  type TEXT NOT NULL,
  value TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  CONSTRAINT uq_connections_user_type UNIQUE (user_id, type)
);
CREATE INDEX IF NOT EXISTS idx_connections_user_id ON connections(user_id);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// Upsert inserts the row or replaces the value of the existing (user_id, type) row.
// Concurrent upserts of the same pair resolve last-writer-wins.
func (r *ConnectionRepo) Upsert(ctx context.Context, c *entity.Connection) error {
	const q = `INSERT INTO connections (id, user_id, type, value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, type) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
		RETURNING id, created_at, updated_at`
	return r.db.QueryRowxContext(ctx, q, c.ID, c.UserID, c.Type, c.Value).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// Find returns the connection of one type, or nil when the user has none.
func (r *ConnectionRepo) Find(ctx context.Context, userID string, t entity.Type) (*entity.Connection, error) {
	const q = `SELECT id, user_id, type, value, created_at, updated_at
		FROM connections WHERE user_id=$1 AND type=$2`
	var c entity.Connection
	if err := r.db.GetContext(ctx, &c, q, userID, t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// ListByUser returns all connections of a user ordered by type.
func (r *ConnectionRepo) ListByUser(ctx context.Context, userID string) ([]*entity.Connection, error) {
	const q = `SELECT id, user_id, type, value, created_at, updated_at
		FROM connections WHERE user_id=$1 ORDER BY type`
	rows := []*entity.Connection{}
	if err := r.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, err
	}
	return rows, nil
}

// Delete removes the (user_id, type) row. Deleting a missing row is not an error.
func (r *ConnectionRepo) Delete(ctx context.Context, userID string, t entity.Type) error {
	const q = `DELETE FROM connections WHERE user_id=$1 AND type=$2`
	_, err := r.db.ExecContext(ctx, q, userID, t)
	return err
}
