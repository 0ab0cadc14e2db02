package pgsnapshot

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  external_id TEXT NOT NULL,
  phone TEXT NOT NULL,
  name TEXT NOT NULL,
  role TEXT NOT NULL,
  total_kg DOUBLE PRECISION NOT NULL DEFAULT 0,
  total_spent BIGINT NOT NULL DEFAULT 0,
  created_at TIMESTAMPTZ NOT NULL
)`,
		`
CREATE TABLE IF NOT EXISTS shipments (
  id TEXT PRIMARY KEY,
  position INT NOT NULL,
  user_id TEXT NOT NULL,
  track_number TEXT NOT NULL,
  weight DOUBLE PRECISION NOT NULL DEFAULT 0,
  price BIGINT NOT NULL DEFAULT 0,
  status TEXT NOT NULL,
  payment_status TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_shipments_position ON shipments(position)`,
		// Одна строка: текущий пользователь и настройки.
		`
CREATE TABLE IF NOT EXISTS session_state (
  id SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
  current_user_id TEXT NULL,
  lang TEXT NOT NULL DEFAULT 'uz',
  theme TEXT NOT NULL DEFAULT 'light'
)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
