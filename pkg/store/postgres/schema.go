package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// bootstrapLock is the advisory lock key serializing concurrent bootstraps
const bootstrapLock = 0x63_74_78_6d_6f_6e // "ctxmon"

type tables struct {
	schema    string
	revisions string
	branches  string
}

func newTables(schema string) tables {
	return tables{
		schema:    pgx.Identifier{schema}.Sanitize(),
		revisions: pgx.Identifier{schema, "revisions"}.Sanitize(),
		branches:  pgx.Identifier{schema, "branches"}.Sanitize(),
	}
}

// EnsureSchema creates the tables if they do not exist
func (s *Store) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE SCHEMA IF NOT EXISTS %[1]s;

CREATE TABLE IF NOT EXISTS %[2]s (
  id TEXT PRIMARY KEY,
  parent_id TEXT REFERENCES %[2]s(id),
  depth INT NOT NULL CHECK (depth >= 0),
  content JSONB NOT NULL,
  message TEXT NOT NULL DEFAULT '',
  author TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS revisions_parent_idx ON %[2]s(parent_id);

CREATE TABLE IF NOT EXISTS %[3]s (
  name TEXT PRIMARY KEY,
  revision_id TEXT NOT NULL REFERENCES %[2]s(id)
);`, s.t.schema, s.t.revisions, s.t.branches)

	_, err := s.pool.Exec(ctx, ddl)
	return err
}
