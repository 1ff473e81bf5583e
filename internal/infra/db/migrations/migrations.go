package migrations

import (
	"database/sql"
	"fmt"

	migrate "github.com/rubenv/sql-migrate"
)

const table = "analysis_audit_migrations"

var sources = map[string]*migrate.MemoryMigrationSource{
	"mysql": {Migrations: []*migrate.Migration{{
		Id: "0001_analysis_audit",
		Up: []string{`
CREATE TABLE IF NOT EXISTS analysis_audit (
  id           CHAR(36)     NOT NULL PRIMARY KEY,
  request_id   VARCHAR(64)  NOT NULL,
  mode         VARCHAR(16)  NOT NULL,
  image_count  INT          NOT NULL,
  outcome      VARCHAR(32)  NOT NULL,
  detail       TEXT         NULL,
  strategy     VARCHAR(16)  NULL,
  provider     VARCHAR(16)  NOT NULL,
  model        VARCHAR(64)  NOT NULL,
  duration_ms  BIGINT       NOT NULL,
  result_json  JSON         NULL,
  created_at   DATETIME(3)  NOT NULL,
  INDEX idx_analysis_audit_created (created_at),
  INDEX idx_analysis_audit_outcome (outcome)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
		Down: []string{`DROP TABLE IF EXISTS analysis_audit`},
	}}},
	"postgres": {Migrations: []*migrate.Migration{{
		Id: "0001_analysis_audit",
		Up: []string{`
CREATE TABLE IF NOT EXISTS analysis_audit (
  id           UUID         PRIMARY KEY,
  request_id   VARCHAR(64)  NOT NULL,
  mode         VARCHAR(16)  NOT NULL,
  image_count  INT          NOT NULL,
  outcome      VARCHAR(32)  NOT NULL,
  detail       TEXT,
  strategy     VARCHAR(16),
  provider     VARCHAR(16)  NOT NULL,
  model        VARCHAR(64)  NOT NULL,
  duration_ms  BIGINT       NOT NULL,
  result_json  JSONB,
  created_at   TIMESTAMPTZ  NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS idx_analysis_audit_created ON analysis_audit (created_at)`,
			`CREATE INDEX IF NOT EXISTS idx_analysis_audit_outcome ON analysis_audit (outcome)`,
		},
		Down: []string{`DROP TABLE IF EXISTS analysis_audit`},
	}}},
}

// Source returns the migrations for a dialect ("mysql" or "postgres").
func Source(dialect string) (*migrate.MemoryMigrationSource, error) {
	src, ok := sources[dialect]
	if !ok {
		return nil, fmt.Errorf("no migrations for dialect %q", dialect)
	}
	return src, nil
}

// Up applies pending migrations and returns how many ran.
func Up(db *sql.DB, dialect string) (int, error) {
	src, err := Source(dialect)
	if err != nil {
		return 0, err
	}
	ms := migrate.MigrationSet{TableName: table}
	n, err := ms.Exec(db, dialect, src, migrate.Up)
	if err != nil {
		return n, fmt.Errorf("migrate %s: %w", dialect, err)
	}
	return n, nil
}
