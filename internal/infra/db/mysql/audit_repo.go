package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/bryanwahyu/homefix-vision/internal/domain/audit"
)

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

const insertAuditSQL = `
INSERT INTO analysis_audit
  (id, request_id, mode, image_count, outcome, detail, strategy, provider, model, duration_ms, result_json, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  outcome=VALUES(outcome), detail=VALUES(detail), result_json=VALUES(result_json);
`

// Save inserts an audit record
func (r *AuditRepository) Save(ctx context.Context, a *audit.Record) error {
	_, err := r.db.ExecContext(ctx, insertAuditSQL, auditArgs(a)...)
	return err
}

// auditArgs lists the values in the column order of insertAuditSQL.
func auditArgs(a *audit.Record) []any {
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return []any{
		string(a.ID),
		stringOrDash(a.RequestID),
		a.Mode,
		a.ImageCount,
		a.Outcome,
		nullString(a.Detail),
		nullString(a.Strategy),
		a.Provider,
		a.Model,
		a.DurationMS,
		nullString(a.Result),
		createdAt.UTC(),
	}
}
