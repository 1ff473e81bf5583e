package postgres

import (
	"context"
	"database/sql"
	"strings"
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
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (id) DO UPDATE SET
  outcome=EXCLUDED.outcome,
  detail=EXCLUDED.detail,
  result_json=EXCLUDED.result_json;
`

// Save inserts or updates an audit record
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
	requestID := a.RequestID
	if strings.TrimSpace(requestID) == "" {
		requestID = "-"
	}
	return []any{
		string(a.ID),
		requestID,
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

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: strings.TrimSpace(s) != ""}
}
