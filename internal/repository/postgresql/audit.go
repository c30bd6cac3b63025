package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/audit"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/database"
)

type auditSinkImpl struct {
	db *database.DB
}

// NewAuditSink persists audit envelopes to audit_logs.
func NewAuditSink(db *database.DB) audit.Sink {
	return &auditSinkImpl{db: db}
}

func (s *auditSinkImpl) Write(ctx context.Context, env audit.Envelope) error {
	var before any
	if len(env.BeforeJSON) > 0 {
		before = string(env.BeforeJSON)
	}

	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO audit_logs (id, actor, action, table_name, record_id, before_json, after_json, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7::jsonb, $8)`,
		env.ID, env.Actor, env.Action, env.TableName, env.RecordID, before, string(env.AfterJSON), env.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", wrapStorageErr(err))
	}
	return nil
}
