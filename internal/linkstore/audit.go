package linkstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/sheetdocs/internal/core"
)

var (
	_ core.AuditSink   = (*Postgres)(nil)
	_ core.AuditReader = (*Postgres)(nil)
)

const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_log (
	seq           BIGSERIAL   PRIMARY KEY,
	id            TEXT        NOT NULL UNIQUE,
	action        TEXT        NOT NULL,
	severity      TEXT        NOT NULL,
	table_key     TEXT        NOT NULL DEFAULT '',
	row_key       TEXT        NOT NULL DEFAULT '',
	ip_address    TEXT        NOT NULL DEFAULT '',
	user_agent    TEXT        NOT NULL DEFAULT '',
	old_values    JSONB,
	new_values    JSONB,
	rows_affected INTEGER     NOT NULL DEFAULT 0,
	reason        TEXT        NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS audit_log_table_idx ON audit_log (table_key, seq DESC)`

const auditColumns = `id, action, severity, table_key, row_key, ip_address, user_agent,
	old_values, new_values, rows_affected, reason, created_at`

// Append stores an audit entry.
func (p *Postgres) Append(ctx context.Context, e core.AuditEntry) error {
	oldValues, err := marshalValues(e.OldValues)
	if err != nil {
		return err
	}
	newValues, err := marshalValues(e.NewValues)
	if err != nil {
		return err
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO audit_log (`+auditColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		e.ID, string(e.Action), string(e.Severity), e.TableKey, e.RowKey, e.IPAddress, e.UserAgent,
		oldValues, newValues, e.RowsAffected, e.Reason, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry %s: %w", e.ID, err)
	}
	return nil
}

// List returns matching audit entries, newest first.
func (p *Postgres) List(ctx context.Context, filter core.AuditLogFilter) ([]core.AuditEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = core.DefaultHistoryLimit
	}

	rows, err := p.pool.Query(ctx, `
		SELECT `+auditColumns+`
		FROM audit_log
		WHERE ($1 = '' OR table_key = $1) AND ($2 = '' OR action = $2)
		ORDER BY seq DESC
		LIMIT $3 OFFSET $4`,
		filter.TableKey, string(filter.Action), limit, filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}

	entries, err := pgx.CollectRows(rows, scanAuditEntry)
	if err != nil {
		return nil, fmt.Errorf("scan audit log: %w", err)
	}
	return entries, nil
}

func scanAuditEntry(row pgx.CollectableRow) (core.AuditEntry, error) {
	var (
		e                    core.AuditEntry
		action, severity     string
		oldValues, newValues []byte
	)
	err := row.Scan(&e.ID, &action, &severity, &e.TableKey, &e.RowKey, &e.IPAddress, &e.UserAgent,
		&oldValues, &newValues, &e.RowsAffected, &e.Reason, &e.CreatedAt)
	if err != nil {
		return e, err
	}
	e.Action = core.AuditAction(action)
	e.Severity = core.AuditSeverity(severity)
	if e.OldValues, err = unmarshalValues(oldValues); err != nil {
		return e, err
	}
	if e.NewValues, err = unmarshalValues(newValues); err != nil {
		return e, err
	}
	return e, nil
}

// marshalValues encodes a row for a JSONB column; an empty row is NULL.
func marshalValues(r core.Record) ([]byte, error) {
	if len(r) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode audit values: %w", err)
	}
	return b, nil
}

func unmarshalValues(b []byte) (core.Record, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var r core.Record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("decode audit values: %w", err)
	}
	return r, nil
}
