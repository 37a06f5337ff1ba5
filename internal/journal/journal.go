// Package journal persists one row per execution attempt so duplicate and
// ambiguous outcomes can be reconciled against account state afterwards.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

const schema = `
CREATE TABLE IF NOT EXISTS executions (
	operation_id UUID PRIMARY KEY,
	operation    TEXT NOT NULL,
	path         TEXT NOT NULL,
	owner        TEXT NOT NULL,
	signature    TEXT NOT NULL DEFAULT '',
	outcome      TEXT NOT NULL,
	detail       TEXT NOT NULL DEFAULT '',
	submitted_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS executions_owner_idx ON executions (owner, submitted_at);
`

// Entry is one execution attempt, terminal outcome included.
type Entry struct {
	OperationID uuid.UUID
	Operation   string
	Path        string
	Owner       string
	Signature   string
	Outcome     string
	Detail      string
	SubmittedAt time.Time
}

// Writer appends execution entries to Postgres.
type Writer struct {
	db  *sql.DB
	log zerolog.Logger
}

func Open(dsn string, log zerolog.Logger) (*Writer, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	return &Writer{db: db, log: log}, nil
}

func (w *Writer) EnsureSchema(ctx context.Context) error {
	if _, err := w.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure journal schema: %w", err)
	}
	return nil
}

func (w *Writer) Record(ctx context.Context, e Entry) error {
	const q = `
		INSERT INTO executions (operation_id, operation, path, owner, signature, outcome, detail, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (operation_id) DO NOTHING`
	_, err := w.db.ExecContext(ctx, q,
		e.OperationID, e.Operation, e.Path, e.Owner, e.Signature, e.Outcome, e.Detail, e.SubmittedAt)
	if err != nil {
		return fmt.Errorf("record execution %s: %w", e.OperationID, err)
	}
	return nil
}

func (w *Writer) Close() error { return w.db.Close() }
