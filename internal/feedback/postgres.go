package feedback

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS feedback (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL,
	email       TEXT NOT NULL,
	message     TEXT NOT NULL,
	received_at TIMESTAMPTZ NOT NULL
)`

const insertSQL = `INSERT INTO feedback (id, name, email, message, received_at) VALUES ($1, $2, $3, $4, $5)`

// Execer is the part of *pgxpool.Pool the recorder needs.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresRecorder stores feedback in the feedback table. Only used when the
// operator enables the database.
type PostgresRecorder struct {
	db Execer
}

func NewPostgresRecorder(db Execer) *PostgresRecorder {
	return &PostgresRecorder{db: db}
}

// EnsureSchema creates the feedback table if it does not exist.
func (r *PostgresRecorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create feedback table: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) Record(ctx context.Context, s Submission) (Receipt, error) {
	id := uuid.New()
	now := time.Now().UTC()
	tag, err := r.db.Exec(ctx, insertSQL, id, s.Name, s.Email, s.Message, now)
	if err != nil {
		return Receipt{}, fmt.Errorf("insert feedback: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return Receipt{}, fmt.Errorf("insert feedback: %d rows affected", tag.RowsAffected())
	}
	return Receipt{ID: id.String(), Persisted: true, ReceivedAt: now}, nil
}
