package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Audit events written by the authorization core.
const (
	EventRoleAssigned = "role.assigned"
	EventRoleRevoked  = "role.revoked"
)

// Entry represents a record stored in audit_logs.
type Entry struct {
	SubjectType string
	SubjectID   string
	CauserType  string
	CauserID    int64
	Event       string
	Description string
	Properties  map[string]any
	At          time.Time
}

// Logger writes append-only records into audit_logs.
type Logger struct {
	pool *pgxpool.Pool
}

// NewLogger returns a new Logger.
func NewLogger(pool *pgxpool.Pool) *Logger {
	return &Logger{pool: pool}
}

const insertEntry = `INSERT INTO audit_logs (subject_type, subject_id, causer_type, causer_id, event, description, properties, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE(NULLIF($8, '0001-01-01 00:00:00'::timestamptz), NOW()))`

// Record persists the entry using the pool.
func (l *Logger) Record(ctx context.Context, entry Entry) error {
	if l == nil || l.pool == nil {
		return errors.New("audit logger not initialised")
	}
	props, err := marshalProps(entry)
	if err != nil {
		return err
	}
	_, err = l.pool.Exec(ctx, insertEntry, entry.SubjectType, entry.SubjectID, entry.CauserType, entry.CauserID, entry.Event, entry.Description, props, entry.At)
	return err
}

// RecordTx persists the entry inside the caller's transaction so the audit
// write commits or rolls back together with the data change.
func (l *Logger) RecordTx(ctx context.Context, tx pgx.Tx, entry Entry) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	props, err := marshalProps(entry)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, insertEntry, entry.SubjectType, entry.SubjectID, entry.CauserType, entry.CauserID, entry.Event, entry.Description, props, entry.At)
	return err
}

func marshalProps(entry Entry) ([]byte, error) {
	if entry.Event == "" || entry.SubjectType == "" || entry.SubjectID == "" {
		return nil, errors.New("audit entry requires event/subject_type/subject_id")
	}
	props := entry.Properties
	if props == nil {
		props = map[string]any{}
	}
	return json.Marshal(props)
}
