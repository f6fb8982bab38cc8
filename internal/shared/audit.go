package shared

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/nocdesk/nocdesk/internal/platform/db"
)

// AuditLog represents a record stored in audit_logs.
type AuditLog struct {
	Actor    string
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// AuditLogger writes records into audit_logs.
type AuditLogger struct {
	db     db.Execer
	logger *slog.Logger
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(conn db.Execer, logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{db: conn, logger: logger}
}

// Record persists the log entry. The actor defaults to the one stored in ctx.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil || l.db == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("audit log requires action/entity/entity_id")
	}
	if log.Actor == "" {
		log.Actor = ActorFromContext(ctx)
	}
	if log.At.IsZero() {
		log.At = time.Now().UTC()
	}
	if log.Meta == nil {
		log.Meta = map[string]any{}
	}
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	_, err = l.db.Exec(ctx, `INSERT INTO audit_logs (actor, action, entity, entity_id, meta, occurred_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		log.Actor, log.Action, log.Entity, log.EntityID, metaJSON, log.At)
	return err
}

// Track records the entry and logs failures instead of returning them, for
// callers whose operation already succeeded.
func (l *AuditLogger) Track(ctx context.Context, log AuditLog) {
	if l == nil {
		return
	}
	if err := l.Record(ctx, log); err != nil {
		l.logger.Warn("audit log", slog.String("action", log.Action), slog.String("entity_id", log.EntityID), slog.Any("error", err))
	}
}
