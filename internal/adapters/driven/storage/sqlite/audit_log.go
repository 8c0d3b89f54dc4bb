package sqlite

import (
	"encoding/json"
	"time"

	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
)

// Ensure auditLog implements the interface.
var _ driven.EventLogger = (*auditLog)(nil)

// auditLog is the durable event sink. Rows are insert-only; a failed
// insert is swallowed because logging must never fail the caller.
type auditLog struct {
	store *Store
}

// AuditLog returns an EventLogger persisting events to the audit_log table.
func (s *Store) AuditLog() driven.EventLogger {
	return &auditLog{store: s}
}

// Log records one event. Insert failures are dropped.
func (a *auditLog) Log(event driven.Event) {
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	details := "{}"
	if len(event.Details) > 0 {
		if data, err := json.Marshal(event.Details); err == nil {
			details = string(data)
		}
	}

	_, _ = a.store.db.Exec(`
		INSERT INTO audit_log (level, source, action, message, correlation_id, tenant_id, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(event.Level), event.Source, event.Action, event.Message,
		event.CorrelationID, event.TenantID, details, ts,
	)
}

// CountAuditEvents returns the number of audit rows for a correlation ID.
func (s *Store) CountAuditEvents(correlationID string) (int, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM audit_log WHERE correlation_id = ?", correlationID,
	).Scan(&count)
	return count, err
}
