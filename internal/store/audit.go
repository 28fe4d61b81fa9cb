package store

import (
	"context"
	"fmt"

	"polycare/m/domain"
)

const auditColumns = `id, pharmacist_name, action, medicine_name, batch_number, quantity_changed, details, timestamp`

func (s *Store) AppendAudit(ctx context.Context, e *domain.AuditLogEntry) error {
	_, err := s.exec(ctx, `INSERT INTO audit_logs (`+auditColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.PharmacistName, string(e.Action), e.MedicineName, e.BatchNumber, e.QuantityChanged, e.Details, e.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// ListAudit returns the most recent entries first.
func (s *Store) ListAudit(ctx context.Context, limit int) ([]domain.AuditLogEntry, error) {
	if limit < 1 {
		limit = 100
	}
	entries := []domain.AuditLogEntry{}
	if err := s.selectAll(ctx, &entries, `SELECT `+auditColumns+` FROM audit_logs ORDER BY timestamp DESC, id DESC LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}
