package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"printbay/database"
	"printbay/models"
)

// AuditLogRepository implements the AuditLogRepository interface
type AuditLogRepository struct {
	q queryable
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *database.DB) *AuditLogRepository {
	return &AuditLogRepository{q: db.Pool}
}

// Record creates a new audit entry
func (r *AuditLogRepository) Record(ctx context.Context, entry *models.AuditEntry) error {
	detailJSON, err := json.Marshal(entry.Detail)
	if err != nil {
		return fmt.Errorf("failed to marshal audit detail: %w", err)
	}

	query := `
		INSERT INTO audit_logs (actor_id, target_user_id, action, detail)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		entry.ActorID,
		entry.TargetUserID,
		entry.Action,
		detailJSON,
	).Scan(&entry.ID, &entry.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record audit entry for actor %d: %w", entry.ActorID, err)
	}

	return nil
}
