package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/hq/internal/domain"
)

const auditColumns = `id, tenant_id, actor_type, actor_id, action, resource, resource_id, details, created_at`

// AuditRepo is the append-only history of card mutations.
type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) Record(ctx context.Context, entry *domain.AuditEntry) error {
	details := []byte("{}")
	if len(entry.Details) > 0 {
		var err error
		if details, err = json.Marshal(entry.Details); err != nil {
			return fmt.Errorf("auditRepo.Record: details: %w", err)
		}
	}

	if _, err := r.pool.Exec(ctx,
		`INSERT INTO audit_log (`+auditColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.TenantID, entry.ActorType, entry.ActorID,
		entry.Action, entry.Resource, entry.ResourceID, details, entry.CreatedAt,
	); err != nil {
		return fmt.Errorf("auditRepo.Record %s %s: %w", entry.Action, entry.ResourceID, err)
	}
	return nil
}

// ListByResource returns the history of one card, newest first.
func (r *AuditRepo) ListByResource(ctx context.Context, tenantID uuid.UUID, resource string, resourceID uuid.UUID) ([]*domain.AuditEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+auditColumns+`
		 FROM audit_log
		 WHERE tenant_id = $1 AND resource = $2 AND resource_id = $3
		 ORDER BY created_at DESC, id`,
		tenantID, resource, resourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("auditRepo.ListByResource: %w", err)
	}

	entries, err := pgx.CollectRows(rows, scanAuditEntry)
	if err != nil {
		return nil, fmt.Errorf("auditRepo.ListByResource: %w", err)
	}
	return entries, nil
}

func scanAuditEntry(row pgx.CollectableRow) (*domain.AuditEntry, error) {
	var (
		e       domain.AuditEntry
		details []byte
	)
	if err := row.Scan(
		&e.ID, &e.TenantID, &e.ActorType, &e.ActorID, &e.Action,
		&e.Resource, &e.ResourceID, &details, &e.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &e.Details); err != nil {
			return nil, fmt.Errorf("details: %w", err)
		}
	}
	return &e, nil
}
