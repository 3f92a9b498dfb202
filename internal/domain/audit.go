package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Audit actions recorded for card mutations.
const (
	AuditActionCreate = "create"
	AuditActionUpdate = "update"
	AuditActionMove   = "move"
	AuditActionDelete = "delete"
)

type AuditEntry struct {
	ID         uuid.UUID      `json:"id"`
	TenantID   uuid.UUID      `json:"tenant_id"`
	ActorType  string         `json:"actor_type"` // "user" or "system"
	ActorID    string         `json:"actor_id"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"` // board kind name, e.g. "investors"
	ResourceID uuid.UUID      `json:"resource_id"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

type AuditRepository interface {
	Record(ctx context.Context, entry *AuditEntry) error
	ListByResource(ctx context.Context, tenantID uuid.UUID, resource string, resourceID uuid.UUID) ([]*AuditEntry, error)
}
