package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/hq/internal/api/ws"
	"github.com/gosuda/hq/internal/auth"
	"github.com/gosuda/hq/internal/domain"
	"github.com/gosuda/hq/internal/notify"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Tenants() domain.TenantRepository
	Audit() domain.AuditRepository
	Investors() domain.CardRepository[domain.InvestorStage, domain.Investor]
	Missions() domain.CardRepository[domain.MissionStage, domain.Mission]
}

// AuthService abstracts authentication operations for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	Register(ctx context.Context, tenantID uuid.UUID, email, password, name string) (*domain.User, error)
	Login(ctx context.Context, tenantID uuid.UUID, email, password string) (*auth.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
}

// EventPublisher fans board changes out to connected browsers.
// *ws.Hub satisfies this interface.
type EventPublisher interface {
	PublishBoardEvent(ctx context.Context, tenantID uuid.UUID, ev ws.BoardEvent) error
}

// Notifier announces cards that changed stage.
// *notify.Notifier satisfies this interface.
type Notifier interface {
	NotifyStageChange(ctx context.Context, change notify.StageChange) error
}
