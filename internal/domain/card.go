package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Payload is the domain data carried by a card. Reordering never touches it.
type Payload interface {
	Validate() error
	Label() string
}

// Card is one tile on a pipeline board.
type Card[S Stage, P Payload] struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Stage     S         `json:"stage"`
	Order     int       `json:"order"`
	Data      P         `json:"data"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type (
	InvestorCard = Card[InvestorStage, Investor]
	MissionCard  = Card[MissionStage, Mission]
)

// CardPatch is a partial update. Nil fields are left untouched.
type CardPatch[S Stage, P Payload] struct {
	Stage *S   `json:"stage,omitempty"`
	Order *int `json:"order,omitempty"`
	Data  *P   `json:"data,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p CardPatch[S, P]) Empty() bool {
	return p.Stage == nil && p.Order == nil && p.Data == nil
}

// Apply copies the set fields of p onto c and bumps UpdatedAt.
func (p CardPatch[S, P]) Apply(c *Card[S, P], now time.Time) {
	if p.Stage != nil {
		c.Stage = *p.Stage
	}
	if p.Order != nil {
		c.Order = *p.Order
	}
	if p.Data != nil {
		c.Data = *p.Data
	}
	c.UpdatedAt = now
}

// CardRepository persists the cards of one board kind.
type CardRepository[S Stage, P Payload] interface {
	// Create inserts c at the end of its stage and sets c.Order accordingly.
	Create(ctx context.Context, c *Card[S, P]) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Card[S, P], error)
	List(ctx context.Context, tenantID uuid.UUID) ([]*Card[S, P], error)
	Patch(ctx context.Context, tenantID, id uuid.UUID, patch CardPatch[S, P]) (*Card[S, P], error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
