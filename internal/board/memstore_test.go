package board_test

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/hq/internal/domain"
)

var errStoreDown = errors.New("store: connection refused")

// memStore is an in-memory Card Store with failure injection.
type memStore[S domain.Stage, P domain.Payload] struct {
	mu    sync.Mutex
	cards []*domain.Card[S, P]

	listErr   error
	createErr error
	deleteErr error
	patchErr  map[uuid.UUID]error
	patchWait time.Duration

	lists   int
	creates int
	deletes int
	patches []uuid.UUID
}

func newMemStore[S domain.Stage, P domain.Payload](cards ...*domain.Card[S, P]) *memStore[S, P] {
	return &memStore[S, P]{cards: cards, patchErr: map[uuid.UUID]error{}}
}

func (m *memStore[S, P]) List(_ context.Context) ([]*domain.Card[S, P], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lists++
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]*domain.Card[S, P], len(m.cards))
	for i, c := range m.cards {
		cp := *c
		out[i] = &cp
	}
	return out, nil
}

func (m *memStore[S, P]) Create(_ context.Context, stage S, data P) (*domain.Card[S, P], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.creates++
	if m.createErr != nil {
		return nil, m.createErr
	}
	order := 0
	for _, c := range m.cards {
		if c.Stage == stage && c.Order >= order {
			order = c.Order + 1
		}
	}
	now := time.Now()
	c := &domain.Card[S, P]{ID: uuid.New(), Stage: stage, Order: order, Data: data, CreatedAt: now, UpdatedAt: now}
	m.cards = append(m.cards, c)
	cp := *c
	return &cp, nil
}

func (m *memStore[S, P]) Patch(ctx context.Context, id uuid.UUID, patch domain.CardPatch[S, P]) error {
	if m.patchWait > 0 {
		select {
		case <-time.After(m.patchWait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.patches = append(m.patches, id)
	if err := m.patchErr[id]; err != nil {
		return err
	}
	for _, c := range m.cards {
		if c.ID == id {
			patch.Apply(c, time.Now())
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memStore[S, P]) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deletes++
	if m.deleteErr != nil {
		return m.deleteErr
	}
	before := len(m.cards)
	m.cards = slices.DeleteFunc(m.cards, func(c *domain.Card[S, P]) bool { return c.ID == id })
	if len(m.cards) == before {
		return domain.ErrNotFound
	}
	return nil
}

// stage returns the stored cards of one stage sorted by order.
func (m *memStore[S, P]) stage(s S) []*domain.Card[S, P] {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Card[S, P]
	for _, c := range m.cards {
		if c.Stage == s {
			cp := *c
			out = append(out, &cp)
		}
	}
	slices.SortStableFunc(out, func(a, b *domain.Card[S, P]) int { return cmp.Compare(a.Order, b.Order) })
	return out
}

func (m *memStore[S, P]) patchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.patches)
}

func investor(name string, stage domain.InvestorStage, order int) *domain.InvestorCard {
	return &domain.InvestorCard{
		ID:    uuid.New(),
		Stage: stage,
		Order: order,
		Data:  domain.Investor{Name: name},
	}
}

func names(cards []*domain.InvestorCard) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Data.Name
	}
	return out
}

func orders[S domain.Stage, P domain.Payload](cards []*domain.Card[S, P]) []int {
	out := make([]int, len(cards))
	for i, c := range cards {
		out[i] = c.Order
	}
	return out
}
