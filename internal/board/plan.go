package board

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/hq/internal/domain"
)

// Move relocates a card from one board position to another.
type Move[S domain.Stage] struct {
	CardID    uuid.UUID
	FromStage S
	FromIndex int
	ToStage   S
	ToIndex   int
}

// Write is one card record that has to be patched in the store.
type Write[S domain.Stage, P domain.Payload] struct {
	CardID uuid.UUID
	Patch  domain.CardPatch[S, P]
}

// Plan is the result of applying a Move to a set of columns. Columns holds
// fresh copies of the touched stages only; Writes[0] is always the moved card.
type Plan[S domain.Stage, P domain.Payload] struct {
	Columns map[S][]*domain.Card[S, P]
	Writes  []Write[S, P]
}

// Noop reports whether the move leaves every card where it was.
func (p *Plan[S, P]) Noop() bool {
	return len(p.Writes) == 0
}

// PlanMove computes the columns and store writes for m without mutating
// columns. Every touched stage comes out numbered 0..n-1; only cards whose
// order actually changed are written.
func PlanMove[S domain.Stage, P domain.Payload](columns map[S][]*domain.Card[S, P], m Move[S], now time.Time) (*Plan[S, P], error) {
	if !m.FromStage.Valid() {
		return nil, &ValidationError{Field: "from_stage", Err: domain.ErrUnknownStage}
	}
	if !m.ToStage.Valid() {
		return nil, &ValidationError{Field: "to_stage", Err: domain.ErrUnknownStage}
	}

	src := columns[m.FromStage]
	if m.FromIndex < 0 || m.FromIndex >= len(src) || src[m.FromIndex].ID != m.CardID {
		return nil, &ValidationError{Field: "from_index", Err: ErrStaleMove}
	}
	if m.ToIndex < 0 {
		return nil, &ValidationError{Field: "to_index", Err: ErrInvalidIndex}
	}

	toIndex := m.ToIndex
	if m.FromStage == m.ToStage {
		// Past the end of its own stage means last, which may be where the
		// card already is.
		toIndex = min(toIndex, len(src)-1)
		if m.FromIndex == toIndex {
			return &Plan[S, P]{}, nil
		}
	}

	moved := *src[m.FromIndex]
	moved.Stage = m.ToStage
	moved.UpdatedAt = now

	rest := make([]*domain.Card[S, P], 0, len(src)-1)
	for i, c := range src {
		if i == m.FromIndex {
			continue
		}
		cp := *c
		rest = append(rest, &cp)
	}

	dst := rest
	if m.FromStage != m.ToStage {
		dst = cloneCards(columns[m.ToStage])
	}
	at := min(toIndex, len(dst))
	moved.Order = at
	dst = slices.Insert(dst, at, &moved)

	plan := &Plan[S, P]{
		Columns: map[S][]*domain.Card[S, P]{m.ToStage: dst},
	}

	order := at
	patch := domain.CardPatch[S, P]{Order: &order}
	if m.FromStage != m.ToStage {
		stage := m.ToStage
		patch.Stage = &stage
	}
	plan.Writes = append(plan.Writes, Write[S, P]{CardID: moved.ID, Patch: patch})

	plan.renumber(dst, moved.ID, now)
	if m.FromStage != m.ToStage {
		plan.Columns[m.FromStage] = rest
		plan.renumber(rest, moved.ID, now)
	}

	return plan, nil
}

func (p *Plan[S, P]) renumber(cards []*domain.Card[S, P], skip uuid.UUID, now time.Time) {
	for i, c := range cards {
		if c.ID == skip || c.Order == i {
			continue
		}
		c.Order = i
		c.UpdatedAt = now
		order := i
		p.Writes = append(p.Writes, Write[S, P]{
			CardID: c.ID,
			Patch:  domain.CardPatch[S, P]{Order: &order},
		})
	}
}

func cloneCards[S domain.Stage, P domain.Payload](cards []*domain.Card[S, P]) []*domain.Card[S, P] {
	out := make([]*domain.Card[S, P], len(cards))
	for i, c := range cards {
		cp := *c
		out[i] = &cp
	}
	return out
}
