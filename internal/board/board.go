// Package board implements the pipeline board: stage-partitioned, ordered
// cards with an optimistic move operation that renumbers every touched stage
// and falls back to a full reload from the Card Store when a write fails.
package board

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/gosuda/hq/internal/domain"
)

// Store is the Card Store the board reads from and writes to.
// *client.Client and the server-side repository adapter satisfy it.
type Store[S domain.Stage, P domain.Payload] interface {
	List(ctx context.Context) ([]*domain.Card[S, P], error)
	Create(ctx context.Context, stage S, data P) (*domain.Card[S, P], error)
	Patch(ctx context.Context, id uuid.UUID, patch domain.CardPatch[S, P]) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Confirmer is asked before a card is deleted. Returning false aborts the delete.
type Confirmer[S domain.Stage, P domain.Payload] func(card *domain.Card[S, P]) bool

type options struct {
	timeout time.Duration
	now     func() time.Time
}

// Option configures a Board.
type Option func(*options)

// WithTimeout bounds every Card Store call. A write that times out counts as
// a failed write and triggers a resync.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithClock overrides the clock used for UpdatedAt on local mutations.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Board holds the last known state of one pipeline board.
type Board[S domain.Stage, P domain.Payload] struct {
	kind  domain.BoardKind[S]
	store Store[S, P]
	opts  options

	mu      sync.Mutex
	loaded  bool
	columns map[S][]*domain.Card[S, P]
}

// New creates an unloaded board. Call Load before any mutation.
func New[S domain.Stage, P domain.Payload](kind domain.BoardKind[S], store Store[S, P], opts ...Option) *Board[S, P] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Board[S, P]{
		kind:    kind,
		store:   store,
		opts:    o,
		columns: emptyColumns[S, P](kind),
	}
}

// Kind returns the board kind.
func (b *Board[S, P]) Kind() domain.BoardKind[S] {
	return b.kind
}

// Loaded reports whether the last Load succeeded.
func (b *Board[S, P]) Loaded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loaded
}

// Load replaces the local state with the store's. On failure the board is
// emptied and writes are refused until a later Load succeeds.
func (b *Board[S, P]) Load(ctx context.Context) ([]*domain.Card[S, P], error) {
	var cards []*domain.Card[S, P]
	err := b.call(ctx, func(ctx context.Context) error {
		var listErr error
		cards, listErr = b.store.List(ctx)
		return listErr
	})

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.loaded = false
		b.columns = emptyColumns[S, P](b.kind)
		return nil, &LoadError{Err: err}
	}

	b.columns = partition(b.kind, cards)
	b.loaded = true
	return cards, nil
}

// Columns returns a copy of every stage, each sorted by order.
func (b *Board[S, P]) Columns() map[S][]*domain.Card[S, P] {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[S][]*domain.Card[S, P], len(b.columns))
	for stage, col := range b.columns {
		out[stage] = cloneCards(col)
	}
	return out
}

// Column returns a copy of one stage.
func (b *Board[S, P]) Column(stage S) []*domain.Card[S, P] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cloneCards(b.columns[stage])
}

// Find returns a copy of the card with id and its current position.
func (b *Board[S, P]) Find(id uuid.UUID) (card *domain.Card[S, P], index int, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, col := range b.columns {
		for i, c := range col {
			if c.ID == id {
				cp := *c
				return &cp, i, true
			}
		}
	}
	return nil, 0, false
}

// Move takes the card at fromStage[fromIndex] and inserts it at
// toStage[toIndex], renumbering both stages. The local state changes before
// anything is written; if any write fails the board reloads from the store
// and a *PersistenceError is returned.
func (b *Board[S, P]) Move(ctx context.Context, id uuid.UUID, fromStage S, fromIndex int, toStage S, toIndex int) error {
	m := Move[S]{
		CardID:    id,
		FromStage: fromStage,
		FromIndex: fromIndex,
		ToStage:   toStage,
		ToIndex:   toIndex,
	}

	b.mu.Lock()
	if !b.loaded {
		b.mu.Unlock()
		return ErrNotLoaded
	}
	plan, err := PlanMove(b.columns, m, b.opts.now())
	if err != nil {
		b.mu.Unlock()
		return err
	}
	if plan.Noop() {
		b.mu.Unlock()
		return nil
	}
	for stage, col := range plan.Columns {
		b.columns[stage] = col
	}
	b.mu.Unlock()

	if err := b.persist(ctx, plan.Writes); err != nil {
		return b.resync(ctx, "move", id, err)
	}

	log.Debug().
		Str("board", b.kind.Name).
		Str("card_id", id.String()).
		Str("from", string(fromStage)).
		Str("to", string(toStage)).
		Int("index", plan.Writes[0].orderValue()).
		Int("writes", len(plan.Writes)).
		Msg("board: card moved")

	return nil
}

// Create validates data and appends a new card to the end of stage. An empty
// stage means the board's default stage. Validation runs before the store is
// contacted.
func (b *Board[S, P]) Create(ctx context.Context, stage S, data P) (*domain.Card[S, P], error) {
	if stage == "" {
		stage = b.kind.Default
	}
	if !stage.Valid() {
		return nil, &ValidationError{Field: "stage", Err: domain.ErrUnknownStage}
	}
	if err := data.Validate(); err != nil {
		return nil, validationFromPayload(err)
	}
	if !b.Loaded() {
		return nil, ErrNotLoaded
	}

	var card *domain.Card[S, P]
	err := b.call(ctx, func(ctx context.Context) error {
		var createErr error
		card, createErr = b.store.Create(ctx, stage, data)
		return createErr
	})
	if err != nil {
		return nil, b.resync(ctx, "create", uuid.Nil, err)
	}

	b.mu.Lock()
	cp := *card
	b.columns[cp.Stage] = append(b.columns[cp.Stage], &cp)
	b.mu.Unlock()

	return card, nil
}

// Delete removes the card after confirm approves it. Remaining cards keep
// their order values; gaps are closed by the next move.
func (b *Board[S, P]) Delete(ctx context.Context, id uuid.UUID, confirm Confirmer[S, P]) error {
	if !b.Loaded() {
		return ErrNotLoaded
	}

	card, _, ok := b.Find(id)
	if !ok {
		return fmt.Errorf("board.Delete: %w", domain.ErrNotFound)
	}
	if confirm == nil || !confirm(card) {
		return ErrDeleteNotConfirmed
	}

	// confirm may block on a prompt while moves run, so the card is removed
	// from whichever stage holds it now.
	b.mu.Lock()
	for stage, col := range b.columns {
		b.columns[stage] = slices.DeleteFunc(col, func(c *domain.Card[S, P]) bool {
			return c.ID == id
		})
	}
	b.mu.Unlock()

	err := b.call(ctx, func(ctx context.Context) error {
		return b.store.Delete(ctx, id)
	})
	if err != nil {
		return b.resync(ctx, "delete", id, err)
	}

	return nil
}

// persist writes the moved card first, then the renumbered siblings
// concurrently. Each write targets a distinct record.
func (b *Board[S, P]) persist(ctx context.Context, writes []Write[S, P]) error {
	first := writes[0]
	if err := b.patch(ctx, first); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range writes[1:] {
		g.Go(func() error {
			return b.patch(gctx, w)
		})
	}
	return g.Wait()
}

func (b *Board[S, P]) patch(ctx context.Context, w Write[S, P]) error {
	err := b.call(ctx, func(ctx context.Context) error {
		return b.store.Patch(ctx, w.CardID, w.Patch)
	})
	if err != nil {
		return fmt.Errorf("patch card %s: %w", w.CardID, err)
	}
	return nil
}

// resync discards the local state after a failed write and reloads it. The
// reload ignores cancellation of ctx so that a timed-out write still recovers.
func (b *Board[S, P]) resync(ctx context.Context, op string, id uuid.UUID, cause error) error {
	perr := &PersistenceError{Op: op, CardID: id, Err: cause}

	if _, err := b.Load(context.WithoutCancel(ctx)); err != nil {
		log.Error().Err(err).Str("board", b.kind.Name).Msg("board: resync failed")
	} else {
		perr.Resynced = true
	}

	log.Warn().
		Err(cause).
		Str("board", b.kind.Name).
		Str("op", op).
		Bool("resynced", perr.Resynced).
		Msg("board: write failed, local state discarded")

	return perr
}

func (b *Board[S, P]) call(ctx context.Context, fn func(context.Context) error) error {
	if b.opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.opts.timeout)
		defer cancel()
	}
	return fn(ctx)
}

func (w Write[S, P]) orderValue() int {
	if w.Patch.Order == nil {
		return -1
	}
	return *w.Patch.Order
}

func emptyColumns[S domain.Stage, P domain.Payload](kind domain.BoardKind[S]) map[S][]*domain.Card[S, P] {
	cols := make(map[S][]*domain.Card[S, P], len(kind.Stages))
	for _, s := range kind.Stages {
		cols[s] = []*domain.Card[S, P]{}
	}
	return cols
}

// partition groups cards by stage and sorts each stage by order. The sort is
// stable, so equal orders keep their fetch position. Cards in a stage the
// board does not know are dropped.
func partition[S domain.Stage, P domain.Payload](kind domain.BoardKind[S], cards []*domain.Card[S, P]) map[S][]*domain.Card[S, P] {
	cols := emptyColumns[S, P](kind)
	for _, c := range cards {
		col, ok := cols[c.Stage]
		if !ok {
			log.Warn().
				Str("board", kind.Name).
				Str("card_id", c.ID.String()).
				Str("stage", string(c.Stage)).
				Msg("board: dropping card with unknown stage")
			continue
		}
		cp := *c
		cols[c.Stage] = append(col, &cp)
	}
	for _, col := range cols {
		slices.SortStableFunc(col, func(a, b *domain.Card[S, P]) int {
			return cmp.Compare(a.Order, b.Order)
		})
	}
	return cols
}
