package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/hq/internal/api/ws"
	"github.com/gosuda/hq/internal/board"
	"github.com/gosuda/hq/internal/domain"
	"github.com/gosuda/hq/internal/server/middleware"
)

// BoardView is a whole board: its stages in display order and the cards of
// each stage sorted by order.
type BoardView[S domain.Stage, P domain.Payload] struct {
	Board   string                     `json:"board"`
	Stages  []S                        `json:"stages"`
	Columns map[S][]*domain.Card[S, P] `json:"columns"`
}

type GetBoardInput struct{}

type BoardOutput[S domain.Stage, P domain.Payload] struct {
	Body *BoardView[S, P]
}

type MoveCardInput struct {
	ID   uuid.UUID `path:"id" doc:"Card ID"`
	Body struct {
		FromStage string `json:"from_stage" minLength:"1" doc:"Stage the card is currently in"`
		FromIndex int    `json:"from_index" minimum:"0" doc:"Position of the card in its current stage"`
		ToStage   string `json:"to_stage" minLength:"1" doc:"Destination stage"`
		ToIndex   int    `json:"to_index" minimum:"0" doc:"Destination position; clamped to the stage length"`
	}
}

func (cr *cardRoutes[S, P]) registerBoard(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-" + cr.kind.Name + "-board",
		Method:      http.MethodGet,
		Path:        "/boards/" + cr.kind.Name,
		Summary:     "Get the " + cr.kind.Name + " board grouped by stage",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, _ *GetBoardInput) (*BoardOutput[S, P], error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		b := cr.newBoard(tenantID)
		if _, err := b.Load(ctx); err != nil {
			return nil, huma.Error500InternalServerError("failed to load board", err)
		}

		return &BoardOutput[S, P]{Body: cr.view(b)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "move-" + cr.singular,
		Method:      http.MethodPost,
		Path:        "/" + cr.kind.Name + "/{id}/move",
		Summary:     "Move " + cr.singular + " within or across stages",
		Description: "Relocates the card and renumbers every touched stage. " +
			"If any write fails the board is reloaded and the error reports it.",
		Tags: []string{cr.tag},
	}, func(ctx context.Context, input *MoveCardInput) (*BoardOutput[S, P], error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		from, err := cr.kind.ParseStage(input.Body.FromStage)
		if err != nil {
			return nil, huma.Error400BadRequest("unknown stage: " + input.Body.FromStage)
		}
		to, err := cr.kind.ParseStage(input.Body.ToStage)
		if err != nil {
			return nil, huma.Error400BadRequest("unknown stage: " + input.Body.ToStage)
		}

		b := cr.newBoard(tenantID)
		if _, err := b.Load(ctx); err != nil {
			return nil, huma.Error500InternalServerError("failed to load board", err)
		}

		before, _, found := b.Find(input.ID)
		if !found {
			return nil, huma.Error404NotFound(cr.singular + " not found")
		}

		err = b.Move(ctx, input.ID, from, input.Body.FromIndex, to, input.Body.ToIndex)
		if err != nil {
			return nil, moveError(err)
		}

		if after, _, ok := b.Find(input.ID); ok && (after.Stage != before.Stage || after.Order != before.Order) {
			cr.record(ctx, tenantID, domain.AuditActionMove, after.ID, map[string]any{
				"from_stage": string(before.Stage),
				"to_stage":   string(after.Stage),
				"order":      after.Order,
			})
			cr.publish(ctx, tenantID, ws.EventCardMoved, after)
			cr.notifyStageChange(ctx, tenantID, after, before.Stage)
		}

		return &BoardOutput[S, P]{Body: cr.view(b)}, nil
	})
}

func (cr *cardRoutes[S, P]) newBoard(tenantID uuid.UUID) *board.Board[S, P] {
	store := &tenantStore[S, P]{repo: cr.repo(), tenantID: tenantID}

	var opts []board.Option
	if cr.deps.WriteTimeout > 0 {
		opts = append(opts, board.WithTimeout(cr.deps.WriteTimeout))
	}
	return board.New(cr.kind, store, opts...)
}

func (cr *cardRoutes[S, P]) view(b *board.Board[S, P]) *BoardView[S, P] {
	return &BoardView[S, P]{
		Board:   cr.kind.Name,
		Stages:  cr.kind.Stages,
		Columns: b.Columns(),
	}
}

func moveError(err error) error {
	var (
		verr *board.ValidationError
		perr *board.PersistenceError
	)
	switch {
	case errors.Is(err, board.ErrStaleMove):
		return huma.Error409Conflict("card is no longer at the given position; reload the board")
	case errors.As(err, &verr):
		return huma.Error422UnprocessableEntity(verr.Error())
	case errors.As(err, &perr):
		return huma.Error500InternalServerError("move was not fully saved; board reloaded", err)
	default:
		return huma.Error500InternalServerError("move failed", err)
	}
}

// tenantStore adapts a CardRepository to board.Store for a single tenant.
type tenantStore[S domain.Stage, P domain.Payload] struct {
	repo     domain.CardRepository[S, P]
	tenantID uuid.UUID
}

func (s *tenantStore[S, P]) List(ctx context.Context) ([]*domain.Card[S, P], error) {
	return s.repo.List(ctx, s.tenantID)
}

func (s *tenantStore[S, P]) Create(ctx context.Context, stage S, data P) (*domain.Card[S, P], error) {
	card := newCard(s.tenantID, stage, data, time.Now())
	if err := s.repo.Create(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

func (s *tenantStore[S, P]) Patch(ctx context.Context, id uuid.UUID, patch domain.CardPatch[S, P]) error {
	if _, err := s.repo.Patch(ctx, s.tenantID, id, patch); err != nil {
		return fmt.Errorf("tenantStore.Patch: %w", err)
	}
	return nil
}

func (s *tenantStore[S, P]) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, s.tenantID, id)
}
