package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/hq/internal/api/ws"
	"github.com/gosuda/hq/internal/domain"
	"github.com/gosuda/hq/internal/notify"
	"github.com/gosuda/hq/internal/server/middleware"
)

// BoardDeps carries the side channels every card mutation reports to.
type BoardDeps struct {
	Events       EventPublisher
	Notifier     Notifier
	WriteTimeout time.Duration
}

type ListCardsInput struct{}

type ListCardsOutput[S domain.Stage, P domain.Payload] struct {
	Body struct {
		Items []*domain.Card[S, P] `json:"items"`
	}
}

type CreateCardInput[S domain.Stage, P domain.Payload] struct {
	Body struct {
		Stage string `json:"stage,omitempty" doc:"Target stage; the board's first stage when empty"`
		Data  P      `json:"data" doc:"Card payload"`
	}
}

type CardOutput[S domain.Stage, P domain.Payload] struct {
	Body *domain.Card[S, P]
}

type GetCardInput struct {
	ID uuid.UUID `path:"id" doc:"Card ID"`
}

type PatchCardInput[S domain.Stage, P domain.Payload] struct {
	ID   uuid.UUID `path:"id" doc:"Card ID"`
	Body domain.CardPatch[S, P]
}

type DeleteCardInput struct {
	ID uuid.UUID `path:"id" doc:"Card ID"`
}

type CardHistoryOutput struct {
	Body struct {
		Items []*domain.AuditEntry `json:"items"`
	}
}

// cardRoutes registers the Card Store operations of one board kind.
type cardRoutes[S domain.Stage, P domain.Payload] struct {
	kind     domain.BoardKind[S]
	singular string
	tag      string
	repo     func() domain.CardRepository[S, P]
	store    DataStore
	deps     BoardDeps
}

func RegisterInvestorRoutes(api huma.API, store DataStore, deps BoardDeps) {
	cr := &cardRoutes[domain.InvestorStage, domain.Investor]{
		kind:     domain.InvestorBoard,
		singular: "investor",
		tag:      "Investors",
		repo:     store.Investors,
		store:    store,
		deps:     deps,
	}
	cr.register(api)
}

func RegisterMissionRoutes(api huma.API, store DataStore, deps BoardDeps) {
	cr := &cardRoutes[domain.MissionStage, domain.Mission]{
		kind:     domain.MissionBoard,
		singular: "mission",
		tag:      "Missions",
		repo:     store.Missions,
		store:    store,
		deps:     deps,
	}
	cr.register(api)
}

func (cr *cardRoutes[S, P]) register(api huma.API) {
	base := "/" + cr.kind.Name

	huma.Register(api, huma.Operation{
		OperationID: "list-" + cr.kind.Name,
		Method:      http.MethodGet,
		Path:        base,
		Summary:     "List " + cr.kind.Name,
		Tags:        []string{cr.tag},
	}, func(ctx context.Context, _ *ListCardsInput) (*ListCardsOutput[S, P], error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		cards, err := cr.repo().List(ctx, tenantID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list "+cr.kind.Name, err)
		}

		out := &ListCardsOutput[S, P]{}
		out.Body.Items = cards
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-" + cr.singular,
		Method:      http.MethodPost,
		Path:        base,
		Summary:     "Create " + cr.singular + " at the end of a stage",
		Tags:        []string{cr.tag},
	}, func(ctx context.Context, input *CreateCardInput[S, P]) (*CardOutput[S, P], error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		stage := cr.kind.Default
		if input.Body.Stage != "" {
			parsed, err := cr.kind.ParseStage(input.Body.Stage)
			if err != nil {
				return nil, huma.Error400BadRequest("unknown stage: " + input.Body.Stage)
			}
			stage = parsed
		}
		if err := input.Body.Data.Validate(); err != nil {
			return nil, validationProblem("body.data", err)
		}

		card := newCard(tenantID, stage, input.Body.Data, time.Now())
		if err := cr.repo().Create(ctx, card); err != nil {
			return nil, huma.Error500InternalServerError("failed to create "+cr.singular, err)
		}

		cr.record(ctx, tenantID, domain.AuditActionCreate, card.ID, map[string]any{"stage": string(card.Stage)})
		cr.publish(ctx, tenantID, ws.EventCardCreated, card)

		return &CardOutput[S, P]{Body: card}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-" + cr.singular,
		Method:      http.MethodGet,
		Path:        base + "/{id}",
		Summary:     "Get " + cr.singular + " by ID",
		Tags:        []string{cr.tag},
	}, func(ctx context.Context, input *GetCardInput) (*CardOutput[S, P], error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		card, err := cr.repo().GetByID(ctx, tenantID, input.ID)
		if err != nil {
			return nil, cr.storeError("get", err)
		}

		return &CardOutput[S, P]{Body: card}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "patch-" + cr.singular,
		Method:      http.MethodPatch,
		Path:        base + "/{id}",
		Summary:     "Partially update " + cr.singular,
		Description: "Only the fields present in the body are written. Reordering clients send stage and order only.",
		Tags:        []string{cr.tag},
	}, func(ctx context.Context, input *PatchCardInput[S, P]) (*CardOutput[S, P], error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		patch := input.Body
		if patch.Empty() {
			return nil, huma.Error400BadRequest("patch has no fields")
		}
		if patch.Stage != nil && !(*patch.Stage).Valid() {
			return nil, huma.Error400BadRequest("unknown stage: " + string(*patch.Stage))
		}
		if patch.Order != nil && *patch.Order < 0 {
			return nil, validationProblem("body", &domain.FieldError{Field: "order", Reason: "must not be negative"})
		}
		if patch.Data != nil {
			if err := (*patch.Data).Validate(); err != nil {
				return nil, validationProblem("body.data", err)
			}
		}

		repo := cr.repo()
		before, err := repo.GetByID(ctx, tenantID, input.ID)
		if err != nil {
			return nil, cr.storeError("get", err)
		}

		card, err := repo.Patch(ctx, tenantID, input.ID, patch)
		if err != nil {
			return nil, cr.storeError("update", err)
		}

		details := map[string]any{}
		if patch.Order != nil {
			details["order"] = card.Order
		}
		if patch.Data != nil {
			details["data"] = true
		}

		if card.Stage != before.Stage {
			details["from_stage"] = string(before.Stage)
			details["to_stage"] = string(card.Stage)
			cr.record(ctx, tenantID, domain.AuditActionMove, card.ID, details)
			cr.publish(ctx, tenantID, ws.EventCardMoved, card)
			cr.notifyStageChange(ctx, tenantID, card, before.Stage)
		} else {
			cr.record(ctx, tenantID, domain.AuditActionUpdate, card.ID, details)
			cr.publish(ctx, tenantID, ws.EventCardUpdated, card)
		}

		return &CardOutput[S, P]{Body: card}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-" + cr.singular,
		Method:      http.MethodDelete,
		Path:        base + "/{id}",
		Summary:     "Delete " + cr.singular,
		Description: "Remaining cards keep their order values.",
		Tags:        []string{cr.tag},
	}, func(ctx context.Context, input *DeleteCardInput) (*struct{}, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		if err := cr.repo().Delete(ctx, tenantID, input.ID); err != nil {
			return nil, cr.storeError("delete", err)
		}

		cr.record(ctx, tenantID, domain.AuditActionDelete, input.ID, nil)
		cr.publish(ctx, tenantID, ws.EventCardDeleted, &domain.Card[S, P]{ID: input.ID})

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-" + cr.singular + "-history",
		Method:      http.MethodGet,
		Path:        base + "/{id}/history",
		Summary:     "List audit entries of " + cr.singular,
		Tags:        []string{cr.tag},
	}, func(ctx context.Context, input *GetCardInput) (*CardHistoryOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		entries, err := cr.store.Audit().ListByResource(ctx, tenantID, cr.kind.Name, input.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list history", err)
		}

		out := &CardHistoryOutput{}
		out.Body.Items = entries
		return out, nil
	})

	cr.registerBoard(api)
}

func (cr *cardRoutes[S, P]) storeError(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return huma.Error404NotFound(cr.singular + " not found")
	}
	return huma.Error500InternalServerError("failed to "+op+" "+cr.singular, err)
}

// record writes an audit entry. The card write already succeeded, so a
// failure here is logged and not returned.
func (cr *cardRoutes[S, P]) record(ctx context.Context, tenantID uuid.UUID, action string, cardID uuid.UUID, details map[string]any) {
	entry := &domain.AuditEntry{
		ID:         uuid.New(),
		TenantID:   tenantID,
		ActorType:  "user",
		ActorID:    actorID(ctx),
		Action:     action,
		Resource:   cr.kind.Name,
		ResourceID: cardID,
		Details:    details,
		CreatedAt:  time.Now(),
	}
	if err := cr.store.Audit().Record(ctx, entry); err != nil {
		log.Warn().Err(err).
			Str("board", cr.kind.Name).
			Str("card_id", cardID.String()).
			Str("action", action).
			Msg("audit record failed")
	}
}

func (cr *cardRoutes[S, P]) publish(ctx context.Context, tenantID uuid.UUID, eventType string, card *domain.Card[S, P]) {
	if cr.deps.Events == nil {
		return
	}

	ev := ws.BoardEvent{
		Type:      eventType,
		Board:     cr.kind.Name,
		CardID:    card.ID,
		Stage:     string(card.Stage),
		Timestamp: time.Now(),
	}
	if eventType != ws.EventCardDeleted {
		ev.Data = card
	}

	if err := cr.deps.Events.PublishBoardEvent(ctx, tenantID, ev); err != nil {
		log.Warn().Err(err).
			Str("board", cr.kind.Name).
			Str("card_id", card.ID.String()).
			Str("event", eventType).
			Msg("board event publish failed")
	}
}

func (cr *cardRoutes[S, P]) notifyStageChange(ctx context.Context, tenantID uuid.UUID, card *domain.Card[S, P], from S) {
	if cr.deps.Notifier == nil || from == card.Stage {
		return
	}

	change := notify.StageChange{
		TenantID: tenantID,
		Board:    cr.kind.Name,
		CardID:   card.ID,
		Label:    card.Data.Label(),
		From:     string(from),
		To:       string(card.Stage),
		Actor:    actorID(ctx),
	}
	if err := cr.deps.Notifier.NotifyStageChange(ctx, change); err != nil {
		log.Warn().Err(err).
			Str("board", cr.kind.Name).
			Str("card_id", card.ID.String()).
			Msg("stage change notification failed")
	}
}

func newCard[S domain.Stage, P domain.Payload](tenantID uuid.UUID, stage S, data P, now time.Time) *domain.Card[S, P] {
	return &domain.Card[S, P]{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Stage:     stage,
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func actorID(ctx context.Context) string {
	if userID, ok := middleware.UserIDFromContext(ctx); ok {
		return userID.String()
	}
	return ""
}

// validationProblem turns a validation failure into a 422 that names the
// offending field under location.
func validationProblem(location string, err error) error {
	var fe *domain.FieldError
	if errors.As(err, &fe) {
		return huma.Error422UnprocessableEntity("validation failed", &huma.ErrorDetail{
			Message:  fe.Reason,
			Location: location + "." + fe.Field,
		})
	}
	return huma.Error422UnprocessableEntity(err.Error())
}
