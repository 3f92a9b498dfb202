package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gosuda/hq/internal/server/middleware"
	redisstore "github.com/gosuda/hq/internal/store/redis"
)

// Broker is the pub/sub backend. *redisstore.PubSub satisfies it.
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

// Hub manages WebSocket connections backed by Redis pub/sub.
type Hub struct {
	broker Broker
	kinds  []string
}

// NewHub creates a hub serving the given board kinds.
func NewHub(broker Broker, kinds ...string) *Hub {
	return &Hub{broker: broker, kinds: kinds}
}

// ServeBoard handles WebSocket connections for pipeline board updates.
// Subscribes to Redis channel "board:<tenantID>:<kind>" and forwards every
// event to the client.
func (h *Hub) ServeBoard(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing tenant", http.StatusBadRequest)
		return
	}

	kind := chi.URLParam(r, "kind")
	if !slices.Contains(h.kinds, kind) {
		http.Error(w, "unknown board", http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	// Client messages are ignored; CloseRead handles pings and close frames.
	ctx := conn.CloseRead(r.Context())
	channel := redisstore.BoardChannel(tenantID, kind)

	messages, cleanup, err := h.broker.Subscribe(ctx, channel)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}

// PublishBoardEvent sends ev to every client watching the tenant's board.
func (h *Hub) PublishBoardEvent(ctx context.Context, tenantID uuid.UUID, ev BoardEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("ws.Hub.PublishBoardEvent: marshal: %w", err)
	}
	if err := h.broker.Publish(ctx, redisstore.BoardChannel(tenantID, ev.Board), payload); err != nil {
		return fmt.Errorf("ws.Hub.PublishBoardEvent: %w", err)
	}
	return nil
}
