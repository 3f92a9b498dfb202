package ws

import (
	"time"

	"github.com/google/uuid"
)

// Board event types.
const (
	EventCardCreated = "card_created"
	EventCardUpdated = "card_updated"
	EventCardMoved   = "card_moved"
	EventCardDeleted = "card_deleted"
)

// BoardEvent represents a real-time pipeline board update.
type BoardEvent struct {
	Type      string    `json:"type"`
	Board     string    `json:"board"`
	CardID    uuid.UUID `json:"card_id"`
	Stage     string    `json:"stage,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
