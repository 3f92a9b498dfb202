package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// StageChange describes a card that moved to another stage.
type StageChange struct {
	TenantID uuid.UUID
	Board    string
	CardID   uuid.UUID
	Label    string
	From     string
	To       string
	Actor    string
}

// Sender delivers a stage change to one destination.
type Sender interface {
	Send(ctx context.Context, change StageChange) error
	Name() string
}

// Notifier dispatches stage changes to every configured sender.
type Notifier struct {
	senders []Sender
}

// New creates a Notifier. With no senders, changes are only logged.
func New(senders ...Sender) *Notifier {
	return &Notifier{senders: senders}
}

// NotifyStageChange sends change through every sender. One failing sender
// does not stop the others; the failures are joined into the returned error.
func (n *Notifier) NotifyStageChange(ctx context.Context, change StageChange) error {
	if len(n.senders) == 0 {
		log.Debug().
			Str("board", change.Board).
			Str("card_id", change.CardID.String()).
			Str("from", change.From).
			Str("to", change.To).
			Msg("notify: no senders configured")
		return nil
	}

	var errs []error
	for _, s := range n.senders {
		if err := s.Send(ctx, change); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify.Notifier.NotifyStageChange: %w", errors.Join(errs...))
	}

	return nil
}
