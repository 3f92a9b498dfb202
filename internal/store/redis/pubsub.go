package redis

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// subscriberBuffer is how many events a subscriber may lag behind before
// events are dropped for it.
const subscriberBuffer = 64

// PubSub carries board events between server instances.
type PubSub struct {
	client *redis.Client
}

// New connects to Redis and checks the connection before returning.
func New(ctx context.Context, addr, password string, db int) (*PubSub, error) {
	ps := &PubSub{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}

	if err := ps.Ping(ctx); err != nil {
		_ = ps.client.Close()
		return nil, fmt.Errorf("redis.New: %w", err)
	}
	return ps, nil
}

func (ps *PubSub) Ping(ctx context.Context) error {
	if err := ps.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis.PubSub.Ping: %w", err)
	}
	return nil
}

func (ps *PubSub) Close() error {
	if err := ps.client.Close(); err != nil {
		return fmt.Errorf("redis.PubSub.Close: %w", err)
	}
	return nil
}

func (ps *PubSub) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := ps.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis.PubSub.Publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe streams the payloads published on channel. The stream ends when
// ctx is done or the returned stop func is called. A subscriber that lags
// more than subscriberBuffer events behind misses events; each miss is
// logged.
func (ps *PubSub) Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error) {
	sub := ps.client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("redis.PubSub.Subscribe %s: %w", channel, err)
	}

	// Closing sub closes its message channel, which ends the forwarder.
	stopOnDone := context.AfterFunc(ctx, func() { _ = sub.Close() })
	stop := func() {
		stopOnDone()
		_ = sub.Close()
	}

	out := make(chan []byte, subscriberBuffer)
	go func() {
		defer close(out)
		for msg := range sub.Channel(redis.WithChannelSize(subscriberBuffer)) {
			select {
			case out <- []byte(msg.Payload):
			default:
				log.Warn().Str("channel", channel).Msg("redis: subscriber lagging, event dropped")
			}
		}
	}()

	return out, stop, nil
}

// BoardChannel returns the Redis channel carrying card events for one
// board kind of a tenant.
func BoardChannel(tenantID uuid.UUID, kind string) string {
	return "board:" + tenantID.String() + ":" + kind
}
