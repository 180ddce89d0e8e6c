package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/providers"
	redisclient "github.com/bloodconnect/backend/internal/infrastructure/clients/redis"
)

const subscriberBuffer = 100

// topic is one Redis subscription shared by every local subscriber of a channel
type topic struct {
	pubsub      *redis.PubSub
	subscribers map[chan *entities.DeliveryEvent]struct{}
}

// RedisEventBus fans delivery events out across API instances using Redis
// Pub/Sub. Each process holds at most one Redis subscription per channel.
type RedisEventBus struct {
	client *redisclient.Client
	logger zerolog.Logger

	mu     sync.RWMutex
	topics map[string]*topic

	ctx    context.Context
	cancel context.CancelFunc
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client) providers.EventBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client: client,
		logger: log.With().Str("component", "event_bus").Logger(),
		topics: make(map[string]*topic),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.DeliveryEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode delivery event: %w", err)
	}
	if err := b.client.Client().Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}

	b.logger.Debug().
		Str("channel", channel).
		Str("event_id", event.ID).
		Str("request_id", event.RequestID).
		Str("event_type", string(event.EventType)).
		Msg("published delivery event")
	return nil
}

// Subscribe registers a buffered listener on channel. The listener is
// removed and its channel closed once ctx is done.
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.DeliveryEvent, error) {
	if b.ctx.Err() != nil {
		return nil, errors.New("event bus is closed")
	}

	listener := make(chan *entities.DeliveryEvent, subscriberBuffer)

	b.mu.Lock()
	t, ok := b.topics[channel]
	if !ok {
		t = &topic{
			pubsub:      b.client.Client().Subscribe(b.ctx, channel),
			subscribers: make(map[chan *entities.DeliveryEvent]struct{}),
		}
		b.topics[channel] = t
		go b.pump(channel, t)
	}
	t.subscribers[listener] = struct{}{}
	count := len(t.subscribers)
	b.mu.Unlock()

	b.logger.Info().Str("channel", channel).Int("subscribers", count).Msg("subscribed to channel")

	go func() {
		<-ctx.Done()
		b.leave(channel, t, listener)
	}()
	return listener, nil
}

// pump copies Redis messages to the local listeners of t until the
// subscription ends.
func (b *RedisEventBus) pump(channel string, t *topic) {
	defer b.drop(channel, t)

	messages := t.pubsub.Channel()
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}

			var event entities.DeliveryEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warn().Err(err).Str("channel", channel).Msg("dropping undecodable event")
				continue
			}

			b.mu.RLock()
			for listener := range t.subscribers {
				copied := event
				select {
				case listener <- &copied:
				default:
					b.logger.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("subscriber buffer full, dropping event")
				}
			}
			b.mu.RUnlock()
		}
	}
}

// leave detaches one listener and releases the Redis subscription when it was
// the last one.
func (b *RedisEventBus) leave(channel string, t *topic, listener chan *entities.DeliveryEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := t.subscribers[listener]; !ok {
		return
	}
	delete(t.subscribers, listener)
	close(listener)

	if len(t.subscribers) == 0 && b.topics[channel] == t {
		delete(b.topics, channel)
		_ = t.pubsub.Close()
		b.logger.Info().Str("channel", channel).Msg("closed subscription")
	}
}

// drop closes every listener of t and forgets it, unless a newer topic has
// already replaced it.
func (b *RedisEventBus) drop(channel string, t *topic) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for listener := range t.subscribers {
		close(listener)
		delete(t.subscribers, listener)
	}
	if b.topics[channel] == t {
		delete(b.topics, channel)
	}
	if err := t.pubsub.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return fmt.Errorf("failed to close subscription %s: %w", channel, err)
	}
	return nil
}

func (b *RedisEventBus) Unsubscribe(_ context.Context, channel string) error {
	b.mu.RLock()
	t, ok := b.topics[channel]
	b.mu.RUnlock()
	if !ok {
		return nil
	}
	if err := b.drop(channel, t); err != nil {
		return err
	}
	b.logger.Info().Str("channel", channel).Msg("unsubscribed")
	return nil
}

// Close ends every subscription and closes all listeners
func (b *RedisEventBus) Close() error {
	b.cancel()

	b.mu.RLock()
	open := make(map[string]*topic, len(b.topics))
	for channel, t := range b.topics {
		open[channel] = t
	}
	b.mu.RUnlock()

	var errs []error
	for channel, t := range open {
		if err := b.drop(channel, t); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("errors closing event bus: %w", err)
	}

	b.logger.Info().Msg("event bus closed")
	return nil
}
