package providers

import (
	"context"

	"github.com/bloodconnect/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.DeliveryEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.DeliveryEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

const (
	// EventChannelDeliveryUpdates is the channel for all delivery updates
	EventChannelDeliveryUpdates = "delivery:updates"

	// EventChannelDeliveryPrefix is the prefix for request-specific channels
	EventChannelDeliveryPrefix = "delivery:"
)

// GetDeliveryChannel returns the channel name for a specific delivery request
func GetDeliveryChannel(requestID string) string {
	return EventChannelDeliveryPrefix + requestID
}
