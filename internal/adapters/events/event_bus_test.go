package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/providers"
	redisclient "github.com/bloodconnect/backend/internal/infrastructure/clients/redis"
)

func sampleEvent() *entities.DeliveryEvent {
	req := &entities.DeliveryRequest{ID: "req-1", Status: entities.DeliveryStatusAccepted}
	return entities.NewDeliveryEvent(req, entities.DeliveryEventAccepted, nil)
}

func TestMemoryEventBus_PublishSubscribe(t *testing.T) {
	bus := NewMemoryEventBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	events, err := bus.Subscribe(ctx, providers.EventChannelDeliveryUpdates)
	require.NoError(t, err)

	event := sampleEvent()
	require.NoError(t, bus.Publish(context.Background(), providers.EventChannelDeliveryUpdates, event))

	select {
	case got := <-events:
		assert.Equal(t, event.ID, got.ID)
		assert.Equal(t, "req-1", got.RequestID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}

	cancel()
	assert.Eventually(t, func() bool {
		_, open := <-events
		return !open
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryEventBus_OtherChannelNotDelivered(t *testing.T) {
	bus := NewMemoryEventBus()
	defer bus.Close()

	events, err := bus.Subscribe(context.Background(), providers.GetDeliveryChannel("req-2"))
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), providers.GetDeliveryChannel("req-1"), sampleEvent()))

	select {
	case <-events:
		t.Fatal("unexpected event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRedisEventBus_PublishSubscribe(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	bus := NewRedisEventBus(redisclient.Wrap(client))
	defer bus.Close()

	events, err := bus.Subscribe(context.Background(), providers.EventChannelDeliveryUpdates)
	require.NoError(t, err)

	event := sampleEvent()
	var got *entities.DeliveryEvent
	require.Eventually(t, func() bool {
		require.NoError(t, bus.Publish(context.Background(), providers.EventChannelDeliveryUpdates, event))
		select {
		case got = <-events:
			return true
		case <-time.After(20 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, event.ID, got.ID)
	assert.Equal(t, entities.DeliveryEventAccepted, got.EventType)
}
