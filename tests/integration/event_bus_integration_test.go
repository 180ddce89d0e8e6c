//go:build integration

package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloodconnect/backend/internal/adapters/events"
	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/providers"
)

func TestRedisEventBusFanoutIntegration(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	defer eventBus.Close()

	channel := providers.GetDeliveryChannel("req-redis-1")
	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel1()
	defer cancel2()

	sub1, err := eventBus.Subscribe(ctx1, channel)
	require.NoError(t, err)
	sub2, err := eventBus.Subscribe(ctx2, channel)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	req := &entities.DeliveryRequest{
		ID:               "req-redis-1",
		Kind:             entities.RequesterUser,
		RequesterName:    "Ravi",
		RequiredCategory: "O+",
		Status:           entities.DeliveryStatusAccepted,
	}
	event := entities.NewDeliveryEvent(req, entities.DeliveryEventAccepted, map[string]any{"agent_id": "agent-1"})

	require.NoError(t, eventBus.Publish(context.Background(), channel, event))

	received1 := waitForDeliveryEvent(t, sub1)
	received2 := waitForDeliveryEvent(t, sub2)

	assert.Equal(t, event.ID, received1.ID)
	assert.Equal(t, event.ID, received2.ID)
	assert.Equal(t, entities.DeliveryStatusAccepted, received1.Status)
	assert.Equal(t, "agent-1", received2.Details["agent_id"])

	cancel1()
	time.Sleep(50 * time.Millisecond)

	second := entities.NewDeliveryEvent(req, entities.DeliveryEventInTransit, nil)
	require.NoError(t, eventBus.Publish(context.Background(), channel, second))
	assert.Equal(t, second.ID, waitForDeliveryEvent(t, sub2).ID)
}

func waitForDeliveryEvent(t *testing.T, ch <-chan *entities.DeliveryEvent) *entities.DeliveryEvent {
	t.Helper()
	select {
	case event, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery event")
		return nil
	}
}
