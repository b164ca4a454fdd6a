package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/farmledger/internal/domain"
)

func TestStreamPublisherAppendsEvent(t *testing.T) {
	client, _ := newTestRedisClient(t)
	defer client.Close()

	pub := NewStreamPublisher(client, "farmledger:events")
	ctx := context.Background()

	event := &domain.OutboxEvent{
		ID:            "01J0OUTBOX",
		AggregateID:   "alice",
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypeRewardAccrued,
		Payload:       map[string]any{"amount": "3", "currency": "POINTS"},
		CreatedAt:     time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, pub.Publish(ctx, event))

	msgs, err := client.XRange(ctx, "farmledger:events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	values := msgs[0].Values
	assert.Equal(t, "01J0OUTBOX", values["event_id"])
	assert.Equal(t, domain.EventTypeRewardAccrued, values["event_type"])
	assert.Equal(t, "alice", values["aggregate_id"])
	assert.Equal(t, "2026-06-01T12:00:00Z", values["created_at"])

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(values["payload"].(string)), &payload))
	assert.Equal(t, "3", payload["amount"])
}

func TestStreamPublisherKeepsOrder(t *testing.T) {
	client, _ := newTestRedisClient(t)
	defer client.Close()

	pub := NewStreamPublisher(client, "events")
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, pub.Publish(ctx, &domain.OutboxEvent{ID: id, EventType: domain.EventTypeDepositConfirmed}))
	}

	msgs, err := client.XRange(ctx, "events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	for i, id := range []string{"a", "b", "c"} {
		assert.Equal(t, id, msgs[i].Values["event_id"])
	}
}
