package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procexaiedu/practice-scheduler/pkg/messaging"
)

func newTestBroker(t *testing.T) messaging.Broker {
	t.Helper()

	mr := miniredis.RunT(t)
	logger := zerolog.Nop()

	broker, err := NewRedisBroker(Config{
		URL:          "redis://" + mr.Addr(),
		MaxRetries:   1,
		RetryBackoff: 10 * time.Millisecond,
		PoolSize:     2,
		MinIdleConns: 1,
	}, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { broker.Close() })

	return broker
}

func TestRedisBrokerPublishSubscribe(t *testing.T) {
	broker := newTestBroker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msgs, err := broker.Subscribe(ctx, "appointment.created")
	require.NoError(t, err)

	// Give the subscriber goroutine time to attach before publishing.
	time.Sleep(50 * time.Millisecond)

	payload := messaging.Message{
		Type:    "appointment.created",
		Payload: map[string]string{"appointment_id": "a-1"},
	}
	require.NoError(t, broker.Publish(ctx, "appointment.created", payload))

	select {
	case raw := <-msgs:
		var got messaging.Message
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, "appointment.created", got.Type)
	case <-ctx.Done():
		t.Fatal("timed out waiting for published message")
	}
}

func TestRedisBrokerBadURL(t *testing.T) {
	logger := zerolog.Nop()
	_, err := NewRedisBroker(Config{URL: "not-a-url"}, &logger)
	assert.Error(t, err)
}
