package sse

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesOnlyRecipient(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	alice := hub.Subscribe(ctx, "alice")
	bob := hub.Subscribe(ctx, "bob")

	n := hub.Publish(Event{RecipientID: "alice", Name: "payroll.approved", Data: map[string]string{"id": "p1"}})
	assert.Equal(t, 1, n)

	select {
	case ev := <-alice:
		assert.Equal(t, "payroll.approved", ev.Name)
	case <-time.After(time.Second):
		t.Fatal("alice did not receive the event")
	}

	select {
	case ev := <-bob:
		t.Fatalf("bob received %v", ev)
	default:
	}
}

func TestHub_SubscriptionEndsWithContext(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	ch := hub.Subscribe(ctx, "alice")
	require.Equal(t, 1, hub.SubscriberCount("alice"))

	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("channel was not closed")
	}
	assert.Equal(t, 0, hub.SubscriberCount("alice"))
	assert.Equal(t, 0, hub.Publish(Event{RecipientID: "alice"}))
}

func TestWriteEvent(t *testing.T) {
	var buf bytes.Buffer
	err := WriteEvent(&buf, Event{ID: "n1", Name: "payroll.submitted", Data: map[string]string{"payroll_id": "p1"}})
	require.NoError(t, err)
	assert.Equal(t, "id: n1\nevent: payroll.submitted\ndata: {\"payroll_id\":\"p1\"}\n\n", buf.String())
}
