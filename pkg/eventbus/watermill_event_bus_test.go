package eventbus

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanyucloud/flowd/pkg/events"
)

func TestWatermillEventBus_PublishAndHandle(t *testing.T) {
	bus := NewGoChannelEventBus(slog.Default())

	defer func() {
		_ = bus.Close()
	}()

	received := make(chan *events.WorkflowCreated, 1)

	err := bus.Handle(events.WorkflowCreatedEvent, func(_ context.Context, event any) error {
		created, ok := event.(*events.WorkflowCreated)
		if ok {
			received <- created
		}

		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	event := events.WorkflowCreated{
		BaseEvent: events.NewBaseEvent(events.WorkflowCreatedEvent, "wf-1"),
		Name:      "Nightly report",
	}
	require.NoError(t, bus.Publish(ctx, "wf-1", event))

	select {
	case got := <-received:
		assert.Equal(t, "wf-1", got.WorkflowID)
		assert.Equal(t, "Nightly report", got.Name)
		assert.Equal(t, events.WorkflowCreatedEvent, got.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestWatermillEventBus_UnhandledEventTypesAreIgnored(t *testing.T) {
	bus := NewGoChannelEventBus(slog.Default())

	defer func() {
		_ = bus.Close()
	}()

	received := make(chan *events.WorkflowDeleted, 1)

	err := bus.Handle(events.WorkflowDeletedEvent, func(_ context.Context, event any) error {
		deleted, ok := event.(*events.WorkflowDeleted)
		if ok {
			received <- deleted
		}

		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	// No handler registered for created events; they are acked and dropped.
	created := events.WorkflowCreated{
		BaseEvent: events.NewBaseEvent(events.WorkflowCreatedEvent, "wf-1"),
		Name:      "Ignored",
	}
	require.NoError(t, bus.Publish(ctx, "wf-1", created))

	deleted := events.WorkflowDeleted{
		BaseEvent: events.NewBaseEvent(events.WorkflowDeletedEvent, "wf-1"),
	}
	require.NoError(t, bus.Publish(ctx, "wf-1", deleted))

	select {
	case got := <-received:
		assert.Equal(t, "wf-1", got.WorkflowID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	bus := NewGoChannelEventBus(slog.Default())

	defer func() {
		_ = bus.Close()
	}()

	first := bus.GenerateID()
	second := bus.GenerateID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
