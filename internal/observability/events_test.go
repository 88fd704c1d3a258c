package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestContextKeysRunPlanSubtask(t *testing.T) {
	ctx := context.Background()

	ctx = AddRunID(ctx, "run-123")
	require.Equal(t, "run-123", GetRunID(ctx))

	ctx = AddToolCallID(ctx, "tool-456")
	require.Equal(t, "tool-456", GetToolCallID(ctx))

	ctx = AddPlanID(ctx, "plan-1")
	require.Equal(t, "plan-1", GetPlanID(ctx))

	ctx = AddSubtaskID(ctx, "subtask-1")
	require.Equal(t, "subtask-1", GetSubtaskID(ctx))

	ctx = AddAgentID(ctx, "agent-abc")
	require.Equal(t, "agent-abc", GetAgentID(ctx))

	ctx = AddMessageID(ctx, "msg-def")
	require.Equal(t, "msg-def", GetMessageID(ctx))

	require.Empty(t, GetRunID(context.Background()))
}

func TestMemoryEventStoreRecordAndGet(t *testing.T) {
	store := NewMemoryEventStore(100)

	event := &Event{Type: EventRequestStarted, RunID: "run-1", ConvoID: "convo-1", Name: "test_event"}
	require.NoError(t, store.Record(event))
	require.NotEmpty(t, event.ID)
	require.False(t, event.Timestamp.IsZero())

	got, err := store.Get(event.ID)
	require.NoError(t, err)
	require.Equal(t, "test_event", got.Name)
}

func TestMemoryEventStoreGetByRunID(t *testing.T) {
	store := NewMemoryEventStore(100)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(&Event{Type: EventSubtaskStarted, RunID: "run-query", Name: "event"}))
	}

	events, err := store.GetByRunID("run-query")
	require.NoError(t, err)
	require.Len(t, events, 5)
}

func TestMemoryEventStoreGetByConversationID(t *testing.T) {
	store := NewMemoryEventStore(100)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Record(&Event{Type: EventAgentSwitched, ConvoID: "convo-query", Name: "switch"}))
	}

	events, err := store.GetByConversationID("convo-query")
	require.NoError(t, err)
	require.Len(t, events, 3)
}

func TestMemoryEventStoreGetByType(t *testing.T) {
	store := NewMemoryEventStore(100)
	for i := 0; i < 4; i++ {
		require.NoError(t, store.Record(&Event{Type: EventRequestCompleted, Name: "request"}))
	}

	events, err := store.GetByType(EventRequestCompleted, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
}

func TestMemoryEventStoreGetByTimeRange(t *testing.T) {
	store := NewMemoryEventStore(100)
	start := time.Now()
	time.Sleep(10 * time.Millisecond)

	require.NoError(t, store.Record(&Event{Type: EventPlanCreated, Name: "in_range"}))

	time.Sleep(10 * time.Millisecond)
	end := time.Now()

	events, err := store.GetByTimeRange(start, end)
	require.NoError(t, err)

	found := false
	for _, e := range events {
		if e.Name == "in_range" {
			found = true
		}
	}
	require.True(t, found)
}

func TestMemoryEventStoreDeleteOld(t *testing.T) {
	store := NewMemoryEventStore(100)

	oldEvent := &Event{Type: EventPlanCompleted, Timestamp: time.Now().Add(-2 * time.Hour), Name: "old_event"}
	require.NoError(t, store.Record(oldEvent))

	newEvent := &Event{Type: EventPlanCreated, Name: "new_event"}
	require.NoError(t, store.Record(newEvent))

	deleted, err := store.Delete(time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, deleted)

	_, err = store.Get(oldEvent.ID)
	require.Error(t, err)

	_, err = store.Get(newEvent.ID)
	require.NoError(t, err)
}

func TestMemoryEventStoreMaxSizeEviction(t *testing.T) {
	store := NewMemoryEventStore(10)

	for i := 0; i < 15; i++ {
		require.NoError(t, store.Record(&Event{Type: EventValidationWarning, Name: "overflow"}))
	}

	require.LessOrEqual(t, len(store.events), 10)
}

func TestMemoryEventStoreErrors(t *testing.T) {
	store := NewMemoryEventStore(100)

	require.Error(t, store.Record(nil))

	_, err := store.Get("nonexistent")
	require.Error(t, err)
}

func TestEventRecorderRecordWithContext(t *testing.T) {
	store := NewMemoryEventStore(100)
	recorder := NewEventRecorder(store, nil)

	ctx := context.Background()
	ctx = AddRunID(ctx, "run-recorder")
	ctx = AddSessionID(ctx, "convo-recorder")
	ctx = AddPlanID(ctx, "plan-recorder")

	err := recorder.Record(ctx, EventSubtaskStarted, "test_event", map[string]any{"key": "value"})
	require.NoError(t, err)

	events, err := store.GetByRunID("run-recorder")
	require.NoError(t, err)
	require.Len(t, events, 1)

	e := events[0]
	require.Equal(t, "run-recorder", e.RunID)
	require.Equal(t, "convo-recorder", e.ConvoID)
	require.Equal(t, "plan-recorder", e.PlanID)
}

func TestEventRecorderRecordError(t *testing.T) {
	store := NewMemoryEventStore(100)
	recorder := NewEventRecorder(store, nil)

	ctx := AddRunID(context.Background(), "run-error")
	testErr := errors.New("something went wrong")

	err := recorder.RecordError(ctx, EventRequestFailed, "error_event", testErr, nil)
	require.NoError(t, err)

	events, err := store.GetByRunID("run-error")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "something went wrong", events[0].Error)
}

func TestEventTypesNonEmpty(t *testing.T) {
	types := []EventType{
		EventRequestStarted, EventRequestCompleted, EventRequestFailed,
		EventToolApprovalRequested, EventHITLDecisionMade,
		EventSubtaskStarted, EventSubtaskCompleted, EventSubtaskFailed,
		EventPlanCreated, EventPlanApproved, EventPlanCompleted, EventPlanFailed,
		EventAgentSwitched, EventValidationWarning,
	}
	for _, et := range types {
		require.NotEmpty(t, string(et))
	}
}
