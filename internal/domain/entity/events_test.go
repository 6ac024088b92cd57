package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEnvelopeShape(t *testing.T) {
	u := NewUser("u-9", "a@example.com", "hashed", "John Doe", "+1234567890", nil)
	events := u.PendingEvents()
	require.Len(t, events, 1)

	env := EnvelopeOf(events[0])
	require.Equal(t, "user.created", env.EventName)
	require.Equal(t, "1.0.0", env.EventVersion)
	require.Equal(t, "u-9", env.AggregateID)
	require.Equal(t, AggregateTypeUser, env.AggregateType)
	require.WithinDuration(t, time.Now().UTC(), env.OccurredAt, time.Second)

	b, err := json.Marshal(env)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	for _, key := range []string{"eventName", "eventVersion", "aggregateId", "aggregateType", "payload", "occurredAt"} {
		require.Contains(t, m, key)
	}
}

func TestUserCreatedEventPayload(t *testing.T) {
	u := NewUser("u-10", "a@example.com", "hashed", "John Doe", "+1234567890", nil)
	payload := u.PendingEvents()[0].EventPayload()

	require.Equal(t, "u-10", payload["userId"])
	require.Equal(t, "a@example.com", payload["email"])
	require.Equal(t, "John Doe", payload["name"])
	require.Equal(t, "+1234567890", payload["phone"])
	require.Equal(t, true, payload["isActive"])
	require.Contains(t, payload, "preferences")
	require.Contains(t, payload, "createdAt")
}

func TestUserUpdatedEventDiff(t *testing.T) {
	u := NewUser("u-11", "a@example.com", "hashed", "John Doe", "+1234567890", nil)
	u.MarkEventsCommitted()
	require.NoError(t, u.UpdateProfile("Jane Doe", "+1987654321", nil))

	ev, ok := u.PendingEvents()[0].(*UserUpdatedEvent)
	require.True(t, ok)

	changes := ev.Changes()
	require.Len(t, changes, 2)
	require.Equal(t, Change{From: "John Doe", To: "Jane Doe"}, changes["name"])
	require.Equal(t, Change{From: "+1234567890", To: "+1987654321"}, changes["phone"])
	require.NotContains(t, changes, "email")
	require.NotContains(t, changes, "preferences")

	payload := ev.EventPayload()
	require.Contains(t, payload, "previousState")
	require.Contains(t, payload, "currentState")
	require.Contains(t, payload, "changes")
}

func TestUserUpdatedEventPreferencesDiff(t *testing.T) {
	u := NewUser("u-12", "a@example.com", "hashed", "John Doe", "+1234567890", nil)
	u.MarkEventsCommitted()

	prefs := DefaultPreferences().WithCuisineType("thai")
	require.NoError(t, u.UpdateProfile("John Doe", "+1234567890", &prefs))

	ev := u.PendingEvents()[0].(*UserUpdatedEvent)
	changes := ev.Changes()
	require.Len(t, changes, 1)
	require.Contains(t, changes, "preferences")
}

func TestUserDeletedEventPayload(t *testing.T) {
	u := NewUser("u-13", "a@example.com", "hashed", "John Doe", "+1234567890", nil)
	u.MarkEventsCommitted()
	require.NoError(t, u.Deactivate())

	ev := u.PendingEvents()[0]
	require.Equal(t, "user.deleted", ev.EventName())
	payload := ev.EventPayload()
	require.Equal(t, "u-13", payload["userId"])
	require.Equal(t, "a@example.com", payload["email"])
	require.Contains(t, payload, "deletedAt")
}

func TestEventOrdering(t *testing.T) {
	u := NewUser("u-14", "a@example.com", "hashed", "John Doe", "+1234567890", nil)
	require.NoError(t, u.UpdateProfile("Jane", "+1234567890", nil))
	require.NoError(t, u.Deactivate())

	events := u.PendingEvents()
	require.Len(t, events, 3)
	require.Equal(t, "user.created", events[0].EventName())
	require.Equal(t, "user.updated", events[1].EventName())
	require.Equal(t, "user.deleted", events[2].EventName())

	u.MarkEventsCommitted()
	require.Empty(t, u.PendingEvents())
}
