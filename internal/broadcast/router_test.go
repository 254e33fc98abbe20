package broadcast

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thereayou/teamflow/internal/ws"
)

func receive(t *testing.T, c *ws.Client) ws.Event {
	t.Helper()
	select {
	case raw := <-c.Send:
		var event ws.Event
		require.NoError(t, json.Unmarshal(raw, &event))
		return event
	default:
		t.Fatal("no event in client queue")
		return ws.Event{}
	}
}

func TestToRoomEnvelope(t *testing.T) {
	hub := ws.NewHub(nil)
	router := NewRouter(hub)

	roomID := ws.ConversationRoom(uuid.New())
	sender := uuid.New()

	subscriber := ws.NewClient(hub, nil, uuid.New())
	hub.JoinRoom(subscriber, roomID)

	require.NoError(t, router.ToRoom(roomID, ws.TypeNewMessage, sender, map[string]string{"content": "hi"}))

	event := receive(t, subscriber)
	assert.Equal(t, ws.TypeNewMessage, event.Type)
	require.NotNil(t, event.RoomID)
	assert.Equal(t, roomID, *event.RoomID)
	assert.Equal(t, sender, event.UserID)
	assert.False(t, event.Timestamp.IsZero())

	var payload map[string]string
	require.NoError(t, json.Unmarshal(event.Data, &payload))
	assert.Equal(t, "hi", payload["content"])
}

func TestToUserSkipsDisconnected(t *testing.T) {
	hub := ws.NewHub(nil)
	router := NewRouter(hub)

	// Получатель не подключен: не ошибка, просто no-op
	require.NoError(t, router.ToUser(uuid.New(), ws.TypeNewNotification, map[string]string{"title": "t"}))
}
