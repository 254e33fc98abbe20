package handlers

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thereayou/teamflow/internal/broadcast"
	"github.com/thereayou/teamflow/internal/models"
	"github.com/thereayou/teamflow/internal/ws"
)

type fakeMessageStore struct {
	saveErr   error
	updateErr error
	saved     []*models.Message
	messages  map[uuid.UUID]*models.Message
	reads     int
}

func (s *fakeMessageStore) SaveMessage(m *models.Message) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	m.ID = uuid.New()
	s.saved = append(s.saved, m)
	return nil
}

func (s *fakeMessageStore) GetMessage(id string) (*models.Message, error) {
	mid, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	if m, ok := s.messages[mid]; ok {
		return m, nil
	}
	return nil, errors.New("message not found")
}

func (s *fakeMessageStore) UpdateMessage(m *models.Message) error {
	return s.updateErr
}

func (s *fakeMessageStore) DeleteMessage(id string) error {
	return nil
}

func (s *fakeMessageStore) MarkMessageRead(messageID, userID uuid.UUID) error {
	s.reads++
	return nil
}

func (s *fakeMessageStore) GetUser(id string) (*models.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	return &models.User{ID: uid, Username: "sender"}, nil
}

func (s *fakeMessageStore) UpdateLastSeen(id string) error {
	return nil
}

// newConversationPair собирает hub с отправителем и вторым подписчиком
// в одной беседе, без живых сокетов
func newConversationPair(t *testing.T, hub *ws.Hub, conversationID uuid.UUID) (sender, peer *ws.Client) {
	t.Helper()
	room := ws.ConversationRoom(conversationID)

	sender = ws.NewClient(hub, nil, uuid.New())
	peer = ws.NewClient(hub, nil, uuid.New())
	hub.JoinRoom(sender, room)
	hub.JoinRoom(peer, room)
	return sender, peer
}

func drainEvents(t *testing.T, c *ws.Client) []ws.Event {
	t.Helper()
	var out []ws.Event
	for {
		select {
		case raw := <-c.Send:
			var event ws.Event
			require.NoError(t, json.Unmarshal(raw, &event))
			out = append(out, event)
		default:
			return out
		}
	}
}

func sendEvent(eventType ws.EventType, payload interface{}) *ws.Event {
	data, _ := json.Marshal(payload)
	return &ws.Event{Type: eventType, Data: data}
}

func TestSendMessagePersistsThenBroadcasts(t *testing.T) {
	store := &fakeMessageStore{}
	hub := ws.NewHub(nil)
	handler := NewMessageHandler(store, broadcast.NewRouter(hub))

	conversationID := uuid.New()
	sender, peer := newConversationPair(t, hub, conversationID)

	err := handler.HandleEvent(sender, sendEvent(ws.TypeSendMessage, ws.SendMessagePayload{
		ConversationID: conversationID,
		Content:        "hello",
	}))
	require.NoError(t, err)

	require.Len(t, store.saved, 1)
	assert.Equal(t, sender.UserID, store.saved[0].UserID)

	got := drainEvents(t, peer)
	require.Len(t, got, 1)
	assert.Equal(t, ws.TypeNewMessage, got[0].Type)
}

func TestSendMessageStoreFailureSuppressesBroadcast(t *testing.T) {
	store := &fakeMessageStore{saveErr: errors.New("db down")}
	hub := ws.NewHub(nil)
	handler := NewMessageHandler(store, broadcast.NewRouter(hub))

	conversationID := uuid.New()
	sender, peer := newConversationPair(t, hub, conversationID)

	err := handler.HandleEvent(sender, sendEvent(ws.TypeSendMessage, ws.SendMessagePayload{
		ConversationID: conversationID,
		Content:        "hello",
	}))
	require.Error(t, err)

	// Запись не прошла — никто в беседе не должен увидеть сообщение
	assert.Empty(t, drainEvents(t, peer))
	assert.Empty(t, drainEvents(t, sender))
}

func TestEditMessageUpdateFailureSuppressesBroadcast(t *testing.T) {
	conversationID := uuid.New()
	hub := ws.NewHub(nil)

	sender, peer := newConversationPair(t, hub, conversationID)

	messageID := uuid.New()
	store := &fakeMessageStore{
		updateErr: errors.New("db down"),
		messages: map[uuid.UUID]*models.Message{
			messageID: {ID: messageID, ConversationID: conversationID, UserID: sender.UserID, Content: "old"},
		},
	}
	handler := NewMessageHandler(store, broadcast.NewRouter(hub))

	err := handler.HandleEvent(sender, sendEvent(ws.TypeEditMessage, ws.EditMessagePayload{
		MessageID: messageID,
		Content:   "new",
	}))
	require.Error(t, err)
	assert.Empty(t, drainEvents(t, peer))
}

func TestSendMessageRequiresRoomMembership(t *testing.T) {
	store := &fakeMessageStore{}
	hub := ws.NewHub(nil)
	handler := NewMessageHandler(store, broadcast.NewRouter(hub))

	outsider := ws.NewClient(hub, nil, uuid.New())

	err := handler.HandleEvent(outsider, sendEvent(ws.TypeSendMessage, ws.SendMessagePayload{
		ConversationID: uuid.New(),
		Content:        "hello",
	}))
	assert.ErrorIs(t, err, ws.ErrNotInRoom)
	assert.Empty(t, store.saved)
}

func TestEditForeignMessageRejected(t *testing.T) {
	conversationID := uuid.New()
	hub := ws.NewHub(nil)
	sender, peer := newConversationPair(t, hub, conversationID)

	messageID := uuid.New()
	store := &fakeMessageStore{
		messages: map[uuid.UUID]*models.Message{
			messageID: {ID: messageID, ConversationID: conversationID, UserID: peer.UserID, Content: "not yours"},
		},
	}
	handler := NewMessageHandler(store, broadcast.NewRouter(hub))

	err := handler.HandleEvent(sender, sendEvent(ws.TypeEditMessage, ws.EditMessagePayload{
		MessageID: messageID,
		Content:   "hijack",
	}))
	assert.ErrorIs(t, err, ws.ErrUnauthorized)
	assert.Empty(t, drainEvents(t, peer))
}
