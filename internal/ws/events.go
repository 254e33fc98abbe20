package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType определяет типы событий протокола
type EventType string

const (
	// Системные типы
	TypePing EventType = "ping"
	TypePong EventType = "pong"

	// Клиент -> сервер
	TypeSendMessage      EventType = "send_message"
	TypeEditMessage      EventType = "edit_message"
	TypeDeleteMessage    EventType = "delete_message"
	TypeJoinConversation EventType = "join_conversation"
	TypeJoinTeam         EventType = "join_team"
	TypeRemoveTeam       EventType = "remove_team"

	// Сервер -> клиент
	TypeNewMessage      EventType = "new_message"
	TypeMessageEdited   EventType = "message_edited"
	TypeMessageDeleted  EventType = "message_deleted"
	TypeNewConversation EventType = "new_conversation"
	TypeNewNotification EventType = "new_notification"
	TypeUserOnline      EventType = "user:online"
	TypeUserOffline     EventType = "user:offline"

	// В обе стороны
	TypeMessageRead EventType = "message_read"
)

// Event конверт события на проводе
type Event struct {
	Type      EventType       `json:"type"`
	RoomID    *RoomID         `json:"room_id,omitempty"`
	UserID    uuid.UUID       `json:"user_id"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// RoomKind вид комнаты: conversation или team
type RoomKind string

const (
	KindConversation RoomKind = "conversation"
	KindTeam         RoomKind = "team"
)

// RoomID идентификатор комнаты с префиксом вида, например "conversation:<uuid>"
type RoomID string

func ConversationRoom(id uuid.UUID) RoomID {
	return RoomID(string(KindConversation) + ":" + id.String())
}

func TeamRoom(id uuid.UUID) RoomID {
	return RoomID(string(KindTeam) + ":" + id.String())
}

// Типизированные полезные нагрузки. Каждый вид события имеет фиксированную
// схему и проверяется на границе gateway до записи в базу или рассылки.

type SendMessagePayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	Content        string    `json:"content"`
	Type           string    `json:"type,omitempty"` // text, image, file
}

type EditMessagePayload struct {
	MessageID uuid.UUID `json:"message_id"`
	Content   string    `json:"content"`
}

type DeleteMessagePayload struct {
	MessageID uuid.UUID `json:"message_id"`
}

type MessageReadPayload struct {
	MessageID uuid.UUID `json:"message_id"`
	ReaderID  uuid.UUID `json:"reader_id,omitempty"`
}

type JoinConversationPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
}

type JoinTeamPayload struct {
	TeamID uuid.UUID `json:"team_id"`
}

type PresencePayload struct {
	UserID uuid.UUID `json:"user_id"`
}

// Validate проверяет, что нагрузка события соответствует схеме своего типа
func (p SendMessagePayload) Validate() error {
	if p.ConversationID == uuid.Nil || p.Content == "" {
		return ErrInvalidPayload
	}
	return nil
}

func (p EditMessagePayload) Validate() error {
	if p.MessageID == uuid.Nil || p.Content == "" {
		return ErrInvalidPayload
	}
	return nil
}

func (p DeleteMessagePayload) Validate() error {
	if p.MessageID == uuid.Nil {
		return ErrInvalidPayload
	}
	return nil
}

func (p MessageReadPayload) Validate() error {
	if p.MessageID == uuid.Nil {
		return ErrInvalidPayload
	}
	return nil
}

func (p JoinConversationPayload) Validate() error {
	if p.ConversationID == uuid.Nil {
		return ErrInvalidPayload
	}
	return nil
}

func (p JoinTeamPayload) Validate() error {
	if p.TeamID == uuid.Nil {
		return ErrInvalidPayload
	}
	return nil
}

// DecodePayload разбирает и валидирует нагрузку события
func DecodePayload[T interface{ Validate() error }](data json.RawMessage) (T, error) {
	var payload T
	if len(data) == 0 {
		return payload, ErrInvalidPayload
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, ErrInvalidPayload
	}
	if err := payload.Validate(); err != nil {
		return payload, err
	}
	return payload, nil
}
