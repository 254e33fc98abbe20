package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Время ожидания записи
	writeWait = 10 * time.Second

	// Время ожидания pong от клиента
	pongWait = 60 * time.Second

	// Интервал отправки ping
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер сообщения
	maxMessageSize = 512 * 1024 // 512KB
)

type Client struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Conn   *websocket.Conn
	Send   chan []byte
	Rooms  map[RoomID]bool
	Hub    *Hub
	mu     sync.RWMutex
}

type EventHandler interface {
	HandleEvent(client *Client, event *Event) error
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		ID:     uuid.New(),
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		Rooms:  make(map[RoomID]bool),
		Hub:    hub,
	}
}

// ReadPump читает события от клиента. Defer гарантирует очистку ровно один
// раз на любом пути выхода: ошибка чтения, закрытие клиентом, обрыв сети.
func (c *Client) ReadPump(handler EventHandler) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var event Event
		err := c.Conn.ReadJSON(&event)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		// Привязка соединения к пользователю неизменна: что бы клиент ни
		// прислал в user_id, событие идет от аутентифицированного пользователя
		event.UserID = c.UserID

		switch event.Type {
		case TypePong:
			continue

		case TypeJoinConversation:
			payload, err := DecodePayload[JoinConversationPayload](event.Data)
			if err != nil {
				c.SendError(err.Error())
				continue
			}
			if err := c.Hub.JoinRoomChecked(c, KindConversation, payload.ConversationID); err != nil {
				c.SendError(err.Error())
			}
			continue

		case TypeJoinTeam:
			payload, err := DecodePayload[JoinTeamPayload](event.Data)
			if err != nil {
				c.SendError(err.Error())
				continue
			}
			if err := c.Hub.JoinRoomChecked(c, KindTeam, payload.TeamID); err != nil {
				c.SendError(err.Error())
			}
			continue

		case TypeRemoveTeam:
			payload, err := DecodePayload[JoinTeamPayload](event.Data)
			if err != nil {
				c.SendError(err.Error())
				continue
			}
			c.Hub.LeaveRoom(c, TeamRoom(payload.TeamID))
			continue
		}

		if handler != nil {
			if err := handler.HandleEvent(c, &event); err != nil {
				log.Printf("Error handling event %s: %v", event.Type, err)
				c.SendError(err.Error())
			}
		}
	}
}

// WritePump отправляет события клиенту
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub закрыл канал
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			c.Conn.WriteMessage(websocket.TextMessage, message)

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) SendEvent(eventType EventType, roomID *RoomID, data interface{}) error {
	event := Event{
		Type:      eventType,
		RoomID:    roomID,
		UserID:    c.UserID,
		Timestamp: time.Now(),
	}

	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return err
		}
		event.Data = jsonData
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		return err
	}

	select {
	case c.Send <- eventData:
		return nil
	default:
		return ErrClientQueueFull
	}
}

func (c *Client) SendError(errorMsg string) {
	c.SendEvent("error", nil, map[string]string{
		"error": errorMsg,
	})
}

func (c *Client) IsInRoom(roomID RoomID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Rooms[roomID]
}

func (c *Client) GetRooms() []RoomID {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rooms := make([]RoomID, 0, len(c.Rooms))
	for roomID := range c.Rooms {
		rooms = append(rooms, roomID)
	}
	return rooms
}
