package broadcast

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/teamflow/internal/ws"
)

// Router раздает доменные события подписчикам через hub. Доставка
// best-effort и не более одного раза на открытое соединение: состояния и
// повторов нет, отставшие клиенты догоняются через REST-чтение.
type Router struct {
	hub *ws.Hub
}

func NewRouter(hub *ws.Hub) *Router {
	return &Router{hub: hub}
}

func (r *Router) envelope(eventType ws.EventType, roomID *ws.RoomID, userID uuid.UUID, payload interface{}) ([]byte, error) {
	event := ws.Event{
		Type:      eventType,
		RoomID:    roomID,
		UserID:    userID,
		Timestamp: time.Now(),
	}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		event.Data = data
	}

	return json.Marshal(event)
}

// ToRoom рассылает событие всем соединениям в комнате
func (r *Router) ToRoom(roomID ws.RoomID, eventType ws.EventType, from uuid.UUID, payload interface{}) error {
	data, err := r.envelope(eventType, &roomID, from, payload)
	if err != nil {
		return err
	}
	r.hub.SendToRoom(roomID, data)
	return nil
}

// ToUser рассылает событие во все соединения пользователя (все вкладки
// и устройства получают его независимо)
func (r *Router) ToUser(userID uuid.UUID, eventType ws.EventType, payload interface{}) error {
	data, err := r.envelope(eventType, nil, userID, payload)
	if err != nil {
		return err
	}
	r.hub.SendToUser(userID, data)
	return nil
}

// ToAll рассылает глобальное событие, например user:online
func (r *Router) ToAll(eventType ws.EventType, about uuid.UUID, payload interface{}) error {
	data, err := r.envelope(eventType, nil, about, payload)
	if err != nil {
		return err
	}
	r.hub.SendToAll(data)
	return nil
}
