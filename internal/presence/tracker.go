package presence

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/thereayou/teamflow/internal/ws"
)

// Emitter рассылает глобальные события о смене статуса
type Emitter interface {
	ToAll(eventType ws.EventType, about uuid.UUID, payload interface{}) error
}

// Tracker превращает connect/disconnect соединений в online/offline
// переходы пользователей. user:online уходит только на переходе 0 -> 1,
// user:offline — только на 1 -> 0: остальные вкладки и устройства
// пользователя статус не меняют.
type Tracker struct {
	store   Store
	emitter Emitter
}

func NewTracker(store Store, emitter Emitter) *Tracker {
	return &Tracker{store: store, emitter: emitter}
}

// HandleConnect вызывается hub'ом после успешной аутентификации.
// Ошибка хранилища логируется и не роняет соединение: presence
// деградирует, но клиент продолжает работать.
func (t *Tracker) HandleConnect(ctx context.Context, userID, connID uuid.UUID) {
	count, err := t.store.Add(ctx, userID, connID)
	if err != nil {
		log.Printf("Presence add failed for user %s: %v", userID, err)
		return
	}

	if count == 1 {
		if err := t.emitter.ToAll(ws.TypeUserOnline, userID, ws.PresencePayload{UserID: userID}); err != nil {
			log.Printf("Failed to broadcast user online %s: %v", userID, err)
		}
	}
}

// HandleDisconnect вызывается hub'ом ровно один раз на соединение
func (t *Tracker) HandleDisconnect(ctx context.Context, userID, connID uuid.UUID) {
	count, err := t.store.Remove(ctx, userID, connID)
	if err != nil {
		log.Printf("Presence remove failed for user %s: %v", userID, err)
		return
	}

	if count == 0 {
		if err := t.emitter.ToAll(ws.TypeUserOffline, userID, ws.PresencePayload{UserID: userID}); err != nil {
			log.Printf("Failed to broadcast user offline %s: %v", userID, err)
		}
	}
}

// IsUserOnline читает хранилище напрямую: после падения инстанса кеш
// дал бы устаревший статус
func (t *Tracker) IsUserOnline(ctx context.Context, userID uuid.UUID) bool {
	count, err := t.store.Count(ctx, userID)
	if err != nil {
		log.Printf("Presence count failed for user %s: %v", userID, err)
		return false
	}
	return count > 0
}
