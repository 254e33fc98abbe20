package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RoomProvider отдает комнаты пользователя для начального подключения
// (беседы и команды из CRUD-слоя, без пагинации)
type RoomProvider interface {
	UserRooms(ctx context.Context, userID uuid.UUID) ([]RoomID, error)
}

// PresenceHook получает события жизненного цикла соединений.
// Ошибки presence не роняют соединение.
type PresenceHook interface {
	HandleConnect(ctx context.Context, userID, connID uuid.UUID)
	HandleDisconnect(ctx context.Context, userID, connID uuid.UUID)
}

// RoomAuthorizer проверяет членство перед явным входом в комнату.
// Начальное подключение комнат идет через RoomProvider и проверку не требует.
type RoomAuthorizer interface {
	CanJoin(ctx context.Context, userID uuid.UUID, kind RoomKind, id uuid.UUID) (bool, error)
}

type Hub struct {
	clients map[uuid.UUID]*Client

	// Клиенты по UserID (один пользователь может иметь несколько соединений)
	userClients map[uuid.UUID]map[uuid.UUID]*Client

	// Клиенты в комнатах
	rooms map[RoomID]map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client

	roomProvider RoomProvider
	presence     PresenceHook
	authorizer   RoomAuthorizer

	mu sync.RWMutex

	// Контекст для graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub создает новый Hub
func NewHub(roomProvider RoomProvider) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:      make(map[uuid.UUID]*Client),
		userClients:  make(map[uuid.UUID]map[uuid.UUID]*Client),
		rooms:        make(map[RoomID]map[uuid.UUID]*Client),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		roomProvider: roomProvider,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// SetPresence подключает presence tracker. Вызывается один раз при сборке
// сервера, до запуска Run.
func (h *Hub) SetPresence(p PresenceHook) {
	h.presence = p
}

// SetAuthorizer подключает проверку членства для явных join-запросов
func (h *Hub) SetAuthorizer(a RoomAuthorizer) {
	h.authorizer = a
}

// Run запускает hub
func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ticker.C:
			h.ping()
		}
	}
}

// Stop останавливает hub. Живые соединения проходят полный путь
// unregister, чтобы presence в Redis не остался с висячими записями.
func (h *Hub) Stop() {
	h.cancel()

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		h.unregisterClient(client)
		if client.Conn != nil {
			client.Conn.Close()
		}
	}
}

// Register регистрирует нового клиента. После остановки hub
// регистрация не принимается и соединение закрывается.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
		if client.Conn != nil {
			client.Conn.Close()
		}
	}
}

// Unregister отменяет регистрацию клиента. После остановки цикл Run
// уже не читает канал, поэтому чистим напрямую (unregisterClient
// идемпотентен и при повторе ничего не делает).
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
		h.unregisterClient(client)
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client

	if _, ok := h.userClients[client.UserID]; !ok {
		h.userClients[client.UserID] = make(map[uuid.UUID]*Client)
	}
	h.userClients[client.UserID][client.ID] = client
	h.mu.Unlock()

	log.Printf("Client registered: %s (User: %s)", client.ID, client.UserID)
}

// Connect подключает клиента к его беседам и командам и отмечает
// соединение в presence. Ходит в БД и Redis, поэтому вызывается из
// горутины апгрейда до запуска pump-ов, а не из цикла Run: цикл
// остается только на мутациях карт и не встает на медленном I/O.
func (h *Hub) Connect(client *Client) {
	if h.roomProvider != nil {
		ctx, cancel := context.WithTimeout(h.ctx, 10*time.Second)
		rooms, err := h.roomProvider.UserRooms(ctx, client.UserID)
		cancel()
		if err != nil {
			log.Printf("Failed to load rooms for user %s: %v", client.UserID, err)
		} else {
			for _, roomID := range rooms {
				h.JoinRoom(client, roomID)
			}
		}
	}

	if h.presence != nil {
		h.presence.HandleConnect(h.ctx, client.UserID, client.ID)
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	_, known := h.clients[client.ID]
	if known {
		// Удаляем из всех комнат
		for roomID := range client.Rooms {
			h.removeFromRoomUnsafe(client, roomID)
		}

		if userClients, ok := h.userClients[client.UserID]; ok {
			delete(userClients, client.ID)
			if len(userClients) == 0 {
				delete(h.userClients, client.UserID)
			}
		}

		delete(h.clients, client.ID)
		close(client.Send)
	}
	h.mu.Unlock()

	if known {
		log.Printf("Client unregistered: %s (User: %s)", client.ID, client.UserID)

		// Ровно один вызов на соединение: повторный unregister того же
		// клиента не проходит проверку known
		if h.presence != nil {
			h.presence.HandleDisconnect(h.ctx, client.UserID, client.ID)
		}
	}
}

// JoinRoom добавляет клиента в комнату. Повторное добавление — no-op.
func (h *Hub) JoinRoom(client *Client, roomID RoomID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[uuid.UUID]*Client)
	}
	if _, ok := h.rooms[roomID][client.ID]; ok {
		return
	}

	h.rooms[roomID][client.ID] = client
	client.mu.Lock()
	client.Rooms[roomID] = true
	client.mu.Unlock()
}

// JoinRoomChecked добавляет клиента в комнату после проверки членства.
// Комнаты, в которых пользователь не состоит, недоступны даже по
// явному запросу с валидным ID.
func (h *Hub) JoinRoomChecked(client *Client, kind RoomKind, id uuid.UUID) error {
	if h.authorizer != nil {
		ctx, cancel := context.WithTimeout(h.ctx, 5*time.Second)
		ok, err := h.authorizer.CanJoin(ctx, client.UserID, kind, id)
		cancel()
		if err != nil {
			log.Printf("Room membership check failed for user %s: %v", client.UserID, err)
			return ErrUnauthorized
		}
		if !ok {
			return ErrUnauthorized
		}
	}

	switch kind {
	case KindTeam:
		h.JoinRoom(client, TeamRoom(id))
	default:
		h.JoinRoom(client, ConversationRoom(id))
	}
	return nil
}

// LeaveRoom удаляет клиента из комнаты. Выход из чужой комнаты — no-op.
func (h *Hub) LeaveRoom(client *Client, roomID RoomID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoomUnsafe(client, roomID)
}

func (h *Hub) removeFromRoomUnsafe(client *Client, roomID RoomID) {
	if room, ok := h.rooms[roomID]; ok {
		if _, ok := room[client.ID]; ok {
			delete(room, client.ID)
			client.mu.Lock()
			delete(client.Rooms, roomID)
			client.mu.Unlock()

			if len(room) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
}

// SendToUser отправляет сообщение во все соединения пользователя
func (h *Hub) SendToUser(userID uuid.UUID, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.userClients[userID]; ok {
		for _, client := range clients {
			select {
			case client.Send <- message:
			default:
				log.Printf("Client %s send channel full", client.ID)
			}
		}
	}
}

// SendToRoom отправляет сообщение всем подписчикам комнаты
func (h *Hub) SendToRoom(roomID RoomID, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if room, ok := h.rooms[roomID]; ok {
		for _, client := range room {
			select {
			case client.Send <- message:
			default:
				log.Printf("Client %s send channel full", client.ID)
			}
		}
	}
}

// SendToAll отправляет сообщение всем подключенным клиентам
func (h *Hub) SendToAll(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.Send <- message:
		default:
		}
	}
}

func (h *Hub) ping() {
	msg := Event{
		Type:      TypePing,
		Timestamp: time.Now(),
	}

	if data, err := json.Marshal(msg); err == nil {
		h.SendToAll(data)
	}
}

// GetRoomUsers возвращает список пользователей в комнате
func (h *Hub) GetRoomUsers(roomID RoomID) []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	userMap := make(map[uuid.UUID]bool)
	if room, ok := h.rooms[roomID]; ok {
		for _, client := range room {
			userMap[client.UserID] = true
		}
	}

	users := make([]uuid.UUID, 0, len(userMap))
	for userID := range userMap {
		users = append(users, userID)
	}
	return users
}

// ConnectionCount возвращает число локальных соединений пользователя.
// Авторитетный online-статус живет в presence store, это только диагностика.
func (h *Hub) ConnectionCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userClients[userID])
}
