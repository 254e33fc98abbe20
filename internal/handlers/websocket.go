package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/thereayou/teamflow/internal/ws"
	"github.com/thereayou/teamflow/pkg/auth"
)

// WebSocketHandler принимает постоянные соединения. Handshake: токен из
// cookie (запасные пути — query и header), проверка подписи и черного
// списка до upgrade. Ни при какой ошибке частичное состояние не остается.
type WebSocketHandler struct {
	hub          *ws.Hub
	jwtManager   *auth.JWTManager
	redis        *redis.Client
	eventHandler ws.EventHandler
	upgrader     websocket.Upgrader
}

func NewWebSocketHandler(hub *ws.Hub, jwtMgr *auth.JWTManager, rdb *redis.Client, eventHandler ws.EventHandler) *WebSocketHandler {
	return &WebSocketHandler{
		hub:          hub,
		jwtManager:   jwtMgr,
		redis:        rdb,
		eventHandler: eventHandler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// TODO: Проверить origin в prod
				return true
			},
		},
	}
}

// HandleWebSocket аутентифицирует и регистрирует соединение
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	token, err := auth.ExtractTokenFromRequest(c.Request)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	exists, err := h.redis.Exists(context.Background(), "blacklist:"+token).Result()
	if err != nil || exists > 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token is blacklisted"})
		return
	}

	claims, err := h.jwtManager.Verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	// Привязка соединения к пользователю неизменна до disconnect
	client := ws.NewClient(h.hub, conn, userID)

	h.hub.Register(client)

	// Начальные комнаты и presence подключаются здесь, до запуска
	// pump-ов: I/O остается в горутине апгрейда, и disconnect
	// физически не может обогнать connect для того же соединения
	h.hub.Connect(client)

	go client.WritePump()
	go client.ReadPump(h.eventHandler)
}
