package server

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/thereayou/teamflow/internal/handlers"
	"github.com/thereayou/teamflow/internal/middleware"
	"github.com/thereayou/teamflow/pkg/auth"
)

func APIEndpoints(
	r *gin.Engine,
	jwtMgr *auth.JWTManager,
	rdb *redis.Client,
	authH *handlers.AuthHandler,
	wsH *handlers.WebSocketHandler,
	conversationH *handlers.ConversationHandler,
	teamH *handlers.TeamHandler,
	taskH *handlers.TaskHandler,
	notificationH *handlers.NotificationHandler,
) {
	// Auth endpoints
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", authH.Register)
		authGroup.POST("/login", authH.Login)
		authGroup.POST("/logout", authH.Logout)
	}

	// WebSocket handshake: аутентификация внутри обработчика, по cookie
	r.GET("/ws", wsH.HandleWebSocket)

	// API endpoints
	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(jwtMgr, rdb))
	{
		api.POST("/conversations", conversationH.CreateConversation)
		api.GET("/conversations/:id/messages", conversationH.GetMessages)

		api.POST("/teams", teamH.CreateTeam)
		api.POST("/teams/:id/members", teamH.AddMember)
		api.DELETE("/teams/:id/members/:user_id", teamH.RemoveMember)

		api.POST("/tasks", taskH.CreateTask)
		api.GET("/tasks/:id", taskH.GetTask)
		api.POST("/tasks/:id/assign", taskH.AssignTask)

		api.GET("/notifications", notificationH.GetMyNotifications)
		api.POST("/notifications/:id/read", notificationH.MarkRead)
		api.DELETE("/notifications/:id", notificationH.Delete)

		api.GET("/presence/:user_id", notificationH.GetPresence)
	}
}
