package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/thereayou/teamflow/internal/database"
	"github.com/thereayou/teamflow/internal/middleware"
	"github.com/thereayou/teamflow/internal/presence"
)

type NotificationHandler struct {
	db      *database.Database
	tracker *presence.Tracker
}

func NewNotificationHandler(db *database.Database, tracker *presence.Tracker) *NotificationHandler {
	return &NotificationHandler{db: db, tracker: tracker}
}

func (h *NotificationHandler) GetMyNotifications(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	notifications, err := h.db.GetUserNotifications(userID.String(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get notifications"})
		return
	}

	c.JSON(http.StatusOK, notifications)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	if err := h.db.MarkNotificationRead(c.Param("id"), userID.String()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark notification read"})
		return
	}

	c.Status(http.StatusOK)
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	if err := h.db.DeleteNotification(c.Param("id"), userID.String()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete notification"})
		return
	}

	c.Status(http.StatusOK)
}

// GetPresence отдает online-статус пользователя напрямую из presence store
func (h *NotificationHandler) GetPresence(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	online := h.tracker.IsUserOnline(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "online": online})
}
