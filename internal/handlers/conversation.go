package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/thereayou/teamflow/internal/broadcast"
	"github.com/thereayou/teamflow/internal/database"
	"github.com/thereayou/teamflow/internal/handlers/dto"
	"github.com/thereayou/teamflow/internal/middleware"
	"github.com/thereayou/teamflow/internal/models"
	"github.com/thereayou/teamflow/internal/ws"
)

type ConversationHandler struct {
	db     *database.Database
	router *broadcast.Router
}

func NewConversationHandler(db *database.Database, router *broadcast.Router) *ConversationHandler {
	return &ConversationHandler{db: db, router: router}
}

// CreateConversation создает беседу и рассылает new_conversation каждому
// участнику — после коммита, не до
func (h *ConversationHandler) CreateConversation(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req struct {
		Name           string   `json:"name"`
		Type           string   `json:"type" binding:"required,oneof=group direct"`
		ParticipantIDs []string `json:"participant_ids"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conversation := &models.Conversation{
		Name:      req.Name,
		Type:      req.Type,
		CreatedBy: userID,
		CreatedAt: time.Now(),
	}

	if err := h.db.CreateConversation(conversation); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create conversation"})
		return
	}

	if err := h.db.AddUserToConversation(userID.String(), conversation.ID.String()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add creator"})
		return
	}

	for _, participantID := range req.ParticipantIDs {
		if participantID != userID.String() {
			h.db.AddUserToConversation(participantID, conversation.ID.String())
		}
	}

	full, err := h.db.GetConversation(conversation.ID.String())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversation"})
		return
	}

	response := formatConversation(full)

	for _, participant := range full.Participants {
		h.router.ToUser(participant.ID, ws.TypeNewConversation, response)
	}

	c.JSON(http.StatusCreated, response)
}

// GetMessages отдает историю беседы с пагинацией. Через нее клиенты
// догоняют пропущенные во время offline события.
func (h *ConversationHandler) GetMessages(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	conversationID := c.Param("id")

	member, err := h.db.IsConversationMember(userID.String(), conversationID)
	if err != nil || !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var beforeID *uuid.UUID
	if before := c.Query("before"); before != "" {
		if id, err := uuid.Parse(before); err == nil {
			beforeID = &id
		}
	}

	messages, err := h.db.GetConversationMessages(conversationID, limit, beforeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get messages"})
		return
	}

	responses := make([]dto.MessageResponse, len(messages))
	for i, msg := range messages {
		responses[i] = dto.MessageResponse{
			ID:             msg.ID,
			ConversationID: msg.ConversationID,
			UserID:         msg.UserID,
			Content:        msg.Content,
			Type:           msg.Type,
			CreatedAt:      msg.CreatedAt,
			EditedAt:       msg.EditedAt,
			User: dto.UserInfo{
				ID:        msg.User.ID,
				Username:  msg.User.Username,
				AvatarURL: msg.User.AvatarURL,
			},
		}
	}

	c.JSON(http.StatusOK, responses)
}

func formatConversation(conversation *models.Conversation) dto.ConversationResponse {
	participants := make([]dto.UserInfo, len(conversation.Participants))
	for i, p := range conversation.Participants {
		participants[i] = dto.UserInfo{
			ID:        p.ID,
			Username:  p.Username,
			AvatarURL: p.AvatarURL,
		}
	}

	return dto.ConversationResponse{
		ID:           conversation.ID,
		Name:         conversation.Name,
		Type:         conversation.Type,
		CreatedBy:    conversation.CreatedBy,
		CreatedAt:    conversation.CreatedAt,
		Participants: participants,
	}
}
