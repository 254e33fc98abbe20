package handlers

import (
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/thereayou/teamflow/internal/broadcast"
	"github.com/thereayou/teamflow/internal/handlers/dto"
	"github.com/thereayou/teamflow/internal/models"
	"github.com/thereayou/teamflow/internal/ws"
)

// MessageStore — срез CRUD-слоя, который нужен обработчику сообщений.
// database.Database его реализует; в тестах подставляется двойник.
type MessageStore interface {
	SaveMessage(message *models.Message) error
	GetMessage(id string) (*models.Message, error)
	UpdateMessage(message *models.Message) error
	DeleteMessage(id string) error
	MarkMessageRead(messageID, userID uuid.UUID) error
	GetUser(id string) (*models.User, error)
	UpdateLastSeen(id string) error
}

// MessageHandler обрабатывает доменные события сокета. Порядок строгий:
// сначала долговременная запись через CRUD-слой, рассылка только после
// успешного коммита — иначе клиент увидит мутацию, которая могла не
// сохраниться.
type MessageHandler struct {
	db     MessageStore
	router *broadcast.Router
}

func NewMessageHandler(db MessageStore, router *broadcast.Router) *MessageHandler {
	return &MessageHandler{db: db, router: router}
}

func (h *MessageHandler) HandleEvent(client *ws.Client, event *ws.Event) error {
	switch event.Type {
	case ws.TypeSendMessage:
		return h.handleSendMessage(client, event)

	case ws.TypeEditMessage:
		return h.handleEditMessage(client, event)

	case ws.TypeMessageRead:
		return h.handleMessageRead(client, event)

	case ws.TypeDeleteMessage:
		return h.handleDeleteMessage(client, event)

	default:
		log.Printf("Unknown event type: %s", event.Type)
		return nil
	}
}

func (h *MessageHandler) handleSendMessage(client *ws.Client, event *ws.Event) error {
	payload, err := ws.DecodePayload[ws.SendMessagePayload](event.Data)
	if err != nil {
		return err
	}

	room := ws.ConversationRoom(payload.ConversationID)
	if !client.IsInRoom(room) {
		return ws.ErrNotInRoom
	}

	msgType := "text"
	if payload.Type != "" {
		msgType = payload.Type
	}

	message := &models.Message{
		ConversationID: payload.ConversationID,
		UserID:         client.UserID,
		Content:        payload.Content,
		Type:           msgType,
		CreatedAt:      time.Now(),
	}

	if err := h.db.SaveMessage(message); err != nil {
		log.Printf("Failed to save message: %v", err)
		return err
	}

	user, err := h.db.GetUser(client.UserID.String())
	if err != nil {
		log.Printf("Failed to get user info: %v", err)
		return err
	}

	response := dto.MessageResponse{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		UserID:         message.UserID,
		Content:        message.Content,
		Type:           message.Type,
		CreatedAt:      message.CreatedAt,
		User: dto.UserInfo{
			ID:        user.ID,
			Username:  user.Username,
			AvatarURL: user.AvatarURL,
		},
	}

	if err := h.router.ToRoom(room, ws.TypeNewMessage, client.UserID, response); err != nil {
		return err
	}

	go h.db.UpdateLastSeen(client.UserID.String())

	return nil
}

func (h *MessageHandler) handleEditMessage(client *ws.Client, event *ws.Event) error {
	payload, err := ws.DecodePayload[ws.EditMessagePayload](event.Data)
	if err != nil {
		return err
	}

	message, err := h.db.GetMessage(payload.MessageID.String())
	if err != nil {
		return err
	}

	if message.UserID != client.UserID {
		return ws.ErrUnauthorized
	}

	now := time.Now()
	message.Content = payload.Content
	message.EditedAt = &now

	if err := h.db.UpdateMessage(message); err != nil {
		return err
	}

	// Полное обновленное сообщение всем в беседе
	response := map[string]interface{}{
		"message_id":      message.ID,
		"conversation_id": message.ConversationID,
		"content":         message.Content,
		"edited_at":       message.EditedAt,
	}

	return h.router.ToRoom(ws.ConversationRoom(message.ConversationID), ws.TypeMessageEdited, client.UserID, response)
}

func (h *MessageHandler) handleMessageRead(client *ws.Client, event *ws.Event) error {
	payload, err := ws.DecodePayload[ws.MessageReadPayload](event.Data)
	if err != nil {
		return err
	}

	message, err := h.db.GetMessage(payload.MessageID.String())
	if err != nil {
		return err
	}

	if err := h.db.MarkMessageRead(message.ID, client.UserID); err != nil {
		return err
	}

	// Только id сообщения и кто прочитал, без полного текста
	response := ws.MessageReadPayload{
		MessageID: message.ID,
		ReaderID:  client.UserID,
	}

	return h.router.ToRoom(ws.ConversationRoom(message.ConversationID), ws.TypeMessageRead, client.UserID, response)
}

func (h *MessageHandler) handleDeleteMessage(client *ws.Client, event *ws.Event) error {
	payload, err := ws.DecodePayload[ws.DeleteMessagePayload](event.Data)
	if err != nil {
		return err
	}

	message, err := h.db.GetMessage(payload.MessageID.String())
	if err != nil {
		return err
	}

	if message.UserID != client.UserID {
		return ws.ErrUnauthorized
	}

	if err := h.db.DeleteMessage(payload.MessageID.String()); err != nil {
		return err
	}

	response := map[string]interface{}{
		"message_id": payload.MessageID,
	}

	return h.router.ToRoom(ws.ConversationRoom(message.ConversationID), ws.TypeMessageDeleted, client.UserID, response)
}
