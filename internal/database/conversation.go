package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/teamflow/internal/models"
	"gorm.io/gorm"
)

func (d *Database) CreateConversation(conversation *models.Conversation) error {
	return d.db.Create(conversation).Error
}

func (d *Database) GetConversation(id string) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := d.db.Preload("Participants").First(&conversation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &conversation, nil
}

// GetUserConversationIDs отдает все беседы пользователя без пагинации —
// gateway подключает соединение к каждой при handshake
func (d *Database) GetUserConversationIDs(userID string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := d.db.
		Table("conversation_participants").
		Where("user_id = ?", userID).
		Pluck("conversation_id", &ids).Error
	return ids, err
}

func (d *Database) AddUserToConversation(userID, conversationID string) error {
	var user models.User
	var conversation models.Conversation

	if err := d.db.First(&user, "id = ?", userID).Error; err != nil {
		return err
	}

	if err := d.db.First(&conversation, "id = ?", conversationID).Error; err != nil {
		return err
	}

	return d.db.Model(&conversation).Association("Participants").Append(&user)
}

func (d *Database) IsConversationMember(userID, conversationID string) (bool, error) {
	var count int64
	err := d.db.
		Table("conversation_participants").
		Where("user_id = ? AND conversation_id = ?", userID, conversationID).
		Count(&count).Error
	return count > 0, err
}

// GetOrCreateDirectConversation ищет личную беседу двух пользователей
// или создает новую
func (d *Database) GetOrCreateDirectConversation(user1ID, user2ID uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation

	err := d.db.
		Joins("JOIN conversation_participants cp1 ON cp1.conversation_id = conversations.id").
		Joins("JOIN conversation_participants cp2 ON cp2.conversation_id = conversations.id").
		Where("conversations.type = 'direct' AND cp1.user_id = ? AND cp2.user_id = ?", user1ID, user2ID).
		First(&conversation).Error

	if err == nil {
		return &conversation, nil
	}

	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	conversation = models.Conversation{
		Name:      "Direct",
		Type:      "direct",
		CreatedBy: user1ID,
		CreatedAt: time.Now(),
	}

	if err := d.db.Create(&conversation).Error; err != nil {
		return nil, err
	}

	if err := d.AddUserToConversation(user1ID.String(), conversation.ID.String()); err != nil {
		return nil, err
	}

	if err := d.AddUserToConversation(user2ID.String(), conversation.ID.String()); err != nil {
		return nil, err
	}

	d.db.Model(&conversation).Association("Participants").Find(&conversation.Participants)

	return &conversation, nil
}
