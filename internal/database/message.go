package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/teamflow/internal/models"
	"gorm.io/gorm/clause"
)

func (d *Database) SaveMessage(message *models.Message) error {
	return d.db.Create(message).Error
}

func (d *Database) GetMessage(id string) (*models.Message, error) {
	var message models.Message
	if err := d.db.First(&message, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

func (d *Database) UpdateMessage(message *models.Message) error {
	return d.db.Save(message).Error
}

func (d *Database) DeleteMessage(id string) error {
	return d.db.Delete(&models.Message{}, "id = ?", id).Error
}

// MarkMessageRead фиксирует прочтение; повторное прочтение тем же
// пользователем — no-op
func (d *Database) MarkMessageRead(messageID, userID uuid.UUID) error {
	read := models.MessageRead{
		MessageID: messageID,
		UserID:    userID,
		ReadAt:    time.Now(),
	}
	return d.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&read).Error
}

// GetConversationMessages получает сообщения беседы с пагинацией.
// Клиенты перечитывают историю после reconnect — пропущенные рассылки
// догоняются здесь.
func (d *Database) GetConversationMessages(conversationID string, limit int, beforeID *uuid.UUID) ([]models.Message, error) {
	var messages []models.Message

	query := d.db.Where("conversation_id = ?", conversationID)

	// Если указан beforeID, получаем сообщения до него
	if beforeID != nil {
		var beforeMsg models.Message
		if err := d.db.First(&beforeMsg, "id = ?", beforeID).Error; err == nil {
			query = query.Where("created_at < ?", beforeMsg.CreatedAt)
		}
	}

	err := query.
		Order("created_at DESC").
		Limit(limit).
		Preload("User").
		Find(&messages).Error

	if err != nil {
		return nil, err
	}

	// Разворачиваем порядок, чтобы старые сообщения были первыми
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
