package models

import (
	"github.com/google/uuid"
	"time"
)

type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ConversationID uuid.UUID `gorm:"not null;index"`
	UserID         uuid.UUID `gorm:"not null"`
	Content        string    `gorm:"not null"`
	Type           string    `gorm:"default:'text'"`
	CreatedAt      time.Time
	EditedAt       *time.Time

	// Связи
	User         User          `gorm:"foreignKey:UserID"`
	Conversation Conversation  `gorm:"foreignKey:ConversationID"`
	Reads        []MessageRead `gorm:"foreignKey:MessageID"`
}

// MessageRead фиксирует факт прочтения сообщения пользователем
type MessageRead struct {
	MessageID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	ReadAt    time.Time
}
