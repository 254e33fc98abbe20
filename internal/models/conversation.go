package models

import (
	"github.com/google/uuid"
	"time"
)

type Conversation struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string
	Type      string `gorm:"not null;check:type IN ('direct','group')"`
	CreatedBy uuid.UUID
	CreatedAt time.Time

	// Связи
	Participants []User    `gorm:"many2many:conversation_participants"`
	Messages     []Message `gorm:"foreignKey:ConversationID"`
}
