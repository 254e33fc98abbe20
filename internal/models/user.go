package models

import (
	"github.com/google/uuid"
	"time"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"default:'member'"`
	AuthProvider string    `gorm:"default:'local'"`
	AvatarURL    string
	LastSeenAt   time.Time
	CreatedAt    time.Time

	// Связи
	Teams         []Team         `gorm:"many2many:team_members"`
	Conversations []Conversation `gorm:"many2many:conversation_participants"`
}
