package models

import (
	"github.com/google/uuid"
	"time"
)

type Task struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ProjectID   uuid.UUID `gorm:"not null"`
	Title       string    `gorm:"not null"`
	Description string
	Status      string     `gorm:"default:'open';check:status IN ('open','in_progress','done')"`
	AssigneeID  *uuid.UUID `gorm:"index"`
	CreatedBy   uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Связи
	Project  Project `gorm:"foreignKey:ProjectID"`
	Assignee *User   `gorm:"foreignKey:AssigneeID"`
}
