package models

import (
	"github.com/google/uuid"
	"time"
)

type Team struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"not null"`
	CreatedBy uuid.UUID
	CreatedAt time.Time

	// Связи
	Members  []User    `gorm:"many2many:team_members"`
	Projects []Project `gorm:"foreignKey:TeamID"`
}

type Project struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	TeamID      uuid.UUID `gorm:"not null"`
	Name        string    `gorm:"not null"`
	Description string
	CreatedBy   uuid.UUID
	CreatedAt   time.Time

	// Связи
	Team  Team   `gorm:"foreignKey:TeamID"`
	Tasks []Task `gorm:"foreignKey:ProjectID"`
}
