package models

import (
	"github.com/google/uuid"
	"time"
)

// Notification создается воркером из задания в очереди.
// DedupKey защищает от дублей при повторной доставке задания.
type Notification struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"not null;index"`
	Title     string    `gorm:"not null"`
	Message   string    `gorm:"not null"`
	DedupKey  string    `gorm:"uniqueIndex;not null"`
	Read      bool      `gorm:"default:false"`
	CreatedAt time.Time
	ReadAt    *time.Time

	// Связи
	User User `gorm:"foreignKey:UserID"`
}
