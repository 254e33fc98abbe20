package database

import (
	"time"

	"github.com/thereayou/teamflow/internal/models"
	"gorm.io/gorm/clause"
)

// CreateNotification пишет уведомление идемпотентно: повторная доставка
// задания с тем же dedup-ключом возвращает created=false без второй записи
func (d *Database) CreateNotification(n *models.Notification) (bool, error) {
	result := d.db.
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "dedup_key"}}, DoNothing: true}).
		Create(n)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (d *Database) GetUserNotifications(userID string, limit, offset int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := d.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error
	return notifications, err
}

func (d *Database) MarkNotificationRead(id, userID string) error {
	now := time.Now()
	return d.db.
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{"read": true, "read_at": &now}).Error
}

func (d *Database) DeleteNotification(id, userID string) error {
	return d.db.Delete(&models.Notification{}, "id = ? AND user_id = ?", id, userID).Error
}
