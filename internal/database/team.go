package database

import (
	"github.com/google/uuid"
	"github.com/thereayou/teamflow/internal/models"
)

func (d *Database) CreateTeam(team *models.Team) error {
	return d.db.Create(team).Error
}

func (d *Database) GetTeam(id string) (*models.Team, error) {
	var team models.Team
	if err := d.db.Preload("Members").First(&team, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

// GetUserTeamIDs отдает все команды пользователя без пагинации —
// gateway подключает соединение к каждой при handshake
func (d *Database) GetUserTeamIDs(userID string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := d.db.
		Table("team_members").
		Where("user_id = ?", userID).
		Pluck("team_id", &ids).Error
	return ids, err
}

func (d *Database) AddUserToTeam(userID, teamID string) error {
	var user models.User
	var team models.Team

	if err := d.db.First(&user, "id = ?", userID).Error; err != nil {
		return err
	}

	if err := d.db.First(&team, "id = ?", teamID).Error; err != nil {
		return err
	}

	return d.db.Model(&team).Association("Members").Append(&user)
}

func (d *Database) RemoveUserFromTeam(userID, teamID string) error {
	var user models.User
	var team models.Team

	if err := d.db.First(&user, "id = ?", userID).Error; err != nil {
		return err
	}

	if err := d.db.First(&team, "id = ?", teamID).Error; err != nil {
		return err
	}

	return d.db.Model(&team).Association("Members").Delete(&user)
}

func (d *Database) IsTeamMember(userID, teamID string) (bool, error) {
	var count int64
	err := d.db.
		Table("team_members").
		Where("user_id = ? AND team_id = ?", userID, teamID).
		Count(&count).Error
	return count > 0, err
}
