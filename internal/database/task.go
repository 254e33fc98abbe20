package database

import (
	"github.com/google/uuid"
	"github.com/thereayou/teamflow/internal/models"
)

func (d *Database) CreateProject(project *models.Project) error {
	return d.db.Create(project).Error
}

func (d *Database) GetProject(id string) (*models.Project, error) {
	var project models.Project
	if err := d.db.First(&project, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (d *Database) CreateTask(task *models.Task) error {
	return d.db.Create(task).Error
}

func (d *Database) GetTask(id string) (*models.Task, error) {
	var task models.Task
	if err := d.db.Preload("Project").First(&task, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (d *Database) UpdateTask(task *models.Task) error {
	return d.db.Save(task).Error
}

// AssignTask назначает исполнителя задачи
func (d *Database) AssignTask(taskID string, assigneeID uuid.UUID) (*models.Task, error) {
	var task models.Task
	if err := d.db.First(&task, "id = ?", taskID).Error; err != nil {
		return nil, err
	}

	task.AssigneeID = &assigneeID
	if task.Status == "open" {
		task.Status = "in_progress"
	}

	if err := d.db.Save(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}
