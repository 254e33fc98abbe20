package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/thereayou/teamflow/internal/database"
	"github.com/thereayou/teamflow/internal/middleware"
	"github.com/thereayou/teamflow/internal/models"
	"github.com/thereayou/teamflow/internal/notify"
)

type TaskHandler struct {
	db       *database.Database
	producer *notify.Producer
}

func NewTaskHandler(db *database.Database, producer *notify.Producer) *TaskHandler {
	return &TaskHandler{db: db, producer: producer}
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req struct {
		ProjectID   string `json:"project_id" binding:"required,uuid"`
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	projectID, _ := uuid.Parse(req.ProjectID)
	task := &models.Task{
		ProjectID:   projectID,
		Title:       req.Title,
		Description: req.Description,
		Status:      "open",
		CreatedBy:   userID,
		CreatedAt:   time.Now(),
	}

	if err := h.db.CreateTask(task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create task"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": task.ID, "title": task.Title, "status": task.Status})
}

// AssignTask назначает исполнителя. Уведомление и письмо идут через
// очередь после того, как назначение записано: исполнитель offline
// увидит долговременное уведомление при следующем запросе.
func (h *TaskHandler) AssignTask(c *gin.Context) {
	taskID := c.Param("id")

	var req struct {
		AssigneeID string `json:"assignee_id" binding:"required,uuid"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assigneeID, _ := uuid.Parse(req.AssigneeID)

	task, err := h.db.AssignTask(taskID, assigneeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to assign task"})
		return
	}

	h.producer.Notify(assigneeID, "Task assigned", "You were assigned to task: "+task.Title)

	if assignee, err := h.db.GetUser(assigneeID.String()); err == nil {
		h.producer.Email(
			assignee.Email,
			"Task assigned: "+task.Title,
			"<p>You were assigned to task <b>"+task.Title+"</b>.</p>",
		)
	}

	c.JSON(http.StatusOK, gin.H{"id": task.ID, "assignee_id": task.AssigneeID, "status": task.Status})
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	task, err := h.db.GetTask(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}

	c.JSON(http.StatusOK, task)
}
