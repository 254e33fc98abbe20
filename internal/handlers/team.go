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

type TeamHandler struct {
	db       *database.Database
	producer *notify.Producer
}

func NewTeamHandler(db *database.Database, producer *notify.Producer) *TeamHandler {
	return &TeamHandler{db: db, producer: producer}
}

func (h *TeamHandler) CreateTeam(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req struct {
		Name string `json:"name" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	team := &models.Team{
		Name:      req.Name,
		CreatedBy: userID,
		CreatedAt: time.Now(),
	}

	if err := h.db.CreateTeam(team); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create team"})
		return
	}

	if err := h.db.AddUserToTeam(userID.String(), team.ID.String()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add creator to team"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": team.ID, "name": team.Name})
}

// AddMember добавляет участника. Уведомление уходит через очередь:
// недоступная очередь добавление не отменяет.
func (h *TeamHandler) AddMember(c *gin.Context) {
	teamID := c.Param("id")

	var req struct {
		UserID string `json:"user_id" binding:"required,uuid"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.AddUserToTeam(req.UserID, teamID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add member"})
		return
	}

	team, err := h.db.GetTeam(teamID)
	if err == nil {
		memberID, _ := uuid.Parse(req.UserID)
		h.producer.Notify(memberID, "Added to team", "You were added to team "+team.Name)
	}

	c.Status(http.StatusOK)
}

func (h *TeamHandler) RemoveMember(c *gin.Context) {
	teamID := c.Param("id")
	memberID := c.Param("user_id")

	if err := h.db.RemoveUserFromTeam(memberID, teamID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove member"})
		return
	}

	c.Status(http.StatusOK)
}
