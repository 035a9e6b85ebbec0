package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/service"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/pkg/logger"
)

type ScoreboardHandler struct {
	teamService *service.TeamService
}

func NewScoreboardHandler(teamService *service.TeamService) *ScoreboardHandler {
	return &ScoreboardHandler{teamService: teamService}
}

// Get 점수판 조회 (점수 내림차순)
func (h *ScoreboardHandler) Get(c *gin.Context) {
	entries, err := h.teamService.Scoreboard()
	if err != nil {
		logger.Error("Failed to load scoreboard", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load scoreboard",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"scoreboard": entries,
	})
}
