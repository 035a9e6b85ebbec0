package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/models"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/service"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/pkg/logger"
)

type TeamHandler struct {
	teamService *service.TeamService
}

func NewTeamHandler(teamService *service.TeamService) *TeamHandler {
	return &TeamHandler{teamService: teamService}
}

// List 전체 팀 목록 (관리자용, 플래그 포함)
func (h *TeamHandler) List(c *gin.Context) {
	teams, err := h.teamService.List()
	if err != nil {
		logger.Error("Failed to list teams", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list teams",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"teams": teams,
	})
}

// Create 팀 생성. 팀과 함께 소유 플래그도 발급된다.
func (h *TeamHandler) Create(c *gin.Context) {
	var req models.CreateTeamRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	team, err := h.teamService.Create(req)
	if err != nil {
		if errors.Is(err, service.ErrTeamAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "Team already exists",
			})
			return
		}

		logger.Error("Failed to create team", "name", req.Name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create team",
		})
		return
	}

	logger.Info("Team created", "name", team.Name, "flags", len(team.Flags))

	c.JSON(http.StatusCreated, gin.H{
		"team": team,
	})
}

// Update 팀 수정 (이름, 비밀번호, 점수)
func (h *TeamHandler) Update(c *gin.Context) {
	id := c.Param("id")

	var req models.UpdateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	if err := h.teamService.Update(id, req); err != nil {
		if errors.Is(err, service.ErrTeamNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Team not found",
			})
			return
		}

		logger.Error("Failed to update team", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to update team",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Team updated successfully",
	})
}

// Delete 팀 삭제. 소유 플래그와 제출 기록도 함께 삭제된다.
func (h *TeamHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.teamService.Delete(id); err != nil {
		if errors.Is(err, service.ErrTeamNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Team not found",
			})
			return
		}

		logger.Error("Failed to delete team", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to delete team",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Team deleted successfully",
	})
}
