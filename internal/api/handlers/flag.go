package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/models"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/service"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/pkg/logger"
)

type FlagHandler struct {
	flagService *service.FlagService
}

func NewFlagHandler(flagService *service.FlagService) *FlagHandler {
	return &FlagHandler{flagService: flagService}
}

// List 전체 플래그 목록 (제출 기록 포함, 관리자용)
func (h *FlagHandler) List(c *gin.Context) {
	flags, err := h.flagService.List()
	if err != nil {
		logger.Error("Failed to list flags", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list flags",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"flags": flags,
	})
}

// Create 플래그 추가 발급. 값을 생략하면 새 토큰을 생성한다.
func (h *FlagHandler) Create(c *gin.Context) {
	var req models.CreateFlagRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	flag, err := h.flagService.Create(req)
	if err != nil {
		if errors.Is(err, service.ErrTeamNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Owner team not found",
			})
			return
		}

		logger.Error("Failed to create flag", "owner", req.Owner, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create flag",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"flag": flag,
	})
}

// Delete 플래그 삭제
func (h *FlagHandler) Delete(c *gin.Context) {
	value := c.Param("value")

	if err := h.flagService.Delete(value); err != nil {
		if errors.Is(err, service.ErrFlagNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Flag not found",
			})
			return
		}

		logger.Error("Failed to delete flag", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to delete flag",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Flag deleted successfully",
	})
}

// Stats 팀별 제출 통계 (제출 수, 성공률, 방어율)
func (h *FlagHandler) Stats(c *gin.Context) {
	stats, err := h.flagService.SubmissionStats()
	if err != nil {
		logger.Error("Failed to compute submission stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to compute submission stats",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats": stats,
	})
}
