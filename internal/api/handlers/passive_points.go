package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/service"
)

type PassivePointsHandler struct {
	passivePoints *service.PassivePointsService
}

func NewPassivePointsHandler(passivePoints *service.PassivePointsService) *PassivePointsHandler {
	return &PassivePointsHandler{passivePoints: passivePoints}
}

type scheduleRequest struct {
	ScheduledStart *time.Time `json:"scheduledStart"`
	ScheduledEnd   *time.Time `json:"scheduledEnd"`
}

// Status 스케줄러 상태 조회
func (h *PassivePointsHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status":  h.passivePoints.GetStatus(),
	})
}

// Start 스케줄러 시작 (선택적 운영 시간대 포함)
func (h *PassivePointsHandler) Start(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request body",
		})
		return
	}

	if err := h.passivePoints.Start(req.ScheduledStart, req.ScheduledEnd); err != nil {
		if errors.Is(err, service.ErrSchedulerAlreadyRunning) {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"message": "Passive points mechanism is already running",
				"status":  h.passivePoints.GetStatus(),
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to start passive points mechanism",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Passive points mechanism started",
		"status":  h.passivePoints.GetStatus(),
	})
}

// Stop 스케줄러 정지. 진행 중인 지급 패스가 끝난 뒤에 응답한다.
func (h *PassivePointsHandler) Stop(c *gin.Context) {
	if err := h.passivePoints.Stop(); err != nil {
		if errors.Is(err, service.ErrSchedulerNotRunning) {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"message": "Passive points mechanism is not running",
				"status":  h.passivePoints.GetStatus(),
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to stop passive points mechanism",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Passive points mechanism stopped",
		"status":  h.passivePoints.GetStatus(),
	})
}

// UpdateSchedule 운영 시간대 갱신 (실행 여부와 무관하게 허용)
func (h *PassivePointsHandler) UpdateSchedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request body",
		})
		return
	}

	h.passivePoints.UpdateSchedule(req.ScheduledStart, req.ScheduledEnd)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Schedule updated successfully",
		"status":  h.passivePoints.GetStatus(),
	})
}
