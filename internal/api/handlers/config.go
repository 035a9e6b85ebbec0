package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/models"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/service"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/pkg/logger"
)

type ConfigHandler struct {
	scoringConfig *service.ScoringConfigService
	passivePoints *service.PassivePointsService
}

func NewConfigHandler(scoringConfig *service.ScoringConfigService, passivePoints *service.PassivePointsService) *ConfigHandler {
	return &ConfigHandler{
		scoringConfig: scoringConfig,
		passivePoints: passivePoints,
	}
}

// Get 현재 설정 조회
func (h *ConfigHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"config":  h.scoringConfig.Get(),
	})
}

// Update 설정 변경. 검증 실패 시 아무 필드도 반영하지 않는다.
// 패시브 포인트 주기가 바뀌고 스케줄러가 실행 중이면 새 주기로 재시작한다.
func (h *ConfigHandler) Update(c *gin.Context) {
	var req struct {
		Config models.ScoringConfigUpdate `json:"config" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request body",
		})
		return
	}

	before := h.scoringConfig.Get()

	updated, validationErrors := h.scoringConfig.Update(req.Config)
	if len(validationErrors) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid configuration",
			"errors":  validationErrors,
		})
		return
	}

	// 주기 변경 감지 후 재시작 (정지 상태면 재시작하지 않음)
	intervalChanged := updated.PassivePointsInterval != before.PassivePointsInterval
	intervalRestarted := false
	if intervalChanged {
		intervalRestarted = h.passivePoints.RestartWithCurrentInterval()
		if intervalRestarted {
			logger.Info("Passive points scheduler restarted with new interval",
				"intervalMs", updated.PassivePointsInterval)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"message":           "Configuration updated successfully",
		"config":            updated,
		"intervalRestarted": intervalRestarted,
	})
}

// Reset 설정 초기화 (환경변수 기반 기본값으로)
func (h *ConfigHandler) Reset(c *gin.Context) {
	cfg := h.scoringConfig.ResetToDefaults()

	// 실행 중이면 기본 주기로 재시작
	restarted := h.passivePoints.RestartWithCurrentInterval()

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"message":           "Configuration reset to defaults",
		"config":            cfg,
		"intervalRestarted": restarted,
	})
}
