package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/models"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/service"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/pkg/logger"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/pkg/ratelimit"
)

type SubmissionHandler struct {
	submissionService *service.SubmissionService
	scoringConfig     *service.ScoringConfigService
	limiter           ratelimit.Limiter
}

func NewSubmissionHandler(
	submissionService *service.SubmissionService,
	scoringConfig *service.ScoringConfigService,
	limiter ratelimit.Limiter,
) *SubmissionHandler {
	return &SubmissionHandler{
		submissionService: submissionService,
		scoringConfig:     scoringConfig,
		limiter:           limiter,
	}
}

// Submit 플래그 제출. Rate Limit 검사를 평가보다 먼저 수행한다.
// 제한 파라미터는 매 요청마다 설정 스토어에서 읽으므로 관리자가
// 값을 바꾸면 재시작 없이 다음 제출부터 적용된다.
func (h *SubmissionHandler) Submit(c *gin.Context) {
	teamName := c.GetString("team")
	if teamName == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"message": "Not authenticated",
			"success": false,
		})
		return
	}

	var req models.SubmitFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Flag is required",
			"success": false,
		})
		return
	}

	// Rate Limit 검사 (현재 설정값 기준)
	cfg := h.scoringConfig.Get()
	result, err := h.limiter.Check(
		c.Request.Context(),
		"submit:"+teamName,
		cfg.MaxSubmissionsPerWindow,
		h.scoringConfig.RateLimitWindow(),
	)
	if err != nil {
		// 카운터 저장소 오류는 제출을 막지 않는다 (Fail-open)
		logger.Warn("Submission rate limit check failed", "team", teamName, "error", err)
		result = ratelimit.Result{Remaining: cfg.MaxSubmissionsPerWindow - 1}
	}

	if result.Limited {
		resetInMs := result.ResetIn.Milliseconds()
		c.JSON(http.StatusTooManyRequests, gin.H{
			"message":   fmt.Sprintf("Rate limit exceeded. Please try again in %s.", formatTimeRemaining(resetInMs)),
			"success":   false,
			"rateLimit": true,
			"resetIn":   resetInMs,
		})
		return
	}

	outcome, err := h.submissionService.Submit(teamName, req.Flag)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFlagNotFound):
			c.JSON(http.StatusBadRequest, gin.H{
				"message":   "Invalid flag. The flag you submitted does not exist.",
				"success":   false,
				"remaining": result.Remaining,
			})
		case errors.Is(err, service.ErrTeamNotFound):
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "Team not found",
				"success": false,
			})
		case errors.Is(err, service.ErrAlreadySubmitted):
			c.JSON(http.StatusBadRequest, gin.H{
				"message":   "Your team has already submitted this flag. Each team can only submit a specific flag once.",
				"success":   false,
				"remaining": result.Remaining,
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "An error occurred during flag submission",
				"success": false,
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   outcome.Message,
		"success":   true,
		"newScore":  outcome.NewScore,
		"remaining": result.Remaining,
	})
}

// formatTimeRemaining 밀리초를 사람이 읽는 초 단위 문구로 변환
func formatTimeRemaining(ms int64) string {
	seconds := int64(math.Ceil(float64(ms) / 1000))
	if seconds == 1 {
		return "1 second"
	}
	return fmt.Sprintf("%d seconds", seconds)
}
