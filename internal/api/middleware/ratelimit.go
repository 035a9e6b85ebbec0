package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/pkg/logger"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/pkg/ratelimit"
)

// RateLimitConfig Rate Limit 미들웨어 설정
type RateLimitConfig struct {
	Limiter ratelimit.Limiter         // 카운터 저장소 (메모리 또는 Redis)
	Limit   int                       // 윈도우 내 최대 요청 수
	Window  time.Duration             // 윈도우 크기
	KeyFunc func(*gin.Context) string // 키 추출 함수
}

// DefaultKeyFunc uses team name if authenticated, otherwise IP address
func DefaultKeyFunc(c *gin.Context) string {
	if team, exists := c.Get("team"); exists {
		if name, ok := team.(string); ok && name != "" {
			return fmt.Sprintf("team:%s", name)
		}
	}
	return fmt.Sprintf("ip:%s", c.ClientIP())
}

// IPKeyFunc uses only IP address (for public endpoints)
func IPKeyFunc(c *gin.Context) string {
	return fmt.Sprintf("ip:%s", c.ClientIP())
}

// RateLimit 고정 윈도우 Rate Limiting 미들웨어
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = DefaultKeyFunc
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 100
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}

	return func(c *gin.Context) {
		key := cfg.KeyFunc(c)

		result, err := cfg.Limiter.Check(c.Request.Context(), key, cfg.Limit, cfg.Window)
		if err != nil {
			// 카운터 저장소 오류 시 로깅하고 요청 허용 (Fail-open)
			logger.Warn("Rate limit check failed", "key", key, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if result.Limited {
			retryAfter := int(result.ResetIn.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Rate limit exceeded",
				"message": fmt.Sprintf("Too many requests. Limit: %d per %v", cfg.Limit, cfg.Window),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// AuthRateLimit 인증 엔드포인트 보호 (IP당 5회/분, 인증 전이므로 IP 기반)
func AuthRateLimit(limiter ratelimit.Limiter) gin.HandlerFunc {
	return RateLimit(RateLimitConfig{
		Limiter: limiter,
		Limit:   5,
		Window:  time.Minute,
		KeyFunc: IPKeyFunc,
	})
}

// ChatRateLimit 채팅 전송 제한 (팀당 30회/분)
func ChatRateLimit(limiter ratelimit.Limiter) gin.HandlerFunc {
	return RateLimit(RateLimitConfig{
		Limiter: limiter,
		Limit:   30,
		Window:  time.Minute,
		KeyFunc: DefaultKeyFunc,
	})
}
