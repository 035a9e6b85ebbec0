package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/config"
	jwtutil "github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/pkg/jwt"
)

// Auth JWT 인증 미들웨어. 팀 또는 관리자 토큰을 검증하고
// context에 신원을 저장한다.
func Auth(cfg *config.Config) gin.HandlerFunc {
	jwtManager := jwtutil.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)

	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			c.Abort()
			return
		}

		claims, err := jwtManager.Verify(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		// 검증 성공 - 신원을 context에 저장
		c.Set("team", claims.Team)
		c.Set("role", claims.Role)

		c.Next()
	}
}

// AdminOnly 관리자 전용 엔드포인트 보호. Auth 미들웨어 이후에 사용해야 한다.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists || role != jwtutil.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Admin access required",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// extractToken Authorization 헤더 또는 쿼리 파라미터에서 토큰 추출.
// WebSocket 연결은 헤더를 설정할 수 없어 ?token= 을 허용한다.
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		// "Bearer <token>" 형식 파싱
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}

	return c.Query("token")
}
