package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/config"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/service"
	jwtutil "github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/pkg/jwt"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/pkg/logger"
)

type AuthHandler struct {
	teamService  *service.TeamService
	adminService *service.AdminService
	jwtManager   *jwtutil.JWTManager
}

func NewAuthHandler(teamService *service.TeamService, adminService *service.AdminService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		teamService:  teamService,
		adminService: adminService,
		jwtManager:   jwtutil.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration),
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string `json:"token"`
	Team  gin.H  `json:"team,omitempty"`
	Role  string `json:"role"`
}

// Login 팀 로그인
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	// 팀 인증
	team, err := h.teamService.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid username or password",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to login",
		})
		return
	}

	// JWT 토큰 생성
	token, err := h.jwtManager.GenerateTeamToken(team.Name)
	if err != nil {
		logger.Error("Failed to generate token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate token",
		})
		return
	}

	logger.Info("Team logged in", "team", team.Name)

	c.JSON(http.StatusOK, AuthResponse{
		Token: token,
		Role:  jwtutil.RoleTeam,
		Team: gin.H{
			"id":    team.ID,
			"name":  team.Name,
			"score": team.Score,
		},
	})
}

// AdminLogin 관리자 로그인
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	admin, err := h.adminService.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid username or password",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to login",
		})
		return
	}

	token, err := h.jwtManager.GenerateAdminToken(admin.Username)
	if err != nil {
		logger.Error("Failed to generate token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate token",
		})
		return
	}

	logger.Info("Admin logged in", "username", admin.Username)

	c.JSON(http.StatusOK, AuthResponse{
		Token: token,
		Role:  jwtutil.RoleAdmin,
	})
}
