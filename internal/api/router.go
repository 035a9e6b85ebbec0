package api

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/api/handlers"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/api/middleware"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/config"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/repository"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/service"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/websocket"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/pkg/database"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/pkg/logger"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/pkg/ratelimit"
)

// Services 라우터가 구성한 장기 실행 서비스 핸들. 종료 시 정리에 사용된다.
type Services struct {
	PassivePoints *service.PassivePointsService
}

// SetupRouter API 라우터 설정
func SetupRouter(cfg *config.Config, db *database.DB) (*gin.Engine, *Services) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 전역 미들웨어
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Rate Limit 카운터 저장소 선택:
	// REDIS_URL이 있으면 Redis, 없으면 프로세스 메모리
	var limiter ratelimit.Limiter
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("Invalid REDIS_URL", "error", err)
		}
		limiter = ratelimit.NewRedisLimiter(redis.NewClient(opts), "ctf:ratelimit:")
		logger.Info("Rate limiter using Redis", "url", cfg.RedisURL)
	} else {
		limiter = ratelimit.NewMemoryLimiter()
		logger.Info("Rate limiter using in-memory counters")
	}

	// Repository 초기화
	teamRepo := repository.NewTeamRepository(db)
	flagRepo := repository.NewFlagRepository(db)
	chatRepo := repository.NewChatRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	// WebSocket Hub 초기화 및 시작
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Service 초기화
	scoringConfig := service.NewScoringConfigService(cfg)
	teamService := service.NewTeamService(teamRepo)
	flagService := service.NewFlagService(flagRepo, teamRepo)
	adminService := service.NewAdminService(adminRepo)

	// 초기 관리자 계정 보장 (이미 있으면 no-op)
	if err := adminService.CreateIfMissing(cfg.AdminUsername, cfg.AdminPassword); err != nil {
		logger.Warn("Failed to ensure initial admin account", "error", err)
	}
	chatService := service.NewChatService(chatRepo, wsHub)
	submissionService := service.NewSubmissionService(flagRepo, teamRepo, scoringConfig, wsHub)
	passivePointsService := service.NewPassivePointsService(flagRepo, teamRepo, scoringConfig)

	// Handler 초기화
	healthHandler := handlers.NewHealthHandler(db)
	authHandler := handlers.NewAuthHandler(teamService, adminService, cfg)
	submissionHandler := handlers.NewSubmissionHandler(submissionService, scoringConfig, limiter)
	configHandler := handlers.NewConfigHandler(scoringConfig, passivePointsService)
	passivePointsHandler := handlers.NewPassivePointsHandler(passivePointsService)
	teamHandler := handlers.NewTeamHandler(teamService)
	flagHandler := handlers.NewFlagHandler(flagService)
	scoreboardHandler := handlers.NewScoreboardHandler(teamService)
	chatHandler := handlers.NewChatHandler(chatService)
	wsHandler := handlers.NewWebSocketHandler(wsHub)

	// Health check
	router.GET("/health", healthHandler.Check)

	// API
	apiGroup := router.Group("/api")
	{
		// Auth routes (인증 전이므로 IP 기반 제한)
		apiGroup.POST("/auth/login", middleware.AuthRateLimit(limiter), authHandler.Login)
		apiGroup.POST("/admin/login", middleware.AuthRateLimit(limiter), authHandler.AdminLogin)

		// 공개 라우트
		apiGroup.GET("/scoreboard", scoreboardHandler.Get)
		apiGroup.GET("/submission-stats", flagHandler.Stats)
		apiGroup.GET("/config", configHandler.Get)

		// 팀 라우트 (인증 필요)
		team := apiGroup.Group("")
		team.Use(middleware.Auth(cfg))
		{
			team.POST("/submit-flag", submissionHandler.Submit)
			team.GET("/chat", chatHandler.History)
			team.POST("/chat", middleware.ChatRateLimit(limiter), chatHandler.Send)
			team.GET("/ws", wsHandler.HandleWebSocket)
		}

		// 관리자 라우트
		admin := apiGroup.Group("/admin")
		admin.Use(middleware.Auth(cfg), middleware.AdminOnly())
		{
			admin.GET("/teams", teamHandler.List)
			admin.POST("/teams", teamHandler.Create)
			admin.PUT("/teams/:id", teamHandler.Update)
			admin.DELETE("/teams/:id", teamHandler.Delete)

			admin.GET("/flags", flagHandler.List)
			admin.POST("/flags", flagHandler.Create)
			admin.DELETE("/flags/:value", flagHandler.Delete)

			admin.GET("/config", configHandler.Get)
			admin.PUT("/config", configHandler.Update)
			admin.DELETE("/config", configHandler.Reset)

			admin.GET("/passive-points", passivePointsHandler.Status)
			admin.POST("/passive-points", passivePointsHandler.Start)
			admin.PUT("/passive-points", passivePointsHandler.UpdateSchedule)
			admin.DELETE("/passive-points", passivePointsHandler.Stop)

			admin.GET("/chat", chatHandler.History)
			admin.DELETE("/chat/:id", chatHandler.Delete)
		}
	}

	return router, &Services{
		PassivePoints: passivePointsService,
	}
}
