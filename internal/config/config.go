package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// Database
	DatabaseURL string

	// Redis (optional - rate limit counters live in memory when empty)
	RedisURL string

	// JWT
	JWTSecret     string
	JWTExpiration time.Duration

	// 초기 관리자 계정 (첫 기동 시 없으면 생성)
	AdminUsername string
	AdminPassword string

	// CORS
	CORSAllowedOrigins []string

	// Scoring defaults (runtime-tunable via the admin config API;
	// these are the environment-derived reset values)
	SelfFlagPoints          int
	AttackPoints            int
	DefensePenalty          int
	PassivePointsValue      int
	PassivePointsIntervalMs int
	MaxSubmissionsPerWindow int
	RateLimitWindowMs       int
}

func Load() (*Config, error) {
	// .env 파일 로드 (있는 경우)
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", ""),
		JWTSecret:          getEnv("JWT_SECRET", "your-secret-key"),
		JWTExpiration:      parseDuration(getEnv("JWT_EXPIRATION", "24h")),
		AdminUsername:      getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:      getEnv("ADMIN_PASSWORD", "admin"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"),

		SelfFlagPoints:          getEnvInt("SELF_FLAG_POINTS", 10),
		AttackPoints:            getEnvInt("ATTACK_POINTS", 200),
		DefensePenalty:          getEnvInt("DEFENSE_PENALTY", 50),
		PassivePointsValue:      getEnvInt("PASSIVE_POINTS_VALUE", 1),
		PassivePointsIntervalMs: getEnvInt("PASSIVE_POINTS_INTERVAL", 1200000), // 20 minutes
		MaxSubmissionsPerWindow: getEnvInt("MAX_SUBMISSIONS_PER_WINDOW", 10),
		RateLimitWindowMs:       getEnvInt("RATE_LIMIT_WINDOW", 60000), // 1 minute
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvList 쉼표로 구분된 목록 파싱 (공백 trim, 빈 항목 제거)
func getEnvList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)

	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}
