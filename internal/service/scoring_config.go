package service

import (
	"sync"
	"time"

	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/config"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/models"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/pkg/logger"
	"go.uber.org/zap"
)

// ScoringConfigService 런타임 스코어링 설정 저장소.
// 환경변수 기본값으로 시작하고, 관리자 API로 런타임에 바뀐다.
// 재시작하면 기본값으로 돌아간다 (영속화하지 않음).
type ScoringConfigService struct {
	mu       sync.RWMutex
	current  models.ScoringConfig
	defaults models.ScoringConfig
	logger   *zap.Logger
}

func NewScoringConfigService(cfg *config.Config) *ScoringConfigService {
	defaults := models.ScoringConfig{
		SelfFlagPoints:          cfg.SelfFlagPoints,
		AttackPoints:            cfg.AttackPoints,
		DefensePenalty:          cfg.DefensePenalty,
		PassivePointsValue:      cfg.PassivePointsValue,
		PassivePointsInterval:   cfg.PassivePointsIntervalMs,
		MaxSubmissionsPerWindow: cfg.MaxSubmissionsPerWindow,
		RateLimitWindow:         cfg.RateLimitWindowMs,
	}

	return &ScoringConfigService{
		current:  defaults,
		defaults: defaults,
		logger:   logger.L("scoring-config"),
	}
}

// Get 현재 설정 스냅샷 (값 복사라서 호출자가 수정해도 영향 없음)
func (s *ScoringConfigService) Get() models.ScoringConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Validate 부분 업데이트의 필드별 범위 검증.
// 빈 목록이면 유효하다.
func (s *ScoringConfigService) Validate(update models.ScoringConfigUpdate) []string {
	errs := []string{}

	if update.SelfFlagPoints != nil && (*update.SelfFlagPoints < 0 || *update.SelfFlagPoints > 1000) {
		errs = append(errs, "Self flag points must be between 0 and 1000")
	}
	if update.AttackPoints != nil && (*update.AttackPoints < 0 || *update.AttackPoints > 10000) {
		errs = append(errs, "Attack points must be between 0 and 10000")
	}
	if update.DefensePenalty != nil && (*update.DefensePenalty < 0 || *update.DefensePenalty > 1000) {
		errs = append(errs, "Defense penalty must be between 0 and 1000")
	}
	if update.PassivePointsValue != nil && (*update.PassivePointsValue < 0 || *update.PassivePointsValue > 100) {
		errs = append(errs, "Passive points value must be between 0 and 100")
	}
	if update.PassivePointsInterval != nil && (*update.PassivePointsInterval < 60000 || *update.PassivePointsInterval > 3600000) {
		errs = append(errs, "Passive points interval must be between 1 minute and 1 hour")
	}
	if update.MaxSubmissionsPerWindow != nil && (*update.MaxSubmissionsPerWindow < 1 || *update.MaxSubmissionsPerWindow > 100) {
		errs = append(errs, "Max submissions per window must be between 1 and 100")
	}
	if update.RateLimitWindow != nil && (*update.RateLimitWindow < 10000 || *update.RateLimitWindow > 300000) {
		errs = append(errs, "Rate limit window must be between 10 seconds and 5 minutes")
	}

	return errs
}

// Update 검증 후 제공된 필드만 병합 (all-or-nothing).
// 검증 실패 시 저장된 설정은 그대로 두고 오류 목록을 반환한다.
func (s *ScoringConfigService) Update(update models.ScoringConfigUpdate) (models.ScoringConfig, []string) {
	if errs := s.Validate(update); len(errs) > 0 {
		return s.Get(), errs
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if update.SelfFlagPoints != nil {
		s.current.SelfFlagPoints = *update.SelfFlagPoints
	}
	if update.AttackPoints != nil {
		s.current.AttackPoints = *update.AttackPoints
	}
	if update.DefensePenalty != nil {
		s.current.DefensePenalty = *update.DefensePenalty
	}
	if update.PassivePointsValue != nil {
		s.current.PassivePointsValue = *update.PassivePointsValue
	}
	if update.PassivePointsInterval != nil {
		s.current.PassivePointsInterval = *update.PassivePointsInterval
	}
	if update.MaxSubmissionsPerWindow != nil {
		s.current.MaxSubmissionsPerWindow = *update.MaxSubmissionsPerWindow
	}
	if update.RateLimitWindow != nil {
		s.current.RateLimitWindow = *update.RateLimitWindow
	}

	s.logger.Info("Configuration updated",
		zap.Int("selfFlagPoints", s.current.SelfFlagPoints),
		zap.Int("attackPoints", s.current.AttackPoints),
		zap.Int("defensePenalty", s.current.DefensePenalty),
		zap.Int("passivePointsValue", s.current.PassivePointsValue),
		zap.Int("passivePointsInterval", s.current.PassivePointsInterval),
		zap.Int("maxSubmissionsPerWindow", s.current.MaxSubmissionsPerWindow),
		zap.Int("rateLimitWindow", s.current.RateLimitWindow))

	return s.current, nil
}

// ResetToDefaults 환경변수 기본값으로 복원
func (s *ScoringConfigService) ResetToDefaults() models.ScoringConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = s.defaults
	s.logger.Info("Configuration reset to defaults")

	return s.current
}

// PassivePointsInterval 현재 패시브 포인트 주기
func (s *ScoringConfigService) PassivePointsInterval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Duration(s.current.PassivePointsInterval) * time.Millisecond
}

// RateLimitWindow 현재 제출 제한 윈도우
func (s *ScoringConfigService) RateLimitWindow() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Duration(s.current.RateLimitWindow) * time.Millisecond
}
