package service

import (
	"testing"
	"time"

	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/config"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/models"
)

func newTestConfig() *config.Config {
	return &config.Config{
		SelfFlagPoints:          10,
		AttackPoints:            200,
		DefensePenalty:          50,
		PassivePointsValue:      1,
		PassivePointsIntervalMs: 1200000,
		MaxSubmissionsPerWindow: 10,
		RateLimitWindowMs:       60000,
	}
}

func intPtr(n int) *int {
	return &n
}

// scoringUpdate 부분 업데이트 구성 헬퍼 (필드 순서는 설정 스냅샷과 동일)
func scoringUpdate(self, attack, penalty, passive, interval, maxSub, window *int) models.ScoringConfigUpdate {
	return models.ScoringConfigUpdate{
		SelfFlagPoints:          self,
		AttackPoints:            attack,
		DefensePenalty:          penalty,
		PassivePointsValue:      passive,
		PassivePointsInterval:   interval,
		MaxSubmissionsPerWindow: maxSub,
		RateLimitWindow:         window,
	}
}

func TestScoringConfigService_Defaults(t *testing.T) {
	svc := NewScoringConfigService(newTestConfig())

	cfg := svc.Get()
	if cfg.SelfFlagPoints != 10 || cfg.AttackPoints != 200 || cfg.DefensePenalty != 50 {
		t.Errorf("unexpected scoring defaults: %+v", cfg)
	}
	if cfg.PassivePointsValue != 1 || cfg.PassivePointsInterval != 1200000 {
		t.Errorf("unexpected passive points defaults: %+v", cfg)
	}
	if cfg.MaxSubmissionsPerWindow != 10 || cfg.RateLimitWindow != 60000 {
		t.Errorf("unexpected rate limit defaults: %+v", cfg)
	}
}

func TestScoringConfigService_Validate(t *testing.T) {
	svc := NewScoringConfigService(newTestConfig())

	cases := []struct {
		name      string
		update    func() []string
		wantValid bool
	}{
		{
			name: "empty update is valid",
			update: func() []string {
				return svc.Validate(scoringUpdate(nil, nil, nil, nil, nil, nil, nil))
			},
			wantValid: true,
		},
		{
			name: "negative attack points rejected",
			update: func() []string {
				return svc.Validate(scoringUpdate(nil, intPtr(-5), nil, nil, nil, nil, nil))
			},
			wantValid: false,
		},
		{
			name: "attack points above cap rejected",
			update: func() []string {
				return svc.Validate(scoringUpdate(nil, intPtr(99999), nil, nil, nil, nil, nil))
			},
			wantValid: false,
		},
		{
			name: "attack points in range accepted",
			update: func() []string {
				return svc.Validate(scoringUpdate(nil, intPtr(500), nil, nil, nil, nil, nil))
			},
			wantValid: true,
		},
		{
			name: "interval below one minute rejected",
			update: func() []string {
				return svc.Validate(scoringUpdate(nil, nil, nil, nil, intPtr(59999), nil, nil))
			},
			wantValid: false,
		},
		{
			name: "window above five minutes rejected",
			update: func() []string {
				return svc.Validate(scoringUpdate(nil, nil, nil, nil, nil, nil, intPtr(300001)))
			},
			wantValid: false,
		},
		{
			name: "zero max submissions rejected",
			update: func() []string {
				return svc.Validate(scoringUpdate(nil, nil, nil, nil, nil, intPtr(0), nil))
			},
			wantValid: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs := tc.update()
			if tc.wantValid && len(errs) != 0 {
				t.Errorf("expected valid, got errors: %v", errs)
			}
			if !tc.wantValid && len(errs) == 0 {
				t.Error("expected validation errors, got none")
			}
		})
	}
}

func TestScoringConfigService_UpdateAllOrNothing(t *testing.T) {
	svc := NewScoringConfigService(newTestConfig())

	// 유효한 필드와 무효한 필드가 섞인 업데이트는 전부 거부된다
	_, errs := svc.Update(scoringUpdate(intPtr(20), intPtr(-1), nil, nil, nil, nil, nil))
	if len(errs) == 0 {
		t.Fatal("expected validation errors")
	}

	cfg := svc.Get()
	if cfg.SelfFlagPoints != 10 {
		t.Errorf("selfFlagPoints changed despite failed validation: %d", cfg.SelfFlagPoints)
	}
}

func TestScoringConfigService_UpdateMergesProvidedFields(t *testing.T) {
	svc := NewScoringConfigService(newTestConfig())

	updated, errs := svc.Update(scoringUpdate(nil, intPtr(500), nil, nil, nil, nil, nil))
	if len(errs) != 0 {
		t.Fatalf("unexpected validation errors: %v", errs)
	}

	if updated.AttackPoints != 500 {
		t.Errorf("attackPoints = %d, want 500", updated.AttackPoints)
	}
	// 생략된 필드는 그대로
	if updated.SelfFlagPoints != 10 || updated.DefensePenalty != 50 {
		t.Errorf("omitted fields changed: %+v", updated)
	}

	// 다음 Get에서 보여야 한다
	if svc.Get().AttackPoints != 500 {
		t.Error("update not visible in subsequent Get")
	}
}

func TestScoringConfigService_GetReturnsCopy(t *testing.T) {
	svc := NewScoringConfigService(newTestConfig())

	cfg := svc.Get()
	cfg.AttackPoints = 1

	if svc.Get().AttackPoints != 200 {
		t.Error("mutating a snapshot affected the stored config")
	}
}

func TestScoringConfigService_ResetToDefaults(t *testing.T) {
	svc := NewScoringConfigService(newTestConfig())

	if _, errs := svc.Update(scoringUpdate(intPtr(99), intPtr(999), nil, nil, nil, nil, nil)); len(errs) != 0 {
		t.Fatalf("unexpected validation errors: %v", errs)
	}

	cfg := svc.ResetToDefaults()
	if cfg.SelfFlagPoints != 10 || cfg.AttackPoints != 200 {
		t.Errorf("reset did not restore defaults: %+v", cfg)
	}
}

func TestScoringConfigService_DurationHelpers(t *testing.T) {
	svc := NewScoringConfigService(newTestConfig())

	if got := svc.PassivePointsInterval(); got != 20*time.Minute {
		t.Errorf("PassivePointsInterval() = %v, want 20m", got)
	}
	if got := svc.RateLimitWindow(); got != time.Minute {
		t.Errorf("RateLimitWindow() = %v, want 1m", got)
	}

	if _, errs := svc.Update(scoringUpdate(nil, nil, nil, nil, intPtr(120000), nil, intPtr(30000))); len(errs) != 0 {
		t.Fatalf("unexpected validation errors: %v", errs)
	}

	if got := svc.PassivePointsInterval(); got != 2*time.Minute {
		t.Errorf("PassivePointsInterval() after update = %v, want 2m", got)
	}
	if got := svc.RateLimitWindow(); got != 30*time.Second {
		t.Errorf("RateLimitWindow() after update = %v, want 30s", got)
	}
}
