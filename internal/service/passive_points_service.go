package service

import (
	"sync"
	"time"

	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/models"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/pkg/logger"
	"go.uber.org/zap"
)

// PassiveFlagStore 패시브 포인트 스캔에 필요한 플래그 저장소 연산
type PassiveFlagStore interface {
	ListUndefeated() ([]models.Flag, error)
}

// PassiveTeamStore 점수 반영 연산
type PassiveTeamStore interface {
	AddScore(name string, delta int) (int, error)
}

// PassivePointsStatus 스케줄러 상태 스냅샷
type PassivePointsStatus struct {
	Running            bool       `json:"running"`
	LastRun            *time.Time `json:"lastRun"`
	NextRun            *time.Time `json:"nextRun"`
	PointsAwarded      int        `json:"pointsAwarded"`
	StartedAt          *time.Time `json:"startedAt"`
	ScheduledStart     *time.Time `json:"scheduledStart"`
	ScheduledEnd       *time.Time `json:"scheduledEnd"`
	Interval           int        `json:"interval"` // ms
	WithinSchedule     bool       `json:"withinSchedule"`
	PassivePointsValue int        `json:"passivePointsValue"`
}

// PassivePointsService 방어 점수 주기 지급 스케줄러.
// 아무 팀에게도 뺏기지 않은 플래그마다 소유 팀에게 점수를 지급한다.
// 선택적 시간 창(scheduledStart/End) 밖에서는 지급을 건너뛰되
// 타이머는 계속 돈다.
type PassivePointsService struct {
	flagStore PassiveFlagStore
	teamStore PassiveTeamStore
	config    *ScoringConfigService
	logger    *zap.Logger
	now       func() time.Time

	// opMu는 Start/Stop/Restart 전체를 직렬화한다
	// (stopChan 이중 close 방지)
	opMu sync.Mutex
	wg   sync.WaitGroup

	// mu는 아래 상태 블록을 보호한다
	mu             sync.Mutex
	running        bool
	stopChan       chan struct{}
	lastRun        *time.Time
	nextRun        *time.Time
	pointsAwarded  int
	startedAt      *time.Time
	scheduledStart *time.Time
	scheduledEnd   *time.Time

	// passMu는 지급 패스의 동시 실행을 막는다
	// (패스가 주기보다 오래 걸려도 겹쳐 돌지 않음)
	passMu sync.Mutex
}

func NewPassivePointsService(
	flagStore PassiveFlagStore,
	teamStore PassiveTeamStore,
	configService *ScoringConfigService,
) *PassivePointsService {
	return &PassivePointsService{
		flagStore: flagStore,
		teamStore: teamStore,
		config:    configService,
		logger:    logger.L("passive-points"),
		now:       time.Now,
	}
}

// Start 스케줄러 시작.
// 현재 설정된 주기로 타이머를 걸고, 첫 지급 패스는 첫 틱을 기다리지 않고
// 즉시 실행한다. 이미 실행 중이면 ErrSchedulerAlreadyRunning.
func (s *PassivePointsService) Start(scheduledStart, scheduledEnd *time.Time) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrSchedulerAlreadyRunning
	}

	if scheduledStart != nil {
		s.scheduledStart = scheduledStart
	}
	if scheduledEnd != nil {
		s.scheduledEnd = scheduledEnd
	}

	interval := s.config.PassivePointsInterval()
	now := s.now()
	next := now.Add(interval)

	s.running = true
	s.startedAt = &now
	s.nextRun = &next
	s.stopChan = make(chan struct{})
	stop := s.stopChan
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop(stop, interval, true)

	s.logger.Info("Passive points mechanism started",
		zap.Duration("interval", interval),
		zap.Int("pointsPerFlag", s.config.Get().PassivePointsValue),
		zap.Timep("scheduledStart", scheduledStart),
		zap.Timep("scheduledEnd", scheduledEnd))

	return nil
}

// Stop 스케줄러 중지.
// 반환 시점 이후에는 지급 패스가 절대 실행되지 않는다 (루프 합류 대기).
// lastRun/pointsAwarded 등 이력 카운터는 유지된다.
func (s *PassivePointsService) Stop() error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.running = false
	stop := s.stopChan
	s.mu.Unlock()

	close(stop)
	s.wg.Wait()

	// 진행 중이던 패스가 nextRun을 갱신했을 수 있으므로 합류 후에 비운다
	s.mu.Lock()
	s.nextRun = nil
	s.mu.Unlock()

	s.logger.Info("Passive points mechanism stopped")

	return nil
}

// RestartWithCurrentInterval 현재 설정 주기로 타이머 재무장.
// 설정의 passivePointsInterval이 바뀔 때 호출한다. 이전 타이머를 완전히
// 내린 뒤에 새 타이머를 걸기 때문에 이전 주기 경계에서 이중 실행이 없다.
// 실행 중이 아니면 아무것도 하지 않고 false를 반환한다.
func (s *PassivePointsService) RestartWithCurrentInterval() bool {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return false
	}
	stop := s.stopChan
	s.mu.Unlock()

	close(stop)
	s.wg.Wait()

	interval := s.config.PassivePointsInterval()
	now := s.now()
	next := now.Add(interval)

	s.mu.Lock()
	s.stopChan = make(chan struct{})
	s.nextRun = &next
	stop = s.stopChan
	s.mu.Unlock()

	// 재시작 시에는 즉시 실행 없이 다음 틱부터 지급한다
	s.wg.Add(1)
	go s.loop(stop, interval, false)

	s.logger.Info("Passive points mechanism restarted with new interval",
		zap.Duration("interval", interval))

	return true
}

// UpdateSchedule 지급 시간 창 갱신 (제공된 필드만, 실행 여부와 무관)
func (s *PassivePointsService) UpdateSchedule(scheduledStart, scheduledEnd *time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if scheduledStart != nil {
		s.scheduledStart = scheduledStart
	}
	if scheduledEnd != nil {
		s.scheduledEnd = scheduledEnd
	}

	s.logger.Info("Passive points schedule updated",
		zap.Timep("scheduledStart", s.scheduledStart),
		zap.Timep("scheduledEnd", s.scheduledEnd))
}

// GetStatus 상태 스냅샷 + 파생 필드 (withinSchedule, 현재 설정값)
func (s *PassivePointsService) GetStatus() PassivePointsStatus {
	cfg := s.config.Get()

	s.mu.Lock()
	defer s.mu.Unlock()

	return PassivePointsStatus{
		Running:            s.running,
		LastRun:            s.lastRun,
		NextRun:            s.nextRun,
		PointsAwarded:      s.pointsAwarded,
		StartedAt:          s.startedAt,
		ScheduledStart:     s.scheduledStart,
		ScheduledEnd:       s.scheduledEnd,
		Interval:           cfg.PassivePointsInterval,
		WithinSchedule:     s.withinSchedule(s.now()),
		PassivePointsValue: cfg.PassivePointsValue,
	}
}

// loop 주기 실행 루프 (teacher-style: ticker + stop channel)
func (s *PassivePointsService) loop(stop chan struct{}, interval time.Duration, runImmediately bool) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if runImmediately {
		s.RunAwardPass()
	}

	for {
		select {
		case <-ticker.C:
			s.RunAwardPass()
		case <-stop:
			return
		}
	}
}

// RunAwardPass 지급 패스 1회 실행 (타이머 또는 수동 호출).
// 시간 창 밖이면 지급 없이 nextRun만 전진시킨다. 패스 내부 오류는
// 여기서 흡수해서 타이머가 계속 돌게 한다.
// awarded는 이번 패스에서 지급한 총 점수.
func (s *PassivePointsService) RunAwardPass() (awarded int, skipped bool) {
	if !s.passMu.TryLock() {
		s.logger.Warn("Previous award pass still running, skipping tick")
		return 0, true
	}
	defer s.passMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Award pass panicked", zap.Any("panic", r))
		}
	}()

	cfg := s.config.Get()
	interval := time.Duration(cfg.PassivePointsInterval) * time.Millisecond
	now := s.now()

	s.mu.Lock()
	within := s.withinSchedule(now)
	s.mu.Unlock()

	if !within {
		s.advanceNextRun(now, interval, false)
		s.logger.Info("Outside scheduled time window, skipping passive points award")
		return 0, true
	}

	flags, err := s.flagStore.ListUndefeated()
	if err != nil {
		// 일시적 저장소 장애: 다음 틱에 재시도, 타이머는 유지
		s.advanceNextRun(now, interval, false)
		s.logger.Error("Failed to scan flags for passive points", zap.Error(err))
		return 0, true
	}

	for _, flag := range flags {
		if _, err := s.teamStore.AddScore(flag.Owner, cfg.PassivePointsValue); err != nil {
			s.logger.Error("Failed to award passive points",
				zap.String("owner", flag.Owner),
				zap.String("flag", shortFlag(flag.Value)),
				zap.Error(err))
			continue
		}

		awarded += cfg.PassivePointsValue
		s.logger.Debug("Awarded passive points",
			zap.String("owner", flag.Owner),
			zap.String("flag", shortFlag(flag.Value)),
			zap.Int("points", cfg.PassivePointsValue))
	}

	s.mu.Lock()
	s.lastRun = &now
	next := now.Add(interval)
	s.nextRun = &next
	s.pointsAwarded += awarded
	s.mu.Unlock()

	s.logger.Info("Passive points run complete",
		zap.Int("awarded", awarded),
		zap.Int("undefeatedFlags", len(flags)))

	return awarded, false
}

// advanceNextRun 지급 없이 다음 실행 시각만 전진
func (s *PassivePointsService) advanceNextRun(now time.Time, interval time.Duration, setLastRun bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := now.Add(interval)
	s.nextRun = &next
	if setLastRun {
		s.lastRun = &now
	}
}

// withinSchedule 시간 창 판정 (둘 다 미설정이면 항상 true).
// 호출자는 s.mu를 잡고 있어야 한다.
func (s *PassivePointsService) withinSchedule(now time.Time) bool {
	if s.scheduledStart != nil && now.Before(*s.scheduledStart) {
		return false
	}
	if s.scheduledEnd != nil && now.After(*s.scheduledEnd) {
		return false
	}
	return true
}

// shortFlag 로그에 플래그 전체 값을 남기지 않는다
func shortFlag(value string) string {
	if len(value) <= 8 {
		return value
	}
	return value[:8] + "..."
}
