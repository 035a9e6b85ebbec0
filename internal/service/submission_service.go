package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/models"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/repository"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/pkg/logger"
	"go.uber.org/zap"
)

// SubmissionFlagStore 제출 평가에 필요한 플래그 저장소 연산
type SubmissionFlagStore interface {
	FindByValue(value string) (*models.Flag, error)
	HasSubmission(flagValue, team string) (bool, error)
	ApplySelfCapture(flagValue, team string, points int, submittedAt time.Time) (int, error)
	ApplyAttack(flagValue, attacker, owner string, gain, penalty int, submittedAt time.Time) (int, error)
}

// SubmissionTeamStore 제출 팀 조회
type SubmissionTeamStore interface {
	FindByName(name string) (*models.Team, error)
}

// Notifier 플래그 소유 팀에게 공격 알림 전달 (best-effort)
type Notifier interface {
	NotifyFlagCapture(owner string, notification models.FlagCaptureNotification)
}

// SubmissionResult 제출 성공 결과
type SubmissionResult struct {
	Message  string
	NewScore int
}

// SubmissionService 플래그 제출 평가기.
// 제출 기록과 점수 반영은 저장소 트랜잭션으로 처리되어
// 둘 다 반영되거나 둘 다 반영되지 않는다.
type SubmissionService struct {
	flagStore SubmissionFlagStore
	teamStore SubmissionTeamStore
	config    *ScoringConfigService
	notifier  Notifier
	logger    *zap.Logger
	now       func() time.Time
}

func NewSubmissionService(
	flagStore SubmissionFlagStore,
	teamStore SubmissionTeamStore,
	configService *ScoringConfigService,
	notifier Notifier,
) *SubmissionService {
	return &SubmissionService{
		flagStore: flagStore,
		teamStore: teamStore,
		config:    configService,
		notifier:  notifier,
		logger:    logger.L("submission"),
		now:       time.Now,
	}
}

// Submit 제출 평가 상태 기계.
// 1. 플래그 존재 확인
// 2. (플래그, 팀) 중복 제출 거부 (오류가 아닌 멱등 거부)
// 3. 자기 플래그 / 공격 분류 후 점수 반영 (트랜잭션)
// 4. 공격 성공 시 소유 팀에게 알림 발송 (비동기, 실패해도 제출은 성공)
func (s *SubmissionService) Submit(teamName, flagValue string) (*SubmissionResult, error) {
	flag, err := s.flagStore.FindByValue(flagValue)
	if err != nil {
		return nil, fmt.Errorf("failed to look up flag: %w", err)
	}
	if flag == nil {
		return nil, ErrFlagNotFound
	}

	team, err := s.teamStore.FindByName(teamName)
	if err != nil {
		return nil, fmt.Errorf("failed to look up team: %w", err)
	}
	if team == nil {
		return nil, ErrTeamNotFound
	}

	submitted, err := s.flagStore.HasSubmission(flagValue, teamName)
	if err != nil {
		return nil, fmt.Errorf("failed to check submission history: %w", err)
	}
	if submitted {
		return nil, ErrAlreadySubmitted
	}

	cfg := s.config.Get()
	now := s.now()

	// 자기 플래그 제출
	if flag.Owner == teamName {
		newScore, err := s.flagStore.ApplySelfCapture(flagValue, teamName, cfg.SelfFlagPoints, now)
		if err != nil {
			s.logScoringFailure(flagValue, teamName, flag.Owner, err)
			return nil, err
		}

		s.logger.Info("Self flag submitted",
			zap.String("team", teamName),
			zap.Int("points", cfg.SelfFlagPoints),
			zap.Int("newScore", newScore))

		return &SubmissionResult{
			Message:  fmt.Sprintf("You submitted your own flag! +%d points", cfg.SelfFlagPoints),
			NewScore: newScore,
		}, nil
	}

	// 공격: 공격 팀 점수 증가, 소유 팀 점수 감소 (둘 다 아니면 무)
	newScore, err := s.flagStore.ApplyAttack(flagValue, teamName, flag.Owner, cfg.AttackPoints, cfg.DefensePenalty, now)
	if err != nil {
		s.logScoringFailure(flagValue, teamName, flag.Owner, err)
		return nil, err
	}

	s.logger.Info("Flag captured",
		zap.String("attacker", teamName),
		zap.String("owner", flag.Owner),
		zap.Int("gain", cfg.AttackPoints),
		zap.Int("penalty", cfg.DefensePenalty),
		zap.Int("newScore", newScore))

	// 소유 팀 알림은 best-effort: 전달 실패가 제출 응답을 막으면 안 된다
	if s.notifier != nil {
		s.notifier.NotifyFlagCapture(flag.Owner, models.FlagCaptureNotification{
			Type:      "flag-submission",
			Team:      teamName,
			FlagOwner: flag.Owner,
			FlagValue: flagValue,
			Timestamp: now.UTC().Format(time.RFC3339),
		})
	}

	return &SubmissionResult{
		Message: fmt.Sprintf("You submitted %s's flag! +%d points for you, -%d points for them",
			flag.Owner, cfg.AttackPoints, cfg.DefensePenalty),
		NewScore: newScore,
	}, nil
}

// logScoringFailure 점수 반영 실패 기록.
// 불일치 상태(트랜잭션 중 대상 행 소실)는 일반 인프라 오류와 구분해서
// 수동 대조가 가능할 만큼의 문맥을 남긴다.
func (s *SubmissionService) logScoringFailure(flagValue, submitter, owner string, err error) {
	if errors.Is(err, repository.ErrInconsistentState) {
		s.logger.Error("Scoring state inconsistency during submission",
			zap.String("flag", flagValue),
			zap.String("submitter", submitter),
			zap.String("owner", owner),
			zap.Error(err))
		return
	}

	s.logger.Error("Failed to apply submission",
		zap.String("flag", flagValue),
		zap.String("submitter", submitter),
		zap.Error(err))
}
