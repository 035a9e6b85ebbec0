package service

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/models"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/repository"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type FlagService struct {
	flagRepo *repository.FlagRepository
	teamRepo *repository.TeamRepository
	logger   *zap.Logger
}

func NewFlagService(flagRepo *repository.FlagRepository, teamRepo *repository.TeamRepository) *FlagService {
	return &FlagService{
		flagRepo: flagRepo,
		teamRepo: teamRepo,
		logger:   logger.L("flag"),
	}
}

// List 전체 플래그 조회 (제출 기록 포함)
func (s *FlagService) List() ([]*models.Flag, error) {
	flags, err := s.flagRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list flags: %w", err)
	}
	return flags, nil
}

// Create 플래그 생성. 값이 비어 있으면 uuid 토큰을 발급한다.
func (s *FlagService) Create(req models.CreateFlagRequest) (*models.Flag, error) {
	team, err := s.teamRepo.FindByName(req.Owner)
	if err != nil {
		return nil, fmt.Errorf("failed to find owner team: %w", err)
	}
	if team == nil {
		return nil, ErrTeamNotFound
	}

	value := req.Value
	if value == "" {
		value = uuid.NewString()
	}

	flag, err := s.flagRepo.Create(value, req.Owner)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Flag created",
		zap.String("owner", req.Owner),
		zap.String("flag", shortFlag(value)))

	return flag, nil
}

// Delete 플래그 삭제 (제출 기록도 함께 삭제된다)
func (s *FlagService) Delete(value string) error {
	err := s.flagRepo.Delete(value)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrFlagNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete flag: %w", err)
	}

	s.logger.Info("Flag deleted", zap.String("flag", shortFlag(value)))

	return nil
}

// SubmissionStats 팀별 제출/방어 통계
func (s *FlagService) SubmissionStats() ([]models.TeamStats, error) {
	teams, err := s.teamRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}

	flags, err := s.flagRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list flags: %w", err)
	}

	stats := make([]models.TeamStats, 0, len(teams))
	for _, team := range teams {
		submitted := 0
		owned := 0
		captured := 0

		for _, flag := range flags {
			hasSubmitted := false
			capturedByOther := false
			for _, sub := range flag.Submissions {
				if sub.Team == team.Name {
					hasSubmitted = true
				}
				if sub.Team != flag.Owner {
					capturedByOther = true
				}
			}

			if hasSubmitted {
				submitted++
			}
			if flag.Owner == team.Name {
				owned++
				if capturedByOther {
					captured++
				}
			}
		}

		successRate := 0
		if len(flags) > 0 {
			successRate = submitted * 100 / len(flags)
		}

		uncaptured := owned - captured
		defenseRate := 0
		if owned > 0 {
			defenseRate = uncaptured * 100 / owned
		}

		stats = append(stats, models.TeamStats{
			Team:        team.Name,
			Submitted:   submitted,
			Owned:       owned,
			Captured:    captured,
			Uncaptured:  uncaptured,
			SuccessRate: successRate,
			DefenseRate: defenseRate,
		})
	}

	return stats, nil
}
