package service

import (
	"fmt"

	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/models"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/repository"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultFlagsPerTeam = 5

type TeamService struct {
	teamRepo *repository.TeamRepository
	logger   *zap.Logger
}

func NewTeamService(teamRepo *repository.TeamRepository) *TeamService {
	return &TeamService{
		teamRepo: teamRepo,
		logger:   logger.L("team"),
	}
}

// Login 팀 로그인 (username + password)
func (s *TeamService) Login(username, password string) (*models.Team, error) {
	team, err := s.teamRepo.FindByUsername(username)
	if err != nil {
		return nil, fmt.Errorf("failed to find team: %w", err)
	}
	if team == nil {
		return nil, ErrInvalidCredentials
	}

	if !team.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	s.logger.Info("Team logged in", zap.String("team", team.Name))

	return team, nil
}

// Create 팀 생성 + 소유 플래그 발급 (uuid 토큰)
func (s *TeamService) Create(req models.CreateTeamRequest) (*models.Team, error) {
	existing, err := s.teamRepo.FindByName(req.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check team name: %w", err)
	}
	if existing == nil {
		existing, err = s.teamRepo.FindByUsername(req.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to check team username: %w", err)
		}
	}
	if existing != nil {
		return nil, ErrTeamAlreadyExists
	}

	passwordHash, err := models.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	flagsCount := req.FlagsCount
	if flagsCount <= 0 {
		flagsCount = DefaultFlagsPerTeam
	}
	flagValues := make([]string, flagsCount)
	for i := range flagValues {
		flagValues[i] = uuid.NewString()
	}

	team, err := s.teamRepo.Create(req.Name, req.Username, passwordHash, flagValues)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Team created",
		zap.String("team", team.Name),
		zap.Int("flags", flagsCount))

	return team, nil
}

// List 전체 팀 조회
func (s *TeamService) List() ([]*models.Team, error) {
	teams, err := s.teamRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

// Update 팀 정보 수정 (이름/비밀번호/점수, 제공된 것만)
func (s *TeamService) Update(id string, req models.UpdateTeamRequest) error {
	team, err := s.teamRepo.FindByID(id)
	if err != nil {
		return fmt.Errorf("failed to find team: %w", err)
	}
	if team == nil {
		return ErrTeamNotFound
	}

	passwordHash := ""
	if req.Password != "" {
		passwordHash, err = models.HashPassword(req.Password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
	}

	if err := s.teamRepo.Update(id, req.Name, passwordHash, req.Score); err != nil {
		return fmt.Errorf("failed to update team: %w", err)
	}

	return nil
}

// Delete 팀 삭제
func (s *TeamService) Delete(id string) error {
	team, err := s.teamRepo.FindByID(id)
	if err != nil {
		return fmt.Errorf("failed to find team: %w", err)
	}
	if team == nil {
		return ErrTeamNotFound
	}

	if err := s.teamRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}

	s.logger.Info("Team deleted", zap.String("team", team.Name))

	return nil
}

// Scoreboard 공개 점수판
func (s *TeamService) Scoreboard() ([]models.ScoreboardEntry, error) {
	entries, err := s.teamRepo.Scoreboard()
	if err != nil {
		return nil, fmt.Errorf("failed to get scoreboard: %w", err)
	}
	return entries, nil
}
