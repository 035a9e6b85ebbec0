package service

import (
	"fmt"

	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/models"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/repository"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/pkg/logger"
	"go.uber.org/zap"
)

type AdminService struct {
	adminRepo *repository.AdminRepository
	logger    *zap.Logger
}

func NewAdminService(adminRepo *repository.AdminRepository) *AdminService {
	return &AdminService{
		adminRepo: adminRepo,
		logger:    logger.L("admin"),
	}
}

// Login 관리자 로그인
func (s *AdminService) Login(username, password string) (*models.Admin, error) {
	admin, err := s.adminRepo.FindByUsername(username)
	if err != nil {
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}
	if admin == nil {
		return nil, ErrInvalidCredentials
	}

	if !admin.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	s.logger.Info("Admin logged in", zap.String("username", username))

	return admin, nil
}

// CreateIfMissing 초기 관리자 계정 생성 (이미 있으면 건너뜀)
func (s *AdminService) CreateIfMissing(username, password string) error {
	existing, err := s.adminRepo.FindByUsername(username)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	passwordHash, err := models.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if _, err := s.adminRepo.Create(username, passwordHash); err != nil {
		return err
	}

	s.logger.Info("Initial admin account created", zap.String("username", username))

	return nil
}
