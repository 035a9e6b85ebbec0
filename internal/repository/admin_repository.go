package repository

import (
	"database/sql"
	"fmt"

	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/models"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/pkg/database"
	"github.com/google/uuid"
)

type AdminRepository struct {
	db *database.DB
}

func NewAdminRepository(db *database.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// Create 관리자 계정 생성
func (r *AdminRepository) Create(username, passwordHash string) (*models.Admin, error) {
	query := `
		INSERT INTO admins (id, username, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, username, created_at
	`

	admin := &models.Admin{}
	err := r.db.QueryRow(query, uuid.NewString(), username, passwordHash).Scan(
		&admin.ID,
		&admin.Username,
		&admin.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	return admin, nil
}

// FindByUsername 사용자명으로 찾기
func (r *AdminRepository) FindByUsername(username string) (*models.Admin, error) {
	query := `SELECT id, username, password_hash, created_at FROM admins WHERE username = $1`

	admin := &models.Admin{}
	err := r.db.QueryRow(query, username).Scan(
		&admin.ID,
		&admin.Username,
		&admin.PasswordHash,
		&admin.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil // 관리자 없음
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}

	return admin, nil
}
