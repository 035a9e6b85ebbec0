package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Team struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"` // JSON에서 숨김
	Score        int       `json:"score" db:"score"`
	Flags        []string  `json:"flags,omitempty"` // 소유 플래그 값 (flags 테이블에서 조인)
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

type CreateTeamRequest struct {
	Name       string `json:"name" binding:"required,min=2,max=50"`
	Username   string `json:"username" binding:"required,min=3,max=50"`
	Password   string `json:"password" binding:"required,min=6"`
	FlagsCount int    `json:"flagsCount"`
}

type UpdateTeamRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Score    *int   `json:"score"`
}

// ScoreboardEntry 점수판 항목
type ScoreboardEntry struct {
	Team  string `json:"team"`
	Score int    `json:"score"`
}

// TeamStats 팀별 제출 통계
type TeamStats struct {
	Team        string `json:"team"`
	Submitted   int    `json:"submitted"`
	Owned       int    `json:"owned"`
	Captured    int    `json:"captured"`
	Uncaptured  int    `json:"uncaptured"`
	SuccessRate int    `json:"successRate"`
	DefenseRate int    `json:"defenseRate"`
}

// HashPassword 비밀번호 해싱
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword 비밀번호 검증
func (t *Team) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(t.PasswordHash), []byte(password))
	return err == nil
}
