package repository

import (
	"database/sql"
	"fmt"

	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/models"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/pkg/database"
	"github.com/google/uuid"
)

type TeamRepository struct {
	db *database.DB
}

func NewTeamRepository(db *database.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// Create 새 팀 생성 (소유 플래그와 함께, 단일 트랜잭션)
func (r *TeamRepository) Create(name, username, passwordHash string, flagValues []string) (*models.Team, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO teams (id, name, username, password_hash, score)
		VALUES ($1, $2, $3, $4, 0)
		RETURNING id, name, username, score, created_at, updated_at
	`

	team := &models.Team{}
	err = tx.QueryRow(query, uuid.NewString(), name, username, passwordHash).Scan(
		&team.ID,
		&team.Name,
		&team.Username,
		&team.Score,
		&team.CreatedAt,
		&team.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	for _, value := range flagValues {
		if _, err := tx.Exec(`INSERT INTO flags (value, owner) VALUES ($1, $2)`, value, name); err != nil {
			return nil, fmt.Errorf("failed to create flag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit team creation: %w", err)
	}

	team.Flags = flagValues
	return team, nil
}

// FindByName 팀 이름으로 찾기
func (r *TeamRepository) FindByName(name string) (*models.Team, error) {
	query := `
		SELECT id, name, username, password_hash, score, created_at, updated_at
		FROM teams
		WHERE name = $1
	`

	team := &models.Team{}
	err := r.db.QueryRow(query, name).Scan(
		&team.ID,
		&team.Name,
		&team.Username,
		&team.PasswordHash,
		&team.Score,
		&team.CreatedAt,
		&team.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil // 팀 없음
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find team: %w", err)
	}

	return team, nil
}

// FindByUsername 로그인 계정으로 찾기
func (r *TeamRepository) FindByUsername(username string) (*models.Team, error) {
	query := `
		SELECT id, name, username, password_hash, score, created_at, updated_at
		FROM teams
		WHERE username = $1
	`

	team := &models.Team{}
	err := r.db.QueryRow(query, username).Scan(
		&team.ID,
		&team.Name,
		&team.Username,
		&team.PasswordHash,
		&team.Score,
		&team.CreatedAt,
		&team.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find team: %w", err)
	}

	return team, nil
}

// FindByID ID로 찾기
func (r *TeamRepository) FindByID(id string) (*models.Team, error) {
	query := `
		SELECT id, name, username, password_hash, score, created_at, updated_at
		FROM teams
		WHERE id = $1
	`

	team := &models.Team{}
	err := r.db.QueryRow(query, id).Scan(
		&team.ID,
		&team.Name,
		&team.Username,
		&team.PasswordHash,
		&team.Score,
		&team.CreatedAt,
		&team.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find team: %w", err)
	}

	return team, nil
}

// List 모든 팀 조회 (이름순, 소유 플래그 포함)
func (r *TeamRepository) List() ([]*models.Team, error) {
	query := `
		SELECT id, name, username, score, created_at, updated_at
		FROM teams
		ORDER BY name ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	teams := []*models.Team{}
	byName := make(map[string]*models.Team)

	for rows.Next() {
		team := &models.Team{}
		if err := rows.Scan(&team.ID, &team.Name, &team.Username, &team.Score, &team.CreatedAt, &team.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, team)
		byName[team.Name] = team
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate teams: %w", err)
	}

	flagRows, err := r.db.Query(`SELECT value, owner FROM flags ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list team flags: %w", err)
	}
	defer flagRows.Close()

	for flagRows.Next() {
		var value, owner string
		if err := flagRows.Scan(&value, &owner); err != nil {
			return nil, fmt.Errorf("failed to scan flag: %w", err)
		}
		if team, ok := byName[owner]; ok {
			team.Flags = append(team.Flags, value)
		}
	}

	return teams, nil
}

// AddScore 점수 원자적 증감 (음수 허용, 바닥 없음)
func (r *TeamRepository) AddScore(name string, delta int) (int, error) {
	query := `
		UPDATE teams
		SET score = score + $1, updated_at = NOW()
		WHERE name = $2
		RETURNING score
	`

	var newScore int
	err := r.db.QueryRow(query, delta, name).Scan(&newScore)

	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("team %q not found", name)
	}

	if err != nil {
		return 0, fmt.Errorf("failed to update score: %w", err)
	}

	return newScore, nil
}

// Update 팀 정보 업데이트 (이름/비밀번호/점수, 제공된 것만)
func (r *TeamRepository) Update(id string, name, passwordHash string, score *int) error {
	query := `
		UPDATE teams
		SET name = COALESCE(NULLIF($1, ''), name),
		    password_hash = COALESCE(NULLIF($2, ''), password_hash),
		    score = COALESCE($3, score),
		    updated_at = NOW()
		WHERE id = $4
	`

	result, err := r.db.Exec(query, name, passwordHash, score, id)
	if err != nil {
		return fmt.Errorf("failed to update team: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// Delete 팀 삭제 (플래그와 제출 기록은 FK cascade로 함께 삭제)
func (r *TeamRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// Scoreboard 점수판 (점수 내림차순)
func (r *TeamRepository) Scoreboard() ([]models.ScoreboardEntry, error) {
	query := `SELECT name, score FROM teams ORDER BY score DESC, name ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query scoreboard: %w", err)
	}
	defer rows.Close()

	entries := []models.ScoreboardEntry{}
	for rows.Next() {
		var entry models.ScoreboardEntry
		if err := rows.Scan(&entry.Team, &entry.Score); err != nil {
			return nil, fmt.Errorf("failed to scan scoreboard entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scoreboard: %w", err)
	}

	return entries, nil
}
