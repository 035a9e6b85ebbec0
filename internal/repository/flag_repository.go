package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/models"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/pkg/database"
)

// ErrInconsistentState 점수 반영 도중 일부 대상 행이 사라진 경우.
// 트랜잭션은 롤백되므로 점수가 반쪽만 반영되는 일은 없지만,
// 일반적인 거부(잘못된 플래그 등)와는 구분해서 보고해야 한다.
var ErrInconsistentState = errors.New("inconsistent scoring state")

type FlagRepository struct {
	db *database.DB
}

func NewFlagRepository(db *database.DB) *FlagRepository {
	return &FlagRepository{db: db}
}

// Create 새 플래그 생성
func (r *FlagRepository) Create(value, owner string) (*models.Flag, error) {
	query := `
		INSERT INTO flags (value, owner)
		VALUES ($1, $2)
		RETURNING value, owner, created_at
	`

	flag := &models.Flag{Submissions: []models.Submission{}}
	err := r.db.QueryRow(query, value, owner).Scan(&flag.Value, &flag.Owner, &flag.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create flag: %w", err)
	}

	return flag, nil
}

// FindByValue 플래그 값으로 찾기 (제출 기록 포함)
func (r *FlagRepository) FindByValue(value string) (*models.Flag, error) {
	query := `SELECT value, owner, created_at FROM flags WHERE value = $1`

	flag := &models.Flag{}
	err := r.db.QueryRow(query, value).Scan(&flag.Value, &flag.Owner, &flag.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil // 플래그 없음
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find flag: %w", err)
	}

	flag.Submissions, err = r.submissions(flag.Value)
	if err != nil {
		return nil, err
	}

	return flag, nil
}

// HasSubmission 해당 팀이 이 플래그를 이미 제출했는지 확인
func (r *FlagRepository) HasSubmission(flagValue, team string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM flag_submissions WHERE flag_value = $1 AND team_name = $2)`

	var exists bool
	if err := r.db.QueryRow(query, flagValue, team).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check submission: %w", err)
	}

	return exists, nil
}

// ApplySelfCapture 자기 플래그 제출 반영.
// 제출 기록 추가와 점수 증가를 한 트랜잭션으로 처리한다 (둘 다 아니면 무).
func (r *FlagRepository) ApplySelfCapture(flagValue, team string, points int, submittedAt time.Time) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := appendSubmission(tx, flagValue, team, submittedAt); err != nil {
		return 0, err
	}

	var newScore int
	err = tx.QueryRow(
		`UPDATE teams SET score = score + $1, updated_at = NOW() WHERE name = $2 RETURNING score`,
		points, team,
	).Scan(&newScore)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("%w: submitting team %q missing", ErrInconsistentState, team)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update submitter score: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit self capture: %w", err)
	}

	return newScore, nil
}

// ApplyAttack 공격 제출 반영.
// 제출 기록 추가, 공격 팀 점수 증가, 소유 팀 점수 감소를 한 트랜잭션으로
// 처리한다. 소유 팀 행이 도중에 사라지면 전체를 롤백하고
// ErrInconsistentState를 반환한다.
func (r *FlagRepository) ApplyAttack(flagValue, attacker, owner string, gain, penalty int, submittedAt time.Time) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := appendSubmission(tx, flagValue, attacker, submittedAt); err != nil {
		return 0, err
	}

	var attackerScore int
	err = tx.QueryRow(
		`UPDATE teams SET score = score + $1, updated_at = NOW() WHERE name = $2 RETURNING score`,
		gain, attacker,
	).Scan(&attackerScore)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("%w: attacking team %q missing", ErrInconsistentState, attacker)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update attacker score: %w", err)
	}

	// 점수는 음수가 될 수 있다 (바닥 없음)
	result, err := tx.Exec(
		`UPDATE teams SET score = score - $1, updated_at = NOW() WHERE name = $2`,
		penalty, owner,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update owner score: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check owner update: %w", err)
	}
	if affected == 0 {
		return 0, fmt.Errorf("%w: owner team %q missing for flag %q", ErrInconsistentState, owner, flagValue)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit attack: %w", err)
	}

	return attackerScore, nil
}

// appendSubmission 제출 기록 추가 (append-only, (flag, team) 조합 유일)
func appendSubmission(tx *sql.Tx, flagValue, team string, submittedAt time.Time) error {
	_, err := tx.Exec(
		`INSERT INTO flag_submissions (flag_value, team_name, submitted_at) VALUES ($1, $2, $3)`,
		flagValue, team, submittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append submission: %w", err)
	}
	return nil
}

// ListUndefeated 소유 팀 외에는 아무도 제출하지 않은 플래그 목록
func (r *FlagRepository) ListUndefeated() ([]models.Flag, error) {
	query := `
		SELECT f.value, f.owner
		FROM flags f
		WHERE NOT EXISTS (
			SELECT 1 FROM flag_submissions s
			WHERE s.flag_value = f.value AND s.team_name <> f.owner
		)
		ORDER BY f.owner ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list undefeated flags: %w", err)
	}
	defer rows.Close()

	flags := []models.Flag{}
	for rows.Next() {
		var flag models.Flag
		if err := rows.Scan(&flag.Value, &flag.Owner); err != nil {
			return nil, fmt.Errorf("failed to scan flag: %w", err)
		}
		flags = append(flags, flag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate flags: %w", err)
	}

	return flags, nil
}

// List 모든 플래그 조회 (소유 팀순, 제출 기록 포함)
func (r *FlagRepository) List() ([]*models.Flag, error) {
	query := `SELECT value, owner, created_at FROM flags ORDER BY owner ASC, created_at ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list flags: %w", err)
	}
	defer rows.Close()

	flags := []*models.Flag{}
	byValue := make(map[string]*models.Flag)

	for rows.Next() {
		flag := &models.Flag{Submissions: []models.Submission{}}
		if err := rows.Scan(&flag.Value, &flag.Owner, &flag.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan flag: %w", err)
		}
		flags = append(flags, flag)
		byValue[flag.Value] = flag
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate flags: %w", err)
	}

	subRows, err := r.db.Query(
		`SELECT flag_value, team_name, submitted_at FROM flag_submissions ORDER BY submitted_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer subRows.Close()

	for subRows.Next() {
		var flagValue string
		var sub models.Submission
		if err := subRows.Scan(&flagValue, &sub.Team, &sub.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		if flag, ok := byValue[flagValue]; ok {
			flag.Submissions = append(flag.Submissions, sub)
		}
	}

	return flags, nil
}

// Delete 플래그 삭제 (제출 기록은 cascade로 함께 삭제 — 유일한 제출 기록 삭제 경로)
func (r *FlagRepository) Delete(value string) error {
	result, err := r.db.Exec(`DELETE FROM flags WHERE value = $1`, value)
	if err != nil {
		return fmt.Errorf("failed to delete flag: %w", err)
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

// submissions 플래그의 제출 기록 (제출 시각순)
func (r *FlagRepository) submissions(flagValue string) ([]models.Submission, error) {
	query := `
		SELECT team_name, submitted_at
		FROM flag_submissions
		WHERE flag_value = $1
		ORDER BY submitted_at ASC
	`

	rows, err := r.db.Query(query, flagValue)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	subs := []models.Submission{}
	for rows.Next() {
		var sub models.Submission
		if err := rows.Scan(&sub.Team, &sub.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate submissions: %w", err)
	}

	return subs, nil
}
