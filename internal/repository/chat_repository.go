package repository

import (
	"database/sql"
	"fmt"

	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/models"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/pkg/database"
	"github.com/google/uuid"
)

type ChatRepository struct {
	db *database.DB
}

func NewChatRepository(db *database.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// Create 메시지 저장
func (r *ChatRepository) Create(team, message string) (*models.ChatMessage, error) {
	query := `
		INSERT INTO chat_messages (id, team_name, message)
		VALUES ($1, $2, $3)
		RETURNING id, team_name, message, created_at
	`

	msg := &models.ChatMessage{}
	err := r.db.QueryRow(query, uuid.NewString(), team, message).Scan(
		&msg.ID,
		&msg.Team,
		&msg.Message,
		&msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat message: %w", err)
	}

	return msg, nil
}

// ListRecent 최근 메시지 조회 (시간순)
func (r *ChatRepository) ListRecent(limit int) ([]*models.ChatMessage, error) {
	query := `
		SELECT id, team_name, message, created_at
		FROM (
			SELECT id, team_name, message, created_at
			FROM chat_messages
			ORDER BY created_at DESC
			LIMIT $1
		) recent
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	defer rows.Close()

	messages := []*models.ChatMessage{}
	for rows.Next() {
		msg := &models.ChatMessage{}
		if err := rows.Scan(&msg.ID, &msg.Team, &msg.Message, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat messages: %w", err)
	}

	return messages, nil
}

// Delete 메시지 삭제 (관리자용)
func (r *ChatRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM chat_messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete chat message: %w", err)
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
