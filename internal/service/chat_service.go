package service

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/models"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/repository"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/pkg/logger"
	"go.uber.org/zap"
)

const chatHistoryLimit = 100

// ChatBroadcaster 새 메시지를 접속 중인 전체 팀에게 전파
type ChatBroadcaster interface {
	BroadcastChat(message *models.ChatMessage)
}

type ChatService struct {
	chatRepo    *repository.ChatRepository
	broadcaster ChatBroadcaster
	logger      *zap.Logger
}

func NewChatService(chatRepo *repository.ChatRepository, broadcaster ChatBroadcaster) *ChatService {
	return &ChatService{
		chatRepo:    chatRepo,
		broadcaster: broadcaster,
		logger:      logger.L("chat"),
	}
}

// Send 메시지 저장 후 전파
func (s *ChatService) Send(team, message string) (*models.ChatMessage, error) {
	msg, err := s.chatRepo.Create(team, message)
	if err != nil {
		return nil, err
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastChat(msg)
	}

	return msg, nil
}

// History 최근 메시지 조회
func (s *ChatService) History() ([]*models.ChatMessage, error) {
	messages, err := s.chatRepo.ListRecent(chatHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	return messages, nil
}

// Delete 메시지 삭제 (관리자용)
func (s *ChatService) Delete(id string) error {
	err := s.chatRepo.Delete(id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete chat message: %w", err)
	}

	s.logger.Info("Chat message deleted", zap.String("id", id))

	return nil
}
