package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/models"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/service"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/pkg/logger"
)

type ChatHandler struct {
	chatService *service.ChatService
}

func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// History 최근 채팅 메시지 조회
func (h *ChatHandler) History(c *gin.Context) {
	messages, err := h.chatService.History()
	if err != nil {
		logger.Error("Failed to load chat history", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load chat history",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
	})
}

// Send 채팅 메시지 전송. 저장 후 WebSocket으로 전체 전파된다.
func (h *ChatHandler) Send(c *gin.Context) {
	teamName := c.GetString("team")
	if teamName == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Not authenticated",
		})
		return
	}

	var req models.SendChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	message, err := h.chatService.Send(teamName, req.Message)
	if err != nil {
		logger.Error("Failed to send chat message", "team", teamName, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to send message",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": message,
	})
}

// Delete 메시지 삭제 (관리자용)
func (h *ChatHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.chatService.Delete(id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Message not found",
			})
			return
		}

		logger.Error("Failed to delete chat message", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to delete message",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Message deleted successfully",
	})
}
