package models

import "time"

type ChatMessage struct {
	ID        string    `json:"id" db:"id"`
	Team      string    `json:"team" db:"team_name"`
	Message   string    `json:"message" db:"message"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type SendChatRequest struct {
	Message string `json:"message" binding:"required,max=500"`
}
